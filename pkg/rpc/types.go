package rpc

import (
	"encoding/json"
	"strconv"
	"time"
)

// Message action type URLs as they appear in message.action events and in the
// @type discriminator of decoded messages.
const (
	MsgCreateValidatorType = "/cosmos.staking.v1beta1.MsgCreateValidator"
	MsgEditValidatorType   = "/cosmos.staking.v1beta1.MsgEditValidator"
	MsgUnjailType          = "/cosmos.slashing.v1beta1.MsgUnjail"

	MsgVoteV1Beta1Type         = "/cosmos.gov.v1beta1.MsgVote"
	MsgVoteV1Type              = "/cosmos.gov.v1.MsgVote"
	MsgVoteWeightedV1Beta1Type = "/cosmos.gov.v1beta1.MsgVoteWeighted"
	MsgVoteWeightedV1Type      = "/cosmos.gov.v1.MsgVoteWeighted"

	MsgSoftwareUpgradeType   = "/cosmos.upgrade.v1beta1.MsgSoftwareUpgrade"
	MsgExecLegacyContentType = "/cosmos.gov.v1.MsgExecLegacyContent"
)

// TxResult is one transaction as returned by the tx search endpoint.
type TxResult struct {
	TxHash    string `json:"txhash"`
	Height    string `json:"height"`
	Timestamp string `json:"timestamp"`
	Tx        Tx     `json:"tx"`
}

// Tx carries the decoded transaction body.
type Tx struct {
	Body TxBody `json:"body"`
}

// TxBody holds the raw messages; each processor decodes only the message
// kinds it understands.
type TxBody struct {
	Messages []json.RawMessage `json:"messages"`
}

// HeightInt parses the string-encoded height. Returns 0 if unparseable.
func (t *TxResult) HeightInt() int64 {
	return parseInt(t.Height)
}

// BlockTime parses the RFC3339 block timestamp. Zero time if unparseable.
func (t *TxResult) BlockTime() time.Time {
	ts, err := time.Parse(time.RFC3339, t.Timestamp)
	if err != nil {
		return time.Time{}
	}
	return ts
}

// TxSearchResponse is a page of matching transactions.
type TxSearchResponse struct {
	TxResponses []TxResult `json:"tx_responses"`
	Total       string     `json:"total"`
}

// TypedMessage peeks at a raw message's discriminator.
type TypedMessage struct {
	Type string `json:"@type"`
}

// Description is the mutable free-text portion of a validator profile.
type Description struct {
	Moniker         string `json:"moniker"`
	Identity        string `json:"identity"`
	Website         string `json:"website"`
	SecurityContact string `json:"security_contact"`
	Details         string `json:"details"`
}

// MsgCreateValidator registers a new validator.
type MsgCreateValidator struct {
	Type        string      `json:"@type"`
	Description Description `json:"description"`
	Commission  struct {
		Rate string `json:"rate"`
	} `json:"commission"`
	MinSelfDelegation string `json:"min_self_delegation"`
	ValidatorAddress  string `json:"validator_address"`
}

// MsgEditValidator mutates an existing validator profile. Pointer fields are
// absent from the wire when the operator did not touch them at all; string
// fields carry the do-not-modify sentinel instead.
type MsgEditValidator struct {
	Type              string      `json:"@type"`
	Description       Description `json:"description"`
	ValidatorAddress  string      `json:"validator_address"`
	CommissionRate    *string     `json:"commission_rate"`
	MinSelfDelegation *string     `json:"min_self_delegation"`
}

// MsgUnjail releases a jailed validator.
type MsgUnjail struct {
	Type          string `json:"@type"`
	ValidatorAddr string `json:"validator_addr"`
}

// MsgVote is a governance vote; covers both plain and weighted forms across
// gov v1beta1 and v1. Option values arrive either as a numeric enum or as a
// symbolic VOTE_OPTION_* string, so they stay raw here.
type MsgVote struct {
	Type       string           `json:"@type"`
	ProposalID string           `json:"proposal_id"`
	Voter      string           `json:"voter"`
	Option     json.RawMessage  `json:"option"`
	Options    []WeightedOption `json:"options"`
}

// WeightedOption is one option of a weighted vote.
type WeightedOption struct {
	Option json.RawMessage `json:"option"`
	Weight string          `json:"weight"`
}

// Block is the normalized view of a block header.
type Block struct {
	Height int64
	Time   time.Time
}

// Proposal is the normalized view of a governance proposal across the v1 and
// v1beta1 list shapes.
type Proposal struct {
	ID          string
	Title       string
	Status      string
	VotingStart time.Time
	// Messages is populated from the gov v1 shape.
	Messages []json.RawMessage
	// Content is populated from the gov v1beta1 shape.
	Content json.RawMessage
}

// UpgradePlan mirrors the upgrade module's Plan type.
type UpgradePlan struct {
	Name   string `json:"name"`
	Height string `json:"height"`
	Info   string `json:"info"`
}

// HeightInt parses the string-encoded target height. Returns 0 if unparseable.
func (p *UpgradePlan) HeightInt() int64 {
	return parseInt(p.Height)
}

// ValidatorInfo is one entry of the staking validator set.
type ValidatorInfo struct {
	OperatorAddress string      `json:"operator_address"`
	Description     Description `json:"description"`
	Commission      struct {
		CommissionRates struct {
			Rate string `json:"rate"`
		} `json:"commission_rates"`
	} `json:"commission"`
	Tokens string `json:"tokens"`
	Status string `json:"status"`
}

// ValidatorsPage is one page of the validator set listing.
type ValidatorsPage struct {
	Validators []ValidatorInfo
	NextKey    string
}

func parseInt(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
