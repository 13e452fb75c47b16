package processor

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/valscope/valscope/pkg/address"
	"github.com/valscope/valscope/pkg/db/models"
	"github.com/valscope/valscope/pkg/rpc"
	"go.uber.org/zap"
)

var voteMessageTypes = map[string]bool{
	rpc.MsgVoteV1Beta1Type:         true,
	rpc.MsgVoteV1Type:              true,
	rpc.MsgVoteWeightedV1Beta1Type: true,
	rpc.MsgVoteWeightedV1Type:      true,
}

var voteOptionByNumber = map[int64]string{
	0: "UNSPECIFIED",
	1: "YES",
	2: "ABSTAIN",
	3: "NO",
	4: "NO_WITH_VETO",
}

var knownVoteOptions = map[string]bool{
	"UNSPECIFIED":  true,
	"YES":          true,
	"ABSTAIN":      true,
	"NO":           true,
	"NO_WITH_VETO": true,
}

// Vote records governance votes cast by known validators. The voter's account
// address is re-encoded under the chain's operator prefix; votes from
// addresses without a validator profile are dropped.
type Vote struct {
	store          Store
	operatorPrefix string
	logger         *zap.Logger
}

func NewVote(store Store, operatorPrefix string, logger *zap.Logger) *Vote {
	return &Vote{store: store, operatorPrefix: operatorPrefix, logger: logger}
}

// Process returns the count of new history rows. Only the first vote per
// (proposal, validator) is kept.
func (p *Vote) Process(ctx context.Context, txs []rpc.TxResult) (int, error) {
	inserted := 0

	for i := range txs {
		tx := &txs[i]
		for _, raw := range tx.Tx.Body.Messages {
			var peek rpc.TypedMessage
			if err := json.Unmarshal(raw, &peek); err != nil || !voteMessageTypes[peek.Type] {
				continue
			}

			var msg rpc.MsgVote
			if err := json.Unmarshal(raw, &msg); err != nil {
				p.logger.Warn("Skipping malformed vote message",
					zap.String("tx_hash", tx.TxHash), zap.Error(err))
				continue
			}
			if msg.ProposalID == "" || msg.Voter == "" {
				continue
			}

			operator, err := address.ToOperator(msg.Voter, p.operatorPrefix)
			if err != nil {
				p.logger.Warn("Skipping vote with undecodable voter address",
					zap.String("tx_hash", tx.TxHash),
					zap.String("voter", msg.Voter),
					zap.Error(err))
				continue
			}

			known, err := p.store.HasValidator(ctx, operator)
			if err != nil {
				return inserted, err
			}
			if !known {
				// Non-validator voter, irrelevant here.
				continue
			}

			option := msg.Option
			if len(msg.Options) > 0 {
				option = msg.Options[0].Option
			}

			ok, err := p.store.InsertVote(ctx, &models.VoteEvent{
				ProposalID:      msg.ProposalID,
				OperatorAddress: operator,
				TxHash:          tx.TxHash,
				Option:          NormalizeVoteOption(option),
				BlockTime:       tx.BlockTime(),
			})
			if err != nil {
				return inserted, err
			}
			if ok {
				inserted++
			}
		}
	}

	return inserted, nil
}

// NormalizeVoteOption maps a raw option value, numeric enum or symbolic
// string, into one of UNSPECIFIED, YES, ABSTAIN, NO, NO_WITH_VETO or UNKNOWN.
func NormalizeVoteOption(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "UNKNOWN"
	}

	var symbolic string
	if err := json.Unmarshal(raw, &symbolic); err == nil {
		symbolic = strings.TrimPrefix(symbolic, "VOTE_OPTION_")
		if knownVoteOptions[symbolic] {
			return symbolic
		}
		return "UNKNOWN"
	}

	var numeric int64
	if err := json.Unmarshal(raw, &numeric); err == nil {
		if name, ok := voteOptionByNumber[numeric]; ok {
			return name
		}
	}
	return "UNKNOWN"
}
