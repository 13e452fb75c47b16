package models

import "time"

// FieldChange records one field transition inside an edit diff.
type FieldChange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// EditEvent is one immutable entry of a validator's edit history, keyed by
// (tx hash, operator address). Height 0 is reserved for genesis-import
// synthesized events.
type EditEvent struct {
	TxHash          string                 `json:"tx_hash"`
	OperatorAddress string                 `json:"operator_address"`
	Diff            map[string]FieldChange `json:"diff"`
	BlockHeight     int64                  `json:"block_height"`
	BlockTime       time.Time              `json:"block_time"`
}

// UnjailEvent records one unjail transaction, keyed by (tx hash, operator
// address). Write-once.
type UnjailEvent struct {
	TxHash          string    `json:"tx_hash"`
	OperatorAddress string    `json:"operator_address"`
	BlockHeight     int64     `json:"block_height"`
	BlockTime       time.Time `json:"block_time"`
}

// VoteEvent records one governance vote, keyed by (proposal id, operator
// address). At most one vote per validator per proposal is kept.
type VoteEvent struct {
	ProposalID      string    `json:"proposal_id"`
	OperatorAddress string    `json:"operator_address"`
	TxHash          string    `json:"tx_hash"`
	Option          string    `json:"option"`
	BlockTime       time.Time `json:"block_time"`
}

// DelegatorSnapshot is one end-of-day capture of a validator's stake and
// delegator count, keyed by (operator address, snapshot date).
type DelegatorSnapshot struct {
	OperatorAddress string `json:"operator_address"`
	SnapshotDate    string `json:"snapshot_date"`
	Tokens          string `json:"tokens"`
	DelegatorCount  int64  `json:"delegator_count"`
}
