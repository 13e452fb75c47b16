package models

import "time"

// Upgrade history statuses. Transitions are one-directional: a completed
// entry never reverts to scheduled.
const (
	UpgradeStatusScheduled = "scheduled"
	UpgradeStatusCompleted = "completed"
)

// ActiveUpgrade is the singleton forecast of the nearest future chain
// upgrade. Fully replaced each resolver run; cleared when no future plan
// exists.
type ActiveUpgrade struct {
	PlanName      string     `json:"plan_name"`
	TargetHeight  int64      `json:"target_height"`
	VotingStart   *time.Time `json:"voting_start_time"`
	EstimatedTime time.Time  `json:"estimated_time"`
	Info          string     `json:"info"`
	LastChecked   time.Time  `json:"last_checked"`
}

// UpgradeHistoryEntry is one row of the append-only upgrade ledger, keyed by
// plan name.
type UpgradeHistoryEntry struct {
	PlanName          string     `json:"plan_name"`
	TargetHeight      int64      `json:"target_height"`
	ActualUpgradeTime *time.Time `json:"actual_upgrade_time"`
	VotingStart       *time.Time `json:"voting_start_time"`
	ProposalID        string     `json:"proposal_id"`
	ProposalTitle     string     `json:"proposal_title"`
	Status            string     `json:"status"`
}
