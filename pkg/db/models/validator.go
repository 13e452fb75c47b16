package models

import "time"

// Mutable validator profile fields, as they appear in diff maps and edit
// messages.
const (
	FieldMoniker           = "moniker"
	FieldWebsite           = "website"
	FieldIdentity          = "identity"
	FieldDetails           = "details"
	FieldSecurityContact   = "security_contact"
	FieldCommissionRate    = "commission_rate"
	FieldMinSelfDelegation = "min_self_delegation"
)

// EditableFields is the fixed order in which edit diffs are computed.
var EditableFields = []string{
	FieldCommissionRate,
	FieldMinSelfDelegation,
	FieldMoniker,
	FieldWebsite,
	FieldIdentity,
	FieldDetails,
	FieldSecurityContact,
}

// Validator is the current reconstructed profile of one validator. It is
// rebuilt field by field from the EditEvent sequence and never deleted.
type Validator struct {
	OperatorAddress string    `json:"operator_address"`
	Moniker         string    `json:"moniker"`
	Website         string    `json:"website"`
	Identity        string    `json:"identity"`
	Details         string    `json:"details"`
	SecurityContact string    `json:"security_contact"`
	CommissionRate  string    `json:"commission_rate"`
	LastUpdated     time.Time `json:"last_updated"`
}
