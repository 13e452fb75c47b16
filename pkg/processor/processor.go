// Package processor turns pages of raw transactions into mutations against
// the per-chain validator/history schema. Each processor handles one message
// kind; all of them are idempotent under page re-delivery.
package processor

import (
	"context"

	"github.com/valscope/valscope/pkg/db/models"
)

// Sentinel values used by the edit reconstruction.
const (
	// DoNotModify is the reserved field value meaning "leave unchanged",
	// distinct from omission or an empty string.
	DoNotModify = "[do-not-modify]"
	// UnknownValue marks a field with no recorded history.
	UnknownValue = "N/A"
	// DefaultMoniker is used when a creation message carries no moniker.
	DefaultMoniker = "Unknown"
)

// Store is the persistence surface processors mutate. Implemented by
// chain.DB; test fakes implement it in memory.
type Store interface {
	UpsertValidator(ctx context.Context, v *models.Validator) error
	UpsertValidators(ctx context.Context, validators []*models.Validator) error
	InsertEditEvent(ctx context.Context, e *models.EditEvent) (bool, error)
	InsertUnjail(ctx context.Context, e *models.UnjailEvent) (bool, error)
	InsertVote(ctx context.Context, e *models.VoteEvent) (bool, error)
	InsertDelegatorSnapshot(ctx context.Context, s *models.DelegatorSnapshot) (bool, error)
	LastEditValueBefore(ctx context.Context, operator, field string, height int64) (string, bool, error)
	HasValidator(ctx context.Context, operator string) (bool, error)
	HasEditEventsAtHeight(ctx context.Context, height int64) (bool, error)
	ListValidatorAddresses(ctx context.Context) ([]string, error)
}

// profileValue renders a reconstructed field value for profile storage; the
// unknown sentinel is stored as an empty string.
func profileValue(v string) string {
	if v == UnknownValue {
		return ""
	}
	return v
}

func profileFromFields(operator string, fields map[string]string) *models.Validator {
	return &models.Validator{
		OperatorAddress: operator,
		Moniker:         profileValue(fields[models.FieldMoniker]),
		Website:         profileValue(fields[models.FieldWebsite]),
		Identity:        profileValue(fields[models.FieldIdentity]),
		Details:         profileValue(fields[models.FieldDetails]),
		SecurityContact: profileValue(fields[models.FieldSecurityContact]),
		CommissionRate:  profileValue(fields[models.FieldCommissionRate]),
	}
}
