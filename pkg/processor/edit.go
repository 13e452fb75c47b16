package processor

import (
	"context"
	"encoding/json"

	"github.com/valscope/valscope/pkg/db/models"
	"github.com/valscope/valscope/pkg/rpc"
	"go.uber.org/zap"
)

// EditValidator reconstructs point-in-time field diffs from edit messages.
//
// For every mutable field the prior value is the `to` of the most recent edit
// event strictly below the transaction's height that mentions the field, so
// out-of-order processing still diffs against the correct temporal
// predecessor, not merely the last write.
type EditValidator struct {
	store  Store
	logger *zap.Logger
}

func NewEditValidator(store Store, logger *zap.Logger) *EditValidator {
	return &EditValidator{store: store, logger: logger}
}

// Process applies the diff reconstruction to every edit message in the page.
// Returns the count of new history rows.
func (p *EditValidator) Process(ctx context.Context, txs []rpc.TxResult) (int, error) {
	inserted := 0

	for i := range txs {
		tx := &txs[i]
		for _, raw := range tx.Tx.Body.Messages {
			var peek rpc.TypedMessage
			if err := json.Unmarshal(raw, &peek); err != nil || peek.Type != rpc.MsgEditValidatorType {
				continue
			}

			var msg rpc.MsgEditValidator
			if err := json.Unmarshal(raw, &msg); err != nil {
				p.logger.Warn("Skipping malformed edit-validator message",
					zap.String("tx_hash", tx.TxHash), zap.Error(err))
				continue
			}
			if msg.ValidatorAddress == "" {
				continue
			}

			n, err := p.processEdit(ctx, tx, &msg)
			if err != nil {
				return inserted, err
			}
			inserted += n
		}
	}

	return inserted, nil
}

func (p *EditValidator) processEdit(ctx context.Context, tx *rpc.TxResult, msg *rpc.MsgEditValidator) (int, error) {
	height := tx.HeightInt()
	supplied := suppliedFields(msg)

	diff := map[string]models.FieldChange{}
	current := map[string]string{}

	for _, field := range models.EditableFields {
		prior, found, err := p.store.LastEditValueBefore(ctx, msg.ValidatorAddress, field, height)
		if err != nil {
			return 0, err
		}
		if !found {
			if field == models.FieldCommissionRate {
				prior = "0"
			} else {
				prior = UnknownValue
			}
		}

		// Empty strings mean the operator left the field alone, same as the
		// sentinel; only the numeric fields distinguish absence by omission.
		newValue, ok := supplied[field]
		if !ok || newValue == "" || newValue == DoNotModify {
			current[field] = prior
			continue
		}

		if newValue != prior {
			diff[field] = models.FieldChange{From: prior, To: newValue}
			current[field] = newValue
		} else {
			// Identical to the prior value: no spurious history entry.
			current[field] = prior
		}
	}

	inserted := 0
	if len(diff) > 0 {
		ok, err := p.store.InsertEditEvent(ctx, &models.EditEvent{
			TxHash:          tx.TxHash,
			OperatorAddress: msg.ValidatorAddress,
			Diff:            diff,
			BlockHeight:     height,
			BlockTime:       tx.BlockTime(),
		})
		if err != nil {
			return 0, err
		}
		if ok {
			inserted++
		}
	}

	// The profile carries the full reconstructed field set, changed and
	// unchanged, so untouched attributes are never lost.
	profile := profileFromFields(msg.ValidatorAddress, current)
	profile.LastUpdated = tx.BlockTime()
	if err := p.store.UpsertValidator(ctx, profile); err != nil {
		return inserted, err
	}

	return inserted, nil
}

// suppliedFields maps the message onto the editable field set. Description
// strings are always present on the wire (untouched ones carry the
// do-not-modify sentinel); the numeric fields are omitted entirely when
// untouched.
func suppliedFields(msg *rpc.MsgEditValidator) map[string]string {
	supplied := map[string]string{
		models.FieldMoniker:         msg.Description.Moniker,
		models.FieldWebsite:         msg.Description.Website,
		models.FieldIdentity:        msg.Description.Identity,
		models.FieldDetails:         msg.Description.Details,
		models.FieldSecurityContact: msg.Description.SecurityContact,
	}
	if msg.CommissionRate != nil {
		supplied[models.FieldCommissionRate] = *msg.CommissionRate
	}
	if msg.MinSelfDelegation != nil {
		supplied[models.FieldMinSelfDelegation] = *msg.MinSelfDelegation
	}
	return supplied
}
