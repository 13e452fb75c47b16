package processor

import (
	"context"
	"encoding/json"

	"github.com/valscope/valscope/pkg/db/models"
	"github.com/valscope/valscope/pkg/rpc"
	"go.uber.org/zap"
)

// CreateValidator handles validator registration messages. The creation is
// itself the first entry of the validator's edit history, so later edits show
// correct provenance.
type CreateValidator struct {
	store  Store
	logger *zap.Logger
}

func NewCreateValidator(store Store, logger *zap.Logger) *CreateValidator {
	return &CreateValidator{store: store, logger: logger}
}

// Process inserts one synthesized edit event and the initial profile for
// every creation message in the page. Returns the count of new history rows.
func (p *CreateValidator) Process(ctx context.Context, txs []rpc.TxResult) (int, error) {
	inserted := 0

	for i := range txs {
		tx := &txs[i]
		for _, raw := range tx.Tx.Body.Messages {
			var peek rpc.TypedMessage
			if err := json.Unmarshal(raw, &peek); err != nil || peek.Type != rpc.MsgCreateValidatorType {
				continue
			}

			var msg rpc.MsgCreateValidator
			if err := json.Unmarshal(raw, &msg); err != nil {
				p.logger.Warn("Skipping malformed create-validator message",
					zap.String("tx_hash", tx.TxHash), zap.Error(err))
				continue
			}
			if msg.ValidatorAddress == "" {
				continue
			}

			moniker := msg.Description.Moniker
			if moniker == "" {
				moniker = DefaultMoniker
			}

			diff := map[string]models.FieldChange{
				models.FieldMoniker: {From: UnknownValue, To: moniker},
			}
			if msg.Description.Website != "" {
				diff[models.FieldWebsite] = models.FieldChange{From: UnknownValue, To: msg.Description.Website}
			}
			if msg.Description.Identity != "" {
				diff[models.FieldIdentity] = models.FieldChange{From: UnknownValue, To: msg.Description.Identity}
			}
			if msg.Description.Details != "" {
				diff[models.FieldDetails] = models.FieldChange{From: UnknownValue, To: msg.Description.Details}
			}
			if msg.Description.SecurityContact != "" {
				diff[models.FieldSecurityContact] = models.FieldChange{From: UnknownValue, To: msg.Description.SecurityContact}
			}
			if msg.Commission.Rate != "" {
				diff[models.FieldCommissionRate] = models.FieldChange{From: "0", To: msg.Commission.Rate}
			}

			ok, err := p.store.InsertEditEvent(ctx, &models.EditEvent{
				TxHash:          tx.TxHash,
				OperatorAddress: msg.ValidatorAddress,
				Diff:            diff,
				BlockHeight:     tx.HeightInt(),
				BlockTime:       tx.BlockTime(),
			})
			if err != nil {
				return inserted, err
			}
			if ok {
				inserted++
			}

			profile := &models.Validator{
				OperatorAddress: msg.ValidatorAddress,
				Moniker:         moniker,
				Website:         msg.Description.Website,
				Identity:        msg.Description.Identity,
				Details:         msg.Description.Details,
				SecurityContact: msg.Description.SecurityContact,
				CommissionRate:  msg.Commission.Rate,
				LastUpdated:     tx.BlockTime(),
			}
			if err := p.store.UpsertValidator(ctx, profile); err != nil {
				return inserted, err
			}
		}
	}

	return inserted, nil
}
