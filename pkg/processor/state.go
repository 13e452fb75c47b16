package processor

import (
	"context"
	"time"

	"github.com/valscope/valscope/pkg/db/models"
	"github.com/valscope/valscope/pkg/rpc"
	"go.uber.org/zap"
)

// ValidatorLister is the slice of the chain API the state sync needs.
type ValidatorLister interface {
	Validators(ctx context.Context, status, pageKey string) (*rpc.ValidatorsPage, error)
}

// StateSync refreshes profiles from the live validator set across all three
// bonding statuses. A failing status listing degrades to the next status
// rather than aborting.
type StateSync struct {
	client ValidatorLister
	store  Store
	logger *zap.Logger
}

func NewStateSync(client ValidatorLister, store Store, logger *zap.Logger) *StateSync {
	return &StateSync{client: client, store: store, logger: logger}
}

// Sync walks the validator set listing with its pagination key and upserts
// every profile. Returns the number of validators seen.
func (s *StateSync) Sync(ctx context.Context) (int, error) {
	statuses := []string{rpc.BondStatusBonded, rpc.BondStatusUnbonding, rpc.BondStatusUnbonded}
	total := 0

	for _, status := range statuses {
		pageKey := ""
		for {
			page, err := s.client.Validators(ctx, status, pageKey)
			if err != nil {
				s.logger.Warn("Validator listing failed",
					zap.String("status", status), zap.Error(err))
				break
			}

			profiles := make([]*models.Validator, 0, len(page.Validators))
			now := time.Now().UTC()
			for _, val := range page.Validators {
				if val.OperatorAddress == "" {
					continue
				}
				profiles = append(profiles, &models.Validator{
					OperatorAddress: val.OperatorAddress,
					Moniker:         val.Description.Moniker,
					Website:         val.Description.Website,
					Identity:        val.Description.Identity,
					Details:         val.Description.Details,
					SecurityContact: val.Description.SecurityContact,
					CommissionRate:  val.Commission.CommissionRates.Rate,
					LastUpdated:     now,
				})
			}

			if err := s.store.UpsertValidators(ctx, profiles); err != nil {
				return total, err
			}
			total += len(profiles)

			if page.NextKey == "" {
				break
			}
			pageKey = page.NextKey
		}
	}

	return total, nil
}
