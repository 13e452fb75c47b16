package processor

import (
	"context"
	"time"

	"github.com/valscope/valscope/pkg/db/models"
	"github.com/valscope/valscope/pkg/rpc"
	"go.uber.org/ratelimit"
	"go.uber.org/zap"
)

// SnapshotClient is the slice of the chain API the daily snapshot needs.
type SnapshotClient interface {
	Validator(ctx context.Context, operator string) (*rpc.ValidatorInfo, error)
	DelegatorCount(ctx context.Context, operator string) (int64, error)
}

// DailySnapshot captures per-validator stake and delegator counts once per
// day, inside a short end-of-day window. The (operator, date) key makes a
// second run within the window a no-op.
type DailySnapshot struct {
	client SnapshotClient
	store  Store
	logger *zap.Logger
	now    func() time.Time
	pace   ratelimit.Limiter
}

func NewDailySnapshot(client SnapshotClient, store Store, logger *zap.Logger) *DailySnapshot {
	return &DailySnapshot{
		client: client,
		store:  store,
		logger: logger,
		now:    time.Now,
		pace:   ratelimit.New(5),
	}
}

// Run captures the snapshot when inside the 23:55-23:59 UTC window; outside
// it, it returns immediately. Returns the number of snapshots written.
func (d *DailySnapshot) Run(ctx context.Context) (int, error) {
	now := d.now().UTC()
	if now.Hour() != 23 || now.Minute() < 55 {
		return 0, nil
	}
	date := now.Format("2006-01-02")

	operators, err := d.store.ListValidatorAddresses(ctx)
	if err != nil {
		return 0, err
	}

	written := 0
	for _, operator := range operators {
		select {
		case <-ctx.Done():
			return written, ctx.Err()
		default:
		}
		d.pace.Take()

		val, err := d.client.Validator(ctx, operator)
		if err != nil {
			d.logger.Warn("Snapshot: validator fetch failed",
				zap.String("operator", operator), zap.Error(err))
			continue
		}
		count, err := d.client.DelegatorCount(ctx, operator)
		if err != nil {
			d.logger.Warn("Snapshot: delegator count failed",
				zap.String("operator", operator), zap.Error(err))
			continue
		}

		tokens := val.Tokens
		if tokens == "" {
			tokens = "0"
		}

		ok, err := d.store.InsertDelegatorSnapshot(ctx, &models.DelegatorSnapshot{
			OperatorAddress: operator,
			SnapshotDate:    date,
			Tokens:          tokens,
			DelegatorCount:  count,
		})
		if err != nil {
			return written, err
		}
		if ok {
			written++
		}
	}

	if written > 0 {
		d.logger.Info("Daily snapshot captured",
			zap.String("date", date), zap.Int("validators", written))
	}
	return written, nil
}
