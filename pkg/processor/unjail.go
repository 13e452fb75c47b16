package processor

import (
	"context"
	"encoding/json"

	"github.com/valscope/valscope/pkg/db/models"
	"github.com/valscope/valscope/pkg/rpc"
	"go.uber.org/zap"
)

// Unjail records unjail transactions. One-shot inserts; duplicates are
// ignored by primary key.
type Unjail struct {
	store  Store
	logger *zap.Logger
}

func NewUnjail(store Store, logger *zap.Logger) *Unjail {
	return &Unjail{store: store, logger: logger}
}

// Process returns the count of new history rows.
func (p *Unjail) Process(ctx context.Context, txs []rpc.TxResult) (int, error) {
	inserted := 0

	for i := range txs {
		tx := &txs[i]
		for _, raw := range tx.Tx.Body.Messages {
			var peek rpc.TypedMessage
			if err := json.Unmarshal(raw, &peek); err != nil || peek.Type != rpc.MsgUnjailType {
				continue
			}

			var msg rpc.MsgUnjail
			if err := json.Unmarshal(raw, &msg); err != nil {
				p.logger.Warn("Skipping malformed unjail message",
					zap.String("tx_hash", tx.TxHash), zap.Error(err))
				continue
			}
			if msg.ValidatorAddr == "" {
				continue
			}

			ok, err := p.store.InsertUnjail(ctx, &models.UnjailEvent{
				TxHash:          tx.TxHash,
				OperatorAddress: msg.ValidatorAddr,
				BlockHeight:     tx.HeightInt(),
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
