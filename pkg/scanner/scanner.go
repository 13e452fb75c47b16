// Package scanner drives one logical transaction stream forward: it walks
// the height-ordered transaction log page by page, hands each page to the
// stream's processor inside one transaction, and advances the stream
// checkpoint only after the commit succeeds.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/valscope/valscope/pkg/rpc"
	"go.uber.org/ratelimit"
	"go.uber.org/zap"
)

// TxSearcher fetches pages of matching transactions.
type TxSearcher interface {
	SearchTxs(ctx context.Context, q rpc.TxSearchQuery) (*rpc.TxSearchResponse, error)
}

// Processor turns one page of raw transactions into durable mutations and
// reports the count of newly inserted history rows. Must be idempotent:
// crash between commit and checkpoint write re-delivers the page.
type Processor interface {
	Process(ctx context.Context, txs []rpc.TxResult) (int, error)
}

// Store is the checkpoint and transaction surface the scanner needs.
type Store interface {
	Checkpoint(ctx context.Context, stream string) (int64, error)
	SaveCheckpoint(ctx context.Context, stream string, height int64) error
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Stream is one logical scan unit: a message-action filter plus the
// processor that consumes its pages. The action doubles as the checkpoint
// key.
type Stream struct {
	Action    string
	Processor Processor
}

// Config tunes scan behavior. Zero values fall back to production defaults.
type Config struct {
	Dialect              rpc.Dialect
	PageLimit            int
	MaxConsecutiveErrors int
	RateLimitWait        time.Duration
	TransientWait        time.Duration
	// Pace bounds the page fetch rate; the default of 5/s amounts to the
	// ~200ms spacing upstream providers expect.
	Pace ratelimit.Limiter
}

// Scanner scans streams of one chain.
type Scanner struct {
	client TxSearcher
	store  Store
	cfg    Config
	logger *zap.Logger
}

func New(client TxSearcher, store Store, cfg Config, logger *zap.Logger) *Scanner {
	if cfg.PageLimit <= 0 {
		cfg.PageLimit = rpc.PageLimit(cfg.Dialect)
	}
	if cfg.MaxConsecutiveErrors <= 0 {
		cfg.MaxConsecutiveErrors = 5
	}
	if cfg.RateLimitWait <= 0 {
		cfg.RateLimitWait = 5 * time.Second
	}
	if cfg.TransientWait <= 0 {
		cfg.TransientWait = 2 * time.Second
	}
	if cfg.Pace == nil {
		cfg.Pace = ratelimit.New(5)
	}

	return &Scanner{client: client, store: store, cfg: cfg, logger: logger}
}

// Scan runs one stream to catch-up or to its error budget. Returns the count
// of new records. An error return means the stream was aborted for this
// cycle; the next cycle resumes from the last committed checkpoint.
func (s *Scanner) Scan(ctx context.Context, stream Stream) (int, error) {
	height, err := s.store.Checkpoint(ctx, stream.Action)
	if err != nil {
		return 0, err
	}

	logger := s.logger.With(zap.String("stream", stream.Action))
	logger.Debug("Starting scan", zap.Int64("from_height", height))

	total := 0
	consecutive := 0

	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		s.cfg.Pace.Take()

		resp, err := s.client.SearchTxs(ctx, rpc.TxSearchQuery{
			Action:    stream.Action,
			MinHeight: height,
			Dialect:   s.cfg.Dialect,
			Limit:     s.cfg.PageLimit,
		})
		if err != nil {
			if errors.Is(err, rpc.ErrRateLimited) {
				// Rate limiting never counts against the error budget.
				logger.Warn("Rate limited, backing off",
					zap.Duration("wait", s.cfg.RateLimitWait))
				if err := sleepCtx(ctx, s.cfg.RateLimitWait); err != nil {
					return total, err
				}
				continue
			}
			consecutive++
			if consecutive >= s.cfg.MaxConsecutiveErrors {
				return total, fmt.Errorf("stream %s aborted after %d consecutive errors: %w",
					stream.Action, consecutive, err)
			}
			logger.Warn("Page fetch failed, retrying",
				zap.Int("consecutive_errors", consecutive), zap.Error(err))
			if err := sleepCtx(ctx, s.cfg.TransientWait); err != nil {
				return total, err
			}
			continue
		}

		page := resp.TxResponses
		if len(page) == 0 {
			// Caught up.
			logger.Debug("Stream caught up", zap.Int64("height", height), zap.Int("records", total))
			return total, nil
		}

		var inserted int
		commitErr := s.store.InTx(ctx, func(txCtx context.Context) error {
			n, perr := stream.Processor.Process(txCtx, page)
			inserted = n
			return perr
		})
		if commitErr != nil {
			consecutive++
			if consecutive >= s.cfg.MaxConsecutiveErrors {
				return total, fmt.Errorf("stream %s aborted after %d consecutive errors: %w",
					stream.Action, consecutive, commitErr)
			}
			logger.Warn("Page commit failed, retrying",
				zap.Int("consecutive_errors", consecutive), zap.Error(commitErr))
			if err := sleepCtx(ctx, s.cfg.TransientWait); err != nil {
				return total, err
			}
			continue
		}

		consecutive = 0
		total += inserted

		maxHeight := int64(0)
		for i := range page {
			if h := page[i].HeightInt(); h > maxHeight {
				maxHeight = h
			}
		}

		next := maxHeight
		if maxHeight <= height {
			// Mega-block: every transaction shares the checkpoint height.
			// Force forward progress or the scan would loop forever.
			next = height + 1
		}

		if err := s.store.SaveCheckpoint(ctx, stream.Action, next); err != nil {
			return total, err
		}
		height = next

		if len(page) < s.cfg.PageLimit {
			// Partial page: nothing more behind it this cycle.
			return total, nil
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
