package chain

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/valscope/valscope/pkg/db/postgres"
	"go.uber.org/zap"
)

// DB is the per-chain database handle. Each configured chain gets its own
// database ("chain_<id>") so streams of different chains never
// cross-contaminate.
type DB struct {
	postgres.Client
	Name    string
	ChainID uint64
}

// New creates the chain database if needed, connects to it and ensures all
// tables exist.
func New(ctx context.Context, logger *zap.Logger, chainID uint64) (*DB, error) {
	name := fmt.Sprintf("chain_%d", chainID)
	logger = logger.With(zap.String("db", name), zap.Uint64("chain_id", chainID))

	// The target database may not exist yet; bootstrap it through a
	// connection to the default database first.
	admin, err := postgres.New(ctx, logger, "")
	if err != nil {
		return nil, err
	}
	if err := admin.CreateDbIfNotExists(ctx, name); err != nil {
		admin.Close()
		return nil, fmt.Errorf("failed to create database %s: %w", name, err)
	}
	admin.Close()

	client, err := postgres.New(ctx, logger, name)
	if err != nil {
		return nil, err
	}

	db := &DB{
		Client:  client,
		Name:    name,
		ChainID: chainID,
	}

	if err := db.InitializeDB(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// DatabaseName returns the name of the chain database.
func (db *DB) DatabaseName() string {
	return db.Name
}

// InTx runs fn inside one transaction; store methods called with the context
// fn receives operate on that transaction.
func (db *DB) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return db.Client.BeginFunc(ctx, func(tx pgx.Tx) error {
		return fn(db.Client.WithTx(ctx, tx))
	})
}

// InitializeDB ensures the required tables exist.
func (db *DB) InitializeDB(ctx context.Context) error {
	initStart := time.Now()

	db.Logger.Info("Initializing chain database", zap.String("database", db.Name))

	initOps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"validators", db.initValidators},
		{"history_edits", db.initEditHistory},
		{"history_unjails", db.initUnjailHistory},
		{"history_votes", db.initVoteHistory},
		{"sync_checkpoints", db.initCheckpoints},
		{"active_upgrade", db.initActiveUpgrade},
		{"upgrade_history", db.initUpgradeHistory},
		{"delegator_snapshots", db.initDelegatorSnapshots},
	}

	var wg sync.WaitGroup
	errChan := make(chan error, len(initOps))

	for _, op := range initOps {
		wg.Add(1)
		go func(name string, fn func(context.Context) error) {
			defer wg.Done()
			if err := fn(ctx); err != nil {
				errChan <- fmt.Errorf("init %s: %w", name, err)
			}
		}(op.name, op.fn)
	}

	wg.Wait()
	close(errChan)

	for err := range errChan {
		return err
	}

	db.Logger.Info("Chain database initialized",
		zap.String("database", db.Name),
		zap.Duration("duration", time.Since(initStart)))

	return nil
}
