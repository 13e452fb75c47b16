package chain

import (
	"context"

	"github.com/valscope/valscope/pkg/db/models"
)

// Public mutation surface. Every method resolves its executor from the
// context, so calls made inside DB.InTx run on that transaction and calls
// made outside run on the pool.

// UpsertValidator writes the full reconstructed profile for one validator.
func (db *DB) UpsertValidator(ctx context.Context, v *models.Validator) error {
	return db.upsertValidator(ctx, db.Client.GetExecutor(ctx), v)
}

// UpsertValidators writes a batch of profiles.
func (db *DB) UpsertValidators(ctx context.Context, validators []*models.Validator) error {
	return db.upsertValidators(ctx, db.Client.GetExecutor(ctx), validators)
}

// InsertEditEvent appends one edit event; returns false on duplicate key.
func (db *DB) InsertEditEvent(ctx context.Context, e *models.EditEvent) (bool, error) {
	return db.insertEditEvent(ctx, db.Client.GetExecutor(ctx), e)
}

// InsertUnjail appends one unjail event; returns false on duplicate key.
func (db *DB) InsertUnjail(ctx context.Context, e *models.UnjailEvent) (bool, error) {
	return db.insertUnjail(ctx, db.Client.GetExecutor(ctx), e)
}

// InsertVote records one vote; returns false when a vote for the same
// (proposal, validator) already exists.
func (db *DB) InsertVote(ctx context.Context, e *models.VoteEvent) (bool, error) {
	return db.insertVote(ctx, db.Client.GetExecutor(ctx), e)
}

// InsertDelegatorSnapshot records one daily capture; returns false when the
// (operator, date) slot is already filled.
func (db *DB) InsertDelegatorSnapshot(ctx context.Context, s *models.DelegatorSnapshot) (bool, error) {
	return db.insertDelegatorSnapshot(ctx, db.Client.GetExecutor(ctx), s)
}

// UpsertUpgradeHistory writes one upgrade ledger entry.
func (db *DB) UpsertUpgradeHistory(ctx context.Context, e *models.UpgradeHistoryEntry) error {
	return db.upsertUpgradeHistory(ctx, db.Client.GetExecutor(ctx), e)
}

// SetActiveUpgrade replaces the active upgrade singleton.
func (db *DB) SetActiveUpgrade(ctx context.Context, u *models.ActiveUpgrade) error {
	return db.setActiveUpgrade(ctx, db.Client.GetExecutor(ctx), u)
}

// SaveCheckpoint persists the last scanned height for one stream.
func (db *DB) SaveCheckpoint(ctx context.Context, stream string, height int64) error {
	return db.saveCheckpoint(ctx, db.Client.GetExecutor(ctx), stream, height)
}
