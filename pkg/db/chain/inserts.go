package chain

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/valscope/valscope/pkg/db/models"
	"github.com/valscope/valscope/pkg/db/postgres"
)

// upsertValidator writes the full reconstructed profile for one validator.
// Accepts an Executor which can be either a transaction (pgx.Tx) or connection pool.
func (db *DB) upsertValidator(ctx context.Context, exec postgres.Executor, v *models.Validator) error {
	query := `
		INSERT INTO validators (
			operator_address, moniker, website, identity, details,
			security_contact, commission_rate, last_updated
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (operator_address) DO UPDATE SET
			moniker = EXCLUDED.moniker,
			website = EXCLUDED.website,
			identity = EXCLUDED.identity,
			details = EXCLUDED.details,
			security_contact = EXCLUDED.security_contact,
			commission_rate = EXCLUDED.commission_rate,
			last_updated = EXCLUDED.last_updated
	`

	_, err := exec.Exec(ctx, query,
		v.OperatorAddress, v.Moniker, v.Website, v.Identity, v.Details,
		v.SecurityContact, v.CommissionRate, v.LastUpdated,
	)
	return err
}

// upsertValidators writes a batch of profiles, used by the validator-state
// sync and the genesis import.
func (db *DB) upsertValidators(ctx context.Context, exec postgres.Executor, validators []*models.Validator) error {
	if len(validators) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO validators (
			operator_address, moniker, website, identity, details,
			security_contact, commission_rate, last_updated
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (operator_address) DO UPDATE SET
			moniker = EXCLUDED.moniker,
			website = EXCLUDED.website,
			identity = EXCLUDED.identity,
			details = EXCLUDED.details,
			security_contact = EXCLUDED.security_contact,
			commission_rate = EXCLUDED.commission_rate,
			last_updated = EXCLUDED.last_updated
	`

	for _, v := range validators {
		batch.Queue(query,
			v.OperatorAddress, v.Moniker, v.Website, v.Identity, v.Details,
			v.SecurityContact, v.CommissionRate, v.LastUpdated,
		)
	}

	return db.executeBatch(ctx, exec, batch)
}

// insertEditEvent appends one edit event. Returns false when the (tx hash,
// operator) key already exists, which makes page re-delivery a no-op.
func (db *DB) insertEditEvent(ctx context.Context, exec postgres.Executor, e *models.EditEvent) (bool, error) {
	diff, err := json.Marshal(e.Diff)
	if err != nil {
		return false, fmt.Errorf("marshal diff: %w", err)
	}

	query := `
		INSERT INTO history_edits (tx_hash, operator_address, diff, block_height, block_time)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (tx_hash, operator_address) DO NOTHING
	`

	tag, err := exec.Exec(ctx, query, e.TxHash, e.OperatorAddress, diff, e.BlockHeight, e.BlockTime)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// insertUnjail appends one unjail event; duplicates are ignored.
func (db *DB) insertUnjail(ctx context.Context, exec postgres.Executor, e *models.UnjailEvent) (bool, error) {
	query := `
		INSERT INTO history_unjails (tx_hash, operator_address, block_height, block_time)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (tx_hash, operator_address) DO NOTHING
	`

	tag, err := exec.Exec(ctx, query, e.TxHash, e.OperatorAddress, e.BlockHeight, e.BlockTime)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// insertVote records one vote. The first vote per (proposal, validator)
// wins; later votes are ignored.
func (db *DB) insertVote(ctx context.Context, exec postgres.Executor, e *models.VoteEvent) (bool, error) {
	query := `
		INSERT INTO history_votes (proposal_id, operator_address, tx_hash, vote_option, block_time)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (proposal_id, operator_address) DO NOTHING
	`

	tag, err := exec.Exec(ctx, query, e.ProposalID, e.OperatorAddress, e.TxHash, e.Option, e.BlockTime)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// upsertUpgradeHistory writes one ledger entry. The status CASE keeps
// completed entries completed even when a later run re-derives scheduled, and
// an observed completion time is never overwritten.
func (db *DB) upsertUpgradeHistory(ctx context.Context, exec postgres.Executor, e *models.UpgradeHistoryEntry) error {
	query := `
		INSERT INTO upgrade_history (
			plan_name, target_height, actual_upgrade_time, voting_start_time,
			proposal_id, proposal_title, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (plan_name) DO UPDATE SET
			target_height = EXCLUDED.target_height,
			actual_upgrade_time = COALESCE(upgrade_history.actual_upgrade_time, EXCLUDED.actual_upgrade_time),
			voting_start_time = COALESCE(EXCLUDED.voting_start_time, upgrade_history.voting_start_time),
			proposal_id = CASE WHEN EXCLUDED.proposal_id <> '' THEN EXCLUDED.proposal_id ELSE upgrade_history.proposal_id END,
			proposal_title = CASE WHEN EXCLUDED.proposal_title <> '' THEN EXCLUDED.proposal_title ELSE upgrade_history.proposal_title END,
			status = CASE WHEN upgrade_history.status = 'completed' THEN upgrade_history.status ELSE EXCLUDED.status END
	`

	_, err := exec.Exec(ctx, query,
		e.PlanName, e.TargetHeight, e.ActualUpgradeTime, e.VotingStart,
		e.ProposalID, e.ProposalTitle, e.Status,
	)
	return err
}

// setActiveUpgrade replaces the active upgrade singleton with the given plan.
func (db *DB) setActiveUpgrade(ctx context.Context, exec postgres.Executor, u *models.ActiveUpgrade) error {
	if _, err := exec.Exec(ctx, `DELETE FROM active_upgrade WHERE plan_name <> $1`, u.PlanName); err != nil {
		return err
	}

	query := `
		INSERT INTO active_upgrade (
			plan_name, target_height, voting_start_time, estimated_time, info, last_checked
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (plan_name) DO UPDATE SET
			target_height = EXCLUDED.target_height,
			voting_start_time = EXCLUDED.voting_start_time,
			estimated_time = EXCLUDED.estimated_time,
			info = EXCLUDED.info,
			last_checked = EXCLUDED.last_checked
	`

	_, err := exec.Exec(ctx, query,
		u.PlanName, u.TargetHeight, u.VotingStart, u.EstimatedTime, u.Info, u.LastChecked,
	)
	return err
}

// insertDelegatorSnapshot records one (operator, date) capture; a second run
// within the same day is ignored.
func (db *DB) insertDelegatorSnapshot(ctx context.Context, exec postgres.Executor, s *models.DelegatorSnapshot) (bool, error) {
	query := `
		INSERT INTO delegator_snapshots (operator_address, snapshot_date, tokens, delegator_count)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (operator_address, snapshot_date) DO NOTHING
	`

	tag, err := exec.Exec(ctx, query, s.OperatorAddress, s.SnapshotDate, s.Tokens, s.DelegatorCount)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// saveCheckpoint persists the last scanned height for one stream.
func (db *DB) saveCheckpoint(ctx context.Context, exec postgres.Executor, stream string, height int64) error {
	query := `
		INSERT INTO sync_checkpoints (stream, last_height, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (stream) DO UPDATE SET
			last_height = EXCLUDED.last_height,
			updated_at = EXCLUDED.updated_at
	`

	_, err := exec.Exec(ctx, query, stream, height)
	return err
}

// executeBatch sends a batch and surfaces the first failing statement.
func (db *DB) executeBatch(ctx context.Context, exec postgres.Executor, batch *pgx.Batch) error {
	br := exec.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch statement %d: %w", i, err)
		}
	}
	return nil
}
