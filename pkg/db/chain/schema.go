package chain

import (
	"context"
)

// initValidators creates the validators table holding the current
// reconstructed profile per operator address.
func (db *DB) initValidators(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS validators (
			operator_address TEXT NOT NULL,
			moniker TEXT NOT NULL DEFAULT '',
			website TEXT NOT NULL DEFAULT '',
			identity TEXT NOT NULL DEFAULT '',
			details TEXT NOT NULL DEFAULT '',
			security_contact TEXT NOT NULL DEFAULT '',
			commission_rate TEXT NOT NULL DEFAULT '',
			last_updated TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),
			PRIMARY KEY (operator_address)
		);
	`

	return db.Exec(ctx, query)
}

// initEditHistory creates the edit event log. The serial id breaks height
// ties by insertion order in point-in-time lookups.
func (db *DB) initEditHistory(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS history_edits (
			id BIGSERIAL,
			tx_hash TEXT NOT NULL,
			operator_address TEXT NOT NULL,
			diff JSONB NOT NULL,
			block_height BIGINT NOT NULL,
			block_time TIMESTAMP WITH TIME ZONE NOT NULL,
			PRIMARY KEY (tx_hash, operator_address)
		);

		CREATE INDEX IF NOT EXISTS idx_history_edits_operator_height
			ON history_edits(operator_address, block_height DESC, id DESC);
		CREATE INDEX IF NOT EXISTS idx_history_edits_height ON history_edits(block_height);
	`

	return db.Exec(ctx, query)
}

// initUnjailHistory creates the unjail event log.
func (db *DB) initUnjailHistory(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS history_unjails (
			tx_hash TEXT NOT NULL,
			operator_address TEXT NOT NULL,
			block_height BIGINT NOT NULL,
			block_time TIMESTAMP WITH TIME ZONE NOT NULL,
			PRIMARY KEY (tx_hash, operator_address)
		);

		CREATE INDEX IF NOT EXISTS idx_history_unjails_operator ON history_unjails(operator_address);
	`

	return db.Exec(ctx, query)
}

// initVoteHistory creates the vote log, one row per (proposal, validator).
func (db *DB) initVoteHistory(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS history_votes (
			proposal_id TEXT NOT NULL,
			operator_address TEXT NOT NULL,
			tx_hash TEXT NOT NULL,
			vote_option TEXT NOT NULL,
			block_time TIMESTAMP WITH TIME ZONE NOT NULL,
			PRIMARY KEY (proposal_id, operator_address)
		);

		CREATE INDEX IF NOT EXISTS idx_history_votes_operator ON history_votes(operator_address);
	`

	return db.Exec(ctx, query)
}

// initCheckpoints creates the per-stream scan checkpoint table.
func (db *DB) initCheckpoints(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS sync_checkpoints (
			stream TEXT NOT NULL,
			last_height BIGINT NOT NULL DEFAULT 0,
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),
			PRIMARY KEY (stream)
		);
	`

	return db.Exec(ctx, query)
}

// initActiveUpgrade creates the active upgrade singleton table.
func (db *DB) initActiveUpgrade(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS active_upgrade (
			plan_name TEXT NOT NULL,
			target_height BIGINT NOT NULL,
			voting_start_time TIMESTAMP WITH TIME ZONE,
			estimated_time TIMESTAMP WITH TIME ZONE NOT NULL,
			info TEXT NOT NULL DEFAULT '',
			last_checked TIMESTAMP WITH TIME ZONE NOT NULL,
			PRIMARY KEY (plan_name)
		);
	`

	return db.Exec(ctx, query)
}

// initUpgradeHistory creates the upgrade ledger.
func (db *DB) initUpgradeHistory(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS upgrade_history (
			plan_name TEXT NOT NULL,
			target_height BIGINT NOT NULL,
			actual_upgrade_time TIMESTAMP WITH TIME ZONE,
			voting_start_time TIMESTAMP WITH TIME ZONE,
			proposal_id TEXT NOT NULL DEFAULT '',
			proposal_title TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'scheduled', -- scheduled, completed
			PRIMARY KEY (plan_name)
		);

		CREATE INDEX IF NOT EXISTS idx_upgrade_history_height ON upgrade_history(target_height);
	`

	return db.Exec(ctx, query)
}

// initDelegatorSnapshots creates the daily delegator stats table.
func (db *DB) initDelegatorSnapshots(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS delegator_snapshots (
			operator_address TEXT NOT NULL,
			snapshot_date DATE NOT NULL,
			tokens TEXT NOT NULL DEFAULT '0',
			delegator_count BIGINT NOT NULL DEFAULT 0,
			PRIMARY KEY (operator_address, snapshot_date)
		);
	`

	return db.Exec(ctx, query)
}
