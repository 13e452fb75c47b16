package chain

import (
	"context"
	"fmt"

	"github.com/valscope/valscope/pkg/db/postgres"
)

// Checkpoint returns the last scanned height for a stream, 0 when the stream
// has never been scanned.
func (db *DB) Checkpoint(ctx context.Context, stream string) (int64, error) {
	var height int64
	query := `SELECT last_height FROM sync_checkpoints WHERE stream = $1`

	err := db.QueryRow(ctx, query, stream).Scan(&height)
	if err != nil {
		if postgres.IsNoRows(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("load checkpoint %s: %w", stream, err)
	}
	return height, nil
}

// LastEditValueBefore returns the `to` value of the most recent edit event
// for operator that is strictly below height and mentions field. Height ties
// are broken by insertion order. The second return reports whether any such
// event exists.
func (db *DB) LastEditValueBefore(ctx context.Context, operator, field string, height int64) (string, bool, error) {
	query := `
		SELECT diff -> $2::text ->> 'to'
		FROM history_edits
		WHERE operator_address = $1
		  AND block_height < $3
		  AND diff ? $2::text
		ORDER BY block_height DESC, id DESC
		LIMIT 1
	`

	var value string
	err := db.QueryRow(ctx, query, operator, field, height).Scan(&value)
	if err != nil {
		if postgres.IsNoRows(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("lookup %s/%s below %d: %w", operator, field, height, err)
	}
	return value, true, nil
}

// HasValidator reports whether a profile exists for the operator address.
func (db *DB) HasValidator(ctx context.Context, operator string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM validators WHERE operator_address = $1)`

	if err := db.QueryRow(ctx, query, operator).Scan(&exists); err != nil {
		return false, fmt.Errorf("check validator %s: %w", operator, err)
	}
	return exists, nil
}

// HasEditEventsAtHeight reports whether any edit event exists at the given
// height. Height 0 doubles as the "genesis already imported" marker.
func (db *DB) HasEditEventsAtHeight(ctx context.Context, height int64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM history_edits WHERE block_height = $1)`

	if err := db.QueryRow(ctx, query, height).Scan(&exists); err != nil {
		return false, fmt.Errorf("check edits at height %d: %w", height, err)
	}
	return exists, nil
}

// ListValidatorAddresses returns every known operator address.
func (db *DB) ListValidatorAddresses(ctx context.Context) ([]string, error) {
	rows, err := db.Query(ctx, `SELECT operator_address FROM validators ORDER BY operator_address`)
	if err != nil {
		return nil, fmt.Errorf("list validators: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var addr string
		if err := rows.Scan(&addr); err != nil {
			return nil, err
		}
		out = append(out, addr)
	}
	return out, rows.Err()
}

// ClearActiveUpgrade removes the active upgrade singleton.
func (db *DB) ClearActiveUpgrade(ctx context.Context) error {
	return db.Exec(ctx, `DELETE FROM active_upgrade`)
}
