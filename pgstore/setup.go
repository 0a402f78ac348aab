package pgstore

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

// Setup creates the slotpool_slots table if it does not exist. It takes a
// PostgreSQL advisory lock so concurrent setup attempts from multiple
// processes do not race. Call it once at application startup.
func Setup(ctx context.Context, pool *pgxpool.Pool) error {
	// Lock ID is arbitrary but must be consistent across all processes.
	const lockID int64 = 48151

	return pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", lockID); err != nil {
			return fmt.Errorf("failed to acquire advisory lock: %w", err)
		}

		exists, err := tableExists(ctx, tx)
		if err != nil {
			return fmt.Errorf("failed to check if slotpool table exists: %w", err)
		}
		if exists {
			return nil
		}
		if _, err := tx.Exec(ctx, schemaSQL); err != nil {
			return fmt.Errorf("failed to create slotpool table: %w", err)
		}
		return nil
	})
}

// Teardown drops the slotpool_slots table. Every identifier reserved in this
// store becomes invalid.
func Teardown(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS slotpool_slots"); err != nil {
		return fmt.Errorf("failed to drop slotpool table: %w", err)
	}
	return nil
}

func tableExists(ctx context.Context, tx pgx.Tx) (bool, error) {
	var exists bool
	err := tx.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_schema = 'public' AND table_name = 'slotpool_slots'
		)`,
	).Scan(&exists)
	return exists, err
}
