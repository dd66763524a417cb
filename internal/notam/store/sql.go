package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"notamcore/internal/notam/models"
	"notamcore/pkg/platform/sentinel"
	"notamcore/pkg/platform/tx"
	"notamcore/pkg/requestcontext"
)

// Schema creates the tables SQLStore uses. It is valid for both PostgreSQL
// and SQLite.
const Schema = `
CREATE TABLE IF NOT EXISTS notam_cycle_keys (
	scope        TEXT NOT NULL,
	identity_key TEXT NOT NULL,
	PRIMARY KEY (scope, identity_key)
);

CREATE TABLE IF NOT EXISTS notam_statuses (
	scope        TEXT NOT NULL,
	identity_key TEXT NOT NULL,
	status       TEXT NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (scope, identity_key)
);
`

// SQLStore persists cycles through database/sql.
type SQLStore struct {
	db      *sql.DB
	backend string
}

// NewPostgresStore expects db opened with the pgx driver.
func NewPostgresStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db, backend: "postgres"}
}

// NewSQLiteStore expects db opened with the sqlite3 driver.
func NewSQLiteStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db, backend: "sqlite"}
}

// Migrate applies Schema. It is idempotent.
func (s *SQLStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("migrate notam store: %w", err)
	}
	return nil
}

func (s *SQLStore) LoadCycle(ctx context.Context, scope string) (*models.Cycle, error) {
	defer observe(s.backend, "load", time.Now())

	q := tx.Exec(ctx, s.db)
	cycle := models.NewCycle()
	if err := loadKeys(ctx, q, scope, cycle); err != nil {
		return nil, err
	}
	if err := loadStatuses(ctx, q, scope, cycle); err != nil {
		return nil, err
	}
	return cycle, nil
}

func loadKeys(ctx context.Context, q tx.Executor, scope string, cycle *models.Cycle) error {
	rows, err := q.QueryContext(ctx, `SELECT identity_key FROM notam_cycle_keys WHERE scope = $1`, scope)
	if err != nil {
		return fmt.Errorf("load cycle keys: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return fmt.Errorf("scan cycle key: %w", err)
		}
		cycle.Keys[k] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("load cycle keys: %w", err)
	}
	return nil
}

func loadStatuses(ctx context.Context, q tx.Executor, scope string, cycle *models.Cycle) error {
	rows, err := q.QueryContext(ctx, `SELECT identity_key, status FROM notam_statuses WHERE scope = $1`, scope)
	if err != nil {
		return fmt.Errorf("load statuses: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return fmt.Errorf("scan status: %w", err)
		}
		st, err := models.ParseStatus(v)
		if err != nil {
			return fmt.Errorf("load statuses: key %s: %w: %w", k, sentinel.ErrInvalidState, err)
		}
		cycle.Statuses[k] = st
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("load statuses: %w", err)
	}
	return nil
}

// SaveCycle replaces the scope's key set, writes cycle.Statuses, and drops
// statuses whose key left the set, in one transaction. Statuses recorded
// since the caller's LoadCycle survive.
func (s *SQLStore) SaveCycle(ctx context.Context, scope string, cycle *models.Cycle) error {
	defer observe(s.backend, "save", time.Now())
	if cycle == nil {
		cycle = models.NewCycle()
	}
	now := requestcontext.Now(ctx)

	return tx.Run(ctx, s.db, func(ctx context.Context) error {
		q := tx.Exec(ctx, s.db)
		if _, err := q.ExecContext(ctx, `DELETE FROM notam_cycle_keys WHERE scope = $1`, scope); err != nil {
			return fmt.Errorf("clear cycle keys: %w", err)
		}
		for k := range cycle.Keys {
			if _, err := q.ExecContext(ctx,
				`INSERT INTO notam_cycle_keys (scope, identity_key) VALUES ($1, $2)`,
				scope, k); err != nil {
				return fmt.Errorf("insert cycle key: %w", err)
			}
		}
		for k, st := range cycle.Statuses {
			if err := upsertStatus(ctx, q, scope, k, st, now); err != nil {
				return err
			}
		}
		if _, err := q.ExecContext(ctx, `
			DELETE FROM notam_statuses
			WHERE scope = $1
			  AND identity_key NOT IN (SELECT identity_key FROM notam_cycle_keys WHERE scope = $1)
		`, scope); err != nil {
			return fmt.Errorf("prune statuses: %w", err)
		}
		return nil
	})
}

func (s *SQLStore) SetStatus(ctx context.Context, scope, key string, status models.Status) error {
	defer observe(s.backend, "set_status", time.Now())
	return upsertStatus(ctx, tx.Exec(ctx, s.db), scope, key, status, requestcontext.Now(ctx))
}

func upsertStatus(ctx context.Context, q tx.Executor, scope, key string, status models.Status, now time.Time) error {
	query := `
		INSERT INTO notam_statuses (scope, identity_key, status, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (scope, identity_key) DO UPDATE SET
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := q.ExecContext(ctx, query, scope, key, string(status), now); err != nil {
		return fmt.Errorf("upsert status: %w", err)
	}
	return nil
}
