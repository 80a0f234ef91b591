package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// DBPool is an interface that abstracts the pgxpool.Pool to allow for mocking in tests.
type DBPool interface {
	Ping(ctx context.Context) error
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// Schema creates the goal history tables when they are missing.
const Schema = `
CREATE TABLE IF NOT EXISTS goals (
    id TEXT PRIMARY KEY,
    agent TEXT NOT NULL,
    goal_type TEXT NOT NULL,
    status TEXT NOT NULL,
    description TEXT NOT NULL,
    fail_reason TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL,
    completed_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS goal_steps (
    id TEXT NOT NULL,
    goal_id TEXT NOT NULL REFERENCES goals(id) ON DELETE CASCADE,
    position INT NOT NULL,
    label TEXT NOT NULL,
    status TEXT NOT NULL,
    PRIMARY KEY (goal_id, id)
);`

const (
	sqlUpsertGoal = `
        INSERT INTO goals (id, agent, goal_type, status, description, fail_reason, created_at, completed_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        ON CONFLICT (id) DO UPDATE SET
            status = EXCLUDED.status,
            fail_reason = EXCLUDED.fail_reason,
            completed_at = EXCLUDED.completed_at;
    `
	sqlDeleteSteps = `DELETE FROM goal_steps WHERE goal_id = $1;`
	sqlRecentGoals = `
        SELECT id, agent, goal_type, status, description, fail_reason, created_at, completed_at
        FROM goals
        WHERE agent = $1
        ORDER BY completed_at DESC
        LIMIT $2;
    `
)

var stepColumns = []string{"id", "goal_id", "position", "label", "status"}

// Store persists finished goals to PostgreSQL.
type Store struct {
	pool DBPool
	log  *zap.Logger
}

// New creates a new store instance and verifies the connection.
func New(ctx context.Context, pool DBPool, logger *zap.Logger) (*Store, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{
		pool: pool,
		log:  logger.Named("store"),
	}, nil
}

// EnsureSchema creates the tables the store writes to.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// SaveGoal writes a finished goal and replaces its steps in one transaction.
func (s *Store) SaveGoal(ctx context.Context, rec GoalRecord) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			s.log.Error("Failed to rollback transaction", zap.Error(rollbackErr))
		}
	}()

	if _, err := tx.Exec(ctx, sqlUpsertGoal,
		rec.ID, rec.Agent, rec.Type, rec.Status, rec.Description, rec.FailReason,
		rec.CreatedAt.UTC(), rec.CompletedAt.UTC(),
	); err != nil {
		return fmt.Errorf("failed to upsert goal %s: %w", rec.ID, err)
	}

	if _, err := tx.Exec(ctx, sqlDeleteSteps, rec.ID); err != nil {
		return fmt.Errorf("failed to clear steps for goal %s: %w", rec.ID, err)
	}

	if len(rec.Steps) > 0 {
		if err := s.copySteps(ctx, tx, rec); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *Store) copySteps(ctx context.Context, tx pgx.Tx, rec GoalRecord) error {
	rows := make([][]interface{}, len(rec.Steps))
	for i, step := range rec.Steps {
		rows[i] = []interface{}{step.ID, rec.ID, i, step.Label, step.Status}
	}

	copyCount, err := tx.CopyFrom(ctx, pgx.Identifier{"goal_steps"}, stepColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("failed to copy goal steps: %w", err)
	}
	if int(copyCount) != len(rec.Steps) {
		return fmt.Errorf("mismatch in copied steps count: expected %d, got %d", len(rec.Steps), copyCount)
	}
	return nil
}

// RecentGoals returns up to limit finished goals for an agent, newest first.
// Steps are not loaded.
func (s *Store) RecentGoals(ctx context.Context, agent string, limit int) ([]GoalRecord, error) {
	rows, err := s.pool.Query(ctx, sqlRecentGoals, agent, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query goals: %w", err)
	}
	defer rows.Close()

	var out []GoalRecord
	for rows.Next() {
		var (
			rec                    GoalRecord
			createdAt, completedAt time.Time
		)
		if err := rows.Scan(&rec.ID, &rec.Agent, &rec.Type, &rec.Status, &rec.Description,
			&rec.FailReason, &createdAt, &completedAt); err != nil {
			return nil, fmt.Errorf("failed to scan goal row: %w", err)
		}
		rec.CreatedAt = createdAt.UTC()
		rec.CompletedAt = completedAt.UTC()
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}
	return out, nil
}
