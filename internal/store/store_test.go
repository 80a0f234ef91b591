package store

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// flexibleSQLMatcher creates a regex that is insensitive to whitespace for more robust SQL mock testing.
func flexibleSQLMatcher(sql string) string {
	trimmed := strings.TrimSpace(sql)
	return regexp.MustCompile(`\s+`).ReplaceAllString(regexp.QuoteMeta(trimmed), `\s+`)
}

func newMockStore(t *testing.T, logger *zap.Logger) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)

	mockPool.ExpectPing().WillReturnError(nil)
	store, err := New(context.Background(), mockPool, logger)
	require.NoError(t, err)
	return store, mockPool
}

func sampleRecord() GoalRecord {
	loc := time.FixedZone("EST", -5*3600)
	return GoalRecord{
		ID:          "goal-1",
		Agent:       "Freddy",
		Type:        "GATHER_WOOD",
		Status:      "COMPLETED",
		Description: "Collect logs",
		CreatedAt:   time.Date(2026, 3, 1, 10, 0, 0, 0, loc),
		CompletedAt: time.Date(2026, 3, 1, 10, 5, 0, 0, loc),
		Steps: []StepRecord{
			{ID: "s1", Label: "Navigate to forest area", Status: "COMPLETED"},
			{ID: "s2", Label: "Collect 64 oak logs", Status: "COMPLETED"},
		},
	}
}

func TestNewStore(t *testing.T) {
	t.Run("should return error if ping fails", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		pingErr := errors.New("database unavailable")
		mockPool.ExpectPing().WillReturnError(pingErr)

		_, err = New(context.Background(), mockPool, zap.NewNop())
		require.Error(t, err)
		assert.ErrorIs(t, err, pingErr, "Error from ping should be propagated")
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestEnsureSchema(t *testing.T) {
	store, mockPool := newMockStore(t, zap.NewNop())
	mockPool.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS goals")).
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))

	require.NoError(t, store.EnsureSchema(context.Background()))
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestSaveGoal(t *testing.T) {
	ctx := context.Background()

	t.Run("should persist goal and steps without rollback errors", func(t *testing.T) {
		observedZapCore, observedLogs := observer.New(zapcore.ErrorLevel)
		store, mockPool := newMockStore(t, zap.New(observedZapCore))
		rec := sampleRecord()

		mockPool.ExpectBegin()
		mockPool.ExpectExec(flexibleSQLMatcher(sqlUpsertGoal)).
			WithArgs(rec.ID, rec.Agent, rec.Type, rec.Status, rec.Description, "",
				rec.CreatedAt.UTC(), rec.CompletedAt.UTC()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mockPool.ExpectExec(flexibleSQLMatcher(sqlDeleteSteps)).
			WithArgs(rec.ID).
			WillReturnResult(pgxmock.NewResult("DELETE", 0))
		mockPool.ExpectCopyFrom(pgx.Identifier{"goal_steps"}, stepColumns).
			WillReturnResult(2)
		mockPool.ExpectCommit()
		mockPool.ExpectRollback().WillReturnError(pgx.ErrTxClosed)

		require.NoError(t, store.SaveGoal(ctx, rec))
		assert.NoError(t, mockPool.ExpectationsWereMet())
		assert.Empty(t, observedLogs.All(), "Expected no errors logged on successful commit")
	})

	t.Run("should skip copy when there are no steps", func(t *testing.T) {
		store, mockPool := newMockStore(t, zap.NewNop())
		rec := sampleRecord()
		rec.Steps = nil
		rec.Status = "FAILED"
		rec.FailReason = "stuck"

		mockPool.ExpectBegin()
		mockPool.ExpectExec(flexibleSQLMatcher(sqlUpsertGoal)).
			WithArgs(rec.ID, rec.Agent, rec.Type, rec.Status, rec.Description, "stuck",
				pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mockPool.ExpectExec(flexibleSQLMatcher(sqlDeleteSteps)).
			WithArgs(rec.ID).
			WillReturnResult(pgxmock.NewResult("DELETE", 0))
		mockPool.ExpectCommit()
		mockPool.ExpectRollback().WillReturnError(pgx.ErrTxClosed)

		require.NoError(t, store.SaveGoal(ctx, rec))
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("should roll back when the copy count mismatches", func(t *testing.T) {
		store, mockPool := newMockStore(t, zap.NewNop())
		rec := sampleRecord()

		mockPool.ExpectBegin()
		mockPool.ExpectExec(flexibleSQLMatcher(sqlUpsertGoal)).
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mockPool.ExpectExec(flexibleSQLMatcher(sqlDeleteSteps)).
			WithArgs(rec.ID).
			WillReturnResult(pgxmock.NewResult("DELETE", 0))
		mockPool.ExpectCopyFrom(pgx.Identifier{"goal_steps"}, stepColumns).
			WillReturnResult(1)
		mockPool.ExpectRollback()

		err := store.SaveGoal(ctx, rec)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "mismatch in copied steps count")
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("should fail when begin fails", func(t *testing.T) {
		store, mockPool := newMockStore(t, zap.NewNop())
		mockPool.ExpectBegin().WillReturnError(errors.New("no connection"))

		err := store.SaveGoal(ctx, sampleRecord())
		assert.ErrorContains(t, err, "failed to begin transaction")
	})
}

func TestRecentGoals(t *testing.T) {
	store, mockPool := newMockStore(t, zap.NewNop())
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	completed := created.Add(time.Minute)

	rows := pgxmock.NewRows([]string{"id", "agent", "goal_type", "status", "description", "fail_reason", "created_at", "completed_at"}).
		AddRow("goal-2", "Freddy", "MINE_DIAMONDS", "FAILED", "deep", "no cave", created, completed).
		AddRow("goal-1", "Freddy", "GATHER_WOOD", "COMPLETED", "logs", "", created, completed)
	mockPool.ExpectQuery(flexibleSQLMatcher(sqlRecentGoals)).
		WithArgs("Freddy", 10).
		WillReturnRows(rows)

	got, err := store.RecentGoals(context.Background(), "Freddy", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "goal-2", got[0].ID)
	assert.Equal(t, "no cave", got[0].FailReason)
	assert.Equal(t, completed, got[1].CompletedAt)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestRecentGoals_QueryError(t *testing.T) {
	store, mockPool := newMockStore(t, zap.NewNop())
	mockPool.ExpectQuery(flexibleSQLMatcher(sqlRecentGoals)).
		WithArgs("Freddy", 5).
		WillReturnError(errors.New("timeout"))

	_, err := store.RecentGoals(context.Background(), "Freddy", 5)
	assert.ErrorContains(t, err, "failed to query goals")
}
