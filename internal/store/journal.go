package store

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// GoalSaver is the part of Store the Journal needs.
type GoalSaver interface {
	SaveGoal(ctx context.Context, rec GoalRecord) error
}

// Journal writes finished goals in the background so the tick loop never
// waits on the database. Records arriving while the buffer is full are dropped.
type Journal struct {
	saver   GoalSaver
	logger  *zap.Logger
	records chan GoalRecord
	timeout time.Duration
}

// NewJournal creates a Journal with room for size pending records.
func NewJournal(logger *zap.Logger, saver GoalSaver, size int) *Journal {
	if size <= 0 {
		size = 64
	}
	return &Journal{
		saver:   saver,
		logger:  logger.Named("journal"),
		records: make(chan GoalRecord, size),
		timeout: 5 * time.Second,
	}
}

// Record queues rec and reports whether it was accepted.
func (j *Journal) Record(rec GoalRecord) bool {
	select {
	case j.records <- rec:
		return true
	default:
		j.logger.Warn("Journal buffer full, dropping goal record", zap.String("goal_id", rec.ID))
		return false
	}
}

// Run saves records until ctx is done, then flushes what is already queued
// using a fresh deadline.
func (j *Journal) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			j.drain()
			return nil
		case rec := <-j.records:
			j.save(ctx, rec)
		}
	}
}

func (j *Journal) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()
	for {
		select {
		case rec := <-j.records:
			j.save(ctx, rec)
		default:
			return
		}
	}
}

func (j *Journal) save(ctx context.Context, rec GoalRecord) {
	defer func() {
		if r := recover(); r != nil {
			j.logger.Error("Panic recovered while saving goal",
				zap.String("goal_id", rec.ID),
				zap.Any("panic_value", r),
				zap.Stack("stack"),
			)
		}
	}()

	saveCtx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()
	if err := j.saver.SaveGoal(saveCtx, rec); err != nil {
		j.logger.Error("Failed to save goal", zap.String("goal_id", rec.ID), zap.Error(fmt.Errorf("journal: %w", err)))
		return
	}
	j.logger.Debug("Goal saved", zap.String("goal_id", rec.ID), zap.String("status", rec.Status))
}
