package store

import (
	"time"

	"github.com/xkilldash9x/freddy/internal/goals"
)

// GoalRecord is the persisted form of a finished goal.
type GoalRecord struct {
	ID          string
	Agent       string
	Type        string
	Status      string
	Description string
	FailReason  string
	CreatedAt   time.Time
	CompletedAt time.Time
	Steps       []StepRecord
}

// StepRecord is one persisted step, stored in plan order.
type StepRecord struct {
	ID     string
	Label  string
	Status string
}

// FromGoal snapshots g. It must be called on the goroutine that owns g.
func FromGoal(agent string, g *goals.Goal) GoalRecord {
	reason, _ := g.Param(goals.ParamFailReason)
	rec := GoalRecord{
		ID:          g.ID(),
		Agent:       agent,
		Type:        string(g.Type()),
		Status:      string(g.Status()),
		Description: g.Description(),
		FailReason:  reason,
		CreatedAt:   g.CreatedAt(),
		CompletedAt: g.CompletedAt(),
	}
	for _, step := range g.Steps() {
		rec.Steps = append(rec.Steps, StepRecord{ID: step.ID, Label: step.Label, Status: string(step.Status)})
	}
	return rec
}
