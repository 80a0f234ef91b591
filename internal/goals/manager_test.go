// File: internal/goals/manager_test.go
package goals

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_SetGoalDemotesActive(t *testing.T) {
	m := NewManager(nil)
	first := New(GatherWood, "")
	second := New(MineDiamonds, "")

	m.SetGoal(first)
	assert.Equal(t, StatusInProgress, first.Status())

	m.SetGoal(second)
	assert.Same(t, second, m.CurrentGoal())
	assert.Equal(t, StatusInProgress, second.Status())
	assert.Equal(t, StatusPending, first.Status())
	assert.Equal(t, []*Goal{first}, m.Queue())
	assert.Equal(t, []*Goal{second, first}, m.AllGoals())
}

func TestManager_QueuePromotesWhenIdle(t *testing.T) {
	m := NewManager(nil)
	g := New(ExploreArea, "")
	m.QueueGoal(g)

	assert.Same(t, g, m.CurrentGoal())
	assert.Equal(t, StatusInProgress, g.Status())
	assert.Empty(t, m.Queue())
}

func TestManager_CompleteAdvancesQueue(t *testing.T) {
	var finished []*Goal
	m := NewManager(func(g *Goal) { finished = append(finished, g) })

	a, b := New(GatherWood, ""), New(GatherStone, "")
	m.QueueGoal(a)
	m.QueueGoal(b)
	require.Same(t, a, m.CurrentGoal())
	assert.Equal(t, StatusPending, b.Status())

	m.CompleteCurrentGoal()
	assert.Equal(t, StatusCompleted, a.Status())
	assert.False(t, a.CompletedAt().IsZero())
	assert.Same(t, b, m.CurrentGoal())
	assert.Equal(t, StatusInProgress, b.Status())

	m.FailCurrentGoal("stuck")
	assert.Nil(t, m.CurrentGoal())
	reason, ok := b.Param(ParamFailReason)
	assert.True(t, ok)
	assert.Equal(t, "stuck", reason)

	assert.Equal(t, []*Goal{a, b}, m.History())
	assert.Equal(t, []*Goal{a, b}, finished)
}

func TestManager_FinishWithoutGoalIsNoop(t *testing.T) {
	calls := 0
	m := NewManager(func(*Goal) { calls++ })
	m.CompleteCurrentGoal()
	m.FailCurrentGoal("x")
	m.CancelCurrentGoal("x")
	assert.Zero(t, calls)
	assert.Empty(t, m.History())
}

func TestManager_CancelAndClear(t *testing.T) {
	m := NewManager(nil)
	a, b, c := New(GatherWood, ""), New(FarmCrops, ""), New(HuntAnimals, "")
	m.QueueGoal(a)
	m.QueueGoal(b)
	m.QueueGoal(c)

	m.CancelCurrentGoal("operator")
	assert.Equal(t, StatusCancelled, a.Status())
	assert.Same(t, b, m.CurrentGoal())

	m.Clear()
	assert.Nil(t, m.CurrentGoal())
	assert.Empty(t, m.AllGoals())
	assert.Equal(t, []*Goal{a}, m.History(), "history survives a clear")
}

func TestManager_UnsuccessfulFinishFailsCurrentStep(t *testing.T) {
	tests := []struct {
		name   string
		finish func(m *Manager)
		status Status
	}{
		{"fail", func(m *Manager) { m.FailCurrentGoal("stuck") }, StatusFailed},
		{"cancel", func(m *Manager) { m.CancelCurrentGoal("operator") }, StatusCancelled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager(nil)
			g := New(GatherWood, "")
			done, running, later := NewStep("walk"), NewStep("chop"), NewStep("return")
			g.SetSteps([]*Step{done, running, later})
			m.SetGoal(g)
			g.CompleteCurrentStep()
			g.StartCurrentStep()

			tt.finish(m)
			assert.Equal(t, tt.status, g.Status())
			assert.Equal(t, StepCompleted, done.Status)
			assert.Equal(t, StepFailed, running.Status)
			assert.Equal(t, StepPending, later.Status, "only the current step fails")
		})
	}
}

func TestManager_CompleteLeavesStepsAlone(t *testing.T) {
	m := NewManager(nil)
	g := New(GatherWood, "")
	step := NewStep("walk")
	g.SetSteps([]*Step{step})
	m.SetGoal(g)
	g.StartCurrentStep()

	m.CompleteCurrentGoal()
	assert.Equal(t, StepInProgress, step.Status)
}
