package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/freddy/internal/goals"
)

func TestFromGoal(t *testing.T) {
	m := goals.NewManager(nil)
	g := goals.New(goals.GatherStone, "Collect cobble")
	g.SetSteps(goals.FallbackPlan(goals.GatherStone))
	m.SetGoal(g)
	g.CompleteCurrentStep()
	m.FailCurrentGoal("no stone nearby")

	rec := FromGoal("Freddy", g)
	assert.Equal(t, g.ID(), rec.ID)
	assert.Equal(t, "Freddy", rec.Agent)
	assert.Equal(t, "GATHER_STONE", rec.Type)
	assert.Equal(t, "FAILED", rec.Status)
	assert.Equal(t, "no stone nearby", rec.FailReason)
	assert.False(t, rec.CompletedAt.IsZero())

	require.Len(t, rec.Steps, 2)
	assert.Equal(t, "COMPLETED", rec.Steps[0].Status)
	assert.Equal(t, "PENDING", rec.Steps[1].Status)
	assert.Equal(t, "Mine 64 stone blocks", rec.Steps[1].Label)
}
