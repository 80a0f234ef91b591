// File: internal/agent/observation_test.go
package agent

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestObservation_TimeOfDay(t *testing.T) {
	cases := []struct {
		worldTime int64
		bucket    string
		day       bool
	}{
		{0, "morning", true},
		{5999, "morning", true},
		{6000, "noon", true},
		{11999, "noon", true},
		{12000, "evening", false},
		{17999, "evening", false},
		{18000, "night", false},
		{23999, "night", false},
		{24500, "morning", true},
		{-1000, "night", false},
	}
	for _, c := range cases {
		obs := NewObservation(nil, 0, 0, 0, c.worldTime)
		assert.Equal(t, c.bucket, obs.TimeOfDay(), "worldTime %d", c.worldTime)
		assert.Equal(t, c.day, obs.IsDayTime(), "worldTime %d", c.worldTime)
	}
}

func TestObservation_Timestamps(t *testing.T) {
	now := time.UnixMilli(1_000_000)
	obs := NewObservation([]string{"Ann"}, 1, 2, 3, 0)

	assert.Equal(t, int64(math.MaxInt64), obs.SecondsSinceInteraction(now))
	assert.Equal(t, int64(math.MaxInt64), obs.SecondsSinceAction(now))

	obs = obs.WithInteraction("Ann", 990_000).WithLastAction("WANDER", 940_000)
	assert.Equal(t, int64(10), obs.SecondsSinceInteraction(now))
	assert.Equal(t, int64(60), obs.SecondsSinceAction(now))
}

func TestObservation_IsImmutableSnapshot(t *testing.T) {
	players := []string{"Ann", "Bob"}
	obs := NewObservation(players, 0, 0, 0, 0)
	players[0] = "Mallory"

	first, ok := obs.FirstPlayer()
	assert.True(t, ok)
	assert.Equal(t, "Ann", first)

	_, ok = NewObservation(nil, 0, 0, 0, 0).FirstPlayer()
	assert.False(t, ok)
}
