// File: internal/agent/observation.go
package agent

import (
	"math"
	"time"
)

// Observation is an immutable snapshot of what the character perceives.
// Timestamps are Unix milliseconds; zero means the event never happened.
type Observation struct {
	NearbyPlayers         []string
	X, Y, Z               float64
	WorldTime             int64
	LastInteractionPlayer string
	LastInteractionTimeMs int64
	LastAction            string
	LastActionTimeMs      int64
}

// NewObservation copies the player list so later changes by the caller do
// not leak into the snapshot. WorldTime is normalized into [0, 24000).
func NewObservation(players []string, x, y, z float64, worldTime int64) Observation {
	return Observation{
		NearbyPlayers: append([]string(nil), players...),
		X:             x,
		Y:             y,
		Z:             z,
		WorldTime:     ((worldTime % 24000) + 24000) % 24000,
	}
}

// WithInteraction returns a copy recording the last player interaction.
func (o Observation) WithInteraction(player string, atMs int64) Observation {
	o.NearbyPlayers = append([]string(nil), o.NearbyPlayers...)
	o.LastInteractionPlayer = player
	o.LastInteractionTimeMs = atMs
	return o
}

// WithLastAction returns a copy recording the previous action.
func (o Observation) WithLastAction(desc string, atMs int64) Observation {
	o.NearbyPlayers = append([]string(nil), o.NearbyPlayers...)
	o.LastAction = desc
	o.LastActionTimeMs = atMs
	return o
}

func (o Observation) IsPlayerNearby() bool {
	return len(o.NearbyPlayers) > 0
}

// FirstPlayer returns the first nearby player, if any.
func (o Observation) FirstPlayer() (string, bool) {
	if len(o.NearbyPlayers) == 0 {
		return "", false
	}
	return o.NearbyPlayers[0], true
}

// SecondsSinceInteraction is math.MaxInt64 when there never was one.
func (o Observation) SecondsSinceInteraction(now time.Time) int64 {
	return secondsSince(o.LastInteractionTimeMs, now)
}

// SecondsSinceAction is math.MaxInt64 when no action was recorded.
func (o Observation) SecondsSinceAction(now time.Time) int64 {
	return secondsSince(o.LastActionTimeMs, now)
}

func secondsSince(tsMs int64, now time.Time) int64 {
	if tsMs == 0 {
		return math.MaxInt64
	}
	return (now.UnixMilli() - tsMs) / 1000
}

// IsDayTime reports whether the world clock is in [0, 12000).
func (o Observation) IsDayTime() bool {
	return o.WorldTime >= 0 && o.WorldTime < 12000
}

// TimeOfDay buckets the world clock.
func (o Observation) TimeOfDay() string {
	switch {
	case o.WorldTime < 6000:
		return "morning"
	case o.WorldTime < 12000:
		return "noon"
	case o.WorldTime < 18000:
		return "evening"
	default:
		return "night"
	}
}
