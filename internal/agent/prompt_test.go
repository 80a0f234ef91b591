// File: internal/agent/prompt_test.go
package agent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestPromptBuilder(now time.Time) *PromptBuilder {
	p := NewPromptBuilder("Freddy")
	p.now = func() time.Time { return now }
	return p
}

func TestBuildPrompt_Situation(t *testing.T) {
	now := time.UnixMilli(10_000_000)
	p := newTestPromptBuilder(now)

	obs := NewObservation([]string{"Ann"}, 10, 64, 10, 500).
		WithInteraction("Ann", now.UnixMilli()-42_000).
		WithLastAction("WANDER", now.UnixMilli()-5_000)
	prompt := p.BuildPrompt(obs)

	assert.Contains(t, prompt, "You are Freddy, a friendly AI character in Minecraft.")
	assert.Contains(t, prompt, "- Location: X=10.0, Y=64.0, Z=10.0")
	assert.Contains(t, prompt, "- Nearby players: [Ann]")
	assert.Contains(t, prompt, "- Time: morning (day)")
	assert.Contains(t, prompt, "- Last interaction: Ann (42 seconds ago)")
	assert.Contains(t, prompt, "- Last action: WANDER")
	assert.Contains(t, prompt, `"Follow Ann"`)
	assert.Contains(t, prompt, "you could walk to (25 -10) or (0 35)")
	assert.Contains(t, prompt, "Valid range: X between -40 and 60, Z between -40 and 60")
	assert.Contains(t, prompt, "Reply with ONLY ONE action")
	assert.Contains(t, prompt, "Do NOT return Idle repeatedly.")
}

func TestBuildPrompt_OmissionRules(t *testing.T) {
	now := time.UnixMilli(10_000_000)
	p := newTestPromptBuilder(now)

	obs := NewObservation(nil, -3.7, 70, 8.2, 20000).
		WithInteraction("Bob", now.UnixMilli()-301_000).
		WithLastAction("Initialized", now.UnixMilli())
	prompt := p.BuildPrompt(obs)

	assert.Contains(t, prompt, "- Nearby players: [none]")
	assert.Contains(t, prompt, "- Time: night (night)")
	assert.NotContains(t, prompt, "Last interaction", "interactions older than five minutes are dropped")
	assert.NotContains(t, prompt, "Last action", "the initial sentinel is not shown")
	assert.Contains(t, prompt, "Your current position: (-3, 8)")
	assert.Contains(t, prompt, `"Follow Steve"`)
}

func TestBuildPrompt_InteractionCutoff(t *testing.T) {
	now := time.UnixMilli(10_000_000)
	p := newTestPromptBuilder(now)

	tests := []struct {
		name  string
		ageMs int64
		shown bool
	}{
		{"just now", 0, true},
		{"exactly five minutes", 300_000, true},
		{"five minutes and a half second", 300_500, true},
		{"just past five minutes", 301_000, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := NewObservation([]string{"Ann"}, 0, 64, 0, 0).
				WithInteraction("Ann", now.UnixMilli()-tt.ageMs)
			prompt := p.BuildPrompt(obs)
			if tt.shown {
				assert.Contains(t, prompt, "- Last interaction: Ann")
			} else {
				assert.NotContains(t, prompt, "Last interaction")
			}
		})
	}
}

func TestBuildSimplePrompt(t *testing.T) {
	p := NewPromptBuilder("Freddy")

	withPlayers := p.BuildSimplePrompt(NewObservation([]string{"Ann", "Bob"}, 0, 0, 0, 0))
	assert.Equal(t, `You are Freddy in Minecraft. Players nearby: [Ann, Bob]. What do you do? Reply with ONE action: "Walk to X Z", "Follow [player]", "Idle", "Wander", or "Say [message]"`, withPlayers)

	alone := p.BuildSimplePrompt(NewObservation(nil, 0, 0, 0, 0))
	assert.Contains(t, alone, "No players nearby. ")
}

func TestSystemRole(t *testing.T) {
	assert.Equal(t, "You are Gerald, a friendly AI character in Minecraft.", NewPromptBuilder("Gerald").SystemRole())
}
