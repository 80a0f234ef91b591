package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShouldRespond(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"Freddy, nice house", true},
		{"hey FREDDY", true},
		{"is that an AI?", true},
		{"look, an npc", true},
		{"anyone got iron?", true},
		{"where is the village", true},
		{"how do I craft a bed", true},
		{"hello", true},
		{" Hey ", true},
		{"hi there", false},
		{"wait for me", false},
		{"the rain stopped", false},
		{"whatever", false},
		{"", false},
		{"   ", false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldRespond("Freddy", tt.text))
		})
	}
}

func TestParseDirective(t *testing.T) {
	tests := []struct {
		text string
		want Directive
	}{
		{"Freddy come here", DirectiveComeHere},
		{"freddy, FOLLOW ME please", DirectiveFollow},
		{"stop it freddy", DirectiveStop},
		{"freddy come here and follow me", DirectiveComeHere},
		{"come here", DirectiveNone},
		{"freddy, nice day", DirectiveNone},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseDirective("Freddy", tt.text))
		})
	}
	assert.Equal(t, "COME_HERE", DirectiveComeHere.String())
	assert.Equal(t, "Directive(9)", Directive(9).String())
}

func TestCleanResponse(t *testing.T) {
	tests := map[string]string{
		`"Hello there!"`:                    "Hello there!",
		`'Sure thing'`:                      "Sure thing",
		"  Freddy: On my way  ":             "On my way",
		"*waves* Hi Ann! *smiles*":          "Hi Ann!",
		`"Freddy: *nods* Let's go mining."`: "Let's go mining.",
		`""quoted twice""`:                  `"quoted twice"`,
		"*shrugs*":                          "",
	}
	for in, want := range tests {
		assert.Equal(t, want, CleanResponse("Freddy", in), "reply %q", in)
	}
}
