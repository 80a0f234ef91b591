// File: internal/agent/parser.go
package agent

import (
	"regexp"
	"strconv"
	"strings"
)

// Patterns are matched case-insensitively against the trimmed reply, in
// the order Parse lists them.
var (
	walkToRegex  = regexp.MustCompile(`(?i)walk\s+to\s+([-\d.]+)\s+([-\d.]+)(?:\s+([-\d.]+))?`)
	followRegex  = regexp.MustCompile(`(?i)follow\s+(\w+)`)
	lookAtRegex  = regexp.MustCompile(`(?i)look\s+at\s+(\w+)`)
	sayRegex     = regexp.MustCompile(`(?i)say\s+(.+?)(?:\n|$)`)
	respondRegex = regexp.MustCompile(`(?i)respond[:\s]+(.+?)(?:\n|$)`)
	mineRegex    = regexp.MustCompile(`(?i)mine\s+(\w+)`)
	attackRegex  = regexp.MustCompile(`(?i)attack\s+(\w+)`)
	coordRegex   = regexp.MustCompile(`([-\d.]+)[,\s]+([-\d.]+)`)
)

var (
	idleKeywords   = []string{"idle", "stand still", "do nothing", "wait"}
	wanderKeywords = []string{"wander", "explore randomly"}
)

// Parse maps free text to exactly one Action. It never fails: text that
// matches nothing becomes Idle. The first matching rule wins.
func Parse(text string) Action {
	text = strings.TrimSpace(text)
	if text == "" {
		return Idle()
	}

	if m := walkToRegex.FindStringSubmatch(text); m != nil {
		// With three numbers the middle one is a height.
		xs, zs := m[1], m[2]
		if m[3] != "" {
			zs = m[3]
		}
		if x, z, ok := parsePair(xs, zs); ok {
			return WalkTo(x, z)
		}
	}
	if m := followRegex.FindStringSubmatch(text); m != nil {
		return Follow(m[1])
	}
	if m := lookAtRegex.FindStringSubmatch(text); m != nil {
		return LookAt(m[1])
	}
	if m := sayRegex.FindStringSubmatch(text); m != nil {
		if msg := strings.TrimSpace(m[1]); msg != "" {
			return Respond(msg)
		}
	}
	if m := respondRegex.FindStringSubmatch(text); m != nil {
		if msg := strings.TrimSpace(m[1]); msg != "" {
			return Respond(msg)
		}
	}
	if m := mineRegex.FindStringSubmatch(text); m != nil {
		return MineBlock(m[1], 0, 0, 0)
	}
	if m := attackRegex.FindStringSubmatch(text); m != nil {
		return AttackEntity(m[1])
	}

	lower := strings.ToLower(text)
	switch {
	case containsAny(lower, idleKeywords):
		return Idle()
	case containsAny(lower, wanderKeywords):
		return Wander()
	case strings.Contains(lower, "eat"):
		return EatFood()
	}

	for _, m := range coordRegex.FindAllStringSubmatch(text, -1) {
		if x, z, ok := parsePair(m[1], m[2]); ok {
			return WalkTo(x, z)
		}
	}
	return Idle()
}

func parsePair(a, b string) (float64, float64, bool) {
	x, err := strconv.ParseFloat(a, 64)
	if err != nil {
		return 0, 0, false
	}
	z, err := strconv.ParseFloat(b, 64)
	if err != nil {
		return 0, 0, false
	}
	return x, z, true
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
