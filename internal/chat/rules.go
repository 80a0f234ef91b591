// File: internal/chat/rules.go
package chat

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// Directive is a movement request found in a player's message.
type Directive int

const (
	DirectiveNone Directive = iota
	DirectiveComeHere
	DirectiveFollow
	DirectiveStop
)

func (d Directive) String() string {
	switch d {
	case DirectiveNone:
		return "NONE"
	case DirectiveComeHere:
		return "COME_HERE"
	case DirectiveFollow:
		return "FOLLOW"
	case DirectiveStop:
		return "STOP"
	default:
		return fmt.Sprintf("Directive(%d)", int(d))
	}
}

var (
	questionWords = []string{"what ", "where ", "how ", "why ", "who "}
	greetings     = []string{"hi", "hello", "hey"}
	stageActions  = regexp.MustCompile(`\*.*?\*`)
)

const quotes = `"'`

func words(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// mentions reports whether the message addresses the character by name or
// calls it an ai or npc.
func mentions(name, lower string) bool {
	name = strings.ToLower(name)
	for _, w := range words(lower) {
		if w == name || w == "ai" || w == "npc" {
			return true
		}
	}
	return false
}

// ShouldRespond decides whether the character named name answers text. It
// answers when mentioned, when asked a question and when greeted.
func ShouldRespond(name, text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return false
	}
	if mentions(name, lower) || strings.Contains(lower, "?") {
		return true
	}
	for _, q := range questionWords {
		if strings.HasPrefix(lower, q) {
			return true
		}
	}
	for _, g := range greetings {
		if lower == g {
			return true
		}
	}
	return false
}

// ParseDirective finds a movement request in a message that mentions the
// character by name. "come here" wins over "follow me", which wins over "stop".
func ParseDirective(name, text string) Directive {
	lower := strings.ToLower(text)
	if !strings.Contains(lower, strings.ToLower(name)) {
		return DirectiveNone
	}
	switch {
	case strings.Contains(lower, "come here"):
		return DirectiveComeHere
	case strings.Contains(lower, "follow me"):
		return DirectiveFollow
	case strings.Contains(lower, "stop"):
		return DirectiveStop
	default:
		return DirectiveNone
	}
}

// CleanResponse strips wrapping quotes, a "<name>: " speaker prefix and
// *stage actions* from an LLM reply.
func CleanResponse(name, reply string) string {
	s := strings.TrimSpace(reply)
	if s != "" && strings.ContainsRune(quotes, rune(s[0])) {
		s = s[1:]
	}
	if s != "" && strings.ContainsRune(quotes, rune(s[len(s)-1])) {
		s = s[:len(s)-1]
	}
	s = strings.ReplaceAll(s, name+": ", "")
	s = stageActions.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
