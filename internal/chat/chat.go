// File: internal/chat/chat.go

// Package chat lets the character hold conversations with players. It keeps
// a short memory of what was said, decides which messages deserve an
// answer and asks the LLM for replies.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/freddy/api/schemas"
	"github.com/xkilldash9x/freddy/internal/agent"
)

const (
	// historySize bounds the shared log of recent messages.
	historySize = 20
	// promptHistory is how many of a player's messages go into a reply prompt.
	promptHistory = 3
)

// ErrNoReply is returned when the LLM gave nothing worth saying.
var ErrNoReply = errors.New("no usable chat reply")

// Conversation is what one player said to the character and what it answered.
type Conversation struct {
	Player    string
	Messages  []string
	Responses []string
	LastAt    time.Time
}

// Recent returns at most n of the player's latest messages, oldest first.
func (c Conversation) Recent(n int) []string {
	start := len(c.Messages) - n
	if start < 0 {
		start = 0
	}
	return append([]string(nil), c.Messages[start:]...)
}

// Heard is the outcome of hearing one message.
type Heard struct {
	Player    string
	Text      string
	Directive Directive
	// Prompt is set when the message deserves an answer.
	Prompt string
}

// Respond reports whether a reply should be generated.
func (h Heard) Respond() bool { return h.Prompt != "" }

// Position is where a player stands, when known.
type Position struct {
	X, Y, Z float64
	Known   bool
}

// System remembers conversations and produces replies. It is safe for
// concurrent use; Reply blocks on the LLM and belongs off the tick thread.
type System struct {
	logger *zap.Logger
	client schemas.LLMClient
	name   string
	now    func() time.Time

	mu            sync.Mutex
	recent        []string
	conversations map[string]*Conversation
	lastPlayer    string
	lastAt        time.Time
}

// NewSystem creates a System for the character called name. Without a
// client, messages are still remembered but never answered.
func NewSystem(logger *zap.Logger, client schemas.LLMClient, name string) *System {
	return &System{
		logger:        logger.Named("chat"),
		client:        client,
		name:          name,
		now:           time.Now,
		conversations: make(map[string]*Conversation),
	}
}

// Hear records a player's message and works out what to do about it.
func (s *System) Hear(player, text string, at Position) Heard {
	text = strings.TrimSpace(text)
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.remember(player + ": " + text)
	s.lastPlayer = player
	s.lastAt = now

	h := Heard{Player: player, Text: text, Directive: ParseDirective(s.name, text)}
	if s.client == nil || !ShouldRespond(s.name, text) {
		return h
	}

	conv, ok := s.conversations[player]
	if !ok {
		conv = &Conversation{Player: player}
		s.conversations[player] = conv
	}
	conv.Messages = append(conv.Messages, text)
	conv.LastAt = now
	h.Prompt = s.buildPrompt(player, text, at, conv.Recent(promptHistory))
	return h
}

func (s *System) buildPrompt(player, text string, at Position, history []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are %s, a friendly AI in Minecraft.\n", s.name)
	fmt.Fprintf(&sb, "You are having a conversation with %s.\n\n", player)

	sb.WriteString("CURRENT STATUS:\n")
	fmt.Fprintf(&sb, "- Your Name: %s\n", s.name)
	fmt.Fprintf(&sb, "- Target Player: %s\n", player)
	if at.Known {
		fmt.Fprintf(&sb, "- Player Location: [%.0f, %.0f, %.0f]\n", at.X, at.Y, at.Z)
	}
	sb.WriteString("- Your Mood: Friendly and helpful\n\n")

	sb.WriteString("CONVERSATION HISTORY:\n")
	for _, msg := range history {
		fmt.Fprintf(&sb, "- %s\n", msg)
	}

	fmt.Fprintf(&sb, "\nPLAYER JUST SAID: \"%s\"\n\n", text)
	sb.WriteString("RESPOND NATURALLY:\n")
	sb.WriteString("- Be friendly and conversational\n")
	sb.WriteString("- Keep response SHORT (1-2 sentences max)\n")
	sb.WriteString("- Be helpful if they ask for assistance\n")
	sb.WriteString("- Show personality\n")
	sb.WriteString("- Don't break character\n\n")
	sb.WriteString("Your response (no quotes): ")
	return sb.String()
}

// Reply asks the LLM to answer a heard message and cleans the result.
func (s *System) Reply(ctx context.Context, h Heard) (string, error) {
	if !h.Respond() || s.client == nil {
		return "", ErrNoReply
	}
	raw, err := s.client.Generate(ctx, schemas.GenerationRequest{
		UserPrompt: h.Prompt,
		Tier:       schemas.TierFast,
		Options:    schemas.GenerationOptions{Temperature: 0.8},
	})
	if err != nil {
		return "", fmt.Errorf("chat reply to %s: %w", h.Player, err)
	}
	if !schemas.IsUsableReply(raw) {
		return "", ErrNoReply
	}
	reply := CleanResponse(s.name, raw)
	if reply == "" {
		return "", ErrNoReply
	}
	s.logger.Info("Chat exchange",
		zap.String("player", h.Player),
		zap.String("heard", h.Text),
		zap.String("reply", reply))
	return reply, nil
}

// RecordResponse remembers what the character answered player.
func (s *System) RecordResponse(player, reply string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if conv, ok := s.conversations[player]; ok {
		conv.Responses = append(conv.Responses, reply)
	}
	s.remember(s.name + ": " + reply)
}

// remember appends to the shared log, dropping the oldest line past
// historySize. Callers hold mu.
func (s *System) remember(line string) {
	s.recent = append(s.recent, line)
	if len(s.recent) > historySize {
		s.recent = append(s.recent[:0:0], s.recent[len(s.recent)-historySize:]...)
	}
}

// Recent returns the shared message log, oldest first.
func (s *System) Recent() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.recent...)
}

// Conversation returns a copy of the conversation with player.
func (s *System) Conversation(player string) (Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.conversations[player]
	if !ok {
		return Conversation{}, false
	}
	out := *conv
	out.Messages = append([]string(nil), conv.Messages...)
	out.Responses = append([]string(nil), conv.Responses...)
	return out, true
}

// Annotate adds the most recent player interaction to obs.
func (s *System) Annotate(obs agent.Observation) agent.Observation {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastPlayer == "" {
		return obs
	}
	return obs.WithInteraction(s.lastPlayer, s.lastAt.UnixMilli())
}
