// File: internal/telemetry/telemetry.go

// Package telemetry defines the line oriented status stream published for
// external dashboards. Every message is a single line of the form
// PREFIX:payload. Delivery is fire and forget.
package telemetry

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	json "github.com/json-iterator/go"
)

// Prefix identifies the kind of a telemetry message.
type Prefix string

const (
	PrefixThinking       Prefix = "THINKING"         // Prompt about to be sent to the LLM.
	PrefixLLMResponse    Prefix = "LLM_RESPONSE"     // Raw LLM reply.
	PrefixAction         Prefix = "ACTION"           // Final chosen action.
	PrefixGoalSteps      Prefix = "GOAL_STEPS"       // JSON array of the active goal's steps.
	PrefixGoalStepUpdate Prefix = "GOAL_STEP_UPDATE" // {"id":...,"status":...}
	PrefixError          Prefix = "ERROR"            // Unexpected failure description.
	PrefixResponseTime   Prefix = "RESPONSE_TIME"    // LLM latency in whole milliseconds.
	PrefixTick           Prefix = "TICK"
	PrefixObservation    Prefix = "OBSERVATION"
	PrefixPosition       Prefix = "POSITION"
	PrefixPlayers        Prefix = "PLAYERS"
	PrefixInventory      Prefix = "INVENTORY"
	PrefixStatus         Prefix = "STATUS"
	PrefixChat           Prefix = "CHAT"
	PrefixSnapshot       Prefix = "SNAPSHOT" // JSON state of the character for dashboards.
)

// Sink receives encoded telemetry lines. Implementations must not block the
// caller for long and must never panic.
type Sink interface {
	Send(line string)
}

var lineBreaks = strings.NewReplacer("\r\n", `\n`, "\n", `\n`, "\r", `\n`)

// Format renders a message as one line, escaping line breaks in the payload.
func Format(prefix Prefix, payload string) string {
	return string(prefix) + ":" + lineBreaks.Replace(payload)
}

// Nop discards everything.
type Nop struct{}

func (Nop) Send(string) {}

// Multi fans every line out to each of its sinks.
type Multi []Sink

func (m Multi) Send(line string) {
	for _, s := range m {
		if s != nil {
			s.Send(line)
		}
	}
}

// Backlog is a Sink that keeps the most recent lines in memory.
type Backlog struct {
	mu    sync.Mutex
	lines []string
	limit int
}

// NewBacklog returns a Backlog holding at most limit lines. A non-positive
// limit keeps everything.
func NewBacklog(limit int) *Backlog {
	return &Backlog{limit: limit}
}

func (b *Backlog) Send(line string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lines = append(b.lines, line)
	if b.limit > 0 && len(b.lines) > b.limit {
		b.lines = append(b.lines[:0:0], b.lines[len(b.lines)-b.limit:]...)
	}
}

// Lines returns a copy of the retained lines, oldest first.
func (b *Backlog) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.lines...)
}

// WithPrefix returns the payloads of the retained lines carrying prefix.
func (b *Backlog) WithPrefix(prefix Prefix) []string {
	var out []string
	head := string(prefix) + ":"
	for _, line := range b.Lines() {
		if rest, ok := strings.CutPrefix(line, head); ok {
			out = append(out, rest)
		}
	}
	return out
}

// Emitter writes the message vocabulary to a Sink.
type Emitter struct {
	sink Sink
}

// NewEmitter wraps sink. A nil sink discards everything.
func NewEmitter(sink Sink) *Emitter {
	if sink == nil {
		sink = Nop{}
	}
	return &Emitter{sink: sink}
}

// Sink returns the underlying sink.
func (e *Emitter) Sink() Sink { return e.sink }

func (e *Emitter) emit(prefix Prefix, payload string) {
	e.sink.Send(Format(prefix, payload))
}

func (e *Emitter) Thinking(prompt string)   { e.emit(PrefixThinking, prompt) }
func (e *Emitter) LLMResponse(reply string) { e.emit(PrefixLLMResponse, reply) }
func (e *Emitter) Action(action string)     { e.emit(PrefixAction, action) }
func (e *Emitter) Error(msg string)         { e.emit(PrefixError, msg) }
func (e *Emitter) Status(status string)     { e.emit(PrefixStatus, status) }
func (e *Emitter) Observation(desc string)  { e.emit(PrefixObservation, desc) }
func (e *Emitter) Tick(tick int64)          { e.emit(PrefixTick, fmt.Sprintf("%d", tick)) }

// GoalSteps publishes an already encoded JSON array of steps.
func (e *Emitter) GoalSteps(stepsJSON string) { e.emit(PrefixGoalSteps, stepsJSON) }

// ResponseTime publishes an LLM latency in whole milliseconds.
func (e *Emitter) ResponseTime(d time.Duration) {
	e.emit(PrefixResponseTime, fmt.Sprintf("%d", d.Milliseconds()))
}

type stepUpdate struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// StepUpdate publishes a step status transition.
func (e *Emitter) StepUpdate(stepID, status string) {
	payload, err := json.Marshal(stepUpdate{ID: stepID, Status: status})
	if err != nil {
		e.Error(fmt.Sprintf("encode step update: %v", err))
		return
	}
	e.emit(PrefixGoalStepUpdate, string(payload))
}

// Snapshot publishes v encoded as JSON.
func (e *Emitter) Snapshot(v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		e.Error(fmt.Sprintf("encode snapshot: %v", err))
		return
	}
	e.emit(PrefixSnapshot, string(payload))
}

// Position publishes coordinates with one decimal place.
func (e *Emitter) Position(x, y, z float64) {
	e.emit(PrefixPosition, fmt.Sprintf("%.1f,%.1f,%.1f", x, y, z))
}

// Players publishes a comma separated player list.
func (e *Emitter) Players(names []string) {
	e.emit(PrefixPlayers, strings.Join(names, ","))
}

// Inventory publishes item counts as k=v pairs sorted by item name.
func (e *Emitter) Inventory(counts map[string]int) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%d", k, counts[k]))
	}
	e.emit(PrefixInventory, strings.Join(pairs, ","))
}

// Chat publishes something a player or the character said.
func (e *Emitter) Chat(player, msg string) {
	e.emit(PrefixChat, player+"|"+msg)
}
