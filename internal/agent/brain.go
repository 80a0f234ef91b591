// File: internal/agent/brain.go
package agent

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/xkilldash9x/freddy/api/schemas"
	"github.com/xkilldash9x/freddy/internal/telemetry"
	"go.uber.org/zap"
)

const (
	noResponseThought = "No response from LLM"
	// streakLimit is how many repeats of Idle or Wander are tolerated.
	streakLimit = 2
	// maxWalkDistance rejects walk targets farther than this on the x/z plane.
	maxWalkDistance = 50.0
)

// Consultation is the outcome of asking the LLM for a decision. It carries
// no brain state, so it can be produced off the tick thread.
type Consultation struct {
	Prompt  string
	Reply   string
	Latency time.Duration
	// Failure is set when the consultation itself broke.
	Failure string
}

// Usable reports whether the reply should be parsed.
func (c Consultation) Usable() bool {
	return c.Failure == "" && schemas.IsUsableReply(c.Reply)
}

// Snapshot is the brain's externally visible state.
type Snapshot struct {
	Name    string  `json:"name"`
	Thought string  `json:"thought"`
	Action  string  `json:"action"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Z       float64 `json:"z"`
}

// Brain turns observations into actions using an LLM as the oracle and a
// small set of streak heuristics to keep the character from stalling.
type Brain struct {
	logger  *zap.Logger
	client  schemas.LLMClient
	prompts *PromptBuilder
	emitter *telemetry.Emitter
	now     func() time.Time

	mu           sync.Mutex
	idleStreak   int
	wanderStreak int
	thought      string
	action       string
}

// NewBrain creates a Brain for the character called name. sink may be nil.
func NewBrain(logger *zap.Logger, client schemas.LLMClient, name string, sink telemetry.Sink) *Brain {
	return &Brain{
		logger:  logger.Named("brain"),
		client:  client,
		prompts: NewPromptBuilder(name),
		emitter: telemetry.NewEmitter(sink),
		now:     time.Now,
		thought: "Idle",
		action:  "Waiting",
	}
}

// Think runs a full decision cycle and reports to the brain's own sink.
func (b *Brain) Think(ctx context.Context, obs Observation) Action {
	return b.ThinkWith(ctx, obs, b.emitter.Sink())
}

// ThinkWith runs a full decision cycle reporting to sink. It never panics
// and always returns an Action.
func (b *Brain) ThinkWith(ctx context.Context, obs Observation, sink telemetry.Sink) (action Action) {
	emitter := telemetry.NewEmitter(sink)
	defer func() {
		if r := recover(); r != nil {
			action = b.recoverCycle(emitter, r)
		}
	}()
	return b.decide(obs, b.consult(ctx, obs, emitter), emitter)
}

// Consult renders the prompt and queries the LLM. It does not touch the
// streak counters and is safe to call from a worker goroutine.
func (b *Brain) Consult(ctx context.Context, obs Observation) (c Consultation) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Panic recovered during consultation",
				zap.Any("panic_value", r),
				zap.Stack("stack"),
			)
			c = Consultation{Failure: fmt.Sprint(r)}
		}
	}()
	return b.consult(ctx, obs, b.emitter)
}

// Decide parses and refines a consultation. It mutates the streak
// counters, so it belongs to the tick thread.
func (b *Brain) Decide(obs Observation, c Consultation) (action Action) {
	defer func() {
		if r := recover(); r != nil {
			action = b.recoverCycle(b.emitter, r)
		}
	}()
	if c.Failure != "" {
		b.setThought("Error: " + c.Failure)
		b.emitter.Error(c.Failure)
		return Idle()
	}
	return b.decide(obs, c, b.emitter)
}

func (b *Brain) consult(ctx context.Context, obs Observation, emitter *telemetry.Emitter) Consultation {
	prompt := b.prompts.BuildPrompt(obs)
	emitter.Thinking(prompt)

	start := time.Now()
	reply, err := b.client.Generate(ctx, schemas.GenerationRequest{
		UserPrompt: prompt,
		Tier:       schemas.TierFast,
		Options:    schemas.GenerationOptions{Temperature: 0.7},
	})
	latency := time.Since(start)
	if err != nil {
		b.logger.Warn("LLM call failed; treating as no response.", zap.Error(err))
		return Consultation{Prompt: prompt, Latency: latency}
	}

	if schemas.IsUsableReply(reply) {
		emitter.LLMResponse(reply)
		emitter.ResponseTime(latency)
	}
	return Consultation{Prompt: prompt, Reply: reply, Latency: latency}
}

func (b *Brain) decide(obs Observation, c Consultation, emitter *telemetry.Emitter) Action {
	if !c.Usable() {
		b.setThought(noResponseThought)
		return Idle()
	}
	b.setThought(c.Reply)

	proposed := Parse(c.Reply)
	action := b.RefineAction(obs, proposed)
	if action != proposed {
		b.logger.Debug("Refined proposed action.",
			zap.Stringer("proposed", proposed),
			zap.Stringer("action", action),
		)
	}

	b.SetAction(action.String())
	emitter.Action(action.String())
	return action
}

func (b *Brain) recoverCycle(emitter *telemetry.Emitter, r any) Action {
	b.logger.Error("Panic recovered during decision cycle",
		zap.Any("panic_value", r),
		zap.Stack("stack"),
	)
	msg := fmt.Sprint(r)
	b.setThought("Error: " + msg)
	emitter.Error(msg)
	return Idle()
}

// RefineAction applies the anti-stall heuristics to a proposed action.
func (b *Brain) RefineAction(obs Observation, proposed Action) Action {
	b.mu.Lock()
	defer b.mu.Unlock()

	player, hasPlayer := obs.FirstPlayer()

	switch proposed.Kind {
	case KindIdle:
		b.idleStreak++
		b.wanderStreak = 0
		if hasPlayer {
			return Follow(player)
		}
		if b.idleStreak > streakLimit {
			return Wander()
		}
		return proposed

	case KindWander:
		b.wanderStreak++
		b.idleStreak = 0
		if hasPlayer && b.wanderStreak > streakLimit {
			return Follow(player)
		}
		return proposed

	case KindWalkTo:
		if math.Hypot(proposed.X-obs.X, proposed.Z-obs.Z) > maxWalkDistance {
			if hasPlayer {
				return Follow(player)
			}
			return Wander()
		}
		b.idleStreak, b.wanderStreak = 0, 0
		return proposed

	default:
		b.idleStreak, b.wanderStreak = 0, 0
		return proposed
	}
}

// Streaks returns the current idle and wander streak counters.
func (b *Brain) Streaks() (idle, wander int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.idleStreak, b.wanderStreak
}

func (b *Brain) setThought(thought string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.thought = thought
}

// SetAction records the description of the action being carried out.
func (b *Brain) SetAction(action string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.action = action
}

func (b *Brain) CurrentThought() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.thought
}

func (b *Brain) CurrentAction() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.action
}

// Snapshot captures the brain state at a position for dashboards.
func (b *Brain) Snapshot(name string, x, y, z float64) Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Snapshot{Name: name, Thought: b.thought, Action: b.action, X: x, Y: y, Z: z}
}
