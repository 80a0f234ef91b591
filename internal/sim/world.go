// internal/sim/world.go

// Package sim is a deterministic in-memory world for running the decision
// loop without a game server. A World implements both behavior.Executor and
// behavior.World.
package sim

import (
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/aquilax/go-perlin"
	"go.uber.org/zap"

	"github.com/xkilldash9x/freddy/internal/agent"
	"github.com/xkilldash9x/freddy/internal/config"
	"github.com/xkilldash9x/freddy/internal/telemetry"
)

const (
	// ticksPerDay matches the game's day length.
	ticksPerDay = 24000
	// hungerInterval is how many ticks pass per lost food point.
	hungerInterval = 400
	maxFood        = 20
	// sightRange is the distance within which players count as nearby.
	sightRange = 32.0
	// walkSpeed is in blocks per tick.
	walkSpeed = 0.25
	// playerMoveInterval is how often simulated players drift, in ticks.
	playerMoveInterval = 100
)

type vec struct{ X, Y, Z float64 }

func (v vec) dist2D(o vec) float64 { return math.Hypot(v.X-o.X, v.Z-o.Z) }

type player struct {
	name string
	pos  vec
}

// World simulates the character, its inventory and the players around it.
// All methods are safe for concurrent use.
type World struct {
	mu     sync.Mutex
	logger *zap.Logger
	rng    *rand.Rand
	// terrain scales resource yields by location.
	terrain *perlin.Perlin
	emitter *telemetry.Emitter
	name    string
	now     func() time.Time

	present   bool
	pos       vec
	food      int
	ticks     int64
	inventory map[string]int
	players   []*player
	task      *task
	facing    string

	lastAction   string
	lastActionMs int64
	said         []string
}

// Option configures a World.
type Option func(*World)

// WithTelemetry publishes the character's chat on sink under name.
func WithTelemetry(name string, sink telemetry.Sink) Option {
	return func(w *World) {
		w.name = name
		w.emitter = telemetry.NewEmitter(sink)
	}
}

// WithClock replaces the wall clock used for observation timestamps.
func WithClock(now func() time.Time) Option {
	return func(w *World) { w.now = now }
}

// New builds a World from cfg. Players are spread around the start position
// by the seeded generator, so equal seeds give equal worlds.
func New(logger *zap.Logger, cfg config.SimulationConfig, opts ...Option) *World {
	rng := rand.New(rand.NewSource(cfg.Seed))
	food := cfg.FoodLevel
	if food <= 0 || food > maxFood {
		food = maxFood
	}

	w := &World{
		logger:    logger.Named("sim"),
		rng:       rng,
		terrain:   perlin.NewPerlin(2, 2, 3, cfg.Seed),
		emitter:   telemetry.NewEmitter(nil),
		name:      "Freddy",
		now:       time.Now,
		present:   true,
		pos:       vec{cfg.StartX, cfg.StartY, cfg.StartZ},
		food:      food,
		inventory: make(map[string]int),
	}
	for _, name := range cfg.Players {
		w.players = append(w.players, &player{name: name, pos: w.randomPointNear(w.pos, 16)})
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// randomPointNear picks a point within radius of center. Callers hold mu.
func (w *World) randomPointNear(center vec, radius float64) vec {
	angle := w.rng.Float64() * 2 * math.Pi
	r := w.rng.Float64() * radius
	return vec{center.X + r*math.Cos(angle), center.Y, center.Z + r*math.Sin(angle)}
}

// richness is the terrain noise at the character's position in [0, 1].
// Callers hold mu.
func (w *World) richness() float64 {
	n := w.terrain.Noise2D(w.pos.X/64, w.pos.Z/64)
	return math.Max(0, math.Min(1, (n+1)/2))
}

// SetPresent toggles whether the character is in the world.
func (w *World) SetPresent(present bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.present = present
}

// Present reports whether the character is in the world.
func (w *World) Present() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.present
}

// FoodLevel returns the hunger bar, 0 to 20.
func (w *World) FoodLevel() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.food
}

// Position returns the character's coordinates.
func (w *World) Position() (x, y, z float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pos.X, w.pos.Y, w.pos.Z
}

// Said returns everything the character has said, oldest first.
func (w *World) Said() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.said...)
}

// nearby returns the names of players in sight, nearest first. Callers hold mu.
func (w *World) nearby() []string {
	type seen struct {
		name string
		d    float64
	}
	var in []seen
	for _, p := range w.players {
		if d := p.pos.dist2D(w.pos); d <= sightRange {
			in = append(in, seen{p.name, d})
		}
	}
	sort.SliceStable(in, func(i, j int) bool { return in[i].d < in[j].d })
	names := make([]string, len(in))
	for i, s := range in {
		names[i] = s.name
	}
	return names
}

// NearestPlayer returns the closest player in sight.
func (w *World) NearestPlayer() (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	names := w.nearby()
	if len(names) == 0 {
		return "", false
	}
	return names[0], true
}

// PlayerPosition locates a player, in sight or not.
func (w *World) PlayerPosition(name string) (x, y, z float64, ok bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, p := range w.players {
		if p.name == name {
			return p.pos.X, p.pos.Y, p.pos.Z, true
		}
	}
	return 0, 0, 0, false
}

// Observe snapshots what the character perceives.
func (w *World) Observe() agent.Observation {
	w.mu.Lock()
	defer w.mu.Unlock()
	obs := agent.NewObservation(w.nearby(), w.pos.X, w.pos.Y, w.pos.Z, w.ticks)
	if w.lastAction != "" {
		obs = obs.WithLastAction(w.lastAction, w.lastActionMs)
	}
	return obs
}

// Tick advances the clock, hunger, the players and the current task.
func (w *World) Tick() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.ticks++
	if w.ticks%hungerInterval == 0 && w.food > 0 {
		w.food--
	}
	if w.ticks%playerMoveInterval == 0 {
		for _, p := range w.players {
			p.pos = w.randomPointNear(p.pos, 4)
		}
	}
	if !w.present || w.task == nil {
		return
	}
	if w.task.step(w) {
		w.logger.Debug("Task finished", zap.String("task", w.task.name))
		w.task = nil
	}
}

// WorldTime returns the time of day in ticks.
func (w *World) WorldTime() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ticks % ticksPerDay
}

// Facing returns the last target the character looked at.
func (w *World) Facing() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.facing
}
