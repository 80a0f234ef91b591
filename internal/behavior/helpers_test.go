package behavior

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/freddy/internal/agent"
	"github.com/xkilldash9x/freddy/internal/config"
	"github.com/xkilldash9x/freddy/internal/telemetry"
)

// fakeExecutor records every intent as a call string.
type fakeExecutor struct {
	mu        sync.Mutex
	calls     []string
	ticks     int
	inventory map[string]int
	panicOn   string
}

func newFakeExecutor() *fakeExecutor {
	return &fakeExecutor{inventory: make(map[string]int)}
}

func (f *fakeExecutor) record(format string, args ...any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	call := fmt.Sprintf(format, args...)
	if f.panicOn != "" && call == f.panicOn {
		panic("executor exploded on " + call)
	}
	f.calls = append(f.calls, call)
}

func (f *fakeExecutor) WalkTo(x, z float64)         { f.record("WalkTo(%.0f,%.0f)", x, z) }
func (f *fakeExecutor) Follow(player string)        { f.record("Follow(%s)", player) }
func (f *fakeExecutor) Wander()                     { f.record("Wander") }
func (f *fakeExecutor) Explore(radius int)          { f.record("Explore(%d)", radius) }
func (f *fakeExecutor) GatherResource(kind string)  { f.record("Gather(%s)", kind) }
func (f *fakeExecutor) HuntAnimals(radius int)      { f.record("Hunt(%d)", radius) }
func (f *fakeExecutor) FarmCrops(radius int)        { f.record("Farm(%d)", radius) }
func (f *fakeExecutor) BuildPillar(height int)      { f.record("BuildPillar(%d)", height) }
func (f *fakeExecutor) AttackNearestMob(radius int) { f.record("Attack(%d)", radius) }
func (f *fakeExecutor) EatFood()                    { f.record("EatFood") }
func (f *fakeExecutor) PickupNearbyItems()          { f.record("Pickup") }
func (f *fakeExecutor) Say(message string)          { f.record("Say(%s)", message) }
func (f *fakeExecutor) LookAt(target string)        { f.record("LookAt(%s)", target) }
func (f *fakeExecutor) Stop()                       { f.record("Stop") }

func (f *fakeExecutor) Tick() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ticks++
}

func (f *fakeExecutor) Count(item string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inventory[item]
}

func (f *fakeExecutor) Inventory() map[string]int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]int, len(f.inventory))
	for k, v := range f.inventory {
		out[k] = v
	}
	return out
}

func (f *fakeExecutor) set(item string, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inventory[item] = n
}

// takeCalls returns the recorded calls and resets the log.
func (f *fakeExecutor) takeCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.calls
	f.calls = nil
	return out
}

// fakeWorld is a configurable World.
type fakeWorld struct {
	present   bool
	food      int
	players   []string
	positions map[string][3]float64
}

func (w *fakeWorld) Present() bool  { return w.present }
func (w *fakeWorld) FoodLevel() int { return w.food }

func (w *fakeWorld) NearestPlayer() (string, bool) {
	if len(w.players) == 0 {
		return "", false
	}
	return w.players[0], true
}

func (w *fakeWorld) PlayerPosition(name string) (x, y, z float64, ok bool) {
	p, ok := w.positions[name]
	return p[0], p[1], p[2], ok
}

func (w *fakeWorld) Observe() agent.Observation {
	return agent.NewObservation(w.players, 10, 64, 10, 500)
}

func testConfig() config.AgentConfig {
	return config.AgentConfig{
		Name:             "Freddy",
		TickRate:         20,
		DecisionInterval: 1,
		FoodThreshold:    10,
		ExploreRadius:    40,
		FreeRoam:         false,
		ThinkInterval:    1,
		WorkerQueueSize:  4,
	}
}

type fixture struct {
	b     *Behavior
	exec  *fakeExecutor
	world *fakeWorld
	sink  *telemetry.Backlog
}

func newFixture(t *testing.T, cfg config.AgentConfig, c Collaborators) *fixture {
	t.Helper()
	exec := newFakeExecutor()
	world := &fakeWorld{present: true, food: 20}
	sink := telemetry.NewBacklog(0)
	c.Sink = sink
	b := New(zaptest.NewLogger(t), cfg, exec, world, c)
	return &fixture{b: b, exec: exec, world: world, sink: sink}
}

// withClock pins the behavior's clock and returns a function to move it.
func (f *fixture) withClock(start time.Time) func(time.Duration) {
	now := start
	f.b.now = func() time.Time { return now }
	return func(d time.Duration) { now = now.Add(d) }
}
