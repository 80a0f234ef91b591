// internal/sim/actions.go
package sim

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/xkilldash9x/freddy/internal/behavior"
)

const (
	// ItemRottenFlesh drops from hostile mobs.
	ItemRottenFlesh = "ROTTEN_FLESH"

	gatherTicks  = 20
	huntTicks    = 30
	farmTicks    = 30
	attackTicks  = 20
	blockTicks   = 10
	wanderRadius = 8
	followGap    = 3
	foodPerMeal  = 8
)

// pickupTable lists what PickupNearbyItems may find lying around.
var pickupTable = []string{"APPLE", "STICK", "OAK_SAPLING"}

// task is the character's current long running action. step advances it by
// one tick and reports whether it finished.
type task struct {
	name string
	step func(w *World) bool
}

// start replaces the current task. Asking again for the task already
// running keeps its progress. Callers hold mu.
func (w *World) start(t *task) {
	if w.task != nil && w.task.name == t.name {
		return
	}
	w.task = t
	w.lastAction = t.name
	w.lastActionMs = w.now().UnixMilli()
}

// moveTowards steps the character one tick towards target and reports
// whether it arrived. Callers hold mu.
func (w *World) moveTowards(target vec) bool {
	d := w.pos.dist2D(target)
	if d <= walkSpeed {
		w.pos.X, w.pos.Z = target.X, target.Z
		return true
	}
	w.pos.X += (target.X - w.pos.X) / d * walkSpeed
	w.pos.Z += (target.Z - w.pos.Z) / d * walkSpeed
	return false
}

func moveTask(name string, target vec) *task {
	return &task{name: name, step: func(w *World) bool { return w.moveTowards(target) }}
}

// workTask finishes after ticks ticks and then runs done.
func workTask(name string, ticks int, done func(w *World)) *task {
	left := ticks
	return &task{name: name, step: func(w *World) bool {
		left--
		if left > 0 {
			return false
		}
		done(w)
		return true
	}}
}

func (w *World) WalkTo(x, z float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.start(moveTask(fmt.Sprintf("walk to %.0f,%.0f", x, z), vec{x, w.pos.Y, z}))
}

// Follow keeps the character close to player until another action replaces it.
func (w *World) Follow(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	var target *player
	for _, p := range w.players {
		if p.name == name {
			target = p
		}
	}
	if target == nil {
		w.logger.Warn("Cannot follow unknown player", zap.String("player", name))
		return
	}
	w.start(&task{name: "follow " + name, step: func(w *World) bool {
		if w.pos.dist2D(target.pos) > followGap {
			w.moveTowards(target.pos)
		}
		return false
	}})
}

func (w *World) Wander() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.start(moveTask("wander", w.randomPointNear(w.pos, wanderRadius)))
}

func (w *World) Explore(radius int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.start(moveTask(fmt.Sprintf("explore %d", radius), w.randomPointNear(w.pos, float64(radius))))
}

// GatherResource mines one batch of kind. Yields grow with terrain richness.
func (w *World) GatherResource(kind string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	var done func(w *World)
	switch kind {
	case behavior.ResourceWood:
		done = func(w *World) {
			w.inventory[behavior.ItemOakLog] += 1 + w.rng.Intn(3) + int(3*w.richness())
		}
	case behavior.ResourceStone:
		done = func(w *World) {
			w.inventory[behavior.ItemStone] += 2 + w.rng.Intn(4)
		}
	case behavior.ResourceDiamonds:
		done = func(w *World) {
			w.inventory[behavior.ItemStone]++
			if w.rng.Float64() < 0.2+0.3*w.richness() {
				w.inventory[behavior.ItemDiamond]++
			}
		}
	default:
		w.logger.Warn("Unknown resource", zap.String("kind", kind))
		return
	}
	w.start(workTask("gather "+kind, gatherTicks, done))
}

func (w *World) HuntAnimals(radius int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.start(workTask(fmt.Sprintf("hunt %d", radius), huntTicks, func(w *World) {
		if w.rng.Float64() >= 0.7 {
			return
		}
		item := behavior.ItemCookedPorkchop
		if w.rng.Intn(2) == 0 {
			item = behavior.ItemCookedBeef
		}
		w.inventory[item] += 1 + w.rng.Intn(2)
	}))
}

func (w *World) FarmCrops(radius int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.start(workTask(fmt.Sprintf("farm %d", radius), farmTicks, func(w *World) {
		w.inventory[behavior.ItemWheat] += 2 + w.rng.Intn(4)
	}))
}

// BuildPillar stacks height logs under the character. It needs the logs up
// front and uses them when the pillar is done.
func (w *World) BuildPillar(height int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if height <= 0 {
		return
	}
	if w.inventory[behavior.ItemOakLog] < height {
		w.logger.Warn("Not enough logs to build",
			zap.Int("height", height),
			zap.Int("logs", w.inventory[behavior.ItemOakLog]))
		return
	}
	w.start(workTask(fmt.Sprintf("build pillar %d", height), height*blockTicks, func(w *World) {
		if w.inventory[behavior.ItemOakLog] < height {
			return
		}
		w.inventory[behavior.ItemOakLog] -= height
		w.pos.Y += float64(height)
	}))
}

func (w *World) AttackNearestMob(radius int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.start(workTask(fmt.Sprintf("attack %d", radius), attackTicks, func(w *World) {
		if w.rng.Intn(2) == 0 {
			w.inventory[ItemRottenFlesh]++
		}
	}))
}

// EatFood eats one cooked item if the character is hungry. It does not
// interrupt the current task.
func (w *World) EatFood() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.food >= maxFood {
		return
	}
	for _, item := range []string{behavior.ItemCookedBeef, behavior.ItemCookedPorkchop} {
		if w.inventory[item] > 0 {
			w.take(item, 1)
			w.food = int(math.Min(maxFood, float64(w.food+foodPerMeal)))
			w.logger.Debug("Ate", zap.String("item", item), zap.Int("food", w.food))
			return
		}
	}
}

// PickupNearbyItems occasionally finds something on the ground.
func (w *World) PickupNearbyItems() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.rng.Float64() < 0.1 {
		w.inventory[pickupTable[w.rng.Intn(len(pickupTable))]]++
	}
}

func (w *World) Say(message string) {
	w.mu.Lock()
	w.said = append(w.said, message)
	name := w.name
	w.mu.Unlock()
	w.emitter.Chat(name, message)
}

// Stop drops the current task.
func (w *World) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.task = nil
	w.lastAction = "stop"
	w.lastActionMs = w.now().UnixMilli()
}

func (w *World) LookAt(target string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.facing = target
}

// take removes n of item, deleting the entry when it runs out. Callers hold mu.
func (w *World) take(item string, n int) {
	w.inventory[item] -= n
	if w.inventory[item] <= 0 {
		delete(w.inventory, item)
	}
}

func (w *World) Count(item string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.inventory[item]
}

func (w *World) Inventory() map[string]int {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make(map[string]int, len(w.inventory))
	for k, v := range w.inventory {
		if v > 0 {
			out[k] = v
		}
	}
	return out
}

// Give adds n of item to the inventory.
func (w *World) Give(item string, n int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.inventory[item] += n
}

var (
	_ behavior.Executor = (*World)(nil)
	_ behavior.World    = (*World)(nil)
)
