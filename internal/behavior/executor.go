// internal/behavior/executor.go

// Package behavior runs the tick-driven decision loop. It owns the goal
// manager and the brain's streak state on the tick thread and hands
// blocking LLM work to a Worker.
package behavior

import "github.com/xkilldash9x/freddy/internal/agent"

// Inventory item names counted by goal predicates.
const (
	ItemOakLog         = "OAK_LOG"
	ItemStone          = "STONE"
	ItemDiamond        = "DIAMOND"
	ItemCookedBeef     = "COOKED_BEEF"
	ItemCookedPorkchop = "COOKED_PORKCHOP"
	ItemWheat          = "WHEAT"
)

// Resource kinds accepted by Executor.GatherResource.
const (
	ResourceWood     = "WOOD"
	ResourceStone    = "STONE"
	ResourceDiamonds = "DIAMONDS"
)

// Executor carries out high level intents in the world. Every method must
// return promptly; long running work is queued and advanced by Tick.
type Executor interface {
	WalkTo(x, z float64)
	Follow(player string)
	Wander()
	Explore(radius int)
	GatherResource(kind string)
	HuntAnimals(radius int)
	FarmCrops(radius int)
	BuildPillar(height int)
	AttackNearestMob(radius int)
	EatFood()
	PickupNearbyItems()
	Say(message string)
	LookAt(target string)
	// Stop abandons whatever the character is doing.
	Stop()
	Count(item string) int
	Inventory() map[string]int
	// Tick advances queued actions. It is called on every game tick.
	Tick()
}

// World answers questions about the character's surroundings.
type World interface {
	// Present reports whether the character exists in the world.
	Present() bool
	FoodLevel() int
	NearestPlayer() (string, bool)
	// PlayerPosition locates a player in the world.
	PlayerPosition(name string) (x, y, z float64, ok bool)
	Observe() agent.Observation
}
