// File: internal/agent/action.go
package agent

import "fmt"

// ActionKind identifies the variant of an Action.
type ActionKind int

const (
	// KindIdle is the zero value so an unset Action means "do nothing".
	KindIdle ActionKind = iota
	KindFollow
	KindWalkTo
	KindLookAt
	KindRespond
	KindWander
	KindMineBlock
	KindPlaceBlock
	KindAttackEntity
	KindEatFood
	KindPickupItem
)

var kindNames = map[ActionKind]string{
	KindIdle:         "IDLE",
	KindFollow:       "FOLLOW",
	KindWalkTo:       "WALK_TO",
	KindLookAt:       "LOOK_AT",
	KindRespond:      "RESPOND",
	KindWander:       "WANDER",
	KindMineBlock:    "MINE_BLOCK",
	KindPlaceBlock:   "PLACE_BLOCK",
	KindAttackEntity: "ATTACK",
	KindEatFood:      "EAT_FOOD",
	KindPickupItem:   "PICKUP",
}

func (k ActionKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ActionKind(%d)", int(k))
}

// Action is a single discrete decision. Which payload fields are meaningful
// depends on Kind:
//
//	Follow, LookAt, AttackEntity, PickupItem: Target
//	Respond:                                  Message
//	WalkTo:                                   X, Z
//	MineBlock, PlaceBlock:                    Block, X, Y, Z
type Action struct {
	Kind    ActionKind
	Target  string
	Message string
	Block   string
	X, Y, Z float64
}

func Idle() Action                  { return Action{Kind: KindIdle} }
func Wander() Action                { return Action{Kind: KindWander} }
func EatFood() Action               { return Action{Kind: KindEatFood} }
func Follow(playerID string) Action { return Action{Kind: KindFollow, Target: playerID} }
func LookAt(target string) Action   { return Action{Kind: KindLookAt, Target: target} }
func Respond(message string) Action { return Action{Kind: KindRespond, Message: message} }
func AttackEntity(id string) Action { return Action{Kind: KindAttackEntity, Target: id} }
func PickupItem(item string) Action { return Action{Kind: KindPickupItem, Target: item} }
func WalkTo(x, z float64) Action    { return Action{Kind: KindWalkTo, X: x, Z: z} }

// MineBlock targets a block type at a location. The parser has no world
// access, so it emits the origin and leaves "nearest" resolution to the executor.
func MineBlock(block string, x, y, z float64) Action {
	return Action{Kind: KindMineBlock, Block: block, X: x, Y: y, Z: z}
}

func PlaceBlock(block string, x, y, z float64) Action {
	return Action{Kind: KindPlaceBlock, Block: block, X: x, Y: y, Z: z}
}

// String renders the action in the form published on the ACTION channel.
func (a Action) String() string {
	switch a.Kind {
	case KindFollow:
		return fmt.Sprintf("FOLLOW(%s)", a.Target)
	case KindWalkTo:
		return fmt.Sprintf("WALK_TO(%.1f, %.1f)", a.X, a.Z)
	case KindLookAt:
		return fmt.Sprintf("LOOK_AT(%s)", a.Target)
	case KindRespond:
		return "RESPOND: " + a.Message
	case KindWander:
		return "WANDER"
	case KindMineBlock:
		return fmt.Sprintf("MINE_BLOCK(%s at %.1f, %.1f, %.1f)", a.Block, a.X, a.Y, a.Z)
	case KindPlaceBlock:
		return fmt.Sprintf("PLACE_BLOCK(%s at %.1f, %.1f, %.1f)", a.Block, a.X, a.Y, a.Z)
	case KindAttackEntity:
		return fmt.Sprintf("ATTACK(%s)", a.Target)
	case KindEatFood:
		return "EAT_FOOD"
	case KindPickupItem:
		return fmt.Sprintf("PICKUP(%s)", a.Target)
	default:
		return "IDLE"
	}
}
