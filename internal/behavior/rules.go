// internal/behavior/rules.go
package behavior

import (
	"strings"
	"time"

	"github.com/xkilldash9x/freddy/internal/goals"
)

// Resource thresholds a goal must reach before it counts as done.
const (
	woodTarget      = 64
	stoneTarget     = 64
	diamondTarget   = 10
	foodTarget      = 32
	wheatTarget     = 32
	buildLogsTarget = 32
	pillarHeight    = 5
	exploreDuration = 60 * time.Second
)

// goalRule drives a goal that has no steps, and is the fallback for step
// labels no stepRule recognises.
type goalRule struct {
	// done reports whether the goal's end state holds. nil means never.
	done func(b *Behavior, g *goals.Goal) bool
	// act requests progress towards the end state.
	act func(b *Behavior)
	// finish runs once when done first holds, before the goal completes.
	finish func(b *Behavior)
}

// stepRule matches a step by label keywords. A rule with once set is a
// navigation step: its action is dispatched a single time and the step
// completes immediately. Otherwise the step completes when done holds and
// act is re-requested every decision until then.
type stepRule struct {
	keywords []string
	once     bool
	done     func(b *Behavior, g *goals.Goal) bool
	act      func(b *Behavior)
}

func (r stepRule) matches(label string) bool {
	for _, k := range r.keywords {
		if strings.Contains(label, k) {
			return true
		}
	}
	return false
}

func has(item string, n int) func(b *Behavior, g *goals.Goal) bool {
	return func(b *Behavior, _ *goals.Goal) bool { return b.exec.Count(item) >= n }
}

func hasFood(b *Behavior, _ *goals.Goal) bool {
	return b.exec.Count(ItemCookedBeef) >= foodTarget || b.exec.Count(ItemCookedPorkchop) >= foodTarget
}

func exploredLongEnough(b *Behavior, g *goals.Goal) bool {
	return b.now().Sub(g.CreatedAt()) > exploreDuration
}

func explore(radius int) func(b *Behavior) {
	return func(b *Behavior) { b.exec.Explore(radius) }
}

func gather(kind string) func(b *Behavior) {
	return func(b *Behavior) { b.exec.GatherResource(kind) }
}

func followNearest(b *Behavior) {
	if player, ok := b.world.NearestPlayer(); ok {
		b.exec.Follow(player)
	}
}

func noop(*Behavior) {}

var goalRules = map[goals.Type]goalRule{
	goals.GatherWood:   {done: has(ItemOakLog, woodTarget), act: gather(ResourceWood)},
	goals.GatherStone:  {done: has(ItemStone, stoneTarget), act: gather(ResourceStone)},
	goals.MineDiamonds: {done: has(ItemDiamond, diamondTarget), act: gather(ResourceDiamonds)},
	goals.HuntAnimals: {done: hasFood, act: func(b *Behavior) {
		b.exec.HuntAnimals(30)
	}},
	goals.FarmCrops: {done: has(ItemWheat, wheatTarget), act: func(b *Behavior) {
		b.exec.FarmCrops(20)
	}},
	goals.ExploreArea: {done: exploredLongEnough, act: explore(50)},
	goals.BuildStructure: {
		done:   has(ItemOakLog, buildLogsTarget),
		act:    gather(ResourceWood),
		finish: func(b *Behavior) { b.exec.BuildPillar(pillarHeight) },
	},
	goals.FollowPlayer: {act: followNearest},
}

// defaultGoalRule serves goal types without a rule of their own.
var defaultGoalRule = goalRule{act: explore(30)}

var stepRules = map[goals.Type][]stepRule{
	goals.GatherWood: {
		{keywords: []string{"navigate", "forest"}, once: true, act: explore(30)},
		{keywords: []string{"collect", "logs"}, done: has(ItemOakLog, woodTarget), act: gather(ResourceWood)},
		{keywords: []string{"return", "base"}, once: true, act: noop},
	},
	goals.GatherStone: {
		// "stone" alone would also match the mining step.
		{keywords: []string{"find", "cave", "outcrop"}, once: true, act: explore(30)},
		{keywords: []string{"mine", "blocks", "stone"}, done: has(ItemStone, stoneTarget), act: gather(ResourceStone)},
	},
	goals.MineDiamonds: {
		{keywords: []string{"locate", "cave"}, once: true, act: explore(40)},
		{keywords: []string{"descend", "diamond level"}, once: true, act: explore(30)},
		{keywords: []string{"mine", "diamond"}, done: has(ItemDiamond, diamondTarget), act: gather(ResourceDiamonds)},
	},
	goals.HuntAnimals: {
		{keywords: []string{"locate", "animals"}, once: true, act: explore(20)},
		{keywords: []string{"hunt", "collect", "food"}, done: hasFood, act: func(b *Behavior) { b.exec.HuntAnimals(30) }},
	},
	goals.FarmCrops: {
		{keywords: []string{"find", "farmable"}, once: true, act: explore(20)},
		{keywords: []string{"harvest", "wheat", "crops"}, done: has(ItemWheat, wheatTarget), act: func(b *Behavior) { b.exec.FarmCrops(20) }},
	},
	goals.ExploreArea: {
		{keywords: []string{"explore"}, done: exploredLongEnough, act: explore(50)},
	},
	goals.BuildStructure: {
		{keywords: []string{"gather", "logs"}, done: has(ItemOakLog, buildLogsTarget), act: gather(ResourceWood)},
		{keywords: []string{"build", "pillar"}, once: true, act: func(b *Behavior) { b.exec.BuildPillar(pillarHeight) }},
	},
	goals.FollowPlayer: {
		{keywords: []string{"find", "nearest player"}, once: true, act: explore(20)},
		{keywords: []string{"follow"}, act: followNearest},
	},
}

// defaultStepRule serves every step of a goal type that has no step rules,
// such as RETURN_HOME.
var defaultStepRule = stepRule{once: true, act: explore(30)}

// ruleForStep picks the rule for a step. Labels that match nothing fall back
// to the goal's simple rule.
func ruleForStep(t goals.Type, label string) stepRule {
	rules, ok := stepRules[t]
	if !ok {
		return defaultStepRule
	}
	label = strings.ToLower(label)
	for _, r := range rules {
		if r.matches(label) {
			return r
		}
	}
	gr := ruleForGoal(t)
	return stepRule{done: gr.done, act: gr.act}
}

func ruleForGoal(t goals.Type) goalRule {
	if r, ok := goalRules[t]; ok {
		return r
	}
	return defaultGoalRule
}
