// File: internal/goals/fallback.go
package goals

// fallbackLabels are the built-in plans. Each step depends on the one
// before it.
var fallbackLabels = map[Type][]string{
	GatherWood:     {"Navigate to forest area", "Collect 64 oak logs", "Return to base"},
	GatherStone:    {"Find stone outcrop or cave entrance", "Mine 64 stone blocks"},
	MineDiamonds:   {"Locate cave system", "Descend to diamond level", "Mine 10 diamond ore"},
	HuntAnimals:    {"Locate animals in vicinity", "Hunt and collect 32 food"},
	FarmCrops:      {"Find farmable crop area", "Harvest 32 wheat/crops"},
	ExploreArea:    {"Explore for 60 seconds"},
	BuildStructure: {"Gather 32 oak logs", "Build 5-block pillar"},
	FollowPlayer:   {"Find nearest player", "Follow continuously"},
}

const defaultFallbackLabel = "Wander and observe environment"

// FallbackPlan returns the built-in plan for t. Unknown types, and
// ReturnHome, get a single wander step.
func FallbackPlan(t Type) []*Step {
	labels, ok := fallbackLabels[t]
	if !ok {
		labels = []string{defaultFallbackLabel}
	}
	steps := make([]*Step, 0, len(labels))
	for i, label := range labels {
		if i == 0 {
			steps = append(steps, NewStep(label))
			continue
		}
		steps = append(steps, NewStep(label, steps[i-1].ID))
	}
	return steps
}
