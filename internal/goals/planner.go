// File: internal/goals/planner.go
package goals

import (
	"context"
	"errors"
	"fmt"

	"github.com/xkilldash9x/freddy/api/schemas"
	"github.com/xkilldash9x/freddy/internal/llmutil"
	"github.com/xkilldash9x/freddy/internal/telemetry"
	"go.uber.org/zap"
)

// Source records where a plan came from.
type Source string

const (
	SourceLLM      Source = "llm"
	SourceFallback Source = "fallback"
)

// Plan is an ordered list of steps and its origin.
type Plan struct {
	Steps  []*Step
	Source Source
}

var errUnusableReply = errors.New("llm reply was empty or unavailable")

// Planner breaks goals into steps, asking the LLM first and falling back to
// a built-in plan. It holds no per-goal state and is safe for concurrent use.
type Planner struct {
	logger  *zap.Logger
	client  schemas.LLMClient
	emitter *telemetry.Emitter
}

// NewPlanner creates a Planner. A nil client always yields fallback plans.
func NewPlanner(logger *zap.Logger, client schemas.LLMClient, sink telemetry.Sink) *Planner {
	return &Planner{
		logger:  logger.Named("planner"),
		client:  client,
		emitter: telemetry.NewEmitter(sink),
	}
}

// PlanningPrompt is the instruction sent to the LLM for a goal type.
func PlanningPrompt(t Type) string {
	return "You are planning discrete Minecraft steps for an autonomous NPC. " +
		"Return STRICT JSON array of objects with fields: label (string), dependsOn (array of labels). " +
		`No prose. Example: [{"label":"Navigate to forest","dependsOn":[]},{"label":"Collect 64 oak logs","dependsOn":["Navigate to forest"]}]. ` +
		"Goal: " + string(t)
}

// PlanFor returns at least one step for any goal type.
func (p *Planner) PlanFor(ctx context.Context, t Type) []*Step {
	return p.Plan(ctx, t).Steps
}

// Plan asks the LLM for a plan and falls back to the built-in one when the
// call fails, the reply is unusable or it yields no steps. It never panics.
func (p *Planner) Plan(ctx context.Context, t Type) (plan Plan) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Panic recovered while planning",
				zap.String("goal_type", string(t)),
				zap.Any("panic_value", r),
				zap.Stack("stack"),
			)
			p.emitter.Error(fmt.Sprintf("planning %s: %v", t, r))
			plan = Plan{Steps: FallbackPlan(t), Source: SourceFallback}
		}
	}()

	steps, err := p.planWithLLM(ctx, t)
	if err != nil {
		p.logger.Info("Using fallback plan.", zap.String("goal_type", string(t)), zap.Error(err))
		return Plan{Steps: FallbackPlan(t), Source: SourceFallback}
	}
	p.logger.Debug("LLM plan accepted.", zap.String("goal_type", string(t)), zap.Int("steps", len(steps)))
	return Plan{Steps: steps, Source: SourceLLM}
}

func (p *Planner) planWithLLM(ctx context.Context, t Type) ([]*Step, error) {
	if p.client == nil {
		return nil, errors.New("no llm client configured")
	}
	reply, err := p.client.Generate(ctx, schemas.GenerationRequest{
		UserPrompt: PlanningPrompt(t),
		Tier:       schemas.TierPowerful,
		Options:    schemas.GenerationOptions{Temperature: 0.2},
	})
	if err != nil {
		return nil, fmt.Errorf("llm planning call failed: %w", err)
	}
	if !schemas.IsUsableReply(reply) {
		return nil, errUnusableReply
	}
	steps := ParseSteps(reply)
	if len(steps) == 0 {
		return nil, errors.New("llm reply contained no steps")
	}
	return steps, nil
}

// ParseSteps extracts steps from a loosely formatted JSON array of
// {label, dependsOn} objects. Objects without a label are skipped,
// dependencies naming unknown labels are dropped and a step never depends
// on itself. When labels repeat, dependencies resolve to the first one.
func ParseSteps(reply string) []*Step {
	arr, ok := llmutil.OutermostArray(llmutil.StripCodeFences(reply))
	if !ok {
		return nil
	}

	var (
		steps   []*Step
		byLabel = make(map[string]*Step)
		wanted  = make(map[*Step][]string)
	)
	for _, obj := range llmutil.SplitObjects(arr) {
		fields := llmutil.Fields(obj)
		label, ok := llmutil.StringValue(fields["label"])
		if !ok || label == "" {
			continue
		}
		step := NewStep(label)
		steps = append(steps, step)
		if _, seen := byLabel[label]; !seen {
			byLabel[label] = step
		}
		wanted[step] = llmutil.StringList(fields["dependsOn"])
	}

	for _, step := range steps {
		seen := make(map[string]bool)
		for _, depLabel := range wanted[step] {
			dep, ok := byLabel[depLabel]
			if !ok || dep == step || seen[dep.ID] {
				continue
			}
			seen[dep.ID] = true
			step.DependsOn = append(step.DependsOn, dep.ID)
		}
	}
	return steps
}
