// internal/behavior/behavior.go
package behavior

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/freddy/internal/agent"
	"github.com/xkilldash9x/freddy/internal/chat"
	"github.com/xkilldash9x/freddy/internal/commands"
	"github.com/xkilldash9x/freddy/internal/config"
	"github.com/xkilldash9x/freddy/internal/goals"
	"github.com/xkilldash9x/freddy/internal/telemetry"
)

// StatusExploring is reported when no goal is active.
const StatusExploring = "EXPLORING"

// directiveHoldTicks is how long a player's movement directive keeps the
// decision cycle from moving the character elsewhere.
const directiveHoldTicks = 600

// Collaborators are the optional parts a Behavior works with.
type Collaborators struct {
	// Planner breaks requested goals into steps. Without one, RequestGoal
	// starts the goal as a simple goal.
	Planner *goals.Planner
	// Brain picks actions while no goal is active. Without one the
	// character only explores.
	Brain *agent.Brain
	// Worker runs planning and thinking. Without one those jobs run inline
	// on the tick thread.
	Worker *Worker
	// Chat answers players and remembers who last spoke. Without one, chat
	// commands are ignored.
	Chat *chat.System
	Sink telemetry.Sink
	// OnGoalFinished is called on the tick thread for every goal that
	// reaches a terminal state.
	OnGoalFinished func(*goals.Goal)
}

// Behavior is the tick-driven decision loop. Tick, SetGoal,
// SetGoalWithSteps and RequestGoal must be called from the tick thread;
// Dispatch and Status are safe from any goroutine.
type Behavior struct {
	logger  *zap.Logger
	cfg     config.AgentConfig
	exec    Executor
	world   World
	planner *goals.Planner
	brain   *agent.Brain
	worker  *Worker
	chat    *chat.System
	emitter *telemetry.Emitter
	manager *goals.Manager
	now     func() time.Time

	commands chan commands.Command
	ctx      context.Context

	totalTicks     int64
	sinceDecision  int
	sinceThink     int
	thinking       bool
	holdUntil      int64
	awaitingPlan   map[string]bool
	onGoalFinished func(*goals.Goal)

	status atomic.Value
}

// New creates a Behavior. cfg fields that are not positive fall back to
// their defaults.
func New(logger *zap.Logger, cfg config.AgentConfig, exec Executor, world World, c Collaborators) *Behavior {
	defaults := config.NewDefaultConfig().Agent()
	if cfg.DecisionInterval <= 0 {
		cfg.DecisionInterval = defaults.DecisionInterval
	}
	if cfg.FoodThreshold <= 0 {
		cfg.FoodThreshold = defaults.FoodThreshold
	}
	if cfg.ExploreRadius <= 0 {
		cfg.ExploreRadius = defaults.ExploreRadius
	}
	if cfg.ThinkInterval <= 0 {
		cfg.ThinkInterval = defaults.ThinkInterval
	}
	queue := cfg.WorkerQueueSize
	if queue <= 0 {
		queue = defaults.WorkerQueueSize
	}

	b := &Behavior{
		logger:         logger.Named("behavior"),
		cfg:            cfg,
		exec:           exec,
		world:          world,
		planner:        c.Planner,
		brain:          c.Brain,
		worker:         c.Worker,
		chat:           c.Chat,
		emitter:        telemetry.NewEmitter(c.Sink),
		now:            time.Now,
		commands:       make(chan commands.Command, queue),
		ctx:            context.Background(),
		awaitingPlan:   make(map[string]bool),
		onGoalFinished: c.OnGoalFinished,
	}
	b.manager = goals.NewManager(b.goalFinished)
	b.status.Store(StatusExploring)
	return b
}

// SetContext sets the context inline jobs run with. It must be called
// before the first Tick.
func (b *Behavior) SetContext(ctx context.Context) { b.ctx = ctx }

// Manager exposes the goal manager. It belongs to the tick thread.
func (b *Behavior) Manager() *goals.Manager { return b.manager }

// Status is "EXPLORING" or "GOAL: <TYPE> (<STATUS>)", as of the last tick.
func (b *Behavior) Status() string {
	return b.status.Load().(string)
}

func (b *Behavior) refreshStatus() {
	s := StatusExploring
	if g := b.manager.CurrentGoal(); g != nil {
		s = fmt.Sprintf("GOAL: %s (%s)", g.Type(), g.Status())
	}
	b.status.Store(s)
}

// Dispatch queues a command for the next tick and reports whether there
// was room for it.
func (b *Behavior) Dispatch(cmd commands.Command) bool {
	select {
	case b.commands <- cmd:
		return true
	default:
		return false
	}
}

// Tick is called at the game rate. It never panics.
func (b *Behavior) Tick() {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Panic recovered in tick",
				zap.Any("panic_value", r),
				zap.Stack("stack"),
			)
			b.emitter.Error(fmt.Sprintf("tick: %v", r))
		}
		b.refreshStatus()
	}()

	b.totalTicks++
	b.sinceThink++
	b.exec.Tick()
	b.drainResults()
	b.drainCommands()

	b.sinceDecision++
	if b.sinceDecision >= b.cfg.DecisionInterval {
		b.sinceDecision = 0
		b.decide()
	}
}

func (b *Behavior) drainResults() {
	if b.worker == nil {
		return
	}
	for {
		select {
		case apply := <-b.worker.Results():
			apply()
		default:
			return
		}
	}
}

func (b *Behavior) drainCommands() {
	for {
		select {
		case cmd := <-b.commands:
			b.applyCommand(cmd)
		default:
			return
		}
	}
}

func (b *Behavior) applyCommand(cmd commands.Command) {
	switch cmd.Kind {
	case commands.KindGoal:
		b.RequestGoal(cmd.Goal, cmd.Description())
	case commands.KindCancel:
		if g := b.manager.CurrentGoal(); g != nil {
			b.logger.Info("Cancelling goal", zap.String("goal", g.String()))
			b.manager.CancelCurrentGoal("cancelled by operator")
		}
	case commands.KindClear:
		n := 0
		for b.manager.CurrentGoal() != nil {
			b.manager.CancelCurrentGoal("cleared by operator")
			n++
		}
		b.logger.Info("Cleared all goals", zap.Int("cancelled", n))
	case commands.KindChat:
		b.hear(cmd.Player, cmd.Text)
	}
}

// hear handles a player's chat line: movement directives apply at once and
// replies are generated off the tick thread.
func (b *Behavior) hear(player, text string) {
	b.emitter.Chat(player, text)
	if b.chat == nil {
		b.logger.Debug("No chat system, ignoring message", zap.String("player", player))
		return
	}

	var at chat.Position
	if x, y, z, ok := b.world.PlayerPosition(player); ok {
		at = chat.Position{X: x, Y: y, Z: z, Known: true}
	}
	heard := b.chat.Hear(player, text, at)

	applied := true
	switch heard.Directive {
	case chat.DirectiveComeHere:
		if applied = at.Known; applied {
			b.exec.WalkTo(at.X, at.Z)
		}
	case chat.DirectiveFollow:
		b.exec.Follow(player)
	case chat.DirectiveStop:
		b.exec.Stop()
	default:
		applied = false
	}
	if applied {
		b.holdUntil = b.totalTicks + directiveHoldTicks
		b.logger.Info("Chat directive", zap.String("player", player), zap.Stringer("directive", heard.Directive))
	}

	if !heard.Respond() {
		return
	}
	system := b.chat
	job := func(ctx context.Context) func() {
		reply, err := system.Reply(ctx, heard)
		if err != nil {
			b.logger.Warn("No chat reply", zap.String("player", player), zap.Error(err))
			return nil
		}
		return func() {
			b.exec.Say(reply)
			system.RecordResponse(player, reply)
		}
	}
	b.submit("chat "+player, job, func() {})
}

// SetGoal makes a simple goal active.
func (b *Behavior) SetGoal(t goals.Type, description string) *goals.Goal {
	g := goals.New(t, description)
	b.manager.SetGoal(g)
	b.logger.Info("New goal", zap.String("type", string(t)))
	b.refreshStatus()
	return g
}

// SetGoalWithSteps makes a goal with a ready plan active and publishes the plan.
func (b *Behavior) SetGoalWithSteps(t goals.Type, description string, steps []*goals.Step) *goals.Goal {
	g := goals.New(t, description)
	g.SetSteps(steps)
	b.manager.SetGoal(g)
	b.logger.Info("New goal with steps", zap.String("type", string(t)), zap.Int("steps", len(steps)))
	b.publishSteps(g)
	b.refreshStatus()
	return g
}

// RequestGoal makes a goal active at once and plans it in the background.
// Until the plan arrives the goal only gets maintenance. A plan that
// arrives after the goal stopped being active is discarded and the goal
// continues as a simple goal if it is promoted again.
func (b *Behavior) RequestGoal(t goals.Type, description string) *goals.Goal {
	if b.planner == nil {
		return b.SetGoal(t, description)
	}
	g := b.SetGoal(t, description)
	id := g.ID()
	b.awaitingPlan[id] = true

	planner := b.planner
	job := func(ctx context.Context) (apply func()) {
		defer func() {
			if r := recover(); r != nil {
				apply = func() { b.attachPlan(g, goals.Plan{Steps: goals.FallbackPlan(t), Source: goals.SourceFallback}) }
			}
		}()
		plan := planner.Plan(ctx, t)
		return func() { b.attachPlan(g, plan) }
	}
	b.submit("plan "+string(t), job, func() { delete(b.awaitingPlan, id) })
	return g
}

func (b *Behavior) attachPlan(g *goals.Goal, plan goals.Plan) {
	id := g.ID()
	if !b.awaitingPlan[id] {
		return
	}
	delete(b.awaitingPlan, id)

	if b.manager.CurrentGoal() != g {
		b.logger.Info("Discarding plan for superseded goal",
			zap.String("goal_id", id), zap.String("type", string(g.Type())))
		return
	}
	g.SetSteps(plan.Steps)
	b.logger.Info("Plan attached",
		zap.String("type", string(g.Type())),
		zap.Int("steps", len(plan.Steps)),
		zap.String("source", string(plan.Source)))
	b.publishSteps(g)
}

func (b *Behavior) publishSteps(g *goals.Goal) {
	stepsJSON, err := goals.StepsJSON(g.Steps())
	if err != nil {
		b.logger.Error("Failed to encode steps", zap.Error(err))
		return
	}
	b.emitter.GoalSteps(stepsJSON)
}

// submit hands a job to the worker, or runs it inline without one. When
// the worker refuses the job, dropped runs instead.
func (b *Behavior) submit(name string, job Job, dropped func()) {
	if b.worker == nil {
		if apply := job(b.ctx); apply != nil {
			apply()
		}
		return
	}
	if !b.worker.Submit(name, job) {
		dropped()
	}
}

func (b *Behavior) goalFinished(g *goals.Goal) {
	delete(b.awaitingPlan, g.ID())
	if step, ok := g.CurrentStep(); ok && step.Status == goals.StepFailed {
		b.emitter.StepUpdate(step.ID, string(goals.StepFailed))
	}
	b.logger.Info("Goal finished", zap.String("goal", g.String()), zap.Duration("elapsed", g.Elapsed()))
	if b.onGoalFinished != nil {
		b.onGoalFinished(g)
	}
}

func (b *Behavior) decide() {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Panic recovered in decision cycle",
				zap.Any("panic_value", r),
				zap.Stack("stack"),
			)
			b.emitter.Error(fmt.Sprintf("decision cycle: %v", r))
		}
	}()

	if !b.world.Present() {
		b.logger.Warn("Character is not in the world, skipping decision")
		return
	}
	b.emitter.Tick(b.totalTicks)

	g := b.manager.CurrentGoal()
	switch {
	case b.totalTicks < b.holdUntil:
		b.logger.Debug("Holding for chat directive")
	case g == nil:
		b.exec.Explore(b.cfg.ExploreRadius)
		b.freeRoam()
	case b.awaitingPlan[g.ID()]:
		b.logger.Debug("Waiting for plan", zap.String("type", string(g.Type())))
	case !g.HasSteps():
		b.runSimpleGoal(g)
	default:
		b.runStep(g)
	}

	b.maintain()
	b.refreshStatus()
	b.emitter.Status(b.Status())
	b.emitter.Inventory(b.exec.Inventory())
	b.publishSnapshot()
}

// snapshot is the dashboard view of the character.
type snapshot struct {
	agent.Snapshot
	Status string          `json:"status"`
	Goal   *goals.Snapshot `json:"goal,omitempty"`
}

func (b *Behavior) publishSnapshot() {
	obs := b.world.Observe()
	s := snapshot{Status: b.Status()}
	if b.brain != nil {
		s.Snapshot = b.brain.Snapshot(b.cfg.Name, obs.X, obs.Y, obs.Z)
	} else {
		s.Snapshot = agent.Snapshot{Name: b.cfg.Name, X: obs.X, Y: obs.Y, Z: obs.Z}
	}
	if g := b.manager.CurrentGoal(); g != nil {
		gs := g.Snapshot()
		s.Goal = &gs
	}
	b.emitter.Snapshot(s)
}

func (b *Behavior) maintain() {
	if b.world.FoodLevel() < b.cfg.FoodThreshold {
		b.logger.Debug("Eating food")
		b.exec.EatFood()
	}
	b.exec.PickupNearbyItems()
}

func (b *Behavior) runSimpleGoal(g *goals.Goal) {
	rule := ruleForGoal(g.Type())
	if rule.done != nil && rule.done(b, g) {
		if rule.finish != nil {
			rule.finish(b)
		}
		b.logger.Info("Goal completed", zap.String("type", string(g.Type())))
		b.manager.CompleteCurrentGoal()
		return
	}
	rule.act(b)
}

func (b *Behavior) runStep(g *goals.Goal) {
	step, ok := g.CurrentStep()
	if !ok {
		b.logger.Info("All steps completed", zap.String("type", string(g.Type())))
		b.manager.CompleteCurrentGoal()
		return
	}

	if _, started := g.StartCurrentStep(); started {
		b.logger.Info("Starting step",
			zap.Int("index", g.CursorIndex()+1),
			zap.String("label", step.Label))
		b.emitter.StepUpdate(step.ID, string(goals.StepInProgress))
	}

	rule := ruleForStep(g.Type(), step.Label)
	switch {
	case rule.once:
		rule.act(b)
	case rule.done != nil && rule.done(b, g):
	default:
		rule.act(b)
		return
	}

	g.CompleteCurrentStep()
	b.logger.Info("Step complete", zap.String("label", step.Label))
	b.emitter.StepUpdate(step.ID, string(goals.StepCompleted))
}

// freeRoam asks the brain what to do while no goal is active, with at most
// one consultation in flight.
func (b *Behavior) freeRoam() {
	if !b.cfg.FreeRoam || b.brain == nil || b.thinking || b.sinceThink < b.cfg.ThinkInterval {
		return
	}
	b.sinceThink = 0
	b.thinking = true

	obs := b.world.Observe()
	if b.chat != nil {
		obs = b.chat.Annotate(obs)
	}
	b.emitter.Position(obs.X, obs.Y, obs.Z)
	b.emitter.Players(obs.NearbyPlayers)
	b.emitter.Observation(fmt.Sprintf("%s, players=%d", obs.TimeOfDay(), len(obs.NearbyPlayers)))

	brain := b.brain
	job := func(ctx context.Context) (apply func()) {
		defer func() {
			if r := recover(); r != nil {
				apply = func() { b.thinking = false }
			}
		}()
		consultation := brain.Consult(ctx, obs)
		return func() { b.applyThought(obs, consultation) }
	}
	b.submit("think", job, func() { b.thinking = false })
}

func (b *Behavior) applyThought(obs agent.Observation, c agent.Consultation) {
	b.thinking = false
	if g := b.manager.CurrentGoal(); g != nil {
		b.logger.Debug("Discarding thought, a goal became active", zap.String("type", string(g.Type())))
		return
	}
	action := b.brain.Decide(obs, c)
	b.logger.Debug("Thought applied",
		zap.String("thought", b.brain.CurrentThought()),
		zap.Stringer("action", action))
	b.perform(action)
}

// perform hands an action to the executor.
func (b *Behavior) perform(a agent.Action) {
	switch a.Kind {
	case agent.KindFollow:
		b.exec.Follow(a.Target)
	case agent.KindWalkTo:
		b.exec.WalkTo(a.X, a.Z)
	case agent.KindWander:
		b.exec.Wander()
	case agent.KindLookAt:
		b.exec.LookAt(a.Target)
	case agent.KindRespond:
		b.exec.Say(a.Message)
	case agent.KindMineBlock:
		b.exec.GatherResource(a.Block)
	case agent.KindAttackEntity:
		b.exec.AttackNearestMob(16)
	case agent.KindEatFood:
		b.exec.EatFood()
	case agent.KindPickupItem:
		b.exec.PickupNearbyItems()
	case agent.KindPlaceBlock, agent.KindIdle:
	}
}
