// File: internal/goals/goal.go

// Package goals models high level objectives, their ordered steps, the
// manager that sequences them and the planner that breaks them into steps.
package goals

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Allows mocking in tests.
var (
	uuidNewString = uuid.NewString
	timeNow       = time.Now
)

// Type is the closed set of objectives a character can pursue.
type Type string

const (
	GatherWood     Type = "GATHER_WOOD"
	GatherStone    Type = "GATHER_STONE"
	MineDiamonds   Type = "MINE_DIAMONDS"
	BuildStructure Type = "BUILD_STRUCTURE"
	ExploreArea    Type = "EXPLORE_AREA"
	ReturnHome     Type = "RETURN_HOME"
	FollowPlayer   Type = "FOLLOW_PLAYER"
	HuntAnimals    Type = "HUNT_ANIMALS"
	FarmCrops      Type = "FARM_CROPS"
)

// AllTypes lists every goal type in declaration order.
var AllTypes = []Type{
	GatherWood, GatherStone, MineDiamonds, BuildStructure, ExploreArea,
	ReturnHome, FollowPlayer, HuntAnimals, FarmCrops,
}

// Status is the lifecycle state of a Goal.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
	StatusCancelled  Status = "CANCELLED"
)

// Terminal reports whether no further transitions are allowed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// ParamFailReason is the parameter key recording why a goal failed.
const ParamFailReason = "failReason"

// Goal is one objective with an ordered list of steps and a cursor into it.
// A Goal is not safe for concurrent use; it belongs to the tick thread.
type Goal struct {
	id          string
	goalType    Type
	status      Status
	description string
	params      map[string]string
	createdAt   time.Time
	completedAt time.Time
	steps       []*Step
	cursor      int
}

// New creates a Pending goal.
func New(t Type, description string) *Goal {
	return &Goal{
		id:          uuidNewString(),
		goalType:    t,
		status:      StatusPending,
		description: description,
		params:      make(map[string]string),
		createdAt:   timeNow(),
	}
}

func (g *Goal) ID() string             { return g.id }
func (g *Goal) Type() Type             { return g.goalType }
func (g *Goal) Status() Status         { return g.status }
func (g *Goal) Description() string    { return g.description }
func (g *Goal) CreatedAt() time.Time   { return g.createdAt }
func (g *Goal) CompletedAt() time.Time { return g.completedAt }
func (g *Goal) CursorIndex() int       { return g.cursor }

// setStatus applies a transition. Terminal states are sticky, and the
// completion time is stamped on the first terminal transition only.
func (g *Goal) setStatus(s Status) bool {
	if g.status.Terminal() {
		return false
	}
	g.status = s
	if s.Terminal() && g.completedAt.IsZero() {
		g.completedAt = timeNow()
	}
	return true
}

// Elapsed is measured to completion for finished goals, to now otherwise.
func (g *Goal) Elapsed() time.Duration {
	end := g.completedAt
	if end.IsZero() {
		end = timeNow()
	}
	return end.Sub(g.createdAt)
}

func (g *Goal) Param(key string) (string, bool) {
	v, ok := g.params[key]
	return v, ok
}

func (g *Goal) SetParam(key, value string) {
	g.params[key] = value
}

// Params returns a copy of the goal's parameters.
func (g *Goal) Params() map[string]string {
	out := make(map[string]string, len(g.params))
	for k, v := range g.params {
		out[k] = v
	}
	return out
}

// SetSteps replaces the plan and rewinds the cursor. It is only meant for
// attaching a plan before execution starts.
func (g *Goal) SetSteps(steps []*Step) {
	g.steps = append([]*Step(nil), steps...)
	g.cursor = 0
}

// Steps returns the plan. The slice is a copy; the steps are shared.
func (g *Goal) Steps() []*Step {
	return append([]*Step(nil), g.steps...)
}

func (g *Goal) HasSteps() bool { return len(g.steps) > 0 }

// CurrentStep returns the step under the cursor.
func (g *Goal) CurrentStep() (*Step, bool) {
	if g.cursor >= len(g.steps) {
		return nil, false
	}
	return g.steps[g.cursor], true
}

// CompleteCurrentStep marks the step under the cursor completed and
// advances by one. Past the end it does nothing and reports false.
func (g *Goal) CompleteCurrentStep() (*Step, bool) {
	step, ok := g.CurrentStep()
	if !ok {
		return nil, false
	}
	step.complete()
	g.cursor++
	return step, true
}

// StartCurrentStep moves the step under the cursor to InProgress. It
// reports false past the end or when the step was already started.
func (g *Goal) StartCurrentStep() (*Step, bool) {
	step, ok := g.CurrentStep()
	if !ok || !step.Start() {
		return step, false
	}
	return step, true
}

// FailCurrentStep marks the step under the cursor failed without moving
// the cursor. It reports false past the end or when the step had already
// finished.
func (g *Goal) FailCurrentStep() (*Step, bool) {
	step, ok := g.CurrentStep()
	if !ok || step.terminal() {
		return step, false
	}
	step.Fail()
	return step, true
}

// HasMoreSteps reports whether the cursor is still inside the plan.
func (g *Goal) HasMoreSteps() bool {
	return g.cursor < len(g.steps)
}

// Snapshot is a goal's externally visible state.
type Snapshot struct {
	ID          string  `json:"id"`
	Type        Type    `json:"type"`
	Status      Status  `json:"status"`
	Description string  `json:"description"`
	Cursor      int     `json:"cursor"`
	Steps       []*Step `json:"steps"`
	ElapsedMs   int64   `json:"elapsedMs"`
}

// Snapshot copies the goal's state, steps included.
func (g *Goal) Snapshot() Snapshot {
	steps := make([]*Step, len(g.steps))
	for i, s := range g.steps {
		c := *s
		c.DependsOn = append([]string{}, s.DependsOn...)
		steps[i] = &c
	}
	return Snapshot{
		ID:          g.id,
		Type:        g.goalType,
		Status:      g.status,
		Description: g.description,
		Cursor:      g.cursor,
		Steps:       steps,
		ElapsedMs:   g.Elapsed().Milliseconds(),
	}
}

func (g *Goal) String() string {
	short := g.id
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("[%s] %s (%s) - %s", short, g.goalType, g.status, g.description)
}
