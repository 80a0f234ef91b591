// File: internal/goals/step.go
package goals

import (
	"fmt"

	json "github.com/json-iterator/go"
)

// StepStatus is the lifecycle state of a Step.
type StepStatus string

const (
	StepPending    StepStatus = "PENDING"
	StepInProgress StepStatus = "IN_PROGRESS"
	StepCompleted  StepStatus = "COMPLETED"
	StepFailed     StepStatus = "FAILED"
)

// Step is one unit of work within a goal. DependsOn holds ids of other steps
// in the same plan; execution order is still the plan order.
type Step struct {
	ID        string     `json:"id"`
	Label     string     `json:"label"`
	Status    StepStatus `json:"status"`
	DependsOn []string   `json:"dependsOn"`
}

// NewStep creates a Pending step with a fresh id.
func NewStep(label string, dependsOn ...string) *Step {
	deps := append([]string{}, dependsOn...)
	return &Step{ID: uuidNewString(), Label: label, Status: StepPending, DependsOn: deps}
}

func (s *Step) terminal() bool {
	return s.Status == StepCompleted || s.Status == StepFailed
}

// Start moves a Pending step to InProgress and reports whether it did.
func (s *Step) Start() bool {
	if s.Status != StepPending {
		return false
	}
	s.Status = StepInProgress
	return true
}

func (s *Step) complete() {
	if !s.terminal() {
		s.Status = StepCompleted
	}
}

// Fail marks the step failed unless it already finished.
func (s *Step) Fail() {
	if !s.terminal() {
		s.Status = StepFailed
	}
}

// StepsJSON encodes a plan as a JSON array for the GOAL_STEPS channel.
func StepsJSON(steps []*Step) (string, error) {
	if steps == nil {
		steps = []*Step{}
	}
	b, err := json.Marshal(steps)
	if err != nil {
		return "", fmt.Errorf("failed to encode steps: %w", err)
	}
	return string(b), nil
}
