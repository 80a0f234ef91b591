// File: internal/goals/manager.go
package goals

// Manager sequences goals: one active goal, a FIFO queue behind it and an
// append-only history of finished goals. It belongs to the tick thread.
type Manager struct {
	current  *Goal
	queue    []*Goal
	history  []*Goal
	onFinish func(*Goal)
}

// NewManager creates an empty Manager. onFinish, if not nil, is called for
// every goal that reaches a terminal state.
func NewManager(onFinish func(*Goal)) *Manager {
	return &Manager{onFinish: onFinish}
}

// SetGoal makes g the active goal. An in-progress goal it replaces goes to
// the back of the queue as Pending.
func (m *Manager) SetGoal(g *Goal) {
	if m.current != nil && m.current.Status() == StatusInProgress {
		m.current.setStatus(StatusPending)
		m.queue = append(m.queue, m.current)
	}
	m.current = g
	g.setStatus(StatusInProgress)
}

// QueueGoal appends g to the queue as Pending. With no active goal it is
// promoted straight away.
func (m *Manager) QueueGoal(g *Goal) {
	g.setStatus(StatusPending)
	if m.current == nil {
		m.SetGoal(g)
		return
	}
	m.queue = append(m.queue, g)
}

// CurrentGoal returns the active goal or nil.
func (m *Manager) CurrentGoal() *Goal { return m.current }

// CompleteCurrentGoal finishes the active goal and promotes the next one.
func (m *Manager) CompleteCurrentGoal() {
	m.finish(StatusCompleted, "")
}

// FailCurrentGoal fails the active goal, recording reason, and promotes the
// next one. The step under the goal's cursor is failed with it.
func (m *Manager) FailCurrentGoal(reason string) {
	m.finish(StatusFailed, reason)
}

// CancelCurrentGoal cancels the active goal, failing its unfinished current
// step, and promotes the next one.
func (m *Manager) CancelCurrentGoal(reason string) {
	m.finish(StatusCancelled, reason)
}

func (m *Manager) finish(status Status, reason string) {
	g := m.current
	if g == nil {
		return
	}
	if g.setStatus(status) && status != StatusCompleted {
		g.FailCurrentStep()
	}
	if reason != "" {
		g.SetParam(ParamFailReason, reason)
	}
	m.history = append(m.history, g)
	m.advance()
	if m.onFinish != nil {
		m.onFinish(g)
	}
}

func (m *Manager) advance() {
	if len(m.queue) == 0 {
		m.current = nil
		return
	}
	next := m.queue[0]
	m.queue[0] = nil
	m.queue = m.queue[1:]
	m.current = nil
	m.SetGoal(next)
}

// AllGoals returns the active goal followed by the queue.
func (m *Manager) AllGoals() []*Goal {
	var all []*Goal
	if m.current != nil {
		all = append(all, m.current)
	}
	return append(all, m.queue...)
}

// Queue returns a copy of the pending queue.
func (m *Manager) Queue() []*Goal {
	return append([]*Goal(nil), m.queue...)
}

// History returns a copy of the finished goals, oldest first.
func (m *Manager) History() []*Goal {
	return append([]*Goal(nil), m.history...)
}

// Clear drops the active goal and the queue. History is kept.
func (m *Manager) Clear() {
	m.current = nil
	m.queue = nil
}
