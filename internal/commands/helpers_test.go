package commands

import "sync"

// recordingDispatcher collects dispatched commands.
type recordingDispatcher struct {
	mu     sync.Mutex
	cmds   []Command
	reject bool
	status string
}

func (d *recordingDispatcher) Dispatch(cmd Command) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.reject {
		return false
	}
	d.cmds = append(d.cmds, cmd)
	return true
}

func (d *recordingDispatcher) Status() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.status
}

func (d *recordingDispatcher) received() []Command {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Command(nil), d.cmds...)
}
