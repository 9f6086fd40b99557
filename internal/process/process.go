// Package process reaps the headless browser together with the renderer
// and GPU helpers it forks.
package process

import "sync"

// Tree is a launched browser process tree. The zero value and a nil Tree
// are inert.
type Tree struct {
	mu  sync.Mutex
	pid int
}

// Track returns a Tree rooted at pid.
func Track(pid int) *Tree {
	return &Tree{pid: pid}
}

// PID returns the tracked root, 0 once reaped.
func (t *Tree) PID() int {
	if t == nil {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pid
}

// Kill terminates the tree once. Later calls do nothing.
func (t *Tree) Kill() {
	if t == nil {
		return
	}
	t.mu.Lock()
	pid := t.pid
	t.pid = 0
	t.mu.Unlock()

	if pid > 0 {
		KillProcessGroup(pid)
	}
}
