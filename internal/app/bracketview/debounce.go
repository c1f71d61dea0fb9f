package bracketview

import (
	"sync"
	"time"
)

// Debouncer runs at most one pending callback per key. Triggers that arrive while a
// callback is pending are absorbed by it.
type Debouncer struct {
	mu      sync.Mutex
	pending map[string]*time.Timer
	closed  bool
}

// NewDebouncer returns an idle Debouncer.
func NewDebouncer() *Debouncer {
	return &Debouncer{pending: make(map[string]*time.Timer)}
}

// Trigger schedules fn after delay unless a callback for key is already pending.
// It reports whether a new callback was scheduled.
func (d *Debouncer) Trigger(key string, delay time.Duration, fn func()) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return false
	}
	if _, ok := d.pending[key]; ok {
		return false
	}
	var timer *time.Timer
	timer = time.AfterFunc(delay, func() {
		d.mu.Lock()
		if d.pending[key] == timer {
			delete(d.pending, key)
		}
		d.mu.Unlock()
		fn()
	})
	d.pending[key] = timer
	return true
}

// Pending reports whether a callback for key is waiting to run.
func (d *Debouncer) Pending(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.pending[key]
	return ok
}

// Stop cancels every pending callback. Later triggers are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	for key, timer := range d.pending {
		timer.Stop()
		delete(d.pending, key)
	}
}
