package client

import (
	"sync"
	"time"
)

// DefaultDebounceWindow collapses bursts of like updates
const DefaultDebounceWindow = 300 * time.Millisecond

// Debouncer gathers keys and hands them to flush one window after the first
// of them arrived. Keys added while the window is open ride along, so a
// steady stream of keys is flushed once per window and never held back.
type Debouncer struct {
	window time.Duration
	flush  func([]Key)

	mu      sync.Mutex
	pending map[Key]struct{}
	timer   *time.Timer
	stopped bool
}

// NewDebouncer creates a Debouncer
func NewDebouncer(window time.Duration, flush func([]Key)) *Debouncer {
	if window <= 0 {
		window = DefaultDebounceWindow
	}
	return &Debouncer{
		window:  window,
		flush:   flush,
		pending: make(map[Key]struct{}),
	}
}

// Add queues keys and opens the window if none is open
func (d *Debouncer) Add(keys ...Key) {
	if len(keys) == 0 {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	for _, k := range keys {
		d.pending[k] = struct{}{}
	}
	if d.timer == nil {
		d.timer = time.AfterFunc(d.window, d.Flush)
	}
}

// Pending reports whether key is waiting for the window to close
func (d *Debouncer) Pending(key Key) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.pending[key]
	return ok
}

// Flush hands every queued key to the flush function now
func (d *Debouncer) Flush() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if len(d.pending) == 0 {
		d.mu.Unlock()
		return
	}
	keys := make([]Key, 0, len(d.pending))
	for k := range d.pending {
		keys = append(keys, k)
	}
	d.pending = make(map[Key]struct{})
	d.mu.Unlock()

	d.flush(keys)
}

// Stop discards queued keys and ignores later ones
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.pending = make(map[Key]struct{})
}
