package watcher

import (
	"sync"
	"time"
)

// Debouncer delays a call per key; a new call for the same key within the
// delay replaces the pending one.
type Debouncer struct {
	duration time.Duration
	pending  map[string]*debounced
	mu       sync.Mutex
	wg       sync.WaitGroup
}

type debounced struct {
	timer *time.Timer
	fn    func()
}

func NewDebouncer(duration time.Duration) *Debouncer {
	return &Debouncer{
		duration: duration,
		pending:  make(map[string]*debounced),
	}
}

func (d *Debouncer) Debounce(key string, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if prev, exists := d.pending[key]; exists && prev.timer.Stop() {
		d.wg.Done()
	}

	call := &debounced{fn: fn}
	d.wg.Add(1)
	call.timer = time.AfterFunc(d.duration, func() {
		d.fire(key, call)
	})
	d.pending[key] = call
}

func (d *Debouncer) fire(key string, call *debounced) {
	defer d.wg.Done()

	d.mu.Lock()
	if d.pending[key] == call {
		delete(d.pending, key)
	}
	d.mu.Unlock()

	call.fn()
}

// Wait blocks until every scheduled call has run.
func (d *Debouncer) Wait() {
	d.wg.Wait()
}
