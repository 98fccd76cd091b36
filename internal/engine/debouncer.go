package engine

import (
	"sync"
	"time"
)

// DefaultDebounce is the quiet period before a search term is applied.
const DefaultDebounce = 300 * time.Millisecond

// Debouncer coalesces bursts of search input and emits the last value once
// the input has been quiet for the configured delay.
type Debouncer struct {
	delay time.Duration
	emit  func(string)

	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64
	pending string
	armed   bool
	stopped bool
}

// NewDebouncer creates a debouncer. A non-positive delay uses DefaultDebounce.
func NewDebouncer(delay time.Duration, emit func(string)) *Debouncer {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Debouncer{delay: delay, emit: emit}
}

// Push records term and restarts the quiet period.
func (d *Debouncer) Push(term string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.pending = term
	d.armed = true
	d.timer = time.AfterFunc(d.delay, func() { d.fire(gen) })
}

// Flush emits the pending term immediately, if any.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
	}
	term, ok := d.pending, d.armed && !d.stopped
	d.gen++
	d.armed = false
	d.mu.Unlock()

	if ok {
		d.emit(term)
	}
}

// Stop cancels the pending emission. Later pushes are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	d.armed = false
	if d.timer != nil {
		d.timer.Stop()
	}
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || !d.armed || d.stopped {
		d.mu.Unlock()
		return
	}
	term := d.pending
	d.armed = false
	d.mu.Unlock()

	d.emit(term)
}
