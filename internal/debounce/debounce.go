// Package debounce coalesces bursts of value changes per key.
package debounce

import (
	"sync"
	"time"
)

// DefaultQuiet is the quiet period used for slider-style controls.
const DefaultQuiet = 200 * time.Millisecond

// entry is the pending state for one key.
type entry[V any] struct {
	value V
	timer *time.Timer
	gen   uint64 // identifies the timer allowed to fire this entry
}

// Debouncer delays fire(key, value) until key has seen no Trigger for the
// quiet period, then fires once with the last value. Keys are independent.
type Debouncer[K comparable, V any] struct {
	quiet time.Duration
	fire  func(K, V)

	mu      sync.Mutex
	idle    *sync.Cond // signalled when firing drops to zero
	pending map[K]*entry[V]
	firing  int // timer fires that left pending but have not returned
	gen     uint64
	stopped bool
}

// New creates a Debouncer. A non-positive quiet uses DefaultQuiet.
func New[K comparable, V any](quiet time.Duration, fire func(K, V)) *Debouncer[K, V] {
	if quiet <= 0 {
		quiet = DefaultQuiet
	}
	d := &Debouncer[K, V]{
		quiet:   quiet,
		fire:    fire,
		pending: make(map[K]*entry[V]),
	}
	d.idle = sync.NewCond(&d.mu)
	return d
}

// Trigger records value as the latest for key and restarts key's timer.
// Triggers after Stop are ignored.
func (d *Debouncer[K, V]) Trigger(key K, value V) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	e, ok := d.pending[key]
	if ok {
		e.timer.Stop()
	} else {
		e = &entry[V]{}
		d.pending[key] = e
	}

	d.gen++
	gen := d.gen
	e.value = value
	e.gen = gen
	e.timer = time.AfterFunc(d.quiet, func() {
		d.expire(key, gen)
	})
}

// expire fires key if gen still names its current timer. A timer that
// lost the race with a newer Trigger, Cancel or Flush does nothing.
func (d *Debouncer[K, V]) expire(key K, gen uint64) {
	d.mu.Lock()
	e, ok := d.pending[key]
	if !ok || e.gen != gen {
		d.mu.Unlock()
		return
	}
	delete(d.pending, key)
	value := e.value
	d.firing++
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		d.firing--
		if d.firing == 0 {
			d.idle.Broadcast()
		}
		d.mu.Unlock()
	}()
	d.fire(key, value)
}

// Pending returns the value waiting to fire for key, if any.
func (d *Debouncer[K, V]) Pending(key K) (V, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, ok := d.pending[key]
	if !ok {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Cancel drops key's pending value without firing. It reports whether a
// value was pending.
func (d *Debouncer[K, V]) Cancel(key K) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, ok := d.pending[key]
	if !ok {
		return false
	}
	e.timer.Stop()
	delete(d.pending, key)
	return true
}

// Flush fires every pending key immediately, on the calling goroutine. It
// returns only after any timer fire already under way has returned too, so
// nothing fired before Flush is still in progress afterwards. fire must not
// call Flush.
func (d *Debouncer[K, V]) Flush() {
	type firing struct {
		key   K
		value V
	}

	d.mu.Lock()
	due := make([]firing, 0, len(d.pending))
	for key, e := range d.pending {
		e.timer.Stop()
		due = append(due, firing{key, e.value})
	}
	clear(d.pending)
	d.mu.Unlock()

	for _, f := range due {
		d.fire(f.key, f.value)
	}

	d.mu.Lock()
	for d.firing > 0 {
		d.idle.Wait()
	}
	d.mu.Unlock()
}

// Stop cancels every pending key and ignores later Triggers.
func (d *Debouncer[K, V]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	for _, e := range d.pending {
		e.timer.Stop()
	}
	clear(d.pending)
}
