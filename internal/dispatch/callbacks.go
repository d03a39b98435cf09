package dispatch

import (
	"log/slog"
	"sync"
)

// callbackQueue runs completion callbacks one at a time, in push order, on
// its own goroutine. push never blocks, so a slow callback cannot stall the
// worker and a callback may submit more work without deadlocking.
type callbackQueue struct {
	mu      sync.Mutex
	cond    *sync.Cond
	pending []func()
	closed  bool
	done    chan struct{}
}

func newCallbackQueue() *callbackQueue {
	q := &callbackQueue{done: make(chan struct{})}
	q.cond = sync.NewCond(&q.mu)
	go q.loop()
	return q
}

func (q *callbackQueue) push(fn func()) {
	q.mu.Lock()
	q.pending = append(q.pending, fn)
	q.mu.Unlock()
	q.cond.Signal()
}

// close runs what is pending and waits for the loop to exit.
func (q *callbackQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.cond.Broadcast()
	<-q.done
}

func (q *callbackQueue) loop() {
	defer close(q.done)
	for {
		q.mu.Lock()
		for len(q.pending) == 0 && !q.closed {
			q.cond.Wait()
		}
		if len(q.pending) == 0 {
			q.mu.Unlock()
			return
		}
		fn := q.pending[0]
		q.pending[0] = nil
		q.pending = q.pending[1:]
		q.mu.Unlock()

		call(fn)
	}
}

func call(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("[DISPATCH] result callback panicked", "panic", r)
		}
	}()
	fn()
}
