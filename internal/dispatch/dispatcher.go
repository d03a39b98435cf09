// Package dispatch serializes BLE transactions onto a single worker.
//
// Any number of goroutines may submit packets. They are executed one at a
// time, in the order they were enqueued, by the only goroutine allowed to
// touch the radio. Results come back through a Handle, a completion
// callback, or both.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/chaz8081/goveectl/internal/ble"
	"github.com/chaz8081/goveectl/internal/ble/protocol"
)

// ErrClosed is reported for work submitted after Close.
var ErrClosed = errors.New("dispatch: dispatcher closed")

// Executor runs one transaction to completion.
type Executor interface {
	Execute(ctx context.Context, addr string, pkt protocol.Packet) ble.Result
}

// Options configures a Dispatcher.
type Options struct {
	QueueSize   int           // max queued transactions before Submit blocks
	MinInterval time.Duration // minimum spacing between transaction starts; 0 disables pacing

	// Deliver runs completion callbacks on the caller's context, for example
	// by posting them to a UI event loop. It is called from the worker and
	// must not block. When nil, callbacks run in completion order on a
	// delivery goroutine owned by the Dispatcher.
	Deliver func(fn func())
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{QueueSize: 64}
}

// Dispatcher owns the transaction queue and the worker draining it.
type Dispatcher struct {
	exec    Executor
	opts    Options
	limiter *rate.Limiter

	// mu orders sends on queue against its close.
	mu     sync.RWMutex
	closed bool
	queue  chan *Handle

	callbacks *callbackQueue
	done      chan struct{}
}

// New starts a Dispatcher whose worker runs transactions through exec.
func New(exec Executor, opts Options) *Dispatcher {
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultOptions().QueueSize
	}
	d := &Dispatcher{
		exec:  exec,
		opts:  opts,
		queue: make(chan *Handle, opts.QueueSize),
		done:  make(chan struct{}),
	}
	if opts.MinInterval > 0 {
		d.limiter = rate.NewLimiter(rate.Every(opts.MinInterval), 1)
	}
	if opts.Deliver == nil {
		d.callbacks = newCallbackQueue()
	}
	go d.run()
	return d
}

// Submit enqueues pkt for addr and returns a handle for its result. It
// blocks while the queue is full. Safe for concurrent use.
func (d *Dispatcher) Submit(addr string, pkt protocol.Packet) *Handle {
	return d.Send(addr, pkt, nil)
}

// Send is Submit with a completion callback. done, when non-nil, is called
// exactly once with the transaction's result. If the dispatcher is already
// closed, done is called before Send returns.
func (d *Dispatcher) Send(addr string, pkt protocol.Packet, done func(ble.Result)) *Handle {
	h := newHandle(addr, pkt, done)

	d.mu.RLock()
	if d.closed {
		d.mu.RUnlock()
		res := ble.Failed(ErrClosed)
		h.resolve(res)
		if done != nil {
			done(res)
		}
		return h
	}
	d.queue <- h
	d.mu.RUnlock()

	slog.Debug("[DISPATCH] queued", "id", h.ID, "addr", addr, "opcode", fmt.Sprintf("0x%02x", pkt.Opcode()))
	return h
}

// Pending returns the number of queued transactions not yet started.
func (d *Dispatcher) Pending() int {
	return len(d.queue)
}

// Close stops accepting work, lets the worker finish everything already
// queued, and waits for outstanding callbacks. It returns ctx.Err() if ctx
// ends first; the worker keeps draining in the background.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run is the worker. It is the only goroutine that calls the Executor.
func (d *Dispatcher) run() {
	defer close(d.done)

	for h := range d.queue {
		if d.limiter != nil {
			// Background never ends, so Wait only fails on a zero burst.
			_ = d.limiter.Wait(context.Background())
		}

		res := d.execute(h)
		h.resolve(res)
		if h.callback != nil {
			cb := h.callback
			d.deliver(func() { cb(res) })
		}
	}

	if d.callbacks != nil {
		d.callbacks.close()
	}
	slog.Debug("[DISPATCH] worker stopped")
}

// execute runs one transaction, converting a panic into an Unexpected
// result so the queue keeps moving.
func (d *Dispatcher) execute(h *Handle) (res ble.Result) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			slog.Error("[DISPATCH] transaction panicked", "id", h.ID, "addr", h.Addr, "panic", r)
			res = ble.Failed(fmt.Errorf("dispatch: transaction panicked: %v", r))
		}
	}()

	res = d.exec.Execute(context.Background(), h.Addr, h.Packet)

	elapsed := time.Since(start).Round(time.Millisecond)
	if res.Success {
		slog.Debug("[DISPATCH] transaction complete", "id", h.ID, "addr", h.Addr, "elapsed", elapsed)
	} else {
		slog.Warn("[DISPATCH] transaction failed", "id", h.ID, "addr", h.Addr, "kind", res.Kind, "error", res.Err, "elapsed", elapsed)
	}
	return res
}

func (d *Dispatcher) deliver(fn func()) {
	if d.opts.Deliver != nil {
		d.opts.Deliver(fn)
		return
	}
	d.callbacks.push(fn)
}
