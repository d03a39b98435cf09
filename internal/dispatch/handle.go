package dispatch

import (
	"context"

	"github.com/google/uuid"

	"github.com/chaz8081/goveectl/internal/ble"
	"github.com/chaz8081/goveectl/internal/ble/protocol"
)

// Handle tracks one submitted transaction.
type Handle struct {
	ID     uuid.UUID
	Addr   string
	Packet protocol.Packet

	callback func(ble.Result)
	done     chan struct{}
	result   ble.Result
}

func newHandle(addr string, pkt protocol.Packet, callback func(ble.Result)) *Handle {
	return &Handle{
		ID:       uuid.New(),
		Addr:     addr,
		Packet:   pkt,
		callback: callback,
		done:     make(chan struct{}),
	}
}

// resolve records the result. Called once, by the worker or by Send.
func (h *Handle) resolve(res ble.Result) {
	h.result = res
	close(h.done)
}

// Done is closed once the transaction has finished.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Result blocks until the transaction finishes and returns its result.
func (h *Handle) Result() ble.Result {
	<-h.done
	return h.result
}

// Wait is Result bounded by ctx. The transaction itself is not cancelled
// when ctx ends.
func (h *Handle) Wait(ctx context.Context) (ble.Result, error) {
	select {
	case <-h.done:
		return h.result, nil
	case <-ctx.Done():
		return ble.Result{}, ctx.Err()
	}
}
