package ble

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/chaz8081/goveectl/internal/ble/protocol"
)

// TransactionOptions configures a Transactor.
type TransactionOptions struct {
	ConnectTimeout time.Duration // bounds the whole connect, write, disconnect cycle
	ServiceUUID    string
	CharUUID       string
}

// DefaultTransactionOptions returns the Govee defaults.
func DefaultTransactionOptions() TransactionOptions {
	return TransactionOptions{
		ConnectTimeout: 10 * time.Second,
		ServiceUUID:    ServiceUUID,
		CharUUID:       ControlCharUUID,
	}
}

// Transactor runs one-shot connect, write, disconnect transactions. It keeps
// no connection between calls and never retries.
type Transactor struct {
	adapter Adapter
	opts    TransactionOptions

	mu      sync.Mutex
	enabled bool
}

// NewTransactor creates a Transactor. Zero option fields take defaults.
func NewTransactor(adapter Adapter, opts TransactionOptions) *Transactor {
	def := DefaultTransactionOptions()
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = def.ConnectTimeout
	}
	if opts.ServiceUUID == "" {
		opts.ServiceUUID = def.ServiceUUID
	}
	if opts.CharUUID == "" {
		opts.CharUUID = def.CharUUID
	}
	return &Transactor{adapter: adapter, opts: opts}
}

// Execute connects to addr, writes pkt to the control characteristic and
// disconnects. Every failure is reported in the Result; Execute never panics
// on adapter errors and always releases the connection it opened.
func (t *Transactor) Execute(ctx context.Context, addr string, pkt protocol.Packet) Result {
	start := time.Now()

	if err := t.enable(); err != nil {
		return Failed(&Error{Kind: KindTransport, Op: "enable", Addr: addr, Err: err})
	}

	ctx, cancel := context.WithTimeout(ctx, t.opts.ConnectTimeout)
	defer cancel()

	slog.Debug("[BLE] connecting", "addr", addr, "timeout", t.opts.ConnectTimeout)
	conn, err := t.adapter.Connect(ctx, addr)
	if err != nil {
		return Failed(&Error{Kind: connectErrorKind(ctx, err), Op: "connect", Addr: addr, Err: err})
	}
	defer func() {
		if err := conn.Disconnect(); err != nil {
			slog.Warn("[BLE] disconnect failed", "addr", addr, "error", err)
		}
	}()

	char, err := conn.DiscoverCharacteristic(t.opts.ServiceUUID, t.opts.CharUUID)
	if err != nil {
		return Failed(&Error{Kind: KindTransport, Op: "discover", Addr: addr, Err: err})
	}

	if err := char.Write(pkt.Bytes()); err != nil {
		return Failed(&Error{Kind: KindTransport, Op: "write", Addr: addr, Err: err})
	}

	slog.Debug("[BLE] packet written", "addr", addr, "packet", pkt.String(), "elapsed", time.Since(start).Round(time.Millisecond))
	return Succeeded()
}

func (t *Transactor) enable() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.enabled {
		return nil
	}
	if err := t.adapter.Enable(); err != nil {
		return fmt.Errorf("enable adapter: %w", err)
	}
	t.enabled = true
	return nil
}

// connectErrorKind separates "nobody answered" from link failures. A
// connect that runs out the clock is indistinguishable from an absent device.
func connectErrorKind(ctx context.Context, err error) ErrorKind {
	switch {
	case errors.Is(err, ErrDeviceNotFound),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(ctx.Err(), context.DeadlineExceeded):
		return KindDeviceNotFound
	case errors.Is(err, context.Canceled):
		return KindUnexpected
	default:
		return KindTransport
	}
}
