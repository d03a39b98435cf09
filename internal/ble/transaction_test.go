package ble

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/chaz8081/goveectl/internal/ble/protocol"
)

func TestTransactorWritesPacket(t *testing.T) {
	adapter := newMockAdapter(nil)
	tx := NewTransactor(adapter, DefaultTransactionOptions())

	pkt := protocol.Power(true)
	res := tx.Execute(context.Background(), "A4:C1:38:D3:81:44", pkt)
	if !res.Success {
		t.Fatalf("Execute() = %+v, want success", res)
	}
	if res.Kind != KindNone {
		t.Errorf("Kind = %v, want None", res.Kind)
	}

	conn := adapter.latestConnection()
	writes := conn.control.Writes()
	if len(writes) != 1 {
		t.Fatalf("got %d writes, want exactly 1", len(writes))
	}
	if !bytes.Equal(writes[0], pkt[:]) {
		t.Errorf("write = %x, want %x", writes[0], pkt[:])
	}
	if !conn.Disconnected() {
		t.Error("connection should be closed after a successful write")
	}
}

func TestTransactorEnablesOnce(t *testing.T) {
	adapter := newMockAdapter(nil)
	tx := NewTransactor(adapter, DefaultTransactionOptions())

	for i := 0; i < 3; i++ {
		tx.Execute(context.Background(), "AA:BB:CC:DD:EE:FF", protocol.Power(false))
	}
	if adapter.enables != 1 {
		t.Errorf("Enable() called %d times, want 1", adapter.enables)
	}
}

func TestTransactorEnableFailureIsRetried(t *testing.T) {
	adapter := newMockAdapter(nil)
	adapter.enableErr = errors.New("powered off")
	tx := NewTransactor(adapter, DefaultTransactionOptions())

	res := tx.Execute(context.Background(), "AA:BB:CC:DD:EE:FF", protocol.Power(true))
	if res.Success || res.Kind != KindTransport {
		t.Fatalf("Execute() = %+v, want TransportError", res)
	}

	adapter.enableErr = nil
	res = tx.Execute(context.Background(), "AA:BB:CC:DD:EE:FF", protocol.Power(true))
	if !res.Success {
		t.Fatalf("Execute() after enable recovered = %+v, want success", res)
	}
}

func TestTransactorConnectTimeoutIsDeviceNotFound(t *testing.T) {
	adapter := newMockAdapter(nil)
	adapter.blockConnect = true
	tx := NewTransactor(adapter, TransactionOptions{ConnectTimeout: 20 * time.Millisecond})

	start := time.Now()
	res := tx.Execute(context.Background(), "AA:BB:CC:DD:EE:FF", protocol.Power(true))
	if res.Success {
		t.Fatal("Execute() succeeded, want failure")
	}
	if res.Kind != KindDeviceNotFound {
		t.Errorf("Kind = %v, want DeviceNotFound", res.Kind)
	}
	if !errors.Is(res.Err, ErrDeviceNotFound) {
		t.Errorf("errors.Is(%v, ErrDeviceNotFound) = false", res.Err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Execute() took %v, timeout not honored", elapsed)
	}
}

func TestTransactorConnectErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"unknown device", ErrDeviceNotFound, KindDeviceNotFound},
		{"wrapped unknown device", errors.Join(errors.New("bluez"), ErrDeviceNotFound), KindDeviceNotFound},
		{"link failure", errors.New("le-connection-abort-by-local"), KindTransport},
		{"cancelled", context.Canceled, KindUnexpected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter := newMockAdapter(nil)
			adapter.connectErr = tt.err
			tx := NewTransactor(adapter, DefaultTransactionOptions())

			res := tx.Execute(context.Background(), "AA:BB:CC:DD:EE:FF", protocol.Power(true))
			if res.Success {
				t.Fatal("Execute() succeeded, want failure")
			}
			if res.Kind != tt.want {
				t.Errorf("Kind = %v, want %v", res.Kind, tt.want)
			}
		})
	}
}

func TestTransactorDisconnectsOnFailure(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(*mockConnection)
		wantOp  string
	}{
		{
			name:    "discover fails",
			prepare: func(c *mockConnection) { c.discoverErr = errors.New("service missing") },
			wantOp:  "discover",
		},
		{
			name:    "write fails",
			prepare: func(c *mockConnection) { c.control.writeErr = errors.New("att error") },
			wantOp:  "write",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter := newMockAdapter(nil)
			adapter.prepare = tt.prepare
			tx := NewTransactor(adapter, DefaultTransactionOptions())

			res := tx.Execute(context.Background(), "AA:BB:CC:DD:EE:FF", protocol.Brightness(10))
			if res.Success || res.Kind != KindTransport {
				t.Fatalf("Execute() = %+v, want TransportError", res)
			}
			var bleErr *Error
			if !errors.As(res.Err, &bleErr) || bleErr.Op != tt.wantOp {
				t.Errorf("error = %v, want op %q", res.Err, tt.wantOp)
			}
			if !adapter.latestConnection().Disconnected() {
				t.Error("connection should be closed on failure")
			}
		})
	}
}

func TestTransactorSingleConnectAttempt(t *testing.T) {
	adapter := newMockAdapter(nil)
	adapter.connectErr = errors.New("radio busy")
	tx := NewTransactor(adapter, DefaultTransactionOptions())

	tx.Execute(context.Background(), "AA:BB:CC:DD:EE:FF", protocol.Power(true))
	if adapter.connects != 1 {
		t.Errorf("Connect() called %d times, want 1 (no retries)", adapter.connects)
	}
}
