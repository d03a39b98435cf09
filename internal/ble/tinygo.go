package ble

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"tinygo.org/x/bluetooth"
)

// TinygoAdapter wraps tinygo-org/bluetooth (BlueZ on Linux, CoreBluetooth
// on macOS, WinRT on Windows). On macOS, peripheral addresses are
// CoreBluetooth UUIDs rather than MAC addresses; Device.MAC carries
// whichever form the platform uses.
type TinygoAdapter struct {
	adapter *bluetooth.Adapter

	enableMu sync.Mutex
	enabled  bool

	// scanMu serializes scans; the stack supports one at a time.
	scanMu sync.Mutex
}

// NewTinygoAdapter creates an adapter backed by the default HCI device.
func NewTinygoAdapter() *TinygoAdapter {
	return &TinygoAdapter{adapter: bluetooth.DefaultAdapter}
}

// Enable powers up the stack. Calls after the first success are no-ops,
// so scanning and transactions can both ask for it.
func (a *TinygoAdapter) Enable() error {
	a.enableMu.Lock()
	defer a.enableMu.Unlock()
	if a.enabled {
		return nil
	}
	if err := a.adapter.Enable(); err != nil {
		return err
	}
	a.enabled = true
	return nil
}

func (a *TinygoAdapter) Scan(ctx context.Context, serviceUUID string) ([]Device, error) {
	var filter *bluetooth.UUID
	if serviceUUID != "" {
		uuid, err := parseUUID("service", serviceUUID)
		if err != nil {
			return nil, err
		}
		filter = &uuid
	}

	a.scanMu.Lock()
	defer a.scanMu.Unlock()

	var mu sync.Mutex
	var devices []Device
	seen := make(map[string]int)

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			if err := a.adapter.StopScan(); err != nil {
				slog.Debug("[BLE] stop scan", "error", err)
			}
		case <-done:
		}
	}()

	err := a.adapter.Scan(func(adapter *bluetooth.Adapter, result bluetooth.ScanResult) {
		if filter != nil && !result.HasServiceUUID(*filter) {
			return
		}
		mac := result.Address.String()
		mu.Lock()
		defer mu.Unlock()
		if i, ok := seen[mac]; ok {
			// Later advertisements may carry the name or a fresher RSSI.
			if devices[i].Name == "" {
				devices[i].Name = result.LocalName()
			}
			devices[i].RSSI = int(result.RSSI)
			return
		}
		seen[mac] = len(devices)
		devices = append(devices, Device{
			Name: result.LocalName(),
			MAC:  mac,
			RSSI: int(result.RSSI),
		})
	})
	close(done)

	if err != nil && ctx.Err() == nil {
		return nil, fmt.Errorf("ble: scan: %w", err)
	}

	mu.Lock()
	defer mu.Unlock()
	return devices, nil
}

func (a *TinygoAdapter) Connect(ctx context.Context, addr string) (Connection, error) {
	var address bluetooth.Address
	address.Set(addr)

	// tinygo/bluetooth's Connect blocks internally with its own timeout.
	// We wrap it to also respect our ctx cancellation.
	type connectResult struct {
		device bluetooth.Device
		err    error
	}
	ch := make(chan connectResult, 1)
	go func() {
		device, err := a.adapter.Connect(address, bluetooth.ConnectionParams{})
		ch <- connectResult{device, err}
	}()

	select {
	case <-ctx.Done():
		// The stack may still complete the connection after we gave up;
		// release it so the next transaction finds the radio idle.
		go func() {
			if result := <-ch; result.err == nil {
				_ = result.device.Disconnect()
			}
		}()
		return nil, fmt.Errorf("ble: connect to %s: %w", addr, ctx.Err())
	case result := <-ch:
		if result.err != nil {
			if isNotFound(result.err) {
				return nil, fmt.Errorf("ble: connect to %s: %w: %v", addr, ErrDeviceNotFound, result.err)
			}
			return nil, fmt.Errorf("ble: connect to %s: %w", addr, result.err)
		}
		return &tinygoConnection{device: result.device}, nil
	}
}

// isNotFound recognizes the stacks' "no such peripheral" errors, which are
// plain strings (D-Bus UnknownObject on BlueZ).
func isNotFound(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not found") ||
		strings.Contains(msg, "unknownobject") ||
		strings.Contains(msg, "does not exist")
}

// Compile-time check that TinygoAdapter implements Adapter.
var _ Adapter = (*TinygoAdapter)(nil)

type tinygoConnection struct {
	device bluetooth.Device
}

// DiscoverCharacteristic finds charUUID under serviceUUID. Govee lights
// expose exactly one of each, so the first match is used.
func (c *tinygoConnection) DiscoverCharacteristic(serviceUUID, charUUID string) (Characteristic, error) {
	svc, err := parseUUID("service", serviceUUID)
	if err != nil {
		return nil, err
	}
	ch, err := parseUUID("characteristic", charUUID)
	if err != nil {
		return nil, err
	}

	svcs, err := c.device.DiscoverServices([]bluetooth.UUID{svc})
	if err != nil || len(svcs) == 0 {
		return nil, fmt.Errorf("ble: control service %s not found: %w", serviceUUID, errOrMissing(err))
	}
	chars, err := svcs[0].DiscoverCharacteristics([]bluetooth.UUID{ch})
	if err != nil || len(chars) == 0 {
		return nil, fmt.Errorf("ble: control characteristic %s not found: %w", charUUID, errOrMissing(err))
	}
	return &tinygoCharacteristic{char: chars[0]}, nil
}

// errMissing stands in for a discovery that succeeded but matched nothing.
var errMissing = errors.New("not advertised by device")

func errOrMissing(err error) error {
	if err != nil {
		return err
	}
	return errMissing
}

// parseUUID parses a service or characteristic UUID, naming which one was
// malformed.
func parseUUID(what, s string) (bluetooth.UUID, error) {
	u, err := bluetooth.ParseUUID(s)
	if err != nil {
		return bluetooth.UUID{}, fmt.Errorf("ble: parse %s UUID %q: %w", what, s, err)
	}
	return u, nil
}

func (c *tinygoConnection) Disconnect() error {
	return c.device.Disconnect()
}

type tinygoCharacteristic struct {
	char bluetooth.DeviceCharacteristic
}

// Write sends one packet. The light never acknowledges, so write without
// response is the only mode it supports.
func (c *tinygoCharacteristic) Write(data []byte) error {
	_, err := c.char.WriteWithoutResponse(data)
	return err
}
