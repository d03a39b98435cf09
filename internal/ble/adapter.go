// Package ble talks to Govee lights over Bluetooth Low Energy. It owns the
// one-shot connect, write, disconnect transaction and the error taxonomy
// callers use to decide what to do when a light cannot be reached.
package ble

import "context"

// Govee BLE UUIDs
const (
	ServiceUUID     = "00010203-0405-0607-0809-0a0b0c0d1910"
	ControlCharUUID = "00010203-0405-0607-0809-0a0b0c0d2b11"
)

// DefaultAddress is used when no address is configured.
const DefaultAddress = "A4:C1:38:D3:81:44"

// Characteristic represents a BLE GATT characteristic.
type Characteristic interface {
	// Write sends data without waiting for a peripheral acknowledgment.
	Write(data []byte) error
}

// Device represents a discovered BLE peripheral.
type Device struct {
	Name string // empty when the peripheral does not advertise one
	MAC  string
	RSSI int
}

// Connection represents an active BLE connection to a peripheral.
type Connection interface {
	// DiscoverCharacteristic finds a characteristic by UUID within a service.
	DiscoverCharacteristic(serviceUUID, charUUID string) (Characteristic, error)
	// Disconnect terminates the connection.
	Disconnect() error
}

// Adapter abstracts the BLE hardware adapter for testing.
type Adapter interface {
	// Enable powers on the BLE adapter.
	Enable() error
	// Scan discovers BLE peripherals. An empty serviceUUID matches every
	// advertisement. Returns discovered devices once ctx is done.
	Scan(ctx context.Context, serviceUUID string) ([]Device, error)
	// Connect establishes a connection to the device with the given address.
	// Implementations return an error wrapping ErrDeviceNotFound when the
	// peripheral is unknown to the stack.
	Connect(ctx context.Context, addr string) (Connection, error)
}
