package ble

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// ScanForDevices scans for BLE peripherals for up to timeout. An empty
// serviceUUID lists everything in range; many Govee lights do not advertise
// their control service, so that is the usual choice. Results are ordered
// strongest signal first.
func ScanForDevices(ctx context.Context, adapter Adapter, serviceUUID string, timeout time.Duration) ([]Device, error) {
	if err := adapter.Enable(); err != nil {
		return nil, fmt.Errorf("ble: enable adapter: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	devices, err := adapter.Scan(ctx, serviceUUID)
	if err != nil {
		return nil, fmt.Errorf("ble: scan: %w", err)
	}

	sort.SliceStable(devices, func(i, j int) bool {
		return devices[i].RSSI > devices[j].RSSI
	})
	return devices, nil
}

// DisplayName returns the advertised name or "Unknown".
func (d Device) DisplayName() string {
	if d.Name == "" {
		return "Unknown"
	}
	return d.Name
}
