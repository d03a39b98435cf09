package ble

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestScanForDevices(t *testing.T) {
	devices := []Device{
		{Name: "", MAC: "11:22:33:44:55:66", RSSI: -80},
		{Name: "ihoment_H6159_8144", MAC: "A4:C1:38:D3:81:44", RSSI: -45},
	}
	adapter := newMockAdapter(devices)

	result, err := ScanForDevices(context.Background(), adapter, "", 5*time.Second)
	if err != nil {
		t.Fatalf("ScanForDevices() error = %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("got %d devices, want 2", len(result))
	}
	if result[0].MAC != "A4:C1:38:D3:81:44" {
		t.Errorf("first device = %q, want strongest signal first", result[0].MAC)
	}
	if result[1].DisplayName() != "Unknown" {
		t.Errorf("DisplayName() = %q, want %q", result[1].DisplayName(), "Unknown")
	}
}

func TestScanForDevicesEmpty(t *testing.T) {
	adapter := newMockAdapter(nil)
	result, err := ScanForDevices(context.Background(), adapter, "", 5*time.Second)
	if err != nil {
		t.Fatalf("ScanForDevices() error = %v", err)
	}
	if len(result) != 0 {
		t.Fatalf("got %d devices, want 0", len(result))
	}
}

func TestScanForDevicesEnableError(t *testing.T) {
	adapter := newMockAdapter(nil)
	adapter.enableErr = errors.New("adapter powered off")

	if _, err := ScanForDevices(context.Background(), adapter, "", time.Second); err == nil {
		t.Fatal("expected error when adapter cannot be enabled")
	}
}
