package main

import (
	"context"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/chaz8081/goveectl/internal/ble"
)

func newScanCmd(opts *rootOptions) *cobra.Command {
	var (
		duration time.Duration
		service  string
		selectOn bool
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan for nearby Bluetooth devices",
		Long: `Scans for Bluetooth LE devices and lists them, strongest signal first.

With --select, prompts for a device number and an on/off command and sends
it to the chosen device.

Examples:
  goveectl scan
  goveectl scan --duration 10s
  goveectl scan --service 00010203-0405-0607-0809-0a0b0c0d1910
  goveectl scan --select`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			if duration <= 0 {
				duration = s.cfg.Scan.Timeout
			}
			if !cmd.Flags().Changed("service") {
				service = s.cfg.Scan.ServiceUUID
			}

			devices, err := s.scan(cmd, service, duration)
			if err != nil {
				return err
			}
			if !selectOn || len(devices) == 0 {
				return nil
			}
			return s.selectAndControl(cmd, devices)
		},
	}

	cmd.Flags().DurationVar(&duration, "duration", 0, "scan duration (default: scan.timeout)")
	cmd.Flags().StringVar(&service, "service", "", "only list devices advertising this service UUID")
	cmd.Flags().BoolVar(&selectOn, "select", false, "pick a device and turn it on or off")
	return cmd
}

// scan lists nearby devices on the session's output.
func (s *session) scan(cmd *cobra.Command, service string, duration time.Duration) ([]ble.Device, error) {
	s.out.Printf("Scanning for BLE devices (timeout: %s)...\n", duration)
	devices, err := ble.ScanForDevices(cmd.Context(), s.adapter, service, duration)
	if err != nil {
		return nil, err
	}

	if len(devices) == 0 {
		s.out.Printf("No BLE devices found.\n")
		return nil, nil
	}

	s.out.Printf("Found %d BLE devices:\n", len(devices))
	for i, d := range devices {
		s.out.Printf("%d. %s - %s (RSSI %d)\n", i+1, d.MAC, d.DisplayName(), d.RSSI)
	}
	return devices, nil
}

// selectAndControl reads a device number and an on/off command from stdin
// and sends it. Running out of input cancels quietly.
func (s *session) selectAndControl(cmd *cobra.Command, devices []ble.Device) error {
	for {
		s.out.Printf("\nEnter the number of the device to control, or 0 to cancel:\n")
		line, err := s.readLine(cmd.Context())
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		choice, err := strconv.Atoi(line)
		if err != nil {
			s.out.Printf("Please enter a number.\n")
			continue
		}
		if choice == 0 {
			return nil
		}
		if choice < 1 || choice > len(devices) {
			s.out.Printf("Invalid selection.\n")
			continue
		}

		selected := devices[choice-1]
		s.out.Printf("Selected: %s - %s\n", selected.MAC, selected.DisplayName())

		s.out.Printf("Enter command (on/off):\n")
		action, err := s.readLine(cmd.Context())
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		switch strings.ToLower(action) {
		case "on", "off":
			s.light.SetAddress(selected.MAC)
			return s.power(cmd, strings.EqualFold(action, "on"))
		default:
			s.out.Printf("Invalid command. Use 'on' or 'off'.\n")
		}
	}
}

// confirm asks a yes/no question on stdin. End of input means no.
func (s *session) confirm(ctx context.Context, question string) (bool, error) {
	s.out.Printf("%s (y/n)\n", question)
	line, err := s.readLine(ctx)
	if errors.Is(err, io.EOF) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return strings.EqualFold(line, "y"), nil
}
