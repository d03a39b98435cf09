package main

import (
	"github.com/spf13/cobra"

	"github.com/chaz8081/goveectl/internal/ble"
)

func newPowerCmd(opts *rootOptions, on bool) *cobra.Command {
	use, short := "off", "Turn the light off"
	if on {
		use, short = "on", "Turn the light on"
	}
	var scanOnMiss bool

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			err = s.power(cmd, on)
			if err == nil || ble.Classify(err) != ble.KindDeviceNotFound {
				return err
			}

			if !scanOnMiss {
				yes, confirmErr := s.confirm(cmd.Context(), "Would you like to scan for available devices?")
				if confirmErr != nil {
					return confirmErr
				}
				if !yes {
					return err
				}
			}
			devices, scanErr := s.scan(cmd, s.cfg.Scan.ServiceUUID, s.cfg.Scan.Timeout)
			if scanErr != nil {
				return scanErr
			}
			if len(devices) == 0 {
				return err
			}
			return s.selectAndControl(cmd, devices)
		},
	}

	cmd.Flags().BoolVar(&scanOnMiss, "scan-on-miss", false, "scan and pick another device if the light is not found")
	return cmd
}

// power sends one on/off command and waits for it.
func (s *session) power(cmd *cobra.Command, on bool) error {
	var ch <-chan ble.Result
	if on {
		ch = s.light.TurnOn()
	} else {
		ch = s.light.TurnOff()
	}
	res, err := await(cmd.Context(), ch)
	if err != nil {
		return err
	}
	return resultError(res)
}
