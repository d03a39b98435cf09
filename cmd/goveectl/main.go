package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var version = "dev"

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	configPath string
	address    string
	logLevel   string
	timeout    time.Duration
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "goveectl",
		Short: "Control Govee Bluetooth lights",
		Long: `Control a Govee Bluetooth LE light from the command line.

Every command opens a short connection, writes one 20-byte control packet
and disconnects. Commands run one at a time in the order they were issued.

Examples:
  goveectl scan --select
  goveectl on
  goveectl color '#ff8800'
  goveectl brightness 128
  goveectl scene rainbow
  goveectl preset apply evening
  goveectl hotkeys`,
		Version:       version,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "path to config file (default: ~/.config/goveectl/config.yaml)")
	pf.StringVar(&opts.address, "address", "", "light address, overrides device.address")
	pf.StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error), overrides log_level")
	pf.DurationVar(&opts.timeout, "timeout", 0, "connect timeout, overrides device.connect_timeout")

	cmd.AddCommand(
		newPowerCmd(opts, true),
		newPowerCmd(opts, false),
		newScanCmd(opts),
		newBrightnessCmd(opts),
		newColorCmd(opts),
		newSceneCmd(opts),
		newScenesCmd(),
		newPresetCmd(opts),
		newAdjustCmd(opts),
		newHotkeysCmd(opts),
		newRawCmd(opts),
		newConfigCmd(),
	)
	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		// Ctrl+C is a normal exit
		if errors.Is(err, context.Canceled) {
			return
		}
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err)
		stop()
		os.Exit(1)
	}
}
