package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/chaz8081/goveectl/internal/ble"
	"github.com/chaz8081/goveectl/internal/config"
	"github.com/chaz8081/goveectl/internal/dispatch"
	"github.com/chaz8081/goveectl/internal/light"
)

// newAdapter opens the system Bluetooth adapter. Tests replace it.
var newAdapter = func() ble.Adapter { return ble.NewTinygoAdapter() }

// closeTimeout bounds how long shutdown waits for queued transactions.
const closeTimeout = 30 * time.Second

// loadConfig loads the config from --config, or falls back to the default
// config path, or uses built-in defaults. Flag overrides are applied last.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := o.readConfig()
	if err != nil {
		return nil, err
	}

	if o.address != "" {
		cfg.Device.Address = o.address
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if o.timeout > 0 {
		cfg.Device.ConnectTimeout = o.timeout
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func (o *rootOptions) readConfig() (*config.Config, error) {
	if o.configPath != "" {
		return config.Load(o.configPath)
	}

	defaultPath := config.DefaultConfigPath()
	if _, err := os.Stat(defaultPath); err == nil {
		cfg, err := config.Load(defaultPath)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", defaultPath, err)
		}
		slog.Debug("config loaded", "path", defaultPath)
		return cfg, nil
	}

	slog.Debug("no config file found, using defaults")
	return config.Default(), nil
}

// setupLogging routes slog output to w at the configured level.
func setupLogging(w io.Writer, level string) {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: config.ParseLogLevel(level)})
	slog.SetDefault(slog.New(handler))
}

// session wires the adapter, transactor, dispatcher and light controller
// for one command invocation.
type session struct {
	cfg        *config.Config
	adapter    ble.Adapter
	dispatcher *dispatch.Dispatcher
	light      *light.Controller
	out        *statusPrinter

	stdin    io.Reader
	lines    chan string
	quit     chan struct{}
	readOnce sync.Once
}

func openSession(cmd *cobra.Command, opts *rootOptions) (*session, error) {
	cfg, err := opts.loadConfig()
	if err != nil {
		return nil, err
	}
	setupLogging(cmd.ErrOrStderr(), cfg.LogLevel)

	// All arguments validated
	cmd.SilenceUsage = true

	out := newStatusPrinter(cmd.OutOrStdout())
	adapter := newAdapter()
	tx := ble.NewTransactor(adapter, ble.TransactionOptions{ConnectTimeout: cfg.Device.ConnectTimeout})
	d := dispatch.New(tx, dispatch.Options{
		QueueSize:   cfg.Dispatch.QueueSize,
		MinInterval: cfg.Dispatch.MinInterval,
	})

	ctrl := light.New(d, cfg.Device.Address, light.Options{
		Quiet:  cfg.Debounce.QuietPeriod,
		Status: out.Status,
		OnDeviceNotFound: func(addr string) {
			out.Hintf("Device %s not found. Make sure it is powered on and in range, or run 'goveectl scan'.", addr)
		},
	})

	slog.Debug("session ready", "address", cfg.Device.Address, "timeout", cfg.Device.ConnectTimeout)
	return &session{
		cfg:        cfg,
		adapter:    adapter,
		dispatcher: d,
		light:      ctrl,
		out:        out,
		stdin:      cmd.InOrStdin(),
		quit:       make(chan struct{}),
	}, nil
}

// Close sends pending debounced changes, waits for every queued transaction
// and stops the dispatcher.
func (s *session) Close() {
	close(s.quit)
	slog.Debug("closing session", "queued", s.dispatcher.Pending())
	s.light.Flush()
	s.light.Wait()
	s.light.Close()

	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	if err := s.dispatcher.Close(ctx); err != nil {
		slog.Warn("dispatcher did not drain", "error", err)
	}
}

// readLine returns the next trimmed line of stdin. It returns io.EOF at the
// end of input and ctx.Err() if ctx is done first, so Ctrl+C interrupts a
// prompt.
func (s *session) readLine(ctx context.Context) (string, error) {
	s.readOnce.Do(s.startReader)
	select {
	case line, ok := <-s.lines:
		if !ok {
			return "", io.EOF
		}
		return strings.TrimSpace(line), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// startReader feeds stdin to s.lines from its own goroutine. A blocked
// Read cannot be interrupted; the goroutine is left parked on it and exits
// with the process.
func (s *session) startReader() {
	lines := make(chan string)
	s.lines = lines
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(s.stdin)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-s.quit:
				return
			}
		}
		if err := sc.Err(); err != nil {
			slog.Debug("reading stdin", "error", err)
		}
	}()
}

// await waits for one operation's final result.
func await(ctx context.Context, ch <-chan ble.Result) (ble.Result, error) {
	select {
	case res := <-ch:
		return res, nil
	case <-ctx.Done():
		return ble.Result{}, ctx.Err()
	}
}

// resultError turns a failed result into the command's exit error.
func resultError(res ble.Result) error {
	if res.Success {
		return nil
	}
	if res.Err != nil {
		return res.Err
	}
	return fmt.Errorf("command failed: %s", res.Kind)
}
