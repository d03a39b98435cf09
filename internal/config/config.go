package config

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mcuadros/go-defaults"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Device    DeviceConfig   `yaml:"device"`
	Scan      ScanConfig     `yaml:"scan"`
	Dispatch  DispatchConfig `yaml:"dispatch"`
	Debounce  DebounceConfig `yaml:"debounce"`
	Hotkeys   HotkeyConfig   `yaml:"hotkeys"`
	PresetDir string         `yaml:"preset_dir" default:"~/.config/goveectl/presets"`
	LogLevel  string         `yaml:"log_level" default:"info"`
}

// DeviceConfig identifies the light and how long to wait for it.
type DeviceConfig struct {
	Address        string        `yaml:"address" default:"A4:C1:38:D3:81:44"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" default:"10s"`
}

// ScanConfig holds discovery settings.
type ScanConfig struct {
	Timeout     time.Duration `yaml:"timeout" default:"5s"`
	ServiceUUID string        `yaml:"service_uuid"` // empty: report every device
}

// DispatchConfig sizes the command queue.
type DispatchConfig struct {
	QueueSize   int           `yaml:"queue_size" default:"64"`
	MinInterval time.Duration `yaml:"min_interval" default:"0s"` // spacing between transactions
}

// DebounceConfig holds slider settings.
type DebounceConfig struct {
	QuietPeriod time.Duration `yaml:"quiet_period" default:"200ms"`
}

// HotkeyConfig holds the global key combos used by "goveectl hotkeys".
type HotkeyConfig struct {
	Toggle         []string `yaml:"toggle"`
	BrightnessUp   []string `yaml:"brightness_up"`
	BrightnessDown []string `yaml:"brightness_down"`
	NextScene      []string `yaml:"next_scene"`
	BrightnessStep int      `yaml:"brightness_step" default:"16"`
}

// DefaultConfigDir returns the default config directory path.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "goveectl")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// Default returns a Config with sensible default values.
func Default() *Config {
	cfg := defaultFileConfig()
	cfg.PresetDir = expandTilde(cfg.PresetDir)
	return cfg
}

// Load reads and parses a YAML config file. Missing fields are filled
// with defaults. Tilde (~) in preset_dir is expanded to the user's home directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.PresetDir = expandTilde(cfg.PresetDir)

	return cfg, nil
}

// Validate checks the config for invalid values.
func (c *Config) Validate() error {
	if c.Device.Address == "" {
		return fmt.Errorf("device.address must not be empty")
	}
	if _, err := net.ParseMAC(c.Device.Address); err != nil && !isPlatformID(c.Device.Address) {
		return fmt.Errorf("device.address must be a MAC address or device UUID, got %q", c.Device.Address)
	}

	if c.Device.ConnectTimeout <= 0 {
		return fmt.Errorf("device.connect_timeout must be > 0")
	}

	if c.Scan.Timeout <= 0 {
		return fmt.Errorf("scan.timeout must be > 0")
	}

	if c.Scan.ServiceUUID != "" {
		if _, err := uuid.Parse(c.Scan.ServiceUUID); err != nil {
			return fmt.Errorf("scan.service_uuid is not a valid UUID: %w", err)
		}
	}

	if c.Dispatch.QueueSize <= 0 {
		return fmt.Errorf("dispatch.queue_size must be > 0")
	}

	if c.Dispatch.MinInterval < 0 {
		return fmt.Errorf("dispatch.min_interval must be >= 0")
	}

	if c.Debounce.QuietPeriod <= 0 {
		return fmt.Errorf("debounce.quiet_period must be > 0")
	}

	if len(c.Hotkeys.Toggle) == 0 || len(c.Hotkeys.BrightnessUp) == 0 ||
		len(c.Hotkeys.BrightnessDown) == 0 || len(c.Hotkeys.NextScene) == 0 {
		return fmt.Errorf("hotkeys: every action needs at least one key")
	}

	if c.Hotkeys.BrightnessStep < 1 || c.Hotkeys.BrightnessStep > 255 {
		return fmt.Errorf("hotkeys.brightness_step must be between 1 and 255")
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn, or error, got %q", c.LogLevel)
	}

	return nil
}

// isPlatformID reports whether addr is a CoreBluetooth peripheral UUID,
// which macOS uses in place of MAC addresses.
func isPlatformID(addr string) bool {
	_, err := uuid.Parse(addr)
	return err == nil
}

// ParseLogLevel maps a config log level to slog. Unknown values mean info.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

const defaultConfigHeader = `# goveectl configuration
#
# device.address is the light's MAC address (a CoreBluetooth UUID on macOS).
# Run "goveectl scan" to find it.
`

// WriteDefault writes the default config to DefaultConfigPath. It returns the
// path written, or "" if a config file already exists.
func WriteDefault() (string, error) {
	path := DefaultConfigPath()
	if _, err := os.Stat(path); err == nil {
		return "", nil
	}

	data, err := yaml.Marshal(defaultFileConfig())
	if err != nil {
		return "", fmt.Errorf("encoding default config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}
	content := append([]byte(defaultConfigHeader+"\n"), data...)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("writing config file: %w", err)
	}
	return path, nil
}

// defaultFileConfig is Default with preset_dir left unexpanded, so the
// written file stays portable across home directories.
func defaultFileConfig() *Config {
	cfg := &Config{}
	defaults.SetDefaults(cfg)
	cfg.Hotkeys.Toggle = []string{"ctrl", "shift", "l"}
	cfg.Hotkeys.BrightnessUp = []string{"ctrl", "shift", "up"}
	cfg.Hotkeys.BrightnessDown = []string{"ctrl", "shift", "down"}
	cfg.Hotkeys.NextScene = []string{"ctrl", "shift", "s"}
	return cfg
}

// expandTilde replaces a leading ~ with the user's home directory.
func expandTilde(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
