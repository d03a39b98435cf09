package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Device.Address != "A4:C1:38:D3:81:44" {
		t.Errorf("Device.Address = %q, want %q", cfg.Device.Address, "A4:C1:38:D3:81:44")
	}
	if cfg.Device.ConnectTimeout != 10*time.Second {
		t.Errorf("Device.ConnectTimeout = %s, want 10s", cfg.Device.ConnectTimeout)
	}
	if cfg.Scan.Timeout != 5*time.Second {
		t.Errorf("Scan.Timeout = %s, want 5s", cfg.Scan.Timeout)
	}
	if cfg.Scan.ServiceUUID != "" {
		t.Errorf("Scan.ServiceUUID = %q, want empty", cfg.Scan.ServiceUUID)
	}
	if cfg.Dispatch.QueueSize != 64 {
		t.Errorf("Dispatch.QueueSize = %d, want 64", cfg.Dispatch.QueueSize)
	}
	if cfg.Dispatch.MinInterval != 0 {
		t.Errorf("Dispatch.MinInterval = %s, want 0", cfg.Dispatch.MinInterval)
	}
	if cfg.Debounce.QuietPeriod != 200*time.Millisecond {
		t.Errorf("Debounce.QuietPeriod = %s, want 200ms", cfg.Debounce.QuietPeriod)
	}
	if strings.HasPrefix(cfg.PresetDir, "~") {
		t.Errorf("PresetDir = %q, want tilde expanded", cfg.PresetDir)
	}
	if len(cfg.Hotkeys.Toggle) != 3 {
		t.Errorf("Hotkeys.Toggle length = %d, want 3", len(cfg.Hotkeys.Toggle))
	}
	if cfg.Hotkeys.BrightnessStep != 16 {
		t.Errorf("Hotkeys.BrightnessStep = %d, want 16", cfg.Hotkeys.BrightnessStep)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
}

func TestLoad(t *testing.T) {
	yamlContent := `
device:
  address: "11:22:33:44:55:66"
  connect_timeout: 3s
scan:
  timeout: 12s
  service_uuid: "00010203-0405-0607-0809-0a0b0c0d1910"
dispatch:
  queue_size: 8
  min_interval: 50ms
debounce:
  quiet_period: 350ms
hotkeys:
  toggle: ["alt", "l"]
  brightness_step: 32
preset_dir: /tmp/presets
log_level: debug
`
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Device.Address != "11:22:33:44:55:66" {
		t.Errorf("Device.Address = %q, want %q", cfg.Device.Address, "11:22:33:44:55:66")
	}
	if cfg.Device.ConnectTimeout != 3*time.Second {
		t.Errorf("Device.ConnectTimeout = %s, want 3s", cfg.Device.ConnectTimeout)
	}
	if cfg.Scan.Timeout != 12*time.Second {
		t.Errorf("Scan.Timeout = %s, want 12s", cfg.Scan.Timeout)
	}
	if cfg.Scan.ServiceUUID != "00010203-0405-0607-0809-0a0b0c0d1910" {
		t.Errorf("Scan.ServiceUUID = %q", cfg.Scan.ServiceUUID)
	}
	if cfg.Dispatch.QueueSize != 8 {
		t.Errorf("Dispatch.QueueSize = %d, want 8", cfg.Dispatch.QueueSize)
	}
	if cfg.Dispatch.MinInterval != 50*time.Millisecond {
		t.Errorf("Dispatch.MinInterval = %s, want 50ms", cfg.Dispatch.MinInterval)
	}
	if cfg.Debounce.QuietPeriod != 350*time.Millisecond {
		t.Errorf("Debounce.QuietPeriod = %s, want 350ms", cfg.Debounce.QuietPeriod)
	}
	if len(cfg.Hotkeys.Toggle) != 2 || cfg.Hotkeys.Toggle[0] != "alt" || cfg.Hotkeys.Toggle[1] != "l" {
		t.Errorf("Hotkeys.Toggle = %v, want [alt l]", cfg.Hotkeys.Toggle)
	}
	if len(cfg.Hotkeys.NextScene) != 3 {
		t.Errorf("Hotkeys.NextScene = %v, want default", cfg.Hotkeys.NextScene)
	}
	if cfg.Hotkeys.BrightnessStep != 32 {
		t.Errorf("Hotkeys.BrightnessStep = %d, want 32", cfg.Hotkeys.BrightnessStep)
	}
	if cfg.PresetDir != "/tmp/presets" {
		t.Errorf("PresetDir = %q, want %q", cfg.PresetDir, "/tmp/presets")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	yamlContent := `
device:
  address: "11:22:33:44:55:66"
`
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfgPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Device.ConnectTimeout != 10*time.Second {
		t.Errorf("Device.ConnectTimeout = %s, want default 10s", cfg.Device.ConnectTimeout)
	}
	if cfg.Debounce.QuietPeriod != 200*time.Millisecond {
		t.Errorf("Debounce.QuietPeriod = %s, want default 200ms", cfg.Debounce.QuietPeriod)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoadExpandsTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("cannot determine home directory")
	}

	yamlContent := `
preset_dir: ~/lights/presets
`
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	expected := filepath.Join(home, "lights/presets")
	if cfg.PresetDir != expected {
		t.Errorf("PresetDir = %q, want %q", cfg.PresetDir, expected)
	}
}

func TestLoadFileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	if err == nil {
		t.Error("Load() should return error for nonexistent file")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("device: [unclosed"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	if _, err := Load(cfgPath); err == nil {
		t.Error("Load() should return error for invalid YAML")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "macOS peripheral UUID address",
			modify:  func(c *Config) { c.Device.Address = "5B1D7B0E-3F4C-4E8A-9B2D-1C0F6A7E8D90" },
			wantErr: false,
		},
		{
			name:    "empty address",
			modify:  func(c *Config) { c.Device.Address = "" },
			wantErr: true,
		},
		{
			name:    "malformed address",
			modify:  func(c *Config) { c.Device.Address = "not-a-mac" },
			wantErr: true,
		},
		{
			name:    "zero connect timeout",
			modify:  func(c *Config) { c.Device.ConnectTimeout = 0 },
			wantErr: true,
		},
		{
			name:    "zero scan timeout",
			modify:  func(c *Config) { c.Scan.Timeout = 0 },
			wantErr: true,
		},
		{
			name:    "bad service uuid",
			modify:  func(c *Config) { c.Scan.ServiceUUID = "1910" },
			wantErr: true,
		},
		{
			name:    "zero queue size",
			modify:  func(c *Config) { c.Dispatch.QueueSize = 0 },
			wantErr: true,
		},
		{
			name:    "negative min interval",
			modify:  func(c *Config) { c.Dispatch.MinInterval = -time.Second },
			wantErr: true,
		},
		{
			name:    "zero quiet period",
			modify:  func(c *Config) { c.Debounce.QuietPeriod = 0 },
			wantErr: true,
		},
		{
			name:    "empty hotkey",
			modify:  func(c *Config) { c.Hotkeys.NextScene = nil },
			wantErr: true,
		},
		{
			name:    "zero brightness step",
			modify:  func(c *Config) { c.Hotkeys.BrightnessStep = 0 },
			wantErr: true,
		},
		{
			name:    "invalid log level",
			modify:  func(c *Config) { c.LogLevel = "invalid" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestWriteDefault_CreatesFile(t *testing.T) {
	tmpHome := t.TempDir()
	t.Setenv("HOME", tmpHome)

	path, err := WriteDefault()
	if err != nil {
		t.Fatalf("WriteDefault() error = %v", err)
	}

	expectedPath := filepath.Join(tmpHome, ".config", "goveectl", "config.yaml")
	if path != expectedPath {
		t.Errorf("WriteDefault() path = %q, want %q", path, expectedPath)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read written config: %v", err)
	}

	content := string(data)
	if !strings.HasPrefix(content, "# goveectl") {
		t.Error("written config should start with header comment")
	}
	if !strings.Contains(content, "preset_dir: ~/.config/goveectl/presets") {
		t.Error("written config should keep preset_dir unexpanded")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("written config is not valid YAML: %v", err)
	}
	if cfg.Device.Address != "A4:C1:38:D3:81:44" {
		t.Errorf("written config Device.Address = %q", cfg.Device.Address)
	}
	if cfg.Debounce.QuietPeriod != 200*time.Millisecond {
		t.Errorf("written config Debounce.QuietPeriod = %s, want 200ms", cfg.Debounce.QuietPeriod)
	}
}

func TestWriteDefault_NoOpIfExists(t *testing.T) {
	tmpHome := t.TempDir()
	t.Setenv("HOME", tmpHome)

	configDir := filepath.Join(tmpHome, ".config", "goveectl")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}
	existingContent := []byte("device:\n  address: \"11:22:33:44:55:66\"\n")
	configPath := filepath.Join(configDir, "config.yaml")
	if err := os.WriteFile(configPath, existingContent, 0644); err != nil {
		t.Fatalf("failed to write existing config: %v", err)
	}

	path, err := WriteDefault()
	if err != nil {
		t.Fatalf("WriteDefault() error = %v", err)
	}
	if path != "" {
		t.Errorf("WriteDefault() path = %q, want empty string for existing file", path)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("failed to read config: %v", err)
	}
	if string(data) != string(existingContent) {
		t.Error("WriteDefault() should not overwrite existing config file")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ParseLogLevel(tt.input)
			if got != tt.want {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
