package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents the global ~/.odysia/config.toml.
type Config struct {
	DefaultSession string          `toml:"default_session"`
	UI             UIConfig        `toml:"ui"`
	Transport      TransportConfig `toml:"transport"`
	Backend        BackendConfig   `toml:"backend"`
}

// UIConfig controls the terminal dashboard.
type UIConfig struct {
	// DualPaneMinWidth is the narrowest terminal, in columns, that shows the
	// conversation list and thread side by side.
	DualPaneMinWidth int    `toml:"dual_pane_min_width"`
	Role             string `toml:"role"` // client | expert
}

// TransportConfig controls the dashboard's link to the backend.
type TransportConfig struct {
	SendTimeout Duration `toml:"send_timeout"`
}

// BackendConfig controls the mock messaging backend.
type BackendConfig struct {
	Fixtures         string   `toml:"fixtures"`
	DeliveryInterval Duration `toml:"delivery_interval"`
	FailKeyword      string   `toml:"fail_keyword"`
}

// Duration is a time.Duration written as a string ("5s") in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		DefaultSession: "client",
		UI: UIConfig{
			DualPaneMinWidth: 100,
			Role:             "client",
		},
		Transport: TransportConfig{
			SendTimeout: Duration{5 * time.Second},
		},
		Backend: BackendConfig{
			DeliveryInterval: Duration{500 * time.Millisecond},
			FailKeyword:      "#fail",
		},
	}
}

// Load reads config from the given path on top of Default. Returns nil and
// an error if the file is missing or invalid.
func Load(path string) (*Config, error) {
	cfg := Default()
	_, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault is Load, falling back to Default when the file does not
// exist. Other errors are returned.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(path)
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch c.UI.Role {
	case "client", "expert":
	default:
		return fmt.Errorf("ui.role must be client or expert, got %q", c.UI.Role)
	}
	if c.UI.DualPaneMinWidth <= 0 {
		return fmt.Errorf("ui.dual_pane_min_width must be positive, got %d", c.UI.DualPaneMinWidth)
	}
	if c.Transport.SendTimeout.Duration <= 0 {
		return fmt.Errorf("transport.send_timeout must be positive")
	}
	if c.Backend.DeliveryInterval.Duration <= 0 {
		return fmt.Errorf("backend.delivery_interval must be positive")
	}
	return nil
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}
