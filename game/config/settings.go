package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings are the server options read from photoly.yaml.
// CLI flags and environment variables override them.
type Settings struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	ConfigDir   string `yaml:"config_dir"`
	SessionsDir string `yaml:"sessions_dir"`
	StatsDB     string `yaml:"stats_db"`
	FPS         int    `yaml:"fps"`
	Debug       bool   `yaml:"debug"`

	Sessions SessionSettings `yaml:"sessions"`
	Assets   AssetSettings   `yaml:"assets"`
	Ngrok    NgrokSettings   `yaml:"ngrok,omitempty"`
}

// SessionSettings control session expiry
type SessionSettings struct {
	TTL             time.Duration `yaml:"ttl"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
	SaveInterval    time.Duration `yaml:"save_interval"`
}

// AssetSettings control the image availability probe
type AssetSettings struct {
	Concurrency int           `yaml:"concurrency"`
	Timeout     time.Duration `yaml:"timeout"`
	Retries     int           `yaml:"retries"`
}

// NgrokSettings enable a public tunnel
type NgrokSettings struct {
	Enabled bool   `yaml:"enabled"`
	Domain  string `yaml:"domain"`
}

// DefaultSettings returns the settings used when no file is present
func DefaultSettings() *Settings {
	return &Settings{
		Host:        "",
		Port:        8080,
		ConfigDir:   "configs",
		SessionsDir: "sessions",
		StatsDB:     "photoly.db",
		FPS:         60,
		Sessions: SessionSettings{
			TTL:             24 * time.Hour,
			CleanupInterval: time.Hour,
			SaveInterval:    5 * time.Minute,
		},
		Assets: AssetSettings{
			Concurrency: 4,
			Timeout:     5 * time.Second,
			Retries:     2,
		},
	}
}

// LoadSettings reads a YAML settings file on top of the defaults.
// A missing file is not an error.
func LoadSettings(path string) (*Settings, error) {
	s := DefaultSettings()
	if path == "" {
		return s, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}
	if err := yaml.Unmarshal(b, s); err != nil {
		return nil, fmt.Errorf("failed to parse settings '%s': %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// SaveSettings writes s as YAML
func SaveSettings(path string, s *Settings) error {
	b, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	return os.WriteFile(path, b, 0644)
}

// Validate checks the settings
func (s *Settings) Validate() error {
	if s.Port < 0 || s.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, s.Port)
	}
	if s.FPS < 1 || s.FPS > 240 {
		return fmt.Errorf("%w: fps must be between 1 and 240, got %d", ErrInvalidConfig, s.FPS)
	}
	if s.Assets.Concurrency < 1 {
		return fmt.Errorf("%w: assets.concurrency must be at least 1", ErrInvalidConfig)
	}
	return nil
}

// Addr returns host:port
func (s *Settings) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
