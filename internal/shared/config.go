package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	API      APIConfig      `toml:"api"`
	Database DatabaseConfig `toml:"database"`
}

// APIConfig contains the backend connection settings.
type APIConfig struct {
	BaseURL string `toml:"base_url"`
	// Roots are joined onto BaseURL to form each service's endpoint prefix.
	AuthRoot          string `toml:"auth_root"`
	AudioRoot         string `toml:"audio_root"`
	TemplatesRoot     string `toml:"templates_root"`
	NotificationsRoot string `toml:"notifications_root"`
	// RateLimit caps outgoing requests per second. Zero disables limiting.
	RateLimit float64 `toml:"rate_limit"`
}

// DatabaseConfig contains local database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// A .env file in the working directory is loaded first (if present), then
// SCRIBE_* environment variables override the corresponding file values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	config.applyEnv()
	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	config.applyEnv()
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// applyEnv overlays SCRIBE_* environment variables onto the config.
func (c *Config) applyEnv() {
	godotenv.Load()

	if v := os.Getenv("SCRIBE_API_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("SCRIBE_DB_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("SCRIBE_RATE_LIMIT"); v != "" {
		if limit, err := strconv.ParseFloat(v, 64); err == nil {
			c.API.RateLimit = limit
		}
	}
}
