package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values for the server configuration.
const (
	DefaultHTTPPort       = 8050
	DefaultDataPath       = "Covid_Analysis_Data.csv"
	DefaultStreamInterval = 5 * time.Second
)

// Config holds the full server configuration parsed from config.yaml.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Data   DataConfig   `yaml:"data"`
	Stream StreamConfig `yaml:"stream"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	// HTTPPort is the port the JSON API, WebSocket stream and metrics
	// endpoint listen on (default 8050).
	HTTPPort int `yaml:"http_port"`

	// Auth configures how API clients are authenticated.
	Auth AuthConfig `yaml:"auth"`
}

// AuthConfig controls client authentication for the /api/ routes.
type AuthConfig struct {
	// Mode is one of: apikey | none.
	Mode string `yaml:"mode"`

	// KeyEnv is the name of the environment variable that holds the expected
	// API key. Used when Mode == "apikey".
	KeyEnv string `yaml:"key_env"`

	// Header is the HTTP header name to read the key from.
	// Defaults to "x-api-key" if empty.
	Header string `yaml:"header"`
}

// Key returns the expected API key resolved from the environment.
func (a AuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return os.Getenv(a.KeyEnv)
}

// EffectiveHeader returns the configured header name, or the default "x-api-key".
func (a AuthConfig) EffectiveHeader() string {
	if a.Header != "" {
		return a.Header
	}
	return "x-api-key"
}

// DataConfig describes the backing source file.
type DataConfig struct {
	// Path is the COVID-19 source CSV read at startup.
	Path string `yaml:"path"`

	// Watch enables reloading the table when the source file is rewritten.
	Watch bool `yaml:"watch"`
}

// StreamConfig controls the WebSocket overview stream.
type StreamConfig struct {
	// Interval is how often the overview is broadcast to connected clients.
	Interval time.Duration `yaml:"interval"`
}

// Load reads and parses the config file at path. Missing fields are filled
// with sensible defaults before validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort: DefaultHTTPPort,
		},
		Data: DataConfig{
			Path:  DefaultDataPath,
			Watch: true,
		},
		Stream: StreamConfig{
			Interval: DefaultStreamInterval,
		},
	}
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	if cfg.Server.HTTPPort <= 0 || cfg.Server.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d is out of range [1, 65535]", cfg.Server.HTTPPort)
	}
	switch cfg.Server.Auth.Mode {
	case "apikey", "none", "":
	default:
		return fmt.Errorf("server.auth.mode %q unknown: want apikey|none", cfg.Server.Auth.Mode)
	}
	if cfg.Data.Path == "" {
		return fmt.Errorf("data.path must not be empty")
	}
	if cfg.Stream.Interval <= 0 {
		return fmt.Errorf("stream.interval must be positive")
	}
	return nil
}
