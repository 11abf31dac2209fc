package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Stream  StreamConfig  `yaml:"stream"`
	Logging LoggingConfig `yaml:"logging"`
	Mock    MockConfig    `yaml:"mock"`
}

type ServerConfig struct {
	Port           int      `yaml:"port"`
	Host           string   `yaml:"host"`
	AuthToken      string   `yaml:"auth_token"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// StreamConfig tunes the websocket status stream.
type StreamConfig struct {
	PingInterval time.Duration `yaml:"ping_interval"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	SendBuffer   int           `yaml:"send_buffer"`
}

// LoggingConfig controls process logging. Enabled is the broadcaster's
// diagnostics switch and can be flipped at runtime.
type LoggingConfig struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level"`
	Format  string `yaml:"format"`
}

type MockConfig struct {
	Interval time.Duration `yaml:"interval"`
	Pattern  string        `yaml:"pattern"`
}

var (
	validFormats  = map[string]bool{"text": true, "json": true}
	validPatterns = map[string]bool{"flapping": true, "steady": true, "outage": true}
)

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8080,
			Host: "127.0.0.1",
		},
		Stream: StreamConfig{
			PingInterval: 30 * time.Second,
			WriteTimeout: 10 * time.Second,
			SendBuffer:   64,
		},
		Logging: LoggingConfig{
			Enabled: true,
			Level:   "info",
			Format:  "text",
		},
		Mock: MockConfig{
			Interval: 2 * time.Second,
			Pattern:  "flapping",
		},
	}
}

// Default returns the built-in configuration.
func Default() *Config {
	return defaultConfig()
}

// Load reads a YAML config file. Fields absent from the file keep their
// defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault is Load, except a missing file yields the defaults.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return defaultConfig(), nil
	}
	return cfg, err
}

func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Stream.PingInterval <= 0 {
		errs = append(errs, errors.New("stream.ping_interval must be positive"))
	}
	if c.Stream.WriteTimeout <= 0 {
		errs = append(errs, errors.New("stream.write_timeout must be positive"))
	}
	if c.Stream.SendBuffer <= 0 {
		errs = append(errs, errors.New("stream.send_buffer must be positive"))
	}
	if !validFormats[c.Logging.Format] {
		errs = append(errs, fmt.Errorf("logging.format %q: want text or json", c.Logging.Format))
	}
	if c.Mock.Interval <= 0 {
		errs = append(errs, errors.New("mock.interval must be positive"))
	}
	if !validPatterns[c.Mock.Pattern] {
		errs = append(errs, fmt.Errorf("mock.pattern %q: want flapping, steady or outage", c.Mock.Pattern))
	}
	return errors.Join(errs...)
}

// Addr returns the host:port the server listens on.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
