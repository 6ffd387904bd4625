package config

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig
	Game    GameConfig
	Logging LoggingConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Host string
	Port int

	// AllowedOrigins is the browser origin allow-list for CORS and the
	// websocket upgrade check. Empty or "*" allows any origin.
	AllowedOrigins []string
}

// GameConfig holds game-related configuration
type GameConfig struct {
	// SubmitInterval is the per-connection answer submission throttle
	SubmitInterval time.Duration
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // "json" or "text"
}

// Default returns the configuration defaults, before flag and env
// overrides are applied
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           8080,
			AllowedOrigins: nil,
		},
		Game: GameConfig{
			SubmitInterval: time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks the configuration for values that can never work
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.Server.Port)
	}
	if c.Game.SubmitInterval < 0 {
		return fmt.Errorf("invalid submit interval: %s", c.Game.SubmitInterval)
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("invalid log format (must be json or text): %q", c.Logging.Format)
	}
	return nil
}

// Addr returns the server address in host:port format
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}
