package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Transport selects how MCP frames reach the server.
type Transport string

const (
	TransportStdio Transport = "stdio"
	TransportSSE   Transport = "sse"
)

// Config holds all configuration for the image MCP server
type Config struct {
	// Launch options, set from command-line flags rather than the environment
	Port      int
	Transport Transport

	// Version is reported to clients in serverInfo; set from build metadata
	Version string

	LogLevel  string `env:"IMAGE_MCP_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"IMAGE_MCP_LOG_FORMAT" envDefault:"console"` // json or console

	// Replicate
	ReplicateAPIToken string `env:"REPLICATE_API_TOKEN"`
	ReplicateBaseURL  string `env:"REPLICATE_BASE_URL" envDefault:"https://api.replicate.com"`
}

// LoadConfig loads configuration from environment variables. Values from a
// local .env file are applied first when the file exists.
func LoadConfig() (*Config, error) {
	loadEnvFiles()

	cfg := &Config{
		Port:      8000,
		Transport: TransportStdio,
	}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(os.Getenv("IMAGE_MCP_LOG_LEVEL")) == "" {
		if global := strings.TrimSpace(os.Getenv("LOG_LEVEL")); global != "" {
			cfg.LogLevel = global
		}
	}
	if strings.TrimSpace(os.Getenv("IMAGE_MCP_LOG_FORMAT")) == "" {
		if global := strings.TrimSpace(os.Getenv("LOG_FORMAT")); global != "" {
			cfg.LogFormat = global
		}
	}
	cfg.ReplicateAPIToken = strings.TrimSpace(cfg.ReplicateAPIToken)
	cfg.ReplicateBaseURL = strings.TrimRight(strings.TrimSpace(cfg.ReplicateBaseURL), "/")
	return cfg, nil
}

// Validate checks the launch options.
func (c *Config) Validate() error {
	switch c.Transport {
	case TransportStdio, TransportSSE:
	default:
		return fmt.Errorf("unsupported transport %q (expected %q or %q)", c.Transport, TransportStdio, TransportSSE)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	return nil
}

// Addr returns the listen address for the SSE transport.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// loadEnvFiles preloads a local .env without overriding variables that are
// already set in the process environment. Absence is not an error.
func loadEnvFiles() {
	if _, err := os.Stat(".env"); err != nil {
		return
	}
	if err := godotenv.Load(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to load .env: %v\n", err)
	}
}
