// Package config loads the demo daemon configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/layer-3/w3o/core"
)

// Config holds the daemon configuration
type Config struct {
	// Runtime settings
	AppName      string
	MultiSession bool
	AutoLogin    bool

	// Infrastructure
	RedisURL string // Empty keeps sessions in memory
	HTTPAddr string
	LogLevel string

	// EVM network
	EVMNetworkName string
	EVMChainID     string
	EVMRPCURL      string
	EVMTokensURL   string
	HandleTTL      time.Duration
	HandleKeyFile  string // PEM encoded P-256 key signing wallet handles
}

// Load reads the configuration from environment variables and validates it
func Load() (*Config, error) {
	cfg := &Config{
		AppName:      getEnv("W3O_APP_NAME", "w3o-app"),
		MultiSession: getEnvBool("W3O_MULTI_SESSION", false),
		AutoLogin:    getEnvBool("W3O_AUTO_LOGIN", true),

		RedisURL: getEnv("REDIS_URL", ""),
		HTTPAddr: getEnv("HTTP_ADDR", ":9000"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		EVMNetworkName: getEnv("EVM_NETWORK_NAME", "sepolia"),
		EVMChainID:     getEnv("EVM_CHAIN_ID", "11155111"),
		EVMRPCURL:      getEnv("EVM_RPC_URL", "https://rpc.sepolia.org"),
		EVMTokensURL:   getEnv("EVM_TOKENS_URL", ""),
		HandleTTL:      getEnvDuration("HANDLE_TTL", 24*time.Hour),
		HandleKeyFile:  getEnv("HANDLE_KEY_FILE", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	if c.AppName == "" {
		return errors.New("W3O_APP_NAME is required")
	}
	if c.HandleTTL <= 0 {
		return fmt.Errorf("HANDLE_TTL must be positive, got %s", c.HandleTTL)
	}
	if c.EVMNetworkName == "" {
		return errors.New("EVM_NETWORK_NAME is required")
	}
	return nil
}

// Settings returns the runtime settings
func (c *Config) Settings() core.Settings {
	return core.Settings{
		AppName:      c.AppName,
		MultiSession: c.MultiSession,
		AutoLogin:    c.AutoLogin,
	}
}

// IsDevelopment reports whether debug logging is requested
func (c *Config) IsDevelopment() bool {
	return c.LogLevel == "debug"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvDuration gets a duration environment variable with a default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
