package config

import (
	"time"

	"github.com/joho/godotenv"

	"github.com/choiwab/banking-client/internal/auth"
	"github.com/choiwab/banking-client/internal/banking"
	pkgconfig "github.com/choiwab/banking-client/pkg/config"
)

// Config holds the runtime configuration for the banking client.
// It supports environment-based initialization, with sensible defaults
// matching the mock bank's local setup.
type Config struct {
	ServiceName string
	Env         string // "dev" or "prod"
	LogLevel    string

	APIBaseURL   string
	APITimeout   time.Duration
	MaxAttempts  int
	RetryBackoff time.Duration

	PoolConnections int
	PoolMaxSize     int

	RateLimitRPS   int
	RateLimitBurst int

	Username     string
	Password     string
	DefaultScope string
}

// Load loads configuration from environment variables and a .env file if present.
func Load() *Config {
	// load .env silently (no error if missing)
	_ = godotenv.Load()

	return &Config{
		ServiceName:     pkgconfig.GetEnv("SERVICE_NAME", "banking-cli"),
		Env:             pkgconfig.GetEnv("ENV", "dev"),
		LogLevel:        pkgconfig.GetEnv("LOG_LEVEL", "info"),
		APIBaseURL:      pkgconfig.GetEnv("BANKING_API_URL", "http://localhost:8123"),
		APITimeout:      pkgconfig.GetEnvDuration("BANKING_API_TIMEOUT", 10*time.Second),
		MaxAttempts:     pkgconfig.GetEnvInt("MAX_ATTEMPTS", 3),
		RetryBackoff:    pkgconfig.GetEnvDuration("RETRY_BACKOFF", 1*time.Second),
		PoolConnections: pkgconfig.GetEnvInt("POOL_CONNECTIONS", 10),
		PoolMaxSize:     pkgconfig.GetEnvInt("POOL_MAXSIZE", 20),
		RateLimitRPS:    pkgconfig.GetEnvInt("RATE_LIMIT_RPS", 10),
		RateLimitBurst:  pkgconfig.GetEnvInt("RATE_LIMIT_BURST", 20),
		Username:        pkgconfig.GetEnv("BANKING_USERNAME", "alice"),
		Password:        pkgconfig.GetEnv("BANKING_PASSWORD", "secret"),
		DefaultScope:    pkgconfig.GetEnv("BANKING_SCOPE", string(auth.ScopeTransfer)),
	}
}

// ClientConfig materializes the banking.Config for one client instance.
// baseURL, username and password override the environment values when non-empty.
func (c *Config) ClientConfig(baseURL string, timeout time.Duration, username, password string) banking.Config {
	if baseURL == "" {
		baseURL = c.APIBaseURL
	}
	if timeout <= 0 {
		timeout = c.APITimeout
	}
	if username == "" {
		username = c.Username
	}
	if password == "" {
		password = c.Password
	}
	return banking.Config{
		BaseURL:         baseURL,
		Timeout:         timeout,
		MaxAttempts:     c.MaxAttempts,
		RetryBackoff:    c.RetryBackoff,
		PoolConnections: c.PoolConnections,
		PoolMaxSize:     c.PoolMaxSize,
		Credentials:     auth.Credentials{Username: username, Password: password},
	}
}
