package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "http://localhost:8123", cfg.APIBaseURL)
	assert.Equal(t, 10*time.Second, cfg.APITimeout)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, time.Second, cfg.RetryBackoff)
	assert.Equal(t, 10, cfg.PoolConnections)
	assert.Equal(t, 20, cfg.PoolMaxSize)
	assert.Equal(t, "alice", cfg.Username)
	assert.Equal(t, "transfer", cfg.DefaultScope)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("BANKING_API_URL", "http://bank:9999")
	t.Setenv("BANKING_API_TIMEOUT", "3s")
	t.Setenv("MAX_ATTEMPTS", "5")
	t.Setenv("BANKING_USERNAME", "bob")

	cfg := Load()

	assert.Equal(t, "http://bank:9999", cfg.APIBaseURL)
	assert.Equal(t, 3*time.Second, cfg.APITimeout)
	assert.Equal(t, 5, cfg.MaxAttempts)
	assert.Equal(t, "bob", cfg.Username)
}

func TestClientConfig_Overrides(t *testing.T) {
	cfg := Load()

	cc := cfg.ClientConfig("http://other:8000", 5*time.Second, "carol", "pw")
	assert.Equal(t, "http://other:8000", cc.BaseURL)
	assert.Equal(t, 5*time.Second, cc.Timeout)
	assert.Equal(t, "carol", cc.Credentials.Username)
	assert.Equal(t, "pw", cc.Credentials.Password)

	cc = cfg.ClientConfig("", 0, "", "")
	assert.Equal(t, cfg.APIBaseURL, cc.BaseURL)
	assert.Equal(t, cfg.APITimeout, cc.Timeout)
	assert.Equal(t, cfg.Username, cc.Credentials.Username)
	assert.Equal(t, cfg.Password, cc.Credentials.Password)
}
