package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"W3O_APP_NAME", "W3O_MULTI_SESSION", "W3O_AUTO_LOGIN", "REDIS_URL", "HANDLE_TTL"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "w3o-app", cfg.AppName)
	assert.False(t, cfg.MultiSession)
	assert.True(t, cfg.AutoLogin)
	assert.Empty(t, cfg.RedisURL)
	assert.Equal(t, 24*time.Hour, cfg.HandleTTL)

	settings := cfg.Settings()
	assert.Equal(t, "w3o-app", settings.AppName)
	assert.True(t, settings.AutoLogin)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("W3O_APP_NAME", "wallet")
	t.Setenv("W3O_MULTI_SESSION", "true")
	t.Setenv("W3O_AUTO_LOGIN", "0")
	t.Setenv("HANDLE_TTL", "90")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "wallet", cfg.AppName)
	assert.True(t, cfg.MultiSession)
	assert.False(t, cfg.AutoLogin)
	assert.Equal(t, 90*time.Second, cfg.HandleTTL)
	assert.True(t, cfg.IsDevelopment())
}

func TestValidate(t *testing.T) {
	cfg := &Config{AppName: "", HandleTTL: time.Hour, EVMNetworkName: "sepolia"}
	assert.ErrorContains(t, cfg.Validate(), "W3O_APP_NAME")

	cfg = &Config{AppName: "app", HandleTTL: -time.Second, EVMNetworkName: "sepolia"}
	assert.ErrorContains(t, cfg.Validate(), "HANDLE_TTL")

	t.Setenv("HANDLE_TTL", "-5m")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadHandleKeyFile(t *testing.T) {
	t.Setenv("HANDLE_KEY_FILE", "")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.HandleKeyFile)

	t.Setenv("HANDLE_KEY_FILE", "/etc/w3o/handle.pem")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "/etc/w3o/handle.pem", cfg.HandleKeyFile)
}
