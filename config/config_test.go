package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func env(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnvDefaults(t *testing.T) {
	cfg := FromEnv(env(nil))
	assert.Equal(t, ":8080", cfg.Port)
	assert.Equal(t, DefaultBackendURL, cfg.BackendURL)
	assert.Equal(t, 2*time.Second, cfg.LogoutDelay)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Empty(t, cfg.RedisURL)
	assert.Equal(t, "kiosk", cfg.MongoDB)
	assert.Equal(t, float64(DefaultRateLimit), cfg.RateLimit)
	assert.Equal(t, DefaultRateBurst, cfg.RateBurst)
}

func TestFromEnvOverrides(t *testing.T) {
	cfg := FromEnv(env(map[string]string{
		"PORT":            "9000",
		"BACKEND_URL":     "http://api.local/",
		"LOGOUT_DELAY":    "500ms",
		"TERMINAL_TTL":    "bogus",
		"ALLOWED_ORIGINS": "http://a, ,http://b",
		"REDIS_URL":       "redis://localhost:6379/0",
		"RATE_LIMIT":      "0.5",
		"RATE_BURST":      "-1",
	}))
	assert.Equal(t, ":9000", cfg.Port)
	assert.Equal(t, "http://api.local", cfg.BackendURL)
	assert.Equal(t, 500*time.Millisecond, cfg.LogoutDelay)
	assert.Equal(t, DefaultTerminalTTL, cfg.TerminalTTL)
	assert.Equal(t, []string{"http://a", "http://b"}, cfg.AllowedOrigins)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	assert.Equal(t, 0.5, cfg.RateLimit)
	assert.Equal(t, DefaultRateBurst, cfg.RateBurst)
}
