package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		Addr:        defaultAddr,
		DatabaseURL: "postgres://localhost/shop",
		JWTSecret:   "secret",
		RateLimit:   RateLimitConfig{Max: 100, Window: time.Minute},
	}
}

func TestConfig_ApplyPlatformDefaults(t *testing.T) {
	env := map[string]string{"DATABASE_URL": "postgres://platform/db", "PORT": "9000"}
	getenv := func(k string) string { return env[k] }

	cfg := Config{Addr: defaultAddr}
	cfg.applyPlatformDefaults(getenv)
	assert.Equal(t, "postgres://platform/db", cfg.DatabaseURL)
	assert.Equal(t, "0.0.0.0:9000", cfg.Addr)

	cfg = Config{Addr: "127.0.0.1:7000", DatabaseURL: "postgres://explicit/db"}
	cfg.applyPlatformDefaults(getenv)
	assert.Equal(t, "postgres://explicit/db", cfg.DatabaseURL)
	assert.Equal(t, "127.0.0.1:7000", cfg.Addr, "explicit address wins over PORT")
}

func TestConfig_Validate(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, cfg.validate())

	for name, mutate := range map[string]func(*Config){
		"database url": func(c *Config) { c.DatabaseURL = "" },
		"jwt secret":   func(c *Config) { c.JWTSecret = "" },
		"rate limit":   func(c *Config) { c.RateLimit.Max = 0 },
	} {
		t.Run(name, func(t *testing.T) {
			cfg := validConfig()
			mutate(&cfg)
			assert.Error(t, cfg.validate())
		})
	}
}
