package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	require.Equal(t, "bakehouse-console", cfg.AppName)
	require.Equal(t, "development", cfg.Env)
	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, "http://localhost:3000", cfg.APIBaseURL)
	require.Equal(t, 10*time.Second, cfg.APITimeout)
	require.Equal(t, 720*time.Hour, cfg.SessionTTL)
	require.Equal(t, 10, cfg.LoginRateMax)
	require.Equal(t, time.Minute, cfg.LoginRateWindow)
	require.False(t, cfg.CookieSecure)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("PORT", "9090")
	t.Setenv("API_BASE_URL", "https://api.bakery.internal")
	t.Setenv("API_TIMEOUT", "3s")
	t.Setenv("SESSION_TTL", "168h")
	t.Setenv("LOGIN_RATE_MAX", "5")
	t.Setenv("COOKIE_SECURE", "true")

	cfg := Load()
	require.Equal(t, "production", cfg.Env)
	require.Equal(t, "9090", cfg.Port)
	require.Equal(t, "https://api.bakery.internal", cfg.APIBaseURL)
	require.Equal(t, 3*time.Second, cfg.APITimeout)
	require.Equal(t, 168*time.Hour, cfg.SessionTTL)
	require.Equal(t, 5, cfg.LoginRateMax)
	require.True(t, cfg.CookieSecure)
}

func TestInvalidValuesFallBackToDefaults(t *testing.T) {
	t.Setenv("API_TIMEOUT", "soon")
	t.Setenv("LOGIN_RATE_MAX", "many")
	t.Setenv("COOKIE_SECURE", "kinda")

	cfg := Load()
	require.Equal(t, 10*time.Second, cfg.APITimeout)
	require.Equal(t, 10, cfg.LoginRateMax)
	require.False(t, cfg.CookieSecure)
}

func TestCORSOrigins(t *testing.T) {
	cfg := &Config{CORSAllowedOrigins: " https://console.bakery.test , https://staging.bakery.test ,"}
	require.Equal(t,
		[]string{"https://console.bakery.test", "https://staging.bakery.test"},
		cfg.CORSOrigins())

	empty := &Config{}
	require.Empty(t, empty.CORSOrigins())
}
