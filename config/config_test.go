package config_test

import (
	"testing"

	"github.com/mentorhub/booking-api/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("UPSTREAM_BASE_URL", "https://api.mentorhub.dev")
	t.Setenv("UPSTREAM_API_TOKEN", "test-token")
	t.Setenv("JWT_SECRET", "test-secret-test-secret-test-secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "8082", cfg.Server.Port)
	assert.Equal(t, "production", cfg.Server.AppEnv)
	assert.Equal(t, 30, cfg.Booking.WindowDays)
	assert.Equal(t, 45, cfg.Booking.DialogTTLMinutes)
	assert.Equal(t, 15, cfg.Upstream.TimeoutSeconds)
	assert.Equal(t, 300, cfg.Upstream.CatalogTTLSeconds)
	assert.Equal(t, 24, cfg.Session.TTLHours)
	assert.NotEmpty(t, cfg.Server.AllowedOrigins)
}

func TestLoad_MissingUpstream(t *testing.T) {
	t.Setenv("UPSTREAM_BASE_URL", "")
	t.Setenv("UPSTREAM_API_TOKEN", "test-token")
	t.Setenv("JWT_SECRET", "secret")

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UPSTREAM_BASE_URL")
}

func TestLoad_MissingJWTSecret(t *testing.T) {
	t.Setenv("UPSTREAM_BASE_URL", "https://api.mentorhub.dev")
	t.Setenv("UPSTREAM_API_TOKEN", "test-token")
	t.Setenv("JWT_SECRET", "")

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoad_ParsesCORSOrigins(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ALLOWED_CORS_ORIGINS", "https://a.example, https://b.example ,")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
}

func TestValidate_BookingWindow(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("BOOKING_WINDOW_DAYS", "0")

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BOOKING_WINDOW_DAYS")
}
