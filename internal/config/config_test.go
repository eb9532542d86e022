package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "secret")

	_, err := Load()

	require.ErrorContains(t, err, "DATABASE_URL")
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/mbevents")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()

	require.ErrorContains(t, err, "JWT_SECRET")
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/mbevents")
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()

	require.NoError(t, err)
	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, time.Hour, cfg.Auth.SessionExpiry)
	require.Equal(t, 15*time.Minute, cfg.Auth.ResetExpiry)
	require.Equal(t, "development", cfg.Environment)
	require.True(t, cfg.CORS.AllowAllOrigins)
	require.False(t, cfg.Email.Enabled)
}

func TestLoadEmailEnabledRequiresAPIKey(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/mbevents")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("EMAIL_ENABLED", "true")
	t.Setenv("RESEND_API_KEY", "")

	_, err := Load()

	require.ErrorContains(t, err, "RESEND_API_KEY")
}

func TestLoadCORSList(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/mbevents")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://mbevents.dev, https://app.mbevents.dev ,")

	cfg, err := Load()

	require.NoError(t, err)
	require.False(t, cfg.CORS.AllowAllOrigins)
	require.Equal(t, []string{"https://mbevents.dev", "https://app.mbevents.dev"}, cfg.CORS.AllowedOrigins)
}
