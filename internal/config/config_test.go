package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "development", cfg.Environment)

	require.Equal(t, 15*time.Minute, cfg.Auth.AccessTTL)
	require.Equal(t, 168*time.Hour, cfg.Auth.RefreshTTL)
	require.False(t, cfg.Auth.CookieSecure)

	require.Equal(t, 6, cfg.Lockout.Threshold)
	require.Equal(t, 15*time.Minute, cfg.Lockout.Window)
	require.Equal(t, 30*time.Minute, cfg.Lockout.Duration)

	require.Equal(t, "Shoplane", cfg.TwoFactor.Issuer)
	require.Equal(t, 5*time.Minute, cfg.TwoFactor.CodeTTL)

	require.Equal(t, 24*time.Hour, cfg.CSRF.TokenTTL)

	require.True(t, cfg.RateLimit.Enabled)
	require.Equal(t, 60, cfg.RateLimit.Requests)
	require.Equal(t, time.Minute, cfg.RateLimit.Window)
	require.False(t, cfg.RateLimit.UseRedis)
}

func TestLoadProductionRequiresSecrets(t *testing.T) {
	t.Setenv("SHOPLANE_ENVIRONMENT", "production")

	_, err := Load()
	require.Error(t, err)
}
