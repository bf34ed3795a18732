package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, 5*time.Minute, cfg.OTP.CodeTTL())
	assert.Equal(t, 60*time.Second, cfg.OTP.ResendCooldown())
	assert.Equal(t, 10*time.Second, cfg.OTP.DeliveryTimeout)
	assert.False(t, cfg.OTP.InvalidateOnReissue)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL())
}

func TestLoadConfig_FileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("PORT=9090\nSTORAGE_DRIVER=postgres\nOTP_EXPIRY_MINUTES=3\n"), 0o600))

	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("OTP_INVALIDATE_ON_REISSUE", "true")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.App.Port)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, 3*time.Minute, cfg.OTP.CodeTTL())
	assert.True(t, cfg.OTP.InvalidateOnReissue)
}
