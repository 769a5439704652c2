package configs

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	unsetEnv(t, "ENVIRONMENT", "PORT", "WS_PATH", "ALLOWED_ORIGINS", "MAX_MESSAGE_BYTES", "SEND_QUEUE_SIZE", "DATABASE_URL")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, "development", cfg.Environment)
	require.True(t, cfg.IsDevelopment())
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, "/ws", cfg.WSPath)
	require.Equal(t, int64(8192), cfg.MaxMessageBytes)
	require.Equal(t, 256, cfg.SendQueueSize)
	require.Empty(t, cfg.AllowedOrigins)
	require.Empty(t, cfg.DatabaseDSN)
}

func TestLoadConfigTrimsOrigins(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("ALLOWED_ORIGINS", " https://a.example , ,https://b.example")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.False(t, cfg.IsDevelopment())
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestLoadConfigRejectsPrivilegedPort(t *testing.T) {
	t.Setenv("PORT", "80")

	_, err := LoadConfig()
	require.Error(t, err)
	require.Contains(t, err.Error(), "port number 80")
}

func TestLoadConfigRejectsMalformedPort(t *testing.T) {
	t.Setenv("PORT", "eighty")

	_, err := LoadConfig()
	require.Error(t, err)
	require.Contains(t, err.Error(), "parse env:")
}

func TestValidate(t *testing.T) {
	valid := AppConfig{
		Environment:     "development",
		Port:            8080,
		WSPath:          "/ws",
		MaxMessageBytes: 1024,
		SendQueueSize:   16,
		MessageRate:     1,
		MessageBurst:    1,
	}
	require.NoError(t, valid.Validate())

	badPath := valid
	badPath.WSPath = "ws"
	require.Error(t, badPath.Validate())

	badQueue := valid
	badQueue.SendQueueSize = 0
	require.Error(t, badQueue.Validate())

	badRate := valid
	badRate.MessageRate = 0
	require.Error(t, badRate.Validate())
}

// unsetEnv removes the given variables for the duration of the test.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()

	for _, key := range keys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}
