package config

import (
	"flag"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(flag.NewFlagSet("test", flag.ContinueOnError), nil)
	require.NoError(t, err)

	assert.Equal(t, ":4000", cfg.HTTPAddr)
	assert.Equal(t, 50, cfg.BoardSize)
	assert.Equal(t, 60, cfg.RoundSeconds)
	assert.Equal(t, time.Second, cfg.TickInterval)
	assert.Equal(t, "pixlnary", cfg.DefaultRoom)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Empty(t, cfg.NATSURL)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_EnvThenFlags(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PIXLNARY_BOARD_SIZE", "32")
	t.Setenv("PIXLNARY_HTTP_ADDR", ":9000")
	t.Setenv("PIXLNARY_ALLOWED_ORIGINS", "http://localhost:5173,https://pixlnary.app")

	cfg, err := Load(flag.NewFlagSet("test", flag.ContinueOnError), []string{"-addr", ":7000", "-round-seconds", "30"})
	require.NoError(t, err)

	assert.Equal(t, 32, cfg.BoardSize)
	assert.Equal(t, ":7000", cfg.HTTPAddr)
	assert.Equal(t, 30, cfg.RoundSeconds)
	assert.Equal(t, []string{"http://localhost:5173", "https://pixlnary.app"}, cfg.AllowedOrigins)
}

func TestLoad_Invalid(t *testing.T) {
	t.Chdir(t.TempDir())

	tests := map[string]string{
		"PIXLNARY_BOARD_SIZE": "0",
		"PIXLNARY_LOG_LEVEL":  "loud",
		"PIXLNARY_NATS_URL":   "not a url",
	}
	for key, val := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, val)
			_, err := Load(flag.NewFlagSet("test", flag.ContinueOnError), nil)
			require.Error(t, err)
		})
	}
}

func TestLoad_BadEnvValue(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PIXLNARY_BOARD_SIZE", "big")

	_, err := Load(flag.NewFlagSet("test", flag.ContinueOnError), nil)
	require.ErrorContains(t, err, "parse env")
}
