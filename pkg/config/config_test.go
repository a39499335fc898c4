package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 20, cfg.Statement.HeaderScanRows)
	assert.Equal(t, 5, cfg.Statement.DefaultTopN)
	assert.Equal(t, "America/Lima", cfg.Location().String())
	assert.True(t, cfg.Observability.MetricsEnabled)
	assert.False(t, cfg.Observability.TracingEnabled)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("STATEMENT_DEFAULT_TOP_N", "10")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 10, cfg.Statement.DefaultTopN)
	level, err := cfg.Log.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoadFromEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("STATEMENT_TIMEZONE=UTC\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("STATEMENT_TIMEZONE") })

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "UTC", cfg.Location().String())
}

func TestReadMaxBytes(t *testing.T) {
	s := ServerConfig{MaxUploadBytes: 3 << 20}
	assert.Equal(t, 4<<20+64<<10, s.ReadMaxBytes())

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Greater(t, cfg.Server.ReadMaxBytes(), cfg.Server.MaxUploadBytes*4/3)
}

func TestValidateAccumulatesProblems(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	cfg.Server.Port = 0
	cfg.Statement.HeaderScanRows = 5
	cfg.Statement.Timezone = "Mars/Olympus"
	cfg.Observability.TraceExporter = "jaeger"

	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid server port 0")
	assert.Contains(t, err.Error(), "header scan rows")
	assert.Contains(t, err.Error(), "invalid timezone")
	assert.Contains(t, err.Error(), "unknown trace exporter")
	assert.Equal(t, "UTC", cfg.Location().String())
}
