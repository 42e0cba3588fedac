package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_CreatesDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	settings, err := Load(path)
	require.NoError(t, err)

	assert.FileExists(t, path)
	assert.Equal(t, path, settings.ConfigFile)
	assert.Equal(t, DefaultDatabasePath, settings.Output.SQLite.Path)
	assert.Equal(t, DefaultSlowQuery, settings.Output.SQLite.SlowQuery)
	assert.Equal(t, []string{".fits", ".fit"}, settings.Import.Extensions)
	assert.False(t, settings.Observatory.Enabled)
	require.NotNil(t, settings.Main.Log.Console)
	assert.True(t, settings.Main.Log.Console.Enabled)
}

func TestLoad_ReadsValuesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
output:
  sqlite:
    path: /srv/catalog/night.db
    slowquery: 1s
import:
  extensions: [".FITS", ".fts"]
observatory:
  enabled: true
  latitude: 60.17
  longitude: 24.94
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	settings, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/catalog/night.db", settings.Output.SQLite.Path)
	assert.Equal(t, time.Second, settings.Output.SQLite.SlowQuery)
	assert.Equal(t, []string{".fits", ".fts"}, settings.Import.Extensions, "extensions are lower-cased")
	assert.True(t, settings.Observatory.Enabled)
	assert.InDelta(t, 60.17, settings.Observatory.Latitude, 1e-9)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv("AFTERMIDNIGHT_DB_PATH", "/tmp/override.db")
	t.Setenv("AFTERMIDNIGHT_LOG_LEVEL", "debug")

	settings, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/override.db", settings.Output.SQLite.Path)
	assert.Equal(t, "debug", settings.Main.Log.DefaultLevel)
}

func TestLoad_InvalidEnvironmentValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv("AFTERMIDNIGHT_LATITUDE", "north")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AFTERMIDNIGHT_LATITUDE")
}

func TestLoad_DebugRaisesLogLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("debug: true\n"), 0o600))

	settings, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", settings.Main.Log.DefaultLevel)
	assert.Equal(t, "debug", settings.Main.Log.Console.Level)
}

func TestSaveYAMLConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	settings, err := Load(path)
	require.NoError(t, err)

	settings.Observatory.Enabled = true
	settings.Observatory.Latitude = -31.27
	settings.Observatory.Longitude = 149.06
	require.NoError(t, SaveYAMLConfig(path, settings))

	reloaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, settings.Observatory, reloaded.Observatory)
	assert.Equal(t, settings.Output.SQLite.SlowQuery, reloaded.Output.SQLite.SlowQuery)
}
