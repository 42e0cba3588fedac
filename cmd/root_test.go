package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/aftermidnight/internal/conf"
	"github.com/tphakala/aftermidnight/internal/fitsheader/fitstest"
	runtimectx "github.com/tphakala/aftermidnight/internal/runtime"
)

type cli struct {
	config string
	db     string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	dir := t.TempDir()
	return &cli{
		config: filepath.Join(dir, "config.yaml"),
		db:     filepath.Join(dir, "catalog.db"),
	}
}

// run executes one command line against a fresh root command
func (c *cli) run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	settings := &conf.Settings{}
	root := RootCommand(settings, &runtimectx.Context{Version: "test"})

	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--config", c.config, "--db", c.db}, args...))

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func (c *cli) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := c.run(t, args...)
	require.NoError(t, err, "aftermidnight %v", args)
	return out
}

func frame(date string, exposure float64, filter string) []fitstest.Card {
	return []fitstest.Card{
		{Key: "DATE-LOC", Value: date},
		{Key: "EXPOSURE", Value: exposure},
		{Key: "FILTER", Value: filter},
		{Key: "IMAGETYP", Value: "LIGHT"},
	}
}

func TestProjectCommands(t *testing.T) {
	c := newCLI(t)

	assert.Contains(t, c.mustRun(t, "project", "create", "Deep Sky", "--org"), `Created project 1 "Deep Sky"`)
	assert.Contains(t, c.mustRun(t, "project", "create", "M31", "--parent", "1"), `Created project 2 "M31"`)
	assert.Contains(t, c.mustRun(t, "project", "create", "Mosaic", "--parent", "2"), `Created project 3 "Mosaic"`)

	_, err := c.run(t, "project", "create", "M31", "--parent", "1")
	require.Error(t, err, "duplicate sibling name")

	out := c.mustRun(t, "project", "list")
	assert.Contains(t, out, "Deep Sky")
	assert.NotContains(t, out, "M31")

	assert.Contains(t, c.mustRun(t, "project", "list", "--parent", "1"), "M31")
	assert.Equal(t, "Deep Sky / M31 / Mosaic\n", c.mustRun(t, "project", "path", "3"))

	tree := c.mustRun(t, "project", "tree")
	assert.Contains(t, tree, "Deep Sky")
	assert.Contains(t, tree, "Mosaic [3] 0 image(s)")
	assert.Contains(t, tree, "3 project(s), 0 image(s), 3 level(s)")

	_, err = c.run(t, "project", "move", "2", "--parent", "3")
	require.Error(t, err, "moving a project under its own descendant")

	_, err = c.run(t, "project", "move", "3")
	require.Error(t, err, "move needs --parent or --root")

	assert.Contains(t, c.mustRun(t, "project", "move", "3", "--root"), "to the root level")
	assert.Equal(t, "Mosaic\n", c.mustRun(t, "project", "path", "3"))

	assert.Contains(t, c.mustRun(t, "project", "rename", "3", "M31 Mosaic"), `"M31 Mosaic"`)

	_, err = c.run(t, "project", "delete", "1")
	require.Error(t, err, "project with children")

	assert.Contains(t, c.mustRun(t, "project", "delete", "1", "--cascade"), "Deleted 2 project(s) and 0 image(s)")

	_, err = c.run(t, "project", "path", "abc")
	require.Error(t, err)
}

func TestImportAndSummary(t *testing.T) {
	c := newCLI(t)
	dir := t.TempDir()
	fitstest.Write(t, dir, "night1/a.fits", frame("2025-09-29T22:00:00", 300, "Ha")...)
	fitstest.Write(t, dir, "night1/b.fits", frame("2025-09-30T00:45:00", 300, "OIII")...)
	fitstest.Write(t, dir, "night2/c.fits", frame("2025-10-01T21:00:00", 120, "Ha")...)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.fits"), []byte("not fits"), 0o600))

	c.mustRun(t, "project", "create", "M31")

	out := c.mustRun(t, "import", dir, "--project", "1")
	assert.Contains(t, out, "Scanned 4 file(s): 3 inserted, 0 duplicate(s), 1 skipped")

	out = c.mustRun(t, "import", dir, "--project", "1", "--verbose")
	assert.Contains(t, out, "duplicate")
	assert.Contains(t, out, "skipped")
	assert.Contains(t, out, "Scanned 4 file(s): 0 inserted, 3 duplicate(s), 1 skipped")

	out = c.mustRun(t, "summary", "1")
	assert.Contains(t, out, "M31 [1]")
	assert.Contains(t, out, "2025-09-29")
	assert.Contains(t, out, "2025-10-01")
	assert.Contains(t, out, "0h 10m 0s", "two 300s frames on the first night")
	assert.Contains(t, out, "0h 12m 0s", "project total")

	out = c.mustRun(t, "summary", "1", "--type", "flat")
	assert.Contains(t, out, "No images")

	out = c.mustRun(t, "stats")
	assert.Contains(t, out, "Images:            3")
}

func TestImportIntoOrganizationFails(t *testing.T) {
	c := newCLI(t)
	dir := t.TempDir()
	fitstest.Write(t, dir, "a.fits", frame("2025-09-29T22:00:00", 300, "Ha")...)

	c.mustRun(t, "project", "create", "Deep Sky", "--org")

	_, err := c.run(t, "import", dir, "--project", "1")
	require.Error(t, err)

	out := c.mustRun(t, "stats")
	assert.Contains(t, out, "Images:            0")
}

func TestMappingCommands(t *testing.T) {
	c := newCLI(t)

	out := c.mustRun(t, "mapping", "list")
	assert.Contains(t, out, "DATE-LOC")

	c.mustRun(t, "mapping", "add", "GAIN", "gain")
	assert.Contains(t, c.mustRun(t, "mapping", "list"), "gain")

	_, err := c.run(t, "mapping", "remove", "exposure")
	require.Error(t, err, "protected field")

	c.mustRun(t, "mapping", "rename", "gain", "sensor_gain")

	exported := filepath.Join(t.TempDir(), "mapping.yaml")
	c.mustRun(t, "mapping", "export", exported)
	data, err := os.ReadFile(exported)
	require.NoError(t, err)
	assert.Contains(t, string(data), "sensor_gain")

	c.mustRun(t, "mapping", "reset")
	assert.NotContains(t, c.mustRun(t, "mapping", "list"), "sensor_gain")

	assert.Contains(t, c.mustRun(t, "mapping", "load", exported), "Added 1 mapping(s)")
	assert.Contains(t, c.mustRun(t, "mapping", "export"), "sensor_gain")

	c.mustRun(t, "mapping", "remove", "sensor_gain")
	assert.NotContains(t, c.mustRun(t, "mapping", "list"), "sensor_gain")
}

func TestResetRequiresAll(t *testing.T) {
	c := newCLI(t)
	dir := t.TempDir()
	fitstest.Write(t, dir, "a.fits", frame("2025-09-29T22:00:00", 300, "Ha")...)

	c.mustRun(t, "project", "create", "M31")
	c.mustRun(t, "mapping", "add", "GAIN", "gain")
	c.mustRun(t, "import", dir, "--project", "1")

	_, err := c.run(t, "reset")
	require.Error(t, err)

	assert.Contains(t, c.mustRun(t, "reset", "--all"), "Deleted 1 project(s) and 1 image(s)")
	assert.Contains(t, c.mustRun(t, "project", "list"), "No projects")
	assert.Contains(t, c.mustRun(t, "mapping", "list"), "gain", "mappings survive a reset")
}

func TestConfigSetLocation(t *testing.T) {
	c := newCLI(t)

	out := c.mustRun(t, "config", "set-location", "60.17", "24.94")
	assert.Contains(t, out, "Observatory set to 60.1700, 24.9400")

	reloaded, err := conf.Load(c.config)
	require.NoError(t, err)
	assert.True(t, reloaded.Observatory.Enabled)
	assert.InDelta(t, 24.94, reloaded.Observatory.Longitude, 1e-9)
	assert.Equal(t, conf.DefaultDatabasePath, reloaded.Output.SQLite.Path, "--db is not written back")

	_, err = c.run(t, "config", "set-location", "91", "0")
	require.Error(t, err)

	assert.Contains(t, c.mustRun(t, "config", "show"), "latitude: 60.17")
}
