package isogame

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, Target{W: 64, H: 96}, cfg.Sprite)
	assert.Equal(t, 64, cfg.Tile.W)
	assert.Equal(t, 32, cfg.Tile.H)
	assert.Equal(t, 6, cfg.Nominal.Rows)
	assert.Equal(t, 8, cfg.Nominal.Cols)
	assert.NotEmpty(t, cfg.Palette.Colors)
	assert.NotEmpty(t, cfg.Grid.Kernels)
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "assetgen.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
version: 2
workers: 2
sprite:
  w: 32
  h: 48
frame:
  nomirror: true
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Version)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, Target{W: 32, H: 48}, cfg.Sprite)
	assert.True(t, cfg.Frame.NoMirror)

	// Everything not mentioned keeps its default.
	assert.Equal(t, 64, cfg.Tile.W)
	assert.Equal(t, DefaultConfig().Palette.Colors, cfg.Palette.Colors)
	assert.Equal(t, DefaultConfig().Chroma.GreenMin, cfg.Chroma.GreenMin)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
