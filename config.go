package isogame

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/Maniwar/Isogame/chroma"
	"github.com/Maniwar/Isogame/frame"
	"github.com/Maniwar/Isogame/grid"
	"github.com/Maniwar/Isogame/palette"
	"github.com/Maniwar/Isogame/tile"
)

const defaultWorkers = 4

// Target is an output frame size in pixels.
type Target struct {
	W, H int
}

// Config collects every tuning constant of the pipeline in one versioned
// structure. All thresholds are calibrated against a particular generator;
// bump Version when recalibrating so deployed assets can be told apart.
type Config struct {
	Version int
	// Workers is the number of concurrent sheet workers.
	Workers int

	// Sprite is the output frame size for character sheets.
	Sprite Target
	// Nominal is the grid layout the generation prompt asked for. The
	// detector treats it as a hint, not a promise.
	Nominal grid.Nominal

	Chroma  chroma.Config
	Grid    grid.Config
	Frame   frame.Config
	Palette palette.Config
	Tile    tile.Config
}

// DefaultConfig returns the tuned constants for the current generator.
func DefaultConfig() Config {
	return Config{
		Version: 1,
		Workers: defaultWorkers,
		Sprite:  Target{W: 64, H: 96},
		Nominal: grid.Nominal{Rows: 6, Cols: 8},
		Chroma:  chroma.DefaultConfig(),
		Grid:    grid.DefaultConfig(),
		Frame:   frame.DefaultConfig(),
		Palette: palette.DefaultConfig(),
		Tile:    tile.DefaultConfig(),
	}
}

// LoadConfig reads a config file over the defaults, so a file only needs the
// values it changes.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}
