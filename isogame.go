/*
Package isogame normalizes AI-generated sprite sheets and terrain tiles into
game-ready assets. Generated sheets arrive with unreliable backgrounds,
irregular grids and missing animation frames; the pipeline removes the
background, detects the real grid, normalizes every cell to the target frame
size, completes the animation set, quantizes to the game palette and clips
ground tiles to the isometric diamond.
*/
package isogame

import (
	"errors"
	"io"

	"github.com/sirupsen/logrus"
)

// ErrUnreadableSheet wraps decode failures. A sheet that cannot be read is
// skipped and counted; the batch carries on.
var ErrUnreadableSheet = errors.New("unreadable sheet")

// Pipeline processes batches of generated assets.
type Pipeline struct {
	cfg    Config
	logger *logrus.Logger
}

// New returns a pipeline using the given configuration. A nil logger
// discards all output.
func New(cfg Config, logger *logrus.Logger) *Pipeline {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	return &Pipeline{
		cfg:    cfg,
		logger: logger,
	}
}
