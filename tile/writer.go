package tile

import (
	"errors"
	"image"
	"image/png"
	"io"
)

// Encode writes a masked tile to w as PNG. The image must match the
// configured target size exactly.
func Encode(w io.Writer, m image.Image, cfg Config) error {
	b := m.Bounds()
	if b.Dx() != cfg.W || b.Dy() != cfg.H {
		return errors.New("tile: image is wrong size")
	}

	return png.Encode(w, m)
}
