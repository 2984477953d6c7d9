package frame

import (
	"image"

	"github.com/disintegration/imaging"

	"github.com/Maniwar/Isogame/raster"
)

// Config holds the normalizer and filler tuning.
type Config struct {
	// AlphaFloor is the alpha above which a pixel counts as content.
	AlphaFloor uint8
	// AlphaCutoff binarizes the alpha channel after resampling; everything
	// below becomes fully transparent, everything at or above fully opaque.
	AlphaCutoff uint8
	// GapRows is the transparent gap height that separates two content
	// bands inside a cell. Smaller gaps are treated as part of one band.
	GapRows int
	// MinContentPixels is the opaque pixel count below which a normalized
	// frame counts as empty.
	MinContentPixels int
	// WidthCap limits how far content may overflow the target width, as a
	// multiple of it, before the sheet scale is reduced. It keeps one wide
	// outlier pose (a weapon swung sideways) from shrinking every frame.
	WidthCap float64
	// DefringeMax is the maximum channel value of an edge pixel that the
	// de-fringe pass may clear.
	DefringeMax uint8
	// DefringePasses is how many erosion rounds the de-fringe pass runs.
	DefringePasses int
	// NoMirror disables direction mirroring for subjects that are not
	// bilaterally symmetric; missing directions then fall through to the
	// last-resort fill.
	NoMirror bool
}

// DefaultConfig returns the tuning used for 64x96 character frames.
func DefaultConfig() Config {
	return Config{
		AlphaFloor:       10,
		AlphaCutoff:      128,
		GapRows:          8,
		MinContentPixels: 50,
		WidthCap:         1.5,
		DefringeMax:      30,
		DefringePasses:   2,
	}
}

// StripSpillover erases content bands that leaked in from the row above, in
// place. Characters overflow their grid cell, so after slicing a cell can
// hold a boot or head fragment near its top, separated from the real body by
// a transparent gap. The body is always bottom-anchored (sprites stand on
// the ground), so only the bottommost band is kept.
func StripSpillover(m *image.NRGBA, cfg Config) {
	b := m.Bounds()
	w, h := b.Dx(), b.Dy()

	rowHasContent := make([]bool, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if m.Pix[m.PixOffset(b.Min.X+x, b.Min.Y+y)+3] > cfg.AlphaFloor {
				rowHasContent[y] = true
				break
			}
		}
	}

	type band struct{ start, end int }
	var bands []band
	inBand := false
	start := 0
	for y := 0; y < h; y++ {
		if rowHasContent[y] {
			if !inBand {
				start = y
				inBand = true
			}
		} else if inBand {
			bands = append(bands, band{start, y})
			inBand = false
		}
	}
	if inBand {
		bands = append(bands, band{start, h})
	}
	if len(bands) <= 1 {
		return
	}

	merged := bands[:1]
	for _, bd := range bands[1:] {
		prev := &merged[len(merged)-1]
		if bd.start-prev.end < cfg.GapRows {
			prev.end = bd.end
		} else {
			merged = append(merged, bd)
		}
	}
	if len(merged) <= 1 {
		return
	}

	// Erase everything above the bottom band.
	for _, bd := range merged[:len(merged)-1] {
		for y := bd.start; y < bd.end; y++ {
			for x := 0; x < w; x++ {
				i := m.PixOffset(b.Min.X+x, b.Min.Y+y)
				m.Pix[i+3] = 0
			}
		}
	}
}

// UniformScale derives the single scale factor applied to every cell of a
// sheet, from the largest content box seen across its cells. Scaling each
// frame independently made character size drift between animation rows, so
// the scale is a sheet-wide invariant: target height over max content
// height, reduced only if that would push content wider than WidthCap times
// the target width, and never above 1.
func UniformScale(maxW, maxH, targetW, targetH int, cfg Config) float64 {
	if maxW <= 0 || maxH <= 0 {
		return 1
	}
	scale := float64(targetH) / float64(maxH)
	if limit := cfg.WidthCap * float64(targetW); float64(maxW)*scale > limit {
		scale = limit / float64(maxW)
	}
	if scale > 1 {
		scale = 1
	}
	return scale
}

// Normalize turns one spillover-stripped cell into a target-size frame:
// crop to content, resize by the sheet scale with premultiplied alpha,
// bottom-center onto the canvas, binarize the alpha and de-fringe.
// Returns nil when the cell has no content worth keeping.
func Normalize(cell *image.NRGBA, scale float64, targetW, targetH int, cfg Config) *image.NRGBA {
	bounds, ok := raster.ContentBounds(cell, cfg.AlphaFloor)
	if !ok {
		return nil
	}
	content := imaging.Crop(cell, bounds)

	newW := int(float64(bounds.Dx()) * scale)
	newH := int(float64(bounds.Dy()) * scale)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}
	scaled := raster.ResizePremultiplied(content, newW, newH)
	raster.ThresholdAlpha(scaled, cfg.AlphaCutoff)

	canvas := image.NewNRGBA(image.Rect(0, 0, targetW, targetH))

	// Horizontally center, cropping overflow symmetrically; vertically
	// bottom-anchor so the feet stay at a constant on-screen position,
	// cropping overflow off the top.
	srcX, dstX, w := 0, (targetW-newW)/2, newW
	if newW > targetW {
		srcX, dstX, w = (newW-targetW)/2, 0, targetW
	}
	srcY, dstY, h := 0, targetH-newH, newH
	if newH > targetH {
		srcY, dstY, h = newH-targetH, 0, targetH
	}
	for y := 0; y < h; y++ {
		si := scaled.PixOffset(srcX, srcY+y)
		di := canvas.PixOffset(dstX, dstY+y)
		copy(canvas.Pix[di:di+w*4], scaled.Pix[si:si+w*4])
	}

	raster.Defringe(canvas, cfg.DefringeMax, cfg.DefringePasses)

	if raster.CountOpaque(canvas, cfg.AlphaFloor) < cfg.MinContentPixels {
		return nil
	}
	return canvas
}
