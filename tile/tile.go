/*
Package tile clips rectangular ground art to the isometric diamond footprint
of a grid cell. Tile targets keep a 2:1 ratio (64x32 at game resolution);
the source art is scaled to cover the full target rectangle before masking so
the diamond is never left partially unfilled by letterboxing.
*/
package tile

import (
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/Maniwar/Isogame/raster"
)

// Config holds the tile target geometry.
type Config struct {
	W, H int
	// AlphaFloor is the alpha above which an in-diamond pixel is forced
	// fully opaque; everything at or below it becomes fully transparent.
	AlphaFloor uint8
	// SheetRows and SheetCols describe terrain variant sheets, which carry
	// a small equal grid of tile variants.
	SheetRows, SheetCols int
}

// DefaultConfig returns the game-resolution tile target.
func DefaultConfig() Config {
	return Config{W: 64, H: 32, AlphaFloor: 10, SheetRows: 2, SheetCols: 2}
}

// Mask is the per-pixel diamond inclusion test for one target size. It is a
// pure function of the dimensions and carries no image content.
type Mask struct {
	W, H   int
	inside []bool
}

// NewMask builds the diamond mask for a w x h target. Pixel (x, y) is inside
// iff |x+0.5 - w/2|/(w/2) + |y+0.5 - h/2|/(h/2) <= 1, measured at the pixel
// center.
func NewMask(w, h int) Mask {
	m := Mask{W: w, H: h, inside: make([]bool, w*h)}
	hw, hh := float64(w)/2, float64(h)/2
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dx := math.Abs(float64(x)+0.5-hw) / hw
			dy := math.Abs(float64(y)+0.5-hh) / hh
			m.inside[y*w+x] = dx+dy <= 1
		}
	}
	return m
}

// Inside reports whether a pixel center falls within the diamond.
func (m Mask) Inside(x, y int) bool {
	return m.inside[y*m.W+x]
}

// Area returns the number of pixels inside the diamond.
func (m Mask) Area() int {
	n := 0
	for _, in := range m.inside {
		if in {
			n++
		}
	}
	return n
}

// Apply clips an image to the diamond, in place: pixels outside become fully
// transparent and pixels inside with alpha above the floor become fully
// opaque, leaving a binary edge.
func (m Mask) Apply(img *image.NRGBA, floor uint8) {
	for y := 0; y < m.H; y++ {
		for x := 0; x < m.W; x++ {
			i := img.PixOffset(x, y)
			if !m.inside[y*m.W+x] || img.Pix[i+3] <= floor {
				img.Pix[i] = 0
				img.Pix[i+1] = 0
				img.Pix[i+2] = 0
				img.Pix[i+3] = 0
			} else {
				img.Pix[i+3] = 255
			}
		}
	}
}

// Normalize turns raw tile art into a masked game tile: crop to content,
// scale to cover the target rectangle (fill, not fit), center-crop the
// excess and clip to the diamond. Returns nil for empty art.
func Normalize(art *image.NRGBA, cfg Config) *image.NRGBA {
	bounds, ok := raster.ContentBounds(art, 0)
	if !ok {
		return nil
	}
	content := imaging.Crop(art, bounds)

	// Cover: the larger scale factor guarantees the diamond has content
	// behind every inside pixel.
	scale := math.Max(
		float64(cfg.W)/float64(bounds.Dx()),
		float64(cfg.H)/float64(bounds.Dy()),
	)
	sw := int(math.Ceil(float64(bounds.Dx()) * scale))
	sh := int(math.Ceil(float64(bounds.Dy()) * scale))
	scaled := raster.ResizePremultiplied(content, sw, sh)
	out := imaging.CropCenter(scaled, cfg.W, cfg.H)

	NewMask(cfg.W, cfg.H).Apply(out, cfg.AlphaFloor)
	return out
}

// Variants slices a terrain variant sheet into its equal grid cells, in
// row-major order.
func Variants(sheet *image.NRGBA, cfg Config) []*image.NRGBA {
	b := sheet.Bounds()
	cw := b.Dx() / cfg.SheetCols
	ch := b.Dy() / cfg.SheetRows
	out := make([]*image.NRGBA, 0, cfg.SheetRows*cfg.SheetCols)
	for r := 0; r < cfg.SheetRows; r++ {
		for c := 0; c < cfg.SheetCols; c++ {
			rect := image.Rect(b.Min.X+c*cw, b.Min.Y+r*ch, b.Min.X+(c+1)*cw, b.Min.Y+(r+1)*ch)
			out = append(out, imaging.Crop(sheet, rect))
		}
	}
	return out
}
