package chroma

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fillRect(m *image.NRGBA, r image.Rectangle, c color.NRGBA) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			m.SetNRGBA(x, y, c)
		}
	}
}

func alphaAt(m *image.NRGBA, x, y int) uint8 {
	return m.Pix[m.PixOffset(x, y)+3]
}

func TestIsGreen(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name    string
		r, g, b uint8
		want    bool
	}{
		{"pure chroma green", 0, 255, 0, true},
		{"drifted green", 100, 220, 120, true},
		{"green below minimum", 40, 90, 20, false},
		{"green not dominant over red", 200, 210, 50, false},
		{"green not dominant over blue", 60, 220, 195, false},
		{"gray", 128, 128, 128, false},
		{"skin tone", 224, 172, 105, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsGreen(tt.r, tt.g, tt.b, cfg))
		})
	}
}

func TestRemoveChromaKey(t *testing.T) {
	cfg := DefaultConfig()

	m := image.NewNRGBA(image.Rect(0, 0, 64, 64))
	fillRect(m, m.Bounds(), color.NRGBA{100, 220, 120, 255})
	// Subject in the middle, clearly not green.
	fillRect(m, image.Rect(20, 20, 44, 44), color.NRGBA{40, 40, 200, 255})
	// Anti-aliased edge pixel: fails the dominance test but sits close to
	// the measured background color.
	m.SetNRGBA(19, 19, color.NRGBA{140, 190, 160, 255})

	Remove(m, cfg)

	assert.EqualValues(t, 0, alphaAt(m, 0, 0), "background corner")
	assert.EqualValues(t, 0, alphaAt(m, 63, 63), "background corner")
	assert.EqualValues(t, 0, alphaAt(m, 19, 19), "near-background halo pixel")
	assert.EqualValues(t, 255, alphaAt(m, 32, 32), "subject center")
	assert.EqualValues(t, 255, alphaAt(m, 20, 20), "subject corner")
}

func TestRemoveChromaKeyFullSizeSheet(t *testing.T) {
	// Perimeters past 256 pixels force the dominant-color sampler to
	// downscale the border buffer; the buffer must keep enough height to
	// survive that. Exercised here at production sheet dimensions.
	cfg := DefaultConfig()

	m := image.NewNRGBA(image.Rect(0, 0, 1600, 1200))
	fillRect(m, m.Bounds(), color.NRGBA{100, 220, 120, 255})
	fillRect(m, image.Rect(700, 500, 900, 700), color.NRGBA{40, 40, 200, 255})
	// Halo pixel: not green by dominance, close to the measured background.
	m.SetNRGBA(699, 499, color.NRGBA{140, 190, 160, 255})

	Remove(m, cfg)

	assert.EqualValues(t, 0, alphaAt(m, 0, 0), "background corner")
	assert.EqualValues(t, 0, alphaAt(m, 1599, 1199), "background corner")
	assert.EqualValues(t, 0, alphaAt(m, 699, 499), "near-background halo pixel")
	assert.EqualValues(t, 255, alphaAt(m, 800, 600), "subject center")
}

func TestBorderStripCompact(t *testing.T) {
	m := image.NewNRGBA(image.Rect(0, 0, 1600, 1200))
	fillRect(m, m.Bounds(), color.NRGBA{100, 220, 120, 255})

	strip := borderStrip(m)
	require.NotNil(t, strip)

	b := strip.Bounds()
	assert.Equal(t, b.Dx(), b.Dy(), "buffer is square")
	assert.LessOrEqual(t, b.Dx(), 80, "buffer stays compact")

	opaque := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if alphaAt(strip, x, y) == 255 {
				opaque++
			}
		}
	}
	perimeter := 2*1600 + 2*(1200-2)
	assert.Equal(t, perimeter, opaque, "every border pixel sampled exactly once")
}

func TestRemoveSolidBackground(t *testing.T) {
	cfg := DefaultConfig()

	m := image.NewNRGBA(image.Rect(0, 0, 64, 64))
	fillRect(m, m.Bounds(), color.NRGBA{128, 128, 128, 255})
	fillRect(m, image.Rect(20, 20, 44, 44), color.NRGBA{200, 40, 40, 255})

	Remove(m, cfg)

	assert.EqualValues(t, 0, alphaAt(m, 0, 0))
	assert.EqualValues(t, 0, alphaAt(m, 10, 50))
	assert.EqualValues(t, 255, alphaAt(m, 32, 32))
}

func TestRemoveCheckerboard(t *testing.T) {
	cfg := DefaultConfig()

	m := image.NewNRGBA(image.Rect(0, 0, 64, 64))
	light := color.NRGBA{200, 200, 200, 255}
	white := color.NRGBA{255, 255, 255, 255}
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			if (x/8+y/8)%2 == 0 {
				m.SetNRGBA(x, y, light)
			} else {
				m.SetNRGBA(x, y, white)
			}
		}
	}
	fillRect(m, image.Rect(22, 22, 42, 42), color.NRGBA{120, 30, 30, 255})

	Remove(m, cfg)

	assert.EqualValues(t, 0, alphaAt(m, 0, 0), "light square")
	assert.EqualValues(t, 0, alphaAt(m, 12, 0), "white square")
	assert.EqualValues(t, 255, alphaAt(m, 32, 32), "subject")
}

func TestRemoveLeavesTransparentSheets(t *testing.T) {
	cfg := DefaultConfig()

	m := image.NewNRGBA(image.Rect(0, 0, 64, 64))
	fillRect(m, image.Rect(20, 20, 44, 44), color.NRGBA{200, 40, 40, 255})

	before := make([]byte, len(m.Pix))
	copy(before, m.Pix)

	Remove(m, cfg)

	assert.Equal(t, before, m.Pix, "already-clean sheet must pass through unchanged")
}

func TestRemoveKeepsSubjectSharingNoBorder(t *testing.T) {
	// A subject that fills most of the frame: the border fallback must not
	// strip it even though the border is fully opaque, because the border
	// color only covers the rim.
	cfg := DefaultConfig()

	m := image.NewNRGBA(image.Rect(0, 0, 64, 64))
	fillRect(m, m.Bounds(), color.NRGBA{90, 60, 40, 255})
	fillRect(m, image.Rect(2, 2, 62, 62), color.NRGBA{210, 180, 140, 255})

	Remove(m, cfg)

	require.EqualValues(t, 255, alphaAt(m, 32, 32), "dominant subject survives")
}
