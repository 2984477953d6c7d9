package frame

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func opaqueRect(m *image.NRGBA, r image.Rectangle, c color.NRGBA) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			m.SetNRGBA(x, y, c)
		}
	}
}

func alphaAt(m *image.NRGBA, x, y int) uint8 {
	return m.Pix[m.PixOffset(x, y)+3]
}

func TestStripSpilloverRemovesTopBand(t *testing.T) {
	cfg := DefaultConfig()

	m := image.NewNRGBA(image.Rect(0, 0, 100, 100))
	// Boot fragment from the row above, then the real body.
	opaqueRect(m, image.Rect(10, 5, 90, 15), color.NRGBA{200, 100, 50, 255})
	opaqueRect(m, image.Rect(20, 60, 80, 95), color.NRGBA{200, 100, 50, 255})

	StripSpillover(m, cfg)

	assert.EqualValues(t, 0, alphaAt(m, 50, 10), "spillover band erased")
	assert.EqualValues(t, 255, alphaAt(m, 50, 80), "body band kept")
}

func TestStripSpilloverKeepsSingleBand(t *testing.T) {
	cfg := DefaultConfig()

	m := image.NewNRGBA(image.Rect(0, 0, 100, 100))
	opaqueRect(m, image.Rect(20, 10, 80, 95), color.NRGBA{200, 100, 50, 255})

	StripSpillover(m, cfg)

	assert.EqualValues(t, 255, alphaAt(m, 50, 12))
	assert.EqualValues(t, 255, alphaAt(m, 50, 90))
}

func TestStripSpilloverMergesNarrowGaps(t *testing.T) {
	cfg := DefaultConfig()

	// A raised arm separated from the torso by fewer than GapRows
	// transparent rows is the same band, not spillover.
	m := image.NewNRGBA(image.Rect(0, 0, 100, 100))
	opaqueRect(m, image.Rect(20, 40, 80, 50), color.NRGBA{200, 100, 50, 255})
	opaqueRect(m, image.Rect(20, 55, 80, 95), color.NRGBA{200, 100, 50, 255})

	StripSpillover(m, cfg)

	assert.EqualValues(t, 255, alphaAt(m, 50, 45), "upper part of merged band kept")
	assert.EqualValues(t, 255, alphaAt(m, 50, 80))
}

func TestUniformScale(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name             string
		maxW, maxH       int
		targetW, targetH int
		want             float64
	}{
		{"fits by height", 50, 192, 64, 96, 0.5},
		{"width cap engages", 300, 96, 64, 96, 0.32},
		{"never upscales", 30, 48, 64, 96, 1},
		{"no content", 0, 0, 64, 96, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := UniformScale(tt.maxW, tt.maxH, tt.targetW, tt.targetH, cfg)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestNormalizeBottomCenters(t *testing.T) {
	cfg := DefaultConfig()

	cell := image.NewNRGBA(image.Rect(0, 0, 100, 200))
	opaqueRect(cell, image.Rect(20, 100, 80, 200), color.NRGBA{200, 100, 50, 255})

	got := Normalize(cell, 0.5, 64, 96, cfg)
	require.NotNil(t, got)

	b := got.Bounds()
	require.Equal(t, 64, b.Dx())
	require.Equal(t, 96, b.Dy())

	// 60x100 content at half scale is 30x50, sitting on the bottom edge,
	// horizontally centered.
	assert.EqualValues(t, 255, alphaAt(got, 32, 95), "feet on the ground")
	assert.EqualValues(t, 0, alphaAt(got, 32, 40), "head room above content")
	assert.EqualValues(t, 0, alphaAt(got, 5, 95), "left margin")
	assert.EqualValues(t, 0, alphaAt(got, 60, 95), "right margin")
}

func TestNormalizeBinarizesAlpha(t *testing.T) {
	cfg := DefaultConfig()

	cell := image.NewNRGBA(image.Rect(0, 0, 100, 100))
	opaqueRect(cell, image.Rect(10, 10, 90, 90), color.NRGBA{200, 100, 50, 255})

	got := Normalize(cell, 1, 64, 96, cfg)
	require.NotNil(t, got)

	for i := 3; i < len(got.Pix); i += 4 {
		a := got.Pix[i]
		assert.True(t, a == 0 || a == 255, "alpha %d is neither 0 nor 255", a)
	}
}

func TestNormalizeEmptyCell(t *testing.T) {
	cfg := DefaultConfig()

	empty := image.NewNRGBA(image.Rect(0, 0, 100, 100))
	assert.Nil(t, Normalize(empty, 1, 64, 96, cfg))

	// A few stray pixels are noise, not a frame.
	speck := image.NewNRGBA(image.Rect(0, 0, 100, 100))
	opaqueRect(speck, image.Rect(50, 50, 53, 53), color.NRGBA{200, 100, 50, 255})
	assert.Nil(t, Normalize(speck, 1, 64, 96, cfg))
}

func TestNormalizeCropsOverflow(t *testing.T) {
	cfg := DefaultConfig()

	// Content wider than the target at scale 1 gets cropped symmetrically
	// instead of panicking or stretching.
	cell := image.NewNRGBA(image.Rect(0, 0, 200, 100))
	opaqueRect(cell, image.Rect(0, 40, 200, 100), color.NRGBA{200, 100, 50, 255})

	got := Normalize(cell, 1, 64, 96, cfg)
	require.NotNil(t, got)
	assert.Equal(t, 64, got.Bounds().Dx())
	assert.Equal(t, 96, got.Bounds().Dy())
	assert.EqualValues(t, 255, alphaAt(got, 0, 95))
	assert.EqualValues(t, 255, alphaAt(got, 63, 95))
}
