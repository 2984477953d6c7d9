package palette

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	p, err := New([]string{"#FF0000", "#00FF00", "#336699"})
	require.NoError(t, err)
	require.Len(t, p, 3)
	assert.Equal(t, color.NRGBA{255, 0, 0, 255}, p[0])
	assert.Equal(t, color.NRGBA{0, 255, 0, 255}, p[1])
	assert.Equal(t, color.NRGBA{0x33, 0x66, 0x99, 255}, p[2])
}

func TestNewRejectsBadHex(t *testing.T) {
	_, err := New([]string{"#FF0000", "not-a-color"})
	assert.Error(t, err)
}

func TestDefaultPaletteParses(t *testing.T) {
	cfg := DefaultConfig()
	p, err := New(cfg.Colors)
	require.NoError(t, err)
	assert.Len(t, p, len(cfg.Colors))
}

func TestSortByBrightness(t *testing.T) {
	p, err := New([]string{"#FFFFFF", "#000000", "#808080"})
	require.NoError(t, err)

	p.SortByBrightness()

	assert.Equal(t, color.NRGBA{0, 0, 0, 255}, p[0])
	assert.Equal(t, color.NRGBA{255, 255, 255, 255}, p[2])
}

func TestNearest(t *testing.T) {
	p, err := New([]string{"#000000", "#FF0000", "#FFFFFF"})
	require.NoError(t, err)

	tests := []struct {
		name string
		in   color.NRGBA
		want color.NRGBA
	}{
		{"exact match", color.NRGBA{255, 0, 0, 255}, color.NRGBA{255, 0, 0, 255}},
		{"near black", color.NRGBA{10, 12, 8, 255}, color.NRGBA{0, 0, 0, 255}},
		{"near white", color.NRGBA{240, 250, 245, 255}, color.NRGBA{255, 255, 255, 255}},
		{"dark red", color.NRGBA{200, 30, 20, 255}, color.NRGBA{255, 0, 0, 255}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Nearest(tt.in))
		})
	}
}

func paletteSet(p Palette) map[color.NRGBA]struct{} {
	set := make(map[color.NRGBA]struct{}, len(p))
	for _, c := range p {
		set[c] = struct{}{}
	}
	return set
}

func TestQuantizeMapsOntoReference(t *testing.T) {
	cfg := DefaultConfig()
	p, err := New(cfg.Colors)
	require.NoError(t, err)

	m := image.NewNRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			m.SetNRGBA(x, y, color.NRGBA{uint8(x * 8), uint8(y * 8), 100, 255})
		}
	}

	out := Quantize(m, p, cfg)
	require.Equal(t, m.Bounds(), out.Bounds())

	set := paletteSet(p)
	for i := 0; i < len(out.Pix); i += 4 {
		c := color.NRGBA{out.Pix[i], out.Pix[i+1], out.Pix[i+2], 255}
		_, ok := set[c]
		require.True(t, ok, "pixel color %v not in reference palette", c)
	}
}

func TestQuantizePreservesAlpha(t *testing.T) {
	cfg := DefaultConfig()
	p, err := New(cfg.Colors)
	require.NoError(t, err)

	m := image.NewNRGBA(image.Rect(0, 0, 4, 1))
	m.SetNRGBA(0, 0, color.NRGBA{200, 100, 50, 255})
	m.SetNRGBA(1, 0, color.NRGBA{200, 100, 50, 0})
	m.SetNRGBA(2, 0, color.NRGBA{200, 100, 50, 5})
	m.SetNRGBA(3, 0, color.NRGBA{200, 100, 50, 200})

	out := Quantize(m, p, cfg)

	assert.EqualValues(t, 255, out.Pix[3])
	assert.EqualValues(t, 0, out.Pix[7])
	assert.EqualValues(t, 5, out.Pix[11], "sub-floor alpha passes through")
	assert.EqualValues(t, 200, out.Pix[15])

	// Transparent pixels keep their RGB untouched.
	assert.EqualValues(t, 200, out.Pix[4])
}

func TestQuantizeTransparentImagePassesThrough(t *testing.T) {
	cfg := DefaultConfig()
	p, err := New(cfg.Colors)
	require.NoError(t, err)

	m := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	out := Quantize(m, p, cfg)

	assert.Equal(t, m.Pix, out.Pix, "nothing to cluster, nothing to change")
}

func TestQuantizeDeterministic(t *testing.T) {
	cfg := DefaultConfig()
	p, err := New(cfg.Colors)
	require.NoError(t, err)

	m := image.NewNRGBA(image.Rect(0, 0, 48, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 48; x++ {
			m.SetNRGBA(x, y, color.NRGBA{uint8(x * 5), uint8(y * 5), uint8((x + y) * 2), 255})
		}
	}

	a := Quantize(m, p, cfg)
	b := Quantize(m, p, cfg)

	assert.Equal(t, a.Pix, b.Pix, "median-cut path must be repeatable")
}

func TestQuantizeKMeansMapsOntoReference(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Method = MethodKMeans
	p, err := New(cfg.Colors)
	require.NoError(t, err)

	m := image.NewNRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			m.SetNRGBA(x, y, color.NRGBA{uint8(x * 8), uint8(y * 8), 100, 255})
		}
	}

	out := Quantize(m, p, cfg)

	set := paletteSet(p)
	for i := 0; i < len(out.Pix); i += 4 {
		c := color.NRGBA{out.Pix[i], out.Pix[i+1], out.Pix[i+2], 255}
		_, ok := set[c]
		require.True(t, ok, "pixel color %v not in reference palette", c)
	}
}

func TestQuantizeEmptyPalette(t *testing.T) {
	cfg := DefaultConfig()

	m := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	m.SetNRGBA(1, 1, color.NRGBA{200, 100, 50, 255})

	out := Quantize(m, nil, cfg)
	assert.Equal(t, m.Pix, out.Pix)
}
