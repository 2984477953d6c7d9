/*
Package palette maps processed frames onto the game's fixed reference
palette. Quantization is two-step: an image's colors are first collapsed to a
small number of representative clusters, then each cluster representative is
snapped to its nearest reference color. The alpha channel never participates
and is reattached untouched.
*/
package palette

import (
	"image"
	"image/color"
	"sort"

	"github.com/ericpauley/go-quantize/quantize"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
)

// Method selects the cluster-reduction pass.
type Method string

const (
	// MethodMedianCut is the deterministic median-cut reduction. It is the
	// default: re-running the pipeline over unchanged input must produce
	// byte-identical frames.
	MethodMedianCut Method = "mediancut"
	// MethodKMeans clusters opaque pixel colors with k-means. Perceptually
	// better on photographic gradients but not deterministic; kept behind
	// config for offline experiments.
	MethodKMeans Method = "kmeans"
)

// Config holds the quantizer settings.
type Config struct {
	// Colors is the reference palette as hex strings, in draw order.
	Colors []string
	// Size is the representative cluster count for the reduction pass.
	Size int
	// Method selects the reduction pass implementation.
	Method Method
	// AlphaFloor is the alpha above which a pixel participates in
	// clustering and gets color-mapped.
	AlphaFloor uint8
}

// DefaultConfig returns the stock wasteland palette.
func DefaultConfig() Config {
	return Config{
		Colors: []string{
			"#D4C4A0", "#B8A67C", // sand
			"#8B7355", "#6B5340", "#5C4A3A", // dirt, mud
			"#C4703A", "#A0522D", "#7A3B1E", // rust
			"#9E9E8E", "#6E6E5E", // metal
			"#7A8B5A", "#4A5B3A", "#6B7B4A", // faded greens
			"#C8BFA0", "#3A3A2E", "#1E1E16", // haze, shadow, black
			"#8EC44A", "#B83030", "#40C040", // glow, warning, pip
		},
		Size:       32,
		Method:     MethodMedianCut,
		AlphaFloor: 10,
	}
}

// Palette is an ordered list of reference colors. It is immutable once
// built and safe to share across workers.
type Palette []color.NRGBA

// New parses hex colors into a palette.
func New(hexes []string) (Palette, error) {
	p := make(Palette, 0, len(hexes))
	for _, h := range hexes {
		c, err := colorful.Hex(h)
		if err != nil {
			return nil, err
		}
		r, g, b := c.RGB255()
		p = append(p, color.NRGBA{r, g, b, 255})
	}
	return p, nil
}

// SortByBrightness orders the palette darkest first, using linear-RGB
// luminance.
func (p Palette) SortByBrightness() {
	sort.SliceStable(p, func(i, j int) bool {
		return luminance(p[i]) < luminance(p[j])
	})
}

func luminance(c color.NRGBA) float64 {
	cf := colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
	r, g, b := cf.LinearRgb()
	return 0.2126*r + 0.7152*g + 0.0722*b
}

// Nearest returns the palette color with the smallest squared RGB distance
// to the given color.
func (p Palette) Nearest(c color.NRGBA) color.NRGBA {
	best := p[0]
	bestD := 1 << 30
	for _, pc := range p {
		dr := int(c.R) - int(pc.R)
		dg := int(c.G) - int(pc.G)
		db := int(c.B) - int(pc.B)
		if d := dr*dr + dg*dg + db*db; d < bestD {
			bestD = d
			best = pc
		}
	}
	return best
}

// Quantize maps every opaque pixel of m onto the reference palette and
// returns a new buffer. Alpha is copied through unchanged, and transparent
// pixels never influence the clustering. A fully transparent image passes
// through unmapped: with no opaque pixels there is nothing to cluster.
func Quantize(m *image.NRGBA, p Palette, cfg Config) *image.NRGBA {
	b := m.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	copy(out.Pix, m.Pix)
	if len(p) == 0 {
		return out
	}

	opaque := collectOpaque(m, cfg.AlphaFloor)
	if len(opaque) == 0 {
		return out
	}

	var reduced []color.NRGBA
	switch cfg.Method {
	case MethodKMeans:
		reduced = reduceKMeans(opaque, cfg.Size)
	default:
		reduced = reduceMedianCut(opaque, cfg.Size)
	}
	if len(reduced) == 0 {
		reduced = opaque
	}

	// Each representative maps to one reference color; pixels then follow
	// their representative.
	refFor := make(map[color.NRGBA]color.NRGBA, len(reduced))
	for _, rc := range reduced {
		refFor[rc] = p.Nearest(rc)
	}
	cache := make(map[color.NRGBA]color.NRGBA)

	for i := 0; i < len(out.Pix); i += 4 {
		if out.Pix[i+3] <= cfg.AlphaFloor {
			continue
		}
		c := color.NRGBA{out.Pix[i], out.Pix[i+1], out.Pix[i+2], 255}
		mapped, ok := cache[c]
		if !ok {
			mapped = refFor[nearestOf(reduced, c)]
			cache[c] = mapped
		}
		out.Pix[i] = mapped.R
		out.Pix[i+1] = mapped.G
		out.Pix[i+2] = mapped.B
	}
	return out
}

// collectOpaque gathers the distinct colors of content pixels.
func collectOpaque(m *image.NRGBA, floor uint8) []color.NRGBA {
	seen := make(map[color.NRGBA]struct{})
	var out []color.NRGBA
	for i := 0; i < len(m.Pix); i += 4 {
		if m.Pix[i+3] <= floor {
			continue
		}
		c := color.NRGBA{m.Pix[i], m.Pix[i+1], m.Pix[i+2], 255}
		if _, ok := seen[c]; !ok {
			seen[c] = struct{}{}
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return pack(out[i]) < pack(out[j])
	})
	return out
}

func pack(c color.NRGBA) uint32 {
	return uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}

// reduceMedianCut collapses the color set with the median-cut quantizer.
func reduceMedianCut(opaque []color.NRGBA, size int) []color.NRGBA {
	if len(opaque) <= size {
		return opaque
	}
	strip := image.NewNRGBA(image.Rect(0, 0, len(opaque), 1))
	for i, c := range opaque {
		strip.Pix[i*4] = c.R
		strip.Pix[i*4+1] = c.G
		strip.Pix[i*4+2] = c.B
		strip.Pix[i*4+3] = 255
	}
	q := quantize.MedianCutQuantizer{}
	pal := q.Quantize(make(color.Palette, 0, size), strip)

	out := make([]color.NRGBA, 0, len(pal))
	for _, c := range pal {
		r, g, b, _ := c.RGBA()
		out = append(out, color.NRGBA{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), 255})
	}
	return out
}

// reduceKMeans clusters the color set and returns the cluster centers.
func reduceKMeans(opaque []color.NRGBA, size int) []color.NRGBA {
	if len(opaque) <= size {
		return opaque
	}
	dataset := make(clusters.Observations, 0, len(opaque))
	for _, c := range opaque {
		dataset = append(dataset, clusters.Coordinates{
			float64(c.R) / 255,
			float64(c.G) / 255,
			float64(c.B) / 255,
		})
	}
	km := kmeans.New()
	cc, err := km.Partition(dataset, size)
	if err != nil || len(cc) == 0 {
		return nil
	}
	out := make([]color.NRGBA, 0, len(cc))
	for _, c := range cc {
		center := c.Center
		if len(center) < 3 {
			continue
		}
		out = append(out, color.NRGBA{
			clamp255(center[0] * 255),
			clamp255(center[1] * 255),
			clamp255(center[2] * 255),
			255,
		})
	}
	return out
}

func clamp255(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

func nearestOf(set []color.NRGBA, c color.NRGBA) color.NRGBA {
	best := set[0]
	bestD := 1 << 30
	for _, sc := range set {
		dr := int(c.R) - int(sc.R)
		dg := int(c.G) - int(sc.G)
		db := int(c.B) - int(sc.B)
		if d := dr*dr + dg*dg + db*db; d < bestD {
			bestD = d
			best = sc
		}
	}
	return best
}
