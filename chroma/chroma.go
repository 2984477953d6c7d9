/*
Package chroma removes the backgrounds the generation service actually
produces: bright green chroma key, a single solid color, or a visible
checkerboard drawn in place of real transparency.

Removal must run before any palette work, while the raw generated colors are
still intact. When no background can be confidently identified the image is
passed through unchanged; leaving stray background beats stripping content.
*/
package chroma

import (
	"image"
	"math"
	"sort"

	"github.com/cenkalti/dominantcolor"
	"gonum.org/v1/gonum/stat"
)

// Config holds the classifier thresholds. The defaults were tuned against one
// generator's output distribution; a different generator likely needs
// recalibration.
type Config struct {
	// GreenMin is the minimum green channel value for the chroma-key pass.
	GreenMin int
	// GreenOverRed and GreenOverBlue are the margins by which green must
	// exceed the other channels.
	GreenOverRed  int
	GreenOverBlue int
	// RefDistSq is the squared-distance threshold around the measured mean
	// background color; it catches desaturated and anti-aliased green.
	RefDistSq int
	// BorderOpaqueMin is the opaque border fraction above which the
	// solid/checkerboard fallback runs.
	BorderOpaqueMin float64
	// ClusterSplit is the mean point-to-median border distance separating
	// a solid background (one cluster) from a checkerboard (two).
	ClusterSplit float64
	// SolidDist / CheckerDist are per-cluster color match radii.
	SolidDist   float64
	CheckerDist float64
	// SolidMinArea / CheckerMinArea guard against stripping legitimately
	// solid-colored subjects: removal only happens when at least this
	// fraction of the whole image matches the background cluster(s).
	SolidMinArea   float64
	CheckerMinArea float64
	// AlphaFloor is the alpha value below which a pixel already counts as
	// transparent.
	AlphaFloor uint8
}

// DefaultConfig returns the thresholds tuned for the current generator.
func DefaultConfig() Config {
	return Config{
		GreenMin:        100,
		GreenOverRed:    20,
		GreenOverBlue:   30,
		RefDistSq:       5000,
		BorderOpaqueMin: 0.5,
		ClusterSplit:    20,
		SolidDist:       40,
		CheckerDist:     45,
		SolidMinArea:    0.30,
		CheckerMinArea:  0.25,
		AlphaFloor:      10,
	}
}

// Remove sets the alpha of background pixels to zero, in place, and returns
// the same buffer. Non-background pixels are untouched.
func Remove(m *image.NRGBA, cfg Config) *image.NRGBA {
	removeGreen(m, cfg)
	if borderOpaqueFraction(m, cfg.AlphaFloor) > cfg.BorderOpaqueMin {
		removeBorderClusters(m, cfg)
	}
	return m
}

// IsGreen reports whether a color passes the green-dominance test.
func IsGreen(r, g, b uint8, cfg Config) bool {
	return int(g) > cfg.GreenMin && int(g) > int(r)+cfg.GreenOverRed && int(g) > int(b)+cfg.GreenOverBlue
}

func removeGreen(m *image.NRGBA, cfg Config) {
	// The reference mean is measured from the border rather than hardcoded:
	// the generator's "green" drifts between runs.
	refR, refG, refB, hasRef := measureBorderGreen(m, cfg)

	for i := 0; i < len(m.Pix); i += 4 {
		r, g, b := m.Pix[i], m.Pix[i+1], m.Pix[i+2]
		if IsGreen(r, g, b, cfg) {
			m.Pix[i+3] = 0
			continue
		}
		if hasRef {
			dr := int(r) - refR
			dg := int(g) - refG
			db := int(b) - refB
			if dr*dr+dg*dg+db*db < cfg.RefDistSq {
				m.Pix[i+3] = 0
			}
		}
	}
}

// measureBorderGreen finds the dominant border color and returns it as the
// chroma reference, but only when that color is itself green-dominant.
// A non-green border means the distance pass would eat content.
func measureBorderGreen(m *image.NRGBA, cfg Config) (r, g, b int, ok bool) {
	strip := borderStrip(m)
	if strip == nil {
		return 0, 0, 0, false
	}
	c := dominantcolor.Find(strip)
	if !IsGreen(c.R, c.G, c.B, cfg) {
		return 0, 0, 0, false
	}
	return int(c.R), int(c.G), int(c.B), true
}

// borderStrip copies the outermost pixel frame into a near-square buffer.
// The dominant-color measurement downscales wide images to 256px preserving
// aspect ratio, so a long 1-pixel-tall strip would collapse to zero height;
// a square survives the downscale at any sheet size. Unfilled trailing
// pixels stay transparent and are skipped by the sampler.
func borderStrip(m *image.NRGBA) *image.NRGBA {
	b := m.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < 2 || h < 2 {
		return nil
	}
	n := 2*w + 2*(h-2)
	side := int(math.Ceil(math.Sqrt(float64(n))))
	strip := image.NewNRGBA(image.Rect(0, 0, side, side))
	i := 0
	put := func(x, y int) {
		s := m.PixOffset(b.Min.X+x, b.Min.Y+y)
		copy(strip.Pix[i*4:i*4+4], m.Pix[s:s+4])
		strip.Pix[i*4+3] = 255
		i++
	}
	for x := 0; x < w; x++ {
		put(x, 0)
		put(x, h-1)
	}
	for y := 1; y < h-1; y++ {
		put(0, y)
		put(w-1, y)
	}
	return strip
}

func borderOpaqueFraction(m *image.NRGBA, floor uint8) float64 {
	b := m.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return 0
	}
	opaque, total := 0, 0
	visit := func(x, y int) {
		if m.Pix[m.PixOffset(b.Min.X+x, b.Min.Y+y)+3] > floor {
			opaque++
		}
		total++
	}
	for x := 0; x < w; x++ {
		visit(x, 0)
		if h > 1 {
			visit(x, h-1)
		}
	}
	for y := 1; y < h-1; y++ {
		visit(0, y)
		if w > 1 {
			visit(w-1, y)
		}
	}
	return float64(opaque) / float64(total)
}

type rgb struct{ r, g, b float64 }

// removeBorderClusters handles solid and checkerboard backgrounds. Border
// pixels are clustered around their per-channel median; low distance variance
// means one solid color, high variance means two alternating colors.
func removeBorderClusters(m *image.NRGBA, cfg Config) {
	b := m.Bounds()
	w, h := b.Dx(), b.Dy()

	var border []rgb
	visit := func(x, y int) {
		i := m.PixOffset(b.Min.X+x, b.Min.Y+y)
		if m.Pix[i+3] > cfg.AlphaFloor {
			border = append(border, rgb{float64(m.Pix[i]), float64(m.Pix[i+1]), float64(m.Pix[i+2])})
		}
	}
	for x := 0; x < w; x++ {
		visit(x, 0)
		if h > 1 {
			visit(x, h-1)
		}
	}
	for y := 1; y < h-1; y++ {
		visit(0, y)
		if w > 1 {
			visit(w-1, y)
		}
	}
	if len(border) == 0 {
		return
	}

	med := medianColor(border)
	dists := make([]float64, len(border))
	for i, p := range border {
		dists[i] = math.Sqrt(sq(p.r-med.r) + sq(p.g-med.g) + sq(p.b-med.b))
	}
	meanDist := stat.Mean(dists, nil)

	var clusters []rgb
	var matchDist, minArea float64
	if meanDist > cfg.ClusterSplit {
		// Two-cluster split: pixels nearer/farther than the mean distance.
		var near, far []rgb
		for i, p := range border {
			if dists[i] > meanDist {
				far = append(far, p)
			} else {
				near = append(near, p)
			}
		}
		if len(near) > 0 {
			clusters = append(clusters, medianColor(near))
		}
		if len(far) > 0 {
			clusters = append(clusters, medianColor(far))
		}
		matchDist, minArea = cfg.CheckerDist, cfg.CheckerMinArea
	} else {
		clusters = []rgb{med}
		matchDist, minArea = cfg.SolidDist, cfg.SolidMinArea
	}

	matchSq := matchDist * matchDist
	matched := make([]bool, w*h)
	count := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := m.PixOffset(b.Min.X+x, b.Min.Y+y)
			p := rgb{float64(m.Pix[i]), float64(m.Pix[i+1]), float64(m.Pix[i+2])}
			for _, c := range clusters {
				if sq(p.r-c.r)+sq(p.g-c.g)+sq(p.b-c.b) < matchSq {
					matched[y*w+x] = true
					count++
					break
				}
			}
		}
	}

	if float64(count)/float64(w*h) <= minArea {
		return
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if matched[y*w+x] {
				m.Pix[m.PixOffset(b.Min.X+x, b.Min.Y+y)+3] = 0
			}
		}
	}
}

func medianColor(ps []rgb) rgb {
	rs := make([]float64, len(ps))
	gs := make([]float64, len(ps))
	bs := make([]float64, len(ps))
	for i, p := range ps {
		rs[i], gs[i], bs[i] = p.r, p.g, p.b
	}
	sort.Float64s(rs)
	sort.Float64s(gs)
	sort.Float64s(bs)
	return rgb{
		stat.Quantile(0.5, stat.Empirical, rs, nil),
		stat.Quantile(0.5, stat.Empirical, gs, nil),
		stat.Quantile(0.5, stat.Empirical, bs, nil),
	}
}

func sq(v float64) float64 { return v * v }
