/*
Package grid recovers the real cell layout of a generated sprite sheet. The
generation service routinely ignores the requested grid: an 8x8 request can
come back 4x4, 6x6 or 4x1, so the nominal layout is a hint, not a contract.

Detection works on content density. After background removal, each row and
column of the sheet has a fraction of non-transparent pixels; contiguous
low-density runs are gutters between cells and their midpoints become split
positions. The resulting rectangles always partition the sheet exactly.
*/
package grid

import (
	"image"

	"gonum.org/v1/gonum/floats"
)

// Nominal is the grid the generation request asked for.
type Nominal struct {
	Rows, Cols int
}

// Grid is the layout actually found in a sheet.
type Grid struct {
	Rows, Cols int
	// Cells[r][c] is the rectangle of that cell. The rectangles tile the
	// sheet with no gaps or overlaps.
	Cells [][]image.Rectangle
}

// KernelStep is one pass of the density smoothing ladder: an averaging
// kernel width and the smoothed-density value below which a position counts
// as gutter.
type KernelStep struct {
	Size      int
	Threshold float64
}

// Config holds the detector tuning.
type Config struct {
	// MinCell is the smallest acceptable cell edge in pixels; gutters that
	// would produce a smaller cell are ignored.
	MinCell int
	// TrustCell is the nominal cell edge at which the nominal grid is
	// trusted outright. Density detection is unreliable on dense character
	// art, so large evenly-divisible sheets skip it.
	TrustCell int
	// Kernels is the narrow-to-wide smoothing ladder. Narrow kernels catch
	// 5-10px gutters that a wide kernel averages away; wide kernels bridge
	// single-pixel noise inside real gutters.
	Kernels []KernelStep
	// TargetSplits stops the ladder early once a dimension has been divided
	// into at least this many cells.
	TargetSplits int
	// AlphaFloor is the alpha above which a pixel counts as content.
	AlphaFloor uint8
}

// DefaultConfig returns the tuning used for 1024- and 2048-pixel sheets.
func DefaultConfig() Config {
	return Config{
		MinCell:   120,
		TrustCell: 200,
		Kernels: []KernelStep{
			{5, 0.03},
			{12, 0.06},
			{25, 0.08},
			{40, 0.10},
		},
		TargetSplits: 8,
		AlphaFloor:   10,
	}
}

// Detect infers the actual grid of a background-removed sheet.
func Detect(m *image.NRGBA, nominal Nominal, cfg Config) Grid {
	b := m.Bounds()
	w, h := b.Dx(), b.Dy()

	if g, ok := trusted(w, h, nominal, cfg); ok {
		return g
	}

	rowDensity, colDensity := densityProfiles(m, cfg.AlphaFloor)
	rowSplits := findSplits(rowDensity, cfg)
	colSplits := findSplits(colDensity, cfg)

	return fromSplits(rowSplits, colSplits)
}

// trusted returns the nominal grid when the sheet divides evenly into cells
// large enough that detection would only make things worse.
func trusted(w, h int, nominal Nominal, cfg Config) (Grid, bool) {
	if nominal.Rows <= 0 || nominal.Cols <= 0 {
		return Grid{}, false
	}
	if w%nominal.Cols != 0 || h%nominal.Rows != 0 {
		return Grid{}, false
	}
	cw, ch := w/nominal.Cols, h/nominal.Rows
	if cw < cfg.TrustCell || ch < cfg.TrustCell {
		return Grid{}, false
	}
	rowSplits := make([]int, nominal.Rows+1)
	for i := range rowSplits {
		rowSplits[i] = i * ch
	}
	colSplits := make([]int, nominal.Cols+1)
	for i := range colSplits {
		colSplits[i] = i * cw
	}
	return fromSplits(rowSplits, colSplits), true
}

// densityProfiles returns the fraction of content pixels per row and per
// column.
func densityProfiles(m *image.NRGBA, floor uint8) (rows, cols []float64) {
	b := m.Bounds()
	w, h := b.Dx(), b.Dy()
	rows = make([]float64, h)
	cols = make([]float64, w)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if m.Pix[m.PixOffset(b.Min.X+x, b.Min.Y+y)+3] > floor {
				rows[y]++
				cols[x]++
			}
		}
	}
	floats.Scale(1/float64(w), rows)
	floats.Scale(1/float64(h), cols)
	return rows, cols
}

// findSplits runs the kernel ladder over one density profile and returns the
// best split positions found, including 0 and len(density).
func findSplits(density []float64, cfg Config) []int {
	total := len(density)
	best := []int{0, total}

	for _, step := range cfg.Kernels {
		ks := step.Size
		if limit := total / 5; ks > limit {
			ks = limit
		}
		if ks < 1 {
			ks = 1
		}
		smoothed := movingAverage(density, ks)

		splits := []int{0}
		for i := 0; i < total; {
			if smoothed[i] >= step.Threshold {
				i++
				continue
			}
			start := i
			for i < total && smoothed[i] < step.Threshold {
				i++
			}
			mid := (start + i) / 2
			if mid-splits[len(splits)-1] >= cfg.MinCell {
				splits = append(splits, mid)
			}
		}
		splits = append(splits, total)

		// Merge a trailing sliver into the previous cell.
		filtered := splits[:1]
		for _, s := range splits[1:] {
			if s-filtered[len(filtered)-1] >= cfg.MinCell {
				filtered = append(filtered, s)
			} else {
				filtered[len(filtered)-1] = s
			}
		}

		if len(filtered) > len(best) {
			best = filtered
		}
		if len(best)-1 >= cfg.TargetSplits {
			break
		}
	}
	return best
}

// movingAverage smooths with a centered box kernel, zero-padded at the edges.
func movingAverage(vals []float64, size int) []float64 {
	n := len(vals)
	out := make([]float64, n)
	prefix := make([]float64, n+1)
	for i, v := range vals {
		prefix[i+1] = prefix[i] + v
	}
	half := size / 2
	for i := 0; i < n; i++ {
		lo := i - half
		hi := lo + size
		if lo < 0 {
			lo = 0
		}
		if hi > n {
			hi = n
		}
		out[i] = (prefix[hi] - prefix[lo]) / float64(size)
	}
	return out
}

func fromSplits(rowSplits, colSplits []int) Grid {
	rows := len(rowSplits) - 1
	cols := len(colSplits) - 1
	cells := make([][]image.Rectangle, rows)
	for r := 0; r < rows; r++ {
		cells[r] = make([]image.Rectangle, cols)
		for c := 0; c < cols; c++ {
			cells[r][c] = image.Rect(colSplits[c], rowSplits[r], colSplits[c+1], rowSplits[r+1])
		}
	}
	return Grid{Rows: rows, Cols: cols, Cells: cells}
}
