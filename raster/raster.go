/*
Package raster implements the low-level RGBA buffer operations shared by the
sheet and tile processing stages: content bounds, alpha-premultiplied
resampling, alpha thresholding and edge de-fringing.

All functions operate on *image.NRGBA buffers anchored at (0, 0). Buffers are
owned by the calling stage; in-place functions document that they mutate.
*/
package raster

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// ToNRGBA converts any decoded image into an NRGBA buffer anchored at (0, 0).
func ToNRGBA(m image.Image) *image.NRGBA {
	if n, ok := m.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	return imaging.Clone(m)
}

// ContentBounds returns the tight bounding box of pixels whose alpha exceeds
// floor. ok is false when the image has no such pixels.
func ContentBounds(m *image.NRGBA, floor uint8) (r image.Rectangle, ok bool) {
	b := m.Bounds()
	minX, minY := b.Max.X, b.Max.Y
	maxX, maxY := b.Min.X, b.Min.Y
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if m.Pix[m.PixOffset(x, y)+3] > floor {
				if x < minX {
					minX = x
				}
				if x >= maxX {
					maxX = x + 1
				}
				if y < minY {
					minY = y
				}
				if y >= maxY {
					maxY = y + 1
				}
			}
		}
	}
	if minX >= maxX || minY >= maxY {
		return image.Rectangle{}, false
	}
	return image.Rect(minX, minY, maxX, maxY), true
}

// CountOpaque returns the number of pixels whose alpha exceeds floor.
func CountOpaque(m *image.NRGBA, floor uint8) int {
	n := 0
	for i := 3; i < len(m.Pix); i += 4 {
		if m.Pix[i] > floor {
			n++
		}
	}
	return n
}

// ResizePremultiplied resizes an NRGBA image with a Lanczos filter, running
// the filter over alpha-premultiplied channels. Resampling non-premultiplied
// RGBA blends the implicit black of fully transparent pixels into opaque
// edges, which shows up as a dark halo around the content.
func ResizePremultiplied(m *image.NRGBA, w, h int) *image.NRGBA {
	b := m.Bounds()
	pre := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			i := m.PixOffset(b.Min.X+x, b.Min.Y+y)
			o := pre.PixOffset(x, y)
			a := uint32(m.Pix[i+3])
			pre.Pix[o] = uint8(uint32(m.Pix[i]) * a / 255)
			pre.Pix[o+1] = uint8(uint32(m.Pix[i+1]) * a / 255)
			pre.Pix[o+2] = uint8(uint32(m.Pix[i+2]) * a / 255)
			pre.Pix[o+3] = uint8(a)
		}
	}

	scaled := imaging.Resize(pre, w, h, imaging.Lanczos)

	// Divide the alpha back out where any remains.
	for i := 0; i < len(scaled.Pix); i += 4 {
		a := uint32(scaled.Pix[i+3])
		if a == 0 {
			scaled.Pix[i] = 0
			scaled.Pix[i+1] = 0
			scaled.Pix[i+2] = 0
			continue
		}
		for c := 0; c < 3; c++ {
			v := uint32(scaled.Pix[i+c]) * 255 / a
			if v > 255 {
				v = 255
			}
			scaled.Pix[i+c] = uint8(v)
		}
	}
	return scaled
}

// ThresholdAlpha snaps every pixel to fully transparent or fully opaque,
// in place. Alpha below cutoff becomes 0, everything else 255.
func ThresholdAlpha(m *image.NRGBA, cutoff uint8) {
	for i := 3; i < len(m.Pix); i += 4 {
		if m.Pix[i] < cutoff {
			m.Pix[i] = 0
			m.Pix[i-3] = 0
			m.Pix[i-2] = 0
			m.Pix[i-1] = 0
		} else {
			m.Pix[i] = 255
		}
	}
}

// Defringe clears near-black opaque pixels that touch transparency, in place.
// Resampling and quantization can leave a dark outline one or two pixels wide
// at content edges; interior dark pixels (eyes, shadows) have no transparent
// neighbor and are left alone.
func Defringe(m *image.NRGBA, darkMax uint8, passes int) {
	b := m.Bounds()
	w, h := b.Dx(), b.Dy()
	for p := 0; p < passes; p++ {
		var clear []int
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				i := m.PixOffset(x, y)
				if m.Pix[i+3] == 0 {
					continue
				}
				max := m.Pix[i]
				if m.Pix[i+1] > max {
					max = m.Pix[i+1]
				}
				if m.Pix[i+2] > max {
					max = m.Pix[i+2]
				}
				if max > darkMax {
					continue
				}
				if hasTransparentNeighbor(m, x, y, w, h) {
					clear = append(clear, i)
				}
			}
		}
		if len(clear) == 0 {
			return
		}
		for _, i := range clear {
			m.Pix[i] = 0
			m.Pix[i+1] = 0
			m.Pix[i+2] = 0
			m.Pix[i+3] = 0
		}
	}
}

func hasTransparentNeighbor(m *image.NRGBA, x, y, w, h int) bool {
	if x > 0 && m.Pix[m.PixOffset(x-1, y)+3] == 0 {
		return true
	}
	if x < w-1 && m.Pix[m.PixOffset(x+1, y)+3] == 0 {
		return true
	}
	if y > 0 && m.Pix[m.PixOffset(x, y-1)+3] == 0 {
		return true
	}
	if y < h-1 && m.Pix[m.PixOffset(x, y+1)+3] == 0 {
		return true
	}
	return false
}

// Shift returns a copy of m translated by (dx, dy) over a transparent
// background, discarding anything pushed outside the bounds.
func Shift(m *image.NRGBA, dx, dy int) *image.NRGBA {
	b := m.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		sy := y - dy
		if sy < 0 || sy >= h {
			continue
		}
		for x := 0; x < w; x++ {
			sx := x - dx
			if sx < 0 || sx >= w {
				continue
			}
			copy(out.Pix[out.PixOffset(x, y):out.PixOffset(x, y)+4],
				m.Pix[m.PixOffset(b.Min.X+sx, b.Min.Y+sy):m.PixOffset(b.Min.X+sx, b.Min.Y+sy)+4])
		}
	}
	return out
}

// NRGBAAt is a bounds-unchecked pixel read for buffers anchored at (0, 0).
func NRGBAAt(m *image.NRGBA, x, y int) color.NRGBA {
	i := m.PixOffset(x, y)
	return color.NRGBA{m.Pix[i], m.Pix[i+1], m.Pix[i+2], m.Pix[i+3]}
}
