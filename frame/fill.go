package frame

import (
	"image"

	"github.com/disintegration/imaging"

	"github.com/Maniwar/Isogame/raster"
)

// FillStats reports how Fill completed a set.
type FillStats struct {
	Real        int
	Mirrored    int
	Synthesized int
	Filled      int
}

// Fill completes a partially populated set so every canonical animation x
// direction key holds a frame. Policy, in order: mirror missing directions
// from their bilateral partner, synthesize entirely absent animation rows
// from their source row, then fill whatever is left from the best available
// frame. The set is never left with an empty key.
func Fill(s *Set, cfg Config) FillStats {
	var st FillStats
	st.Real = s.Len()

	if !cfg.NoMirror {
		for _, anim := range Animations {
			for target, source := range mirrorPairs {
				if !s.Has(anim, target) && s.Has(anim, source) {
					s.Put(anim, target, imaging.FlipH(s.Get(anim, source)), OriginMirrored)
					st.Mirrored++
				}
			}
		}
	}

	// North has no bilateral partner; borrow a near-north view when the
	// generator skipped it.
	for _, anim := range Animations {
		if s.Has(anim, "n") || !s.animPresent(anim) {
			continue
		}
		for _, alt := range []string{"nw", "ne"} {
			if s.Has(anim, alt) {
				s.Put(anim, "n", imaging.Clone(s.Get(anim, alt)), OriginFilled)
				st.Filled++
				break
			}
		}
	}

	for target, source := range synthesisSources {
		if s.animPresent(target) || !s.animPresent(source) {
			continue
		}
		for _, dir := range Directions {
			src := s.Get(source, dir)
			if src == nil {
				continue
			}
			var derived *image.NRGBA
			switch target {
			case "shoot":
				derived = synthesizeStrike(src, dir)
			case "reload":
				derived = synthesizeRecovery(src)
			default:
				derived = imaging.Clone(src)
			}
			s.Put(target, dir, derived, OriginSynthesized)
			st.Synthesized++
		}
	}

	for _, anim := range Animations {
		for _, dir := range Directions {
			if s.Has(anim, dir) {
				continue
			}
			s.Put(anim, dir, bestAvailable(s), OriginFilled)
			st.Filled++
		}
	}
	return st
}

// bestAvailable picks the stand-in for a structurally missing frame:
// idle in canonical direction order, then anything at all, then a blank
// canvas if the whole sheet came up empty.
func bestAvailable(s *Set) *image.NRGBA {
	for _, dir := range Directions {
		if m := s.Get("idle", dir); m != nil {
			return imaging.Clone(m)
		}
	}
	for _, anim := range Animations {
		for _, dir := range Directions {
			if m := s.Get(anim, dir); m != nil {
				return imaging.Clone(m)
			}
		}
	}
	return image.NewNRGBA(image.Rect(0, 0, s.W, s.H))
}

// synthesizeStrike derives a firing frame from its wind-up pose: content
// shifts two pixels against the facing direction (recoil) and the facing
// side gets a brightness gradient standing in for the muzzle flash.
func synthesizeStrike(src *image.NRGBA, dir string) *image.NRGBA {
	v := dirVectors[dir]
	out := raster.Shift(src, -v[0]*2, -v[1])

	b := out.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < 2 || h < 2 {
		return out
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			g := 1.0
			if v[0] > 0 {
				g *= 0.8 + 0.2*float64(x)/float64(w-1)
			} else if v[0] < 0 {
				g *= 1.0 - 0.2*float64(x)/float64(w-1)
			}
			if v[1] > 0 {
				g *= 0.85 + 0.15*float64(y)/float64(h-1)
			} else if v[1] < 0 {
				g *= 1.0 - 0.15*float64(y)/float64(h-1)
			}
			// Map the 0.8..1.0 gradient onto a 1.0..1.3 boost.
			boost := 1.0 + (g-0.8)*1.5
			i := out.PixOffset(x, y)
			for c := 0; c < 3; c++ {
				val := float64(out.Pix[i+c]) * boost
				if val > 255 {
					val = 255
				}
				out.Pix[i+c] = uint8(val)
			}
		}
	}
	return out
}

// synthesizeRecovery derives a reloading frame from idle: content drops
// three pixels (the character looks down at the weapon) and darkens slightly.
func synthesizeRecovery(src *image.NRGBA) *image.NRGBA {
	out := raster.Shift(src, 0, 3)
	for i := 0; i < len(out.Pix); i += 4 {
		for c := 0; c < 3; c++ {
			out.Pix[i+c] = uint8(float64(out.Pix[i+c]) * 0.85)
		}
	}
	return out
}
