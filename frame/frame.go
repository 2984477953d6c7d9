/*
Package frame turns detected sheet cells into the canonical animation frame
set consumed by the renderer. Every sheet, however broken, ends up as a full
animation x direction grid of fixed-size frames: real cells are normalized,
missing directions are mirrored, missing animations are synthesized, and
anything still absent is filled from the best available frame.
*/
package frame

import (
	"image"
)

// Canonical direction order. It matches the column order of the sheet
// prompt: the generator draws a front-to-back rotation starting south.
var Directions = []string{"s", "sw", "w", "nw", "n", "ne", "e", "se"}

// Canonical animation order, matching the sheet prompt's row order.
var Animations = []string{"idle", "walk_1", "walk_2", "attack", "shoot", "reload", "hurt", "death"}

// directionMap assigns direction labels by detected column count. Sheets
// with fewer columns than requested still rotate front-to-back, so the
// labels are not simply a prefix of the canonical order.
var directionMap = map[int][]string{
	1: {"s"},
	2: {"s", "n"},
	3: {"s", "sw", "n"},
	4: {"s", "sw", "n", "nw"},
	5: {"s", "sw", "w", "n", "nw"},
	6: {"s", "sw", "w", "nw", "n", "ne"},
	7: {"s", "sw", "w", "nw", "n", "ne", "e"},
}

// DirectionsFor returns the direction labels for a detected column count.
func DirectionsFor(cols int) []string {
	if d, ok := directionMap[cols]; ok {
		return d
	}
	if cols >= len(Directions) {
		return Directions
	}
	return Directions[:cols]
}

// AnimationsFor returns the animation labels for a detected row count.
func AnimationsFor(rows int) []string {
	if rows >= len(Animations) {
		return Animations
	}
	return Animations[:rows]
}

// mirrorPairs maps a missing direction to the bilateral partner whose
// horizontal flip stands in for it. Mirroring assumes the drawn subject is
// bilaterally symmetric; characters with asymmetric equipment need native
// frames for all directions instead (Config.NoMirror).
var mirrorPairs = map[string]string{
	"se": "sw",
	"e":  "w",
	"ne": "nw",
}

// synthesisSources maps an absent animation row to the row it is derived
// from. The derivation is a transform, not a copy: shoot gets recoil and a
// muzzle-side highlight, reload gets a downward lean and darkening.
var synthesisSources = map[string]string{
	"shoot":  "attack",
	"reload": "idle",
}

// dirVectors gives the facing vector per direction, +x right, +y down.
var dirVectors = map[string][2]int{
	"s":  {0, 1},
	"sw": {-1, 1},
	"w":  {-1, 0},
	"nw": {-1, -1},
	"n":  {0, -1},
	"ne": {1, -1},
	"e":  {1, 0},
	"se": {1, 1},
}

// Origin records how a frame entered the set, for run statistics.
type Origin int

const (
	// OriginReal frames were extracted from an actual sheet cell.
	OriginReal Origin = iota
	// OriginMirrored frames are horizontal flips of a bilateral partner.
	OriginMirrored
	// OriginSynthesized frames are transformed copies of another animation.
	OriginSynthesized
	// OriginFilled frames are last-resort stand-ins from the best
	// available frame.
	OriginFilled
)

func (o Origin) String() string {
	switch o {
	case OriginReal:
		return "real"
	case OriginMirrored:
		return "mirrored"
	case OriginSynthesized:
		return "synthesized"
	default:
		return "filled"
	}
}

// Key addresses one frame in a set.
type Key struct {
	Anim, Dir string
}

// Set is the frame collection for one sheet. It is created empty, populated
// by extraction, completed by Fill and then read out for export.
type Set struct {
	W, H    int
	frames  map[Key]*image.NRGBA
	origins map[Key]Origin
}

// NewSet returns an empty set producing w x h frames.
func NewSet(w, h int) *Set {
	return &Set{
		W:       w,
		H:       h,
		frames:  make(map[Key]*image.NRGBA),
		origins: make(map[Key]Origin),
	}
}

// Put stores a frame. The set takes ownership of the buffer.
func (s *Set) Put(anim, dir string, m *image.NRGBA, o Origin) {
	k := Key{anim, dir}
	s.frames[k] = m
	s.origins[k] = o
}

// Get returns the frame for a key, or nil.
func (s *Set) Get(anim, dir string) *image.NRGBA {
	return s.frames[Key{anim, dir}]
}

// Origin returns how the frame for a key was produced.
func (s *Set) Origin(anim, dir string) Origin {
	return s.origins[Key{anim, dir}]
}

// Has reports whether a key is populated.
func (s *Set) Has(anim, dir string) bool {
	_, ok := s.frames[Key{anim, dir}]
	return ok
}

// Len returns the number of populated keys.
func (s *Set) Len() int {
	return len(s.frames)
}

// animPresent reports whether any direction of an animation is populated.
func (s *Set) animPresent(anim string) bool {
	for _, d := range Directions {
		if s.Has(anim, d) {
			return true
		}
	}
	return false
}
