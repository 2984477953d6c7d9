/*
Package metadata implements the sidecar index written next to processed
assets. The frame index maps animation and direction to the frame file that
serves it, together with how that frame was obtained; the tile index maps
terrain names to their variant files.
*/
package metadata

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const (
	// FrameSuffix is appended to the unit key to name its frame index on
	// disk, e.g. "raider_frame_meta.json".
	FrameSuffix = "_frame_meta.json"

	// TileFilename is the expected filename of the per-directory tile
	// index.
	TileFilename = "_tile_meta.json"
)

// Frame records one emitted animation frame.
type Frame struct {
	File   string `json:"file"`
	Origin string `json:"origin"`
}

// FrameIndex maps animation name to direction to the frame serving it. The
// zero value is not usable; call NewFrameIndex.
type FrameIndex struct {
	Unit   string                      `json:"unit"`
	Frames map[string]map[string]Frame `json:"frames"`
}

// NewFrameIndex returns an empty frame index for the named unit.
func NewFrameIndex(unit string) *FrameIndex {
	return &FrameIndex{
		Unit:   unit,
		Frames: make(map[string]map[string]Frame),
	}
}

// Length returns the number of frames in the index.
func (fi *FrameIndex) Length() int {
	n := 0
	for _, dirs := range fi.Frames {
		n += len(dirs)
	}
	return n
}

// Set records the file serving an animation and direction.
func (fi *FrameIndex) Set(anim, dir, file, origin string) error {
	if anim == "" || dir == "" || file == "" {
		return errors.New("empty frame key")
	}
	if fi.Frames[anim] == nil {
		fi.Frames[anim] = make(map[string]Frame)
	}
	fi.Frames[anim][dir] = Frame{File: file, Origin: origin}
	return nil
}

// Get returns the frame for an animation and direction.
func (fi *FrameIndex) Get(anim, dir string) (Frame, bool) {
	f, ok := fi.Frames[anim][dir]
	return f, ok
}

// TileIndex maps terrain name to its variant files, in variant order.
type TileIndex struct {
	Tiles map[string][]string `json:"tiles"`
}

// NewTileIndex returns an empty tile index.
func NewTileIndex() *TileIndex {
	return &TileIndex{Tiles: make(map[string][]string)}
}

// Add appends a variant file for a terrain.
func (ti *TileIndex) Add(terrain, file string) {
	ti.Tiles[terrain] = append(ti.Tiles[terrain], file)
}

// Write encodes v as indented JSON. Map keys marshal in sorted order, so the
// output is byte-stable across runs.
func Write(w io.Writer, v any) error {
	e := json.NewEncoder(w)
	e.SetIndent("", "  ")
	return e.Encode(v)
}

// Save writes v to the named file via a same-directory rename, so readers
// never observe a partial index.
func Save(path string, v any) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".meta-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := Write(tmp, v); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), path)
}

// Load reads a JSON index from the named file into v.
func Load(path string, v any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("metadata: %s: %w", filepath.Base(path), err)
	}
	return nil
}
