package isogame

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Maniwar/Isogame/chroma"
	"github.com/Maniwar/Isogame/raster"
	"github.com/Maniwar/Isogame/tile"
)

// Check is one validation result for one file.
type Check struct {
	File   string
	Name   string
	OK     bool
	Detail string
}

// Validate runs the post-deployment checks over processed assets: tiles in
// tileDir and frames in frameDir. It reports every failed check and returns
// true only when all pass. Either directory may be empty.
func (p *Pipeline) Validate(tileDir, frameDir string) (bool, []Check, error) {
	var checks []Check

	if tileDir != "" {
		cs, err := p.validateTiles(tileDir)
		if err != nil {
			return false, nil, err
		}
		checks = append(checks, cs...)
	}
	if frameDir != "" {
		cs, err := p.validateFrames(frameDir)
		if err != nil {
			return false, nil, err
		}
		checks = append(checks, cs...)
	}

	ok := true
	for _, c := range checks {
		if !c.OK {
			ok = false
			p.logger.WithFields(logrus.Fields{
				"file":  c.File,
				"check": c.Name,
			}).Error(c.Detail)
		}
	}
	return ok, checks, nil
}

func (p *Pipeline) validateTiles(dir string) ([]Check, error) {
	files, err := listPNGs(dir)
	if err != nil {
		return nil, err
	}

	mask := tile.NewMask(p.cfg.Tile.W, p.cfg.Tile.H)
	expected := mask.Area()

	var checks []Check
	for _, path := range files {
		m, err := decodeImage(path)
		if err != nil {
			return nil, err
		}
		name := filepath.Base(path)
		b := m.Bounds()

		sizeOK := b.Dx() == p.cfg.Tile.W && b.Dy() == p.cfg.Tile.H
		checks = append(checks, Check{
			File:   name,
			Name:   "size",
			OK:     sizeOK,
			Detail: fmt.Sprintf("size %dx%d, want %dx%d", b.Dx(), b.Dy(), p.cfg.Tile.W, p.cfg.Tile.H),
		})
		if !sizeOK {
			continue
		}

		opaque := raster.CountOpaque(m, 0)
		fill := opaque * 100 / max(1, expected)
		checks = append(checks, Check{
			File:   name,
			Name:   "diamond-fill",
			OK:     fill >= 90,
			Detail: fmt.Sprintf("diamond fill %d%%", fill),
		})

		tl := raster.NRGBAAt(m, 0, 0)
		tr := raster.NRGBAAt(m, b.Dx()-1, 0)
		checks = append(checks, Check{
			File:   name,
			Name:   "corners",
			OK:     tl.A == 0 && tr.A == 0,
			Detail: "top corners must be transparent",
		})

		center := raster.NRGBAAt(m, b.Dx()/2, b.Dy()/2)
		checks = append(checks, Check{
			File:   name,
			Name:   "center",
			OK:     center.A > 0,
			Detail: "center must be opaque",
		})
	}
	return checks, nil
}

// validateFrames spot-checks one frame per unit; every frame of a unit went
// through the same pipeline, so the idle-south frame stands in for the rest.
func (p *Pipeline) validateFrames(dir string) ([]Check, error) {
	files, err := listPNGs(dir)
	if err != nil {
		return nil, err
	}

	var checks []Check
	for _, path := range files {
		if !strings.HasSuffix(filepath.Base(path), "-idle-s.png") {
			continue
		}
		m, err := decodeImage(path)
		if err != nil {
			return nil, err
		}
		name := filepath.Base(path)
		b := m.Bounds()

		sizeOK := b.Dx() == p.cfg.Sprite.W && b.Dy() == p.cfg.Sprite.H
		checks = append(checks, Check{
			File:   name,
			Name:   "size",
			OK:     sizeOK,
			Detail: fmt.Sprintf("size %dx%d, want %dx%d", b.Dx(), b.Dy(), p.cfg.Sprite.W, p.cfg.Sprite.H),
		})
		if !sizeOK {
			continue
		}

		green := 0
		for y := 0; y < b.Dy(); y++ {
			for x := 0; x < b.Dx(); x++ {
				c := raster.NRGBAAt(m, x, y)
				if c.A > 0 && chroma.IsGreen(c.R, c.G, c.B, p.cfg.Chroma) {
					green++
				}
			}
		}
		checks = append(checks, Check{
			File:   name,
			Name:   "residual-green",
			OK:     green <= 50,
			Detail: fmt.Sprintf("%d residual background pixels", green),
		})

		opaque := raster.CountOpaque(m, 0)
		total := b.Dx() * b.Dy()
		checks = append(checks, Check{
			File:   name,
			Name:   "content",
			OK:     opaque*10 >= total,
			Detail: fmt.Sprintf("content %d%% of frame", opaque*100/total),
		})
	}
	return checks, nil
}

func listPNGs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		name := e.Name()
		if e.Type().IsRegular() && name[0] != '.' && strings.HasSuffix(name, ".png") {
			files = append(files, filepath.Join(dir, name))
		}
	}
	sort.Strings(files)
	return files, nil
}
