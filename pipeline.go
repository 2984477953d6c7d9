package isogame

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"

	"github.com/Maniwar/Isogame/chroma"
	"github.com/Maniwar/Isogame/frame"
	"github.com/Maniwar/Isogame/grid"
	"github.com/Maniwar/Isogame/metadata"
	"github.com/Maniwar/Isogame/palette"
	"github.com/Maniwar/Isogame/raster"
	"github.com/Maniwar/Isogame/tile"
)

// SheetSuffix marks generated sprite sheets; the unit key is the filename
// with the suffix removed.
const SheetSuffix = "-sheet.png"

func (p *Pipeline) findFiles(ctx context.Context, base string, match func(string) bool) (<-chan string, <-chan error, error) {
	out := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		errc <- filepath.Walk(base, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			// Ignore any hidden files or directories, otherwise we end up fighting with things like Spotlight, etc.
			if info.Name()[0] == '.' {
				if info.Mode().IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			if !info.Mode().IsRegular() || !match(info.Name()) {
				return nil
			}

			select {
			case out <- path:
			case <-ctx.Done():
				return errors.New("walk cancelled")
			}

			return nil
		})
	}()
	return out, errc, nil
}

func (p *Pipeline) sheetWorker(ctx context.Context, in <-chan string, dst string, nominal grid.Nominal, pal palette.Palette, run *RunStats) (<-chan error, error) {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		for path := range in {
			stats, err := p.processSheet(path, dst, nominal, pal)
			if err != nil {
				if errors.Is(err, ErrUnreadableSheet) {
					p.logger.WithError(err).WithField("sheet", path).Warn("skipping sheet")
					run.fail()
					continue
				}
				errc <- err
				return
			}
			run.add(stats)
			p.logger.WithFields(stats.Fields()).Info("sheet processed")
		}
	}()
	return errc, nil
}

// ProcessSheets normalizes every sprite sheet under src and writes frames
// and their metadata sidecars to dst. Unreadable sheets are skipped and
// counted; anything else aborts the run.
func (p *Pipeline) ProcessSheets(src, dst string) (*RunStats, error) {
	return p.ProcessSheetsGrid(src, dst, p.cfg.Nominal)
}

// ProcessSheetsGrid is ProcessSheets with the configured nominal grid
// replaced per call, for batches whose sheets carry their own layout hint.
func (p *Pipeline) ProcessSheetsGrid(src, dst string, nominal grid.Nominal) (*RunStats, error) {
	base, err := filepath.Abs(src)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return nil, err
	}

	pal, err := palette.New(p.cfg.Palette.Colors)
	if err != nil {
		return nil, err
	}
	pal.SortByBrightness()

	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()

	run := &RunStats{}

	var errcList []<-chan error

	sheets, errc, err := p.findFiles(ctx, base, func(name string) bool {
		return strings.HasSuffix(name, SheetSuffix)
	})
	if err != nil {
		return nil, err
	}
	errcList = append(errcList, errc)

	for i := 0; i < p.cfg.Workers; i++ {
		errc, err := p.sheetWorker(ctx, sheets, dst, nominal, pal, run)
		if err != nil {
			return nil, err
		}
		errcList = append(errcList, errc)
	}

	if err := waitForPipeline(errcList...); err != nil {
		return nil, err
	}

	p.logger.WithFields(run.Fields()).Info("run complete")
	return run, nil
}

func (p *Pipeline) processSheet(path, dstDir string, nominal grid.Nominal, pal palette.Palette) (SheetStats, error) {
	key := strings.TrimSuffix(filepath.Base(path), SheetSuffix)

	m, err := decodeImage(path)
	if err != nil {
		return SheetStats{}, fmt.Errorf("%w: %s: %v", ErrUnreadableSheet, path, err)
	}

	chroma.Remove(m, p.cfg.Chroma)

	g := grid.Detect(m, nominal, p.cfg.Grid)
	if g.Rows != nominal.Rows || g.Cols != nominal.Cols {
		p.logger.WithFields(logrus.Fields{
			"sheet":    key,
			"nominal":  [2]int{nominal.Rows, nominal.Cols},
			"detected": [2]int{g.Rows, g.Cols},
		}).Warn("grid differs from nominal")
	}

	anims := frame.AnimationsFor(g.Rows)
	dirs := frame.DirectionsFor(g.Cols)

	// First pass measures every cell's content so all frames share one
	// scale factor; a per-cell scale makes the character pulse between
	// animation frames.
	cells := make([][]*image.NRGBA, len(anims))
	var maxW, maxH int
	for r := range anims {
		cells[r] = make([]*image.NRGBA, len(dirs))
		for c := range dirs {
			cell := imaging.Crop(m, g.Cells[r][c])
			frame.StripSpillover(cell, p.cfg.Frame)
			cells[r][c] = cell
			if b, ok := raster.ContentBounds(cell, p.cfg.Frame.AlphaFloor); ok {
				if b.Dx() > maxW {
					maxW = b.Dx()
				}
				if b.Dy() > maxH {
					maxH = b.Dy()
				}
			}
		}
	}
	scale := frame.UniformScale(maxW, maxH, p.cfg.Sprite.W, p.cfg.Sprite.H, p.cfg.Frame)

	set := frame.NewSet(p.cfg.Sprite.W, p.cfg.Sprite.H)
	empty := 0
	for r, anim := range anims {
		for c, dir := range dirs {
			fr := frame.Normalize(cells[r][c], scale, p.cfg.Sprite.W, p.cfg.Sprite.H, p.cfg.Frame)
			if fr == nil {
				empty++
				continue
			}
			set.Put(anim, dir, fr, frame.OriginReal)
		}
	}

	fs := frame.Fill(set, p.cfg.Frame)

	index := metadata.NewFrameIndex(key)
	total := 0
	for _, anim := range frame.Animations {
		for _, dir := range frame.Directions {
			fr := set.Get(anim, dir)

			out := palette.Quantize(fr, pal, p.cfg.Palette)
			raster.ThresholdAlpha(out, p.cfg.Frame.AlphaFloor)

			name := fmt.Sprintf("%s-%s-%s.png", key, anim, dir)
			if err := writePNG(filepath.Join(dstDir, name), out); err != nil {
				return SheetStats{}, err
			}
			if err := index.Set(anim, dir, name, set.Origin(anim, dir).String()); err != nil {
				return SheetStats{}, err
			}
			total++
		}
	}

	if err := metadata.Save(filepath.Join(dstDir, key+metadata.FrameSuffix), index); err != nil {
		return SheetStats{}, err
	}

	return sheetStats(key, g.Rows, g.Cols, fs, empty, total), nil
}

// ProcessTiles clips every tile image under src to the diamond footprint and
// writes the results plus the tile index to dst. Files matching SheetSuffix
// are treated as terrain variant sheets and sliced first; everything else is
// a single tile.
func (p *Pipeline) ProcessTiles(src, dst string) (*RunStats, error) {
	base, err := filepath.Abs(src)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return nil, err
	}

	pal, err := palette.New(p.cfg.Palette.Colors)
	if err != nil {
		return nil, err
	}
	pal.SortByBrightness()

	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()

	run := &RunStats{}
	index := metadata.NewTileIndex()
	var mu sync.Mutex

	var errcList []<-chan error

	tiles, errc, err := p.findFiles(ctx, base, func(name string) bool {
		return strings.HasSuffix(name, ".png")
	})
	if err != nil {
		return nil, err
	}
	errcList = append(errcList, errc)

	for i := 0; i < p.cfg.Workers; i++ {
		errc, err := p.tileWorker(ctx, tiles, dst, pal, index, &mu, run)
		if err != nil {
			return nil, err
		}
		errcList = append(errcList, errc)
	}

	if err := waitForPipeline(errcList...); err != nil {
		return nil, err
	}

	mu.Lock()
	for _, files := range index.Tiles {
		sort.Strings(files)
	}
	err = metadata.Save(filepath.Join(dst, metadata.TileFilename), index)
	mu.Unlock()
	if err != nil {
		return nil, err
	}

	p.logger.WithFields(run.Fields()).Info("run complete")
	return run, nil
}

func (p *Pipeline) tileWorker(ctx context.Context, in <-chan string, dst string, pal palette.Palette, index *metadata.TileIndex, mu *sync.Mutex, run *RunStats) (<-chan error, error) {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		for path := range in {
			stats, err := p.processTile(path, dst, pal, index, mu)
			if err != nil {
				if errors.Is(err, ErrUnreadableSheet) {
					p.logger.WithError(err).WithField("tile", path).Warn("skipping tile")
					run.fail()
					continue
				}
				errc <- err
				return
			}
			run.add(stats)
		}
	}()
	return errc, nil
}

func (p *Pipeline) processTile(path, dstDir string, pal palette.Palette, index *metadata.TileIndex, mu *sync.Mutex) (SheetStats, error) {
	name := filepath.Base(path)
	isSheet := strings.HasSuffix(name, SheetSuffix)

	var terrain string
	if isSheet {
		terrain = strings.TrimSuffix(name, SheetSuffix)
	} else {
		terrain = strings.TrimSuffix(name, filepath.Ext(name))
	}

	m, err := decodeImage(path)
	if err != nil {
		return SheetStats{}, fmt.Errorf("%w: %s: %v", ErrUnreadableSheet, path, err)
	}

	chroma.Remove(m, p.cfg.Chroma)

	var arts []*image.NRGBA
	if isSheet {
		arts = tile.Variants(m, p.cfg.Tile)
	} else {
		arts = []*image.NRGBA{m}
	}

	stats := SheetStats{Key: terrain}
	for i, art := range arts {
		out := tile.Normalize(art, p.cfg.Tile)
		if out == nil {
			stats.Empty++
			continue
		}

		out = palette.Quantize(out, pal, p.cfg.Palette)
		tile.NewMask(p.cfg.Tile.W, p.cfg.Tile.H).Apply(out, p.cfg.Tile.AlphaFloor)

		outName := fmt.Sprintf("%s-%d.png", terrain, i)
		if !isSheet {
			outName = terrain + ".png"
		}
		if err := writeTile(filepath.Join(dstDir, outName), out, p.cfg.Tile); err != nil {
			return SheetStats{}, err
		}

		mu.Lock()
		index.Add(terrain, outName)
		mu.Unlock()

		stats.Total++
		stats.Real++
	}

	p.logger.WithFields(logrus.Fields{
		"terrain":  terrain,
		"variants": stats.Total,
		"empty":    stats.Empty,
	}).Info("tile processed")

	return stats, nil
}

func decodeImage(path string) (*image.NRGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}
	return raster.ToNRGBA(m), nil
}

func writePNG(path string, m image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := png.Encode(f, m); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}

// writeTile goes through tile.Encode so a variant that escaped the
// normalizer at the wrong size fails the run instead of reaching disk.
func writeTile(path string, m image.Image, cfg tile.Config) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := tile.Encode(f, m, cfg); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}

func waitForPipeline(errs ...<-chan error) error {
	errc := mergeErrors(errs...)
	for err := range errc {
		if err != nil {
			return err
		}
	}
	return nil
}

func mergeErrors(cs ...<-chan error) <-chan error {
	var wg sync.WaitGroup
	out := make(chan error, len(cs))
	wg.Add(len(cs))
	for _, c := range cs {
		go func(c <-chan error) {
			for n := range c {
				out <- n
			}
			wg.Done()
		}(c)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}
