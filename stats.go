package isogame

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/Maniwar/Isogame/frame"
)

// SheetStats records how one sheet was completed.
type SheetStats struct {
	Key        string
	Rows, Cols int

	Total       int
	Real        int
	Mirrored    int
	Synthesized int
	Filled      int
	Empty       int
}

// Fields returns the stats as structured log fields.
func (s SheetStats) Fields() logrus.Fields {
	return logrus.Fields{
		"sheet":       s.Key,
		"grid":        [2]int{s.Rows, s.Cols},
		"total":       s.Total,
		"real":        s.Real,
		"mirrored":    s.Mirrored,
		"synthesized": s.Synthesized,
		"filled":      s.Filled,
		"empty":       s.Empty,
	}
}

// RunStats accumulates sheet stats across the worker pool.
type RunStats struct {
	mu sync.Mutex

	Sheets int
	Failed int

	Total       int
	Real        int
	Mirrored    int
	Synthesized int
	Filled      int
	Empty       int
}

func (r *RunStats) add(s SheetStats) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Sheets++
	r.Total += s.Total
	r.Real += s.Real
	r.Mirrored += s.Mirrored
	r.Synthesized += s.Synthesized
	r.Filled += s.Filled
	r.Empty += s.Empty
}

func (r *RunStats) fail() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Failed++
}

// Fields returns the run totals as structured log fields.
func (r *RunStats) Fields() logrus.Fields {
	r.mu.Lock()
	defer r.mu.Unlock()
	return logrus.Fields{
		"sheets":      r.Sheets,
		"failed":      r.Failed,
		"frames":      r.Total,
		"real":        r.Real,
		"mirrored":    r.Mirrored,
		"synthesized": r.Synthesized,
		"filled":      r.Filled,
		"empty":       r.Empty,
	}
}

func sheetStats(key string, rows, cols int, fs frame.FillStats, empty, total int) SheetStats {
	return SheetStats{
		Key:         key,
		Rows:        rows,
		Cols:        cols,
		Total:       total,
		Real:        fs.Real,
		Mirrored:    fs.Mirrored,
		Synthesized: fs.Synthesized,
		Filled:      fs.Filled,
		Empty:       empty,
	}
}
