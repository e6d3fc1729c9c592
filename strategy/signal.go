package strategy

import (
	"time"

	"github.com/evdnx/bbgrid/feed"
	"github.com/evdnx/bbgrid/types"
)

// Detector looks for a close back across the envelope and allows at most
// one grid entry per bar.
type Detector struct {
	shift  int
	offset int

	lastEntry time.Time
	entered   bool
}

func NewDetector(shift, offset int) *Detector {
	return &Detector{shift: shift, offset: offset}
}

// Ready reports whether the current bar has not produced an entry yet.
func (d *Detector) Ready(md feed.MarketData) bool {
	return !d.entered || d.lastEntry.Before(md.OpenTime(0))
}

// Signal returns the direction of a new grid, if any. A long fires when the
// close drops below the lower band after the previous close was at or
// above it; a short is the mirror case on the upper band.
func (d *Detector) Signal(md feed.MarketData) (types.Direction, bool) {
	if !d.Ready(md) {
		return "", false
	}
	cur, prev := d.offset, d.offset+1
	band := d.shift + d.offset

	switch {
	case md.Close(cur) < md.Lower(band) && md.Close(prev) >= md.Lower(band+1):
		return types.Buy, true
	case md.Close(cur) > md.Upper(band) && md.Close(prev) <= md.Upper(band+1):
		return types.Sell, true
	}
	return "", false
}

// MarkEntered records the current bar as having produced a grid.
func (d *Detector) MarkEntered(md feed.MarketData) {
	d.lastEntry = md.OpenTime(0)
	d.entered = true
}
