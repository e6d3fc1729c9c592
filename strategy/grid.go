package strategy

import (
	"math"
	"strings"

	"github.com/evdnx/bbgrid/types"
)

// Rung is one slot of a grid. A nil Position means the slot is empty.
type Rung struct {
	Position *types.Position
	// Closing is set once the dynamic take-profit sweep asked the gateway to
	// close the position and the close event has not arrived yet.
	Closing bool
}

func (r Rung) Empty() bool { return r.Position == nil }

// Grid is one ladder of positions opened together in one direction.
// len(Rungs) equals the configured level count for the grid's whole life.
type Grid struct {
	Seq       uint64
	ID        string
	Direction types.Direction
	Rungs     []Rung

	// LastClosedPrice is the reference for the next stop cascade step.
	LastClosedPrice float64
}

func newGrid(seq uint64, dir types.Direction, levels int) *Grid {
	last := math.Inf(-1)
	if dir == types.Sell {
		last = math.Inf(1)
	}
	return &Grid{
		Seq:             seq,
		Direction:       dir,
		Rungs:           make([]Rung, levels),
		LastClosedPrice: last,
	}
}

// composeID joins the position IDs of every rung with "." and uses "-1" for
// empty rungs.
func (g *Grid) composeID() string {
	parts := make([]string, len(g.Rungs))
	for i, r := range g.Rungs {
		if r.Empty() {
			parts[i] = "-1"
			continue
		}
		parts[i] = r.Position.ID
	}
	return strings.Join(parts, ".")
}

// OpenRungs counts the non-empty rungs.
func (g *Grid) OpenRungs() int {
	n := 0
	for _, r := range g.Rungs {
		if !r.Empty() {
			n++
		}
	}
	return n
}

func (g *Grid) Exhausted() bool { return g.OpenRungs() == 0 }

func (g *Grid) clear(level int) {
	g.Rungs[level] = Rung{}
}

// holds reports whether rung level currently holds position id.
func (g *Grid) holds(level int, id string) bool {
	if level < 0 || level >= len(g.Rungs) {
		return false
	}
	r := g.Rungs[level]
	return !r.Empty() && r.Position.ID == id
}

// Targets returns the take-profit price of each rung. Rung 0 targets the
// middle band and each following rung steps 1/levels of the way toward the
// band the entry was triggered on.
func Targets(dir types.Direction, middle, lower, upper float64, levels int) []float64 {
	out := make([]float64, levels)
	for i := range out {
		if dir == types.Buy {
			out[i] = middle - float64(i)*(middle-lower)/float64(levels)
		} else {
			out[i] = middle + float64(i)*(upper-middle)/float64(levels)
		}
	}
	return out
}
