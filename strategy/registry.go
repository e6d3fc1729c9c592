package strategy

import (
	"github.com/evdnx/bbgrid/executor"
	"github.com/evdnx/bbgrid/logger"
	"github.com/evdnx/bbgrid/metrics"
	"github.com/evdnx/bbgrid/types"
)

// Registry is the set of live grids. It is not safe for concurrent use; the
// Engine serializes access.
type Registry struct {
	gw    executor.Gateway
	log   logger.Logger
	grids []*Grid
}

func NewRegistry(gw executor.Gateway, log logger.Logger) *Registry {
	return &Registry{gw: gw, log: log}
}

func (r *Registry) Add(g *Grid) {
	r.grids = append(r.grids, g)
	metrics.ActiveGrids.Set(float64(len(r.grids)))
}

func (r *Registry) Len() int { return len(r.grids) }

// Get returns the grid with sequence number seq, or nil.
func (r *Registry) Get(seq uint64) *Grid {
	for _, g := range r.grids {
		if g.Seq == seq {
			return g
		}
	}
	return nil
}

// Grids returns the live grids in insertion order.
func (r *Registry) Grids() []*Grid {
	return append([]*Grid(nil), r.grids...)
}

// Retire removes the grid with sequence number seq.
func (r *Registry) Retire(seq uint64) bool {
	for i, g := range r.grids {
		if g.Seq == seq {
			r.grids = append(r.grids[:i], r.grids[i+1:]...)
			metrics.ActiveGrids.Set(float64(len(r.grids)))
			return true
		}
	}
	return false
}

// GC removes every grid whose rungs are all empty and returns how many
// it removed.
func (r *Registry) GC() int {
	kept := r.grids[:0]
	removed := 0
	for _, g := range r.grids {
		if g.Exhausted() {
			removed++
			r.log.Info("grid_collected", logger.String("grid", g.ID))
			continue
		}
		kept = append(kept, g)
	}
	for i := len(kept); i < len(r.grids); i++ {
		r.grids[i] = nil
	}
	r.grids = kept
	metrics.ActiveGrids.Set(float64(len(r.grids)))
	return removed
}

// closingIndex returns the first rung whose dynamic trigger price has been
// crossed by price, or -1.
func closingIndex(dir types.Direction, price float64, triggers []float64) int {
	for i, t := range triggers {
		if dir == types.Buy && price > t {
			return i
		}
		if dir == types.Sell && price < t {
			return i
		}
	}
	return -1
}

// Sweep closes, in every grid, the rungs at or beyond the first level whose
// dynamic trigger the price has crossed for that grid's direction. It
// returns the number of close requests that succeeded.
func (r *Registry) Sweep(price, middle, lower, upper float64, levels int) int {
	if len(r.grids) == 0 {
		return 0
	}
	idx := map[types.Direction]int{
		types.Buy:  closingIndex(types.Buy, price, Targets(types.Buy, middle, lower, upper, levels)),
		types.Sell: closingIndex(types.Sell, price, Targets(types.Sell, middle, lower, upper, levels)),
	}

	closed := 0
	for _, g := range r.grids {
		from := idx[g.Direction]
		if from < 0 {
			continue
		}
		for i := from; i < len(g.Rungs); i++ {
			rung := &g.Rungs[i]
			if rung.Empty() || rung.Closing {
				continue
			}
			if err := r.gw.Close(rung.Position); err != nil {
				metrics.DynamicTPCloses.WithLabelValues("failed").Inc()
				r.log.Warn("dynamic_tp_close_failed",
					logger.String("grid", g.ID),
					logger.Int("level", i+1),
					logger.Float64("price", price),
					logger.Float64("original_tp", rung.Position.TakeProfit),
					logger.Err(err),
				)
				continue
			}
			rung.Closing = true
			closed++
			metrics.DynamicTPCloses.WithLabelValues("ok").Inc()
			r.log.Info("dynamic_tp_close",
				logger.String("grid", g.ID),
				logger.Int("level", i+1),
				logger.Float64("price", price),
				logger.Float64("original_tp", rung.Position.TakeProfit),
			)
		}
	}
	return closed
}

// improves reports whether moving a stop from current to next tightens it.
// A zero current stop means none is set.
func improves(dir types.Direction, current, next float64) bool {
	if current == 0 {
		return true
	}
	if dir == types.Buy {
		return next > current
	}
	return next < current
}

// Cascade moves the stop of every open rung below level to price. Rungs
// whose stop is already at least as tight are left alone, so a rung's
// stop only ever moves in the grid's favour.
func (r *Registry) Cascade(g *Grid, level int, price float64) {
	for i := level - 1; i >= 0; i-- {
		rung := g.Rungs[i]
		if rung.Empty() || rung.Closing {
			continue
		}
		if !improves(g.Direction, rung.Position.StopLoss, price) {
			metrics.StopModifications.WithLabelValues("skipped").Inc()
			continue
		}
		if err := r.gw.ModifyStop(rung.Position, price); err != nil {
			metrics.StopModifications.WithLabelValues("failed").Inc()
			r.log.Warn("stop_modify_failed",
				logger.String("grid", g.ID),
				logger.Int("level", i+1),
				logger.Int("closed_level", level+1),
				logger.Float64("stop", price),
				logger.Err(err),
			)
			continue
		}
		metrics.StopModifications.WithLabelValues("ok").Inc()
		r.log.Info("stop_moved",
			logger.String("grid", g.ID),
			logger.Int("level", i+1),
			logger.Int("closed_level", level+1),
			logger.Float64("stop", price),
		)
	}
}
