package strategy

import (
	"fmt"
	"math"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/evdnx/bbgrid/config"
	"github.com/evdnx/bbgrid/executor"
	"github.com/evdnx/bbgrid/feed"
	"github.com/evdnx/bbgrid/logger"
	"github.com/evdnx/bbgrid/metrics"
	"github.com/evdnx/bbgrid/risk"
	"github.com/evdnx/bbgrid/types"
)

// BuildResult is the outcome of one grid entry attempt.
type BuildResult int

const (
	// NoFill: every submitted rung failed, nothing was registered.
	NoFill BuildResult = iota
	// Entered: at least one rung filled and the grid was registered.
	Entered
	// CostRejected: rung 0 could not cover its costs, nothing was submitted.
	CostRejected
)

func (r BuildResult) String() string {
	switch r {
	case Entered:
		return "entered"
	case CostRejected:
		return "cost_rejected"
	default:
		return "no_fill"
	}
}

// Builder turns an entry signal into a registered grid.
type Builder struct {
	cfg      config.GridConfig
	gw       executor.Gateway
	inst     executor.Instrument
	sizer    *risk.KellyAllocator
	registry *Registry
	log      logger.Logger
	seq      uint64
}

func NewBuilder(cfg config.GridConfig, gw executor.Gateway, inst executor.Instrument,
	sizer *risk.KellyAllocator, registry *Registry, log logger.Logger) *Builder {
	return &Builder{cfg: cfg, gw: gw, inst: inst, sizer: sizer, registry: registry, log: log}
}

// CostPips is the round-trip cost of one rung in pips.
func (b *Builder) CostPips() float64 {
	return b.cfg.UnitTradingCost() + 2*b.inst.Spread()/b.inst.PipSize()
}

// Build computes the rung targets from the envelope, drops the rungs that
// cannot beat their costs and submits the rest in index order.
func (b *Builder) Build(dir types.Direction, md feed.MarketData) (BuildResult, *Grid) {
	offset := b.cfg.ConfirmationOffset()
	lb := b.cfg.Shift + offset
	levels := b.cfg.Levels
	targets := Targets(dir, md.Middle(lb), md.Lower(lb), md.Upper(lb), levels)
	entry := md.Close(offset)
	pip := b.inst.PipSize()
	cost := b.CostPips()

	b.seq++
	g := newGrid(b.seq, dir, levels)
	filled := 0
	for i, target := range targets {
		tpPips := roundBank(math.Abs(entry-target)/pip, 1)
		// NaN distances fail this test as well.
		if !(cost+b.cfg.MinNetTPPips < tpPips) {
			if i == 0 {
				metrics.CostRejections.WithLabelValues("grid").Inc()
				b.log.Info("grid_cost_rejected",
					logger.String("direction", dir.String()),
					logger.Float64("cost_pips", cost),
					logger.Float64("tp_pips", tpPips),
				)
				return CostRejected, nil
			}
			metrics.CostRejections.WithLabelValues("rung").Inc()
			b.log.Info("grid_truncated",
				logger.String("direction", dir.String()),
				logger.Int("levels", i),
				logger.Float64("cost_pips", cost),
				logger.Float64("tp_pips", tpPips),
			)
			break
		}

		metrics.RungRiskFraction.WithLabelValues(strconv.Itoa(i)).Set(b.sizer.RiskFraction(i))
		req := types.OpenRequest{
			Direction:  dir,
			Size:       b.sizer.Size(i),
			Label:      fmt.Sprintf("%s - Level %d", b.cfg.InstanceID, i+1),
			Tag:        types.RungTag{Instance: b.cfg.InstanceID, Grid: g.Seq, Rung: i},
			StopPips:   b.cfg.InitialSLPips,
			TargetPips: tpPips,
		}
		pos, err := b.gw.Open(req)
		if err != nil {
			metrics.RungOrders.WithLabelValues("failed").Inc()
			b.log.Warn("rung_submit_failed",
				logger.String("direction", dir.String()),
				logger.Int("level", i+1),
				logger.Float64("size", req.Size),
				logger.Err(err),
			)
			continue
		}
		metrics.RungOrders.WithLabelValues("filled").Inc()
		g.Rungs[i].Position = pos
		filled++
	}

	if filled == 0 {
		b.log.Warn("grid_not_entered", logger.String("direction", dir.String()))
		return NoFill, nil
	}
	g.ID = g.composeID()
	b.registry.Add(g)
	metrics.GridsOpened.WithLabelValues(dir.String()).Inc()
	b.log.Info("grid_opened",
		logger.String("grid", g.ID),
		logger.String("direction", dir.String()),
		logger.Int("rungs", filled),
	)
	return Entered, g
}

func roundBank(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).RoundBank(places).InexactFloat64()
}
