package strategy

import (
	"math"

	"github.com/evdnx/bbgrid/config"
	"github.com/evdnx/bbgrid/executor"
	"github.com/evdnx/bbgrid/logger"
	"github.com/evdnx/bbgrid/metrics"
	"github.com/evdnx/bbgrid/risk"
	"github.com/evdnx/bbgrid/types"
)

// ClosureHandler reacts to positions leaving the book: it feeds the rung
// ledger, cascades stops to the closer rungs and retires spent grids.
type ClosureHandler struct {
	cfg      config.GridConfig
	ledger   *risk.Ledger
	registry *Registry
	history  executor.History
	inst     executor.Instrument
	log      logger.Logger
}

func NewClosureHandler(cfg config.GridConfig, ledger *risk.Ledger, registry *Registry,
	history executor.History, inst executor.Instrument, log logger.Logger) *ClosureHandler {
	return &ClosureHandler{cfg: cfg, ledger: ledger, registry: registry, history: history, inst: inst, log: log}
}

func (h *ClosureHandler) Handle(ev types.ClosedPosition) {
	if ev.Tag.Instance != h.cfg.InstanceID {
		return
	}
	level := ev.Tag.Rung
	metrics.PositionsClosed.WithLabelValues(string(ev.Reason)).Inc()

	if err := h.ledger.Record(level, ev.NetProfit); err != nil {
		h.log.Warn("close_event_invalid",
			logger.String("position", ev.ID),
			logger.Int("level", level),
			logger.Err(err),
		)
		return
	}

	g := h.registry.Get(ev.Tag.Grid)
	if g == nil || !g.holds(level, ev.ID) {
		h.log.Warn("close_event_untracked",
			logger.String("position", ev.ID),
			logger.Uint64("grid_seq", ev.Tag.Grid),
			logger.Int("level", level+1),
		)
		return
	}

	if h.cfg.DynamicSL && ev.Reason != types.ReasonStopLoss && level > 0 {
		stop := h.cascadeStop(g, ev)
		h.registry.Cascade(g, level, stop)
		g.LastClosedPrice = h.exitPrice(ev)
	}
	g.clear(level)

	if level == 0 {
		h.registry.Retire(g.Seq)
		h.log.Info("grid_retired",
			logger.String("grid", g.ID),
			logger.String("reason", string(ev.Reason)),
		)
	}
}

// cascadeStop is the stop for the closer rungs: at least break-even for the
// closed rung plus costs, and never behind the previous exit.
func (h *ClosureHandler) cascadeStop(g *Grid, ev types.ClosedPosition) float64 {
	buffer := h.cfg.UnitTradingCost() + h.inst.Spread()
	var stop float64
	if g.Direction == types.Buy {
		stop = math.Max(g.LastClosedPrice, ev.EntryPrice+buffer)
	} else {
		stop = math.Min(g.LastClosedPrice, ev.EntryPrice-buffer)
	}
	return roundBank(stop, int32(h.inst.Digits()))
}

func (h *ClosureHandler) exitPrice(ev types.ClosedPosition) float64 {
	if ev.Reason == types.ReasonTakeProfit && ev.TakeProfit != 0 {
		return ev.TakeProfit
	}
	if h.history != nil {
		price, err := h.history.ClosingPrice(ev.ID)
		if err == nil {
			return price
		}
		h.log.Warn("history_lookup_failed", logger.String("position", ev.ID), logger.Err(err))
	}
	return ev.ClosePrice
}
