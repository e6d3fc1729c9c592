package strategy

import (
	"sync"

	"github.com/evdnx/bbgrid/config"
	"github.com/evdnx/bbgrid/executor"
	"github.com/evdnx/bbgrid/feed"
	"github.com/evdnx/bbgrid/logger"
	"github.com/evdnx/bbgrid/risk"
	"github.com/evdnx/bbgrid/types"
)

// Market is the account and instrument metadata the engine reads.
type Market interface {
	executor.Account
	executor.Instrument
}

// Engine wires the grid components together and is the entry point for the
// host event loop. One mutex serializes ticks, bars and close events so the
// ledger and the grid set are never observed half updated.
type Engine struct {
	mu sync.Mutex

	cfg      config.GridConfig
	log      logger.Logger
	ledger   *risk.Ledger
	registry *Registry
	detector *Detector
	builder  *Builder
	closure  *ClosureHandler
}

// NewEngine validates cfg and builds the engine. history may be nil, in
// which case the close event's own price is used as the exit reference.
func NewEngine(cfg config.GridConfig, gw executor.Gateway, history executor.History,
	market Market, log logger.Logger) (*Engine, error) {

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ledger := risk.NewLedger(cfg.Levels)
	registry := NewRegistry(gw, log)
	sizer := risk.NewKellyAllocator(ledger, market, cfg.InitialRiskPct, cfg.MaxRiskPct)
	return &Engine{
		cfg:      cfg,
		log:      log,
		ledger:   ledger,
		registry: registry,
		detector: NewDetector(cfg.Shift, cfg.ConfirmationOffset()),
		builder:  NewBuilder(cfg, gw, market, sizer, registry, log),
		closure:  NewClosureHandler(cfg, ledger, registry, history, market, log),
	}, nil
}

// OnTick evaluates the entry signal and, when enabled, the dynamic
// take-profit sweep. It returns the outcome of the entry attempt if one was
// made.
func (e *Engine) OnTick(md feed.MarketData) (BuildResult, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	result, attempted := NoFill, false
	if dir, ok := e.detector.Signal(md); ok {
		attempted = true
		result, _ = e.builder.Build(dir, md)
		if result == Entered {
			e.detector.MarkEntered(md)
		}
	}

	if e.cfg.DynamicTP && e.registry.Len() > 0 {
		lb := e.cfg.Shift
		e.registry.Sweep(md.Close(0), md.Middle(lb), md.Lower(lb), md.Upper(lb), e.cfg.Levels)
	}
	return result, attempted
}

// OnBar runs once per new bar and drops grids with no open rung left.
func (e *Engine) OnBar() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.registry.GC()
}

// OnPositionClosed must be called at most once per closed position.
func (e *Engine) OnPositionClosed(ev types.ClosedPosition) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closure.Handle(ev)
}

// GridView is a read-only copy of a live grid.
type GridView struct {
	Seq             uint64
	ID              string
	Direction       types.Direction
	OpenRungs       int
	LastClosedPrice float64
}

// Snapshot is the state reported when the engine stops.
type Snapshot struct {
	Grids []GridView
	Rungs []risk.RungStats
}

func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot()
}

func (e *Engine) snapshot() Snapshot {
	s := Snapshot{Rungs: e.ledger.All()}
	for _, g := range e.registry.Grids() {
		s.Grids = append(s.Grids, GridView{
			Seq:             g.Seq,
			ID:              g.ID,
			Direction:       g.Direction,
			OpenRungs:       g.OpenRungs(),
			LastClosedPrice: g.LastClosedPrice,
		})
	}
	return s
}

// Shutdown logs the live grids and the per-rung record, and returns them.
// Open positions are left to the broker.
func (e *Engine) Shutdown() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.snapshot()
	for _, g := range s.Grids {
		e.log.Info("active_grid",
			logger.String("grid", g.ID),
			logger.String("direction", g.Direction.String()),
			logger.Int("open_rungs", g.OpenRungs),
		)
	}
	for i, st := range s.Rungs {
		e.log.Info("rung_stats",
			logger.Int("level", i+1),
			logger.Int("wins", st.Wins),
			logger.Int("losses", st.Losses),
			logger.Float64("profit", st.ProfitSum),
			logger.Float64("loss", st.LossSum),
		)
	}
	e.log.Info("engine_stopped", logger.Int("active_grids", len(s.Grids)))
	return s
}
