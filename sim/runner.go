// Package sim replays historical bars through the paper executor and the
// grid engine.
package sim

import (
	"context"

	"github.com/evdnx/bbgrid/config"
	"github.com/evdnx/bbgrid/executor"
	"github.com/evdnx/bbgrid/feed"
	"github.com/evdnx/bbgrid/logger"
	"github.com/evdnx/bbgrid/strategy"
)

// Report summarizes one replay.
type Report struct {
	Bars         int
	Ticks        int
	GridsOpened  int
	CostRejected int
	Trades       int
	Wins         int
	Losses       int
	NetProfit    float64
	FinalBalance float64
	Final        strategy.Snapshot
}

type Runner struct {
	cfg    config.AppConfig
	log    logger.Logger
	series *feed.Series
	paper  *executor.PaperExecutor
	engine *strategy.Engine
	report Report
}

func NewRunner(cfg config.AppConfig, log logger.Logger) (*Runner, error) {
	if err := cfg.Paper.Validate(); err != nil {
		return nil, err
	}
	series, err := feed.NewSeriesFromConfig(cfg.Grid)
	if err != nil {
		return nil, err
	}
	paper := executor.NewPaperExecutor(cfg.Paper, log)
	engine, err := strategy.NewEngine(cfg.Grid, paper, paper, paper, log)
	if err != nil {
		return nil, err
	}
	return &Runner{cfg: cfg, log: log, series: series, paper: paper, engine: engine}, nil
}

// Run feeds every bar as a short tick sequence and stops the engine at the
// end. A cancelled context stops the replay early; the partial report is
// returned with the context's error.
func (r *Runner) Run(ctx context.Context, bars []feed.Bar) (Report, error) {
	var runErr error
	for _, b := range bars {
		if err := ctx.Err(); err != nil {
			r.log.Warn("replay_cancelled", logger.Int("bars", r.report.Bars))
			runErr = err
			break
		}
		r.engine.OnBar()
		r.series.AddBar(feed.Bar{OpenTime: b.OpenTime, Open: b.Open, High: b.Open, Low: b.Open, Close: b.Open})
		for _, p := range ticks(b) {
			r.tick(p)
		}
		r.report.Bars++
	}

	r.report.Final = r.engine.Shutdown()
	r.report.FinalBalance = r.paper.Balance()
	return r.report, runErr
}

func (r *Runner) tick(price float64) {
	r.report.Ticks++
	r.series.UpdateLast(price)
	r.paper.OnPrice(price)
	r.deliver()

	if res, attempted := r.engine.OnTick(r.series); attempted {
		switch res {
		case strategy.Entered:
			r.report.GridsOpened++
		case strategy.CostRejected:
			r.report.CostRejected++
		}
	}
	// closes requested by the dynamic take-profit sweep
	r.deliver()
}

// deliver hands queued close events to the engine outside the executor's
// lock.
func (r *Runner) deliver() {
	for _, ev := range r.paper.DrainClosed() {
		r.report.Trades++
		if ev.NetProfit > 0 {
			r.report.Wins++
		} else {
			r.report.Losses++
		}
		r.report.NetProfit += ev.NetProfit
		r.engine.OnPositionClosed(ev)
	}
}
