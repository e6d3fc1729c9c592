// Command gridsim replays a CSV of bars through the Bollinger grid engine
// on a paper account and prints a summary.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/evdnx/bbgrid/config"
	"github.com/evdnx/bbgrid/logger"
	"github.com/evdnx/bbgrid/sim"
)

var (
	green = color.New(color.FgGreen).SprintfFunc()
	red   = color.New(color.FgRed).SprintfFunc()
	cyan  = color.New(color.FgCyan, color.Bold).SprintfFunc()
)

func main() {
	configPath := flag.String("config", "", "YAML config file (defaults when empty)")
	barsPath := flag.String("bars", "", "CSV of bars: time,open,high,low,close")
	metricsAddr := flag.String("metrics-addr", "", "serve /metrics on this address while replaying, e.g. :9090")
	flag.Parse()

	if err := run(*configPath, *barsPath, *metricsAddr); err != nil {
		fmt.Fprintln(os.Stderr, red("gridsim: %v", err))
		os.Exit(1)
	}
}

func run(configPath, barsPath, metricsAddr string) error {
	if barsPath == "" {
		return errors.New("-bars is required")
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log, err := logger.NewZapLogger(cfg.Log.Level)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync(log) }()

	f, err := os.Open(barsPath)
	if err != nil {
		return err
	}
	bars, err := sim.LoadBars(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("load %s: %w", barsPath, err)
	}

	if metricsAddr != "" {
		srv := serveMetrics(metricsAddr, log)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}()
	}

	runID := uuid.New().String()
	log.Info("replay_started",
		logger.String("run_id", runID),
		logger.String("instance", cfg.Grid.InstanceID),
		logger.Int("bars", len(bars)),
	)

	runner, err := sim.NewRunner(*cfg, log)
	if err != nil {
		return err
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rep, err := runner.Run(ctx, bars)
	printSummary(runID, rep)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func serveMetrics(addr string, log logger.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics_server_failed", logger.Err(err))
		}
	}()
	return srv
}

func printSummary(runID string, rep sim.Report) {
	pnl := green
	if rep.NetProfit < 0 {
		pnl = red
	}
	fmt.Println(cyan("== gridsim %s ==", runID))
	fmt.Printf("bars %d, ticks %d\n", rep.Bars, rep.Ticks)
	fmt.Printf("grids opened %d, cost rejected %d, still active %d\n",
		rep.GridsOpened, rep.CostRejected, len(rep.Final.Grids))
	fmt.Printf("trades %d (%s / %s)\n", rep.Trades, green("%d won", rep.Wins), red("%d lost", rep.Losses))
	fmt.Printf("net %s, balance %.2f\n", pnl("%.2f", rep.NetProfit), rep.FinalBalance)
	for i, st := range rep.Final.Rungs {
		fmt.Printf("  level %d: %d/%d  profit %.2f  loss %.2f\n", i+1, st.Wins, st.Losses, st.ProfitSum, st.LossSum)
	}
}
