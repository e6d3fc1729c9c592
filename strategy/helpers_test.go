package strategy

import (
	"math"
	"testing"
	"time"

	"github.com/evdnx/bbgrid/config"
	"github.com/evdnx/bbgrid/testutils"
	"github.com/evdnx/bbgrid/types"
)

const (
	pip       = 0.0001
	fillPrice = 1.0940
)

var barTime = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func testConfig() config.GridConfig {
	cfg := config.DefaultGridConfig()
	cfg.InstanceID = "test-grid"
	cfg.DynamicTP = false
	return cfg
}

type harness struct {
	eng  *Engine
	gw   *testutils.MockGateway
	acct *testutils.MockAccount
	feed *testutils.MockFeed
	log  *testutils.MockLogger
}

func newHarness(t *testing.T, cfg config.GridConfig) *harness {
	t.Helper()
	h := &harness{
		gw:   testutils.NewMockGateway(fillPrice, pip),
		acct: testutils.NewMockAccount(10_000),
		feed: &testutils.MockFeed{},
		log:  testutils.NewMockLogger(),
	}
	eng, err := NewEngine(cfg, h.gw, h.gw, h.acct, h.log)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	h.eng = eng
	return h
}

// longSetup puts a lower-band breach on the newest bar: close 1.0940 below
// lower 1.0950, previous close 1.0960 above its lower 1.0955.
func longSetup(f *testutils.MockFeed, at time.Time) {
	f.Bars = []testutils.MockBar{
		{OpenTime: at, Close: 1.0940, Lower: 1.0950, Middle: 1.1000, Upper: 1.1050},
		{OpenTime: at.Add(-time.Hour), Close: 1.0960, Lower: 1.0955, Middle: 1.1000, Upper: 1.1045},
	}
}

// shortSetup is the mirror case on the upper band.
func shortSetup(f *testutils.MockFeed, at time.Time) {
	f.Bars = []testutils.MockBar{
		{OpenTime: at, Close: 1.1060, Lower: 1.0950, Middle: 1.1000, Upper: 1.1050},
		{OpenTime: at.Add(-time.Hour), Close: 1.1040, Lower: 1.0955, Middle: 1.1000, Upper: 1.1045},
	}
}

// enterLong opens a full long grid and returns it.
func (h *harness) enterLong(t *testing.T) *Grid {
	t.Helper()
	h.gw.SetPrice(fillPrice)
	longSetup(h.feed, barTime)
	res, attempted := h.eng.OnTick(h.feed)
	if !attempted || res != Entered {
		t.Fatalf("expected a long grid, got %v (attempted=%v)", res, attempted)
	}
	grids := h.eng.registry.Grids()
	return grids[len(grids)-1]
}

func (h *harness) closeRung(t *testing.T, g *Grid, level int, price float64, reason types.CloseReason) types.ClosedPosition {
	t.Helper()
	pos := g.Rungs[level].Position
	if pos == nil {
		t.Fatalf("rung %d is empty", level)
	}
	ev := h.gw.Settle(pos, price, reason)
	h.eng.OnPositionClosed(ev)
	return ev
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }
