package strategy

import (
	"testing"

	"github.com/evdnx/bbgrid/types"
)

func TestBuild_FullLongGrid(t *testing.T) {
	h := newHarness(t, testConfig())
	g := h.enterLong(t)

	opens := h.gw.Opens()
	if len(opens) != 3 {
		t.Fatalf("expected 3 rung orders, got %d", len(opens))
	}
	wantTP := []float64{60, 43.3, 26.7}
	for i, req := range opens {
		if req.Direction != types.Buy {
			t.Fatalf("rung %d: wrong direction %s", i, req.Direction)
		}
		if req.Tag.Rung != i || req.Tag.Grid != g.Seq || req.Tag.Instance != "test-grid" {
			t.Fatalf("rung %d: unexpected tag %+v", i, req.Tag)
		}
		if !approx(req.TargetPips, wantTP[i]) {
			t.Fatalf("rung %d: expected %v target pips, got %v", i, wantTP[i], req.TargetPips)
		}
		if req.StopPips != 10 {
			t.Fatalf("rung %d: expected the fixed initial stop, got %v", i, req.StopPips)
		}
		// 10k margin * 5% / 3 rungs, floored to a unit step
		if req.Size != 166 {
			t.Fatalf("rung %d: expected size 166, got %v", i, req.Size)
		}
	}
	if opens[1].Label != "test-grid - Level 2" {
		t.Fatalf("unexpected label %q", opens[1].Label)
	}
	if g.ID != "100.101.102" {
		t.Fatalf("unexpected grid id %q", g.ID)
	}
}

func TestBuild_CostTruncatesTrailingRungs(t *testing.T) {
	cfg := testConfig()
	cfg.MinNetTPPips = 30 // cost ~2 pips: rung 2 (26.7 pips) cannot pay for itself
	h := newHarness(t, cfg)
	g := h.enterLong(t)

	if n := len(h.gw.Opens()); n != 2 {
		t.Fatalf("expected exactly rungs 0..1 submitted, got %d", n)
	}
	if !g.Rungs[2].Empty() || g.ID != "100.101.-1" {
		t.Fatalf("rung 2 must stay empty, id %q", g.ID)
	}
	if h.log.Count("grid_truncated") != 1 {
		t.Fatal("expected a truncation log entry")
	}
}

func TestBuild_CostRejectsWholeGrid(t *testing.T) {
	cfg := testConfig()
	cfg.MinNetTPPips = 58 // 2.00003 + 58 >= 60
	h := newHarness(t, cfg)
	longSetup(h.feed, barTime)

	res, attempted := h.eng.OnTick(h.feed)
	if !attempted || res != CostRejected {
		t.Fatalf("expected CostRejected, got %v", res)
	}
	if len(h.gw.Opens()) != 0 {
		t.Fatal("no order may be submitted when rung 0 is rejected")
	}
	if h.eng.registry.Len() != 0 {
		t.Fatal("no grid may be registered")
	}
	// a rejection is not an entry: the same bar is evaluated again
	if _, attempted := h.eng.OnTick(h.feed); !attempted {
		t.Fatal("cost rejection must not debounce the bar")
	}
}

func TestBuild_RungFailureLeavesSlotEmpty(t *testing.T) {
	h := newHarness(t, testConfig())
	h.gw.FailOpen(0)
	g := h.enterLong(t)

	if len(h.gw.Opens()) != 3 {
		t.Fatal("a failed rung must not stop the remaining submissions")
	}
	if !g.Rungs[0].Empty() || g.Rungs[1].Empty() || g.Rungs[2].Empty() {
		t.Fatalf("unexpected rung state %+v", g.Rungs)
	}
	if g.ID != "-1.100.101" {
		t.Fatalf("unexpected grid id %q", g.ID)
	}
	if got := h.log.Levels("rung_submit_failed"); len(got) != 1 || got[0] != "warn" {
		t.Fatalf("expected one warn for the failed rung, got %v", got)
	}
}

func TestBuild_AllRungsFail(t *testing.T) {
	h := newHarness(t, testConfig())
	for i := 0; i < 3; i++ {
		h.gw.FailOpen(i)
	}
	longSetup(h.feed, barTime)
	res, _ := h.eng.OnTick(h.feed)
	if res != NoFill {
		t.Fatalf("expected NoFill, got %v", res)
	}
	if h.eng.registry.Len() != 0 {
		t.Fatal("an unfilled grid must not be registered")
	}
	if _, attempted := h.eng.OnTick(h.feed); !attempted {
		t.Fatal("a failed entry must not debounce the bar")
	}
}

func TestBuild_ShortGrid(t *testing.T) {
	h := newHarness(t, testConfig())
	h.gw.SetPrice(1.1060)
	shortSetup(h.feed, barTime)
	res, _ := h.eng.OnTick(h.feed)
	if res != Entered {
		t.Fatalf("expected a short grid, got %v", res)
	}
	opens := h.gw.Opens()
	if len(opens) != 3 || opens[0].Direction != types.Sell {
		t.Fatalf("unexpected orders %+v", opens)
	}
	if !approx(opens[2].TargetPips, 26.7) {
		t.Fatalf("unexpected rung 2 target %v", opens[2].TargetPips)
	}
}

func TestBuildResultString(t *testing.T) {
	if Entered.String() != "entered" || CostRejected.String() != "cost_rejected" || NoFill.String() != "no_fill" {
		t.Fatal("unexpected BuildResult names")
	}
}
