package sim

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evdnx/bbgrid/config"
	"github.com/evdnx/bbgrid/feed"
	"github.com/evdnx/bbgrid/testutils"
)

func flatBars(start time.Time, closes ...float64) []feed.Bar {
	out := make([]feed.Bar, len(closes))
	for i, c := range closes {
		out[i] = feed.Bar{OpenTime: start.Add(time.Duration(i) * time.Hour), Open: c, High: c, Low: c, Close: c}
	}
	return out
}

func replayConfig() config.AppConfig {
	cfg := *config.Default()
	cfg.Grid.Period = 10
	cfg.Grid.MinNetTPPips = 5
	cfg.Grid.InitialSLPips = 50
	cfg.Grid.DynamicTP = false
	return cfg
}

// Ten quiet bars, a drop through the lower band, a rebound that takes the
// two nearest targets, then a dip that stops out rung 0 above its entry.
func scenarioBars() []feed.Bar {
	closes := []float64{
		1.1000, 1.1010, 1.1000, 1.1010, 1.1000,
		1.1010, 1.1000, 1.1010, 1.1000, 1.1010,
		1.0950,
		1.0990,
		1.0980,
	}
	return flatBars(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), closes...)
}

func TestRunner_GridLifecycle(t *testing.T) {
	log := testutils.NewMockLogger()
	r, err := NewRunner(replayConfig(), log)
	require.NoError(t, err)

	rep, err := r.Run(context.Background(), scenarioBars())
	require.NoError(t, err)

	assert.Equal(t, 13, rep.Bars)
	assert.Equal(t, 1, rep.GridsOpened)
	assert.Equal(t, 3, rep.Trades)
	assert.Equal(t, 3, rep.Wins)
	assert.Zero(t, rep.Losses)
	assert.Greater(t, rep.NetProfit, 0.0)
	assert.InDelta(t, 10_000+rep.NetProfit, rep.FinalBalance, 1e-9)
	assert.Empty(t, rep.Final.Grids, "rung 0 closing retires the grid")
	require.Len(t, rep.Final.Rungs, 3)
	for i, st := range rep.Final.Rungs {
		assert.Equal(t, 1, st.Wins, "rung %d", i)
	}
	assert.Equal(t, 2, log.Count("stop_moved"))
	assert.Equal(t, 1, log.Count("grid_retired"))
}

func TestRunner_NoSignalOnQuietMarket(t *testing.T) {
	r, err := NewRunner(replayConfig(), testutils.NewMockLogger())
	require.NoError(t, err)

	rep, err := r.Run(context.Background(), scenarioBars()[:10])
	require.NoError(t, err)
	assert.Zero(t, rep.GridsOpened)
	assert.Zero(t, rep.Trades)
	assert.Equal(t, 10_000.0, rep.FinalBalance)
}

func TestRunner_Cancelled(t *testing.T) {
	r, err := NewRunner(replayConfig(), testutils.NewMockLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rep, err := r.Run(ctx, scenarioBars())
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, rep.Bars)
}

func TestNewRunner_InvalidConfig(t *testing.T) {
	cfg := replayConfig()
	cfg.Grid.Levels = 0
	_, err := NewRunner(cfg, testutils.NewMockLogger())
	require.Error(t, err)

	cfg = replayConfig()
	cfg.Paper.PipSize = 0
	_, err = NewRunner(cfg, testutils.NewMockLogger())
	require.Error(t, err)
}
