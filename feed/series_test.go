package feed

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evdnx/bbgrid/config"
)

func addCloses(s *Series, start time.Time, closes ...float64) {
	for i, c := range closes {
		s.AddBar(Bar{OpenTime: start.Add(time.Duration(i) * time.Minute), Open: c, High: c, Low: c, Close: c})
	}
}

func TestNewSeries_Validation(t *testing.T) {
	_, err := NewSeries(1, 2, config.MASimple, 10)
	require.Error(t, err)
	_, err = NewSeries(20, 2, "hull", 10)
	require.Error(t, err)
	s, err := NewSeries(20, 2, config.MASimple, 5)
	require.NoError(t, err)
	assert.Equal(t, 22, s.max)
}

func TestSeries_SimpleBands(t *testing.T) {
	s, err := NewSeries(3, 2, config.MASimple, 10)
	require.NoError(t, err)
	start := time.Unix(0, 0).UTC()

	addCloses(s, start, 1, 2)
	assert.True(t, math.IsNaN(s.Middle(0)), "envelope needs a full period")

	addCloses(s, start.Add(2*time.Minute), 3)
	dev := 2 * math.Sqrt(2.0/3.0)
	assert.InDelta(t, 2.0, s.Middle(0), 1e-12)
	assert.InDelta(t, 2.0-dev, s.Lower(0), 1e-12)
	assert.InDelta(t, 2.0+dev, s.Upper(0), 1e-12)
	assert.Equal(t, 3.0, s.Close(0))
	assert.Equal(t, 2.0, s.Close(1))
	assert.Equal(t, start.Add(2*time.Minute), s.OpenTime(0))
}

func TestSeries_UpdateLastRecomputesFormingBarOnly(t *testing.T) {
	s, err := NewSeries(3, 2, config.MASimple, 10)
	require.NoError(t, err)
	addCloses(s, time.Unix(0, 0), 1, 2, 3, 4)
	closedMiddle := s.Middle(1)

	s.UpdateLast(7)
	assert.InDelta(t, 4.0, s.Middle(0), 1e-12) // (2+3+7)/3
	assert.Equal(t, closedMiddle, s.Middle(1))

	last, ok := s.Last()
	require.True(t, ok)
	assert.Equal(t, 7.0, last.High)
	assert.Equal(t, 7.0, last.Close)
}

func TestSeries_OutOfRangeLookback(t *testing.T) {
	s, err := NewSeries(3, 2, config.MASimple, 10)
	require.NoError(t, err)
	addCloses(s, time.Unix(0, 0), 1, 2, 3)

	assert.True(t, math.IsNaN(s.Close(3)))
	assert.True(t, math.IsNaN(s.Lower(-1)))
	assert.True(t, s.OpenTime(10).IsZero())
}

func TestSeries_WindowIsBounded(t *testing.T) {
	s, err := NewSeries(2, 2, config.MASimple, 4)
	require.NoError(t, err)
	addCloses(s, time.Unix(0, 0), 1, 2, 3, 4, 5, 6)
	assert.Equal(t, 4, s.Len())
	assert.Equal(t, 3.0, s.Close(3))
}

func TestSeries_WeightedAndExponential(t *testing.T) {
	w, err := NewSeries(3, 2, config.MAWeighted, 10)
	require.NoError(t, err)
	addCloses(w, time.Unix(0, 0), 1, 2, 3)
	assert.InDelta(t, (1+4+9)/6.0, w.Middle(0), 1e-12)

	e, err := NewSeries(3, 2, config.MAExponential, 10)
	require.NoError(t, err)
	addCloses(e, time.Unix(0, 0), 1, 2, 3)
	assert.InDelta(t, 2.0, e.Middle(0), 1e-12) // seeded with the simple mean
	addCloses(e, time.Unix(600, 0), 5)
	assert.InDelta(t, 2.0+0.5*(5-2.0), e.Middle(0), 1e-12)
}

func TestSeries_DeviationAroundMiddleLine(t *testing.T) {
	s, err := NewSeries(3, 2, config.MAWeighted, 10)
	require.NoError(t, err)
	addCloses(s, time.Unix(0, 0), 1, 2, 3)

	mid := 14.0 / 6.0
	dev := 2 * math.Sqrt(((1-mid)*(1-mid)+(2-mid)*(2-mid)+(3-mid)*(3-mid))/3)
	assert.InDelta(t, mid, s.Middle(0), 1e-12)
	assert.InDelta(t, mid+dev, s.Upper(0), 1e-12)
	assert.InDelta(t, mid-dev, s.Lower(0), 1e-12)
}

func TestSeries_ExponentialFollowsTicks(t *testing.T) {
	s, err := NewSeries(3, 2, config.MAExponential, 10)
	require.NoError(t, err)
	addCloses(s, time.Unix(0, 0), 1, 2, 3, 5)
	closedMiddle := s.Middle(1)

	s.UpdateLast(9)
	assert.InDelta(t, 2.0+0.5*(9-2.0), s.Middle(0), 1e-12)
	assert.Equal(t, closedMiddle, s.Middle(1))
}
