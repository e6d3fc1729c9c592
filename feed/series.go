package feed

import (
	"fmt"
	"math"
	"time"

	"github.com/evdnx/goti"

	"github.com/evdnx/bbgrid/config"
)

type band struct {
	lower, middle, upper float64
}

// Series keeps a rolling window of bars and the envelope computed for each.
// The forming bar's envelope is recomputed on every tick.
type Series struct {
	max    int
	period int
	stdDev float64
	maType string

	bars  []Bar
	bands []band
}

var maTypes = map[string]goti.MovingAverageType{
	config.MASimple:      goti.SMAMovingAverage,
	config.MAExponential: goti.EMAMovingAverage,
	config.MAWeighted:    goti.WMAMovingAverage,
}

// NewSeries builds a Series that keeps at most max bars (at least period+2).
func NewSeries(period int, stdDev float64, maType string, max int) (*Series, error) {
	if period <= 1 {
		return nil, fmt.Errorf("period (%d) must be greater than 1", period)
	}
	if _, ok := maTypes[maType]; !ok {
		return nil, fmt.Errorf("unknown moving average %q", maType)
	}
	if max < period+2 {
		max = period + 2
	}
	return &Series{max: max, period: period, stdDev: stdDev, maType: maType}, nil
}

// NewSeriesFromConfig sizes the window for the configured period and shift.
func NewSeriesFromConfig(cfg config.GridConfig) (*Series, error) {
	return NewSeries(cfg.Period, cfg.StdDev, cfg.MAType, 4*cfg.Period+cfg.Shift+8)
}

// AddBar appends a new bar and makes it the forming bar.
func (s *Series) AddBar(b Bar) {
	s.bars = append(s.bars, b)
	s.bands = append(s.bands, band{})
	if len(s.bars) > s.max {
		drop := len(s.bars) - s.max
		s.bars = s.bars[drop:]
		s.bands = s.bands[drop:]
	}
	s.recompute()
}

// UpdateLast applies a tick price to the forming bar.
func (s *Series) UpdateLast(price float64) {
	n := len(s.bars)
	if n == 0 {
		return
	}
	b := &s.bars[n-1]
	b.Close = price
	if price > b.High {
		b.High = price
	}
	if price < b.Low {
		b.Low = price
	}
	s.recompute()
}

// Last returns the forming bar.
func (s *Series) Last() (Bar, bool) {
	if len(s.bars) == 0 {
		return Bar{}, false
	}
	return s.bars[len(s.bars)-1], true
}

func (s *Series) Len() int { return len(s.bars) }

func (s *Series) index(lookback int) int {
	i := len(s.bars) - 1 - lookback
	if lookback < 0 || i < 0 {
		return -1
	}
	return i
}

func (s *Series) Close(lookback int) float64 {
	i := s.index(lookback)
	if i < 0 {
		return math.NaN()
	}
	return s.bars[i].Close
}

func (s *Series) OpenTime(lookback int) time.Time {
	i := s.index(lookback)
	if i < 0 {
		return time.Time{}
	}
	return s.bars[i].OpenTime
}

func (s *Series) Lower(lookback int) float64 { return s.bandAt(lookback).lower }
func (s *Series) Middle(lookback int) float64 { return s.bandAt(lookback).middle }
func (s *Series) Upper(lookback int) float64 { return s.bandAt(lookback).upper }

func (s *Series) bandAt(lookback int) band {
	i := s.index(lookback)
	if i < 0 {
		return band{math.NaN(), math.NaN(), math.NaN()}
	}
	return s.bands[i]
}

// recompute refreshes the envelope of the forming bar only; closed bars
// keep the values they had when they closed. The middle line is rebuilt from
// every close in the window so an exponential average gets its warm-up.
func (s *Series) recompute() {
	n := len(s.bars)
	i := n - 1
	s.bands[i] = band{math.NaN(), math.NaN(), math.NaN()}
	if n < s.period {
		return
	}

	ma, err := goti.NewMovingAverage(maTypes[s.maType], s.period)
	if err != nil {
		return
	}
	for k := 0; k < n; k++ {
		if err := ma.Add(s.bars[k].Close); err != nil {
			return
		}
	}
	mid, err := ma.Calculate()
	if err != nil {
		return
	}

	window := make([]float64, s.period)
	for k := 0; k < s.period; k++ {
		window[k] = s.bars[n-s.period+k].Close
	}
	dev := s.stdDev * deviation(window, mid)
	s.bands[i] = band{lower: mid - dev, middle: mid, upper: mid + dev}
}

// deviation is the population standard deviation of vals around mid, the
// middle line of whichever average the envelope uses.
func deviation(vals []float64, mid float64) float64 {
	acc := 0.0
	for _, v := range vals {
		d := v - mid
		acc += d * d
	}
	return math.Sqrt(acc / float64(len(vals)))
}
