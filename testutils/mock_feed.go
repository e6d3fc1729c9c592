package testutils

import (
	"math"
	"time"
)

// MockBar is one bar of a MockFeed.
type MockBar struct {
	OpenTime             time.Time
	Close                float64
	Lower, Middle, Upper float64
}

// MockFeed implements feed.MarketData over a fixed slice. Bars[0] is
// look-back 0.
type MockFeed struct {
	Bars []MockBar
}

// Push makes b the newest bar.
func (f *MockFeed) Push(b MockBar) {
	f.Bars = append([]MockBar{b}, f.Bars...)
}

// SetClose changes the close of the newest bar, like a tick would.
func (f *MockFeed) SetClose(price float64) {
	if len(f.Bars) > 0 {
		f.Bars[0].Close = price
	}
}

func (f *MockFeed) at(lb int) (MockBar, bool) {
	if lb < 0 || lb >= len(f.Bars) {
		return MockBar{}, false
	}
	return f.Bars[lb], true
}

func (f *MockFeed) Close(lb int) float64 {
	b, ok := f.at(lb)
	if !ok {
		return math.NaN()
	}
	return b.Close
}

func (f *MockFeed) OpenTime(lb int) time.Time {
	b, _ := f.at(lb)
	return b.OpenTime
}

func (f *MockFeed) Lower(lb int) float64 {
	b, ok := f.at(lb)
	if !ok {
		return math.NaN()
	}
	return b.Lower
}

func (f *MockFeed) Middle(lb int) float64 {
	b, ok := f.at(lb)
	if !ok {
		return math.NaN()
	}
	return b.Middle
}

func (f *MockFeed) Upper(lb int) float64 {
	b, ok := f.at(lb)
	if !ok {
		return math.NaN()
	}
	return b.Upper
}

func (f *MockFeed) Len() int { return len(f.Bars) }
