// Package feed adapts bar data and a Bollinger envelope to the read-only
// look-back view the grid engine consumes.
package feed

import "time"

// MarketData is the engine's view of prices and the envelope. Look-back 0
// is the most recent (possibly still forming) bar; look-backs past the
// available history return NaN (zero time for OpenTime).
type MarketData interface {
	Close(lookback int) float64
	OpenTime(lookback int) time.Time
	Lower(lookback int) float64
	Middle(lookback int) float64
	Upper(lookback int) float64
	Len() int
}

// Bar is one OHLC candle.
type Bar struct {
	OpenTime time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
}
