package types

import "fmt"

type Direction string

const (
	Buy  Direction = "BUY"
	Sell Direction = "SELL"
)

// Sign returns +1 for long and -1 for short.
func (d Direction) Sign() float64 {
	if d == Sell {
		return -1
	}
	return 1
}

func (d Direction) String() string { return string(d) }

// RungTag identifies the grid and rung an order belongs to.
type RungTag struct {
	Instance string
	Grid     uint64
	Rung     int
}

func (t RungTag) String() string {
	return fmt.Sprintf("%s#%d/%d", t.Instance, t.Grid, t.Rung)
}

type OpenRequest struct {
	Direction  Direction
	Size       float64
	Label      string // display only
	Tag        RungTag
	StopPips   float64
	TargetPips float64
}

// Position is a handle to a broker-owned position.
type Position struct {
	ID         string
	Tag        RungTag
	Label      string
	Direction  Direction
	Size       float64
	EntryPrice float64
	StopLoss   float64 // 0 = none
	TakeProfit float64 // 0 = none
}

type CloseReason string

const (
	ReasonStopLoss   CloseReason = "stop_loss"
	ReasonTakeProfit CloseReason = "take_profit"
	ReasonClosed     CloseReason = "closed"
	ReasonStopOut    CloseReason = "stop_out"
)

// ClosedPosition is delivered once per position when it leaves the book.
type ClosedPosition struct {
	Position
	ClosePrice float64
	NetProfit  float64
	Reason     CloseReason
}
