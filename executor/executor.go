package executor

import (
	"errors"

	"github.com/evdnx/bbgrid/types"
)

var (
	ErrUnknownPosition    = errors.New("unknown position")
	ErrInsufficientMargin = errors.New("insufficient margin")
	ErrInvalidSize        = errors.New("invalid size")
	ErrInvalidStop        = errors.New("invalid stop price")
)

// Gateway places, closes and modifies positions. Every call reports its
// outcome synchronously; retries are the gateway's business.
type Gateway interface {
	Open(req types.OpenRequest) (*types.Position, error)
	Close(pos *types.Position) error
	ModifyStop(pos *types.Position, price float64) error
}

// History looks up the fill price of a position that already left the book.
type History interface {
	ClosingPrice(positionID string) (float64, error)
}

// Account exposes the margin available for sizing.
type Account interface {
	FreeMargin() float64
}

// Instrument describes the traded symbol.
type Instrument interface {
	MinSize() float64
	NormalizeSize(size float64) float64
	Spread() float64 // ask - bid, in price units
	PipSize() float64
	Digits() int
}
