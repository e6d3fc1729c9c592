package executor

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/evdnx/bbgrid/config"
	"github.com/evdnx/bbgrid/logger"
	"github.com/evdnx/bbgrid/metrics"
	"github.com/evdnx/bbgrid/types"
)

var ErrNoQuote = errors.New("no quote yet")

// PaperExecutor is an in-memory broker: perfect fills at bid/ask, stops and
// targets filled at their exact price, commission per million notional.
// Close events are queued and handed out by DrainClosed so the caller can
// deliver them outside its own critical section.
type PaperExecutor struct {
	mu  sync.Mutex
	cfg config.PaperConfig
	log logger.Logger

	balance float64
	bid     float64
	nextID  int

	open    []*types.Position
	closed  map[string]float64 // id -> closing price
	pending []types.ClosedPosition
}

func NewPaperExecutor(cfg config.PaperConfig, log logger.Logger) *PaperExecutor {
	return &PaperExecutor{
		cfg:     cfg,
		log:     log,
		balance: cfg.Balance,
		nextID:  1,
		closed:  make(map[string]float64),
	}
}

// OnPrice moves the market to bid and fills any stop or target it crosses.
func (p *PaperExecutor) OnPrice(bid float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bid = bid
	ask := p.ask()

	kept := p.open[:0]
	for _, pos := range p.open {
		reason, price, hit := triggered(pos, bid, ask)
		if hit {
			p.settle(pos, price, reason)
			continue
		}
		kept = append(kept, pos)
	}
	p.open = kept
	metrics.FreeMargin.Set(p.freeMargin())
}

func triggered(pos *types.Position, bid, ask float64) (types.CloseReason, float64, bool) {
	if pos.Direction == types.Buy {
		if pos.StopLoss > 0 && bid <= pos.StopLoss {
			return types.ReasonStopLoss, pos.StopLoss, true
		}
		if pos.TakeProfit > 0 && bid >= pos.TakeProfit {
			return types.ReasonTakeProfit, pos.TakeProfit, true
		}
		return "", 0, false
	}
	if pos.StopLoss > 0 && ask >= pos.StopLoss {
		return types.ReasonStopLoss, pos.StopLoss, true
	}
	if pos.TakeProfit > 0 && ask <= pos.TakeProfit {
		return types.ReasonTakeProfit, pos.TakeProfit, true
	}
	return "", 0, false
}

func (p *PaperExecutor) Open(req types.OpenRequest) (*types.Position, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bid <= 0 {
		return nil, ErrNoQuote
	}
	if req.Size < p.cfg.MinSize || p.normalize(req.Size) != req.Size {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSize, req.Size)
	}
	entry := p.bid
	if req.Direction == types.Buy {
		entry = p.ask()
	}
	if req.Size*entry/p.cfg.Leverage > p.freeMargin() {
		return nil, ErrInsufficientMargin
	}

	sign := req.Direction.Sign()
	pos := &types.Position{
		ID:         strconv.Itoa(p.nextID),
		Tag:        req.Tag,
		Label:      req.Label,
		Direction:  req.Direction,
		Size:       req.Size,
		EntryPrice: entry,
	}
	if req.StopPips > 0 {
		pos.StopLoss = p.round(entry - sign*req.StopPips*p.cfg.PipSize)
	}
	if req.TargetPips > 0 {
		pos.TakeProfit = p.round(entry + sign*req.TargetPips*p.cfg.PipSize)
	}
	p.nextID++
	p.open = append(p.open, pos)
	p.log.Info("paper_fill",
		logger.String("id", pos.ID),
		logger.String("side", string(pos.Direction)),
		logger.Float64("size", pos.Size),
		logger.Float64("price", entry),
	)
	return pos, nil
}

func (p *PaperExecutor) Close(pos *types.Position) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx := p.indexOf(pos.ID)
	if idx < 0 {
		return fmt.Errorf("close %s: %w", pos.ID, ErrUnknownPosition)
	}
	price := p.bid
	if pos.Direction == types.Sell {
		price = p.ask()
	}
	p.settle(p.open[idx], price, types.ReasonClosed)
	p.open = append(p.open[:idx], p.open[idx+1:]...)
	return nil
}

func (p *PaperExecutor) ModifyStop(pos *types.Position, price float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx := p.indexOf(pos.ID)
	if idx < 0 {
		return fmt.Errorf("modify %s: %w", pos.ID, ErrUnknownPosition)
	}
	price = p.round(price)
	held := p.open[idx]
	if held.Direction == types.Buy && price >= p.bid {
		return fmt.Errorf("%w: %v at or above bid %v", ErrInvalidStop, price, p.bid)
	}
	if held.Direction == types.Sell && price <= p.ask() {
		return fmt.Errorf("%w: %v at or below ask %v", ErrInvalidStop, price, p.ask())
	}
	held.StopLoss = price
	if pos != held {
		pos.StopLoss = price
	}
	return nil
}

// ClosingPrice implements History.
func (p *PaperExecutor) ClosingPrice(positionID string) (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	price, ok := p.closed[positionID]
	if !ok {
		return 0, fmt.Errorf("history %s: %w", positionID, ErrUnknownPosition)
	}
	return price, nil
}

// DrainClosed returns and forgets the close events queued since the last call.
func (p *PaperExecutor) DrainClosed() []types.ClosedPosition {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := p.pending
	p.pending = nil
	return out
}

func (p *PaperExecutor) settle(pos *types.Position, price float64, reason types.CloseReason) {
	gross := pos.Direction.Sign() * (price - pos.EntryPrice) * pos.Size
	commission := (pos.EntryPrice + price) * pos.Size * p.cfg.CommissionPerMillion / 1_000_000
	net := gross - commission
	p.balance += net
	p.closed[pos.ID] = price
	p.pending = append(p.pending, types.ClosedPosition{
		Position:   *pos,
		ClosePrice: price,
		NetProfit:  net,
		Reason:     reason,
	})
	p.log.Info("paper_close",
		logger.String("id", pos.ID),
		logger.String("reason", string(reason)),
		logger.Float64("price", price),
		logger.Float64("net", net),
	)
}

func (p *PaperExecutor) indexOf(id string) int {
	for i, pos := range p.open {
		if pos.ID == id {
			return i
		}
	}
	return -1
}

func (p *PaperExecutor) ask() float64 { return p.bid + p.cfg.Spread }

func (p *PaperExecutor) round(price float64) float64 {
	return decimal.NewFromFloat(price).Round(int32(p.cfg.Digits)).InexactFloat64()
}

func (p *PaperExecutor) normalize(size float64) float64 {
	step := decimal.NewFromFloat(p.cfg.SizeStep)
	return decimal.NewFromFloat(size).Div(step).Floor().Mul(step).InexactFloat64()
}

func (p *PaperExecutor) equity() float64 {
	eq := p.balance
	for _, pos := range p.open {
		mark := p.bid
		if pos.Direction == types.Sell {
			mark = p.ask()
		}
		eq += pos.Direction.Sign() * (mark - pos.EntryPrice) * pos.Size
	}
	return eq
}

func (p *PaperExecutor) freeMargin() float64 {
	used := 0.0
	for _, pos := range p.open {
		used += pos.Size * pos.EntryPrice / p.cfg.Leverage
	}
	return math.Max(p.equity()-used, 0)
}

// FreeMargin implements Account.
func (p *PaperExecutor) FreeMargin() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.freeMargin()
}

func (p *PaperExecutor) Balance() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.balance
}

func (p *PaperExecutor) Equity() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.equity()
}

// OpenPositions returns a copy of every live position.
func (p *PaperExecutor) OpenPositions() []types.Position {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]types.Position, len(p.open))
	for i, pos := range p.open {
		out[i] = *pos
	}
	return out
}

func (p *PaperExecutor) MinSize() float64 { return p.cfg.MinSize }

func (p *PaperExecutor) NormalizeSize(size float64) float64 { return p.normalize(size) }

func (p *PaperExecutor) Spread() float64 { return p.cfg.Spread }

func (p *PaperExecutor) PipSize() float64 { return p.cfg.PipSize }

func (p *PaperExecutor) Digits() int { return p.cfg.Digits }
