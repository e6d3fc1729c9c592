package testutils

import (
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/evdnx/bbgrid/types"
)

var ErrMockRejected = errors.New("mock gateway rejected the request")

// StopChange records one ModifyStop call.
type StopChange struct {
	ID    string
	Rung  int
	Price float64
}

// MockGateway implements executor.Gateway and executor.History in-memory.
// Every request is captured for assertions; failures are injected per rung.
type MockGateway struct {
	mu sync.Mutex

	price   float64
	pipSize float64
	nextID  int

	failOpen   map[int]bool // by rung
	failClose  map[string]bool
	failModify map[string]bool

	live     map[string]*types.Position
	opens    []types.OpenRequest
	closes   []string
	modifies []StopChange
	history  map[string]float64
}

// NewMockGateway fills every order at price with the given pip size.
func NewMockGateway(price, pipSize float64) *MockGateway {
	return &MockGateway{
		price:      price,
		pipSize:    pipSize,
		nextID:     100,
		failOpen:   make(map[int]bool),
		failClose:  make(map[string]bool),
		failModify: make(map[string]bool),
		live:       make(map[string]*types.Position),
		history:    make(map[string]float64),
	}
}

// SetPrice changes the fill price of later orders and closes.
func (m *MockGateway) SetPrice(price float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.price = price
}

// FailOpen makes every Open for rung fail.
func (m *MockGateway) FailOpen(rung int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failOpen[rung] = true
}

func (m *MockGateway) FailClose(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failClose[id] = true
}

func (m *MockGateway) FailModify(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failModify[id] = true
}

func (m *MockGateway) Open(req types.OpenRequest) (*types.Position, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opens = append(m.opens, req)
	if m.failOpen[req.Tag.Rung] {
		return nil, ErrMockRejected
	}
	sign := req.Direction.Sign()
	pos := &types.Position{
		ID:         strconv.Itoa(m.nextID),
		Tag:        req.Tag,
		Label:      req.Label,
		Direction:  req.Direction,
		Size:       req.Size,
		EntryPrice: m.price,
	}
	if req.StopPips > 0 {
		pos.StopLoss = m.price - sign*req.StopPips*m.pipSize
	}
	if req.TargetPips > 0 {
		pos.TakeProfit = m.price + sign*req.TargetPips*m.pipSize
	}
	m.nextID++
	m.live[pos.ID] = pos
	return pos, nil
}

func (m *MockGateway) Close(pos *types.Position) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closes = append(m.closes, pos.ID)
	if m.failClose[pos.ID] {
		return ErrMockRejected
	}
	if _, ok := m.live[pos.ID]; !ok {
		return fmt.Errorf("close %s: unknown position", pos.ID)
	}
	delete(m.live, pos.ID)
	m.history[pos.ID] = m.price
	return nil
}

func (m *MockGateway) ModifyStop(pos *types.Position, price float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modifies = append(m.modifies, StopChange{ID: pos.ID, Rung: pos.Tag.Rung, Price: price})
	if m.failModify[pos.ID] {
		return ErrMockRejected
	}
	pos.StopLoss = price
	return nil
}

// ClosingPrice implements executor.History.
func (m *MockGateway) ClosingPrice(id string) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	price, ok := m.history[id]
	if !ok {
		return 0, fmt.Errorf("no history for %s", id)
	}
	return price, nil
}

// Settle removes a position as if the broker closed it at price and returns
// the matching close event.
func (m *MockGateway) Settle(pos *types.Position, price float64, reason types.CloseReason) types.ClosedPosition {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.live, pos.ID)
	m.history[pos.ID] = price
	return types.ClosedPosition{
		Position:   *pos,
		ClosePrice: price,
		NetProfit:  pos.Direction.Sign() * (price - pos.EntryPrice) * pos.Size,
		Reason:     reason,
	}
}

// Opens returns a copy of every Open request, failed ones included.
func (m *MockGateway) Opens() []types.OpenRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]types.OpenRequest(nil), m.opens...)
}

// Closes returns the IDs passed to Close, in order.
func (m *MockGateway) Closes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.closes...)
}

// Modifies returns every ModifyStop call, failed ones included.
func (m *MockGateway) Modifies() []StopChange {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]StopChange(nil), m.modifies...)
}

// Live returns the position with id if it is still open.
func (m *MockGateway) Live(id string) (*types.Position, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pos, ok := m.live[id]
	return pos, ok
}
