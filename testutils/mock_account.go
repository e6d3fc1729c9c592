package testutils

import "math"

// MockAccount implements the account and instrument metadata with a unit
// size step, so sizes read directly as whole units in assertions.
type MockAccount struct {
	margin  float64
	minSize float64
	spread  float64
	pipSize float64
	digits  int
}

func NewMockAccount(freeMargin float64) *MockAccount {
	return &MockAccount{
		margin:  freeMargin,
		minSize: 1,
		spread:  0.0001,
		pipSize: 0.0001,
		digits:  5,
	}
}

func (a *MockAccount) SetFreeMargin(v float64) { a.margin = v }
func (a *MockAccount) SetSpread(v float64) { a.spread = v }

func (a *MockAccount) FreeMargin() float64 { return a.margin }
func (a *MockAccount) MinSize() float64 { return a.minSize }
func (a *MockAccount) Spread() float64 { return a.spread }
func (a *MockAccount) PipSize() float64 { return a.pipSize }
func (a *MockAccount) Digits() int { return a.digits }

func (a *MockAccount) NormalizeSize(size float64) float64 { return math.Floor(size) }
