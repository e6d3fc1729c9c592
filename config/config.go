package config

import (
	"errors"
	"fmt"
)

// Moving-average kinds accepted for the band middle line.
const (
	MASimple      = "simple"
	MAExponential = "exponential"
	MAWeighted    = "weighted"
)

// GridConfig holds all tunable parameters of the band mean-reversion grid.
// It is read once at start and never mutated by the engine.
type GridConfig struct {
	// InstanceID tags every order so close events from other robots are ignored.
	InstanceID string `yaml:"instance_id"`

	// Band parameters
	Period int     `yaml:"band_period"`  // default 20
	StdDev float64 `yaml:"band_stddev"`  // default 2
	MAType string  `yaml:"band_ma_type"` // default simple
	Shift  int     `yaml:"band_shift"`   // default 0

	// EntryAfterConfirmation evaluates signals on the last closed bar instead of
	// the forming one.
	EntryAfterConfirmation bool `yaml:"entry_after_confirmation"`

	// Grid
	Levels int `yaml:"levels"` // default 3

	// Risk parameters
	RoundLotCostPerMillion float64 `yaml:"round_lot_cost_per_million"` // default 30
	InitialRiskPct         float64 `yaml:"initial_risk_pct"`           // default 5
	MaxRiskPct             float64 `yaml:"max_risk_pct"`               // default 20, per grid
	InitialSLPips          float64 `yaml:"initial_sl_pips"`            // default 10
	MinNetTPPips           float64 `yaml:"min_net_tp_pips"`            // default 20

	DynamicSL bool `yaml:"dynamic_sl"`
	DynamicTP bool `yaml:"dynamic_tp"`
}

// DefaultGridConfig returns the parameter set the strategy was tuned with.
func DefaultGridConfig() GridConfig {
	return GridConfig{
		InstanceID:             "Bollinger Bands Mean Reversion Grid",
		Period:                 20,
		StdDev:                 2,
		MAType:                 MASimple,
		Shift:                  0,
		EntryAfterConfirmation: false,
		Levels:                 3,
		RoundLotCostPerMillion: 30,
		InitialRiskPct:         5,
		MaxRiskPct:             20,
		InitialSLPips:          10,
		MinNetTPPips:           20,
		DynamicSL:              true,
		DynamicTP:              true,
	}
}

// Validate checks that all numeric fields are within sensible bounds.
// It returns the first encountered error.
func (c *GridConfig) Validate() error {
	if c.InstanceID == "" {
		return errors.New("InstanceID cannot be empty")
	}
	if c.Period <= 1 {
		return fmt.Errorf("Period (%d) must be greater than 1", c.Period)
	}
	if c.StdDev <= 0 {
		return fmt.Errorf("StdDev (%f) must be positive", c.StdDev)
	}
	switch c.MAType {
	case MASimple, MAExponential, MAWeighted:
	default:
		return fmt.Errorf("unknown MAType %q", c.MAType)
	}
	if c.Shift < 0 {
		return errors.New("Shift cannot be negative")
	}
	if c.Levels < 1 {
		return fmt.Errorf("Levels (%d) must be at least 1", c.Levels)
	}
	if c.RoundLotCostPerMillion < 0 {
		return errors.New("RoundLotCostPerMillion cannot be negative")
	}
	if c.InitialRiskPct <= 0 || c.InitialRiskPct > 100 {
		return fmt.Errorf("InitialRiskPct (%f) must be >0 and <=100", c.InitialRiskPct)
	}
	if c.MaxRiskPct <= 0 || c.MaxRiskPct > 100 {
		return fmt.Errorf("MaxRiskPct (%f) must be >0 and <=100", c.MaxRiskPct)
	}
	if c.InitialSLPips <= 0 {
		return fmt.Errorf("InitialSLPips (%f) must be positive", c.InitialSLPips)
	}
	if c.MinNetTPPips < 0 {
		return errors.New("MinNetTPPips cannot be negative")
	}
	return nil
}

// UnitTradingCost is the round-trip commission per traded unit.
func (c *GridConfig) UnitTradingCost() float64 {
	return c.RoundLotCostPerMillion / 1_000_000
}

// ConfirmationOffset is added to every look-back index when entries wait
// for a closed bar.
func (c *GridConfig) ConfirmationOffset() int {
	if c.EntryAfterConfirmation {
		return 1
	}
	return 0
}

// PaperConfig describes the simulated account and instrument used by the
// paper executor.
type PaperConfig struct {
	Balance              float64 `yaml:"balance"`
	Leverage             float64 `yaml:"leverage"`
	Spread               float64 `yaml:"spread"` // in price units
	PipSize              float64 `yaml:"pip_size"`
	Digits               int     `yaml:"digits"`
	MinSize              float64 `yaml:"min_size"`
	SizeStep             float64 `yaml:"size_step"`
	CommissionPerMillion float64 `yaml:"commission_per_million"`
}

func DefaultPaperConfig() PaperConfig {
	return PaperConfig{
		Balance:              10_000,
		Leverage:             30,
		Spread:               0.0001,
		PipSize:              0.0001,
		Digits:               5,
		MinSize:              1000,
		SizeStep:             1000,
		CommissionPerMillion: 30,
	}
}

func (p *PaperConfig) Validate() error {
	if p.Balance <= 0 {
		return errors.New("paper Balance must be positive")
	}
	if p.Leverage <= 0 {
		return errors.New("paper Leverage must be positive")
	}
	if p.Spread < 0 {
		return errors.New("paper Spread cannot be negative")
	}
	if p.PipSize <= 0 {
		return errors.New("paper PipSize must be positive")
	}
	if p.Digits < 0 {
		return errors.New("paper Digits cannot be negative")
	}
	if p.MinSize <= 0 {
		return errors.New("paper MinSize must be positive")
	}
	if p.SizeStep <= 0 {
		return errors.New("paper SizeStep must be positive")
	}
	return nil
}

type LogConfig struct {
	Level string `yaml:"level"`
}
