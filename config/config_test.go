package config

import "testing"

func TestValidateSuccess(t *testing.T) {
	cfg := DefaultGridConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestValidateFailsOnBadRisk(t *testing.T) {
	cfg := DefaultGridConfig()
	cfg.MaxRiskPct = -1 // invalid
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for negative MaxRiskPct")
	}
}

func TestValidateFailsOnZeroLevels(t *testing.T) {
	cfg := DefaultGridConfig()
	cfg.Levels = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for zero Levels")
	}
}

func TestValidateFailsOnUnknownMAType(t *testing.T) {
	cfg := DefaultGridConfig()
	cfg.MAType = "triangular"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for unknown MAType")
	}
}

func TestUnitTradingCost(t *testing.T) {
	cfg := DefaultGridConfig()
	if got := cfg.UnitTradingCost(); got != 30.0/1_000_000 {
		t.Fatalf("unexpected unit cost: %v", got)
	}
}

func TestConfirmationOffset(t *testing.T) {
	cfg := DefaultGridConfig()
	if cfg.ConfirmationOffset() != 0 {
		t.Fatal("expected offset 0 without confirmation")
	}
	cfg.EntryAfterConfirmation = true
	if cfg.ConfirmationOffset() != 1 {
		t.Fatal("expected offset 1 with confirmation")
	}
}

func TestPaperValidate(t *testing.T) {
	p := DefaultPaperConfig()
	if err := p.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	p.SizeStep = 0
	if err := p.Validate(); err == nil {
		t.Fatal("expected validation error for zero SizeStep")
	}
}
