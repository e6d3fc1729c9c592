package risk

import "fmt"

// RungStats holds the running trade record of one rung index.
// LossSum accumulates signed (negative or zero) net profits.
type RungStats struct {
	Wins      int
	Losses    int
	ProfitSum float64
	LossSum   float64
}

// Ledger keeps one RungStats per rung index for the lifetime of the run.
// It is not safe for concurrent use; the engine serializes access.
type Ledger struct {
	stats []RungStats
}

func NewLedger(levels int) *Ledger {
	return &Ledger{stats: make([]RungStats, levels)}
}

func (l *Ledger) Levels() int { return len(l.stats) }

// Record books a closed trade against level. A positive net profit is a
// win, anything else (including zero) a loss.
func (l *Ledger) Record(level int, netProfit float64) error {
	if level < 0 || level >= len(l.stats) {
		return fmt.Errorf("rung %d out of range [0,%d)", level, len(l.stats))
	}
	s := &l.stats[level]
	if netProfit > 0 {
		s.Wins++
		s.ProfitSum += netProfit
	} else {
		s.Losses++
		s.LossSum += netProfit
	}
	return nil
}

// Stats returns a copy of the counters for level; out-of-range levels
// return the zero value.
func (l *Ledger) Stats(level int) RungStats {
	if level < 0 || level >= len(l.stats) {
		return RungStats{}
	}
	return l.stats[level]
}

// All returns a copy of every rung's counters.
func (l *Ledger) All() []RungStats {
	out := make([]RungStats, len(l.stats))
	copy(out, l.stats)
	return out
}
