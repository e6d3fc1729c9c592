package risk

import "math"

// Account is the slice of account/instrument metadata the allocator needs.
type Account interface {
	FreeMargin() float64
	MinSize() float64
	NormalizeSize(size float64) float64
}

// KellyAllocator sizes each rung from that rung's own win/loss record.
type KellyAllocator struct {
	ledger  *Ledger
	account Account

	initialRiskPct float64
	maxRiskPct     float64
}

func NewKellyAllocator(ledger *Ledger, account Account, initialRiskPct, maxRiskPct float64) *KellyAllocator {
	return &KellyAllocator{
		ledger:         ledger,
		account:        account,
		initialRiskPct: initialRiskPct,
		maxRiskPct:     maxRiskPct,
	}
}

// RiskFraction returns the uncapped risk fraction for level.
//
// With losses, loss sum and profit sum all non-zero it is W - (1-W)/R where
// W = wins/losses and R = profitSum/|lossSum|. W is a count ratio, not a
// win probability, so the result can leave the usual Kelly range [0,1].
// Otherwise the initial account risk is split evenly across the rungs.
func (k *KellyAllocator) RiskFraction(level int) float64 {
	levels := float64(k.ledger.Levels())
	risk := k.initialRiskPct / 100 / levels

	s := k.ledger.Stats(level)
	if s.Losses != 0 && s.LossSum != 0 && s.ProfitSum != 0 {
		w := float64(s.Wins) / float64(s.Losses)
		r := s.ProfitSum / math.Abs(s.LossSum)
		risk = w - (1-w)/r
	}
	return risk
}

// MaxFraction is the per-rung cap derived from MaxRiskPct.
func (k *KellyAllocator) MaxFraction() float64 {
	return k.maxRiskPct / 100 / float64(k.ledger.Levels())
}

// Size returns the position size for level. It never goes below the
// instrument minimum; a non-positive risk fraction yields exactly the minimum.
func (k *KellyAllocator) Size(level int) float64 {
	size := k.account.MinSize()
	risk := k.RiskFraction(level)
	if risk > 0 {
		capped := math.Min(risk, k.MaxFraction())
		size = math.Max(size, k.account.NormalizeSize(k.account.FreeMargin()*capped))
	}
	return size
}
