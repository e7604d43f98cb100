package analyzer

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// Classification is the outcome of comparing a fresh balance sample against
// the persisted baseline for one (mint, account) pair.
type Classification int

const (
	// Seed: first sighting, no baseline on record. Never alertable.
	Seed Classification = iota
	// Increase: balance went up.
	Increase
	// Unchanged: balance identical to the baseline.
	Unchanged
	// SmallDecrease: a drop below the alert threshold.
	SmallDecrease
	// AlertableDecrease: a drop at or past the threshold. Probable dev sell.
	AlertableDecrease
)

func (c Classification) String() string {
	switch c {
	case Seed:
		return "seed"
	case Increase:
		return "increase"
	case Unchanged:
		return "unchanged"
	case SmallDecrease:
		return "small_decrease"
	case AlertableDecrease:
		return "alertable_decrease"
	default:
		return "unknown"
	}
}

// Change captures a classified balance transition. Sold and Pct are only
// meaningful for the two decrease classes.
type Change struct {
	Class Classification
	Prev  *big.Int // nil for Seed
	New   *big.Int
	Sold  *big.Int        // prev - new, nil unless a decrease
	Pct   decimal.Decimal // drop percentage, zero unless a decrease
}

// Detector holds the configured drop threshold and classifies transitions.
// It is stateless beyond the threshold and safe for concurrent use.
type Detector struct {
	threshold decimal.Decimal // percent, >= 0
}

// NewDetector returns a Detector alerting on drops of thresholdPct percent
// or more. The boundary is inclusive.
func NewDetector(thresholdPct decimal.Decimal) *Detector {
	return &Detector{threshold: thresholdPct}
}

// Classify compares a sampled balance against the recorded baseline.
// prev == nil means no baseline exists (first sighting). Balances are base
// units; all percentage arithmetic is exact decimal, never binary float.
func (d *Detector) Classify(prev, cur *big.Int) Change {
	if prev == nil {
		return Change{Class: Seed, New: cur}
	}

	switch cur.Cmp(prev) {
	case 0:
		return Change{Class: Unchanged, Prev: prev, New: cur}
	case 1:
		return Change{Class: Increase, Prev: prev, New: cur}
	}

	drop := new(big.Int).Sub(prev, cur)
	ch := Change{Prev: prev, New: cur, Sold: drop, Pct: dropPct(prev, drop)}

	// Alertable iff drop/prev*100 >= threshold. Compared cross-multiplied
	// (drop*100 vs threshold*prev) so the boundary is exact; the divided
	// Pct is only for display. A zero baseline counts as a full 100% drop.
	dropScaled := decimal.NewFromBigInt(drop, 2) // drop * 100
	bound := d.threshold.Mul(decimal.NewFromBigInt(prev, 0))
	if prev.Sign() == 0 || dropScaled.GreaterThanOrEqual(bound) {
		ch.Class = AlertableDecrease
	} else {
		ch.Class = SmallDecrease
	}
	return ch
}

// dropPct computes drop/prev*100 for human-readable output.
func dropPct(prev, drop *big.Int) decimal.Decimal {
	if prev.Sign() == 0 {
		return decimal.NewFromInt(100)
	}
	return decimal.NewFromBigInt(drop, 2).DivRound(decimal.NewFromBigInt(prev, 0), 8)
}
