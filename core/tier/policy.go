package tier

import (
	"time"

	"github.com/shopspring/decimal"

	"fleet-admin/internal/errors"
)

// Thresholds are the qualification bars for one tier. An operator must
// meet every threshold at a tier, and at every tier below it, to qualify.
type Thresholds struct {
	// MinScore is the minimum performance score
	MinScore float64 `json:"min_score"`

	// MinTenureMonths is the minimum tenure in months
	MinTenureMonths int `json:"min_tenure_months"`

	// MinPaymentConsistency is the minimum payment consistency percentage
	MinPaymentConsistency float64 `json:"min_payment_consistency"`

	// MinUtilizationPercentile is the minimum utilization percentile
	MinUtilizationPercentile float64 `json:"min_utilization_percentile"`
}

// looserThan reports whether any bar in t is below the corresponding bar in other
func (t Thresholds) looserThan(other Thresholds) bool {
	return t.MinScore < other.MinScore ||
		t.MinTenureMonths < other.MinTenureMonths ||
		t.MinPaymentConsistency < other.MinPaymentConsistency ||
		t.MinUtilizationPercentile < other.MinUtilizationPercentile
}

// Policy is the versioned tier rule table: qualification thresholds and
// the commission rate per tier. Validate must pass before a Policy is
// used; request paths assume a valid table.
type Policy struct {
	// Version identifies the rule table revision, recorded into audit entries
	Version string

	// EvaluationInterval is how far out the next evaluation date is set
	EvaluationInterval time.Duration

	thresholds map[Tier]Thresholds
	rates      map[Tier]decimal.Decimal
}

// NewPolicy builds a policy from explicit tables
func NewPolicy(version string, thresholds map[Tier]Thresholds, rates map[Tier]decimal.Decimal, interval time.Duration) *Policy {
	return &Policy{
		Version:            version,
		EvaluationInterval: interval,
		thresholds:         thresholds,
		rates:              rates,
	}
}

// Default returns the built-in rule table
func Default() *Policy {
	return &Policy{
		Version:            "builtin-1",
		EvaluationInterval: 30 * 24 * time.Hour,
		thresholds: map[Tier]Thresholds{
			Tier1: {MinScore: 0, MinTenureMonths: 0, MinPaymentConsistency: 0, MinUtilizationPercentile: 0},
			Tier2: {MinScore: 75, MinTenureMonths: 6, MinPaymentConsistency: 90, MinUtilizationPercentile: 60},
			Tier3: {MinScore: 90, MinTenureMonths: 12, MinPaymentConsistency: 97, MinUtilizationPercentile: 80},
		},
		rates: map[Tier]decimal.Decimal{
			Tier1: decimal.NewFromFloat(15.0),
			Tier2: decimal.NewFromFloat(18.5),
			Tier3: decimal.NewFromFloat(22.0),
		},
	}
}

// Order returns the tiers in ascending order
func (p *Policy) Order() []Tier {
	return All()
}

// Thresholds returns the qualification bars for a tier
func (p *Policy) Thresholds(t Tier) (Thresholds, error) {
	th, ok := p.thresholds[t]
	if !ok {
		return Thresholds{}, errors.Internal("no thresholds for tier "+t.String(), nil)
	}
	return th, nil
}

// Rate returns the commission rate for a tier
func (p *Policy) Rate(t Tier) (decimal.Decimal, error) {
	r, ok := p.rates[t]
	if !ok {
		return decimal.Decimal{}, errors.Internal("no rate for tier "+t.String(), nil)
	}
	return r, nil
}

// NextEvaluationDate returns the next evaluation date from now.
// Display-only; never used for gating.
func (p *Policy) NextEvaluationDate(now time.Time) time.Time {
	return now.Add(p.EvaluationInterval)
}

// Validate checks the rule table at startup. Thresholds must be no-looser
// as tiers rise, and every tier needs thresholds and a rate.
func (p *Policy) Validate() error {
	if p.EvaluationInterval <= 0 {
		return errors.Config("policy evaluation interval must be positive")
	}

	var prev *Thresholds
	for _, t := range All() {
		th, ok := p.thresholds[t]
		if !ok {
			return errors.Config("policy missing thresholds for " + t.String())
		}
		if _, ok := p.rates[t]; !ok {
			return errors.Config("policy missing commission rate for " + t.String())
		}
		if prev != nil && th.looserThan(*prev) {
			return errors.Config("policy thresholds for " + t.String() + " are looser than the tier below")
		}
		prev = &th
	}
	return nil
}
