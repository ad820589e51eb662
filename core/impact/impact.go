// Package impact estimates the first-order monetary consequence of a tier
// change. Pure computation on the policy rate table; no I/O.
package impact

import (
	"github.com/shopspring/decimal"

	"fleet-admin/core/tier"
	"fleet-admin/internal/errors"
)

// Type labels the direction of a financial impact
type Type string

const (
	TypeIncrease Type = "increase"
	TypeDecrease Type = "decrease"
	TypeNoChange Type = "no_change"
)

// Impact is the estimated earnings delta of a tier change
type Impact struct {
	// FromTier and ToTier are the transition endpoints
	FromTier tier.Tier `json:"from_tier"`
	ToTier   tier.Tier `json:"to_tier"`

	// PercentageChange is rate(to) - rate(from), in commission points
	PercentageChange decimal.Decimal `json:"percentage_change"`

	// MonthlyChange is the estimated monthly earnings delta
	MonthlyChange decimal.Decimal `json:"monthly_change"`

	// AnnualChange is MonthlyChange over twelve months
	AnnualChange decimal.Decimal `json:"annual_change"`

	// ImpactType labels the direction of the change
	ImpactType Type `json:"impact_type"`
}

// Calculator estimates tier-change impact from a policy rate table
type Calculator struct {
	policy *tier.Policy
}

// NewCalculator creates a calculator over a validated policy
func NewCalculator(policy *tier.Policy) *Calculator {
	return &Calculator{policy: policy}
}

var months = decimal.NewFromInt(12)
var hundred = decimal.NewFromInt(100)

// Estimate computes the commission delta for moving between two tiers
// against a monthly commission-base estimate. Invalid tiers are a
// programming error, not user input.
func (c *Calculator) Estimate(from, to tier.Tier, commissionBase decimal.Decimal) (*Impact, error) {
	if !from.Valid() || !to.Valid() {
		return nil, errors.Internal("impact estimate with invalid tier", nil)
	}

	fromRate, err := c.policy.Rate(from)
	if err != nil {
		return nil, err
	}
	toRate, err := c.policy.Rate(to)
	if err != nil {
		return nil, err
	}

	pct := toRate.Sub(fromRate)
	monthly := commissionBase.Mul(pct).Div(hundred)
	annual := monthly.Mul(months)

	impactType := TypeNoChange
	switch {
	case monthly.IsPositive():
		impactType = TypeIncrease
	case monthly.IsNegative():
		impactType = TypeDecrease
	}

	return &Impact{
		FromTier:         from,
		ToTier:           to,
		PercentageChange: pct,
		MonthlyChange:    monthly,
		AnnualChange:     annual,
		ImpactType:       impactType,
	}, nil
}
