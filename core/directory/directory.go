// Package directory defines the operator lookup and tier update collaborator.
// The directory owns the authoritative tier value; the engine never caches
// it across requests and mutates it only through UpdateTier.
package directory

import (
	"context"

	"github.com/shopspring/decimal"

	"fleet-admin/core/tier"
)

// Metrics is an operator's performance snapshot. Fields are pointers so a
// missing metric is distinguishable from a zero one; the evaluator rejects
// incomplete snapshots instead of defaulting.
type Metrics struct {
	// Score is the composite performance score
	Score *float64 `json:"score"`

	// TenureMonths is months since onboarding
	TenureMonths *int `json:"tenure_months"`

	// PaymentConsistency is the on-time payment percentage
	PaymentConsistency *float64 `json:"payment_consistency"`

	// UtilizationPercentile is the fleet utilization percentile
	UtilizationPercentile *float64 `json:"utilization_percentile"`
}

// Complete reports whether every metric is present
func (m Metrics) Complete() bool {
	return m.Score != nil && m.TenureMonths != nil &&
		m.PaymentConsistency != nil && m.UtilizationPercentile != nil
}

// OperatorSnapshot is a read-only view of an operator at request time
type OperatorSnapshot struct {
	// ID is the operator identifier
	ID string `json:"id"`

	// Name is the operator display name
	Name string `json:"name"`

	// CurrentTier is the tier at snapshot time
	CurrentTier tier.Tier `json:"current_tier"`

	// Region is the operator's primary region
	Region string `json:"region"`

	// Metrics is the performance snapshot
	Metrics Metrics `json:"metrics"`

	// CommissionBase is the estimated monthly commission base
	CommissionBase decimal.Decimal `json:"commission_base"`
}

// Directory is the operator storage collaborator.
type Directory interface {
	// Get returns the operator snapshot, or a NOT_FOUND error
	Get(ctx context.Context, id string) (*OperatorSnapshot, error)

	// UpdateTier moves an operator from tier `from` to tier `to`.
	// The update is compare-and-swap on `from`: a concurrent change
	// to the stored tier fails the update instead of clobbering it.
	UpdateTier(ctx context.Context, id string, from, to tier.Tier) error
}
