// Package qualification computes the highest commission tier an operator
// currently satisfies all criteria for.
package qualification

import (
	"time"

	"fleet-admin/core/directory"
	"fleet-admin/core/tier"
	"fleet-admin/internal/errors"
	"fleet-admin/internal/metrics"
)

// Status is the aggregate qualification label
type Status string

const (
	// StatusQualified means the operator qualifies for its current tier or higher
	StatusQualified Status = "qualified"

	// StatusBelowThreshold means the operator no longer clears its current tier
	StatusBelowThreshold Status = "below_threshold"
)

// Criteria is the per-criterion pass/fail breakdown at the limiting tier
type Criteria struct {
	Score       bool `json:"score_qualified"`
	Tenure      bool `json:"tenure_qualified"`
	Payment     bool `json:"payment_qualified"`
	Utilization bool `json:"utilization_qualified"`
}

// All reports whether every criterion passed
func (c Criteria) All() bool {
	return c.Score && c.Tenure && c.Payment && c.Utilization
}

// Result is the outcome of one qualification evaluation. Ephemeral: the
// engine never persists it, though a copy rides along in audit entries.
type Result struct {
	// TargetTier is the highest tier the operator fully qualifies for
	TargetTier tier.Tier `json:"target_tier"`

	// LimitingTier is the tier whose thresholds Criteria reflects: the
	// first tier with a failing criterion, or the top tier if none fail
	LimitingTier tier.Tier `json:"limiting_tier"`

	// Criteria is the breakdown at the limiting tier
	Criteria Criteria `json:"criteria"`

	// Status compares TargetTier against the operator's current tier
	Status Status `json:"qualification_status"`

	// NextEvaluationDate is display-only, never used for gating
	NextEvaluationDate time.Time `json:"next_evaluation_date"`

	// PolicyVersion is the rule table revision used
	PolicyVersion string `json:"policy_version"`
}

// Evaluator evaluates operator snapshots against a tier policy
type Evaluator struct {
	policy *tier.Policy
	now    func() time.Time
}

// NewEvaluator creates an evaluator over a validated policy
func NewEvaluator(policy *tier.Policy) *Evaluator {
	return &Evaluator{policy: policy, now: time.Now}
}

// Evaluate computes the qualification result for a snapshot.
//
// Qualification is monotonic: the operator must clear all four criteria
// at every tier up to and including a tier to qualify for it. The scan
// stops at the first tier with a failing criterion; that tier's breakdown
// is reported so callers can explain exactly what capped the operator.
func (e *Evaluator) Evaluate(snap *directory.OperatorSnapshot) (*Result, error) {
	if snap == nil {
		return nil, errors.Evaluation("nil operator snapshot", nil)
	}
	if !snap.Metrics.Complete() {
		return nil, errors.Evaluation("incomplete performance snapshot for operator "+snap.ID, nil).
			WithContext("operator_id", snap.ID)
	}

	order := e.policy.Order()
	target := order[0]
	limiting := order[0]
	var breakdown Criteria

	for i, t := range order {
		th, err := e.policy.Thresholds(t)
		if err != nil {
			return nil, err
		}
		breakdown = check(snap.Metrics, th)
		limiting = t
		if !breakdown.All() {
			break
		}
		target = order[i]
	}

	status := StatusQualified
	if target.Index() < snap.CurrentTier.Index() {
		status = StatusBelowThreshold
	}
	metrics.QualificationsTotal.WithLabelValues(string(status)).Inc()

	return &Result{
		TargetTier:         target,
		LimitingTier:       limiting,
		Criteria:           breakdown,
		Status:             status,
		NextEvaluationDate: e.policy.NextEvaluationDate(e.now()),
		PolicyVersion:      e.policy.Version,
	}, nil
}

func check(m directory.Metrics, th tier.Thresholds) Criteria {
	return Criteria{
		Score:       *m.Score >= th.MinScore,
		Tenure:      *m.TenureMonths >= th.MinTenureMonths,
		Payment:     *m.PaymentConsistency >= th.MinPaymentConsistency,
		Utilization: *m.UtilizationPercentile >= th.MinUtilizationPercentile,
	}
}
