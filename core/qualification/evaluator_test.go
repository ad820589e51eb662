package qualification

import (
	"testing"

	"github.com/shopspring/decimal"

	"fleet-admin/core/directory"
	"fleet-admin/core/tier"
)

func floatPtr(f float64) *float64 { return &f }
func intPtr(i int) *int           { return &i }

func snapshot(current tier.Tier, score float64, tenure int, payment, utilization float64) *directory.OperatorSnapshot {
	return &directory.OperatorSnapshot{
		ID:          "op-100",
		Name:        "Test Operator",
		CurrentTier: current,
		Region:      "south",
		Metrics: directory.Metrics{
			Score:                 floatPtr(score),
			TenureMonths:          intPtr(tenure),
			PaymentConsistency:    floatPtr(payment),
			UtilizationPercentile: floatPtr(utilization),
		},
		CommissionBase: decimal.NewFromInt(50000),
	}
}

func TestEvaluateTopTier(t *testing.T) {
	eval := NewEvaluator(tier.Default())

	result, err := eval.Evaluate(snapshot(tier.Tier2, 95, 24, 99, 90))
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	if result.TargetTier != tier.Tier3 {
		t.Errorf("target tier = %s, want tier_3", result.TargetTier)
	}
	if result.Status != StatusQualified {
		t.Errorf("status = %s, want qualified", result.Status)
	}
	if !result.Criteria.All() {
		t.Errorf("expected all criteria passing at top tier, got %+v", result.Criteria)
	}
}

// An operator failing a tier_2 criterion must never report tier_3, even
// when every tier_3-specific bar would independently pass.
func TestEvaluateMonotonicCapping(t *testing.T) {
	eval := NewEvaluator(tier.Default())

	// Tenure 4 months fails tier_2's bar of 6; everything else clears tier_3
	result, err := eval.Evaluate(snapshot(tier.Tier1, 95, 4, 99, 90))
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	if result.TargetTier != tier.Tier1 {
		t.Errorf("target tier = %s, want tier_1 (capped at tier_2 failure)", result.TargetTier)
	}
	if result.LimitingTier != tier.Tier2 {
		t.Errorf("limiting tier = %s, want tier_2", result.LimitingTier)
	}
	if result.Criteria.Tenure {
		t.Error("tenure criterion should fail at tier_2")
	}
	if !result.Criteria.Score || !result.Criteria.Payment || !result.Criteria.Utilization {
		t.Errorf("non-tenure criteria should pass at tier_2, got %+v", result.Criteria)
	}
}

func TestEvaluateBelowThreshold(t *testing.T) {
	eval := NewEvaluator(tier.Default())

	// Operator sits at tier_3 but only clears tier_2's bars
	result, err := eval.Evaluate(snapshot(tier.Tier3, 80, 10, 95, 70))
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	if result.TargetTier != tier.Tier2 {
		t.Errorf("target tier = %s, want tier_2", result.TargetTier)
	}
	if result.Status != StatusBelowThreshold {
		t.Errorf("status = %s, want below_threshold", result.Status)
	}
}

func TestEvaluateIncompleteSnapshot(t *testing.T) {
	eval := NewEvaluator(tier.Default())

	snap := snapshot(tier.Tier1, 95, 24, 99, 90)
	snap.Metrics.PaymentConsistency = nil

	if _, err := eval.Evaluate(snap); err == nil {
		t.Fatal("expected evaluation error for missing metric, got nil")
	}
}

func TestEvaluateNilSnapshot(t *testing.T) {
	eval := NewEvaluator(tier.Default())
	if _, err := eval.Evaluate(nil); err == nil {
		t.Fatal("expected evaluation error for nil snapshot, got nil")
	}
}

func TestEvaluateSetsNextEvaluationDate(t *testing.T) {
	eval := NewEvaluator(tier.Default())
	result, err := eval.Evaluate(snapshot(tier.Tier1, 95, 24, 99, 90))
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if result.NextEvaluationDate.IsZero() {
		t.Error("next evaluation date should be set")
	}
	if result.PolicyVersion == "" {
		t.Error("policy version should be recorded")
	}
}

// Exact boundary values qualify: thresholds are minimums, not exclusive bars
func TestEvaluateBoundaryValues(t *testing.T) {
	eval := NewEvaluator(tier.Default())

	result, err := eval.Evaluate(snapshot(tier.Tier1, 75, 6, 90, 60))
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if result.TargetTier != tier.Tier2 {
		t.Errorf("target tier = %s, want tier_2 at exact thresholds", result.TargetTier)
	}
}
