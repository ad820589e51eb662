package impact

import (
	"testing"

	"github.com/shopspring/decimal"

	"fleet-admin/core/tier"
)

func TestEstimateUpgradeIsIncrease(t *testing.T) {
	calc := NewCalculator(tier.Default())

	result, err := calc.Estimate(tier.Tier1, tier.Tier2, decimal.NewFromInt(50000))
	if err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}

	// rate delta 18.5 - 15.0 = 3.5 points on a 50000 base
	if result.PercentageChange.String() != "3.5" {
		t.Errorf("percentage change = %s, want 3.5", result.PercentageChange)
	}
	if result.MonthlyChange.String() != "1750" {
		t.Errorf("monthly change = %s, want 1750", result.MonthlyChange)
	}
	if result.AnnualChange.String() != "21000" {
		t.Errorf("annual change = %s, want 21000", result.AnnualChange)
	}
	if result.ImpactType != TypeIncrease {
		t.Errorf("impact type = %s, want increase", result.ImpactType)
	}
}

func TestEstimateDowngradeIsSymmetricDecrease(t *testing.T) {
	calc := NewCalculator(tier.Default())
	base := decimal.NewFromInt(50000)

	up, err := calc.Estimate(tier.Tier1, tier.Tier2, base)
	if err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}
	down, err := calc.Estimate(tier.Tier2, tier.Tier1, base)
	if err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}

	if !down.MonthlyChange.Equal(up.MonthlyChange.Neg()) {
		t.Errorf("downgrade monthly %s is not the negated upgrade %s", down.MonthlyChange, up.MonthlyChange)
	}
	if !down.AnnualChange.Equal(up.AnnualChange.Neg()) {
		t.Errorf("downgrade annual %s is not the negated upgrade %s", down.AnnualChange, up.AnnualChange)
	}
	if down.ImpactType != TypeDecrease {
		t.Errorf("impact type = %s, want decrease", down.ImpactType)
	}
}

func TestEstimateSameTierIsNoChange(t *testing.T) {
	calc := NewCalculator(tier.Default())

	result, err := calc.Estimate(tier.Tier2, tier.Tier2, decimal.NewFromInt(50000))
	if err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}

	if !result.MonthlyChange.IsZero() {
		t.Errorf("monthly change = %s, want 0", result.MonthlyChange)
	}
	if result.ImpactType != TypeNoChange {
		t.Errorf("impact type = %s, want no_change", result.ImpactType)
	}
}

func TestEstimateZeroBase(t *testing.T) {
	calc := NewCalculator(tier.Default())

	result, err := calc.Estimate(tier.Tier1, tier.Tier3, decimal.Zero)
	if err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}
	if !result.MonthlyChange.IsZero() {
		t.Errorf("monthly change on zero base = %s, want 0", result.MonthlyChange)
	}
	if result.ImpactType != TypeNoChange {
		t.Errorf("impact type = %s, want no_change", result.ImpactType)
	}
}

func TestEstimateInvalidTier(t *testing.T) {
	calc := NewCalculator(tier.Default())

	if _, err := calc.Estimate(tier.Tier(-1), tier.Tier2, decimal.NewFromInt(1000)); err == nil {
		t.Fatal("expected error for invalid from tier, got nil")
	}
	if _, err := calc.Estimate(tier.Tier1, tier.Tier(7), decimal.NewFromInt(1000)); err == nil {
		t.Fatal("expected error for invalid to tier, got nil")
	}
}
