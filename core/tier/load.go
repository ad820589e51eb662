package tier

import (
	"time"

	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/shopspring/decimal"

	"fleet-admin/internal/errors"
)

// policyFile is the HCL schema for a tier policy file
type policyFile struct {
	Version                string      `hcl:"version"`
	EvaluationIntervalDays int         `hcl:"evaluation_interval_days,optional"`
	Tiers                  []tierBlock `hcl:"tier,block"`
}

type tierBlock struct {
	Name                     string  `hcl:"name,label"`
	MinScore                 float64 `hcl:"min_score"`
	MinTenureMonths          int     `hcl:"min_tenure_months"`
	MinPaymentConsistency    float64 `hcl:"min_payment_consistency"`
	MinUtilizationPercentile float64 `hcl:"min_utilization_percentile"`
	CommissionRate           float64 `hcl:"commission_rate"`
}

// LoadFile reads and validates a tier policy from an HCL file.
//
// Example:
//
//	version = "2026-q1"
//	evaluation_interval_days = 30
//
//	tier "tier_2" {
//	  min_score                  = 75
//	  min_tenure_months          = 6
//	  min_payment_consistency    = 90
//	  min_utilization_percentile = 60
//	  commission_rate            = 18.5
//	}
func LoadFile(path string) (*Policy, error) {
	var file policyFile
	if err := hclsimple.DecodeFile(path, nil, &file); err != nil {
		return nil, errors.Wrap(errors.TypeConfig, "parsing policy file "+path, err)
	}
	return policyFromFile(&file)
}

func policyFromFile(file *policyFile) (*Policy, error) {
	interval := 30 * 24 * time.Hour
	if file.EvaluationIntervalDays > 0 {
		interval = time.Duration(file.EvaluationIntervalDays) * 24 * time.Hour
	}

	thresholds := make(map[Tier]Thresholds, len(file.Tiers))
	rates := make(map[Tier]decimal.Decimal, len(file.Tiers))
	for _, block := range file.Tiers {
		t, err := Parse(block.Name)
		if err != nil {
			return nil, errors.Config("policy file declares unknown tier " + block.Name)
		}
		if _, dup := thresholds[t]; dup {
			return nil, errors.Config("policy file declares tier " + block.Name + " twice")
		}
		thresholds[t] = Thresholds{
			MinScore:                 block.MinScore,
			MinTenureMonths:          block.MinTenureMonths,
			MinPaymentConsistency:    block.MinPaymentConsistency,
			MinUtilizationPercentile: block.MinUtilizationPercentile,
		}
		rates[t] = decimal.NewFromFloat(block.CommissionRate)
	}

	policy := NewPolicy(file.Version, thresholds, rates, interval)
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return policy, nil
}
