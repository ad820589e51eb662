package api

import (
	"github.com/shopspring/decimal"

	"fleet-admin/core/tier"
)

// TransitionRequest is the body of POST /operators/{id}/tier-transitions
type TransitionRequest struct {
	// TargetTier is the requested tier name
	TargetTier string `json:"target_tier"`

	// Notes is optional free-form context for the audit trail
	Notes string `json:"notes,omitempty"`
}

// ImpactRequest is the body of POST /impact
type ImpactRequest struct {
	FromTier       string          `json:"from_tier"`
	ToTier         string          `json:"to_tier"`
	CommissionBase decimal.Decimal `json:"commission_base"`
}

// PolicyTier is one row of the GET /policy response
type PolicyTier struct {
	Tier           tier.Tier       `json:"tier"`
	Thresholds     tier.Thresholds `json:"thresholds"`
	CommissionRate decimal.Decimal `json:"commission_rate"`
}

// PolicyResponse is the GET /policy response
type PolicyResponse struct {
	Version string       `json:"version"`
	Tiers   []PolicyTier `json:"tiers"`
}

// ErrorBody is the envelope for error responses
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries the typed error to the client
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Context map[string]interface{} `json:"context,omitempty"`
}
