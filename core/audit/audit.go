// Package audit records every tier transition attempt. Entries are
// append-only: created once, never updated or deleted. Appends happen under
// the same per-operator lock as the mutation they describe, so audit order
// matches application order.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"fleet-admin/core/qualification"
	"fleet-admin/core/tier"
)

// Outcome labels what happened to a transition attempt
type Outcome string

const (
	// OutcomeApplied means the tier change was persisted
	OutcomeApplied Outcome = "applied"

	// OutcomeRejected means a business rule refused the change
	OutcomeRejected Outcome = "rejected"

	// OutcomeErrored means evaluation or persistence failed
	OutcomeErrored Outcome = "errored"

	// OutcomeAuthRejected means authorization failed before evaluation.
	// No qualification snapshot is recorded for these entries.
	OutcomeAuthRejected Outcome = "auth_rejected"
)

// Entry is one immutable audit record
type Entry struct {
	// ID is the audit reference returned to callers
	ID string `json:"id"`

	// Timestamp is the attempt time in UTC
	Timestamp time.Time `json:"timestamp"`

	// OperatorID is the operator the transition targeted
	OperatorID string `json:"operator_id"`

	// ActorID is who requested the transition
	ActorID string `json:"actor_id"`

	// PreviousTier is the tier before the attempt; NewTier is the tier it
	// targeted (and reached, when the outcome is applied)
	PreviousTier tier.Tier `json:"previous_tier"`
	NewTier      tier.Tier `json:"new_tier"`

	// Outcome labels the attempt result
	Outcome Outcome `json:"outcome"`

	// ReasonCode carries the error type for non-applied outcomes
	ReasonCode string `json:"reason_code,omitempty"`

	// Qualification is the evaluation the decision used; nil for
	// auth_rejected entries
	Qualification *qualification.Result `json:"qualification,omitempty"`

	// PolicyVersion is the rule table revision in force
	PolicyVersion string `json:"policy_version,omitempty"`

	// Notes carries the optional request notes
	Notes string `json:"notes,omitempty"`
}

// NewEntry creates an entry with a fresh reference and UTC timestamp
func NewEntry(operatorID, actorID string, prev, requested tier.Tier) Entry {
	return Entry{
		ID:           uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		OperatorID:   operatorID,
		ActorID:      actorID,
		PreviousTier: prev,
		NewTier:      requested,
	}
}

// Sink is a durable append-only audit store.
// Append failures after an applied mutation do not roll back the tier
// change; the orchestrator surfaces them as a warning instead.
type Sink interface {
	Append(ctx context.Context, entry Entry) error
}
