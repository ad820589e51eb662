// Package transition decides whether an operator may move between
// commission tiers and applies the change exactly once. The orchestrator
// enforces the check ordering: authorization, no-op guard, per-operator
// lock, qualification, gate, impact, persistence, audit.
package transition

import (
	"context"
	"time"

	"go.uber.org/zap"

	"fleet-admin/core/audit"
	"fleet-admin/core/authz"
	"fleet-admin/core/directory"
	"fleet-admin/core/impact"
	"fleet-admin/core/qualification"
	"fleet-admin/core/tier"
	"fleet-admin/internal/errors"
	"fleet-admin/internal/logging"
	"fleet-admin/internal/metrics"
)

// ChangeType classifies a transition direction
type ChangeType string

const (
	ChangeUpgrade   ChangeType = "upgrade"
	ChangeDowngrade ChangeType = "downgrade"
)

// Request is one transition attempt
type Request struct {
	// Actor is the authenticated caller
	Actor *authz.Actor

	// OperatorID is the operator to move
	OperatorID string

	// TargetTier is the requested tier
	TargetTier tier.Tier

	// Notes is optional free-form context, recorded into the audit entry
	Notes string
}

// Result is the outcome of a successfully applied transition
type Result struct {
	// OperatorID is the operator that moved
	OperatorID string `json:"operator_id"`

	// PreviousTier and NewTier are the applied endpoints
	PreviousTier tier.Tier `json:"previous_tier"`
	NewTier      tier.Tier `json:"new_tier"`

	// ChangeType is upgrade or downgrade
	ChangeType ChangeType `json:"change_type"`

	// EffectiveDate is when the change took effect
	EffectiveDate time.Time `json:"effective_date"`

	// FinancialImpact is the estimated earnings delta
	FinancialImpact *impact.Impact `json:"financial_impact"`

	// Qualification is the evaluation the decision used
	Qualification *qualification.Result `json:"qualification"`

	// AuditReference is the id of the audit entry for this change
	AuditReference string `json:"audit_reference"`

	// AuditWarning is set when the tier change applied but the audit
	// append failed; the mutation is durable, the audit record is not
	AuditWarning string `json:"audit_warning,omitempty"`
}

// Notifier receives applied transitions. Failures are logged, never
// propagated; notification is best-effort by contract.
type Notifier interface {
	TransitionApplied(ctx context.Context, result *Result)
}

// Orchestrator is the tier transition state machine
type Orchestrator struct {
	policy    *tier.Policy
	directory directory.Directory
	evaluator *qualification.Evaluator
	impact    *impact.Calculator
	sink      audit.Sink
	locks     Locker
	notifier  Notifier
	logger    *zap.Logger
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithNotifier attaches an applied-transition notifier
func WithNotifier(n Notifier) Option {
	return func(o *Orchestrator) { o.notifier = n }
}

// WithLocker overrides the default in-process lock arena
func WithLocker(l Locker) Option {
	return func(o *Orchestrator) { o.locks = l }
}

// NewOrchestrator wires the transition engine. The policy must already
// have passed Validate.
func NewOrchestrator(policy *tier.Policy, dir directory.Directory, sink audit.Sink, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		policy:    policy,
		directory: dir,
		evaluator: qualification.NewEvaluator(policy),
		impact:    impact.NewCalculator(policy),
		sink:      sink,
		locks:     NewKeyedLocker(2 * time.Second),
		logger:    logging.Named("transition"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// RequestTransition runs the full transition flow for one request.
//
// Retry safety: a client that saw PERSISTENCE_ERROR may replay the same
// request. The snapshot is re-read fresh under the lock, so a change that
// actually committed is caught by the no-op guard and answered with
// NO_CHANGE_NEEDED instead of being applied twice.
func (o *Orchestrator) RequestTransition(ctx context.Context, req *Request) (*Result, error) {
	start := time.Now()

	if err := validate(req); err != nil {
		metrics.ObserveTransition("validation_rejected", "", start)
		return nil, err
	}

	// Authorization precheck: existence, region, permission. Failures
	// short-circuit before evaluation and audit as auth_rejected.
	snap, err := o.directory.Get(ctx, req.OperatorID)
	if err != nil {
		metrics.ObserveTransition("not_found", "", start)
		return nil, err
	}
	if err := authz.Authorize(req.Actor, snap); err != nil {
		authErr := errors.AsError(err)
		o.auditOutcome(ctx, req, snap.CurrentTier, audit.OutcomeAuthRejected, authErr, nil)
		metrics.ObserveTransition("auth_rejected", "", start)
		return nil, authErr
	}

	// Cheap no-op guard before the lock; repeated under it.
	if req.TargetTier == snap.CurrentTier {
		noChange := errors.NoChange(req.OperatorID, snap.CurrentTier.String())
		o.auditOutcome(ctx, req, snap.CurrentTier, audit.OutcomeRejected, noChange, nil)
		metrics.ObserveTransition("no_change", "", start)
		return nil, noChange
	}

	release, err := o.locks.Acquire(ctx, req.OperatorID)
	if err != nil {
		metrics.ObserveTransition("conflict", "", start)
		return nil, err
	}
	defer release()

	result, err := o.transitionLocked(ctx, req, start)
	if err != nil {
		return nil, err
	}

	if o.notifier != nil {
		o.notifier.TransitionApplied(ctx, result)
	}
	return result, nil
}

// transitionLocked runs evaluation through audit while holding the
// per-operator lock. The snapshot is re-read here: a request that waited
// on the lock must decide against the post-transition state, not the one
// it saw before queueing.
func (o *Orchestrator) transitionLocked(ctx context.Context, req *Request, start time.Time) (*Result, error) {
	snap, err := o.directory.Get(ctx, req.OperatorID)
	if err != nil {
		metrics.ObserveTransition("not_found", "", start)
		return nil, err
	}

	if req.TargetTier == snap.CurrentTier {
		noChange := errors.NoChange(req.OperatorID, snap.CurrentTier.String())
		o.auditOutcome(ctx, req, snap.CurrentTier, audit.OutcomeRejected, noChange, nil)
		metrics.ObserveTransition("no_change", "", start)
		return nil, noChange
	}

	qual, err := o.evaluator.Evaluate(snap)
	if err != nil {
		evalErr := errors.AsError(err)
		o.auditOutcome(ctx, req, snap.CurrentTier, audit.OutcomeErrored, evalErr, nil)
		metrics.ObserveTransition("evaluation_error", "", start)
		return nil, evalErr
	}

	changeType := ChangeUpgrade
	if req.TargetTier.Index() < snap.CurrentTier.Index() {
		changeType = ChangeDowngrade
	}

	// Gate: downgrades always pass. Operators are not forced to keep
	// rates they no longer earn. Upgrades need the qualification to
	// cover the requested tier.
	if changeType == ChangeUpgrade && req.TargetTier.Index() > qual.TargetTier.Index() {
		rejection := errors.Qualification("operator "+req.OperatorID+" does not qualify for "+req.TargetTier.String()).
			WithContext("operator_id", req.OperatorID).
			WithContext("current_tier", snap.CurrentTier.String()).
			WithContext("requested_tier", req.TargetTier.String()).
			WithContext("qualification", qual)
		o.auditOutcome(ctx, req, snap.CurrentTier, audit.OutcomeRejected, rejection, qual)
		metrics.ObserveTransition("qualification_rejected", string(changeType), start)
		return nil, rejection
	}

	fin, err := o.impact.Estimate(snap.CurrentTier, req.TargetTier, snap.CommissionBase)
	if err != nil {
		impactErr := errors.AsError(err)
		o.auditOutcome(ctx, req, snap.CurrentTier, audit.OutcomeErrored, impactErr, qual)
		metrics.ObserveTransition("impact_error", string(changeType), start)
		return nil, impactErr
	}

	if err := o.directory.UpdateTier(ctx, req.OperatorID, snap.CurrentTier, req.TargetTier); err != nil {
		persistErr := errors.AsError(err)
		o.auditOutcome(ctx, req, snap.CurrentTier, audit.OutcomeErrored, persistErr, qual)
		metrics.ObserveTransition("persistence_error", string(changeType), start)
		return nil, persistErr
	}

	entry := audit.NewEntry(req.OperatorID, req.Actor.ID, snap.CurrentTier, req.TargetTier)
	entry.Outcome = audit.OutcomeApplied
	entry.Qualification = qual
	entry.PolicyVersion = o.policy.Version
	entry.Notes = req.Notes

	result := &Result{
		OperatorID:      req.OperatorID,
		PreviousTier:    snap.CurrentTier,
		NewTier:         req.TargetTier,
		ChangeType:      changeType,
		EffectiveDate:   entry.Timestamp,
		FinancialImpact: fin,
		Qualification:   qual,
		AuditReference:  entry.ID,
	}

	// The mutation is already durable. An audit append failure is
	// surfaced as a warning, never a rollback.
	if err := o.sink.Append(ctx, entry); err != nil {
		o.logger.Warn("tier change applied but audit append failed",
			zap.String("operator_id", req.OperatorID),
			zap.String("audit_id", entry.ID),
			zap.Error(err))
		result.AuditWarning = "tier change applied; audit record could not be written"
	}

	o.logger.Info("tier transition applied",
		zap.String("operator_id", req.OperatorID),
		zap.String("actor_id", req.Actor.ID),
		zap.String("previous_tier", result.PreviousTier.String()),
		zap.String("new_tier", result.NewTier.String()),
		zap.String("change_type", string(changeType)))
	metrics.ObserveTransition("applied", string(changeType), start)
	return result, nil
}

// auditOutcome appends a non-applied audit entry. Audit failures on these
// paths are logged only; the caller already has a more specific error.
func (o *Orchestrator) auditOutcome(ctx context.Context, req *Request, current tier.Tier, outcome audit.Outcome, cause *errors.Error, qual *qualification.Result) {
	entry := audit.NewEntry(req.OperatorID, req.Actor.ID, current, req.TargetTier)
	entry.Outcome = outcome
	entry.ReasonCode = string(cause.Type)
	entry.Qualification = qual
	entry.PolicyVersion = o.policy.Version
	entry.Notes = req.Notes

	if err := o.sink.Append(ctx, entry); err != nil {
		o.logger.Warn("audit append failed",
			zap.String("operator_id", req.OperatorID),
			zap.String("outcome", string(outcome)),
			zap.Error(err))
	}
}

func validate(req *Request) *errors.Error {
	if req == nil {
		return errors.Validation("nil transition request")
	}
	if req.Actor == nil || req.Actor.ID == "" {
		return errors.Validation("transition request missing actor")
	}
	if req.OperatorID == "" {
		return errors.Validation("transition request missing operator id")
	}
	if !req.TargetTier.Valid() {
		return errors.Validation("transition request has invalid target tier")
	}
	return nil
}
