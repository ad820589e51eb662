package transition

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"fleet-admin/core/audit"
	"fleet-admin/core/authz"
	"fleet-admin/core/directory"
	"fleet-admin/core/tier"
	"fleet-admin/internal/errors"
)

func fullActor() *authz.Actor {
	return &authz.Actor{
		ID:          "admin-1",
		Permissions: []string{authz.PermTierChange},
		AllRegions:  true,
	}
}

func operator(id string, current tier.Tier, score float64, tenure int, payment, utilization float64) *directory.OperatorSnapshot {
	return &directory.OperatorSnapshot{
		ID:          id,
		Name:        "Operator " + id,
		CurrentTier: current,
		Region:      "east",
		Metrics: directory.Metrics{
			Score:                 &score,
			TenureMonths:          &tenure,
			PaymentConsistency:    &payment,
			UtilizationPercentile: &utilization,
		},
		CommissionBase: decimal.NewFromInt(50000),
	}
}

func newEngine(t *testing.T, snaps ...*directory.OperatorSnapshot) (*Orchestrator, *directory.MemoryDirectory, *audit.MemorySink) {
	t.Helper()
	dir := directory.NewMemoryDirectory()
	for _, snap := range snaps {
		dir.Put(snap)
	}
	sink := audit.NewMemorySink()
	return NewOrchestrator(tier.Default(), dir, sink), dir, sink
}

func TestNoTierChangeNeeded(t *testing.T) {
	orch, dir, sink := newEngine(t, operator("op-1", tier.Tier2, 95, 24, 99, 90))

	_, err := orch.RequestTransition(context.Background(), &Request{
		Actor:      fullActor(),
		OperatorID: "op-1",
		TargetTier: tier.Tier2,
	})
	if !errors.IsType(err, errors.TypeNoChange) {
		t.Fatalf("expected NO_CHANGE_NEEDED, got %v", err)
	}

	snap, _ := dir.Get(context.Background(), "op-1")
	if snap.CurrentTier != tier.Tier2 {
		t.Errorf("tier changed on a no-op request: %s", snap.CurrentTier)
	}

	entries := sink.Entries()
	if len(entries) != 1 || entries[0].Outcome != audit.OutcomeRejected {
		t.Fatalf("expected one rejected audit entry, got %+v", entries)
	}
	if entries[0].ReasonCode != string(errors.TypeNoChange) {
		t.Errorf("reason code = %s, want NO_CHANGE_NEEDED", entries[0].ReasonCode)
	}
}

// Downgrades are always permitted: operators may not be forced to retain
// rates they no longer earn.
func TestDowngradeAlwaysApplied(t *testing.T) {
	// Metrics that qualify for nothing above tier_1
	orch, dir, sink := newEngine(t, operator("op-1", tier.Tier2, 10, 1, 10, 5))

	result, err := orch.RequestTransition(context.Background(), &Request{
		Actor:      fullActor(),
		OperatorID: "op-1",
		TargetTier: tier.Tier1,
	})
	if err != nil {
		t.Fatalf("downgrade rejected: %v", err)
	}

	if result.ChangeType != ChangeDowngrade {
		t.Errorf("change type = %s, want downgrade", result.ChangeType)
	}
	if !result.FinancialImpact.MonthlyChange.IsNegative() {
		t.Errorf("downgrade impact = %s, want negative", result.FinancialImpact.MonthlyChange)
	}
	if result.AuditReference == "" {
		t.Error("applied transition must carry an audit reference")
	}

	snap, _ := dir.Get(context.Background(), "op-1")
	if snap.CurrentTier != tier.Tier1 {
		t.Errorf("tier = %s, want tier_1", snap.CurrentTier)
	}

	entries := sink.Entries()
	if len(entries) != 1 || entries[0].Outcome != audit.OutcomeApplied {
		t.Fatalf("expected one applied audit entry, got %+v", entries)
	}
	if entries[0].Qualification == nil {
		t.Error("applied entry should carry the qualification snapshot for context")
	}
}

func TestUpgradeAppliedWhenQualified(t *testing.T) {
	orch, dir, _ := newEngine(t, operator("op-1", tier.Tier1, 80, 10, 95, 70))

	result, err := orch.RequestTransition(context.Background(), &Request{
		Actor:      fullActor(),
		OperatorID: "op-1",
		TargetTier: tier.Tier2,
	})
	if err != nil {
		t.Fatalf("qualified upgrade rejected: %v", err)
	}

	if result.ChangeType != ChangeUpgrade {
		t.Errorf("change type = %s, want upgrade", result.ChangeType)
	}
	if result.FinancialImpact.ImpactType != "increase" {
		t.Errorf("impact type = %s, want increase", result.FinancialImpact.ImpactType)
	}
	if result.PreviousTier != tier.Tier1 || result.NewTier != tier.Tier2 {
		t.Errorf("transition %s -> %s, want tier_1 -> tier_2", result.PreviousTier, result.NewTier)
	}

	snap, _ := dir.Get(context.Background(), "op-1")
	if snap.CurrentTier != tier.Tier2 {
		t.Errorf("tier = %s, want tier_2", snap.CurrentTier)
	}
}

// Operator qualifies for tier_2 but requests tier_3: rejected with the
// breakdown naming what fell short.
func TestUpgradeBeyondQualificationRejected(t *testing.T) {
	orch, dir, sink := newEngine(t, operator("op-1", tier.Tier1, 80, 10, 95, 70))

	_, err := orch.RequestTransition(context.Background(), &Request{
		Actor:      fullActor(),
		OperatorID: "op-1",
		TargetTier: tier.Tier3,
	})
	if !errors.IsType(err, errors.TypeQualification) {
		t.Fatalf("expected QUALIFICATION_FAILED, got %v", err)
	}

	typed := err.(*errors.Error)
	if typed.Context["qualification"] == nil {
		t.Error("rejection must carry the qualification breakdown")
	}

	snap, _ := dir.Get(context.Background(), "op-1")
	if snap.CurrentTier != tier.Tier1 {
		t.Errorf("tier changed on rejected upgrade: %s", snap.CurrentTier)
	}

	entries := sink.Entries()
	if len(entries) != 1 || entries[0].Outcome != audit.OutcomeRejected {
		t.Fatalf("expected one rejected audit entry, got %+v", entries)
	}
	if entries[0].Qualification == nil {
		t.Error("rejected entry should carry the qualification snapshot")
	}
	if entries[0].Qualification.Criteria.All() {
		t.Error("breakdown should show at least one failing tier_3 criterion")
	}
}

func TestAuthRejectionAuditedWithoutQualification(t *testing.T) {
	orch, dir, sink := newEngine(t, operator("op-1", tier.Tier1, 95, 24, 99, 90))

	actor := &authz.Actor{
		ID:             "staff-1",
		AllowedRegions: []string{"west"},
		Permissions:    []string{authz.PermTierChange},
	}
	_, err := orch.RequestTransition(context.Background(), &Request{
		Actor:      actor,
		OperatorID: "op-1",
		TargetTier: tier.Tier2,
	})
	if !errors.IsType(err, errors.TypeRegionAccess) {
		t.Fatalf("expected REGION_ACCESS_DENIED, got %v", err)
	}

	snap, _ := dir.Get(context.Background(), "op-1")
	if snap.CurrentTier != tier.Tier1 {
		t.Errorf("tier changed on unauthorized request: %s", snap.CurrentTier)
	}

	entries := sink.Entries()
	if len(entries) != 1 || entries[0].Outcome != audit.OutcomeAuthRejected {
		t.Fatalf("expected one auth_rejected audit entry, got %+v", entries)
	}
	if entries[0].Qualification != nil {
		t.Error("auth_rejected entries must not name a qualification outcome")
	}
}

func TestUnknownOperator(t *testing.T) {
	orch, _, sink := newEngine(t)

	_, err := orch.RequestTransition(context.Background(), &Request{
		Actor:      fullActor(),
		OperatorID: "ghost",
		TargetTier: tier.Tier2,
	})
	if !errors.IsType(err, errors.TypeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
	if len(sink.Entries()) != 0 {
		t.Error("unknown operators produce no audit entries")
	}
}

func TestValidationRejectsBadRequests(t *testing.T) {
	orch, _, _ := newEngine(t)
	ctx := context.Background()

	cases := []*Request{
		nil,
		{OperatorID: "op-1", TargetTier: tier.Tier2},
		{Actor: fullActor(), TargetTier: tier.Tier2},
		{Actor: fullActor(), OperatorID: "op-1", TargetTier: tier.Tier(9)},
	}
	for i, req := range cases {
		if _, err := orch.RequestTransition(ctx, req); !errors.IsType(err, errors.TypeValidation) {
			t.Errorf("case %d: expected VALIDATION_ERROR, got %v", i, err)
		}
	}
}

func TestEvaluationErrorAudited(t *testing.T) {
	snap := operator("op-1", tier.Tier1, 95, 24, 99, 90)
	snap.Metrics.UtilizationPercentile = nil
	orch, _, sink := newEngine(t, snap)

	_, err := orch.RequestTransition(context.Background(), &Request{
		Actor:      fullActor(),
		OperatorID: "op-1",
		TargetTier: tier.Tier2,
	})
	if !errors.IsType(err, errors.TypeEvaluation) {
		t.Fatalf("expected EVALUATION_ERROR, got %v", err)
	}

	entries := sink.Entries()
	if len(entries) != 1 || entries[0].Outcome != audit.OutcomeErrored {
		t.Fatalf("expected one errored audit entry, got %+v", entries)
	}
}

// updateFailDirectory wraps a directory and fails UpdateTier, optionally
// applying the change anyway to simulate a commit whose ack was lost.
type updateFailDirectory struct {
	*directory.MemoryDirectory
	applyBeforeFailing bool
	failures           int
}

func (d *updateFailDirectory) UpdateTier(ctx context.Context, id string, from, to tier.Tier) error {
	if d.failures > 0 {
		d.failures--
		if d.applyBeforeFailing {
			_ = d.MemoryDirectory.UpdateTier(ctx, id, from, to)
		}
		return errors.Persistence("simulated storage failure", nil)
	}
	return d.MemoryDirectory.UpdateTier(ctx, id, from, to)
}

func TestPersistenceErrorAudited(t *testing.T) {
	dir := &updateFailDirectory{MemoryDirectory: directory.NewMemoryDirectory(), failures: 1}
	dir.Put(operator("op-1", tier.Tier1, 80, 10, 95, 70))
	sink := audit.NewMemorySink()
	orch := NewOrchestrator(tier.Default(), dir, sink)

	_, err := orch.RequestTransition(context.Background(), &Request{
		Actor:      fullActor(),
		OperatorID: "op-1",
		TargetTier: tier.Tier2,
	})
	if !errors.IsType(err, errors.TypePersistence) {
		t.Fatalf("expected PERSISTENCE_ERROR, got %v", err)
	}

	entries := sink.Entries()
	if len(entries) != 1 || entries[0].Outcome != audit.OutcomeErrored {
		t.Fatalf("expected one errored audit entry, got %+v", entries)
	}
}

// A client that saw PERSISTENCE_ERROR replays the request. If the change
// silently committed, the fresh read under the lock answers
// NO_CHANGE_NEEDED instead of applying twice.
func TestIdempotentRetryAfterLostAck(t *testing.T) {
	dir := &updateFailDirectory{
		MemoryDirectory:    directory.NewMemoryDirectory(),
		applyBeforeFailing: true,
		failures:           1,
	}
	dir.Put(operator("op-1", tier.Tier1, 80, 10, 95, 70))
	orch := NewOrchestrator(tier.Default(), dir, audit.NewMemorySink())
	ctx := context.Background()

	req := &Request{Actor: fullActor(), OperatorID: "op-1", TargetTier: tier.Tier2}

	_, err := orch.RequestTransition(ctx, req)
	if !errors.IsType(err, errors.TypePersistence) {
		t.Fatalf("expected PERSISTENCE_ERROR on first attempt, got %v", err)
	}

	_, err = orch.RequestTransition(ctx, req)
	if !errors.IsType(err, errors.TypeNoChange) {
		t.Fatalf("expected NO_CHANGE_NEEDED on retry, got %v", err)
	}

	snap, _ := dir.Get(ctx, "op-1")
	if snap.CurrentTier != tier.Tier2 {
		t.Errorf("tier = %s, want tier_2 applied exactly once", snap.CurrentTier)
	}
}

// Two simultaneous requests for one operator: exactly one applies, the
// other decides against the post-transition snapshot.
func TestConcurrentRequestsSerialized(t *testing.T) {
	orch, dir, sink := newEngine(t, operator("op-1", tier.Tier1, 80, 10, 95, 70))
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = orch.RequestTransition(ctx, &Request{
				Actor:      fullActor(),
				OperatorID: "op-1",
				TargetTier: tier.Tier2,
			})
		}(i)
	}
	wg.Wait()

	applied := 0
	noChange := 0
	for _, err := range results {
		switch {
		case err == nil:
			applied++
		case errors.IsType(err, errors.TypeNoChange):
			noChange++
		default:
			t.Errorf("unexpected outcome: %v", err)
		}
	}
	if applied != 1 || noChange != 1 {
		t.Fatalf("applied=%d noChange=%d, want exactly one of each", applied, noChange)
	}

	snap, _ := dir.Get(ctx, "op-1")
	if snap.CurrentTier != tier.Tier2 {
		t.Errorf("tier = %s, want tier_2", snap.CurrentTier)
	}

	appliedEntries := 0
	for _, entry := range sink.Entries() {
		if entry.Outcome == audit.OutcomeApplied {
			appliedEntries++
		}
	}
	if appliedEntries != 1 {
		t.Errorf("applied audit entries = %d, want 1", appliedEntries)
	}
}

// failingSink rejects every append
type failingSink struct{}

func (failingSink) Append(ctx context.Context, entry audit.Entry) error {
	return errors.Persistence("audit store unavailable", nil)
}

func TestAuditFailureSurfacedAsWarning(t *testing.T) {
	dir := directory.NewMemoryDirectory()
	dir.Put(operator("op-1", tier.Tier1, 80, 10, 95, 70))
	orch := NewOrchestrator(tier.Default(), dir, failingSink{})

	result, err := orch.RequestTransition(context.Background(), &Request{
		Actor:      fullActor(),
		OperatorID: "op-1",
		TargetTier: tier.Tier2,
	})
	if err != nil {
		t.Fatalf("audit failure must not fail an applied transition: %v", err)
	}
	if result.AuditWarning == "" {
		t.Error("applied transition with failed audit must carry a warning")
	}

	snap, _ := dir.Get(context.Background(), "op-1")
	if snap.CurrentTier != tier.Tier2 {
		t.Errorf("tier = %s, want tier_2 (mutation durability wins)", snap.CurrentTier)
	}
}

// recordingNotifier captures applied transitions
type recordingNotifier struct {
	mu      sync.Mutex
	applied []*Result
}

func (n *recordingNotifier) TransitionApplied(ctx context.Context, result *Result) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.applied = append(n.applied, result)
}

func TestNotifierReceivesAppliedOnly(t *testing.T) {
	dir := directory.NewMemoryDirectory()
	dir.Put(operator("op-1", tier.Tier1, 80, 10, 95, 70))
	notifier := &recordingNotifier{}
	orch := NewOrchestrator(tier.Default(), dir, audit.NewMemorySink(), WithNotifier(notifier))
	ctx := context.Background()

	// Rejected upgrade: no notification
	_, _ = orch.RequestTransition(ctx, &Request{Actor: fullActor(), OperatorID: "op-1", TargetTier: tier.Tier3})
	if len(notifier.applied) != 0 {
		t.Fatalf("rejected transition notified: %d", len(notifier.applied))
	}

	// Applied upgrade: one notification
	_, err := orch.RequestTransition(ctx, &Request{Actor: fullActor(), OperatorID: "op-1", TargetTier: tier.Tier2})
	if err != nil {
		t.Fatalf("upgrade failed: %v", err)
	}
	if len(notifier.applied) != 1 {
		t.Fatalf("notifications = %d, want 1", len(notifier.applied))
	}
	if notifier.applied[0].NewTier != tier.Tier2 {
		t.Errorf("notified tier = %s, want tier_2", notifier.applied[0].NewTier)
	}
}
