package audit

import (
	"context"
	"testing"

	"fleet-admin/core/tier"
	"fleet-admin/internal/errors"
)

func TestMemorySinkAppendsInOrder(t *testing.T) {
	sink := NewMemorySink()
	ctx := context.Background()

	first := NewEntry("op-1", "admin-1", tier.Tier1, tier.Tier2)
	first.Outcome = OutcomeApplied
	second := NewEntry("op-1", "admin-1", tier.Tier2, tier.Tier1)
	second.Outcome = OutcomeRejected

	if err := sink.Append(ctx, first); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if err := sink.Append(ctx, second); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	entries := sink.Entries()
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].ID != first.ID || entries[1].ID != second.ID {
		t.Error("entries out of append order")
	}
}

func TestNewEntryPopulatesIdentity(t *testing.T) {
	entry := NewEntry("op-9", "actor-3", tier.Tier2, tier.Tier3)

	if entry.ID == "" {
		t.Error("entry must have an audit reference")
	}
	if entry.Timestamp.IsZero() {
		t.Error("entry must be timestamped")
	}
	if loc := entry.Timestamp.Location(); loc != nil && loc.String() != "UTC" {
		t.Errorf("timestamp location = %s, want UTC", loc)
	}
	if entry.OperatorID != "op-9" || entry.ActorID != "actor-3" {
		t.Errorf("identity fields = %s/%s", entry.OperatorID, entry.ActorID)
	}
}

type rejectingSink struct{}

func (rejectingSink) Append(ctx context.Context, entry Entry) error {
	return errors.Persistence("sink down", nil)
}

func TestMultiSinkDeliversToAllAndReportsFirstError(t *testing.T) {
	mem := NewMemorySink()
	multi := NewMultiSink(rejectingSink{}, mem)

	entry := NewEntry("op-1", "admin-1", tier.Tier1, tier.Tier2)
	err := multi.Append(context.Background(), entry)

	if !errors.IsType(err, errors.TypePersistence) {
		t.Fatalf("expected first sink's error, got %v", err)
	}
	if len(mem.Entries()) != 1 {
		t.Error("later sinks must still receive the entry after an earlier failure")
	}
}
