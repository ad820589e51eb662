package directory

import (
	"context"
	"sync"

	"fleet-admin/core/tier"
	"fleet-admin/internal/errors"
)

// MemoryDirectory is an in-memory Directory for tests and single-node use
type MemoryDirectory struct {
	mu        sync.RWMutex
	operators map[string]*OperatorSnapshot
}

// NewMemoryDirectory creates an empty in-memory directory
func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{
		operators: make(map[string]*OperatorSnapshot),
	}
}

// Put inserts or replaces an operator record
func (d *MemoryDirectory) Put(snap *OperatorSnapshot) {
	d.mu.Lock()
	defer d.mu.Unlock()
	copied := *snap
	d.operators[snap.ID] = &copied
}

// Get returns a copy of the operator snapshot
func (d *MemoryDirectory) Get(ctx context.Context, id string) (*OperatorSnapshot, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	snap, ok := d.operators[id]
	if !ok {
		return nil, errors.NotFound("operator", id)
	}
	copied := *snap
	return &copied, nil
}

// UpdateTier applies a compare-and-swap tier update
func (d *MemoryDirectory) UpdateTier(ctx context.Context, id string, from, to tier.Tier) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	snap, ok := d.operators[id]
	if !ok {
		return errors.NotFound("operator", id)
	}
	if snap.CurrentTier != from {
		return errors.Persistence("tier changed concurrently for operator "+id, nil).
			WithContext("expected", from.String()).
			WithContext("actual", snap.CurrentTier.String())
	}
	snap.CurrentTier = to
	return nil
}
