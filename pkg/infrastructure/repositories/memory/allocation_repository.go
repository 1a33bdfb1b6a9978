package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/tvqhuy/co-engine/pkg/domain/entities"
	"github.com/tvqhuy/co-engine/pkg/domain/repositories"
)

// AllocationRepository provides in-memory storage for the append-only
// allocation ledger. Records are never updated or deleted.
type AllocationRepository struct {
	mu          sync.RWMutex
	allocations map[string][]*entities.Allocation // key: batchID, append order
}

// NewAllocationRepository creates an empty in-memory allocation ledger.
func NewAllocationRepository() *AllocationRepository {
	return &AllocationRepository{
		allocations: make(map[string][]*entities.Allocation),
	}
}

// Verify interface compliance
var _ repositories.AllocationRepository = (*AllocationRepository)(nil)

// AppendAllocation appends one allocation record to the batch's ledger.
func (r *AllocationRepository) AppendAllocation(ctx context.Context, alloc *entities.Allocation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.allocations[alloc.BatchID] {
		if existing.ID == alloc.ID {
			return fmt.Errorf("allocation %s already exists in batch %s", alloc.ID, alloc.BatchID)
		}
	}

	stored := *alloc
	r.allocations[alloc.BatchID] = append(r.allocations[alloc.BatchID], &stored)
	return nil
}

// AllocationsForRequirement returns a requirement's allocations ordered
// by sequence number.
func (r *AllocationRepository) AllocationsForRequirement(ctx context.Context, batchID, requirementID string) ([]*entities.Allocation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var allocs []*entities.Allocation
	for _, alloc := range r.allocations[batchID] {
		if alloc.RequirementID == requirementID {
			copied := *alloc
			allocs = append(allocs, &copied)
		}
	}

	sort.Slice(allocs, func(i, j int) bool {
		return allocs[i].SequenceNumber < allocs[j].SequenceNumber
	})

	return allocs, nil
}

// AllocationsForBatch returns all allocations ordered by requirement then
// sequence number.
func (r *AllocationRepository) AllocationsForBatch(ctx context.Context, batchID string) ([]*entities.Allocation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	allocs := make([]*entities.Allocation, 0, len(r.allocations[batchID]))
	for _, alloc := range r.allocations[batchID] {
		copied := *alloc
		allocs = append(allocs, &copied)
	}

	sort.Slice(allocs, func(i, j int) bool {
		if allocs[i].RequirementID == allocs[j].RequirementID {
			return allocs[i].SequenceNumber < allocs[j].SequenceNumber
		}
		return allocs[i].RequirementID < allocs[j].RequirementID
	})

	return allocs, nil
}

// AllocationsForLot returns the allocations drawn from one lot in append
// order.
func (r *AllocationRepository) AllocationsForLot(ctx context.Context, batchID, lotID string) ([]*entities.Allocation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var allocs []*entities.Allocation
	for _, alloc := range r.allocations[batchID] {
		if alloc.LotID == lotID {
			copied := *alloc
			allocs = append(allocs, &copied)
		}
	}

	return allocs, nil
}
