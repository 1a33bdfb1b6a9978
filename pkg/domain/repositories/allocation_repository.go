package repositories

import (
	"context"

	"github.com/tvqhuy/co-engine/pkg/domain/entities"
)

// AllocationRepository provides access to the append-only allocation
// ledger scoped by batch. Allocations are never updated or deleted.
type AllocationRepository interface {
	AppendAllocation(ctx context.Context, alloc *entities.Allocation) error

	// AllocationsForRequirement returns a requirement's allocations
	// ordered by sequence number ascending.
	AllocationsForRequirement(ctx context.Context, batchID, requirementID string) ([]*entities.Allocation, error)

	// AllocationsForBatch returns all allocations in the batch ordered
	// by requirement then sequence number.
	AllocationsForBatch(ctx context.Context, batchID string) ([]*entities.Allocation, error)

	// AllocationsForLot returns the allocations drawn from one lot, in
	// creation order.
	AllocationsForLot(ctx context.Context, batchID, lotID string) ([]*entities.Allocation, error)
}
