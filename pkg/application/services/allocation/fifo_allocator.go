package allocation

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tvqhuy/co-engine/pkg/domain/entities"
	"github.com/tvqhuy/co-engine/pkg/domain/repositories"
	"github.com/tvqhuy/co-engine/pkg/domain/services"
)

// reserveRetries bounds how often a lost reservation race is retried
// against the same lot before the lot is treated as exhausted.
const reserveRetries = 3

// FifoAllocator satisfies one consumption requirement at a time by
// drawing from the lots of its material code in FIFO order.
//
// Insufficiency is a reported outcome, not a failure: partial allocations
// made before the lots ran out are kept, and the requirement ends in
// InsufficientStock. Only repository faults surface as errors.
type FifoAllocator struct {
	lots         repositories.LotRepository
	requirements repositories.RequirementRepository
	allocations  repositories.AllocationRepository
	clock        services.Clock
}

// NewFifoAllocator creates an allocator over the given repositories.
func NewFifoAllocator(
	lots repositories.LotRepository,
	requirements repositories.RequirementRepository,
	allocations repositories.AllocationRepository,
	clock services.Clock,
) *FifoAllocator {
	return &FifoAllocator{
		lots:         lots,
		requirements: requirements,
		allocations:  allocations,
		clock:        clock,
	}
}

// AllocateRequirement walks the requirement's material lots in FIFO order,
// reserving from each until the requirement is satisfied or the lots are
// exhausted. It returns the allocations created by this call.
//
// A requirement that is already terminal is a no-op; re-running never
// double-reserves. A requirement interrupted mid-walk (status Allocating)
// resumes where it stopped, continuing its sequence numbers.
func (a *FifoAllocator) AllocateRequirement(
	ctx context.Context,
	req *entities.ConsumptionRequirement,
) ([]*entities.Allocation, error) {
	if req.Status.Terminal() {
		return nil, nil
	}

	remaining := req.QuantityRemaining()
	if remaining.Sign() <= 0 {
		req.Status = entities.RequirementCompleted
		if err := a.requirements.UpdateRequirement(ctx, req); err != nil {
			return nil, fmt.Errorf("failed to complete zero-quantity requirement %s: %w", req.ID, err)
		}
		return nil, nil
	}

	req.Status = entities.RequirementAllocating
	if err := a.requirements.UpdateRequirement(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to mark requirement %s allocating: %w", req.ID, err)
	}

	// Resume sequence numbering after any allocations from an
	// interrupted earlier pass.
	prior, err := a.allocations.AllocationsForRequirement(ctx, req.BatchID, req.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to read prior allocations for requirement %s: %w", req.ID, err)
	}
	nextSeq := len(prior) + 1

	lots, err := a.lots.LotsFor(ctx, req.BatchID, req.MaterialCode)
	if err != nil {
		return nil, fmt.Errorf("failed to list lots for material %s: %w", req.MaterialCode, err)
	}

	var created []*entities.Allocation
	for _, lot := range lots {
		if remaining.Sign() == 0 {
			break
		}

		take, err := a.reserveFromLot(ctx, req.BatchID, lot, remaining)
		if err != nil {
			return created, err
		}
		if take.Sign() == 0 {
			continue
		}

		alloc, err := entities.NewAllocation(
			uuid.NewString(),
			req.BatchID,
			req.ID,
			lot.ID,
			take,
			lot.UnitPrice,
			lot.OriginCountry,
			lot.HasOriginCertificate,
			nextSeq,
			a.clock.Now(),
		)
		if err != nil {
			// Roll back the reservation so conservation holds.
			if relErr := a.lots.Release(ctx, req.BatchID, lot.ID, take); relErr != nil {
				return created, fmt.Errorf("failed to release lot %s after allocation error: %v (original: %w)", lot.ID, relErr, err)
			}
			return created, fmt.Errorf("failed to build allocation for lot %s: %w", lot.ID, err)
		}

		if err := a.allocations.AppendAllocation(ctx, alloc); err != nil {
			if relErr := a.lots.Release(ctx, req.BatchID, lot.ID, take); relErr != nil {
				return created, fmt.Errorf("failed to release lot %s after append error: %v (original: %w)", lot.ID, relErr, err)
			}
			return created, fmt.Errorf("failed to append allocation for lot %s: %w", lot.ID, err)
		}

		created = append(created, alloc)
		nextSeq++
		remaining = remaining.Sub(take)
		req.QuantityAllocated = req.QuantityAllocated.Add(take)

		if err := a.requirements.UpdateRequirement(ctx, req); err != nil {
			return created, fmt.Errorf("failed to persist allocation progress for requirement %s: %w", req.ID, err)
		}
	}

	if remaining.Sign() == 0 {
		req.Status = entities.RequirementCompleted
	} else {
		req.Status = entities.RequirementInsufficientStock
	}
	if err := a.requirements.UpdateRequirement(ctx, req); err != nil {
		return created, fmt.Errorf("failed to finalize requirement %s: %w", req.ID, err)
	}

	return created, nil
}

// reserveFromLot reserves min(remaining, available) from one lot,
// retrying a bounded number of times when a concurrent pass wins the
// race for the same lot. Returns the quantity actually reserved; zero
// means the lot had nothing left for us.
func (a *FifoAllocator) reserveFromLot(
	ctx context.Context,
	batchID string,
	lot *entities.MaterialLot,
	remaining decimal.Decimal,
) (decimal.Decimal, error) {
	available := lot.QuantityAvailable

	for attempt := 0; attempt < reserveRetries; attempt++ {
		take := decimal.Min(remaining, available)
		if take.Sign() <= 0 {
			return decimal.Zero, nil
		}

		err := a.lots.Reserve(ctx, batchID, lot.ID, take)
		if err == nil {
			return take, nil
		}
		if errors.Is(err, entities.ErrLotLocked) {
			// An operator hold landed after the walk listed the lot.
			return decimal.Zero, nil
		}
		if !errors.Is(err, entities.ErrConcurrencyConflict) && !errors.Is(err, entities.ErrInsufficientQuantity) {
			return decimal.Zero, fmt.Errorf("failed to reserve %s from lot %s: %w", take, lot.ID, err)
		}

		// A concurrent pass changed the lot under us. Re-read its
		// availability and try again with whatever is left.
		fresh, readErr := a.lots.LotByID(ctx, batchID, lot.ID)
		if readErr != nil {
			return decimal.Zero, fmt.Errorf("failed to re-read lot %s after reservation conflict: %w", lot.ID, readErr)
		}
		available = fresh.QuantityAvailable
	}

	// Retries exhausted: the winner genuinely drained the lot.
	return decimal.Zero, nil
}
