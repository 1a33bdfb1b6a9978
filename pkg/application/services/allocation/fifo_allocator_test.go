package allocation

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tvqhuy/co-engine/pkg/domain/entities"
	"github.com/tvqhuy/co-engine/pkg/domain/repositories"
	"github.com/tvqhuy/co-engine/pkg/domain/services"
	"github.com/tvqhuy/co-engine/pkg/infrastructure/repositories/memory"
)

type allocatorFixture struct {
	lots         *memory.LotRepository
	requirements *memory.RequirementRepository
	allocations  *memory.AllocationRepository
	allocator    *FifoAllocator
}

func newAllocatorFixture(t *testing.T) *allocatorFixture {
	t.Helper()
	lots := memory.NewLotRepository()
	reqs := memory.NewRequirementRepository()
	allocs := memory.NewAllocationRepository()
	clock := services.FixedClock{Instant: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	return &allocatorFixture{
		lots:         lots,
		requirements: reqs,
		allocations:  allocs,
		allocator:    NewFifoAllocator(lots, reqs, allocs, clock),
	}
}

func (f *allocatorFixture) addLot(t *testing.T, id string, intakeDate time.Time, unitPrice float64, quantity int64) {
	t.Helper()
	lot, err := entities.NewMaterialLot(id, "BATCH-1", "FAB-COTTON", intakeDate,
		decimal.NewFromFloat(unitPrice), "CN", false, decimal.NewFromInt(quantity))
	if err != nil {
		t.Fatalf("Failed to create lot %s: %v", id, err)
	}
	if err := f.lots.SaveLot(context.Background(), lot); err != nil {
		t.Fatalf("Failed to save lot %s: %v", id, err)
	}
}

func (f *allocatorFixture) addRequirement(t *testing.T, norm, units int64) *entities.ConsumptionRequirement {
	t.Helper()
	req, err := entities.NewConsumptionRequirement("REQ-1", "BATCH-1", "SHIRT-01", "FAB-COTTON", "5208",
		decimal.NewFromInt(norm), decimal.NewFromInt(units))
	if err != nil {
		t.Fatalf("Failed to create requirement: %v", err)
	}
	if err := f.requirements.SaveRequirement(context.Background(), req); err != nil {
		t.Fatalf("Failed to save requirement: %v", err)
	}
	return req
}

func TestFifoAllocator_SpansLotsInIntakeOrder(t *testing.T) {
	ctx := context.Background()
	f := newAllocatorFixture(t)

	f.addLot(t, "LOT-001", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), 2.0, 100)
	f.addLot(t, "LOT-002", time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), 3.0, 100)

	// 150 needed: the January lot is drained first, the rest comes from
	// February at its own price.
	req := f.addRequirement(t, 3, 50)

	created, err := f.allocator.AllocateRequirement(ctx, req)
	if err != nil {
		t.Fatalf("Expected allocation to succeed: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("Expected 2 allocations, got %d", len(created))
	}

	first, second := created[0], created[1]
	if first.LotID != "LOT-001" || !first.AllocatedQuantity.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Expected 100 from LOT-001 first, got %s from %s", first.AllocatedQuantity, first.LotID)
	}
	if !first.Value.Equal(decimal.NewFromInt(200)) {
		t.Errorf("Expected first allocation value 200, got %s", first.Value)
	}
	if second.LotID != "LOT-002" || !second.AllocatedQuantity.Equal(decimal.NewFromInt(50)) {
		t.Errorf("Expected 50 from LOT-002 second, got %s from %s", second.AllocatedQuantity, second.LotID)
	}
	if !second.Value.Equal(decimal.NewFromInt(150)) {
		t.Errorf("Expected second allocation value 150, got %s", second.Value)
	}
	if first.SequenceNumber != 1 || second.SequenceNumber != 2 {
		t.Errorf("Expected sequence numbers 1 and 2, got %d and %d",
			first.SequenceNumber, second.SequenceNumber)
	}

	if req.Status != entities.RequirementCompleted {
		t.Errorf("Expected requirement Completed, got %s", req.Status)
	}

	lot1, err := f.lots.LotByID(ctx, "BATCH-1", "LOT-001")
	if err != nil {
		t.Fatalf("Failed to read LOT-001: %v", err)
	}
	if lot1.Status != entities.LotDepleted || !lot1.QuantityAvailable.IsZero() {
		t.Errorf("Expected LOT-001 depleted, got %s available with status %s",
			lot1.QuantityAvailable, lot1.Status)
	}

	lot2, err := f.lots.LotByID(ctx, "BATCH-1", "LOT-002")
	if err != nil {
		t.Fatalf("Failed to read LOT-002: %v", err)
	}
	if !lot2.QuantityAvailable.Equal(decimal.NewFromInt(50)) {
		t.Errorf("Expected 50 left in LOT-002, got %s", lot2.QuantityAvailable)
	}
}

func TestFifoAllocator_InsufficientStockKeepsPartials(t *testing.T) {
	ctx := context.Background()
	f := newAllocatorFixture(t)

	f.addLot(t, "LOT-001", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), 2.0, 100)
	f.addLot(t, "LOT-002", time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), 3.0, 100)

	// 250 needed against 200 on hand.
	req := f.addRequirement(t, 5, 50)

	created, err := f.allocator.AllocateRequirement(ctx, req)
	if err != nil {
		t.Fatalf("Insufficiency must not surface as an error: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("Expected 2 partial allocations, got %d", len(created))
	}

	if req.Status != entities.RequirementInsufficientStock {
		t.Errorf("Expected InsufficientStock, got %s", req.Status)
	}
	if !req.QuantityAllocated.Equal(decimal.NewFromInt(200)) {
		t.Errorf("Expected 200 allocated, got %s", req.QuantityAllocated)
	}
	if !req.Shortfall().Equal(decimal.NewFromInt(50)) {
		t.Errorf("Expected shortfall 50, got %s", req.Shortfall())
	}

	// Both lots are fully consumed; the partials stand.
	for _, lotID := range []string{"LOT-001", "LOT-002"} {
		lot, err := f.lots.LotByID(ctx, "BATCH-1", lotID)
		if err != nil {
			t.Fatalf("Failed to read %s: %v", lotID, err)
		}
		if !lot.QuantityAvailable.IsZero() {
			t.Errorf("Expected %s drained, got %s available", lotID, lot.QuantityAvailable)
		}
	}
}

func TestFifoAllocator_SameDayLotsFollowIntakeSequence(t *testing.T) {
	ctx := context.Background()
	f := newAllocatorFixture(t)

	day := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	f.addLot(t, "LOT-A", day, 2.0, 60)
	f.addLot(t, "LOT-B", day, 3.0, 60)

	req := f.addRequirement(t, 1, 80)

	created, err := f.allocator.AllocateRequirement(ctx, req)
	if err != nil {
		t.Fatalf("Expected allocation to succeed: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("Expected 2 allocations, got %d", len(created))
	}
	if created[0].LotID != "LOT-A" || created[1].LotID != "LOT-B" {
		t.Errorf("Expected save order to break the same-day tie, got %s then %s",
			created[0].LotID, created[1].LotID)
	}
}

func TestFifoAllocator_NoLots(t *testing.T) {
	ctx := context.Background()
	f := newAllocatorFixture(t)

	req := f.addRequirement(t, 1, 10)

	created, err := f.allocator.AllocateRequirement(ctx, req)
	if err != nil {
		t.Fatalf("Expected no error with zero lots: %v", err)
	}
	if len(created) != 0 {
		t.Errorf("Expected no allocations, got %d", len(created))
	}
	if req.Status != entities.RequirementInsufficientStock {
		t.Errorf("Expected InsufficientStock, got %s", req.Status)
	}
	if !req.Shortfall().Equal(decimal.NewFromInt(10)) {
		t.Errorf("Expected shortfall 10, got %s", req.Shortfall())
	}
}

func TestFifoAllocator_TerminalRequirementIsNoOp(t *testing.T) {
	ctx := context.Background()
	f := newAllocatorFixture(t)

	f.addLot(t, "LOT-001", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), 2.0, 100)
	req := f.addRequirement(t, 1, 50)

	if _, err := f.allocator.AllocateRequirement(ctx, req); err != nil {
		t.Fatalf("First pass failed: %v", err)
	}
	if req.Status != entities.RequirementCompleted {
		t.Fatalf("Expected Completed after first pass, got %s", req.Status)
	}

	created, err := f.allocator.AllocateRequirement(ctx, req)
	if err != nil {
		t.Fatalf("Second pass failed: %v", err)
	}
	if len(created) != 0 {
		t.Errorf("Expected terminal requirement to be a no-op, got %d allocations", len(created))
	}

	// The lot must not be double-reserved.
	lot, err := f.lots.LotByID(ctx, "BATCH-1", "LOT-001")
	if err != nil {
		t.Fatalf("Failed to read lot: %v", err)
	}
	if !lot.QuantityAvailable.Equal(decimal.NewFromInt(50)) {
		t.Errorf("Expected 50 still available, got %s", lot.QuantityAvailable)
	}

	allocs, err := f.allocations.AllocationsForRequirement(ctx, "BATCH-1", req.ID)
	if err != nil {
		t.Fatalf("Failed to read allocations: %v", err)
	}
	if len(allocs) != 1 {
		t.Errorf("Expected exactly 1 stored allocation, got %d", len(allocs))
	}
}

func TestFifoAllocator_ResumesFromAllocatingState(t *testing.T) {
	ctx := context.Background()
	f := newAllocatorFixture(t)

	f.addLot(t, "LOT-001", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), 2.0, 100)
	f.addLot(t, "LOT-002", time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), 3.0, 100)

	req := f.addRequirement(t, 3, 50)

	// Simulate an interrupted pass: the first lot was reserved and its
	// allocation recorded, then the run died before finalizing.
	if err := f.lots.Reserve(ctx, "BATCH-1", "LOT-001", decimal.NewFromInt(100)); err != nil {
		t.Fatalf("Failed to reserve: %v", err)
	}
	prior, err := entities.NewAllocation("ALLOC-1", "BATCH-1", req.ID, "LOT-001",
		decimal.NewFromInt(100), decimal.NewFromFloat(2.0), "CN", false, 1,
		time.Date(2025, 3, 1, 11, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Failed to create prior allocation: %v", err)
	}
	if err := f.allocations.AppendAllocation(ctx, prior); err != nil {
		t.Fatalf("Failed to append prior allocation: %v", err)
	}
	req.QuantityAllocated = decimal.NewFromInt(100)
	req.Status = entities.RequirementAllocating
	if err := f.requirements.UpdateRequirement(ctx, req); err != nil {
		t.Fatalf("Failed to update requirement: %v", err)
	}

	created, err := f.allocator.AllocateRequirement(ctx, req)
	if err != nil {
		t.Fatalf("Resume pass failed: %v", err)
	}
	if len(created) != 1 {
		t.Fatalf("Expected 1 new allocation on resume, got %d", len(created))
	}
	if created[0].LotID != "LOT-002" || !created[0].AllocatedQuantity.Equal(decimal.NewFromInt(50)) {
		t.Errorf("Expected 50 from LOT-002, got %s from %s",
			created[0].AllocatedQuantity, created[0].LotID)
	}
	if created[0].SequenceNumber != 2 {
		t.Errorf("Expected sequence to continue at 2, got %d", created[0].SequenceNumber)
	}
	if req.Status != entities.RequirementCompleted {
		t.Errorf("Expected Completed after resume, got %s", req.Status)
	}
}

// conflictingLotRepository forces reservation conflicts per lot before
// delegating, standing in for a concurrent pass racing the same lots.
// A negative count conflicts forever.
type conflictingLotRepository struct {
	repositories.LotRepository
	conflicts map[string]int
}

func (r *conflictingLotRepository) Reserve(ctx context.Context, batchID, lotID string, quantity decimal.Decimal) error {
	if n, ok := r.conflicts[lotID]; ok && n != 0 {
		if n > 0 {
			r.conflicts[lotID] = n - 1
		}
		return fmt.Errorf("lot %s changed under reservation: %w", lotID, entities.ErrConcurrencyConflict)
	}
	return r.LotRepository.Reserve(ctx, batchID, lotID, quantity)
}

// holdingLotRepository rejects reservations against one lot as if an
// operator hold landed after the lot was listed.
type holdingLotRepository struct {
	repositories.LotRepository
	held string
}

func (r *holdingLotRepository) Reserve(ctx context.Context, batchID, lotID string, quantity decimal.Decimal) error {
	if lotID == r.held {
		return fmt.Errorf("lot %s in batch %s: %w", lotID, batchID, entities.ErrLotLocked)
	}
	return r.LotRepository.Reserve(ctx, batchID, lotID, quantity)
}

func TestFifoAllocator_RetriesAbsorbTransientConflicts(t *testing.T) {
	ctx := context.Background()
	f := newAllocatorFixture(t)

	f.addLot(t, "LOT-001", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), 2.0, 100)
	req := f.addRequirement(t, 1, 50)

	// Two lost races fit inside the retry budget; the third attempt lands.
	racing := &conflictingLotRepository{
		LotRepository: f.lots,
		conflicts:     map[string]int{"LOT-001": 2},
	}
	clock := services.FixedClock{Instant: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	allocator := NewFifoAllocator(racing, f.requirements, f.allocations, clock)

	created, err := allocator.AllocateRequirement(ctx, req)
	if err != nil {
		t.Fatalf("Expected conflicts to be absorbed: %v", err)
	}
	if len(created) != 1 {
		t.Fatalf("Expected 1 allocation, got %d", len(created))
	}
	if created[0].LotID != "LOT-001" || !created[0].AllocatedQuantity.Equal(decimal.NewFromInt(50)) {
		t.Errorf("Expected 50 from LOT-001, got %s from %s",
			created[0].AllocatedQuantity, created[0].LotID)
	}
	if req.Status != entities.RequirementCompleted {
		t.Errorf("Expected Completed, got %s", req.Status)
	}
	if racing.conflicts["LOT-001"] != 0 {
		t.Errorf("Expected both forced conflicts consumed, %d left", racing.conflicts["LOT-001"])
	}

	lot, err := f.lots.LotByID(ctx, "BATCH-1", "LOT-001")
	if err != nil {
		t.Fatalf("Failed to read lot: %v", err)
	}
	if !lot.QuantityAvailable.Equal(decimal.NewFromInt(50)) {
		t.Errorf("Expected 50 left after a single reservation, got %s", lot.QuantityAvailable)
	}
}

func TestFifoAllocator_PersistentConflictDrainsToNextLot(t *testing.T) {
	ctx := context.Background()
	f := newAllocatorFixture(t)

	f.addLot(t, "LOT-001", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), 2.0, 100)
	f.addLot(t, "LOT-002", time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), 3.0, 100)

	// 150 needed, but the January lot loses every race. Once retries run
	// out it counts as drained and the walk moves on without erroring.
	req := f.addRequirement(t, 3, 50)

	racing := &conflictingLotRepository{
		LotRepository: f.lots,
		conflicts:     map[string]int{"LOT-001": -1},
	}
	clock := services.FixedClock{Instant: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	allocator := NewFifoAllocator(racing, f.requirements, f.allocations, clock)

	created, err := allocator.AllocateRequirement(ctx, req)
	if err != nil {
		t.Fatalf("Exhausted retries must not surface as an error: %v", err)
	}
	if len(created) != 1 {
		t.Fatalf("Expected 1 allocation from the surviving lot, got %d", len(created))
	}
	if created[0].LotID != "LOT-002" || !created[0].AllocatedQuantity.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Expected 100 from LOT-002, got %s from %s",
			created[0].AllocatedQuantity, created[0].LotID)
	}
	if req.Status != entities.RequirementInsufficientStock {
		t.Errorf("Expected InsufficientStock, got %s", req.Status)
	}
	if !req.Shortfall().Equal(decimal.NewFromInt(50)) {
		t.Errorf("Expected shortfall 50, got %s", req.Shortfall())
	}

	// The contested lot keeps its quantity.
	lot, err := f.lots.LotByID(ctx, "BATCH-1", "LOT-001")
	if err != nil {
		t.Fatalf("Failed to read lot: %v", err)
	}
	if !lot.QuantityAvailable.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Expected LOT-001 untouched at 100, got %s", lot.QuantityAvailable)
	}
}

func TestFifoAllocator_SkipsLotHeldMidWalk(t *testing.T) {
	ctx := context.Background()
	f := newAllocatorFixture(t)

	f.addLot(t, "LOT-001", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), 2.0, 100)
	f.addLot(t, "LOT-002", time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), 3.0, 100)

	req := f.addRequirement(t, 1, 50)

	holding := &holdingLotRepository{LotRepository: f.lots, held: "LOT-001"}
	clock := services.FixedClock{Instant: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	allocator := NewFifoAllocator(holding, f.requirements, f.allocations, clock)

	created, err := allocator.AllocateRequirement(ctx, req)
	if err != nil {
		t.Fatalf("A held lot must not abort the walk: %v", err)
	}
	if len(created) != 1 {
		t.Fatalf("Expected 1 allocation, got %d", len(created))
	}
	if created[0].LotID != "LOT-002" {
		t.Errorf("Expected the held lot skipped, got allocation from %s", created[0].LotID)
	}
	if req.Status != entities.RequirementCompleted {
		t.Errorf("Expected Completed, got %s", req.Status)
	}

	lot, err := f.lots.LotByID(ctx, "BATCH-1", "LOT-001")
	if err != nil {
		t.Fatalf("Failed to read lot: %v", err)
	}
	if !lot.QuantityAvailable.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Expected held lot untouched at 100, got %s", lot.QuantityAvailable)
	}
}
