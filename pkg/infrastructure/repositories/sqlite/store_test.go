package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tvqhuy/co-engine/pkg/domain/entities"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func saveLot(t *testing.T, store *Store, id string, intakeDate time.Time, quantity int64) {
	t.Helper()
	lot, err := entities.NewMaterialLot(id, "BATCH-1", "FAB-COTTON", intakeDate,
		decimal.NewFromFloat(2.5), "CN", false, decimal.NewFromInt(quantity))
	if err != nil {
		t.Fatalf("Failed to create lot %s: %v", id, err)
	}
	if err := store.Lots().SaveLot(context.Background(), lot); err != nil {
		t.Fatalf("Failed to save lot %s: %v", id, err)
	}
}

func TestStore_LotRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	jan := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	// Saved out of date order; reads must come back FIFO.
	saveLot(t, store, "LOT-FEB", feb, 100)
	saveLot(t, store, "LOT-JAN", jan, 100)

	lots, err := store.Lots().LotsFor(ctx, "BATCH-1", "FAB-COTTON")
	if err != nil {
		t.Fatalf("Failed to list lots: %v", err)
	}
	if len(lots) != 2 {
		t.Fatalf("Expected 2 lots, got %d", len(lots))
	}
	if lots[0].ID != "LOT-JAN" || lots[1].ID != "LOT-FEB" {
		t.Errorf("Expected FIFO order, got %s then %s", lots[0].ID, lots[1].ID)
	}

	got := lots[0]
	if !got.UnitPrice.Equal(decimal.NewFromFloat(2.5)) {
		t.Errorf("Expected unit price 2.5 back, got %s", got.UnitPrice)
	}
	if !got.IntakeDate.Equal(jan) {
		t.Errorf("Expected intake date %v back, got %v", jan, got.IntakeDate)
	}
	if got.IntakeSeq == 0 {
		t.Error("Expected a stored intake sequence")
	}
}

func TestStore_ReserveAndRelease(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	saveLot(t, store, "LOT-001", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), 100)
	lots := store.Lots()

	if err := lots.Reserve(ctx, "BATCH-1", "LOT-001", decimal.NewFromInt(100)); err != nil {
		t.Fatalf("Expected reserve to succeed: %v", err)
	}

	stored, err := lots.LotByID(ctx, "BATCH-1", "LOT-001")
	if err != nil {
		t.Fatalf("Failed to read lot: %v", err)
	}
	if !stored.QuantityAvailable.IsZero() || stored.Status != entities.LotDepleted {
		t.Errorf("Expected a drained, depleted lot, got %s available with status %s",
			stored.QuantityAvailable, stored.Status)
	}

	err = lots.Reserve(ctx, "BATCH-1", "LOT-001", decimal.NewFromInt(1))
	if !errors.Is(err, entities.ErrInsufficientQuantity) {
		t.Fatalf("Expected ErrInsufficientQuantity, got %v", err)
	}

	if err := lots.Release(ctx, "BATCH-1", "LOT-001", decimal.NewFromInt(40)); err != nil {
		t.Fatalf("Expected release to succeed: %v", err)
	}
	stored, _ = lots.LotByID(ctx, "BATCH-1", "LOT-001")
	if stored.Status != entities.LotAvailable {
		t.Errorf("Expected release to revive the lot, got %s", stored.Status)
	}

	if err := lots.Reserve(ctx, "BATCH-1", "NO-SUCH-LOT", decimal.NewFromInt(1)); !errors.Is(err, entities.ErrLotNotFound) {
		t.Errorf("Expected ErrLotNotFound, got %v", err)
	}
}

func TestStore_ReserveRejectsLockedLot(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	lot, err := entities.NewMaterialLot("LOT-001", "BATCH-1", "FAB-COTTON",
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		decimal.NewFromFloat(2.5), "CN", false, decimal.NewFromInt(100))
	if err != nil {
		t.Fatalf("Failed to create lot: %v", err)
	}
	lot.Status = entities.LotLocked
	if err := store.Lots().SaveLot(ctx, lot); err != nil {
		t.Fatalf("Failed to save lot: %v", err)
	}

	// An operator hold blocks direct reservations, not just LotsFor.
	err = store.Lots().Reserve(ctx, "BATCH-1", "LOT-001", decimal.NewFromInt(10))
	if !errors.Is(err, entities.ErrLotLocked) {
		t.Fatalf("Expected ErrLotLocked, got %v", err)
	}

	stored, err := store.Lots().LotByID(ctx, "BATCH-1", "LOT-001")
	if err != nil {
		t.Fatalf("Failed to read lot: %v", err)
	}
	if !stored.QuantityAvailable.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Expected quantity untouched on a held lot, got %s", stored.QuantityAvailable)
	}
	if stored.Status != entities.LotLocked {
		t.Errorf("Expected lot to stay Locked, got %s", stored.Status)
	}
}

func TestStore_RequirementLifecycle(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	repo := store.Requirements()

	req, err := entities.NewConsumptionRequirement("REQ-1", "BATCH-1", "SHIRT-01", "FAB-COTTON", "5208",
		decimal.NewFromFloat(1.5), decimal.NewFromInt(100))
	if err != nil {
		t.Fatalf("Failed to create requirement: %v", err)
	}
	if err := repo.SaveRequirement(ctx, req); err != nil {
		t.Fatalf("Failed to save requirement: %v", err)
	}

	req.Status = entities.RequirementCompleted
	req.QuantityAllocated = req.TotalQuantityNeeded
	if err := repo.UpdateRequirement(ctx, req); err != nil {
		t.Fatalf("Failed to update requirement: %v", err)
	}

	stored, err := repo.RequirementByID(ctx, "BATCH-1", "REQ-1")
	if err != nil {
		t.Fatalf("Failed to read requirement: %v", err)
	}
	if stored.Status != entities.RequirementCompleted {
		t.Errorf("Expected stored status Completed, got %s", stored.Status)
	}
	if !stored.TotalQuantityNeeded.Equal(decimal.NewFromInt(150)) {
		t.Errorf("Expected total 150 back, got %s", stored.TotalQuantityNeeded)
	}

	req.ID = "REQ-MISSING"
	if err := repo.UpdateRequirement(ctx, req); !errors.Is(err, entities.ErrRequirementNotFound) {
		t.Errorf("Expected ErrRequirementNotFound, got %v", err)
	}
}

func TestStore_VerdictUpsert(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	repo := store.Verdicts()

	verdict := &entities.SkuVerdict{
		BatchID:             "BATCH-1",
		SKUCode:             "SHIRT-01",
		Criterion:           entities.CriterionRVC,
		FOBValue:            decimal.NewFromInt(1000),
		OriginatingValue:    decimal.NewFromInt(800),
		NonOriginatingValue: decimal.NewFromInt(200),
		RVCPercentage:       decimal.NewFromInt(80),
		Result:              entities.VerdictPending,
		ComputedAt:          time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	if err := repo.UpsertVerdict(ctx, verdict); err != nil {
		t.Fatalf("Failed to insert verdict: %v", err)
	}

	// Re-running the batch overwrites the prior verdict.
	verdict.Result = entities.VerdictPass
	verdict.FinalOriginCode = "VN"
	if err := repo.UpsertVerdict(ctx, verdict); err != nil {
		t.Fatalf("Failed to upsert verdict: %v", err)
	}

	stored, err := repo.VerdictForSKU(ctx, "BATCH-1", "SHIRT-01")
	if err != nil {
		t.Fatalf("Failed to read verdict: %v", err)
	}
	if stored.Result != entities.VerdictPass || stored.FinalOriginCode != "VN" {
		t.Errorf("Expected the upsert to win, got %s with origin %q",
			stored.Result, stored.FinalOriginCode)
	}

	all, err := repo.VerdictsForBatch(ctx, "BATCH-1")
	if err != nil {
		t.Fatalf("Failed to list verdicts: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("Expected a single verdict row after upsert, got %d", len(all))
	}
}
