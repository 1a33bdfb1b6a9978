package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/tvqhuy/co-engine/pkg/domain/entities"
	"github.com/tvqhuy/co-engine/pkg/domain/repositories"
)

// LotRepository provides in-memory lot storage.
//
// All lot state lives behind one mutex, which makes Reserve and Release
// linearizable with respect to concurrent allocation passes: a reservation
// reads and decrements the available quantity in one critical section, so
// two passes can never both observe the same stale quantity. Query methods
// return copies; external code never holds a pointer into the store.
type LotRepository struct {
	mu   sync.Mutex
	lots map[string]*entities.MaterialLot // key: batchID|lotID
	// seq tracks insertion order per batchID|materialCode for same-day
	// FIFO tie-breaks.
	seq map[string]int
}

// NewLotRepository creates an empty in-memory lot repository.
func NewLotRepository() *LotRepository {
	return &LotRepository{
		lots: make(map[string]*entities.MaterialLot),
		seq:  make(map[string]int),
	}
}

// Verify interface compliance
var _ repositories.LotRepository = (*LotRepository)(nil)

func lotKey(batchID, lotID string) string {
	return batchID + "|" + lotID
}

// SaveLot stores a lot and assigns its intake sequence in insertion order.
func (r *LotRepository) SaveLot(ctx context.Context, lot *entities.MaterialLot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := lotKey(lot.BatchID, lot.ID)
	if _, exists := r.lots[key]; exists {
		return fmt.Errorf("lot %s already exists in batch %s", lot.ID, lot.BatchID)
	}

	seqKey := lot.BatchID + "|" + lot.MaterialCode
	r.seq[seqKey]++

	stored := *lot
	stored.IntakeSeq = r.seq[seqKey]
	r.lots[key] = &stored

	lot.IntakeSeq = stored.IntakeSeq
	return nil
}

// LotsFor returns the Available lots for a material code in FIFO order.
func (r *LotRepository) LotsFor(ctx context.Context, batchID, materialCode string) ([]*entities.MaterialLot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var lots []*entities.MaterialLot
	for _, lot := range r.lots {
		if lot.BatchID == batchID && lot.MaterialCode == materialCode && lot.Status == entities.LotAvailable {
			copied := *lot
			lots = append(lots, &copied)
		}
	}

	sort.Slice(lots, func(i, j int) bool {
		return lots[i].Before(lots[j])
	})

	return lots, nil
}

// LotByID returns a copy of a single lot regardless of status.
func (r *LotRepository) LotByID(ctx context.Context, batchID, lotID string) (*entities.MaterialLot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	lot, exists := r.lots[lotKey(batchID, lotID)]
	if !exists {
		return nil, fmt.Errorf("lot %s in batch %s: %w", lotID, batchID, entities.ErrLotNotFound)
	}

	copied := *lot
	return &copied, nil
}

// AllLots returns copies of every lot in the batch regardless of status.
func (r *LotRepository) AllLots(ctx context.Context, batchID string) ([]*entities.MaterialLot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var lots []*entities.MaterialLot
	for _, lot := range r.lots {
		if lot.BatchID == batchID {
			copied := *lot
			lots = append(lots, &copied)
		}
	}

	sort.Slice(lots, func(i, j int) bool {
		if lots[i].MaterialCode == lots[j].MaterialCode {
			return lots[i].Before(lots[j])
		}
		return lots[i].MaterialCode < lots[j].MaterialCode
	})

	return lots, nil
}

// Reserve atomically decrements a lot's available quantity.
func (r *LotRepository) Reserve(ctx context.Context, batchID, lotID string, quantity decimal.Decimal) error {
	if quantity.Sign() <= 0 {
		return fmt.Errorf("reserve quantity must be positive, got %s", quantity)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	lot, exists := r.lots[lotKey(batchID, lotID)]
	if !exists {
		return fmt.Errorf("lot %s in batch %s: %w", lotID, batchID, entities.ErrLotNotFound)
	}

	if lot.Status == entities.LotLocked {
		return fmt.Errorf("lot %s in batch %s: %w", lotID, batchID, entities.ErrLotLocked)
	}

	if lot.QuantityAvailable.LessThan(quantity) {
		return fmt.Errorf("lot %s holds %s, requested %s: %w",
			lotID, lot.QuantityAvailable, quantity, entities.ErrInsufficientQuantity)
	}

	lot.QuantityAvailable = lot.QuantityAvailable.Sub(quantity)
	if lot.QuantityAvailable.IsZero() {
		lot.Status = entities.LotDepleted
	}

	return nil
}

// Release returns a reserved quantity to the lot.
func (r *LotRepository) Release(ctx context.Context, batchID, lotID string, quantity decimal.Decimal) error {
	if quantity.Sign() <= 0 {
		return fmt.Errorf("release quantity must be positive, got %s", quantity)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	lot, exists := r.lots[lotKey(batchID, lotID)]
	if !exists {
		return fmt.Errorf("lot %s in batch %s: %w", lotID, batchID, entities.ErrLotNotFound)
	}

	restored := lot.QuantityAvailable.Add(quantity)
	if restored.GreaterThan(lot.QuantityImported) {
		return fmt.Errorf("release of %s would exceed imported quantity %s for lot %s",
			quantity, lot.QuantityImported, lotID)
	}

	lot.QuantityAvailable = restored
	if lot.Status == entities.LotDepleted && restored.Sign() > 0 {
		lot.Status = entities.LotAvailable
	}

	return nil
}
