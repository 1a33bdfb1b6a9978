package repositories

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/tvqhuy/co-engine/pkg/domain/entities"
)

// LotRepository provides access to material lots scoped by batch.
//
// Lot mutation is the only shared-mutable-state concern in the engine, so
// Reserve and Release are the single mutation points for available
// quantity and must be linearizable per lot: concurrent reservations
// against the same lot must never both observe the same available
// quantity. Reserve never blocks waiting for stock; it succeeds or fails
// immediately.
type LotRepository interface {
	// LotsFor returns the Available lots for a material code in FIFO
	// order: intake date ascending, same-day ties broken by intake
	// sequence. Locked and Depleted lots are excluded.
	LotsFor(ctx context.Context, batchID, materialCode string) ([]*entities.MaterialLot, error)

	// LotByID returns a single lot regardless of status.
	LotByID(ctx context.Context, batchID, lotID string) (*entities.MaterialLot, error)

	// AllLots returns every lot in the batch regardless of status.
	AllLots(ctx context.Context, batchID string) ([]*entities.MaterialLot, error)

	// SaveLot stores a newly ingested lot.
	SaveLot(ctx context.Context, lot *entities.MaterialLot) error

	// Reserve atomically decrements the lot's available quantity.
	// Returns entities.ErrInsufficientQuantity if the lot holds less
	// than the requested quantity, entities.ErrConcurrencyConflict if
	// the reservation raced a concurrent pass and must be retried.
	// The lot transitions to Depleted when its quantity reaches zero.
	Reserve(ctx context.Context, batchID, lotID string, quantity decimal.Decimal) error

	// Release returns a previously reserved quantity to the lot,
	// rolling back an aborted allocation pass. A depleted lot becomes
	// Available again. Fails if the release would exceed the imported
	// quantity.
	Release(ctx context.Context, batchID, lotID string, quantity decimal.Decimal) error
}
