package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/tvqhuy/co-engine/pkg/domain/entities"
	"github.com/tvqhuy/co-engine/pkg/domain/repositories"
)

// LotRepository persists material lots in sqlite.
//
// Reserve is a per-lot compare-and-decrement: the update only applies if
// the available quantity still equals the value just read, so a racing
// pass loses with ErrConcurrencyConflict and retries against the fresh
// quantity. Callers never observe a partially applied decrement.
type LotRepository struct {
	db *sqlx.DB
}

// Verify interface compliance
var _ repositories.LotRepository = (*LotRepository)(nil)

// SaveLot stores a lot, assigning the next intake sequence for its
// material code.
func (r *LotRepository) SaveLot(ctx context.Context, lot *entities.MaterialLot) error {
	var seq int
	err := r.db.GetContext(ctx, &seq, `
		SELECT COALESCE(MAX(intake_seq), 0) + 1
		FROM material_lots
		WHERE batch_id = ? AND material_code = ?`,
		lot.BatchID, lot.MaterialCode)
	if err != nil {
		return fmt.Errorf("failed to compute intake sequence for material %s: %w", lot.MaterialCode, err)
	}
	lot.IntakeSeq = seq

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO material_lots (
			id, batch_id, material_code, intake_date, intake_seq, unit_price,
			origin_country, has_origin_certificate, quantity_imported,
			quantity_available, status
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		lot.ID, lot.BatchID, lot.MaterialCode, lot.IntakeDate.UTC().Format(time.RFC3339),
		lot.IntakeSeq, lot.UnitPrice.String(), lot.OriginCountry, lot.HasOriginCertificate,
		lot.QuantityImported.String(), lot.QuantityAvailable.String(), int(lot.Status))
	if err != nil {
		return fmt.Errorf("failed to insert lot %s: %w", lot.ID, err)
	}

	return nil
}

// LotsFor returns the Available lots for a material code in FIFO order.
func (r *LotRepository) LotsFor(ctx context.Context, batchID, materialCode string) ([]*entities.MaterialLot, error) {
	var rows []lotRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT * FROM material_lots
		WHERE batch_id = ? AND material_code = ? AND status = ?
		ORDER BY intake_date ASC, intake_seq ASC`,
		batchID, materialCode, int(entities.LotAvailable))
	if err != nil {
		return nil, fmt.Errorf("failed to list lots for material %s: %w", materialCode, err)
	}

	lots := make([]*entities.MaterialLot, 0, len(rows))
	for _, row := range rows {
		lot, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		lots = append(lots, lot)
	}
	return lots, nil
}

// LotByID returns a single lot regardless of status.
func (r *LotRepository) LotByID(ctx context.Context, batchID, lotID string) (*entities.MaterialLot, error) {
	var row lotRow
	err := r.db.GetContext(ctx, &row, `
		SELECT * FROM material_lots WHERE batch_id = ? AND id = ?`,
		batchID, lotID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("lot %s in batch %s: %w", lotID, batchID, entities.ErrLotNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lot %s: %w", lotID, err)
	}

	return row.toEntity()
}

// AllLots returns every lot in the batch regardless of status.
func (r *LotRepository) AllLots(ctx context.Context, batchID string) ([]*entities.MaterialLot, error) {
	var rows []lotRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT * FROM material_lots
		WHERE batch_id = ?
		ORDER BY material_code ASC, intake_date ASC, intake_seq ASC`,
		batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list lots for batch %s: %w", batchID, err)
	}

	lots := make([]*entities.MaterialLot, 0, len(rows))
	for _, row := range rows {
		lot, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		lots = append(lots, lot)
	}
	return lots, nil
}

// Reserve atomically decrements a lot's available quantity via
// compare-and-decrement against the quantity just read.
func (r *LotRepository) Reserve(ctx context.Context, batchID, lotID string, quantity decimal.Decimal) error {
	if quantity.Sign() <= 0 {
		return fmt.Errorf("reserve quantity must be positive, got %s", quantity)
	}

	lot, err := r.LotByID(ctx, batchID, lotID)
	if err != nil {
		return err
	}

	if lot.Status == entities.LotLocked {
		return fmt.Errorf("lot %s in batch %s: %w", lotID, batchID, entities.ErrLotLocked)
	}

	if lot.QuantityAvailable.LessThan(quantity) {
		return fmt.Errorf("lot %s holds %s, requested %s: %w",
			lotID, lot.QuantityAvailable, quantity, entities.ErrInsufficientQuantity)
	}

	newAvailable := lot.QuantityAvailable.Sub(quantity)
	newStatus := entities.LotAvailable
	if newAvailable.IsZero() {
		newStatus = entities.LotDepleted
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE material_lots
		SET quantity_available = ?, status = ?
		WHERE batch_id = ? AND id = ? AND quantity_available = ? AND status = ?`,
		newAvailable.String(), int(newStatus),
		batchID, lotID, lot.QuantityAvailable.String(), int(lot.Status))
	if err != nil {
		return fmt.Errorf("failed to reserve from lot %s: %w", lotID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read reserve result for lot %s: %w", lotID, err)
	}
	if affected == 0 {
		return fmt.Errorf("lot %s changed under reservation: %w", lotID, entities.ErrConcurrencyConflict)
	}

	return nil
}

// Release returns a reserved quantity to the lot.
func (r *LotRepository) Release(ctx context.Context, batchID, lotID string, quantity decimal.Decimal) error {
	if quantity.Sign() <= 0 {
		return fmt.Errorf("release quantity must be positive, got %s", quantity)
	}

	lot, err := r.LotByID(ctx, batchID, lotID)
	if err != nil {
		return err
	}

	restored := lot.QuantityAvailable.Add(quantity)
	if restored.GreaterThan(lot.QuantityImported) {
		return fmt.Errorf("release of %s would exceed imported quantity %s for lot %s",
			quantity, lot.QuantityImported, lotID)
	}

	newStatus := lot.Status
	if newStatus == entities.LotDepleted && restored.Sign() > 0 {
		newStatus = entities.LotAvailable
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE material_lots
		SET quantity_available = ?, status = ?
		WHERE batch_id = ? AND id = ? AND quantity_available = ?`,
		restored.String(), int(newStatus),
		batchID, lotID, lot.QuantityAvailable.String())
	if err != nil {
		return fmt.Errorf("failed to release to lot %s: %w", lotID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read release result for lot %s: %w", lotID, err)
	}
	if affected == 0 {
		return fmt.Errorf("lot %s changed under release: %w", lotID, entities.ErrConcurrencyConflict)
	}

	return nil
}
