package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/tvqhuy/co-engine/pkg/domain/entities"
	"github.com/tvqhuy/co-engine/pkg/domain/repositories"
)

// RequirementRepository persists consumption requirements in sqlite.
type RequirementRepository struct {
	db *sqlx.DB
}

// Verify interface compliance
var _ repositories.RequirementRepository = (*RequirementRepository)(nil)

func (r *RequirementRepository) SaveRequirement(ctx context.Context, req *entities.ConsumptionRequirement) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO consumption_requirements (
			id, batch_id, sku_code, material_code, hs_heading, norm_per_unit,
			units_of_sku, total_quantity_needed, quantity_allocated, status
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.ID, req.BatchID, req.SKUCode, req.MaterialCode, req.HSHeading,
		req.NormPerUnit.String(), req.UnitsOfSKU.String(),
		req.TotalQuantityNeeded.String(), req.QuantityAllocated.String(), int(req.Status))
	if err != nil {
		return fmt.Errorf("failed to insert requirement %s: %w", req.ID, err)
	}
	return nil
}

func (r *RequirementRepository) UpdateRequirement(ctx context.Context, req *entities.ConsumptionRequirement) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE consumption_requirements
		SET quantity_allocated = ?, status = ?
		WHERE batch_id = ? AND id = ?`,
		req.QuantityAllocated.String(), int(req.Status), req.BatchID, req.ID)
	if err != nil {
		return fmt.Errorf("failed to update requirement %s: %w", req.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result for requirement %s: %w", req.ID, err)
	}
	if affected == 0 {
		return fmt.Errorf("requirement %s in batch %s: %w", req.ID, req.BatchID, entities.ErrRequirementNotFound)
	}
	return nil
}

func (r *RequirementRepository) RequirementByID(ctx context.Context, batchID, reqID string) (*entities.ConsumptionRequirement, error) {
	var row requirementRow
	err := r.db.GetContext(ctx, &row, `
		SELECT * FROM consumption_requirements WHERE batch_id = ? AND id = ?`,
		batchID, reqID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("requirement %s in batch %s: %w", reqID, batchID, entities.ErrRequirementNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get requirement %s: %w", reqID, err)
	}
	return row.toEntity()
}

func (r *RequirementRepository) RequirementsForSKU(ctx context.Context, batchID, skuCode string) ([]*entities.ConsumptionRequirement, error) {
	var rows []requirementRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT * FROM consumption_requirements
		WHERE batch_id = ? AND sku_code = ?
		ORDER BY material_code ASC`,
		batchID, skuCode)
	if err != nil {
		return nil, fmt.Errorf("failed to list requirements for SKU %s: %w", skuCode, err)
	}
	return requirementRowsToEntities(rows)
}

func (r *RequirementRepository) RequirementsForBatch(ctx context.Context, batchID string) ([]*entities.ConsumptionRequirement, error) {
	var rows []requirementRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT * FROM consumption_requirements
		WHERE batch_id = ?
		ORDER BY sku_code ASC, material_code ASC`,
		batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list requirements for batch %s: %w", batchID, err)
	}
	return requirementRowsToEntities(rows)
}

func requirementRowsToEntities(rows []requirementRow) ([]*entities.ConsumptionRequirement, error) {
	reqs := make([]*entities.ConsumptionRequirement, 0, len(rows))
	for _, row := range rows {
		req, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}

// AllocationRepository persists the append-only allocation ledger in sqlite.
type AllocationRepository struct {
	db *sqlx.DB
}

// Verify interface compliance
var _ repositories.AllocationRepository = (*AllocationRepository)(nil)

func (r *AllocationRepository) AppendAllocation(ctx context.Context, alloc *entities.Allocation) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO allocations (
			id, batch_id, requirement_id, lot_id, allocated_quantity, unit_price,
			value, origin_country, has_origin_certificate, sequence_number, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		alloc.ID, alloc.BatchID, alloc.RequirementID, alloc.LotID,
		alloc.AllocatedQuantity.String(), alloc.UnitPrice.String(), alloc.Value.String(),
		alloc.OriginCountry, alloc.HasOriginCertificate, alloc.SequenceNumber,
		alloc.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to append allocation %s: %w", alloc.ID, err)
	}
	return nil
}

func (r *AllocationRepository) AllocationsForRequirement(ctx context.Context, batchID, requirementID string) ([]*entities.Allocation, error) {
	var rows []allocationRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT * FROM allocations
		WHERE batch_id = ? AND requirement_id = ?
		ORDER BY sequence_number ASC`,
		batchID, requirementID)
	if err != nil {
		return nil, fmt.Errorf("failed to list allocations for requirement %s: %w", requirementID, err)
	}
	return allocationRowsToEntities(rows)
}

func (r *AllocationRepository) AllocationsForBatch(ctx context.Context, batchID string) ([]*entities.Allocation, error) {
	var rows []allocationRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT * FROM allocations
		WHERE batch_id = ?
		ORDER BY requirement_id ASC, sequence_number ASC`,
		batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list allocations for batch %s: %w", batchID, err)
	}
	return allocationRowsToEntities(rows)
}

func (r *AllocationRepository) AllocationsForLot(ctx context.Context, batchID, lotID string) ([]*entities.Allocation, error) {
	var rows []allocationRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT * FROM allocations
		WHERE batch_id = ? AND lot_id = ?
		ORDER BY created_at ASC, sequence_number ASC`,
		batchID, lotID)
	if err != nil {
		return nil, fmt.Errorf("failed to list allocations for lot %s: %w", lotID, err)
	}
	return allocationRowsToEntities(rows)
}

func allocationRowsToEntities(rows []allocationRow) ([]*entities.Allocation, error) {
	allocs := make([]*entities.Allocation, 0, len(rows))
	for _, row := range rows {
		alloc, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		allocs = append(allocs, alloc)
	}
	return allocs, nil
}

// VerdictRepository persists SKU verdicts in sqlite.
type VerdictRepository struct {
	db *sqlx.DB
}

// Verify interface compliance
var _ repositories.VerdictRepository = (*VerdictRepository)(nil)

func (r *VerdictRepository) UpsertVerdict(ctx context.Context, verdict *entities.SkuVerdict) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sku_verdicts (
			batch_id, sku_code, criterion, fob_value, originating_value,
			non_originating_value, rvc_percentage, ctc_satisfied,
			final_origin_code, result, computed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (batch_id, sku_code) DO UPDATE SET
			criterion = excluded.criterion,
			fob_value = excluded.fob_value,
			originating_value = excluded.originating_value,
			non_originating_value = excluded.non_originating_value,
			rvc_percentage = excluded.rvc_percentage,
			ctc_satisfied = excluded.ctc_satisfied,
			final_origin_code = excluded.final_origin_code,
			result = excluded.result,
			computed_at = excluded.computed_at`,
		verdict.BatchID, verdict.SKUCode, int(verdict.Criterion),
		verdict.FOBValue.String(), verdict.OriginatingValue.String(),
		verdict.NonOriginatingValue.String(), verdict.RVCPercentage.String(),
		verdict.CTCSatisfied, verdict.FinalOriginCode, int(verdict.Result),
		verdict.ComputedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to upsert verdict for SKU %s: %w", verdict.SKUCode, err)
	}
	return nil
}

func (r *VerdictRepository) VerdictForSKU(ctx context.Context, batchID, skuCode string) (*entities.SkuVerdict, error) {
	var row verdictRow
	err := r.db.GetContext(ctx, &row, `
		SELECT * FROM sku_verdicts WHERE batch_id = ? AND sku_code = ?`,
		batchID, skuCode)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("verdict for SKU %s in batch %s: %w", skuCode, batchID, entities.ErrVerdictNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get verdict for SKU %s: %w", skuCode, err)
	}
	return row.toEntity()
}

func (r *VerdictRepository) VerdictsForBatch(ctx context.Context, batchID string) ([]*entities.SkuVerdict, error) {
	var rows []verdictRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT * FROM sku_verdicts WHERE batch_id = ? ORDER BY sku_code ASC`,
		batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list verdicts for batch %s: %w", batchID, err)
	}

	verdicts := make([]*entities.SkuVerdict, 0, len(rows))
	for _, row := range rows {
		verdict, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		verdicts = append(verdicts, verdict)
	}
	return verdicts, nil
}

// BOMRepository persists bill-of-materials lines in sqlite.
type BOMRepository struct {
	db *sqlx.DB
}

// Verify interface compliance
var _ repositories.BOMRepository = (*BOMRepository)(nil)

func (r *BOMRepository) LoadBOMLines(ctx context.Context, lines []*entities.BOMLine) error {
	for _, line := range lines {
		_, err := r.db.ExecContext(ctx, `
			INSERT OR REPLACE INTO bom_lines (sku_code, material_code, hs_heading, norm_per_unit)
			VALUES (?, ?, ?, ?)`,
			line.SKUCode, line.MaterialCode, line.HSHeading, line.NormPerUnit.String())
		if err != nil {
			return fmt.Errorf("failed to insert BOM line %s/%s: %w", line.SKUCode, line.MaterialCode, err)
		}
	}
	return nil
}

func (r *BOMRepository) BOMLines(ctx context.Context, skuCode string) ([]*entities.BOMLine, error) {
	var rows []bomLineRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT * FROM bom_lines WHERE sku_code = ? ORDER BY material_code ASC`,
		skuCode)
	if err != nil {
		return nil, fmt.Errorf("failed to list BOM lines for SKU %s: %w", skuCode, err)
	}

	lines := make([]*entities.BOMLine, 0, len(rows))
	for _, row := range rows {
		line, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// DeclarationRepository persists SKU declarations in sqlite.
type DeclarationRepository struct {
	db *sqlx.DB
}

// Verify interface compliance
var _ repositories.DeclarationRepository = (*DeclarationRepository)(nil)

func (r *DeclarationRepository) LoadDeclarations(ctx context.Context, decls []*entities.SKUDeclaration) error {
	for _, decl := range decls {
		_, err := r.db.ExecContext(ctx, `
			INSERT OR REPLACE INTO sku_declarations (
				batch_id, sku_code, quantity, fob_value, criterion,
				rvc_threshold, hs_heading, final_origin_code
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			decl.BatchID, decl.SKUCode, decl.Quantity.String(), decl.FOBValue.String(),
			int(decl.Criterion), decl.RVCThreshold.String(), decl.HSHeading, decl.FinalOriginCode)
		if err != nil {
			return fmt.Errorf("failed to insert declaration for SKU %s: %w", decl.SKUCode, err)
		}
	}
	return nil
}

func (r *DeclarationRepository) DeclarationsForBatch(ctx context.Context, batchID string) ([]*entities.SKUDeclaration, error) {
	var rows []declarationRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT * FROM sku_declarations WHERE batch_id = ? ORDER BY sku_code ASC`,
		batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list declarations for batch %s: %w", batchID, err)
	}

	decls := make([]*entities.SKUDeclaration, 0, len(rows))
	for _, row := range rows {
		decl, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		decls = append(decls, decl)
	}
	return decls, nil
}

func (r *DeclarationRepository) DeclarationForSKU(ctx context.Context, batchID, skuCode string) (*entities.SKUDeclaration, error) {
	var row declarationRow
	err := r.db.GetContext(ctx, &row, `
		SELECT * FROM sku_declarations WHERE batch_id = ? AND sku_code = ?`,
		batchID, skuCode)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("declaration for SKU %s in batch %s not found", skuCode, batchID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get declaration for SKU %s: %w", skuCode, err)
	}
	return row.toEntity()
}
