package sqlite

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tvqhuy/co-engine/pkg/domain/entities"
)

// Row types mirror the table layout; decimals travel as strings and
// timestamps as RFC 3339 text.

type lotRow struct {
	ID                   string `db:"id"`
	BatchID              string `db:"batch_id"`
	MaterialCode         string `db:"material_code"`
	IntakeDate           string `db:"intake_date"`
	IntakeSeq            int    `db:"intake_seq"`
	UnitPrice            string `db:"unit_price"`
	OriginCountry        string `db:"origin_country"`
	HasOriginCertificate bool   `db:"has_origin_certificate"`
	QuantityImported     string `db:"quantity_imported"`
	QuantityAvailable    string `db:"quantity_available"`
	Status               int    `db:"status"`
}

func (r lotRow) toEntity() (*entities.MaterialLot, error) {
	intakeDate, err := time.Parse(time.RFC3339, r.IntakeDate)
	if err != nil {
		return nil, fmt.Errorf("lot %s has malformed intake date %q: %w", r.ID, r.IntakeDate, err)
	}
	unitPrice, err := decimal.NewFromString(r.UnitPrice)
	if err != nil {
		return nil, fmt.Errorf("lot %s has malformed unit price %q: %w", r.ID, r.UnitPrice, err)
	}
	imported, err := decimal.NewFromString(r.QuantityImported)
	if err != nil {
		return nil, fmt.Errorf("lot %s has malformed imported quantity %q: %w", r.ID, r.QuantityImported, err)
	}
	available, err := decimal.NewFromString(r.QuantityAvailable)
	if err != nil {
		return nil, fmt.Errorf("lot %s has malformed available quantity %q: %w", r.ID, r.QuantityAvailable, err)
	}

	return &entities.MaterialLot{
		ID:                   r.ID,
		BatchID:              r.BatchID,
		MaterialCode:         r.MaterialCode,
		IntakeDate:           intakeDate,
		IntakeSeq:            r.IntakeSeq,
		UnitPrice:            unitPrice,
		OriginCountry:        r.OriginCountry,
		HasOriginCertificate: r.HasOriginCertificate,
		QuantityImported:     imported,
		QuantityAvailable:    available,
		Status:               entities.LotStatus(r.Status),
	}, nil
}

type requirementRow struct {
	ID                  string `db:"id"`
	BatchID             string `db:"batch_id"`
	SKUCode             string `db:"sku_code"`
	MaterialCode        string `db:"material_code"`
	HSHeading           string `db:"hs_heading"`
	NormPerUnit         string `db:"norm_per_unit"`
	UnitsOfSKU          string `db:"units_of_sku"`
	TotalQuantityNeeded string `db:"total_quantity_needed"`
	QuantityAllocated   string `db:"quantity_allocated"`
	Status              int    `db:"status"`
}

func (r requirementRow) toEntity() (*entities.ConsumptionRequirement, error) {
	norm, err := decimal.NewFromString(r.NormPerUnit)
	if err != nil {
		return nil, fmt.Errorf("requirement %s has malformed norm %q: %w", r.ID, r.NormPerUnit, err)
	}
	units, err := decimal.NewFromString(r.UnitsOfSKU)
	if err != nil {
		return nil, fmt.Errorf("requirement %s has malformed units %q: %w", r.ID, r.UnitsOfSKU, err)
	}
	needed, err := decimal.NewFromString(r.TotalQuantityNeeded)
	if err != nil {
		return nil, fmt.Errorf("requirement %s has malformed total %q: %w", r.ID, r.TotalQuantityNeeded, err)
	}
	allocated, err := decimal.NewFromString(r.QuantityAllocated)
	if err != nil {
		return nil, fmt.Errorf("requirement %s has malformed allocated quantity %q: %w", r.ID, r.QuantityAllocated, err)
	}

	return &entities.ConsumptionRequirement{
		ID:                  r.ID,
		BatchID:             r.BatchID,
		SKUCode:             r.SKUCode,
		MaterialCode:        r.MaterialCode,
		HSHeading:           r.HSHeading,
		NormPerUnit:         norm,
		UnitsOfSKU:          units,
		TotalQuantityNeeded: needed,
		QuantityAllocated:   allocated,
		Status:              entities.RequirementStatus(r.Status),
	}, nil
}

type allocationRow struct {
	ID                   string `db:"id"`
	BatchID              string `db:"batch_id"`
	RequirementID        string `db:"requirement_id"`
	LotID                string `db:"lot_id"`
	AllocatedQuantity    string `db:"allocated_quantity"`
	UnitPrice            string `db:"unit_price"`
	Value                string `db:"value"`
	OriginCountry        string `db:"origin_country"`
	HasOriginCertificate bool   `db:"has_origin_certificate"`
	SequenceNumber       int    `db:"sequence_number"`
	CreatedAt            string `db:"created_at"`
}

func (r allocationRow) toEntity() (*entities.Allocation, error) {
	quantity, err := decimal.NewFromString(r.AllocatedQuantity)
	if err != nil {
		return nil, fmt.Errorf("allocation %s has malformed quantity %q: %w", r.ID, r.AllocatedQuantity, err)
	}
	unitPrice, err := decimal.NewFromString(r.UnitPrice)
	if err != nil {
		return nil, fmt.Errorf("allocation %s has malformed unit price %q: %w", r.ID, r.UnitPrice, err)
	}
	value, err := decimal.NewFromString(r.Value)
	if err != nil {
		return nil, fmt.Errorf("allocation %s has malformed value %q: %w", r.ID, r.Value, err)
	}
	createdAt, err := time.Parse(time.RFC3339, r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("allocation %s has malformed timestamp %q: %w", r.ID, r.CreatedAt, err)
	}

	return &entities.Allocation{
		ID:                   r.ID,
		BatchID:              r.BatchID,
		RequirementID:        r.RequirementID,
		LotID:                r.LotID,
		AllocatedQuantity:    quantity,
		UnitPrice:            unitPrice,
		Value:                value,
		OriginCountry:        r.OriginCountry,
		HasOriginCertificate: r.HasOriginCertificate,
		SequenceNumber:       r.SequenceNumber,
		CreatedAt:            createdAt,
	}, nil
}

type verdictRow struct {
	BatchID             string `db:"batch_id"`
	SKUCode             string `db:"sku_code"`
	Criterion           int    `db:"criterion"`
	FOBValue            string `db:"fob_value"`
	OriginatingValue    string `db:"originating_value"`
	NonOriginatingValue string `db:"non_originating_value"`
	RVCPercentage       string `db:"rvc_percentage"`
	CTCSatisfied        bool   `db:"ctc_satisfied"`
	FinalOriginCode     string `db:"final_origin_code"`
	Result              int    `db:"result"`
	ComputedAt          string `db:"computed_at"`
}

func (r verdictRow) toEntity() (*entities.SkuVerdict, error) {
	fob, err := decimal.NewFromString(r.FOBValue)
	if err != nil {
		return nil, fmt.Errorf("verdict for %s has malformed FOB value %q: %w", r.SKUCode, r.FOBValue, err)
	}
	originating, err := decimal.NewFromString(r.OriginatingValue)
	if err != nil {
		return nil, fmt.Errorf("verdict for %s has malformed originating value %q: %w", r.SKUCode, r.OriginatingValue, err)
	}
	nonOriginating, err := decimal.NewFromString(r.NonOriginatingValue)
	if err != nil {
		return nil, fmt.Errorf("verdict for %s has malformed non-originating value %q: %w", r.SKUCode, r.NonOriginatingValue, err)
	}
	rvc, err := decimal.NewFromString(r.RVCPercentage)
	if err != nil {
		return nil, fmt.Errorf("verdict for %s has malformed RVC percentage %q: %w", r.SKUCode, r.RVCPercentage, err)
	}
	computedAt, err := time.Parse(time.RFC3339, r.ComputedAt)
	if err != nil {
		return nil, fmt.Errorf("verdict for %s has malformed timestamp %q: %w", r.SKUCode, r.ComputedAt, err)
	}

	return &entities.SkuVerdict{
		BatchID:             r.BatchID,
		SKUCode:             r.SKUCode,
		Criterion:           entities.OriginCriterion(r.Criterion),
		FOBValue:            fob,
		OriginatingValue:    originating,
		NonOriginatingValue: nonOriginating,
		RVCPercentage:       rvc,
		CTCSatisfied:        r.CTCSatisfied,
		FinalOriginCode:     r.FinalOriginCode,
		Result:              entities.VerdictResult(r.Result),
		ComputedAt:          computedAt,
	}, nil
}

type bomLineRow struct {
	SKUCode      string `db:"sku_code"`
	MaterialCode string `db:"material_code"`
	HSHeading    string `db:"hs_heading"`
	NormPerUnit  string `db:"norm_per_unit"`
}

func (r bomLineRow) toEntity() (*entities.BOMLine, error) {
	norm, err := decimal.NewFromString(r.NormPerUnit)
	if err != nil {
		return nil, fmt.Errorf("BOM line %s/%s has malformed norm %q: %w", r.SKUCode, r.MaterialCode, r.NormPerUnit, err)
	}

	return &entities.BOMLine{
		SKUCode:      r.SKUCode,
		MaterialCode: r.MaterialCode,
		HSHeading:    r.HSHeading,
		NormPerUnit:  norm,
	}, nil
}

type declarationRow struct {
	BatchID         string `db:"batch_id"`
	SKUCode         string `db:"sku_code"`
	Quantity        string `db:"quantity"`
	FOBValue        string `db:"fob_value"`
	Criterion       int    `db:"criterion"`
	RVCThreshold    string `db:"rvc_threshold"`
	HSHeading       string `db:"hs_heading"`
	FinalOriginCode string `db:"final_origin_code"`
}

func (r declarationRow) toEntity() (*entities.SKUDeclaration, error) {
	quantity, err := decimal.NewFromString(r.Quantity)
	if err != nil {
		return nil, fmt.Errorf("declaration %s has malformed quantity %q: %w", r.SKUCode, r.Quantity, err)
	}
	fob, err := decimal.NewFromString(r.FOBValue)
	if err != nil {
		return nil, fmt.Errorf("declaration %s has malformed FOB value %q: %w", r.SKUCode, r.FOBValue, err)
	}
	threshold, err := decimal.NewFromString(r.RVCThreshold)
	if err != nil {
		return nil, fmt.Errorf("declaration %s has malformed RVC threshold %q: %w", r.SKUCode, r.RVCThreshold, err)
	}

	return &entities.SKUDeclaration{
		BatchID:         r.BatchID,
		SKUCode:         r.SKUCode,
		Quantity:        quantity,
		FOBValue:        fob,
		Criterion:       entities.OriginCriterion(r.Criterion),
		RVCThreshold:    threshold,
		HSHeading:       r.HSHeading,
		FinalOriginCode: r.FinalOriginCode,
	}, nil
}
