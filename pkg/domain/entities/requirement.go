package entities

import (
	"github.com/shopspring/decimal"
)

// RequirementStatus represents the lifecycle state of a consumption requirement
type RequirementStatus int

const (
	RequirementPending RequirementStatus = iota
	RequirementAllocating
	RequirementCompleted
	RequirementInsufficientStock
)

// String method for RequirementStatus enum
func (s RequirementStatus) String() string {
	switch s {
	case RequirementPending:
		return "Pending"
	case RequirementAllocating:
		return "Allocating"
	case RequirementCompleted:
		return "Completed"
	case RequirementInsufficientStock:
		return "InsufficientStock"
	default:
		return "Unknown"
	}
}

// Terminal reports whether the status admits no further allocation.
func (s RequirementStatus) Terminal() bool {
	return s == RequirementCompleted || s == RequirementInsufficientStock
}

// ConsumptionRequirement is the total quantity of one material needed to
// produce the declared quantity of one SKU. Created per (SKU, BOM line),
// mutated only by the FIFO allocator, terminal once Completed or
// InsufficientStock.
type ConsumptionRequirement struct {
	ID                  string
	BatchID             string
	SKUCode             string
	MaterialCode        string
	HSHeading           string // material tariff heading, carried from the BOM line
	NormPerUnit         decimal.Decimal
	UnitsOfSKU          decimal.Decimal
	TotalQuantityNeeded decimal.Decimal
	QuantityAllocated   decimal.Decimal
	Status              RequirementStatus
}

// NewConsumptionRequirement creates a validated requirement in Pending state.
// The total quantity needed is computed as normPerUnit * unitsOfSKU.
func NewConsumptionRequirement(
	id, batchID, skuCode, materialCode, hsHeading string,
	normPerUnit, unitsOfSKU decimal.Decimal,
) (*ConsumptionRequirement, error) {
	if id == "" {
		return nil, NewValidationError("requirement.id", "cannot be empty")
	}
	if batchID == "" {
		return nil, NewValidationError("requirement.batchId", "cannot be empty")
	}
	if skuCode == "" {
		return nil, NewValidationError("requirement.skuCode", "cannot be empty")
	}
	if materialCode == "" {
		return nil, NewValidationError("requirement.materialCode", "cannot be empty")
	}
	if normPerUnit.Sign() <= 0 {
		return nil, NewValidationError("requirement.normPerUnit", "must be positive, got "+normPerUnit.String())
	}
	if unitsOfSKU.Sign() <= 0 {
		return nil, NewValidationError("requirement.unitsOfSku", "must be positive, got "+unitsOfSKU.String())
	}

	return &ConsumptionRequirement{
		ID:                  id,
		BatchID:             batchID,
		SKUCode:             skuCode,
		MaterialCode:        materialCode,
		HSHeading:           hsHeading,
		NormPerUnit:         normPerUnit,
		UnitsOfSKU:          unitsOfSKU,
		TotalQuantityNeeded: normPerUnit.Mul(unitsOfSKU),
		QuantityAllocated:   decimal.Zero,
		Status:              RequirementPending,
	}, nil
}

// QuantityRemaining returns the quantity still to be allocated.
func (r *ConsumptionRequirement) QuantityRemaining() decimal.Decimal {
	return r.TotalQuantityNeeded.Sub(r.QuantityAllocated)
}

// Shortfall returns the unfilled quantity for an insufficient requirement,
// zero otherwise.
func (r *ConsumptionRequirement) Shortfall() decimal.Decimal {
	if r.Status != RequirementInsufficientStock {
		return decimal.Zero
	}
	return r.QuantityRemaining()
}
