package entities

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Allocation is an immutable record of quantity drawn from one lot to
// satisfy one requirement. Allocations form the audit trail behind a
// verdict; they are never mutated or deleted after creation.
type Allocation struct {
	ID                   string
	BatchID              string
	RequirementID        string
	LotID                string
	AllocatedQuantity    decimal.Decimal
	UnitPrice            decimal.Decimal
	Value                decimal.Decimal // AllocatedQuantity * UnitPrice, stored, never recomputed
	OriginCountry        string
	HasOriginCertificate bool
	SequenceNumber       int // FIFO order within the requirement, strictly increasing
	CreatedAt            time.Time
}

// NewAllocation creates a validated Allocation. The value is computed once
// here from the exact quantity and unit price.
func NewAllocation(
	id, batchID, requirementID, lotID string,
	allocatedQuantity, unitPrice decimal.Decimal,
	originCountry string,
	hasOriginCertificate bool,
	sequenceNumber int,
	createdAt time.Time,
) (*Allocation, error) {
	if id == "" {
		return nil, fmt.Errorf("allocation id cannot be empty")
	}
	if requirementID == "" {
		return nil, fmt.Errorf("requirement id cannot be empty")
	}
	if lotID == "" {
		return nil, fmt.Errorf("lot id cannot be empty")
	}
	if allocatedQuantity.Sign() <= 0 {
		return nil, fmt.Errorf("allocated quantity must be positive, got %s", allocatedQuantity)
	}
	if unitPrice.IsNegative() {
		return nil, fmt.Errorf("unit price cannot be negative, got %s", unitPrice)
	}
	if sequenceNumber <= 0 {
		return nil, fmt.Errorf("sequence number must be positive, got %d", sequenceNumber)
	}

	return &Allocation{
		ID:                   id,
		BatchID:              batchID,
		RequirementID:        requirementID,
		LotID:                lotID,
		AllocatedQuantity:    allocatedQuantity,
		UnitPrice:            unitPrice,
		Value:                allocatedQuantity.Mul(unitPrice),
		OriginCountry:        originCountry,
		HasOriginCertificate: hasOriginCertificate,
		SequenceNumber:       sequenceNumber,
		CreatedAt:            createdAt,
	}, nil
}
