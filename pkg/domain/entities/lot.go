package entities

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// LotStatus represents the lifecycle state of a material lot
type LotStatus int

const (
	// LotAvailable lots participate in FIFO allocation.
	LotAvailable LotStatus = iota
	// LotLocked lots are excluded from allocation while reserved for an
	// in-flight pass or held by an operator.
	LotLocked
	// LotDepleted lots have zero available quantity. Lots are never
	// deleted, only depleted.
	LotDepleted
)

// String method for LotStatus enum
func (s LotStatus) String() string {
	switch s {
	case LotAvailable:
		return "Available"
	case LotLocked:
		return "Locked"
	case LotDepleted:
		return "Depleted"
	default:
		return "Unknown"
	}
}

// MaterialLot represents one dated, priced intake of a raw material.
// QuantityAvailable is mutated only through lot reservation; the invariant
// 0 <= QuantityAvailable <= QuantityImported holds at all times.
type MaterialLot struct {
	ID                   string
	BatchID              string
	MaterialCode         string
	IntakeDate           time.Time
	IntakeSeq            int // assigned by the lot store on save, breaks same-day FIFO ties
	UnitPrice            decimal.Decimal
	OriginCountry        string
	HasOriginCertificate bool
	QuantityImported     decimal.Decimal
	QuantityAvailable    decimal.Decimal
	Status               LotStatus
}

// NewMaterialLot creates a validated MaterialLot with its full imported
// quantity available. The intake sequence is assigned by the lot store
// when the lot is saved.
func NewMaterialLot(
	id, batchID, materialCode string,
	intakeDate time.Time,
	unitPrice decimal.Decimal,
	originCountry string,
	hasOriginCertificate bool,
	quantityImported decimal.Decimal,
) (*MaterialLot, error) {
	if id == "" {
		return nil, fmt.Errorf("lot id cannot be empty")
	}
	if batchID == "" {
		return nil, fmt.Errorf("batch id cannot be empty")
	}
	if materialCode == "" {
		return nil, fmt.Errorf("material code cannot be empty")
	}
	if intakeDate.IsZero() {
		return nil, fmt.Errorf("intake date cannot be zero")
	}
	if unitPrice.IsNegative() {
		return nil, fmt.Errorf("unit price cannot be negative, got %s", unitPrice)
	}
	if quantityImported.IsNegative() {
		return nil, fmt.Errorf("imported quantity cannot be negative, got %s", quantityImported)
	}

	status := LotAvailable
	if quantityImported.IsZero() {
		status = LotDepleted
	}

	return &MaterialLot{
		ID:                   id,
		BatchID:              batchID,
		MaterialCode:         materialCode,
		IntakeDate:           intakeDate,
		UnitPrice:            unitPrice,
		OriginCountry:        originCountry,
		HasOriginCertificate: hasOriginCertificate,
		QuantityImported:     quantityImported,
		QuantityAvailable:    quantityImported,
		Status:               status,
	}, nil
}

// QuantityConsumed returns the quantity drawn from this lot so far.
func (l *MaterialLot) QuantityConsumed() decimal.Decimal {
	return l.QuantityImported.Sub(l.QuantityAvailable)
}

// Before reports whether l precedes other in FIFO order: earlier intake
// date first, same-day ties broken by intake sequence.
func (l *MaterialLot) Before(other *MaterialLot) bool {
	if l.IntakeDate.Equal(other.IntakeDate) {
		return l.IntakeSeq < other.IntakeSeq
	}
	return l.IntakeDate.Before(other.IntakeDate)
}
