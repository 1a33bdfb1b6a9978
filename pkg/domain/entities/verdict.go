package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// VerdictResult represents the outcome of an origin determination
type VerdictResult int

const (
	VerdictPending VerdictResult = iota
	VerdictPass
	VerdictFail
)

// String method for VerdictResult enum
func (r VerdictResult) String() string {
	switch r {
	case VerdictPending:
		return "Pending"
	case VerdictPass:
		return "Pass"
	case VerdictFail:
		return "Fail"
	default:
		return "Unknown"
	}
}

// SkuVerdict is the aggregated origin determination for one SKU. It is
// recomputed (upserted) once all of the SKU's requirements are terminal.
type SkuVerdict struct {
	BatchID             string
	SKUCode             string
	Criterion           OriginCriterion
	FOBValue            decimal.Decimal
	OriginatingValue    decimal.Decimal
	NonOriginatingValue decimal.Decimal
	RVCPercentage       decimal.Decimal
	CTCSatisfied        bool
	FinalOriginCode     string
	Result              VerdictResult
	ComputedAt          time.Time
}
