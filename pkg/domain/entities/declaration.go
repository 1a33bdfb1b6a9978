package entities

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// OriginCriterion selects how a SKU's origin verdict is determined
type OriginCriterion int

const (
	// CriterionRVC passes when regional value content meets the SKU's
	// configured threshold.
	CriterionRVC OriginCriterion = iota
	// CriterionCTC passes when no non-originating input shares the
	// finished product's tariff heading.
	CriterionCTC
)

// String method for OriginCriterion enum
func (c OriginCriterion) String() string {
	switch c {
	case CriterionRVC:
		return "RVC"
	case CriterionCTC:
		return "CTC"
	default:
		return "Unknown"
	}
}

// ParseOriginCriterion parses a criterion name as found in declarations
// and configuration files.
func ParseOriginCriterion(s string) (OriginCriterion, error) {
	switch s {
	case "RVC", "rvc":
		return CriterionRVC, nil
	case "CTC", "ctc":
		return CriterionCTC, nil
	default:
		return CriterionRVC, fmt.Errorf("unknown origin criterion %q", s)
	}
}

// BOMLine is one line of a product's bill of materials: the norm of one
// material consumed per unit of the SKU.
type BOMLine struct {
	SKUCode      string
	MaterialCode string
	HSHeading    string // tariff heading of the material, used by CTC
	NormPerUnit  decimal.Decimal
}

// NewBOMLine creates a validated BOMLine.
func NewBOMLine(skuCode, materialCode, hsHeading string, normPerUnit decimal.Decimal) (*BOMLine, error) {
	if skuCode == "" {
		return nil, NewValidationError("bom.skuCode", "cannot be empty")
	}
	if materialCode == "" {
		return nil, NewValidationError("bom.materialCode", "cannot be empty")
	}
	if normPerUnit.Sign() <= 0 {
		return nil, NewValidationError("bom.normPerUnit", "must be positive, got "+normPerUnit.String())
	}

	return &BOMLine{
		SKUCode:      skuCode,
		MaterialCode: materialCode,
		HSHeading:    hsHeading,
		NormPerUnit:  normPerUnit,
	}, nil
}

// SKUDeclaration is the declared export data for one SKU in a batch:
// output quantity, FOB value and the origin criterion configuration.
type SKUDeclaration struct {
	BatchID         string
	SKUCode         string
	Quantity        decimal.Decimal
	FOBValue        decimal.Decimal
	Criterion       OriginCriterion
	RVCThreshold    decimal.Decimal // percentage, e.g. 40
	HSHeading       string          // tariff heading of the finished product
	FinalOriginCode string          // origin code claimed on a passing certificate
}

// NewSKUDeclaration creates a validated SKUDeclaration.
func NewSKUDeclaration(
	batchID, skuCode string,
	quantity, fobValue decimal.Decimal,
	criterion OriginCriterion,
	rvcThreshold decimal.Decimal,
	hsHeading, finalOriginCode string,
) (*SKUDeclaration, error) {
	if batchID == "" {
		return nil, NewValidationError("sku.batchId", "cannot be empty")
	}
	if skuCode == "" {
		return nil, NewValidationError("sku.skuCode", "cannot be empty")
	}
	if quantity.Sign() <= 0 {
		return nil, NewValidationError("sku.quantity", "must be positive, got "+quantity.String())
	}
	if fobValue.IsNegative() {
		return nil, NewValidationError("sku.fobValue", "cannot be negative, got "+fobValue.String())
	}
	if criterion == CriterionRVC && rvcThreshold.Sign() <= 0 {
		return nil, NewValidationError("sku.rvcThreshold", "must be positive for RVC criterion, got "+rvcThreshold.String())
	}

	return &SKUDeclaration{
		BatchID:         batchID,
		SKUCode:         skuCode,
		Quantity:        quantity,
		FOBValue:        fobValue,
		Criterion:       criterion,
		RVCThreshold:    rvcThreshold,
		HSHeading:       hsHeading,
		FinalOriginCode: finalOriginCode,
	}, nil
}
