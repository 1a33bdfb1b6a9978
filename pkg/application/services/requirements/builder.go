package requirements

import (
	"sort"

	"github.com/google/uuid"

	"github.com/tvqhuy/co-engine/pkg/domain/entities"
)

// Builder expands a SKU's bill of materials against its declared quantity
// into per-material consumption requirements.
//
// Build is pure apart from identifier generation: re-running it with the
// same declaration and BOM produces requirements with identical computed
// totals. Callers own deduplication; the builder never checks for
// previously submitted requirements.
type Builder struct{}

// NewBuilder creates a requirement builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Build produces one Pending requirement per BOM line. The output is
// ordered by material code ascending so that allocation order is
// deterministic across runs.
//
// Returns a ValidationError if the declared quantity or any norm is
// non-positive, or if a BOM line belongs to a different SKU.
func (b *Builder) Build(
	decl *entities.SKUDeclaration,
	bomLines []*entities.BOMLine,
) ([]*entities.ConsumptionRequirement, error) {
	if decl == nil {
		return nil, entities.NewValidationError("sku", "declaration is missing")
	}
	if decl.Quantity.Sign() <= 0 {
		return nil, entities.NewValidationError("sku.quantity", "must be positive, got "+decl.Quantity.String())
	}

	sorted := make([]*entities.BOMLine, len(bomLines))
	copy(sorted, bomLines)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].MaterialCode < sorted[j].MaterialCode
	})

	reqs := make([]*entities.ConsumptionRequirement, 0, len(sorted))
	for _, line := range sorted {
		if line.SKUCode != decl.SKUCode {
			return nil, entities.NewValidationError(
				"bom.skuCode",
				"BOM line for "+line.SKUCode+" does not belong to SKU "+decl.SKUCode,
			)
		}

		req, err := entities.NewConsumptionRequirement(
			uuid.NewString(),
			decl.BatchID,
			decl.SKUCode,
			line.MaterialCode,
			line.HSHeading,
			line.NormPerUnit,
			decl.Quantity,
		)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}

	return reqs, nil
}
