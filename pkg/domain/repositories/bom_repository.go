package repositories

import (
	"context"

	"github.com/tvqhuy/co-engine/pkg/domain/entities"
)

// BOMRepository provides access to bill-of-materials data.
type BOMRepository interface {
	// BOMLines returns the BOM lines for a SKU ordered by material code
	// ascending.
	BOMLines(ctx context.Context, skuCode string) ([]*entities.BOMLine, error)

	LoadBOMLines(ctx context.Context, lines []*entities.BOMLine) error
}

// DeclarationRepository provides access to the SKU declarations of an
// export batch.
type DeclarationRepository interface {
	// DeclarationsForBatch returns declarations ordered by SKU code
	// ascending.
	DeclarationsForBatch(ctx context.Context, batchID string) ([]*entities.SKUDeclaration, error)

	DeclarationForSKU(ctx context.Context, batchID, skuCode string) (*entities.SKUDeclaration, error)

	LoadDeclarations(ctx context.Context, decls []*entities.SKUDeclaration) error
}
