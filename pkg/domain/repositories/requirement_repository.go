package repositories

import (
	"context"

	"github.com/tvqhuy/co-engine/pkg/domain/entities"
)

// RequirementRepository provides access to consumption requirements
// scoped by batch.
type RequirementRepository interface {
	SaveRequirement(ctx context.Context, req *entities.ConsumptionRequirement) error

	// UpdateRequirement persists status and allocated-quantity changes
	// made by the allocator.
	UpdateRequirement(ctx context.Context, req *entities.ConsumptionRequirement) error

	RequirementByID(ctx context.Context, batchID, reqID string) (*entities.ConsumptionRequirement, error)

	// RequirementsForSKU returns a SKU's requirements ordered by
	// material code ascending.
	RequirementsForSKU(ctx context.Context, batchID, skuCode string) ([]*entities.ConsumptionRequirement, error)

	// RequirementsForBatch returns all requirements in the batch ordered
	// by SKU code then material code ascending.
	RequirementsForBatch(ctx context.Context, batchID string) ([]*entities.ConsumptionRequirement, error)
}
