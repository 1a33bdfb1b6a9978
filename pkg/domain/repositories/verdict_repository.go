package repositories

import (
	"context"

	"github.com/tvqhuy/co-engine/pkg/domain/entities"
)

// VerdictRepository provides access to SKU verdicts scoped by batch.
// One verdict per SKU per batch, overwritten on each aggregation run.
type VerdictRepository interface {
	UpsertVerdict(ctx context.Context, verdict *entities.SkuVerdict) error

	VerdictForSKU(ctx context.Context, batchID, skuCode string) (*entities.SkuVerdict, error)

	// VerdictsForBatch returns all verdicts ordered by SKU code ascending.
	VerdictsForBatch(ctx context.Context, batchID string) ([]*entities.SkuVerdict, error)
}
