package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/tvqhuy/co-engine/pkg/domain/entities"
	"github.com/tvqhuy/co-engine/pkg/domain/repositories"
)

// VerdictRepository provides in-memory verdict storage, one verdict per
// SKU per batch.
type VerdictRepository struct {
	mu       sync.RWMutex
	verdicts map[string]*entities.SkuVerdict // key: batchID|skuCode
}

// NewVerdictRepository creates an empty in-memory verdict repository.
func NewVerdictRepository() *VerdictRepository {
	return &VerdictRepository{
		verdicts: make(map[string]*entities.SkuVerdict),
	}
}

// Verify interface compliance
var _ repositories.VerdictRepository = (*VerdictRepository)(nil)

// UpsertVerdict stores or overwrites the verdict for a SKU.
func (r *VerdictRepository) UpsertVerdict(ctx context.Context, verdict *entities.SkuVerdict) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *verdict
	r.verdicts[verdict.BatchID+"|"+verdict.SKUCode] = &stored
	return nil
}

// VerdictForSKU returns a copy of one SKU's verdict.
func (r *VerdictRepository) VerdictForSKU(ctx context.Context, batchID, skuCode string) (*entities.SkuVerdict, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	verdict, exists := r.verdicts[batchID+"|"+skuCode]
	if !exists {
		return nil, fmt.Errorf("verdict for SKU %s in batch %s: %w", skuCode, batchID, entities.ErrVerdictNotFound)
	}

	copied := *verdict
	return &copied, nil
}

// VerdictsForBatch returns all verdicts ordered by SKU code.
func (r *VerdictRepository) VerdictsForBatch(ctx context.Context, batchID string) ([]*entities.SkuVerdict, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var verdicts []*entities.SkuVerdict
	for _, verdict := range r.verdicts {
		if verdict.BatchID == batchID {
			copied := *verdict
			verdicts = append(verdicts, &copied)
		}
	}

	sort.Slice(verdicts, func(i, j int) bool {
		return verdicts[i].SKUCode < verdicts[j].SKUCode
	})

	return verdicts, nil
}
