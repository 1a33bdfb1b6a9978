package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/tvqhuy/co-engine/pkg/domain/entities"
	"github.com/tvqhuy/co-engine/pkg/domain/repositories"
)

// RequirementRepository provides in-memory requirement storage.
type RequirementRepository struct {
	mu           sync.RWMutex
	requirements map[string]*entities.ConsumptionRequirement // key: batchID|reqID
}

// NewRequirementRepository creates an empty in-memory requirement repository.
func NewRequirementRepository() *RequirementRepository {
	return &RequirementRepository{
		requirements: make(map[string]*entities.ConsumptionRequirement),
	}
}

// Verify interface compliance
var _ repositories.RequirementRepository = (*RequirementRepository)(nil)

func reqKey(batchID, reqID string) string {
	return batchID + "|" + reqID
}

// SaveRequirement stores a new requirement.
func (r *RequirementRepository) SaveRequirement(ctx context.Context, req *entities.ConsumptionRequirement) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := reqKey(req.BatchID, req.ID)
	if _, exists := r.requirements[key]; exists {
		return fmt.Errorf("requirement %s already exists in batch %s", req.ID, req.BatchID)
	}

	stored := *req
	r.requirements[key] = &stored
	return nil
}

// UpdateRequirement persists allocator changes to an existing requirement.
func (r *RequirementRepository) UpdateRequirement(ctx context.Context, req *entities.ConsumptionRequirement) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := reqKey(req.BatchID, req.ID)
	if _, exists := r.requirements[key]; !exists {
		return fmt.Errorf("requirement %s in batch %s: %w", req.ID, req.BatchID, entities.ErrRequirementNotFound)
	}

	stored := *req
	r.requirements[key] = &stored
	return nil
}

// RequirementByID returns a copy of a single requirement.
func (r *RequirementRepository) RequirementByID(ctx context.Context, batchID, reqID string) (*entities.ConsumptionRequirement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	req, exists := r.requirements[reqKey(batchID, reqID)]
	if !exists {
		return nil, fmt.Errorf("requirement %s in batch %s: %w", reqID, batchID, entities.ErrRequirementNotFound)
	}

	copied := *req
	return &copied, nil
}

// RequirementsForSKU returns a SKU's requirements ordered by material code.
func (r *RequirementRepository) RequirementsForSKU(ctx context.Context, batchID, skuCode string) ([]*entities.ConsumptionRequirement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var reqs []*entities.ConsumptionRequirement
	for _, req := range r.requirements {
		if req.BatchID == batchID && req.SKUCode == skuCode {
			copied := *req
			reqs = append(reqs, &copied)
		}
	}

	sort.Slice(reqs, func(i, j int) bool {
		return reqs[i].MaterialCode < reqs[j].MaterialCode
	})

	return reqs, nil
}

// RequirementsForBatch returns all requirements ordered by SKU then material.
func (r *RequirementRepository) RequirementsForBatch(ctx context.Context, batchID string) ([]*entities.ConsumptionRequirement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var reqs []*entities.ConsumptionRequirement
	for _, req := range r.requirements {
		if req.BatchID == batchID {
			copied := *req
			reqs = append(reqs, &copied)
		}
	}

	sort.Slice(reqs, func(i, j int) bool {
		if reqs[i].SKUCode == reqs[j].SKUCode {
			return reqs[i].MaterialCode < reqs[j].MaterialCode
		}
		return reqs[i].SKUCode < reqs[j].SKUCode
	})

	return reqs, nil
}
