package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/tvqhuy/co-engine/pkg/domain/entities"
	"github.com/tvqhuy/co-engine/pkg/domain/repositories"
)

// BOMRepository provides in-memory bill-of-materials storage.
type BOMRepository struct {
	mu    sync.RWMutex
	lines map[string][]*entities.BOMLine // key: skuCode
}

// NewBOMRepository creates an empty in-memory BOM repository.
func NewBOMRepository() *BOMRepository {
	return &BOMRepository{
		lines: make(map[string][]*entities.BOMLine),
	}
}

// Verify interface compliance
var _ repositories.BOMRepository = (*BOMRepository)(nil)

// LoadBOMLines loads BOM lines into the repository.
func (r *BOMRepository) LoadBOMLines(ctx context.Context, lines []*entities.BOMLine) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, line := range lines {
		copied := *line
		r.lines[line.SKUCode] = append(r.lines[line.SKUCode], &copied)
	}
	return nil
}

// BOMLines returns a SKU's BOM lines ordered by material code.
func (r *BOMRepository) BOMLines(ctx context.Context, skuCode string) ([]*entities.BOMLine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.lines[skuCode]
	lines := make([]*entities.BOMLine, 0, len(stored))
	for _, line := range stored {
		copied := *line
		lines = append(lines, &copied)
	}

	sort.Slice(lines, func(i, j int) bool {
		return lines[i].MaterialCode < lines[j].MaterialCode
	})

	return lines, nil
}

// DeclarationRepository provides in-memory storage of SKU declarations.
type DeclarationRepository struct {
	mu    sync.RWMutex
	decls map[string]*entities.SKUDeclaration // key: batchID|skuCode
}

// NewDeclarationRepository creates an empty in-memory declaration repository.
func NewDeclarationRepository() *DeclarationRepository {
	return &DeclarationRepository{
		decls: make(map[string]*entities.SKUDeclaration),
	}
}

// Verify interface compliance
var _ repositories.DeclarationRepository = (*DeclarationRepository)(nil)

// LoadDeclarations loads SKU declarations into the repository.
func (r *DeclarationRepository) LoadDeclarations(ctx context.Context, decls []*entities.SKUDeclaration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, decl := range decls {
		copied := *decl
		r.decls[decl.BatchID+"|"+decl.SKUCode] = &copied
	}
	return nil
}

// DeclarationsForBatch returns a batch's declarations ordered by SKU code.
func (r *DeclarationRepository) DeclarationsForBatch(ctx context.Context, batchID string) ([]*entities.SKUDeclaration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var decls []*entities.SKUDeclaration
	for _, decl := range r.decls {
		if decl.BatchID == batchID {
			copied := *decl
			decls = append(decls, &copied)
		}
	}

	sort.Slice(decls, func(i, j int) bool {
		return decls[i].SKUCode < decls[j].SKUCode
	})

	return decls, nil
}

// DeclarationForSKU returns one SKU's declaration.
func (r *DeclarationRepository) DeclarationForSKU(ctx context.Context, batchID, skuCode string) (*entities.SKUDeclaration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	decl, exists := r.decls[batchID+"|"+skuCode]
	if !exists {
		return nil, fmt.Errorf("declaration for SKU %s in batch %s not found", skuCode, batchID)
	}

	copied := *decl
	return &copied, nil
}
