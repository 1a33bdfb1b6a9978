package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tvqhuy/co-engine/pkg/domain/entities"
)

// RequirementReport pairs a terminal requirement with the allocations
// that satisfied it, in the order the lots were actually consumed.
type RequirementReport struct {
	Requirement *entities.ConsumptionRequirement
	Allocations []*entities.Allocation // ordered by sequence number
}

// Shortfall returns the unfilled quantity for the requirement.
func (r *RequirementReport) Shortfall() decimal.Decimal {
	return r.Requirement.Shortfall()
}

// SKUReport is the per-SKU outcome of a batch run: either a verdict with
// its supporting allocation trail, or the error that stopped the SKU.
type SKUReport struct {
	SKUCode      string
	Verdict      *entities.SkuVerdict
	Requirements []RequirementReport
	Error        string // non-empty when the SKU failed validation or configuration
}

// Insufficient reports whether any requirement of the SKU ended in
// InsufficientStock.
func (r *SKUReport) Insufficient() bool {
	for _, req := range r.Requirements {
		if req.Requirement.Status == entities.RequirementInsufficientStock {
			return true
		}
	}
	return false
}

// BatchReport is the complete outcome of one batch run.
type BatchReport struct {
	BatchID     string
	GeneratedAt time.Time
	SKUs        []SKUReport // ordered by SKU code ascending
}

// PassCount returns the number of SKUs with a passing verdict.
func (r *BatchReport) PassCount() int {
	count := 0
	for _, sku := range r.SKUs {
		if sku.Verdict != nil && sku.Verdict.Result == entities.VerdictPass {
			count++
		}
	}
	return count
}

// FailCount returns the number of SKUs with a failing verdict.
func (r *BatchReport) FailCount() int {
	count := 0
	for _, sku := range r.SKUs {
		if sku.Verdict != nil && sku.Verdict.Result == entities.VerdictFail {
			count++
		}
	}
	return count
}

// ErrorCount returns the number of SKUs stopped by a validation or
// configuration error.
func (r *BatchReport) ErrorCount() int {
	count := 0
	for _, sku := range r.SKUs {
		if sku.Error != "" {
			count++
		}
	}
	return count
}
