package origin

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/tvqhuy/co-engine/pkg/domain/entities"
	"github.com/tvqhuy/co-engine/pkg/domain/repositories"
	"github.com/tvqhuy/co-engine/pkg/domain/services"
)

var oneHundred = decimal.NewFromInt(100)

// Aggregator turns a SKU's allocation trail into an origin verdict.
//
// Allocations are partitioned into originating and non-originating value
// by the configured rule set, then judged against the SKU's criterion:
// RVC compares (FOB - non-originating) / FOB against the declared
// threshold, CTC fails when any non-originating material shares the
// finished product's tariff heading.
type Aggregator struct {
	requirements repositories.RequirementRepository
	allocations  repositories.AllocationRepository
	verdicts     repositories.VerdictRepository
	rules        *services.OriginRuleSet
	clock        services.Clock
}

// NewAggregator creates an aggregator over the given repositories and
// rule set.
func NewAggregator(
	requirements repositories.RequirementRepository,
	allocations repositories.AllocationRepository,
	verdicts repositories.VerdictRepository,
	rules *services.OriginRuleSet,
	clock services.Clock,
) *Aggregator {
	return &Aggregator{
		requirements: requirements,
		allocations:  allocations,
		verdicts:     verdicts,
		rules:        rules,
		clock:        clock,
	}
}

// Aggregate computes and stores the verdict for one SKU declaration.
// The verdict is Pending while any requirement is non-terminal, Fail when
// any requirement ended in InsufficientStock, otherwise decided by the
// SKU's criterion.
//
// Returns a ConfigurationError if the FOB value is non-positive or the
// criterion is unknown; the verdict for sibling SKUs is unaffected.
func (a *Aggregator) Aggregate(ctx context.Context, decl *entities.SKUDeclaration) (*entities.SkuVerdict, error) {
	if decl.FOBValue.Sign() <= 0 {
		return nil, entities.NewConfigurationError(decl.SKUCode, "FOB value must be positive, got "+decl.FOBValue.String())
	}
	if decl.Criterion != entities.CriterionRVC && decl.Criterion != entities.CriterionCTC {
		return nil, entities.NewConfigurationError(decl.SKUCode, fmt.Sprintf("unknown origin criterion %d", decl.Criterion))
	}

	reqs, err := a.requirements.RequirementsForSKU(ctx, decl.BatchID, decl.SKUCode)
	if err != nil {
		return nil, fmt.Errorf("failed to read requirements for SKU %s: %w", decl.SKUCode, err)
	}

	verdict := &entities.SkuVerdict{
		BatchID:             decl.BatchID,
		SKUCode:             decl.SKUCode,
		Criterion:           decl.Criterion,
		FOBValue:            decl.FOBValue,
		OriginatingValue:    decimal.Zero,
		NonOriginatingValue: decimal.Zero,
		RVCPercentage:       decimal.Zero,
		ComputedAt:          a.clock.Now(),
	}

	pending := false
	insufficient := false
	ctcSatisfied := true

	for _, req := range reqs {
		if !req.Status.Terminal() {
			pending = true
			continue
		}
		if req.Status == entities.RequirementInsufficientStock {
			insufficient = true
		}

		allocs, err := a.allocations.AllocationsForRequirement(ctx, decl.BatchID, req.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to read allocations for requirement %s: %w", req.ID, err)
		}

		for _, alloc := range allocs {
			if a.rules.IsOriginating(alloc) {
				verdict.OriginatingValue = verdict.OriginatingValue.Add(alloc.Value)
				continue
			}
			verdict.NonOriginatingValue = verdict.NonOriginatingValue.Add(alloc.Value)
			if req.HSHeading != "" && req.HSHeading == decl.HSHeading {
				ctcSatisfied = false
			}
		}
	}

	verdict.RVCPercentage = decl.FOBValue.
		Sub(verdict.NonOriginatingValue).
		Div(decl.FOBValue).
		Mul(oneHundred)
	verdict.CTCSatisfied = ctcSatisfied

	switch {
	case pending:
		verdict.Result = entities.VerdictPending
	case insufficient:
		verdict.Result = entities.VerdictFail
	case decl.Criterion == entities.CriterionRVC:
		if verdict.RVCPercentage.GreaterThanOrEqual(decl.RVCThreshold) {
			verdict.Result = entities.VerdictPass
		} else {
			verdict.Result = entities.VerdictFail
		}
	default: // CriterionCTC
		if ctcSatisfied {
			verdict.Result = entities.VerdictPass
		} else {
			verdict.Result = entities.VerdictFail
		}
	}

	if verdict.Result == entities.VerdictPass {
		verdict.FinalOriginCode = decl.FinalOriginCode
	}

	if err := a.verdicts.UpsertVerdict(ctx, verdict); err != nil {
		return nil, fmt.Errorf("failed to store verdict for SKU %s: %w", decl.SKUCode, err)
	}

	return verdict, nil
}
