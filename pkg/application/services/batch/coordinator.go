package batch

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/tvqhuy/co-engine/pkg/application/dto"
	"github.com/tvqhuy/co-engine/pkg/application/services/allocation"
	"github.com/tvqhuy/co-engine/pkg/application/services/origin"
	"github.com/tvqhuy/co-engine/pkg/application/services/requirements"
	"github.com/tvqhuy/co-engine/pkg/domain/entities"
	"github.com/tvqhuy/co-engine/pkg/domain/repositories"
	"github.com/tvqhuy/co-engine/pkg/domain/services"
	"github.com/tvqhuy/co-engine/pkg/infrastructure/audit"
)

// Coordinator drives requirement building, FIFO allocation and origin
// aggregation across every SKU of one export batch.
//
// SKUs are processed in SKU-code order and each SKU's materials in
// material-code order, so a run against the same lot snapshot is
// reproducible. Per-SKU validation and configuration failures are
// isolated into the report; only structural repository failures abort
// the run.
//
// A run is resumable but never retried transparently: lots reserved and
// allocations recorded by an interrupted run stand, and re-invoking only
// processes requirements still in Pending or Allocating state.
type Coordinator struct {
	boms         repositories.BOMRepository
	declarations repositories.DeclarationRepository
	lots         repositories.LotRepository
	requirements repositories.RequirementRepository
	allocations  repositories.AllocationRepository
	verdicts     repositories.VerdictRepository

	builder    *requirements.Builder
	allocator  *allocation.FifoAllocator
	aggregator *origin.Aggregator
	clock      services.Clock
	audit      audit.Recorder
}

// nopRecorder drops events; used until a trail is attached.
type nopRecorder struct{}

func (nopRecorder) Record(audit.Event) {}

// NewCoordinator wires a coordinator from explicit repositories, the
// origin rule set and a clock.
func NewCoordinator(
	boms repositories.BOMRepository,
	declarations repositories.DeclarationRepository,
	lots repositories.LotRepository,
	reqs repositories.RequirementRepository,
	allocs repositories.AllocationRepository,
	verdicts repositories.VerdictRepository,
	rules *services.OriginRuleSet,
	clock services.Clock,
) *Coordinator {
	return &Coordinator{
		boms:         boms,
		declarations: declarations,
		lots:         lots,
		requirements: reqs,
		allocations:  allocs,
		verdicts:     verdicts,
		builder:      requirements.NewBuilder(),
		allocator:    allocation.NewFifoAllocator(lots, reqs, allocs, clock),
		aggregator:   origin.NewAggregator(reqs, allocs, verdicts, rules, clock),
		clock:        clock,
		audit:        nopRecorder{},
	}
}

// AttachAudit routes run events into the given recorder.
func (c *Coordinator) AttachAudit(rec audit.Recorder) {
	c.audit = rec
}

func (c *Coordinator) record(eventType, batchID, skuCode, detail string) {
	c.audit.Record(audit.Event{
		Type:    eventType,
		BatchID: batchID,
		SKUCode: skuCode,
		Detail:  detail,
		At:      c.clock.Now(),
	})
}

// RunBatch processes every SKU declared in the batch and returns the
// per-SKU verdicts with their allocation trail.
func (c *Coordinator) RunBatch(ctx context.Context, batchID string) (*dto.BatchReport, error) {
	decls, err := c.declarations.DeclarationsForBatch(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to read declarations for batch %s: %w", batchID, err)
	}
	if len(decls) == 0 {
		return nil, fmt.Errorf("batch %s: %w", batchID, entities.ErrBatchNotFound)
	}

	sort.Slice(decls, func(i, j int) bool {
		return decls[i].SKUCode < decls[j].SKUCode
	})

	report := &dto.BatchReport{
		BatchID:     batchID,
		GeneratedAt: c.clock.Now(),
		SKUs:        make([]dto.SKUReport, 0, len(decls)),
	}

	for _, decl := range decls {
		row, err := c.processSKU(ctx, decl)
		if err != nil {
			return nil, fmt.Errorf("batch %s aborted at SKU %s: %w", batchID, decl.SKUCode, err)
		}
		report.SKUs = append(report.SKUs, row)
	}

	return report, nil
}

// processSKU runs one SKU end to end. Validation and configuration
// errors become the row's Error; any other error is structural and
// propagates.
func (c *Coordinator) processSKU(ctx context.Context, decl *entities.SKUDeclaration) (dto.SKUReport, error) {
	row := dto.SKUReport{SKUCode: decl.SKUCode}

	reqs, err := c.ensureRequirements(ctx, decl)
	if err != nil {
		if entities.IsValidation(err) {
			row.Error = err.Error()
			c.record(audit.SKUFailed, decl.BatchID, decl.SKUCode, err.Error())
			return row, nil
		}
		return row, err
	}

	// Material codes ascending; the repository already orders them, the
	// sort keeps the guarantee independent of the implementation.
	sort.Slice(reqs, func(i, j int) bool {
		return reqs[i].MaterialCode < reqs[j].MaterialCode
	})

	for _, req := range reqs {
		if req.Status.Terminal() {
			continue
		}
		created, err := c.allocator.AllocateRequirement(ctx, req)
		if err != nil {
			return row, err
		}
		for _, alloc := range created {
			c.record(audit.AllocationRecorded, decl.BatchID, decl.SKUCode,
				fmt.Sprintf("%s of %s from lot %s", alloc.AllocatedQuantity, req.MaterialCode, alloc.LotID))
		}
		switch req.Status {
		case entities.RequirementCompleted:
			c.record(audit.RequirementCompleted, decl.BatchID, decl.SKUCode, req.MaterialCode)
		case entities.RequirementInsufficientStock:
			c.record(audit.RequirementInsufficient, decl.BatchID, decl.SKUCode,
				fmt.Sprintf("%s short by %s", req.MaterialCode, req.Shortfall()))
		}
	}

	for _, req := range reqs {
		allocs, err := c.allocations.AllocationsForRequirement(ctx, decl.BatchID, req.ID)
		if err != nil {
			return row, fmt.Errorf("failed to read allocations for requirement %s: %w", req.ID, err)
		}
		row.Requirements = append(row.Requirements, dto.RequirementReport{
			Requirement: req,
			Allocations: allocs,
		})
	}

	verdict, err := c.aggregator.Aggregate(ctx, decl)
	if err != nil {
		if entities.IsConfiguration(err) {
			row.Error = err.Error()
			c.record(audit.SKUFailed, decl.BatchID, decl.SKUCode, err.Error())
			return row, nil
		}
		return row, err
	}
	row.Verdict = verdict
	c.record(audit.VerdictComputed, decl.BatchID, decl.SKUCode, verdict.Result.String())

	return row, nil
}

// ensureRequirements returns the SKU's stored requirements, building and
// persisting them from the BOM on the first run.
func (c *Coordinator) ensureRequirements(
	ctx context.Context,
	decl *entities.SKUDeclaration,
) ([]*entities.ConsumptionRequirement, error) {
	existing, err := c.requirements.RequirementsForSKU(ctx, decl.BatchID, decl.SKUCode)
	if err != nil {
		return nil, fmt.Errorf("failed to read requirements for SKU %s: %w", decl.SKUCode, err)
	}
	if len(existing) > 0 {
		return existing, nil
	}

	bomLines, err := c.boms.BOMLines(ctx, decl.SKUCode)
	if err != nil {
		return nil, fmt.Errorf("failed to read BOM for SKU %s: %w", decl.SKUCode, err)
	}

	built, err := c.builder.Build(decl, bomLines)
	if err != nil {
		return nil, err
	}

	for _, req := range built {
		if err := c.requirements.SaveRequirement(ctx, req); err != nil {
			return nil, fmt.Errorf("failed to save requirement for material %s: %w", req.MaterialCode, err)
		}
	}
	c.record(audit.RequirementsBuilt, decl.BatchID, decl.SKUCode,
		fmt.Sprintf("%d materials", len(built)))

	return built, nil
}

// VerifyConservation checks that for every lot in the batch the consumed
// quantity equals the sum of its allocations. It returns the first
// violation found.
func (c *Coordinator) VerifyConservation(ctx context.Context, batchID string) error {
	lots, err := c.lots.AllLots(ctx, batchID)
	if err != nil {
		return fmt.Errorf("failed to read lots for batch %s: %w", batchID, err)
	}

	for _, lot := range lots {
		allocs, err := c.allocations.AllocationsForLot(ctx, batchID, lot.ID)
		if err != nil {
			return fmt.Errorf("failed to read allocations for lot %s: %w", lot.ID, err)
		}

		allocated := decimal.Zero
		for _, alloc := range allocs {
			allocated = allocated.Add(alloc.AllocatedQuantity)
		}

		if !lot.QuantityConsumed().Equal(allocated) {
			return fmt.Errorf("lot %s violates conservation: consumed %s but allocations sum to %s",
				lot.ID, lot.QuantityConsumed(), allocated)
		}
	}

	return nil
}
