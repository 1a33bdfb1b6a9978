// Command example walks through a small export batch end to end: two
// dated lots of one fabric, a single SKU consuming 150 units, and the
// resulting RVC verdict.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tvqhuy/co-engine/pkg/application/services/batch"
	"github.com/tvqhuy/co-engine/pkg/domain/entities"
	"github.com/tvqhuy/co-engine/pkg/domain/services"
	"github.com/tvqhuy/co-engine/pkg/infrastructure/repositories/memory"
)

func main() {
	ctx := context.Background()
	const batchID = "DEMO-2025-001"

	lots := memory.NewLotRepository()
	requirements := memory.NewRequirementRepository()
	allocations := memory.NewAllocationRepository()
	verdicts := memory.NewVerdictRepository()
	boms := memory.NewBOMRepository()
	declarations := memory.NewDeclarationRepository()

	// Two intakes of the same fabric: January at 2.0/unit without origin
	// papers, February at 3.0/unit with a supplier origin certificate.
	lot1, err := entities.NewMaterialLot(
		"LOT-001", batchID, "FAB-COTTON",
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		decimal.NewFromFloat(2.0), "CN", false,
		decimal.NewFromInt(100),
	)
	if err != nil {
		log.Fatal(err)
	}
	lot2, err := entities.NewMaterialLot(
		"LOT-002", batchID, "FAB-COTTON",
		time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		decimal.NewFromFloat(3.0), "VN", true,
		decimal.NewFromInt(100),
	)
	if err != nil {
		log.Fatal(err)
	}
	for _, lot := range []*entities.MaterialLot{lot1, lot2} {
		if err := lots.SaveLot(ctx, lot); err != nil {
			log.Fatal(err)
		}
	}

	bomLine, err := entities.NewBOMLine("SHIRT-01", "FAB-COTTON", "5208", decimal.NewFromFloat(1.5))
	if err != nil {
		log.Fatal(err)
	}
	if err := boms.LoadBOMLines(ctx, []*entities.BOMLine{bomLine}); err != nil {
		log.Fatal(err)
	}

	// 100 shirts at 1.5 units of fabric each, FOB 1000, judged by RVC
	// with a 40% threshold.
	decl, err := entities.NewSKUDeclaration(
		batchID, "SHIRT-01",
		decimal.NewFromInt(100),
		decimal.NewFromInt(1000),
		entities.CriterionRVC,
		decimal.NewFromInt(40),
		"6205", "VN",
	)
	if err != nil {
		log.Fatal(err)
	}
	if err := declarations.LoadDeclarations(ctx, []*entities.SKUDeclaration{decl}); err != nil {
		log.Fatal(err)
	}

	rules := services.NewOriginRuleSet([]string{"VN"})
	coordinator := batch.NewCoordinator(
		boms, declarations, lots, requirements, allocations, verdicts,
		rules, services.SystemClock{},
	)

	report, err := coordinator.RunBatch(ctx, batchID)
	if err != nil {
		log.Fatal(err)
	}

	for _, sku := range report.SKUs {
		fmt.Printf("SKU %s: %s\n", sku.SKUCode, sku.Verdict.Result)
		fmt.Printf("  FOB %s, originating %s, non-originating %s, RVC %s%%\n",
			sku.Verdict.FOBValue, sku.Verdict.OriginatingValue,
			sku.Verdict.NonOriginatingValue, sku.Verdict.RVCPercentage.StringFixed(2))
		for _, req := range sku.Requirements {
			for _, alloc := range req.Allocations {
				fmt.Printf("  #%d drew %s from %s @ %s (value %s, origin %s)\n",
					alloc.SequenceNumber, alloc.AllocatedQuantity, alloc.LotID,
					alloc.UnitPrice, alloc.Value, alloc.OriginCountry)
			}
		}
	}

	if err := coordinator.VerifyConservation(ctx, batchID); err != nil {
		log.Fatal(err)
	}
	fmt.Println("conservation check passed")
}
