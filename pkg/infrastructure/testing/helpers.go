// Package testing provides shared batch fixtures for integration tests
// and benchmarks.
package testing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tvqhuy/co-engine/pkg/domain/entities"
	"github.com/tvqhuy/co-engine/pkg/infrastructure/repositories/memory"
)

// BatchFixture bundles populated in-memory repositories for one batch.
type BatchFixture struct {
	BatchID      string
	Lots         *memory.LotRepository
	Requirements *memory.RequirementRepository
	Allocations  *memory.AllocationRepository
	Verdicts     *memory.VerdictRepository
	BOMs         *memory.BOMRepository
	Declarations *memory.DeclarationRepository
}

func newFixture(batchID string) *BatchFixture {
	return &BatchFixture{
		BatchID:      batchID,
		Lots:         memory.NewLotRepository(),
		Requirements: memory.NewRequirementRepository(),
		Allocations:  memory.NewAllocationRepository(),
		Verdicts:     memory.NewVerdictRepository(),
		BOMs:         memory.NewBOMRepository(),
		Declarations: memory.NewDeclarationRepository(),
	}
}

func (f *BatchFixture) addLot(id, materialCode, date string, unitPrice float64, country string, certified bool, quantity int64) {
	intake, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	lot, err := entities.NewMaterialLot(id, f.BatchID, materialCode, intake,
		decimal.NewFromFloat(unitPrice), country, certified, decimal.NewFromInt(quantity))
	if err != nil {
		panic(err)
	}
	if err := f.Lots.SaveLot(context.Background(), lot); err != nil {
		panic(err)
	}
}

func (f *BatchFixture) addBOMLine(skuCode, materialCode, hsHeading string, norm float64) {
	line, err := entities.NewBOMLine(skuCode, materialCode, hsHeading, decimal.NewFromFloat(norm))
	if err != nil {
		panic(err)
	}
	if err := f.BOMs.LoadBOMLines(context.Background(), []*entities.BOMLine{line}); err != nil {
		panic(err)
	}
}

func (f *BatchFixture) addDeclaration(skuCode string, quantity, fob int64, criterion entities.OriginCriterion, threshold int64, hsHeading string) {
	decl, err := entities.NewSKUDeclaration(f.BatchID, skuCode,
		decimal.NewFromInt(quantity), decimal.NewFromInt(fob),
		criterion, decimal.NewFromInt(threshold), hsHeading, "VN")
	if err != nil {
		panic(err)
	}
	if err := f.Declarations.LoadDeclarations(context.Background(), []*entities.SKUDeclaration{decl}); err != nil {
		panic(err)
	}
}

// BuildGarmentTestData builds a four-SKU garment batch with mixed
// criteria and a deliberate wool shortage:
//
//	COAT-04    RVC, needs 100 wool against 50 on hand (insufficient)
//	JACKET-03  RVC, drains the January cotton lots
//	SHIRT-01   RVC, spans the certified and the Indian cotton lot
//	TROUSER-02 CTC, all inputs change tariff heading
func BuildGarmentTestData() *BatchFixture {
	f := newFixture("GARMENT-2025-001")

	f.addLot("LOT-C1", "FAB-COTTON", "2025-01-05", 2.0, "CN", false, 200)
	f.addLot("LOT-C2", "FAB-COTTON", "2025-01-20", 2.5, "VN", true, 200)
	f.addLot("LOT-C3", "FAB-COTTON", "2025-02-10", 3.0, "IN", false, 300)
	f.addLot("LOT-Z1", "ZIP-METAL", "2025-01-10", 1.0, "VN", true, 150)
	f.addLot("LOT-B1", "BTN-PLASTIC", "2025-01-15", 0.5, "CN", false, 100)
	f.addLot("LOT-W1", "WOOL-FAB", "2025-01-08", 5.0, "IT", false, 50)

	f.addBOMLine("SHIRT-01", "FAB-COTTON", "5208", 1.5)
	f.addBOMLine("SHIRT-01", "BTN-PLASTIC", "3926", 0.8)
	f.addBOMLine("TROUSER-02", "FAB-COTTON", "5208", 2.0)
	f.addBOMLine("TROUSER-02", "ZIP-METAL", "9607", 1.0)
	f.addBOMLine("JACKET-03", "FAB-COTTON", "5208", 3.0)
	f.addBOMLine("COAT-04", "WOOL-FAB", "5111", 2.0)

	f.addDeclaration("SHIRT-01", 100, 2000, entities.CriterionRVC, 40, "6205")
	f.addDeclaration("TROUSER-02", 80, 1500, entities.CriterionCTC, 0, "6203")
	f.addDeclaration("JACKET-03", 100, 3000, entities.CriterionRVC, 40, "6201")
	f.addDeclaration("COAT-04", 50, 5000, entities.CriterionRVC, 50, "6202")

	return f
}

// BuildSimpleTestData builds a one-SKU batch: two cotton lots, a single
// shirt requirement spanning both in intake order.
func BuildSimpleTestData() *BatchFixture {
	f := newFixture("SIMPLE-2025-001")

	f.addLot("LOT-001", "FAB-COTTON", "2025-01-01", 2.0, "CN", false, 100)
	f.addLot("LOT-002", "FAB-COTTON", "2025-02-01", 3.0, "VN", true, 100)

	f.addBOMLine("SHIRT-01", "FAB-COTTON", "5208", 1.5)
	f.addDeclaration("SHIRT-01", 100, 1000, entities.CriterionRVC, 40, "6205")

	return f
}
