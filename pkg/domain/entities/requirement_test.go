package entities

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestNewConsumptionRequirement(t *testing.T) {
	req, err := NewConsumptionRequirement("REQ-1", "BATCH-1", "SHIRT-01", "FAB-COTTON", "5208",
		decimal.NewFromFloat(1.5), decimal.NewFromInt(100))
	if err != nil {
		t.Fatalf("Expected valid requirement creation to succeed: %v", err)
	}

	if !req.TotalQuantityNeeded.Equal(decimal.NewFromInt(150)) {
		t.Errorf("Expected total quantity 150, got %s", req.TotalQuantityNeeded)
	}
	if req.Status != RequirementPending {
		t.Errorf("Expected status Pending, got %s", req.Status)
	}
	if req.HSHeading != "5208" {
		t.Errorf("Expected HS heading 5208, got %s", req.HSHeading)
	}

	testCases := []struct {
		name        string
		norm        decimal.Decimal
		units       decimal.Decimal
		expectError string
	}{
		{"zero norm", decimal.Zero, decimal.NewFromInt(10), "normPerUnit"},
		{"negative norm", decimal.NewFromInt(-1), decimal.NewFromInt(10), "normPerUnit"},
		{"zero units", decimal.NewFromInt(1), decimal.Zero, "unitsOfSku"},
		{"negative units", decimal.NewFromInt(1), decimal.NewFromInt(-5), "unitsOfSku"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewConsumptionRequirement("REQ-1", "BATCH-1", "SHIRT-01", "FAB-COTTON", "",
				tc.norm, tc.units)
			if err == nil {
				t.Fatalf("Expected error for %s, but got none", tc.name)
			}
			if !IsValidation(err) {
				t.Errorf("Expected a validation error, got %v", err)
			}
		})
	}
}

func TestRequirementStatus_Terminal(t *testing.T) {
	if RequirementPending.Terminal() {
		t.Error("Pending must not be terminal")
	}
	if RequirementAllocating.Terminal() {
		t.Error("Allocating must not be terminal")
	}
	if !RequirementCompleted.Terminal() {
		t.Error("Completed must be terminal")
	}
	if !RequirementInsufficientStock.Terminal() {
		t.Error("InsufficientStock must be terminal")
	}
}

func TestConsumptionRequirement_Shortfall(t *testing.T) {
	req, err := NewConsumptionRequirement("REQ-1", "BATCH-1", "SHIRT-01", "FAB-COTTON", "",
		decimal.NewFromInt(2), decimal.NewFromInt(100))
	if err != nil {
		t.Fatalf("Failed to create requirement: %v", err)
	}

	req.QuantityAllocated = decimal.NewFromInt(120)

	// Shortfall only applies to requirements that ended insufficient.
	if !req.Shortfall().IsZero() {
		t.Errorf("Expected zero shortfall while Pending, got %s", req.Shortfall())
	}

	req.Status = RequirementInsufficientStock
	if !req.Shortfall().Equal(decimal.NewFromInt(80)) {
		t.Errorf("Expected shortfall 80, got %s", req.Shortfall())
	}
	if !req.QuantityRemaining().Equal(decimal.NewFromInt(80)) {
		t.Errorf("Expected remaining 80, got %s", req.QuantityRemaining())
	}
}
