package csv

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tvqhuy/co-engine/pkg/domain/entities"
)

// Loader reads batch input data from CSV files: material lots, BOM lines
// and SKU declarations.
type Loader struct{}

// NewLoader creates a new CSV loader.
func NewLoader() *Loader {
	return &Loader{}
}

// LoadLots loads material lots for a batch from a CSV file. Lots without
// an explicit id get a generated one; the caller saves them in file
// order so intake sequences follow the file.
func (l *Loader) LoadLots(filename, batchID string) ([]*entities.MaterialLot, error) {
	records, err := readAll(filename)
	if err != nil {
		return nil, fmt.Errorf("lots CSV: %w", err)
	}

	expectedHeader := []string{"lot_id", "material_code", "intake_date", "unit_price", "origin_country", "has_certificate", "quantity"}
	if !validateHeader(records[0], expectedHeader) {
		return nil, fmt.Errorf("lots CSV header mismatch. Expected: %v, Got: %v", expectedHeader, records[0])
	}

	var lots []*entities.MaterialLot
	for i, record := range records[1:] {
		if len(record) != len(expectedHeader) {
			return nil, fmt.Errorf("lots CSV row %d: expected %d columns, got %d", i+2, len(expectedHeader), len(record))
		}

		lot, err := parseLot(record, batchID)
		if err != nil {
			return nil, fmt.Errorf("lots CSV row %d: %w", i+2, err)
		}

		lots = append(lots, lot)
	}

	return lots, nil
}

// LoadBOM loads BOM lines from a CSV file.
func (l *Loader) LoadBOM(filename string) ([]*entities.BOMLine, error) {
	records, err := readAll(filename)
	if err != nil {
		return nil, fmt.Errorf("BOM CSV: %w", err)
	}

	expectedHeader := []string{"sku_code", "material_code", "hs_heading", "norm_per_unit"}
	if !validateHeader(records[0], expectedHeader) {
		return nil, fmt.Errorf("BOM CSV header mismatch. Expected: %v, Got: %v", expectedHeader, records[0])
	}

	var lines []*entities.BOMLine
	for i, record := range records[1:] {
		if len(record) != len(expectedHeader) {
			return nil, fmt.Errorf("BOM CSV row %d: expected %d columns, got %d", i+2, len(expectedHeader), len(record))
		}

		line, err := parseBOMLine(record)
		if err != nil {
			return nil, fmt.Errorf("BOM CSV row %d: %w", i+2, err)
		}

		lines = append(lines, line)
	}

	return lines, nil
}

// LoadDeclarations loads SKU declarations for a batch from a CSV file.
func (l *Loader) LoadDeclarations(filename, batchID string) ([]*entities.SKUDeclaration, error) {
	records, err := readAll(filename)
	if err != nil {
		return nil, fmt.Errorf("declarations CSV: %w", err)
	}

	expectedHeader := []string{"sku_code", "quantity", "fob_value", "criterion", "rvc_threshold", "hs_heading", "final_origin"}
	if !validateHeader(records[0], expectedHeader) {
		return nil, fmt.Errorf("declarations CSV header mismatch. Expected: %v, Got: %v", expectedHeader, records[0])
	}

	var decls []*entities.SKUDeclaration
	for i, record := range records[1:] {
		if len(record) != len(expectedHeader) {
			return nil, fmt.Errorf("declarations CSV row %d: expected %d columns, got %d", i+2, len(expectedHeader), len(record))
		}

		decl, err := parseDeclaration(record, batchID)
		if err != nil {
			return nil, fmt.Errorf("declarations CSV row %d: %w", i+2, err)
		}

		decls = append(decls, decl)
	}

	return decls, nil
}

// Helper functions for parsing CSV records

func readAll(filename string) ([][]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", filename, err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}

	if len(records) < 2 {
		return nil, fmt.Errorf("%s must have header and at least one data row", filename)
	}

	return records, nil
}

func validateHeader(actual, expected []string) bool {
	if len(actual) != len(expected) {
		return false
	}

	for i, col := range expected {
		if strings.ToLower(strings.TrimSpace(actual[i])) != col {
			return false
		}
	}

	return true
}

func parseLot(record []string, batchID string) (*entities.MaterialLot, error) {
	lotID := strings.TrimSpace(record[0])
	if lotID == "" {
		lotID = uuid.NewString()
	}

	intakeDate, err := time.Parse("2006-01-02", record[2])
	if err != nil {
		return nil, fmt.Errorf("invalid intake_date: %s (expected YYYY-MM-DD)", record[2])
	}

	unitPrice, err := decimal.NewFromString(record[3])
	if err != nil {
		return nil, fmt.Errorf("invalid unit_price: %s", record[3])
	}

	hasCertificate, err := strconv.ParseBool(record[5])
	if err != nil {
		return nil, fmt.Errorf("invalid has_certificate: %s", record[5])
	}

	quantity, err := decimal.NewFromString(record[6])
	if err != nil {
		return nil, fmt.Errorf("invalid quantity: %s", record[6])
	}

	return entities.NewMaterialLot(
		lotID,
		batchID,
		record[1],
		intakeDate,
		unitPrice,
		record[4],
		hasCertificate,
		quantity,
	)
}

func parseBOMLine(record []string) (*entities.BOMLine, error) {
	norm, err := decimal.NewFromString(record[3])
	if err != nil {
		return nil, fmt.Errorf("invalid norm_per_unit: %s", record[3])
	}

	return entities.NewBOMLine(record[0], record[1], record[2], norm)
}

func parseDeclaration(record []string, batchID string) (*entities.SKUDeclaration, error) {
	quantity, err := decimal.NewFromString(record[1])
	if err != nil {
		return nil, fmt.Errorf("invalid quantity: %s", record[1])
	}

	fobValue, err := decimal.NewFromString(record[2])
	if err != nil {
		return nil, fmt.Errorf("invalid fob_value: %s", record[2])
	}

	criterion, err := entities.ParseOriginCriterion(record[3])
	if err != nil {
		return nil, err
	}

	threshold := decimal.Zero
	if strings.TrimSpace(record[4]) != "" {
		threshold, err = decimal.NewFromString(record[4])
		if err != nil {
			return nil, fmt.Errorf("invalid rvc_threshold: %s", record[4])
		}
	}

	return entities.NewSKUDeclaration(
		batchID,
		record[0],
		quantity,
		fobValue,
		criterion,
		threshold,
		record[5],
		record[6],
	)
}
