package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tvqhuy/co-engine/pkg/application/dto"
	"github.com/tvqhuy/co-engine/pkg/domain/entities"
)

// Config holds configuration for output generation
type Config struct {
	Format    string
	OutputDir string
	Verbose   bool
}

// Generate writes the batch report in the specified format.
func Generate(report *dto.BatchReport, config Config) error {
	switch config.Format {
	case "text":
		return generateTextOutput(report, config)
	case "json":
		return generateJSONOutput(report, config)
	default:
		return fmt.Errorf("unsupported output format: %s", config.Format)
	}
}

// generateTextOutput creates human-readable text output
func generateTextOutput(report *dto.BatchReport, config Config) error {
	fmt.Printf("📊 Origin Determination Report - Batch %s\n", report.BatchID)
	fmt.Printf("==========================================\n\n")
	fmt.Printf("Generated: %s\n", report.GeneratedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("SKUs: %d (pass %d, fail %d, errors %d)\n\n",
		len(report.SKUs), report.PassCount(), report.FailCount(), report.ErrorCount())

	for _, sku := range report.SKUs {
		fmt.Printf("SKU %s\n", sku.SKUCode)

		if sku.Error != "" {
			fmt.Printf("  ⚠️  %s\n\n", sku.Error)
			continue
		}

		if v := sku.Verdict; v != nil {
			fmt.Printf("  Result: %s (%s)\n", v.Result, v.Criterion)
			fmt.Printf("  FOB: %s  Originating: %s  Non-originating: %s  RVC: %s%%\n",
				v.FOBValue, v.OriginatingValue, v.NonOriginatingValue, v.RVCPercentage.StringFixed(2))
			if v.Result == entities.VerdictPass {
				fmt.Printf("  Origin: %s\n", v.FinalOriginCode)
			}
		}

		for _, req := range sku.Requirements {
			r := req.Requirement
			fmt.Printf("  Material %-12s needed %-10s allocated %-10s [%s]\n",
				r.MaterialCode, r.TotalQuantityNeeded, r.QuantityAllocated, r.Status)
			if r.Status == entities.RequirementInsufficientStock {
				fmt.Printf("    shortfall: %s\n", req.Shortfall())
			}
			for _, alloc := range req.Allocations {
				fmt.Printf("    #%d lot %-12s qty %-10s @ %-8s value %-10s origin %s\n",
					alloc.SequenceNumber, alloc.LotID, alloc.AllocatedQuantity,
					alloc.UnitPrice, alloc.Value, alloc.OriginCountry)
			}
		}
		fmt.Println()
	}

	return nil
}

// generateJSONOutput writes the report as JSON to stdout or the output dir
func generateJSONOutput(report *dto.BatchReport, config Config) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	if config.OutputDir == "" {
		fmt.Println(string(data))
		return nil
	}

	if err := os.MkdirAll(config.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(config.OutputDir, fmt.Sprintf("batch_%s_report.json", report.BatchID))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report file: %w", err)
	}

	if config.Verbose {
		fmt.Printf("✅ Report written to %s\n", path)
	}

	return nil
}
