package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tvqhuy/co-engine/pkg/application/services/batch"
	"github.com/tvqhuy/co-engine/pkg/domain/repositories"
	"github.com/tvqhuy/co-engine/pkg/domain/services"
	"github.com/tvqhuy/co-engine/pkg/infrastructure/audit"
	"github.com/tvqhuy/co-engine/pkg/infrastructure/repositories/csv"
	"github.com/tvqhuy/co-engine/pkg/infrastructure/repositories/memory"
	"github.com/tvqhuy/co-engine/pkg/infrastructure/repositories/sqlite"
	"github.com/tvqhuy/co-engine/pkg/interfaces/cli/output"
)

// Config holds configuration for the batch run command
type Config struct {
	BatchID          string
	LotsFile         string
	BOMFile          string
	DeclarationsFile string
	DBPath           string // empty = in-memory repositories
	Countries        string // comma-separated qualifying country codes
	OutputDir        string
	Format           string
	Verbose          bool
	Verify           bool
	Help             bool
}

// RunCommand loads batch inputs, runs the allocation engine and renders
// the report.
type RunCommand struct {
	config Config
}

// NewRunCommand creates a run command with the given configuration.
func NewRunCommand(config Config) *RunCommand {
	return &RunCommand{config: config}
}

// Execute runs the command.
func (c *RunCommand) Execute(ctx context.Context) error {
	if c.config.Help {
		c.showHelp()
		return nil
	}

	if err := c.validateInputs(); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	repos, closeStore, err := c.buildRepositories(ctx)
	if err != nil {
		return err
	}
	if closeStore != nil {
		defer closeStore()
	}

	if err := c.loadInputs(ctx, repos); err != nil {
		return err
	}

	rules := services.NewOriginRuleSet(splitCountries(c.config.Countries))
	coordinator := batch.NewCoordinator(
		repos.boms, repos.declarations, repos.lots,
		repos.requirements, repos.allocations, repos.verdicts,
		rules, services.SystemClock{},
	)

	var trail *audit.Trail
	if c.config.Verbose {
		trail = audit.NewTrail()
		coordinator.AttachAudit(trail)
	}

	start := time.Now()
	report, err := coordinator.RunBatch(ctx, c.config.BatchID)
	if err != nil {
		return fmt.Errorf("batch run failed: %w", err)
	}

	if c.config.Verbose {
		fmt.Printf("⏱️  Batch processed in %v\n\n", time.Since(start))
		fmt.Println("📜 Audit trail:")
		for _, event := range trail.Events(c.config.BatchID) {
			fmt.Printf("  %3d. [%s] %s: %s\n", event.Version, event.Type, event.SKUCode, event.Detail)
		}
		fmt.Println()
	}

	if c.config.Verify {
		if err := coordinator.VerifyConservation(ctx, c.config.BatchID); err != nil {
			return fmt.Errorf("conservation check failed: %w", err)
		}
		if c.config.Verbose {
			fmt.Println("✅ Conservation check passed")
		}
	}

	return output.Generate(report, output.Config{
		Format:    c.config.Format,
		OutputDir: c.config.OutputDir,
		Verbose:   c.config.Verbose,
	})
}

type repoSet struct {
	lots         repositories.LotRepository
	requirements repositories.RequirementRepository
	allocations  repositories.AllocationRepository
	verdicts     repositories.VerdictRepository
	boms         repositories.BOMRepository
	declarations repositories.DeclarationRepository
}

func (c *RunCommand) buildRepositories(ctx context.Context) (*repoSet, func() error, error) {
	if c.config.DBPath == "" {
		return &repoSet{
			lots:         memory.NewLotRepository(),
			requirements: memory.NewRequirementRepository(),
			allocations:  memory.NewAllocationRepository(),
			verdicts:     memory.NewVerdictRepository(),
			boms:         memory.NewBOMRepository(),
			declarations: memory.NewDeclarationRepository(),
		}, nil, nil
	}

	store, err := sqlite.Open(ctx, c.config.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open store: %w", err)
	}

	return &repoSet{
		lots:         store.Lots(),
		requirements: store.Requirements(),
		allocations:  store.Allocations(),
		verdicts:     store.Verdicts(),
		boms:         store.BOMs(),
		declarations: store.Declarations(),
	}, store.Close, nil
}

func (c *RunCommand) loadInputs(ctx context.Context, repos *repoSet) error {
	loader := csv.NewLoader()

	if c.config.Verbose {
		fmt.Println("📂 Loading batch inputs...")
	}

	lots, err := loader.LoadLots(c.config.LotsFile, c.config.BatchID)
	if err != nil {
		return fmt.Errorf("error loading lots: %w", err)
	}
	for _, lot := range lots {
		if err := repos.lots.SaveLot(ctx, lot); err != nil {
			return fmt.Errorf("error saving lot %s: %w", lot.ID, err)
		}
	}

	bomLines, err := loader.LoadBOM(c.config.BOMFile)
	if err != nil {
		return fmt.Errorf("error loading BOM: %w", err)
	}
	if err := repos.boms.LoadBOMLines(ctx, bomLines); err != nil {
		return fmt.Errorf("error saving BOM lines: %w", err)
	}

	decls, err := loader.LoadDeclarations(c.config.DeclarationsFile, c.config.BatchID)
	if err != nil {
		return fmt.Errorf("error loading declarations: %w", err)
	}
	if err := repos.declarations.LoadDeclarations(ctx, decls); err != nil {
		return fmt.Errorf("error saving declarations: %w", err)
	}

	if c.config.Verbose {
		fmt.Printf("✅ Loaded %d lots, %d BOM lines, %d declarations\n\n",
			len(lots), len(bomLines), len(decls))
	}

	return nil
}

func (c *RunCommand) validateInputs() error {
	if c.config.BatchID == "" {
		return fmt.Errorf("batch id is required")
	}
	if c.config.LotsFile == "" || c.config.BOMFile == "" || c.config.DeclarationsFile == "" {
		return fmt.Errorf("lots, BOM and declarations files are all required")
	}
	if c.config.Format != "text" && c.config.Format != "json" {
		return fmt.Errorf("unsupported format %q (expected text or json)", c.config.Format)
	}
	return nil
}

func splitCountries(s string) []string {
	var countries []string
	for _, c := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(c); trimmed != "" {
			countries = append(countries, trimmed)
		}
	}
	return countries
}

func (c *RunCommand) showHelp() {
	fmt.Println(`co-engine - FIFO inventory allocation and origin determination

Usage:
  co-engine -batch BATCH_ID -lots lots.csv -bom bom.csv -declarations skus.csv [options]

Options:
  -batch         Batch identifier (required)
  -lots          Material lots CSV file (required)
  -bom           Bill of materials CSV file (required)
  -declarations  SKU declarations CSV file (required)
  -db            SQLite database path (default: in-memory)
  -countries     Comma-separated qualifying country codes (default: VN)
  -output        Output directory for JSON reports
  -format        Output format: text, json (default: text)
  -verify        Run the lot conservation check after the batch
  -verbose       Enable verbose output
  -help          Show this help message`)
}
