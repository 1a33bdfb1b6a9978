package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	_ "github.com/joho/godotenv/autoload"

	"github.com/tvqhuy/co-engine/pkg/interfaces/cli/commands"
)

func main() {
	// Command line flags
	var (
		batchID   = flag.String("batch", "", "Batch identifier")
		lotsFile  = flag.String("lots", "", "Path to material lots CSV file")
		bomFile   = flag.String("bom", "", "Path to BOM CSV file")
		declsFile = flag.String("declarations", "", "Path to SKU declarations CSV file")
		dbPath    = flag.String("db", os.Getenv("CO_ENGINE_DB"), "SQLite database path (empty = in-memory)")
		countries = flag.String("countries", "VN", "Comma-separated qualifying country codes")
		outputDir = flag.String("output", "", "Output directory for JSON reports (optional)")
		format    = flag.String("format", "text", "Output format: text, json")
		verify    = flag.Bool("verify", false, "Run the lot conservation check after the batch")
		verbose   = flag.Bool("verbose", false, "Enable verbose output")
		help      = flag.Bool("help", false, "Show help message")
	)

	flag.Parse()

	config := commands.Config{
		BatchID:          *batchID,
		LotsFile:         *lotsFile,
		BOMFile:          *bomFile,
		DeclarationsFile: *declsFile,
		DBPath:           *dbPath,
		Countries:        *countries,
		OutputDir:        *outputDir,
		Format:           *format,
		Verify:           *verify,
		Verbose:          *verbose,
		Help:             *help,
	}

	cmd := commands.NewRunCommand(config)
	ctx := context.Background()

	if err := cmd.Execute(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
