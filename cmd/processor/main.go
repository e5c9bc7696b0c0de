package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"iplcli/internal/config"
	"iplcli/internal/dataprocessing"
	"iplcli/internal/infrastructure"
	"iplcli/internal/validation"
)

func main() {
	datasetDir := flag.String("dataset", "", "directory holding the source workbooks (defaults to Dataset relative to the executable)")
	outDir := flag.String("out", "", "output directory for normalized CSV tables (defaults to data/processed)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Warn("Failed to load config, using defaults", "error", err)
		cfg = config.Default()
	}

	paths, err := cfg.ResolvePaths()
	if err != nil {
		slog.Error("Failed to initialize paths", "error", err)
		os.Exit(1)
	}
	applyDirOverride(paths.WithDatasetDir, *datasetDir)
	applyDirOverride(paths.WithProcessedDir, *outDir)

	if err := paths.EnsureDirectories(); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	logger.Info("starting data preparation",
		slog.String("dataset_dir", paths.DatasetDir),
		slog.String("processed_dir", paths.ProcessedDir))

	if err := validation.NewFileValidator(logger).ValidateSourceWorkbooks(paths); err != nil {
		logger.Error("source workbooks missing",
			slog.String("dataset_dir", paths.DatasetDir),
			slog.String("error", err.Error()),
			slog.String("hint", "Place the four sponsorship workbooks in the dataset directory"))
		os.Exit(1)
	}

	ctx := infrastructure.EnsureTraceID(context.Background())
	preparer := dataprocessing.NewPreparer(logger, paths)
	result, err := preparer.Run(ctx)
	if err != nil {
		logger.Error("data preparation failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	fmt.Print(formatPreparationSummary(result, paths.ProcessedDir))
}

// applyDirOverride resolves a flag value against the working directory, the
// way a CLI user expects, before handing it to the path layout.
func applyDirOverride(apply func(string) *config.Paths, dir string) {
	if dir == "" {
		return
	}
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	apply(dir)
}

// formatPreparationSummary renders the post-run console summary in table
// write order.
func formatPreparationSummary(result *dataprocessing.Result, processedDir string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Data preparation completed in %s\n", result.Duration.Round(time.Millisecond))
	for _, name := range result.Tables {
		fmt.Fprintf(&b, "  %-28s %6d rows\n", name+".csv", result.RowCounts[name])
	}
	fmt.Fprintf(&b, "Normalized %d tables (%d rows) into %s\n",
		len(result.Tables), result.TotalRows(), processedDir)
	return b.String()
}
