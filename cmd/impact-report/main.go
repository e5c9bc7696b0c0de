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
	"iplcli/internal/impact"
	"iplcli/internal/infrastructure"
	"iplcli/internal/validation"
)

func main() {
	inDir := flag.String("in", "", "directory holding the normalized CSV tables (defaults to data/processed)")
	outDir := flag.String("out", "", "output directory for the analysis results (defaults to results)")
	cagrYears := flag.Int("cagr-years", 0, "growth horizon in years for the CAGR metrics (defaults to configuration)")
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
	applyDirOverride(paths.WithProcessedDir, *inDir)
	applyDirOverride(paths.WithResultsDir, *outDir)

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

	fileValidator := validation.NewFileValidator(logger)
	if err := fileValidator.ValidateProcessedInputs(paths); err != nil {
		logger.Error("processed tables missing",
			slog.String("processed_dir", paths.ProcessedDir),
			slog.String("error", err.Error()),
			slog.String("hint", "Run processor first to generate the normalized tables"))
		os.Exit(1)
	}
	if err := fileValidator.ValidateOutputDirectory(paths.ResultsDir); err != nil {
		logger.Error("results directory not writable",
			slog.String("results_dir", paths.ResultsDir),
			slog.String("error", err.Error()))
		os.Exit(1)
	}

	params := impact.DefaultParams()
	if cfg.Analysis.CAGRYears > 0 {
		params.CAGRYears = cfg.Analysis.CAGRYears
	}
	if *cagrYears > 0 {
		params.CAGRYears = *cagrYears
	}

	logger.Info("starting metrics computation",
		slog.String("processed_dir", paths.ProcessedDir),
		slog.String("results_dir", paths.ResultsDir),
		slog.Int("cagr_years", params.CAGRYears))

	ctx := infrastructure.EnsureTraceID(context.Background())
	calculator := impact.NewCalculator(logger, paths, params)
	report, err := calculator.Run(ctx)
	if err != nil {
		logger.Error("metrics computation failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	fmt.Print(formatReportSummary(report, paths.ResultsDir))
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

// formatReportSummary renders the post-run console summary.
func formatReportSummary(report *impact.Report, resultsDir string) string {
	results := report.Results

	var b strings.Builder
	fmt.Fprintf(&b, "Metrics computation completed in %s\n", report.Duration.Round(time.Millisecond))
	fmt.Fprintf(&b, "  total central contract revenue  %12.2f crore\n", results.CentralContracts.TotalRevenue)
	fmt.Fprintf(&b, "  advertising ethics index        %12.2f\n", results.AEI)
	fmt.Fprintf(&b, "  high-risk advertisers ranked    %12d\n", len(results.HealthRisk))
	fmt.Fprintf(&b, "  celebrity endorsements listed   %12d\n", len(results.CelebrityEndorsements))
	fmt.Fprintf(&b, "Results written to %s\n", resultsDir)
	return b.String()
}
