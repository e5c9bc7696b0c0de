package impact

import (
	"context"
	"log/slog"
	"time"

	"iplcli/internal/config"
	"iplcli/internal/exporter"
	"iplcli/pkg/contracts/domain"
)

// Calculator orchestrates the metrics computation stage. The table registry
// is always passed in explicitly; the calculator holds no table state
// between runs.
type Calculator struct {
	logger *slog.Logger
	paths  *config.Paths
	params Params
	writer *exporter.CSVWriter
}

// NewCalculator creates a calculator with the given parameters. Zero-valued
// parameters fall back to the production defaults.
func NewCalculator(logger *slog.Logger, paths *config.Paths, params Params) *Calculator {
	if logger == nil {
		logger = slog.Default()
	}
	if params.CAGRYears <= 0 {
		params.CAGRYears = config.DefaultCAGRYears
	}
	if params.Weights == (WeightSet{}) {
		params.Weights = DefaultWeightSet()
	}

	return &Calculator{
		logger: logger,
		paths:  paths,
		params: params,
		writer: exporter.NewCSVWriter(paths),
	}
}

// Calculate derives all six metrics from the registry. Metrics fail
// individually with named computation errors; the first failure aborts the
// run so a partial document is never produced.
func (c *Calculator) Calculate(ctx context.Context, registry Registry) (*Report, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.logger.InfoContext(ctx, "metrics computation started",
		slog.Int("tables", len(registry)),
		slog.Int("cagr_years", c.params.CAGRYears))

	contracts, err := registry.Get(config.TableContractsProcessed)
	if err != nil {
		return nil, err
	}
	advertisers, err := registry.Get(config.TableAdvertisersWithRisk)
	if err != nil {
		return nil, err
	}
	demography, err := registry.Get(config.TableDemography)
	if err != nil {
		return nil, err
	}

	revenue, err := AnalyzeRevenue(contracts)
	if err != nil {
		return nil, err
	}
	c.logger.DebugContext(ctx, "revenue analyzed",
		slog.Float64("total", revenue.TotalRevenue),
		slog.Int("sources", len(revenue.RevenueBySource)))

	ranked, err := RankByRisk(advertisers, TopRiskCount)
	if err != nil {
		return nil, err
	}

	// The CAGR pool is the prefix of the risk ranking, so both views agree
	// on order.
	growthPool := headRows(ranked, TopGrowthCount)
	rates, err := GrowthRates(growthPool, c.params.CAGRYears)
	if err != nil {
		return nil, err
	}

	highRisk, err := HighRiskRows(advertisers)
	if err != nil {
		return nil, err
	}
	c.logger.DebugContext(ctx, "high-risk subset selected",
		slog.Int("brands", highRisk.RowCount()),
		slog.Float64("threshold", HighRiskThreshold))

	population, err := ComputePopulationImpact(highRisk, demography)
	if err != nil {
		return nil, err
	}

	endorsements, err := TopEndorsements(highRisk, TopEndorsementCount)
	if err != nil {
		return nil, err
	}

	aei, err := EthicsIndex(advertisers, c.params.Weights)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Results: &domain.AnalysisResults{
			CentralContracts:      revenue,
			HealthRisk:            HealthRiskRows(ranked),
			CAGR:                  rates,
			PopulationImpact:      population,
			CelebrityEndorsements: endorsements,
			AEI:                   aei,
		},
		RankedRisk:  ranked,
		GeneratedAt: time.Now().UTC(),
		Duration:    time.Since(start),
	}

	c.logger.InfoContext(ctx, "metrics computation completed",
		slog.Int("health_risk_rows", len(report.Results.HealthRisk)),
		slog.Int("cagr_brands", len(report.Results.CAGR)),
		slog.Int("endorsements", len(report.Results.CelebrityEndorsements)),
		slog.Float64("aei", report.Results.AEI),
		slog.Duration("duration", report.Duration))
	return report, nil
}

// Run loads the registry, calculates, and persists in one call. This is the
// whole metrics stage as the pipeline invokes it.
func (c *Calculator) Run(ctx context.Context) (*Report, error) {
	registry, err := LoadTables(c.paths.ProcessedDir)
	if err != nil {
		return nil, err
	}

	report, err := c.Calculate(ctx, registry)
	if err != nil {
		return nil, err
	}

	if err := c.Persist(ctx, report); err != nil {
		return nil, err
	}
	return report, nil
}

// headRows returns the first n rows of a table as a new table.
func headRows(table *domain.Table, n int) *domain.Table {
	if n > table.RowCount() {
		n = table.RowCount()
	}
	indexes := make([]int, n)
	for i := range indexes {
		indexes[i] = i
	}
	return table.SelectRows(indexes)
}
