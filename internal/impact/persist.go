package impact

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"iplcli/internal/errors"
	"iplcli/internal/exporter"
	"iplcli/pkg/contracts/domain"
)

// Persist writes the result document, one CSV per tabular metric, and the
// human-readable summary. Every file is a clean overwrite; the JSON goes
// through the exporter's atomic rename so dashboard readers never see a
// torn document.
func (c *Calculator) Persist(ctx context.Context, report *Report) error {
	if err := c.paths.EnsureDirectories(); err != nil {
		return errors.NewStorageError("failed to prepare results directory", err)
	}

	if err := c.writer.WriteJSON(report.Results, c.paths.AnalysisResultsJSON); err != nil {
		return errors.NewStorageError("failed to persist analysis results", err).
			WithContext("path", c.paths.AnalysisResultsJSON)
	}

	riskPath := c.paths.MetricCSVPath(domain.MetricHealthRisk)
	if err := c.writer.WriteTable(report.RankedRisk, riskPath); err != nil {
		return errors.NewStorageError("failed to persist health risk ranking", err).
			WithContext("path", riskPath)
	}

	endorsementsPath := c.paths.MetricCSVPath(domain.MetricCelebrityEndorsements)
	if err := c.writeEndorsementsCSV(report.Results.CelebrityEndorsements, endorsementsPath); err != nil {
		return errors.NewStorageError("failed to persist celebrity endorsements", err).
			WithContext("path", endorsementsPath)
	}

	if err := c.writeSummary(report, c.paths.SummaryReport); err != nil {
		return errors.NewStorageError("failed to persist summary report", err).
			WithContext("path", c.paths.SummaryReport)
	}

	c.logger.InfoContext(ctx, "analysis results persisted",
		slog.String("results", c.paths.AnalysisResultsJSON),
		slog.String("summary", c.paths.SummaryReport))
	return nil
}

func (c *Calculator) writeEndorsementsCSV(endorsements []domain.CelebrityEndorsement, path string) error {
	records := make([][]string, 0, len(endorsements))
	for _, e := range endorsements {
		records = append(records, []string{
			e.CelebrityName,
			exporter.FormatInt(int64(e.BrandCount)),
			exporter.FormatFloat(e.AvgRiskIndex),
		})
	}
	return c.writer.WriteSimpleCSV(path,
		[]string{"celebrity_name", "brand_count", "avg_risk_index"}, records)
}

// writeSummary renders the run in plain text: the overview a stakeholder
// reads without opening the JSON.
func (c *Calculator) writeSummary(report *Report, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create summary file: %w", err)
	}
	defer file.Close()

	results := report.Results

	fmt.Fprintf(file, "IPL Sponsorship Impact - Summary Report\n")
	fmt.Fprintf(file, "=======================================\n\n")
	fmt.Fprintf(file, "Generated: %s\n\n", report.GeneratedAt.Format("2006-01-02 15:04:05"))

	fmt.Fprintf(file, "CENTRAL CONTRACTS REVENUE\n")
	fmt.Fprintf(file, "-------------------------\n")
	fmt.Fprintf(file, "Total Revenue: %.2f\n", results.CentralContracts.TotalRevenue)
	for _, source := range sortedSources(results.CentralContracts.RevenueBySource) {
		fmt.Fprintf(file, "  %s: %.2f (%.2f%%)\n", source,
			results.CentralContracts.RevenueBySource[source],
			results.CentralContracts.RevenuePercentage[source])
	}
	fmt.Fprintf(file, "\n")

	fmt.Fprintf(file, "POPULATION IMPACT\n")
	fmt.Fprintf(file, "-----------------\n")
	fmt.Fprintf(file, "High-Risk Brands (index > %.0f): %d\n",
		HighRiskThreshold, results.PopulationImpact.HighRiskBrandsCount)
	if results.PopulationImpact.AverageRiskScore.Valid {
		fmt.Fprintf(file, "Average Risk Score: %.2f\n", results.PopulationImpact.AverageRiskScore.Value)
	} else {
		fmt.Fprintf(file, "Average Risk Score: %s\n", domain.ScoreUndefined)
	}
	fmt.Fprintf(file, "Estimated Affected Population: %.0f\n\n",
		results.PopulationImpact.TotalAffectedPopulation)

	fmt.Fprintf(file, "TOP HEALTH-RISK ADVERTISERS\n")
	fmt.Fprintf(file, "---------------------------\n")
	for i := range report.RankedRisk.Rows {
		brand, _ := report.RankedRisk.Value(i, domain.ColumnBrandName)
		fmt.Fprintf(file, "%2d. %s (%.0f)\n", i+1, brand, riskValue(report.RankedRisk, i))
	}
	fmt.Fprintf(file, "\n")

	fmt.Fprintf(file, "PROJECTED GROWTH (CAGR, %d years)\n", c.params.CAGRYears)
	fmt.Fprintf(file, "--------------------------------\n")
	for _, brand := range sortedRateKeys(results.CAGR) {
		rate := results.CAGR[brand]
		if rate.Valid {
			fmt.Fprintf(file, "  %s: %.2f%%\n", brand, rate.Value)
		} else {
			fmt.Fprintf(file, "  %s: %s\n", brand, domain.GrowthRateNotApplicable)
		}
	}
	fmt.Fprintf(file, "\n")

	fmt.Fprintf(file, "TOP CELEBRITY ENDORSEMENTS (high-risk brands)\n")
	fmt.Fprintf(file, "---------------------------------------------\n")
	for i, e := range results.CelebrityEndorsements {
		fmt.Fprintf(file, "%2d. %s: %d brands (avg risk %.2f)\n",
			i+1, e.CelebrityName, e.BrandCount, e.AvgRiskIndex)
	}
	fmt.Fprintf(file, "\n")

	fmt.Fprintf(file, "ADVERTISING ETHICS INDEX\n")
	fmt.Fprintf(file, "------------------------\n")
	fmt.Fprintf(file, "AEI: %.2f\n", results.AEI)

	return nil
}

func sortedSources(bySource map[string]float64) []string {
	sources := make([]string, 0, len(bySource))
	for source := range bySource {
		sources = append(sources, source)
	}
	// Largest revenue first, name as tiebreak, so the report reads top-down.
	sort.Slice(sources, func(a, b int) bool {
		if bySource[sources[a]] != bySource[sources[b]] {
			return bySource[sources[a]] > bySource[sources[b]]
		}
		return sources[a] < sources[b]
	})
	return sources
}

func sortedRateKeys(rates map[string]domain.GrowthRate) []string {
	brands := make([]string, 0, len(rates))
	for brand := range rates {
		brands = append(brands, brand)
	}
	sort.Strings(brands)
	return brands
}
