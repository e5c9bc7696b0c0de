package impact

import (
	"fmt"

	"iplcli/internal/dataset"
	"iplcli/internal/errors"
	"iplcli/pkg/contracts/domain"
)

// AnalyzeRevenue computes the central-contracts revenue metric: total
// revenue, per-source sums, and percentage shares rounded to 2 decimals.
// A missing source or revenue column is a named computation error; unparsable
// revenue cells are excluded from the sums.
func AnalyzeRevenue(contracts *domain.Table) (domain.RevenueAnalysis, error) {
	analysis := domain.RevenueAnalysis{
		RevenueBySource:   make(map[string]float64),
		RevenuePercentage: make(map[string]float64),
	}

	for _, column := range []string{domain.ColumnSource, domain.ColumnRevenue} {
		if !contracts.HasColumn(column) {
			return analysis, errors.NewComputationError(domain.MetricCentralContracts,
				fmt.Sprintf("table %s is missing column %s", contracts.Name, column))
		}
	}

	for i := range contracts.Rows {
		cell, _ := contracts.Value(i, domain.ColumnRevenue)
		amount, ok := dataset.ParseFloat(cell)
		if !ok {
			continue
		}

		source, _ := contracts.Value(i, domain.ColumnSource)
		analysis.TotalRevenue += amount
		analysis.RevenueBySource[source] += amount
	}

	for source, amount := range analysis.RevenueBySource {
		if analysis.TotalRevenue != 0 {
			analysis.RevenuePercentage[source] = round2(amount / analysis.TotalRevenue * 100)
		} else {
			analysis.RevenuePercentage[source] = 0
		}
	}

	return analysis, nil
}
