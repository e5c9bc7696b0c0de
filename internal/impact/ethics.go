package impact

import (
	"fmt"

	"iplcli/internal/dataset"
	"iplcli/internal/errors"
	"iplcli/pkg/contracts/domain"
)

// EthicsIndex computes the single weighted advertising ethics scalar over
// the whole advertiser pool:
//
//	risk-reduction term:   100 - mean(health_risk_index)
//	diversification term:  10 × distinct non-empty product_type count
//	compliance term:       mean(compliance_score), 0 when the column is absent
//
// Means over an empty pool are 0, so an empty table scores exactly the
// risk-reduction weight × 100. Rounded to 2 decimals.
func EthicsIndex(advertisers *domain.Table, weights WeightSet) (float64, error) {
	if !weights.IsValid() {
		return 0, errors.NewComputationError(domain.MetricAEI,
			fmt.Sprintf("weights must be non-negative and sum to 1, got %+v", weights))
	}
	if !advertisers.HasColumn(domain.ColumnHealthRiskIndex) {
		return 0, errors.NewComputationError(domain.MetricAEI,
			fmt.Sprintf("table %s is missing column %s", advertisers.Name, domain.ColumnHealthRiskIndex))
	}

	meanRisk := columnMean(advertisers, domain.ColumnHealthRiskIndex)

	productTypes := make(map[string]struct{})
	if advertisers.HasColumn(domain.ColumnProductType) {
		for i := range advertisers.Rows {
			cell, _ := advertisers.Value(i, domain.ColumnProductType)
			if cell != "" {
				productTypes[cell] = struct{}{}
			}
		}
	}

	// Degrade, don't fail: sources without compliance data contribute a
	// zero compliance term.
	meanCompliance := 0.0
	if advertisers.HasColumn(domain.ColumnComplianceScore) {
		meanCompliance = columnMean(advertisers, domain.ColumnComplianceScore)
	}

	index := weights.RiskReduction*(100-meanRisk) +
		weights.Diversification*(10*float64(len(productTypes))) +
		weights.Compliance*meanCompliance
	return round2(index), nil
}

// columnMean averages the parseable cells of a column; unparsable cells are
// excluded. An empty or fully unparsable column means 0.
func columnMean(table *domain.Table, column string) float64 {
	sum := 0.0
	count := 0
	for i := range table.Rows {
		cell, _ := table.Value(i, column)
		value, ok := dataset.ParseFloat(cell)
		if !ok {
			continue
		}
		sum += value
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}
