package impact

import (
	"fmt"

	"iplcli/internal/dataset"
	"iplcli/internal/errors"
	"iplcli/pkg/contracts/domain"
)

// ComputePopulationImpact estimates how many viewers high-risk advertising
// reaches. The affected population is the demography viewer total scaled by
// the fixed exposure fraction; viewer cells keep their source formatting, so
// thousands separators are stripped and unparsable entries excluded. The
// average risk score over an empty high-risk subset is undefined, reported
// as such rather than zero.
func ComputePopulationImpact(highRisk, demography *domain.Table) (domain.PopulationImpact, error) {
	impact := domain.PopulationImpact{}

	if !demography.HasColumn(domain.ColumnTotalViewers) {
		return impact, errors.NewComputationError(domain.MetricPopulationImpact,
			fmt.Sprintf("table %s is missing column %s", demography.Name, domain.ColumnTotalViewers))
	}

	totalViewers := 0.0
	for i := range demography.Rows {
		cell, _ := demography.Value(i, domain.ColumnTotalViewers)
		viewers, ok := dataset.ParseFloat(cell)
		if !ok {
			continue
		}
		totalViewers += viewers
	}
	impact.TotalAffectedPopulation = totalViewers * ExposureFraction

	impact.HighRiskBrandsCount = highRisk.RowCount()
	if impact.HighRiskBrandsCount > 0 {
		sum := 0.0
		for i := range highRisk.Rows {
			sum += riskValue(highRisk, i)
		}
		impact.AverageRiskScore = domain.NewAverageScore(
			round2(sum / float64(impact.HighRiskBrandsCount)))
	}

	return impact, nil
}
