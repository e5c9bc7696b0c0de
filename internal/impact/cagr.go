package impact

import (
	"fmt"
	"math"

	"iplcli/internal/dataset"
	"iplcli/internal/errors"
	"iplcli/pkg/contracts/domain"
)

// GrowthRate computes a compound annual growth rate over the given horizon,
// as a percentage rounded to 2 decimals. The rate is undefined when either
// figure is non-positive: division by zero and fractional powers of
// negative numbers must never reach the result document.
func GrowthRate(current, projected float64, years int) domain.GrowthRate {
	if current <= 0 || projected <= 0 || years <= 0 {
		return domain.GrowthRate{}
	}
	rate := (math.Pow(projected/current, 1/float64(years)) - 1) * 100
	return domain.NewGrowthRate(round2(rate))
}

// GrowthRates computes the CAGR metric for the given ranked advertisers,
// keyed by brand name. A row with a missing or unparsable revenue figure
// gets the sentinel, not an error; a missing revenue column sentinels every
// brand. Only the brand name column is hard-required, since without it there
// is nothing to key the result by.
func GrowthRates(ranked *domain.Table, years int) (map[string]domain.GrowthRate, error) {
	if !ranked.HasColumn(domain.ColumnBrandName) {
		return nil, errors.NewComputationError(domain.MetricCAGR,
			fmt.Sprintf("table %s is missing column %s", ranked.Name, domain.ColumnBrandName))
	}

	rates := make(map[string]domain.GrowthRate, ranked.RowCount())
	for i := range ranked.Rows {
		brand, _ := ranked.Value(i, domain.ColumnBrandName)

		currentCell, _ := ranked.Value(i, domain.ColumnCurrentRevenue)
		projectedCell, _ := ranked.Value(i, domain.ColumnProjectedRevenue)

		current, currentOK := dataset.ParseFloat(currentCell)
		projected, projectedOK := dataset.ParseFloat(projectedCell)
		if !currentOK || !projectedOK {
			rates[brand] = domain.GrowthRate{}
			continue
		}

		rates[brand] = GrowthRate(current, projected, years)
	}
	return rates, nil
}
