package impact

import (
	"fmt"
	"sort"

	"iplcli/internal/dataset"
	"iplcli/internal/errors"
	"iplcli/pkg/contracts/domain"
)

// riskValue reads a row's health_risk_index as a number. Unparsable cells
// rank as zero risk rather than poisoning the sort.
func riskValue(table *domain.Table, row int) float64 {
	cell, _ := table.Value(row, domain.ColumnHealthRiskIndex)
	value, ok := dataset.ParseFloat(cell)
	if !ok {
		return 0
	}
	return value
}

// RankByRisk returns a new table holding the limit highest-risk rows in
// descending index order. The sort is stable: ties keep their original row
// order, so reruns over unchanged input produce identical rankings. All
// columns are preserved.
func RankByRisk(table *domain.Table, limit int) (*domain.Table, error) {
	if !table.HasColumn(domain.ColumnHealthRiskIndex) {
		return nil, errors.NewComputationError(domain.MetricHealthRisk,
			fmt.Sprintf("table %s is missing column %s", table.Name, domain.ColumnHealthRiskIndex))
	}

	indexes := make([]int, table.RowCount())
	for i := range indexes {
		indexes[i] = i
	}

	sort.SliceStable(indexes, func(a, b int) bool {
		return riskValue(table, indexes[a]) > riskValue(table, indexes[b])
	})

	if limit < len(indexes) {
		indexes = indexes[:limit]
	}
	return table.SelectRows(indexes), nil
}

// HighRiskRows returns the subset of rows with health_risk_index strictly
// above the high-risk threshold, in original order.
func HighRiskRows(table *domain.Table) (*domain.Table, error) {
	if !table.HasColumn(domain.ColumnHealthRiskIndex) {
		return nil, errors.NewComputationError(domain.MetricPopulationImpact,
			fmt.Sprintf("table %s is missing column %s", table.Name, domain.ColumnHealthRiskIndex))
	}

	var indexes []int
	for i := range table.Rows {
		if riskValue(table, i) > HighRiskThreshold {
			indexes = append(indexes, i)
		}
	}
	return table.SelectRows(indexes), nil
}

// HealthRiskRows converts a ranked table into the document representation:
// one object per row with every cell as a string, except health_risk_index
// which is emitted as a number.
func HealthRiskRows(ranked *domain.Table) []domain.HealthRiskRow {
	rows := make([]domain.HealthRiskRow, 0, ranked.RowCount())
	for i := range ranked.Rows {
		row := make(domain.HealthRiskRow, len(ranked.Columns))
		for _, column := range ranked.Columns {
			cell, _ := ranked.Value(i, column)
			if column == domain.ColumnHealthRiskIndex {
				if value, ok := dataset.ParseFloat(cell); ok {
					row[column] = value
					continue
				}
			}
			row[column] = cell
		}
		rows = append(rows, row)
	}
	return rows
}
