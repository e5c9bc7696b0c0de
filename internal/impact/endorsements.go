package impact

import (
	"fmt"
	"sort"
	"strings"

	"iplcli/internal/errors"
	"iplcli/pkg/contracts/domain"
)

// endorsementGroup accumulates one celebrity's exploded endorsement rows.
type endorsementGroup struct {
	name    string
	brands  map[string]struct{}
	riskSum float64
	rows    int
}

// SplitCelebrities splits a celebrity cell into individual names: comma
// separated, trimmed, empties dropped. The literal "multiple" marker
// (case-insensitive) names nobody and yields no entries.
func SplitCelebrities(cell string) []string {
	var names []string
	for _, part := range strings.Split(cell, ",") {
		name := strings.TrimSpace(part)
		if name == "" || strings.EqualFold(name, domain.MultipleCelebritiesMarker) {
			continue
		}
		names = append(names, name)
	}
	return names
}

// TopEndorsements ranks celebrities by how many distinct high-risk brands
// they endorse. The input is the high-risk subset; each row explodes into
// one (celebrity, brand) pair per listed name. Ties keep first-appearance
// order, so the ranking is stable across reruns.
func TopEndorsements(highRisk *domain.Table, limit int) ([]domain.CelebrityEndorsement, error) {
	for _, column := range []string{domain.ColumnCelebrityName, domain.ColumnBrandName} {
		if !highRisk.HasColumn(column) {
			return nil, errors.NewComputationError(domain.MetricCelebrityEndorsements,
				fmt.Sprintf("table %s is missing column %s", highRisk.Name, column))
		}
	}

	groups := make(map[string]*endorsementGroup)
	var order []string

	for i := range highRisk.Rows {
		cell, _ := highRisk.Value(i, domain.ColumnCelebrityName)
		brand, _ := highRisk.Value(i, domain.ColumnBrandName)
		risk := riskValue(highRisk, i)

		for _, name := range SplitCelebrities(cell) {
			group, ok := groups[name]
			if !ok {
				group = &endorsementGroup{name: name, brands: make(map[string]struct{})}
				groups[name] = group
				order = append(order, name)
			}
			group.brands[brand] = struct{}{}
			group.riskSum += risk
			group.rows++
		}
	}

	sort.SliceStable(order, func(a, b int) bool {
		return len(groups[order[a]].brands) > len(groups[order[b]].brands)
	})
	if limit < len(order) {
		order = order[:limit]
	}

	endorsements := make([]domain.CelebrityEndorsement, 0, len(order))
	for _, name := range order {
		group := groups[name]
		endorsements = append(endorsements, domain.CelebrityEndorsement{
			CelebrityName: group.name,
			BrandCount:    len(group.brands),
			AvgRiskIndex:  round2(group.riskSum / float64(group.rows)),
		})
	}
	return endorsements, nil
}
