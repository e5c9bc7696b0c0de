package impact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"iplcli/internal/errors"
	"iplcli/pkg/contracts/domain"
)

func demographyTable(viewers ...string) *domain.Table {
	table := domain.NewTable("demography", []string{"city_tier", "total_viewers"})
	for i, v := range viewers {
		table.AppendRow([]string{string(rune('A' + i)), v})
	}
	return table
}

func TestComputePopulationImpact(t *testing.T) {
	highRisk := riskTable(
		[]string{"PanPlus", "pan_masala", "100"},
		[]string{"BetKing", "fantasy_gaming", "90"},
	)
	demography := demographyTable("120,000,000", "200,500,000")

	impact, err := ComputePopulationImpact(highRisk, demography)
	require.NoError(t, err)

	assert.Equal(t, 320500000*0.15, impact.TotalAffectedPopulation)
	assert.Equal(t, 2, impact.HighRiskBrandsCount)
	require.True(t, impact.AverageRiskScore.Valid)
	assert.Equal(t, 95.0, impact.AverageRiskScore.Value)
}

func TestComputePopulationImpact_SeparatorInvariance(t *testing.T) {
	highRisk := riskTable()

	withSeparators, err := ComputePopulationImpact(highRisk, demographyTable("1,000,000"))
	require.NoError(t, err)
	withoutSeparators, err := ComputePopulationImpact(highRisk, demographyTable("1000000"))
	require.NoError(t, err)

	assert.Equal(t, withoutSeparators.TotalAffectedPopulation, withSeparators.TotalAffectedPopulation)
	assert.Equal(t, 150000.0, withSeparators.TotalAffectedPopulation)
}

func TestComputePopulationImpact_ExcludesUnparsableViewers(t *testing.T) {
	highRisk := riskTable()
	demography := demographyTable("1,000,000", "unknown", "")

	impact, err := ComputePopulationImpact(highRisk, demography)
	require.NoError(t, err)

	assert.Equal(t, 150000.0, impact.TotalAffectedPopulation)
}

func TestComputePopulationImpact_EmptySubset(t *testing.T) {
	impact, err := ComputePopulationImpact(riskTable(), demographyTable("500"))
	require.NoError(t, err)

	assert.Equal(t, 0, impact.HighRiskBrandsCount)
	// Undefined, not zero: the document reports "N/A".
	assert.False(t, impact.AverageRiskScore.Valid)

	data, err := impact.AverageRiskScore.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"N/A"`, string(data))
}

func TestComputePopulationImpact_MissingViewerColumn(t *testing.T) {
	demography := domain.NewTable("demography", []string{"city_tier"})

	_, err := ComputePopulationImpact(riskTable(), demography)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeComputation))
	assert.Contains(t, err.Error(), domain.MetricPopulationImpact)
}
