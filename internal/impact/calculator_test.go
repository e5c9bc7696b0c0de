package impact

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"iplcli/internal/config"
	"iplcli/internal/errors"
	"iplcli/pkg/contracts/domain"
)

// buildRegistry assembles the normalized tables of a small but complete run:
// three advertisers (one below the high-risk threshold, one with a missing
// revenue figure), two contract sources, and demography with one unparsable
// viewer count.
func buildRegistry() Registry {
	advertisers := domain.NewTable(config.TableAdvertisersWithRisk, []string{
		"brand_name", "product_type", "celebrity_name", "social_risk_description",
		"ad_frequency", "current_revenue", "projected_revenue_2030",
		"compliance_score", "health_risk_index",
	})
	advertisers.AppendRow([]string{"PanPlus", "pan_masala", "Actor A, Actor B", "Very High", "12", "120", "300", "40", "100"})
	advertisers.AppendRow([]string{"BetKing", "fantasy_gaming", "Actor A", "High", "10", "", "240", "55", "90"})
	advertisers.AppendRow([]string{"FizzCo", "soft_drink", "multiple", "Medium", "8", "80", "120", "70", "50"})

	contracts := domain.NewTable(config.TableContractsProcessed, []string{"source", "revenue"})
	contracts.AppendRow([]string{"Media Rights", "300"})
	contracts.AppendRow([]string{"Title Sponsor", "100"})

	demography := domain.NewTable(config.TableDemography, []string{"city_tier", "total_viewers"})
	demography.AppendRow([]string{"Tier 1", "120,000,000"})
	demography.AppendRow([]string{"Tier 2", "200,500,000"})
	demography.AppendRow([]string{"Tier 3", "n/a"})

	return Registry{
		config.TableAdvertisersWithRisk: advertisers,
		config.TableContractsProcessed:  contracts,
		config.TableDemography:          demography,
	}
}

func newTestCalculator(t *testing.T) *Calculator {
	t.Helper()
	return NewCalculator(slog.Default(), config.NewPaths(t.TempDir()), DefaultParams())
}

func TestCalculatorCalculate(t *testing.T) {
	calculator := newTestCalculator(t)

	report, err := calculator.Calculate(context.Background(), buildRegistry())
	require.NoError(t, err)
	results := report.Results

	// central_contracts
	assert.Equal(t, 400.0, results.CentralContracts.TotalRevenue)
	assert.Equal(t, 75.0, results.CentralContracts.RevenuePercentage["Media Rights"])
	assert.Equal(t, 25.0, results.CentralContracts.RevenuePercentage["Title Sponsor"])

	// health_risk: ranked, all columns preserved, index numeric
	require.Len(t, results.HealthRisk, 3)
	assert.Equal(t, "PanPlus", results.HealthRisk[0]["brand_name"])
	assert.Equal(t, 100.0, results.HealthRisk[0]["health_risk_index"])
	assert.Equal(t, "Very High", results.HealthRisk[0]["social_risk_description"])
	assert.Equal(t, "FizzCo", results.HealthRisk[2]["brand_name"])

	// cagr: computed for the ranking prefix, sentinel where current is blank
	require.Len(t, results.CAGR, 3)
	assert.True(t, results.CAGR["PanPlus"].Valid)
	assert.InDelta(t, 20.11, results.CAGR["PanPlus"].Value, 0.005)
	assert.False(t, results.CAGR["BetKing"].Valid)
	assert.True(t, results.CAGR["FizzCo"].Valid)
	assert.InDelta(t, 8.45, results.CAGR["FizzCo"].Value, 0.005)

	// population_impact
	assert.Equal(t, 320500000*0.15, results.PopulationImpact.TotalAffectedPopulation)
	assert.Equal(t, 2, results.PopulationImpact.HighRiskBrandsCount)
	require.True(t, results.PopulationImpact.AverageRiskScore.Valid)
	assert.Equal(t, 95.0, results.PopulationImpact.AverageRiskScore.Value)

	// celebrity_endorsements: the "multiple" marker names nobody
	require.Len(t, results.CelebrityEndorsements, 2)
	assert.Equal(t, "Actor A", results.CelebrityEndorsements[0].CelebrityName)
	assert.Equal(t, 2, results.CelebrityEndorsements[0].BrandCount)
	assert.Equal(t, 95.0, results.CelebrityEndorsements[0].AvgRiskIndex)
	assert.Equal(t, "Actor B", results.CelebrityEndorsements[1].CelebrityName)

	// aei
	assert.Equal(t, 33.5, results.AEI)

	// The ranked table backs the health_risk CSV.
	assert.Equal(t, 3, report.RankedRisk.RowCount())
	assert.False(t, report.GeneratedAt.IsZero())
}

func TestCalculatorCalculate_Idempotent(t *testing.T) {
	calculator := newTestCalculator(t)

	first, err := calculator.Calculate(context.Background(), buildRegistry())
	require.NoError(t, err)
	second, err := calculator.Calculate(context.Background(), buildRegistry())
	require.NoError(t, err)

	assert.Equal(t, first.Results, second.Results)
	assert.Equal(t, first.RankedRisk.Rows, second.RankedRisk.Rows)
}

func TestCalculatorCalculate_MissingTable(t *testing.T) {
	calculator := newTestCalculator(t)
	registry := buildRegistry()
	delete(registry, config.TableDemography)

	_, err := calculator.Calculate(context.Background(), registry)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeDataLoad))
	assert.Contains(t, err.Error(), config.TableDemography)
}

func TestCalculatorCalculate_CancelledContext(t *testing.T) {
	calculator := newTestCalculator(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := calculator.Calculate(ctx, buildRegistry())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewCalculator_Defaults(t *testing.T) {
	calculator := NewCalculator(nil, config.NewPaths(t.TempDir()), Params{})

	assert.Equal(t, config.DefaultCAGRYears, calculator.params.CAGRYears)
	assert.Equal(t, DefaultWeightSet(), calculator.params.Weights)
	assert.NotNil(t, calculator.logger)
}

func TestCalculatorCalculate_CAGRHorizonConfigurable(t *testing.T) {
	calculator := NewCalculator(slog.Default(), config.NewPaths(t.TempDir()),
		Params{CAGRYears: 1, Weights: DefaultWeightSet()})

	report, err := calculator.Calculate(context.Background(), buildRegistry())
	require.NoError(t, err)

	// One-year horizon: (300/120) - 1 = 150%.
	assert.True(t, report.Results.CAGR["PanPlus"].Valid)
	assert.InDelta(t, 150.0, report.Results.CAGR["PanPlus"].Value, 0.005)
}
