package impact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"iplcli/internal/errors"
	"iplcli/pkg/contracts/domain"
)

func TestWeightSetIsValid(t *testing.T) {
	tests := []struct {
		name    string
		weights WeightSet
		want    bool
	}{
		{"defaults", DefaultWeightSet(), true},
		{"sums above one", WeightSet{0.5, 0.3, 0.3}, false},
		{"sums below one", WeightSet{0.3, 0.3, 0.3}, false},
		{"negative component", WeightSet{-0.4, 0.7, 0.7}, false},
		{"float tolerance", WeightSet{0.4, 0.30001, 0.29999}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.weights.IsValid())
		})
	}
}

func TestEthicsIndex(t *testing.T) {
	// Two brands, no compliance column: the compliance term degrades to 0.
	table := domain.NewTable("advertisers_with_risk", []string{
		"brand_name", "product_type", "health_risk_index",
	})
	table.AppendRow([]string{"A", "pan_masala", "90"})
	table.AppendRow([]string{"B", "alcohol", "20"})

	aei, err := EthicsIndex(table, DefaultWeightSet())
	require.NoError(t, err)

	// 0.4*(100-55) + 0.3*(10*2) + 0.3*0
	assert.Equal(t, 24.0, aei)
}

func TestEthicsIndex_WithCompliance(t *testing.T) {
	table := domain.NewTable("advertisers_with_risk", []string{
		"brand_name", "product_type", "health_risk_index", "compliance_score",
	})
	table.AppendRow([]string{"PanPlus", "pan_masala", "100", "40"})
	table.AppendRow([]string{"BetKing", "fantasy_gaming", "90", "55"})
	table.AppendRow([]string{"FizzCo", "soft_drink", "50", "70"})

	aei, err := EthicsIndex(table, DefaultWeightSet())
	require.NoError(t, err)

	// 0.4*(100-80) + 0.3*(10*3) + 0.3*55
	assert.Equal(t, 33.5, aei)
}

func TestEthicsIndex_EmptyTable(t *testing.T) {
	table := domain.NewTable("advertisers_with_risk", []string{
		"brand_name", "product_type", "health_risk_index",
	})

	aei, err := EthicsIndex(table, DefaultWeightSet())
	require.NoError(t, err)

	// Empty means are 0, so only the risk-reduction term contributes.
	assert.Equal(t, 40.0, aei)
}

func TestEthicsIndex_DuplicateAndEmptyProductTypes(t *testing.T) {
	table := domain.NewTable("advertisers_with_risk", []string{
		"product_type", "health_risk_index",
	})
	table.AppendRow([]string{"pan_masala", "100"})
	table.AppendRow([]string{"pan_masala", "100"})
	table.AppendRow([]string{"", "100"})

	aei, err := EthicsIndex(table, DefaultWeightSet())
	require.NoError(t, err)

	// One distinct non-empty product type.
	assert.Equal(t, 3.0, aei)
}

func TestEthicsIndex_UnparsableComplianceExcluded(t *testing.T) {
	table := domain.NewTable("advertisers_with_risk", []string{
		"product_type", "health_risk_index", "compliance_score",
	})
	table.AppendRow([]string{"a", "100", "60"})
	table.AppendRow([]string{"b", "100", "pending"})

	aei, err := EthicsIndex(table, DefaultWeightSet())
	require.NoError(t, err)

	// 0.4*0 + 0.3*20 + 0.3*60
	assert.Equal(t, 24.0, aei)
}

func TestEthicsIndex_MissingRiskColumn(t *testing.T) {
	table := domain.NewTable("advertisers_clean", []string{"brand_name"})

	_, err := EthicsIndex(table, DefaultWeightSet())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeComputation))
	assert.Contains(t, err.Error(), domain.MetricAEI)
}

func TestEthicsIndex_InvalidWeights(t *testing.T) {
	table := domain.NewTable("advertisers_with_risk", []string{"health_risk_index"})

	_, err := EthicsIndex(table, WeightSet{0.9, 0.9, 0.9})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeComputation))
}
