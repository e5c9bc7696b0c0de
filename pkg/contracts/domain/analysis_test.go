package domain

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrowthRateJSON(t *testing.T) {
	tests := []struct {
		name string
		rate GrowthRate
		want string
	}{
		{name: "defined", rate: NewGrowthRate(23.46), want: "23.46"},
		{name: "negative", rate: NewGrowthRate(-4.5), want: "-4.5"},
		{name: "undefined", rate: GrowthRate{}, want: `"not applicable"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.rate)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(data))

			var back GrowthRate
			require.NoError(t, json.Unmarshal(data, &back))
			assert.Equal(t, tt.rate, back)
		})
	}
}

func TestGrowthRateUnmarshalRejectsUnknownString(t *testing.T) {
	var g GrowthRate
	err := json.Unmarshal([]byte(`"n/a"`), &g)
	assert.Error(t, err)
}

func TestAverageScoreJSON(t *testing.T) {
	tests := []struct {
		name  string
		score AverageScore
		want  string
	}{
		{name: "defined", score: NewAverageScore(84.5), want: "84.5"},
		{name: "undefined", score: AverageScore{}, want: `"N/A"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.score)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(data))

			var back AverageScore
			require.NoError(t, json.Unmarshal(data, &back))
			assert.Equal(t, tt.score, back)
		})
	}
}

func TestAnalysisResultsKeyOrder(t *testing.T) {
	doc := AnalysisResults{
		CentralContracts: RevenueAnalysis{
			TotalRevenue:      400,
			RevenueBySource:   map[string]float64{"X": 100, "Y": 300},
			RevenuePercentage: map[string]float64{"X": 25, "Y": 75},
		},
		CAGR: map[string]GrowthRate{"SpinCo": NewGrowthRate(12.5)},
		PopulationImpact: PopulationImpact{
			TotalAffectedPopulation: 150000,
			HighRiskBrandsCount:     2,
			AverageRiskScore:        NewAverageScore(88),
		},
		AEI: 41.3,
	}

	data, err := json.Marshal(&doc)
	require.NoError(t, err)

	var keys []string
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	require.NoError(t, err)
	require.Equal(t, json.Delim('{'), tok)
	for dec.More() {
		tok, err := dec.Token()
		require.NoError(t, err)
		keys = append(keys, tok.(string))
		var skip json.RawMessage
		require.NoError(t, dec.Decode(&skip))
	}

	assert.Equal(t, MetricKeys(), keys)
}

func TestAnalysisResultsMetricLookup(t *testing.T) {
	doc := &AnalysisResults{AEI: 55.5}

	for _, key := range MetricKeys() {
		_, ok := doc.Metric(key)
		assert.True(t, ok, "metric %s should resolve", key)
	}

	_, ok := doc.Metric("unknown")
	assert.False(t, ok)

	v, ok := doc.Metric(MetricAEI)
	require.True(t, ok)
	assert.Equal(t, 55.5, v)
}
