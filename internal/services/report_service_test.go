package services

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"iplcli/internal/config"
	apierrors "iplcli/internal/errors"
	"iplcli/pkg/contracts/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testPaths(t *testing.T) *config.Paths {
	t.Helper()
	paths := config.NewPaths(t.TempDir())
	require.NoError(t, paths.EnsureDirectories())
	return paths
}

func sampleResults(aei float64) *domain.AnalysisResults {
	return &domain.AnalysisResults{
		CentralContracts: domain.RevenueAnalysis{
			TotalRevenue:      18440.0,
			RevenueBySource:   map[string]float64{"Media Rights": 18000.0, "Title Sponsor": 440.0},
			RevenuePercentage: map[string]float64{"Media Rights": 97.61, "Title Sponsor": 2.39},
		},
		HealthRisk: []domain.HealthRiskRow{
			{"advertiser_name": "PanPlus", "health_risk_index": 90.0},
		},
		CAGR: map[string]domain.GrowthRate{
			"central_revenue": domain.NewGrowthRate(12.5),
		},
		PopulationImpact: domain.PopulationImpact{
			TotalAffectedPopulation: 18000000,
			HighRiskBrandsCount:     1,
			AverageRiskScore:        domain.NewAverageScore(90.0),
		},
		CelebrityEndorsements: []domain.CelebrityEndorsement{
			{CelebrityName: "A. Star", BrandCount: 2, AvgRiskIndex: 85.0},
		},
		AEI: aei,
	}
}

func writeResults(t *testing.T, paths *config.Paths, results *domain.AnalysisResults) {
	t.Helper()
	data, err := json.MarshalIndent(results, "", "  ")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(paths.AnalysisResultsJSON, data, 0644))
}

func TestReportServiceResults(t *testing.T) {
	paths := testPaths(t)
	writeResults(t, paths, sampleResults(55.2))
	svc := NewReportService(paths, testLogger())

	results, err := svc.Results(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 55.2, results.AEI)
	assert.Equal(t, 18440.0, results.CentralContracts.TotalRevenue)
	assert.Len(t, results.HealthRisk, 1)
}

func TestReportServiceCachesUntilChange(t *testing.T) {
	paths := testPaths(t)
	writeResults(t, paths, sampleResults(10.0))
	svc := NewReportService(paths, testLogger())

	first, err := svc.Results(context.Background())
	require.NoError(t, err)

	second, err := svc.Results(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, second, "unchanged file should come from cache")

	// A new run rewrites the document with a newer modification time.
	writeResults(t, paths, sampleResults(99.0))
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(paths.AnalysisResultsJSON, future, future))

	third, err := svc.Results(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 99.0, third.AEI)
}

func TestReportServiceNotFound(t *testing.T) {
	svc := NewReportService(testPaths(t), testLogger())

	_, err := svc.Results(context.Background())
	assert.ErrorIs(t, err, ErrResultsNotFound)
}

func TestReportServiceCorruptedDocument(t *testing.T) {
	paths := testPaths(t)
	require.NoError(t, os.WriteFile(paths.AnalysisResultsJSON, []byte("{not json"), 0644))
	svc := NewReportService(paths, testLogger())

	_, err := svc.Results(context.Background())
	require.Error(t, err)
	assert.True(t, apierrors.IsType(err, apierrors.ErrTypeParsing))
}

func TestReportServiceMetric(t *testing.T) {
	paths := testPaths(t)
	writeResults(t, paths, sampleResults(42.0))
	svc := NewReportService(paths, testLogger())

	for _, key := range domain.MetricKeys() {
		value, err := svc.Metric(context.Background(), key)
		require.NoError(t, err, key)
		assert.NotNil(t, value, key)
	}

	aei, err := svc.Metric(context.Background(), domain.MetricAEI)
	require.NoError(t, err)
	assert.Equal(t, 42.0, aei)

	_, err = svc.Metric(context.Background(), "liquidity")
	assert.ErrorIs(t, err, ErrMetricNotFound)
}

func TestReportServiceInvalidate(t *testing.T) {
	paths := testPaths(t)
	writeResults(t, paths, sampleResults(1.0))
	svc := NewReportService(paths, testLogger())

	first, err := svc.Results(context.Background())
	require.NoError(t, err)

	svc.Invalidate()

	second, err := svc.Results(context.Background())
	require.NoError(t, err)
	assert.NotSame(t, first, second, "invalidate should force a re-read")
	assert.Equal(t, first.AEI, second.AEI)
}

func TestReportServiceInfo(t *testing.T) {
	paths := testPaths(t)
	svc := NewReportService(paths, testLogger())

	info := svc.Info(context.Background())
	assert.False(t, info.Exists)
	assert.Equal(t, paths.AnalysisResultsJSON, info.Path)

	writeResults(t, paths, sampleResults(5.0))
	info = svc.Info(context.Background())
	assert.True(t, info.Exists)
	assert.Greater(t, info.SizeBytes, int64(0))
	assert.False(t, info.GeneratedAt.IsZero())
}
