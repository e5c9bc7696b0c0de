package impact

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"iplcli/internal/config"
	"iplcli/internal/dataset"
	"iplcli/internal/exporter"
	"iplcli/pkg/contracts/domain"
)

// writeProcessedTables persists the test registry the way the preparation
// stage would, so Run exercises the real on-disk handoff.
func writeProcessedTables(t *testing.T, paths *config.Paths) {
	t.Helper()
	writer := exporter.NewCSVWriter(paths)
	for name, table := range buildRegistry() {
		require.NoError(t, writer.WriteTable(table, paths.ProcessedCSVPath(name)))
	}
}

func TestCalculatorRun_EndToEnd(t *testing.T) {
	paths := config.NewPaths(t.TempDir())
	writeProcessedTables(t, paths)

	calculator := NewCalculator(slog.Default(), paths, DefaultParams())
	report, err := calculator.Run(context.Background())
	require.NoError(t, err)

	// Round-trip: the persisted document reproduces every metric exactly.
	raw, err := os.ReadFile(paths.AnalysisResultsJSON)
	require.NoError(t, err)

	var reloaded domain.AnalysisResults
	require.NoError(t, json.Unmarshal(raw, &reloaded))
	assert.Equal(t, *report.Results, reloaded)

	// Top-level keys appear in document order.
	text := string(raw)
	last := -1
	for _, key := range domain.MetricKeys() {
		idx := strings.Index(text, `"`+key+`"`)
		require.NotEqual(t, -1, idx, "missing key %s", key)
		assert.Greater(t, idx, last, "key %s out of order", key)
		last = idx
	}

	// Sentinels survive serialization as strings.
	assert.Contains(t, text, `"not applicable"`)

	// Tabular metrics also land as CSVs.
	ranked, err := dataset.ReadCSV(
		paths.MetricCSVPath(domain.MetricHealthRisk), domain.MetricHealthRisk)
	require.NoError(t, err)
	assert.Equal(t, 3, ranked.RowCount())
	topBrand, _ := ranked.Value(0, domain.ColumnBrandName)
	assert.Equal(t, "PanPlus", topBrand)

	endorsements, err := dataset.ReadCSV(
		paths.MetricCSVPath(domain.MetricCelebrityEndorsements),
		domain.MetricCelebrityEndorsements)
	require.NoError(t, err)
	require.Equal(t, 2, endorsements.RowCount())
	assert.Equal(t, []string{"celebrity_name", "brand_count", "avg_risk_index"}, endorsements.Columns)
	assert.Equal(t, []string{"Actor A", "2", "95.00"}, endorsements.Rows[0])

	// Human-readable summary.
	summary, err := os.ReadFile(paths.SummaryReport)
	require.NoError(t, err)
	assert.Contains(t, string(summary), "Total Revenue: 400.00")
	assert.Contains(t, string(summary), "AEI: 33.50")
	assert.Contains(t, string(summary), "High-Risk Brands (index > 70): 2")
}

func TestCalculatorRun_OverwritesOnRerun(t *testing.T) {
	paths := config.NewPaths(t.TempDir())
	writeProcessedTables(t, paths)

	calculator := NewCalculator(slog.Default(), paths, DefaultParams())
	_, err := calculator.Run(context.Background())
	require.NoError(t, err)
	_, err = calculator.Run(context.Background())
	require.NoError(t, err)

	// No append semantics: rerun yields the same three ranked rows.
	ranked, err := dataset.ReadCSV(
		paths.MetricCSVPath(domain.MetricHealthRisk), domain.MetricHealthRisk)
	require.NoError(t, err)
	assert.Equal(t, 3, ranked.RowCount())
}

func TestCalculatorRun_WithoutPreparation(t *testing.T) {
	paths := config.NewPaths(t.TempDir())
	calculator := NewCalculator(slog.Default(), paths, DefaultParams())

	_, err := calculator.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run data preparation first")

	// A failed run writes nothing.
	_, statErr := os.Stat(paths.AnalysisResultsJSON)
	assert.True(t, os.IsNotExist(statErr))
}
