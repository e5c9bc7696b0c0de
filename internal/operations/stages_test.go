package operations

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"iplcli/internal/config"
	"iplcli/internal/dataprocessing"
	"iplcli/internal/errors"
	"iplcli/internal/impact"
)

func writeWorkbook(t *testing.T, path string, headers []string, rows [][]any) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))

	f := excelize.NewFile()
	defer f.Close()

	cell, err := excelize.CoordinatesToCellName(1, 1)
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("Sheet1", cell, &headers))

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}

	require.NoError(t, f.SaveAs(path))
}

func writeDataset(t *testing.T) *config.Paths {
	t.Helper()
	paths := config.NewPaths(t.TempDir())
	require.NoError(t, os.MkdirAll(paths.DatasetDir, 0755))

	writeWorkbook(t, paths.SourceWorkbookPath(config.SourceAdvertisersFile),
		[]string{"advertiser_brand", "product_category", "celebrity_influence",
			"risk_description", "ad_frequency", "current_revenue",
			"projected_revenue_2030", "compliance_score"},
		[][]any{
			{"PanPlus", "pan_masala", "Actor A, Actor B", "Very High", 12, 120, 300, 40},
			{"FizzCo", "soft_drink", "multiple", "Medium", 8, 80, 120, 70},
			{"BetKing", "fantasy_gaming", "Actor A", "High", 10, 95, 240, 55},
		})

	writeWorkbook(t, paths.SourceWorkbookPath(config.SourceRevenueFile),
		[]string{"source", "revenue"},
		[][]any{
			{"Media Rights", 18000},
			{"Title Sponsor", 440},
		})

	writeWorkbook(t, paths.SourceWorkbookPath(config.SourceDemographyFile),
		[]string{"city_tier", "total_viewers"},
		[][]any{
			{"Tier 1", "120,000,000"},
			{"Tier 2", "200,500,000"},
		})

	writeWorkbook(t, paths.SourceWorkbookPath(config.SourceContractsFile),
		[]string{"source", "revenue"},
		[][]any{
			{"Official Partner", 300},
		})

	return paths
}

func newPipelineManager(paths *config.Paths) *Manager {
	logger := discardLogger()
	preparer := dataprocessing.NewPreparer(logger, paths)
	calculator := impact.NewCalculator(logger, paths, impact.DefaultParams())

	return NewManager(nil, nil, logger,
		NewPreparationStage(preparer, nil, logger),
		NewMetricsStage(calculator, nil, logger),
	)
}

func TestPipelineEndToEnd(t *testing.T) {
	paths := writeDataset(t)
	manager := newPipelineManager(paths)

	resp, err := manager.Execute(context.Background(), RunRequest{})
	require.NoError(t, err)

	assert.Equal(t, RunStatusCompleted, resp.Status)
	assert.Equal(t, StageStatusCompleted, resp.Stages[StageIDPreparation].Status)
	assert.Equal(t, StageStatusCompleted, resp.Stages[StageIDMetrics].Status)

	assert.FileExists(t, paths.ProcessedCSVPath(config.TableAdvertisersWithRisk))
	assert.FileExists(t, paths.AnalysisResultsJSON)
	assert.FileExists(t, paths.SummaryReport)

	snapshot, err := manager.Snapshot(resp.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, snapshot.Progress)
}

func TestPipelineStageIdentity(t *testing.T) {
	paths := config.NewPaths(t.TempDir())
	logger := discardLogger()

	prep := NewPreparationStage(dataprocessing.NewPreparer(logger, paths), nil, logger)
	assert.Equal(t, StageIDPreparation, prep.ID())
	assert.Equal(t, StageNamePreparation, prep.Name())

	metrics := NewMetricsStage(impact.NewCalculator(logger, paths, impact.DefaultParams()), nil, logger)
	assert.Equal(t, StageIDMetrics, metrics.ID())
	assert.Equal(t, StageNameMetrics, metrics.Name())
}

func TestPipelineMissingDataset(t *testing.T) {
	paths := config.NewPaths(t.TempDir())
	manager := newPipelineManager(paths)

	resp, err := manager.Execute(context.Background(), RunRequest{})
	require.Error(t, err)

	assert.True(t, errors.IsType(err, errors.ErrTypeDataLoad))
	assert.Equal(t, RunStatusFailed, resp.Status)
	assert.Equal(t, StageStatusFailed, resp.Stages[StageIDPreparation].Status)
	assert.Equal(t, StageStatusSkipped, resp.Stages[StageIDMetrics].Status)
	assert.NoFileExists(t, paths.AnalysisResultsJSON)
}

func TestMetricsStageWithoutPreparation(t *testing.T) {
	paths := config.NewPaths(t.TempDir())
	logger := discardLogger()
	manager := NewManager(nil, nil, logger,
		NewMetricsStage(impact.NewCalculator(logger, paths, impact.DefaultParams()), nil, logger),
	)

	_, err := manager.Execute(context.Background(), RunRequest{})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeDataLoad))
	assert.Contains(t, err.Error(), "run data preparation first")
}
