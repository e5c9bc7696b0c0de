package main

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"iplcli/internal/config"
	"iplcli/internal/impact"
	"iplcli/pkg/contracts/domain"
)

func TestFormatReportSummary(t *testing.T) {
	report := &impact.Report{
		Results: &domain.AnalysisResults{
			CentralContracts: domain.RevenueAnalysis{TotalRevenue: 18440},
			HealthRisk: []domain.HealthRiskRow{
				{"advertiser": "PanBahar"},
				{"advertiser": "Kamla Pasand"},
			},
			CelebrityEndorsements: []domain.CelebrityEndorsement{
				{CelebrityName: "A. Star"},
			},
			AEI: 64.37,
		},
		Duration: 950 * time.Millisecond,
	}

	summary := formatReportSummary(report, "/srv/results")

	assert.Contains(t, summary, "950ms")
	assert.Contains(t, summary, "18440.00 crore")
	assert.Contains(t, summary, "64.37")
	assert.Contains(t, summary, "Results written to /srv/results")
}

func TestApplyDirOverride(t *testing.T) {
	paths := config.NewPaths(t.TempDir())
	original := paths.ResultsDir

	applyDirOverride(paths.WithResultsDir, "")
	assert.Equal(t, original, paths.ResultsDir)

	applyDirOverride(paths.WithResultsDir, "relative/results")
	assert.True(t, filepath.IsAbs(paths.ResultsDir))
	assert.Equal(t, filepath.Join(paths.ResultsDir, config.AnalysisResultsFile), paths.AnalysisResultsJSON)
}