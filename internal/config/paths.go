package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains all the application paths
// This is the single source of truth for ALL file paths in the application
type Paths struct {
	ExecutableDir string
	DatasetDir    string
	DataDir       string
	ProcessedDir  string
	ResultsDir    string
	LogsDir       string

	// Well-known result files
	AnalysisResultsJSON string
	SummaryReport       string
}

// GetPaths returns the application paths relative to the executable location.
// All paths are ALWAYS relative to the executable directory, never the
// current working directory, so every binary resolves the same layout
// regardless of where it was started from.
func GetPaths() (*Paths, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %v", err)
	}

	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve executable symlinks: %v", err)
	}

	return NewPaths(filepath.Dir(exe)), nil
}

// NewPaths builds the standard directory layout under the given base:
//
//	base/
//	  ├── Dataset/           (raw source workbooks)
//	  ├── data/
//	  │   └── processed/     (normalized CSV tables)
//	  ├── results/           (analysis_results.json, per-metric CSVs, summary.txt)
//	  └── logs/
func NewPaths(baseDir string) *Paths {
	dataDir := filepath.Join(baseDir, DefaultDataDir)
	resultsDir := filepath.Join(baseDir, DefaultResultsDir)

	return &Paths{
		ExecutableDir:       baseDir,
		DatasetDir:          filepath.Join(baseDir, DefaultDatasetDir),
		DataDir:             dataDir,
		ProcessedDir:        filepath.Join(dataDir, "processed"),
		ResultsDir:          resultsDir,
		LogsDir:             filepath.Join(baseDir, DefaultLogsDir),
		AnalysisResultsJSON: filepath.Join(resultsDir, AnalysisResultsFile),
		SummaryReport:       filepath.Join(resultsDir, SummaryReportFile),
	}
}

// EnsureDirectories creates all required directories if they don't exist.
// The dataset directory is deliberately excluded: it holds user-provided
// input and an empty one should fail validation, not be silently created.
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.DataDir,
		p.ProcessedDir,
		p.ResultsDir,
		p.LogsDir,
	}

	logger := slog.Default()

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %v", dir, err)
		}
		if logger != nil {
			logger.Debug("Ensured directory exists",
				slog.String("directory", dir))
		}
	}

	return nil
}

// WithDatasetDir overrides the dataset directory, keeping absolute paths
// as-is and resolving relative ones against the executable directory.
func (p *Paths) WithDatasetDir(dir string) *Paths {
	if dir != "" {
		p.DatasetDir = p.resolve(dir)
	}
	return p
}

// WithProcessedDir overrides the processed-table directory.
func (p *Paths) WithProcessedDir(dir string) *Paths {
	if dir != "" {
		p.ProcessedDir = p.resolve(dir)
	}
	return p
}

// WithResultsDir overrides the results directory and the well-known result
// file paths under it.
func (p *Paths) WithResultsDir(dir string) *Paths {
	if dir != "" {
		p.ResultsDir = p.resolve(dir)
		p.AnalysisResultsJSON = filepath.Join(p.ResultsDir, AnalysisResultsFile)
		p.SummaryReport = filepath.Join(p.ResultsDir, SummaryReportFile)
	}
	return p
}

func (p *Paths) resolve(dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(p.ExecutableDir, dir)
}

// SourceWorkbookPath returns the path of a raw workbook in the dataset
// directory.
func (p *Paths) SourceWorkbookPath(filename string) string {
	return filepath.Join(p.DatasetDir, filename)
}

// ProcessedCSVPath returns the path of a normalized table CSV.
func (p *Paths) ProcessedCSVPath(table string) string {
	return filepath.Join(p.ProcessedDir, table+".csv")
}

// MetricCSVPath returns the path of a per-metric result CSV.
func (p *Paths) MetricCSVPath(metric string) string {
	return filepath.Join(p.ResultsDir, metric+".csv")
}

// GetLogPath returns the path for a log file
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// FileExists checks if a regular file exists at the given path
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// LogPathResolution logs detailed path resolution information for debugging
func (p *Paths) LogPathResolution() {
	logger := slog.Default()
	if logger == nil {
		return
	}

	logger.Info("Path resolution summary",
		slog.Group("directories",
			slog.String("executable", p.ExecutableDir),
			slog.String("dataset", p.DatasetDir),
			slog.String("processed", p.ProcessedDir),
			slog.String("results", p.ResultsDir),
			slog.String("logs", p.LogsDir),
		),
		slog.Group("result_files",
			slog.String("analysis_results", p.AnalysisResultsJSON),
			slog.String("summary_report", p.SummaryReport),
		))
}
