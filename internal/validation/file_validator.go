package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"iplcli/internal/config"
)

// FileValidator checks pipeline inputs and outputs before a stage touches
// them, so a misconfigured dataset fails with a file-level message instead
// of a parse error halfway through a workbook.
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a file validator.
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{logger: logger}
}

// ValidateFile checks that path names a readable regular file.
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	switch {
	case os.IsNotExist(err):
		v.logger.Error("File does not exist", slog.String("file", path))
		return fmt.Errorf("file %s does not exist", path)
	case err != nil:
		v.logger.Error("Failed to stat file",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to stat file %s: %w", path, err)
	case info.IsDir():
		v.logger.Error("Path is a directory, not a file", slog.String("path", path))
		return fmt.Errorf("%s is a directory, not a file", path)
	}

	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("File is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("file %s is not readable: %w", path, err)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateExcelFile checks that path is a readable Excel workbook. Both
// .xlsx and macro-enabled .xlsm are accepted; the revenue workbook ships
// as .xlsm.
func (v *FileValidator) ValidateExcelFile(path string) error {
	if err := v.ValidateFile(path); err != nil {
		return err
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".xlsx" && ext != ".xlsm" && ext != ".xls" {
		v.logger.Error("File is not an Excel file",
			slog.String("file", path),
			slog.String("extension", ext))
		return fmt.Errorf("file %s is not an Excel file (extension: %s)", path, ext)
	}

	// Excel leaves ~$ lock files next to open workbooks.
	if strings.HasPrefix(filepath.Base(path), "~$") {
		v.logger.Warn("Skipping temporary Excel file", slog.String("file", path))
		return fmt.Errorf("file %s is a temporary Excel file", path)
	}

	return nil
}

// ValidateCSVFile checks that path is a readable CSV file.
func (v *FileValidator) ValidateCSVFile(path string) error {
	if err := v.ValidateFile(path); err != nil {
		return err
	}

	if ext := strings.ToLower(filepath.Ext(path)); ext != ".csv" {
		v.logger.Error("File is not a CSV file",
			slog.String("file", path),
			slog.String("extension", ext))
		return fmt.Errorf("file %s is not a CSV file (extension: %s)", path, ext)
	}
	return nil
}

// ValidateOutputDirectory creates dir if needed and probes that it is
// writable, catching read-only mounts before a stage runs to completion
// and then fails on persist.
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	probe := filepath.Join(dir, ".write_test")
	file, err := os.Create(probe)
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	file.Close()
	os.Remove(probe)

	v.logger.Info("Output directory validated", slog.String("directory", dir))
	return nil
}

// ValidateSourceWorkbooks checks that the dataset directory holds every
// required workbook. All problems are collected so a user fixing their
// dataset sees the complete list at once instead of one file per run.
func (v *FileValidator) ValidateSourceWorkbooks(paths *config.Paths) error {
	if paths == nil {
		return fmt.Errorf("paths not configured")
	}
	if err := v.requireDirectory(paths.DatasetDir, "dataset"); err != nil {
		return err
	}

	var missing []string
	for _, source := range config.SourceWorkbooks() {
		if err := v.ValidateExcelFile(paths.SourceWorkbookPath(source.File)); err != nil {
			missing = append(missing, source.File)
		}
	}

	if len(missing) > 0 {
		v.logger.Error("Dataset directory is incomplete",
			slog.String("directory", paths.DatasetDir),
			slog.String("missing", strings.Join(missing, ", ")))
		return fmt.Errorf("dataset directory %s is missing required workbooks: %s",
			paths.DatasetDir, strings.Join(missing, ", "))
	}

	v.logger.Info("Source workbooks validated",
		slog.String("directory", paths.DatasetDir),
		slog.Int("workbooks", len(config.SourceWorkbooks())))
	return nil
}

// ValidateProcessedInputs checks that the normalized tables metrics
// computation needs are present, mirroring ValidateSourceWorkbooks for
// Stage 2.
func (v *FileValidator) ValidateProcessedInputs(paths *config.Paths) error {
	if paths == nil {
		return fmt.Errorf("paths not configured")
	}
	if err := v.requireDirectory(paths.ProcessedDir, "processed"); err != nil {
		return err
	}

	var missing []string
	for _, table := range config.RequiredProcessedTables() {
		if err := v.ValidateCSVFile(paths.ProcessedCSVPath(table)); err != nil {
			missing = append(missing, table)
		}
	}

	if len(missing) > 0 {
		v.logger.Error("Processed directory is incomplete",
			slog.String("directory", paths.ProcessedDir),
			slog.String("missing", strings.Join(missing, ", ")))
		return fmt.Errorf("processed directory %s is missing required tables: %s",
			paths.ProcessedDir, strings.Join(missing, ", "))
	}
	return nil
}

func (v *FileValidator) requireDirectory(dir, label string) error {
	info, err := os.Stat(dir)
	switch {
	case os.IsNotExist(err):
		v.logger.Error("Directory does not exist",
			slog.String("directory", dir),
			slog.String("kind", label))
		return fmt.Errorf("%s directory %s does not exist", label, dir)
	case err != nil:
		return fmt.Errorf("failed to stat %s directory %s: %w", label, dir, err)
	case !info.IsDir():
		return fmt.Errorf("%s is not a directory", dir)
	}
	return nil
}
