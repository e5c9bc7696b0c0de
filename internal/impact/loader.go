package impact

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"iplcli/internal/dataset"
	"iplcli/internal/errors"
	"iplcli/pkg/contracts/domain"
)

// Registry holds the normalized tables keyed by file stem. It is built once
// per run and handed to the calculator explicitly.
type Registry map[string]*domain.Table

// LoadTables reads every CSV in the processed directory into a registry.
// A missing or unreadable directory means data preparation has not run,
// which is a load error the caller reports rather than retries.
func LoadTables(processedDir string) (Registry, error) {
	entries, err := os.ReadDir(processedDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewDataLoadError(
				fmt.Sprintf("processed directory %s does not exist; run data preparation first", processedDir), err)
		}
		return nil, errors.NewDataLoadError(
			fmt.Sprintf("failed to read processed directory %s", processedDir), err)
	}

	registry := make(Registry)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".csv") {
			continue
		}

		stem := strings.TrimSuffix(entry.Name(), ".csv")
		path := filepath.Join(processedDir, entry.Name())
		table, err := dataset.ReadCSV(path, stem)
		if err != nil {
			return nil, errors.NewDataLoadError(
				fmt.Sprintf("failed to load processed table %s", entry.Name()), err).
				WithContext("path", path)
		}
		registry[stem] = table
	}

	if len(registry) == 0 {
		return nil, errors.NewDataLoadError(
			fmt.Sprintf("processed directory %s holds no tables; run data preparation first", processedDir), nil)
	}

	return registry, nil
}

// Get returns a table by name, or a load error naming the missing table.
func (r Registry) Get(name string) (*domain.Table, error) {
	table, ok := r[name]
	if !ok {
		return nil, errors.NewDataLoadError(
			fmt.Sprintf("processed table %s not found; run data preparation first", name), nil)
	}
	return table, nil
}

// Names returns the registered table names in sorted order.
func (r Registry) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
