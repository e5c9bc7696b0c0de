package impact

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"iplcli/internal/errors"
)

func writeCSVFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestLoadTables(t *testing.T) {
	dir := t.TempDir()
	writeCSVFile(t, dir, "advertisers_with_risk.csv", "brand_name,health_risk_index\nPanPlus,100\n")
	writeCSVFile(t, dir, "demography.csv", "city_tier,total_viewers\nTier 1,\"120,000,000\"\n")
	writeCSVFile(t, dir, "notes.txt", "not a table")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "archive.csv"), 0755))

	registry, err := LoadTables(dir)
	require.NoError(t, err)

	assert.Equal(t, []string{"advertisers_with_risk", "demography"}, registry.Names())

	table, err := registry.Get("advertisers_with_risk")
	require.NoError(t, err)
	assert.Equal(t, 1, table.RowCount())
}

func TestLoadTables_MissingDirectory(t *testing.T) {
	_, err := LoadTables(filepath.Join(t.TempDir(), "never-created"))

	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeDataLoad))
	assert.Contains(t, err.Error(), "run data preparation first")
}

func TestLoadTables_EmptyDirectory(t *testing.T) {
	_, err := LoadTables(t.TempDir())

	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeDataLoad))
}

func TestLoadTables_UnreadableTable(t *testing.T) {
	dir := t.TempDir()
	writeCSVFile(t, dir, "demography.csv", "")

	_, err := LoadTables(dir)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeDataLoad))
	assert.Contains(t, err.Error(), "demography.csv")
}

func TestRegistryGet_Missing(t *testing.T) {
	registry := Registry{}

	_, err := registry.Get("contracts_processed")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeDataLoad))
	assert.Contains(t, err.Error(), "contracts_processed")
}
