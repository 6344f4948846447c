package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadAssignsRowOrderIndices(t *testing.T) {
	path := writeCatalog(t, "query,sku_name,maker\nFX1,FX-1,Acme\nKXSDR,KX-SDR,Beta\n便座,TC-100,Gamma\n")

	specs, err := Load(path, nil)
	require.NoError(t, err)
	require.Len(t, specs, 3)

	for i, spec := range specs {
		assert.Equal(t, i, spec.Index)
	}
	assert.Equal(t, "FX1", specs[0].Query)
	assert.Equal(t, "便座", specs[2].Query)
	require.Len(t, specs[0].ExpectedFields, 2)
	assert.Equal(t, "sku_name", specs[0].ExpectedFields[0].Name)
	assert.Equal(t, "FX-1", specs[0].ExpectedFields[0].Value)
}

func TestLoadToleratesByteOrderMark(t *testing.T) {
	path := writeCatalog(t, "\xEF\xBB\xBFquery,sku_name\nFX1,FX-1\n")

	specs, err := Load(path, nil)
	require.NoError(t, err)
	require.Len(t, specs, 1)
	assert.Equal(t, "FX1", specs[0].Query)
}

func TestLoadNotApplicableSentinel(t *testing.T) {
	path := writeCatalog(t, "query,sku_name,price\nFX1,FX-1,N/A\n")

	specs, err := Load(path, nil)
	require.NoError(t, err)
	require.Len(t, specs[0].ExpectedFields, 2)
	assert.True(t, specs[0].ExpectedFields[0].Applicable)
	assert.False(t, specs[0].ExpectedFields[1].Applicable)
	assert.Equal(t, "N/A", specs[0].ExpectedFields[1].Value)
}

func TestLoadExplicitColumnMapping(t *testing.T) {
	path := writeCatalog(t, "id,顧客入力,sku_name,notes\n1,FX1,FX-1,skip me\n")

	cfg := &Config{
		QueryColumn:   "顧客入力",
		FieldColumns:  []string{"sku_name"},
		NotApplicable: DefaultNotApplicable,
	}
	specs, err := Load(path, cfg)
	require.NoError(t, err)
	require.Len(t, specs, 1)
	assert.Equal(t, "FX1", specs[0].Query)
	require.Len(t, specs[0].ExpectedFields, 1)
	assert.Equal(t, "sku_name", specs[0].ExpectedFields[0].Name)
}

func TestLoadMissingColumn(t *testing.T) {
	path := writeCatalog(t, "query,sku_name\nFX1,FX-1\n")

	_, err := Load(path, &Config{QueryColumn: "nope", NotApplicable: DefaultNotApplicable})
	require.Error(t, err)

	_, err = Load(path, &Config{FieldColumns: []string{"missing"}, NotApplicable: DefaultNotApplicable})
	require.Error(t, err)
}

func TestLoadEmptyFile(t *testing.T) {
	path := writeCatalog(t, "")
	_, err := Load(path, nil)
	require.Error(t, err)
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "suite.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("query_column: q\nfield_columns: [a, b]\n"), 0644))

	cfg, err := LoadConfig(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "q", cfg.QueryColumn)
	assert.Equal(t, []string{"a", "b"}, cfg.FieldColumns)
	assert.Equal(t, DefaultNotApplicable, cfg.NotApplicable)

	_, err = LoadConfig(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
}

func TestFieldColumns(t *testing.T) {
	path := writeCatalog(t, "query,sku_name,maker\nFX1,FX-1,Acme\n")
	specs, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"sku_name", "maker"}, FieldColumns(specs))
	assert.Nil(t, FieldColumns(nil))
}
