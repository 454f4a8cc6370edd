package fx

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFallback_ParsesTable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fallback.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"base":"USD","rates":{"EUR":0.92,"GBP":0.79},"dates":{"EUR":"2026-07-01"}}`), 0o644))

	table, err := LoadFallback(path)

	require.NoError(t, err)
	assert.Equal(t, "USD", table.Base)
	assert.Equal(t, 0.92, table.Rates["EUR"])
	assert.Equal(t, "2026-07-01", table.Dates["EUR"])
	assert.Equal(t, "fallback", table.Source)
}

func TestLoadFallback_MissingBaseIsError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fallback.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"rates":{"EUR":0.92}}`), 0o644))

	_, err := LoadFallback(path)

	assert.Error(t, err)
}

func TestLoadFallback_MissingFileIsError(t *testing.T) {
	_, err := LoadFallback(filepath.Join(t.TempDir(), "does-not-exist.json"))

	assert.Error(t, err)
}
