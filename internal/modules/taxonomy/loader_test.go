package taxonomy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTaxonomyFile(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "taxonomy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeTaxonomyFile(t, `
non_rebalanceable_classes:
  - Real Estate

sub_classes:
  Equity:
    - equity_us
    - equity_eu
  Bonds:
    - bonds_gov
  Real Estate:
    - re_home
`)

	tax, err := Load(path, zerolog.Nop())
	require.NoError(t, err)

	assert.False(t, tax.IsRebalanceable("Real Estate"))
	assert.True(t, tax.IsRebalanceable("Equity"))

	parent, ok := tax.ParentOf("bonds_gov")
	require.True(t, ok)
	assert.Equal(t, "Bonds", parent)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), zerolog.Nop())
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeTaxonomyFile(t, "sub_classes: [not: a: map")
	_, err := Load(path, zerolog.Nop())
	assert.Error(t, err)
}

func TestLoad_InvalidTaxonomy(t *testing.T) {
	path := writeTaxonomyFile(t, `
sub_classes:
  Equity:
    - shared
  Bonds:
    - shared
`)
	_, err := Load(path, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shared")
}
