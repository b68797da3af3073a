package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	entries, err := fs.ReadDir(files, "sql")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		default:
			t.Fatalf("unexpected file %s", name)
		}
	}
	require.Equal(t, ups, downs)
}

func TestSchemaDefinesPricingTables(t *testing.T) {
	data, err := fs.ReadFile(files, "sql/000001_pricing_schema.up.sql")
	require.NoError(t, err)
	schema := string(data)
	for _, table := range []string{"products", "business_settings", "zip_tax_rates"} {
		require.Contains(t, schema, "CREATE TABLE IF NOT EXISTS "+table)
	}
}
