package invoices

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const migrationPath = "../../../db/migrations/0001_billing.sql"

// tableColumns returns the column definitions of one CREATE TABLE block keyed
// by column name.
func tableColumns(t *testing.T, ddl, table string) map[string]string {
	t.Helper()
	start := strings.Index(ddl, "CREATE TABLE IF NOT EXISTS "+table+" (")
	require.GreaterOrEqual(t, start, 0, "table %s not found", table)
	body := ddl[start:]
	body = body[strings.Index(body, "(")+1 : strings.Index(body, "\n);")]

	cols := make(map[string]string)
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSuffix(strings.TrimSpace(line), ",")
		fields := strings.Fields(line)
		if len(fields) < 2 || fields[0] == "CONSTRAINT" || fields[0] == "PRIMARY" {
			continue
		}
		cols[fields[0]] = strings.ToUpper(strings.Join(fields[1:], " "))
	}
	return cols
}

func TestSchemaAcceptsNilRepositoryBindings(t *testing.T) {
	data, err := os.ReadFile(filepath.FromSlash(migrationPath))
	require.NoError(t, err)
	ddl := string(data)

	// Columns written from pointer or NullDecimal fields of Item and Invoice.
	nullable := map[string][]string{
		"invoice_items": {"quantity", "unit", "unit_price", "amount", "source_product_id", "source_material_id"},
		"invoices":      {"site_id", "bank_account_id", "invoice_number", "invoice_sequence", "issued_at", "delivery_date", "valid_until"},
	}
	for table, columns := range nullable {
		defs := tableColumns(t, ddl, table)
		for _, col := range columns {
			def, ok := defs[col]
			require.True(t, ok, "%s.%s missing", table, col)
			require.NotContains(t, def, "NOT NULL", "%s.%s must accept NULL", table, col)
		}
	}
}
