package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praxiomlabs/mssql-mcp-server-sub000/internal/sqltypes"
)

func row(cols []sqltypes.ColumnMeta, vals []sqltypes.SqlValue) sqltypes.ResultRow {
	return sqltypes.NewResultRow(cols, vals)
}

func TestSchemaLiteralEscapesQuotesAndRejectsInjection(t *testing.T) {
	lit, err := schemaLiteral("dbo")
	require.NoError(t, err)
	assert.Equal(t, "'dbo'", lit)

	_, err = schemaLiteral("dbo'; DROP TABLE Users; --")
	assert.Error(t, err)
}

func TestSchemaFilterEmptyMeansNoFilter(t *testing.T) {
	f, err := schemaFilter("")
	require.NoError(t, err)
	assert.Empty(t, f)

	f, err = schemaFilter("dbo")
	require.NoError(t, err)
	assert.Equal(t, "AND s.name = 'dbo'", f)
}

func TestExtractHelpersHandleNullAndTypedValues(t *testing.T) {
	cols := []sqltypes.ColumnMeta{{Name: "a"}, {Name: "b"}, {Name: "c"}}
	r := row(cols, []sqltypes.SqlValue{
		sqltypes.FromString("hello"),
		sqltypes.FromI32(42),
		sqltypes.Null(),
	})

	assert.Equal(t, "hello", str(r, "a"))
	assert.Equal(t, int32(42), i32(r, "b"))
	assert.Nil(t, strPtr(r, "c"))
	assert.Nil(t, i32Ptr(r, "c"))
	assert.False(t, boolVal(r, "c"))
}

func TestExtractHelpersMissingColumnIsZeroValue(t *testing.T) {
	r := row(nil, nil)
	assert.Equal(t, "", str(r, "missing"))
	assert.Equal(t, int32(0), i32(r, "missing"))
	assert.Nil(t, i64Ptr(r, "missing"))
}
