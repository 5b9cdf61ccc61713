package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/praxiomlabs/mssql-mcp-server-sub000/internal/sqltypes"
)

func TestFormatSQLLiteralQuotesAndEscapesStrings(t *testing.T) {
	assert.Equal(t, "NULL", formatSQLLiteral(sqltypes.Null()))
	assert.Equal(t, "N'O''Brien'", formatSQLLiteral(sqltypes.FromString("O'Brien")))
	assert.Equal(t, "1", formatSQLLiteral(sqltypes.FromBool(true)))
	assert.Equal(t, "0", formatSQLLiteral(sqltypes.FromBool(false)))
}

func TestFormatSQLLiteralNumbersUseDisplay(t *testing.T) {
	assert.Equal(t, sqltypes.FromI32(7).Display(), formatSQLLiteral(sqltypes.FromI32(7)))
}

func TestFormatProcedureParamsEmptyIsBlank(t *testing.T) {
	assert.Equal(t, "", formatProcedureParams(nil))
	assert.Equal(t, "", formatProcedureParams(map[string]sqltypes.SqlValue{}))
}

func TestFormatProcedureParamsAddsAtPrefix(t *testing.T) {
	out := formatProcedureParams(map[string]sqltypes.SqlValue{
		"CustomerID": sqltypes.FromI32(42),
	})
	assert.Equal(t, " @CustomerID = 42", out)
}

func TestFormatProcedureParamsAcceptsAlreadyPrefixedName(t *testing.T) {
	out := formatProcedureParams(map[string]sqltypes.SqlValue{
		"@Name": sqltypes.FromString("Acme"),
	})
	assert.Equal(t, " @Name = N'Acme'", out)
}
