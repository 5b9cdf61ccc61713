package sqltypes

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultRowOrderedAndJSON(t *testing.T) {
	cols := []ColumnMeta{{Name: "id", SQLType: "int", Nullable: false}, {Name: "name", SQLType: "nvarchar", Nullable: true}}
	row := NewResultRow(cols, []SqlValue{FromI32(1), FromString("Ada")})

	ordered := row.Ordered()
	require.Len(t, ordered, 2)
	assert.Equal(t, int32(1), ordered[0].I32)
	assert.Equal(t, "Ada", ordered[1].Str)

	b, err := json.Marshal(row)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1,"name":"Ada"}`, string(b))
}

func TestQueryResultSizeBytes(t *testing.T) {
	cols := []ColumnMeta{{Name: "id", SQLType: "int"}}
	qr := QueryResult{
		Columns: cols,
		Rows: []ResultRow{
			NewResultRow(cols, []SqlValue{FromI32(1)}),
			NewResultRow(cols, []SqlValue{FromI32(2)}),
		},
	}
	assert.Greater(t, qr.SizeBytes(), 0)
}
