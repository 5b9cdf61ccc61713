package sqltypes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sampleResult() QueryResult {
	cols := []ColumnMeta{{Name: "id", SQLType: "int"}, {Name: "name", SQLType: "nvarchar", Nullable: true}}
	return QueryResult{
		Columns: cols,
		Rows: []ResultRow{
			NewResultRow(cols, []SqlValue{FromI32(1), FromString("Alice")}),
			NewResultRow(cols, []SqlValue{FromI32(2), FromString("Bob")}),
		},
		ExecutionTimeMs: 5,
	}
}

func TestToMarkdownTable(t *testing.T) {
	md := sampleResult().ToMarkdownTable()
	assert.Contains(t, md, "| id | name |")
	assert.Contains(t, md, "| 1 | Alice |")
	assert.Contains(t, md, "| 2 | Bob |")
	assert.Contains(t, md, "2 row(s)")
}

func TestToMarkdownTableNoColumns(t *testing.T) {
	r := QueryResult{RowsAffected: 3}
	assert.Contains(t, r.ToMarkdownTable(), "3 row(s) affected")

	empty := QueryResult{}
	assert.Contains(t, empty.ToMarkdownTable(), "No results returned")
}

func TestToCSVQuotesSpecialChars(t *testing.T) {
	cols := []ColumnMeta{{Name: "id", SQLType: "int"}, {Name: "name", SQLType: "nvarchar"}}
	r := QueryResult{
		Columns: cols,
		Rows: []ResultRow{
			NewResultRow(cols, []SqlValue{FromI32(1), FromString("value, with comma")}),
		},
	}
	csv := r.ToCSV()
	assert.Contains(t, csv, "id,name")
	assert.Contains(t, csv, `"value, with comma"`)
}

func TestToCSVEmptyColumns(t *testing.T) {
	assert.Equal(t, "", QueryResult{}.ToCSV())
}
