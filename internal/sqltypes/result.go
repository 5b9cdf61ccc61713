package sqltypes

import (
	"bytes"
	"encoding/json"
)

func marshalJSONString(s string) ([]byte, error) {
	return json.Marshal(s)
}

// ColumnMeta describes one column of a QueryResult, as produced by the
// driver's column metadata and normalized by the Type Mapper.
type ColumnMeta struct {
	Name     string `json:"name"`
	SQLType  string `json:"sql_type"`
	Nullable bool   `json:"nullable"`
}

// ResultRow is an ordered mapping of column name to SqlValue. It keeps the
// column order alongside a map for O(1) lookup by name.
type ResultRow struct {
	Values map[string]SqlValue `json:"-"`
	order  []string
}

func NewResultRow(columns []ColumnMeta, values []SqlValue) ResultRow {
	row := ResultRow{
		Values: make(map[string]SqlValue, len(columns)),
		order:  make([]string, len(columns)),
	}
	for i, c := range columns {
		row.Values[c.Name] = values[i]
		row.order[i] = c.Name
	}
	return row
}

// Ordered returns the row's values in column order, for CSV/positional output.
func (r ResultRow) Ordered() []SqlValue {
	out := make([]SqlValue, len(r.order))
	for i, name := range r.order {
		out[i] = r.Values[name]
	}
	return out
}

func (r ResultRow) MarshalJSON() ([]byte, error) {
	return marshalOrderedRow(r.order, r.Values)
}

func marshalOrderedRow(order []string, values map[string]SqlValue) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshalJSONString(name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := values[name].MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// QueryResult is the unit of result exchange across the gateway: returned by
// the executor, cached by the query cache, and serialized to the MCP client.
type QueryResult struct {
	Columns         []ColumnMeta `json:"columns"`
	Rows            []ResultRow  `json:"rows"`
	RowsAffected    int64        `json:"rows_affected"`
	ExecutionTimeMs int64        `json:"execution_time_ms"`
	Truncated       bool         `json:"truncated"`
}

// SizeBytes estimates the in-memory footprint of a result for cache
// accounting purposes, summing each value's SizeBytes plus a fixed per-row
// and per-column overhead.
func (r QueryResult) SizeBytes() int {
	const rowOverhead = 16
	const colOverhead = 32
	size := len(r.Columns) * colOverhead
	for _, row := range r.Rows {
		size += rowOverhead
		for _, v := range row.Values {
			size += v.SizeBytes()
		}
	}
	return size
}
