package sqltypes

import (
	"fmt"
	"strings"
)

// ToMarkdownTable renders a QueryResult as a GitHub-flavored markdown table,
// or a one-line summary when there are no columns to show.
func (r QueryResult) ToMarkdownTable() string {
	if len(r.Columns) == 0 {
		if r.RowsAffected > 0 {
			return fmt.Sprintf("Query executed successfully. %d row(s) affected.", r.RowsAffected)
		}
		return "Query executed successfully. No results returned."
	}

	var b strings.Builder

	headers := make([]string, len(r.Columns))
	for i, c := range r.Columns {
		headers[i] = c.Name
	}
	b.WriteString("| ")
	b.WriteString(strings.Join(headers, " | "))
	b.WriteString(" |\n| ")

	seps := make([]string, len(headers))
	for i, h := range headers {
		n := len(h)
		if n < 3 {
			n = 3
		}
		seps[i] = strings.Repeat("-", n)
	}
	b.WriteString(strings.Join(seps, " | "))
	b.WriteString(" |\n")

	for _, row := range r.Rows {
		b.WriteString("| ")
		values := make([]string, len(r.Columns))
		for i, c := range r.Columns {
			v, ok := row.Values[c.Name]
			if !ok || v.IsNull() {
				values[i] = "NULL"
			} else {
				values[i] = v.Display()
			}
		}
		b.WriteString(strings.Join(values, " | "))
		b.WriteString(" |\n")
	}

	b.WriteString(fmt.Sprintf("\n_%d row(s)_", len(r.Rows)))
	if r.Truncated {
		b.WriteString(" _(truncated)_")
	}
	b.WriteString(fmt.Sprintf(" _(%d ms)_", r.ExecutionTimeMs))

	return b.String()
}

// ToCSV renders a QueryResult as CSV, quoting fields containing a comma,
// double quote, or newline, and doubling embedded quotes.
func (r QueryResult) ToCSV() string {
	if len(r.Columns) == 0 {
		return ""
	}

	var b strings.Builder

	headers := make([]string, len(r.Columns))
	for i, c := range r.Columns {
		headers[i] = c.Name
	}
	b.WriteString(strings.Join(headers, ","))
	b.WriteByte('\n')

	for _, row := range r.Rows {
		values := make([]string, len(r.Columns))
		for i, c := range r.Columns {
			v, ok := row.Values[c.Name]
			var s string
			if ok {
				s = v.Display()
			}
			values[i] = csvEscape(s)
		}
		b.WriteString(strings.Join(values, ","))
		b.WriteByte('\n')
	}

	return b.String()
}

func csvEscape(s string) string {
	if strings.ContainsAny(s, ",\"\n") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}
