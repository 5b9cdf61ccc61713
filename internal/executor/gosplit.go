package executor

import (
	"strconv"
	"strings"
)

// splitOnGo splits a multi-statement script into batches on lines that are,
// once trimmed, exactly "GO" (case-insensitive) or "GO <non-negative
// integer>". A repeat count duplicates the preceding batch that many times;
// "GO 0" is a valid separator executed once, matching original_source's
// split_on_go, which parses the suffix as usize and then clamps it with
// n.max(1) rather than rejecting zero. A line that merely starts with "GO "
// but carries a non-numeric or negative suffix is not a separator at all —
// parse failure means the line stays in the batch body.
func splitOnGo(script string) []string {
	var batches []string
	var current strings.Builder

	flush := func(repeat int) {
		batch := strings.TrimSpace(current.String())
		if batch != "" {
			for i := 0; i < repeat; i++ {
				batches = append(batches, batch)
			}
		}
		current.Reset()
	}

	for _, line := range strings.Split(script, "\n") {
		trimmed := strings.TrimSpace(line)

		isGo, repeat := false, 1
		switch {
		case strings.EqualFold(trimmed, "GO"):
			isGo = true
		case len(trimmed) > 3 && strings.EqualFold(trimmed[:3], "GO "):
			countStr := strings.TrimSpace(trimmed[3:])
			if n, err := strconv.Atoi(countStr); err == nil && n >= 0 {
				isGo = true
				repeat = max(n, 1)
			}
		}

		if isGo {
			flush(repeat)
			continue
		}

		if current.Len() > 0 {
			current.WriteByte('\n')
		}
		current.WriteString(line)
	}

	flush(1)
	return batches
}

// containsGoSeparator reports whether script has at least one line that
// would act as a GO batch separator under splitOnGo's rules.
func containsGoSeparator(script string) bool {
	for _, line := range strings.Split(script, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.EqualFold(trimmed, "GO") {
			return true
		}
		if len(trimmed) > 3 && strings.EqualFold(trimmed[:3], "GO ") {
			countStr := strings.TrimSpace(trimmed[3:])
			if n, err := strconv.Atoi(countStr); err == nil && n >= 0 {
				return true
			}
		}
	}
	return false
}

var batchFirstDDLPrefixes = []string{
	"CREATE VIEW", "CREATE PROCEDURE", "CREATE PROC", "CREATE FUNCTION", "CREATE TRIGGER",
	"ALTER VIEW", "ALTER PROCEDURE", "ALTER PROC", "ALTER FUNCTION", "ALTER TRIGGER",
}

// requiresRawExecution reports whether query is a batch-first DDL statement
// that SQL Server requires to be the sole statement in its batch.
func requiresRawExecution(query string, stripLeadingComments func(string) string) bool {
	normalized := strings.ToUpper(stripLeadingComments(strings.TrimSpace(query)))
	for _, prefix := range batchFirstDDLPrefixes {
		if strings.HasPrefix(normalized, prefix) {
			return true
		}
	}
	return false
}
