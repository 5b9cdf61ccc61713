// Package security implements identifier escaping, mode-based query
// validation, and SQL-injection pattern detection, grounded on
// original_source/src/security/{identifiers,validation,injection}.rs and
// restructured into the teacher's SQLValidator shape (server/sql_validator.go:
// compiled regex table + stats + mutex) generalized from MySQL to T-SQL.
package security

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// MaxIdentifierLength is the longest identifier the escaper accepts.
const MaxIdentifierLength = 128

var forbiddenIdentifierSubstrings = []string{"--", "/*", "*/", ";", "'", "\"", "\\", "\x00"}

// ValidateIdentifier rejects empty or over-length identifiers, and any
// identifier containing a comment marker, statement terminator, quote,
// backslash, or NUL byte.
func ValidateIdentifier(s string) error {
	if s == "" {
		return fmt.Errorf("identifier must not be empty")
	}
	if len(s) > MaxIdentifierLength {
		return fmt.Errorf("identifier exceeds maximum length of %d bytes", MaxIdentifierLength)
	}
	for _, bad := range forbiddenIdentifierSubstrings {
		if strings.Contains(s, bad) {
			return fmt.Errorf("identifier contains forbidden sequence %q", bad)
		}
	}
	return nil
}

// EscapeSingleIdentifier brackets one identifier part (no dot-splitting).
// If the trimmed body already starts with "[" and ends with "]", its existing
// bracket wrapper is used as-is (the inner content, between the first "[" and the last "]",
// is NOT re-escaped) — matching original_source's escape_single_identifier,
// which strips only a matching outer pair. Otherwise every "]" in the body
// is doubled and the whole thing is wrapped.
func EscapeSingleIdentifier(s string) (string, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return "", fmt.Errorf("identifier must not be empty")
	}
	if len(trimmed) > MaxIdentifierLength {
		return "", fmt.Errorf("identifier exceeds maximum length of %d bytes", MaxIdentifierLength)
	}

	if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") && len(trimmed) >= 2 {
		inner := trimmed[1 : len(trimmed)-1]
		return "[" + inner + "]", nil
	}

	escaped := strings.ReplaceAll(trimmed, "]", "]]")
	return "[" + escaped + "]", nil
}

// EscapeIdentifier escapes an identifier for safe substitution into SQL. A
// single embedded dot splits the input once into (schema, name), each
// escaped independently and rejoined with ".". No dot means the whole string
// is one identifier.
func EscapeIdentifier(s string) (string, error) {
	if idx := strings.Index(s, "."); idx >= 0 {
		schema, name := s[:idx], s[idx+1:]
		escSchema, err := EscapeSingleIdentifier(schema)
		if err != nil {
			return "", err
		}
		escName, err := EscapeSingleIdentifier(name)
		if err != nil {
			return "", err
		}
		return escSchema + "." + escName, nil
	}
	return EscapeSingleIdentifier(s)
}

// SafeIdentifier validates the identifier, warns (never errors) if any part
// is a reserved keyword and not already bracket-wrapped, then escapes it.
// This is the default flow the facade calls — the stricter
// validate-and-error variant from original_source is intentionally not
// exposed here, per the spec's "warning, never an error" requirement.
func SafeIdentifier(s string) (string, error) {
	if err := ValidateIdentifier(s); err != nil {
		return "", err
	}
	warnIfReserved(s)
	return EscapeIdentifier(s)
}

func warnIfReserved(s string) {
	parts := strings.Split(s, ".")
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if strings.HasPrefix(trimmed, "[") {
			continue
		}
		if IsReservedKeyword(trimmed) {
			log.Warn().Str("component", "security").Str("identifier", trimmed).
				Msg("identifier matches a reserved T-SQL keyword; consider escaping explicitly")
		}
	}
}

// ParseQualifiedName splits "schema.name" into its two parts; with no dot,
// schema is empty and name is the whole input.
func ParseQualifiedName(s string) (schema, name string) {
	if idx := strings.Index(s, "."); idx >= 0 {
		return s[:idx], s[idx+1:]
	}
	return "", s
}

// IsReservedKeyword reports whether s (case-insensitively) is a T-SQL/ANSI
// reserved keyword or common built-in function name.
func IsReservedKeyword(s string) bool {
	_, ok := reservedKeywords[strings.ToUpper(strings.TrimSpace(s))]
	return ok
}
