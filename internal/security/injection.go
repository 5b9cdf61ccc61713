package security

import (
	"regexp"
	"strings"

	"github.com/praxiomlabs/mssql-mcp-server-sub000/internal/dberrors"
)

type injectionPattern struct {
	re          *regexp.Regexp
	description string
}

// injectionPatterns is the fixed, precompiled regex set ported from
// original_source/src/security/injection.rs. Note that these patterns match
// against the full query string, including quoted literals — a quoted
// literal that happens to contain e.g. "xp_cmdshell" will trip the detector.
// This is a deliberate, documented positive-signal policy, not a bug;
// callers who need exceptions disable injection detection.
var injectionPatterns = []injectionPattern{
	{regexp.MustCompile(`--\s*$`), "SQL line comment at end of input"},
	{regexp.MustCompile(`(?s)/\*.*\*/`), "SQL block comment"},
	{regexp.MustCompile(`(?i)\bUNION\s+(ALL\s+)?SELECT\b`), "UNION SELECT injection"},
	{regexp.MustCompile(`(?i)'\s*OR\s+'[^']*'\s*=\s*'`), "OR tautology injection"},
	{regexp.MustCompile(`(?i)'\s*OR\s+1\s*=\s*1`), "OR 1=1 injection (string context)"},
	{regexp.MustCompile(`(?i)\bOR\s+1\s*=\s*1\b`), "OR 1=1 injection"},
	{regexp.MustCompile(`(?i)'\s*AND\s+'[^']*'\s*=\s*'`), "AND tautology injection"},
	{regexp.MustCompile(`(?i);\s*(SELECT|INSERT|UPDATE|DELETE|DROP|EXEC|EXECUTE|CREATE|ALTER|TRUNCATE)\b`), "Stacked query injection"},
	{regexp.MustCompile(`(?i)\bWAITFOR\s+DELAY\b`), "Time-based blind injection (WAITFOR)"},
	{regexp.MustCompile(`(?i)\bxp_cmdshell\b`), "xp_cmdshell execution attempt"},
	{regexp.MustCompile(`(?i)\bxp_reg\w+\b`), "Registry access attempt"},
	{regexp.MustCompile(`(?i)\bsp_oacreate\b`), "OLE automation attempt"},
	{regexp.MustCompile(`(?i)\bINFORMATION_SCHEMA\b.*\bWHERE\b.*=`), "Schema enumeration with filter"},
	{regexp.MustCompile(`0x[0-9a-fA-F]{10,}`), "Long hex-encoded string"},
	{regexp.MustCompile(`(?i)CHAR\s*\(\s*\d+\s*\)(\s*\+\s*CHAR\s*\(\s*\d+\s*\)){3,}`), "CHAR() obfuscation"},
}

var valueInjectionPatterns = []injectionPattern{
	{regexp.MustCompile(`'--`), "Comment injection in value"},
	{regexp.MustCompile(`';`), "Statement terminator in value"},
	{regexp.MustCompile(`' OR `), "OR injection in value"},
	{regexp.MustCompile(`' AND `), "AND injection in value"},
	{regexp.MustCompile(`UNION SELECT`), "UNION injection in value"},
}

// InjectionDetector scans full query text (Check) or individual bound
// parameter values (CheckValue) for common SQL-injection patterns.
type InjectionDetector struct {
	enabled bool
}

func NewInjectionDetector(enabled bool) *InjectionDetector {
	return &InjectionDetector{enabled: enabled}
}

func (d *InjectionDetector) Check(query string) error {
	if !d.enabled {
		return nil
	}
	for _, p := range injectionPatterns {
		if p.re.MatchString(query) {
			return dberrors.InjectionDetected(p.description)
		}
	}
	return nil
}

func (d *InjectionDetector) CheckValue(value string) error {
	if !d.enabled {
		return nil
	}
	upper := strings.ToUpper(value)
	for _, p := range valueInjectionPatterns {
		if p.re.MatchString(upper) {
			return dberrors.InjectionDetected(p.description)
		}
	}
	return nil
}
