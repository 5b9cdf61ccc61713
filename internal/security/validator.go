package security

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/praxiomlabs/mssql-mcp-server-sub000/internal/dberrors"
)

// Mode is the active query validation policy.
type Mode int

const (
	ModeReadOnly Mode = iota
	ModeStandard
	ModeUnrestricted
)

func ParseMode(s string) (Mode, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "READONLY", "READ_ONLY", "READ-ONLY":
		return ModeReadOnly, nil
	case "STANDARD", "":
		return ModeStandard, nil
	case "UNRESTRICTED":
		return ModeUnrestricted, nil
	default:
		return 0, fmt.Errorf("unknown validation mode %q", s)
	}
}

func (m Mode) String() string {
	switch m {
	case ModeReadOnly:
		return "ReadOnly"
	case ModeStandard:
		return "Standard"
	case ModeUnrestricted:
		return "Unrestricted"
	default:
		return "Unknown"
	}
}

// QueryType is the detected prefix classification of a query.
type QueryType int

const (
	QuerySelect QueryType = iota
	QueryInsert
	QueryUpdate
	QueryDelete
	QueryCreate
	QueryAlter
	QueryDrop
	QueryTruncate
	QueryExecute
	QueryMerge
	QueryGrant
	QueryRevoke
	QueryOther
)

func (t QueryType) String() string {
	switch t {
	case QuerySelect:
		return "Select"
	case QueryInsert:
		return "Insert"
	case QueryUpdate:
		return "Update"
	case QueryDelete:
		return "Delete"
	case QueryCreate:
		return "Create"
	case QueryAlter:
		return "Alter"
	case QueryDrop:
		return "Drop"
	case QueryTruncate:
		return "Truncate"
	case QueryExecute:
		return "Execute"
	case QueryMerge:
		return "Merge"
	case QueryGrant:
		return "Grant"
	case QueryRevoke:
		return "Revoke"
	default:
		return "Other"
	}
}

func (t QueryType) IsRead() bool { return t == QuerySelect }

func (t QueryType) IsDML() bool {
	switch t {
	case QuerySelect, QueryInsert, QueryUpdate, QueryDelete:
		return true
	}
	return false
}

func (t QueryType) IsDDL() bool {
	switch t {
	case QueryCreate, QueryAlter, QueryDrop, QueryTruncate:
		return true
	}
	return false
}

type queryTypePattern struct {
	re   *regexp.Regexp
	kind QueryType
}

var queryTypePatterns = []queryTypePattern{
	{regexp.MustCompile(`(?i)^\s*SELECT\b`), QuerySelect},
	{regexp.MustCompile(`(?i)^\s*WITH\b`), QuerySelect},
	{regexp.MustCompile(`(?i)^\s*INSERT\b`), QueryInsert},
	{regexp.MustCompile(`(?i)^\s*UPDATE\b`), QueryUpdate},
	{regexp.MustCompile(`(?i)^\s*DELETE\b`), QueryDelete},
	{regexp.MustCompile(`(?i)^\s*CREATE\b`), QueryCreate},
	{regexp.MustCompile(`(?i)^\s*ALTER\b`), QueryAlter},
	{regexp.MustCompile(`(?i)^\s*DROP\b`), QueryDrop},
	{regexp.MustCompile(`(?i)^\s*TRUNCATE\b`), QueryTruncate},
	{regexp.MustCompile(`(?i)^\s*EXEC\b`), QueryExecute},
	{regexp.MustCompile(`(?i)^\s*EXECUTE\b`), QueryExecute},
	{regexp.MustCompile(`(?i)^\s*MERGE\b`), QueryMerge},
	{regexp.MustCompile(`(?i)^\s*GRANT\b`), QueryGrant},
	{regexp.MustCompile(`(?i)^\s*REVOKE\b`), QueryRevoke},
}

type dangerousKeyword struct {
	re   *regexp.Regexp
	name string
}

var dangerousKeywords = []dangerousKeyword{
	{regexp.MustCompile(`(?i)\bxp_\w+`), "xp_ extended stored procedure"},
	{regexp.MustCompile(`(?i)\bsp_oa\w+`), "sp_oa OLE automation procedure"},
	{regexp.MustCompile(`(?i)\bsp_configure\b`), "sp_configure"},
	{regexp.MustCompile(`(?i)\bsp_addlogin\b`), "sp_addlogin"},
	{regexp.MustCompile(`(?i)\bsp_droplogin\b`), "sp_droplogin"},
	{regexp.MustCompile(`(?i)\bsp_addsrvrolemember\b`), "sp_addsrvrolemember"},
	{regexp.MustCompile(`(?i)\bBULK\s+INSERT\b`), "BULK INSERT"},
	{regexp.MustCompile(`(?i)\bOPENROWSET\b`), "OPENROWSET"},
	{regexp.MustCompile(`(?i)\bOPENDATASOURCE\b`), "OPENDATASOURCE"},
	{regexp.MustCompile(`(?i)\bOPENQUERY\b`), "OPENQUERY"},
	{regexp.MustCompile(`(?i)\bBACKUP\b`), "BACKUP"},
	{regexp.MustCompile(`(?i)\bRESTORE\b`), "RESTORE"},
	{regexp.MustCompile(`(?i)\bSHUTDOWN\b`), "SHUTDOWN"},
}

var safeExecPattern = regexp.MustCompile(
	`(?i)^\s*EXEC(UTE)?\s+(sp_help|sp_columns|sp_tables|sp_stored_procedures|sp_fkeys|sp_pkeys)\b`)

// Stats tracks validator activity, mirroring the teacher's ValidationStats in
// server/sql_validator.go.
type Stats struct {
	mu              sync.Mutex
	TotalValidated  uint64
	TotalRejected   uint64
	InjectionHits   uint64
	ByQueryType     map[string]uint64
}

func newStats() *Stats {
	return &Stats{ByQueryType: make(map[string]uint64)}
}

func (s *Stats) recordValidated(qt QueryType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.TotalValidated++
	s.ByQueryType[qt.String()]++
}

func (s *Stats) recordRejected() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.TotalRejected++
}

func (s *Stats) recordInjection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.InjectionHits++
}

// Snapshot returns a copy of the current counters.
func (s *Stats) Snapshot() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make(map[string]uint64, len(s.ByQueryType))
	for k, v := range s.ByQueryType {
		cp[k] = v
	}
	return Stats{TotalValidated: s.TotalValidated, TotalRejected: s.TotalRejected,
		InjectionHits: s.InjectionHits, ByQueryType: cp}
}

// Result is the outcome of validating one query.
type Result struct {
	Valid     bool
	QueryType QueryType
}

// Validator enforces the active Mode against incoming queries and
// (optionally) runs the injection detector.
type Validator struct {
	mode              Mode
	maxQueryLength    int
	injectionDetector *InjectionDetector
	stats             *Stats
}

func NewValidator(mode Mode, maxQueryLength int, injectionDetectionEnabled bool) *Validator {
	return &Validator{
		mode:              mode,
		maxQueryLength:    maxQueryLength,
		injectionDetector: NewInjectionDetector(injectionDetectionEnabled),
		stats:             newStats(),
	}
}

func (v *Validator) Mode() Mode { return v.mode }

func (v *Validator) Stats() Stats { return v.stats.Snapshot() }

// Validate enforces length, mode policy, and (if enabled) injection
// detection, in that order, matching original_source's QueryValidator.validate.
func (v *Validator) Validate(query string) (Result, error) {
	if len(query) > v.maxQueryLength {
		v.stats.recordRejected()
		return Result{}, dberrors.ValidationFailed(
			fmt.Sprintf("query exceeds maximum length of %d bytes", v.maxQueryLength))
	}

	qt := DetectQueryType(query)

	var err error
	switch v.mode {
	case ModeReadOnly:
		err = v.validateReadOnly(qt)
	case ModeStandard:
		err = v.validateStandard(query, qt)
	case ModeUnrestricted:
		err = nil
	}
	if err != nil {
		v.stats.recordRejected()
		return Result{}, err
	}

	if err := v.injectionDetector.Check(query); err != nil {
		v.stats.recordInjection()
		v.stats.recordRejected()
		return Result{}, err
	}

	v.stats.recordValidated(qt)
	return Result{Valid: true, QueryType: qt}, nil
}

func (v *Validator) validateReadOnly(qt QueryType) error {
	if qt.IsRead() {
		return nil
	}
	return dberrors.ValidationFailed(fmt.Sprintf(
		"query type %s is not allowed in read-only mode; only SELECT queries are permitted", qt))
}

func (v *Validator) validateStandard(query string, qt QueryType) error {
	if qt.IsDDL() {
		return dberrors.ValidationFailed(fmt.Sprintf(
			"query type %s is not allowed in standard mode; DDL operations are blocked", qt))
	}
	if qt == QueryGrant || qt == QueryRevoke {
		return dberrors.ValidationFailed("permission operations (GRANT/REVOKE) are not allowed in standard mode")
	}
	if qt == QueryExecute {
		if !safeExecPattern.MatchString(query) {
			return dberrors.ValidationFailed("arbitrary EXEC/EXECUTE is not allowed in standard mode")
		}
	}
	for _, dk := range dangerousKeywords {
		if dk.re.MatchString(query) {
			return dberrors.ValidationFailed(fmt.Sprintf(
				"dangerous keyword %q is not allowed in standard mode", dk.name))
		}
	}
	return nil
}

// DetectQueryType classifies a query's first keyword after stripping leading
// whitespace and leading line/block comments.
func DetectQueryType(query string) QueryType {
	trimmed := removeLeadingComments(query)
	for _, p := range queryTypePatterns {
		if p.re.MatchString(trimmed) {
			return p.kind
		}
	}
	return QueryOther
}

// StripLeadingComments removes leading whitespace and line/block comments
// from query, for callers outside this package that need the same
// comment-skipping rule (e.g. the executor's batch-first DDL detection).
func StripLeadingComments(query string) string {
	return removeLeadingComments(query)
}

func removeLeadingComments(query string) string {
	result := query
	for {
		trimmed := strings.TrimLeft(result, " \t\r\n")

		if strings.HasPrefix(trimmed, "--") {
			if nl := strings.IndexByte(trimmed, '\n'); nl >= 0 {
				result = trimmed[nl+1:]
				continue
			}
			return ""
		}

		if strings.HasPrefix(trimmed, "/*") {
			if end := strings.Index(trimmed, "*/"); end >= 0 {
				result = trimmed[end+2:]
				continue
			}
			return ""
		}

		return trimmed
	}
}
