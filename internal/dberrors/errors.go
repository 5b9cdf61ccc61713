// Package dberrors implements the gateway's tagged error taxonomy: a small
// closed set of variants, a SQL Server error-code -> variant mapping, and a
// transient-error classification used by the retry policy. The taxonomy is
// ported directly from original_source's McpError enum; this package just
// gives it a Go-idiomatic shape (a struct with a Code discriminator and
// Unwrap-able wrapped cause) instead of a Rust enum.
package dberrors

import "fmt"

// Code discriminates the error variant.
type Code int

const (
	CodeConfig Code = iota
	CodeConnection
	CodeAuthentication
	CodeDatabaseNotFound
	CodeObjectNotFound
	CodePermissionDenied
	CodeValidationFailed
	CodeInjectionDetected
	CodeQueryExecution
	CodeTimeout
	CodeCircuitOpen
	CodeConstraintViolation
	CodeDataTruncation
	CodeSession
	CodeSessionNotFound
	CodeResourceNotFound
	CodeInvalidInput
	CodeInternal
)

func (c Code) String() string {
	switch c {
	case CodeConfig:
		return "Config"
	case CodeConnection:
		return "Connection"
	case CodeAuthentication:
		return "Authentication"
	case CodeDatabaseNotFound:
		return "DatabaseNotFound"
	case CodeObjectNotFound:
		return "ObjectNotFound"
	case CodePermissionDenied:
		return "PermissionDenied"
	case CodeValidationFailed:
		return "ValidationFailed"
	case CodeInjectionDetected:
		return "InjectionDetected"
	case CodeQueryExecution:
		return "QueryExecution"
	case CodeTimeout:
		return "Timeout"
	case CodeCircuitOpen:
		return "CircuitOpen"
	case CodeConstraintViolation:
		return "ConstraintViolation"
	case CodeDataTruncation:
		return "DataTruncation"
	case CodeSession:
		return "Session"
	case CodeSessionNotFound:
		return "SessionNotFound"
	case CodeResourceNotFound:
		return "ResourceNotFound"
	case CodeInvalidInput:
		return "InvalidInput"
	case CodeInternal:
		return "Internal"
	default:
		return "Unknown"
	}
}

// Error is the gateway's tagged error type. Only the fields relevant to the
// Code are populated.
type Error struct {
	Code           Code
	Message        string
	ObjectType     string // ObjectNotFound
	ObjectName     string // ObjectNotFound
	SQLCode        *int   // QueryExecution
	SQLState       string // QueryExecution
	TimeoutSeconds int    // Timeout
	RetryAfterSecs int    // CircuitOpen
	cause          error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Code.String()
}

func (e *Error) Unwrap() error { return e.cause }

// New constructs a bare variant with a message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap constructs a Connection-like variant carrying an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

func Config(msg string) *Error       { return New(CodeConfig, msg) }
func Connection(msg string) *Error   { return New(CodeConnection, msg) }
func ConnectionWrap(msg string, cause error) *Error {
	return Wrap(CodeConnection, msg, cause)
}
func Authentication(msg string) *Error   { return New(CodeAuthentication, msg) }
func DatabaseNotFound(msg string) *Error { return New(CodeDatabaseNotFound, msg) }
func ObjectNotFound(objectType, name string) *Error {
	return &Error{Code: CodeObjectNotFound, ObjectType: objectType, ObjectName: name,
		Message: fmt.Sprintf("%s not found: %s", objectType, name)}
}
func PermissionDenied(msg string) *Error  { return New(CodePermissionDenied, msg) }
func ValidationFailed(msg string) *Error  { return New(CodeValidationFailed, msg) }
func InjectionDetected(msg string) *Error { return New(CodeInjectionDetected, msg) }
func QueryExecution(msg string, sqlCode *int, sqlState string) *Error {
	return &Error{Code: CodeQueryExecution, Message: msg, SQLCode: sqlCode, SQLState: sqlState}
}
func Timeout(seconds int) *Error {
	return &Error{Code: CodeTimeout, TimeoutSeconds: seconds,
		Message: fmt.Sprintf("operation timed out after %d seconds", seconds)}
}
func CircuitOpen(retryAfterSecs int) *Error {
	return &Error{Code: CodeCircuitOpen, RetryAfterSecs: retryAfterSecs,
		Message: fmt.Sprintf("circuit open, retry after %d seconds", retryAfterSecs)}
}
func ConstraintViolation(msg string) *Error { return New(CodeConstraintViolation, msg) }
func DataTruncation(msg string) *Error      { return New(CodeDataTruncation, msg) }
func Session(msg string) *Error             { return New(CodeSession, msg) }
func SessionNotFound(id string) *Error {
	return New(CodeSessionNotFound, fmt.Sprintf("session not found: %s", id))
}
func ResourceNotFound(msg string) *Error { return New(CodeResourceNotFound, msg) }
func InvalidInput(msg string) *Error     { return New(CodeInvalidInput, msg) }
func Internal(msg string) *Error         { return New(CodeInternal, msg) }

// IsTransient reports whether the retry policy should consider this error
// class safe to retry: Connection, Timeout, CircuitOpen always;
// QueryExecution only for a known transient SQL Server error code.
func IsTransient(err error) bool {
	e, ok := err.(*Error)
	if !ok {
		return false
	}
	switch e.Code {
	case CodeConnection, CodeTimeout, CodeCircuitOpen:
		return true
	case CodeQueryExecution:
		if e.SQLCode == nil {
			return false
		}
		return transientSQLCodes[*e.SQLCode]
	default:
		return false
	}
}

var transientSQLCodes = map[int]bool{
	-2: true, -1: true, 1205: true,
	10053: true, 10054: true, 10060: true,
	40197: true, 40501: true, 40613: true,
	49918: true, 49919: true, 49920: true,
}

// Suggestion returns the stable, user-facing remediation string for a given
// variant. Ported in meaning from original_source's McpError::suggestion().
func Suggestion(err error) string {
	e, ok := err.(*Error)
	if !ok {
		return ""
	}
	switch e.Code {
	case CodeConfig:
		return "Check the gateway configuration for missing or malformed values."
	case CodeConnection:
		return "Verify the server is reachable and the network/firewall allows the connection."
	case CodeAuthentication:
		return "Check the username and password, and verify the login is not locked out."
	case CodeDatabaseNotFound:
		return "Verify the database name and that the login has access to it."
	case CodeObjectNotFound:
		return "Check the object name and schema; verify it exists and the login can see it."
	case CodePermissionDenied:
		return "Grant the required permission to the login, or use a different account."
	case CodeValidationFailed:
		return "Adjust the query to comply with the active security validation mode."
	case CodeInjectionDetected:
		return "The query was rejected because it matched a known SQL-injection pattern; rewrite it without the flagged construct."
	case CodeQueryExecution:
		return "Review the query for syntax or semantic errors against the current schema."
	case CodeTimeout:
		return "The query took too long; consider raising the timeout or adding a more selective predicate."
	case CodeCircuitOpen:
		return "The database is temporarily unavailable; wait for the retry window before trying again."
	case CodeConstraintViolation:
		return "The data violates a constraint (key, check, or foreign key); adjust the values."
	case CodeDataTruncation:
		return "A value is too large for its target column; shorten the value or widen the column."
	case CodeSession, CodeSessionNotFound:
		return "Verify the session id and that the session has not expired or been ended."
	case CodeResourceNotFound:
		return "Verify the requested resource identifier."
	case CodeInvalidInput:
		return "Correct the request parameters and retry."
	case CodeInternal:
		return "An internal error occurred; this indicates a bug, not a usage error."
	default:
		return ""
	}
}

// FromSQLError maps a SQL Server error number + message to a tagged Error,
// grounded exactly on original_source/src/error.rs::from_sql_error.
func FromSQLError(code int, message string) *Error {
	c := code
	switch code {
	case 18456:
		return Authentication("Login failed: " + message)
	case 4060:
		return DatabaseNotFound(message)
	case 208:
		return ObjectNotFound("Object", message)
	case 2812:
		return ObjectNotFound("Stored procedure", message)
	case 229, 230:
		return PermissionDenied(message)
	case 262:
		return PermissionDenied("CREATE permission denied: " + message)
	case -2:
		return Timeout(0)
	case -1:
		return Connection("Connection broken")
	case 53:
		return Connection("Server not found or not accessible")
	case 547:
		return ConstraintViolation(message)
	case 2601, 2627:
		return ConstraintViolation("Duplicate key: " + message)
	case 8115:
		return QueryExecution("Arithmetic overflow: "+message, &c, "")
	case 8152:
		return DataTruncation(message)
	case 102:
		return QueryExecution("Syntax error: "+message, &c, "")
	case 207:
		return QueryExecution("Invalid column: "+message, &c, "")
	case 201:
		return QueryExecution("Invalid object: "+message, &c, "")
	case 1205:
		return QueryExecution("Transaction was deadlocked and has been rolled back", &c, "")
	default:
		return QueryExecution(message, &c, "")
	}
}
