package dberrors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSQLErrorMapping(t *testing.T) {
	assert.Equal(t, CodeAuthentication, FromSQLError(18456, "login failed").Code)
	assert.Equal(t, CodeDatabaseNotFound, FromSQLError(4060, "x").Code)
	assert.Equal(t, CodeObjectNotFound, FromSQLError(208, "x").Code)
	assert.Equal(t, "Object", FromSQLError(208, "x").ObjectType)
	assert.Equal(t, CodeObjectNotFound, FromSQLError(2812, "x").Code)
	assert.Equal(t, "Stored procedure", FromSQLError(2812, "x").ObjectType)
	assert.Equal(t, CodePermissionDenied, FromSQLError(229, "x").Code)
	assert.Equal(t, CodePermissionDenied, FromSQLError(262, "x").Code)
	assert.Contains(t, FromSQLError(262, "x").Message, "CREATE permission denied:")
	assert.Equal(t, CodeTimeout, FromSQLError(-2, "x").Code)
	assert.Equal(t, CodeConnection, FromSQLError(-1, "x").Code)
	assert.Equal(t, CodeConnection, FromSQLError(53, "x").Code)
	assert.Equal(t, CodeConstraintViolation, FromSQLError(547, "x").Code)
	assert.Equal(t, CodeConstraintViolation, FromSQLError(2601, "x").Code)
	assert.Equal(t, CodeConstraintViolation, FromSQLError(2627, "x").Code)
	assert.Equal(t, CodeDataTruncation, FromSQLError(8152, "x").Code)
	assert.Equal(t, CodeQueryExecution, FromSQLError(1205, "x").Code)

	unknown := FromSQLError(99999, "weird")
	assert.Equal(t, CodeQueryExecution, unknown.Code)
	require := *unknown.SQLCode
	assert.Equal(t, 99999, require)
}

func TestTransientErrors(t *testing.T) {
	assert.True(t, IsTransient(Connection("x")))
	assert.True(t, IsTransient(Timeout(5)))
	assert.True(t, IsTransient(CircuitOpen(1)))
	assert.True(t, IsTransient(FromSQLError(1205, "deadlock")))
	assert.True(t, IsTransient(FromSQLError(40613, "throttled")))
	assert.False(t, IsTransient(FromSQLError(208, "missing")))
	assert.False(t, IsTransient(ValidationFailed("bad")))
	assert.False(t, IsTransient(nil))
}

func TestErrorSuggestions(t *testing.T) {
	assert.NotEmpty(t, Suggestion(Authentication("x")))
	assert.NotEmpty(t, Suggestion(Timeout(1)))
	assert.NotEmpty(t, Suggestion(InjectionDetected("x")))
	assert.Empty(t, Suggestion(nil))
}

func TestErrorUnwrap(t *testing.T) {
	cause := assert.AnError
	e := ConnectionWrap("dial failed", cause)
	assert.ErrorIs(t, e, cause)
}
