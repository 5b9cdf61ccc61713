package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscapeIdentifierSimple(t *testing.T) {
	esc, err := EscapeIdentifier("Users")
	require.NoError(t, err)
	assert.Equal(t, "[Users]", esc)
}

func TestEscapeIdentifierDotted(t *testing.T) {
	esc, err := EscapeIdentifier("dbo.Users")
	require.NoError(t, err)
	assert.Equal(t, "[dbo].[Users]", esc)
}

func TestEscapeIdentifierDoublesEmbeddedBracket(t *testing.T) {
	esc, err := EscapeIdentifier("Table[1]")
	require.NoError(t, err)
	// "Table[1]" does not *start* with "[", so it is not treated as
	// already-wrapped; only the trailing embedded "]" gets doubled.
	assert.Equal(t, "[Table[1]]]", esc)
}

func TestEscapeIdentifierAlreadyWrapped(t *testing.T) {
	esc, err := EscapeIdentifier("[Users]")
	require.NoError(t, err)
	assert.Equal(t, "[Users]", esc)
}

func TestEscapeIdentifierRejectsEmpty(t *testing.T) {
	_, err := EscapeIdentifier("")
	assert.Error(t, err)
}

func TestEscapeIdentifierRejectsTooLong(t *testing.T) {
	_, err := EscapeIdentifier(strings.Repeat("x", MaxIdentifierLength+1))
	assert.Error(t, err)
}

func TestValidateIdentifierRejectsForbidden(t *testing.T) {
	assert.Error(t, ValidateIdentifier("x; DROP TABLE y"))
	assert.Error(t, ValidateIdentifier("x'"))
	assert.Error(t, ValidateIdentifier("x--"))
	assert.NoError(t, ValidateIdentifier("Users"))
}

func TestEscapeIdempotentModuloAlreadyEscaped(t *testing.T) {
	esc1, err := EscapeIdentifier("Users")
	require.NoError(t, err)
	esc2, err := EscapeIdentifier(esc1)
	require.NoError(t, err)
	assert.Equal(t, esc1, esc2)
	assert.True(t, strings.HasPrefix(esc2, "[") && strings.HasSuffix(esc2, "]"))
}

func TestReservedKeywordCount(t *testing.T) {
	n := len(reservedKeywordList)
	assert.Greater(t, n, 200)
	assert.Less(t, n, 400)
}

func TestIsReservedKeyword(t *testing.T) {
	assert.True(t, IsReservedKeyword("select"))
	assert.True(t, IsReservedKeyword("ORDER"))
	assert.False(t, IsReservedKeyword("CustomerId"))
}

func TestParseQualifiedName(t *testing.T) {
	schema, name := ParseQualifiedName("dbo.Users")
	assert.Equal(t, "dbo", schema)
	assert.Equal(t, "Users", name)

	schema, name = ParseQualifiedName("Users")
	assert.Equal(t, "", schema)
	assert.Equal(t, "Users", name)
}
