package executor

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/praxiomlabs/mssql-mcp-server-sub000/internal/security"
)

func TestSplitOnGo(t *testing.T) {
	batches := splitOnGo("SELECT 1\nGO\nSELECT 2")
	assert.Equal(t, []string{"SELECT 1", "SELECT 2"}, batches)
}

func TestSplitOnGoRepeatCount(t *testing.T) {
	batches := splitOnGo("INSERT INTO t VALUES (1)\nGO 3")
	assert.Len(t, batches, 3)
	for _, b := range batches {
		assert.Equal(t, "INSERT INTO t VALUES (1)", b)
	}
}

func TestSplitOnGoZeroIsASeparatorExecutedOnce(t *testing.T) {
	batches := splitOnGo("SELECT 1\nGO 0\nSELECT 2")
	assert.Equal(t, []string{"SELECT 1", "SELECT 2"}, batches)
}

func TestSplitOnGoNonNumericIsNotASeparator(t *testing.T) {
	batches := splitOnGo("SELECT 1\nGO abc\nSELECT 2")
	assert.Len(t, batches, 1)
	assert.Contains(t, batches[0], "GO abc")
}

func TestSplitOnGoLiteralInStringNotMatched(t *testing.T) {
	batches := splitOnGo("SELECT 'GO' AS word")
	assert.Len(t, batches, 1)
}

func TestContainsGoSeparator(t *testing.T) {
	assert.True(t, containsGoSeparator("SELECT 1\nGO\nSELECT 2"))
	assert.True(t, containsGoSeparator("SELECT 1\n  GO  \nSELECT 2"))
	assert.True(t, containsGoSeparator("SELECT 1\nGO 5"))
	assert.False(t, containsGoSeparator("SELECT 1; SELECT 2"))
	assert.False(t, containsGoSeparator("SELECT 'GO' AS word"))
}

func TestRequiresRawExecution(t *testing.T) {
	assert.True(t, requiresRawExecution("CREATE VIEW v AS SELECT 1", security.StripLeadingComments))
	assert.True(t, requiresRawExecution("  CREATE PROCEDURE p AS BEGIN SELECT 1 END", security.StripLeadingComments))
	assert.True(t, requiresRawExecution("-- comment\nCREATE FUNCTION f() RETURNS INT AS BEGIN RETURN 1 END", security.StripLeadingComments))
	assert.False(t, requiresRawExecution("SELECT * FROM sys.tables", security.StripLeadingComments))
	assert.False(t, requiresRawExecution("INSERT INTO t VALUES (1)", security.StripLeadingComments))
}
