package txmgr

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praxiomlabs/mssql-mcp-server-sub000/internal/pool"
)

// testEntry builds a registered transaction entry backed by a sqlmock
// connection, bypassing Begin (which needs a real driver dial).
func testEntry(t *testing.T, m *Manager, id, name string) (*entry, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	conn, err := db.Conn(context.Background())
	require.NoError(t, err)

	now := time.Now()
	e := &entry{
		conn: &pool.DedicatedConnection{Conn: conn, DB: db},
		info: Transaction{
			ID:             id,
			Name:           name,
			IsolationLevel: "READ COMMITTED",
			Status:         StatusActive,
			CreatedAt:      now,
			LastActivity:   now,
		},
	}
	m.mu.Lock()
	m.entries[id] = e
	m.mu.Unlock()
	return e, mock
}

func newTestManager() *Manager {
	return New(pool.Config{}, 100)
}

func TestExecuteInRejectsUnknownTransaction(t *testing.T) {
	m := newTestManager()
	_, err := m.ExecuteIn(context.Background(), "missing", "SELECT 1")
	assert.Error(t, err)
}

func TestExecuteInRunsOnDedicatedConnectionAndBumpsCounters(t *testing.T) {
	m := newTestManager()
	_, mock := testEntry(t, m, "tx1", "")

	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"x"}).AddRow(1))

	result, err := m.ExecuteIn(context.Background(), "tx1", "SELECT 1")
	require.NoError(t, err)
	assert.Len(t, result.Rows, 1)

	snapshot, err := m.Get("tx1")
	require.NoError(t, err)
	assert.Equal(t, 1, snapshot.StatementCount)
}

func TestExecuteInRejectsNonActiveTransaction(t *testing.T) {
	m := newTestManager()
	e, _ := testEntry(t, m, "tx1", "")
	e.info.Status = StatusCommitted

	_, err := m.ExecuteIn(context.Background(), "tx1", "SELECT 1")
	assert.Error(t, err)
}

func TestCommitRemovesEntryAndClosesConnection(t *testing.T) {
	m := newTestManager()
	_, mock := testEntry(t, m, "tx1", "")
	mock.ExpectExec("COMMIT TRANSACTION").WillReturnResult(sqlmock.NewResult(0, 0))

	snapshot, err := m.Commit(context.Background(), "tx1")
	require.NoError(t, err)
	assert.Equal(t, StatusCommitted, snapshot.Status)
	assert.False(t, m.Has("tx1"))
}

func TestCommitUnknownTransactionErrors(t *testing.T) {
	m := newTestManager()
	_, err := m.Commit(context.Background(), "missing")
	assert.Error(t, err)
}

func TestRollbackFullRemovesEntry(t *testing.T) {
	m := newTestManager()
	_, mock := testEntry(t, m, "tx1", "")
	mock.ExpectExec("ROLLBACK TRANSACTION").WillReturnResult(sqlmock.NewResult(0, 0))

	snapshot, ends, err := m.Rollback(context.Background(), "tx1", "")
	require.NoError(t, err)
	assert.True(t, ends)
	assert.Equal(t, StatusRolledBack, snapshot.Status)
	assert.False(t, m.Has("tx1"))
}

func TestRollbackToSavepointKeepsEntryActive(t *testing.T) {
	m := newTestManager()
	_, mock := testEntry(t, m, "tx1", "")
	mock.ExpectExec("ROLLBACK TRANSACTION").WillReturnResult(sqlmock.NewResult(0, 0))

	snapshot, ends, err := m.Rollback(context.Background(), "tx1", "sp1")
	require.NoError(t, err)
	assert.False(t, ends)
	assert.Equal(t, StatusActive, snapshot.Status)
	assert.Contains(t, snapshot.Savepoints, "sp1")
	assert.True(t, m.Has("tx1"))
}

func TestActiveCountAndHas(t *testing.T) {
	m := newTestManager()
	assert.Equal(t, 0, m.ActiveCount())
	testEntry(t, m, "tx1", "")
	testEntry(t, m, "tx2", "")
	assert.Equal(t, 2, m.ActiveCount())
	assert.True(t, m.Has("tx1"))
	assert.False(t, m.Has("unknown"))
}

func TestCleanupOrphanedRemovesUnlistedEntries(t *testing.T) {
	m := newTestManager()
	_, mock1 := testEntry(t, m, "tx1", "")
	_, mock2 := testEntry(t, m, "tx2", "")
	mock2.ExpectExec("IF @@TRANCOUNT > 0 ROLLBACK TRANSACTION").WillReturnResult(sqlmock.NewResult(0, 0))
	_ = mock1

	m.CleanupOrphaned(context.Background(), []string{"tx1"})

	assert.True(t, m.Has("tx1"))
	assert.False(t, m.Has("tx2"))
}

func TestRollbackAllClearsRegistry(t *testing.T) {
	m := newTestManager()
	_, mock1 := testEntry(t, m, "tx1", "")
	_, mock2 := testEntry(t, m, "tx2", "")
	mock1.ExpectExec("IF @@TRANCOUNT > 0 ROLLBACK TRANSACTION").WillReturnResult(sqlmock.NewResult(0, 0))
	mock2.ExpectExec("IF @@TRANCOUNT > 0 ROLLBACK TRANSACTION").WillReturnResult(sqlmock.NewResult(0, 0))

	n := m.RollbackAll(context.Background())
	assert.Equal(t, 2, n)
	assert.Equal(t, 0, m.ActiveCount())
}
