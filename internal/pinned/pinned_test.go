package pinned

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praxiomlabs/mssql-mcp-server-sub000/internal/pool"
)

func testEntry(t *testing.T, m *Manager, id string, lastActivity time.Time) (*entry, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	conn, err := db.Conn(context.Background())
	require.NoError(t, err)

	e := &entry{
		conn: &pool.DedicatedConnection{Conn: conn, DB: db},
		info: Info{ID: id, CreatedAt: lastActivity, LastActivity: lastActivity},
	}
	m.mu.Lock()
	m.entries[id] = e
	m.mu.Unlock()
	return e, mock
}

func newTestManager() *Manager {
	return New(pool.Config{}, 100, time.Minute)
}

func TestExecuteInUnknownSessionErrors(t *testing.T) {
	m := newTestManager()
	_, err := m.ExecuteIn(context.Background(), "missing", "SELECT 1")
	assert.Error(t, err)
}

func TestExecuteInBumpsQueryCountAndActivity(t *testing.T) {
	m := newTestManager()
	_, mock := testEntry(t, m, "s1", time.Now().Add(-time.Hour))

	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"x"}).AddRow(1))

	result, err := m.ExecuteIn(context.Background(), "s1", "SELECT 1")
	require.NoError(t, err)
	assert.Len(t, result.Rows, 1)

	info, ok := m.Get("s1")
	require.True(t, ok)
	assert.Equal(t, uint64(1), info.QueryCount)
}

func TestEndRemovesSessionAndCleansUp(t *testing.T) {
	m := newTestManager()
	_, mock := testEntry(t, m, "s1", time.Now())
	mock.ExpectExec("IF @@TRANCOUNT > 0 ROLLBACK TRANSACTION").WillReturnResult(sqlmock.NewResult(0, 0))

	info, err := m.End(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", info.ID)
	assert.False(t, m.Has("s1"))
}

func TestEndUnknownSessionErrors(t *testing.T) {
	m := newTestManager()
	_, err := m.End(context.Background(), "missing")
	assert.Error(t, err)
}

func TestListAndActiveCount(t *testing.T) {
	m := newTestManager()
	testEntry(t, m, "s1", time.Now())
	testEntry(t, m, "s2", time.Now())

	assert.Equal(t, 2, m.ActiveCount())
	assert.Len(t, m.List(), 2)
}

func TestCleanupExpiredRemovesOnlyIdleSessions(t *testing.T) {
	m := newTestManager()
	_, freshMock := testEntry(t, m, "fresh", time.Now())
	_, staleMock := testEntry(t, m, "stale", time.Now().Add(-time.Hour))
	staleMock.ExpectExec("IF @@TRANCOUNT > 0 ROLLBACK TRANSACTION").WillReturnResult(sqlmock.NewResult(0, 0))
	_ = freshMock

	cleaned := m.CleanupExpired(context.Background())
	assert.Equal(t, []string{"stale"}, cleaned)
	assert.True(t, m.Has("fresh"))
	assert.False(t, m.Has("stale"))
}
