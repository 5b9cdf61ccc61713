package pool

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPool(t *testing.T) (*Pool, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &Pool{db: db, config: testConfig()}, mock
}

func TestAcquireValidatesAndTracksInUse(t *testing.T) {
	p, mock := testPool(t)
	mock.ExpectExec("SELECT 1").WillReturnResult(sqlmock.NewResult(0, 0))

	conn, err := p.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, p.Stats().InUse)

	require.NoError(t, p.Release(conn))
	assert.Equal(t, 0, p.Stats().InUse)
}

func TestAcquireDiscardsConnectionFailingValidation(t *testing.T) {
	p, mock := testPool(t)
	mock.ExpectExec("SELECT 1").WillReturnError(errors.New("connection reset"))

	_, err := p.Acquire(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 0, p.Stats().InUse)
}
