package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praxiomlabs/mssql-mcp-server-sub000/internal/sqltypes"
)

func resultWithRows(n int) sqltypes.QueryResult {
	cols := []sqltypes.ColumnMeta{{Name: "id", SQLType: "int"}}
	rows := make([]sqltypes.ResultRow, n)
	for i := range rows {
		rows[i] = sqltypes.NewResultRow(cols, []sqltypes.SqlValue{sqltypes.FromI32(int32(i))})
	}
	return sqltypes.QueryResult{Columns: cols, Rows: rows}
}

func TestNormalizeQuery(t *testing.T) {
	assert.Equal(t, "SELECT * FROM USERS", normalizeQuery("  select   *  from   users  "))
	assert.Equal(t, "SELECT 1", normalizeQuery("SELECT\n1"))
}

func TestCacheKeyEquality(t *testing.T) {
	k1 := NewCacheKey("select * from users", 100, "db1")
	k2 := NewCacheKey("SELECT  *  FROM   USERS", 100, "db1")
	assert.Equal(t, k1, k2)

	k3 := NewCacheKey("select * from users", 50, "db1")
	assert.NotEqual(t, k1, k3)
}

func TestCacheOperations(t *testing.T) {
	c := New(DefaultConfig())
	key := NewCacheKey("SELECT 1", 10, "")

	_, ok := c.Get(key)
	assert.False(t, ok)

	c.Insert(key, resultWithRows(1))

	got, ok := c.Get(key)
	require.True(t, ok)
	assert.Len(t, got.Rows, 1)

	stats := c.Stats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.Equal(t, 1, stats.EntryCount)
}

func TestCacheExpiration(t *testing.T) {
	c := New(DefaultConfig())
	key := NewCacheKey("SELECT 1", 10, "")
	c.InsertWithTTL(key, resultWithRows(1), -time.Second) // already expired

	_, ok := c.Get(key)
	assert.False(t, ok)

	stats := c.Stats()
	assert.Equal(t, 0, stats.EntryCount)
}

func TestCacheDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = false
	c := New(cfg)
	key := NewCacheKey("SELECT 1", 10, "")

	c.Insert(key, resultWithRows(1))
	_, ok := c.Get(key)
	assert.False(t, ok)
}

func TestCacheStatsHitRate(t *testing.T) {
	c := New(DefaultConfig())
	key := NewCacheKey("SELECT 1", 10, "")
	c.Insert(key, resultWithRows(1))

	c.Get(key)
	c.Get(key)
	c.Get(NewCacheKey("SELECT 2", 10, ""))

	stats := c.Stats()
	assert.InDelta(t, 200.0/3.0, stats.HitRate(), 0.0001)
}

func TestCacheEvictsLeastHitFirstWhenOverEntryCap(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxEntries = 2
	c := New(cfg)

	k1 := NewCacheKey("SELECT 1", 10, "")
	k2 := NewCacheKey("SELECT 2", 10, "")
	k3 := NewCacheKey("SELECT 3", 10, "")

	c.Insert(k1, resultWithRows(1))
	c.Insert(k2, resultWithRows(1))
	c.Get(k1)
	c.Get(k1)
	c.Get(k2)

	c.Insert(k3, resultWithRows(1))

	_, k1ok := c.Get(k1)
	_, k2ok := c.Get(k2)
	_, k3ok := c.Get(k3)
	assert.True(t, k1ok, "k1 has the most hits and should survive eviction")
	assert.True(t, k3ok, "k3 was just inserted and should be present")
	assert.False(t, k2ok, "k2 has fewer hits than k1 and should be evicted")
}

func TestCacheInvalidateByPattern(t *testing.T) {
	c := New(DefaultConfig())
	c.Insert(NewCacheKey("SELECT * FROM Users", 10, ""), resultWithRows(1))
	c.Insert(NewCacheKey("SELECT * FROM Orders", 10, ""), resultWithRows(1))

	removed := c.Invalidate("USERS")
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, c.Stats().EntryCount)
}
