// Package cache implements the query result cache: a TTL-and-capacity bound
// store keyed by normalized query text, row limit, and database, evicting
// expired entries first and then the least-hit survivors.
package cache

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/praxiomlabs/mssql-mcp-server-sub000/internal/sqltypes"
)

// CacheKey identifies one cacheable query. Query is normalized before
// storage so that two queries differing only in whitespace or case collide.
type CacheKey struct {
	Query    string
	MaxRows  int
	Database string
}

// NewCacheKey builds a CacheKey, normalizing query per normalizeQuery.
// database may be "" to mean "current/unspecified database".
func NewCacheKey(query string, maxRows int, database string) CacheKey {
	return CacheKey{Query: normalizeQuery(query), MaxRows: maxRows, Database: database}
}

// normalizeQuery collapses interior whitespace runs to single spaces,
// trims the ends, and upper-cases the result.
func normalizeQuery(query string) string {
	fields := strings.Fields(query)
	return strings.ToUpper(strings.Join(fields, " "))
}

type entry struct {
	result    sqltypes.QueryResult
	createdAt time.Time
	ttl       time.Duration
	hitCount  uint64
	sizeBytes int
}

func (e *entry) expired(now time.Time) bool {
	return now.Sub(e.createdAt) > e.ttl
}

// Config controls cache capacity and default expiration.
type Config struct {
	MaxEntries   int
	MaxSizeBytes int64
	DefaultTTL   time.Duration
	Enabled      bool
}

// DefaultConfig mirrors the teacher's DefaultQueryCacheConfig sizing.
func DefaultConfig() Config {
	return Config{
		MaxEntries:   1000,
		MaxSizeBytes: 64 * 1024 * 1024,
		DefaultTTL:   15 * time.Minute,
		Enabled:      true,
	}
}

// Stats is a point-in-time snapshot of cache activity counters.
type Stats struct {
	Hits           uint64
	Misses         uint64
	Evictions      uint64
	EntryCount     int
	TotalSizeBytes int64
}

// HitRate returns hits / (hits+misses) as a percentage (0..100), or 0 when
// there have been no lookups.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

// Cache is the gateway's query result cache. Safe for concurrent use.
type Cache struct {
	mu             sync.RWMutex
	entries        map[CacheKey]*entry
	config         Config
	totalSizeBytes int64
	hits           uint64
	misses         uint64
	evictions      uint64
}

func New(config Config) *Cache {
	if config.MaxEntries <= 0 {
		config.MaxEntries = 1000
	}
	if config.MaxSizeBytes <= 0 {
		config.MaxSizeBytes = 64 * 1024 * 1024
	}
	if config.DefaultTTL <= 0 {
		config.DefaultTTL = 15 * time.Minute
	}
	return &Cache{entries: make(map[CacheKey]*entry), config: config}
}

// Get returns the cached result for key, if present and unexpired. A miss on
// a disabled cache, an absent key, or an expired entry (which is evicted as
// a side effect) all return (zero, false).
func (c *Cache) Get(key CacheKey) (sqltypes.QueryResult, bool) {
	if !c.config.Enabled {
		return sqltypes.QueryResult{}, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.misses++
		return sqltypes.QueryResult{}, false
	}

	if e.expired(time.Now()) {
		c.removeLocked(key, e)
		c.misses++
		return sqltypes.QueryResult{}, false
	}

	e.hitCount++
	c.hits++
	return e.result, true
}

// Insert stores result under key using the cache's DefaultTTL.
func (c *Cache) Insert(key CacheKey, result sqltypes.QueryResult) {
	c.InsertWithTTL(key, result, c.config.DefaultTTL)
}

// InsertWithTTL stores result under key with an explicit TTL, evicting
// expired and then least-hit entries as needed to stay within capacity. If
// the entry still does not fit after eviction (e.g. it alone exceeds
// MaxSizeBytes), it is not inserted.
func (c *Cache) InsertWithTTL(key CacheKey, result sqltypes.QueryResult, ttl time.Duration) {
	if !c.config.Enabled {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	size := result.SizeBytes()

	if existing, ok := c.entries[key]; ok {
		c.totalSizeBytes -= int64(existing.sizeBytes)
		delete(c.entries, key)
	}

	needsEviction := len(c.entries) >= c.config.MaxEntries ||
		c.totalSizeBytes+int64(size) > c.config.MaxSizeBytes
	if needsEviction {
		c.evictLocked()
	}

	stillNeedsEviction := len(c.entries) >= c.config.MaxEntries ||
		c.totalSizeBytes+int64(size) > c.config.MaxSizeBytes
	if stillNeedsEviction {
		log.Warn().Str("component", "cache").Int("size_bytes", size).
			Msg("entry exceeds available cache capacity after eviction; not cached")
		return
	}

	c.entries[key] = &entry{
		result:    result,
		createdAt: time.Now(),
		ttl:       ttl,
		sizeBytes: size,
	}
	c.totalSizeBytes += int64(size)
}

// evictLocked removes all expired entries, then, if still over capacity,
// evicts entries in ascending hit-count order until both the entry-count and
// total-size bounds are satisfied. Caller must hold c.mu.
func (c *Cache) evictLocked() {
	now := time.Now()
	for key, e := range c.entries {
		if e.expired(now) {
			c.removeLocked(key, e)
		}
	}

	if len(c.entries) < c.config.MaxEntries && c.totalSizeBytes <= c.config.MaxSizeBytes {
		return
	}

	type candidate struct {
		key CacheKey
		e   *entry
	}
	candidates := make([]candidate, 0, len(c.entries))
	for key, e := range c.entries {
		candidates = append(candidates, candidate{key, e})
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].e.hitCount < candidates[j].e.hitCount
	})

	for _, cand := range candidates {
		if len(c.entries) < c.config.MaxEntries && c.totalSizeBytes <= c.config.MaxSizeBytes {
			break
		}
		c.removeLocked(cand.key, cand.e)
		c.evictions++
	}
}

func (c *Cache) removeLocked(key CacheKey, e *entry) {
	delete(c.entries, key)
	c.totalSizeBytes -= int64(e.sizeBytes)
}

// Invalidate removes every entry whose normalized query contains pattern
// (matched case-sensitively against the already upper-cased key), returning
// the number of entries removed.
func (c *Cache) Invalidate(pattern string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, e := range c.entries {
		if strings.Contains(key.Query, pattern) {
			c.removeLocked(key, e)
			removed++
		}
	}
	return removed
}

// Clear removes all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[CacheKey]*entry)
	c.totalSizeBytes = 0
}

func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{
		Hits:           c.hits,
		Misses:         c.misses,
		Evictions:      c.evictions,
		EntryCount:     len(c.entries),
		TotalSizeBytes: c.totalSizeBytes,
	}
}
