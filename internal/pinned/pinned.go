// Package pinned manages session-pinned connections: a dedicated connection
// held for the entire lifetime of a client session so temp tables (#tables),
// session variables, and SET options persist across calls. Grounded on
// original_source/src/database/session.rs, restyled into the teacher's
// registry-with-mutex shape from server/transactions.go.
package pinned

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/praxiomlabs/mssql-mcp-server-sub000/internal/dberrors"
	"github.com/praxiomlabs/mssql-mcp-server-sub000/internal/executor"
	"github.com/praxiomlabs/mssql-mcp-server-sub000/internal/pool"
	"github.com/praxiomlabs/mssql-mcp-server-sub000/internal/sqltypes"
)

// Info is a point-in-time snapshot of one pinned session's metadata.
type Info struct {
	ID           string
	CreatedAt    time.Time
	LastActivity time.Time
	QueryCount   uint64
}

type entry struct {
	mu   sync.Mutex
	info Info
	conn *pool.DedicatedConnection
}

// Manager owns the id -> dedicated-connection registry for pinned sessions.
type Manager struct {
	poolConfig     pool.Config
	maxRows        int
	sessionTimeout time.Duration

	mu      sync.Mutex
	entries map[string]*entry
}

func New(poolConfig pool.Config, maxRows int, sessionTimeout time.Duration) *Manager {
	return &Manager{
		poolConfig:     poolConfig,
		maxRows:        maxRows,
		sessionTimeout: sessionTimeout,
		entries:        make(map[string]*entry),
	}
}

// Begin opens a dedicated connection for sessionID and registers it. Errors
// if a session with that id already exists.
func (m *Manager) Begin(ctx context.Context, sessionID string) (*Info, error) {
	m.mu.Lock()
	if _, exists := m.entries[sessionID]; exists {
		m.mu.Unlock()
		return nil, dberrors.Session(fmt.Sprintf("session already exists: %s", sessionID))
	}
	m.mu.Unlock()

	conn, err := pool.OpenDedicated(ctx, m.poolConfig, "-session")
	if err != nil {
		return nil, err
	}

	now := time.Now()
	e := &entry{
		conn: conn,
		info: Info{ID: sessionID, CreatedAt: now, LastActivity: now},
	}

	m.mu.Lock()
	if _, exists := m.entries[sessionID]; exists {
		m.mu.Unlock()
		conn.Close()
		return nil, dberrors.Session(fmt.Sprintf("session already exists: %s", sessionID))
	}
	m.entries[sessionID] = e
	m.mu.Unlock()

	log.Debug().Str("component", "pinned").Str("session_id", sessionID).
		Msg("session started with dedicated connection")

	snapshot := e.info
	return &snapshot, nil
}

func (m *Manager) lookup(sessionID string) (*entry, error) {
	m.mu.Lock()
	e, ok := m.entries[sessionID]
	m.mu.Unlock()
	if !ok {
		return nil, dberrors.Session(fmt.Sprintf("session not found: %s", sessionID))
	}
	return e, nil
}

// ExecuteIn runs query on sessionID's dedicated connection, bumping its
// activity timestamp and query count.
func (m *Manager) ExecuteIn(ctx context.Context, sessionID, query string) (sqltypes.QueryResult, error) {
	e, err := m.lookup(sessionID)
	if err != nil {
		return sqltypes.QueryResult{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.info.LastActivity = time.Now()
	e.info.QueryCount++

	start := time.Now()
	rows, err := e.conn.Conn.QueryContext(ctx, query)
	if err != nil {
		return sqltypes.QueryResult{}, dberrors.QueryExecution(fmt.Sprintf("query execution failed: %v", err), nil, "")
	}
	defer rows.Close()

	result, err := executor.ProcessRows(rows, m.maxRows, start)
	if err != nil {
		return sqltypes.QueryResult{}, err
	}

	log.Debug().Str("component", "pinned").Str("session_id", sessionID).Int("rows", len(result.Rows)).
		Msg("session query completed")

	return result, nil
}

// End removes sessionID from the registry, best-effort rolls back any open
// transaction on its connection, and closes it.
func (m *Manager) End(ctx context.Context, sessionID string) (*Info, error) {
	m.mu.Lock()
	e, ok := m.entries[sessionID]
	if ok {
		delete(m.entries, sessionID)
	}
	m.mu.Unlock()
	if !ok {
		return nil, dberrors.Session(fmt.Sprintf("session not found: %s", sessionID))
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	defer e.conn.Close()

	if _, err := e.conn.Conn.ExecContext(ctx, "IF @@TRANCOUNT > 0 ROLLBACK TRANSACTION"); err != nil {
		log.Warn().Str("component", "pinned").Str("session_id", sessionID).Err(err).
			Msg("best-effort cleanup on session end failed")
	}

	log.Debug().Str("component", "pinned").Str("session_id", sessionID).
		Uint64("query_count", e.info.QueryCount).Msg("session ended, connection released")

	snapshot := e.info
	return &snapshot, nil
}

// Get returns a snapshot of sessionID's metadata, or false if not found.
func (m *Manager) Get(sessionID string) (Info, bool) {
	e, err := m.lookup(sessionID)
	if err != nil {
		return Info{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.info, true
}

// List returns a snapshot of every active session's metadata.
func (m *Manager) List() []Info {
	m.mu.Lock()
	entries := make([]*entry, 0, len(m.entries))
	for _, e := range m.entries {
		entries = append(entries, e)
	}
	m.mu.Unlock()

	out := make([]Info, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		out = append(out, e.info)
		e.mu.Unlock()
	}
	return out
}

// Has reports whether sessionID has a live dedicated connection.
func (m *Manager) Has(sessionID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[sessionID]
	return ok
}

// ActiveCount returns the number of live pinned sessions.
func (m *Manager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// CleanupExpired ends every session idle longer than the manager's
// sessionTimeout, returning the ids cleaned up.
func (m *Manager) CleanupExpired(ctx context.Context) []string {
	now := time.Now()

	m.mu.Lock()
	var expiredIDs []string
	for id, e := range m.entries {
		e.mu.Lock()
		idle := now.Sub(e.info.LastActivity)
		e.mu.Unlock()
		if idle > m.sessionTimeout {
			expiredIDs = append(expiredIDs, id)
		}
	}
	expired := make(map[string]*entry, len(expiredIDs))
	for _, id := range expiredIDs {
		expired[id] = m.entries[id]
		delete(m.entries, id)
	}
	m.mu.Unlock()

	cleaned := make([]string, 0, len(expired))
	for id, e := range expired {
		e.mu.Lock()
		log.Warn().Str("component", "pinned").Str("session_id", id).
			Dur("idle", now.Sub(e.info.LastActivity)).Msg("cleaning up expired session")
		if _, err := e.conn.Conn.ExecContext(ctx, "IF @@TRANCOUNT > 0 ROLLBACK TRANSACTION"); err != nil {
			log.Warn().Str("component", "pinned").Str("session_id", id).Err(err).
				Msg("best-effort cleanup of expired session failed")
		}
		e.conn.Close()
		e.mu.Unlock()
		cleaned = append(cleaned, id)
	}

	return cleaned
}
