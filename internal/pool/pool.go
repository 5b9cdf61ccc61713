// Package pool manages pooled connections to one SQL Server instance:
// authentication (SQL-login, OS-integrated, Azure AD), connect-time
// validation, and checkout/release accounting for metrics.
package pool

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"sync"
	"time"

	mssql "github.com/microsoft/go-mssqldb"
	"github.com/rs/zerolog/log"

	"github.com/praxiomlabs/mssql-mcp-server-sub000/internal/dberrors"
)

const checkoutValidationTimeout = 5 * time.Second

// Stats is a point-in-time snapshot of pool utilization, surfaced to
// internal/metrics as Prometheus gauges.
type Stats struct {
	Total     int
	Available int
	InUse     int
	Max       int
}

// Pool wraps a *sql.DB configured for one SQL Server endpoint, applying the
// connect sequence and checkout validation original_source describes for
// its bb8 ConnectionManager.
type Pool struct {
	db     *sql.DB
	config Config

	mu    sync.Mutex
	inUse int
}

// dialingConnector rebuilds the DSN (and, for Azure AD, acquires a fresh
// bearer token) on every call to Connect, so database/sql's own pooling can
// open new physical connections at any time without a stale token leaking
// in, matching original_source's "acquire fresh per connect" policy for its
// bb8 ConnectionManager.
type dialingConnector struct {
	config Config
}

func (d dialingConnector) Connect(ctx context.Context) (driver.Conn, error) {
	dsn, err := d.config.connectionString(ctx)
	if err != nil {
		return nil, err
	}
	connector, err := mssql.NewConnector(dsn)
	if err != nil {
		return nil, err
	}
	return connector.Connect(ctx)
}

func (d dialingConnector) Driver() driver.Driver {
	connector, _ := mssql.NewConnector("")
	return connector.Driver()
}

// Open builds a *sql.DB for config, applies pool sizing, and verifies
// connectivity with a single checkout before returning.
func Open(ctx context.Context, config Config) (*Pool, error) {
	db := sql.OpenDB(dialingConnector{config: config})
	db.SetMaxOpenConns(config.MaxConnections)
	db.SetMaxIdleConns(config.MinConnections)
	db.SetConnMaxIdleTime(config.IdleTimeout)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)

	p := &Pool{db: db, config: config}

	checkCtx, cancel := context.WithTimeout(ctx, config.ConnectionTimeout)
	defer cancel()
	if err := db.PingContext(checkCtx); err != nil {
		db.Close()
		return nil, dberrors.ConnectionWrap("failed to establish initial connection", err)
	}

	log.Info().Str("component", "pool").
		Str("host", config.Host).Int("port", config.Port).
		Int("min", config.MinConnections).Int("max", config.MaxConnections).
		Msg("connection pool created")

	return p, nil
}

// Acquire checks out a connection, bounded by the pool's ConnectionTimeout,
// and validates it with SELECT 1 under a hard 5-second timeout. A
// connection that fails validation is closed and Acquire returns a
// Connection error; no other connection is tried.
func (p *Pool) Acquire(ctx context.Context) (*sql.Conn, error) {
	checkoutCtx, cancel := context.WithTimeout(ctx, p.config.ConnectionTimeout)
	defer cancel()

	conn, err := p.db.Conn(checkoutCtx)
	if err != nil {
		return nil, dberrors.ConnectionWrap("failed to acquire pooled connection", err)
	}

	validateCtx, vcancel := context.WithTimeout(ctx, checkoutValidationTimeout)
	defer vcancel()
	if _, err := conn.ExecContext(validateCtx, "SELECT 1"); err != nil {
		conn.Close()
		log.Warn().Str("component", "pool").Err(err).Msg("checked-out connection failed validation; discarding")
		return nil, dberrors.ConnectionWrap("connection failed validation", err)
	}

	p.mu.Lock()
	p.inUse++
	p.mu.Unlock()

	return conn, nil
}

// Release returns a checked-out connection to the pool.
func (p *Pool) Release(conn *sql.Conn) error {
	p.mu.Lock()
	if p.inUse > 0 {
		p.inUse--
	}
	p.mu.Unlock()
	return conn.Close()
}

func (p *Pool) Stats() Stats {
	s := p.db.Stats()
	p.mu.Lock()
	inUse := p.inUse
	p.mu.Unlock()
	return Stats{
		Total:     s.OpenConnections,
		Available: s.Idle,
		InUse:     inUse,
		Max:       p.config.MaxConnections,
	}
}

// Close shuts down the underlying *sql.DB, closing all idle connections.
func (p *Pool) Close() error {
	return p.db.Close()
}

// DB exposes the underlying *sql.DB for components (transaction manager,
// pinned sessions) that need to open their own dedicated connections using
// the same authentication and driver configuration.
func (p *Pool) DB() *sql.DB { return p.db }

func (p *Pool) ConfigValue() Config { return p.config }

// DedicatedConnection is a single connection outside the shared pool, held
// for the lifetime of a transaction or pinned session. Close releases both
// the connection and the one-connection *sql.DB backing it.
type DedicatedConnection struct {
	Conn *sql.Conn
	DB   *sql.DB
}

// Close releases the dedicated connection and its owning *sql.DB.
func (d *DedicatedConnection) Close() error {
	connErr := d.Conn.Close()
	dbErr := d.DB.Close()
	if connErr != nil {
		return connErr
	}
	return dbErr
}

// OpenDedicated opens a single connection outside the shared pool, tagging it
// with an application-name suffix (e.g. "-txn", "-session") so it is
// distinguishable in server-side connection diagnostics, matching
// original_source's create_connection(..., Some("txn")) convention.
func OpenDedicated(ctx context.Context, config Config, appNameSuffix string) (*DedicatedConnection, error) {
	dedicated := config
	dedicated.ApplicationName = config.ApplicationName + appNameSuffix

	db := sql.OpenDB(dialingConnector{config: dedicated})
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	checkCtx, cancel := context.WithTimeout(ctx, config.ConnectionTimeout)
	defer cancel()
	conn, err := db.Conn(checkCtx)
	if err != nil {
		db.Close()
		return nil, dberrors.ConnectionWrap("failed to open dedicated connection", err)
	}

	return &DedicatedConnection{Conn: conn, DB: db}, nil
}
