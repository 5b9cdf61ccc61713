// Package gateway is the facade the MCP transport layer drives: one Gateway
// composes the connection pool, cache, validator, executor, transaction
// manager, pinned-session manager, async session registry, metadata
// queries, and shutdown controller into the operation surface described by
// the protocol-agnostic tool catalogue. Grounded on the teacher's
// server/server_factory.go (config-in, fully-wired-components-out) and
// server/server.go's Handler as the thing a transport adapter calls into.
package gateway

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/praxiomlabs/mssql-mcp-server-sub000/internal/async"
	"github.com/praxiomlabs/mssql-mcp-server-sub000/internal/cache"
	"github.com/praxiomlabs/mssql-mcp-server-sub000/internal/config"
	"github.com/praxiomlabs/mssql-mcp-server-sub000/internal/dberrors"
	"github.com/praxiomlabs/mssql-mcp-server-sub000/internal/executor"
	"github.com/praxiomlabs/mssql-mcp-server-sub000/internal/metadata"
	"github.com/praxiomlabs/mssql-mcp-server-sub000/internal/metrics"
	"github.com/praxiomlabs/mssql-mcp-server-sub000/internal/pinned"
	"github.com/praxiomlabs/mssql-mcp-server-sub000/internal/pool"
	"github.com/praxiomlabs/mssql-mcp-server-sub000/internal/security"
	"github.com/praxiomlabs/mssql-mcp-server-sub000/internal/shutdown"
	"github.com/praxiomlabs/mssql-mcp-server-sub000/internal/sqltypes"
	"github.com/praxiomlabs/mssql-mcp-server-sub000/internal/txmgr"
)

// Gateway is the single entry point a transport adapter drives. Every
// exported method is one operation of the tool catalogue.
type Gateway struct {
	cfg config.GatewayConfig

	pool      *pool.Pool
	cache     *cache.Cache
	validator *security.Validator
	exec      *executor.Executor
	meta      *metadata.Queries
	txns      *txmgr.Manager
	sessions  *pinned.Manager
	async     *async.Registry
	shutdown  *shutdown.Controller

	mu              sync.RWMutex
	defaultTimeoutS int
	currentDatabase string
}

// New builds a Gateway from cfg, opening the pool and verifying connectivity
// before returning, matching the teacher's NewServerFactory.CreateServer
// habit of fully wiring every component up front.
func New(ctx context.Context, cfg config.GatewayConfig) (*Gateway, error) {
	p, err := pool.Open(ctx, cfg.Pool)
	if err != nil {
		return nil, err
	}

	exec := executor.New(p, cfg.Executor.DefaultMaxRows)

	g := &Gateway{
		cfg:             cfg,
		pool:            p,
		cache:           cache.New(cfg.Cache),
		validator:       cfg.NewValidator(),
		exec:            exec,
		meta:            metadata.New(exec),
		txns:            txmgr.New(cfg.Pool, cfg.Transaction.MaxRows),
		sessions:        pinned.New(cfg.Pool, cfg.Session.MaxRows, cfg.Session.SessionTimeout),
		async:           async.New(exec, cfg.Async.MaxRunning),
		defaultTimeoutS: int(cfg.Executor.DefaultTimeout.Seconds()),
		currentDatabase: cfg.Pool.Database,
	}
	g.shutdown = shutdown.New(shutdown.Hooks{
		RunningSessionCount: func() int { return len(g.async.List(async.StatusRunning)) },
		RollbackTransactions: func(ctx context.Context) int {
			return g.txns.RollbackAll(ctx)
		},
		ClosePool: g.pool.Close,
		// The cache has no expiry sweep; this hook only reads its stats and
		// leaves every entry, expired or not, in place.
		FlushCaches: func() {
			g.cache.Stats()
		},
	})

	log.Info().Str("component", "gateway").Msg("gateway ready")
	return g, nil
}

// Shutdown drains and tears every component down in order; see
// internal/shutdown for the phase sequence.
func (g *Gateway) Shutdown(ctx context.Context) {
	g.shutdown.Shutdown(ctx, g.cfg.Shutdown.DrainTimeout)
}

// ListenForSignals wires SIGINT/SIGTERM/SIGHUP to Shutdown.
func (g *Gateway) ListenForSignals(ctx context.Context) func() {
	return g.shutdown.ListenForSignals(ctx, g.cfg.Shutdown.DrainTimeout)
}

func (g *Gateway) validate(query string) error {
	_, err := g.validator.Validate(query)
	metrics.ValidationTotal.Inc()
	if err != nil {
		metrics.ValidationBlockedTotal.Inc()
		if dbErr, ok := err.(*dberrors.Error); ok && dbErr.Code == dberrors.CodeInjectionDetected {
			metrics.ValidationInjectionAttemptsTotal.Inc()
		}
	}
	return err
}

func (g *Gateway) observe() {
	s := g.pool.Stats()
	metrics.ObservePool(metrics.PoolStats{Total: s.Total, Available: s.Available, InUse: s.InUse, Max: s.Max})
	cs := g.cache.Stats()
	metrics.ObserveCache(metrics.CacheStats{
		Hits: cs.Hits, Misses: cs.Misses, Evictions: cs.Evictions,
		EntryCount: cs.EntryCount, TotalSizeBytes: cs.TotalSizeBytes,
	})
	metrics.TransactionsActive.Set(float64(g.txns.ActiveCount()))
	metrics.PinnedSessionsActive.Set(float64(g.sessions.ActiveCount()))
	metrics.AsyncSessionsRunning.Set(float64(len(g.async.List(async.StatusRunning))))
}

// --- Query operations -------------------------------------------------

// Execute validates, checks the cache, and runs query, caching the result
// on a miss.
func (g *Gateway) Execute(ctx context.Context, query string, maxRows int) (sqltypes.QueryResult, error) {
	if err := g.validate(query); err != nil {
		return sqltypes.QueryResult{}, err
	}
	if maxRows <= 0 {
		maxRows = g.cfg.Executor.DefaultMaxRows
	}

	key := cache.NewCacheKey(query, maxRows, g.currentDatabase)
	if result, ok := g.cache.Get(key); ok {
		g.observe()
		return result, nil
	}

	start := time.Now()
	result, err := g.exec.ExecuteWithLimit(ctx, query, maxRows)
	metrics.QueryDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		g.observe()
		return sqltypes.QueryResult{}, err
	}

	g.cache.Insert(key, result)
	g.observe()
	return result, nil
}

// ExecuteNonQuery validates and runs query for its side effect.
func (g *Gateway) ExecuteNonQuery(ctx context.Context, query string) (sqltypes.QueryResult, error) {
	if err := g.validate(query); err != nil {
		return sqltypes.QueryResult{}, err
	}
	result, err := g.exec.ExecuteNonQuery(ctx, query)
	g.observe()
	return result, err
}

// ExecuteRaw validates and runs query without cache interaction, for
// statements (batch-first DDL) the cache must never serve stale.
func (g *Gateway) ExecuteRaw(ctx context.Context, query string) (sqltypes.QueryResult, error) {
	if err := g.validate(query); err != nil {
		return sqltypes.QueryResult{}, err
	}
	result, err := g.exec.ExecuteRaw(ctx, query)
	g.observe()
	return result, err
}

// ExecuteMultiBatch validates the whole script as one query, then runs it
// batch by batch.
func (g *Gateway) ExecuteMultiBatch(ctx context.Context, script string) (sqltypes.QueryResult, error) {
	if err := g.validate(script); err != nil {
		return sqltypes.QueryResult{}, err
	}
	result, err := g.exec.ExecuteMultiBatch(ctx, script)
	g.observe()
	return result, err
}

// ExecuteWithPlan validates and runs query wrapped with SHOWPLAN/STATISTICS.
func (g *Gateway) ExecuteWithPlan(ctx context.Context, query string, planType executor.PlanType) (sqltypes.QueryResult, error) {
	if err := g.validate(query); err != nil {
		return sqltypes.QueryResult{}, err
	}
	result, err := g.exec.ExecuteWithShowplan(ctx, query, planType)
	g.observe()
	return result, err
}

// --- Procedure operations ----------------------------------------------

// ExecuteProcedure builds and runs an EXEC statement against
// schema.procedure, binding params as named `@name = value` arguments,
// grounded on original_source's execute_procedure tool.
func (g *Gateway) ExecuteProcedure(ctx context.Context, schema, procedure string, params map[string]sqltypes.SqlValue) (sqltypes.QueryResult, error) {
	escSchema, err := security.SafeIdentifier(schema)
	if err != nil {
		return sqltypes.QueryResult{}, dberrors.InvalidInput("invalid schema name: " + err.Error())
	}
	escProc, err := security.SafeIdentifier(procedure)
	if err != nil {
		return sqltypes.QueryResult{}, dberrors.InvalidInput("invalid procedure name: " + err.Error())
	}

	query := fmt.Sprintf("EXEC %s.%s%s", escSchema, escProc, formatProcedureParams(params))

	result, err := g.exec.Execute(ctx, query)
	g.observe()
	return result, err
}

func formatProcedureParams(params map[string]sqltypes.SqlValue) string {
	if len(params) == 0 {
		return ""
	}
	parts := make([]string, 0, len(params))
	for name, value := range params {
		paramName := name
		if !strings.HasPrefix(paramName, "@") {
			paramName = "@" + paramName
		}
		parts = append(parts, fmt.Sprintf("%s = %s", paramName, formatSQLLiteral(value)))
	}
	return " " + strings.Join(parts, ", ")
}

// formatSQLLiteral renders a value as a T-SQL literal suitable for direct
// substitution into an EXEC parameter list: strings are N'...'-quoted with
// embedded quotes doubled, byte slices become a 0x hex literal, null is the
// NULL keyword, everything else uses its natural display form.
func formatSQLLiteral(v sqltypes.SqlValue) string {
	if v.IsNull() {
		return "NULL"
	}
	switch v.Kind {
	case sqltypes.KindString:
		return "N'" + strings.ReplaceAll(v.Str, "'", "''") + "'"
	case sqltypes.KindBool:
		if v.Bool {
			return "1"
		}
		return "0"
	case sqltypes.KindBytes:
		return v.Display()
	default:
		return v.Display()
	}
}

// --- Async operations ---------------------------------------------------

func (g *Gateway) ExecuteAsync(query string, maxRows, timeoutSeconds int) (string, error) {
	if err := g.validate(query); err != nil {
		return "", err
	}
	if maxRows <= 0 {
		maxRows = g.cfg.Executor.DefaultMaxRows
	}
	if timeoutSeconds <= 0 {
		timeoutSeconds = int(g.cfg.Async.DefaultTimeout.Seconds())
	}
	id, err := g.async.Execute(context.Background(), query, maxRows, timeoutSeconds)
	g.observe()
	return id, err
}

func (g *Gateway) GetSessionStatus(id string) (*async.Session, error) { return g.async.Get(id) }

func (g *Gateway) GetSessionResults(id string) (*async.Session, error) {
	s, err := g.async.Get(id)
	if err != nil {
		return nil, err
	}
	if s.Status != async.StatusCompleted {
		return nil, dberrors.Session(fmt.Sprintf("session %s has not completed (status: %s)", id, s.Status))
	}
	return s, nil
}

func (g *Gateway) CancelSession(id string) (*async.Session, error) { return g.async.Cancel(id) }

func (g *Gateway) ListSessions(filter async.Status) []async.Session { return g.async.List(filter) }

// --- Transaction operations ----------------------------------------------

func (g *Gateway) BeginTransaction(ctx context.Context, name, isolationLevel string) (*txmgr.Transaction, error) {
	tx, err := g.txns.Begin(ctx, name, isolationLevel)
	g.observe()
	return tx, err
}

func (g *Gateway) ExecuteInTransaction(ctx context.Context, id, query string) (sqltypes.QueryResult, error) {
	if err := g.validate(query); err != nil {
		return sqltypes.QueryResult{}, err
	}
	return g.txns.ExecuteIn(ctx, id, query)
}

func (g *Gateway) CommitTransaction(ctx context.Context, id string) (*txmgr.Transaction, error) {
	tx, err := g.txns.Commit(ctx, id)
	g.observe()
	return tx, err
}

func (g *Gateway) RollbackTransaction(ctx context.Context, id, savepoint string) (*txmgr.Transaction, bool, error) {
	tx, endsTransaction, err := g.txns.Rollback(ctx, id, savepoint)
	g.observe()
	return tx, endsTransaction, err
}

// --- Pinned-session operations --------------------------------------------

func (g *Gateway) BeginSession(ctx context.Context, sessionID string) (*pinned.Info, error) {
	info, err := g.sessions.Begin(ctx, sessionID)
	g.observe()
	return info, err
}

func (g *Gateway) ExecuteInSession(ctx context.Context, sessionID, query string) (sqltypes.QueryResult, error) {
	if err := g.validate(query); err != nil {
		return sqltypes.QueryResult{}, err
	}
	return g.sessions.ExecuteIn(ctx, sessionID, query)
}

func (g *Gateway) EndSession(ctx context.Context, sessionID string) (*pinned.Info, error) {
	info, err := g.sessions.End(ctx, sessionID)
	g.observe()
	return info, err
}

func (g *Gateway) ListPinnedSessions() []pinned.Info { return g.sessions.List() }

// --- Metadata operations ---------------------------------------------------

func (g *Gateway) ServerInfo(ctx context.Context) (metadata.ServerInfo, error) {
	return g.meta.GetServerInfo(ctx)
}
func (g *Gateway) ListDatabases(ctx context.Context) ([]metadata.DatabaseInfo, error) {
	return g.meta.ListDatabases(ctx)
}
func (g *Gateway) ListSchemas(ctx context.Context) ([]string, error) { return g.meta.ListSchemas(ctx) }
func (g *Gateway) ListTables(ctx context.Context, schema string) ([]metadata.TableInfo, error) {
	return g.meta.ListTables(ctx, schema)
}
func (g *Gateway) ListViews(ctx context.Context, schema string) ([]metadata.ViewInfo, error) {
	return g.meta.ListViews(ctx, schema)
}
func (g *Gateway) ListProcedures(ctx context.Context, schema string) ([]metadata.ProcedureInfo, error) {
	return g.meta.ListProcedures(ctx, schema)
}
func (g *Gateway) ListFunctions(ctx context.Context, schema string) ([]metadata.FunctionInfo, error) {
	return g.meta.ListFunctions(ctx, schema)
}
func (g *Gateway) ListTriggers(ctx context.Context, schema string) ([]metadata.TriggerInfo, error) {
	return g.meta.ListTriggers(ctx, schema)
}

// ObjectDetails returns the columns of a table or view, and a stored
// procedure's or function's parameters and definition, as applicable — a
// single entry point over the several object-kind-specific metadata calls.
func (g *Gateway) ObjectDetails(ctx context.Context, schema, name, kind string) (any, error) {
	switch strings.ToLower(kind) {
	case "table", "view":
		return g.meta.GetTableColumns(ctx, schema, name)
	case "procedure":
		params, err := g.meta.GetProcedureParameters(ctx, schema, name)
		if err != nil {
			return nil, err
		}
		definition, err := g.meta.GetProcedureDefinition(ctx, schema, name)
		if err != nil {
			return nil, err
		}
		return struct {
			Parameters []metadata.ProcedureParameter
			Definition *string
		}{params, definition}, nil
	case "function":
		return g.meta.GetFunctionParameters(ctx, schema, name)
	default:
		return nil, dberrors.InvalidInput("unknown object kind: " + kind)
	}
}

// --- Cache operations ----------------------------------------------------

func (g *Gateway) CacheStats() cache.Stats { return g.cache.Stats() }
func (g *Gateway) CacheClear()             { g.cache.Clear() }
func (g *Gateway) CacheInvalidate(pattern string) int {
	return g.cache.Invalidate(pattern)
}

// --- Admin operations ----------------------------------------------------

// HealthCheck runs a trivial round-trip query and reports pool/cache state.
func (g *Gateway) HealthCheck(ctx context.Context) error {
	_, err := g.exec.Execute(ctx, "SELECT 1")
	g.observe()
	return err
}

func (g *Gateway) SetDefaultTimeout(seconds int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.defaultTimeoutS = seconds
}

func (g *Gateway) GetDefaultTimeout() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.defaultTimeoutS
}

// SwitchDatabase issues USE <database> on one pooled connection and updates
// the gateway's notion of the current database for cache-key purposes. Per
// original_source's switch_database tool, this affects only the connection
// that happens to service the USE statement; database/sql's own pooling
// means a subsequent operation may run on a different connection still
// defaulted to the login-time database. Callers that need a guaranteed
// per-connection database should use a pinned session instead.
func (g *Gateway) SwitchDatabase(ctx context.Context, database string) error {
	escaped, err := security.SafeIdentifier(database)
	if err != nil {
		return dberrors.InvalidInput("invalid database name: " + err.Error())
	}
	if _, err := g.exec.ExecuteNonQuery(ctx, "USE "+escaped); err != nil {
		return err
	}
	g.mu.Lock()
	g.currentDatabase = database
	g.mu.Unlock()
	return nil
}
