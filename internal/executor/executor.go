// Package executor runs SQL text against pooled connections and shapes the
// driver's rows into QueryResult values, honoring row limits, timeouts, and
// the batch-separator/batch-first-DDL rules SQL Server imposes.
package executor

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/praxiomlabs/mssql-mcp-server-sub000/internal/dberrors"
	"github.com/praxiomlabs/mssql-mcp-server-sub000/internal/pool"
	"github.com/praxiomlabs/mssql-mcp-server-sub000/internal/security"
	"github.com/praxiomlabs/mssql-mcp-server-sub000/internal/sqltypes"
)

// PlanType selects the SHOWPLAN/STATISTICS wrapping used by
// ExecuteWithShowplan.
type PlanType int

const (
	PlanEstimated PlanType = iota
	PlanActual
)

// Executor runs queries against the pool's connections.
type Executor struct {
	pool           *pool.Pool
	defaultMaxRows int
}

func New(p *pool.Pool, defaultMaxRows int) *Executor {
	return &Executor{pool: p, defaultMaxRows: defaultMaxRows}
}

func truncateForLog(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// Execute runs query with the executor's default row limit and no timeout.
func (e *Executor) Execute(ctx context.Context, query string) (sqltypes.QueryResult, error) {
	return e.ExecuteWithOptions(ctx, query, e.defaultMaxRows, 0)
}

// ExecuteWithLimit runs query with an explicit row limit.
func (e *Executor) ExecuteWithLimit(ctx context.Context, query string, maxRows int) (sqltypes.QueryResult, error) {
	return e.ExecuteWithOptions(ctx, query, maxRows, 0)
}

// ExecuteWithTimeout runs query with the default row limit under a wall-clock
// timeout.
func (e *Executor) ExecuteWithTimeout(ctx context.Context, query string, timeoutSeconds int) (sqltypes.QueryResult, error) {
	return e.ExecuteWithOptions(ctx, query, e.defaultMaxRows, timeoutSeconds)
}

// ExecuteWithOptions is the primary execution path; the other Execute*
// methods delegate to it. When timeoutSeconds > 0, checkout, query
// dispatch, and row streaming are all bounded by one deadline.
func (e *Executor) ExecuteWithOptions(ctx context.Context, query string, maxRows int, timeoutSeconds int) (sqltypes.QueryResult, error) {
	start := time.Now()

	log.Debug().Str("component", "executor").Int("max_rows", maxRows).Int("timeout_s", timeoutSeconds).
		Str("query", truncateForLog(query, 200)).Msg("executing query")

	runCtx := ctx
	var cancel context.CancelFunc
	if timeoutSeconds > 0 {
		runCtx, cancel = context.WithTimeout(ctx, time.Duration(timeoutSeconds)*time.Second)
		defer cancel()
	}

	conn, err := e.pool.Acquire(runCtx)
	if err != nil {
		return sqltypes.QueryResult{}, err
	}
	defer e.pool.Release(conn)

	rows, err := conn.QueryContext(runCtx, query)
	if err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			return sqltypes.QueryResult{}, dberrors.Timeout(timeoutSeconds)
		}
		return sqltypes.QueryResult{}, dberrors.QueryExecution(fmt.Sprintf("query execution failed: %v", err), nil, "")
	}
	defer rows.Close()

	result, err := ProcessRows(rows, maxRows, start)
	if err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			return sqltypes.QueryResult{}, dberrors.Timeout(timeoutSeconds)
		}
		return sqltypes.QueryResult{}, err
	}

	log.Debug().Str("component", "executor").Int("rows", len(result.Rows)).
		Int64("execution_time_ms", result.ExecutionTimeMs).Msg("query completed")

	return result, nil
}

// ExecuteNonQuery runs query for its side effect (INSERT/UPDATE/DELETE) and
// returns rows_affected with empty columns/rows.
func (e *Executor) ExecuteNonQuery(ctx context.Context, query string) (sqltypes.QueryResult, error) {
	start := time.Now()
	log.Debug().Str("component", "executor").Str("query", truncateForLog(query, 200)).Msg("executing non-query")

	conn, err := e.pool.Acquire(ctx)
	if err != nil {
		return sqltypes.QueryResult{}, err
	}
	defer e.pool.Release(conn)

	res, err := conn.ExecContext(ctx, query)
	if err != nil {
		return sqltypes.QueryResult{}, dberrors.QueryExecution(fmt.Sprintf("non-query execution failed: %v", err), nil, "")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		affected = 0
	}

	return sqltypes.QueryResult{
		RowsAffected:    affected,
		ExecutionTimeMs: time.Since(start).Milliseconds(),
	}, nil
}

// ExecuteRaw runs query unmodified on its own connection, for batch-first
// DDL (CREATE/ALTER VIEW|PROCEDURE|FUNCTION|TRIGGER) that must be the sole
// statement in its batch.
func (e *Executor) ExecuteRaw(ctx context.Context, query string) (sqltypes.QueryResult, error) {
	start := time.Now()
	log.Debug().Str("component", "executor").Str("query", truncateForLog(query, 200)).Msg("executing raw query")

	conn, err := e.pool.Acquire(ctx)
	if err != nil {
		return sqltypes.QueryResult{}, err
	}
	defer e.pool.Release(conn)

	rows, err := conn.QueryContext(ctx, query)
	if err != nil {
		return sqltypes.QueryResult{}, dberrors.QueryExecution(fmt.Sprintf("raw query failed: %v", err), nil, "")
	}
	defer rows.Close()

	return ProcessRows(rows, e.defaultMaxRows, start)
}

// RequiresRawExecution reports whether query is batch-first DDL.
func RequiresRawExecution(query string) bool {
	return requiresRawExecution(query, security.StripLeadingComments)
}

// ContainsGoSeparator reports whether script contains a GO batch separator.
func ContainsGoSeparator(script string) bool {
	return containsGoSeparator(script)
}

// ExecuteMultiBatch splits script on GO separators and runs each batch in
// turn on one connection, merging all rows into a single QueryResult.
func (e *Executor) ExecuteMultiBatch(ctx context.Context, script string) (sqltypes.QueryResult, error) {
	start := time.Now()
	batches := splitOnGo(script)

	log.Debug().Str("component", "executor").Int("batch_count", len(batches)).Msg("executing multi-batch query")

	conn, err := e.pool.Acquire(ctx)
	if err != nil {
		return sqltypes.QueryResult{}, err
	}
	defer e.pool.Release(conn)

	var combinedColumns []sqltypes.ColumnMeta
	var combinedRows []sqltypes.ResultRow
	batchNum := 0

	for _, batch := range batches {
		trimmed := strings.TrimSpace(batch)
		if trimmed == "" {
			continue
		}
		batchNum++

		rows, err := conn.QueryContext(ctx, trimmed)
		if err != nil {
			return sqltypes.QueryResult{}, dberrors.QueryExecution(
				fmt.Sprintf("batch %d failed: %v", batchNum, err), nil, "")
		}

		partial, err := ProcessRows(rows, e.defaultMaxRows-len(combinedRows), start)
		rows.Close()
		if err != nil {
			return sqltypes.QueryResult{}, dberrors.QueryExecution(
				fmt.Sprintf("batch %d result collection failed: %v", batchNum, err), nil, "")
		}

		if len(combinedColumns) == 0 {
			combinedColumns = partial.Columns
		}
		combinedRows = append(combinedRows, partial.Rows...)
	}

	truncated := len(combinedRows) >= e.defaultMaxRows

	return sqltypes.QueryResult{
		Columns:         combinedColumns,
		Rows:            combinedRows,
		ExecutionTimeMs: time.Since(start).Milliseconds(),
		Truncated:       truncated,
	}, nil
}

// ExecuteWithShowplan wraps query with SHOWPLAN (estimated) or STATISTICS
// (actual) and returns the plan/profile rows.
func (e *Executor) ExecuteWithShowplan(ctx context.Context, query string, planType PlanType) (sqltypes.QueryResult, error) {
	start := time.Now()

	conn, err := e.pool.Acquire(ctx)
	if err != nil {
		return sqltypes.QueryResult{}, err
	}
	defer e.pool.Release(conn)

	setOn, setOff := "SET SHOWPLAN_ALL ON", "SET SHOWPLAN_ALL OFF"
	if planType == PlanActual {
		setOn = "SET STATISTICS PROFILE ON; SET STATISTICS IO ON; SET STATISTICS TIME ON"
		setOff = "SET STATISTICS PROFILE OFF; SET STATISTICS IO OFF; SET STATISTICS TIME OFF"
	}

	if planType != PlanActual {
		if _, err := conn.ExecContext(ctx, setOn); err != nil {
			return sqltypes.QueryResult{}, dberrors.QueryExecution(fmt.Sprintf("failed to enable SHOWPLAN: %v", err), nil, "")
		}

		rows, err := conn.QueryContext(ctx, query)
		if err != nil {
			return sqltypes.QueryResult{}, dberrors.QueryExecution(fmt.Sprintf("failed to get execution plan: %v", err), nil, "")
		}
		result, procErr := ProcessRows(rows, e.defaultMaxRows, start)
		rows.Close()

		_, _ = conn.ExecContext(ctx, setOff)

		if procErr != nil {
			return sqltypes.QueryResult{}, procErr
		}
		return result, nil
	}

	fullQuery := fmt.Sprintf("%s\n%s\n%s", setOn, query, setOff)
	rows, err := conn.QueryContext(ctx, fullQuery)
	if err != nil {
		return sqltypes.QueryResult{}, dberrors.QueryExecution(fmt.Sprintf("failed to execute with statistics: %v", err), nil, "")
	}
	defer rows.Close()

	return ProcessRows(rows, e.defaultMaxRows, start)
}

// ProcessRows streams rows, derives column metadata from the first row,
// and materializes up to maxRows ResultRows, flagging truncation. Exported
// so the transaction and pinned-session managers, which run queries on
// their own dedicated connections rather than through Executor, can shape
// results the same way.
func ProcessRows(rows *sql.Rows, maxRows int, start time.Time) (sqltypes.QueryResult, error) {
	if maxRows < 0 {
		maxRows = 0
	}

	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return sqltypes.QueryResult{}, dberrors.QueryExecution(fmt.Sprintf("failed to read column metadata: %v", err), nil, "")
	}

	var columns []sqltypes.ColumnMeta
	var resultRows []sqltypes.ResultRow
	truncated := false

	scanDest := make([]interface{}, len(colTypes))
	scanBuf := make([]interface{}, len(colTypes))
	for i := range scanBuf {
		scanDest[i] = &scanBuf[i]
	}

	idx := 0
	for rows.Next() {
		if err := rows.Scan(scanDest...); err != nil {
			return sqltypes.QueryResult{}, dberrors.QueryExecution(fmt.Sprintf("failed to scan row: %v", err), nil, "")
		}

		if columns == nil {
			columns = make([]sqltypes.ColumnMeta, len(colTypes))
			for i, ct := range colTypes {
				nullable, _ := ct.Nullable()
				columns[i] = sqltypes.ColumnMeta{
					Name:     ct.Name(),
					SQLType:  strings.ToLower(ct.DatabaseTypeName()),
					Nullable: nullable,
				}
			}
		}

		if idx >= maxRows {
			truncated = true
			idx++
			continue
		}

		values := make([]sqltypes.SqlValue, len(colTypes))
		for i, ct := range colTypes {
			values[i] = sqltypes.ExtractColumn(scanBuf[i], ct.DatabaseTypeName())
		}
		resultRows = append(resultRows, sqltypes.NewResultRow(columns, values))
		idx++
	}
	if err := rows.Err(); err != nil {
		return sqltypes.QueryResult{}, dberrors.QueryExecution(fmt.Sprintf("row iteration failed: %v", err), nil, "")
	}

	if columns == nil {
		columns = make([]sqltypes.ColumnMeta, len(colTypes))
		for i, ct := range colTypes {
			nullable, _ := ct.Nullable()
			columns[i] = sqltypes.ColumnMeta{Name: ct.Name(), SQLType: strings.ToLower(ct.DatabaseTypeName()), Nullable: nullable}
		}
	}

	return sqltypes.QueryResult{
		Columns:         columns,
		Rows:            resultRows,
		ExecutionTimeMs: time.Since(start).Milliseconds(),
		Truncated:       truncated,
	}, nil
}
