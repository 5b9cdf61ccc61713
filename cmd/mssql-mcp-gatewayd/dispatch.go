package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/praxiomlabs/mssql-mcp-server-sub000/gateway"
	"github.com/praxiomlabs/mssql-mcp-server-sub000/internal/async"
	"github.com/praxiomlabs/mssql-mcp-server-sub000/internal/executor"
	"github.com/praxiomlabs/mssql-mcp-server-sub000/internal/sqltypes"
)

// dispatch maps a JSON-RPC method name onto one Gateway operation. The
// method names are exactly the tool-catalogue operation names the facade
// documents (see SPEC_FULL.md's external-interfaces section); an MCP tool
// adapter built against a real SDK would expose this same mapping as its
// tool definitions.
func dispatch(ctx context.Context, gw *gateway.Gateway, method string, params json.RawMessage) (any, error) {
	switch method {
	case "execute":
		var p struct {
			Query   string `json:"query"`
			MaxRows int    `json:"max_rows"`
		}
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return gw.Execute(ctx, p.Query, p.MaxRows)

	case "execute_non_query":
		var p struct {
			Query string `json:"query"`
		}
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return gw.ExecuteNonQuery(ctx, p.Query)

	case "execute_raw":
		var p struct {
			Query string `json:"query"`
		}
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return gw.ExecuteRaw(ctx, p.Query)

	case "execute_multi_batch":
		var p struct {
			Script string `json:"script"`
		}
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return gw.ExecuteMultiBatch(ctx, p.Script)

	case "execute_with_plan":
		var p struct {
			Query    string `json:"query"`
			Estimate bool   `json:"estimate"`
		}
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		planType := executor.PlanEstimated
		if !p.Estimate {
			planType = executor.PlanActual
		}
		return gw.ExecuteWithPlan(ctx, p.Query, planType)

	case "execute_procedure":
		var p struct {
			Schema string                     `json:"schema"`
			Name   string                     `json:"name"`
			Params map[string]json.RawMessage `json:"params"`
		}
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		procParams, err := decodeProcedureParams(p.Params)
		if err != nil {
			return nil, err
		}
		return gw.ExecuteProcedure(ctx, p.Schema, p.Name, procParams)

	case "execute_async":
		var p struct {
			Query          string `json:"query"`
			MaxRows        int    `json:"max_rows"`
			TimeoutSeconds int    `json:"timeout_seconds"`
		}
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		id, err := gw.ExecuteAsync(p.Query, p.MaxRows, p.TimeoutSeconds)
		if err != nil {
			return nil, err
		}
		return map[string]string{"session_id": id}, nil

	case "get_session_status":
		var p struct {
			SessionID string `json:"session_id"`
		}
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return gw.GetSessionStatus(p.SessionID)

	case "get_session_results":
		var p struct {
			SessionID string `json:"session_id"`
		}
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return gw.GetSessionResults(p.SessionID)

	case "cancel_session":
		var p struct {
			SessionID string `json:"session_id"`
		}
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return gw.CancelSession(p.SessionID)

	case "list_sessions":
		var p struct {
			StatusFilter string `json:"status_filter"`
		}
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return gw.ListSessions(parseStatusFilter(p.StatusFilter)), nil

	case "begin":
		var p struct {
			Name           string `json:"name"`
			IsolationLevel string `json:"isolation_level"`
		}
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return gw.BeginTransaction(ctx, p.Name, p.IsolationLevel)

	case "execute_in_tx":
		var p struct {
			TxID  string `json:"tx_id"`
			Query string `json:"query"`
		}
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return gw.ExecuteInTransaction(ctx, p.TxID, p.Query)

	case "commit":
		var p struct {
			TxID string `json:"tx_id"`
		}
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return gw.CommitTransaction(ctx, p.TxID)

	case "rollback":
		var p struct {
			TxID      string `json:"tx_id"`
			Savepoint string `json:"savepoint"`
		}
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		tx, endsTransaction, err := gw.RollbackTransaction(ctx, p.TxID, p.Savepoint)
		if err != nil {
			return nil, err
		}
		return map[string]any{"transaction": tx, "ends_transaction": endsTransaction}, nil

	case "pinned_begin":
		var p struct {
			SessionID string `json:"session_id"`
		}
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return gw.BeginSession(ctx, p.SessionID)

	case "pinned_execute_in":
		var p struct {
			SessionID string `json:"session_id"`
			Query     string `json:"query"`
		}
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return gw.ExecuteInSession(ctx, p.SessionID, p.Query)

	case "pinned_end":
		var p struct {
			SessionID string `json:"session_id"`
		}
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return gw.EndSession(ctx, p.SessionID)

	case "pinned_list":
		return gw.ListPinnedSessions(), nil

	case "server_info":
		return gw.ServerInfo(ctx)

	case "list_databases":
		return gw.ListDatabases(ctx)

	case "list_schemas":
		return gw.ListSchemas(ctx)

	case "list_tables":
		return withSchema(ctx, params, gw.ListTables)

	case "list_views":
		return withSchema(ctx, params, gw.ListViews)

	case "list_procedures":
		return withSchema(ctx, params, gw.ListProcedures)

	case "list_functions":
		return withSchema(ctx, params, gw.ListFunctions)

	case "list_triggers":
		return withSchema(ctx, params, gw.ListTriggers)

	case "object_details":
		var p struct {
			Schema string `json:"schema"`
			Name   string `json:"name"`
			Kind   string `json:"kind"`
		}
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return gw.ObjectDetails(ctx, p.Schema, p.Name, p.Kind)

	case "cache_stats":
		return gw.CacheStats(), nil

	case "cache_clear":
		gw.CacheClear()
		return map[string]bool{"cleared": true}, nil

	case "cache_invalidate":
		var p struct {
			Pattern string `json:"pattern"`
		}
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return map[string]int{"invalidated": gw.CacheInvalidate(p.Pattern)}, nil

	case "health_check":
		if err := gw.HealthCheck(ctx); err != nil {
			return nil, err
		}
		return map[string]bool{"healthy": true}, nil

	case "set_default_timeout":
		var p struct {
			Seconds int `json:"seconds"`
		}
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		gw.SetDefaultTimeout(p.Seconds)
		return map[string]bool{"ok": true}, nil

	case "get_default_timeout":
		return map[string]int{"seconds": gw.GetDefaultTimeout()}, nil

	case "switch_database":
		var p struct {
			Database string `json:"database"`
		}
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		if err := gw.SwitchDatabase(ctx, p.Database); err != nil {
			return nil, err
		}
		return map[string]bool{"ok": true}, nil

	default:
		return nil, fmt.Errorf("unknown method: %s", method)
	}
}

func unmarshal(raw json.RawMessage, dest any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("invalid params: %w", err)
	}
	return nil
}

func withSchema[T any](ctx context.Context, params json.RawMessage, fn func(context.Context, string) (T, error)) (T, error) {
	var p struct {
		Schema string `json:"schema"`
	}
	var zero T
	if err := unmarshal(params, &p); err != nil {
		return zero, err
	}
	return fn(ctx, p.Schema)
}

func parseStatusFilter(s string) async.Status {
	switch s {
	case "running":
		return async.StatusRunning
	case "completed":
		return async.StatusCompleted
	case "failed":
		return async.StatusFailed
	case "cancelled":
		return async.StatusCancelled
	default:
		return async.AnyStatus
	}
}

func decodeProcedureParams(raw map[string]json.RawMessage) (map[string]sqltypes.SqlValue, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(map[string]sqltypes.SqlValue, len(raw))
	for name, v := range raw {
		var decoded any
		if err := json.Unmarshal(v, &decoded); err != nil {
			return nil, fmt.Errorf("invalid value for parameter %s: %w", name, err)
		}
		out[name] = sqlValueFromJSON(decoded)
	}
	return out, nil
}

// sqlValueFromJSON maps a JSON-decoded parameter onto the closest SqlValue
// kind. json.Unmarshal into `any` only ever produces nil, bool, float64,
// string, []any, or map[string]any; the last two have no SQL scalar
// equivalent, so they fall through to a string representation rather than
// erroring, consistent with formatSQLLiteral's catch-all Display() case.
func sqlValueFromJSON(v any) sqltypes.SqlValue {
	switch val := v.(type) {
	case nil:
		return sqltypes.Null()
	case bool:
		return sqltypes.FromBool(val)
	case float64:
		return sqltypes.FromF64(val)
	case string:
		return sqltypes.FromString(val)
	default:
		return sqltypes.FromString(fmt.Sprintf("%v", val))
	}
}
