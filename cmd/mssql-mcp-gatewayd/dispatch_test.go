package main

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praxiomlabs/mssql-mcp-server-sub000/internal/async"
	"github.com/praxiomlabs/mssql-mcp-server-sub000/internal/sqltypes"
)

func TestParseStatusFilterDefaultsToAll(t *testing.T) {
	assert.Equal(t, async.AnyStatus, parseStatusFilter(""))
	assert.Equal(t, async.AnyStatus, parseStatusFilter("all"))
	assert.Equal(t, async.AnyStatus, parseStatusFilter("bogus"))
	assert.Equal(t, async.StatusRunning, parseStatusFilter("running"))
	assert.Equal(t, async.StatusCompleted, parseStatusFilter("completed"))
	assert.Equal(t, async.StatusFailed, parseStatusFilter("failed"))
	assert.Equal(t, async.StatusCancelled, parseStatusFilter("cancelled"))
}

func TestSqlValueFromJSONMapsPrimitiveKinds(t *testing.T) {
	assert.True(t, sqlValueFromJSON(nil).IsNull())
	assert.Equal(t, sqltypes.FromBool(true), sqlValueFromJSON(true))
	assert.Equal(t, sqltypes.FromF64(3.5), sqlValueFromJSON(3.5))
	assert.Equal(t, sqltypes.FromString("hi"), sqlValueFromJSON("hi"))
}

func TestDecodeProcedureParamsEmptyIsNil(t *testing.T) {
	params, err := decodeProcedureParams(nil)
	require.NoError(t, err)
	assert.Nil(t, params)
}

func TestDecodeProcedureParamsDecodesEachValue(t *testing.T) {
	raw := map[string]json.RawMessage{
		"CustomerID": json.RawMessage(`42`),
		"Name":       json.RawMessage(`"Acme"`),
	}
	params, err := decodeProcedureParams(raw)
	require.NoError(t, err)
	assert.Equal(t, sqltypes.FromF64(42), params["CustomerID"])
	assert.Equal(t, sqltypes.FromString("Acme"), params["Name"])
}

func TestWithSchemaPassesSchemaThrough(t *testing.T) {
	got := ""
	fn := func(_ context.Context, schema string) (string, error) {
		got = schema
		return "ok", nil
	}
	result, err := withSchema(context.Background(), json.RawMessage(`{"schema":"dbo"}`), fn)
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, "dbo", got)
}
