package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praxiomlabs/mssql-mcp-server-sub000/internal/pool"
	"github.com/praxiomlabs/mssql-mcp-server-sub000/internal/security"
)

func TestLoadConfigWithoutFileUsesDefaults(t *testing.T) {
	cfg, err := loadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Pool.Host)
	assert.Equal(t, 1433, cfg.Pool.Port)
	assert.Equal(t, security.ModeStandard, cfg.Validation.Mode)
	assert.Equal(t, pool.AuthSQLServer, cfg.Pool.Auth.Mode)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoadConfigHonorsEnvironmentOverride(t *testing.T) {
	t.Setenv("MSSQL_GATEWAY_HOST", "db.internal")
	t.Setenv("MSSQL_GATEWAY_SECURITY_VALIDATION_MODE", "ReadOnly")

	cfg, err := loadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Pool.Host)
	assert.Equal(t, security.ModeReadOnly, cfg.Validation.Mode)
}

func TestLoadConfigRejectsUnknownAuthMode(t *testing.T) {
	t.Setenv("MSSQL_GATEWAY_AUTH_MODE", "carrier-pigeon")

	_, err := loadConfig("")
	assert.Error(t, err)
}
