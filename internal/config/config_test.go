package config

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/praxiomlabs/mssql-mcp-server-sub000/internal/security"
)

func TestDefaultProducesUsableComponentConfigs(t *testing.T) {
	c := Default()

	assert.Equal(t, "localhost", c.Pool.Host)
	assert.True(t, c.Cache.Enabled)
	assert.Equal(t, security.ModeStandard, c.Validation.Mode)
	assert.Greater(t, c.Executor.DefaultMaxRows, 0)
	assert.Greater(t, c.Retry.MaxAttempts, uint(0))
}

func TestNewValidatorUsesConfiguredMode(t *testing.T) {
	c := Default()
	c.Validation.Mode = security.ModeReadOnly

	v := c.NewValidator()
	assert.NotNil(t, v)
}
