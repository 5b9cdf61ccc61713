// Package config assembles the gateway's component configs into one value
// object, after the teacher's ServerConfig shape (server/config.go) but
// holding each component's config as a field rather than converting through
// To*Config() methods, and without the env/flag reading that accompanies it
// there: that responsibility belongs to cmd/mssql-mcp-gatewayd, which builds
// a Config and hands it to the core fully formed.
package config

import (
	"time"

	"github.com/praxiomlabs/mssql-mcp-server-sub000/internal/cache"
	"github.com/praxiomlabs/mssql-mcp-server-sub000/internal/dberrors"
	"github.com/praxiomlabs/mssql-mcp-server-sub000/internal/pool"
	"github.com/praxiomlabs/mssql-mcp-server-sub000/internal/security"
)

// GatewayConfig is the finished, validated shape every gateway component is built
// from. Nothing in this package or its fields reads the environment.
type GatewayConfig struct {
	Pool  pool.Config
	Cache cache.Config

	Validation  ValidationConfig
	Executor    ExecutorConfig
	Transaction TransactionConfig
	Session     SessionConfig
	Async       AsyncConfig
	Shutdown    ShutdownConfig
	Retry       dberrors.RetryPolicy
	Metrics     MetricsConfig
}

// ValidationConfig configures the SQL validator/injection detector.
type ValidationConfig struct {
	Mode                      security.Mode
	MaxQueryLength            int
	InjectionDetectionEnabled bool
}

// ExecutorConfig bounds how query execution shapes and limits results.
type ExecutorConfig struct {
	DefaultMaxRows  int
	DefaultTimeout  time.Duration
	ShowplanTimeout time.Duration
}

// TransactionConfig bounds the transaction manager.
type TransactionConfig struct {
	MaxRows int
}

// SessionConfig bounds the pinned-session manager.
type SessionConfig struct {
	MaxRows        int
	SessionTimeout time.Duration
}

// AsyncConfig bounds the async query-session registry.
type AsyncConfig struct {
	MaxRunning     int
	DefaultTimeout time.Duration
	CompletedTTL   time.Duration
}

// ShutdownConfig bounds the graceful-shutdown drain.
type ShutdownConfig struct {
	DrainTimeout time.Duration
}

// MetricsConfig carries the metrics.* settings. The gateway registers its
// Prometheus collectors in-process but starts no /metrics HTTP listener;
// ListenAddress is only logged at startup and Enabled is not consulted.
type MetricsConfig struct {
	Enabled       bool
	ListenAddress string
}

// Default returns the gateway's baseline configuration, the composition of
// every component's own Default*/DefaultConfig, matching the teacher's
// DefaultServerConfig habit of giving every field a sensible starting value.
func Default() GatewayConfig {
	return GatewayConfig{
		Pool:  pool.DefaultConfig(),
		Cache: cache.DefaultConfig(),
		Validation: ValidationConfig{
			Mode:                      security.ModeStandard,
			MaxQueryLength:            1_000_000,
			InjectionDetectionEnabled: true,
		},
		Executor: ExecutorConfig{
			DefaultMaxRows:  10_000,
			DefaultTimeout:  30 * time.Second,
			ShowplanTimeout: 30 * time.Second,
		},
		Transaction: TransactionConfig{MaxRows: 10_000},
		Session: SessionConfig{
			MaxRows:        10_000,
			SessionTimeout: 30 * time.Minute,
		},
		Async: AsyncConfig{
			MaxRunning:     50,
			DefaultTimeout: 5 * time.Minute,
			CompletedTTL:   1 * time.Hour,
		},
		Shutdown: ShutdownConfig{DrainTimeout: 30 * time.Second},
		Retry:    dberrors.DefaultRetryPolicy(),
		Metrics: MetricsConfig{
			Enabled:       true,
			ListenAddress: ":9090",
		},
	}
}

// NewValidator builds the validator this configuration describes.
func (c GatewayConfig) NewValidator() *security.Validator {
	return security.NewValidator(c.Validation.Mode, c.Validation.MaxQueryLength, c.Validation.InjectionDetectionEnabled)
}
