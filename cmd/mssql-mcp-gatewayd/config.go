package main

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/praxiomlabs/mssql-mcp-server-sub000/internal/config"
	"github.com/praxiomlabs/mssql-mcp-server-sub000/internal/pool"
	"github.com/praxiomlabs/mssql-mcp-server-sub000/internal/security"
)

// loadConfig builds a GatewayConfig from internal/config.Default, then
// overlays an optional config file and MSSQL_GATEWAY_-prefixed environment
// variables, matching the key enumeration the tool catalogue documents
// (host/port/database, auth.*, pool.*, timeouts.*, retry.*, security.*,
// query.*, session.*, shutdown.*, metrics.*). No log.* key is read.
func loadConfig(configFile string) (config.GatewayConfig, error) {
	cfg := config.Default()

	v := viper.New()
	v.SetEnvPrefix("MSSQL_GATEWAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return cfg, fmt.Errorf("reading config file: %w", err)
		}
	}

	bindDefaults(v, cfg)

	cfg.Pool.Host = v.GetString("host")
	cfg.Pool.Port = v.GetInt("port")
	cfg.Pool.Database = v.GetString("database")
	cfg.Pool.Encrypt = v.GetBool("encrypt")
	cfg.Pool.TrustServerCertificate = v.GetBool("trust_server_certificate")
	cfg.Pool.ApplicationName = v.GetString("application_name")

	if mode := v.GetString("auth.mode"); mode != "" {
		authMode, err := pool.ParseAuthMode(mode)
		if err != nil {
			return cfg, err
		}
		cfg.Pool.Auth.Mode = authMode
	}
	cfg.Pool.Auth.Username = v.GetString("auth.username")
	cfg.Pool.Auth.Password = v.GetString("auth.password")
	cfg.Pool.Auth.ClientID = v.GetString("auth.client_id")
	cfg.Pool.Auth.ClientSecret = v.GetString("auth.client_secret")
	cfg.Pool.Auth.TenantID = v.GetString("auth.tenant_id")

	cfg.Pool.MinConnections = v.GetInt("pool.min_connections")
	cfg.Pool.MaxConnections = v.GetInt("pool.max_connections")
	cfg.Pool.ConnectionTimeout = v.GetDuration("pool.connection_timeout")
	cfg.Pool.IdleTimeout = v.GetDuration("pool.idle_timeout")
	cfg.Pool.ConnMaxLifetime = v.GetDuration("pool.conn_max_lifetime")

	cfg.Executor.DefaultTimeout = v.GetDuration("timeouts.default")
	cfg.Executor.ShowplanTimeout = v.GetDuration("timeouts.showplan")

	cfg.Retry.MaxAttempts = uint(v.GetInt("retry.max_attempts"))
	cfg.Retry.InitialBackoff = v.GetDuration("retry.initial_backoff")
	cfg.Retry.MaxBackoff = v.GetDuration("retry.max_backoff")
	cfg.Retry.Multiplier = v.GetFloat64("retry.multiplier")
	cfg.Retry.Jitter = v.GetBool("retry.jitter")

	if mode := v.GetString("security.validation_mode"); mode != "" {
		secMode, err := security.ParseMode(mode)
		if err != nil {
			return cfg, err
		}
		cfg.Validation.Mode = secMode
	}
	cfg.Validation.InjectionDetectionEnabled = v.GetBool("security.injection_detection")
	cfg.Validation.MaxQueryLength = v.GetInt("security.max_query_length")
	cfg.Executor.DefaultMaxRows = v.GetInt("security.max_result_rows")

	cfg.Cache.Enabled = v.GetBool("query.enable_caching")
	cfg.Cache.DefaultTTL = v.GetDuration("query.cache_ttl")
	cfg.Cache.MaxSizeBytes = v.GetInt64("query.cache_max_size_mb") * 1024 * 1024
	cfg.Cache.MaxEntries = v.GetInt("query.cache_max_entries")

	cfg.Session.MaxRows = v.GetInt("session.max_sessions")
	cfg.Session.SessionTimeout = v.GetDuration("session.result_retention")
	cfg.Async.CompletedTTL = v.GetDuration("session.result_retention")

	cfg.Shutdown.DrainTimeout = v.GetDuration("shutdown.drain_timeout")

	cfg.Metrics.Enabled = v.GetBool("metrics.enabled")
	cfg.Metrics.ListenAddress = v.GetString("metrics.listen_address")

	return cfg, nil
}

// bindDefaults seeds viper with cfg's own values so GetX calls return them
// when neither the config file nor the environment overrides a key.
func bindDefaults(v *viper.Viper, cfg config.GatewayConfig) {
	v.SetDefault("host", cfg.Pool.Host)
	v.SetDefault("port", cfg.Pool.Port)
	v.SetDefault("database", cfg.Pool.Database)
	v.SetDefault("encrypt", cfg.Pool.Encrypt)
	v.SetDefault("trust_server_certificate", cfg.Pool.TrustServerCertificate)
	v.SetDefault("application_name", cfg.Pool.ApplicationName)

	v.SetDefault("auth.mode", cfg.Pool.Auth.Mode.String())
	v.SetDefault("auth.username", cfg.Pool.Auth.Username)
	v.SetDefault("auth.password", cfg.Pool.Auth.Password)
	v.SetDefault("auth.client_id", cfg.Pool.Auth.ClientID)
	v.SetDefault("auth.client_secret", cfg.Pool.Auth.ClientSecret)
	v.SetDefault("auth.tenant_id", cfg.Pool.Auth.TenantID)

	v.SetDefault("pool.min_connections", cfg.Pool.MinConnections)
	v.SetDefault("pool.max_connections", cfg.Pool.MaxConnections)
	v.SetDefault("pool.connection_timeout", cfg.Pool.ConnectionTimeout)
	v.SetDefault("pool.idle_timeout", cfg.Pool.IdleTimeout)
	v.SetDefault("pool.conn_max_lifetime", cfg.Pool.ConnMaxLifetime)

	v.SetDefault("timeouts.default", cfg.Executor.DefaultTimeout)
	v.SetDefault("timeouts.showplan", cfg.Executor.ShowplanTimeout)

	v.SetDefault("retry.max_attempts", int(cfg.Retry.MaxAttempts))
	v.SetDefault("retry.initial_backoff", cfg.Retry.InitialBackoff)
	v.SetDefault("retry.max_backoff", cfg.Retry.MaxBackoff)
	v.SetDefault("retry.multiplier", cfg.Retry.Multiplier)
	v.SetDefault("retry.jitter", cfg.Retry.Jitter)

	v.SetDefault("security.validation_mode", cfg.Validation.Mode.String())
	v.SetDefault("security.injection_detection", cfg.Validation.InjectionDetectionEnabled)
	v.SetDefault("security.max_query_length", cfg.Validation.MaxQueryLength)
	v.SetDefault("security.max_result_rows", cfg.Executor.DefaultMaxRows)

	v.SetDefault("query.enable_caching", cfg.Cache.Enabled)
	v.SetDefault("query.cache_ttl", cfg.Cache.DefaultTTL)
	v.SetDefault("query.cache_max_size_mb", cfg.Cache.MaxSizeBytes/(1024*1024))
	v.SetDefault("query.cache_max_entries", cfg.Cache.MaxEntries)

	v.SetDefault("session.max_sessions", cfg.Session.MaxRows)
	v.SetDefault("session.result_retention", cfg.Session.SessionTimeout)

	v.SetDefault("shutdown.drain_timeout", cfg.Shutdown.DrainTimeout)

	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.listen_address", cfg.Metrics.ListenAddress)
}
