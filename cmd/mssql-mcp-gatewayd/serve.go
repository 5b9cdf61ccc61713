package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/praxiomlabs/mssql-mcp-server-sub000/gateway"
)

func newServeCommand() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the gateway, reading JSON-RPC requests from stdin",
		Long: `serve builds a gateway from configuration and then reads one JSON-RPC 2.0
request per line from stdin, dispatches it to the matching gateway
operation, and writes one JSON-RPC response per line to stdout -- the
framing an MCP client expects. It does not implement the rest of the MCP
handshake (initialize/list_tools negotiation); that belongs to a proper MCP
SDK once one exists for Go, and is intentionally out of scope here.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configFile)
		},
	}
	cmd.Flags().StringVar(&configFile, "config", "", "path to a YAML/JSON/TOML config file")
	return cmd
}

func runServe(ctx context.Context, configFile string) error {
	cfg, err := loadConfig(configFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	gw, err := gateway.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("starting gateway: %w", err)
	}
	stopSignals := gw.ListenForSignals(ctx)
	defer stopSignals()

	log.Info().Str("listen", cfg.Metrics.ListenAddress).Msg("serving JSON-RPC requests on stdin/stdout")
	return serveJSONRPC(ctx, gw, os.Stdin, os.Stdout)
}

// rpcRequest is the minimal JSON-RPC 2.0 envelope this process accepts:
// {"id": ..., "method": "execute", "params": {...}}.
type rpcRequest struct {
	ID     json.RawMessage `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

type rpcResponse struct {
	ID     json.RawMessage `json:"id"`
	Result any             `json:"result,omitempty"`
	Error  *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// serveJSONRPC reads newline-delimited JSON-RPC requests from r and writes
// newline-delimited responses to w until r is exhausted or ctx is
// cancelled. Each request is dispatched by name against the Gateway's
// operation surface (see dispatch.go); the method-name -> operation mapping
// is the contract an MCP tool adapter sitting in front of this process
// would implement against.
func serveJSONRPC(ctx context.Context, gw *gateway.Gateway, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	enc := json.NewEncoder(w)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req rpcRequest
		if err := json.Unmarshal(line, &req); err != nil {
			_ = enc.Encode(rpcResponse{Error: &rpcError{Code: -32700, Message: "parse error: " + err.Error()}})
			continue
		}

		result, err := dispatch(ctx, gw, req.Method, req.Params)
		if err != nil {
			_ = enc.Encode(rpcResponse{ID: req.ID, Error: &rpcError{Code: -32000, Message: err.Error()}})
			continue
		}
		_ = enc.Encode(rpcResponse{ID: req.ID, Result: result})
	}
	return scanner.Err()
}
