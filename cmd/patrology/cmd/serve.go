package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/patrology/internal/api"
	"github.com/Aman-CERP/patrology/internal/mcp"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		transport string
		addr      string
		timeout   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve search over MCP or HTTP",
		Long: `Start a server over the indexed corpus.

Transports:
  stdio  MCP over stdin/stdout, for MCP clients that launch patrology
  http   JSON API under /api and MCP streamable HTTP under /mcp

Examples:
  patrology serve
  patrology serve --transport http --addr 127.0.0.1:8080`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("transport") {
				transport = a.cfg.Server.Transport
			}
			if !cmd.Flags().Changed("addr") {
				addr = a.cfg.Server.HTTPAddr
			}
			return a.runServe(cmd.Context(), strings.ToLower(transport), addr, timeout)
		},
	}

	cmd.Flags().StringVar(&transport, "transport", "stdio", "Transport: stdio or http (default from config)")
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "HTTP listen address (default from config)")
	cmd.Flags().DurationVar(&timeout, "request-timeout", 30*time.Second, "Maximum duration of one HTTP search")

	return cmd
}

func (a *app) runServe(ctx context.Context, transport, addr string, timeout time.Duration) error {
	if transport != "stdio" && transport != "http" {
		return fmt.Errorf("unknown transport: %s (supported: stdio, http)", transport)
	}

	s, err := a.openCorpus(ctx, false)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	mcpSrv, err := mcp.NewServer(s.engine)
	if err != nil {
		return err
	}
	if s.metrics != nil {
		mcpSrv.SetMetrics(s.metrics)
	}

	if transport == "stdio" {
		err = mcpSrv.Serve(ctx, "stdio")
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}

	httpSrv, err := api.NewServer(s.engine,
		api.WithHandler("/mcp", mcpSrv.Handler()),
		api.WithRequestTimeout(timeout))
	if err != nil {
		return err
	}
	slog.Info("serve_started", slog.String("transport", transport), slog.String("addr", addr))
	return httpSrv.ListenAndServe(ctx, addr)
}
