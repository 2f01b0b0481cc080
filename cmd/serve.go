package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/inletmail/gmail-mcp/internal/auth"
	"github.com/inletmail/gmail-mcp/internal/config"
	"github.com/inletmail/gmail-mcp/internal/instrumentation"
	"github.com/inletmail/gmail-mcp/internal/logging"
	"github.com/inletmail/gmail-mcp/internal/server"
	"github.com/inletmail/gmail-mcp/internal/tools"
)

// serveOptions holds the flag values for the serve command.
type serveOptions struct {
	transport       string
	httpAddr        string
	requestTimeout  time.Duration
	logLevel        string
	logFormat       string
	userCredentials bool
	metricsEnabled  bool
	metricsAddr     string
}

func newServeCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Gmail tool server",
		Long: `Start the Gmail tool server on the chosen transport.

Transports:
  - stdio: MCP server on standard input/output (default)
  - http:  HTTP API server (tool catalogue, per-tool endpoints, MCP JSON dispatch)

Authentication:
  By default every tool call uses the server-wide credential written by
  "gmail-mcp auth". With --user-credentials (or USE_USER_CREDENTIALS=true)
  requests may instead carry their own OAuth tokens in the tool arguments;
  such requests never touch the server credential.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("user-credentials") {
				opts.userCredentials = config.UserCredentialsEnabled()
			}
			return runServe(opts)
		},
	}

	cmd.Flags().StringVar(&opts.transport, "transport", "stdio", "Transport type: stdio or http")
	cmd.Flags().StringVar(&opts.httpAddr, "http-addr", ":8080", "HTTP server address (http transport)")
	cmd.Flags().DurationVar(&opts.requestTimeout, "request-timeout", server.DefaultRequestTimeout, "Per-request deadline for HTTP tool calls")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "info", "Log level: debug, info, warn or error")
	cmd.Flags().StringVar(&opts.logFormat, "log-format", "text", "Log format: text or json (stdio transport always logs json to stderr)")
	cmd.Flags().BoolVar(&opts.userCredentials, "user-credentials", false, "Accept per-request user credentials in tool arguments. Can also use USE_USER_CREDENTIALS env var.")
	cmd.Flags().BoolVar(&opts.metricsEnabled, "metrics-enabled", true, "Serve Prometheus metrics (own listener for stdio, /metrics for http)")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", ":9090", "Metrics listener address (stdio transport)")

	return cmd
}

func runServe(opts serveOptions) error {
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// The MCP protocol owns stdout on the stdio transport, so logs go to
	// stderr as JSON there.
	var logger *slog.Logger
	if opts.transport == "stdio" {
		logger = logging.New(os.Stderr, "json", opts.logLevel)
	} else {
		logger = logging.New(os.Stdout, opts.logFormat, opts.logLevel)
	}
	slog.SetDefault(logger)

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version
	provider, err := instrumentation.NewProvider(ctx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Error("instrumentation shutdown failed", logging.Err(err))
		}
	}()

	cfg, err := config.Load(config.DefaultRedirectURI)
	if err != nil {
		return err
	}
	cfg.UseUserCredentials = cfg.UseUserCredentials || opts.userCredentials

	factory := auth.NewClientFactory(cfg.Identity.ClientID, cfg.Identity.ClientSecret, cfg.Identity.RedirectURI)
	middleware := auth.NewMiddleware(factory, logger)

	sc := server.NewServerContext(ctx, cfg, logger, provider.Metrics(), version)
	defer sc.Shutdown()

	dispatcher := tools.NewDispatcher(middleware, cfg.UseUserCredentials, sc, logger, provider.Metrics())

	logger.Info("starting gmail-mcp",
		slog.String("transport", opts.transport),
		slog.String("version", version),
		slog.Bool("user_credentials", cfg.UseUserCredentials))

	serveMetrics := opts.metricsEnabled && provider.Enabled() &&
		instrConfig.MetricsExporter == instrumentation.ExporterPrometheus

	switch opts.transport {
	case "stdio":
		return runStdioServer(ctx, sc, dispatcher, logger, serveMetrics, opts.metricsAddr)
	case "http":
		return runHTTPServer(ctx, sc, dispatcher, logger, provider.Metrics(), opts, serveMetrics)
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, http)", opts.transport)
	}
}

func runStdioServer(ctx context.Context, sc *server.ServerContext, dispatcher *tools.Dispatcher, logger *slog.Logger, serveMetrics bool, metricsAddr string) error {
	mcpSrv := mcpserver.NewMCPServer("gmail-mcp", version,
		mcpserver.WithToolCapabilities(true),
	)
	tools.Register(mcpSrv, dispatcher, sc.UserCredentialMode())

	if serveMetrics {
		ms := server.NewMetricsServer(metricsAddr, logger)
		ms.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := ms.Shutdown(shutdownCtx); err != nil {
				logger.Error("metrics server shutdown failed", logging.Err(err))
			}
		}()
	}

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		return nil
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("stdio server stopped with error: %w", err)
		}
		return nil
	}
}

func runHTTPServer(ctx context.Context, sc *server.ServerContext, dispatcher *tools.Dispatcher, logger *slog.Logger, metrics *instrumentation.Metrics, opts serveOptions, serveMetrics bool) error {
	hs := server.NewHTTPServer(sc, dispatcher, logger, metrics, server.HTTPOptions{
		Addr:           opts.httpAddr,
		RequestTimeout: opts.requestTimeout,
		ServeMetrics:   serveMetrics,
	})

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := hs.ListenAndServe(); err != nil {
			serverDone <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received, draining HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := hs.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down HTTP server: %w", err)
		}
		return nil
	case err := <-serverDone:
		return err
	}
}
