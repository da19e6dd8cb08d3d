package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/teemow/donna/internal/config"
	"github.com/teemow/donna/internal/instrumentation"
	"github.com/teemow/donna/internal/logging"
	"github.com/teemow/donna/internal/server"
	"github.com/teemow/donna/internal/tools/booking_tools"
)

// Transports
const (
	transportHTTP  = "http"
	transportStdio = "stdio"
)

func newServeCmd() *cobra.Command {
	var transport string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the booking service",
		Long: `Start the booking service.

Supports two transports:
  - http: POST /book_meeting, the /auth/{provider} authorization endpoints,
    health endpoints and the MCP streamable HTTP endpoint at /mcp (default).
    Prometheus metrics are served on a separate address.
  - stdio: MCP over standard input/output, for AI assistants that launch
    donna as a subprocess.

Configuration is read from donna.yaml, DONNA_* environment variables and the
flags below, in increasing order of precedence.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg, logger, transport)
		},
	}

	cmd.Flags().StringVar(&transport, "transport", transportHTTP, "Transport: http or stdio")
	cmd.Flags().String("addr", "", "HTTP listen address (default :8080)")
	cmd.Flags().String("metrics-addr", "", "Metrics listen address (default :9090)")
	cmd.Flags().String("organizer", "", "Organizer email, invited to every meeting")
	cmd.Flags().String("timezone", "", "Default time zone (default Europe/London)")
	cmd.Flags().String("meetings-provider", "", "Meetings provider: webex or meet")
	cmd.Flags().String("llm-provider", "", "Interpreter backend: openai or gemini")
	cmd.Flags().String("token-dir", "", "Directory OAuth tokens are stored in")

	return cmd
}

func runServe(parent context.Context, cfg *config.Config, logger *slog.Logger, transport string) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version
	instr, err := instrumentation.NewProvider(ctx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := instr.Shutdown(shutdownCtx); err != nil {
			logger.Warn("instrumentation shutdown failed", logging.Err(err))
		}
	}()

	a, err := newApp(ctx, cfg, logger, instr)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("failed to release resources", logging.Err(err))
		}
	}()

	sc := server.NewServerContext(ctx, a.service, a.credentials, version)
	defer func() { _ = sc.Shutdown() }()

	mcpSrv := mcpserver.NewMCPServer("donna", version,
		mcpserver.WithToolCapabilities(true),
	)
	if err := booking_tools.RegisterBookingTools(mcpSrv, sc, booking_tools.Options{
		PublicURL: cfg.Server.PublicURL,
		Metrics:   instr.Metrics(),
		Logger:    logger,
	}); err != nil {
		return fmt.Errorf("failed to register tools: %w", err)
	}

	for _, p := range a.credentials.Providers() {
		if !a.credentials.HasToken(ctx, p) {
			logger.Warn("provider not authorized yet",
				logging.Provider(string(p)),
				slog.String("authorize_at", cfg.Server.PublicURL+"/auth/"+string(p)))
		}
	}

	switch transport {
	case transportStdio:
		return runStdioServer(mcpSrv)
	case transportHTTP:
		return runHTTPServer(ctx, cfg, logger, instr, sc, mcpSrv)
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: %s, %s)", transport, transportHTTP, transportStdio)
	}
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	if err := mcpserver.ServeStdio(mcpSrv); err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

func runHTTPServer(ctx context.Context, cfg *config.Config, logger *slog.Logger, instr *instrumentation.Provider, sc *server.ServerContext, mcpSrv *mcpserver.MCPServer) error {
	health := server.NewHealthChecker(sc)
	router := server.NewRouter(server.APIConfig{
		ServerContext: sc,
		Health:        health,
		MCPHandler: mcpserver.NewStreamableHTTPServer(mcpSrv,
			mcpserver.WithLogger(logging.NewSlogAdapter(logger)),
		),
		Logger:  logger,
		Metrics: instr.Metrics(),
	})
	httpSrv := server.NewHTTPServer(cfg.Server.Addr, router, logger)

	var metricsSrv *server.MetricsServer
	if instr.Enabled() && instr.PrometheusEnabled() {
		var err error
		metricsSrv, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    cfg.Server.MetricsAddr,
			InstrumentationProvider: instr,
			Logger:                  logger,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(httpSrv.Start)
	if metricsSrv != nil {
		g.Go(metricsSrv.Start)
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		health.SetReady(false)
		_ = sc.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.Server.ShutdownTimeout)
		defer cancel()

		var errs []error
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("error shutting down HTTP server: %w", err))
		}
		if metricsSrv != nil {
			if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, fmt.Errorf("error shutting down metrics server: %w", err))
			}
		}
		return errors.Join(errs...)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
