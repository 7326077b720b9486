package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anatolykoptev/go-mcpserver"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/anatolykoptev/go_alfred/internal/chatserver"
	"github.com/anatolykoptev/go_alfred/internal/engine"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the chat HTTP/WebSocket server and the MCP server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := loadConfig()
	a := buildApp(ctx, cfg, true)
	defer a.Close()
	cfg = a.cfg

	slog.Info("starting go_alfred",
		slog.String("port", cfg.Port),
		slog.String("mcp_port", cfg.MCPPort),
		slog.String("mode", a.gen.Mode().String()),
	)

	go a.gen.ReinitializeKnowledge(ctx)

	if mh, ok := a.history.(*engine.MemoryHistory); ok {
		go mh.RunSweeper(ctx, time.Hour)
	}
	if cfg.WatchResume {
		go func() {
			if err := engine.WatchResume(ctx, cfg.ResumePath, a.gen.ReloadChangedResume); err != nil {
				slog.Warn("resume watcher stopped", slog.Any("error", err))
			}
		}()
	}

	limiter := chatserver.NewIPLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, cfg.TrustProxy)
	go limiter.RunCleanup(ctx, 5*time.Minute)

	deps := chatserver.Deps{
		Generator:  a.gen,
		Settings:   a.settings,
		Auth:       chatserver.NewAuth(cfg.AdminPassword, cfg.AdminJWTSecret),
		Limiter:    limiter,
		ResumePath: cfg.ResumePath,
		Persona:    cfg.Persona(),
	}
	if a.transcripts != nil {
		deps.Transcripts = a.transcripts
	}
	srv := chatserver.New(deps)

	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	if cfg.MCPPort != "" {
		server := mcp.NewServer(&mcp.Implementation{
			Name:    "go_alfred",
			Version: version,
		}, nil)
		srv.RegisterTools(server)
		slog.Info("tools registered", slog.Int("count", 3))

		go func() {
			if err := mcpserver.Run(server, mcpserver.Config{
				Name:         "go_alfred",
				Version:      version,
				Port:         cfg.MCPPort,
				WriteTimeout: 120 * time.Second,
				Metrics:      engine.FormatMetrics,
			}); err != nil {
				slog.Error("mcp server failed", slog.Any("error", err))
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
		slog.Error("http server failed", slog.Any("error", runErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("http shutdown", slog.Any("error", err))
	}
	slog.Info("go_alfred stopped")
	return runErr
}
