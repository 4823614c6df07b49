package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rpggio/challengr/internal/api"
	"github.com/rpggio/challengr/internal/config"
	"github.com/rpggio/challengr/internal/domain/activity"
	"github.com/rpggio/challengr/internal/domain/challenge"
	"github.com/rpggio/challengr/internal/domain/checkin"
	"github.com/rpggio/challengr/internal/domain/progress"
	"github.com/rpggio/challengr/internal/domain/session"
	"github.com/rpggio/challengr/internal/mcp"
	"github.com/rpggio/challengr/internal/sqlite"
	"github.com/rpggio/challengr/internal/transport"
	"golang.org/x/sync/errgroup"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "0.1.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	// Use stderr for logs in stdio mode to keep stdout clean for JSON-RPC.
	logWriter := io.Writer(os.Stdout)
	if cfg.Transport.Mode == "stdio" {
		logWriter = os.Stderr
	}
	if logPath := os.Getenv("CHALLENGR_LOG_PATH"); logPath != "" {
		fileLog, err := openCappedLog(logPath, defaultLogCap)
		if err != nil {
			fmt.Fprintf(os.Stderr, "log file error: %v\n", err)
		} else {
			defer fileLog.Close()
			logWriter = fileLog
		}
	}
	logger := slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	if err := ensureDBDir(cfg.DB.Path); err != nil {
		logger.Error("failed to prepare database path", "error", err)
		os.Exit(1)
	}
	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.RunMigrations(); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	client := api.NewClient(api.Options{
		BaseURL:   cfg.API.BaseURL,
		Timeout:   cfg.API.Timeout,
		RateLimit: cfg.API.RateLimit,
		Burst:     cfg.API.Burst,
		Metrics:   api.NewMetrics(reg),
		Logger:    logger,
	})
	sessionSvc := session.NewService(api.NewAuthRepository(client), sqlite.NewTokenRepository(db, cfg.Profile), logger)
	client.SetTokenSource(sessionSvc)

	challengeRepo := api.NewChallengeRepository(client)
	activityRepo := api.NewActivityRepository(client)
	checkinRepo := api.NewCheckinRepository(client)
	views := checkin.NewViews(checkinRepo, logger)

	mcpServer := mcp.NewServer(mcp.Config{
		Services: mcp.Services{
			Sessions:   sessionSvc,
			Challenges: challenge.NewService(challengeRepo, logger),
			Activities: activity.NewService(activityRepo, logger),
			Progress: progress.NewService(challengeRepo, activityRepo, checkinRepo, progress.Options{
				MaxDays:           cfg.Calendar.MaxDays,
				LookupConcurrency: cfg.Calendar.LookupConcurrency,
				Evaluator:         activity.NewEvaluator(activity.WeekAlignment(cfg.Calendar.WeekAlignment)),
			}, logger),
			Checkins: checkinRepo,
			Views:    views,
		},
		Version: version,
		Logger:  logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Transport.Mode == "stdio" {
		err = runStdioMode(ctx, logger, mcpServer)
	} else {
		err = runHTTPMode(ctx, logger, cfg, mcpServer, views, transport.Options{
			Metrics: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			Health:  db.PingContext,
			Logger:  logger,
		})
	}
	if err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func runStdioMode(ctx context.Context, logger *slog.Logger, mcpServer *sdkmcp.Server) error {
	logger.Info("starting stdio transport", "version", version)

	// Run blocks until stdin closes or ctx is canceled.
	err := mcpServer.Run(ctx, &sdkmcp.StdioTransport{})
	if err != nil && ctx.Err() != nil {
		logger.Info("shutting down")
		return nil
	}
	return err
}

// sessionTimeout closes idle MCP sessions; their checkin views go with them.
const sessionTimeout = 30 * time.Minute

func runHTTPMode(ctx context.Context, logger *slog.Logger, cfg config.Config, mcpServer *sdkmcp.Server, views *checkin.Views, opts transport.Options) error {
	opts.MCP = sdkmcp.NewStreamableHTTPHandler(
		func(*http.Request) *sdkmcp.Server { return mcpServer },
		&sdkmcp.StreamableHTTPOptions{SessionTimeout: sessionTimeout},
	)
	if cfg.Auth.Enabled {
		opts.Auth = transport.AuthMiddleware(transport.SessionTokens{})
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           transport.NewServer(opts),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening", "addr", addr, "auth", cfg.Auth.Enabled, "version", version)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		sweepIdleViews(gctx, views, sessionTimeout)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logger.Info("shutting down")
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// sweepIdleViews evicts views untouched for longer than idle until ctx ends.
func sweepIdleViews(ctx context.Context, views *checkin.Views, idle time.Duration) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			views.EvictIdle(now.Add(-idle))
		}
	}
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
