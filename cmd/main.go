package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/papi/internal/adapters/http/api"
	"github.com/okian/papi/internal/adapters/http/swagger"
	"github.com/okian/papi/internal/config"
	"github.com/okian/papi/internal/domain/player"
	"github.com/okian/papi/internal/plugin"
	"github.com/okian/papi/pkg/logger"
	"github.com/okian/papi/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// Logger is configured from cfg, so it is not available yet.
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	p := newPlugin(cfg, log)
	if err := p.Start(ctx); err != nil {
		log.Error(ctx, "failed to start plugin", logger.Error(err))
		return
	}
	defer p.Stop()

	go startSystemMetricsUpdater(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(cfg, p),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "server shutdown failed", logger.Error(err))
	}

	log.Info(shutdownCtx, "server stopped")
}

// newPlugin builds the plugin from configuration.
func newPlugin(cfg *config.Config, log logger.Logger) *plugin.Plugin {
	return plugin.New(
		plugin.WithLogger(log.Named("plugin")),
		plugin.WithName(cfg.PluginName),
		plugin.WithQueueSize(cfg.EventQueueSize),
		plugin.WithDedupeSize(cfg.DedupeSize),
		plugin.WithCombatTimeout(cfg.CombatTimeoutDuration()),
		plugin.WithCleanupInterval(cfg.CleanupInterval),
		plugin.WithClearOnQuit(cfg.ClearOnQuit),
		plugin.WithScriptsDir(cfg.ScriptsDir),
		plugin.WithServerInfo(player.ServerInfo{
			Version:    cfg.ServerVersion,
			MaxPlayers: cfg.MaxPlayers,
		}),
	)
}

// newHandler registers the API and docs routes for p.
func newHandler(cfg *config.Config, p *plugin.Plugin) http.Handler {
	mux := http.NewServeMux()
	api.NewServer(p, cfg.MaxLeaderboardLimit).Register(mux)
	swagger.Register(context.Background(), mux)
	return mux
}

// startSystemMetricsUpdater updates system metrics every
// metrics.RefreshInterval until ctx is done.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(metrics.RefreshInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
