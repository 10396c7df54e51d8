// Command subgames runs the cycle scoring service: an HTTP API over the
// session issuer, point ledger, daily settlement, and pity fan-out.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/willerob90/SubGames-Working/internal/adapters/http/api"
	"github.com/willerob90/SubGames-Working/internal/adapters/repository"
	"github.com/willerob90/SubGames-Working/internal/app"
	"github.com/willerob90/SubGames-Working/internal/config"
	"github.com/willerob90/SubGames-Working/internal/domain/cycle"
	"github.com/willerob90/SubGames-Working/internal/domain/ratelimit"
	"github.com/willerob90/SubGames-Working/internal/domain/rules"
	"github.com/willerob90/SubGames-Working/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env).
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	store, err := repository.Open(cfg.DBPath)
	if err != nil {
		log.Error(ctx, "failed to open ledger store", logger.Error(err))
		return
	}
	defer store.Close() //nolint:errcheck

	svc := app.New(
		app.WithStore(store),
		app.WithLogger(log),
		app.WithClock(cycle.New(cycle.WithCloseHour(cfg.CycleCloseHour))),
		app.WithRules(gameTable(cfg)),
		app.WithLimiter(limiter(cfg)),
		app.WithSessionTTL(time.Duration(cfg.SessionTTLMinutes)*time.Minute),
		app.WithQueueSize(cfg.QueueSize),
		app.WithWorkerCount(cfg.WorkerCount),
	)
	if err := svc.Start(ctx); err != nil {
		log.Error(ctx, "failed to start service", logger.Error(err))
		return
	}
	defer svc.Stop(context.Background()) //nolint:errcheck

	// Settlement timer and session sweep.
	go svc.RunScheduler(ctx, time.Duration(cfg.CleanupIntervalMinutes)*time.Minute)

	mux := http.NewServeMux()
	api.NewServer(svc, cfg.MaxLeaderboardLimit).Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
}

// gameTable builds the rule table from configuration overrides, falling
// back to the built-in catalogue.
func gameTable(cfg *config.Config) *rules.Table {
	if len(cfg.GameRules) == 0 {
		return rules.NewTable(rules.Defaults())
	}
	out := make(map[string]rules.Rule, len(cfg.GameRules))
	for game, r := range cfg.GameRules {
		out[game] = rules.Rule{
			MinSeconds: r.MinSeconds,
			MaxSeconds: r.MaxSeconds,
			Points:     r.Points,
		}
	}
	return rules.NewTable(out)
}

// limiter builds the rate limiter from configuration overrides, falling
// back to the stock per-action ceilings.
func limiter(cfg *config.Config) *ratelimit.Limiter {
	if len(cfg.RateLimits) == 0 {
		return ratelimit.New()
	}
	policies := ratelimit.DefaultPolicies()
	for action, l := range cfg.RateLimits {
		policies[action] = ratelimit.Policy{
			Limit:  l.Limit,
			Window: time.Duration(l.WindowMinutes) * time.Minute,
		}
	}
	return ratelimit.New(ratelimit.WithPolicies(policies))
}
