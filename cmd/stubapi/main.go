// Command stubapi serves an in-memory HireSphere API for local development
// and demos of the hiresphere CLI.
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/saisriabhiramnelluri/hiresphere/internal/adapter/metrics"
	"github.com/saisriabhiramnelluri/hiresphere/internal/adapter/stubapi"
	"github.com/saisriabhiramnelluri/hiresphere/internal/platform/config"
	"github.com/saisriabhiramnelluri/hiresphere/internal/platform/logging"
	"github.com/spf13/pflag"
	"golang.org/x/crypto/bcrypt"
)

type flags struct {
	feedInterval time.Duration
	loginRate    float64
	loginBurst   int
	noSeed       bool
}

func parseFlags() flags {
	var f flags
	pflag.DurationVar(&f.feedInterval, "feed-interval", 0, "publish a system notification to every account at this interval (0 disables)")
	pflag.Float64Var(&f.loginRate, "login-rate", 1, "login attempts per second per client IP")
	pflag.IntVar(&f.loginBurst, "login-burst", 10, "login attempts allowed in a burst")
	pflag.BoolVar(&f.noSeed, "no-seed", false, "start without the seeded accounts")
	pflag.Parse()
	return f
}

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func runGracefulShutdown(srv *stubapi.Server, stopFeed context.CancelFunc) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")
		stopFeed()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		close(done)
	}()

	return done
}

func main() {
	f := parseFlags()
	clock := clockwork.NewRealClock()

	cfg := setupConfig()
	logging.InitLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	slog.Info("Stub API starting", "env", cfg.AppEnv, "port", cfg.StubPort)

	backend := stubapi.NewBackend(clock, bcrypt.DefaultCost)
	if !f.noSeed {
		if err := stubapi.Seed(context.Background(), backend); err != nil {
			slog.Error("Failed to seed backend", "error", err)
			os.Exit(1)
		}
		slog.Info("Seeded accounts", "emails", backend.Emails(), "password", stubapi.SeedPassword)
	}

	feedCtx, stopFeed := context.WithCancel(context.Background())
	defer stopFeed()
	if f.feedInterval > 0 {
		go stubapi.RunFeed(feedCtx, backend, clock, f.feedInterval)
		slog.Info("Notification feed enabled", "interval", f.feedInterval)
	}

	reg := metrics.NewRegistry()
	srv := stubapi.NewServer(backend, stubapi.ServerConfig{
		Addr:       net.JoinHostPort("", cfg.StubPort),
		LoginRate:  f.loginRate,
		LoginBurst: f.loginBurst,
		Registry:   reg,
	}, metrics.NewHTTPMetrics(reg))

	done := runGracefulShutdown(srv, stopFeed)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
