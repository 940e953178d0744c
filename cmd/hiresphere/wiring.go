package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/saisriabhiramnelluri/hiresphere/internal/adapter/apiclient"
	"github.com/saisriabhiramnelluri/hiresphere/internal/adapter/httpserver"
	"github.com/saisriabhiramnelluri/hiresphere/internal/adapter/metrics"
	"github.com/saisriabhiramnelluri/hiresphere/internal/adapter/tokenstore"
	"github.com/saisriabhiramnelluri/hiresphere/internal/app"
	"github.com/saisriabhiramnelluri/hiresphere/internal/domain"
	"github.com/saisriabhiramnelluri/hiresphere/internal/notification"
	"github.com/saisriabhiramnelluri/hiresphere/internal/platform/config"
	"github.com/saisriabhiramnelluri/hiresphere/internal/platform/crypto"
	"github.com/saisriabhiramnelluri/hiresphere/internal/platform/logging"
	"github.com/saisriabhiramnelluri/hiresphere/internal/session"
)

// deps is everything a command needs, built from the environment.
type deps struct {
	cfg      *config.Config
	registry *prometheus.Registry
	tokens   domain.TokenStore
	api      *apiclient.Client
	client   *app.Client

	redis *goredis.Client
}

func (r *deps) Close() {
	r.client.Teardown()
	if r.redis != nil {
		_ = r.redis.Close()
	}
}

func setupConfig(c *cli) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	level := cfg.LogLevel
	if c.verbose {
		level = "debug"
	}
	logging.InitLogger(c.stderr, level, cfg.LogFormat)
	return cfg, nil
}

func setupTokenStore(ctx context.Context, cfg *config.Config, m *metrics.TokenStoreMetrics) (domain.TokenStore, *goredis.Client, error) {
	var (
		store domain.TokenStore
		rdb   *goredis.Client
	)

	switch cfg.TokenStore {
	case config.TokenStoreRedis:
		client, err := tokenstore.NewRedisClient(ctx, cfg.RedisURL, m)
		if err != nil {
			return nil, nil, fmt.Errorf("connect token store: %w", err)
		}
		rdb = client
		store = tokenstore.NewRedisStore(client, cfg.SessionProfile)
		slog.Debug("Using Redis token store", "profile", cfg.SessionProfile)
	default:
		fs := tokenstore.NewFileStore(cfg.TokenFile, m)
		store = fs
		slog.Debug("Using file token store", "path", fs.Path())
	}

	if cfg.TokenEncryptionKey != "" {
		c, err := crypto.NewAESGCM(cfg.TokenEncryptionKey)
		if err != nil {
			if rdb != nil {
				_ = rdb.Close()
			}
			return nil, nil, fmt.Errorf("token encryption: %w", err)
		}
		store = tokenstore.NewEncryptedStore(store, c)
	}
	return store, rdb, nil
}

func setupDeps(ctx context.Context, c *cli) (*deps, error) {
	cfg, err := setupConfig(c)
	if err != nil {
		return nil, err
	}

	reg := metrics.NewRegistry()
	tokens, rdb, err := setupTokenStore(ctx, cfg, metrics.NewTokenStoreMetrics(reg))
	if err != nil {
		return nil, err
	}

	api, err := apiclient.New(apiclient.Options{
		BaseURL:    cfg.APIBaseURL,
		Timeout:    cfg.APITimeout,
		RateLimit:  cfg.APIRateLimit,
		RateBurst:  cfg.APIRateBurst,
		MaxRetries: cfg.APIMaxRetries,
		Metrics:    metrics.NewAPIMetrics(reg),
	}, tokens)
	if err != nil {
		if rdb != nil {
			_ = rdb.Close()
		}
		return nil, err
	}

	out := newConsole(c.stdout)
	store := session.NewStore(api, tokens, out, out, metrics.NewSessionMetrics(reg))
	notes := notification.NewSync(api, clockwork.NewRealClock(), cfg.NotificationPollInterval, cfg.NotificationPageSize,
		metrics.NewNotificationMetrics(reg))

	return &deps{
		cfg:      cfg,
		registry: reg,
		tokens:   tokens,
		api:      api,
		client:   app.NewClient(store, notes),
		redis:    rdb,
	}, nil
}

// statusServer builds the local status server on addr.
func (r *deps) statusServer(addr string) *httpserver.Server {
	checks := []httpserver.HealthCheck{
		{Name: "api", Check: r.api.Ready},
	}
	if p, ok := r.tokens.(interface{ Ping(context.Context) error }); ok {
		checks = append([]httpserver.HealthCheck{{Name: "token_store", Check: p.Ping}}, checks...)
	}
	return httpserver.NewServer(addr, r.client, r.registry, metrics.NewHTTPMetrics(r.registry), checks)
}

const shutdownTimeout = 5 * time.Second
