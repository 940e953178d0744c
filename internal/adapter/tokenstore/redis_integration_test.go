package tokenstore

import (
	"context"
	"flag"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	goredis "github.com/redis/go-redis/v9"
	"github.com/saisriabhiramnelluri/hiresphere/internal/adapter/metrics"
	"github.com/saisriabhiramnelluri/hiresphere/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/redis"
)

var testRedisURL string

func TestMain(m *testing.M) {
	flag.Parse()

	if testing.Short() {
		os.Exit(m.Run())
	}

	ctx := context.Background()
	container, err := redis.Run(ctx, "redis:7-alpine")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start redis container: %v\n", err)
		os.Exit(1)
	}

	endpoint, err := container.Endpoint(ctx, "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to get redis endpoint: %v\n", err)
		os.Exit(1)
	}
	testRedisURL = "redis://" + endpoint

	code := m.Run()

	_ = container.Terminate(ctx)
	os.Exit(code)
}

func setupTestClient(t *testing.T) (*goredis.Client, *metrics.TokenStoreMetrics) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	m := metrics.NewTokenStoreMetrics(prometheus.NewRegistry())
	client, err := NewRedisClient(ctx, testRedisURL, m)
	if err != nil {
		t.Fatalf("failed to create redis client: %v", err)
	}

	if err := client.FlushAll(ctx).Err(); err != nil {
		t.Fatalf("failed to flush redis: %v", err)
	}

	t.Cleanup(func() {
		_ = client.Close()
	})

	return client, m
}

func TestRedisStore_Lifecycle(t *testing.T) {
	client, m := setupTestClient(t)
	ctx := context.Background()
	s := NewRedisStore(client, "alice")

	_, err := s.Load(ctx)
	assert.ErrorIs(t, err, domain.ErrNoToken)

	require.NoError(t, s.Save(ctx, "tok1"))
	token, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok1", token)

	raw, err := client.Get(ctx, "hiresphere:session:alice:token").Result()
	require.NoError(t, err)
	assert.Equal(t, "tok1", raw)

	ttl, err := client.TTL(ctx, Key("alice")).Result()
	require.NoError(t, err)
	assert.Equal(t, time.Duration(-1), ttl, "no expiry is set")

	require.NoError(t, s.Clear(ctx))
	require.NoError(t, s.Clear(ctx))
	_, err = s.Load(ctx)
	assert.ErrorIs(t, err, domain.ErrNoToken)

	assert.NoError(t, s.Ping(ctx))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.OpsTotal.WithLabelValues("redis", "get", "miss")))
}

func TestRedisStore_ProfilesAreIsolated(t *testing.T) {
	client, _ := setupTestClient(t)
	ctx := context.Background()
	alice := NewRedisStore(client, "alice")
	bob := NewRedisStore(client, "bob")

	require.NoError(t, alice.Save(ctx, "tok-alice"))

	_, err := bob.Load(ctx)
	assert.ErrorIs(t, err, domain.ErrNoToken)
}

func TestNewRedisClient_BadURL(t *testing.T) {
	_, err := NewRedisClient(context.Background(), "not-a-url", nil)
	assert.ErrorContains(t, err, "failed to parse redis URL")
}
