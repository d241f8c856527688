package app

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/servicemap"
	"github.com/agentstation/servicemap/internal/cache"
	"github.com/agentstation/servicemap/internal/catalogs/sqlite"
	"github.com/agentstation/servicemap/pkg/errors"
	"github.com/agentstation/servicemap/pkg/logging"
	"github.com/agentstation/servicemap/pkg/query"
)

func TestNew(t *testing.T) {
	isolateEnv(t)

	app, err := New("1.0.0", "abc123", "2024-01-01", "test")
	require.NoError(t, err)

	assert.Equal(t, "1.0.0", app.Version())
	assert.Equal(t, "abc123", app.Commit())
	assert.Equal(t, "2024-01-01", app.Date())
	assert.Equal(t, "test", app.BuiltBy())
	assert.NotNil(t, app.Logger())
	assert.NotNil(t, app.Config())
}

func TestNewWithOptions(t *testing.T) {
	isolateEnv(t)

	logger := zerolog.Nop()
	cfg := &Config{Format: "yaml", NoColor: true}
	app, err := New("1.0.0", "abc123", "2024-01-01", "test", WithConfig(cfg), WithLogger(&logger))
	require.NoError(t, err)

	assert.Same(t, cfg, app.Config())
	assert.Same(t, &logger, app.Logger())
	assert.Equal(t, "yaml", app.OutputFormat())
	assert.True(t, app.NoColor())
}

func TestClientMissingCatalog(t *testing.T) {
	isolateEnv(t)
	logging.DisableLoggingForTest(t)

	app, err := New("dev", "", "", "")
	require.NoError(t, err)

	_, err = app.Client(t.Context())
	var cfgErr *errors.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "catalog_a", cfgErr.Component)

	_, _, err = app.Catalogs(t.Context())
	assert.ErrorAs(t, err, &cfgErr)
}

func TestClientSingleton(t *testing.T) {
	app := newFileApp(t)

	c1, err := app.Client(t.Context())
	require.NoError(t, err)
	c2, err := app.Client(t.Context())
	require.NoError(t, err)
	assert.Same(t, c1, c2)

	// Options build a separate client over the same catalogs.
	c3, err := app.Client(t.Context(), servicemap.WithThreshold(0.95))
	require.NoError(t, err)
	assert.NotSame(t, c1, c3)
	assert.Equal(t, 0.95, c3.Threshold())

	c4, err := app.Client(t.Context())
	require.NoError(t, err)
	assert.Same(t, c1, c4)
}

func TestClientConcurrentAccess(t *testing.T) {
	app := newFileApp(t)

	const goroutines = 10
	clients := make([]servicemap.Client, goroutines)
	var wg sync.WaitGroup
	for i := range goroutines {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := app.Client(context.Background())
			assert.NoError(t, err)
			clients[i] = c
		}(i)
	}
	wg.Wait()

	for _, c := range clients[1:] {
		assert.Same(t, clients[0], c)
	}
}

func TestClientSearchesFileCatalogs(t *testing.T) {
	app := newFileApp(t)

	client, err := app.Client(t.Context())
	require.NoError(t, err)

	res, err := client.Search(t.Context(), "leaking pipe in chicago", query.Intent{ServiceType: "plumbing"}, 10)
	require.NoError(t, err)
	require.Len(t, res.Merges, 1)
	assert.Equal(t, "Blue Peak Plumbing LLC", res.Merges[0].KeptName)
	assert.Empty(t, res.Summary.FallbackUsed)
}

func TestClientRejectsBadTieBreak(t *testing.T) {
	app := newFileApp(t)
	app.Config().TieBreak = "loudest"

	_, err := app.Client(t.Context())
	assert.True(t, errors.IsValidationError(err))
}

func TestCatalogs(t *testing.T) {
	app := newFileApp(t)

	primary, secondary, err := app.Catalogs(t.Context())
	require.NoError(t, err)

	a, err := primary.All(t.Context())
	require.NoError(t, err)
	assert.Len(t, a, 2)

	b, err := secondary.All(t.Context())
	require.NoError(t, err)
	assert.Len(t, b, 2)
}

func TestCacheBackends(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		app := newFileApp(t)
		c, err := app.Cache(t.Context())
		require.NoError(t, err)
		assert.IsType(t, &cache.Memory{}, c)

		again, err := app.Cache(t.Context())
		require.NoError(t, err)
		assert.Same(t, c, again)
	})

	t.Run("lru", func(t *testing.T) {
		app := newFileApp(t)
		app.Config().Cache.Backend = CacheLRU
		c, err := app.Cache(t.Context())
		require.NoError(t, err)
		assert.IsType(t, &cache.LRU{}, c)
	})

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		app := newFileApp(t)
		app.Config().Cache.Backend = CacheRedis
		app.Config().Cache.RedisAddr = mr.Addr()

		c, err := app.Cache(t.Context())
		require.NoError(t, err)
		assert.IsType(t, &cache.Redis{}, c)

		c.Set(t.Context(), "k", []byte("v"))
		got, ok := c.Get(t.Context(), "k")
		require.True(t, ok)
		assert.Equal(t, []byte("v"), got)
		assert.True(t, mr.Exists("servicemap:k"))
	})

	t.Run("redis unreachable", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		app := newFileApp(t)
		app.Config().Cache.Backend = CacheRedis
		app.Config().Cache.RedisAddr = addr

		_, err := app.Cache(t.Context())
		assert.True(t, errors.IsSourceUnavailable(err))
	})
}

func TestMetricsSingleton(t *testing.T) {
	app := newFileApp(t)

	r1, g1 := app.Metrics()
	r2, g2 := app.Metrics()
	require.NotNil(t, r1)
	assert.Same(t, r1, r2)
	assert.Same(t, g1, g2)

	families, err := g1.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestPingSQLiteCatalog(t *testing.T) {
	app := newFileApp(t)

	path := filepath.Join(t.TempDir(), "workers.db")
	db, err := sqlite.Open(t.Context(), path)
	require.NoError(t, err)
	_, err = db.ExecContext(t.Context(), sqlite.Schema)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	app.Config().CatalogB = CatalogBConfig{Path: path}

	// Nothing is connected before first use.
	require.NoError(t, app.Ping(t.Context()))

	_, secondary, err := app.Catalogs(t.Context())
	require.NoError(t, err)
	assert.Equal(t, sqlite.Name, secondary.Name())
	require.NoError(t, app.Ping(t.Context()))

	require.NoError(t, app.Shutdown(t.Context()))
	assert.Error(t, app.Ping(t.Context()), "closed database fails the readiness check")
}
