// Package apptest wires an AppContext over in-memory SQLite, miniredis and
// in-memory photo storage for service and handler tests.
package apptest

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/dating-api/internal/app"
	"github.com/oggyb/dating-api/internal/auth"
	"github.com/oggyb/dating-api/internal/cache"
	"github.com/oggyb/dating-api/internal/config"
	"github.com/oggyb/dating-api/internal/db/dbtest"
	"github.com/oggyb/dating-api/internal/logger"
	"github.com/oggyb/dating-api/internal/storage"
)

// Today is the pinned clock of every test AppContext.
var Today = time.Date(2026, time.October, 15, 12, 0, 0, 0, time.UTC)

// Env is a test AppContext plus handles on its fakes.
type Env struct {
	*app.AppContext
	Redis  *miniredis.Miniredis
	Store  *storage.MemoryStore
	Config *config.Config
}

// New builds an isolated Env. Each test gets its own DB and Redis.
func New(t *testing.T) *Env {
	t.Helper()

	gdb := dbtest.Open(t)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cfg := &config.Config{}
	cfg.Redis.Addr = mr.Addr()
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.TTL = time.Hour

	redisCache := cache.NewRedisCache(cfg)
	t.Cleanup(func() { _ = redisCache.Close() })

	now := func() time.Time { return Today }
	tokens, err := auth.NewTokens(cfg.JWT.Secret, cfg.JWT.TTL, now)
	require.NoError(t, err)

	store := storage.NewMemoryStore()
	appCtx := app.New(gdb, redisCache, store, tokens, logger.Discard()) // discard logs in tests
	appCtx.Now = now

	return &Env{AppContext: appCtx, Redis: mr, Store: store, Config: cfg}
}
