package app

import (
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/oggyb/dating-api/internal/auth"
	"github.com/oggyb/dating-api/internal/cache"
	"github.com/oggyb/dating-api/internal/storage"
)

// AppContext holds shared dependencies (DB, Redis, photo storage, tokens, Logger, etc.)
type AppContext struct {
	DB         *gorm.DB
	RedisCache *cache.RedisCache
	Photos     storage.PhotoStore
	Tokens     *auth.Tokens
	Validate   *validator.Validate
	Logger     *slog.Logger

	// Now is the clock used for timestamps and age math. Tests pin it.
	Now func() time.Time
}

// New creates a new AppContext
func New(
	db *gorm.DB,
	rdb *cache.RedisCache,
	photos storage.PhotoStore,
	tokens *auth.Tokens,
	logger *slog.Logger,
) *AppContext {
	return &AppContext{
		DB:         db,
		RedisCache: rdb,
		Photos:     photos,
		Tokens:     tokens,
		Validate:   validator.New(validator.WithRequiredStructEnabled()),
		Logger:     logger,
		Now:        func() time.Time { return time.Now().UTC() },
	}
}
