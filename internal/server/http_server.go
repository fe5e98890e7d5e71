package server

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	"github.com/oggyb/dating-api/internal/app"
	"github.com/oggyb/dating-api/internal/config"
	"github.com/oggyb/dating-api/internal/utils/pagination"
)

// MaxUploadBytes bounds request bodies, photo uploads included.
const MaxUploadBytes = 10 << 20

// NewHTTPApp builds the fiber app and mounts every registrar under /api.
// Uploaded photos are served from /photos when cfg.Photo.Dir is set.
func NewHTTPApp(cfg *config.Config, appCtx *app.AppContext, registrars ...Registrar) *fiber.App {
	f := fiber.New(fiber.Config{
		AppName:               "dating-api",
		BodyLimit:             MaxUploadBytes,
		ErrorHandler:          ErrorHandler(appCtx.Logger),
		DisableStartupMessage: true,
		ReadTimeout:           15 * time.Second,
		WriteTimeout:          15 * time.Second,
	})

	origins := cfg.HTTP.CORSOrigins
	if origins == "" {
		origins = "*"
	}
	f.Use(
		recover.New(),
		requestid.New(requestid.Config{Generator: uuid.NewString}),
		cors.New(cors.Config{
			AllowOrigins:  origins,
			AllowMethods:  "GET,POST,PUT,DELETE,OPTIONS",
			AllowHeaders:  "Origin, Content-Type, Accept, Authorization",
			ExposeHeaders: pagination.HeaderName,
		}),
		AccessLog(appCtx.Logger),
	)

	if cfg.Photo.Dir != "" {
		f.Static("/photos", cfg.Photo.Dir)
	}

	api := f.Group("/api")
	routes := Routes{
		Public: api,
		Users:  api.Group("/users", RequireAuth(appCtx.Tokens), TrackActivity(appCtx)),
	}
	for _, r := range registrars {
		r.Register(routes)
	}

	return f
}

// StartHTTPServer serves until ctx is canceled, then drains in-flight requests.
func StartHTTPServer(ctx context.Context, cfg *config.Config, f *fiber.App) error {
	addr := fmt.Sprintf("%s:%s", cfg.HTTP.Host, cfg.HTTP.Port)

	errCh := make(chan error, 1)
	go func() { errCh <- f.Listen(addr) }()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server on %s: %w", addr, err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return f.ShutdownWithContext(shutdownCtx)
	}
}
