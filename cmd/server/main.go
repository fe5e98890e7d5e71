package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/oggyb/dating-api/internal/app"
	"github.com/oggyb/dating-api/internal/auth"
	"github.com/oggyb/dating-api/internal/cache"
	"github.com/oggyb/dating-api/internal/config"
	"github.com/oggyb/dating-api/internal/db"
	"github.com/oggyb/dating-api/internal/logger"
	"github.com/oggyb/dating-api/internal/server"
	authsvc "github.com/oggyb/dating-api/internal/service/auth"
	"github.com/oggyb/dating-api/internal/service/members"
	"github.com/oggyb/dating-api/internal/service/messages"
	"github.com/oggyb/dating-api/internal/service/photos"
	"github.com/oggyb/dating-api/internal/storage"
)

func main() {
	if err := run(); err != nil {
		logger.Error("server exited", "err", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.New()
	if err != nil {
		return err
	}

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L() // slog.Logger pointer

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		return err
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(ctx); err != nil {
		log.Error("failed to connect to redis", "err", err)
		return err
	}
	defer redisCache.Close()

	photoStore, err := storage.NewLocalStore(cfg)
	if err != nil {
		log.Error("failed to init photo storage", "err", err)
		return err
	}

	tokens, err := auth.NewTokens(cfg.JWT.Secret, cfg.JWT.TTL, nil)
	if err != nil {
		log.Error("failed to init token issuer", "err", err)
		return err
	}

	// Inject dependencies into app context
	appCtx := app.New(database, redisCache, photoStore, tokens, log)

	if cfg.IsDevelopment() {
		if err := db.SeedTestData(database, time.Now().UTC()); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	httpApp := server.NewHTTPApp(cfg, appCtx,
		authsvc.NewRegistrar(appCtx),
		members.NewRegistrar(appCtx),
		photos.NewRegistrar(appCtx),
		messages.NewRegistrar(appCtx),
	)

	sqlDB, err := database.DB()
	if err != nil {
		return err
	}
	health := server.NewHealthServer(ctx, map[string]server.Pinger{
		"database": pingerFunc(sqlDB.PingContext),
		"redis":    redisCache,
	}, cfg.GRPC.HealthInterval)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting HTTP server", "addr", cfg.HTTP.Host+":"+cfg.HTTP.Port)
		return server.StartHTTPServer(gctx, cfg, httpApp)
	})
	g.Go(func() error {
		log.Info("starting gRPC health server", "addr", cfg.GRPC.Host+":"+cfg.GRPC.Port)
		return server.StartGRPCServer(gctx, cfg, health)
	})

	err = g.Wait()
	log.Info("shutdown complete")
	return err
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }
