package main

import (
	"os"
	"time"

	"github.com/oggyb/dating-api/internal/config"
	"github.com/oggyb/dating-api/internal/db"
	"github.com/oggyb/dating-api/internal/logger"
)

func main() {
	// Load configuration
	cfg, err := config.New()
	if err != nil {
		logger.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	logger.InitFromConfig(cfg)

	database, err := db.NewDB(cfg)
	if err != nil {
		logger.Error("failed to init db", "err", err)
		os.Exit(1)
	}

	if err := db.SeedTestData(database, time.Now().UTC()); err != nil {
		logger.Error("failed to seed", "err", err)
		os.Exit(1)
	}

	logger.Info("seeding completed", "password", db.SeedPassword)
}
