package main

import (
	"context"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"gosurv/adapters/api"
	"gosurv/adapters/postgres"
	"gosurv/internal"
	"gosurv/internal/config"
)

func main() {
	_ = godotenv.Load()

	logger := internal.NewDefaultLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration: %v", err)
		os.Exit(1)
	}

	var store api.CurveStore
	if cfg.Database.URL != "" {
		db, err := sqlx.Connect("postgres", cfg.Database.URL)
		if err != nil {
			logger.Error("failed to connect to database: %v", err)
			os.Exit(1)
		}
		defer db.Close()

		repo := postgres.NewCurveRepository(db)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := repo.Migrate(ctx); err != nil {
			cancel()
			logger.Error("failed to migrate database: %v", err)
			os.Exit(1)
		}
		cancel()
		store = repo
		logger.Info("curve persistence enabled")
	} else {
		logger.Warn("DATABASE_URL not set; curve persistence disabled")
	}

	server := api.NewServer(cfg.Analysis, store, logger)
	if err := server.ListenAndServe(cfg.Server.Port); err != nil {
		logger.Error("server stopped: %v", err)
		os.Exit(1)
	}
}
