package main

import (
	"context"
	"log"

	"go.uber.org/zap"

	"focusmate/internal/config"
	"focusmate/internal/db"
	"focusmate/internal/logging"
)

func main() {
	cfg := config.Load()
	logger, err := logging.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()
	database, err := db.OpenSQLite(ctx, cfg.DBPath)
	if err != nil {
		logger.Fatal("open database", zap.Error(err))
	}
	defer database.Close()

	applied, err := db.RunMigrations(ctx, database, db.MigrationSource(cfg.MigrationsDir), logger)
	if err != nil {
		logger.Fatal("run migrations", zap.Error(err))
	}

	logger.Info("database is up to date", zap.String("db", cfg.DBPath), zap.Int("applied", len(applied)))
}
