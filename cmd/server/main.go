package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"focusmate/internal/config"
	"focusmate/internal/db"
	"focusmate/internal/handler"
	"focusmate/internal/logging"
	"focusmate/internal/repository"
	"focusmate/internal/router"
	"focusmate/internal/service"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger, err := logging.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	database, err := db.OpenSQLite(context.Background(), cfg.DBPath)
	if err != nil {
		logger.Fatal("open database", zap.Error(err))
	}
	defer database.Close()

	if _, err := db.RunMigrations(context.Background(), database, db.MigrationSource(cfg.MigrationsDir), logger); err != nil {
		logger.Fatal("run migrations", zap.Error(err))
	}

	userRepo := repository.NewUserRepository(database)
	taskRepo := repository.NewTaskRepository(database)
	teamRepo := repository.NewTeamRepository(database)
	sessionRepo := repository.NewSessionRepository(database)

	if !cfg.GoogleEnabled() {
		logger.Warn("GOOGLE_CLIENT_ID is not set, Google sign-in is disabled")
	}
	authService := service.NewAuthService(
		userRepo,
		service.NewGoogleVerifier(cfg.GoogleClientID),
		cfg.JWTSecret,
		cfg.TokenTTL,
		cfg.DefaultProfileImage,
	)
	userService := service.NewUserService(userRepo)
	taskService := service.NewTaskService(taskRepo)
	statsService := service.NewStatsService(userRepo, sessionRepo, teamRepo, clockwork.NewRealClock())
	teamService := service.NewTeamService(teamRepo, userRepo)
	hub := service.NewRoomHub(cfg.WSMaxMessageSize, cfg.CORSOrigins, logger)

	engine := router.New(authService, router.Handlers{
		Auth: handler.NewAuthHandler(authService, handler.CookieSettings{
			Name:   cfg.CookieName,
			Secure: cfg.IsProduction(),
			TTL:    cfg.TokenTTL,
		}),
		User:  handler.NewUserHandler(userService),
		Task:  handler.NewTaskHandler(taskService),
		Stats: handler.NewStatsHandler(statsService),
		Team:  handler.NewTeamHandler(teamService),
		Room:  handler.NewRoomHandler(hub, logger),
	}, cfg.CookieName, cfg.CORSOrigins, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("backend listening", zap.String("addr", srv.Addr), zap.String("env", cfg.AppEnv))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}
	logger.Info("backend stopped")
}
