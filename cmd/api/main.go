package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"supermarket-pos/internal/model"
	"supermarket-pos/internal/repository"
	"supermarket-pos/internal/server"
	"supermarket-pos/internal/ws"
	"supermarket-pos/pkg/config"
	"supermarket-pos/pkg/database"
	"supermarket-pos/pkg/jwt"
	"supermarket-pos/pkg/logger"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

func main() {
	// 1. Load Env
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		boot := logger.New("info", false)
		boot.Fatal().Err(err).Msg("invalid configuration")
	}
	log := logger.New(cfg.LogLevel, cfg.IsDevelopment())
	if envErr != nil {
		log.Warn().Msg(".env file not found, relying on system env")
	}
	loc, _ := cfg.Location()

	// 2. Setup Database
	db, err := database.ConnectDB(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("database unavailable")
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}

	// 3. Seed the first admin account
	seedAdmin(context.Background(), db, cfg, log)

	// 4. Setup WebSocket Hub
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := ws.NewHub(log)
	go hub.Run(ctx)

	// 5. Fiber app with every layer wired
	app := server.New(server.Options{
		DB:          db,
		Hub:         hub,
		Tokens:      jwt.NewManager(cfg.JWTSecret, cfg.TokenTTL()),
		Location:    loc,
		Log:         log,
		Development: cfg.IsDevelopment(),
	})

	// 6. Graceful Shutdown
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.AppEnv).Msg("server listening")
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	log.Info().Msg("Server exited")
}

// seedAdmin creates the initial ADMIN account when ADMIN_PASSWORD is set and the username is free
func seedAdmin(ctx context.Context, db *gorm.DB, cfg *config.Config, log zerolog.Logger) {
	if cfg.AdminPassword == "" {
		log.Debug().Msg("ADMIN_PASSWORD not set, skipping admin seed")
		return
	}

	userRepo := repository.NewUserRepo(db)
	if _, err := userRepo.FindByUsername(ctx, cfg.AdminUsername); err == nil {
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Warn().Err(err).Msg("failed to look up admin user")
		return
	}

	admin := &model.User{
		FullName:     "Administrator",
		Username:     cfg.AdminUsername,
		Email:        cfg.AdminEmail,
		Role:         model.RoleAdmin,
		IsActive:     true,
		TokenVersion: uuid.New().String(),
	}
	if err := admin.SetPassword(cfg.AdminPassword); err != nil {
		log.Warn().Err(err).Msg("failed to hash admin password")
		return
	}
	if err := userRepo.Create(ctx, admin); err != nil {
		log.Warn().Err(err).Msg("failed to create admin user")
		return
	}
	log.Info().Str("username", admin.Username).Msg("admin user created")
}
