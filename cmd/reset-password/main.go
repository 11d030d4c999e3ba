package main

import (
	"context"
	"errors"
	"flag"

	"supermarket-pos/internal/repository"
	"supermarket-pos/pkg/config"
	"supermarket-pos/pkg/database"
	"supermarket-pos/pkg/logger"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

const minPasswordLength = 6

var errPasswordTooShort = errors.New("password must be at least 6 characters")

// Resets a user's password from the command line and ends their session:
//
//	go run ./cmd/reset-password -username admin -password 'new-secret'
func main() {
	username := flag.String("username", "admin", "account to reset")
	password := flag.String("password", "", "new password, at least 6 characters")
	flag.Parse()

	// 1. Load Env
	envErr := godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		boot := logger.New("info", false)
		boot.Fatal().Err(err).Msg("invalid configuration")
	}
	log := logger.New(cfg.LogLevel, true)
	if envErr != nil {
		log.Warn().Msg(".env file not found, relying on system env")
	}

	// 2. Setup Database
	db, err := database.ConnectDB(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("database unavailable")
	}

	// 3. Reset
	if err := resetPassword(context.Background(), repository.NewUserRepo(db), *username, *password); err != nil {
		log.Fatal().Err(err).Str("username", *username).Msg("password reset failed")
	}
	log.Info().Str("username", *username).Msg("password reset")
}

// resetPassword stores a new hash and rotates the token version so the current session ends
func resetPassword(ctx context.Context, users repository.UserRepository, username, password string) error {
	if len(password) < minPasswordLength {
		return errPasswordTooShort
	}

	user, err := users.FindByUsername(ctx, username)
	if err != nil {
		return err
	}
	if err := user.SetPassword(password); err != nil {
		return err
	}
	user.TokenVersion = uuid.New().String()
	return users.Update(ctx, user)
}
