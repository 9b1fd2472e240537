package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"time"

	"github.com/beckelmw/sms-question-poker/config"
	"github.com/beckelmw/sms-question-poker/internal/application"
	pginfra "github.com/beckelmw/sms-question-poker/internal/infrastructure/postgres"
	"github.com/beckelmw/sms-question-poker/pkg/apperror"
	"github.com/beckelmw/sms-question-poker/pkg/helpers"
)

func main() {
	username := flag.String("username", "demo@beckelman.net", "username to seed")
	password := flag.String("password", "password123", "plain password for the seeded user")
	first := flag.String("first", "Demo", "first name")
	last := flag.String("last", "User", "last name")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := helpers.NewLogger(cfg.AppName, cfg.Env)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pginfra.NewPool(ctx, cfg.DatabaseURL, 2, 1, cfg.DBMaxConnLife)
	if err != nil {
		logger.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	tokens, err := helpers.NewTokenCodec(cfg.AuthSecret, cfg.AuthAlgorithm)
	if err != nil {
		logger.Fatalf("token codec: %v", err)
	}

	repo, release, err := pginfra.NewProvider(pool).Acquire(ctx)
	if err != nil {
		logger.Fatalf("acquire connection: %v", err)
	}
	defer release()

	svc := application.NewAuthService(repo, helpers.NewBcryptHasher(cfg.BcryptCost), tokens, logger, nil)
	_, err = svc.Signup(ctx, application.SignupInput{
		FirstName: *first,
		LastName:  *last,
		Username:  *username,
		Password:  *password,
	})
	switch {
	case errors.Is(err, apperror.ErrDuplicateUser):
		logger.WithField("username", *username).Info("user already seeded")
	case err != nil:
		logger.Fatalf("failed to seed user: %v", err)
	default:
		logger.WithField("username", *username).Info("seeded user")
	}
}
