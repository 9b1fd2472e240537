package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/golang-migrate/migrate/v4"
	pgmigrate "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/beckelmw/sms-question-poker/config"
	"github.com/beckelmw/sms-question-poker/internal/application"
	"github.com/beckelmw/sms-question-poker/internal/container"
	"github.com/beckelmw/sms-question-poker/internal/infrastructure/events"
	pginfra "github.com/beckelmw/sms-question-poker/internal/infrastructure/postgres"
	"github.com/beckelmw/sms-question-poker/internal/infrastructure/search"
	"github.com/beckelmw/sms-question-poker/internal/router"
	"github.com/beckelmw/sms-question-poker/pkg/helpers"
	"github.com/beckelmw/sms-question-poker/pkg/validation"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := helpers.NewLogger(cfg.AppName, cfg.Env)
	gin.SetMode(cfg.GinMode)

	if err := validation.Init(cfg.UsernameDomain); err != nil {
		logger.Fatalf("validator: %v", err)
	}

	ctx := context.Background()

	// Initialize Postgres pool
	pool, err := pginfra.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
	if err != nil {
		logger.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	if err := runMigrations(cfg.DatabaseURL, cfg.MigrationsDir, logger); err != nil {
		logger.Fatalf("migration failed: %v", err)
	}

	c, err := container.New(cfg, logger, pginfra.NewProvider(pool))
	if err != nil {
		logger.Fatalf("container: %v", err)
	}

	// Redis backs the login/signup rate limits
	if cfg.RedisAddr != "" {
		rdb, err := helpers.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.WithError(err).Warn("redis unavailable; rate limiting disabled")
		} else {
			defer func() { _ = rdb.Close() }()
			c.Redis = rdb
		}
	}

	// Elasticsearch user directory
	if len(cfg.ElasticsearchAddrs) > 0 {
		es, err := search.NewClient(cfg.ElasticsearchAddrs, cfg.ElasticsearchUser, cfg.ElasticsearchPass)
		if err != nil {
			logger.Fatalf("elasticsearch: %v", err)
		}
		idx := search.NewUserIndex(es, cfg.ESUsersIndex)
		ectx, cancel := context.WithTimeout(ctx, 10*time.Second)
		if err := idx.EnsureIndex(ectx); err != nil {
			logger.WithError(err).Warn("elasticsearch index not ready; directory disabled")
		} else {
			c.Directory = application.NewDirectory(idx)
		}
		cancel()
	}

	// Welcome mail goes through RabbitMQ to the email worker
	if cfg.MailSendEnabled && cfg.RabbitMQURL != "" {
		pub, err := events.NewPublisher(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue, cfg.AppName)
		if err != nil {
			logger.WithError(err).Warn("rabbitmq unavailable; welcome mail disabled")
		} else {
			defer pub.Close()
			c.Publisher = pub
		}
	}

	r := router.New(c)

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		logger.Infof("server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %s", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Errorf("server forced to shutdown: %v", err)
	}
	logger.Info("server exited properly")
}

func runMigrations(dsn string, migrationsDir string, logger *logrus.Logger) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	driver, err := pgmigrate.WithInstance(db, &pgmigrate.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithDatabaseInstance(fmt.Sprintf("file://%s", migrationsDir), "postgres", driver)
	if err != nil {
		return err
	}
	logger.Info("running migrations...")
	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("no migrations to run")
		return nil
	}
	return err
}
