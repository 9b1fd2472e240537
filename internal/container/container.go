// Package container holds the components built once at startup and shared
// by every request. It is constructed in main and passed down explicitly.
package container

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/beckelmw/sms-question-poker/config"
	"github.com/beckelmw/sms-question-poker/internal/application"
	"github.com/beckelmw/sms-question-poker/internal/domain/repository"
	"github.com/beckelmw/sms-question-poker/pkg/helpers"
)

type Container struct {
	Config *config.Config
	Logger *logrus.Logger

	Repos     repository.Provider
	Redis     *redis.Client
	Directory *application.Directory
	Publisher application.SignupNotifier

	Hasher   *helpers.BcryptHasher
	Tokens   *helpers.TokenCodec
	Registry *prometheus.Registry
	Metrics  *application.Metrics
}

// New builds the auth core from cfg. Infrastructure clients are attached by the caller.
func New(cfg *config.Config, logger *logrus.Logger, repos repository.Provider) (*Container, error) {
	tokens, err := helpers.NewTokenCodec(cfg.AuthSecret, cfg.AuthAlgorithm)
	if err != nil {
		return nil, err
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Container{
		Config:    cfg,
		Logger:    logger,
		Repos:     repos,
		Directory: application.NewDirectory(nil),
		Hasher:    helpers.NewBcryptHasher(cfg.BcryptCost),
		Tokens:    tokens,
		Registry:  reg,
		Metrics:   application.NewMetrics(reg),
	}, nil
}

// Notifiers lists everything told about a new signup.
func (c *Container) Notifiers() []application.SignupNotifier {
	out := []application.SignupNotifier{c.Directory}
	if c.Publisher != nil {
		out = append(out, c.Publisher)
	}
	return out
}
