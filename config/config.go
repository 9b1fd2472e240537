package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment variables.
// It is built once at startup and passed to every constructor that needs it.
type Config struct {
	AppName string `env:"APP_NAME" envDefault:"sms-question-poker"`
	Env     string `env:"APP_ENV" envDefault:"development"` // development, staging, production
	Port    string `env:"PORT" envDefault:"8000"`
	GinMode string `env:"GIN_MODE" envDefault:"release"`

	// Database
	DatabaseURL   string        `env:"DATABASE_URL,required,notEmpty"`
	DBMaxConns    int32         `env:"DB_MAX_CONNS" envDefault:"10"`
	DBMinConns    int32         `env:"DB_MIN_CONNS" envDefault:"2"`
	DBMaxConnLife time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"20m"`
	MigrationsDir string        `env:"MIGRATIONS_DIR" envDefault:"db/migrations"`

	// Auth
	AuthSecret     string `env:"AUTH_SECRET,required,notEmpty"`
	AuthAlgorithm  string `env:"AUTH_ALGORITHM" envDefault:"HS256"`
	UsernameDomain string `env:"USERNAME_DOMAIN" envDefault:"@beckelman.net"`
	BcryptCost     int    `env:"BCRYPT_COST" envDefault:"10"`

	// Redis (rate limiting); empty address disables limits
	RedisAddr       string `env:"REDIS_ADDR"`
	RedisPassword   string `env:"REDIS_PASSWORD"`
	RedisDB         int    `env:"REDIS_DB" envDefault:"0"`
	LoginRateLimit  int    `env:"LOGIN_RATE_LIMIT" envDefault:"10"`
	SignupRateLimit int    `env:"SIGNUP_RATE_LIMIT" envDefault:"5"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`

	// RabbitMQ
	RabbitMQURL        string `env:"RABBITMQ_URL"`
	RabbitMQEmailQueue string `env:"RABBITMQ_EMAIL_QUEUE" envDefault:"emails"`

	// Mailgun
	MailgunDomain string `env:"MAILGUN_DOMAIN"`
	MailgunAPIKey string `env:"MAILGUN_API_KEY"`
	MailgunSender string `env:"MAILGUN_SENDER"`

	// Email sending toggle
	MailSendEnabled bool `env:"MAIL_SEND_ENABLED" envDefault:"false"`

	// Elasticsearch; empty address list disables the user directory
	ElasticsearchAddrs []string `env:"ELASTICSEARCH_ADDRS" envSeparator:","`
	ElasticsearchUser  string   `env:"ELASTICSEARCH_USERNAME"`
	ElasticsearchPass  string   `env:"ELASTICSEARCH_PASSWORD"`
	ESUsersIndex       string   `env:"ES_USERS_INDEX" envDefault:"users"`

	// Prometheus metrics at /debug/metrics
	MetricsEnabled bool `env:"METRICS_ENABLED" envDefault:"true"`

	// HTTP access log toggle
	HTTPLogEnabled bool `env:"HTTP_LOG_ENABLED" envDefault:"false"`
}

// Load reads .env if present, then parses the environment into a Config.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return Parse()
}

// Parse builds a Config from the current environment without touching .env.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.CORSAllowedOrigins = trimAll(cfg.CORSAllowedOrigins)
	cfg.ElasticsearchAddrs = trimAll(cfg.ElasticsearchAddrs)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the auth core cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.AuthSecret) == "" {
		return errors.New("AUTH_SECRET must not be empty")
	}
	if _, ok := jwt.GetSigningMethod(c.AuthAlgorithm).(*jwt.SigningMethodHMAC); !ok {
		return fmt.Errorf("AUTH_ALGORITHM %q is not an HMAC signing method", c.AuthAlgorithm)
	}
	if !strings.HasPrefix(c.UsernameDomain, "@") {
		return fmt.Errorf("USERNAME_DOMAIN %q must start with @", c.UsernameDomain)
	}
	return nil
}

// IsDevelopment reports whether the app runs in the development environment.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func trimAll(in []string) []string {
	res := make([]string, 0, len(in))
	for _, p := range in {
		p = strings.TrimSpace(p)
		if p != "" {
			res = append(res, p)
		}
	}
	return res
}
