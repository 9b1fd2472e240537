package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/beckelmw/sms-question-poker/internal/container"
	handlers "github.com/beckelmw/sms-question-poker/internal/interface/http"
	"github.com/beckelmw/sms-question-poker/internal/interface/middleware"
	"github.com/beckelmw/sms-question-poker/internal/router/modules"
	"github.com/beckelmw/sms-question-poker/pkg/apperror"
	"github.com/beckelmw/sms-question-poker/pkg/response"
)

// New builds the gin engine with global middleware and every module.
func New(c *container.Container) *gin.Engine {
	cfg := c.Config

	r := gin.New()
	r.Use(gin.CustomRecovery(func(ctx *gin.Context, rec any) {
		c.Logger.WithField("panic", rec).WithField("path", ctx.Request.URL.Path).Error("handler panicked")
		response.Error(ctx, apperror.Internal(nil))
	}))
	r.Use(middleware.RequestID(), middleware.RealIP())
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORSAllowedOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"Content-Length", "WWW-Authenticate", middleware.HeaderRequestID},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}
	if cfg.HTTPLogEnabled {
		r.Use(middleware.AccessLog(c.Logger))
	}
	if cfg.MetricsEnabled {
		r.Use(middleware.HTTPMetrics(c.Registry))
	}
	r.NoRoute(func(ctx *gin.Context) {
		response.Error(ctx, &apperror.ServiceError{Code: http.StatusNotFound, Message: "Not Found"})
	})

	reg := NewRegistry(r, "/")
	InitModules(reg, c)
	reg.RegisterAll()
	return r
}

// InitModules wires handlers from the container into route modules.
func InitModules(reg *Registry, c *container.Container) {
	cfg := c.Config

	var allow middleware.AllowFunc
	if cfg.IsDevelopment() {
		allow = middleware.AllowPrivateIP()
	}
	scope := middleware.DBScope(c.Repos)
	guard := middleware.Authenticate(c.Tokens, c.Metrics)

	auth := handlers.NewAuthHandler(c.Hasher, c.Tokens, c.Logger, c.Metrics, c.Notifiers()...)
	reg.Add(modules.NewAuthModule(auth, scope,
		middleware.RateLimit(c.Redis, cfg.LoginRateLimit, time.Minute, middleware.KeyByIPAndPath(), allow, c.Logger),
		middleware.RateLimit(c.Redis, cfg.SignupRateLimit, time.Minute, middleware.KeyByIPAndPath(), allow, c.Logger),
	))
	reg.Add(modules.NewUserModule(handlers.NewUserHandler(c.Directory), guard))
	reg.Add(modules.NewDebugModule(c.Registry, cfg.MetricsEnabled))
}
