package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/beckelmw/sms-question-poker/internal/interface/http"
)

// AuthModule wires the public credential routes.
// POST /signup, POST /login; each request gets its own scoped repository.
type AuthModule struct {
	Handler       *handlers.AuthHandler
	Scope         gin.HandlerFunc
	LoginLimiter  gin.HandlerFunc
	SignupLimiter gin.HandlerFunc
}

func NewAuthModule(h *handlers.AuthHandler, scope, loginLimiter, signupLimiter gin.HandlerFunc) *AuthModule {
	return &AuthModule{Handler: h, Scope: scope, LoginLimiter: loginLimiter, SignupLimiter: signupLimiter}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	rg.POST("/signup", m.SignupLimiter, m.Scope, m.Handler.Signup)
	rg.POST("/login", m.LoginLimiter, m.Scope, m.Handler.Login)
}
