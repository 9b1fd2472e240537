package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/beckelmw/sms-question-poker/internal/interface/http"
)

// UserModule wires routes behind the Authorization Guard.
// Protected: GET /me, GET /users/search
type UserModule struct {
	Handler *handlers.UserHandler
	Guard   gin.HandlerFunc
}

func NewUserModule(h *handlers.UserHandler, guard gin.HandlerFunc) *UserModule {
	return &UserModule{Handler: h, Guard: guard}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/")
	auth.Use(m.Guard)
	{
		auth.GET("/me", m.Handler.Me)
		auth.GET("/users/search", m.Handler.Search)
	}
}
