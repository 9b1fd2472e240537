package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/beckelmw/sms-question-poker/internal/application"
	"github.com/beckelmw/sms-question-poker/internal/interface/middleware"
	"github.com/beckelmw/sms-question-poker/pkg/response"
)

// UserHandler serves routes behind the Authorization Guard.
type UserHandler struct {
	Directory *application.Directory
}

func NewUserHandler(directory *application.Directory) *UserHandler {
	return &UserHandler{Directory: directory}
}

// Me GET /me returns the caller's token claims.
func (h *UserHandler) Me(c *gin.Context) {
	id, ok := middleware.IdentityFromContext(c)
	if !ok {
		response.Unauthorized(c)
		return
	}
	c.JSON(http.StatusOK, id)
}

// Search GET /users/search?q=&size=
func (h *UserHandler) Search(c *gin.Context) {
	size, _ := strconv.Atoi(c.Query("size"))
	out, err := h.Directory.Search(c.Request.Context(), c.Query("q"), size)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": out})
}
