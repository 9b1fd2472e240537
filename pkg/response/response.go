package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/beckelmw/sms-question-poker/pkg/apperror"
	"github.com/beckelmw/sms-question-poker/pkg/validation"
)

// ErrorBody is the envelope for every failed request.
type ErrorBody struct {
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// Error writes err as an ErrorBody and aborts the chain. 401s carry the
// Bearer challenge. Causes of internal errors are attached to the gin
// context for the access log and never written to the client.
func Error(c *gin.Context, err error) {
	se := apperror.As(err)
	if se.Code >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	if se.Code == http.StatusUnauthorized {
		c.Header("WWW-Authenticate", "Bearer")
	}
	c.AbortWithStatusJSON(se.Code, ErrorBody{Message: se.Message})
}

// Unauthorized aborts with the generic 401.
func Unauthorized(c *gin.Context) {
	Error(c, apperror.NotAuthorized(""))
}

// ValidationError aborts with 400 and a field -> reason map.
func ValidationError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorBody{
		Message: "Invalid request",
		Details: validation.ToDetails(err),
	})
}
