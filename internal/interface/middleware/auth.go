package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/beckelmw/sms-question-poker/internal/application"
	"github.com/beckelmw/sms-question-poker/internal/domain/entity"
	"github.com/beckelmw/sms-question-poker/pkg/helpers"
	"github.com/beckelmw/sms-question-poker/pkg/response"
)

const CtxIdentityKey = "identity"

// TokenDecoder validates bearer tokens.
type TokenDecoder interface {
	Decode(token string) helpers.TokenResult
}

// Authenticate guards a route with a bearer token from the Authorization header.
// Missing, malformed, invalid and expired tokens all produce the same 401.
// The decoded identity is trusted as-is; no store lookup happens here.
func Authenticate(tokens TokenDecoder, metrics *application.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			metrics.TokenRejected("missing")
			response.Unauthorized(c)
			return
		}
		res := tokens.Decode(raw)
		if !res.Valid() {
			metrics.TokenRejected(res.Status.String())
			response.Unauthorized(c)
			return
		}
		c.Set(CtxIdentityKey, res.Identity)
		c.Next()
	}
}

// IdentityFromContext returns the identity set by Authenticate.
func IdentityFromContext(c *gin.Context) (entity.Identity, bool) {
	v, ok := c.Get(CtxIdentityKey)
	if !ok {
		return entity.Identity{}, false
	}
	id, ok := v.(entity.Identity)
	return id, ok
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
