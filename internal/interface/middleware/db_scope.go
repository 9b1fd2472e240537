package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/beckelmw/sms-question-poker/internal/domain/repository"
	"github.com/beckelmw/sms-question-poker/pkg/apperror"
	"github.com/beckelmw/sms-question-poker/pkg/response"
)

const CtxRepositoryKey = "user_repository"

// ErrNoRepository means DBScope did not run for this route.
var ErrNoRepository = errors.New("no repository in request scope")

// DBScope acquires one repository per request and releases it after the
// rest of the chain returns, including on aborts and panics.
func DBScope(provider repository.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		repo, release, err := provider.Acquire(c.Request.Context())
		if err != nil {
			if release != nil {
				release()
			}
			response.Error(c, apperror.Internal(err))
			return
		}
		defer release()

		c.Set(CtxRepositoryKey, repo)
		c.Next()
	}
}

// RepositoryFromContext returns the repository scoped to this request.
func RepositoryFromContext(c *gin.Context) (repository.UserRepository, error) {
	v, ok := c.Get(CtxRepositoryKey)
	if !ok {
		return nil, ErrNoRepository
	}
	repo, ok := v.(repository.UserRepository)
	if !ok {
		return nil, ErrNoRepository
	}
	return repo, nil
}
