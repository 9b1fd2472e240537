package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/sirupsen/logrus"

	"github.com/beckelmw/sms-question-poker/internal/application"
	"github.com/beckelmw/sms-question-poker/internal/interface/middleware"
	"github.com/beckelmw/sms-question-poker/pkg/apperror"
	"github.com/beckelmw/sms-question-poker/pkg/response"
)

// AuthHandler serves signup and login. The AuthService is rebuilt per
// request around the repository scoped by middleware.DBScope.
type AuthHandler struct {
	Hasher    application.PasswordHasher
	Tokens    application.TokenEncoder
	Notifiers []application.SignupNotifier
	Logger    *logrus.Logger
	Metrics   *application.Metrics
}

func NewAuthHandler(hasher application.PasswordHasher, tokens application.TokenEncoder, logger *logrus.Logger, metrics *application.Metrics, notifiers ...application.SignupNotifier) *AuthHandler {
	return &AuthHandler{Hasher: hasher, Tokens: tokens, Notifiers: notifiers, Logger: logger, Metrics: metrics}
}

type signupRequest struct {
	FirstName string `json:"first_name" binding:"required,max=100"`
	LastName  string `json:"last_name" binding:"required,max=100"`
	Username  string `json:"username" binding:"required,email,orgdomain"`
	Password  string `json:"password" binding:"required,pwd,max=72"`
}

type loginRequest struct {
	Username  string `form:"username" binding:"required"`
	Password  string `form:"password" binding:"required"`
	GrantType string `form:"grant_type" binding:"omitempty,eq=password"`
}

func (h *AuthHandler) service(c *gin.Context) (*application.AuthService, error) {
	repo, err := middleware.RepositoryFromContext(c)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return application.NewAuthService(repo, h.Hasher, h.Tokens, h.Logger, h.Metrics, h.Notifiers...), nil
}

// Signup POST /signup {first_name, last_name, username, password} -> true
func (h *AuthHandler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err)
		return
	}
	svc, err := h.service(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	ok, err := svc.Signup(c.Request.Context(), application.SignupInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Username:  req.Username,
		Password:  req.Password,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, ok)
}

// Login POST /login (form: username, password, grant_type=password) -> {access_token}
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindWith(&req, binding.Form); err != nil {
		response.ValidationError(c, err)
		return
	}
	svc, err := h.service(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	res, err := svc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
