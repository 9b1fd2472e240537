package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/beckelmw/sms-question-poker/internal/domain/entity"
	repo "github.com/beckelmw/sms-question-poker/internal/domain/repository"
	"github.com/beckelmw/sms-question-poker/pkg/apperror"
)

// SignupInput is a validated signup request.
type SignupInput struct {
	FirstName string
	LastName  string
	Username  string
	Password  string
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	AccessToken string `json:"access_token"`
}

// AuthService implements signup and login on top of a UserRepository.
// It is cheap to build and is constructed per request around the request's repository.
type AuthService struct {
	Repo      repo.UserRepository
	Hasher    PasswordHasher
	Tokens    TokenEncoder
	Notifiers []SignupNotifier
	Logger    *logrus.Logger
	Metrics   *Metrics

	now func() time.Time
}

func NewAuthService(r repo.UserRepository, hasher PasswordHasher, tokens TokenEncoder, logger *logrus.Logger, metrics *Metrics, notifiers ...SignupNotifier) *AuthService {
	return &AuthService{
		Repo:      r,
		Hasher:    hasher,
		Tokens:    tokens,
		Notifiers: notifiers,
		Logger:    logger,
		Metrics:   metrics,
		now:       time.Now,
	}
}

// Signup registers a new user. The store's unique constraint is authoritative;
// the lookup beforehand only produces the friendly error in the common case.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (bool, error) {
	existing, err := s.Repo.FindOneByUsername(ctx, in.Username)
	switch {
	case err == nil && existing != nil:
		s.Metrics.signup("duplicate")
		return false, apperror.DuplicateUser()
	case err != nil && !errors.Is(err, repo.ErrNotFound):
		s.Metrics.signup("error")
		return false, apperror.Internal(fmt.Errorf("find user: %w", err))
	}

	hash, err := s.Hasher.Hash(in.Password)
	if err != nil {
		s.Metrics.signup("error")
		return false, apperror.BadRequest("Password cannot be used")
	}

	now := s.now().UTC()
	u := &entity.User{
		ID:             uuid.NewString(),
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		Username:       in.Username,
		HashedPassword: hash,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	created, err := s.Repo.Add(ctx, u)
	if err != nil {
		if errors.Is(err, repo.ErrConflict) {
			s.Metrics.signup("duplicate")
			return false, apperror.DuplicateUser()
		}
		s.Metrics.signup("error")
		return false, apperror.Internal(fmt.Errorf("add user: %w", err))
	}
	if created == nil {
		created = u
	}

	s.Metrics.signup("created")
	s.log().WithField("username", created.Username).WithField("user_id", created.ID).Info("user signed up")
	s.notify(ctx, created)
	return true, nil
}

// Login verifies credentials and issues an access token. Unknown usernames and
// wrong passwords produce the same error.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	u, err := s.Repo.FindOneByUsername(ctx, username)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		s.Metrics.login("error")
		return nil, apperror.Internal(fmt.Errorf("find user: %w", err))
	}
	if u == nil || !s.Hasher.Verify(password, u.HashedPassword) {
		s.Metrics.login("rejected")
		s.log().WithField("username", username).Warn("login rejected")
		return nil, apperror.NotAuthorized(apperror.MsgIncorrectCredentials)
	}

	token, err := s.Tokens.Encode(u.Identity())
	if err != nil {
		s.Metrics.login("error")
		return nil, apperror.Internal(err)
	}
	s.Metrics.login("ok")
	return &LoginResult{AccessToken: token}, nil
}

func (s *AuthService) notify(ctx context.Context, u *entity.User) {
	for _, n := range s.Notifiers {
		if n == nil {
			continue
		}
		if err := n.UserRegistered(ctx, u); err != nil {
			s.log().WithError(err).WithField("user_id", u.ID).Warn("signup notification failed")
		}
	}
}

func (s *AuthService) log() logrus.FieldLogger {
	if s.Logger == nil {
		return logrus.StandardLogger()
	}
	return s.Logger
}
