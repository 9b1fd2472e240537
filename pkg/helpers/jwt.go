package helpers

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/beckelmw/sms-question-poker/internal/domain/entity"
)

// TokenTTL is how long an access token stays valid after issuance.
const TokenTTL = 24 * time.Hour

// TokenStatus is the outcome of decoding a bearer token.
type TokenStatus int

const (
	TokenInvalid TokenStatus = iota
	TokenValid
	TokenExpired
)

func (s TokenStatus) String() string {
	switch s {
	case TokenValid:
		return "valid"
	case TokenExpired:
		return "expired"
	default:
		return "invalid"
	}
}

// TokenResult carries the decoded identity. Identity is only set when Status is TokenValid.
type TokenResult struct {
	Status   TokenStatus
	Identity entity.Identity
}

// Valid reports whether the token verified and has not expired.
func (r TokenResult) Valid() bool { return r.Status == TokenValid }

type Claims struct {
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	jwt.RegisteredClaims
}

// TokenCodec signs and validates access tokens with a process-wide HMAC secret.
type TokenCodec struct {
	secret []byte
	method jwt.SigningMethod
	now    func() time.Time
}

// NewTokenCodec builds a codec for an HMAC algorithm such as HS256.
func NewTokenCodec(secret, algorithm string) (*TokenCodec, error) {
	if secret == "" {
		return nil, errors.New("token secret is empty")
	}
	method, ok := jwt.GetSigningMethod(algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", algorithm)
	}
	return &TokenCodec{secret: []byte(secret), method: method, now: time.Now}, nil
}

// WithClock returns a copy of the codec that reads the current time from now.
func (c *TokenCodec) WithClock(now func() time.Time) *TokenCodec {
	cp := *c
	cp.now = now
	return &cp
}

// Encode signs id into a token that expires TokenTTL from now.
func (c *TokenCodec) Encode(id entity.Identity) (string, error) {
	now := c.now()
	claims := &Claims{
		UserID:    id.UserID,
		Username:  id.Username,
		FirstName: id.FirstName,
		LastName:  id.LastName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
	}
	s, err := jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return s, nil
}

// Decode verifies the signature and expiry of tokenStr. It never returns an error:
// failures are reported through the result status.
func (c *TokenCodec) Decode(tokenStr string) TokenResult {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return TokenResult{Status: TokenExpired}
		}
		return TokenResult{Status: TokenInvalid}
	}
	// a verified token without an identity authenticates nobody
	if claims.Subject == "" || claims.Username == "" || claims.UserID != claims.Subject {
		return TokenResult{Status: TokenInvalid}
	}
	return TokenResult{
		Status: TokenValid,
		Identity: entity.Identity{
			UserID:    claims.UserID,
			Username:  claims.Username,
			FirstName: claims.FirstName,
			LastName:  claims.LastName,
			Expires:   claims.ExpiresAt.Unix(),
		},
	}
}
