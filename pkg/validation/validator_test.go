package validation

import (
	"encoding/json"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signupForm struct {
	Username string `json:"username" binding:"required,email,orgdomain"`
	Password string `json:"password" validate:"required,pwd"`
}

type loginForm struct {
	Username  string `form:"username" validate:"required"`
	GrantType string `form:"grant_type" validate:"omitempty,eq=password"`
}

func newValidator(t *testing.T) *validator.Validate {
	t.Helper()
	v := validator.New()
	require.NoError(t, Configure(v, "@beckelman.net"))
	return v
}

func TestOrgDomain(t *testing.T) {
	v := newValidator(t)

	tests := []struct {
		username string
		valid    bool
	}{
		{"test@beckelman.net", true},
		{"Test@Beckelman.NET", true},
		{"jdoe@example.com", false},
		{"@beckelman.net", false},
		{"jdoe@beckelman.net.evil.com", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.username, func(t *testing.T) {
			err := v.Var(tt.username, "orgdomain")
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestToDetails_UsesTagNames(t *testing.T) {
	v := newValidator(t)

	err := v.Struct(struct {
		Username string `json:"username" validate:"required,orgdomain"`
		Password string `json:"password" validate:"required,pwd"`
	}{Username: "jdoe@example.com", Password: "short"})
	require.Error(t, err)

	details := ToDetails(err)
	assert.Equal(t, "must belong to the organization domain", details["username"])
	assert.Equal(t, "must be at least 8 characters long", details["password"])
}

func TestToDetails_FormTagFallback(t *testing.T) {
	v := newValidator(t)

	err := v.Struct(loginForm{GrantType: "client_credentials"})
	require.Error(t, err)

	details := ToDetails(err)
	assert.Equal(t, "is required", details["username"])
	assert.Equal(t, "must be equal to password", details["grant_type"])
}

func TestToDetails_Payload(t *testing.T) {
	var dst signupForm
	err := json.Unmarshal([]byte(`{"username": 12}`), &dst)
	assert.Equal(t, map[string]string{"payload": "invalid json"}, ToDetails(err))
	assert.Nil(t, ToDetails(nil))
}
