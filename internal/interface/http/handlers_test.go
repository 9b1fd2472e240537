package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/beckelmw/sms-question-poker/internal/application"
	"github.com/beckelmw/sms-question-poker/internal/domain/entity"
	"github.com/beckelmw/sms-question-poker/internal/infrastructure/memory"
	"github.com/beckelmw/sms-question-poker/internal/interface/middleware"
	"github.com/beckelmw/sms-question-poker/pkg/helpers"
	"github.com/beckelmw/sms-question-poker/pkg/validation"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	if err := validation.Init("@beckelman.net"); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type testEnv struct {
	engine   *gin.Engine
	repo     *memory.UserRepository
	provider *memory.Provider
	codec    *helpers.TokenCodec
	index    *stubIndex
}

type stubIndex struct {
	indexed []*entity.User
	hits    []application.DirectoryEntry
}

func (s *stubIndex) Index(_ context.Context, u *entity.User) error {
	s.indexed = append(s.indexed, u)
	return nil
}

func (s *stubIndex) Search(context.Context, string, int) ([]application.DirectoryEntry, error) {
	return s.hits, nil
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	codec, err := helpers.NewTokenCodec("handler-secret", "HS256")
	require.NoError(t, err)
	repo := memory.NewUserRepository()
	provider := memory.NewProvider(repo)
	index := &stubIndex{}
	directory := application.NewDirectory(index)
	metrics := application.NewMetrics(prometheus.NewRegistry())

	auth := NewAuthHandler(helpers.NewBcryptHasher(bcrypt.MinCost), codec, helpers.NewDiscardLogger(), metrics, directory)
	users := NewUserHandler(directory)
	scope := middleware.DBScope(provider)
	guard := middleware.Authenticate(codec, metrics)

	r := gin.New()
	r.GET("/ping", Ping)
	r.POST("/signup", scope, auth.Signup)
	r.POST("/login", scope, auth.Login)
	r.GET("/me", guard, users.Me)
	r.GET("/users/search", guard, users.Search)

	return &testEnv{engine: r, repo: repo, provider: provider, codec: codec, index: index}
}

func (e *testEnv) signup(body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/signup", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func (e *testEnv) login(form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func (e *testEnv) get(path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "bearer "+token)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

const testUser = `{"first_name":"Test","last_name":"User","username":"test@beckelman.net","password":"pass@word"}`

func credentials(username, password string) url.Values {
	return url.Values{"username": {username}, "password": {password}, "grant_type": {"password"}}
}

func TestPing(t *testing.T) {
	env := newTestEnv(t)
	w := env.get("/ping", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ping":"pong!"}`, w.Body.String())
}

func TestSignup(t *testing.T) {
	env := newTestEnv(t)

	w := env.signup(testUser)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "true", w.Body.String())

	u, err := env.repo.FindOneByUsername(context.Background(), "test@beckelman.net")
	require.NoError(t, err)
	assert.NotEqual(t, "pass@word", u.HashedPassword)
	require.Len(t, env.index.indexed, 1)
	assert.Equal(t, 0, env.provider.Outstanding())
}

func TestSignup_Duplicate(t *testing.T) {
	env := newTestEnv(t)
	require.Equal(t, http.StatusOK, env.signup(testUser).Code)
	writes := env.repo.Writes

	w := env.signup(testUser)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"message":"A user with that username already exists."}`, w.Body.String())
	assert.Equal(t, writes, env.repo.Writes)
}

func TestSignup_Validation(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"wrong domain", `{"first_name":"J","last_name":"Doe","username":"jdoe@example.com","password":"pass@word"}`, "username"},
		{"not an email", `{"first_name":"J","last_name":"Doe","username":"beckelman.net","password":"pass@word"}`, "username"},
		{"short password", `{"first_name":"J","last_name":"Doe","username":"jdoe@beckelman.net","password":"short"}`, "password"},
		{"missing first name", `{"last_name":"Doe","username":"jdoe@beckelman.net","password":"pass@word"}`, "first_name"},
		{"malformed json", `{"first_name":`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			w := env.signup(tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			var body struct {
				Message string            `json:"message"`
				Details map[string]string `json:"details"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.NotEmpty(t, body.Message)
			if tt.field != "" {
				assert.Contains(t, body.Details, tt.field)
			}
			assert.Zero(t, env.repo.Reads, "validation must fail before the store is consulted")
			assert.Zero(t, env.repo.Writes)
		})
	}
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	require.Equal(t, http.StatusOK, env.signup(testUser).Code)

	w := env.login(credentials("test@beckelman.net", "pass@word"))
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotEmpty(t, body["access_token"])
	res := env.codec.Decode(body["access_token"])
	require.True(t, res.Valid())
	assert.Equal(t, "test@beckelman.net", res.Identity.Username)
}

func TestLogin_GrantTypeOptional(t *testing.T) {
	env := newTestEnv(t)
	require.Equal(t, http.StatusOK, env.signup(testUser).Code)

	w := env.login(url.Values{"username": {"test@beckelman.net"}, "password": {"pass@word"}})
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.login(url.Values{"username": {"test@beckelman.net"}, "password": {"pass@word"}, "grant_type": {"client_credentials"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	env := newTestEnv(t)
	require.Equal(t, http.StatusOK, env.signup(testUser).Code)

	wrong := env.login(credentials("test@beckelman.net", "wrongpass"))
	unknown := env.login(credentials("ghost@beckelman.net", "pass@word"))

	for _, w := range []*httptest.ResponseRecorder{wrong, unknown} {
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
		assert.JSONEq(t, `{"message":"Incorrect username or password"}`, w.Body.String())
	}
	assert.Equal(t, wrong.Header(), unknown.Header())
	assert.Equal(t, 0, env.provider.Outstanding())
}

func TestMe(t *testing.T) {
	env := newTestEnv(t)

	w := env.get("/me", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))

	token, err := env.codec.Encode(entity.Identity{UserID: "u-1", Username: "test@beckelman.net", FirstName: "Test", LastName: "User"})
	require.NoError(t, err)
	w = env.get("/me", token)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "test@beckelman.net", body["username"])
	assert.Equal(t, "u-1", body["user_id"])
	assert.Equal(t, "Test", body["first_name"])
	assert.NotZero(t, body["expires"])
}

func TestSearch(t *testing.T) {
	env := newTestEnv(t)
	env.index.hits = []application.DirectoryEntry{{UserID: "u-1", Username: "test@beckelman.net", FirstName: "Test", LastName: "User"}}
	token, err := env.codec.Encode(entity.Identity{UserID: "u-2", Username: "me@beckelman.net"})
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, env.get("/users/search?q=test", "").Code)
	assert.Equal(t, http.StatusBadRequest, env.get("/users/search", token).Code)

	w := env.get("/users/search?q=test&size=5", token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"users":[{"user_id":"u-1","username":"test@beckelman.net","first_name":"Test","last_name":"User"}]}`, w.Body.String())
}
