package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/postboard/internal/api"
	"github.com/charlesng35/postboard/internal/app"
	iauth "github.com/charlesng35/postboard/internal/auth"
	"github.com/charlesng35/postboard/internal/cache"
	sharedtestutil "github.com/charlesng35/postboard/internal/database/testutil"
	"github.com/charlesng35/postboard/internal/middleware"
	"github.com/charlesng35/postboard/internal/services"
	"github.com/charlesng35/postboard/pkg/response"
)

// Env encapsulates a fully-wired API instance backed by an in-memory database for handler tests.
type Env struct {
	T      *testing.T
	DB     *gorm.DB
	Router *gin.Engine
	JWT    *iauth.JWTService
	Cache  *cache.MemoryStore
	Config *app.Config
}

// EnvOption adjusts the configuration before the router is built.
type EnvOption func(*app.Config)

// WithLoginRateLimit caps login attempts per client within window.
func WithLoginRateLimit(requests int, window time.Duration) EnvOption {
	return func(cfg *app.Config) {
		cfg.RateLimit.LoginRequests = requests
		cfg.RateLimit.Window = window
	}
}

// NewEnv provisions a fresh handler test environment with migrations applied.
func NewEnv(t *testing.T, opts ...EnvOption) *Env {
	t.Helper()

	gin.SetMode(gin.TestMode)

	db := sharedtestutil.MustOpenTestDB(t, sharedtestutil.WithAutoMigrate())

	jwtSecret := "test-suite-super-secret-key-32-bytes!!"
	cfg := &app.Config{
		Cache: app.CacheConfig{
			Backend: app.CacheBackendMemory,
			TTL:     300 * time.Second,
		},
		Auth: app.AuthConfig{
			JWT: app.JWTSettings{
				Secret: jwtSecret,
				Issuer: "test-suite",
				TTL:    time.Hour,
			},
		},
		RateLimit: app.RateLimitConfig{
			LoginRequests: 1000,
			Window:        time.Minute,
		},
		Monitoring: app.MonitoringConfig{
			Prometheus: app.PrometheusConfig{Enabled: true, Endpoint: "/metrics"},
			Health:     app.HealthConfig{Enabled: true},
		},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	jwtSvc, err := iauth.NewJWTService(cfg.Auth.JWTServiceConfig())
	require.NoError(t, err)

	users, err := services.NewUserService(db)
	require.NoError(t, err)

	authSvc, err := iauth.NewService(users, jwtSvc)
	require.NoError(t, err)

	store := cache.NewMemoryStore(cfg.Cache.MemoryStoreConfig())
	posts, err := services.NewPostService(db, services.WithListCache(store, cfg.Cache.TTL))
	require.NoError(t, err)

	rateStore, err := middleware.NewRateStore(store)
	require.NoError(t, err)

	router, err := api.NewRouter(api.Deps{
		DB:        db,
		Auth:      authSvc,
		Users:     users,
		Posts:     posts,
		Config:    cfg,
		Cache:     store,
		RateStore: rateStore,
	})
	require.NoError(t, err)

	return &Env{
		T:      t,
		DB:     db,
		Router: router,
		JWT:    jwtSvc,
		Cache:  store,
		Config: cfg,
	}
}

// UserPayload mirrors the public user representation.
type UserPayload struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	Password  string    `json:"password"`
	CreatedAt time.Time `json:"created_at"`
}

// AuthorPayload mirrors the author embedded in posts.
type AuthorPayload struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
}

// PostPayload mirrors the post representation returned by post endpoints.
type PostPayload struct {
	ID          uint          `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Author      AuthorPayload `json:"author"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// ListPayload mirrors GET /posts/list.
type ListPayload struct {
	Data  []PostPayload `json:"data"`
	Total int64         `json:"total"`
}

// LoginResult bundles the JSON response from POST /auth/login.
type LoginResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// CreateUser registers an account through the public endpoint.
func (e *Env) CreateUser(email, password string) UserPayload {
	e.T.Helper()

	w := e.Request(http.MethodPost, "/users/create", map[string]string{
		"email":    email,
		"password": password,
	}, "")
	require.Equal(e.T, http.StatusCreated, w.Code, w.Body.String())

	var user UserPayload
	DecodeInto(e.T, DecodeResponse(e.T, w).Data, &user)
	require.NotZero(e.T, user.ID)
	return user
}

// Login authenticates and returns the issued access token.
func (e *Env) Login(email, password string) LoginResult {
	e.T.Helper()

	w := e.Request(http.MethodPost, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, "")
	require.Equal(e.T, http.StatusOK, w.Code, w.Body.String())

	resp := DecodeResponse(e.T, w)
	require.True(e.T, resp.Success, w.Body.String())

	var result LoginResult
	DecodeInto(e.T, resp.Data, &result)
	require.NotEmpty(e.T, result.AccessToken)
	require.Greater(e.T, result.ExpiresIn, 0)
	return result
}

// CreatePost publishes a post as the bearer of token.
func (e *Env) CreatePost(token, title, description string) PostPayload {
	e.T.Helper()

	w := e.Request(http.MethodPost, "/posts/create", map[string]string{
		"title":       title,
		"description": description,
	}, token)
	require.Equal(e.T, http.StatusCreated, w.Code, w.Body.String())

	var post PostPayload
	DecodeInto(e.T, DecodeResponse(e.T, w).Data, &post)
	return post
}

// ListPosts fetches the listing for the raw query string and requires a 200.
func (e *Env) ListPosts(query string) ListPayload {
	e.T.Helper()

	path := "/posts/list"
	if query != "" {
		path += "?" + query
	}
	w := e.Request(http.MethodGet, path, nil, "")
	require.Equal(e.T, http.StatusOK, w.Code, w.Body.String())

	var list ListPayload
	DecodeInto(e.T, DecodeResponse(e.T, w).Data, &list)
	return list
}

// APIResponse represents the canonical API envelope returned by handlers.
type APIResponse struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data"`
	Error   *response.ErrorInfo `json:"error"`
}

// DecodeResponse parses the standard API response object from a recorder.
func DecodeResponse(t *testing.T, w *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

// DecodeInto unmarshals the data payload into the provided destination.
func DecodeInto[T any](t *testing.T, raw json.RawMessage, dest *T) {
	t.Helper()
	if dest == nil {
		t.Fatal("destination must not be nil")
	}
	require.NoError(t, json.Unmarshal(raw, dest))
}

// Request executes an HTTP request against the test router, applying JSON encoding and auth headers automatically.
func (e *Env) Request(method, path string, body any, token string) *httptest.ResponseRecorder {
	e.T.Helper()

	var buf *bytes.Buffer
	switch v := body.(type) {
	case nil:
		buf = bytes.NewBuffer(nil)
	case string:
		buf = bytes.NewBufferString(v)
	default:
		data, err := json.Marshal(body)
		require.NoError(e.T, err)
		buf = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, path, buf)
	require.NoError(e.T, err)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)
	return w
}
