package handlers_test

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/postboard/internal/handlers/testutil"
	"github.com/charlesng35/postboard/internal/models"
)

func TestAuthHandler_LoginAndProfile(t *testing.T) {
	env := testutil.NewEnv(t)
	user := env.CreateUser("writer@example.com", "secret1")

	login := env.Login("writer@example.com", "secret1")
	require.Equal(t, "Bearer", login.TokenType)
	require.Equal(t, int(time.Hour/time.Second), login.ExpiresIn)

	claims, err := env.JWT.ValidateAccessToken(login.AccessToken)
	require.NoError(t, err)
	subject, err := claims.UserID()
	require.NoError(t, err)
	require.Equal(t, user.ID, subject)

	profile := env.Request(http.MethodGet, "/auth/profile", nil, login.AccessToken)
	require.Equal(t, http.StatusOK, profile.Code, profile.Body.String())
	require.NotContains(t, profile.Body.String(), "password")

	var me testutil.UserPayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, profile).Data, &me)
	require.Equal(t, user.ID, me.ID)
	require.Equal(t, "writer@example.com", me.Email)
}

func TestAuthHandler_LoginNormalisesEmail(t *testing.T) {
	env := testutil.NewEnv(t)
	env.CreateUser("mixed@example.com", "secret1")

	login := env.Login("  MIXED@Example.com ", "secret1")
	require.NotEmpty(t, login.AccessToken)
}

func TestAuthHandler_LoginRejectsBadCredentials(t *testing.T) {
	env := testutil.NewEnv(t)
	env.CreateUser("writer@example.com", "secret1")

	cases := map[string]map[string]string{
		"wrong password": {"email": "writer@example.com", "password": "wrong-password"},
		"unknown email":  {"email": "nobody@example.com", "password": "secret1"},
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			w := env.Request(http.MethodPost, "/auth/login", payload, "")
			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

			resp := testutil.DecodeResponse(t, w)
			require.False(t, resp.Success)
			require.Equal(t, "INVALID_CREDENTIALS", resp.Error.Code)
		})
	}
}

func TestAuthHandler_LoginValidatesPayload(t *testing.T) {
	env := testutil.NewEnv(t)

	w := env.Request(http.MethodPost, "/auth/login", map[string]string{"email": "writer@example.com"}, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := testutil.DecodeResponse(t, w)
	require.Equal(t, "BAD_REQUEST", resp.Error.Code)
	require.Contains(t, resp.Error.Message, "password is required")

	w = env.Request(http.MethodPost, "/auth/login", "{not json", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "invalid JSON payload", testutil.DecodeResponse(t, w).Error.Message)
}

func TestAuthHandler_ProfileRequiresToken(t *testing.T) {
	env := testutil.NewEnv(t)

	w := env.Request(http.MethodGet, "/auth/profile", nil, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.Request(http.MethodGet, "/auth/profile", nil, "not-a-jwt")
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "UNAUTHORIZED", testutil.DecodeResponse(t, w).Error.Code)
}

func TestAuthHandler_ProfileForDeletedUser(t *testing.T) {
	env := testutil.NewEnv(t)
	user := env.CreateUser("gone@example.com", "secret1")
	login := env.Login("gone@example.com", "secret1")

	require.NoError(t, env.DB.Delete(&models.User{}, user.ID).Error)

	w := env.Request(http.MethodGet, "/auth/profile", nil, login.AccessToken)
	require.Equal(t, http.StatusNotFound, w.Code, w.Body.String())
	require.Equal(t, "USER_NOT_FOUND", testutil.DecodeResponse(t, w).Error.Code)
}

func TestAuthHandler_LoginRateLimited(t *testing.T) {
	env := testutil.NewEnv(t, testutil.WithLoginRateLimit(2, time.Minute))
	env.CreateUser("writer@example.com", "secret1")

	payload := map[string]string{"email": "writer@example.com", "password": "wrong-password"}
	for i := 0; i < 2; i++ {
		w := env.Request(http.MethodPost, "/auth/login", payload, "")
		require.Equal(t, http.StatusBadRequest, w.Code)
		require.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	}

	w := env.Request(http.MethodPost, "/auth/login", payload, "")
	require.Equal(t, http.StatusTooManyRequests, w.Code, w.Body.String())
	require.NotEmpty(t, w.Header().Get("Retry-After"))
	require.True(t, strings.Contains(w.Body.String(), "RATE_LIMIT_EXCEEDED"))

	// Other routes are not throttled.
	list := env.Request(http.MethodGet, "/posts/list", nil, "")
	require.Equal(t, http.StatusOK, list.Code)
}
