package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	iauth "github.com/charlesng35/postboard/internal/auth"
	"github.com/charlesng35/postboard/pkg/response"
)

// jwtVerifier adapts a bare JWTService to TokenVerifier for tests.
type jwtVerifier struct{ svc *iauth.JWTService }

func (v jwtVerifier) VerifyToken(token string) (*iauth.Claims, error) {
	return v.svc.ValidateAccessToken(token)
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	jwtSvc, err := iauth.NewJWTService(iauth.JWTConfig{
		Secret:         "secret",
		Issuer:         "test-suite",
		AccessTokenTTL: time.Minute,
	})
	require.NoError(t, err)

	token, err := jwtSvc.GenerateAccessToken(iauth.AccessTokenInput{UserID: 123})
	require.NoError(t, err)

	r := gin.New()
	r.GET("/secure", Auth(jwtVerifier{jwtSvc}), func(c *gin.Context) {
		id, ok := UserID(c)
		c.JSON(http.StatusOK, gin.H{"user_id": id, "ok": ok})
	})

	// Missing Authorization header -> 401
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))

	var failure response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &failure))
	require.False(t, failure.Success)
	require.Equal(t, "UNAUTHORIZED", failure.Error.Code)

	// Tampered token -> 401
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("Authorization", "Bearer "+token+"x")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// Valid token -> downstream handler executes
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("Authorization", "bearer "+token)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var payload struct {
		UserID uint `json:"user_id"`
		OK     bool `json:"ok"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	require.EqualValues(t, 123, payload.UserID)
	require.True(t, payload.OK)
}

func TestUserIDWithoutAuth(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	_, ok := UserID(c)
	require.False(t, ok)
}
