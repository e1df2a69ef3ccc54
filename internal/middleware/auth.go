package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	iauth "github.com/charlesng35/postboard/internal/auth"
	"github.com/charlesng35/postboard/pkg/errors"
	"github.com/charlesng35/postboard/pkg/response"
)

const (
	CtxClaimsKey = "authClaims"
	CtxUserIDKey = "userID"
)

// TokenVerifier validates bearer tokens.
type TokenVerifier interface {
	VerifyToken(token string) (*iauth.Claims, error)
}

// Auth enforces bearer token authentication.
func Auth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if len(authz) < 8 || !strings.EqualFold(authz[:7], "Bearer ") {
			unauthorized(c)
			return
		}

		claims, err := verifier.VerifyToken(strings.TrimSpace(authz[7:]))
		if err != nil {
			unauthorized(c)
			return
		}
		userID, err := claims.UserID()
		if err != nil {
			unauthorized(c)
			return
		}

		c.Set(CtxClaimsKey, claims)
		c.Set(CtxUserIDKey, userID)

		c.Next()
	}
}

// UserID returns the authenticated user id placed on the context by Auth.
func UserID(c *gin.Context) (uint, bool) {
	value, ok := c.Get(CtxUserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := value.(uint)
	return id, ok && id != 0
}

func unauthorized(c *gin.Context) {
	c.Header("WWW-Authenticate", "Bearer")
	response.Error(c, errors.ErrUnauthorized)
	c.Abort()
}
