package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/charlesng35/postboard/internal/models"
	"github.com/charlesng35/postboard/pkg/crypto"
	apperrors "github.com/charlesng35/postboard/pkg/errors"
	"github.com/charlesng35/postboard/pkg/logger"
	"github.com/charlesng35/postboard/pkg/metrics"
)

// UserFinder resolves credential records by email.
type UserFinder interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// AccessToken is returned by a successful sign-in.
type AccessToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Service authenticates credentials and verifies bearer tokens.
type Service struct {
	users UserFinder
	jwt   *JWTService
}

// NewService constructs the authentication service.
func NewService(users UserFinder, jwtService *JWTService) (*Service, error) {
	if users == nil {
		return nil, errors.New("auth service: user finder is required")
	}
	if jwtService == nil {
		return nil, errors.New("auth service: jwt service is required")
	}
	return &Service{users: users, jwt: jwtService}, nil
}

// SignIn checks the credentials and issues an access token. Unknown emails and
// wrong passwords both return (nil, nil); only infrastructure failures are
// errors.
func (s *Service) SignIn(ctx context.Context, email, password string) (*AccessToken, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, nil
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("auth service: find user: %w", err)
	}
	if user == nil {
		crypto.BurnPasswordCheck(password)
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, nil
	}

	if !crypto.VerifyPassword(user.Password, password) {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, nil
	}

	token, err := s.jwt.GenerateAccessToken(AccessTokenInput{UserID: user.ID, Email: user.Email})
	if err != nil {
		return nil, fmt.Errorf("auth service: issue token: %w", err)
	}

	metrics.AuthAttempts.WithLabelValues("success").Inc()
	return &AccessToken{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.jwt.TTL() / time.Second),
	}, nil
}

// VerifyToken validates a bearer token. Any failure is reported as
// apperrors.ErrUnauthorized.
func (s *Service) VerifyToken(token string) (*Claims, error) {
	claims, err := s.jwt.ValidateAccessToken(strings.TrimSpace(token))
	if err != nil {
		logger.WithModule("auth").Debug("token rejected", zap.Error(err))
		return nil, apperrors.ErrUnauthorized
	}
	return claims, nil
}
