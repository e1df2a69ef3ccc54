package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	iauth "github.com/charlesng35/postboard/internal/auth"
	"github.com/charlesng35/postboard/internal/middleware"
	"github.com/charlesng35/postboard/internal/services"
	"github.com/charlesng35/postboard/pkg/errors"
	"github.com/charlesng35/postboard/pkg/response"
)

// AuthHandler serves sign-in and the authenticated user's profile.
type AuthHandler struct {
	auth  *iauth.Service
	users *services.UserService
}

func NewAuthHandler(auth *iauth.Service, users *services.UserService) *AuthHandler {
	return &AuthHandler{auth: auth, users: users}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	token, err := h.auth.SignIn(requestContext(c), req.Email, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}
	if token == nil {
		response.Error(c, errors.ErrInvalidCredentials)
		return
	}

	response.Success(c, http.StatusOK, token)
}

// GET /auth/profile
func (h *AuthHandler) Profile(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	user, err := h.users.FindByID(requestContext(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if user == nil {
		response.Error(c, services.ErrUserNotFound)
		return
	}

	response.Success(c, http.StatusOK, user)
}
