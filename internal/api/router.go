package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/charlesng35/postboard/internal/app"
	iauth "github.com/charlesng35/postboard/internal/auth"
	"github.com/charlesng35/postboard/internal/cache"
	"github.com/charlesng35/postboard/internal/handlers"
	"github.com/charlesng35/postboard/internal/middleware"
	"github.com/charlesng35/postboard/internal/services"
)

// Deps lists the collaborators the HTTP surface is built from.
type Deps struct {
	DB     *gorm.DB
	Auth   *iauth.Service
	Users  *services.UserService
	Posts  *services.PostService
	Config *app.Config
	// Cache is the listing cache; when set it is probed by /health.
	Cache cache.Store
	// RateStore backs login throttling; nil disables it.
	RateStore middleware.RateStore
}

func (d Deps) validate() error {
	switch {
	case d.DB == nil:
		return fmt.Errorf("database handle must be provided")
	case d.Auth == nil:
		return fmt.Errorf("auth service must be provided")
	case d.Users == nil:
		return fmt.Errorf("user service must be provided")
	case d.Posts == nil:
		return fmt.Errorf("post service must be provided")
	case d.Config == nil:
		return fmt.Errorf("config must be provided")
	}
	return nil
}

// NewRouter builds the Gin engine, wires middleware and registers routes.
func NewRouter(deps Deps) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS())

	requireAuth := middleware.Auth(deps.Auth)

	registerHealthRoutes(r, deps)

	registerAuthRoutes(r, authRouteDeps{
		Handler:     handlers.NewAuthHandler(deps.Auth, deps.Users),
		RequireAuth: requireAuth,
		LoginLimit:  middleware.RateLimit(deps.RateStore, deps.Config.RateLimit.LoginRequests, deps.Config.RateLimit.Window),
	})
	registerUserRoutes(r, handlers.NewUserHandler(deps.Users))
	registerPostRoutes(r, handlers.NewPostHandler(deps.Posts), requireAuth)

	// NotFound fallback
	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
