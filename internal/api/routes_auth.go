package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/postboard/internal/handlers"
)

type authRouteDeps struct {
	Handler     *handlers.AuthHandler
	RequireAuth gin.HandlerFunc
	LoginLimit  gin.HandlerFunc
}

func registerAuthRoutes(engine *gin.Engine, deps authRouteDeps) {
	auth := engine.Group("/auth")
	{
		auth.POST("/login", deps.LoginLimit, deps.Handler.Login)
		auth.GET("/profile", deps.RequireAuth, deps.Handler.Profile)
	}
}
