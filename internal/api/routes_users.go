package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/postboard/internal/handlers"
)

func registerUserRoutes(engine *gin.Engine, handler *handlers.UserHandler) {
	users := engine.Group("/users")
	users.POST("/create", handler.Create)
}
