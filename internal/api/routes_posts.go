package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/postboard/internal/handlers"
)

func registerPostRoutes(engine *gin.Engine, handler *handlers.PostHandler, requireAuth gin.HandlerFunc) {
	posts := engine.Group("/posts")
	{
		posts.GET("/list", handler.List)
		posts.POST("/create", requireAuth, handler.Create)
		posts.PUT("/update/:id", requireAuth, handler.Update)
		posts.DELETE("/delete/:id", requireAuth, handler.Delete)
	}
}
