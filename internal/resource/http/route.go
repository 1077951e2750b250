package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers resource-related routes.
// Reads need a valid token; writes additionally need staff or admin.
func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware, staffMiddleware gin.HandlerFunc) {
	group := g.Group("/resources")
	group.Use(authMiddleware)
	{
		group.GET("", h.List)
		group.GET("/:id", h.Get)
		group.POST("", staffMiddleware, h.Create)
		group.PATCH("/:id", staffMiddleware, h.Update)
		group.DELETE("/:id", staffMiddleware, h.Delete)
	}
}
