package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers the day view. Any signed-in user may read it.
func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware gin.HandlerFunc) {
	g.GET("/timeline", authMiddleware, h.Day)
}
