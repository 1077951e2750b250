package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers sign-up, login and account routes.
// Role changes and deactivation go through /users, which only admins reach;
// everyone registers as a student.
func RegisterRoutes(g *gin.RouterGroup, h *UserHandler, authMiddleware, adminMiddleware gin.HandlerFunc) {
	authGroup := g.Group("/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
	}

	g.GET("/me", authMiddleware, h.Me)

	accounts := g.Group("/users", authMiddleware, adminMiddleware)
	{
		accounts.GET("", h.List)
		accounts.GET("/:id", h.Get)
		accounts.PATCH("/:id", h.Update)
	}
}
