package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers reservation routes.
// Every route needs a valid token. roleMiddleware must refresh the caller's
// role from storage, since submission and visibility branch on it. Approval,
// rejection and exam overrides additionally need staff or admin.
func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware, roleMiddleware, staffMiddleware gin.HandlerFunc) {
	group := g.Group("/reservations")
	group.Use(authMiddleware, roleMiddleware)
	{
		group.POST("", h.Submit)
		group.GET("", h.List)
		group.POST("/check", h.Check)
		group.GET("/clashes", h.Clashes)
		group.GET("/:id", h.Get)
		group.POST("/:id/approve", staffMiddleware, h.Approve)
		group.POST("/:id/reject", staffMiddleware, h.Reject)
		group.POST("/:id/cancel", h.Cancel)
	}

	g.POST("/exam-overrides", authMiddleware, staffMiddleware, h.ScheduleExamOverride)
}
