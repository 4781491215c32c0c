package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware, adminMiddleware gin.HandlerFunc) {
	group := g.Group("/reservations")
	group.Use(authMiddleware)
	{
		group.GET("", h.List)
		group.GET("/export", h.Export)
		group.GET("/:id", h.Get)
		group.POST("", h.Create)
		group.PATCH("/:id", h.Edit)
		group.POST("/:id/cancel", h.Cancel)

		// === Admin Routes ===
		group.POST("/:id/approve", adminMiddleware, h.Approve)
		group.POST("/:id/reject", adminMiddleware, h.Reject)
	}
}
