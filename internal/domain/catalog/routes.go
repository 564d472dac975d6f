package catalog

import (
	"github.com/gin-gonic/gin"

	"equipmarket/internal/middleware"
)

// RegisterRoutes expects a group that already ran OptionalAuth, so every
// request carries a session. Writes are limited to sellers and admins.
func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	eq := r.Group("/equipment")
	{
		eq.GET("", h.List)
		eq.GET("/:id", h.Get)

		managed := eq.Group("", middleware.CatalogManagers())
		managed.POST("", h.Create)
		managed.PUT("/:id", h.Update)
		managed.DELETE("/:id", h.Delete)
	}
}
