package history

import "github.com/gin-gonic/gin"

// RegisterRoutes registers ledger routes. The group must already restrict
// access to sellers and admins.
func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	hist := r.Group("/history")
	{
		hist.GET("", h.List)
		hist.GET("/actions", h.Actions)
		hist.GET("/equipment/:id", h.ForEquipment)
	}
}
