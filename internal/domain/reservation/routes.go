package reservation

import "github.com/gin-gonic/gin"

// RegisterRoutes registers the public reservation endpoint. Anonymous callers
// reserve as guest buyers.
func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	r.POST("/equipment/:id/reservations", h.Reserve)
}
