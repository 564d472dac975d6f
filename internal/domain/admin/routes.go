package admin

import "github.com/gin-gonic/gin"

// RegisterRoutes expects a group already restricted to admins.
func RegisterRoutes(admin *gin.RouterGroup, h *Handler) {
	admin.POST("/wipe", h.Wipe)
}
