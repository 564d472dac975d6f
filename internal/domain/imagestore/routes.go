package imagestore

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the public image reader. upload must already be
// restricted to catalog managers.
func RegisterRoutes(public, upload *gin.RouterGroup, h *Handler) {
	public.GET("/images/*ref", h.Serve)
	upload.POST("/images", h.Upload)
}
