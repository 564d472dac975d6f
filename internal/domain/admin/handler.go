package admin

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"equipmarket/internal/domain"
	"equipmarket/internal/middleware"
	"equipmarket/internal/pkg/response"
)

const wipeConfirmation = "WIPE"

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type WipeRequest struct {
	Confirm string `json:"confirm"`
}

// Wipe очищает каталог и историю.
// @Summary Wipe catalog and history
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body WipeRequest true "must be {\"confirm\":\"WIPE\"}"
// @Success 200 {object} map[string]interface{}
// @Success 207 {object} map[string]interface{}
// @Failure 400,401,403,500 {object} map[string]interface{}
// @Router /admin/wipe [post]
func (h *Handler) Wipe(c *gin.Context) {
	var req WipeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Confirm != wipeConfirmation {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR",
			`confirm must be "WIPE"`, gin.H{"field": "confirm"})
		return
	}

	res, err := h.service.Wipe(c.Request.Context(), middleware.SessionFrom(c))
	var pf *domain.PartialFailureError
	switch {
	case err == nil:
		response.Success(c, http.StatusOK, res)
	case errors.As(err, &pf):
		_ = c.Error(err)
		c.JSON(http.StatusMultiStatus, gin.H{
			"success": false,
			"data":    res,
			"error": gin.H{
				"code":    "PARTIAL_FAILURE",
				"message": pf.Error(),
				"details": gin.H{"completed": pf.Completed, "failed": pf.Failed},
			},
		})
	default:
		response.FromError(c, err)
	}
}
