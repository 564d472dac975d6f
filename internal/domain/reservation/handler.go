package reservation

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"equipmarket/internal/domain/history"
	"equipmarket/internal/middleware"
	"equipmarket/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type ReserveRequest struct {
	Quantity int    `json:"quantity"`
	Buyer    string `json:"buyer"`
}

type ReserveResponse struct {
	EquipmentID int64                   `json:"equipment_id"`
	Reserved    int                     `json:"reserved"`
	Remaining   int                     `json:"remaining"`
	Depleted    bool                    `json:"depleted"`
	Entries     []history.EntryResponse `json:"entries"`
}

// Reserve godoc
// @Summary Забронировать оборудование
// @Description Decrements stock and records the reservation. Not idempotent.
// @Tags Reservations
// @Accept json
// @Produce json
// @Param id path integer true "Equipment ID"
// @Success 201 {object} map[string]interface{}
// @Failure 400,409,503 {object} map[string]interface{}
// @Router /equipment/{id}/reservations [post]
func (h *Handler) Reserve(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid equipment ID")
		return
	}

	var req ReserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	res, err := h.service.Reserve(c.Request.Context(), middleware.SessionFrom(c), Request{
		EquipmentID: id,
		Quantity:    req.Quantity,
		Buyer:       req.Buyer,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, ReserveResponse{
		EquipmentID: res.EquipmentID,
		Reserved:    res.Reserved,
		Remaining:   res.Remaining,
		Depleted:    res.Depleted,
		Entries:     history.ToResponses(res.Entries),
	})
}
