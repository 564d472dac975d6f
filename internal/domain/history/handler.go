package history

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"equipmarket/internal/pkg/response"
	"equipmarket/internal/query"
)

type Handler struct {
	ledger Ledger
}

func NewHandler(ledger Ledger) *Handler {
	return &Handler{ledger: ledger}
}

type listQuery struct {
	Name         string `form:"name"`
	Manufacturer string `form:"manufacturer"`
	MinPrice     string `form:"min_price"`
	MaxPrice     string `form:"max_price"`
	Action       string `form:"action"`
	Limit        int    `form:"limit"`
	Offset       int    `form:"offset"`
}

type EntryResponse struct {
	Entry
	ActionLabel string `json:"action_label"`
}

func ToResponse(e Entry) EntryResponse {
	return EntryResponse{Entry: e, ActionLabel: e.Action.Label()}
}

func ToResponses(entries []Entry) []EntryResponse {
	out := make([]EntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, ToResponse(e))
	}
	return out
}

// List godoc
// @Summary List history entries, newest first
// @Tags History
// @Produce json
// @Security BearerAuth
// @Param name query string false "Equipment name substring"
// @Param manufacturer query string false "Manufacturer substring"
// @Param min_price query int false "Minimum price"
// @Param max_price query int false "Maximum price"
// @Param action query string false "Added, Edited, Removed, Reserved or Depleted"
// @Success 200 {object} map[string]interface{}
// @Failure 400,401,403 {object} map[string]interface{}
// @Router /history [get]
func (h *Handler) List(c *gin.Context) {
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid query parameters")
		return
	}

	minPrice, maxPrice, err := query.PriceBounds(q.MinPrice, q.MaxPrice)
	if err != nil {
		response.FromError(c, err)
		return
	}

	entries, err := h.ledger.List(c.Request.Context(), query.HistoryFilter{
		Name:         q.Name,
		Manufacturer: q.Manufacturer,
		MinPrice:     minPrice,
		MaxPrice:     maxPrice,
		Action:       q.Action,
		Limit:        q.Limit,
		Offset:       q.Offset,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"items": ToResponses(entries), "count": len(entries)})
}

// Actions returns the enum values with their display labels.
func (h *Handler) Actions(c *gin.Context) {
	items := make([]gin.H, 0, len(Actions()))
	for _, a := range Actions() {
		items = append(items, gin.H{"action": a, "label": a.Label()})
	}
	response.Success(c, http.StatusOK, items)
}

// ForEquipment lists the ledger of a single item, including removed ones.
func (h *Handler) ForEquipment(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid equipment ID")
		return
	}

	entries, err := h.ledger.ForEquipment(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"items": ToResponses(entries), "count": len(entries)})
}
