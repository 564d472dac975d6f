package catalog

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"equipmarket/internal/middleware"
	"equipmarket/internal/pkg/response"
	"equipmarket/internal/query"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type listQuery struct {
	Name         string `form:"name"`
	Manufacturer string `form:"manufacturer"`
	MinPrice     string `form:"min_price"`
	MaxPrice     string `form:"max_price"`
}

// List godoc
// @Summary Список оборудования
// @Description Buyers only see items in stock; sellers and admins see everything.
// @Tags Catalog
// @Produce json
// @Param name query string false "Name substring"
// @Param manufacturer query string false "Manufacturer substring"
// @Param min_price query int false "Minimum price"
// @Param max_price query int false "Maximum price"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /equipment [get]
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

	items, err := h.service.ListFor(c.Request.Context(), middleware.SessionFrom(c), query.EquipmentFilter{
		Name:         q.Name,
		Manufacturer: q.Manufacturer,
		MinPrice:     minPrice,
		MaxPrice:     maxPrice,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}

	out := make([]EquipmentResponse, 0, len(items))
	for _, it := range items {
		out = append(out, h.service.Respond(it))
	}
	response.Success(c, http.StatusOK, gin.H{"items": out, "count": len(out)})
}

// Get godoc
// @Summary Получить оборудование по ID
// @Tags Catalog
// @Produce json
// @Param id path integer true "Equipment ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400,404 {object} map[string]interface{}
// @Router /equipment/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	id, ok := ParseID(c)
	if !ok {
		return
	}

	item, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, h.service.Respond(item))
}

// Create godoc
// @Summary Добавить оборудование
// @Tags Catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 201 {object} map[string]interface{}
// @Failure 400,401,403 {object} map[string]interface{}
// @Router /equipment [post]
func (h *Handler) Create(c *gin.Context) {
	var req EquipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	item, err := h.service.Create(c.Request.Context(), middleware.SessionFrom(c), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, h.service.Respond(item))
}

// Update godoc
// @Summary Изменить оборудование
// @Tags Catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path integer true "Equipment ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400,401,403,404 {object} map[string]interface{}
// @Router /equipment/{id} [put]
func (h *Handler) Update(c *gin.Context) {
	id, ok := ParseID(c)
	if !ok {
		return
	}

	var req EquipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	item, err := h.service.Update(c.Request.Context(), middleware.SessionFrom(c), id, req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, h.service.Respond(item))
}

// Delete godoc
// @Summary Удалить оборудование
// @Description Idempotent: deleting a missing item also returns 200.
// @Tags Catalog
// @Produce json
// @Security BearerAuth
// @Param id path integer true "Equipment ID"
// @Success 200 {object} map[string]interface{}
// @Router /equipment/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	id, ok := ParseID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), middleware.SessionFrom(c), id); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"id": id, "deleted": true})
}

// ParseID reads the :id path parameter and writes a 400 when it is invalid.
func ParseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid equipment ID")
		return 0, false
	}
	return id, true
}
