package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"equipmarket/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login выдаёт токен продавцу или администратору.
// @Summary		Login
// @Tags		Auth
// @Accept		json
// @Produce		json
// @Param		body	body	LoginRequest	true	"credentials"
// @Success		200	{object}		map[string]interface{}
// @Failure		401	{object}		map[string]interface{}
// @Router		/auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "username and password are required")
		return
	}

	result, err := h.service.Login(c.Request.Context(), req.Username, req.Password)
	switch {
	case err == nil:
		response.Success(c, http.StatusOK, result)
	case errors.Is(err, ErrUserNotFound):
		response.Error(c, http.StatusUnauthorized, "USER_NOT_FOUND", "User not found")
	case errors.Is(err, ErrBadCredential):
		response.Error(c, http.StatusUnauthorized, "BAD_CREDENTIAL", "Wrong password")
	default:
		response.FromError(c, err)
	}
}
