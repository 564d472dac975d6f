package imagestore

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"equipmarket/internal/pkg/response"
)

type Handler struct {
	store *Store
}

func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

// Upload godoc
// @Summary Загрузить изображение
// @Description Stores a png, jpeg, bmp, gif or webp picture and returns its ref.
// @Tags Images
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Image"
// @Success 201 {object} map[string]interface{}
// @Failure 400,401,403 {object} map[string]interface{}
// @Router /images [post]
func (h *Handler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "no file provided")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "cannot read file")
		return
	}
	defer file.Close()

	// One byte over the limit is enough for Store to reject it.
	data, err := io.ReadAll(io.LimitReader(file, h.store.MaxBytes()+1))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "cannot read file")
		return
	}

	ref, err := h.store.Store(c.Request.Context(), data, filepath.Ext(fileHeader.Filename))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"ref": ref,
		"url": h.store.PreviewURL(ref),
	})
}

// Serve отдаёт сохранённое изображение.
func (h *Handler) Serve(c *gin.Context) {
	ref := refPrefix + strings.TrimPrefix(c.Param("ref"), "/")
	p, err := h.store.Open(ref)
	if err != nil {
		response.FromError(c, err)
		return
	}
	c.File(p)
}
