package handlers

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/anonto42/prehome/backend/pkg/storage"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// MaxImageSize bounds a single uploaded image
const MaxImageSize = 10 << 20

var imageExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".gif":  "image/gif",
}

// UploadHandler stores property images
type UploadHandler struct {
	storage storage.Storage
}

// NewUploadHandler creates a new UploadHandler
func NewUploadHandler(store storage.Storage) *UploadHandler {
	return &UploadHandler{storage: store}
}

// RegisterAdminUploadRoutes registers the image upload route
func (h *UploadHandler) RegisterAdminUploadRoutes(g *echo.Group) {
	g.POST("/upload-image", h.UploadImage)
}

// UploadImage accepts a multipart "image" field and stores it under a random name
func (h *UploadHandler) UploadImage(c echo.Context) error {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "No image uploaded")
	}
	if fileHeader.Size > MaxImageSize {
		return echo.NewHTTPError(http.StatusBadRequest, "Image is too large")
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	contentType, ok := imageExtensions[ext]
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "Only jpg, png, webp and gif images are allowed")
	}

	src, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Failed to read image")
	}
	defer src.Close()

	filename := uuid.NewString() + ext
	url, err := h.storage.Save(c.Request().Context(), filename, src, contentType)
	if err != nil {
		c.Logger().Errorf("store image %s: %v", filename, err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to upload image")
	}

	return c.JSON(http.StatusCreated, echo.Map{"imageUrl": url, "filename": filename})
}
