package handlers

import (
	"errors"
	"net/http"

	"github.com/anonto42/prehome/backend/internal/models"
	"github.com/anonto42/prehome/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// FormHandler saves and restores onboarding questionnaire progress
type FormHandler struct {
	formRepository repositories.FormProgressRepository
}

// NewFormHandler creates a new FormHandler
func NewFormHandler(formRepo repositories.FormProgressRepository) *FormHandler {
	return &FormHandler{formRepository: formRepo}
}

// RegisterFormRoutes registers form progress routes
func (h *FormHandler) RegisterFormRoutes(g *echo.Group) {
	g.POST("/form/save-progress", h.SaveProgress)
	g.GET("/form/load-progress", h.LoadProgress)
}

// SaveProgress replaces the caller's stored responses
func (h *FormHandler) SaveProgress(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}

	var req models.SaveFormProgressRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	progress, err := h.formRepository.Save(c.Request().Context(), userID, req.Responses)
	if err != nil {
		return repositoryError(c, err, "")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Progress saved", "progress": progress})
}

// LoadProgress returns the caller's responses; a caller who never saved gets an empty list
func (h *FormHandler) LoadProgress(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}

	progress, err := h.formRepository.Load(c.Request().Context(), userID)
	if errors.Is(err, repositories.ErrNotFound) {
		progress = &models.FormProgress{UserID: userID, Responses: []models.FormResponse{}}
	} else if err != nil {
		return repositoryError(c, err, "")
	}
	return c.JSON(http.StatusOK, progress)
}
