package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/anonto42/prehome/backend/internal/models"
	"github.com/anonto42/prehome/backend/internal/repositories"
	"github.com/anonto42/prehome/backend/pkg/places"
	"github.com/labstack/echo/v4"
)

// NearbyFinder looks up points of interest around an address
type NearbyFinder interface {
	Nearby(ctx context.Context, q places.Query) (*places.Result, error)
}

// PropertyHandler handles property listing, admin CRUD and nearby-places lookups
type PropertyHandler struct {
	propertyRepository repositories.PropertyRepository
	places             NearbyFinder
}

// NewPropertyHandler creates a new PropertyHandler. finder may be nil, in which
// case nearby lookups answer 503.
func NewPropertyHandler(propertyRepo repositories.PropertyRepository, finder NearbyFinder) *PropertyHandler {
	return &PropertyHandler{propertyRepository: propertyRepo, places: finder}
}

// RegisterPropertyRoutes registers the public property routes
func (h *PropertyHandler) RegisterPropertyRoutes(g *echo.Group) {
	g.GET("", h.ListProperties)
	g.POST("/nearby-places", h.NearbyPlaces)
	g.GET("/:id", h.GetProperty)
	g.GET("/:id/nearby", h.PropertyNearby)
}

// RegisterAdminPropertyRoutes registers property writes for the dashboard
func (h *PropertyHandler) RegisterAdminPropertyRoutes(g *echo.Group) {
	g.POST("/property", h.CreateProperty)
	g.PUT("/property/:id", h.UpdateProperty)
	g.DELETE("/property/:id", h.DeleteProperty)
}

// ListProperties returns every property, optionally filtered by title, tag or type
func (h *PropertyHandler) ListProperties(c echo.Context) error {
	filter := models.PropertyFilter{
		Title: strings.TrimSpace(c.QueryParam("title")),
		Tag:   strings.TrimSpace(c.QueryParam("tag")),
		Type:  strings.TrimSpace(c.QueryParam("type")),
	}
	properties, err := h.propertyRepository.ListProperties(c.Request().Context(), filter)
	if err != nil {
		return repositoryError(c, err, "")
	}
	return c.JSON(http.StatusOK, properties)
}

// GetProperty returns a single property
func (h *PropertyHandler) GetProperty(c echo.Context) error {
	property, err := h.propertyRepository.GetPropertyByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return repositoryError(c, err, "Property not found")
	}
	return c.JSON(http.StatusOK, property)
}

// CreateProperty stores a new property
func (h *PropertyHandler) CreateProperty(c echo.Context) error {
	property, err := h.bindProperty(c)
	if err != nil {
		return err
	}

	if err := h.propertyRepository.CreateProperty(c.Request().Context(), property); err != nil {
		return repositoryError(c, err, "")
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "Property added successfully", "property": property})
}

// UpdateProperty replaces the editable fields of a property
func (h *PropertyHandler) UpdateProperty(c echo.Context) error {
	property, err := h.bindProperty(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	if err := h.propertyRepository.UpdateProperty(ctx, c.Param("id"), property); err != nil {
		return repositoryError(c, err, "Property not found")
	}

	updated, err := h.propertyRepository.GetPropertyByID(ctx, c.Param("id"))
	if err != nil {
		return repositoryError(c, err, "Property not found")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Property updated successfully", "property": updated})
}

// DeleteProperty removes a property
func (h *PropertyHandler) DeleteProperty(c echo.Context) error {
	if err := h.propertyRepository.DeleteProperty(c.Request().Context(), c.Param("id")); err != nil {
		return repositoryError(c, err, "Property not found")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Property deleted successfully"})
}

func (h *PropertyHandler) bindProperty(c echo.Context) (*models.Property, error) {
	var req models.PropertyRequest
	if err := bindAndValidate(c, &req); err != nil {
		return nil, err
	}
	property, err := req.ToProperty()
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return property, nil
}

// NearbyPlacesRequest is the body of POST /properties/nearby-places.
// Either type or types names the categories.
type NearbyPlacesRequest struct {
	Location string   `json:"location"`
	Type     string   `json:"type"`
	Types    []string `json:"types"`
	Radius   int      `json:"radius"`
}

func (r NearbyPlacesRequest) categories() []string {
	out := append([]string{}, r.Types...)
	if r.Type != "" {
		out = append(out, splitCategories(r.Type)...)
	}
	return out
}

// NearbyPlaces looks up points of interest around a free-text address
func (h *PropertyHandler) NearbyPlaces(c echo.Context) error {
	var req NearbyPlacesRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	result, err := h.nearby(c, places.Query{Address: req.Location, Categories: req.categories(), Radius: req.Radius})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result.Places)
}

// PropertyNearby looks up points of interest around a stored property.
// Without ?type= the property's own generalInfo.propertyType categories are searched.
func (h *PropertyHandler) PropertyNearby(c echo.Context) error {
	property, err := h.propertyRepository.GetPropertyByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return repositoryError(c, err, "Property not found")
	}

	categories := splitCategories(c.QueryParam("type"))
	if len(categories) == 0 {
		categories = property.GeneralInfo.PropertyType
	}
	if len(categories) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "Place type is required (e.g., hospital)")
	}

	address := property.Location
	if strings.TrimSpace(address) == "" {
		address = property.GeneralInfo.PropertyAddress
	}
	if strings.TrimSpace(address) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Property has no location")
	}

	result, err := h.nearby(c, places.Query{Address: address, Categories: categories, Radius: property.SearchRadius()})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

func (h *PropertyHandler) nearby(c echo.Context, q places.Query) (*places.Result, error) {
	if err := q.Validate(); err != nil {
		return nil, nearbyError(c, q, err)
	}
	if h.places == nil {
		return nil, echo.NewHTTPError(http.StatusServiceUnavailable, "Nearby places lookup is not configured")
	}

	result, err := h.places.Nearby(c.Request().Context(), q)
	if err != nil {
		return nil, nearbyError(c, q, err)
	}
	return result, nil
}

func nearbyError(c echo.Context, q places.Query, err error) error {
	switch {
	case errors.Is(err, places.ErrMissingInput):
		return echo.NewHTTPError(http.StatusBadRequest, "Location, type, and radius are required")
	case errors.Is(err, places.ErrInvalidCategory):
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid type. Valid types: "+strings.Join(places.Categories, ", "))
	case errors.Is(err, places.ErrLocationNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Location not found")
	default:
		c.Logger().Errorf("nearby places for %q: %v", q.Address, err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Error fetching nearby places")
	}
}

func splitCategories(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
