package handlers

import (
	"errors"
	"net/http"

	"github.com/anonto42/prehome/backend/internal/middleware"
	"github.com/anonto42/prehome/backend/internal/models"
	"github.com/anonto42/prehome/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// getUserIDFromContext returns the authenticated user's id, or "" when the
// request carries no claims.
func getUserIDFromContext(c echo.Context) string {
	claims, ok := c.Get(middleware.ClaimsKey).(*models.JwtCustomClaims)
	if !ok {
		return ""
	}
	return claims.UserID
}

// requireUserID is getUserIDFromContext for routes that cannot run anonymously
func requireUserID(c echo.Context) (string, error) {
	userID := getUserIDFromContext(c)
	if userID == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	return userID, nil
}

// bindAndValidate binds the request body into req, normalizes it if it knows how,
// and runs the echo validator
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if n, ok := req.(interface{ Normalize() }); ok {
		n.Normalize()
	}
	if err := c.Validate(req); err != nil {
		return err
	}
	return nil
}

// repositoryError maps repository sentinels to HTTP errors. Anything unexpected
// is logged and reported as a generic 500.
func repositoryError(c echo.Context, err error, notFoundMessage string) error {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, notFoundMessage)
	case errors.Is(err, repositories.ErrInvalidID):
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid ID format")
	case errors.Is(err, repositories.ErrDuplicate):
		return echo.NewHTTPError(http.StatusConflict, "Record already exists")
	default:
		c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Server error")
	}
}
