package handlers

import (
	"net/http"

	"github.com/anonto42/prehome/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// UserHandler handles the dashboard's user management requests
type UserHandler struct {
	userRepository repositories.UserRepository
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userRepo repositories.UserRepository) *UserHandler {
	return &UserHandler{userRepository: userRepo}
}

// RegisterAdminUserRoutes registers user management routes
func (h *UserHandler) RegisterAdminUserRoutes(g *echo.Group) {
	g.GET("/users", h.ListUsers)
	g.DELETE("/user/:id", h.DeleteUser)
	g.PATCH("/user/block/:id", h.ToggleBlock)
}

// ListUsers returns every account, newest first
func (h *UserHandler) ListUsers(c echo.Context) error {
	users, err := h.userRepository.GetUsers(c.Request().Context())
	if err != nil {
		return repositoryError(c, err, "")
	}
	return c.JSON(http.StatusOK, users)
}

// DeleteUser removes an account
func (h *UserHandler) DeleteUser(c echo.Context) error {
	if err := h.userRepository.DeleteUser(c.Request().Context(), c.Param("id")); err != nil {
		return repositoryError(c, err, "User not found")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "User deleted successfully"})
}

// ToggleBlock flips an account's blocked flag
func (h *UserHandler) ToggleBlock(c echo.Context) error {
	blocked, err := h.userRepository.ToggleBlocked(c.Request().Context(), c.Param("id"))
	if err != nil {
		return repositoryError(c, err, "User not found")
	}

	message := "User unblocked successfully"
	if blocked {
		message = "User blocked successfully"
	}
	return c.JSON(http.StatusOK, echo.Map{"message": message, "isBlocked": blocked})
}
