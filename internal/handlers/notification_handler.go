package handlers

import (
	"net/http"
	"strconv"

	"github.com/anonto42/prehome/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

const (
	defaultNotificationLimit = 20
	maxNotificationLimit     = 50
)

// NotificationHandler serves the caller's activity notification feed
type NotificationHandler struct {
	notificationRepository repositories.NotificationRepository
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notifRepo repositories.NotificationRepository) *NotificationHandler {
	return &NotificationHandler{notificationRepository: notifRepo}
}

// RegisterNotificationRoutes registers notification routes
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.GET("/notifications", h.GetNotifications)
	g.GET("/notifications/grouped", h.GetGroupedNotifications)
	g.GET("/notifications/unread-count", h.GetUnreadCount)
	g.PUT("/notifications/:id/read", h.MarkAsRead)
	g.PUT("/notifications/read-all", h.MarkAllAsRead)
}

type page struct {
	number, limit int
}

func pageFromQuery(c echo.Context) page {
	p := page{limit: defaultNotificationLimit, number: 1}
	if n, err := strconv.Atoi(c.QueryParam("page")); err == nil && n > 0 {
		p.number = n
	}
	if n, err := strconv.Atoi(c.QueryParam("limit")); err == nil && n > 0 && n <= maxNotificationLimit {
		p.limit = n
	}
	return p
}

func (p page) meta(total int64) echo.Map {
	totalPages := int((total + int64(p.limit) - 1) / int64(p.limit))
	return echo.Map{
		"currentPage":     p.number,
		"totalPages":      totalPages,
		"totalItems":      total,
		"itemsPerPage":    p.limit,
		"hasNextPage":     p.number < totalPages,
		"hasPreviousPage": p.number > 1,
	}
}

// GetNotifications returns one page of the feed, newest first
func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}

	p := pageFromQuery(c)
	notifications, total, err := h.notificationRepository.GetByUserID(userID, p.number, p.limit)
	if err != nil {
		return repositoryError(c, err, "")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{"notifications": notifications},
		"meta":    p.meta(total),
	})
}

// GetGroupedNotifications buckets the feed into today, yesterday, this week and older
func (h *NotificationHandler) GetGroupedNotifications(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}

	groups, err := h.notificationRepository.GetGrouped(userID)
	if err != nil {
		return repositoryError(c, err, "")
	}
	unread, err := h.notificationRepository.GetUnreadCount(userID)
	if err != nil {
		return repositoryError(c, err, "")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"notifications": groups,
			"unreadCount":   unread,
		},
	})
}

func (h *NotificationHandler) GetUnreadCount(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}

	count, err := h.notificationRepository.GetUnreadCount(userID)
	if err != nil {
		return repositoryError(c, err, "")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"count": count}})
}

// MarkAsRead marks one of the caller's notifications as read. Another user's id is a 404.
func (h *NotificationHandler) MarkAsRead(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid notification ID")
	}
	if err := h.notificationRepository.MarkAsRead(uint(id), userID); err != nil {
		return repositoryError(c, err, "Notification not found")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

func (h *NotificationHandler) MarkAllAsRead(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}

	if err := h.notificationRepository.MarkAllAsRead(userID); err != nil {
		return repositoryError(c, err, "")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
