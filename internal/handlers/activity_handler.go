package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/anonto42/prehome/backend/internal/models"
	"github.com/anonto42/prehome/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// ActivityHandler handles shortlist, visit and status changes on (user, property) pairs
type ActivityHandler struct {
	activityRepository     repositories.ActivityRepository
	propertyRepository     repositories.PropertyRepository
	notificationRepository repositories.NotificationRepository
}

// NewActivityHandler creates a new ActivityHandler
func NewActivityHandler(activityRepo repositories.ActivityRepository, propertyRepo repositories.PropertyRepository, notifRepo repositories.NotificationRepository) *ActivityHandler {
	return &ActivityHandler{
		activityRepository:     activityRepo,
		propertyRepository:     propertyRepo,
		notificationRepository: notifRepo,
	}
}

// RegisterActivityRoutes registers the caller's activity routes
func (h *ActivityHandler) RegisterActivityRoutes(g *echo.Group) {
	g.POST("/activity/save", h.SaveActivity)
	g.GET("/activity", h.ListMyActivities)
	g.GET("/activity/:propertyId", h.GetActivity)
}

// RegisterAdminActivityRoutes registers the dashboard activity routes
func (h *ActivityHandler) RegisterAdminActivityRoutes(g *echo.Group) {
	g.GET("/all-activities", h.ListAllActivities)
	g.PATCH("/activity/status", h.UpdateStatus)
	g.DELETE("/activity/:userId/:propertyId", h.DeleteActivity)
}

// ActivityView is an Activity with its derived stage
type ActivityView struct {
	models.Activity
	Stage string `json:"stage"`
}

func viewOf(a *models.Activity) ActivityView {
	return ActivityView{Activity: *a, Stage: a.Stage()}
}

// SaveActivity merges the supplied fields into the caller's record for a property
func (h *ActivityHandler) SaveActivity(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}

	var req models.SaveActivityRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if req.IsEmpty() {
		return echo.NewHTTPError(http.StatusBadRequest, "Nothing to update")
	}

	activity, err := h.apply(c, userID, req.PropertyID, req.ActivityPatch)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, viewOf(activity))
}

// GetActivity returns the caller's record for a property. A missing record
// is reported as an empty one in stage "none".
func (h *ActivityHandler) GetActivity(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}

	propertyID := c.Param("propertyId")
	activity, err := h.activityRepository.Get(c.Request().Context(), userID, propertyID)
	if errors.Is(err, repositories.ErrNotFound) {
		activity = &models.Activity{UserID: userID, PropertyID: propertyID}
	} else if err != nil {
		return repositoryError(c, err, "")
	}
	return c.JSON(http.StatusOK, viewOf(activity))
}

// ListMyActivities returns every record of the caller
func (h *ActivityHandler) ListMyActivities(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}

	activities, err := h.activityRepository.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return repositoryError(c, err, "")
	}
	return c.JSON(http.StatusOK, views(activities))
}

// ListAllActivities returns every record for the dashboard
func (h *ActivityHandler) ListAllActivities(c echo.Context) error {
	activities, err := h.activityRepository.ListAll(c.Request().Context())
	if err != nil {
		return repositoryError(c, err, "")
	}
	return c.JSON(http.StatusOK, views(activities))
}

// UpdateStatus sets the free-text status of a user's record
func (h *ActivityHandler) UpdateStatus(c echo.Context) error {
	var req models.UpdateActivityStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	status := req.Status
	activity, err := h.apply(c, req.UserID, req.PropertyID, models.ActivityPatch{Status: &status})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Status updated", "activity": viewOf(activity)})
}

// DeleteActivity removes a user's record for a property
func (h *ActivityHandler) DeleteActivity(c echo.Context) error {
	if err := h.activityRepository.Delete(c.Request().Context(), c.Param("userId"), c.Param("propertyId")); err != nil {
		return repositoryError(c, err, "Activity not found")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Activity deleted"})
}

// apply upserts patch and appends the resulting notifications.
func (h *ActivityHandler) apply(c echo.Context, userID, propertyID string, patch models.ActivityPatch) (*models.Activity, error) {
	ctx := c.Request().Context()

	property, err := h.propertyRepository.GetPropertyByID(ctx, propertyID)
	if err != nil {
		return nil, repositoryError(c, err, "Property not found")
	}

	previous, err := h.activityRepository.Get(ctx, userID, propertyID)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, repositoryError(c, err, "")
	}

	activity, err := h.activityRepository.Upsert(ctx, userID, propertyID, patch)
	if err != nil {
		return nil, repositoryError(c, err, "")
	}

	h.notifyActivityChange(c, userID, propertyID, activityMessages(property.Title, previous, patch))
	return activity, nil
}

// notifyActivityChange appends messages to the user's feed. Failures are logged
// and never fail the request.
func (h *ActivityHandler) notifyActivityChange(c echo.Context, userID, propertyID string, messages []string) {
	for _, message := range messages {
		n := &models.Notification{UserID: userID, PropertyID: propertyID, Message: message}
		if err := h.notificationRepository.CreateNotification(n); err != nil {
			c.Logger().Errorf("notification for user %s: %v", userID, err)
		}
	}
}

// activityMessages describes what patch changes relative to previous, which is nil
// for a new record. A status that merely restates the shortlist or visit in the same
// patch produces no separate message.
func activityMessages(title string, previous *models.Activity, patch models.ActivityPatch) []string {
	if previous == nil {
		previous = &models.Activity{}
	}
	var messages []string

	shortlisted := patch.Shortlisted != nil && *patch.Shortlisted != previous.Shortlisted
	if shortlisted {
		if *patch.Shortlisted {
			messages = append(messages, fmt.Sprintf("You shortlisted %s.", title))
		} else {
			messages = append(messages, fmt.Sprintf("You removed %s from your shortlist.", title))
		}
	}

	scheduled := patch.VisitDate != nil && (previous.VisitDate == nil || !patch.VisitDate.Equal(*previous.VisitDate))
	if scheduled {
		messages = append(messages, fmt.Sprintf("Visit scheduled for %s on %s.", title, patch.VisitDate.Format("2 Jan 2006")))
	}

	if patch.Status != nil && *patch.Status != "" && *patch.Status != previous.Status {
		switch status := *patch.Status; {
		case status == models.StatusInterested && shortlisted:
		case status == models.StatusVisitScheduled && scheduled:
		case status == models.StatusInterested:
			messages = append(messages, fmt.Sprintf("You are interested in %s.", title))
		default:
			messages = append(messages, fmt.Sprintf("Status for %s updated to %q.", title, status))
		}
	}
	return messages
}

func views(activities []models.Activity) []ActivityView {
	out := make([]ActivityView, len(activities))
	for i := range activities {
		out[i] = viewOf(&activities[i])
	}
	return out
}
