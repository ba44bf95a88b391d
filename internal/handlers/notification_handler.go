package handlers

import (
	"errors"

	"github.com/labstack/echo/v4"
	"github.com/linkupapp/backend/internal/apperrors"
	"github.com/linkupapp/backend/internal/models"
	"github.com/linkupapp/backend/internal/repositories"
	"gorm.io/gorm"
)

// NotificationHandler serves the caller's notification feed.
type NotificationHandler struct {
	notifications repositories.NotificationRepository
	profiles      repositories.ProfileRepository
}

func NewNotificationHandler(notifications repositories.NotificationRepository,
	profiles repositories.ProfileRepository) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, profiles: profiles}
}

// RegisterNotificationRoutes registers the notification endpoints.
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.GET("/notifications", h.GetNotifications)
	g.PUT("/notifications/read", h.MarkRead)
	g.GET("/notifications/unread-count", h.GetUnreadCount)
	g.DELETE("/notifications/:id", h.DeleteNotification)
}

// GetNotifications lists the caller's notifications, newest first, with each
// sender's compact profile attached.
func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	page, limit := pageParams(c)

	notifications, total, err := h.notifications.List(currentUserID, page, limit)
	if err != nil {
		return err
	}

	// Sender profiles repeat across notifications, so fetch each once.
	senders := make(map[uint]models.ProfileCompact)
	results := make([]echo.Map, 0, len(notifications))
	for _, n := range notifications {
		sender, ok := senders[n.SenderID]
		if !ok {
			profile, err := h.profiles.GetByID(n.SenderID)
			if err != nil {
				if !errors.Is(err, gorm.ErrRecordNotFound) {
					return err
				}
				profile = &models.Profile{ID: n.SenderID}
			}
			sender = profile.ToCompact()
			senders[n.SenderID] = sender
		}
		results = append(results, echo.Map{
			"notification": n,
			"sender":       sender,
		})
	}

	return respondOK(c, "Notifications retrieved successfully", echo.Map{
		"notifications": results,
		"pagination":    paginationMeta(page, limit, total),
	})
}

// MarkRead bulk-marks notifications as read. IDs belonging to other users are
// ignored rather than rejected.
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	var req models.MarkReadRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.Validation("Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.notifications.MarkRead(getUserIDFromContext(c), req.NotificationIDs); err != nil {
		return err
	}
	return respondOK(c, "Notifications marked as read", nil)
}

// DeleteNotification soft-deletes one of the caller's notifications.
func (h *NotificationHandler) DeleteNotification(c echo.Context) error {
	id := parseUintParam(c, "id")
	if id == 0 {
		return apperrors.Validation("Invalid notification id")
	}

	if err := h.notifications.SoftDelete(getUserIDFromContext(c), id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("Notification not found")
		}
		return err
	}
	return respondOK(c, "Notification deleted successfully", nil)
}

// GetUnreadCount returns the caller's unread notification count for badges.
func (h *NotificationHandler) GetUnreadCount(c echo.Context) error {
	count, err := h.notifications.UnreadCount(getUserIDFromContext(c))
	if err != nil {
		return err
	}
	return respondOK(c, "Unread count retrieved successfully", echo.Map{"unread_count": count})
}
