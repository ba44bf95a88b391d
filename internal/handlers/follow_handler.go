package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/linkupapp/backend/internal/apperrors"
	"github.com/linkupapp/backend/internal/logger"
	"github.com/linkupapp/backend/internal/models"
	"github.com/linkupapp/backend/internal/repositories"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// FollowHandler drives the follow-request state machine and the follower
// list reads gated by profile privacy.
type FollowHandler struct {
	follows       repositories.FollowRepository
	profiles      repositories.ProfileRepository
	notifications repositories.NotificationRepository
	pusher        Pusher
}

func NewFollowHandler(follows repositories.FollowRepository, profiles repositories.ProfileRepository,
	notifications repositories.NotificationRepository, pusher Pusher) *FollowHandler {
	return &FollowHandler{follows: follows, profiles: profiles, notifications: notifications, pusher: pusher}
}

// RegisterFollowRoutes registers the follow-graph endpoints.
func (h *FollowHandler) RegisterFollowRoutes(g *echo.Group) {
	g.POST("/users/:id/follow", h.SendFollowRequest)
	g.DELETE("/users/:id/follow", h.Unfollow)
	g.GET("/users/:id/followers", h.GetFollowers)
	g.GET("/users/:id/following", h.GetFollowing)
	g.GET("/users/:id/follow-status", h.CheckFollowStatus)
	g.GET("/follow/requests", h.GetPendingRequests)
	g.POST("/follow/requests/:follower_id/accept", h.AcceptFollowRequest)
	g.POST("/follow/requests/:follower_id/reject", h.RejectFollowRequest)
}

// SendFollowRequest creates or reopens a follow edge toward the target. A
// private target yields a pending request; a public one is accepted
// immediately. A previously rejected request may be sent again.
func (h *FollowHandler) SendFollowRequest(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	targetID := parseUintParam(c, "id")
	if targetID == 0 {
		return apperrors.Validation("Invalid user id")
	}
	if targetID == currentUserID {
		return apperrors.Validation("You cannot follow yourself")
	}

	target, err := h.profiles.GetByID(targetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("User not found")
		}
		return err
	}

	status := models.FollowStatusAccepted
	if target.IsPrivate {
		status = models.FollowStatusPending
	}

	edge, err := h.follows.Get(currentUserID, targetID)
	switch {
	case err == nil:
		switch edge.Status {
		case models.FollowStatusAccepted:
			return apperrors.Conflict("You are already following this user")
		case models.FollowStatusPending:
			return apperrors.Conflict("Follow request already sent")
		case models.FollowStatusRejected:
			if err := h.follows.Reopen(edge); err != nil {
				return err
			}
			status = models.FollowStatusPending
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		if target.IsPrivate {
			err = h.follows.CreatePending(currentUserID, targetID)
		} else {
			err = h.follows.CreateAccepted(currentUserID, targetID)
		}
		if err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				// Lost a race with an identical request.
				return apperrors.Conflict("Follow request already sent")
			}
			return err
		}
	default:
		return err
	}

	sender, err := h.profiles.GetByID(currentUserID)
	if err != nil {
		return err
	}

	if status == models.FollowStatusPending {
		h.notifyFollowEvent(target.ID, sender, models.NotificationTypeFollowRequest,
			"New follow request", fmt.Sprintf("%s wants to follow you", sender.Name))
		return respond(c, http.StatusCreated, "Follow request sent", echo.Map{"status": status})
	}
	h.notifyFollowEvent(target.ID, sender, models.NotificationTypeFollowAccepted,
		"New follower", fmt.Sprintf("%s started following you", sender.Name))
	return respond(c, http.StatusCreated, "You are now following this user", echo.Map{"status": status})
}

// AcceptFollowRequest lets the target of a pending request approve it.
func (h *FollowHandler) AcceptFollowRequest(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	followerID := parseUintParam(c, "follower_id")
	if followerID == 0 {
		return apperrors.Validation("Invalid user id")
	}

	edge, err := h.follows.Accept(followerID, currentUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("Follow request not found")
		}
		return err
	}

	me, err := h.profiles.GetByID(currentUserID)
	if err != nil {
		return err
	}
	h.notifyFollowEvent(followerID, me, models.NotificationTypeFollowAccepted,
		"Follow request accepted", fmt.Sprintf("%s accepted your follow request", me.Name))

	return respondOK(c, "Follow request accepted", echo.Map{"status": edge.Status})
}

// RejectFollowRequest declines a pending request. The requester may try again
// later; rejection is not permanent.
func (h *FollowHandler) RejectFollowRequest(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	followerID := parseUintParam(c, "follower_id")
	if followerID == 0 {
		return apperrors.Validation("Invalid user id")
	}

	edge, err := h.follows.Reject(followerID, currentUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("Follow request not found")
		}
		return err
	}

	me, err := h.profiles.GetByID(currentUserID)
	if err != nil {
		return err
	}
	h.notifyFollowEvent(followerID, me, models.NotificationTypeFollowRejected,
		"Follow request declined", fmt.Sprintf("%s declined your follow request", me.Name))

	return respondOK(c, "Follow request rejected", echo.Map{"status": edge.Status})
}

// Unfollow removes an accepted follow edge.
func (h *FollowHandler) Unfollow(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	targetID := parseUintParam(c, "id")
	if targetID == 0 {
		return apperrors.Validation("Invalid user id")
	}

	if err := h.follows.DeleteAccepted(currentUserID, targetID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("You are not following this user")
		}
		return err
	}
	return respondOK(c, "Unfollowed successfully", nil)
}

// GetFollowers lists who follows the given user. Private profiles only expose
// their lists to themselves and accepted followers.
func (h *FollowHandler) GetFollowers(c echo.Context) error {
	return h.listConnections(c, h.follows.GetFollowers, "Followers retrieved successfully", "followers")
}

// GetFollowing lists who the given user follows, under the same privacy gate.
func (h *FollowHandler) GetFollowing(c echo.Context) error {
	return h.listConnections(c, h.follows.GetFollowing, "Following retrieved successfully", "following")
}

func (h *FollowHandler) listConnections(c echo.Context,
	fetch func(uint, int, int) ([]models.Profile, int64, error), message, key string) error {
	currentUserID := getUserIDFromContext(c)
	targetID := parseUintParam(c, "id")
	if targetID == 0 {
		return apperrors.Validation("Invalid user id")
	}

	target, err := h.profiles.GetByID(targetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("User not found")
		}
		return err
	}
	if err := h.checkListAccess(currentUserID, target); err != nil {
		return err
	}

	page, limit := pageParams(c)
	profiles, total, err := fetch(targetID, page, limit)
	if err != nil {
		return err
	}

	results := make([]models.ProfileCompact, 0, len(profiles))
	for i := range profiles {
		results = append(results, profiles[i].ToCompact())
	}
	return respondOK(c, message, echo.Map{
		key:          results,
		"pagination": paginationMeta(page, limit, total),
	})
}

// checkListAccess enforces the privacy gate on follower/following lists.
func (h *FollowHandler) checkListAccess(currentUserID uint, target *models.Profile) error {
	if !target.IsPrivate || target.ID == currentUserID {
		return nil
	}
	accepted, err := h.follows.IsAccepted(currentUserID, target.ID)
	if err != nil {
		return err
	}
	if !accepted {
		return apperrors.Forbidden("This profile is private")
	}
	return nil
}

// GetPendingRequests lists incoming follow requests for the caller, enriched
// with the requesters' profiles.
func (h *FollowHandler) GetPendingRequests(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	page, limit := pageParams(c)

	edges, total, err := h.follows.GetPendingRequests(currentUserID, page, limit)
	if err != nil {
		return err
	}

	requests := make([]echo.Map, 0, len(edges))
	for _, edge := range edges {
		requester, err := h.profiles.GetByID(edge.FollowerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return err
		}
		requests = append(requests, echo.Map{
			"user":         requester.ToCompact(),
			"requested_at": edge.RequestedAt,
		})
	}
	return respondOK(c, "Follow requests retrieved successfully", echo.Map{
		"requests":   requests,
		"pagination": paginationMeta(page, limit, total),
	})
}

// CheckFollowStatus reports the caller's edge toward the given user.
func (h *FollowHandler) CheckFollowStatus(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	targetID := parseUintParam(c, "id")
	if targetID == 0 {
		return apperrors.Validation("Invalid user id")
	}

	edge, err := h.follows.Get(currentUserID, targetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondOK(c, "Follow status retrieved successfully",
				echo.Map{"status": models.FollowStatusNotFollowing})
		}
		return err
	}
	return respondOK(c, "Follow status retrieved successfully", echo.Map{"status": edge.Status})
}

// notifyFollowEvent stores the notification (skipping unread duplicates) and
// pushes it. Both are best effort; a follow must not fail because its
// notification did.
func (h *FollowHandler) notifyFollowEvent(recipientID uint, sender *models.Profile, notifType, title, message string) {
	inserted, err := h.notifications.EmitUnlessDuplicate(&models.Notification{
		RecipientID: recipientID,
		SenderID:    sender.ID,
		Type:        notifType,
		Title:       title,
		Message:     message,
		TargetID:    fmt.Sprintf("%d", sender.ID),
		TargetType:  "profile",
	})
	if err != nil {
		logger.Log.Error("Failed to store follow notification",
			zap.String("type", notifType), zap.Uint("recipient_id", recipientID), zap.Error(err))
		return
	}
	if inserted {
		h.pusher.EmitToUser(recipientID, notifType, echo.Map{
			"sender":  sender.ToCompact(),
			"message": message,
		})
	}
}
