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

// LikeHandler handles post likes. The like rows live in PostgreSQL where a
// unique index makes double-liking impossible; the post's likes_count in
// MongoDB is adjusted after the row insert/delete succeeds.
type LikeHandler struct {
	likes         repositories.LikeRepository
	posts         repositories.PostRepository
	profiles      repositories.ProfileRepository
	notifications repositories.NotificationRepository
	pusher        Pusher
}

func NewLikeHandler(likes repositories.LikeRepository, posts repositories.PostRepository,
	profiles repositories.ProfileRepository, notifications repositories.NotificationRepository,
	pusher Pusher) *LikeHandler {
	return &LikeHandler{likes: likes, posts: posts, profiles: profiles,
		notifications: notifications, pusher: pusher}
}

// RegisterLikeRoutes registers the post-like endpoints.
func (h *LikeHandler) RegisterLikeRoutes(g *echo.Group) {
	g.POST("/posts/:post_id/likes", h.LikePost)
	g.DELETE("/posts/:post_id/likes", h.UnlikePost)
	g.GET("/posts/:post_id/likes", h.GetLikers)
}

// LikePost records a like and notifies the post owner. Liking twice is a
// conflict, surfaced by the unique index rather than a read-then-write check.
func (h *LikeHandler) LikePost(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	postID := c.Param("post_id")
	ctx := c.Request().Context()

	post, err := h.posts.GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperrors.NotFound("Post not found")
		}
		return err
	}

	if err := h.likes.Create(&models.Like{PostID: postID, UserID: currentUserID}); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.Conflict("You have already liked this post")
		}
		return err
	}
	if err := h.posts.IncrementLikesCount(ctx, postID, 1); err != nil {
		logger.Log.Error("Failed to bump likes count",
			zap.String("post_id", postID), zap.Error(err))
	}

	if post.UserID != currentUserID {
		h.notifyLike(post.UserID, currentUserID, postID)
	}
	return respond(c, http.StatusCreated, "Post liked successfully", nil)
}

// UnlikePost removes a like and withdraws its notification if it was never
// read.
func (h *LikeHandler) UnlikePost(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	postID := c.Param("post_id")
	ctx := c.Request().Context()

	post, err := h.posts.GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperrors.NotFound("Post not found")
		}
		return err
	}

	if err := h.likes.Delete(postID, currentUserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("You have not liked this post")
		}
		return err
	}
	if err := h.posts.IncrementLikesCount(ctx, postID, -1); err != nil {
		logger.Log.Error("Failed to bump likes count",
			zap.String("post_id", postID), zap.Error(err))
	}

	if err := h.notifications.DeleteUnread(post.UserID, currentUserID,
		models.NotificationTypeLike, postID); err != nil {
		logger.Log.Error("Failed to withdraw like notification",
			zap.String("post_id", postID), zap.Error(err))
	}
	return respondOK(c, "Post unliked successfully", nil)
}

// GetLikers lists the users who liked a post, most recent like first.
func (h *LikeHandler) GetLikers(c echo.Context) error {
	postID := c.Param("post_id")
	if _, err := h.posts.GetByID(c.Request().Context(), postID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperrors.NotFound("Post not found")
		}
		return err
	}

	page, limit := pageParams(c)
	profiles, total, err := h.likes.GetLikers(postID, page, limit)
	if err != nil {
		return err
	}

	results := make([]models.ProfileCompact, 0, len(profiles))
	for i := range profiles {
		results = append(results, profiles[i].ToCompact())
	}
	return respondOK(c, "Likes retrieved successfully", echo.Map{
		"users":      results,
		"pagination": paginationMeta(page, limit, total),
	})
}

// notifyLike stores and pushes the like notification. Repeat like/unlike
// cycles collapse onto the existing unread notification.
func (h *LikeHandler) notifyLike(recipientID, senderID uint, postID string) {
	sender, err := h.profiles.GetByID(senderID)
	if err != nil {
		logger.Log.Error("Failed to load liker profile", zap.Uint("profile_id", senderID), zap.Error(err))
		return
	}

	inserted, err := h.notifications.EmitUnlessDuplicate(&models.Notification{
		RecipientID: recipientID,
		SenderID:    senderID,
		Type:        models.NotificationTypeLike,
		Title:       "New like",
		Message:     fmt.Sprintf("%s liked your post", sender.Name),
		TargetID:    postID,
		TargetType:  "post",
	})
	if err != nil {
		logger.Log.Error("Failed to store like notification",
			zap.String("post_id", postID), zap.Error(err))
		return
	}
	if inserted {
		h.pusher.EmitToUser(recipientID, "new_post_like", echo.Map{
			"sender":  sender.ToCompact(),
			"post_id": postID,
		})
	}
}
