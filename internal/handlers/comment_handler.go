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
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// CommentHandler handles comments, replies and comment likes. These are
// embedded in the post document, so every mutation here is one document write.
type CommentHandler struct {
	posts         repositories.PostRepository
	profiles      repositories.ProfileRepository
	notifications repositories.NotificationRepository
	pusher        Pusher
}

func NewCommentHandler(posts repositories.PostRepository, profiles repositories.ProfileRepository,
	notifications repositories.NotificationRepository, pusher Pusher) *CommentHandler {
	return &CommentHandler{posts: posts, profiles: profiles, notifications: notifications, pusher: pusher}
}

// RegisterCommentRoutes registers the comment, reply and comment-like
// endpoints.
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group) {
	g.POST("/posts/:post_id/comments", h.AddComment)
	g.GET("/posts/:post_id/comments", h.GetComments)
	g.DELETE("/posts/:post_id/comments/:comment_id", h.DeleteComment)
	g.POST("/posts/:post_id/comments/:comment_id/likes", h.LikeComment)
	g.DELETE("/posts/:post_id/comments/:comment_id/likes", h.UnlikeComment)
	g.POST("/posts/:post_id/comments/:comment_id/replies", h.AddReply)
	g.DELETE("/posts/:post_id/comments/:comment_id/replies/:reply_id", h.DeleteReply)
}

// AddComment appends a comment to a post and notifies the post owner.
func (h *CommentHandler) AddComment(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	postID := c.Param("post_id")
	ctx := c.Request().Context()

	var req models.CreateCommentRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.Validation("Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	post, err := h.posts.GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperrors.NotFound("Post not found")
		}
		return err
	}

	comment := models.Comment{AuthorID: currentUserID, Text: req.Text}
	if err := h.posts.AddComment(ctx, postID, &comment); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperrors.NotFound("Post not found")
		}
		return err
	}

	if post.UserID != currentUserID {
		h.notifyContentEvent(post.UserID, currentUserID, models.NotificationTypeComment,
			"New comment", "%s commented on your post", comment.ID.Hex(), "comment", postID, "new_comment")
	}
	return respond(c, http.StatusCreated, "Comment added successfully", comment)
}

// GetComments pages through a post's comments, oldest first.
func (h *CommentHandler) GetComments(c echo.Context) error {
	post, err := h.posts.GetByID(c.Request().Context(), c.Param("post_id"))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperrors.NotFound("Post not found")
		}
		return err
	}

	page, limit := pageParams(c)
	total := int64(len(post.Comments))
	start := (page - 1) * limit
	if start > len(post.Comments) {
		start = len(post.Comments)
	}
	end := start + limit
	if end > len(post.Comments) {
		end = len(post.Comments)
	}

	return respondOK(c, "Comments retrieved successfully", echo.Map{
		"comments":   post.Comments[start:end],
		"pagination": paginationMeta(page, limit, total),
	})
}

// DeleteComment removes a comment; only its author may do so.
func (h *CommentHandler) DeleteComment(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	postID := c.Param("post_id")
	ctx := c.Request().Context()

	post, commentID, err := h.loadPostAndCommentID(c, postID)
	if err != nil {
		return err
	}
	comment := findComment(post, commentID)
	if comment == nil {
		return apperrors.NotFound("Comment not found")
	}
	if comment.AuthorID != currentUserID {
		return apperrors.Forbidden("You can only delete your own comments")
	}

	if err := h.posts.RemoveComment(ctx, postID, commentID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperrors.NotFound("Comment not found")
		}
		return err
	}
	return respondOK(c, "Comment deleted successfully", nil)
}

// LikeComment adds the caller to the comment's like set. Liking twice is a
// conflict.
func (h *CommentHandler) LikeComment(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	postID := c.Param("post_id")
	ctx := c.Request().Context()

	post, commentID, err := h.loadPostAndCommentID(c, postID)
	if err != nil {
		return err
	}
	comment := findComment(post, commentID)
	if comment == nil {
		return apperrors.NotFound("Comment not found")
	}

	liked, err := h.posts.AddCommentLike(ctx, postID, commentID, currentUserID)
	if err != nil {
		return err
	}
	if !liked {
		return apperrors.Conflict("You have already liked this comment")
	}
	return respond(c, http.StatusCreated, "Comment liked successfully", nil)
}

// UnlikeComment removes the caller from the comment's like set.
func (h *CommentHandler) UnlikeComment(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	postID := c.Param("post_id")

	commentID, err := primitive.ObjectIDFromHex(c.Param("comment_id"))
	if err != nil {
		return apperrors.NotFound("Comment not found")
	}
	if err := h.posts.RemoveCommentLike(c.Request().Context(), postID, commentID, currentUserID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperrors.NotFound("Comment not found")
		}
		return err
	}
	return respondOK(c, "Comment unliked successfully", nil)
}

// AddReply appends a reply under a comment and notifies the comment author.
func (h *CommentHandler) AddReply(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	postID := c.Param("post_id")
	ctx := c.Request().Context()

	var req models.CreateReplyRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.Validation("Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	post, commentID, err := h.loadPostAndCommentID(c, postID)
	if err != nil {
		return err
	}
	comment := findComment(post, commentID)
	if comment == nil {
		return apperrors.NotFound("Comment not found")
	}

	reply := models.Reply{AuthorID: currentUserID, Text: req.Text}
	if err := h.posts.AddReply(ctx, postID, commentID, &reply); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperrors.NotFound("Comment not found")
		}
		return err
	}

	if comment.AuthorID != currentUserID {
		h.notifyContentEvent(comment.AuthorID, currentUserID, models.NotificationTypeReply,
			"New reply", "%s replied to your comment", reply.ID.Hex(), "reply", postID, "new_reply")
	}
	return respond(c, http.StatusCreated, "Reply added successfully", reply)
}

// DeleteReply removes a reply; only its author may do so.
func (h *CommentHandler) DeleteReply(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	postID := c.Param("post_id")

	post, commentID, err := h.loadPostAndCommentID(c, postID)
	if err != nil {
		return err
	}
	replyID, err := primitive.ObjectIDFromHex(c.Param("reply_id"))
	if err != nil {
		return apperrors.NotFound("Reply not found")
	}

	comment := findComment(post, commentID)
	if comment == nil {
		return apperrors.NotFound("Comment not found")
	}
	var reply *models.Reply
	for i := range comment.Replies {
		if comment.Replies[i].ID == replyID {
			reply = &comment.Replies[i]
			break
		}
	}
	if reply == nil {
		return apperrors.NotFound("Reply not found")
	}
	if reply.AuthorID != currentUserID {
		return apperrors.Forbidden("You can only delete your own replies")
	}

	if err := h.posts.RemoveReply(c.Request().Context(), postID, commentID, replyID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperrors.NotFound("Reply not found")
		}
		return err
	}
	return respondOK(c, "Reply deleted successfully", nil)
}

func (h *CommentHandler) loadPostAndCommentID(c echo.Context, postID string) (*models.Post, primitive.ObjectID, error) {
	commentID, err := primitive.ObjectIDFromHex(c.Param("comment_id"))
	if err != nil {
		return nil, primitive.NilObjectID, apperrors.NotFound("Comment not found")
	}
	post, err := h.posts.GetByID(c.Request().Context(), postID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, primitive.NilObjectID, apperrors.NotFound("Post not found")
		}
		return nil, primitive.NilObjectID, err
	}
	return post, commentID, nil
}

func findComment(post *models.Post, commentID primitive.ObjectID) *models.Comment {
	for i := range post.Comments {
		if post.Comments[i].ID == commentID {
			return &post.Comments[i]
		}
	}
	return nil
}

// notifyContentEvent stores and pushes a comment/reply notification, best
// effort.
func (h *CommentHandler) notifyContentEvent(recipientID, senderID uint, notifType, title,
	messageFormat, targetID, targetType, postID, event string) {
	sender, err := h.profiles.GetByID(senderID)
	if err != nil {
		logger.Log.Error("Failed to load sender profile", zap.Uint("profile_id", senderID), zap.Error(err))
		return
	}

	message := fmt.Sprintf(messageFormat, sender.Name)
	inserted, err := h.notifications.EmitUnlessDuplicate(&models.Notification{
		RecipientID: recipientID,
		SenderID:    senderID,
		Type:        notifType,
		Title:       title,
		Message:     message,
		TargetID:    targetID,
		TargetType:  targetType,
	})
	if err != nil {
		logger.Log.Error("Failed to store notification",
			zap.String("type", notifType), zap.Error(err))
		return
	}
	if inserted {
		h.pusher.EmitToUser(recipientID, event, echo.Map{
			"sender":  sender.ToCompact(),
			"post_id": postID,
			"message": message,
		})
	}
}
