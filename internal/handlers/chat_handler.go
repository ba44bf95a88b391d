package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/linkupapp/backend/internal/apperrors"
	"github.com/linkupapp/backend/internal/models"
	"github.com/linkupapp/backend/internal/repositories"
	"gorm.io/gorm"
)

// ChatHandler handles direct messages. Messages may only flow between users
// who follow each other, and the server stores the ciphertext opaquely:
// encryption and decryption happen on the clients.
type ChatHandler struct {
	messages repositories.MessageRepository
	follows  repositories.FollowRepository
	profiles repositories.ProfileRepository
	pusher   Pusher
}

func NewChatHandler(messages repositories.MessageRepository, follows repositories.FollowRepository,
	profiles repositories.ProfileRepository, pusher Pusher) *ChatHandler {
	return &ChatHandler{messages: messages, follows: follows, profiles: profiles, pusher: pusher}
}

// RegisterChatRoutes registers the direct-message endpoints.
func (h *ChatHandler) RegisterChatRoutes(g *echo.Group) {
	g.POST("/messages", h.SendMessage)
	g.GET("/messages/:user_id", h.GetConversation)
}

// SendMessage persists a message to a mutually-connected recipient and pushes
// it to their live connections.
func (h *ChatHandler) SendMessage(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)

	var req models.SendMessageRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.Validation("Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if req.RecipientID == currentUserID {
		return apperrors.Validation("You cannot message yourself")
	}

	if _, err := h.profiles.GetByID(req.RecipientID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("User not found")
		}
		return err
	}
	if err := h.checkMutualConnection(currentUserID, req.RecipientID); err != nil {
		return err
	}

	message := models.Message{
		SenderID:    currentUserID,
		RecipientID: req.RecipientID,
		Ciphertext:  req.Ciphertext,
	}
	if err := h.messages.Create(c.Request().Context(), &message); err != nil {
		return err
	}

	h.pusher.EmitToUser(req.RecipientID, "receive_message", message)
	return respond(c, http.StatusCreated, "Message sent successfully", message)
}

// GetConversation returns the caller's message history with another user,
// oldest first. Only a participant can read a conversation, which the route
// shape guarantees: the caller is always one end of the pair.
func (h *ChatHandler) GetConversation(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	otherUserID := parseUintParam(c, "user_id")
	if otherUserID == 0 {
		return apperrors.Validation("Invalid user id")
	}

	messages, err := h.messages.GetConversation(c.Request().Context(), currentUserID, otherUserID)
	if err != nil {
		return err
	}
	if messages == nil {
		messages = []models.Message{}
	}
	return respondOK(c, "Messages retrieved successfully", echo.Map{"messages": messages})
}

// checkMutualConnection requires accepted follow edges in both directions.
func (h *ChatHandler) checkMutualConnection(userA, userB uint) error {
	aFollowsB, err := h.follows.IsAccepted(userA, userB)
	if err != nil {
		return err
	}
	bFollowsA, err := h.follows.IsAccepted(userB, userA)
	if err != nil {
		return err
	}
	if !aFollowsB || !bFollowsA {
		return apperrors.Forbidden("You can only message users you are mutually connected with")
	}
	return nil
}
