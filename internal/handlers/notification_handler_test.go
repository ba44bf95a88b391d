package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/linkupapp/backend/internal/apperrors"
	"github.com/linkupapp/backend/internal/models"
	"github.com/linkupapp/backend/internal/repositories"
	"github.com/stretchr/testify/suite"
)

type NotificationHandlerTestSuite struct {
	suite.Suite
	profiles      repositories.ProfileRepository
	notifications repositories.NotificationRepository
	handler       *NotificationHandler

	recipient *models.Profile
	sender    *models.Profile
}

func TestNotificationHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(NotificationHandlerTestSuite))
}

func (s *NotificationHandlerTestSuite) SetupTest() {
	db := newTestDB(s.T())
	s.profiles = repositories.NewPostgresProfileRepository(db)
	s.notifications = repositories.NewPostgresNotificationRepository(db)
	s.handler = NewNotificationHandler(s.notifications, s.profiles)

	s.recipient = &models.Profile{Name: "Recipient", Email: "recipient@example.com"}
	s.Require().NoError(s.profiles.Create(s.recipient))
	s.sender = &models.Profile{Name: "Sender", Email: "sender@example.com"}
	s.Require().NoError(s.profiles.Create(s.sender))
}

func (s *NotificationHandlerTestSuite) emit(targetID string) *models.Notification {
	n := &models.Notification{
		RecipientID: s.recipient.ID,
		SenderID:    s.sender.ID,
		Type:        models.NotificationTypeLike,
		Title:       "New like",
		Message:     "Sender liked your post",
		TargetID:    targetID,
		TargetType:  "post",
	}
	inserted, err := s.notifications.EmitUnlessDuplicate(n)
	s.Require().NoError(err)
	s.Require().True(inserted)
	return n
}

func (s *NotificationHandlerTestSuite) TestGetNotificationsIncludesSender() {
	s.emit("post-1")
	s.emit("post-2")

	c, rec := newTestContext(newTestEcho(), http.MethodGet, "/api/v1/notifications", "", s.recipient.ID)
	s.Require().NoError(s.handler.GetNotifications(c))

	body := decodeBody(s.T(), rec)
	data := body["data"].(map[string]interface{})
	items := data["notifications"].([]interface{})
	s.Require().Len(items, 2)
	first := items[0].(map[string]interface{})
	s.Equal("Sender", first["sender"].(map[string]interface{})["name"])
	s.Equal(float64(2), data["pagination"].(map[string]interface{})["total"])
}

func (s *NotificationHandlerTestSuite) TestMarkRead() {
	n := s.emit("post-1")

	c, _ := newTestContext(newTestEcho(), http.MethodPut, "/api/v1/notifications/read",
		fmt.Sprintf(`{"notification_ids":[%d]}`, n.ID), s.recipient.ID)
	s.Require().NoError(s.handler.MarkRead(c))

	count, err := s.notifications.UnreadCount(s.recipient.ID)
	s.Require().NoError(err)
	s.Zero(count)
}

func (s *NotificationHandlerTestSuite) TestMarkReadSkipsForeignNotifications() {
	n := s.emit("post-1")

	// The sender marking the recipient's notification must be a no-op.
	c, _ := newTestContext(newTestEcho(), http.MethodPut, "/api/v1/notifications/read",
		fmt.Sprintf(`{"notification_ids":[%d]}`, n.ID), s.sender.ID)
	s.Require().NoError(s.handler.MarkRead(c))

	count, err := s.notifications.UnreadCount(s.recipient.ID)
	s.Require().NoError(err)
	s.Equal(int64(1), count)
}

func (s *NotificationHandlerTestSuite) TestMarkReadValidatesIDs() {
	c, _ := newTestContext(newTestEcho(), http.MethodPut, "/api/v1/notifications/read",
		`{"notification_ids":[]}`, s.recipient.ID)
	err := s.handler.MarkRead(c)
	requireAPIError(s.T(), err, apperrors.CodeValidation)
}

func (s *NotificationHandlerTestSuite) TestDeleteNotification() {
	n := s.emit("post-1")

	c, _ := newTestContext(newTestEcho(), http.MethodDelete,
		fmt.Sprintf("/api/v1/notifications/%d", n.ID), "", s.recipient.ID)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprintf("%d", n.ID))
	s.Require().NoError(s.handler.DeleteNotification(c))

	_, total, err := s.notifications.List(s.recipient.ID, 1, 20)
	s.Require().NoError(err)
	s.Zero(total)
}

func (s *NotificationHandlerTestSuite) TestDeleteForeignNotificationNotFound() {
	n := s.emit("post-1")

	c, _ := newTestContext(newTestEcho(), http.MethodDelete,
		fmt.Sprintf("/api/v1/notifications/%d", n.ID), "", s.sender.ID)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprintf("%d", n.ID))
	err := s.handler.DeleteNotification(c)
	requireAPIError(s.T(), err, apperrors.CodeNotFound)
}

func (s *NotificationHandlerTestSuite) TestUnreadCount() {
	s.emit("post-1")
	s.emit("post-2")

	c, rec := newTestContext(newTestEcho(), http.MethodGet,
		"/api/v1/notifications/unread-count", "", s.recipient.ID)
	s.Require().NoError(s.handler.GetUnreadCount(c))

	body := decodeBody(s.T(), rec)
	s.Equal(float64(2), body["data"].(map[string]interface{})["unread_count"])
}

func (s *NotificationHandlerTestSuite) TestEmitUnlessDuplicateCollapsesUnread() {
	s.emit("post-1")

	inserted, err := s.notifications.EmitUnlessDuplicate(&models.Notification{
		RecipientID: s.recipient.ID,
		SenderID:    s.sender.ID,
		Type:        models.NotificationTypeLike,
		TargetID:    "post-1",
		TargetType:  "post",
	})
	s.Require().NoError(err)
	s.False(inserted, "an unread duplicate must not be stored twice")
}
