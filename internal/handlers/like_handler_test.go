package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/linkupapp/backend/internal/apperrors"
	"github.com/linkupapp/backend/internal/models"
	"github.com/linkupapp/backend/internal/repositories"
	"github.com/stretchr/testify/suite"
)

type LikeHandlerTestSuite struct {
	suite.Suite
	profiles      repositories.ProfileRepository
	notifications repositories.NotificationRepository
	posts         *fakePostRepo
	pusher        *fakePusher
	handler       *LikeHandler

	author *models.Profile
	liker  *models.Profile
	postID string
}

func TestLikeHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(LikeHandlerTestSuite))
}

func (s *LikeHandlerTestSuite) SetupTest() {
	db := newTestDB(s.T())
	s.profiles = repositories.NewPostgresProfileRepository(db)
	s.notifications = repositories.NewPostgresNotificationRepository(db)
	likes := repositories.NewPostgresLikeRepository(db)
	s.posts = newFakePostRepo()
	s.pusher = &fakePusher{}
	s.handler = NewLikeHandler(likes, s.posts, s.profiles, s.notifications, s.pusher)

	s.author = &models.Profile{Name: "Author", Email: "author@example.com"}
	s.Require().NoError(s.profiles.Create(s.author))
	s.liker = &models.Profile{Name: "Liker", Email: "liker@example.com"}
	s.Require().NoError(s.profiles.Create(s.liker))

	post := &models.Post{UserID: s.author.ID, Caption: "hello"}
	s.Require().NoError(s.posts.Create(context.Background(), post))
	s.postID = post.ID.Hex()
}

func (s *LikeHandlerTestSuite) likeContext(userID uint) (echo.Context, *httptest.ResponseRecorder) {
	c, rec := newTestContext(newTestEcho(), http.MethodPost,
		fmt.Sprintf("/api/v1/posts/%s/likes", s.postID), "", userID)
	c.SetParamNames("post_id")
	c.SetParamValues(s.postID)
	return c, rec
}

func (s *LikeHandlerTestSuite) TestLikePost() {
	c, _ := s.likeContext(s.liker.ID)
	s.Require().NoError(s.handler.LikePost(c))

	post, err := s.posts.GetByID(context.Background(), s.postID)
	s.Require().NoError(err)
	s.Equal(1, post.LikesCount)

	notifs, total, err := s.notifications.List(s.author.ID, 1, 20)
	s.Require().NoError(err)
	s.Equal(int64(1), total)
	s.Equal(models.NotificationTypeLike, notifs[0].Type)
	s.Equal(s.postID, notifs[0].TargetID)

	events := s.pusher.eventsFor(s.author.ID)
	s.Require().Len(events, 1)
	s.Equal("new_post_like", events[0].Event)
}

func (s *LikeHandlerTestSuite) TestDoubleLikeConflicts() {
	c, _ := s.likeContext(s.liker.ID)
	s.Require().NoError(s.handler.LikePost(c))

	c, _ = s.likeContext(s.liker.ID)
	err := s.handler.LikePost(c)
	requireAPIError(s.T(), err, apperrors.CodeConflict)

	// The counter only moved once.
	post, err := s.posts.GetByID(context.Background(), s.postID)
	s.Require().NoError(err)
	s.Equal(1, post.LikesCount)
}

func (s *LikeHandlerTestSuite) TestLikeOwnPostSkipsNotification() {
	c, _ := s.likeContext(s.author.ID)
	s.Require().NoError(s.handler.LikePost(c))

	_, total, err := s.notifications.List(s.author.ID, 1, 20)
	s.Require().NoError(err)
	s.Zero(total)
	s.Empty(s.pusher.events)
}

func (s *LikeHandlerTestSuite) TestLikeUnknownPost() {
	c, _ := newTestContext(newTestEcho(), http.MethodPost,
		"/api/v1/posts/bogus/likes", "", s.liker.ID)
	c.SetParamNames("post_id")
	c.SetParamValues("bogus")
	err := s.handler.LikePost(c)
	requireAPIError(s.T(), err, apperrors.CodeNotFound)
}

func (s *LikeHandlerTestSuite) TestUnlikeWithdrawsUnreadNotification() {
	c, _ := s.likeContext(s.liker.ID)
	s.Require().NoError(s.handler.LikePost(c))

	c, _ = s.likeContext(s.liker.ID)
	s.Require().NoError(s.handler.UnlikePost(c))

	post, err := s.posts.GetByID(context.Background(), s.postID)
	s.Require().NoError(err)
	s.Equal(0, post.LikesCount)

	_, total, err := s.notifications.List(s.author.ID, 1, 20)
	s.Require().NoError(err)
	s.Zero(total, "unliking before the author saw it should remove the notification")
}

func (s *LikeHandlerTestSuite) TestUnlikeKeepsReadNotification() {
	c, _ := s.likeContext(s.liker.ID)
	s.Require().NoError(s.handler.LikePost(c))

	notifs, _, err := s.notifications.List(s.author.ID, 1, 20)
	s.Require().NoError(err)
	s.Require().NoError(s.notifications.MarkRead(s.author.ID, []uint{notifs[0].ID}))

	c, _ = s.likeContext(s.liker.ID)
	s.Require().NoError(s.handler.UnlikePost(c))

	_, total, err := s.notifications.List(s.author.ID, 1, 20)
	s.Require().NoError(err)
	s.Equal(int64(1), total, "a read notification is history and stays")
}

func (s *LikeHandlerTestSuite) TestLikeUnlikeLikeEmitsAgain() {
	c, _ := s.likeContext(s.liker.ID)
	s.Require().NoError(s.handler.LikePost(c))
	c, _ = s.likeContext(s.liker.ID)
	s.Require().NoError(s.handler.UnlikePost(c))
	c, _ = s.likeContext(s.liker.ID)
	s.Require().NoError(s.handler.LikePost(c))

	// The first notification was withdrawn, so the re-like emits a fresh one.
	_, total, err := s.notifications.List(s.author.ID, 1, 20)
	s.Require().NoError(err)
	s.Equal(int64(1), total)
	s.Len(s.pusher.eventsFor(s.author.ID), 2)
}

func (s *LikeHandlerTestSuite) TestUnlikeWithoutLike() {
	c, _ := s.likeContext(s.liker.ID)
	err := s.handler.UnlikePost(c)
	requireAPIError(s.T(), err, apperrors.CodeNotFound)
}

func (s *LikeHandlerTestSuite) TestGetLikers() {
	c, _ := s.likeContext(s.liker.ID)
	s.Require().NoError(s.handler.LikePost(c))

	c, rec := newTestContext(newTestEcho(), http.MethodGet,
		fmt.Sprintf("/api/v1/posts/%s/likes", s.postID), "", s.author.ID)
	c.SetParamNames("post_id")
	c.SetParamValues(s.postID)
	s.Require().NoError(s.handler.GetLikers(c))

	body := decodeBody(s.T(), rec)
	users := body["data"].(map[string]interface{})["users"].([]interface{})
	s.Require().Len(users, 1)
	s.Equal("Liker", users[0].(map[string]interface{})["name"])
}
