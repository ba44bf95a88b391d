package handlers

import (
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

type FollowHandlerTestSuite struct {
	suite.Suite
	profiles      repositories.ProfileRepository
	follows       repositories.FollowRepository
	notifications repositories.NotificationRepository
	pusher        *fakePusher
	handler       *FollowHandler

	alice *models.Profile // public
	bob   *models.Profile // public
	carol *models.Profile // private
}

func TestFollowHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(FollowHandlerTestSuite))
}

func (s *FollowHandlerTestSuite) SetupTest() {
	db := newTestDB(s.T())
	s.profiles = repositories.NewPostgresProfileRepository(db)
	s.follows = repositories.NewPostgresFollowRepository(db)
	s.notifications = repositories.NewPostgresNotificationRepository(db)
	s.pusher = &fakePusher{}
	s.handler = NewFollowHandler(s.follows, s.profiles, s.notifications, s.pusher)

	s.alice = s.createProfile("Alice", false)
	s.bob = s.createProfile("Bob", false)
	s.carol = s.createProfile("Carol", true)
}

func (s *FollowHandlerTestSuite) createProfile(name string, private bool) *models.Profile {
	p := &models.Profile{Name: name, Email: name + "@example.com", IsPrivate: private}
	s.Require().NoError(s.profiles.Create(p))
	return p
}

func (s *FollowHandlerTestSuite) follow(from, to uint) error {
	c, _ := s.followContext(from, to)
	return s.handler.SendFollowRequest(c)
}

func (s *FollowHandlerTestSuite) followContext(from, to uint) (echo.Context, *httptest.ResponseRecorder) {
	c, rec := newTestContext(newTestEcho(), http.MethodPost,
		fmt.Sprintf("/api/v1/users/%d/follow", to), "", from)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprintf("%d", to))
	return c, rec
}

func (s *FollowHandlerTestSuite) respondToRequest(target, follower uint, accept bool) error {
	action := "accept"
	if !accept {
		action = "reject"
	}
	c, _ := newTestContext(newTestEcho(), http.MethodPost,
		fmt.Sprintf("/api/v1/follow/requests/%d/%s", follower, action), "", target)
	c.SetParamNames("follower_id")
	c.SetParamValues(fmt.Sprintf("%d", follower))
	if accept {
		return s.handler.AcceptFollowRequest(c)
	}
	return s.handler.RejectFollowRequest(c)
}

func (s *FollowHandlerTestSuite) reload(id uint) *models.Profile {
	p, err := s.profiles.GetByID(id)
	s.Require().NoError(err)
	return p
}

func (s *FollowHandlerTestSuite) edgeStatus(from, to uint) string {
	edge, err := s.follows.Get(from, to)
	if err != nil {
		return models.FollowStatusNotFollowing
	}
	return edge.Status
}

func (s *FollowHandlerTestSuite) TestFollowPublicProfileAcceptsImmediately() {
	s.Require().NoError(s.follow(s.alice.ID, s.bob.ID))

	s.Equal(models.FollowStatusAccepted, s.edgeStatus(s.alice.ID, s.bob.ID))
	s.Equal(1, s.reload(s.bob.ID).FollowersCount)
	s.Equal(1, s.reload(s.alice.ID).FollowingCount)

	events := s.pusher.eventsFor(s.bob.ID)
	s.Require().Len(events, 1)
	s.Equal(models.NotificationTypeFollowAccepted, events[0].Event)
}

func (s *FollowHandlerTestSuite) TestFollowPrivateProfileStaysPending() {
	s.Require().NoError(s.follow(s.alice.ID, s.carol.ID))

	s.Equal(models.FollowStatusPending, s.edgeStatus(s.alice.ID, s.carol.ID))
	// Pending requests do not touch counters.
	s.Equal(0, s.reload(s.carol.ID).FollowersCount)
	s.Equal(0, s.reload(s.alice.ID).FollowingCount)

	events := s.pusher.eventsFor(s.carol.ID)
	s.Require().Len(events, 1)
	s.Equal(models.NotificationTypeFollowRequest, events[0].Event)
}

func (s *FollowHandlerTestSuite) TestFollowSelf() {
	err := s.follow(s.alice.ID, s.alice.ID)
	requireAPIError(s.T(), err, apperrors.CodeValidation)
}

func (s *FollowHandlerTestSuite) TestFollowUnknownUser() {
	err := s.follow(s.alice.ID, 9999)
	requireAPIError(s.T(), err, apperrors.CodeNotFound)
}

func (s *FollowHandlerTestSuite) TestDuplicateFollowConflicts() {
	s.Require().NoError(s.follow(s.alice.ID, s.bob.ID))
	err := s.follow(s.alice.ID, s.bob.ID)
	requireAPIError(s.T(), err, apperrors.CodeConflict)

	// Counters unaffected by the rejected duplicate.
	s.Equal(1, s.reload(s.bob.ID).FollowersCount)
}

func (s *FollowHandlerTestSuite) TestDuplicatePendingRequestConflicts() {
	s.Require().NoError(s.follow(s.alice.ID, s.carol.ID))
	err := s.follow(s.alice.ID, s.carol.ID)
	requireAPIError(s.T(), err, apperrors.CodeConflict)
}

func (s *FollowHandlerTestSuite) TestAcceptPendingRequest() {
	s.Require().NoError(s.follow(s.alice.ID, s.carol.ID))
	s.Require().NoError(s.respondToRequest(s.carol.ID, s.alice.ID, true))

	s.Equal(models.FollowStatusAccepted, s.edgeStatus(s.alice.ID, s.carol.ID))
	s.Equal(1, s.reload(s.carol.ID).FollowersCount)
	s.Equal(1, s.reload(s.alice.ID).FollowingCount)

	events := s.pusher.eventsFor(s.alice.ID)
	s.Require().Len(events, 1)
	s.Equal(models.NotificationTypeFollowAccepted, events[0].Event)
}

func (s *FollowHandlerTestSuite) TestAcceptWithoutPendingRequest() {
	err := s.respondToRequest(s.carol.ID, s.alice.ID, true)
	requireAPIError(s.T(), err, apperrors.CodeNotFound)
}

func (s *FollowHandlerTestSuite) TestRejectPendingRequest() {
	s.Require().NoError(s.follow(s.alice.ID, s.carol.ID))
	s.Require().NoError(s.respondToRequest(s.carol.ID, s.alice.ID, false))

	s.Equal(models.FollowStatusRejected, s.edgeStatus(s.alice.ID, s.carol.ID))
	s.Equal(0, s.reload(s.carol.ID).FollowersCount)
}

func (s *FollowHandlerTestSuite) TestRejectedRequestCanBeReopened() {
	s.Require().NoError(s.follow(s.alice.ID, s.carol.ID))
	s.Require().NoError(s.respondToRequest(s.carol.ID, s.alice.ID, false))

	// A rejected request is not permanent; trying again reopens it.
	s.Require().NoError(s.follow(s.alice.ID, s.carol.ID))
	s.Equal(models.FollowStatusPending, s.edgeStatus(s.alice.ID, s.carol.ID))
}

func (s *FollowHandlerTestSuite) TestUnfollow() {
	s.Require().NoError(s.follow(s.alice.ID, s.bob.ID))

	c, _ := s.followContext(s.alice.ID, s.bob.ID)
	s.Require().NoError(s.handler.Unfollow(c))

	s.Equal(models.FollowStatusNotFollowing, s.edgeStatus(s.alice.ID, s.bob.ID))
	s.Equal(0, s.reload(s.bob.ID).FollowersCount)
	s.Equal(0, s.reload(s.alice.ID).FollowingCount)
}

func (s *FollowHandlerTestSuite) TestUnfollowWithoutEdge() {
	c, _ := s.followContext(s.alice.ID, s.bob.ID)
	err := s.handler.Unfollow(c)
	requireAPIError(s.T(), err, apperrors.CodeNotFound)
}

func (s *FollowHandlerTestSuite) TestUnfollowPendingEdgeIsNotFound() {
	s.Require().NoError(s.follow(s.alice.ID, s.carol.ID))

	// Only accepted edges can be unfollowed; a pending request is withdrawn
	// by the target rejecting it, not by unfollow.
	c, _ := s.followContext(s.alice.ID, s.carol.ID)
	err := s.handler.Unfollow(c)
	requireAPIError(s.T(), err, apperrors.CodeNotFound)
}

func (s *FollowHandlerTestSuite) listFollowers(viewer, target uint) error {
	c, _ := newTestContext(newTestEcho(), http.MethodGet,
		fmt.Sprintf("/api/v1/users/%d/followers", target), "", viewer)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprintf("%d", target))
	return s.handler.GetFollowers(c)
}

func (s *FollowHandlerTestSuite) TestPrivateFollowerListHiddenFromStrangers() {
	err := s.listFollowers(s.alice.ID, s.carol.ID)
	requireAPIError(s.T(), err, apperrors.CodeForbidden)
}

func (s *FollowHandlerTestSuite) TestPrivateFollowerListVisibleToAcceptedFollower() {
	s.Require().NoError(s.follow(s.alice.ID, s.carol.ID))
	s.Require().NoError(s.respondToRequest(s.carol.ID, s.alice.ID, true))

	s.NoError(s.listFollowers(s.alice.ID, s.carol.ID))
}

func (s *FollowHandlerTestSuite) TestPrivateFollowerListVisibleToOwner() {
	s.NoError(s.listFollowers(s.carol.ID, s.carol.ID))
}

func (s *FollowHandlerTestSuite) TestPublicFollowerList() {
	s.Require().NoError(s.follow(s.alice.ID, s.bob.ID))

	c, rec := newTestContext(newTestEcho(), http.MethodGet,
		fmt.Sprintf("/api/v1/users/%d/followers", s.bob.ID), "", s.carol.ID)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprintf("%d", s.bob.ID))
	s.Require().NoError(s.handler.GetFollowers(c))

	body := decodeBody(s.T(), rec)
	data := body["data"].(map[string]interface{})
	followers := data["followers"].([]interface{})
	s.Require().Len(followers, 1)
	s.Equal("Alice", followers[0].(map[string]interface{})["name"])
	s.Equal(float64(1), data["pagination"].(map[string]interface{})["total"])
}

func (s *FollowHandlerTestSuite) TestCheckFollowStatus() {
	cases := []struct {
		name  string
		setup func()
		want  string
	}{
		{"no edge", func() {}, models.FollowStatusNotFollowing},
		{"pending", func() { s.Require().NoError(s.follow(s.alice.ID, s.carol.ID)) }, models.FollowStatusPending},
	}
	for _, tc := range cases {
		tc.setup()
		c, rec := newTestContext(newTestEcho(), http.MethodGet,
			fmt.Sprintf("/api/v1/users/%d/follow-status", s.carol.ID), "", s.alice.ID)
		c.SetParamNames("id")
		c.SetParamValues(fmt.Sprintf("%d", s.carol.ID))
		s.Require().NoError(s.handler.CheckFollowStatus(c), tc.name)

		body := decodeBody(s.T(), rec)
		s.Equal(tc.want, body["data"].(map[string]interface{})["status"], tc.name)
	}
}

func (s *FollowHandlerTestSuite) TestPendingRequestsList() {
	s.Require().NoError(s.follow(s.alice.ID, s.carol.ID))
	s.Require().NoError(s.follow(s.bob.ID, s.carol.ID))

	c, rec := newTestContext(newTestEcho(), http.MethodGet, "/api/v1/follow/requests", "", s.carol.ID)
	s.Require().NoError(s.handler.GetPendingRequests(c))

	body := decodeBody(s.T(), rec)
	requests := body["data"].(map[string]interface{})["requests"].([]interface{})
	s.Len(requests, 2)
}

func (s *FollowHandlerTestSuite) TestFollowNotificationDeduplicated() {
	s.Require().NoError(s.follow(s.alice.ID, s.carol.ID))
	s.Require().NoError(s.respondToRequest(s.carol.ID, s.alice.ID, false))
	s.Require().NoError(s.follow(s.alice.ID, s.carol.ID))

	// Two requests, but the first follow_request notification is still
	// unread, so only one exists and only one push went out.
	notifs, total, err := s.notifications.List(s.carol.ID, 1, 20)
	s.Require().NoError(err)
	s.Equal(int64(1), total)
	s.Equal(models.NotificationTypeFollowRequest, notifs[0].Type)
	s.Len(s.pusher.eventsFor(s.carol.ID), 1)
}
