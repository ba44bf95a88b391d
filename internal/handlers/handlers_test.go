package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/linkupapp/backend/internal/apperrors"
	"github.com/linkupapp/backend/internal/models"
	"github.com/linkupapp/backend/internal/repositories"
	"github.com/linkupapp/backend/validators"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func errNotFound() error { return repositories.ErrNotFound }

// requireAPIError asserts that a handler failed with the given error code.
func requireAPIError(t *testing.T, err error, code apperrors.Code) *apperrors.APIError {
	t.Helper()
	var apiErr *apperrors.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, code, apiErr.Code)
	return apiErr
}

// newTestDB opens an in-memory SQLite database with the same error
// translation the real connection uses, so duplicate-key behavior matches.
// Each test gets its own named in-memory database; cache=shared keeps it
// alive across the pool's connections.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Profile{},
		&models.Follow{},
		&models.Like{},
		&models.Notification{},
	))
	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = validators.NewValidator()
	return e
}

// newTestContext builds an echo context for the given request, authenticated
// as userID when it is non-zero.
func newTestContext(e *echo.Echo, method, path, body string, userID uint) (echo.Context, *httptest.ResponseRecorder) {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if userID != 0 {
		c.Set("user", testClaims(userID))
	}
	return c, rec
}

func testClaims(userID uint) *models.JwtCustomClaims {
	return &models.JwtCustomClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

// fakePusher records emitted events instead of touching websockets.
type fakePusher struct {
	events []fakeEvent
}

type fakeEvent struct {
	UserID  uint
	Event   string
	Payload interface{}
}

func (p *fakePusher) EmitToUser(userID uint, event string, payload interface{}) {
	p.events = append(p.events, fakeEvent{UserID: userID, Event: event, Payload: payload})
}

func (p *fakePusher) eventsFor(userID uint) []fakeEvent {
	var out []fakeEvent
	for _, e := range p.events {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out
}

// fakeUploader returns deterministic URLs without touching S3.
type fakeUploader struct {
	uploads []string
	fail    bool
}

func (u *fakeUploader) Upload(_ context.Context, _ []byte, filename, _ string) (string, error) {
	if u.fail {
		return "", context.DeadlineExceeded
	}
	u.uploads = append(u.uploads, filename)
	return "https://cdn.test/media/" + filename, nil
}

// fakeEmailSender and fakeSMSSender record deliveries.
type fakeEmailSender struct {
	sent []string
	fail bool
}

func (s *fakeEmailSender) Send(_ context.Context, to, _, _ string) error {
	if s.fail {
		return context.DeadlineExceeded
	}
	s.sent = append(s.sent, to)
	return nil
}

type fakeSMSSender struct {
	sent []string
	fail bool
}

func (s *fakeSMSSender) Send(to, _ string) error {
	if s.fail {
		return context.DeadlineExceeded
	}
	s.sent = append(s.sent, to)
	return nil
}

// fakePostRepo is an in-memory PostRepository mirroring the Mongo-backed
// one's semantics, including its not-found behavior for malformed ids.
type fakePostRepo struct {
	posts map[string]*models.Post
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{posts: make(map[string]*models.Post)}
}

func (r *fakePostRepo) Create(_ context.Context, post *models.Post) error {
	post.ID = primitive.NewObjectID()
	post.CreatedAt = time.Now()
	post.UpdatedAt = post.CreatedAt
	if post.Comments == nil {
		post.Comments = []models.Comment{}
	}
	cp := *post
	r.posts[post.ID.Hex()] = &cp
	return nil
}

func (r *fakePostRepo) GetByID(_ context.Context, id string) (*models.Post, error) {
	post, ok := r.posts[id]
	if !ok {
		return nil, errNotFound()
	}
	cp := *post
	return &cp, nil
}

func (r *fakePostRepo) GetAll(_ context.Context, skip, limit int64) ([]models.Post, int64, error) {
	var out []models.Post
	for _, p := range r.posts {
		out = append(out, *p)
	}
	return page(out, skip, limit), int64(len(r.posts)), nil
}

func (r *fakePostRepo) GetByUserID(_ context.Context, userID uint, skip, limit int64) ([]models.Post, int64, error) {
	var out []models.Post
	for _, p := range r.posts {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	return page(out, skip, limit), int64(len(out)), nil
}

func page(posts []models.Post, skip, limit int64) []models.Post {
	if skip >= int64(len(posts)) {
		return nil
	}
	end := skip + limit
	if end > int64(len(posts)) {
		end = int64(len(posts))
	}
	return posts[skip:end]
}

func (r *fakePostRepo) IncrementLikesCount(_ context.Context, id string, delta int) error {
	post, ok := r.posts[id]
	if !ok {
		return errNotFound()
	}
	post.LikesCount += delta
	return nil
}

func (r *fakePostRepo) IncrementReshareCount(_ context.Context, id string) error {
	post, ok := r.posts[id]
	if !ok {
		return errNotFound()
	}
	post.ReshareCount++
	return nil
}

func (r *fakePostRepo) AddComment(_ context.Context, postID string, comment *models.Comment) error {
	post, ok := r.posts[postID]
	if !ok {
		return errNotFound()
	}
	comment.ID = primitive.NewObjectID()
	comment.CreatedAt = time.Now()
	comment.Likes = []uint{}
	comment.Replies = []models.Reply{}
	post.Comments = append(post.Comments, *comment)
	post.CommentsCount++
	return nil
}

func (r *fakePostRepo) RemoveComment(_ context.Context, postID string, commentID primitive.ObjectID) error {
	post, ok := r.posts[postID]
	if !ok {
		return errNotFound()
	}
	for i := range post.Comments {
		if post.Comments[i].ID == commentID {
			post.Comments = append(post.Comments[:i], post.Comments[i+1:]...)
			post.CommentsCount--
			return nil
		}
	}
	return errNotFound()
}

func (r *fakePostRepo) AddReply(_ context.Context, postID string, commentID primitive.ObjectID, reply *models.Reply) error {
	comment, err := r.findComment(postID, commentID)
	if err != nil {
		return err
	}
	reply.ID = primitive.NewObjectID()
	reply.CreatedAt = time.Now()
	reply.Likes = []uint{}
	comment.Replies = append(comment.Replies, *reply)
	return nil
}

func (r *fakePostRepo) RemoveReply(_ context.Context, postID string, commentID, replyID primitive.ObjectID) error {
	comment, err := r.findComment(postID, commentID)
	if err != nil {
		return err
	}
	for i := range comment.Replies {
		if comment.Replies[i].ID == replyID {
			comment.Replies = append(comment.Replies[:i], comment.Replies[i+1:]...)
			return nil
		}
	}
	return errNotFound()
}

func (r *fakePostRepo) AddCommentLike(_ context.Context, postID string, commentID primitive.ObjectID, userID uint) (bool, error) {
	comment, err := r.findComment(postID, commentID)
	if err != nil {
		return false, err
	}
	for _, id := range comment.Likes {
		if id == userID {
			return false, nil
		}
	}
	comment.Likes = append(comment.Likes, userID)
	return true, nil
}

func (r *fakePostRepo) RemoveCommentLike(_ context.Context, postID string, commentID primitive.ObjectID, userID uint) error {
	comment, err := r.findComment(postID, commentID)
	if err != nil {
		return err
	}
	for i, id := range comment.Likes {
		if id == userID {
			comment.Likes = append(comment.Likes[:i], comment.Likes[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r *fakePostRepo) findComment(postID string, commentID primitive.ObjectID) (*models.Comment, error) {
	post, ok := r.posts[postID]
	if !ok {
		return nil, errNotFound()
	}
	for i := range post.Comments {
		if post.Comments[i].ID == commentID {
			return &post.Comments[i], nil
		}
	}
	return nil, errNotFound()
}

// fakeMessageRepo is an in-memory MessageRepository.
type fakeMessageRepo struct {
	messages []models.Message
}

func (r *fakeMessageRepo) Create(_ context.Context, message *models.Message) error {
	message.ID = primitive.NewObjectID()
	message.Status = models.MessageStatusSent
	message.Timestamp = time.Now()
	r.messages = append(r.messages, *message)
	return nil
}

func (r *fakeMessageRepo) GetConversation(_ context.Context, userA, userB uint) ([]models.Message, error) {
	var out []models.Message
	for _, m := range r.messages {
		if (m.SenderID == userA && m.RecipientID == userB) ||
			(m.SenderID == userB && m.RecipientID == userA) {
			out = append(out, m)
		}
	}
	return out, nil
}
