package handlers

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/linkupapp/backend/internal/apperrors"
	"github.com/linkupapp/backend/internal/logger"
	"github.com/linkupapp/backend/internal/models"
	"github.com/linkupapp/backend/internal/repositories"
	"github.com/linkupapp/backend/internal/storage"
	"go.uber.org/zap"
)

const maxMediaFiles = 10

// PostHandler handles post creation, reshares and feed reads.
type PostHandler struct {
	posts    repositories.PostRepository
	profiles repositories.ProfileRepository
	uploader storage.Uploader
}

func NewPostHandler(posts repositories.PostRepository, profiles repositories.ProfileRepository,
	uploader storage.Uploader) *PostHandler {
	return &PostHandler{posts: posts, profiles: profiles, uploader: uploader}
}

// RegisterPostRoutes registers the post endpoints.
func (h *PostHandler) RegisterPostRoutes(g *echo.Group) {
	g.POST("/posts", h.CreatePost)
	g.GET("/posts", h.GetPosts)
	g.GET("/posts/:post_id", h.GetPost)
	g.POST("/posts/:post_id/reshare", h.ResharePost)
	g.GET("/users/:id/posts", h.GetUserPosts)
}

// CreatePost accepts a multipart form with an optional caption and up to ten
// media files. Any upload failure aborts the request and the post is not
// created.
func (h *PostHandler) CreatePost(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)

	caption := strings.TrimSpace(c.FormValue("caption"))
	files := mediaFiles(c)
	if caption == "" && len(files) == 0 {
		return apperrors.Validation("A post needs a caption or at least one media file")
	}
	if len(files) > maxMediaFiles {
		return apperrors.Validation("Too many media files")
	}

	media, err := h.uploadMedia(c, files)
	if err != nil {
		return err
	}

	post := models.Post{
		UserID:  currentUserID,
		Caption: caption,
		Media:   media,
	}
	if err := h.posts.Create(c.Request().Context(), &post); err != nil {
		return err
	}
	if err := h.profiles.IncrementPostsCount(currentUserID); err != nil {
		logger.Log.Error("Failed to bump posts count",
			zap.Uint("profile_id", currentUserID), zap.Error(err))
	}

	logger.Log.Info("Post created",
		zap.String("post_id", post.ID.Hex()), zap.Uint("profile_id", currentUserID))
	return respond(c, http.StatusCreated, "Post created successfully", post)
}

// ResharePost republishes an existing post under the caller's account. The
// reshare carries the original's caption and media and points back at it.
func (h *PostHandler) ResharePost(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	ctx := c.Request().Context()

	original, err := h.posts.GetByID(ctx, c.Param("post_id"))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperrors.NotFound("Post not found")
		}
		return err
	}

	// Resharing a reshare attributes back to the root post.
	originalID := original.ID
	if original.IsReshare && original.OriginalPost != nil {
		originalID = *original.OriginalPost
	}

	reshare := models.Post{
		UserID:       currentUserID,
		Caption:      original.Caption,
		Media:        original.Media,
		IsReshare:    true,
		OriginalPost: &originalID,
	}
	if err := h.posts.Create(ctx, &reshare); err != nil {
		return err
	}
	if err := h.posts.IncrementReshareCount(ctx, originalID.Hex()); err != nil {
		logger.Log.Error("Failed to bump reshare count",
			zap.String("post_id", originalID.Hex()), zap.Error(err))
	}
	if err := h.profiles.IncrementPostsCount(currentUserID); err != nil {
		logger.Log.Error("Failed to bump posts count",
			zap.Uint("profile_id", currentUserID), zap.Error(err))
	}

	return respond(c, http.StatusCreated, "Post reshared successfully", reshare)
}

// GetPosts returns the global feed, newest first.
func (h *PostHandler) GetPosts(c echo.Context) error {
	page, limit := pageParams(c)
	posts, total, err := h.posts.GetAll(c.Request().Context(),
		int64((page-1)*limit), int64(limit))
	if err != nil {
		return err
	}
	return respondOK(c, "Posts retrieved successfully", echo.Map{
		"posts":      posts,
		"pagination": paginationMeta(page, limit, total),
	})
}

// GetPost returns a single post with its embedded comments.
func (h *PostHandler) GetPost(c echo.Context) error {
	post, err := h.posts.GetByID(c.Request().Context(), c.Param("post_id"))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperrors.NotFound("Post not found")
		}
		return err
	}
	return respondOK(c, "Post retrieved successfully", post)
}

// GetUserPosts returns one user's posts, newest first.
func (h *PostHandler) GetUserPosts(c echo.Context) error {
	userID := parseUintParam(c, "id")
	if userID == 0 {
		return apperrors.Validation("Invalid user id")
	}

	page, limit := pageParams(c)
	posts, total, err := h.posts.GetByUserID(c.Request().Context(), userID,
		int64((page-1)*limit), int64(limit))
	if err != nil {
		return err
	}
	return respondOK(c, "Posts retrieved successfully", echo.Map{
		"posts":      posts,
		"pagination": paginationMeta(page, limit, total),
	})
}

func (h *PostHandler) uploadMedia(c echo.Context, files []*multipart.FileHeader) ([]models.MediaItem, error) {
	if len(files) == 0 {
		return nil, nil
	}

	media := make([]models.MediaItem, 0, len(files))
	for _, fh := range files {
		src, err := fh.Open()
		if err != nil {
			return nil, apperrors.Validation("Could not read uploaded file")
		}
		data, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			return nil, apperrors.Validation("Could not read uploaded file")
		}

		resourceType := models.MediaTypeImage
		if strings.HasPrefix(fh.Header.Get("Content-Type"), "video/") {
			resourceType = models.MediaTypeVideo
		}

		url, err := h.uploader.Upload(c.Request().Context(), data, fh.Filename, resourceType)
		if err != nil {
			logger.Log.Error("Media upload failed",
				zap.String("filename", fh.Filename), zap.Error(err))
			return nil, apperrors.Upstream("media storage")
		}
		media = append(media, models.MediaItem{URL: url, Type: resourceType})
	}
	return media, nil
}

func mediaFiles(c echo.Context) []*multipart.FileHeader {
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		return nil
	}
	return form.File["media"]
}
