package handlers

import (
	"errors"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/linkupapp/backend/internal/apperrors"
	"github.com/linkupapp/backend/internal/models"
	"github.com/linkupapp/backend/internal/repositories"
	"gorm.io/gorm"
)

// ProfileHandler serves the caller's own profile plus public profile reads.
type ProfileHandler struct {
	profiles repositories.ProfileRepository
}

func NewProfileHandler(profiles repositories.ProfileRepository) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// RegisterProfileRoutes registers the profile endpoints.
func (h *ProfileHandler) RegisterProfileRoutes(g *echo.Group) {
	g.GET("/profile", h.GetMyProfile)
	g.PUT("/profile", h.UpdateMyProfile)
	g.GET("/users/search", h.SearchUsers)
	g.GET("/users/:id", h.GetUser)
}

// GetMyProfile returns the authenticated user's full profile.
func (h *ProfileHandler) GetMyProfile(c echo.Context) error {
	profile, err := h.profiles.GetByID(getUserIDFromContext(c))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("User not found")
		}
		return err
	}
	return respondOK(c, "Profile retrieved successfully", profile)
}

// UpdateMyProfile applies a partial update to the caller's profile. Zero
// values are left untouched; is_private uses a pointer so it can be set to
// false explicitly.
func (h *ProfileHandler) UpdateMyProfile(c echo.Context) error {
	var req models.UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.Validation("Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	profile, err := h.profiles.GetByID(getUserIDFromContext(c))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("User not found")
		}
		return err
	}

	if req.Name != "" {
		profile.Name = req.Name
	}
	if req.Username != nil {
		username := strings.ToLower(strings.TrimSpace(*req.Username))
		profile.Username = &username
	}
	if req.Bio != "" {
		profile.Bio = req.Bio
	}
	if req.Avatar != "" {
		profile.Avatar = req.Avatar
	}
	if req.Location != "" {
		profile.Location = req.Location
	}
	if req.Website != "" {
		profile.Website = req.Website
	}
	if req.IsPrivate != nil {
		profile.IsPrivate = *req.IsPrivate
	}

	if err := h.profiles.Update(profile); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.Conflict("Username is already taken")
		}
		return err
	}
	return respondOK(c, "Profile updated successfully", profile)
}

// GetUser returns another user's public profile.
func (h *ProfileHandler) GetUser(c echo.Context) error {
	userID := parseUintParam(c, "id")
	if userID == 0 {
		return apperrors.Validation("Invalid user id")
	}
	profile, err := h.profiles.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("User not found")
		}
		return err
	}
	return respondOK(c, "User retrieved successfully", profile)
}

// SearchUsers finds profiles by name, username or email fragment.
func (h *ProfileHandler) SearchUsers(c echo.Context) error {
	query := strings.TrimSpace(c.QueryParam("q"))
	if query == "" {
		return apperrors.Validation("Search query is required")
	}
	profiles, err := h.profiles.Search(query)
	if err != nil {
		return err
	}

	results := make([]models.ProfileCompact, 0, len(profiles))
	for i := range profiles {
		results = append(results, profiles[i].ToCompact())
	}
	return respondOK(c, "Users retrieved successfully", echo.Map{"users": results})
}
