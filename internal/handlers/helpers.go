package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/linkupapp/backend/internal/models"
)

// Pusher delivers best-effort real-time events to connected clients. The hub
// implements it; handlers never block on delivery.
type Pusher interface {
	EmitToUser(userID uint, event string, payload interface{})
}

// getUserIDFromContext extracts the authenticated user's id set by the JWT
// middleware. Returns 0 when the request is unauthenticated.
func getUserIDFromContext(c echo.Context) uint {
	claims, ok := c.Get("user").(*models.JwtCustomClaims)
	if !ok {
		return 0
	}
	return claims.UserID
}

// respond writes the standard success envelope.
func respond(c echo.Context, status int, message string, data interface{}) error {
	body := echo.Map{"success": true, "message": message}
	if data != nil {
		body["data"] = data
	}
	return c.JSON(status, body)
}

func respondOK(c echo.Context, message string, data interface{}) error {
	return respond(c, http.StatusOK, message, data)
}

// pageParams reads ?page and ?limit with sane defaults and an upper bound.
func pageParams(c echo.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}
	return page, limit
}

// paginationMeta is the pagination block attached to list responses.
func paginationMeta(page, limit int, total int64) echo.Map {
	totalPages := total / int64(limit)
	if total%int64(limit) != 0 {
		totalPages++
	}
	return echo.Map{
		"page":        page,
		"limit":       limit,
		"total":       total,
		"total_pages": totalPages,
	}
}

// parseUintParam parses a numeric path parameter, returning 0 on garbage.
func parseUintParam(c echo.Context, name string) uint {
	v, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		return 0
	}
	return uint(v)
}
