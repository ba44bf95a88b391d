package router

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/linkupapp/backend/internal/apperrors"
	"github.com/linkupapp/backend/internal/email"
	"github.com/linkupapp/backend/internal/handlers"
	"github.com/linkupapp/backend/internal/logger"
	"github.com/linkupapp/backend/internal/middleware"
	"github.com/linkupapp/backend/internal/models"
	"github.com/linkupapp/backend/internal/realtime"
	"github.com/linkupapp/backend/internal/repositories"
	"github.com/linkupapp/backend/internal/sms"
	"github.com/linkupapp/backend/internal/storage"
	"github.com/linkupapp/backend/pkg/config"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Auth endpoints share one fixed-window budget per client IP.
const (
	authRateLimit  = 20
	authRateWindow = time.Minute
)

// Dependencies carries everything the routes need. Wiring happens here, in
// one place, so handlers stay constructor-injected and testable.
type Dependencies struct {
	Config   *config.Config
	Postgres *gorm.DB
	Mongo    *mongo.Client
	Redis    *redis.Client
	Uploader storage.Uploader
	Email    email.Sender
	SMS      sms.Sender
	Hub      *realtime.Hub
}

// SetupMiddleware configures global Echo middleware.
func SetupMiddleware(e *echo.Echo) {
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
	e.Use(middleware.RequestID())
	e.HTTPErrorHandler = httpErrorHandler
}

// SetupRoutes migrates the relational schema, builds the repositories and
// handlers, and mounts every route group.
func SetupRoutes(e *echo.Echo, deps Dependencies) error {
	if err := deps.Postgres.AutoMigrate(
		&models.Profile{},
		&models.Follow{},
		&models.Like{},
		&models.Notification{},
	); err != nil {
		return err
	}
	logger.Log.Info("PostgreSQL auto-migrations completed")

	mongoDB := deps.Mongo.Database(deps.Config.MongoDatabase)

	profileRepo := repositories.NewPostgresProfileRepository(deps.Postgres)
	followRepo := repositories.NewPostgresFollowRepository(deps.Postgres)
	likeRepo := repositories.NewPostgresLikeRepository(deps.Postgres)
	notificationRepo := repositories.NewPostgresNotificationRepository(deps.Postgres)
	postRepo := repositories.NewMongoPostRepository(mongoDB)
	messageRepo := repositories.NewMongoMessageRepository(mongoDB)

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	// Websocket push channel; authenticates via query token on the handshake.
	wsHandler := realtime.NewHandler(deps.Hub, deps.Config.JWTSecret)
	e.GET("/ws", wsHandler.Serve)

	authGroup := e.Group("/api/v1/auth")
	authGroup.Use(middleware.RedisRateLimit(deps.Redis, authRateLimit, authRateWindow))
	authHandler := handlers.NewAuthHandler(profileRepo, deps.Email, deps.SMS, deps.Config)
	authHandler.RegisterAuthRoutes(authGroup)

	api := e.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware(deps.Config.JWTSecret))

	profileHandler := handlers.NewProfileHandler(profileRepo)
	profileHandler.RegisterProfileRoutes(api)

	followHandler := handlers.NewFollowHandler(followRepo, profileRepo, notificationRepo, deps.Hub)
	followHandler.RegisterFollowRoutes(api)

	postHandler := handlers.NewPostHandler(postRepo, profileRepo, deps.Uploader)
	postHandler.RegisterPostRoutes(api)

	likeHandler := handlers.NewLikeHandler(likeRepo, postRepo, profileRepo, notificationRepo, deps.Hub)
	likeHandler.RegisterLikeRoutes(api)

	commentHandler := handlers.NewCommentHandler(postRepo, profileRepo, notificationRepo, deps.Hub)
	commentHandler.RegisterCommentRoutes(api)

	notificationHandler := handlers.NewNotificationHandler(notificationRepo, profileRepo)
	notificationHandler.RegisterNotificationRoutes(api)

	chatHandler := handlers.NewChatHandler(messageRepo, followRepo, profileRepo, deps.Hub)
	chatHandler.RegisterChatRoutes(api)

	logger.Log.Info("All routes configured")
	return nil
}

// httpErrorHandler turns every error into the uniform envelope. Unclassified
// errors become opaque 500s; their details go to the log, not the client.
func httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var status int
	var code apperrors.Code
	var message string

	var apiErr *apperrors.APIError
	var httpErr *echo.HTTPError
	switch {
	case errors.As(err, &apiErr):
		status, code, message = apiErr.Status(), apiErr.Code, apiErr.Message
	case errors.As(err, &httpErr):
		status = httpErr.Code
		code = codeForStatus(status)
		message = http.StatusText(status)
		if s, ok := httpErr.Message.(string); ok {
			message = s
		}
	default:
		logger.Log.Error("Unhandled error",
			zap.String("path", c.Path()),
			zap.String("method", c.Request().Method),
			zap.Error(err))
		internal := apperrors.Internal()
		status, code, message = internal.Status(), internal.Code, internal.Message
	}

	body := echo.Map{
		"success": false,
		"code":    code,
		"message": message,
	}
	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, body)
	}
	if err != nil {
		logger.Log.Error("Failed to write error response", zap.Error(err))
	}
}

func codeForStatus(status int) apperrors.Code {
	switch status {
	case http.StatusBadRequest:
		return apperrors.CodeValidation
	case http.StatusUnauthorized:
		return apperrors.CodeUnauthorized
	case http.StatusForbidden:
		return apperrors.CodeForbidden
	case http.StatusNotFound:
		return apperrors.CodeNotFound
	case http.StatusConflict:
		return apperrors.CodeConflict
	case http.StatusTooManyRequests:
		return apperrors.CodeRateLimited
	case http.StatusServiceUnavailable, http.StatusBadGateway:
		return apperrors.CodeUpstream
	default:
		return apperrors.CodeInternal
	}
}
