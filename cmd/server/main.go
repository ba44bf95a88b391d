package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/linkupapp/backend/internal/email"
	"github.com/linkupapp/backend/internal/logger"
	"github.com/linkupapp/backend/internal/realtime"
	"github.com/linkupapp/backend/internal/router"
	"github.com/linkupapp/backend/internal/sms"
	"github.com/linkupapp/backend/internal/storage"
	"github.com/linkupapp/backend/pkg/config"
	"github.com/linkupapp/backend/validators"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// Load environment variables from .env file, if present
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, assuming environment variables are set.")
	}

	cfg := config.Load()

	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	db, err := config.InitDB(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to initialize databases", zap.Error(err))
	}
	defer db.CloseDB()

	uploader, err := storage.NewS3Uploader(cfg.AWSRegion, cfg.S3Bucket, cfg.S3BaseURL)
	if err != nil {
		logger.Log.Fatal("Failed to initialize media storage", zap.Error(err))
	}
	emailSender, err := email.NewSESSender(cfg.AWSRegion, cfg.EmailFrom, cfg.EmailFromName)
	if err != nil {
		logger.Log.Fatal("Failed to initialize email sender", zap.Error(err))
	}
	smsSender := sms.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFrom)

	redisClient := newRedisClient(cfg.RedisURL)

	hub := realtime.NewHub()

	e := echo.New()
	e.HideBanner = true
	e.Validator = validators.NewValidator()

	router.SetupMiddleware(e)
	err = router.SetupRoutes(e, router.Dependencies{
		Config:   cfg,
		Postgres: db.Postgres,
		Mongo:    db.Mongo,
		Redis:    redisClient,
		Uploader: uploader,
		Email:    emailSender,
		SMS:      smsSender,
		Hub:      hub,
	})
	if err != nil {
		logger.Log.Fatal("Failed to set up routes", zap.Error(err))
	}

	logger.Log.Info("Starting server", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}

// newRedisClient connects to Redis for rate limiting. A missing or bad URL
// disables the limiter rather than blocking startup.
func newRedisClient(url string) *redis.Client {
	if url == "" {
		logger.Log.Warn("REDIS_URL not set, auth rate limiting disabled")
		return nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		logger.Log.Warn("Invalid REDIS_URL, auth rate limiting disabled", zap.Error(err))
		return nil
	}
	return redis.NewClient(opts)
}
