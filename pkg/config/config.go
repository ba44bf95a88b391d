package config

import "os"

type Config struct {
	Port     string
	Env      string
	LogLevel string
	LogFile  string

	PostgresURL   string
	MongoURI      string
	MongoDatabase string
	RedisURL      string

	JWTSecret string

	AWSRegion     string
	S3Bucket      string
	S3BaseURL     string
	EmailFrom     string
	EmailFromName string

	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFrom       string
}

func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  getEnv("LOG_FILE", "server.log"),

		PostgresURL:   getEnv("POSTGRES_CONN_STR", ""),
		MongoURI:      getEnv("MONGO_URI", ""),
		MongoDatabase: getEnv("MONGO_DATABASE", "linkup"),
		RedisURL:      getEnv("REDIS_URL", ""),

		JWTSecret: getEnv("JWT_SECRET", "supersecretjwtkey"),

		AWSRegion:     getEnv("AWS_REGION", "us-east-1"),
		S3Bucket:      getEnv("S3_BUCKET", ""),
		S3BaseURL:     getEnv("S3_BASE_URL", ""),
		EmailFrom:     getEnv("EMAIL_FROM", "no-reply@linkup.app"),
		EmailFromName: getEnv("EMAIL_FROM_NAME", "LinkUp"),

		TwilioAccountSID: getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:  getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioFrom:       getEnv("TWILIO_FROM", ""),
	}
}

// IsDevelopment reports whether the process runs in development mode.
// Verification codes may only ever appear in API responses when this is true.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
