// Process configuration, read once at startup from the environment.
//
// A .env file in the working directory is loaded first when present; variables
// already set in the process environment win over it.

package config

import (
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Mongo    MongoConfig
	Auth     AuthConfig
	Media    MediaConfig
	Events   EventsConfig
	LogLevel string
}

type ServerConfig struct {
	Port           string
	GinMode        string
	AllowedOrigins []string
	UploadDir      string
	MaxUploadMB    string
}

type MongoConfig struct {
	URI      string
	Database string
}

// AuthConfig keeps raw values; the token manager parses and validates them.
type AuthConfig struct {
	AccessTokenSecret  string
	AccessTokenTTL     string
	RefreshTokenSecret string
	RefreshTokenTTL    string
	CookieSecure       string
	CookieSameSite     string
	CookieDomain       string
	// Mode mirrors GIN_MODE; insecure cookies are refused outside debug.
	Mode string
}

type MediaConfig struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	PublicURL string
}

type EventsConfig struct {
	Brokers []string
	Topic   string
}

func Load() Config {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file loaded, using process environment", "reason", err.Error())
	}

	return Config{
		Server: ServerConfig{
			Port:           getenv("PORT", "8000"),
			GinMode:        os.Getenv("GIN_MODE"),
			AllowedOrigins: splitList(os.Getenv("CORS_ORIGIN")),
			UploadDir:      getenv("UPLOAD_DIR", "./public/temp"),
			MaxUploadMB:    getenv("MAX_UPLOAD_MB", "16"),
		},
		Mongo: MongoConfig{
			URI:      getenv("MONGODB_URI", "mongodb://localhost:27017"),
			Database: getenv("DB_NAME", "videotube"),
		},
		Auth: AuthConfig{
			AccessTokenSecret:  os.Getenv("ACCESS_TOKEN_SECRET"),
			AccessTokenTTL:     getenv("ACCESS_TOKEN_EXPIRY", "15m"),
			RefreshTokenSecret: os.Getenv("REFRESH_TOKEN_SECRET"),
			RefreshTokenTTL:    getenv("REFRESH_TOKEN_EXPIRY", "240h"),
			CookieSecure:       os.Getenv("COOKIE_SECURE"),
			CookieSameSite:     os.Getenv("COOKIE_SAMESITE"),
			CookieDomain:       os.Getenv("COOKIE_DOMAIN"),
			Mode:               os.Getenv("GIN_MODE"),
		},
		Media: MediaConfig{
			Endpoint:  os.Getenv("S3_ENDPOINT"),
			Region:    getenv("S3_REGION", "us-east-1"),
			Bucket:    getenv("S3_BUCKET", "videotube"),
			AccessKey: os.Getenv("S3_ACCESS_KEY"),
			SecretKey: os.Getenv("S3_SECRET_KEY"),
			PublicURL: os.Getenv("MEDIA_PUBLIC_URL"),
		},
		Events: EventsConfig{
			Brokers: splitList(os.Getenv("KAFKA_BROKERS")),
			Topic:   getenv("KAFKA_TOPIC", "user_events"),
		},
		LogLevel: getenv("LOG_LEVEL", "info"),
	}
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
