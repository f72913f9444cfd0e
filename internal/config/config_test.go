package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "MONGODB_URI", "DB_NAME", "ACCESS_TOKEN_EXPIRY", "REFRESH_TOKEN_EXPIRY",
		"UPLOAD_DIR", "S3_REGION", "S3_BUCKET", "KAFKA_BROKERS", "KAFKA_TOPIC", "CORS_ORIGIN", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "./public/temp", cfg.Server.UploadDir)
	assert.Equal(t, "mongodb://localhost:27017", cfg.Mongo.URI)
	assert.Equal(t, "videotube", cfg.Mongo.Database)
	assert.Equal(t, "15m", cfg.Auth.AccessTokenTTL)
	assert.Equal(t, "240h", cfg.Auth.RefreshTokenTTL)
	assert.Equal(t, "us-east-1", cfg.Media.Region)
	assert.Equal(t, "user_events", cfg.Events.Topic)
	assert.Empty(t, cfg.Events.Brokers)
	assert.Empty(t, cfg.Server.AllowedOrigins)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_ReadsEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ACCESS_TOKEN_SECRET", "access")
	t.Setenv("REFRESH_TOKEN_SECRET", "refresh")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("CORS_ORIGIN", "http://localhost:5173")
	t.Setenv("GIN_MODE", "debug")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "access", cfg.Auth.AccessTokenSecret)
	assert.Equal(t, "refresh", cfg.Auth.RefreshTokenSecret)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Events.Brokers)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "debug", cfg.Server.GinMode)
	assert.Equal(t, "debug", cfg.Auth.Mode)
}
