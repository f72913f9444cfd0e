package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vidtube/backend/internal/config"
	"github.com/vidtube/backend/internal/model"
)

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		AccessTokenSecret:  "access-secret",
		AccessTokenTTL:     "15m",
		RefreshTokenSecret: "refresh-secret",
		RefreshTokenTTL:    "240h",
	}
}

func TestNewTokenManager_Misconfigured(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.AuthConfig)
	}{
		{"missing access secret", func(c *config.AuthConfig) { c.AccessTokenSecret = "" }},
		{"missing refresh secret", func(c *config.AuthConfig) { c.RefreshTokenSecret = " " }},
		{"shared secret", func(c *config.AuthConfig) { c.RefreshTokenSecret = c.AccessTokenSecret }},
		{"bad access ttl", func(c *config.AuthConfig) { c.AccessTokenTTL = "1d" }},
		{"negative refresh ttl", func(c *config.AuthConfig) { c.RefreshTokenTTL = "-1h" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testAuthConfig()
			tt.mutate(&cfg)
			_, err := NewTokenManager(newMemStore(), cfg)
			require.ErrorIs(t, err, ErrMisconfigured)
		})
	}
}

func TestIssueTokenPair_PersistsRefreshToken(t *testing.T) {
	store := newMemStore()
	user := &model.User{Username: "alice", Email: "alice@example.com", FullName: "Alice"}
	require.NoError(t, store.CreateUser(context.Background(), user))

	tokens, err := NewTokenManager(store, testAuthConfig())
	require.NoError(t, err)

	pair, err := tokens.IssueTokenPair(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, pair.RefreshToken, store.stored(user.ID).RefreshToken)

	sub, err := tokens.ParseAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, sub)

	sub, err = tokens.ParseRefreshToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, sub)

	again, err := tokens.IssueTokenPair(context.Background(), user.ID)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, again.RefreshToken)
}

func TestIssueTokenPair_UnknownUser(t *testing.T) {
	tokens, err := NewTokenManager(newMemStore(), testAuthConfig())
	require.NoError(t, err)

	_, err = tokens.IssueTokenPair(context.Background(), bson.NewObjectID())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestParseTokens_SecretsAreNotInterchangeable(t *testing.T) {
	store := newMemStore()
	user := &model.User{Username: "bob", Email: "bob@example.com"}
	require.NoError(t, store.CreateUser(context.Background(), user))

	tokens, err := NewTokenManager(store, testAuthConfig())
	require.NoError(t, err)
	pair, err := tokens.IssueTokenPair(context.Background(), user.ID)
	require.NoError(t, err)

	_, err = tokens.ParseAccessToken(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = tokens.ParseRefreshToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = tokens.ParseAccessToken("not-a-jwt")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestParseAccessToken_Expired(t *testing.T) {
	store := newMemStore()
	user := &model.User{Username: "carol", Email: "carol@example.com"}
	require.NoError(t, store.CreateUser(context.Background(), user))

	tokens, err := NewTokenManager(store, testAuthConfig())
	require.NoError(t, err)

	issuedAt := time.Now().Add(-time.Hour)
	tokens.now = func() time.Time { return issuedAt }
	pair, err := tokens.IssueTokenPair(context.Background(), user.ID)
	require.NoError(t, err)

	tokens.now = time.Now
	_, err = tokens.ParseAccessToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrUnauthorized)

	// refresh TTL은 아직 남아 있음
	_, err = tokens.ParseRefreshToken(pair.RefreshToken)
	assert.NoError(t, err)
}
