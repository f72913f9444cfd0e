package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestUserProfileOmitsSecrets(t *testing.T) {
	u := &User{
		ID:           bson.NewObjectID(),
		Username:     "alice",
		Email:        "alice@example.com",
		FullName:     "Alice",
		Avatar:       "https://cdn.example.com/a.png",
		Password:     "$2a$10$hash",
		RefreshToken: "refresh-token",
		CreatedAt:    time.Now(),
	}

	raw, err := json.Marshal(u.Profile())
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))

	assert.NotContains(t, fields, "password")
	assert.NotContains(t, fields, "refreshToken")
	assert.Equal(t, u.ID.Hex(), fields["_id"])
	assert.Equal(t, []any{}, fields["watchHistory"])
}
