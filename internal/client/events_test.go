package client

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidtube/backend/internal/config"
	"github.com/vidtube/backend/internal/model"
)

func TestEventMessage(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	msg, err := eventMessage(model.AccountEvent{
		Type:       model.EventUserLoggedIn,
		UserID:     "64b7f0c2a1b2c3d4e5f60718",
		Username:   "alice",
		OccurredAt: at,
	})
	require.NoError(t, err)

	assert.Equal(t, []byte("64b7f0c2a1b2c3d4e5f60718"), msg.Key)
	assert.Equal(t, at, msg.Time)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "user.logged_in", decoded["type"])
	assert.Equal(t, "alice", decoded["username"])
}

func TestEventMessage_StampsTime(t *testing.T) {
	msg, err := eventMessage(model.AccountEvent{Type: model.EventUserLoggedOut, UserID: "u1"})
	require.NoError(t, err)
	assert.False(t, msg.Time.IsZero())
}

func TestNewKafkaPublisher_RequiresBrokers(t *testing.T) {
	_, err := NewKafkaPublisher(config.EventsConfig{Topic: "user_events"})
	assert.Error(t, err)

	p, err := NewKafkaPublisher(config.EventsConfig{Brokers: []string{"localhost:9092"}, Topic: "user_events"})
	require.NoError(t, err)
	assert.NoError(t, p.Close())
}

func TestNopPublisher(t *testing.T) {
	var p NopPublisher
	assert.NoError(t, p.Publish(context.Background(), model.AccountEvent{}))
	assert.NoError(t, p.Close())
}
