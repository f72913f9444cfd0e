package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/vidtube/backend/internal/model"
)

func TestGetChannelProfile(t *testing.T) {
	viewer := bson.NewObjectID()
	store := &fakeProfileStore{channel: &model.ChannelProfile{
		Username:         "bob",
		SubscribersCount: 1,
		IsSubscribed:     true,
	}}
	svc := NewProfileService(store)

	channel, err := svc.GetChannelProfile(context.Background(), &viewer, "  BoB ")
	require.NoError(t, err)
	assert.Equal(t, "bob", store.gotUsername)
	assert.Equal(t, &viewer, store.gotViewer)
	assert.EqualValues(t, 1, channel.SubscribersCount)
	assert.True(t, channel.IsSubscribed)
}

func TestGetChannelProfile_Errors(t *testing.T) {
	tests := []struct {
		name     string
		username string
		storeErr error
		want     error
	}{
		{"blank username", "   ", nil, ErrInvalidInput},
		{"missing channel", "ghost", mongo.ErrNoDocuments, ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewProfileService(&fakeProfileStore{err: tt.storeErr})
			_, err := svc.GetChannelProfile(context.Background(), nil, tt.username)
			require.ErrorIs(t, err, tt.want)
		})
	}

	svc := NewProfileService(&fakeProfileStore{err: errors.New("connection reset")})
	_, err := svc.GetChannelProfile(context.Background(), nil, "bob")
	require.Error(t, err)
	var svcErr *Error
	assert.False(t, errors.As(err, &svcErr))
}

func TestGetWatchHistory(t *testing.T) {
	first, second := bson.NewObjectID(), bson.NewObjectID()
	store := &fakeProfileStore{history: []model.WatchedVideo{
		{ID: first, Title: "first", Owner: &model.VideoOwner{Username: "bob"}},
		{ID: second, Title: "second", Owner: &model.VideoOwner{Username: "carol"}},
	}}
	svc := NewProfileService(store)

	history, err := svc.GetWatchHistory(context.Background(), bson.NewObjectID())
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, first, history[0].ID)
	assert.Equal(t, "carol", history[1].Owner.Username)

	_, err = NewProfileService(&fakeProfileStore{err: mongo.ErrNoDocuments}).GetWatchHistory(context.Background(), bson.NewObjectID())
	require.ErrorIs(t, err, ErrNotFound)
}
