package service

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/model"
)

type profileStore interface {
	GetChannelProfile(ctx context.Context, username string, viewerID *bson.ObjectID) (*model.ChannelProfile, error)
	GetWatchHistory(ctx context.Context, userID bson.ObjectID) ([]model.WatchedVideo, error)
}

// ProfileService - 채널 프로필 / 시청 기록 aggregation 조회
type ProfileService struct {
	store profileStore
}

func NewProfileService(store profileStore) *ProfileService {
	return &ProfileService{store: store}
}

// GetChannelProfile - viewerID가 nil이면 익명 조회 (isSubscribed는 항상 false)
func (s *ProfileService) GetChannelProfile(ctx context.Context, viewerID *bson.ObjectID, username string) (*model.ChannelProfile, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return nil, newError(ErrInvalidInput, "username is missing")
	}

	channel, err := s.store.GetChannelProfile(ctx, username, viewerID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, newError(ErrNotFound, "channel does not exist")
		}
		return nil, fmt.Errorf("get channel profile: %w", err)
	}
	return channel, nil
}

func (s *ProfileService) GetWatchHistory(ctx context.Context, userID bson.ObjectID) ([]model.WatchedVideo, error) {
	history, err := s.store.GetWatchHistory(ctx, userID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, newError(ErrNotFound, "user not found")
		}
		return nil, fmt.Errorf("get watch history: %w", err)
	}
	return history, nil
}
