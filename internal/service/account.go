package service

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/model"
)

type accountStore interface {
	UpdateAccount(ctx context.Context, userID bson.ObjectID, fullName, email string) (*model.User, error)
	UpdateAvatar(ctx context.Context, userID bson.ObjectID, url string) (*model.User, error)
	UpdateCoverImage(ctx context.Context, userID bson.ObjectID, url string) (*model.User, error)
}

// AccountService - 인증된 사용자의 프로필 필드 변경
type AccountService struct {
	store accountStore
	media mediaStore
}

func NewAccountService(store accountStore, media mediaStore) *AccountService {
	return &AccountService{store: store, media: media}
}

func (s *AccountService) CurrentUser(user *model.User) model.UserProfile {
	return user.Profile()
}

func (s *AccountService) UpdateAccount(ctx context.Context, userID bson.ObjectID, fullName, email string) (model.UserProfile, error) {
	fullName = strings.TrimSpace(fullName)
	email = normalizeEmail(email)
	if fullName == "" || email == "" {
		return model.UserProfile{}, newError(ErrInvalidInput, "fullName and email are required")
	}

	user, err := s.store.UpdateAccount(ctx, userID, fullName, email)
	if err != nil {
		return model.UserProfile{}, storeUpdateError(err, "update account")
	}
	return user.Profile(), nil
}

func (s *AccountService) UpdateAvatar(ctx context.Context, current *model.User, localPath string) (model.UserProfile, error) {
	return s.replaceImage(ctx, current, localPath, "avatar", current.Avatar, s.store.UpdateAvatar)
}

func (s *AccountService) UpdateCoverImage(ctx context.Context, current *model.User, localPath string) (model.UserProfile, error) {
	return s.replaceImage(ctx, current, localPath, "cover image", current.CoverImage, s.store.UpdateCoverImage)
}

type imageSetter func(ctx context.Context, userID bson.ObjectID, url string) (*model.User, error)

// replaceImage - 새 이미지 업로드 후 URL 교체, 이전 오브젝트는 best-effort 삭제
func (s *AccountService) replaceImage(ctx context.Context, current *model.User, localPath, field, previousURL string, set imageSetter) (model.UserProfile, error) {
	if strings.TrimSpace(localPath) == "" {
		return model.UserProfile{}, newError(ErrInvalidInput, field+" file is missing")
	}

	res := s.media.Upload(ctx, localPath)
	if !res.Uploaded() {
		logging.FromContext(ctx).Warn("image upload failed", "field", field, "error", res.Err)
		return model.UserProfile{}, newError(ErrUploadFailed, "error while uploading "+field)
	}

	user, err := set(ctx, current.ID, res.URL)
	if err != nil {
		s.deleteQuietly(ctx, res.Key)
		return model.UserProfile{}, storeUpdateError(err, "update "+field)
	}

	if key, ok := s.media.KeyFromURL(previousURL); ok && key != res.Key {
		s.deleteQuietly(ctx, key)
	}
	return user.Profile(), nil
}

func (s *AccountService) deleteQuietly(ctx context.Context, key string) {
	if err := s.media.Delete(ctx, key); err != nil {
		logging.FromContext(ctx).Warn("failed to delete media object", "key", key, "error", err)
	}
}

func storeUpdateError(err error, op string) error {
	switch {
	case db.IsNotFound(err):
		return newError(ErrNotFound, "user not found")
	case db.IsDuplicateKey(err):
		return newError(ErrConflict, "email is already in use")
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
