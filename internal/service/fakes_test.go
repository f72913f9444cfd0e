package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/vidtube/backend/internal/client"
	"github.com/vidtube/backend/internal/model"
)

var errDuplicateKey = mongo.WriteException{
	WriteErrors: []mongo.WriteError{{Code: 11000, Message: "E11000 duplicate key error"}},
}

type memStore struct {
	mu    sync.Mutex
	users map[bson.ObjectID]*model.User

	// UserExists 검사를 통과한 뒤 insert 단계에서 중복이 발생하는 경쟁 상황 재현
	forceDuplicateOnCreate bool
}

func newMemStore() *memStore {
	return &memStore{users: map[bson.ObjectID]*model.User{}}
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

func (s *memStore) stored(id bson.ObjectID) model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.users[id]
}

func (s *memStore) CreateUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.forceDuplicateOnCreate {
		return errDuplicateKey
	}
	for _, u := range s.users {
		if u.Email == user.Email || u.Username == user.Username {
			return errDuplicateKey
		}
	}
	now := time.Now().UTC()
	user.ID = bson.NewObjectID()
	user.CreatedAt, user.UpdatedAt = now, now
	if user.WatchHistory == nil {
		user.WatchHistory = []bson.ObjectID{}
	}
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *memStore) GetUserByID(ctx context.Context, userID bson.ObjectID) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	cp := *u
	return &cp, nil
}

func (s *memStore) FindUserByLogin(ctx context.Context, email, username string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if (email != "" && u.Email == email) || (username != "" && u.Username == username) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (s *memStore) UserExists(ctx context.Context, email, username string) (bool, error) {
	_, err := s.FindUserByLogin(ctx, email, username)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	return err == nil, err
}

func (s *memStore) mutate(userID bson.ObjectID, fn func(u *model.User)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return mongo.ErrNoDocuments
	}
	fn(u)
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *memStore) SetRefreshToken(ctx context.Context, userID bson.ObjectID, token string) error {
	return s.mutate(userID, func(u *model.User) { u.RefreshToken = token })
}

func (s *memStore) ClearRefreshToken(ctx context.Context, userID bson.ObjectID) error {
	return s.mutate(userID, func(u *model.User) { u.RefreshToken = "" })
}

func (s *memStore) UpdatePassword(ctx context.Context, userID bson.ObjectID, passwordHash string) error {
	return s.mutate(userID, func(u *model.User) {
		u.Password = passwordHash
		u.RefreshToken = ""
	})
}

func (s *memStore) UpdateAccount(ctx context.Context, userID bson.ObjectID, fullName, email string) (*model.User, error) {
	s.mu.Lock()
	for id, u := range s.users {
		if id != userID && u.Email == email {
			s.mu.Unlock()
			return nil, errDuplicateKey
		}
	}
	s.mu.Unlock()

	if err := s.mutate(userID, func(u *model.User) {
		u.FullName = fullName
		u.Email = email
	}); err != nil {
		return nil, err
	}
	return s.GetUserByID(ctx, userID)
}

func (s *memStore) UpdateAvatar(ctx context.Context, userID bson.ObjectID, url string) (*model.User, error) {
	if err := s.mutate(userID, func(u *model.User) { u.Avatar = url }); err != nil {
		return nil, err
	}
	return s.GetUserByID(ctx, userID)
}

func (s *memStore) UpdateCoverImage(ctx context.Context, userID bson.ObjectID, url string) (*model.User, error) {
	if err := s.mutate(userID, func(u *model.User) { u.CoverImage = url }); err != nil {
		return nil, err
	}
	return s.GetUserByID(ctx, userID)
}

const fakeMediaBase = "https://cdn.test/videotube/"

type fakeMedia struct {
	mu       sync.Mutex
	fail     map[string]bool
	uploaded []string
	deleted  []string
}

func newFakeMedia() *fakeMedia {
	return &fakeMedia{fail: map[string]bool{}}
}

func (m *fakeMedia) Upload(ctx context.Context, localPath string) client.UploadResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	if localPath == "" {
		return client.UploadResult{Err: client.ErrNoFile}
	}
	if m.fail[localPath] {
		return client.UploadResult{Err: errors.New("media host unavailable")}
	}
	key := "images/" + strings.TrimSuffix(localPath[strings.LastIndex(localPath, "/")+1:], ".tmp")
	m.uploaded = append(m.uploaded, localPath)
	return client.UploadResult{URL: fakeMediaBase + key, Key: key}
}

func (m *fakeMedia) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, key)
	return nil
}

func (m *fakeMedia) KeyFromURL(url string) (string, bool) {
	if !strings.HasPrefix(url, fakeMediaBase) {
		return "", false
	}
	return strings.TrimPrefix(url, fakeMediaBase), true
}

type fakePublisher struct {
	mu     sync.Mutex
	events []model.AccountEvent
	err    error
}

func (p *fakePublisher) Publish(ctx context.Context, event model.AccountEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *fakePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type fakeProfileStore struct {
	channel     *model.ChannelProfile
	history     []model.WatchedVideo
	err         error
	gotUsername string
	gotViewer   *bson.ObjectID
}

func (f *fakeProfileStore) GetChannelProfile(ctx context.Context, username string, viewerID *bson.ObjectID) (*model.ChannelProfile, error) {
	f.gotUsername = username
	f.gotViewer = viewerID
	if f.err != nil {
		return nil, f.err
	}
	return f.channel, nil
}

func (f *fakeProfileStore) GetWatchHistory(ctx context.Context, userID bson.ObjectID) ([]model.WatchedVideo, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.history, nil
}
