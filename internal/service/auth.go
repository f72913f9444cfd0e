package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
	"golang.org/x/crypto/bcrypt"

	"github.com/vidtube/backend/internal/client"
	"github.com/vidtube/backend/internal/config"
	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/model"
)

const (
	AccessCookieName  = "accessToken"
	RefreshCookieName = "refreshToken"

	debugMode = "debug"
)

// userStore - db.Mongo 중 서비스 계층이 사용하는 메서드
type userStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, userID bson.ObjectID) (*model.User, error)
	FindUserByLogin(ctx context.Context, email, username string) (*model.User, error)
	UserExists(ctx context.Context, email, username string) (bool, error)
	SetRefreshToken(ctx context.Context, userID bson.ObjectID, token string) error
	ClearRefreshToken(ctx context.Context, userID bson.ObjectID) error
	UpdatePassword(ctx context.Context, userID bson.ObjectID, passwordHash string) error
}

type mediaStore interface {
	Upload(ctx context.Context, localPath string) client.UploadResult
	Delete(ctx context.Context, key string) error
	KeyFromURL(url string) (string, bool)
}

type eventPublisher interface {
	Publish(ctx context.Context, event model.AccountEvent) error
}

type CookieConfig struct {
	Path          string
	Domain        string
	Secure        bool
	SameSite      http.SameSite
	AccessMaxAge  int
	RefreshMaxAge int
}

type AuthService struct {
	store     userStore
	tokens    *TokenManager
	media     mediaStore
	events    eventPublisher
	cookieCfg CookieConfig
}

type RegisterInput struct {
	FullName   string
	Email      string
	Username   string
	Password   string
	AvatarPath string
	CoverPath  string
}

type LoginResult struct {
	User         *model.User
	AccessToken  string
	RefreshToken string
}

func NewAuthService(store userStore, tokens *TokenManager, media mediaStore, events eventPublisher, cfg config.AuthConfig) (*AuthService, error) {
	cookieSecure, err := parseBool(cfg.CookieSecure, true)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid COOKIE_SECURE", ErrMisconfigured)
	}

	cookieSameSite, err := parseSameSite(cfg.CookieSameSite)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid COOKIE_SAMESITE", ErrMisconfigured)
	}

	if cookieSameSite == http.SameSiteNoneMode && !cookieSecure {
		return nil, fmt.Errorf("%w: SameSite=None requires Secure cookie", ErrMisconfigured)
	}

	// Secure 없는 쿠키는 로컬 http 개발(GIN_MODE=debug)에서만 허용
	if !cookieSecure && cfg.Mode != debugMode {
		return nil, fmt.Errorf("%w: COOKIE_SECURE=false is only allowed when GIN_MODE=debug", ErrMisconfigured)
	}

	return &AuthService{
		store:  store,
		tokens: tokens,
		media:  media,
		events: events,
		cookieCfg: CookieConfig{
			Path:          "/",
			Domain:        cfg.CookieDomain,
			Secure:        cookieSecure,
			SameSite:      cookieSameSite,
			AccessMaxAge:  int(tokens.AccessTTL().Seconds()),
			RefreshMaxAge: int(tokens.RefreshTTL().Seconds()),
		},
	}, nil
}

func (s *AuthService) CookieConfig() CookieConfig {
	return s.cookieCfg
}

// Register - 필수 필드 검증, 중복 확인, 아바타(필수)/커버(선택) 업로드 후 사용자 생성
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (model.UserProfile, error) {
	fullName := strings.TrimSpace(in.FullName)
	email := normalizeEmail(in.Email)
	username := strings.ToLower(strings.TrimSpace(in.Username))
	if fullName == "" || email == "" || username == "" || strings.TrimSpace(in.Password) == "" {
		return model.UserProfile{}, newError(ErrInvalidInput, "all fields are required")
	}

	exists, err := s.store.UserExists(ctx, email, username)
	if err != nil {
		return model.UserProfile{}, fmt.Errorf("check existing user: %w", err)
	}
	if exists {
		return model.UserProfile{}, newError(ErrConflict, "user with email or username already exists")
	}

	if strings.TrimSpace(in.AvatarPath) == "" {
		return model.UserProfile{}, newError(ErrInvalidInput, "avatar file is required")
	}

	avatar := s.media.Upload(ctx, in.AvatarPath)
	if !avatar.Uploaded() {
		logging.FromContext(ctx).Warn("avatar upload failed", "error", avatar.Err)
		return model.UserProfile{}, newError(ErrUploadFailed, "avatar upload failed")
	}

	// 커버 이미지 업로드 실패는 치명적이지 않음
	var cover client.UploadResult
	if strings.TrimSpace(in.CoverPath) != "" {
		cover = s.media.Upload(ctx, in.CoverPath)
		if !cover.Uploaded() {
			logging.FromContext(ctx).Warn("cover image upload failed, continuing without cover", "error", cover.Err)
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return model.UserProfile{}, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		FullName: fullName,
		Email:    email,
		Username: username,
		Avatar:   avatar.URL,
		Password: string(hash),
	}
	if cover.Uploaded() {
		user.CoverImage = cover.URL
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		s.discardObject(ctx, avatar.Key)
		s.discardObject(ctx, cover.Key)
		if db.IsDuplicateKey(err) {
			return model.UserProfile{}, newError(ErrConflict, "user with email or username already exists")
		}
		return model.UserProfile{}, fmt.Errorf("create user: %w", err)
	}

	s.publish(ctx, model.EventUserRegistered, user)
	return user.Profile(), nil
}

// Login - email 또는 username으로 조회 후 비밀번호 확인, 토큰 쌍 발급
// 사용자 없음과 비밀번호 불일치는 같은 에러로 응답
func (s *AuthService) Login(ctx context.Context, email, username, password string) (*LoginResult, error) {
	email = normalizeEmail(email)
	username = strings.ToLower(strings.TrimSpace(username))
	if email == "" && username == "" {
		return nil, newError(ErrInvalidInput, "username or email is required")
	}
	if password == "" {
		return nil, newError(ErrInvalidInput, "password is required")
	}

	user, err := s.store.FindUserByLogin(ctx, email, username)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, invalidCredentials()
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, invalidCredentials()
	}

	pair, err := s.tokens.IssueTokenPair(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	user.RefreshToken = pair.RefreshToken

	s.publish(ctx, model.EventUserLoggedIn, user)
	return &LoginResult{
		User:         user,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}

// Refresh - 저장된 refresh token과 일치할 때만 새 토큰 쌍으로 교체
func (s *AuthService) Refresh(ctx context.Context, presented string) (model.TokenPair, error) {
	presented = strings.TrimSpace(presented)
	if presented == "" {
		return model.TokenPair{}, newError(ErrUnauthorized, "unauthorized request")
	}

	userID, err := s.tokens.ParseRefreshToken(presented)
	if err != nil {
		return model.TokenPair{}, newError(ErrUnauthorized, "invalid refresh token")
	}

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		if db.IsNotFound(err) {
			return model.TokenPair{}, newError(ErrUnauthorized, "invalid refresh token")
		}
		return model.TokenPair{}, fmt.Errorf("load user: %w", err)
	}

	if user.RefreshToken == "" || subtle.ConstantTimeCompare([]byte(user.RefreshToken), []byte(presented)) != 1 {
		return model.TokenPair{}, newError(ErrUnauthorized, "refresh token is expired or used")
	}

	pair, err := s.tokens.IssueTokenPair(ctx, user.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return model.TokenPair{}, newError(ErrUnauthorized, "invalid refresh token")
		}
		return model.TokenPair{}, err
	}
	return pair, nil
}

// Logout - 저장된 refresh token 제거. 이미 로그아웃된 상태여도 성공
func (s *AuthService) Logout(ctx context.Context, user *model.User) error {
	if err := s.store.ClearRefreshToken(ctx, user.ID); err != nil && !db.IsNotFound(err) {
		return fmt.Errorf("clear refresh token: %w", err)
	}
	s.publish(ctx, model.EventUserLoggedOut, user)
	return nil
}

func (s *AuthService) ChangePassword(ctx context.Context, userID bson.ObjectID, currentPassword, newPassword string) error {
	if strings.TrimSpace(currentPassword) == "" || strings.TrimSpace(newPassword) == "" {
		return newError(ErrInvalidInput, "current and new password are required")
	}

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		if db.IsNotFound(err) {
			return newError(ErrNotFound, "user not found")
		}
		return fmt.Errorf("load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(currentPassword)); err != nil {
		return newError(ErrInvalidCredential, "invalid current password")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.store.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		if db.IsNotFound(err) {
			return newError(ErrNotFound, "user not found")
		}
		return fmt.Errorf("update password: %w", err)
	}

	s.publish(ctx, model.EventUserPasswordChanged, user)
	return nil
}

// Authenticate - access token 검증 후 현재 사용자 로드 (미들웨어에서 사용)
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*model.User, error) {
	if strings.TrimSpace(accessToken) == "" {
		return nil, newError(ErrUnauthorized, "unauthorized request")
	}

	userID, err := s.tokens.ParseAccessToken(accessToken)
	if err != nil {
		return nil, newError(ErrUnauthorized, "invalid access token")
	}

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, newError(ErrUnauthorized, "invalid access token")
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

func (s *AuthService) publish(ctx context.Context, eventType string, user *model.User) {
	if s.events == nil {
		return
	}
	event := model.AccountEvent{
		Type:     eventType,
		UserID:   user.ID.Hex(),
		Username: user.Username,
	}
	if err := s.events.Publish(ctx, event); err != nil {
		logging.FromContext(ctx).Warn("failed to publish account event", "type", eventType, "error", err)
	}
}

func (s *AuthService) discardObject(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.media.Delete(ctx, key); err != nil {
		logging.FromContext(ctx).Warn("failed to delete orphaned media object", "key", key, "error", err)
	}
}

// email은 소문자로 저장/조회 (unique index가 대소문자를 구분하므로)
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func parseBool(value string, fallback bool) (bool, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}
	return strconv.ParseBool(value)
}

func parseSameSite(value string) (http.SameSite, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "lax":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	default:
		return 0, ErrInvalidInput
	}
}
