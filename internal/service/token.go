package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vidtube/backend/internal/config"
	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/model"
)

type tokenStore interface {
	GetUserByID(ctx context.Context, userID bson.ObjectID) (*model.User, error)
	SetRefreshToken(ctx context.Context, userID bson.ObjectID, token string) error
}

// TokenManager issues and verifies the access/refresh pair. Only one refresh
// token is live per user: issuing a new one overwrites the stored slot.
type TokenManager struct {
	store         tokenStore
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

type accessClaims struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
	jwt.RegisteredClaims
}

func NewTokenManager(store tokenStore, cfg config.AuthConfig) (*TokenManager, error) {
	if strings.TrimSpace(cfg.AccessTokenSecret) == "" {
		return nil, fmt.Errorf("%w: ACCESS_TOKEN_SECRET is required", ErrMisconfigured)
	}
	if strings.TrimSpace(cfg.RefreshTokenSecret) == "" {
		return nil, fmt.Errorf("%w: REFRESH_TOKEN_SECRET is required", ErrMisconfigured)
	}
	if cfg.AccessTokenSecret == cfg.RefreshTokenSecret {
		return nil, fmt.Errorf("%w: access and refresh secrets must differ", ErrMisconfigured)
	}

	accessTTL, err := time.ParseDuration(cfg.AccessTokenTTL)
	if err != nil || accessTTL <= 0 {
		return nil, fmt.Errorf("%w: invalid ACCESS_TOKEN_EXPIRY", ErrMisconfigured)
	}

	refreshTTL, err := time.ParseDuration(cfg.RefreshTokenTTL)
	if err != nil || refreshTTL <= 0 {
		return nil, fmt.Errorf("%w: invalid REFRESH_TOKEN_EXPIRY", ErrMisconfigured)
	}

	return &TokenManager{
		store:         store,
		accessSecret:  []byte(cfg.AccessTokenSecret),
		refreshSecret: []byte(cfg.RefreshTokenSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}, nil
}

func (m *TokenManager) AccessTTL() time.Duration {
	return m.accessTTL
}

func (m *TokenManager) RefreshTTL() time.Duration {
	return m.refreshTTL
}

// IssueTokenPair signs a new pair for the user and persists the refresh token.
func (m *TokenManager) IssueTokenPair(ctx context.Context, userID bson.ObjectID) (model.TokenPair, error) {
	user, err := m.store.GetUserByID(ctx, userID)
	if err != nil {
		if db.IsNotFound(err) {
			return model.TokenPair{}, newError(ErrNotFound, "user not found")
		}
		return model.TokenPair{}, fmt.Errorf("load user for tokens: %w", err)
	}

	accessToken, err := m.generateAccessToken(user)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}

	refreshToken, err := m.generateRefreshToken(user.ID)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}

	if err := m.store.SetRefreshToken(ctx, user.ID, refreshToken); err != nil {
		if db.IsNotFound(err) {
			return model.TokenPair{}, newError(ErrNotFound, "user not found")
		}
		return model.TokenPair{}, fmt.Errorf("store refresh token: %w", err)
	}

	return model.TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (m *TokenManager) ParseAccessToken(tokenStr string) (bson.ObjectID, error) {
	return m.parseSubject(tokenStr, &accessClaims{}, m.accessSecret)
}

func (m *TokenManager) ParseRefreshToken(tokenStr string) (bson.ObjectID, error) {
	return m.parseSubject(tokenStr, &jwt.RegisteredClaims{}, m.refreshSecret)
}

func (m *TokenManager) parseSubject(tokenStr string, claims jwt.Claims, secret []byte) (bson.ObjectID, error) {
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrUnauthorized
		}
		return secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil || !token.Valid {
		return bson.ObjectID{}, ErrUnauthorized
	}

	subject, err := claims.GetSubject()
	if err != nil {
		return bson.ObjectID{}, ErrUnauthorized
	}

	userID, err := bson.ObjectIDFromHex(subject)
	if err != nil {
		return bson.ObjectID{}, ErrUnauthorized
	}
	return userID, nil
}

func (m *TokenManager) generateAccessToken(user *model.User) (string, error) {
	now := m.now()
	claims := accessClaims{
		Email:    user.Email,
		Username: user.Username,
		FullName: user.FullName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.Hex(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.accessSecret)
}

// jti keeps two refresh tokens issued in the same second distinct.
func (m *TokenManager) generateRefreshToken(userID bson.ObjectID) (string, error) {
	now := m.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID.Hex(),
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.refreshTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.refreshSecret)
}
