package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/model"
	"github.com/vidtube/backend/internal/service"
)

const (
	authUserKey     = "auth_user"
	requestIDHeader = "X-Request-ID"
)

type authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*model.User, error)
}

// AuthMiddleware - accessToken 쿠키 또는 Bearer 헤더의 access token 검증
// 쿠키 토큰이 만료/무효하면 Bearer 헤더로 재시도
func AuthMiddleware(auth authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		candidates := accessTokenCandidates(c)
		if len(candidates) == 0 {
			abortWithError(c, http.StatusUnauthorized, "unauthorized request")
			return
		}

		user, err := authenticateAny(c.Request.Context(), auth, candidates)
		if err != nil {
			writeError(c, err)
			return
		}

		c.Set(authUserKey, user)
		c.Next()
	}
}

// OptionalAuth - 토큰이 유효하면 사용자를 설정하고, 없거나 무효하면 익명으로 진행
func OptionalAuth(auth authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if candidates := accessTokenCandidates(c); len(candidates) > 0 {
			if user, err := authenticateAny(c.Request.Context(), auth, candidates); err == nil {
				c.Set(authUserKey, user)
			}
		}
		c.Next()
	}
}

// authenticateAny - 첫 번째로 검증되는 토큰의 사용자, 모두 실패하면 마지막 에러
func authenticateAny(ctx context.Context, auth authenticator, tokens []string) (*model.User, error) {
	var lastErr error
	for _, token := range tokens {
		user, err := auth.Authenticate(ctx, token)
		if err == nil {
			return user, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

func GetAuthUser(c *gin.Context) *model.User {
	if value, ok := c.Get(authUserKey); ok {
		if user, ok := value.(*model.User); ok {
			return user
		}
	}
	return nil
}

// accessTokenCandidates - 쿠키, Bearer 헤더 순서 (빈 값과 중복 제외)
func accessTokenCandidates(c *gin.Context) []string {
	var tokens []string
	if token, err := c.Cookie(service.AccessCookieName); err == nil {
		if token = strings.TrimSpace(token); token != "" {
			tokens = append(tokens, token)
		}
	}
	if token := bearerToken(c); token != "" && (len(tokens) == 0 || tokens[0] != token) {
		tokens = append(tokens, token)
	}
	return tokens
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

// RequestLogger - 요청마다 request id가 붙은 logger를 context에 주입
func RequestLogger(base *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)

		logger := base.With(
			slog.String("request_id", requestID),
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
		)
		c.Request = c.Request.WithContext(logging.IntoContext(c.Request.Context(), logger))

		start := time.Now()
		c.Next()

		logger.Info("request completed",
			slog.Int("status", c.Writer.Status()),
			slog.Duration("latency", time.Since(start)),
			slog.String("client_ip", c.ClientIP()),
		)
	}
}

// RecoveryHandler - gin.CustomRecovery용 panic 처리기
func RecoveryHandler(c *gin.Context, recovered any) {
	logging.FromContext(c.Request.Context()).Error("panic recovered", "panic", recovered)
	abortWithError(c, http.StatusInternalServerError, "internal server error")
}

func CORSMiddleware(allowedOrigins []string, allowCredentials bool) gin.HandlerFunc {
	originMap := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		originMap[trimmed] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" {
			if _, ok := originMap[origin]; ok {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Vary", "Origin")
				if allowCredentials {
					c.Header("Access-Control-Allow-Credentials", "true")
				}
				c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, "+requestIDHeader)
				c.Header("Access-Control-Expose-Headers", requestIDHeader)
				c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
			}
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
