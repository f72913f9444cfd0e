package handler

import "github.com/gin-gonic/gin"

type Handlers struct {
	Auth    *AuthHandler
	Account *AccountHandler
	Profile *ProfileHandler
	Health  *HealthHandler
}

// RegisterRoutes - /api/v1/users 아래 사용자 API와 헬스체크/문서 엔드포인트 등록
func RegisterRoutes(r *gin.Engine, h Handlers, auth authenticator) {
	r.GET("/ping", h.Health.Ping)
	r.GET("/", h.Health.Root)
	r.GET("/healthz", h.Health.Healthz)
	r.GET("/openapi.json", OpenAPIDoc)

	users := r.Group("/api/v1/users")
	users.POST("/register", h.Auth.Register)
	users.POST("/login", h.Auth.Login)
	users.POST("/refresh-token", h.Auth.RefreshToken)
	users.GET("/channel/:username", OptionalAuth(auth), h.Profile.ChannelProfile)

	secured := users.Group("", AuthMiddleware(auth))
	secured.POST("/logout", h.Auth.Logout)
	secured.POST("/change-password", h.Auth.ChangePassword)
	secured.GET("/me", h.Account.CurrentUser)
	secured.PATCH("/me", h.Account.UpdateAccount)
	secured.PATCH("/avatar", h.Account.UpdateAvatar)
	secured.PATCH("/cover", h.Account.UpdateCoverImage)
	secured.GET("/history", h.Profile.WatchHistory)
}
