package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vidtube/backend/internal/model"
	"github.com/vidtube/backend/internal/service"
)

type authAPI interface {
	authenticator
	Register(ctx context.Context, in service.RegisterInput) (model.UserProfile, error)
	Login(ctx context.Context, email, username, password string) (*service.LoginResult, error)
	Refresh(ctx context.Context, presented string) (model.TokenPair, error)
	Logout(ctx context.Context, user *model.User) error
	ChangePassword(ctx context.Context, userID bson.ObjectID, currentPassword, newPassword string) error
	CookieConfig() service.CookieConfig
}

type AuthHandler struct {
	svc     authAPI
	uploads *Uploads
}

func NewAuthHandler(svc authAPI, uploads *Uploads) *AuthHandler {
	return &AuthHandler{svc: svc, uploads: uploads}
}

// Register godoc
// @Summary Register a new user
// @Description Multipart form with avatar (required) and coverImage (optional).
// @Tags users
// @Accept multipart/form-data
// @Produce json
// @Param fullName formData string true "Display name"
// @Param email formData string true "Email"
// @Param username formData string true "Username"
// @Param password formData string true "Password"
// @Param avatar formData file true "Avatar image"
// @Param coverImage formData file false "Cover image"
// @Success 201 {object} model.APIResponse{data=model.UserProfile}
// @Failure 400 {object} model.ErrorResponse
// @Failure 409 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/v1/users/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var files tempFiles
	defer files.cleanup(c)

	avatarPath, err := h.uploads.save(c, "avatar", &files)
	if err != nil {
		writeError(c, err)
		return
	}
	coverPath, err := h.uploads.save(c, "coverImage", &files)
	if err != nil {
		writeError(c, err)
		return
	}

	profile, err := h.svc.Register(c.Request.Context(), service.RegisterInput{
		FullName:   c.PostForm("fullName"),
		Email:      c.PostForm("email"),
		Username:   c.PostForm("username"),
		Password:   c.PostForm("password"),
		AvatarPath: avatarPath,
		CoverPath:  coverPath,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	respond(c, http.StatusCreated, "User registered successfully", profile)
}

// Login godoc
// @Summary Login
// @Description Either email or username is required. Sets accessToken and refreshToken cookies.
// @Tags users
// @Accept json
// @Produce json
// @Param request body model.LoginRequest true "Credentials"
// @Success 200 {object} model.APIResponse{data=model.LoginResponse}
// @Failure 400 {object} model.ErrorResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/v1/users/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid request")
		return
	}

	result, err := h.svc.Login(c.Request.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	h.setAuthCookies(c, result.AccessToken, result.RefreshToken)
	respond(c, http.StatusOK, "User logged in successfully", model.LoginResponse{
		User:         result.User.Profile(),
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
	})
}

// Logout godoc
// @Summary Logout
// @Description Clears the stored refresh token and both auth cookies.
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.APIResponse
// @Failure 401 {object} model.ErrorResponse
// @Router /api/v1/users/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	user := GetAuthUser(c)
	if user == nil {
		abortWithError(c, http.StatusUnauthorized, "unauthorized request")
		return
	}

	if err := h.svc.Logout(c.Request.Context(), user); err != nil {
		writeError(c, err)
		return
	}

	h.clearAuthCookies(c)
	respond(c, http.StatusOK, "User logged out", gin.H{})
}

// RefreshToken godoc
// @Summary Rotate tokens
// @Description Reads the refresh token from the refreshToken cookie, the JSON body, or a Bearer header.
// @Tags users
// @Accept json
// @Produce json
// @Param request body model.RefreshRequest false "Refresh token"
// @Success 200 {object} model.APIResponse{data=model.TokenPair}
// @Failure 401 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/v1/users/refresh-token [post]
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	pair, err := h.svc.Refresh(c.Request.Context(), refreshTokenFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}

	h.setAuthCookies(c, pair.AccessToken, pair.RefreshToken)
	respond(c, http.StatusOK, "Access token refreshed", pair)
}

// ChangePassword godoc
// @Summary Change password
// @Description Also revokes the stored refresh token.
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body model.ChangePasswordRequest true "Current and new password"
// @Success 200 {object} model.APIResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/v1/users/change-password [post]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	user := GetAuthUser(c)
	if user == nil {
		abortWithError(c, http.StatusUnauthorized, "unauthorized request")
		return
	}

	var req model.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid request")
		return
	}

	if err := h.svc.ChangePassword(c.Request.Context(), user.ID, req.CurrentPassword, req.NewPassword); err != nil {
		writeError(c, err)
		return
	}

	h.clearCookie(c, service.RefreshCookieName)
	respond(c, http.StatusOK, "Password changed successfully", gin.H{})
}

// 쿠키 → JSON body → Bearer 헤더 순서
func refreshTokenFrom(c *gin.Context) string {
	if token, err := c.Cookie(service.RefreshCookieName); err == nil && strings.TrimSpace(token) != "" {
		return token
	}

	var req model.RefreshRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err == nil && strings.TrimSpace(req.RefreshToken) != "" {
			return req.RefreshToken
		}
	}

	return bearerToken(c)
}

func (h *AuthHandler) setAuthCookies(c *gin.Context, accessToken, refreshToken string) {
	cfg := h.svc.CookieConfig()
	c.SetSameSite(cfg.SameSite)
	c.SetCookie(service.AccessCookieName, accessToken, cfg.AccessMaxAge, cfg.Path, cfg.Domain, cfg.Secure, true)
	c.SetCookie(service.RefreshCookieName, refreshToken, cfg.RefreshMaxAge, cfg.Path, cfg.Domain, cfg.Secure, true)
}

func (h *AuthHandler) clearAuthCookies(c *gin.Context) {
	h.clearCookie(c, service.AccessCookieName)
	h.clearCookie(c, service.RefreshCookieName)
}

func (h *AuthHandler) clearCookie(c *gin.Context, name string) {
	cfg := h.svc.CookieConfig()
	c.SetSameSite(cfg.SameSite)
	c.SetCookie(name, "", -1, cfg.Path, cfg.Domain, cfg.Secure, true)
}
