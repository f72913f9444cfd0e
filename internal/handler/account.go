package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vidtube/backend/internal/model"
)

type accountAPI interface {
	CurrentUser(user *model.User) model.UserProfile
	UpdateAccount(ctx context.Context, userID bson.ObjectID, fullName, email string) (model.UserProfile, error)
	UpdateAvatar(ctx context.Context, current *model.User, localPath string) (model.UserProfile, error)
	UpdateCoverImage(ctx context.Context, current *model.User, localPath string) (model.UserProfile, error)
}

type AccountHandler struct {
	svc     accountAPI
	uploads *Uploads
}

func NewAccountHandler(svc accountAPI, uploads *Uploads) *AccountHandler {
	return &AccountHandler{svc: svc, uploads: uploads}
}

// CurrentUser godoc
// @Summary Get current user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.APIResponse{data=model.UserProfile}
// @Failure 401 {object} model.ErrorResponse
// @Router /api/v1/users/me [get]
func (h *AccountHandler) CurrentUser(c *gin.Context) {
	user := GetAuthUser(c)
	if user == nil {
		abortWithError(c, http.StatusUnauthorized, "unauthorized request")
		return
	}
	respond(c, http.StatusOK, "Current user fetched successfully", h.svc.CurrentUser(user))
}

// UpdateAccount godoc
// @Summary Update full name and email
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body model.UpdateAccountRequest true "Account fields"
// @Success 200 {object} model.APIResponse{data=model.UserProfile}
// @Failure 400 {object} model.ErrorResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 409 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/v1/users/me [patch]
func (h *AccountHandler) UpdateAccount(c *gin.Context) {
	user := GetAuthUser(c)
	if user == nil {
		abortWithError(c, http.StatusUnauthorized, "unauthorized request")
		return
	}

	var req model.UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid request")
		return
	}

	profile, err := h.svc.UpdateAccount(c.Request.Context(), user.ID, req.FullName, req.Email)
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, http.StatusOK, "Account details updated successfully", profile)
}

// UpdateAvatar godoc
// @Summary Replace avatar image
// @Tags users
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param avatar formData file true "Avatar image"
// @Success 200 {object} model.APIResponse{data=model.UserProfile}
// @Failure 400 {object} model.ErrorResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/v1/users/avatar [patch]
func (h *AccountHandler) UpdateAvatar(c *gin.Context) {
	h.replaceImage(c, "avatar", "Avatar image updated successfully", h.svc.UpdateAvatar)
}

// UpdateCoverImage godoc
// @Summary Replace cover image
// @Tags users
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param coverImage formData file true "Cover image"
// @Success 200 {object} model.APIResponse{data=model.UserProfile}
// @Failure 400 {object} model.ErrorResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/v1/users/cover [patch]
func (h *AccountHandler) UpdateCoverImage(c *gin.Context) {
	h.replaceImage(c, "coverImage", "Cover image updated successfully", h.svc.UpdateCoverImage)
}

func (h *AccountHandler) replaceImage(
	c *gin.Context,
	field, message string,
	update func(ctx context.Context, current *model.User, localPath string) (model.UserProfile, error),
) {
	user := GetAuthUser(c)
	if user == nil {
		abortWithError(c, http.StatusUnauthorized, "unauthorized request")
		return
	}

	var files tempFiles
	defer files.cleanup(c)

	path, err := h.uploads.save(c, field, &files)
	if err != nil {
		writeError(c, err)
		return
	}

	profile, err := update(c.Request.Context(), user, path)
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, http.StatusOK, message, profile)
}
