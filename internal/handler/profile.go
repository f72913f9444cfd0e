package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vidtube/backend/internal/model"
)

type profileAPI interface {
	GetChannelProfile(ctx context.Context, viewerID *bson.ObjectID, username string) (*model.ChannelProfile, error)
	GetWatchHistory(ctx context.Context, userID bson.ObjectID) ([]model.WatchedVideo, error)
}

type ProfileHandler struct {
	svc profileAPI
}

func NewProfileHandler(svc profileAPI) *ProfileHandler {
	return &ProfileHandler{svc: svc}
}

// ChannelProfile godoc
// @Summary Get channel profile
// @Description Subscriber counts and whether the caller is subscribed. Anonymous callers get isSubscribed=false.
// @Tags users
// @Produce json
// @Param username path string true "Channel username"
// @Success 200 {object} model.APIResponse{data=model.ChannelProfile}
// @Failure 400 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/v1/users/channel/{username} [get]
func (h *ProfileHandler) ChannelProfile(c *gin.Context) {
	var viewerID *bson.ObjectID
	if user := GetAuthUser(c); user != nil {
		viewerID = &user.ID
	}

	channel, err := h.svc.GetChannelProfile(c.Request.Context(), viewerID, c.Param("username"))
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, http.StatusOK, "User channel fetched successfully", channel)
}

// WatchHistory godoc
// @Summary Get watch history
// @Description Videos in watch order, each with its owner resolved.
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.APIResponse{data=[]model.WatchedVideo}
// @Failure 401 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/v1/users/history [get]
func (h *ProfileHandler) WatchHistory(c *gin.Context) {
	user := GetAuthUser(c)
	if user == nil {
		abortWithError(c, http.StatusUnauthorized, "unauthorized request")
		return
	}

	history, err := h.svc.GetWatchHistory(c.Request.Context(), user.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, http.StatusOK, "Watch history fetched successfully", history)
}
