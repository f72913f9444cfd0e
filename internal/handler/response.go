package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/model"
	"github.com/vidtube/backend/internal/service"
)

func respond(c *gin.Context, status int, message string, data any) {
	c.JSON(status, model.NewAPIResponse(status, message, data))
}

func abortWithError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, model.ErrorResponse{
		StatusCode: status,
		Success:    false,
		Message:    message,
	})
}

// writeError - 서비스 에러를 HTTP 상태 코드와 응답 envelope로 변환
// 분류되지 않은 에러는 원인만 로그에 남기고 500 응답
func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	message := "internal server error"

	var svcErr *service.Error
	switch {
	case errors.As(err, &svcErr):
		message = svcErr.Message
	case status != http.StatusInternalServerError:
		message = err.Error()
	}

	if status == http.StatusInternalServerError {
		logging.FromContext(c.Request.Context()).Error("request failed", "error", err)
	}
	abortWithError(c, status, message)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, service.ErrUploadFailed):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthorized), errors.Is(err, service.ErrInvalidCredential):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
