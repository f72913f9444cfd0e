package handler

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/config"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/service"
)

const (
	maxUploadMB = 1024
	// 파일 외 form 필드와 multipart 경계용 여유분
	formOverheadBytes = 1 << 20
	// register 요청의 avatar + coverImage
	maxFilesPerRequest = 2
)

// Uploads - multipart 파일을 UPLOAD_DIR 아래 임시 파일로 저장
type Uploads struct {
	dir      string
	maxBytes int64
}

func NewUploads(cfg config.ServerConfig) (*Uploads, error) {
	maxMB, err := strconv.ParseInt(strings.TrimSpace(cfg.MaxUploadMB), 10, 64)
	if err != nil || maxMB <= 0 || maxMB > maxUploadMB {
		return nil, fmt.Errorf("%w: invalid MAX_UPLOAD_MB", service.ErrMisconfigured)
	}
	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Uploads{dir: cfg.UploadDir, maxBytes: maxMB << 20}, nil
}

// tempFiles - 요청 종료 시 남은 임시 파일 삭제 (업로더가 이미 지운 파일은 무시)
type tempFiles []string

func (t *tempFiles) cleanup(c *gin.Context) {
	for _, path := range *t {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			logging.FromContext(c.Request.Context()).Warn("failed to remove temp upload", "path", path, "error", err)
		}
	}
}

// save - 필드에 파일이 없으면 빈 경로 반환
// 본문은 파싱 전에 MaxBytesReader로 제한
func (u *Uploads) save(c *gin.Context, field string, files *tempFiles) (string, error) {
	if c.Request.MultipartForm == nil {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, u.bodyLimit())
	}

	header, err := c.FormFile(field)
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart):
			return "", nil
		case errors.As(err, &tooLarge):
			return "", &service.Error{Kind: service.ErrInvalidInput, Message: "request body is too large"}
		}
		return "", &service.Error{Kind: service.ErrInvalidInput, Message: "invalid multipart form"}
	}
	if header.Size > u.maxBytes {
		return "", &service.Error{Kind: service.ErrInvalidInput, Message: field + " file is too large"}
	}

	dst := filepath.Join(u.dir, uuid.NewString()+strings.ToLower(filepath.Ext(header.Filename)))
	if err := c.SaveUploadedFile(header, dst); err != nil {
		return "", fmt.Errorf("save %s upload: %w", field, err)
	}
	*files = append(*files, dst)
	return dst, nil
}

func (u *Uploads) bodyLimit() int64 {
	return u.maxBytes*maxFilesPerRequest + formOverheadBytes
}
