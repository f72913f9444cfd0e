// S3 호환 오브젝트 스토리지(MinIO, AWS S3, R2 등)에 이미지를 업로드하는 클라이언트
//
// 환경변수:
//   - S3_ENDPOINT: 커스텀 엔드포인트 (비어 있으면 AWS 기본 엔드포인트)
//   - S3_REGION, S3_BUCKET, S3_ACCESS_KEY, S3_SECRET_KEY
//   - MEDIA_PUBLIC_URL: 업로드된 오브젝트의 공개 URL prefix
//
// 업로드 결과와 상관없이 로컬 임시 파일은 항상 삭제됨

package client

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/config"
	"github.com/vidtube/backend/internal/logging"
)

var ErrNoFile = errors.New("no file to upload")

// objectAPI - s3.Client 중 업로더가 사용하는 메서드만 추출 (테스트에서 교체)
type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// UploadResult - 업로드 성공(URL, Key) 또는 실패(Err) 중 하나
type UploadResult struct {
	URL string
	Key string
	Err error
}

func (r UploadResult) Uploaded() bool {
	return r.Err == nil && r.URL != ""
}

type MediaUploader struct {
	client    objectAPI
	bucket    string
	publicURL string
}

func NewMediaUploader(ctx context.Context, cfg config.MediaConfig) (*MediaUploader, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("missing S3_BUCKET")
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load s3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return newMediaUploader(client, cfg.Bucket, publicBaseURL(cfg)), nil
}

func newMediaUploader(client objectAPI, bucket, publicURL string) *MediaUploader {
	return &MediaUploader{
		client:    client,
		bucket:    bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

// Upload - 로컬 파일을 업로드하고 결과 반환
func (u *MediaUploader) Upload(ctx context.Context, localPath string) UploadResult {
	if strings.TrimSpace(localPath) == "" {
		return UploadResult{Err: ErrNoFile}
	}
	defer removeLocal(ctx, localPath)

	mtype, err := mimetype.DetectFile(localPath)
	if err != nil {
		return UploadResult{Err: fmt.Errorf("failed to read upload: %w", err)}
	}

	f, err := os.Open(localPath)
	if err != nil {
		return UploadResult{Err: fmt.Errorf("failed to open upload: %w", err)}
	}
	defer f.Close()

	key := newObjectKey(mtype.Extension())
	if _, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(mtype.String()),
	}); err != nil {
		logging.FromContext(ctx).Warn("media upload failed", "key", key, "error", err)
		return UploadResult{Err: fmt.Errorf("failed to upload object: %w", err)}
	}

	url := u.publicURL + "/" + key
	logging.FromContext(ctx).Info("media uploaded", "key", key, "content_type", mtype.String())
	return UploadResult{URL: url, Key: key}
}

func (u *MediaUploader) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	_, err := u.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}
	return nil
}

// KeyFromURL - 이 업로더가 발급한 URL이면 오브젝트 키 반환
func (u *MediaUploader) KeyFromURL(url string) (string, bool) {
	prefix := u.publicURL + "/"
	if url == "" || !strings.HasPrefix(url, prefix) {
		return "", false
	}
	key := strings.TrimPrefix(url, prefix)
	return key, key != ""
}

func publicBaseURL(cfg config.MediaConfig) string {
	if cfg.PublicURL != "" {
		return cfg.PublicURL
	}
	if cfg.Endpoint != "" {
		return strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
}

func newObjectKey(ext string) string {
	d := time.Now().UTC()
	return fmt.Sprintf("images/%d/%02d/%02d/%s%s", d.Year(), d.Month(), d.Day(), uuid.NewString(), ext)
}

func removeLocal(ctx context.Context, path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.FromContext(ctx).Warn("failed to remove temp upload", "path", path, "error", err)
	}
}
