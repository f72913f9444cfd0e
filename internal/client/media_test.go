package client

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidtube/backend/internal/config"
)

type fakeObjectAPI struct {
	putErr      error
	put         *s3.PutObjectInput
	body        []byte
	deletedKeys []string
}

func (f *fakeObjectAPI) PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.put = in
	if f.putErr != nil {
		return nil, f.putErr
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.body = body
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeObjectAPI) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deletedKeys = append(f.deletedKeys, *in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

// 1x1 PNG
var pngBytes = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d, 0x49, 0x48, 0x44, 0x52,
	0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01, 0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4,
	0x89, 0x00, 0x00, 0x00, 0x0a, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49, 0x45, 0x4e, 0x44, 0xae,
	0x42, 0x60, 0x82,
}

func writeTempPNG(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "avatar-upload")
	require.NoError(t, os.WriteFile(path, pngBytes, 0o600))
	return path
}

func TestMediaUploader_Upload_Success(t *testing.T) {
	api := &fakeObjectAPI{}
	u := newMediaUploader(api, "media", "https://cdn.example.com/")
	path := writeTempPNG(t)

	res := u.Upload(context.Background(), path)

	require.True(t, res.Uploaded(), "unexpected error: %v", res.Err)
	assert.True(t, strings.HasPrefix(res.URL, "https://cdn.example.com/images/"))
	assert.True(t, strings.HasSuffix(res.Key, ".png"))
	assert.Equal(t, "media", *api.put.Bucket)
	assert.Equal(t, "image/png", *api.put.ContentType)
	assert.Equal(t, pngBytes, api.body)

	_, err := os.Stat(path)
	assert.True(t, errors.Is(err, os.ErrNotExist), "temp file must be removed after upload")
}

func TestMediaUploader_Upload_FailureStillRemovesTempFile(t *testing.T) {
	api := &fakeObjectAPI{putErr: errors.New("connection reset")}
	u := newMediaUploader(api, "media", "https://cdn.example.com")
	path := writeTempPNG(t)

	res := u.Upload(context.Background(), path)

	assert.False(t, res.Uploaded())
	assert.Error(t, res.Err)
	assert.Empty(t, res.URL)

	_, err := os.Stat(path)
	assert.True(t, errors.Is(err, os.ErrNotExist), "temp file must be removed after failed upload")
}

func TestMediaUploader_Upload_NoFile(t *testing.T) {
	api := &fakeObjectAPI{}
	u := newMediaUploader(api, "media", "https://cdn.example.com")

	res := u.Upload(context.Background(), "")

	assert.ErrorIs(t, res.Err, ErrNoFile)
	assert.Nil(t, api.put)
}

func TestMediaUploader_KeyFromURL(t *testing.T) {
	u := newMediaUploader(&fakeObjectAPI{}, "media", "https://cdn.example.com")

	key, ok := u.KeyFromURL("https://cdn.example.com/images/2026/01/02/a.png")
	assert.True(t, ok)
	assert.Equal(t, "images/2026/01/02/a.png", key)

	_, ok = u.KeyFromURL("https://elsewhere.example.com/a.png")
	assert.False(t, ok)

	_, ok = u.KeyFromURL("")
	assert.False(t, ok)
}

func TestMediaUploader_Delete(t *testing.T) {
	api := &fakeObjectAPI{}
	u := newMediaUploader(api, "media", "https://cdn.example.com")

	require.NoError(t, u.Delete(context.Background(), "images/a.png"))
	require.NoError(t, u.Delete(context.Background(), ""))
	assert.Equal(t, []string{"images/a.png"}, api.deletedKeys)
}

func TestPublicBaseURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.MediaConfig
		want string
	}{
		{name: "explicit", cfg: config.MediaConfig{PublicURL: "https://cdn.example.com", Bucket: "b"}, want: "https://cdn.example.com"},
		{name: "custom endpoint", cfg: config.MediaConfig{Endpoint: "http://minio:9000/", Bucket: "b"}, want: "http://minio:9000/b"},
		{name: "aws", cfg: config.MediaConfig{Bucket: "b", Region: "eu-west-1"}, want: "https://b.s3.eu-west-1.amazonaws.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, publicBaseURL(tt.cfg))
		})
	}
}
