package storage

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/consultancy-portal-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentKey(t *testing.T) {
	assert.Equal(t, "kyc/abc/", SubmissionFolder("abc"))
	assert.Equal(t, "kyc/abc/passport.pdf", DocumentKey("abc", "passport", ".pdf"))
}

func TestObjectURL(t *testing.T) {
	cfg := config.StorageConfig{Endpoint: "minio:9000", Bucket: "kyc-documents"}
	assert.Equal(t, "http://minio:9000/kyc-documents/kyc/a/passport.png", objectURL(cfg, "kyc/a/passport.png"))

	cfg.UseSSL = true
	assert.Equal(t, "https://minio:9000/kyc-documents/k", objectURL(cfg, "k"))

	cfg.PublicURL = "https://cdn.example.com/docs/"
	assert.Equal(t, "https://cdn.example.com/docs/k", objectURL(cfg, "k"))
}

func TestNew_UnknownDriver(t *testing.T) {
	_, err := New(context.Background(), config.StorageConfig{Driver: "ftp"})
	assert.Error(t, err)
}

func TestS3Storage_PresignedURL(t *testing.T) {
	s, err := NewS3Storage(context.Background(), config.StorageConfig{
		Driver:    "s3",
		Endpoint:  "localhost:9000",
		AccessKey: "access",
		SecretKey: "secret",
		Bucket:    "kyc-documents",
		Region:    "us-east-1",
	})
	require.NoError(t, err)

	raw, err := s.PresignedURL(context.Background(), "kyc/abc/passport.pdf", 15*time.Minute)
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "localhost:9000", u.Host)
	assert.Equal(t, "/kyc-documents/kyc/abc/passport.pdf", u.Path)
	assert.Equal(t, "900", u.Query().Get("X-Amz-Expires"))
}
