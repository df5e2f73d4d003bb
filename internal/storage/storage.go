// Package storage uploads and removes KYC documents on remote object storage.
package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/consultancy-portal-api/internal/config"
)

// Storage is the remote media store used for KYC documents
type Storage interface {
	// Upload stores r under key and returns the object's URL.
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	// DeleteFolder removes every object whose key starts with prefix.
	DeleteFolder(ctx context.Context, prefix string) error
	PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// New builds the storage driver selected by cfg.Driver
func New(ctx context.Context, cfg config.StorageConfig) (Storage, error) {
	switch cfg.Driver {
	case "minio":
		return NewMinIOStorage(ctx, cfg)
	case "s3":
		return NewS3Storage(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage driver: %s", cfg.Driver)
	}
}

// SubmissionFolder is the key prefix holding one submission's documents
func SubmissionFolder(submissionID string) string {
	return "kyc/" + submissionID + "/"
}

// DocumentKey builds the object key for a document of a submission
func DocumentKey(submissionID, docType, ext string) string {
	return SubmissionFolder(submissionID) + docType + ext
}

func objectURL(cfg config.StorageConfig, key string) string {
	base := strings.TrimRight(cfg.PublicURL, "/")
	if base == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		base = fmt.Sprintf("%s://%s/%s", scheme, cfg.Endpoint, cfg.Bucket)
	}
	return base + "/" + key
}
