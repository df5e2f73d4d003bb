package mocks

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/consultancy-portal-api/internal/storage"
)

// MockStorage is an in-memory Storage. It is safe for concurrent uploads.
type MockStorage struct {
	mu      sync.Mutex
	Objects map[string][]byte
	Types   map[string]string

	// UploadFunc, when set, runs before the object is stored; a non-nil
	// error fails the upload.
	UploadFunc func(key string) error
	// AfterUpload runs once the object is stored; a non-nil error is
	// returned to the caller with the object left in place.
	AfterUpload     func(key string) error
	DeleteError     error
	DeleteFolderErr error
	Deleted         []string
	DeletedFolders  []string
}

var _ storage.Storage = (*MockStorage)(nil)

func NewMockStorage() *MockStorage {
	return &MockStorage{
		Objects: make(map[string][]byte),
		Types:   make(map[string]string),
	}
}

func (m *MockStorage) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	if m.UploadFunc != nil {
		if err := m.UploadFunc(key); err != nil {
			return "", err
		}
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	m.Objects[key] = data
	m.Types[key] = contentType
	m.mu.Unlock()

	if m.AfterUpload != nil {
		if err := m.AfterUpload(key); err != nil {
			return "", err
		}
	}
	return "http://storage.test/bucket/" + key, nil
}

func (m *MockStorage) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Deleted = append(m.Deleted, key)
	if m.DeleteError != nil {
		return m.DeleteError
	}
	delete(m.Objects, key)
	delete(m.Types, key)
	return nil
}

func (m *MockStorage) DeleteFolder(ctx context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeletedFolders = append(m.DeletedFolders, prefix)
	if m.DeleteFolderErr != nil {
		return m.DeleteFolderErr
	}
	for key := range m.Objects {
		if strings.HasPrefix(key, prefix) {
			delete(m.Objects, key)
			delete(m.Types, key)
		}
	}
	return nil
}

func (m *MockStorage) PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Objects[key]; !ok {
		return "", fmt.Errorf("no such key: %s", key)
	}
	return fmt.Sprintf("http://storage.test/bucket/%s?expires=%d", key, int(expiry.Seconds())), nil
}

// Keys returns the stored object keys
func (m *MockStorage) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.Objects))
	for k := range m.Objects {
		keys = append(keys, k)
	}
	return keys
}
