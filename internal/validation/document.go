package validation

import (
	"fmt"
	"io"

	"github.com/consultancy-portal-api/internal/models"
	"github.com/gabriel-vasile/mimetype"
)

// AllowedDocumentTypes are the content types accepted for KYC documents,
// mapped to the extension used in storage keys.
var AllowedDocumentTypes = map[string]string{
	"application/pdf": ".pdf",
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
}

// DetectContentType sniffs the real content type of r from its first bytes
func DetectContentType(r io.Reader) (string, error) {
	m, err := mimetype.DetectReader(r)
	if err != nil {
		return "", fmt.Errorf("detect content type: %w", err)
	}
	for allowed := range AllowedDocumentTypes {
		if m.Is(allowed) {
			return allowed, nil
		}
	}
	return m.String(), nil
}

// ValidateDocument checks a sniffed upload against the size and type limits
func ValidateDocument(docType models.DocumentType, size int64, contentType string, maxSize int64) *models.ValidationError {
	field := string(docType)
	if size <= 0 {
		return &models.ValidationError{Field: field, Message: "file is empty"}
	}
	if size > maxSize {
		return &models.ValidationError{
			Field:   field,
			Message: fmt.Sprintf("file too large, max size is %d MB", maxSize/(1024*1024)),
			Value:   size,
		}
	}
	if _, ok := AllowedDocumentTypes[contentType]; !ok {
		return &models.ValidationError{
			Field:   field,
			Message: "file must be a PDF, JPEG or PNG",
			Value:   contentType,
		}
	}
	return nil
}
