package repository

import (
	"context"

	"github.com/consultancy-portal-api/internal/database"
	"github.com/consultancy-portal-api/internal/models"
)

// ArticleRepository defines the interface for article data operations
type ArticleRepository interface {
	Create(ctx context.Context, article *models.Article) error
	Update(ctx context.Context, article *models.Article) error
	GetByID(ctx context.Context, id string) (*models.Article, error)
	GetBySlug(ctx context.Context, slug string) (*models.Article, error)
	SlugExists(ctx context.Context, slug, excludeID string) (bool, error)
	IncrementViews(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter models.ArticleFilter) ([]*models.Article, int, error)
	Count(ctx context.Context) (int, error)
	StreamAll(ctx context.Context, filter models.ArticleFilter, callback func(*models.Article) error) error
}

// KYCRepository defines the interface for KYC submission data operations
type KYCRepository interface {
	Create(ctx context.Context, sub *models.KYCSubmission) error
	GetByID(ctx context.Context, id string) (*models.KYCSubmission, error)
	LicenseExists(ctx context.Context, licenseNumber string) (bool, error)
	UpdateReview(ctx context.Context, id string, review models.Review) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter models.KYCFilter) ([]*models.KYCSubmission, int, error)
	Stats(ctx context.Context) (models.KYCStats, error)
	Count(ctx context.Context) (int, error)
	StreamAll(ctx context.Context, filter models.KYCFilter, callback func(*models.KYCSubmission) error) error
}

// Repositories holds all repository interfaces
type Repositories struct {
	Article ArticleRepository
	KYC     KYCRepository
}

// New creates all repositories with the given database connection
func New(db *database.DB) *Repositories {
	return &Repositories{
		Article: NewArticleRepo(db),
		KYC:     NewKYCRepo(db),
	}
}
