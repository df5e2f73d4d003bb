package service

import (
	"context"
	"net/http"

	"github.com/consultancy-portal-api/internal/auth"
	"github.com/consultancy-portal-api/internal/config"
	"github.com/consultancy-portal-api/internal/models"
	"github.com/consultancy-portal-api/internal/ratelimit"
	"github.com/consultancy-portal-api/internal/repository"
	"github.com/consultancy-portal-api/internal/storage"
	"github.com/rs/zerolog"
)

// Gate names a password-protected area
type Gate string

const (
	GateAdmin Gate = "admin"
	GateKYC   Gate = "kyc"
)

// ArticleService defines the interface for article operations
type ArticleService interface {
	// List returns one page of articles. Non-admin callers only see published ones.
	List(ctx context.Context, filter models.ArticleFilter, admin bool) (*models.ArticleList, error)
	// GetPublished looks up a published article by id or slug and counts a view.
	GetPublished(ctx context.Context, idOrSlug string) (*models.Article, error)
	Get(ctx context.Context, idOrSlug string) (*models.Article, error)
	Create(ctx context.Context, input *models.ArticleInput) (*models.Article, error)
	Update(ctx context.Context, idOrSlug string, input *models.ArticleInput) (*models.Article, error)
	Delete(ctx context.Context, idOrSlug string) error
}

// KYCService defines the interface for KYC intake and review
type KYCService interface {
	Submit(ctx context.Context, intake *models.KYCIntake) (*models.SubmitReceipt, error)
	List(ctx context.Context, filter models.KYCFilter) (*models.KYCList, error)
	Get(ctx context.Context, id string) (*models.KYCDetail, error)
	UpdateReview(ctx context.Context, id string, update *models.ReviewUpdate, reviewer string) (*models.KYCSubmission, error)
	Delete(ctx context.Context, id string) error
	DocumentURL(ctx context.Context, id string, docType models.DocumentType) (string, error)
}

// ExportService defines the interface for export operations
type ExportService interface {
	// Export validates req, then streams the resource to w. Nothing is written
	// to w when validation fails.
	Export(ctx context.Context, w http.ResponseWriter, req *models.ExportRequest) error
	GetCount(ctx context.Context, resource string) (int, error)
}

// AccessService defines the interface for the password gates and request
// authentication
type AccessService interface {
	Login(ctx context.Context, gate Gate, ip, password string) (*models.TokenResponse, error)
	// Authenticate resolves an X-Admin-Key header or bearer token to claims.
	Authenticate(bearer, apiKey string) (*auth.Claims, error)
	// AdmitIntake records a KYC submission attempt for ip, failing once the
	// address is locked out.
	AdmitIntake(ctx context.Context, ip string) error
}

// Deps holds the infrastructure services are built on
type Deps struct {
	Storage    storage.Storage
	Tokens     *auth.TokenManager
	AdminGate  ratelimit.Limiter
	ReviewGate ratelimit.Limiter
	Intake     ratelimit.Limiter
}

// Services holds all service interfaces
type Services struct {
	Article ArticleService
	KYC     KYCService
	Export  ExportService
	Access  AccessService
}

// NewServices creates all services
func NewServices(repos *repository.Repositories, deps Deps, cfg *config.Config, log zerolog.Logger) *Services {
	return &Services{
		Article: newArticleService(repos.Article, log),
		KYC:     newKYCService(repos.KYC, deps.Storage, cfg, log),
		Export:  newExportService(repos, log),
		Access:  newAccessService(deps, cfg.Auth, log),
	}
}
