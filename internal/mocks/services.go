package mocks

import (
	"context"
	"net/http"
	"time"

	"github.com/consultancy-portal-api/internal/auth"
	"github.com/consultancy-portal-api/internal/models"
	"github.com/consultancy-portal-api/internal/service"
)

// MockArticleService is a mock implementation of ArticleService
type MockArticleService struct {
	ListFunc         func(ctx context.Context, filter models.ArticleFilter, admin bool) (*models.ArticleList, error)
	GetPublishedFunc func(ctx context.Context, idOrSlug string) (*models.Article, error)
	GetFunc          func(ctx context.Context, idOrSlug string) (*models.Article, error)
	CreateFunc       func(ctx context.Context, input *models.ArticleInput) (*models.Article, error)
	UpdateFunc       func(ctx context.Context, idOrSlug string, input *models.ArticleInput) (*models.Article, error)
	DeleteFunc       func(ctx context.Context, idOrSlug string) error
	LastFilter       models.ArticleFilter
	LastAdmin        bool
}

// Verify interface compliance
var _ service.ArticleService = (*MockArticleService)(nil)

func NewMockArticleService() *MockArticleService {
	return &MockArticleService{}
}

func (m *MockArticleService) List(ctx context.Context, filter models.ArticleFilter, admin bool) (*models.ArticleList, error) {
	m.LastFilter = filter
	m.LastAdmin = admin
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter, admin)
	}
	page, limit := models.NormalizePage(filter.Page, filter.Limit)
	return &models.ArticleList{Data: []*models.Article{}, Pagination: models.NewPagination(page, limit, 0)}, nil
}

func (m *MockArticleService) GetPublished(ctx context.Context, idOrSlug string) (*models.Article, error) {
	if m.GetPublishedFunc != nil {
		return m.GetPublishedFunc(ctx, idOrSlug)
	}
	return nil, models.ErrNotFound
}

func (m *MockArticleService) Get(ctx context.Context, idOrSlug string) (*models.Article, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, idOrSlug)
	}
	return nil, models.ErrNotFound
}

func (m *MockArticleService) Create(ctx context.Context, input *models.ArticleInput) (*models.Article, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, input)
	}
	return &models.Article{ID: "test-article-id", Status: models.ArticleStatusDraft}, nil
}

func (m *MockArticleService) Update(ctx context.Context, idOrSlug string, input *models.ArticleInput) (*models.Article, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, idOrSlug, input)
	}
	return nil, models.ErrNotFound
}

func (m *MockArticleService) Delete(ctx context.Context, idOrSlug string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, idOrSlug)
	}
	return nil
}

// MockKYCService is a mock implementation of KYCService
type MockKYCService struct {
	SubmitFunc       func(ctx context.Context, intake *models.KYCIntake) (*models.SubmitReceipt, error)
	ListFunc         func(ctx context.Context, filter models.KYCFilter) (*models.KYCList, error)
	GetFunc          func(ctx context.Context, id string) (*models.KYCDetail, error)
	UpdateReviewFunc func(ctx context.Context, id string, update *models.ReviewUpdate, reviewer string) (*models.KYCSubmission, error)
	DeleteFunc       func(ctx context.Context, id string) error
	DocumentURLFunc  func(ctx context.Context, id string, docType models.DocumentType) (string, error)
	Submitted        []*models.KYCIntake
}

// Verify interface compliance
var _ service.KYCService = (*MockKYCService)(nil)

func NewMockKYCService() *MockKYCService {
	return &MockKYCService{}
}

func (m *MockKYCService) Submit(ctx context.Context, intake *models.KYCIntake) (*models.SubmitReceipt, error) {
	m.Submitted = append(m.Submitted, intake)
	if m.SubmitFunc != nil {
		return m.SubmitFunc(ctx, intake)
	}
	return &models.SubmitReceipt{ID: "test-submission-id", Status: models.ReviewStatusPending, SubmittedAt: time.Now()}, nil
}

func (m *MockKYCService) List(ctx context.Context, filter models.KYCFilter) (*models.KYCList, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	page, limit := models.NormalizePage(filter.Page, filter.Limit)
	return &models.KYCList{Data: []*models.KYCSubmission{}, Pagination: models.NewPagination(page, limit, 0)}, nil
}

func (m *MockKYCService) Get(ctx context.Context, id string) (*models.KYCDetail, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockKYCService) UpdateReview(ctx context.Context, id string, update *models.ReviewUpdate, reviewer string) (*models.KYCSubmission, error) {
	if m.UpdateReviewFunc != nil {
		return m.UpdateReviewFunc(ctx, id, update, reviewer)
	}
	return nil, models.ErrNotFound
}

func (m *MockKYCService) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockKYCService) DocumentURL(ctx context.Context, id string, docType models.DocumentType) (string, error) {
	if m.DocumentURLFunc != nil {
		return m.DocumentURLFunc(ctx, id, docType)
	}
	return "", models.ErrNotFound
}

// MockExportService is a mock implementation of ExportService
type MockExportService struct {
	ExportFunc func(ctx context.Context, w http.ResponseWriter, req *models.ExportRequest) error
	Counts     map[string]int
	Requests   []*models.ExportRequest
}

// Verify interface compliance
var _ service.ExportService = (*MockExportService)(nil)

func NewMockExportService() *MockExportService {
	return &MockExportService{
		Counts: map[string]int{
			models.ResourceArticles: 0,
			models.ResourceKYC:      0,
		},
	}
}

func (m *MockExportService) Export(ctx context.Context, w http.ResponseWriter, req *models.ExportRequest) error {
	m.Requests = append(m.Requests, req)
	if m.ExportFunc != nil {
		return m.ExportFunc(ctx, w, req)
	}
	return nil
}

func (m *MockExportService) GetCount(ctx context.Context, resource string) (int, error) {
	return m.Counts[resource], nil
}

// MockAccessService is a mock implementation of AccessService. Tokens map a
// bearer string to the claims it authenticates as.
type MockAccessService struct {
	LoginFunc  func(ctx context.Context, gate service.Gate, ip, password string) (*models.TokenResponse, error)
	IntakeFunc func(ctx context.Context, ip string) error
	Tokens     map[string]*auth.Claims
	APIKey     string
}

// Verify interface compliance
var _ service.AccessService = (*MockAccessService)(nil)

func NewMockAccessService() *MockAccessService {
	return &MockAccessService{Tokens: make(map[string]*auth.Claims)}
}

// AddToken registers token as a valid bearer for role
func (m *MockAccessService) AddToken(token, subject, role string) {
	claims := &auth.Claims{Role: role}
	claims.Subject = subject
	m.Tokens[token] = claims
}

func (m *MockAccessService) Login(ctx context.Context, gate service.Gate, ip, password string) (*models.TokenResponse, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, gate, ip, password)
	}
	return nil, &models.InvalidCredentialsError{}
}

func (m *MockAccessService) Authenticate(bearer, apiKey string) (*auth.Claims, error) {
	if apiKey != "" {
		if m.APIKey != "" && apiKey == m.APIKey {
			claims := &auth.Claims{Role: auth.RoleAdmin}
			claims.Subject = service.APIKeySubject
			return claims, nil
		}
		return nil, models.ErrUnauthorized
	}
	if claims, ok := m.Tokens[bearer]; ok {
		return claims, nil
	}
	return nil, models.ErrUnauthorized
}

func (m *MockAccessService) AdmitIntake(ctx context.Context, ip string) error {
	if m.IntakeFunc != nil {
		return m.IntakeFunc(ctx, ip)
	}
	return nil
}
