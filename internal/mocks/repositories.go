package mocks

import (
	"context"
	"sort"
	"strings"

	"github.com/consultancy-portal-api/internal/models"
	"github.com/consultancy-portal-api/internal/repository"
)

// MockArticleRepository is a mock implementation of ArticleRepository
type MockArticleRepository struct {
	Articles       map[string]*models.Article
	InsertError    error
	UpdateError    error
	ViewIncrements int
	ListFunc       func(ctx context.Context, filter models.ArticleFilter) ([]*models.Article, int, error)
}

var _ repository.ArticleRepository = (*MockArticleRepository)(nil)

func NewMockArticleRepository() *MockArticleRepository {
	return &MockArticleRepository{
		Articles: make(map[string]*models.Article),
	}
}

func copyArticle(a *models.Article) *models.Article {
	c := *a
	c.Tags = append([]string(nil), a.Tags...)
	return &c
}

func (m *MockArticleRepository) Create(ctx context.Context, article *models.Article) error {
	if m.InsertError != nil {
		return m.InsertError
	}
	for _, a := range m.Articles {
		if a.Slug == article.Slug {
			return models.ErrDuplicate
		}
	}
	m.Articles[article.ID] = copyArticle(article)
	return nil
}

func (m *MockArticleRepository) Update(ctx context.Context, article *models.Article) error {
	if m.UpdateError != nil {
		return m.UpdateError
	}
	if _, ok := m.Articles[article.ID]; !ok {
		return models.ErrNotFound
	}
	m.Articles[article.ID] = copyArticle(article)
	return nil
}

func (m *MockArticleRepository) GetByID(ctx context.Context, id string) (*models.Article, error) {
	a, ok := m.Articles[id]
	if !ok {
		return nil, nil
	}
	return copyArticle(a), nil
}

func (m *MockArticleRepository) GetBySlug(ctx context.Context, slug string) (*models.Article, error) {
	for _, a := range m.Articles {
		if a.Slug == slug {
			return copyArticle(a), nil
		}
	}
	return nil, nil
}

func (m *MockArticleRepository) SlugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	for _, a := range m.Articles {
		if a.Slug == slug && a.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockArticleRepository) IncrementViews(ctx context.Context, id string) error {
	if a, ok := m.Articles[id]; ok {
		a.Views++
		m.ViewIncrements++
	}
	return nil
}

func (m *MockArticleRepository) Delete(ctx context.Context, id string) error {
	if _, ok := m.Articles[id]; !ok {
		return models.ErrNotFound
	}
	delete(m.Articles, id)
	return nil
}

func (m *MockArticleRepository) matching(filter models.ArticleFilter) []*models.Article {
	var out []*models.Article
	for _, a := range m.Articles {
		if filter.Status != "" && string(a.Status) != filter.Status {
			continue
		}
		if filter.Category != "" && a.Category != filter.Category {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(a.Title), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, copyArticle(a))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *MockArticleRepository) List(ctx context.Context, filter models.ArticleFilter) ([]*models.Article, int, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	all := m.matching(filter)
	page, limit := models.NormalizePage(filter.Page, filter.Limit)
	start := (page - 1) * limit
	if start > len(all) {
		start = len(all)
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], len(all), nil
}

func (m *MockArticleRepository) Count(ctx context.Context) (int, error) {
	return len(m.Articles), nil
}

func (m *MockArticleRepository) StreamAll(ctx context.Context, filter models.ArticleFilter, callback func(*models.Article) error) error {
	for _, a := range m.matching(filter) {
		if err := callback(a); err != nil {
			return err
		}
	}
	return nil
}

// MockKYCRepository is a mock implementation of KYCRepository
type MockKYCRepository struct {
	Submissions map[string]*models.KYCSubmission
	InsertError error
	CreateCalls int
	// StreamError is returned by StreamAll after the first row is delivered
	StreamError error
}

var _ repository.KYCRepository = (*MockKYCRepository)(nil)

func NewMockKYCRepository() *MockKYCRepository {
	return &MockKYCRepository{
		Submissions: make(map[string]*models.KYCSubmission),
	}
}

func (m *MockKYCRepository) Create(ctx context.Context, sub *models.KYCSubmission) error {
	m.CreateCalls++
	if m.InsertError != nil {
		return m.InsertError
	}
	for _, s := range m.Submissions {
		if s.TradeLicenseNumber == sub.TradeLicenseNumber {
			return models.ErrDuplicate
		}
	}
	c := *sub
	m.Submissions[sub.ID] = &c
	return nil
}

func (m *MockKYCRepository) GetByID(ctx context.Context, id string) (*models.KYCSubmission, error) {
	s, ok := m.Submissions[id]
	if !ok {
		return nil, nil
	}
	c := *s
	return &c, nil
}

func (m *MockKYCRepository) LicenseExists(ctx context.Context, licenseNumber string) (bool, error) {
	for _, s := range m.Submissions {
		if s.TradeLicenseNumber == licenseNumber {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockKYCRepository) UpdateReview(ctx context.Context, id string, review models.Review) error {
	s, ok := m.Submissions[id]
	if !ok {
		return models.ErrNotFound
	}
	s.Review = review
	return nil
}

func (m *MockKYCRepository) Delete(ctx context.Context, id string) error {
	if _, ok := m.Submissions[id]; !ok {
		return models.ErrNotFound
	}
	delete(m.Submissions, id)
	return nil
}

func (m *MockKYCRepository) matching(filter models.KYCFilter) []*models.KYCSubmission {
	var out []*models.KYCSubmission
	for _, s := range m.Submissions {
		if filter.Status != "" && string(s.Review.Status) != filter.Status {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(s.CompanyName), strings.ToLower(filter.Search)) {
			continue
		}
		c := *s
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.After(out[j].SubmittedAt) })
	return out
}

func (m *MockKYCRepository) List(ctx context.Context, filter models.KYCFilter) ([]*models.KYCSubmission, int, error) {
	all := m.matching(filter)
	page, limit := models.NormalizePage(filter.Page, filter.Limit)
	start := (page - 1) * limit
	if start > len(all) {
		start = len(all)
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], len(all), nil
}

func (m *MockKYCRepository) Stats(ctx context.Context) (models.KYCStats, error) {
	var stats models.KYCStats
	for _, s := range m.Submissions {
		stats.Add(s.Review.Status, 1)
	}
	return stats, nil
}

func (m *MockKYCRepository) Count(ctx context.Context) (int, error) {
	return len(m.Submissions), nil
}

func (m *MockKYCRepository) StreamAll(ctx context.Context, filter models.KYCFilter, callback func(*models.KYCSubmission) error) error {
	for _, s := range m.matching(filter) {
		if err := callback(s); err != nil {
			return err
		}
		if m.StreamError != nil {
			return m.StreamError
		}
	}
	return nil
}
