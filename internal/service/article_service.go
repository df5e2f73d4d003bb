package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/consultancy-portal-api/internal/models"
	"github.com/consultancy-portal-api/internal/repository"
	"github.com/consultancy-portal-api/internal/validation"
	"github.com/consultancy-portal-api/pkg/slug"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// articleService is the concrete implementation of ArticleService
type articleService struct {
	repo repository.ArticleRepository
	log  zerolog.Logger
	now  func() time.Time
}

// newArticleService creates a new ArticleService
func newArticleService(repo repository.ArticleRepository, log zerolog.Logger) *articleService {
	return &articleService{
		repo: repo,
		log:  log.With().Str("service", "article").Logger(),
		now:  time.Now,
	}
}

// List returns one page of articles
func (s *articleService) List(ctx context.Context, filter models.ArticleFilter, admin bool) (*models.ArticleList, error) {
	if !admin {
		filter.Status = string(models.ArticleStatusPublished)
	}
	filter.Page, filter.Limit = models.NormalizePage(filter.Page, filter.Limit)

	articles, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if articles == nil {
		articles = []*models.Article{}
	}

	return &models.ArticleList{
		Data:       articles,
		Pagination: models.NewPagination(filter.Page, filter.Limit, total),
	}, nil
}

// find looks up an article by id first, then by slug
func (s *articleService) find(ctx context.Context, idOrSlug string) (*models.Article, error) {
	if _, err := uuid.Parse(idOrSlug); err == nil {
		article, err := s.repo.GetByID(ctx, idOrSlug)
		if err != nil || article != nil {
			return article, err
		}
	}

	article, err := s.repo.GetBySlug(ctx, idOrSlug)
	if err != nil {
		return nil, err
	}
	if article == nil {
		return nil, fmt.Errorf("article %q: %w", idOrSlug, models.ErrNotFound)
	}
	return article, nil
}

// GetPublished returns a published article and records the view
func (s *articleService) GetPublished(ctx context.Context, idOrSlug string) (*models.Article, error) {
	article, err := s.find(ctx, idOrSlug)
	if err != nil {
		return nil, err
	}
	if article.Status != models.ArticleStatusPublished {
		return nil, fmt.Errorf("article %q: %w", idOrSlug, models.ErrNotFound)
	}

	if err := s.repo.IncrementViews(ctx, article.ID); err != nil {
		s.log.Warn().Err(err).Str("article_id", article.ID).Msg("Failed to increment views")
	} else {
		article.Views++
	}
	return article, nil
}

// Get returns an article in any status without counting a view
func (s *articleService) Get(ctx context.Context, idOrSlug string) (*models.Article, error) {
	return s.find(ctx, idOrSlug)
}

func (s *articleService) uniqueSlug(ctx context.Context, title, excludeID string) (string, error) {
	return slug.Unique(ctx, slug.Generate(title), func(ctx context.Context, candidate string) (bool, error) {
		return s.repo.SlugExists(ctx, candidate, excludeID)
	})
}

// applyInput copies every non-nil input field onto article
func applyInput(article *models.Article, input *models.ArticleInput) {
	if input.Title != nil {
		article.Title = validation.StripTags(*input.Title)
	}
	if input.Excerpt != nil {
		article.Excerpt = validation.StripTags(*input.Excerpt)
	}
	if input.Content != nil {
		article.Content = *input.Content
	}
	if input.Author != nil {
		article.Author = validation.StripTags(*input.Author)
	}
	if input.Category != nil {
		article.Category = *input.Category
	}
	if input.Tags != nil {
		article.Tags = validation.NormalizeTags(*input.Tags)
	}
	if input.SEO != nil {
		article.SEO = input.SEO
	}
	if input.Featured != nil {
		article.Featured = *input.Featured
	}
}

// Create validates and stores a new article
func (s *articleService) Create(ctx context.Context, input *models.ArticleInput) (*models.Article, error) {
	now := s.now().UTC()
	article := &models.Article{
		ID:        uuid.New().String(),
		Status:    models.ArticleStatusDraft,
		Tags:      []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyInput(article, input)
	if input.Status != nil {
		article.ApplyStatus(models.ArticleStatus(*input.Status), now)
	}
	article.ReadingTime = models.ReadingTimeMinutes(article.Content)

	if errs := validation.ValidateArticle(article); len(errs) > 0 {
		return nil, errs
	}

	var err error
	article.Slug, err = s.uniqueSlug(ctx, article.Title, "")
	if err != nil {
		return nil, fmt.Errorf("generate slug: %w", err)
	}

	if err := s.repo.Create(ctx, article); err != nil {
		return nil, fmt.Errorf("create article: %w", err)
	}

	s.log.Info().
		Str("article_id", article.ID).
		Str("slug", article.Slug).
		Str("status", string(article.Status)).
		Msg("Article created")

	return article, nil
}

// Update applies a partial update. The slug follows the title.
func (s *articleService) Update(ctx context.Context, idOrSlug string, input *models.ArticleInput) (*models.Article, error) {
	article, err := s.find(ctx, idOrSlug)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	oldTitle := article.Title
	applyInput(article, input)
	if input.Status != nil {
		article.ApplyStatus(models.ArticleStatus(*input.Status), now)
	}
	article.ReadingTime = models.ReadingTimeMinutes(article.Content)
	article.UpdatedAt = now

	if errs := validation.ValidateArticle(article); len(errs) > 0 {
		return nil, errs
	}

	if article.Title != oldTitle {
		article.Slug, err = s.uniqueSlug(ctx, article.Title, article.ID)
		if err != nil {
			return nil, fmt.Errorf("generate slug: %w", err)
		}
	}

	if err := s.repo.Update(ctx, article); err != nil {
		return nil, fmt.Errorf("update article: %w", err)
	}

	s.log.Info().Str("article_id", article.ID).Str("slug", article.Slug).Msg("Article updated")
	return article, nil
}

// Delete removes an article
func (s *articleService) Delete(ctx context.Context, idOrSlug string) error {
	article, err := s.find(ctx, idOrSlug)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, article.ID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return fmt.Errorf("article %q: %w", idOrSlug, err)
		}
		return fmt.Errorf("delete article: %w", err)
	}

	s.log.Info().Str("article_id", article.ID).Msg("Article deleted")
	return nil
}
