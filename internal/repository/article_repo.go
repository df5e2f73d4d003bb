package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/consultancy-portal-api/internal/database"
	"github.com/consultancy-portal-api/internal/models"
	"github.com/lib/pq"
)

const articleColumns = `id, title, slug, excerpt, content, author, category, tags, status,
	published_at, views, reading_time, seo, featured, created_at, updated_at`

var articleSorts = map[string]string{
	"newest":  "COALESCE(published_at, created_at) DESC, id",
	"oldest":  "COALESCE(published_at, created_at) ASC, id",
	"popular": "views DESC, created_at DESC",
	"title":   "title ASC, id",
}

// articleRepo is the concrete implementation of ArticleRepository
type articleRepo struct {
	db *database.DB
}

// NewArticleRepo creates a new article repository
func NewArticleRepo(db *database.DB) ArticleRepository {
	return &articleRepo{db: db}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanArticle(row rowScanner) (*models.Article, error) {
	var article models.Article
	var publishedAt sql.NullTime
	var seoJSON []byte

	err := row.Scan(
		&article.ID, &article.Title, &article.Slug, &article.Excerpt, &article.Content,
		&article.Author, &article.Category, pq.Array(&article.Tags), &article.Status,
		&publishedAt, &article.Views, &article.ReadingTime, &seoJSON, &article.Featured,
		&article.CreatedAt, &article.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if publishedAt.Valid {
		article.PublishedAt = &publishedAt.Time
	}
	if len(seoJSON) > 0 && string(seoJSON) != "null" {
		article.SEO = &models.SEO{}
		if err := json.Unmarshal(seoJSON, article.SEO); err != nil {
			return nil, fmt.Errorf("decode seo for article %s: %w", article.ID, err)
		}
	}
	if article.Tags == nil {
		article.Tags = []string{}
	}
	return &article, nil
}

func seoValue(seo *models.SEO) (interface{}, error) {
	if seo == nil {
		return nil, nil
	}
	b, err := json.Marshal(seo)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func tagsValue(tags []string) interface{} {
	if tags == nil {
		tags = []string{}
	}
	return pq.Array(tags)
}

// Create inserts a new article
func (r *articleRepo) Create(ctx context.Context, article *models.Article) error {
	seo, err := seoValue(article.SEO)
	if err != nil {
		return fmt.Errorf("encode seo: %w", err)
	}

	query := `
		INSERT INTO articles (` + articleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err = r.db.ExecContext(ctx, query,
		article.ID, article.Title, article.Slug, article.Excerpt, article.Content,
		article.Author, article.Category, tagsValue(article.Tags), article.Status,
		article.PublishedAt, article.Views, article.ReadingTime, seo, article.Featured,
		article.CreatedAt, article.UpdatedAt,
	)
	if database.IsUniqueViolation(err, "articles_slug_key") {
		return fmt.Errorf("slug %q: %w", article.Slug, models.ErrDuplicate)
	}
	return err
}

// Update overwrites every mutable column of an existing article
func (r *articleRepo) Update(ctx context.Context, article *models.Article) error {
	seo, err := seoValue(article.SEO)
	if err != nil {
		return fmt.Errorf("encode seo: %w", err)
	}

	query := `
		UPDATE articles SET
			title = $2, slug = $3, excerpt = $4, content = $5, author = $6, category = $7,
			tags = $8, status = $9, published_at = $10, reading_time = $11, seo = $12,
			featured = $13, updated_at = $14
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query,
		article.ID, article.Title, article.Slug, article.Excerpt, article.Content,
		article.Author, article.Category, tagsValue(article.Tags), article.Status,
		article.PublishedAt, article.ReadingTime, seo, article.Featured, article.UpdatedAt,
	)
	if database.IsUniqueViolation(err, "articles_slug_key") {
		return fmt.Errorf("slug %q: %w", article.Slug, models.ErrDuplicate)
	}
	if err != nil {
		return err
	}
	return expectAffected(res)
}

// GetByID retrieves an article by ID
func (r *articleRepo) GetByID(ctx context.Context, id string) (*models.Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles WHERE id::text = $1`

	article, err := scanArticle(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return article, err
}

// GetBySlug retrieves an article by slug
func (r *articleRepo) GetBySlug(ctx context.Context, slug string) (*models.Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles WHERE slug = $1`

	article, err := scanArticle(r.db.QueryRowContext(ctx, query, slug))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return article, err
}

// SlugExists checks if another article already uses slug
func (r *articleRepo) SlugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM articles WHERE slug = $1 AND id::text <> $2)",
		slug, excludeID,
	).Scan(&exists)
	return exists, err
}

// IncrementViews bumps the view counter by one
func (r *articleRepo) IncrementViews(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "UPDATE articles SET views = views + 1 WHERE id = $1", id)
	return err
}

// Delete removes an article
func (r *articleRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM articles WHERE id::text = $1", id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func articleWhere(filter models.ArticleFilter) *whereBuilder {
	w := &whereBuilder{}
	if filter.Status != "" {
		w.add("status = ?", filter.Status)
	}
	if filter.Category != "" {
		w.add("category = ?", filter.Category)
	}
	if filter.Tag != "" {
		w.add("? = ANY(tags)", filter.Tag)
	}
	if filter.Featured != nil {
		w.add("featured = ?", *filter.Featured)
	}
	if filter.Search != "" {
		p := likePattern(filter.Search)
		w.add("(title ILIKE ? OR excerpt ILIKE ? OR content ILIKE ?)", p, p, p)
	}
	return w
}

func articleOrder(sort string) string {
	if order, ok := articleSorts[sort]; ok {
		return " ORDER BY " + order
	}
	return " ORDER BY " + articleSorts["newest"]
}

// List returns one page of articles matching filter and the total match count
func (r *articleRepo) List(ctx context.Context, filter models.ArticleFilter) ([]*models.Article, int, error) {
	w := articleWhere(filter)

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM articles"+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count articles: %w", err)
	}

	page, limit := models.NormalizePage(filter.Page, filter.Limit)
	query := "SELECT " + articleColumns + " FROM articles" + w.sql() + articleOrder(filter.Sort) + w.page(page, limit)

	rows, err := r.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list articles: %w", err)
	}
	defer rows.Close()

	articles := make([]*models.Article, 0, limit)
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, 0, err
		}
		articles = append(articles, article)
	}
	return articles, total, rows.Err()
}

// Count returns the total number of articles
func (r *articleRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM articles").Scan(&count)
	return count, err
}

// StreamAll streams every article matching filter for export
func (r *articleRepo) StreamAll(ctx context.Context, filter models.ArticleFilter, callback func(*models.Article) error) error {
	w := articleWhere(filter)
	query := "SELECT " + articleColumns + " FROM articles" + w.sql() + articleOrder(filter.Sort)

	rows, err := r.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return err
		}
		if err := callback(article); err != nil {
			return err
		}
	}

	return rows.Err()
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}
