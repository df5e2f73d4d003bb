package models

import (
	"math"
	"strings"
	"time"
)

// ArticleStatus is the publication state of an article
type ArticleStatus string

const (
	ArticleStatusDraft     ArticleStatus = "draft"
	ArticleStatusPublished ArticleStatus = "published"
	ArticleStatusArchived  ArticleStatus = "archived"
)

// WordsPerMinute drives the reading time estimate.
const WordsPerMinute = 200

// Article represents a publishable content record
type Article struct {
	ID          string        `json:"id" db:"id"`
	Title       string        `json:"title" db:"title"`
	Slug        string        `json:"slug" db:"slug"`
	Excerpt     string        `json:"excerpt" db:"excerpt"`
	Content     string        `json:"content" db:"content"`
	Author      string        `json:"author" db:"author"`
	Category    string        `json:"category" db:"category"`
	Tags        []string      `json:"tags" db:"tags"`
	Status      ArticleStatus `json:"status" db:"status"`
	PublishedAt *time.Time    `json:"published_at,omitempty" db:"published_at"`
	Views       int           `json:"views" db:"views"`
	ReadingTime int           `json:"reading_time" db:"reading_time"`
	SEO         *SEO          `json:"seo,omitempty" db:"seo"`
	Featured    bool          `json:"featured" db:"featured"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at" db:"updated_at"`
}

// SEO is optional search metadata, stored as JSON
type SEO struct {
	MetaTitle       string   `json:"meta_title,omitempty"`
	MetaDescription string   `json:"meta_description,omitempty"`
	Keywords        []string `json:"keywords,omitempty"`
	OGImage         string   `json:"og_image,omitempty"`
}

// ArticleCategories is the fixed category enumeration
var ArticleCategories = []string{
	"company-formation",
	"banking",
	"tax",
	"accounting",
	"compliance",
	"legal",
	"news",
}

// ValidArticleStatuses defines allowed article statuses
var ValidArticleStatuses = map[ArticleStatus]bool{
	ArticleStatusDraft:     true,
	ArticleStatusPublished: true,
	ArticleStatusArchived:  true,
}

// ApplyStatus moves the article to status. PublishedAt is stamped on the
// first transition to published and never cleared afterwards.
func (a *Article) ApplyStatus(status ArticleStatus, now time.Time) {
	a.Status = status
	if status == ArticleStatusPublished && a.PublishedAt == nil {
		t := now
		a.PublishedAt = &t
	}
}

// ReadingTimeMinutes estimates reading time for content, never less than a minute.
func ReadingTimeMinutes(content string) int {
	words := len(strings.Fields(content))
	minutes := int(math.Ceil(float64(words) / WordsPerMinute))
	if minutes < 1 {
		return 1
	}
	return minutes
}

// ArticleInput is the admin create/update payload. Nil fields are left
// untouched on update.
type ArticleInput struct {
	Title    *string   `json:"title"`
	Excerpt  *string   `json:"excerpt"`
	Content  *string   `json:"content"`
	Author   *string   `json:"author"`
	Category *string   `json:"category"`
	Tags     *[]string `json:"tags"`
	Status   *string   `json:"status"`
	SEO      *SEO      `json:"seo"`
	Featured *bool     `json:"featured"`
}

// ArticleFilter holds list query parameters
type ArticleFilter struct {
	Status   string
	Category string
	Tag      string
	Featured *bool
	Search   string
	Sort     string
	Page     int
	Limit    int
}

// ArticleList is a page of articles
type ArticleList struct {
	Data       []*Article `json:"data"`
	Pagination Pagination `json:"pagination"`
}
