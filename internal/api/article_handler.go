package api

import (
	"net/http"
	"strings"

	"github.com/consultancy-portal-api/internal/models"
	"github.com/consultancy-portal-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// ArticleHandler handles article endpoints
type ArticleHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewArticleHandler creates a new ArticleHandler
func NewArticleHandler(services *service.Services, log zerolog.Logger) *ArticleHandler {
	return &ArticleHandler{
		services: services,
		log:      log.With().Str("handler", "article").Logger(),
	}
}

// articleFilter reads the list query parameters
func articleFilter(c *gin.Context) (models.ArticleFilter, error) {
	filter := models.ArticleFilter{
		Status:   c.Query("status"),
		Category: c.Query("category"),
		Tag:      strings.ToLower(strings.TrimSpace(c.Query("tag"))),
		Search:   c.Query("search"),
		Sort:     c.Query("sort"),
	}

	featured, err := queryBool(c, "featured")
	if err != nil {
		return filter, err
	}
	filter.Featured = featured

	filter.Page, filter.Limit, err = pageParams(c)
	return filter, err
}

// ListPublished handles GET /api/v1/articles
func (h *ArticleHandler) ListPublished(c *gin.Context) {
	h.list(c, false)
}

// List handles GET /api/v1/admin/articles
func (h *ArticleHandler) List(c *gin.Context) {
	h.list(c, true)
}

func (h *ArticleHandler) list(c *gin.Context, admin bool) {
	filter, err := articleFilter(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	list, err := h.services.Article.List(c.Request.Context(), filter, admin)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetPublished handles GET /api/v1/articles/:slug
func (h *ArticleHandler) GetPublished(c *gin.Context) {
	article, err := h.services.Article.GetPublished(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, article)
}

// Get handles GET /api/v1/admin/articles/:id
func (h *ArticleHandler) Get(c *gin.Context) {
	article, err := h.services.Article.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, article)
}

// Create handles POST /api/v1/admin/articles
func (h *ArticleHandler) Create(c *gin.Context) {
	var input models.ArticleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	article, err := h.services.Article.Create(c.Request.Context(), &input)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, article)
}

// Update handles PUT /api/v1/admin/articles/:id
func (h *ArticleHandler) Update(c *gin.Context) {
	var input models.ArticleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	article, err := h.services.Article.Update(c.Request.Context(), c.Param("id"), &input)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, article)
}

// Delete handles DELETE /api/v1/admin/articles/:id
func (h *ArticleHandler) Delete(c *gin.Context) {
	if err := h.services.Article.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
