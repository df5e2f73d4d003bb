package api

import (
	"github.com/consultancy-portal-api/internal/auth"
	"github.com/consultancy-portal-api/internal/models"
	"github.com/consultancy-portal-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// ExportHandler handles export endpoints
type ExportHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewExportHandler creates a new ExportHandler
func NewExportHandler(services *service.Services, log zerolog.Logger) *ExportHandler {
	return &ExportHandler{
		services: services,
		log:      log.With().Str("handler", "export").Logger(),
	}
}

// StreamExport handles GET /api/v1/exports?resource=...&format=...&fields=...
// Streams the export directly to the response
func (h *ExportHandler) StreamExport(c *gin.Context) {
	ctx := c.Request.Context()

	req := &models.ExportRequest{
		Resource: c.Query("resource"),
		Format:   c.DefaultQuery("format", models.FormatCSV),
		Fields:   splitList(c.QueryArray("fields")),
	}

	switch req.Resource {
	case "":
		badRequest(c, "resource parameter is required (kyc, articles)")
		return
	case models.ResourceArticles:
		// reviewers may only export kyc
		if claims := claimsFrom(c); claims == nil || claims.Role != auth.RoleAdmin {
			respondError(c, h.log, models.ErrForbidden)
			return
		}
		filter, err := articleFilter(c)
		if err != nil {
			badRequest(c, err.Error())
			return
		}
		req.ArticleFilter = filter
	case models.ResourceKYC:
		filter, err := kycFilter(c)
		if err != nil {
			badRequest(c, err.Error())
			return
		}
		req.KYCFilter = filter
	}

	h.log.Info().
		Str("resource", req.Resource).
		Str("format", req.Format).
		Strs("fields", req.Fields).
		Msg("Starting streaming export")

	if err := h.services.Export.Export(ctx, c.Writer, req); err != nil {
		if !c.Writer.Written() {
			respondError(c, h.log, err)
			return
		}
		// Can't return error JSON after streaming has started
		h.log.Error().Err(err).Str("resource", req.Resource).Msg("Export failed")
		return
	}
}
