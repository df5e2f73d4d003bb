package api

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/consultancy-portal-api/internal/config"
	"github.com/consultancy-portal-api/internal/models"
	"github.com/consultancy-portal-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// multipartMemory is how much of an intake form is buffered before spilling to disk
const multipartMemory = 8 << 20

// KYCHandler handles KYC intake and review endpoints
type KYCHandler struct {
	services *service.Services
	config   *config.Config
	log      zerolog.Logger
}

// NewKYCHandler creates a new KYCHandler
func NewKYCHandler(services *service.Services, cfg *config.Config, log zerolog.Logger) *KYCHandler {
	return &KYCHandler{
		services: services,
		config:   cfg,
		log:      log.With().Str("handler", "kyc").Logger(),
	}
}

// Submit handles POST /api/v1/kyc (multipart/form-data)
func (h *KYCHandler) Submit(c *gin.Context) {
	ctx := c.Request.Context()
	ip := c.ClientIP()

	if err := h.services.Access.AdmitIntake(ctx, ip); err != nil {
		h.log.Warn().Str("client_ip", ip).Err(err).Msg("Intake rejected by limiter")
		respondError(c, h.log, err)
		return
	}

	if err := c.Request.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"error": fmt.Sprintf("request body exceeds %d bytes", h.config.KYC.MaxUploadSize),
			})
			return
		}
		badRequest(c, "expected a multipart/form-data body")
		return
	}
	form := c.Request.MultipartForm
	defer form.RemoveAll()

	intake, files, err := intakeFromForm(form)
	defer closeAll(files)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to open uploaded document")
		badRequest(c, "failed to read uploaded document")
		return
	}
	intake.IPAddress = ip
	intake.UserAgent = c.Request.UserAgent()

	receipt, err := h.services.KYC.Submit(ctx, intake)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, receipt)
}

// intakeFromForm maps the snake_case form fields and document parts onto an intake
func intakeFromForm(form *multipart.Form) (*models.KYCIntake, []multipart.File, error) {
	value := func(key string) string {
		if v := form.Value[key]; len(v) > 0 {
			return v[0]
		}
		return ""
	}

	// unparseable flags fall through to false, the form default
	owners, _ := parseFlag(value("has_beneficial_owners"))

	intake := &models.KYCIntake{
		Form: models.KYCForm{
			CompanyName:          value("company_name"),
			LegalStructure:       value("legal_structure"),
			BusinessDescription:  value("business_description"),
			PlaceOfEstablishment: value("place_of_establishment"),
			DateOfEstablishment:  value("date_of_establishment"),
			AnnualTurnover:       value("annual_turnover"),
			TradeLicenseNumber:   value("trade_license_number"),
			TradeLicenseExpiry:   value("trade_license_expiry"),
			TaxID:                value("tax_id"),
			Address:              value("address"),
			Emirates:             splitList(form.Value["emirates"]),
			Country:              value("country"),
			Email:                value("email"),
			Phone:                value("phone"),
			HasBeneficialOwners:  owners,
			FormVersion:          value("form_version"),
		},
	}

	var files []multipart.File
	for _, docType := range models.DocumentTypes {
		headers := form.File[string(docType)]
		if len(headers) == 0 {
			continue
		}
		fh := headers[0]
		f, err := fh.Open()
		if err != nil {
			return intake, files, fmt.Errorf("open %s: %w", docType, err)
		}
		files = append(files, f)
		intake.Uploads = append(intake.Uploads, models.Upload{
			Type:     docType,
			Filename: fh.Filename,
			Size:     fh.Size,
			Content:  f,
		})
	}
	return intake, files, nil
}

func closeAll(files []multipart.File) {
	for _, f := range files {
		f.Close()
	}
}

// kycFilter reads the list and export query parameters
func kycFilter(c *gin.Context) (models.KYCFilter, error) {
	filter := models.KYCFilter{
		Status: c.Query("status"),
		Search: c.Query("search"),
		Sort:   c.Query("sort"),
	}
	if filter.Status != "" && !models.ReviewStatus(filter.Status).IsValid() {
		return filter, fmt.Errorf("unknown status %q", filter.Status)
	}

	if raw := c.Query("from"); raw != "" {
		d, err := models.ParseDate(raw)
		if err != nil {
			return filter, fmt.Errorf("from must be a date (%s)", models.DateLayout)
		}
		filter.From = &d.Time
	}
	if raw := c.Query("to"); raw != "" {
		d, err := models.ParseDate(raw)
		if err != nil {
			return filter, fmt.Errorf("to must be a date (%s)", models.DateLayout)
		}
		// inclusive of the whole day
		end := d.AddDate(0, 0, 1)
		filter.To = &end
	}

	var err error
	filter.Page, filter.Limit, err = pageParams(c)
	return filter, err
}

// List handles GET /api/v1/kyc
func (h *KYCHandler) List(c *gin.Context) {
	filter, err := kycFilter(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	list, err := h.services.KYC.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Get handles GET /api/v1/kyc/:id
func (h *KYCHandler) Get(c *gin.Context) {
	detail, err := h.services.KYC.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// UpdateReview handles PATCH /api/v1/kyc/:id
func (h *KYCHandler) UpdateReview(c *gin.Context) {
	var update models.ReviewUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	reviewer := ""
	if claims := claimsFrom(c); claims != nil {
		reviewer = claims.Subject
	}

	sub, err := h.services.KYC.UpdateReview(c.Request.Context(), c.Param("id"), &update, reviewer)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, sub)
}

// Document handles GET /api/v1/kyc/:id/documents/:type
func (h *KYCHandler) Document(c *gin.Context) {
	docType, ok := models.ParseDocumentType(c.Param("type"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown document type"})
		return
	}

	url, err := h.services.KYC.DocumentURL(c.Request.Context(), c.Param("id"), docType)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Redirect(http.StatusFound, url)
}

// Delete handles DELETE /api/v1/admin/kyc/:id
func (h *KYCHandler) Delete(c *gin.Context) {
	if err := h.services.KYC.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
