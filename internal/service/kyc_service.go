package service

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/consultancy-portal-api/internal/config"
	"github.com/consultancy-portal-api/internal/models"
	"github.com/consultancy-portal-api/internal/repository"
	"github.com/consultancy-portal-api/internal/storage"
	"github.com/consultancy-portal-api/internal/validation"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"
)

// maxParallelUploads bounds concurrent storage uploads per submission
const maxParallelUploads = 3

// kycService is the concrete implementation of KYCService
type kycService struct {
	repo    repository.KYCRepository
	storage storage.Storage
	cfg     config.KYCConfig
	ttl     time.Duration
	log     zerolog.Logger
	now     func() time.Time
}

// newKYCService creates a new KYCService
func newKYCService(repo repository.KYCRepository, store storage.Storage, cfg *config.Config, log zerolog.Logger) *kycService {
	return &kycService{
		repo:    repo,
		storage: store,
		cfg:     cfg.KYC,
		ttl:     cfg.Storage.PresignTTL,
		log:     log.With().Str("service", "kyc").Logger(),
		now:     time.Now,
	}
}

// checkedUpload is an upload whose content type has been sniffed
type checkedUpload struct {
	models.Upload
	contentType string
	ext         string
}

// checkUploads sniffs and validates every document. The passport is required
// and the Emirates ID is only accepted for UAE companies.
func (s *kycService) checkUploads(form *models.KYCForm, uploads []models.Upload) ([]checkedUpload, models.ValidationErrors) {
	var errs models.ValidationErrors
	checked := make([]checkedUpload, 0, len(uploads))
	seen := make(map[models.DocumentType]bool)

	for _, u := range uploads {
		field := string(u.Type)
		if seen[u.Type] {
			errs = append(errs, models.ValidationError{Field: field, Message: "only one file per document type is allowed"})
			continue
		}
		seen[u.Type] = true

		if u.Type == models.DocumentEmiratesID && !models.IsUAE(form.Country) {
			errs = append(errs, models.ValidationError{
				Field:   field,
				Message: "emirates ID is only accepted for companies in the UAE",
			})
			continue
		}

		contentType, err := validation.DetectContentType(u.Content)
		if err != nil {
			errs = append(errs, models.ValidationError{Field: field, Message: "unable to read file"})
			continue
		}
		if _, err := u.Content.Seek(0, io.SeekStart); err != nil {
			errs = append(errs, models.ValidationError{Field: field, Message: "unable to read file"})
			continue
		}
		if verr := validation.ValidateDocument(u.Type, u.Size, contentType, s.cfg.MaxFileSize); verr != nil {
			errs = append(errs, *verr)
			continue
		}

		checked = append(checked, checkedUpload{
			Upload:      u,
			contentType: contentType,
			ext:         validation.AllowedDocumentTypes[contentType],
		})
	}

	if !seen[models.DocumentPassport] {
		errs = append(errs, models.ValidationError{
			Field:   string(models.DocumentPassport),
			Message: "passport copy is required",
		})
	}
	return checked, errs
}

// Submit validates an intake, uploads its documents and stores the record.
// Objects uploaded before a failure are removed again.
func (s *kycService) Submit(ctx context.Context, intake *models.KYCIntake) (*models.SubmitReceipt, error) {
	now := s.now().UTC()
	form := intake.Form

	validation.SanitizeKYCForm(&form)
	errs := validation.ValidateKYCForm(&form, now)
	checked, docErrs := s.checkUploads(&form, intake.Uploads)
	errs = append(errs, docErrs...)
	if len(errs) > 0 {
		return nil, errs
	}

	exists, err := s.repo.LicenseExists(ctx, form.TradeLicenseNumber)
	if err != nil {
		return nil, fmt.Errorf("check trade license: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("trade license %s: %w", form.TradeLicenseNumber, models.ErrDuplicate)
	}

	established, _ := models.ParseDate(form.DateOfEstablishment)
	expiry, _ := models.ParseDate(form.TradeLicenseExpiry)

	formVersion := form.FormVersion
	if formVersion == "" {
		formVersion = s.cfg.FormVersion
	}

	sub := &models.KYCSubmission{
		ID:                   uuid.New().String(),
		CompanyName:          form.CompanyName,
		LegalStructure:       form.LegalStructure,
		BusinessDescription:  form.BusinessDescription,
		PlaceOfEstablishment: form.PlaceOfEstablishment,
		DateOfEstablishment:  established,
		AnnualTurnover:       form.AnnualTurnover,
		TradeLicenseNumber:   form.TradeLicenseNumber,
		TradeLicenseExpiry:   expiry,
		TaxID:                form.TaxID,
		Address:              form.Address,
		Emirates:             form.Emirates,
		Country:              form.Country,
		Email:                form.Email,
		Phone:                form.Phone,
		HasBeneficialOwners:  form.HasBeneficialOwners,
		Submission: models.SubmissionMeta{
			IPAddress:   intake.IPAddress,
			UserAgent:   intake.UserAgent,
			FormVersion: formVersion,
		},
		Review:      models.Review{Status: models.ReviewStatusPending},
		SubmittedAt: now,
		UpdatedAt:   now,
	}

	log := s.log.With().Str("submission_id", sub.ID).Logger()

	uploaded, err := s.uploadAll(ctx, sub, checked, now)
	if err != nil {
		s.compensate(ctx, log, sub.ID, uploaded)
		return nil, err
	}

	if err := s.repo.Create(ctx, sub); err != nil {
		s.compensate(ctx, log, sub.ID, uploaded)
		return nil, fmt.Errorf("store submission: %w", err)
	}

	log.Info().
		Str("company", sub.CompanyName).
		Int("documents", len(uploaded)).
		Msg("KYC submission received")

	return &models.SubmitReceipt{
		ID:          sub.ID,
		Status:      sub.Review.Status,
		SubmittedAt: sub.SubmittedAt,
	}, nil
}

// uploadAll stores every document in parallel and records it on sub. The
// returned keys are the objects that were written, even on error.
func (s *kycService) uploadAll(ctx context.Context, sub *models.KYCSubmission, uploads []checkedUpload, now time.Time) ([]string, error) {
	var mu sync.Mutex
	keys := make([]string, 0, len(uploads))

	p := pool.New().WithErrors().WithContext(ctx).WithMaxGoroutines(maxParallelUploads)
	for _, u := range uploads {
		p.Go(func(ctx context.Context) error {
			key := storage.DocumentKey(sub.ID, string(u.Type), u.ext)
			url, err := s.storage.Upload(ctx, key, u.Content, u.Size, u.contentType)
			if err != nil {
				return fmt.Errorf("upload %s: %w", u.Type, err)
			}

			mu.Lock()
			defer mu.Unlock()
			keys = append(keys, key)
			sub.Documents.Set(u.Type, &models.Document{
				Filename:    validation.StripTags(u.Filename),
				ContentType: u.contentType,
				Size:        u.Size,
				StorageKey:  key,
				URL:         url,
				UploadedAt:  now,
			})
			return nil
		})
	}

	err := p.Wait()
	return keys, err
}

// compensate removes already uploaded objects, then sweeps the submission
// folder for writes that reported an error. Failures are only logged.
func (s *kycService) compensate(ctx context.Context, log zerolog.Logger, id string, keys []string) {
	ctx = context.WithoutCancel(ctx)
	for _, key := range keys {
		if err := s.storage.Delete(ctx, key); err != nil {
			log.Error().Err(err).Str("key", key).Msg("Failed to remove orphaned document")
		}
	}
	folder := storage.SubmissionFolder(id)
	if err := s.storage.DeleteFolder(ctx, folder); err != nil {
		log.Error().Err(err).Str("folder", folder).Msg("Failed to sweep submission folder")
	}
}

// List returns one page of submissions with per-status totals
func (s *kycService) List(ctx context.Context, filter models.KYCFilter) (*models.KYCList, error) {
	filter.Page, filter.Limit = models.NormalizePage(filter.Page, filter.Limit)

	subs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if subs == nil {
		subs = []*models.KYCSubmission{}
	}

	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, err
	}

	return &models.KYCList{
		Data:       subs,
		Pagination: models.NewPagination(filter.Page, filter.Limit, total),
		Stats:      stats,
	}, nil
}

func (s *kycService) find(ctx context.Context, id string) (*models.KYCSubmission, error) {
	sub, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, fmt.Errorf("submission %s: %w", id, models.ErrNotFound)
	}
	return sub, nil
}

// Get returns a submission enriched for reviewers
func (s *kycService) Get(ctx context.Context, id string) (*models.KYCDetail, error) {
	sub, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	return &models.KYCDetail{
		KYCSubmission: sub,
		DocumentFlags: models.DocumentFlags{
			HasPassport:     sub.Documents.Passport != nil,
			HasTradeLicense: sub.Documents.TradeLicense != nil,
			HasEmiratesID:   sub.Documents.EmiratesID != nil,
		},
		LicenseExpiry: licenseExpiry(sub.TradeLicenseExpiry, s.now(), s.cfg.ExpiryWarningDays),
	}, nil
}

// licenseExpiry counts whole days from today to expiry
func licenseExpiry(expiry models.Date, now time.Time, warningDays int) models.LicenseExpiry {
	today := models.NewDate(now)
	days := int(expiry.Sub(today.Time).Hours() / 24)
	return models.LicenseExpiry{
		DaysUntilExpiry: days,
		IsExpired:       days < 0,
		ExpiringSoon:    days >= 0 && days <= warningDays,
	}
}

// UpdateReview records a reviewer decision. reviewer is used when the update
// does not name one.
func (s *kycService) UpdateReview(ctx context.Context, id string, update *models.ReviewUpdate, reviewer string) (*models.KYCSubmission, error) {
	if errs := validation.ValidateReviewUpdate(update); len(errs) > 0 {
		return nil, errs
	}

	sub, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	review := sub.Review
	if update.Status != nil {
		review.Status = models.ReviewStatus(*update.Status)
	}
	if update.Notes != nil {
		review.Notes = validation.StripTags(*update.Notes)
	}
	review.ReviewedBy = reviewer
	if update.ReviewedBy != nil && *update.ReviewedBy != "" {
		review.ReviewedBy = validation.StripTags(*update.ReviewedBy)
	}
	review.ReviewedAt = &now

	if err := s.repo.UpdateReview(ctx, sub.ID, review); err != nil {
		return nil, fmt.Errorf("update review: %w", err)
	}

	s.log.Info().
		Str("submission_id", sub.ID).
		Str("status", string(review.Status)).
		Str("reviewed_by", review.ReviewedBy).
		Msg("KYC review updated")

	sub.Review = review
	sub.UpdatedAt = now
	return sub, nil
}

// Delete removes a submission and then its documents folder
func (s *kycService) Delete(ctx context.Context, id string) error {
	sub, err := s.find(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, sub.ID); err != nil {
		return fmt.Errorf("delete submission: %w", err)
	}

	folder := storage.SubmissionFolder(sub.ID)
	if err := s.storage.DeleteFolder(context.WithoutCancel(ctx), folder); err != nil {
		s.log.Error().Err(err).Str("submission_id", sub.ID).Str("folder", folder).Msg("Failed to remove documents")
	}

	s.log.Info().Str("submission_id", sub.ID).Msg("KYC submission deleted")
	return nil
}

// DocumentURL returns a presigned download URL for one stored document
func (s *kycService) DocumentURL(ctx context.Context, id string, docType models.DocumentType) (string, error) {
	sub, err := s.find(ctx, id)
	if err != nil {
		return "", err
	}

	doc := sub.Documents.Get(docType)
	if doc == nil {
		return "", fmt.Errorf("%s for submission %s: %w", docType, id, models.ErrNotFound)
	}

	url, err := s.storage.PresignedURL(ctx, doc.StorageKey, s.ttl)
	if err != nil {
		return "", fmt.Errorf("presign document: %w", err)
	}
	return url, nil
}
