package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/consultancy-portal-api/internal/database"
	"github.com/consultancy-portal-api/internal/models"
	"github.com/lib/pq"
)

const kycColumns = `id, company_name, legal_structure, business_description, place_of_establishment,
	date_of_establishment, annual_turnover, trade_license_number, trade_license_expiry, tax_id,
	address, emirates, country, email, phone, has_beneficial_owners, documents, submission,
	review_status, reviewed_by, review_notes, reviewed_at, submitted_at, updated_at`

// LicenseConstraint is the unique constraint on trade licence numbers
const LicenseConstraint = "kyc_submissions_trade_license_number_key"

var kycSorts = map[string]string{
	"newest":  "submitted_at DESC, id",
	"oldest":  "submitted_at ASC, id",
	"company": "company_name ASC, id",
}

// kycRepo is the concrete implementation of KYCRepository. Documents and
// submission metadata are stored as JSONB documents alongside the columns.
type kycRepo struct {
	db *database.DB
}

// NewKYCRepo creates a new KYC repository
func NewKYCRepo(db *database.DB) KYCRepository {
	return &kycRepo{db: db}
}

func scanKYC(row rowScanner) (*models.KYCSubmission, error) {
	var sub models.KYCSubmission
	var established, expiry time.Time
	var documentsJSON, submissionJSON []byte
	var reviewedAt sql.NullTime

	err := row.Scan(
		&sub.ID, &sub.CompanyName, &sub.LegalStructure, &sub.BusinessDescription, &sub.PlaceOfEstablishment,
		&established, &sub.AnnualTurnover, &sub.TradeLicenseNumber, &expiry, &sub.TaxID,
		&sub.Address, pq.Array(&sub.Emirates), &sub.Country, &sub.Email, &sub.Phone, &sub.HasBeneficialOwners,
		&documentsJSON, &submissionJSON,
		&sub.Review.Status, &sub.Review.ReviewedBy, &sub.Review.Notes, &reviewedAt,
		&sub.SubmittedAt, &sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	sub.DateOfEstablishment = models.NewDate(established)
	sub.TradeLicenseExpiry = models.NewDate(expiry)
	if reviewedAt.Valid {
		sub.Review.ReviewedAt = &reviewedAt.Time
	}
	if sub.Emirates == nil {
		sub.Emirates = []string{}
	}
	if err := json.Unmarshal(documentsJSON, &sub.Documents); err != nil {
		return nil, fmt.Errorf("decode documents for %s: %w", sub.ID, err)
	}
	if err := json.Unmarshal(submissionJSON, &sub.Submission); err != nil {
		return nil, fmt.Errorf("decode submission for %s: %w", sub.ID, err)
	}
	return &sub, nil
}

// Create inserts a new submission
func (r *kycRepo) Create(ctx context.Context, sub *models.KYCSubmission) error {
	documentsJSON, err := json.Marshal(sub.Documents)
	if err != nil {
		return fmt.Errorf("encode documents: %w", err)
	}
	submissionJSON, err := json.Marshal(sub.Submission)
	if err != nil {
		return fmt.Errorf("encode submission: %w", err)
	}

	emirates := sub.Emirates
	if emirates == nil {
		emirates = []string{}
	}

	query := `
		INSERT INTO kyc_submissions (` + kycColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
			$17, $18, $19, $20, $21, $22, $23, $24)
	`
	_, err = r.db.ExecContext(ctx, query,
		sub.ID, sub.CompanyName, sub.LegalStructure, sub.BusinessDescription, sub.PlaceOfEstablishment,
		sub.DateOfEstablishment.Time, sub.AnnualTurnover, sub.TradeLicenseNumber, sub.TradeLicenseExpiry.Time, sub.TaxID,
		sub.Address, pq.Array(emirates), sub.Country, sub.Email, sub.Phone, sub.HasBeneficialOwners,
		documentsJSON, submissionJSON,
		sub.Review.Status, sub.Review.ReviewedBy, sub.Review.Notes, sub.Review.ReviewedAt,
		sub.SubmittedAt, sub.UpdatedAt,
	)
	if database.IsUniqueViolation(err, LicenseConstraint) {
		return fmt.Errorf("trade license %s: %w", sub.TradeLicenseNumber, models.ErrDuplicate)
	}
	return err
}

// GetByID retrieves a submission by ID
func (r *kycRepo) GetByID(ctx context.Context, id string) (*models.KYCSubmission, error) {
	query := `SELECT ` + kycColumns + ` FROM kyc_submissions WHERE id::text = $1`

	sub, err := scanKYC(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return sub, err
}

// LicenseExists checks if a trade licence number was already submitted
func (r *kycRepo) LicenseExists(ctx context.Context, licenseNumber string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM kyc_submissions WHERE trade_license_number = $1)",
		licenseNumber,
	).Scan(&exists)
	return exists, err
}

// UpdateReview writes the reviewer-owned columns
func (r *kycRepo) UpdateReview(ctx context.Context, id string, review models.Review) error {
	query := `
		UPDATE kyc_submissions SET
			review_status = $2, reviewed_by = $3, review_notes = $4, reviewed_at = $5, updated_at = NOW()
		WHERE id::text = $1
	`
	res, err := r.db.ExecContext(ctx, query, id, review.Status, review.ReviewedBy, review.Notes, review.ReviewedAt)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

// Delete removes a submission
func (r *kycRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM kyc_submissions WHERE id::text = $1", id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func kycWhere(filter models.KYCFilter) *whereBuilder {
	w := &whereBuilder{}
	if filter.Status != "" {
		w.add("review_status = ?", filter.Status)
	}
	if filter.Search != "" {
		p := likePattern(filter.Search)
		w.add("(company_name ILIKE ? OR email ILIKE ? OR trade_license_number ILIKE ?)", p, p, p)
	}
	if filter.From != nil {
		w.add("submitted_at >= ?", *filter.From)
	}
	if filter.To != nil {
		w.add("submitted_at < ?", *filter.To)
	}
	return w
}

func kycOrder(sort string) string {
	if order, ok := kycSorts[sort]; ok {
		return " ORDER BY " + order
	}
	return " ORDER BY " + kycSorts["newest"]
}

// List returns one page of submissions matching filter and the total match count
func (r *kycRepo) List(ctx context.Context, filter models.KYCFilter) ([]*models.KYCSubmission, int, error) {
	w := kycWhere(filter)

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM kyc_submissions"+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count submissions: %w", err)
	}

	page, limit := models.NormalizePage(filter.Page, filter.Limit)
	query := "SELECT " + kycColumns + " FROM kyc_submissions" + w.sql() + kycOrder(filter.Sort) + w.page(page, limit)

	rows, err := r.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	subs := make([]*models.KYCSubmission, 0, limit)
	for rows.Next() {
		sub, err := scanKYC(rows)
		if err != nil {
			return nil, 0, err
		}
		subs = append(subs, sub)
	}
	return subs, total, rows.Err()
}

// Stats counts all submissions grouped by review status
func (r *kycRepo) Stats(ctx context.Context) (models.KYCStats, error) {
	var stats models.KYCStats

	rows, err := r.db.QueryContext(ctx, "SELECT review_status, COUNT(*) FROM kyc_submissions GROUP BY review_status")
	if err != nil {
		return stats, fmt.Errorf("aggregate submissions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status models.ReviewStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return stats, err
		}
		stats.Add(status, n)
	}
	return stats, rows.Err()
}

// Count returns the total number of submissions
func (r *kycRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM kyc_submissions").Scan(&count)
	return count, err
}

// StreamAll streams every submission matching filter for export
func (r *kycRepo) StreamAll(ctx context.Context, filter models.KYCFilter, callback func(*models.KYCSubmission) error) error {
	w := kycWhere(filter)
	query := "SELECT " + kycColumns + " FROM kyc_submissions" + w.sql() + kycOrder(filter.Sort)

	rows, err := r.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		sub, err := scanKYC(rows)
		if err != nil {
			return err
		}
		if err := callback(sub); err != nil {
			return err
		}
	}

	return rows.Err()
}
