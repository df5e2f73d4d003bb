package models

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// DateLayout is the wire format for calendar dates
const DateLayout = "2006-01-02"

// Date is a calendar date serialised as YYYY-MM-DD
type Date struct {
	time.Time
}

// NewDate truncates t to midnight UTC.
func NewDate(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return Date{t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format(DateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", s, err)
	}
	*d = parsed
	return nil
}

// ReviewStatus is the state of a KYC review
type ReviewStatus string

const (
	ReviewStatusPending      ReviewStatus = "pending"
	ReviewStatusUnderReview  ReviewStatus = "under_review"
	ReviewStatusApproved     ReviewStatus = "approved"
	ReviewStatusRejected     ReviewStatus = "rejected"
	ReviewStatusRequiresInfo ReviewStatus = "requires_info"
)

// ReviewStatuses lists every review status in display order
var ReviewStatuses = []ReviewStatus{
	ReviewStatusPending,
	ReviewStatusUnderReview,
	ReviewStatusApproved,
	ReviewStatusRejected,
	ReviewStatusRequiresInfo,
}

// IsValid reports whether s is a known review status
func (s ReviewStatus) IsValid() bool {
	for _, v := range ReviewStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// DocumentType identifies one of the attachable documents
type DocumentType string

const (
	DocumentPassport     DocumentType = "passport"
	DocumentTradeLicense DocumentType = "trade_license"
	DocumentEmiratesID   DocumentType = "emirates_id"
)

// DocumentTypes lists the accepted upload fields in storage order
var DocumentTypes = []DocumentType{DocumentPassport, DocumentTradeLicense, DocumentEmiratesID}

// ParseDocumentType validates a document type from a path parameter
func ParseDocumentType(s string) (DocumentType, bool) {
	for _, t := range DocumentTypes {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// Legal structures accepted on the intake form
var LegalStructures = []string{
	"llc",
	"sole_establishment",
	"free_zone_company",
	"branch",
	"civil_company",
	"public_joint_stock",
	"private_joint_stock",
	"other",
}

// TurnoverBrackets are annual turnover ranges in AED
var TurnoverBrackets = []string{
	"below_375k",
	"375k_to_3m",
	"3m_to_10m",
	"10m_to_50m",
	"above_50m",
}

// Emirates are the seven emirates of the UAE
var Emirates = []string{
	"Abu Dhabi",
	"Dubai",
	"Sharjah",
	"Ajman",
	"Umm Al Quwain",
	"Ras Al Khaimah",
	"Fujairah",
}

// IsUAE reports whether a free-text country names the United Arab Emirates
func IsUAE(country string) bool {
	switch strings.ToLower(strings.TrimSpace(country)) {
	case "uae", "ae", "united arab emirates", "u.a.e", "u.a.e.":
		return true
	}
	return false
}

// Document is an uploaded file attached to a submission
type Document struct {
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	StorageKey  string    `json:"storage_key"`
	URL         string    `json:"url"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// Documents holds at most one document per type. Stored as JSONB.
type Documents struct {
	Passport     *Document `json:"passport,omitempty"`
	TradeLicense *Document `json:"trade_license,omitempty"`
	EmiratesID   *Document `json:"emirates_id,omitempty"`
}

// Get returns the document of type t, or nil
func (d *Documents) Get(t DocumentType) *Document {
	switch t {
	case DocumentPassport:
		return d.Passport
	case DocumentTradeLicense:
		return d.TradeLicense
	case DocumentEmiratesID:
		return d.EmiratesID
	}
	return nil
}

// Set stores doc under type t
func (d *Documents) Set(t DocumentType, doc *Document) {
	switch t {
	case DocumentPassport:
		d.Passport = doc
	case DocumentTradeLicense:
		d.TradeLicense = doc
	case DocumentEmiratesID:
		d.EmiratesID = doc
	}
}

// SubmissionMeta records where a submission came from. Stored as JSONB.
type SubmissionMeta struct {
	IPAddress   string `json:"ip_address"`
	UserAgent   string `json:"user_agent"`
	FormVersion string `json:"form_version"`
}

// Review is the reviewer-owned part of a submission
type Review struct {
	Status     ReviewStatus `json:"status"`
	ReviewedBy string       `json:"reviewed_by,omitempty"`
	Notes      string       `json:"notes,omitempty"`
	ReviewedAt *time.Time   `json:"reviewed_at,omitempty"`
}

// KYCSubmission is a compliance intake record
type KYCSubmission struct {
	ID string `json:"id"`

	CompanyName          string `json:"company_name"`
	LegalStructure       string `json:"legal_structure"`
	BusinessDescription  string `json:"business_description"`
	PlaceOfEstablishment string `json:"place_of_establishment"`
	DateOfEstablishment  Date   `json:"date_of_establishment"`

	AnnualTurnover     string `json:"annual_turnover"`
	TradeLicenseNumber string `json:"trade_license_number"`
	TradeLicenseExpiry Date   `json:"trade_license_expiry"`
	TaxID              string `json:"tax_id,omitempty"`

	Address  string   `json:"address"`
	Emirates []string `json:"emirates"`
	Country  string   `json:"country"`
	Email    string   `json:"email"`
	Phone    string   `json:"phone"`

	HasBeneficialOwners bool `json:"has_beneficial_owners"`

	Documents  Documents      `json:"documents"`
	Submission SubmissionMeta `json:"submission"`
	Review     Review         `json:"review"`

	SubmittedAt time.Time `json:"submitted_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// KYCForm is the raw intake form after multipart parsing
type KYCForm struct {
	CompanyName          string   `json:"company_name"`
	LegalStructure       string   `json:"legal_structure"`
	BusinessDescription  string   `json:"business_description"`
	PlaceOfEstablishment string   `json:"place_of_establishment"`
	DateOfEstablishment  string   `json:"date_of_establishment"`
	AnnualTurnover       string   `json:"annual_turnover"`
	TradeLicenseNumber   string   `json:"trade_license_number"`
	TradeLicenseExpiry   string   `json:"trade_license_expiry"`
	TaxID                string   `json:"tax_id"`
	Address              string   `json:"address"`
	Emirates             []string `json:"emirates"`
	Country              string   `json:"country"`
	Email                string   `json:"email"`
	Phone                string   `json:"phone"`
	HasBeneficialOwners  bool     `json:"has_beneficial_owners"`
	FormVersion          string   `json:"form_version"`
}

// ReviewUpdate is the reviewer PATCH payload
type ReviewUpdate struct {
	Status     *string `json:"status"`
	Notes      *string `json:"notes"`
	ReviewedBy *string `json:"reviewed_by"`
}

// KYCFilter holds list/export query parameters
type KYCFilter struct {
	Status string
	Search string
	From   *time.Time
	To     *time.Time
	Sort   string
	Page   int
	Limit  int
}

// KYCStats counts submissions per review status
type KYCStats struct {
	Total        int `json:"total"`
	Pending      int `json:"pending"`
	UnderReview  int `json:"under_review"`
	Approved     int `json:"approved"`
	Rejected     int `json:"rejected"`
	RequiresInfo int `json:"requires_info"`
}

// Add increments the counter for status by n
func (s *KYCStats) Add(status ReviewStatus, n int) {
	s.Total += n
	switch status {
	case ReviewStatusPending:
		s.Pending += n
	case ReviewStatusUnderReview:
		s.UnderReview += n
	case ReviewStatusApproved:
		s.Approved += n
	case ReviewStatusRejected:
		s.Rejected += n
	case ReviewStatusRequiresInfo:
		s.RequiresInfo += n
	}
}

// KYCList is a page of submissions with aggregate counts
type KYCList struct {
	Data       []*KYCSubmission `json:"data"`
	Pagination Pagination       `json:"pagination"`
	Stats      KYCStats         `json:"stats"`
}

// DocumentFlags tells a reviewer which documents are attached
type DocumentFlags struct {
	HasPassport     bool `json:"has_passport"`
	HasTradeLicense bool `json:"has_trade_license"`
	HasEmiratesID   bool `json:"has_emirates_id"`
}

// LicenseExpiry describes how close the trade licence is to expiring
type LicenseExpiry struct {
	DaysUntilExpiry int  `json:"days_until_expiry"`
	IsExpired       bool `json:"is_expired"`
	ExpiringSoon    bool `json:"expiring_soon"`
}

// KYCDetail is a single submission with reviewer enrichment
type KYCDetail struct {
	*KYCSubmission
	DocumentFlags DocumentFlags `json:"document_flags"`
	LicenseExpiry LicenseExpiry `json:"license_expiry"`
}

// SubmitReceipt is returned to the applicant
type SubmitReceipt struct {
	ID          string       `json:"id"`
	Status      ReviewStatus `json:"status"`
	SubmittedAt time.Time    `json:"submitted_at"`
}

// Upload is one document file received with an intake form
type Upload struct {
	Type     DocumentType
	Filename string
	Size     int64
	Content  io.ReadSeeker
}

// KYCIntake is everything the intake endpoint received for one submission
type KYCIntake struct {
	Form      KYCForm
	Uploads   []Upload
	IPAddress string
	UserAgent string
}
