package validation

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/consultancy-portal-api/internal/models"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func validArticle() *models.Article {
	return &models.Article{
		Title:    "Setting up a Free Zone company",
		Excerpt:  "What founders need to know",
		Content:  "Free zones offer full foreign ownership.",
		Author:   "Editorial Team",
		Category: "company-formation",
		Tags:     []string{"free-zone", "setup"},
		Status:   models.ArticleStatusDraft,
	}
}

func validForm() *models.KYCForm {
	return &models.KYCForm{
		CompanyName:          "Acme Trading LLC",
		LegalStructure:       "llc",
		BusinessDescription:  "General trading of electronics",
		PlaceOfEstablishment: "Dubai",
		DateOfEstablishment:  "2019-03-14",
		AnnualTurnover:       "3m_to_10m",
		TradeLicenseNumber:   "DED-123456",
		TradeLicenseExpiry:   "2026-03-13",
		Address:              "Office 1201, Business Bay",
		Emirates:             []string{"Dubai"},
		Country:              "United Arab Emirates",
		Email:                "owner@acme.ae",
		Phone:                "+971 4 123 4567",
	}
}

func fields(errs models.ValidationErrors) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Field)
	}
	return out
}

func TestValidateArticle(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(a *models.Article)
		wantErrors int
		wantFields []string
	}{
		{
			name:       "valid article",
			mutate:     func(a *models.Article) {},
			wantErrors: 0,
		},
		{
			name:       "missing title",
			mutate:     func(a *models.Article) { a.Title = "" },
			wantErrors: 1,
			wantFields: []string{"title"},
		},
		{
			name:       "unknown category",
			mutate:     func(a *models.Article) { a.Category = "gossip" },
			wantErrors: 1,
			wantFields: []string{"category"},
		},
		{
			name:       "invalid status",
			mutate:     func(a *models.Article) { a.Status = "live" },
			wantErrors: 1,
			wantFields: []string{"status"},
		},
		{
			name:       "tag too long",
			mutate:     func(a *models.Article) { a.Tags = []string{strings.Repeat("x", MaxTagLength+1)} },
			wantErrors: 1,
			wantFields: []string{"tags"},
		},
		{
			name: "bad og image",
			mutate: func(a *models.Article) {
				a.SEO = &models.SEO{MetaTitle: "ok", OGImage: "not a url"}
			},
			wantErrors: 1,
			wantFields: []string{"seo.og_image"},
		},
		{
			name: "multiple errors",
			mutate: func(a *models.Article) {
				a.Title = ""
				a.Author = ""
				a.Content = ""
			},
			wantErrors: 3,
			wantFields: []string{"author", "content", "title"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := validArticle()
			tt.mutate(a)
			errs := ValidateArticle(a)

			if len(errs) != tt.wantErrors {
				t.Errorf("Expected %d errors, got %d: %v", tt.wantErrors, len(errs), fields(errs))
			}
			for _, f := range tt.wantFields {
				if !errs.Has(f) {
					t.Errorf("Expected error for field %s, got %v", f, fields(errs))
				}
			}
		})
	}
}

func TestValidateKYCForm(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(f *models.KYCForm)
		wantFields []string
	}{
		{
			name:   "valid form",
			mutate: func(f *models.KYCForm) {},
		},
		{
			name:       "missing company name",
			mutate:     func(f *models.KYCForm) { f.CompanyName = "" },
			wantFields: []string{"company_name"},
		},
		{
			name:       "bad email",
			mutate:     func(f *models.KYCForm) { f.Email = "owner-at-acme" },
			wantFields: []string{"email"},
		},
		{
			name:       "establishment date in the future",
			mutate:     func(f *models.KYCForm) { f.DateOfEstablishment = "2030-01-01" },
			wantFields: []string{"date_of_establishment"},
		},
		{
			name:       "malformed expiry",
			mutate:     func(f *models.KYCForm) { f.TradeLicenseExpiry = "13/03/2026" },
			wantFields: []string{"trade_license_expiry"},
		},
		{
			name:       "unknown legal structure",
			mutate:     func(f *models.KYCForm) { f.LegalStructure = "trust" },
			wantFields: []string{"legal_structure"},
		},
		{
			name:       "uae requires emirates",
			mutate:     func(f *models.KYCForm) { f.Emirates = nil },
			wantFields: []string{"emirates"},
		},
		{
			name: "emirates optional outside uae",
			mutate: func(f *models.KYCForm) {
				f.Country = "Oman"
				f.Emirates = nil
			},
		},
		{
			name:       "unknown emirate",
			mutate:     func(f *models.KYCForm) { f.Emirates = []string{"Dubai", "Muscat"} },
			wantFields: []string{"emirates"},
		},
		{
			name:       "short tax id",
			mutate:     func(f *models.KYCForm) { f.TaxID = "12345" },
			wantFields: []string{"tax_id"},
		},
		{
			name:       "bad phone",
			mutate:     func(f *models.KYCForm) { f.Phone = "call me" },
			wantFields: []string{"phone"},
		},
		{
			name:       "email longer than column",
			mutate:     func(f *models.KYCForm) { f.Email = strings.Repeat("a", 310) + "@acme.ae" },
			wantFields: []string{"email"},
		},
		{
			name:       "company name too long",
			mutate:     func(f *models.KYCForm) { f.CompanyName = strings.Repeat("Acme ", 41) },
			wantFields: []string{"company_name"},
		},
		{
			name:       "phone longer than column",
			mutate:     func(f *models.KYCForm) { f.Phone = "+971 " + strings.Repeat("5", 40) },
			wantFields: []string{"phone"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validForm()
			tt.mutate(f)
			errs := ValidateKYCForm(f, testNow)

			if len(errs) != len(tt.wantFields) {
				t.Errorf("Expected %d errors, got %d: %v", len(tt.wantFields), len(errs), fields(errs))
			}
			for _, field := range tt.wantFields {
				if !errs.Has(field) {
					t.Errorf("Expected error for field %s, got %v", field, fields(errs))
				}
			}
		})
	}
}

func TestValidateReviewUpdate(t *testing.T) {
	str := func(s string) *string { return &s }

	tests := []struct {
		name       string
		update     models.ReviewUpdate
		wantErrors int
	}{
		{"status only", models.ReviewUpdate{Status: str("approved")}, 0},
		{"notes only", models.ReviewUpdate{Notes: str("missing passport scan")}, 0},
		{"empty payload", models.ReviewUpdate{}, 1},
		{"unknown status", models.ReviewUpdate{Status: str("done")}, 1},
		{"notes too long", models.ReviewUpdate{Notes: str(strings.Repeat("a", MaxReviewNotes+1))}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateReviewUpdate(&tt.update)
			if len(errs) != tt.wantErrors {
				t.Errorf("Expected %d errors, got %d: %v", tt.wantErrors, len(errs), errs)
			}
		})
	}
}

func TestSanitizeKYCForm(t *testing.T) {
	f := validForm()
	f.CompanyName = "  <b>Acme</b> & Sons <script>alert(1)</script>"
	f.Email = "Owner@Acme.AE"
	f.TradeLicenseNumber = "ded-123"
	f.Emirates = []string{"dubai, SHARJAH", "Dubai", " "}

	SanitizeKYCForm(f)

	if f.CompanyName != "Acme & Sons" {
		t.Errorf("Expected stripped company name, got %q", f.CompanyName)
	}
	if f.Email != "owner@acme.ae" {
		t.Errorf("Expected lower-cased email, got %q", f.Email)
	}
	if f.TradeLicenseNumber != "DED-123" {
		t.Errorf("Expected upper-cased license number, got %q", f.TradeLicenseNumber)
	}
	if len(f.Emirates) != 2 || f.Emirates[0] != "Dubai" || f.Emirates[1] != "Sharjah" {
		t.Errorf("Expected [Dubai Sharjah], got %v", f.Emirates)
	}
}

func TestNormalizeTags(t *testing.T) {
	got := NormalizeTags([]string{"Tax", " tax ", "", "<i>VAT</i>"})
	if len(got) != 2 || got[0] != "tax" || got[1] != "vat" {
		t.Errorf("Expected [tax vat], got %v", got)
	}
}

func TestDetectContentType(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"pdf", []byte("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n1 0 obj"), "application/pdf"},
		{"png", []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), "image/png"},
		{"jpeg", []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00"), "image/jpeg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectContentType(bytes.NewReader(tt.data))
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestValidateDocument(t *testing.T) {
	const max = 5 * 1024 * 1024

	if err := ValidateDocument(models.DocumentPassport, 1024, "application/pdf", max); err != nil {
		t.Errorf("Expected valid document, got %v", err)
	}
	if err := ValidateDocument(models.DocumentPassport, max+1, "application/pdf", max); err == nil {
		t.Error("Expected size error")
	}
	if err := ValidateDocument(models.DocumentTradeLicense, 1024, "application/zip", max); err == nil || err.Field != "trade_license" {
		t.Errorf("Expected type error on trade_license, got %v", err)
	}
	if err := ValidateDocument(models.DocumentEmiratesID, 0, "image/png", max); err == nil {
		t.Error("Expected empty file error")
	}
}

func TestValidateKYCForm_EnumMessages(t *testing.T) {
	f := validForm()
	f.LegalStructure = "trust"
	f.AnnualTurnover = "a lot"

	errs := ValidateKYCForm(f, testNow)

	want := map[string]string{
		"legal_structure": "invalid legal structure",
		"annual_turnover": "invalid turnover bracket",
	}
	for _, e := range errs {
		if msg, ok := want[e.Field]; ok && e.Message != msg {
			t.Errorf("Expected message %q for %s, got %q", msg, e.Field, e.Message)
		}
	}
	if len(errs) != len(want) {
		t.Errorf("Expected %d errors, got %v", len(want), fields(errs))
	}
}
