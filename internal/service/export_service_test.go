package service_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/consultancy-portal-api/internal/models"
	"github.com/consultancy-portal-api/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func seedExportData(f *fixture) {
	published := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	for i := 1; i <= 3; i++ {
		id := "article-" + strconv.Itoa(i)
		f.articles.Articles[id] = &models.Article{
			ID:          id,
			Title:       "Article " + strconv.Itoa(i),
			Slug:        "article-" + strconv.Itoa(i),
			Author:      "Editorial Team",
			Category:    "tax",
			Tags:        []string{"vat", "uae"},
			Status:      models.ArticleStatusPublished,
			PublishedAt: &published,
			Views:       i * 10,
			CreatedAt:   published.Add(time.Duration(i) * time.Hour),
		}
	}

	expiry, _ := models.ParseDate("2026-01-31")
	f.kyc.Submissions["sub-1"] = &models.KYCSubmission{
		ID:                 "sub-1",
		CompanyName:        "Acme, Trading LLC",
		TradeLicenseNumber: "DED-1",
		TradeLicenseExpiry: expiry,
		Emirates:           []string{"Dubai", "Sharjah"},
		Country:            "UAE",
		Email:              "owner@acme.ae",
		Documents:          models.Documents{Passport: &models.Document{StorageKey: "kyc/sub-1/passport.pdf"}},
		Review:             models.Review{Status: models.ReviewStatusApproved},
		SubmittedAt:        time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	f.kyc.Submissions["sub-2"] = &models.KYCSubmission{
		ID:                 "sub-2",
		CompanyName:        "Beta Consulting",
		TradeLicenseNumber: "DED-2",
		Country:            "Oman",
		Review:             models.Review{Status: models.ReviewStatusPending},
		SubmittedAt:        time.Date(2024, 6, 2, 12, 0, 0, 0, time.UTC),
	}
}

func TestExportService_CSVWithFieldSelection(t *testing.T) {
	f := newFixture(t)
	seedExportData(f)
	w := httptest.NewRecorder()

	err := f.services.Export.Export(context.Background(), w, &models.ExportRequest{
		Resource:  models.ResourceKYC,
		Format:    models.FormatCSV,
		Fields:    []string{"id", "company_name", "emirates", "has_passport", "trade_license_expiry"},
		KYCFilter: models.KYCFilter{Status: string(models.ReviewStatusApproved)},
	})
	require.NoError(t, err)

	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Equal(t,
		`attachment; filename="`+service.Filename(models.ResourceKYC, models.FormatCSV, time.Now())+`"`,
		w.Header().Get("Content-Disposition"))

	records, err := csv.NewReader(w.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"id", "company_name", "emirates", "has_passport", "trade_license_expiry"}, records[0])
	assert.Equal(t, []string{"sub-1", "Acme, Trading LLC", "Dubai; Sharjah", "true", "2026-01-31"}, records[1])
}

func TestExportService_DefaultColumns(t *testing.T) {
	f := newFixture(t)
	seedExportData(f)
	w := httptest.NewRecorder()

	err := f.services.Export.Export(context.Background(), w, &models.ExportRequest{
		Resource: models.ResourceArticles,
		Format:   models.FormatCSV,
	})
	require.NoError(t, err)

	records, err := csv.NewReader(w.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, "id", records[0][0])
	assert.Contains(t, records[0], "slug")
	assert.NotContains(t, records[0], "content")
}

func TestExportService_JSONKeepsFieldOrder(t *testing.T) {
	f := newFixture(t)
	seedExportData(f)
	w := httptest.NewRecorder()

	err := f.services.Export.Export(context.Background(), w, &models.ExportRequest{
		Resource: models.ResourceArticles,
		Format:   models.FormatJSON,
		Fields:   []string{"slug", "views", "tags", "published_at"},
	})
	require.NoError(t, err)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var rows []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rows))
	require.Len(t, rows, 3)

	// newest first
	assert.Equal(t, "article-3", rows[0]["slug"])
	assert.Equal(t, float64(30), rows[0]["views"])
	assert.Equal(t, []interface{}{"vat", "uae"}, rows[0]["tags"])
	assert.Equal(t, "2024-05-01T09:00:00Z", rows[0]["published_at"])

	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte(`[{"slug":`)))
}

func TestExportService_JSONEmptyResult(t *testing.T) {
	f := newFixture(t)
	w := httptest.NewRecorder()

	err := f.services.Export.Export(context.Background(), w, &models.ExportRequest{
		Resource: models.ResourceKYC,
		Format:   models.FormatJSON,
	})
	require.NoError(t, err)
	assert.Equal(t, "[]", w.Body.String())
}

func TestExportService_XLSX(t *testing.T) {
	f := newFixture(t)
	seedExportData(f)
	w := httptest.NewRecorder()

	err := f.services.Export.Export(context.Background(), w, &models.ExportRequest{
		Resource: models.ResourceKYC,
		Format:   models.FormatXLSX,
		Fields:   []string{"id", "review_status", "has_passport"},
	})
	require.NoError(t, err)
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")

	book, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer book.Close()

	rows, err := book.GetRows("Sheet1")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"id", "review_status", "has_passport"}, rows[0])
	assert.Equal(t, []string{"sub-2", "pending", "FALSE"}, rows[1])
	assert.Equal(t, []string{"sub-1", "approved", "TRUE"}, rows[2])
}

func TestExportService_RejectsBeforeWriting(t *testing.T) {
	tests := []struct {
		name  string
		req   *models.ExportRequest
		field string
	}{
		{"unknown format", &models.ExportRequest{Resource: models.ResourceKYC, Format: "xml"}, "format"},
		{"unknown resource", &models.ExportRequest{Resource: "users", Format: models.FormatCSV}, "resource"},
		{"unknown field", &models.ExportRequest{Resource: models.ResourceKYC, Format: models.FormatCSV, Fields: []string{"id", "password"}}, "fields"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			w := httptest.NewRecorder()

			err := f.services.Export.Export(context.Background(), w, tt.req)

			var verrs models.ValidationErrors
			require.True(t, errors.As(err, &verrs))
			assert.True(t, verrs.Has(tt.field))
			assert.Empty(t, w.Header().Get("Content-Disposition"))
			assert.Zero(t, w.Body.Len())
		})
	}
}

func TestExportService_GetCount(t *testing.T) {
	f := newFixture(t)
	seedExportData(f)
	ctx := context.Background()

	n, err := f.services.Export.GetCount(ctx, models.ResourceArticles)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = f.services.Export.GetCount(ctx, models.ResourceKYC)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = f.services.Export.GetCount(ctx, "users")
	assert.Error(t, err)
}

func TestExportService_EscapesFormulaCells(t *testing.T) {
	formula := `=HYPERLINK("http://evil.example/x","Open")`

	for _, format := range []string{models.FormatCSV, models.FormatXLSX} {
		t.Run(format, func(t *testing.T) {
			f := newFixture(t)
			seedExportData(f)
			f.kyc.Submissions["sub-1"].CompanyName = formula
			f.kyc.Submissions["sub-1"].Emirates = []string{"Dubai", "@SUM(A1)"}
			w := httptest.NewRecorder()

			err := f.services.Export.Export(context.Background(), w, &models.ExportRequest{
				Resource:  models.ResourceKYC,
				Format:    format,
				Fields:    []string{"id", "company_name", "emirates"},
				KYCFilter: models.KYCFilter{Status: string(models.ReviewStatusApproved)},
			})
			require.NoError(t, err)

			var rows [][]string
			if format == models.FormatCSV {
				rows, err = csv.NewReader(w.Body).ReadAll()
				require.NoError(t, err)
			} else {
				book, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
				require.NoError(t, err)
				defer book.Close()
				rows, err = book.GetRows("Sheet1")
				require.NoError(t, err)
			}

			require.Len(t, rows, 2)
			assert.Equal(t, []string{"sub-1", "'" + formula, "Dubai; '@SUM(A1)"}, rows[1])
		})
	}
}

func TestExportService_JSONKeepsRawText(t *testing.T) {
	f := newFixture(t)
	seedExportData(f)
	f.kyc.Submissions["sub-1"].CompanyName = "=1+1"
	w := httptest.NewRecorder()

	err := f.services.Export.Export(context.Background(), w, &models.ExportRequest{
		Resource:  models.ResourceKYC,
		Format:    models.FormatJSON,
		Fields:    []string{"company_name"},
		KYCFilter: models.KYCFilter{Status: string(models.ReviewStatusApproved)},
	})
	require.NoError(t, err)
	assert.Equal(t, `[{"company_name":"=1+1"}]`, w.Body.String())
}

func TestExportService_XLSXNotWrittenOnSourceFailure(t *testing.T) {
	f := newFixture(t)
	seedExportData(f)
	f.kyc.StreamError = errors.New("connection reset")
	w := httptest.NewRecorder()

	err := f.services.Export.Export(context.Background(), w, &models.ExportRequest{
		Resource: models.ResourceKYC,
		Format:   models.FormatXLSX,
	})
	require.Error(t, err)
	assert.Zero(t, w.Body.Len())
}

func TestExportService_CSVEndsAtSourceFailure(t *testing.T) {
	f := newFixture(t)
	seedExportData(f)
	f.kyc.StreamError = errors.New("connection reset")
	w := httptest.NewRecorder()

	err := f.services.Export.Export(context.Background(), w, &models.ExportRequest{
		Resource: models.ResourceKYC,
		Format:   models.FormatCSV,
		Fields:   []string{"id"},
	})
	require.Error(t, err)

	records, rerr := csv.NewReader(w.Body).ReadAll()
	require.NoError(t, rerr)
	assert.Len(t, records, 2)
}
