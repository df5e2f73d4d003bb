package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/consultancy-portal-api/internal/models"
	"github.com/consultancy-portal-api/internal/repository"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const (
	flushEvery = 100
	sheetName  = "Sheet1"
)

// column is one exportable field of T
type column[T any] struct {
	name  string
	value func(T) interface{}
}

type registry[T any] struct {
	columns  []column[T]
	defaults []string
}

// pick resolves requested field names, or the defaults when none are given
func (r registry[T]) pick(fields []string) ([]column[T], models.ValidationErrors) {
	if len(fields) == 0 {
		fields = r.defaults
	}

	byName := make(map[string]column[T], len(r.columns))
	for _, c := range r.columns {
		byName[c.name] = c
	}

	var errs models.ValidationErrors
	picked := make([]column[T], 0, len(fields))
	for _, f := range fields {
		c, ok := byName[f]
		if !ok {
			errs = append(errs, models.ValidationError{Field: "fields", Message: "unknown field", Value: f})
			continue
		}
		picked = append(picked, c)
	}
	return picked, errs
}

var articleRegistry = registry[*models.Article]{
	columns: []column[*models.Article]{
		{"id", func(a *models.Article) interface{} { return a.ID }},
		{"title", func(a *models.Article) interface{} { return a.Title }},
		{"slug", func(a *models.Article) interface{} { return a.Slug }},
		{"excerpt", func(a *models.Article) interface{} { return a.Excerpt }},
		{"content", func(a *models.Article) interface{} { return a.Content }},
		{"author", func(a *models.Article) interface{} { return a.Author }},
		{"category", func(a *models.Article) interface{} { return a.Category }},
		{"tags", func(a *models.Article) interface{} { return a.Tags }},
		{"status", func(a *models.Article) interface{} { return string(a.Status) }},
		{"published_at", func(a *models.Article) interface{} { return a.PublishedAt }},
		{"views", func(a *models.Article) interface{} { return a.Views }},
		{"reading_time", func(a *models.Article) interface{} { return a.ReadingTime }},
		{"featured", func(a *models.Article) interface{} { return a.Featured }},
		{"created_at", func(a *models.Article) interface{} { return a.CreatedAt }},
		{"updated_at", func(a *models.Article) interface{} { return a.UpdatedAt }},
	},
	defaults: []string{"id", "title", "slug", "author", "category", "tags", "status", "published_at", "views", "featured"},
}

var kycRegistry = registry[*models.KYCSubmission]{
	columns: []column[*models.KYCSubmission]{
		{"id", func(s *models.KYCSubmission) interface{} { return s.ID }},
		{"company_name", func(s *models.KYCSubmission) interface{} { return s.CompanyName }},
		{"legal_structure", func(s *models.KYCSubmission) interface{} { return s.LegalStructure }},
		{"business_description", func(s *models.KYCSubmission) interface{} { return s.BusinessDescription }},
		{"place_of_establishment", func(s *models.KYCSubmission) interface{} { return s.PlaceOfEstablishment }},
		{"date_of_establishment", func(s *models.KYCSubmission) interface{} { return s.DateOfEstablishment }},
		{"annual_turnover", func(s *models.KYCSubmission) interface{} { return s.AnnualTurnover }},
		{"trade_license_number", func(s *models.KYCSubmission) interface{} { return s.TradeLicenseNumber }},
		{"trade_license_expiry", func(s *models.KYCSubmission) interface{} { return s.TradeLicenseExpiry }},
		{"tax_id", func(s *models.KYCSubmission) interface{} { return s.TaxID }},
		{"address", func(s *models.KYCSubmission) interface{} { return s.Address }},
		{"emirates", func(s *models.KYCSubmission) interface{} { return s.Emirates }},
		{"country", func(s *models.KYCSubmission) interface{} { return s.Country }},
		{"email", func(s *models.KYCSubmission) interface{} { return s.Email }},
		{"phone", func(s *models.KYCSubmission) interface{} { return s.Phone }},
		{"has_beneficial_owners", func(s *models.KYCSubmission) interface{} { return s.HasBeneficialOwners }},
		{"has_passport", func(s *models.KYCSubmission) interface{} { return s.Documents.Passport != nil }},
		{"has_trade_license", func(s *models.KYCSubmission) interface{} { return s.Documents.TradeLicense != nil }},
		{"has_emirates_id", func(s *models.KYCSubmission) interface{} { return s.Documents.EmiratesID != nil }},
		{"review_status", func(s *models.KYCSubmission) interface{} { return string(s.Review.Status) }},
		{"reviewed_by", func(s *models.KYCSubmission) interface{} { return s.Review.ReviewedBy }},
		{"review_notes", func(s *models.KYCSubmission) interface{} { return s.Review.Notes }},
		{"reviewed_at", func(s *models.KYCSubmission) interface{} { return s.Review.ReviewedAt }},
		{"submitted_at", func(s *models.KYCSubmission) interface{} { return s.SubmittedAt }},
	},
	defaults: []string{
		"id", "company_name", "legal_structure", "trade_license_number", "trade_license_expiry",
		"country", "email", "phone", "review_status", "submitted_at",
	},
}

// escapeFormula prefixes text that a spreadsheet would evaluate as a formula
func escapeFormula(s string) string {
	if s == "" {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + s
	}
	return s
}

// cellText renders a column value for CSV and XLSX cells
func cellText(v interface{}) string {
	switch t := v.(type) {
	case string:
		return escapeFormula(t)
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		return t.UTC().Format(time.RFC3339)
	case *time.Time:
		if t == nil {
			return ""
		}
		return t.UTC().Format(time.RFC3339)
	case models.Date:
		return t.String()
	case []string:
		parts := make([]string, len(t))
		for i, p := range t {
			parts[i] = escapeFormula(p)
		}
		return strings.Join(parts, "; ")
	default:
		return escapeFormula(fmt.Sprint(t))
	}
}

// cellValue keeps numbers and booleans native so spreadsheets can sort them
func cellValue(v interface{}) interface{} {
	switch t := v.(type) {
	case int, bool:
		return t
	default:
		return cellText(v)
	}
}

// sink writes rows in one output format. close is told whether the source
// failed; text formats are already partly sent and end as they are.
type sink interface {
	header(names []string) error
	row(values []interface{}) error
	close(failed bool) error
}

type csvSink struct {
	w *csv.Writer
}

func (s *csvSink) header(names []string) error { return s.w.Write(names) }

func (s *csvSink) row(values []interface{}) error {
	record := make([]string, len(values))
	for i, v := range values {
		record[i] = cellText(v)
	}
	return s.w.Write(record)
}

func (s *csvSink) close(bool) error {
	s.w.Flush()
	return s.w.Error()
}

// jsonSink streams an array of objects, keeping field order
type jsonSink struct {
	w     io.Writer
	names [][]byte
	first bool
}

func (s *jsonSink) header(names []string) error {
	s.names = make([][]byte, len(names))
	for i, n := range names {
		b, _ := json.Marshal(n)
		s.names[i] = b
	}
	s.first = true
	_, err := s.w.Write([]byte("["))
	return err
}

func (s *jsonSink) row(values []interface{}) error {
	var b strings.Builder
	if !s.first {
		b.WriteByte(',')
	}
	s.first = false

	b.WriteByte('{')
	for i, v := range values {
		if i > 0 {
			b.WriteByte(',')
		}
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		b.Write(s.names[i])
		b.WriteByte(':')
		b.Write(data)
	}
	b.WriteByte('}')

	_, err := io.WriteString(s.w, b.String())
	return err
}

func (s *jsonSink) close(bool) error {
	_, err := s.w.Write([]byte("]"))
	return err
}

// xlsxSink buffers rows in an excelize stream writer; the workbook is only
// written out on a close that follows a complete read.
type xlsxSink struct {
	w    io.Writer
	file *excelize.File
	sw   *excelize.StreamWriter
	rows int
}

func newXLSXSink(w io.Writer) (*xlsxSink, error) {
	f := excelize.NewFile()
	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create stream writer: %w", err)
	}
	return &xlsxSink{w: w, file: f, sw: sw}, nil
}

func (s *xlsxSink) header(names []string) error {
	cells := make([]interface{}, len(names))
	for i, n := range names {
		cells[i] = n
	}
	return s.row(cells)
}

func (s *xlsxSink) row(values []interface{}) error {
	s.rows++
	cell, err := excelize.CoordinatesToCellName(1, s.rows)
	if err != nil {
		return err
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = cellValue(v)
	}
	return s.sw.SetRow(cell, cells)
}

func (s *xlsxSink) close(failed bool) error {
	defer s.file.Close()
	if failed {
		return nil
	}
	if err := s.sw.Flush(); err != nil {
		return err
	}
	return s.file.Write(s.w)
}

var contentTypes = map[string]string{
	models.FormatCSV:  "text/csv",
	models.FormatJSON: "application/json",
	models.FormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// exportService is the concrete implementation of ExportService
type exportService struct {
	repos *repository.Repositories
	log   zerolog.Logger
	now   func() time.Time
}

// newExportService creates a new ExportService
func newExportService(repos *repository.Repositories, log zerolog.Logger) *exportService {
	return &exportService{
		repos: repos,
		log:   log.With().Str("service", "export").Logger(),
		now:   time.Now,
	}
}

// Filename is the attachment name for an export started at now
func Filename(resource, format string, now time.Time) string {
	return fmt.Sprintf("%s-export-%s.%s", resource, now.Format("2006-01-02"), format)
}

// Export streams the requested resource in the requested format
func (s *exportService) Export(ctx context.Context, w http.ResponseWriter, req *models.ExportRequest) error {
	if _, ok := contentTypes[req.Format]; !ok {
		return models.ValidationErrors{{
			Field:   "format",
			Message: "invalid format, must be one of: csv, json, xlsx",
			Value:   req.Format,
		}}
	}

	switch req.Resource {
	case models.ResourceArticles:
		cols, errs := articleRegistry.pick(req.Fields)
		if len(errs) > 0 {
			return errs
		}
		return stream(ctx, s, w, req, cols, func(cb func(*models.Article) error) error {
			return s.repos.Article.StreamAll(ctx, req.ArticleFilter, cb)
		})
	case models.ResourceKYC:
		cols, errs := kycRegistry.pick(req.Fields)
		if len(errs) > 0 {
			return errs
		}
		return stream(ctx, s, w, req, cols, func(cb func(*models.KYCSubmission) error) error {
			return s.repos.KYC.StreamAll(ctx, req.KYCFilter, cb)
		})
	default:
		return models.ValidationErrors{{
			Field:   "resource",
			Message: "invalid resource, must be one of: kyc, articles",
			Value:   req.Resource,
		}}
	}
}

func stream[T any](ctx context.Context, s *exportService, w http.ResponseWriter, req *models.ExportRequest, cols []column[T], source func(func(T) error) error) error {
	var out sink
	switch req.Format {
	case models.FormatCSV:
		out = &csvSink{w: csv.NewWriter(w)}
	case models.FormatJSON:
		out = &jsonSink{w: w}
	case models.FormatXLSX:
		x, err := newXLSXSink(w)
		if err != nil {
			return err
		}
		out = x
	}

	s.log.Info().
		Str("resource", req.Resource).
		Str("format", req.Format).
		Int("fields", len(cols)).
		Msg("Starting export")

	w.Header().Set("Content-Type", contentTypes[req.Format])
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="%s"`, Filename(req.Resource, req.Format, s.now())))

	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.name
	}
	if err := out.header(names); err != nil {
		return err
	}

	flusher, _ := w.(http.Flusher)
	count := 0

	err := source(func(item T) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		values := make([]interface{}, len(cols))
		for i, c := range cols {
			values[i] = c.value(item)
		}
		if err := out.row(values); err != nil {
			return err
		}
		count++

		// Flush every 100 records for streaming
		if count%flushEvery == 0 && flusher != nil && req.Format != models.FormatXLSX {
			if c, ok := out.(*csvSink); ok {
				c.w.Flush()
			}
			flusher.Flush()
		}
		return nil
	})

	if cerr := out.close(err != nil); err == nil {
		err = cerr
	}

	s.log.Info().Str("resource", req.Resource).Int("count", count).Err(err).Msg("Export completed")
	return err
}

// GetCount returns count for a resource
func (s *exportService) GetCount(ctx context.Context, resource string) (int, error) {
	switch resource {
	case models.ResourceArticles:
		return s.repos.Article.Count(ctx)
	case models.ResourceKYC:
		return s.repos.KYC.Count(ctx)
	default:
		return 0, fmt.Errorf("unknown resource: %s", resource)
	}
}
