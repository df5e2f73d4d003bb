package benchmark

import (
	"context"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/consultancy-portal-api/internal/config"
	"github.com/consultancy-portal-api/internal/mocks"
	"github.com/consultancy-portal-api/internal/models"
	"github.com/consultancy-portal-api/internal/ratelimit"
	"github.com/consultancy-portal-api/internal/repository"
	"github.com/consultancy-portal-api/internal/service"
	"github.com/consultancy-portal-api/internal/validation"
	"github.com/consultancy-portal-api/pkg/slug"
	"github.com/rs/zerolog"
)

func seededServices(submissions int) *service.Services {
	kycRepo := mocks.NewMockKYCRepository()
	now := time.Now()
	for i := 0; i < submissions; i++ {
		id := fmt.Sprintf("550e8400-e29b-41d4-a716-%012d", i)
		kycRepo.Submissions[id] = &models.KYCSubmission{
			ID:                 id,
			CompanyName:        fmt.Sprintf("Company %06d LLC", i),
			LegalStructure:     "llc",
			TradeLicenseNumber: fmt.Sprintf("DED-%06d", i),
			Emirates:           []string{"Dubai"},
			Country:            "UAE",
			Email:              fmt.Sprintf("owner%06d@example.ae", i),
			Review:             models.Review{Status: models.ReviewStatusPending},
			SubmittedAt:        now.Add(-time.Duration(i) * time.Minute),
		}
	}

	repos := &repository.Repositories{Article: mocks.NewMockArticleRepository(), KYC: kycRepo}
	return service.NewServices(repos, service.Deps{Storage: mocks.NewMockStorage()}, &config.Config{}, zerolog.Nop())
}

func benchmarkExport(b *testing.B, format string) {
	services := seededServices(1000)
	req := &models.ExportRequest{Resource: models.ResourceKYC, Format: format}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		w := httptest.NewRecorder()
		if err := services.Export.Export(context.Background(), w, req); err != nil {
			b.Fatal(err)
		}
	}

	b.ReportMetric(float64(1000*b.N)/b.Elapsed().Seconds(), "rows/sec")
}

// BenchmarkExportCSV benchmarks streaming CSV export performance
func BenchmarkExportCSV(b *testing.B) { benchmarkExport(b, models.FormatCSV) }

// BenchmarkExportJSON benchmarks streaming JSON export performance
func BenchmarkExportJSON(b *testing.B) { benchmarkExport(b, models.FormatJSON) }

// BenchmarkExportXLSX benchmarks spreadsheet export performance
func BenchmarkExportXLSX(b *testing.B) { benchmarkExport(b, models.FormatXLSX) }

// BenchmarkKYCValidation benchmarks the sanitise and validate pipeline
func BenchmarkKYCValidation(b *testing.B) {
	now := time.Now()
	form := models.KYCForm{
		CompanyName:          "<b>Acme</b> Trading LLC",
		LegalStructure:       "LLC",
		BusinessDescription:  "General trading",
		PlaceOfEstablishment: "Dubai",
		DateOfEstablishment:  "2019-03-14",
		AnnualTurnover:       "3m_to_10m",
		TradeLicenseNumber:   "ded-123456",
		TradeLicenseExpiry:   now.AddDate(1, 0, 0).Format(models.DateLayout),
		Address:              "Business Bay",
		Emirates:             []string{"dubai", "Sharjah"},
		Country:              "UAE",
		Email:                "Owner@Acme.ae",
		Phone:                "+971 4 123 4567",
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		f := form
		validation.SanitizeKYCForm(&f)
		validation.ValidateKYCForm(&f, now)
	}
}

// BenchmarkSlugUnique benchmarks slug generation against a crowded namespace
func BenchmarkSlugUnique(b *testing.B) {
	taken := map[string]bool{"vat-registration-guide": true}
	for i := 2; i < 50; i++ {
		taken[fmt.Sprintf("vat-registration-guide-%d", i)] = true
	}
	exists := func(ctx context.Context, candidate string) (bool, error) {
		return taken[candidate], nil
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, err := slug.Unique(context.Background(), slug.Generate("VAT Registration Guide"), exists); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkMemoryLimiterParallel benchmarks concurrent hits across many client IPs
func BenchmarkMemoryLimiterParallel(b *testing.B) {
	limiter := ratelimit.NewMemoryLimiter("bench", config.Policy{
		MaxAttempts: 1 << 30,
		Window:      time.Minute,
		Lockout:     time.Minute,
	}, zerolog.Nop())
	keys := make([]string, 256)
	for i := range keys {
		keys[i] = fmt.Sprintf("203.0.113.%d", i)
	}

	b.ResetTimer()
	b.ReportAllocs()

	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			limiter.Hit(context.Background(), keys[i%len(keys)])
			i++
		}
	})
}

// BenchmarkStripTags benchmarks HTML stripping on a long description
func BenchmarkStripTags(b *testing.B) {
	input := strings.Repeat("<p>Consulting <script>alert(1)</script>services</p> ", 200)

	b.ResetTimer()
	b.ReportAllocs()
	b.SetBytes(int64(len(input)))

	for i := 0; i < b.N; i++ {
		validation.StripTags(input)
	}
}
