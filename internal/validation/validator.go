package validation

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/consultancy-portal-api/internal/models"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

var (
	phoneRegex   = regexp.MustCompile(`^\+?[0-9][0-9 ()-]{6,19}$`)
	licenseRegex = regexp.MustCompile(`^[A-Z0-9][A-Z0-9/ -]*$`)
	trnRegex     = regexp.MustCompile(`^[0-9]{15}$`)
)

// Limits on free-text fields
const (
	MaxTags        = 20
	MaxTagLength   = 40
	MaxReviewNotes = 5000
	MaxEmailLength = 254
)

func oneOf(values []string) validation.InRule {
	in := make([]interface{}, len(values))
	for i, v := range values {
		in[i] = v
	}
	return validation.In(in...)
}

// toValidationErrors flattens ozzo errors into a sorted field list. Nested
// struct errors are reported as parent.child; slice element errors are
// reported on the slice itself.
func toValidationErrors(err error, prefix string) models.ValidationErrors {
	if err == nil {
		return nil
	}

	var errs validation.Errors
	if !errors.As(err, &errs) {
		return models.ValidationErrors{{Field: prefix, Message: err.Error()}}
	}

	fields := make([]string, 0, len(errs))
	for field := range errs {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var out models.ValidationErrors
	for _, field := range fields {
		name := field
		switch {
		case isIndex(field) && prefix != "":
			name = prefix
		case prefix != "":
			name = prefix + "." + field
		}
		out = append(out, toValidationErrors(errs[field], name)...)
	}
	return out
}

func isIndex(s string) bool {
	_, err := strconv.Atoi(s)
	return err == nil
}

// ValidateArticle validates an article after create/update input is applied
func ValidateArticle(a *models.Article) models.ValidationErrors {
	status := string(a.Status)
	err := validation.ValidateStruct(a,
		validation.Field(&a.Title, validation.Required.Error("title is required"), validation.RuneLength(3, 200)),
		validation.Field(&a.Excerpt, validation.Required.Error("excerpt is required"), validation.RuneLength(0, 500)),
		validation.Field(&a.Content, validation.Required.Error("content is required")),
		validation.Field(&a.Author, validation.Required.Error("author is required"), validation.RuneLength(0, 120)),
		validation.Field(&a.Category,
			validation.Required.Error("category is required"),
			oneOf(models.ArticleCategories).Error("invalid category")),
		validation.Field(&a.Tags,
			validation.Length(0, MaxTags),
			validation.Each(validation.RuneLength(1, MaxTagLength))),
	)
	out := toValidationErrors(err, "")

	if !models.ValidArticleStatuses[a.Status] {
		out = append(out, models.ValidationError{
			Field:   "status",
			Message: "invalid status, must be one of: draft, published, archived",
			Value:   status,
		})
	}

	if a.SEO != nil {
		seo := a.SEO
		err := validation.ValidateStruct(seo,
			validation.Field(&seo.MetaTitle, validation.RuneLength(0, 70)),
			validation.Field(&seo.MetaDescription, validation.RuneLength(0, 160)),
			validation.Field(&seo.Keywords, validation.Length(0, MaxTags)),
			validation.Field(&seo.OGImage, is.URL),
		)
		out = append(out, toValidationErrors(err, "seo")...)
	}

	return out
}

func notInFuture(now time.Time) validation.Rule {
	return validation.By(func(value interface{}) error {
		s, _ := value.(string)
		d, err := models.ParseDate(s)
		if err != nil {
			return nil // reported by the Date rule
		}
		if d.After(now) {
			return errors.New("must not be in the future")
		}
		return nil
	})
}

// ValidateKYCForm validates a sanitised intake form
func ValidateKYCForm(f *models.KYCForm, now time.Time) models.ValidationErrors {
	uae := models.IsUAE(f.Country)

	err := validation.ValidateStruct(f,
		validation.Field(&f.CompanyName, validation.Required.Error("company name is required"), validation.RuneLength(2, 200)),
		validation.Field(&f.LegalStructure,
			validation.Required.Error("legal structure is required"),
			oneOf(models.LegalStructures).Error("invalid legal structure")),
		validation.Field(&f.BusinessDescription,
			validation.Required.Error("business description is required"),
			validation.RuneLength(10, 2000)),
		validation.Field(&f.PlaceOfEstablishment,
			validation.Required.Error("place of establishment is required"),
			validation.RuneLength(0, 120)),
		validation.Field(&f.DateOfEstablishment,
			validation.Required.Error("date of establishment is required"),
			validation.Date(models.DateLayout).Error("must be a date in YYYY-MM-DD format"),
			notInFuture(now)),
		validation.Field(&f.AnnualTurnover,
			validation.Required.Error("annual turnover is required"),
			oneOf(models.TurnoverBrackets).Error("invalid turnover bracket")),
		validation.Field(&f.TradeLicenseNumber,
			validation.Required.Error("trade license number is required"),
			validation.RuneLength(3, 60),
			validation.Match(licenseRegex).Error("may contain only letters, digits, spaces, '-' and '/'")),
		validation.Field(&f.TradeLicenseExpiry,
			validation.Required.Error("trade license expiry is required"),
			validation.Date(models.DateLayout).Error("must be a date in YYYY-MM-DD format")),
		validation.Field(&f.TaxID,
			validation.RuneLength(0, 40),
			validation.When(f.TaxID != "", validation.Match(trnRegex).Error("must be a 15-digit tax registration number"))),
		validation.Field(&f.Address, validation.Required.Error("address is required"), validation.RuneLength(0, 500)),
		validation.Field(&f.Emirates,
			validation.When(uae, validation.Required.Error("at least one emirate is required")),
			validation.Each(oneOf(models.Emirates).Error("invalid emirate"))),
		validation.Field(&f.Country, validation.Required.Error("country is required"), validation.RuneLength(0, 80)),
		validation.Field(&f.Email,
			validation.Required.Error("email is required"),
			validation.RuneLength(0, MaxEmailLength),
			is.EmailFormat.Error("invalid email format")),
		validation.Field(&f.Phone,
			validation.Required.Error("phone is required"),
			validation.RuneLength(0, 40),
			validation.Match(phoneRegex).Error("invalid phone number")),
	)
	return toValidationErrors(err, "")
}

// ValidateReviewUpdate validates a reviewer PATCH payload
func ValidateReviewUpdate(u *models.ReviewUpdate) models.ValidationErrors {
	if u.Status == nil && u.Notes == nil && u.ReviewedBy == nil {
		return models.ValidationErrors{{Field: "status", Message: "at least one of status, notes, reviewed_by is required"}}
	}

	var out models.ValidationErrors
	if u.Status != nil && !models.ReviewStatus(*u.Status).IsValid() {
		out = append(out, models.ValidationError{
			Field:   "status",
			Message: "invalid status, must be one of: pending, under_review, approved, rejected, requires_info",
			Value:   *u.Status,
		})
	}
	if u.Notes != nil && len([]rune(*u.Notes)) > MaxReviewNotes {
		out = append(out, models.ValidationError{
			Field:   "notes",
			Message: fmt.Sprintf("notes exceed maximum of %d characters", MaxReviewNotes),
		})
	}
	if u.ReviewedBy != nil && len([]rune(*u.ReviewedBy)) > 120 {
		out = append(out, models.ValidationError{Field: "reviewed_by", Message: "reviewed_by is too long"})
	}
	return out
}
