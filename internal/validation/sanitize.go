package validation

import (
	"html"
	"strings"

	"github.com/consultancy-portal-api/internal/models"
	"github.com/microcosm-cc/bluemonday"
)

var strictPolicy = bluemonday.StrictPolicy()

// StripTags removes every HTML tag from s and trims surrounding space.
// Entities escaped by the policy are decoded back so "A & B" survives.
func StripTags(s string) string {
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(s)))
}

// SanitizeKYCForm strips markup from every free-text field in place
func SanitizeKYCForm(f *models.KYCForm) {
	f.CompanyName = StripTags(f.CompanyName)
	f.LegalStructure = strings.ToLower(StripTags(f.LegalStructure))
	f.BusinessDescription = StripTags(f.BusinessDescription)
	f.PlaceOfEstablishment = StripTags(f.PlaceOfEstablishment)
	f.DateOfEstablishment = StripTags(f.DateOfEstablishment)
	f.AnnualTurnover = strings.ToLower(StripTags(f.AnnualTurnover))
	f.TradeLicenseNumber = strings.ToUpper(StripTags(f.TradeLicenseNumber))
	f.TradeLicenseExpiry = StripTags(f.TradeLicenseExpiry)
	f.TaxID = StripTags(f.TaxID)
	f.Address = StripTags(f.Address)
	f.Country = StripTags(f.Country)
	f.Email = strings.ToLower(StripTags(f.Email))
	f.Phone = StripTags(f.Phone)
	f.FormVersion = StripTags(f.FormVersion)
	f.Emirates = normalizeEmirates(f.Emirates)
}

// normalizeEmirates splits comma lists, drops blanks and duplicates, and maps
// names onto their canonical spelling when they match case-insensitively.
func normalizeEmirates(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]bool)
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			name := StripTags(part)
			if name == "" {
				continue
			}
			for _, canonical := range models.Emirates {
				if strings.EqualFold(canonical, name) {
					name = canonical
					break
				}
			}
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	return out
}

// NormalizeTags trims, lower-cases and de-duplicates article tags
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool)
	for _, t := range tags {
		tag := strings.ToLower(StripTags(t))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}
