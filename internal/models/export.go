package models

// Export resources
const (
	ResourceKYC      = "kyc"
	ResourceArticles = "articles"
)

// Export formats
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatXLSX = "xlsx"
)

// ExportRequest represents a bulk export request
type ExportRequest struct {
	Resource      string        `json:"resource" form:"resource"` // kyc, articles
	Format        string        `json:"format" form:"format"`     // csv, json, xlsx
	Fields        []string      `json:"fields,omitempty"`         // Optional field selection
	KYCFilter     KYCFilter     `json:"-"`
	ArticleFilter ArticleFilter `json:"-"`
}
