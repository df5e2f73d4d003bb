package models

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestReadingTimeMinutes(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    int
	}{
		{"empty", "", 1},
		{"short", "just a few words", 1},
		{"exactly one minute", strings.Repeat("word ", 200), 1},
		{"rounds up", strings.Repeat("word ", 201), 2},
		{"long", strings.Repeat("word ", 1000), 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ReadingTimeMinutes(tt.content); got != tt.want {
				t.Errorf("Expected %d minutes, got %d", tt.want, got)
			}
		})
	}
}

func TestApplyStatus_PublishedAtSetOnce(t *testing.T) {
	first := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	later := first.Add(48 * time.Hour)

	a := &Article{Status: ArticleStatusDraft}
	a.ApplyStatus(ArticleStatusPublished, first)
	if a.PublishedAt == nil || !a.PublishedAt.Equal(first) {
		t.Fatalf("Expected published_at %v, got %v", first, a.PublishedAt)
	}

	a.ApplyStatus(ArticleStatusArchived, later)
	a.ApplyStatus(ArticleStatusPublished, later)
	if !a.PublishedAt.Equal(first) {
		t.Errorf("Expected published_at to stay %v, got %v", first, a.PublishedAt)
	}
	if a.Status != ArticleStatusPublished {
		t.Errorf("Expected status published, got %s", a.Status)
	}
}

func TestApplyStatus_DraftLeavesPublishedAtUnset(t *testing.T) {
	a := &Article{}
	a.ApplyStatus(ArticleStatusDraft, time.Now())
	if a.PublishedAt != nil {
		t.Errorf("Expected no published_at for a draft, got %v", a.PublishedAt)
	}
}

func TestDateJSON(t *testing.T) {
	var payload struct {
		Expiry Date `json:"expiry"`
		Empty  Date `json:"empty"`
	}
	if err := json.Unmarshal([]byte(`{"expiry":"2025-12-31","empty":null}`), &payload); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if payload.Expiry.String() != "2025-12-31" {
		t.Errorf("Expected 2025-12-31, got %s", payload.Expiry)
	}
	if !payload.Empty.IsZero() {
		t.Errorf("Expected zero date, got %v", payload.Empty)
	}

	out, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if string(out) != `{"expiry":"2025-12-31","empty":null}` {
		t.Errorf("Unexpected JSON %s", out)
	}

	if err := json.Unmarshal([]byte(`{"expiry":"31/12/2025"}`), &payload); err == nil {
		t.Error("Expected an error for a non ISO date")
	}
}

func TestNewDateTruncatesToUTCMidnight(t *testing.T) {
	dubai := time.FixedZone("GST", 4*3600)
	d := NewDate(time.Date(2024, 3, 1, 2, 30, 0, 0, dubai))
	if d.String() != "2024-02-29" {
		t.Errorf("Expected 2024-02-29, got %s", d)
	}
	if d.Hour() != 0 || d.Location() != time.UTC {
		t.Errorf("Expected UTC midnight, got %v", d.Time)
	}
}

func TestPagination(t *testing.T) {
	tests := []struct {
		page, limit         int
		wantPage, wantLimit int
	}{
		{0, 0, 1, DefaultPageSize},
		{-3, 5, 1, 5},
		{2, 500, 2, MaxPageSize},
	}
	for _, tt := range tests {
		page, limit := NormalizePage(tt.page, tt.limit)
		if page != tt.wantPage || limit != tt.wantLimit {
			t.Errorf("NormalizePage(%d, %d) = %d, %d; want %d, %d", tt.page, tt.limit, page, limit, tt.wantPage, tt.wantLimit)
		}
	}

	p := NewPagination(2, 10, 21)
	if p.TotalPages != 3 {
		t.Errorf("Expected 3 pages, got %d", p.TotalPages)
	}
	if NewPagination(1, 10, 0).TotalPages != 0 {
		t.Error("Expected 0 pages for an empty result")
	}
}

func TestDocumentsGetSet(t *testing.T) {
	var docs Documents
	doc := &Document{StorageKey: "kyc/1/passport.pdf"}
	docs.Set(DocumentPassport, doc)

	if docs.Get(DocumentPassport) != doc {
		t.Error("Expected passport to round trip")
	}
	if docs.Get(DocumentEmiratesID) != nil {
		t.Error("Expected no emirates id")
	}
	if _, ok := ParseDocumentType("selfie"); ok {
		t.Error("Expected selfie to be rejected")
	}
}

func TestKYCStatsAdd(t *testing.T) {
	var s KYCStats
	s.Add(ReviewStatusPending, 2)
	s.Add(ReviewStatusApproved, 1)
	s.Add(ReviewStatusRequiresInfo, 3)

	if s.Total != 6 || s.Pending != 2 || s.Approved != 1 || s.RequiresInfo != 3 {
		t.Errorf("Unexpected stats %+v", s)
	}
}

func TestIsUAE(t *testing.T) {
	for _, c := range []string{"UAE", " united arab emirates ", "AE", "U.A.E."} {
		if !IsUAE(c) {
			t.Errorf("Expected %q to be the UAE", c)
		}
	}
	if IsUAE("Oman") {
		t.Error("Expected Oman not to be the UAE")
	}
}

func TestErrors(t *testing.T) {
	var err error = &InvalidCredentialsError{AttemptsRemaining: 1}
	if !errors.Is(err, ErrUnauthorized) {
		t.Error("Expected invalid credentials to unwrap to ErrUnauthorized")
	}

	verrs := ValidationErrors{{Field: "title", Message: "cannot be blank"}, {Field: "tags", Message: "too many"}}
	if !verrs.Has("tags") || verrs.Has("author") {
		t.Error("Unexpected Has result")
	}
	if !strings.Contains(verrs.Error(), "title: cannot be blank") {
		t.Errorf("Unexpected message %q", verrs.Error())
	}
}
