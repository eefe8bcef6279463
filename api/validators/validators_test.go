package validators

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	pkgerrors "github.com/angelmondragon/loyalty-backend/pkg/errors"
	"github.com/angelmondragon/loyalty-backend/pkg/pagination"
)

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	type payload struct {
		Name string `json:"name" validate:"required"`
	}
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"a","extra":true}`))

	var dest payload
	err := DecodeJSONBody(r, &dest)
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDecodeJSONBodyReportsFieldsByJSONName(t *testing.T) {
	type payload struct {
		Reason string `json:"reason" validate:"required"`
		Delta  int    `json:"delta" validate:"required"`
	}
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{}`))

	var dest payload
	err := DecodeJSONBody(r, &dest)
	typed := pkgerrors.As(err)
	if typed == nil {
		t.Fatalf("expected typed error, got %v", err)
	}
	details, ok := typed.Details().(map[string]string)
	if !ok {
		t.Fatalf("expected field details, got %#v", typed.Details())
	}
	if details["reason"] != "is required" {
		t.Fatalf("expected reason detail, got %v", details)
	}
	if details["delta"] != "is required" {
		t.Fatalf("expected delta detail, got %v", details)
	}
}

func TestParsePagination(t *testing.T) {
	r := httptest.NewRequest("GET", "/?page=3&page_size=50", nil)
	params, err := ParsePagination(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if params.Page != 3 || params.PageSize != 50 {
		t.Fatalf("unexpected params %+v", params)
	}

	r = httptest.NewRequest("GET", "/", nil)
	params, err = ParsePagination(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if params.Page != 1 || params.PageSize != pagination.DefaultPageSize {
		t.Fatalf("defaults not applied: %+v", params)
	}

	r = httptest.NewRequest("GET", "/?page_size=9999", nil)
	if _, err := ParsePagination(r); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for oversized page_size, got %v", err)
	}

	r = httptest.NewRequest("GET", "/?page=abc", nil)
	if _, err := ParsePagination(r); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for non-numeric page, got %v", err)
	}
}

func TestParseQueryTime(t *testing.T) {
	r := httptest.NewRequest("GET", "/?from=2024-03-01T10:00:00Z", nil)
	got, err := ParseQueryTime(r, "from")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	if got == nil || !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	r = httptest.NewRequest("GET", "/?from=2024-03-01", nil)
	got, err = ParseQueryTime(r, "from")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || !got.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected date parse: %v", got)
	}

	r = httptest.NewRequest("GET", "/", nil)
	got, err = ParseQueryTime(r, "from")
	if err != nil || got != nil {
		t.Fatalf("expected nil for missing value, got %v %v", got, err)
	}

	r = httptest.NewRequest("GET", "/?from=yesterday", nil)
	if _, err := ParseQueryTime(r, "from"); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSanitizeString(t *testing.T) {
	if got := SanitizeString("  hello  ", 0); got != "hello" {
		t.Fatalf("unexpected %q", got)
	}
	if got := SanitizeString("abcdef", 3); got != "abc" {
		t.Fatalf("unexpected %q", got)
	}
	if got := SanitizeString("日本語テスト", 3); got != "日本語" {
		t.Fatalf("truncation should not split runes, got %q", got)
	}
}
