package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestMetadataFor_KnownCodes(t *testing.T) {
	tests := []struct {
		code   Code
		status int
	}{
		{CodeValidation, http.StatusBadRequest},
		{CodeForbidden, http.StatusForbidden},
		{CodeNotFound, http.StatusNotFound},
		{CodeConflict, http.StatusConflict},
		{CodeStateConflict, http.StatusUnprocessableEntity},
		{CodeInsufficientPoints, http.StatusUnprocessableEntity},
		{CodeInternal, http.StatusInternalServerError},
		{CodeDependency, http.StatusServiceUnavailable},
	}
	for _, tc := range tests {
		if got := MetadataFor(tc.code).HTTPStatus; got != tc.status {
			t.Fatalf("MetadataFor(%s) status = %d, want %d", tc.code, got, tc.status)
		}
	}
}

func TestMetadataFor_UnknownCodeFallsBackToInternal(t *testing.T) {
	meta := MetadataFor(Code("NOT_A_CODE"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("unexpected fallback status %d", meta.HTTPStatus)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("connection refused")
	err := Wrap(CodeDependency, cause, "reach balance store")

	if !stdErrors.Is(err, cause) {
		t.Fatal("expected wrapped error to match cause via errors.Is")
	}
	if err.Code() != CodeDependency {
		t.Fatalf("unexpected code %s", err.Code())
	}
}

func TestAs_ExtractsThroughWrapping(t *testing.T) {
	inner := New(CodeInsufficientPoints, "available balance too low")
	outer := fmt.Errorf("deduct: %w", inner)

	typed := As(outer)
	if typed == nil {
		t.Fatal("expected typed error")
	}
	if typed.Code() != CodeInsufficientPoints {
		t.Fatalf("unexpected code %s", typed.Code())
	}
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(CodeConflict, "already distributed"))
	if !HasCode(err, CodeConflict) {
		t.Fatal("expected HasCode to match wrapped conflict")
	}
	if HasCode(err, CodeNotFound) {
		t.Fatal("did not expect not-found code")
	}
	if HasCode(nil, CodeConflict) {
		t.Fatal("nil error should never match")
	}
}

func TestWithDetails(t *testing.T) {
	err := New(CodeValidation, "bad period").WithDetails(map[string]any{"field": "period"})
	details, ok := err.Details().(map[string]any)
	if !ok {
		t.Fatalf("unexpected details type %T", err.Details())
	}
	if details["field"] != "period" {
		t.Fatalf("unexpected details %v", details)
	}
}
