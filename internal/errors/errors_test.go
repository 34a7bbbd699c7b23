package errors

import (
	"fmt"
	"net/http"
	"testing"
)

func TestExitCodeUnwrapsChain(t *testing.T) {
	err := fmt.Errorf("outer: %w", Wrap(CodeRateLimited, "too many", fmt.Errorf("429")))
	if got := ExitCode(err); got != int(CodeRateLimited) {
		t.Fatalf("expected exit %d, got %d", CodeRateLimited, got)
	}
	if ExitCode(nil) != 0 {
		t.Fatal("expected zero exit for nil error")
	}
	if ExitCode(fmt.Errorf("plain")) != int(CodeInternal) {
		t.Fatal("expected internal exit for untyped error")
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeUsage:       http.StatusBadRequest,
		CodeBlocked:     http.StatusForbidden,
		CodeRateLimited: http.StatusTooManyRequests,
		CodeUnavailable: http.StatusBadGateway,
	}
	for code, want := range cases {
		if got := HTTPStatus(New(code, "x")); got != want {
			t.Fatalf("code %d: expected %d, got %d", code, want, got)
		}
	}
	if got := HTTPStatus(fmt.Errorf("boom")); got != http.StatusInternalServerError {
		t.Fatalf("expected 500 for untyped error, got %d", got)
	}
}

func TestIs(t *testing.T) {
	err := Wrap(CodeUnavailable, "down", nil)
	if !Is(err, CodeUnavailable) || Is(err, CodeUsage) {
		t.Fatalf("unexpected Is result for %v", err)
	}
}
