package httpclient

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestClassifyStatusCode(t *testing.T) {
	tests := []struct {
		status    int
		wantNil   bool
		code      ErrorCode
		retryable bool
	}{
		{http.StatusOK, true, 0, false},
		{http.StatusNoContent, true, 0, false},
		{http.StatusBadRequest, false, ErrCodeValidation, false},
		{http.StatusUnauthorized, false, ErrCodeAuth, false},
		{http.StatusForbidden, false, ErrCodeAuth, false},
		{http.StatusNotFound, false, ErrCodeNotFound, false},
		{http.StatusTooManyRequests, false, ErrCodeRateLimit, true},
		{http.StatusInternalServerError, false, ErrCodeServer, true},
		{http.StatusBadGateway, false, ErrCodeServer, true},
		{http.StatusMultipleChoices, false, ErrCodeServer, false},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			e := ClassifyStatusCode(tt.status, []byte("body"))
			if tt.wantNil {
				if e != nil {
					t.Fatalf("expected nil, got %v", e)
				}
				return
			}
			if e == nil {
				t.Fatal("expected error")
			}
			if e.Code != tt.code || e.Retryable != tt.retryable {
				t.Errorf("code=%v retryable=%v, want %v/%v", e.Code, e.Retryable, tt.code, tt.retryable)
			}
			if e.StatusCode != tt.status || string(e.Body) != "body" {
				t.Errorf("status/body not kept: %+v", e)
			}
		})
	}
}

func TestErrorHelpers(t *testing.T) {
	timeout := NewTimeoutError(fmt.Errorf("deadline exceeded"))
	conn := NewConnectionError(fmt.Errorf("connection refused"))
	notFound := ClassifyStatusCode(http.StatusNotFound, nil)
	invalid := NewValidationError("bad")

	wrapped := fmt.Errorf("asr: %w", timeout)

	tests := []struct {
		name string
		got  bool
		want bool
	}{
		{"wrapped timeout", IsTimeout(wrapped), true},
		{"connection", IsConnection(conn), true},
		{"timeout is not connection", IsConnection(timeout), false},
		{"not found", IsNotFound(notFound), true},
		{"timeout retryable", IsRetryable(timeout), true},
		{"connection retryable", IsRetryable(conn), true},
		{"validation not retryable", IsRetryable(invalid), false},
		{"plain error", IsTimeout(errors.New("x")), false},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, tt.got, tt.want)
		}
	}

	if StatusCode(fmt.Errorf("wrap: %w", notFound)) != http.StatusNotFound {
		t.Error("StatusCode did not unwrap")
	}
	if StatusCode(conn) != 0 {
		t.Error("transport error should have no status")
	}
}

func TestError_Format(t *testing.T) {
	tests := []struct {
		err  *Error
		want string
	}{
		{ClassifyStatusCode(http.StatusBadGateway, nil), "httpclient: server (HTTP 502): HTTP 502"},
		{NewConnectionError(errors.New("refused")), "httpclient: connection: refused"},
		{&Error{Code: ErrorCode(99), Message: "m"}, "httpclient: unknown: m"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}

	inner := errors.New("inner")
	if !errors.Is(NewTimeoutError(inner), inner) {
		t.Error("Unwrap lost the cause")
	}
}
