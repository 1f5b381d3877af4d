package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", NotFound("Patient"), http.StatusNotFound},
		{"invalid state", InvalidState("doctor not assigned to branch"), http.StatusBadRequest},
		{"invalid argument", InvalidArgument("invalid id"), http.StatusBadRequest},
		{"internal", Internal("failed to delete", nil), http.StatusInternalServerError},
		{"wrapped", fmt.Errorf("create: %w", NotFound("Doctor")), http.StatusNotFound},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
		{"zero status", &Error{Kind: KindInternal, Message: "x"}, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusOf(tt.err); got != tt.want {
				t.Errorf("StatusOf() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, "x") != nil {
		t.Fatal("expected nil for nil error")
	}

	nf := NotFound("OperationType")
	if got := Wrap(nf, "create failed"); got != nf {
		t.Errorf("expected *Error to pass through, got %v", got)
	}

	cause := errors.New("connection reset")
	got := Wrap(cause, "create failed")
	if !IsKind(got, KindInternal) {
		t.Fatalf("expected internal kind, got %v", got)
	}
	if !errors.Is(got, cause) {
		t.Error("expected cause to be preserved")
	}
	var ae *Error
	errors.As(got, &ae)
	if ae.Message != "create failed" {
		t.Errorf("message = %q", ae.Message)
	}
}

func TestNotFoundMessage(t *testing.T) {
	if got := NotFound("Patient").Error(); got != "Patient not found" {
		t.Errorf("Error() = %q", got)
	}
}
