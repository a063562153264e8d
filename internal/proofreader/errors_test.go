package proofreader

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		transient bool
	}{
		{"rate limited", 429, true},
		{"request timeout", 408, true},
		{"server error", 500, true},
		{"bad gateway", 502, true},
		{"service unavailable", 503, true},
		{"unauthorized", 401, false},
		{"forbidden", 403, false},
		{"bad request", 400, false},
		{"not found", 404, false},
		{"unprocessable", 422, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classifyStatus(tt.status, "boom", 0)
			if IsTransient(err) != tt.transient {
				t.Errorf("classifyStatus(%d): transient = %v, want %v", tt.status, IsTransient(err), tt.transient)
			}
			if IsFatal(err) == tt.transient {
				t.Errorf("classifyStatus(%d): fatal = %v, want %v", tt.status, IsFatal(err), !tt.transient)
			}
		})
	}
}

func TestClassifyStatus_RetryAfterCarried(t *testing.T) {
	err := classifyStatus(429, "slow down", 7*time.Second)

	var te *TransientError
	if !errors.As(err, &te) {
		t.Fatalf("expected *TransientError, got %T", err)
	}
	if te.RetryAfter != 7*time.Second {
		t.Errorf("expected RetryAfter 7s, got %v", te.RetryAfter)
	}
	if te.StatusCode != 429 {
		t.Errorf("expected status 429, got %d", te.StatusCode)
	}
}

func TestIsTransient_WrappedError(t *testing.T) {
	err := fmt.Errorf("unit 3: %w", &TransientError{StatusCode: 503, Message: "overloaded"})

	if !IsTransient(err) {
		t.Error("expected wrapped TransientError to be detected")
	}
	if IsFatal(err) {
		t.Error("wrapped TransientError must not look fatal")
	}
}

func TestIsFatal_WrappedError(t *testing.T) {
	err := fmt.Errorf("unit 3: %w", &FatalError{StatusCode: 401, Message: "bad key"})

	if !IsFatal(err) {
		t.Error("expected wrapped FatalError to be detected")
	}
	if IsTransient(err) {
		t.Error("wrapped FatalError must not look transient")
	}
}

func TestIsTransient_PlainError(t *testing.T) {
	if IsTransient(errors.New("plain")) {
		t.Error("plain error must not look transient")
	}
	if IsFatal(errors.New("plain")) {
		t.Error("plain error must not look fatal")
	}
}

func TestParseRetryAfter(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected time.Duration
	}{
		{"empty", "", 0},
		{"seconds", "30", 30 * time.Second},
		{"padded", " 5 ", 5 * time.Second},
		{"http date ignored", "Wed, 21 Oct 2026 07:28:00 GMT", 0},
		{"negative", "-1", 0},
		{"garbage", "soon", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseRetryAfter(tt.input); got != tt.expected {
				t.Errorf("parseRetryAfter(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	te := &TransientError{StatusCode: 429, Message: "rate limited"}
	if te.Error() != "transient: status 429: rate limited" {
		t.Errorf("unexpected message: %q", te.Error())
	}

	fe := &FatalError{Message: "API key required"}
	if fe.Error() != "fatal: API key required" {
		t.Errorf("unexpected message: %q", fe.Error())
	}
}
