package novlate

import (
	"errors"
	"strings"
	"testing"
)

func TestBackendError(t *testing.T) {
	cause := errors.New("connection reset")
	err := &BackendError{
		Op:        "translate_episode",
		Message:   "request failed",
		Cause:     cause,
		Retryable: true,
	}

	msg := err.Error()
	if !strings.Contains(msg, "translate_episode") || !strings.Contains(msg, "request failed") {
		t.Errorf("Unexpected message: %q", msg)
	}
	if !errors.Is(err, cause) {
		t.Error("Expected Unwrap to expose the cause")
	}

	bare := &BackendError{Op: "extract_terms", Message: "rate limited"}
	if strings.Contains(bare.Error(), "<nil>") {
		t.Errorf("Nil cause should not appear in message: %q", bare.Error())
	}
}

func TestMalformedResponseError_Truncation(t *testing.T) {
	raw := strings.Repeat("x", 500)
	err := &MalformedResponseError{
		Op:    "detect_pattern",
		Raw:   raw,
		Cause: errors.New("invalid JSON"),
	}

	msg := err.Error()
	if len(msg) > 300 {
		t.Errorf("Expected raw output truncated, message is %d chars", len(msg))
	}
	if !strings.Contains(msg, "...") {
		t.Error("Expected truncation marker")
	}

	short := &MalformedResponseError{Op: "detect_pattern", Raw: "{}", Cause: errors.New("bad")}
	if strings.Contains(short.Error(), "...") {
		t.Error("Short raw output should not be truncated")
	}
}

func TestTermTooLongError(t *testing.T) {
	err := &TermTooLongError{Term: "서연", Length: 80, Limit: 50}

	msg := err.Error()
	if !strings.Contains(msg, "서연") || !strings.Contains(msg, "80") || !strings.Contains(msg, "50") {
		t.Errorf("Unexpected message: %q", msg)
	}
}

func TestSplitError(t *testing.T) {
	cause := &BackendError{Op: "detect_pattern", Message: "timeout", Retryable: true}
	err := &SplitError{Message: "pattern detection failed", Cause: cause}

	var backendErr *BackendError
	if !errors.As(err, &backendErr) {
		t.Error("Expected errors.As to reach the backend cause")
	}
	if !strings.Contains(err.Error(), "pattern detection failed") {
		t.Errorf("Unexpected message: %q", err.Error())
	}
}

func TestGlossaryError(t *testing.T) {
	err := &GlossaryError{Message: "load failed"}
	if !strings.Contains(err.Error(), "load failed") {
		t.Errorf("Unexpected message: %q", err.Error())
	}
	if err.Unwrap() != nil {
		t.Error("Expected nil Unwrap without cause")
	}
}
