package novlate

import "fmt"

// BackendError indicates an AI backend failure (API error, rate limit, etc.).
type BackendError struct {
	Op        string // the backend operation, e.g. "detect_pattern"
	Message   string
	Cause     error
	Retryable bool // whether the operation can be retried
}

func (e *BackendError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("backend error (%s): %s: %v", e.Op, e.Message, e.Cause)
	}
	return fmt.Sprintf("backend error (%s): %s", e.Op, e.Message)
}

func (e *BackendError) Unwrap() error {
	return e.Cause
}

// MalformedResponseError indicates the backend returned output that could not
// be parsed against the operation's contract. The raw text is truncated for
// diagnostics; callers fall back to the next cheaper strategy.
type MalformedResponseError struct {
	Op    string
	Raw   string
	Cause error
}

const malformedRawLimit = 200

func (e *MalformedResponseError) Error() string {
	raw := e.Raw
	if len(raw) > malformedRawLimit {
		raw = raw[:malformedRawLimit] + "..."
	}
	return fmt.Sprintf("malformed backend response (%s): %v: %q", e.Op, e.Cause, raw)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Cause
}

// TermTooLongError indicates a term translation exceeded its category length
// ceiling, a strong sign the backend generated prose instead of a term.
type TermTooLongError struct {
	Term   string
	Length int
	Limit  int
}

func (e *TermTooLongError) Error() string {
	return fmt.Sprintf("term translation too long for %q: %d chars (limit %d)", e.Term, e.Length, e.Limit)
}

// SplitError indicates an episode splitting failure that could not be
// degraded to single-episode treatment.
type SplitError struct {
	Message string
	Cause   error
}

func (e *SplitError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("split error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("split error: %s", e.Message)
}

func (e *SplitError) Unwrap() error {
	return e.Cause
}

// GlossaryError indicates a glossary load/save or build failure.
type GlossaryError struct {
	Message string
	Cause   error
}

func (e *GlossaryError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("glossary error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("glossary error: %s", e.Message)
}

func (e *GlossaryError) Unwrap() error {
	return e.Cause
}
