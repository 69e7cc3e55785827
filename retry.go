package novlate

import (
	"context"
	"errors"
	"time"
)

// RetryConfig holds configuration for retry behavior.
type RetryConfig struct {
	MaxRetries int           // Maximum number of retry attempts
	BaseDelay  time.Duration // Initial delay between retries
	MaxDelay   time.Duration // Maximum delay between retries
}

// DefaultRetryConfig returns sensible defaults for retry behavior.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		BaseDelay:  1 * time.Second,
		MaxDelay:   30 * time.Second,
	}
}

// RetryFunc is a function that can be retried.
type RetryFunc[T any] func() (T, error)

// WithRetry executes a function with exponential backoff retry.
func WithRetry[T any](ctx context.Context, cfg RetryConfig, fn RetryFunc[T]) (T, error) {
	var lastErr error
	var zero T

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		default:
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}

		lastErr = err

		if !IsRetryable(err) {
			return zero, err
		}

		// Don't sleep after the last attempt
		if attempt < cfg.MaxRetries {
			delay := cfg.BaseDelay * time.Duration(1<<attempt)
			if delay > cfg.MaxDelay {
				delay = cfg.MaxDelay
			}

			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return zero, lastErr
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var backendErr *BackendError
	if errors.As(err, &backendErr) {
		return backendErr.Retryable
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	return false
}

// RetryableBackend wraps a Backend with retry logic for every operation.
type RetryableBackend struct {
	backend Backend
	config  RetryConfig
}

// NewRetryableBackend creates a new backend with retry logic.
func NewRetryableBackend(backend Backend, cfg RetryConfig) *RetryableBackend {
	return &RetryableBackend{
		backend: backend,
		config:  cfg,
	}
}

// DetectPattern implements Backend with retry logic.
func (b *RetryableBackend) DetectPattern(ctx context.Context, req DetectPatternRequest) (*SplitPlan, error) {
	return WithRetry(ctx, b.config, func() (*SplitPlan, error) {
		return b.backend.DetectPattern(ctx, req)
	})
}

// ExtractTerms implements Backend with retry logic.
func (b *RetryableBackend) ExtractTerms(ctx context.Context, req ExtractTermsRequest) ([]TermCandidate, error) {
	return WithRetry(ctx, b.config, func() ([]TermCandidate, error) {
		return b.backend.ExtractTerms(ctx, req)
	})
}

// TranslateTerm implements Backend with retry logic.
func (b *RetryableBackend) TranslateTerm(ctx context.Context, req TranslateTermRequest) (string, error) {
	return WithRetry(ctx, b.config, func() (string, error) {
		return b.backend.TranslateTerm(ctx, req)
	})
}

// TranslateSegment implements Backend with retry logic.
func (b *RetryableBackend) TranslateSegment(ctx context.Context, req TranslateSegmentRequest) (string, error) {
	return WithRetry(ctx, b.config, func() (string, error) {
		return b.backend.TranslateSegment(ctx, req)
	})
}

// TranslateEpisode implements Backend with retry logic.
func (b *RetryableBackend) TranslateEpisode(ctx context.Context, req TranslateEpisodeRequest) (string, error) {
	return WithRetry(ctx, b.config, func() (string, error) {
		return b.backend.TranslateEpisode(ctx, req)
	})
}

// ExtractEpisodeTitles implements Backend with retry logic.
func (b *RetryableBackend) ExtractEpisodeTitles(ctx context.Context, req ExtractTitlesRequest) (map[int]TitleGuess, error) {
	return WithRetry(ctx, b.config, func() (map[int]TitleGuess, error) {
		return b.backend.ExtractEpisodeTitles(ctx, req)
	})
}

// Verify RetryableBackend implements Backend
var _ Backend = (*RetryableBackend)(nil)
