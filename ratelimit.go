package novlate

import (
	"context"
	"sync"
	"time"
)

// RateLimiter controls the rate of backend requests using a token bucket
// algorithm. With BurstSize 1 it degenerates into a minimum wall-clock
// interval between successive calls, which is how the pipeline orchestrator
// paces a stage run.
type RateLimiter struct {
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastRefill time.Time
	mu         sync.Mutex
}

// RateLimitConfig configures the rate limiter.
type RateLimitConfig struct {
	RequestsPerMinute int // Maximum requests per minute
	BurstSize         int // Maximum burst size (default: same as RPM)
}

// NewRateLimiter creates a new rate limiter.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	rpm := float64(cfg.RequestsPerMinute)
	if rpm <= 0 {
		rpm = 60 // Default: 60 RPM
	}

	burst := float64(cfg.BurstSize)
	if burst <= 0 {
		burst = rpm // Default burst = RPM
	}

	return &RateLimiter{
		tokens:     burst, // Start with full bucket
		maxTokens:  burst,
		refillRate: rpm / 60.0, // Convert to tokens per second
		lastRefill: time.Now(),
	}
}

// NewIntervalLimiter creates a limiter that enforces a minimum wall-clock
// interval between successive calls.
func NewIntervalLimiter(interval time.Duration) *RateLimiter {
	if interval <= 0 {
		interval = time.Second
	}
	return NewRateLimiter(RateLimitConfig{
		RequestsPerMinute: int(time.Minute / interval),
		BurstSize:         1,
	})
}

// Wait blocks until a token is available or context is cancelled.
func (r *RateLimiter) Wait(ctx context.Context) error {
	for {
		if r.TryAcquire() {
			return nil
		}

		// Calculate wait time for next token
		r.mu.Lock()
		waitTime := time.Duration(float64(time.Second) / r.refillRate)
		r.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(waitTime):
			// Try again
		}
	}
}

// TryAcquire attempts to acquire a token without blocking.
// Returns true if a token was acquired, false otherwise.
func (r *RateLimiter) TryAcquire() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.refill()

	if r.tokens >= 1 {
		r.tokens--
		return true
	}

	return false
}

// refill adds tokens based on elapsed time (must be called with lock held).
func (r *RateLimiter) refill() {
	now := time.Now()
	elapsed := now.Sub(r.lastRefill).Seconds()
	r.lastRefill = now

	r.tokens += elapsed * r.refillRate
	if r.tokens > r.maxTokens {
		r.tokens = r.maxTokens
	}
}

// Available returns the current number of available tokens.
func (r *RateLimiter) Available() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refill()
	return r.tokens
}

// RateLimitedBackend wraps a Backend with rate limiting across all operations.
type RateLimitedBackend struct {
	backend Backend
	limiter *RateLimiter
}

// NewRateLimitedBackend creates a new rate-limited backend.
func NewRateLimitedBackend(backend Backend, limiter *RateLimiter) *RateLimitedBackend {
	return &RateLimitedBackend{
		backend: backend,
		limiter: limiter,
	}
}

// Limiter returns the underlying rate limiter for inspection.
func (b *RateLimitedBackend) Limiter() *RateLimiter {
	return b.limiter
}

func (b *RateLimitedBackend) wait(ctx context.Context, op string) error {
	if err := b.limiter.Wait(ctx); err != nil {
		return &BackendError{
			Op:        op,
			Message:   "rate limit wait cancelled",
			Cause:     err,
			Retryable: false,
		}
	}
	return nil
}

// DetectPattern implements Backend with rate limiting.
func (b *RateLimitedBackend) DetectPattern(ctx context.Context, req DetectPatternRequest) (*SplitPlan, error) {
	if err := b.wait(ctx, "detect_pattern"); err != nil {
		return nil, err
	}
	return b.backend.DetectPattern(ctx, req)
}

// ExtractTerms implements Backend with rate limiting.
func (b *RateLimitedBackend) ExtractTerms(ctx context.Context, req ExtractTermsRequest) ([]TermCandidate, error) {
	if err := b.wait(ctx, "extract_terms"); err != nil {
		return nil, err
	}
	return b.backend.ExtractTerms(ctx, req)
}

// TranslateTerm implements Backend with rate limiting.
func (b *RateLimitedBackend) TranslateTerm(ctx context.Context, req TranslateTermRequest) (string, error) {
	if err := b.wait(ctx, "translate_term"); err != nil {
		return "", err
	}
	return b.backend.TranslateTerm(ctx, req)
}

// TranslateSegment implements Backend with rate limiting.
func (b *RateLimitedBackend) TranslateSegment(ctx context.Context, req TranslateSegmentRequest) (string, error) {
	if err := b.wait(ctx, "translate_segment"); err != nil {
		return "", err
	}
	return b.backend.TranslateSegment(ctx, req)
}

// TranslateEpisode implements Backend with rate limiting.
func (b *RateLimitedBackend) TranslateEpisode(ctx context.Context, req TranslateEpisodeRequest) (string, error) {
	if err := b.wait(ctx, "translate_episode"); err != nil {
		return "", err
	}
	return b.backend.TranslateEpisode(ctx, req)
}

// ExtractEpisodeTitles implements Backend with rate limiting.
func (b *RateLimitedBackend) ExtractEpisodeTitles(ctx context.Context, req ExtractTitlesRequest) (map[int]TitleGuess, error) {
	if err := b.wait(ctx, "extract_episode_titles"); err != nil {
		return nil, err
	}
	return b.backend.ExtractEpisodeTitles(ctx, req)
}

// Verify RateLimitedBackend implements Backend
var _ Backend = (*RateLimitedBackend)(nil)
