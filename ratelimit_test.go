package novlate

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// noopBackend implements Backend with empty results, for wrapper tests.
type noopBackend struct{}

func (noopBackend) DetectPattern(ctx context.Context, req DetectPatternRequest) (*SplitPlan, error) {
	return &SplitPlan{Confidence: 100}, nil
}

func (noopBackend) ExtractTerms(ctx context.Context, req ExtractTermsRequest) ([]TermCandidate, error) {
	return nil, nil
}

func (noopBackend) TranslateTerm(ctx context.Context, req TranslateTermRequest) (string, error) {
	return "", nil
}

func (noopBackend) TranslateSegment(ctx context.Context, req TranslateSegmentRequest) (string, error) {
	return "", nil
}

func (noopBackend) TranslateEpisode(ctx context.Context, req TranslateEpisodeRequest) (string, error) {
	return "", nil
}

func (noopBackend) ExtractEpisodeTitles(ctx context.Context, req ExtractTitlesRequest) (map[int]TitleGuess, error) {
	return nil, nil
}

func TestRateLimiter_TryAcquire(t *testing.T) {
	limiter := NewRateLimiter(RateLimitConfig{
		RequestsPerMinute: 60,
		BurstSize:         5,
	})

	// Should be able to acquire burst size immediately
	for i := 0; i < 5; i++ {
		if !limiter.TryAcquire() {
			t.Errorf("Expected to acquire token %d", i+1)
		}
	}

	// Bucket should be empty now
	if limiter.TryAcquire() {
		t.Error("Expected bucket to be empty")
	}
}

func TestRateLimiter_Refill(t *testing.T) {
	// 600 RPM = 10 tokens per second
	limiter := NewRateLimiter(RateLimitConfig{
		RequestsPerMinute: 600,
		BurstSize:         1,
	})

	// Drain the bucket
	if !limiter.TryAcquire() {
		t.Fatal("Expected initial token")
	}
	if limiter.TryAcquire() {
		t.Fatal("Expected empty bucket")
	}

	// Wait for refill (one token every 100ms)
	time.Sleep(150 * time.Millisecond)

	if !limiter.TryAcquire() {
		t.Error("Expected token after refill")
	}
}

func TestRateLimiter_Wait(t *testing.T) {
	// 600 RPM = fast refill for testing
	limiter := NewRateLimiter(RateLimitConfig{
		RequestsPerMinute: 600,
		BurstSize:         1,
	})

	// Drain
	limiter.TryAcquire()

	start := time.Now()
	err := limiter.Wait(context.Background())
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("Wait failed: %v", err)
	}

	// Should have waited roughly 100ms for refill
	if elapsed < 50*time.Millisecond {
		t.Errorf("Wait returned too quickly: %v", elapsed)
	}
	if elapsed > 500*time.Millisecond {
		t.Errorf("Wait took too long: %v", elapsed)
	}
}

func TestRateLimiter_WaitCancelled(t *testing.T) {
	// Slow refill so Wait must block
	limiter := NewRateLimiter(RateLimitConfig{
		RequestsPerMinute: 1,
		BurstSize:         1,
	})

	// Drain
	limiter.TryAcquire()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := limiter.Wait(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected DeadlineExceeded, got: %v", err)
	}
}

func TestRateLimiter_Available(t *testing.T) {
	limiter := NewRateLimiter(RateLimitConfig{
		RequestsPerMinute: 60,
		BurstSize:         3,
	})

	if avail := limiter.Available(); avail < 2.9 {
		t.Errorf("Expected ~3 tokens available, got %f", avail)
	}

	limiter.TryAcquire()
	limiter.TryAcquire()

	if avail := limiter.Available(); avail > 1.5 {
		t.Errorf("Expected ~1 token available, got %f", avail)
	}
}

func TestRateLimiter_Concurrent(t *testing.T) {
	limiter := NewRateLimiter(RateLimitConfig{
		RequestsPerMinute: 60,
		BurstSize:         10,
	})

	var mu sync.Mutex
	acquired := 0

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if limiter.TryAcquire() {
				mu.Lock()
				acquired++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	// Exactly burst size should succeed
	if acquired != 10 {
		t.Errorf("Expected exactly 10 acquisitions, got %d", acquired)
	}
}

func TestNewRateLimiter_Defaults(t *testing.T) {
	limiter := NewRateLimiter(RateLimitConfig{})

	// Default 60 RPM with burst = RPM
	if avail := limiter.Available(); avail < 59 {
		t.Errorf("Expected ~60 tokens with defaults, got %f", avail)
	}
}

func TestNewIntervalLimiter(t *testing.T) {
	limiter := NewIntervalLimiter(100 * time.Millisecond)

	// Burst of 1: first call passes, second must wait
	if !limiter.TryAcquire() {
		t.Fatal("Expected first acquisition to succeed")
	}
	if limiter.TryAcquire() {
		t.Fatal("Expected second immediate acquisition to fail")
	}

	start := time.Now()
	if err := limiter.Wait(context.Background()); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("Interval not enforced, waited only %v", elapsed)
	}
}

func TestRateLimitedBackend_PassThrough(t *testing.T) {
	limiter := NewRateLimiter(RateLimitConfig{
		RequestsPerMinute: 600,
		BurstSize:         10,
	})
	b := NewRateLimitedBackend(noopBackend{}, limiter)

	plan, err := b.DetectPattern(context.Background(), DetectPatternRequest{Sample: "text"})
	if err != nil {
		t.Fatalf("DetectPattern failed: %v", err)
	}
	if plan.Confidence != 100 {
		t.Errorf("Unexpected plan confidence: %d", plan.Confidence)
	}

	if b.Limiter() != limiter {
		t.Error("Limiter() should return the wrapped limiter")
	}
}

func TestRateLimitedBackend_Cancelled(t *testing.T) {
	limiter := NewRateLimiter(RateLimitConfig{
		RequestsPerMinute: 1,
		BurstSize:         1,
	})
	b := NewRateLimitedBackend(noopBackend{}, limiter)

	// Drain so the next call must wait
	limiter.TryAcquire()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := b.TranslateEpisode(ctx, TranslateEpisodeRequest{Text: "본문"})
	if err == nil {
		t.Fatal("Expected error from cancelled wait")
	}

	var backendErr *BackendError
	if !errors.As(err, &backendErr) {
		t.Fatalf("Expected BackendError, got %T", err)
	}
	if backendErr.Op != "translate_episode" {
		t.Errorf("Expected op translate_episode, got %q", backendErr.Op)
	}
	if backendErr.Retryable {
		t.Error("Cancellation should not be retryable")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected wrapped DeadlineExceeded, got: %v", err)
	}
}
