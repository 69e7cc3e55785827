package backend

import (
	"context"
	"fmt"

	"github.com/HanbitLabs/novlate"
)

// MockBackend is a mock Backend for testing. Canned responses can be set per
// operation; unset operations return serviceable defaults so callers under
// test do not have to configure everything.
type MockBackend struct {
	Plan       *novlate.SplitPlan
	Candidates []novlate.TermCandidate
	Terms      map[string]string // term original -> translation
	Segments   map[string]string // segment -> translation
	Episodes   map[string]string // episode text -> translation
	Titles     map[int]novlate.TitleGuess

	// Err, when set, is returned by every operation.
	Err error

	// Calls counts invocations per operation name.
	Calls map[string]int
}

// NewMockBackend creates a mock backend with empty canned responses.
func NewMockBackend() *MockBackend {
	return &MockBackend{
		Terms:    map[string]string{},
		Segments: map[string]string{},
		Episodes: map[string]string{},
		Titles:   map[int]novlate.TitleGuess{},
		Calls:    map[string]int{},
	}
}

func (m *MockBackend) record(op string) error {
	if m.Calls == nil {
		m.Calls = map[string]int{}
	}
	m.Calls[op]++
	return m.Err
}

// DetectPattern returns the canned plan, defaulting to single-episode.
func (m *MockBackend) DetectPattern(ctx context.Context, req novlate.DetectPatternRequest) (*novlate.SplitPlan, error) {
	if err := m.record("detect_pattern"); err != nil {
		return nil, err
	}
	if m.Plan != nil {
		return m.Plan, nil
	}
	return &novlate.SplitPlan{IsMultiEpisode: false, Confidence: 100}, nil
}

// ExtractTerms returns the canned candidates.
func (m *MockBackend) ExtractTerms(ctx context.Context, req novlate.ExtractTermsRequest) ([]novlate.TermCandidate, error) {
	if err := m.record("extract_terms"); err != nil {
		return nil, err
	}
	return m.Candidates, nil
}

// TranslateTerm returns the canned translation or a bracketed placeholder.
func (m *MockBackend) TranslateTerm(ctx context.Context, req novlate.TranslateTermRequest) (string, error) {
	if err := m.record("translate_term"); err != nil {
		return "", err
	}
	if t, ok := m.Terms[req.Term]; ok {
		return t, nil
	}
	return fmt.Sprintf("[%s]", req.Term), nil
}

// TranslateSegment returns the canned translation or a bracketed placeholder.
func (m *MockBackend) TranslateSegment(ctx context.Context, req novlate.TranslateSegmentRequest) (string, error) {
	if err := m.record("translate_segment"); err != nil {
		return "", err
	}
	if t, ok := m.Segments[req.Segment]; ok {
		return t, nil
	}
	return fmt.Sprintf("[%s]", req.Segment), nil
}

// TranslateEpisode returns the canned translation or a bracketed placeholder.
func (m *MockBackend) TranslateEpisode(ctx context.Context, req novlate.TranslateEpisodeRequest) (string, error) {
	if err := m.record("translate_episode"); err != nil {
		return "", err
	}
	if t, ok := m.Episodes[req.Text]; ok {
		return t, nil
	}
	return fmt.Sprintf("[%s]", req.Text), nil
}

// ExtractEpisodeTitles returns the canned title guesses.
func (m *MockBackend) ExtractEpisodeTitles(ctx context.Context, req novlate.ExtractTitlesRequest) (map[int]novlate.TitleGuess, error) {
	if err := m.record("extract_titles"); err != nil {
		return nil, err
	}
	return m.Titles, nil
}

// Reset clears the call counts.
func (m *MockBackend) Reset() {
	m.Calls = map[string]int{}
}

var _ Backend = (*MockBackend)(nil)
