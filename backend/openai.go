package backend

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/HanbitLabs/novlate"
	"github.com/sashabaranov/go-openai"
)

// OpenAIBackend implements Backend using OpenAI's chat completion API.
type OpenAIBackend struct {
	client      *openai.Client
	model       string
	temperature float32
}

// OpenAIConfig holds configuration for the OpenAI backend.
type OpenAIConfig struct {
	APIKey      string  // OpenAI API key (uses OPENAI_API_KEY env var if empty)
	Model       string  // Model to use (default: "gpt-4o-mini")
	Temperature float32 // Temperature for generation (default: 0.3)
	BaseURL     string  // Custom base URL (optional)
}

// NewOpenAIBackend creates a new OpenAI backend.
func NewOpenAIBackend(cfg OpenAIConfig) *OpenAIBackend {
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.3
	}

	return &OpenAIBackend{
		client:      openai.NewClientWithConfig(config),
		model:       model,
		temperature: temperature,
	}
}

var _ Backend = (*OpenAIBackend)(nil)

// complete runs one chat completion and returns the raw message content.
func (b *OpenAIBackend) complete(ctx context.Context, op, system, user string, jsonOutput bool) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: b.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: b.temperature,
	}
	if jsonOutput {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := b.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", &novlate.BackendError{
			Op:        op,
			Message:   "OpenAI API call failed",
			Cause:     err,
			Retryable: isRetryableError(err),
		}
	}
	if len(resp.Choices) == 0 {
		return "", &novlate.BackendError{
			Op:        op,
			Message:   "no response from OpenAI",
			Retryable: true,
		}
	}
	return resp.Choices[0].Message.Content, nil
}

// DetectPattern asks the model for a split plan over a bounded sample.
func (b *OpenAIBackend) DetectPattern(ctx context.Context, req DetectPatternRequest) (*novlate.SplitPlan, error) {
	const op = "detect_pattern"
	system, user := detectPatternPrompt(req)

	content, err := b.complete(ctx, op, system, user, true)
	if err != nil {
		return nil, err
	}

	var plan novlate.SplitPlan
	raw := stripCodeFence(content)
	if err := json.Unmarshal([]byte(raw), &plan); err != nil {
		return nil, &novlate.MalformedResponseError{Op: op, Raw: raw, Cause: err}
	}
	return &plan, nil
}

// ExtractTerms extracts glossary term candidates from the full series text.
func (b *OpenAIBackend) ExtractTerms(ctx context.Context, req ExtractTermsRequest) ([]novlate.TermCandidate, error) {
	const op = "extract_terms"
	system, user := extractTermsPrompt(req)

	content, err := b.complete(ctx, op, system, user, true)
	if err != nil {
		return nil, err
	}

	raw := stripCodeFence(content)
	var wrapped struct {
		Terms []novlate.TermCandidate `json:"terms"`
	}
	if err := json.Unmarshal([]byte(raw), &wrapped); err == nil && wrapped.Terms != nil {
		return wrapped.Terms, nil
	}

	// Some models return a bare array despite the object instruction.
	var terms []novlate.TermCandidate
	if err := json.Unmarshal([]byte(raw), &terms); err != nil {
		return nil, &novlate.MalformedResponseError{Op: op, Raw: raw, Cause: err}
	}
	return terms, nil
}

// TranslateTerm translates a single glossary term.
func (b *OpenAIBackend) TranslateTerm(ctx context.Context, req TranslateTermRequest) (string, error) {
	const op = "translate_term"
	system, user := translateTermPrompt(req)

	content, err := b.complete(ctx, op, system, user, false)
	if err != nil {
		return "", err
	}
	return cleanTermOutput(content), nil
}

// TranslateSegment re-translates a leaked source-language fragment.
func (b *OpenAIBackend) TranslateSegment(ctx context.Context, req TranslateSegmentRequest) (string, error) {
	const op = "translate_segment"
	system, user := translateSegmentPrompt(req)

	content, err := b.complete(ctx, op, system, user, false)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(stripCodeFence(content)), nil
}

// TranslateEpisode translates a full episode body with the glossary threaded
// into the prompt.
func (b *OpenAIBackend) TranslateEpisode(ctx context.Context, req TranslateEpisodeRequest) (string, error) {
	const op = "translate_episode"
	system, user := translateEpisodePrompt(req)

	content, err := b.complete(ctx, op, system, user, false)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(stripCodeFence(content)), nil
}

// ExtractEpisodeTitles identifies embedded titles for a batch of episodes.
func (b *OpenAIBackend) ExtractEpisodeTitles(ctx context.Context, req ExtractTitlesRequest) (map[int]novlate.TitleGuess, error) {
	const op = "extract_titles"
	system, user := extractTitlesPrompt(req)

	content, err := b.complete(ctx, op, system, user, true)
	if err != nil {
		return nil, err
	}

	raw := stripCodeFence(content)
	var wrapped struct {
		Titles map[string]novlate.TitleGuess `json:"titles"`
	}
	if err := json.Unmarshal([]byte(raw), &wrapped); err != nil {
		return nil, &novlate.MalformedResponseError{Op: op, Raw: raw, Cause: err}
	}

	out := make(map[int]novlate.TitleGuess, len(wrapped.Titles))
	for key, guess := range wrapped.Titles {
		idx, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		out[idx] = guess
	}
	return out, nil
}

// cleanTermOutput strips the wrapping a model adds around a bare term.
func cleanTermOutput(s string) string {
	s = strings.TrimSpace(stripCodeFence(s))
	s = strings.Trim(s, `"'`)
	s = strings.TrimSpace(s)
	// Keep only the first line; anything beyond is generated chatter.
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	return s
}

// stripCodeFence removes a Markdown code fence wrapper if present, fence
// language tag included.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func isRetryableError(err error) bool {
	errStr := strings.ToLower(err.Error())
	retryablePatterns := []string{
		"rate limit",
		"timeout",
		"connection refused",
		"connection reset",
		"temporarily unavailable",
		"too many requests",
		"status code: 429",
		"status code: 500",
		"status code: 502",
		"status code: 503",
		"status code: 504",
	}
	for _, pattern := range retryablePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}
