package splitter

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/HanbitLabs/novlate"
)

// Method names reported in Result.Method.
const (
	MethodDirect  = "direct"  // catalog pattern scan, no backend call
	MethodBackend = "backend" // backend pattern detection
	MethodSingle  = "single"  // whole manuscript treated as one episode
)

// defaultSampleLines is how many leading lines are sent to the backend for
// pattern detection.
const defaultSampleLines = 500

// Splitter turns a raw manuscript into ordered episodes. Detection is tiered:
// the local pattern catalog is tried first, the backend second, and a
// single-episode fallback last, so well-formatted manuscripts never cost a
// backend call.
type Splitter struct {
	backend novlate.Backend
	catalog []Pattern
	policy  ScorePolicy
	logger  *slog.Logger

	sampleLines       int
	combinedDetection bool
	inlineDetection   bool
	titleExtraction   bool
}

// Option configures a Splitter.
type Option func(*Splitter)

// WithCatalog replaces the built-in pattern catalog.
func WithCatalog(patterns []Pattern) Option {
	return func(s *Splitter) { s.catalog = patterns }
}

// WithScorePolicy replaces the default scoring policy.
func WithScorePolicy(p ScorePolicy) Option {
	return func(s *Splitter) { s.policy = p }
}

// WithSampleLines sets how many leading lines are sent for backend detection.
func WithSampleLines(n int) Option {
	return func(s *Splitter) {
		if n > 0 {
			s.sampleLines = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Splitter) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithoutCombinedDetection disables merging the $NNN marker with its
// scene-break variant during direct detection.
func WithoutCombinedDetection() Option {
	return func(s *Splitter) { s.combinedDetection = false }
}

// WithoutInlineDetection disables mid-line marker detection.
func WithoutInlineDetection() Option {
	return func(s *Splitter) { s.inlineDetection = false }
}

// WithoutTitleExtraction disables the batched backend title pass.
func WithoutTitleExtraction() Option {
	return func(s *Splitter) { s.titleExtraction = false }
}

// New creates a Splitter. The backend may be nil, in which case detection
// stops after the local catalog tier and titles are never extracted.
func New(backend novlate.Backend, opts ...Option) *Splitter {
	s := &Splitter{
		backend:           backend,
		catalog:           Catalog(),
		policy:            DefaultScorePolicy(),
		logger:            slog.New(slog.NewTextHandler(io.Discard, nil)),
		sampleLines:       defaultSampleLines,
		combinedDetection: true,
		inlineDetection:   true,
		titleExtraction:   true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Result is the outcome of a split.
type Result struct {
	Episodes    []novlate.Episode
	Confidence  int      // final confidence, already floored by policy
	Warnings    []string // validation findings, non-fatal
	Method      string   // which detection tier produced the plan
	PatternUsed string   // separator pattern name, empty for single
	Language    string   // backend-detected source language, if any
}

// Split detects episode boundaries in text and returns the ordered episodes.
// It never fails on unrecognizable input: when no tier finds a multi-episode
// structure the whole manuscript becomes episode 1 at full confidence.
func (s *Splitter) Split(ctx context.Context, text, filename string) (*Result, error) {
	text = stripBOM(text)
	if strings.TrimSpace(text) == "" {
		return nil, &novlate.SplitError{Message: "empty manuscript"}
	}

	plan, method := s.plan(ctx, text, filename)
	if plan == nil || !plan.IsMultiEpisode {
		return s.singleEpisode(text, plan), nil
	}

	episodes, patternUsed := s.execute(text, plan)
	if len(episodes) == 0 {
		s.logger.Warn("plan produced no episodes, falling back to single",
			"pattern", plan.PrimaryPattern)
		return s.singleEpisode(text, plan), nil
	}
	if len(episodes) == 1 {
		res := s.singleEpisode(text, plan)
		res.Episodes = episodes
		return res, nil
	}

	hintSpecialTitles(episodes, plan.SpecialEpisodes)

	result := &Result{
		Episodes:    episodes,
		Method:      method,
		PatternUsed: patternUsed,
		Language:    plan.Language,
	}

	if s.titleExtraction && s.backend != nil {
		result.Warnings = append(result.Warnings, s.extractTitles(ctx, episodes)...)
	}

	confidence, warnings := s.policy.Validate(episodes, plan.EstimatedEpisodes, len(text))
	if plan.Confidence < confidence {
		confidence = plan.Confidence
	}
	result.Confidence = confidence
	result.Warnings = append(result.Warnings, warnings...)

	s.logger.Info("split complete",
		"episodes", len(episodes),
		"method", method,
		"pattern", patternUsed,
		"confidence", confidence)

	return result, nil
}

// plan runs the detection tiers in order and returns the first usable plan.
func (s *Splitter) plan(ctx context.Context, text, filename string) (*novlate.SplitPlan, string) {
	if plan := s.detectDirect(text); plan != nil {
		s.logger.Debug("direct detection succeeded",
			"pattern", plan.PrimaryPattern,
			"estimated", plan.EstimatedEpisodes)
		return plan, MethodDirect
	}

	if s.backend == nil {
		return nil, MethodSingle
	}

	sample, n := sampleHead(text, s.sampleLines)
	plan, err := s.backend.DetectPattern(ctx, novlate.DetectPatternRequest{
		Sample:      sample,
		Filename:    filename,
		SampleLines: n,
	})
	if err != nil {
		s.logger.Warn("backend pattern detection failed, treating as single episode", "error", err)
		return nil, MethodSingle
	}
	return plan, MethodBackend
}

// execute applies the plan to the full text. A plan that yields no usable
// pattern produces no episodes; Split then falls back to a single episode.
func (s *Splitter) execute(text string, plan *novlate.SplitPlan) ([]novlate.Episode, string) {
	if plan.InlineSplit {
		return inlineSplit(text), patternInlineNNN
	}

	for _, p := range s.resolvePatterns(plan) {
		if episodes := lineSplit(text, p); len(episodes) > 0 {
			return episodes, p.Name
		}
	}
	return nil, ""
}

// resolvePatterns turns a plan's pattern references into executable patterns,
// primary first. Catalog names resolve locally; everything else compiles the
// plan's regex. A regex that does not compile, lacks a capturing group, or
// matches bare numbers is skipped with a warning; backends hallucinate
// patterns often enough that one bad entry must not sink the whole plan.
func (s *Splitter) resolvePatterns(plan *novlate.SplitPlan) []Pattern {
	byName := make(map[string]Pattern, len(s.catalog)+1)
	for _, p := range s.catalog {
		byName[p.Name] = p
	}
	byName[patternCombinedNNN] = combinedPattern()

	var out []Pattern
	add := func(name, expr string) {
		if p, ok := byName[name]; ok {
			out = append(out, p)
			return
		}
		if expr == "" {
			return
		}
		if isBareNumberRegex(expr) {
			s.logger.Warn("skipping bare-number pattern from plan",
				"pattern", name,
				"regex", expr)
			return
		}
		p, err := NewPattern(name, expr)
		if err != nil {
			s.logger.Warn("skipping invalid pattern from plan",
				"pattern", name,
				"error", err)
			return
		}
		out = append(out, p)
	}

	if plan.PrimaryPattern != "" {
		expr := ""
		for _, pp := range plan.Patterns {
			if pp.SeparatorPattern == plan.PrimaryPattern {
				expr = pp.PatternRegex
				break
			}
		}
		add(plan.PrimaryPattern, expr)
	}
	for _, pp := range plan.Patterns {
		if pp.SeparatorPattern == plan.PrimaryPattern {
			continue
		}
		add(pp.SeparatorPattern, pp.PatternRegex)
	}

	if len(out) == 0 {
		s.logger.Warn("plan names no usable pattern", "primary", plan.PrimaryPattern)
	}
	return out
}

// singleEpisode wraps the whole manuscript as episode 1. This is the terminal
// fallback and is always trusted fully; validation heuristics do not apply.
func (s *Splitter) singleEpisode(text string, plan *novlate.SplitPlan) *Result {
	res := &Result{
		Episodes:   []novlate.Episode{{Number: 1, Content: strings.TrimSpace(text)}},
		Confidence: s.policy.SingleEpisodeConfidence,
		Method:     MethodSingle,
	}
	if plan != nil {
		res.Language = plan.Language
	}
	return res
}

// sampleHead returns the first n lines of text and how many lines that is.
func sampleHead(text string, n int) (string, int) {
	lines := strings.Split(text, "\n")
	if len(lines) > n {
		lines = lines[:n]
	}
	return strings.Join(lines, "\n"), len(lines)
}
