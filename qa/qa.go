// Package qa validates translated episode text: source-script leakage,
// glossary consistency, and known-wrong renderings. Validation produces data,
// not errors; a failing episode is a normal, reportable outcome.
package qa

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/HanbitLabs/novlate"
	"github.com/HanbitLabs/novlate/glossary"
)

// Issue types.
const (
	TypeLanguageMixing   = "language_mixing"
	TypeUntranslatedTerm = "untranslated_term"
	TypeGlossaryMismatch = "glossary_mismatch"
)

// Severities. Warning is reserved for defects judged to be deliberate style
// choices; everything affecting meaning is an error.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Context window sizes, in bytes around the offending text.
const (
	mixingContextWindow   = 30
	mismatchContextWindow = 20
)

// Issue is a single defect found in translated text.
type Issue struct {
	Type     string `json:"type"`
	Severity string `json:"severity"`
	Text     string `json:"text"`     // the offending substring
	Message  string `json:"message"`  // human-readable description
	Position int    `json:"position"` // byte offset, -1 if unknown
	Expected string `json:"expected,omitempty"`
	Context  string `json:"context,omitempty"`
}

// Result is the outcome of validating one episode's translation.
type Result struct {
	Passed        bool    `json:"passed"`
	Issues        []Issue `json:"issues"`
	EpisodeNumber int     `json:"episode_number,omitempty"`
}

// ErrorCount returns the number of error-severity issues.
func (r *Result) ErrorCount() int {
	n := 0
	for _, i := range r.Issues {
		if i.Severity == SeverityError {
			n++
		}
	}
	return n
}

// WarningCount returns the number of warning-severity issues.
func (r *Result) WarningCount() int {
	return len(r.Issues) - r.ErrorCount()
}

// Validator scans translated text against a glossary. It is stateless between
// Validate calls; build one per language pair and reuse it.
type Validator struct {
	sourceLang string
	targetLang string
	logger     *slog.Logger

	skipMixing bool
	glossary   *glossary.Glossary

	// Lookup tables built once from the glossary.
	termMap       map[string]string // original -> canonical translation
	knownVariants map[string]string // wrong variant -> canonical translation
	charTerms     []glossary.Term
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithValidatorLogger sets the logger.
func WithValidatorLogger(l *slog.Logger) ValidatorOption {
	return func(v *Validator) {
		if l != nil {
			v.logger = l
		}
	}
}

// NewValidator creates a Validator for a language pair and glossary. The
// glossary may be nil, in which case only language mixing is checked. When
// source and target are the same language, Validate always passes.
func NewValidator(sourceLang, targetLang string, g *glossary.Glossary, opts ...ValidatorOption) *Validator {
	v := &Validator{
		sourceLang:    sourceLang,
		targetLang:    targetLang,
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		skipMixing:    novlate.SameLanguage(sourceLang, targetLang),
		glossary:      g,
		termMap:       map[string]string{},
		knownVariants: map[string]string{},
	}
	for _, opt := range opts {
		opt(v)
	}

	if g != nil {
		for _, t := range g.Terms {
			if t.Original == "" || t.Translation == "" {
				continue
			}
			v.termMap[t.Original] = t.Translation
			for _, variant := range t.KnownWrongVariants {
				if variant != "" && variant != t.Translation {
					v.knownVariants[variant] = t.Translation
				}
			}
			if t.Category == glossary.CategoryCharacter {
				v.charTerms = append(v.charTerms, t)
			}
		}
	}
	return v
}

// Validate runs all checks on translated text. When the source and target
// language are the same, no translation happened and the result is an
// unconditional pass.
func (v *Validator) Validate(text string, episodeNumber int) *Result {
	if v.skipMixing {
		return &Result{Passed: true, EpisodeNumber: episodeNumber}
	}

	var issues []Issue
	issues = append(issues, v.checkLanguageMixing(text)...)
	issues = append(issues, v.checkUntranslatedTerms(text)...)
	issues = append(issues, v.checkKnownVariants(text)...)
	issues = append(issues, v.checkSimilarCharacters(text)...)

	r := &Result{
		Issues:        issues,
		EpisodeNumber: episodeNumber,
	}
	r.Passed = r.ErrorCount() == 0
	return r
}

// checkLanguageMixing finds runs of source-script characters in the target
// text. Onomatopoeia kept for style is downgraded to a warning.
func (v *Validator) checkLanguageMixing(text string) []Issue {
	re := novlate.ScriptPattern(v.sourceLang)
	if re == nil {
		return nil
	}

	var issues []Issue
	for _, loc := range re.FindAllStringIndex(text, -1) {
		leaked := text[loc[0]:loc[1]]

		severity := SeverityError
		message := fmt.Sprintf("source language text found: %q", leaked)
		if novlate.NormalizeLanguage(v.sourceLang) == "korean" && koreanOnomatopoeia[leaked] {
			severity = SeverityWarning
			message = fmt.Sprintf("onomatopoeia kept untranslated (style choice): %q", leaked)
		}

		issues = append(issues, Issue{
			Type:     TypeLanguageMixing,
			Severity: severity,
			Text:     leaked,
			Message:  message,
			Position: loc[0],
			Context:  snippet(text, loc[0], loc[1], mixingContextWindow),
		})
	}
	return issues
}

// checkUntranslatedTerms flags glossary originals still present verbatim in
// the target text, a strong signal the glossary was ignored for that term.
func (v *Validator) checkUntranslatedTerms(text string) []Issue {
	var issues []Issue
	for original, expected := range v.termMap {
		pos := strings.Index(text, original)
		if pos < 0 {
			continue
		}
		issues = append(issues, Issue{
			Type:     TypeUntranslatedTerm,
			Severity: SeverityError,
			Text:     original,
			Expected: expected,
			Position: pos,
			Message:  fmt.Sprintf("untranslated term: %q should be %q", original, expected),
		})
	}
	return issues
}

// checkKnownVariants flags every occurrence of a recorded wrong translation.
func (v *Validator) checkKnownVariants(text string) []Issue {
	var issues []Issue
	for variant, correct := range v.knownVariants {
		pos := 0
		for {
			i := indexFrom(text, variant, pos)
			if i < 0 {
				break
			}
			issues = append(issues, Issue{
				Type:     TypeGlossaryMismatch,
				Severity: SeverityError,
				Text:     variant,
				Expected: correct,
				Position: i,
				Context:  snippet(text, i, i+len(variant), mismatchContextWindow),
				Message:  fmt.Sprintf("known wrong rendering: %q should be %q", variant, correct),
			})
			pos = i + len(variant)
		}
	}
	return issues
}

// checkSimilarCharacters scans for plausible wrong renderings of character
// names built from the confusability table.
func (v *Validator) checkSimilarCharacters(text string) []Issue {
	var issues []Issue
	for _, term := range v.charTerms {
		for _, alt := range similarAlternatives(term.Translation) {
			pos := strings.Index(text, alt)
			if pos < 0 {
				continue
			}
			issues = append(issues, Issue{
				Type:     TypeGlossaryMismatch,
				Severity: SeverityError,
				Text:     alt,
				Expected: term.Translation,
				Position: pos,
				Context:  snippet(text, pos, pos+len(alt), mismatchContextWindow),
				Message:  fmt.Sprintf("similar-character mismatch: %q should be %q", alt, term.Translation),
			})
		}
	}
	return issues
}

func snippet(text string, start, end, window int) string {
	s := start - window
	if s < 0 {
		s = 0
	}
	e := end + window
	if e > len(text) {
		e = len(text)
	}
	// Snap to rune boundaries.
	for s > 0 && !isRuneStart(text[s]) {
		s--
	}
	for e < len(text) && !isRuneStart(text[e]) {
		e++
	}
	return text[s:e]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

func indexFrom(text, sub string, from int) int {
	if from >= len(text) {
		return -1
	}
	i := strings.Index(text[from:], sub)
	if i < 0 {
		return -1
	}
	return from + i
}
