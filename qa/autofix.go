package qa

import (
	"context"
	"strings"

	"github.com/HanbitLabs/novlate"
)

// DefaultMaxFixRetries bounds the validate/fix loop.
const DefaultMaxFixRetries = 5

// FixOutcome reports one auto-fix pass.
type FixOutcome struct {
	Text       string  // text after fixes
	FixedCount int     // issues repaired this pass
	Unfixed    []Issue // issues that could not be repaired
}

// AutoFix attempts to repair issues in translated text.
//
// Glossary mismatches and untranslated terms with a known expected value are
// fixed by direct replacement. Error-severity language mixing has no
// target-language text to substitute, so each leaked segment is re-translated
// through the backend and accepted only if the result is free of source-script
// characters. Everything else lands in Unfixed; an unfixable issue is
// surfaced, never dropped.
func (v *Validator) AutoFix(ctx context.Context, text string, issues []Issue, backend novlate.Backend) FixOutcome {
	out := FixOutcome{Text: text}

	var mixing []Issue
	for _, issue := range issues {
		switch {
		case issue.Type == TypeGlossaryMismatch && issue.Expected != "":
			if strings.Contains(out.Text, issue.Text) {
				out.Text = strings.ReplaceAll(out.Text, issue.Text, issue.Expected)
				out.FixedCount++
				v.logger.Info("auto-fixed glossary mismatch",
					"from", issue.Text, "to", issue.Expected)
			}
		case issue.Type == TypeUntranslatedTerm && issue.Expected != "":
			if strings.Contains(out.Text, issue.Text) {
				out.Text = strings.ReplaceAll(out.Text, issue.Text, issue.Expected)
				out.FixedCount++
				v.logger.Info("auto-fixed untranslated term",
					"from", issue.Text, "to", issue.Expected)
			}
		case issue.Type == TypeLanguageMixing && issue.Severity == SeverityError:
			mixing = append(mixing, issue)
		default:
			out.Unfixed = append(out.Unfixed, issue)
		}
	}

	if len(mixing) == 0 {
		return out
	}
	if backend == nil {
		out.Unfixed = append(out.Unfixed, mixing...)
		return out
	}

	v.fixLanguageMixing(ctx, &out, mixing, backend)
	return out
}

// fixLanguageMixing re-translates each leaked segment through the backend.
func (v *Validator) fixLanguageMixing(ctx context.Context, out *FixOutcome, issues []Issue, backend novlate.Backend) {
	glossaryBlock := ""
	if v.glossary != nil {
		glossaryBlock = v.glossary.FormatForPrompt()
	}

	re := novlate.ScriptPattern(v.sourceLang)

	for _, issue := range issues {
		// Earlier replacements may have removed this occurrence already.
		if !strings.Contains(out.Text, issue.Text) {
			continue
		}

		translated, err := backend.TranslateSegment(ctx, novlate.TranslateSegmentRequest{
			Segment:        issue.Text,
			SourceLanguage: v.sourceLang,
			TargetLanguage: v.targetLang,
			Context:        issue.Context,
			Glossary:       glossaryBlock,
		})
		if err != nil {
			v.logger.Warn("segment re-translation failed",
				"segment", issue.Text, "error", err)
			out.Unfixed = append(out.Unfixed, issue)
			continue
		}

		translated = strings.TrimSpace(translated)
		if translated == "" || (re != nil && re.MatchString(translated)) {
			v.logger.Warn("re-translation still contains source script",
				"segment", issue.Text, "result", translated)
			out.Unfixed = append(out.Unfixed, issue)
			continue
		}

		out.Text = strings.Replace(out.Text, issue.Text, translated, 1)
		out.FixedCount++
		v.logger.Info("auto-fixed language mixing",
			"from", issue.Text, "to", translated)
	}
}

// FixLoop validates, auto-fixes and re-validates up to maxRetries times.
// It stops early when the text passes, or when a pass fixes nothing while
// errors remain, since repeating an ineffective pass cannot help. Returns the
// final text and the last validation result.
func (v *Validator) FixLoop(ctx context.Context, text string, episodeNumber, maxRetries int, backend novlate.Backend) (string, *Result) {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxFixRetries
	}

	result := v.Validate(text, episodeNumber)
	for attempt := 0; attempt < maxRetries && !result.Passed; attempt++ {
		outcome := v.AutoFix(ctx, text, result.Issues, backend)
		text = outcome.Text
		result = v.Validate(text, episodeNumber)

		if outcome.FixedCount == 0 && !result.Passed {
			v.logger.Warn("auto-fix made no progress, stopping",
				"episode", episodeNumber,
				"remaining_errors", result.ErrorCount())
			break
		}
	}
	return text, result
}
