package splitter

import (
	"sort"
	"strings"

	"github.com/HanbitLabs/novlate"
)

const maxPatternExamples = 5

// patternHit accumulates scan results for one catalog pattern.
type patternHit struct {
	pattern  Pattern
	count    int
	examples []string
	numbers  []int
}

// detectDirect scans the text against the known pattern catalog without any
// backend call. It returns a plan when a pattern matches often enough to be
// trusted outright, or nil when the backend should decide.
func (s *Splitter) detectDirect(text string) *novlate.SplitPlan {
	lines := strings.Split(text, "\n")

	hits := make(map[string]*patternHit)
	for _, raw := range lines {
		line := strings.TrimSpace(stripBOM(raw))
		if line == "" {
			continue
		}
		for _, p := range s.catalog {
			num, _, ok := p.MatchLine(line)
			if !ok {
				continue
			}
			h := hits[p.Name]
			if h == nil {
				h = &patternHit{pattern: p}
				hits[p.Name] = h
			}
			h.count++
			h.numbers = append(h.numbers, num)
			if len(h.examples) < maxPatternExamples {
				h.examples = append(h.examples, line)
			}
		}
	}

	if len(hits) == 0 {
		return nil
	}

	if s.combinedDetection {
		mergeCombined(hits)
	}

	best := bestHit(hits)
	if best == nil {
		return nil
	}

	// Episode markers buried mid-line mean the line-start scan undercounts,
	// sometimes so badly it cannot even reach the accept threshold. Prefer
	// the inline split when it finds meaningfully more episodes.
	useInline := false
	estimated := best.count
	if s.inlineDetection && (best.pattern.Name == patternDollarNNN || best.pattern.Name == patternCombinedNNN) {
		inline := countInlineEpisodes(text)
		if inline >= s.policy.DirectAcceptMatches && float64(inline) > float64(best.count)*s.policy.InlinePreferenceFactor {
			useInline = true
			estimated = inline
		}
	}
	if !useInline && best.count < s.policy.DirectAcceptMatches {
		return nil
	}

	plan := &novlate.SplitPlan{
		IsMultiEpisode:    true,
		PrimaryPattern:    best.pattern.Name,
		EstimatedEpisodes: estimated,
		Confidence:        s.policy.DirectAcceptConfidence,
		Notes:             "detected by direct pattern scan",
		InlineSplit:       useInline,
		Patterns: []novlate.PlanPattern{{
			SeparatorPattern: best.pattern.Name,
			PatternExamples:  best.examples,
			PatternRegex:     best.pattern.Regex(),
		}},
	}
	if useInline {
		plan.Notes = "detected by inline marker scan"
	}
	return plan
}

// mergeCombined folds the $NNN hit and its scene-break decorated variant into
// one combined hit when both appear; manuscripts often mix the two forms.
func mergeCombined(hits map[string]*patternHit) {
	plain, hasPlain := hits[patternDollarNNN]
	decorated, hasDecorated := hits[patternSceneBreakNNN]
	if !hasPlain || !hasDecorated {
		return
	}
	combined := &patternHit{
		pattern: combinedPattern(),
		count:   plain.count + decorated.count,
		numbers: append(append([]int(nil), plain.numbers...), decorated.numbers...),
	}
	for _, ex := range append(append([]string(nil), plain.examples...), decorated.examples...) {
		if len(combined.examples) >= maxPatternExamples {
			break
		}
		combined.examples = append(combined.examples, ex)
	}
	delete(hits, patternDollarNNN)
	delete(hits, patternSceneBreakNNN)
	hits[patternCombinedNNN] = combined
}

// bestHit picks the hit with the highest match count. Ties break on pattern
// name so the result is deterministic.
func bestHit(hits map[string]*patternHit) *patternHit {
	names := make([]string, 0, len(hits))
	for name := range hits {
		names = append(names, name)
	}
	sort.Strings(names)

	var best *patternHit
	for _, name := range names {
		h := hits[name]
		if best == nil || h.count > best.count {
			best = h
		}
	}
	return best
}

// countInlineEpisodes counts distinct episode numbers referenced by $NNN
// markers anywhere in the text, not just at line starts.
func countInlineEpisodes(text string) int {
	seen := make(map[string]struct{})
	for _, m := range inlineBareRe.FindAllStringSubmatch(text, -1) {
		seen[m[1]] = struct{}{}
	}
	return len(seen)
}
