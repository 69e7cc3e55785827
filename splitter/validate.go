package splitter

import (
	"fmt"

	"github.com/HanbitLabs/novlate"
)

// ScorePolicy makes the confidence heuristics explicit: every deduction and
// threshold the splitter applies is a named constant here, so the policy can
// be tested independently of the scan logic.
type ScorePolicy struct {
	// Direct detection.
	DirectAcceptMatches    int     // catalog pattern accepted outright at this many matches
	DirectAcceptConfidence int     // confidence assigned to a direct catalog match
	InlinePreferenceFactor float64 // inline marker count must beat line-start count by this factor

	// Validation deductions.
	CountMismatchPct     float64 // relative difference between actual and estimated counts
	CountMismatchPenalty int
	MaxNumberGap         int // gaps above this between consecutive numbers are flagged
	NumberGapPenalty     int // deducted per occurrence
	ShortWordCount       int // episodes under this many words count as very short
	ShortEpisodeRatio    float64
	ShortEpisodePenalty  int
	MinPreservedPct      float64 // total preserved characters vs. original
	ContentLossPenalty   int

	// Floors.
	MinConfidence           int // never report below this for a non-empty split
	SingleEpisodeConfidence int // single-episode treatment is accepted as-is
}

// DefaultScorePolicy returns the standard scoring policy.
func DefaultScorePolicy() ScorePolicy {
	return ScorePolicy{
		DirectAcceptMatches:    3,
		DirectAcceptConfidence: 95,
		InlinePreferenceFactor: 1.5,

		CountMismatchPct:     20,
		CountMismatchPenalty: 10,
		MaxNumberGap:         2,
		NumberGapPenalty:     5,
		ShortWordCount:       20,
		ShortEpisodeRatio:    0.10,
		ShortEpisodePenalty:  5,
		MinPreservedPct:      80,
		ContentLossPenalty:   10,

		MinConfidence:           70,
		SingleEpisodeConfidence: 100,
	}
}

// Validate checks a split result against sanity heuristics and returns the
// resulting confidence plus warnings. Minor heuristic noise must not read as
// total failure, so the confidence is floored at MinConfidence.
func (p ScorePolicy) Validate(episodes []novlate.Episode, estimated int, originalLen int) (int, []string) {
	var warnings []string
	confidence := 100

	// Check 1: episode count vs. estimate.
	actual := len(episodes)
	if estimated > 0 {
		diffPct := float64(abs(actual-estimated)) / float64(estimated) * 100
		if diffPct > p.CountMismatchPct {
			warnings = append(warnings, fmt.Sprintf("episode count mismatch: estimated %d, found %d (%.1f%% difference)", estimated, actual, diffPct))
			confidence -= p.CountMismatchPenalty
		}
	}

	// Check 2: numbering gaps.
	for i := 0; i+1 < len(episodes); i++ {
		gap := episodes[i+1].Number - episodes[i].Number
		if gap > p.MaxNumberGap {
			warnings = append(warnings, fmt.Sprintf("large gap in numbering: %d → %d", episodes[i].Number, episodes[i+1].Number))
			confidence -= p.NumberGapPenalty
		}
	}

	// Check 3: very short episodes.
	veryShort := 0
	for _, ep := range episodes {
		if ep.WordCount() < p.ShortWordCount {
			veryShort++
		}
	}
	if float64(veryShort) > float64(len(episodes))*p.ShortEpisodeRatio {
		warnings = append(warnings, fmt.Sprintf("%d episodes have very short content (<%d words)", veryShort, p.ShortWordCount))
		confidence -= p.ShortEpisodePenalty
	}

	// Check 4: total content preservation.
	if originalLen > 0 {
		totalChars := 0
		for _, ep := range episodes {
			totalChars += len(ep.Content)
		}
		preservedPct := float64(totalChars) / float64(originalLen) * 100
		if preservedPct < p.MinPreservedPct {
			warnings = append(warnings, fmt.Sprintf("content loss detected: %.1f%% of text missing", 100-preservedPct))
			confidence -= p.ContentLossPenalty
		}
	}

	if confidence < p.MinConfidence {
		confidence = p.MinConfidence
	}
	return confidence, warnings
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
