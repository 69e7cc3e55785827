package qa

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// EpisodeReport is the persisted QA outcome for one episode. Issues are
// re-derived on every validation run; only this aggregate survives.
type EpisodeReport struct {
	EpisodeNumber int     `json:"episode_number"`
	Passed        bool    `json:"passed"`
	ErrorCount    int     `json:"error_count"`
	WarningCount  int     `json:"warning_count"`
	Issues        []Issue `json:"issues,omitempty"`
}

// Report aggregates QA results for one target language across a run.
type Report struct {
	SeriesName     string          `json:"series_name,omitempty"`
	SourceLanguage string          `json:"source_language"`
	TargetLanguage string          `json:"target_language"`
	GeneratedAt    time.Time       `json:"generated_at"`
	PassedCount    int             `json:"passed_count"`
	FailedCount    int             `json:"failed_count"`
	TotalIssues    int             `json:"total_issues"`
	Episodes       []EpisodeReport `json:"episodes"`
}

// NewReport creates an empty report for a language pair.
func NewReport(seriesName, sourceLang, targetLang string) *Report {
	return &Report{
		SeriesName:     seriesName,
		SourceLanguage: sourceLang,
		TargetLanguage: targetLang,
		GeneratedAt:    time.Now().UTC(),
	}
}

// Add appends one episode's validation result.
func (r *Report) Add(result *Result) {
	r.Episodes = append(r.Episodes, EpisodeReport{
		EpisodeNumber: result.EpisodeNumber,
		Passed:        result.Passed,
		ErrorCount:    result.ErrorCount(),
		WarningCount:  result.WarningCount(),
		Issues:        result.Issues,
	})
	if result.Passed {
		r.PassedCount++
	} else {
		r.FailedCount++
	}
	r.TotalIssues += len(result.Issues)
}

// PassRate returns the fraction of episodes that passed, or 1 for an empty
// report.
func (r *Report) PassRate() float64 {
	total := r.PassedCount + r.FailedCount
	if total == 0 {
		return 1
	}
	return float64(r.PassedCount) / float64(total)
}

// JSON serializes the report for machine consumption.
func (r *Report) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// Text renders a human-readable summary.
func (r *Report) Text() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "QA Report: %s → %s", r.SourceLanguage, r.TargetLanguage)
	if r.SeriesName != "" {
		fmt.Fprintf(&sb, " (%s)", r.SeriesName)
	}
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Episodes: %d passed, %d failed (%.0f%% pass rate)\n",
		r.PassedCount, r.FailedCount, r.PassRate()*100)
	fmt.Fprintf(&sb, "Total issues: %d\n", r.TotalIssues)

	for _, ep := range r.Episodes {
		status := "PASS"
		if !ep.Passed {
			status = "FAIL"
		}
		fmt.Fprintf(&sb, "\nEpisode %d: %s", ep.EpisodeNumber, status)
		if len(ep.Issues) > 0 {
			fmt.Fprintf(&sb, " (errors: %d, warnings: %d)", ep.ErrorCount, ep.WarningCount)
		}
		sb.WriteString("\n")
		for _, issue := range ep.Issues {
			fmt.Fprintf(&sb, "  [%s] %s\n", strings.ToUpper(issue.Severity), issue.Message)
			if issue.Context != "" {
				fmt.Fprintf(&sb, "    context: ...%s...\n", issue.Context)
			}
		}
	}
	return sb.String()
}
