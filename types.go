package novlate

// Episode is one serialized narrative unit (chapter) extracted from a
// manuscript. Episodes are immutable once emitted: downstream stages create
// new copies rather than mutating in place.
type Episode struct {
	Number  int    `json:"number"`          // 0 is reserved for a prologue
	Title   string `json:"title,omitempty"` // optional, may be promoted from content
	Content string `json:"content"`         // text body
}

// WordCount returns the number of whitespace-separated words in the content.
func (e Episode) WordCount() int {
	n := 0
	inWord := false
	for _, r := range e.Content {
		switch r {
		case ' ', '\t', '\n', '\r':
			inWord = false
		default:
			if !inWord {
				n++
				inWord = true
			}
		}
	}
	return n
}

// SpecialEpisodes carries keyword hints for prologue/epilogue/extra episodes,
// per source language (e.g. "프롤로그", "エピローグ").
type SpecialEpisodes struct {
	Prologue string   `json:"prologue,omitempty"`
	Epilogue string   `json:"epilogue,omitempty"`
	Extras   []string `json:"extras,omitempty"`
}

// PlanPattern is one separator pattern proposed for a manuscript, either from
// the built-in catalog or from backend detection. PatternRegex must contain
// exactly one capturing group yielding the episode number.
type PlanPattern struct {
	SeparatorPattern string   `json:"separator_pattern"`
	PatternExamples  []string `json:"pattern_examples"`
	PatternRegex     string   `json:"pattern_regex"`
}

// SplitPlan describes how a manuscript should be split into episodes. It is
// both the wire contract for backend pattern detection and the internal result
// of direct catalog detection.
type SplitPlan struct {
	IsMultiEpisode    bool            `json:"is_multi_episode"`
	Patterns          []PlanPattern   `json:"patterns,omitempty"`
	PrimaryPattern    string          `json:"primary_pattern,omitempty"`
	EstimatedEpisodes int             `json:"estimated_episodes,omitempty"`
	Confidence        int             `json:"confidence"`
	SpecialEpisodes   SpecialEpisodes `json:"special_episodes,omitempty"`
	Language          string          `json:"language,omitempty"`
	Notes             string          `json:"notes,omitempty"`

	// InlineSplit selects text-offset splitting for markers that appear
	// mid-line rather than at line start.
	InlineSplit bool `json:"use_inline_split,omitempty"`
}

// TermCandidate is a glossary term candidate produced by extraction. It has no
// translation yet; translation happens one term at a time against the backend.
type TermCandidate struct {
	Original string `json:"original"`
	Category string `json:"category"`
	Context  string `json:"context,omitempty"`
}

// TitleSample is the first few non-empty lines of an episode that lacks an
// explicit title, sent to the backend in a single batched call.
type TitleSample struct {
	Index      int      `json:"idx"`
	Number     int      `json:"number"`
	FirstLines []string `json:"first_lines"`
}

// TitleGuess is the backend's answer for one title-less episode. A negative
// TitleLineIndex means no title line was found.
type TitleGuess struct {
	Title          string `json:"title"`
	TitleLineIndex int    `json:"title_line_idx"`
}
