package novlate

import "context"

// Backend is the interface to the AI generation layer. Each operation is its
// own method with a strongly typed request, so an unimplemented operation is a
// compile-time error rather than an unknown string at runtime.
type Backend interface {
	// DetectPattern analyzes a bounded manuscript sample and returns a split
	// plan. The returned regexes are executed locally by the splitter; the
	// backend never inlines episode content into its own output.
	DetectPattern(ctx context.Context, req DetectPatternRequest) (*SplitPlan, error)

	// ExtractTerms extracts glossary term candidates from the full series
	// text. Candidates carry no translations.
	ExtractTerms(ctx context.Context, req ExtractTermsRequest) ([]TermCandidate, error)

	// TranslateTerm translates a single glossary term. Low temperature,
	// strict output; callers reject overlong responses as a sign the backend
	// generated prose instead of a term.
	TranslateTerm(ctx context.Context, req TranslateTermRequest) (string, error)

	// TranslateSegment re-translates a short leaked segment using its
	// surrounding context and the relevant glossary subset. Callers validate
	// that the response contains no source-script characters.
	TranslateSegment(ctx context.Context, req TranslateSegmentRequest) (string, error)

	// TranslateEpisode translates a full episode body with the formatted
	// glossary threaded into the prompt.
	TranslateEpisode(ctx context.Context, req TranslateEpisodeRequest) (string, error)

	// ExtractEpisodeTitles identifies embedded title lines for a batch of
	// title-less episodes in one call. The result maps sample index to guess.
	ExtractEpisodeTitles(ctx context.Context, req ExtractTitlesRequest) (map[int]TitleGuess, error)
}

// DetectPatternRequest is the input for pattern detection.
type DetectPatternRequest struct {
	Sample      string // first SampleLines lines of the manuscript
	Filename    string // original filename, for context
	SampleLines int    // how many lines Sample holds
}

// ExtractTermsRequest is the input for glossary term extraction.
type ExtractTermsRequest struct {
	Text           string // full series text with episode boundary markers
	SourceLanguage string
}

// TranslateTermRequest is the input for single-term translation.
type TranslateTermRequest struct {
	Term           string
	SourceLanguage string
	TargetLanguage string
	Category       string
	Context        string
}

// TranslateSegmentRequest is the input for targeted segment re-translation
// during auto-fix.
type TranslateSegmentRequest struct {
	Segment        string
	SourceLanguage string
	TargetLanguage string
	Context        string // surrounding text from the issue
	Glossary       string // formatted glossary subset
}

// TranslateEpisodeRequest is the input for full episode body translation.
type TranslateEpisodeRequest struct {
	Text           string
	SourceLanguage string
	TargetLanguage string
	Glossary       string // formatted glossary block
}

// ExtractTitlesRequest is the batched input for title extraction.
type ExtractTitlesRequest struct {
	Episodes []TitleSample
}
