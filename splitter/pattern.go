// Package splitter detects episode boundaries in web-novel manuscripts and
// splits them into ordered episodes with a confidence score.
package splitter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Pattern is a validated episode-separator pattern. The regex is compiled
// once at construction and must contain at least one capturing group yielding
// the episode number.
type Pattern struct {
	Name string
	re   *regexp.Regexp
}

// NewPattern compiles an episode-separator pattern. It returns an error if
// the expression does not compile or lacks a capturing group.
func NewPattern(name, expr string) (Pattern, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return Pattern{}, fmt.Errorf("pattern %q: %w", name, err)
	}
	if re.NumSubexp() < 1 {
		return Pattern{}, fmt.Errorf("pattern %q: regex %q has no capturing group for the episode number", name, expr)
	}
	return Pattern{Name: name, re: re}, nil
}

func mustPattern(name, expr string) Pattern {
	p, err := NewPattern(name, expr)
	if err != nil {
		panic(err)
	}
	return p
}

// Regex returns the pattern's regex source.
func (p Pattern) Regex() string {
	return p.re.String()
}

// MatchLine matches the pattern against a single trimmed line. On success it
// returns the captured episode number and the byte offset where the match
// ends (text after that offset belongs to the new episode's content).
func (p Pattern) MatchLine(line string) (number int, end int, ok bool) {
	loc := p.re.FindStringSubmatchIndex(line)
	if loc == nil || loc[0] != 0 {
		return 0, 0, false
	}
	num, err := parseCaptured(line, loc)
	if err != nil {
		return 0, 0, false
	}
	return num, loc[1], true
}

func parseCaptured(s string, loc []int) (int, error) {
	if len(loc) >= 4 && loc[2] >= 0 {
		return strconv.Atoi(s[loc[2]:loc[3]])
	}
	// Fallback: extract the first digit run from the whole match.
	digits := digitRun.FindString(s[loc[0]:loc[1]])
	if digits == "" {
		return 0, fmt.Errorf("no episode number in %q", s[loc[0]:loc[1]])
	}
	return strconv.Atoi(digits)
}

var digitRun = regexp.MustCompile(`\d+`)

// Pattern names used by the catalog and the combined-pattern merge.
const (
	patternDollarNNN     = "$NNN"
	patternSceneBreakNNN = "* * *$NNN"
	patternCombinedNNN   = "$NNN+* * *$NNN"
	patternInlineNNN     = "$NNN (inline)"
)

// bareNumberRegexes are separator regexes that match any bare number. Such a
// pattern matches page numbers and stray digits, so plans proposing one are
// never trusted.
var bareNumberRegexes = map[string]bool{
	`^(\d+)$`:    true,
	`^(\d+)\s*$`: true,
	`^\s*(\d+)$`: true,
	`^(\d+)\r?$`: true,
}

func isBareNumberRegex(expr string) bool {
	return bareNumberRegexes[expr]
}

// Catalog returns the fixed set of known episode-separator patterns, tried
// against every line before any backend call.
func Catalog() []Pattern {
	return []Pattern{
		mustPattern("#N화", `^#(\d+)화\s*$`),
		mustPattern("$N화", `^\$(\d+)화\s*$`),
		mustPattern(patternDollarNNN, `^\$(\d{3})`), // text may follow on the same line
		mustPattern(patternSceneBreakNNN, `^\* \* \*\$(\d{3})`),
		mustPattern("第N話", `^第(\d+)話\s*$`),
		mustPattern("제N화", `^제(\d+)화\s*$`),
		mustPattern("N. Title (N)", `^(\d+)\. .+ \(\d+\)`),
		mustPattern("NN. Title", `^(\d+)\. .+`),
		mustPattern("//N", `^//(\d+)\s*$`),
	}
}

// combinedPattern merges the $NNN marker with its scene-break decorated
// variant; real manuscripts often mix the two.
func combinedPattern() Pattern {
	return mustPattern(patternCombinedNNN, `^(?:\* \* \*)?\$(\d{3})`)
}

// inlineRe matches an episode marker appearing anywhere in the text, with an
// optional scene break glued to the front.
var inlineRe = regexp.MustCompile(`(?:\* \* \*)?\$(\d{3})`)

// inlineBareRe is the bare mid-line marker, used for counting during
// detection.
var inlineBareRe = regexp.MustCompile(`\$(\d{3})`)

// Trailing episode markers that bleed into the tail of the previous episode's
// content when two separators sit close together. Only the first match found
// is stripped.
var trailingMarkers = []*regexp.Regexp{
	regexp.MustCompile(`\n\s*#\d+화\s*$`),
	regexp.MustCompile(`\n\s*\$\d{3}\s*$`),
	regexp.MustCompile(`\n\s*\* \* \*\$\d{3}`),
	regexp.MustCompile(`\n\s*\* \* \*\s*$`),
	regexp.MustCompile(`\n\s*第\d+話\s*$`),
	regexp.MustCompile(`\n\s*제\d+화\s*$`),
	regexp.MustCompile(`\n\s*\d+화\s*$`),
	regexp.MustCompile(`\n\s*//\d+\s*$`),
	regexp.MustCompile(`\n\s*\d+\.\s*[^\n]+$`),
}

// CleanTrailingMarker removes a trailing episode marker from content. The
// next episode's separator line sometimes gets attached to the end of the
// previous episode; this strips the first such marker found.
func CleanTrailingMarker(content string) string {
	cleaned := strings.TrimRight(content, " \t\r\n")

	for _, re := range trailingMarkers {
		if loc := re.FindStringIndex(cleaned); loc != nil {
			return strings.TrimRight(cleaned[:loc[0]], " \t\r\n")
		}
	}

	return cleaned
}

var sceneBreakTailRe = regexp.MustCompile(`\s*\* \* \*\s*$`)

// stripBOM removes a UTF-8 byte order mark prefix.
func stripBOM(s string) string {
	return strings.TrimPrefix(s, "\ufeff")
}
