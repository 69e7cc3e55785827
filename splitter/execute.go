package splitter

import (
	"strings"

	"github.com/HanbitLabs/novlate"
)

// sceneBreakLookback is how far before an inline marker a scene break may sit
// and still be treated as part of the separator.
const sceneBreakLookback = 10

// lineSplit splits text on separator lines matching the pattern. Text that
// follows the marker on the same line belongs to the new episode, not the one
// being closed.
func lineSplit(text string, p Pattern) []novlate.Episode {
	lines := strings.Split(text, "\n")

	var episodes []novlate.Episode
	var current *novlate.Episode
	var buf []string

	flush := func() {
		if current == nil {
			return
		}
		current.Content = CleanTrailingMarker(strings.Join(buf, "\n"))
		episodes = append(episodes, *current)
		current = nil
		buf = nil
	}

	for _, raw := range lines {
		line := strings.TrimSpace(stripBOM(raw))
		num, end, ok := p.MatchLine(line)
		if !ok {
			if current != nil {
				buf = append(buf, raw)
			}
			continue
		}
		flush()
		current = &novlate.Episode{Number: num}
		if rest := strings.TrimSpace(line[end:]); rest != "" {
			buf = append(buf, rest)
		}
	}
	flush()

	return dropEmpty(episodes)
}

// inlineSplit splits text on $NNN markers wherever they appear, including
// mid-line. A scene break sitting just before the marker is treated as part
// of the separator so it does not dangle at the end of the previous episode.
func inlineSplit(text string) []novlate.Episode {
	matches := inlineBareRe.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil
	}

	var episodes []novlate.Episode
	for i, m := range matches {
		start := m[0]
		if cut := sceneBreakBefore(text, start); cut >= 0 {
			start = cut
		}

		// Close the previous episode at this separator's start.
		if i > 0 {
			prev := &episodes[len(episodes)-1]
			prev.Content = CleanTrailingMarker(sceneBreakTailRe.ReplaceAllString(text[prevEnd(matches, i):start], ""))
		}

		num, err := parseEpisodeNumber(text[m[2]:m[3]])
		if err != nil {
			continue
		}
		episodes = append(episodes, novlate.Episode{Number: num})
	}

	if len(episodes) > 0 {
		last := matches[len(matches)-1]
		episodes[len(episodes)-1].Content = CleanTrailingMarker(text[last[1]:])
	}

	return dropEmpty(episodes)
}

// prevEnd returns the byte offset where the content of the episode opened by
// match i-1 begins.
func prevEnd(matches [][]int, i int) int {
	return matches[i-1][1]
}

// sceneBreakBefore checks whether a scene break ends within the lookback
// window before offset and returns its start, or -1.
func sceneBreakBefore(text string, offset int) int {
	windowStart := offset - sceneBreakLookback
	if windowStart < 0 {
		windowStart = 0
	}
	idx := strings.LastIndex(text[windowStart:offset], "* * *")
	if idx < 0 {
		return -1
	}
	return windowStart + idx
}

func parseEpisodeNumber(s string) (int, error) {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, &novlate.SplitError{Message: "non-digit in episode number " + s}
		}
		n = n*10 + int(r-'0')
	}
	return n, nil
}

// dropEmpty removes episodes whose cleaned content is blank. Two adjacent
// separators produce such ghosts.
func dropEmpty(episodes []novlate.Episode) []novlate.Episode {
	out := episodes[:0]
	for _, ep := range episodes {
		if strings.TrimSpace(ep.Content) == "" {
			continue
		}
		out = append(out, ep)
	}
	return out
}

// builtinSpecialHeadings are the special-episode headings recognized without
// any plan hint.
var builtinSpecialHeadings = []string{
	"에필로그", "Epilogue",
	"프롤로그", "Prologue",
	"외전", "번외",
}

// hintSpecialTitles assigns titles to episodes whose content opens with a
// recognizable special-episode heading, ahead of any backend title pass. The
// plan's keyword hints extend the built-in set for manuscripts whose headings
// the catalog does not know (e.g. a Japanese エピローグ).
func hintSpecialTitles(episodes []novlate.Episode, special novlate.SpecialEpisodes) {
	headings := append([]string(nil), builtinSpecialHeadings...)
	for _, h := range []string{special.Prologue, special.Epilogue} {
		if h != "" {
			headings = append(headings, h)
		}
	}
	for _, h := range special.Extras {
		if h != "" {
			headings = append(headings, h)
		}
	}

	for i := range episodes {
		first := firstNonEmptyLine(episodes[i].Content)
		if first == "" {
			continue
		}
		for _, heading := range headings {
			if strings.HasPrefix(first, heading) {
				episodes[i].Title = first
				break
			}
		}
	}
}

func firstNonEmptyLine(content string) string {
	for _, line := range strings.Split(content, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
