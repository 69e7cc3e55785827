package splitter

import (
	"context"
	"strings"

	"github.com/HanbitLabs/novlate"
)

// titleSampleLines is how many leading non-empty lines of an episode are sent
// to the backend when guessing its title.
const titleSampleLines = 3

// extractTitles asks the backend to promote title lines for episodes that
// have none, in a single batched call. It is best effort: on failure the
// episodes keep their empty titles and a warning is returned.
func (s *Splitter) extractTitles(ctx context.Context, episodes []novlate.Episode) []string {
	var samples []novlate.TitleSample
	for i, ep := range episodes {
		if ep.Title != "" {
			continue
		}
		lines := leadingLines(ep.Content, titleSampleLines)
		if len(lines) == 0 {
			continue
		}
		samples = append(samples, novlate.TitleSample{
			Index:      i,
			Number:     ep.Number,
			FirstLines: lines,
		})
	}
	if len(samples) == 0 {
		return nil
	}

	guesses, err := s.backend.ExtractEpisodeTitles(ctx, novlate.ExtractTitlesRequest{Episodes: samples})
	if err != nil {
		s.logger.Warn("title extraction failed, keeping episodes untitled", "error", err)
		return []string{"title extraction failed: " + err.Error()}
	}

	for _, sample := range samples {
		guess, ok := guesses[sample.Index]
		if !ok || guess.Title == "" {
			continue
		}
		ep := &episodes[sample.Index]
		ep.Title = guess.Title
		if guess.TitleLineIndex >= 0 && guess.TitleLineIndex < len(sample.FirstLines) {
			ep.Content = removeNonEmptyLine(ep.Content, guess.TitleLineIndex)
		}
	}
	return nil
}

// leadingLines returns up to n leading non-empty trimmed lines.
func leadingLines(content string, n int) []string {
	var out []string
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
		if len(out) == n {
			break
		}
	}
	return out
}

// removeNonEmptyLine removes the nth non-empty line from content, counting
// from zero. Used after a title line is promoted into the episode title.
func removeNonEmptyLine(content string, n int) string {
	lines := strings.Split(content, "\n")
	seen := 0
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if seen == n {
			return strings.TrimSpace(strings.Join(append(lines[:i:i], lines[i+1:]...), "\n"))
		}
		seen++
	}
	return content
}
