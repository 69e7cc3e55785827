package backend

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/HanbitLabs/novlate"
)

func detectPatternPrompt(req DetectPatternRequest) (system, user string) {
	system = `You are a manuscript structure analyst for web novel localization.

Analyze the sample and determine how the manuscript separates episodes.

CRITICAL REQUIREMENT: Respond with ONLY a valid JSON object. No explanations, no markdown, no code blocks.

Output format:
{
  "is_multi_episode": true,
  "patterns": [
    {
      "separator_pattern": "human-readable pattern name",
      "pattern_examples": ["matched line 1", "matched line 2"],
      "pattern_regex": "regex with EXACTLY ONE capturing group for the episode number, anchored to line start"
    }
  ],
  "primary_pattern": "name of the most frequent pattern",
  "estimated_episodes": 12,
  "confidence": 85,
  "special_episodes": {"prologue": "keyword", "epilogue": "keyword", "extras": ["keyword"]},
  "language": "korean",
  "notes": "short remark"
}

Rules:
1. pattern_regex must compile and contain exactly one capturing group yielding the episode number
2. Do NOT include episode content in the response; the regex is executed locally
3. If the sample is a single continuous story, return {"is_multi_episode": false, "confidence": ..., "language": ...}
4. Detect the source language of the text (korean, japanese, chinese, english)`

	user = fmt.Sprintf("Filename: %s\nSample (first %d lines):\n\n%s",
		req.Filename, req.SampleLines, req.Sample)
	return system, user
}

func extractTermsPrompt(req ExtractTermsRequest) (system, user string) {
	system = fmt.Sprintf(`You are a terminology extraction specialist for web novel translation.

Extract EVERY character name, location, and special term from the %s text that must be translated consistently. This is a FULL SERIES; there is NO LIMIT on the number of terms.

CRITICAL REQUIREMENT: Respond with ONLY a valid JSON object. No explanations, no markdown, no code blocks.

Categories: character, location, organization, title, item, skill, term

[CHARACTER NAME EXTRACTION - CRITICAL]
For EVERY character whose name decomposes into a one-character surname plus a given name of two or more characters, extract BOTH forms as SEPARATE entries:
- full name: {"original":"이서연","category":"character","context":"female lead, full name"}
- given name: {"original":"서연","category":"character","context":"이서연's given name"}
Omitting the given-name entry is an extraction defect; the text uses both forms interchangeably and both need consistent translations.

Output format:
{"terms":[{"original":"...","category":"...","context":"5-15 character description"}]}

Rules:
1. Scan every episode from the first to the last; include names that appear only once
2. Keep context brief: what the term is, not a summary
3. Do not stop early`, novlate.GetLanguageName(req.SourceLanguage))

	user = req.Text
	return system, user
}

func translateTermPrompt(req TranslateTermRequest) (system, user string) {
	system = fmt.Sprintf(`[Role]
You are a professional translator specializing in terminology translation for localization into %s.

[Critical Requirements]
1. Translate ONLY the single term provided - do NOT create scenarios, scripts, or dialogue
2. Provide ONLY the direct translation - no explanations, no context, no examples
3. Keep the translation concise and appropriate for the term category
4. Do NOT generate creative content - this is strict terminology translation`,
		novlate.GetLanguageName(req.TargetLanguage))

	user = fmt.Sprintf("Translate this %s from %s to %s:\n%q\n\nContext: %s\n\nOutput ONLY the translated term:",
		req.Category,
		novlate.GetLanguageName(req.SourceLanguage),
		novlate.GetLanguageName(req.TargetLanguage),
		req.Term,
		req.Context)
	return system, user
}

func translateSegmentPrompt(req TranslateSegmentRequest) (system, user string) {
	system = fmt.Sprintf(`[Role]
You are a professional literary translator fixing a short untranslated fragment inside an already-translated passage.

[Critical Requirements]
1. Translate ONLY the fragment; output nothing else
2. The translation must fit the surrounding context naturally
3. The output must contain NO %s text whatsoever
4. Use the glossary translations exactly as given`,
		novlate.GetLanguageName(req.SourceLanguage))

	var sb strings.Builder
	fmt.Fprintf(&sb, "Fragment (%s):\n%s\n",
		novlate.GetLanguageName(req.SourceLanguage), req.Segment)
	if req.Context != "" {
		fmt.Fprintf(&sb, "\nSurrounding context:\n%s\n", req.Context)
	}
	if req.Glossary != "" {
		fmt.Fprintf(&sb, "\n%s\n", req.Glossary)
	}
	fmt.Fprintf(&sb, "\nOutput ONLY the %s translation of the fragment:",
		novlate.GetLanguageName(req.TargetLanguage))
	user = sb.String()
	return system, user
}

func translateEpisodePrompt(req TranslateEpisodeRequest) (system, user string) {
	system = fmt.Sprintf(`[Role]
You are a professional web novel translator localizing %s fiction into natural, fluent %s.

[Style]
- Preserve paragraph breaks and dialogue formatting exactly
- Translate idioms into natural equivalents, never literally
- Keep the narrative voice and register of the original
- Every name and term in the glossary MUST use the given translation, every time

[Output]
Return ONLY the translated text. No notes, no headers, no markdown.`,
		novlate.GetLanguageName(req.SourceLanguage),
		novlate.GetLanguageName(req.TargetLanguage))

	var sb strings.Builder
	if req.Glossary != "" {
		sb.WriteString(req.Glossary)
		sb.WriteString("\n\n")
	}
	sb.WriteString(req.Text)
	user = sb.String()
	return system, user
}

func extractTitlesPrompt(req ExtractTitlesRequest) (system, user string) {
	system = `You are a web novel editor identifying embedded episode titles.

For each episode sample you receive the first few non-empty lines. Decide whether one of those lines is the episode's title (short, no sentence-final punctuation, often numbered or stylized) rather than body text.

CRITICAL REQUIREMENT: Respond with ONLY a valid JSON object. No explanations, no markdown, no code blocks.

Output format, keyed by the sample's idx as a string:
{"titles":{"0":{"title":"the title text","title_line_idx":0},"3":{"title":"","title_line_idx":-1}}}

Rules:
1. title_line_idx is the index into first_lines of the line you promoted, or -1 if none
2. An empty title with -1 means the episode has no embedded title; that is a valid answer
3. Never invent a title that is not present in the lines`

	data, _ := json.Marshal(map[string]any{"episodes": req.Episodes})
	user = string(data)
	return system, user
}
