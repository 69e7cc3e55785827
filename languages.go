package novlate

import (
	"regexp"
	"strings"
)

// LanguageNames maps pipeline language codes to human-readable names for AI
// prompts.
var LanguageNames = map[string]string{
	"korean":              "Korean",
	"japanese":            "Japanese",
	"taiwanese":           "Traditional Chinese (Taiwan)",
	"traditional_chinese": "Traditional Chinese (Taiwan)",
	"chinese":             "Simplified Chinese",
	"english":             "English",
}

// languageAliases folds equivalent language codes into one canonical form so
// that Korean→Korean or taiwanese→traditional_chinese comparisons behave as
// "same language".
var languageAliases = map[string]string{
	"korean":              "korean",
	"ko":                  "korean",
	"kr":                  "korean",
	"japanese":            "japanese",
	"ja":                  "japanese",
	"jp":                  "japanese",
	"taiwanese":           "taiwanese",
	"traditional_chinese": "taiwanese",
	"zh-tw":               "taiwanese",
	"zh-hant":             "taiwanese",
	"chinese":             "chinese",
	"zh":                  "chinese",
	"zh-cn":               "chinese",
	"mandarin":            "chinese",
	"english":             "english",
	"en":                  "english",
}

// GetLanguageName returns the human-readable name for a language code.
// Falls back to the code itself if not found.
func GetLanguageName(lang string) string {
	if name, ok := LanguageNames[strings.ToLower(lang)]; ok {
		return name
	}
	return lang
}

// NormalizeLanguage folds a language code to its canonical form.
func NormalizeLanguage(lang string) string {
	key := strings.ToLower(strings.TrimSpace(lang))
	if canonical, ok := languageAliases[key]; ok {
		return canonical
	}
	return key
}

// SameLanguage reports whether two language codes refer to the same language
// after normalization. Translation QA is meaningless when true.
func SameLanguage(a, b string) bool {
	return NormalizeLanguage(a) == NormalizeLanguage(b)
}

// Script run patterns per source language, used to detect leaked
// source-language text inside a translation. Korean covers the Hangul
// syllable block; Japanese covers both kana blocks; Chinese covers the CJK
// unified ideographs.
var scriptPatterns = map[string]*regexp.Regexp{
	"korean":    regexp.MustCompile(`[\x{AC00}-\x{D7AF}]+`),
	"japanese":  regexp.MustCompile(`[\x{3040}-\x{30FF}]+`),
	"chinese":   regexp.MustCompile(`[\x{4E00}-\x{9FFF}]+`),
	"taiwanese": regexp.MustCompile(`[\x{4E00}-\x{9FFF}]+`),
}

// ScriptPattern returns the compiled run pattern for a language's native
// script, or nil if the language has no registered script range.
func ScriptPattern(lang string) *regexp.Regexp {
	return scriptPatterns[NormalizeLanguage(lang)]
}

// ContainsScript reports whether s contains any characters from the given
// language's native script.
func ContainsScript(lang, s string) bool {
	re := ScriptPattern(lang)
	if re == nil {
		return false
	}
	return re.MatchString(s)
}
