package glossary

import (
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/HanbitLabs/novlate"
)

// Correction rules reported in Correction.Rule.
const (
	RuleExact      = "exact"      // term original equals an indexed given/short name
	RuleCompound   = "compound"   // wrong fragment replaced inside a compound translation
	RulePositional = "positional" // CJK window heuristic around the projected offset
	RuleForeign    = "foreign"    // multi-token foreign name short form
)

// Correction records one automated consistency fix. It is a side channel next
// to the corrected term list; terms themselves never carry provenance fields.
type Correction struct {
	Original    string `json:"original"`     // the corrected term's original
	From        string `json:"from"`         // translation before the fix
	To          string `json:"to"`           // translation after the fix
	MatchedName string `json:"matched_name"` // the given/short name that triggered it
	Rule        string `json:"rule"`
}

// Enforcer reconciles character-name translations. A backend translating
// terms one at a time has no memory across calls, so a full name and its bare
// given name routinely receive unrelated renderings; the full name is treated
// as the source of truth and everything derived from it is rewritten to match.
type Enforcer struct {
	logger *slog.Logger

	positionalHeuristic bool
}

// EnforcerOption configures an Enforcer.
type EnforcerOption func(*Enforcer)

// WithEnforcerLogger sets the logger.
func WithEnforcerLogger(l *slog.Logger) EnforcerOption {
	return func(e *Enforcer) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithoutPositionalHeuristic disables the last-resort CJK window replacement,
// which can produce false positives on unusual manuscripts.
func WithoutPositionalHeuristic() EnforcerOption {
	return func(e *Enforcer) { e.positionalHeuristic = false }
}

// NewEnforcer creates an Enforcer.
func NewEnforcer(opts ...EnforcerOption) *Enforcer {
	e := &Enforcer{
		logger:              slog.New(slog.NewTextHandler(io.Discard, nil)),
		positionalHeuristic: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// koreanSurnames is the fixed list of common single-syllable Korean surnames
// used to decompose full names.
var koreanSurnames = map[rune]bool{
	'김': true, '이': true, '박': true, '최': true, '정': true,
	'강': true, '조': true, '윤': true, '장': true, '임': true,
	'한': true, '오': true, '서': true, '신': true, '권': true,
	'황': true, '안': true, '송': true, '류': true, '전': true,
	'홍': true, '고': true, '문': true, '양': true, '손': true,
	'배': true, '백': true, '허': true, '유': true, '남': true,
	'심': true, '노': true, '하': true, '곽': true, '성': true,
	'차': true, '주': true, '우': true, '구': true, '민': true,
	'진': true, '나': true, '지': true, '엄': true, '변': true,
	'채': true, '원': true, '천': true, '방': true, '공': true,
}

// Enforce rewrites inconsistent character-name translations and returns the
// corrected term list plus the correction log. The input slice is not
// mutated. This is a quality-improvement pass: it logs, it never fails.
func (e *Enforcer) Enforce(terms []Term, targetLang string) ([]Term, []Correction) {
	out := make([]Term, len(terms))
	copy(out, terms)

	givenNames, givenSources := e.buildGivenNameIndex(out, targetLang)
	foreignNames, foreignSources := e.buildForeignNameIndex(out, targetLang)

	// Full names whose split produced an index entry are the source of truth
	// and must never be corrected themselves. Only those are excluded;
	// compound terms like "서연의 고모" stay correctable even though they
	// start with a surname rune or contain a space.
	fullNames := make(map[string]bool, len(givenSources)+len(foreignSources))
	for original := range givenSources {
		fullNames[original] = true
	}
	for original := range foreignSources {
		fullNames[original] = true
	}

	// Current (possibly wrong) translations by original, for compound fixes.
	current := make(map[string]string)
	for _, t := range out {
		if t.Category == CategoryCharacter {
			current[t.Original] = t.Translation
		}
	}

	// Deterministic scan order regardless of map iteration.
	orderedNames := make([]string, 0, len(givenNames))
	for name := range givenNames {
		orderedNames = append(orderedNames, name)
	}
	sort.Strings(orderedNames)

	var log []Correction
	for i := range out {
		term := &out[i]
		if fullNames[term.Original] {
			continue
		}

		if correct, ok := foreignNames[term.Original]; ok {
			if term.Translation != correct {
				log = append(log, e.apply(term, correct, term.Original, RuleForeign))
			}
			continue
		}

		for _, givenName := range orderedNames {
			correct := givenNames[givenName]
			if !strings.Contains(term.Original, givenName) {
				continue
			}

			if term.Original == givenName {
				if term.Translation != correct {
					log = append(log, e.apply(term, correct, givenName, RuleExact))
				}
				break
			}

			// Compound term like "서연의 고모": replace the wrong rendering of
			// the name inside the compound's translation, but only when that
			// wrong rendering is actually present. Never splice blindly.
			wrong := current[givenName]
			if wrong != "" && wrong != correct && strings.Contains(term.Translation, wrong) {
				fixed := strings.ReplaceAll(term.Translation, wrong, correct)
				if fixed != term.Translation {
					log = append(log, e.apply(term, fixed, givenName, RuleCompound))
				}
			} else if e.positionalHeuristic && isLogographic(targetLang) {
				if c, ok := e.positionalFix(term, givenName, correct); ok {
					log = append(log, c)
				}
			}
			break
		}
	}

	if len(log) > 0 {
		e.logger.Info("name consistency corrections applied", "count", len(log))
	}
	return out, log
}

// apply overwrites a term's translation and returns the correction record.
func (e *Enforcer) apply(term *Term, to, matched, rule string) Correction {
	c := Correction{
		Original:    term.Original,
		From:        term.Translation,
		To:          to,
		MatchedName: matched,
		Rule:        rule,
	}
	e.logger.Debug("fixed name translation",
		"original", term.Original,
		"from", c.From,
		"to", to,
		"rule", rule)
	term.Translation = to
	return c
}

// buildGivenNameIndex maps bare given names to the translation derived from
// their full-name term, and reports which originals it indexed. A full name
// is ≥3 runes starting with a recognized surname, with a given name of ≥2
// runes; shorter originals are ambiguous (a 2-rune given name also starts
// with a surname rune) and are skipped.
func (e *Enforcer) buildGivenNameIndex(terms []Term, targetLang string) (map[string]string, map[string]bool) {
	index := make(map[string]string)
	sources := make(map[string]bool)
	for _, t := range terms {
		if t.Category != CategoryCharacter {
			continue
		}
		original := []rune(t.Original)
		if len(original) < 3 || !koreanSurnames[original[0]] {
			continue
		}
		givenName := string(original[1:])
		if len([]rune(givenName)) < 2 {
			continue
		}

		translation, ok := splitGivenTranslation(t.Translation, targetLang)
		if !ok {
			continue
		}
		index[givenName] = translation
		sources[t.Original] = true
	}
	return index, sources
}

// splitGivenTranslation extracts the given-name part of a full-name
// translation using the target script's convention: delimiter scripts split on
// the delimiter, concatenative logographic scripts drop the leading surname
// character.
func splitGivenTranslation(translation, targetLang string) (string, bool) {
	switch novlate.NormalizeLanguage(targetLang) {
	case "japanese":
		// イ・ソヨン → ソヨン
		if before, after, found := strings.Cut(translation, "・"); found && before != "" && after != "" {
			return after, true
		}
	case "chinese", "taiwanese":
		// 李瑞妍 → 瑞妍
		runes := []rune(translation)
		if len(runes) >= 3 {
			return string(runes[1:]), true
		}
	}
	return "", false
}

// buildForeignNameIndex maps the first token of multi-token names (fantasy or
// Western style, e.g. "아이든 시몬 오르피어스") to the first delimited segment
// of the full translation, and reports which originals it indexed.
func (e *Enforcer) buildForeignNameIndex(terms []Term, targetLang string) (map[string]string, map[string]bool) {
	index := make(map[string]string)
	sources := make(map[string]bool)
	for _, t := range terms {
		if t.Category != CategoryCharacter {
			continue
		}
		parts := strings.Fields(t.Original)
		if len(parts) < 2 {
			continue
		}
		short := firstSegment(t.Translation)
		if short == "" || short == t.Translation {
			continue
		}
		index[parts[0]] = short
		sources[t.Original] = true
	}
	return index, sources
}

// firstSegment returns the first delimited part of a translated name, trying
// the middle-dot variants before falling back to whitespace.
func firstSegment(translation string) string {
	for _, sep := range []string{"・", "·", " "} {
		if before, _, found := strings.Cut(translation, sep); found {
			return strings.TrimSpace(before)
		}
	}
	return ""
}

// positionalWindow is how many runes around the projected offset the
// positional heuristic scans.
const positionalWindow = 2

// positionalFix is the last-resort heuristic for logographic targets: project
// the given name's relative position in the original onto the translation,
// then scan a small window for a same-length all-CJK run that differs from
// the correct rendering and replace it. False positives are possible; visible
// name inconsistency is judged worse.
func (e *Enforcer) positionalFix(term *Term, givenName, correct string) (Correction, bool) {
	origRunes := []rune(term.Original)
	transRunes := []rune(term.Translation)
	correctRunes := []rune(correct)
	if len(correctRunes) < 2 || len(transRunes) == 0 {
		return Correction{}, false
	}

	namePos := runeIndex(term.Original, givenName)
	if namePos < 0 {
		return Correction{}, false
	}

	ratio := float64(namePos) / float64(len(origRunes))
	expected := int(ratio * float64(len(transRunes)))

	start := expected - positionalWindow
	if start < 0 {
		start = 0
	}
	end := expected + len(correctRunes) + positionalWindow
	if end > len(transRunes) {
		end = len(transRunes)
	}

	for i := start; i+len(correctRunes) <= end; i++ {
		candidate := transRunes[i : i+len(correctRunes)]
		if string(candidate) == correct || !allCJK(candidate) {
			continue
		}
		fixed := string(transRunes[:i]) + correct + string(transRunes[i+len(correctRunes):])
		if fixed == term.Translation {
			return Correction{}, false
		}
		return e.apply(term, fixed, givenName, RulePositional), true
	}
	return Correction{}, false
}

// runeIndex returns the rune offset of substr within s, or -1.
func runeIndex(s, substr string) int {
	byteIdx := strings.Index(s, substr)
	if byteIdx < 0 {
		return -1
	}
	return len([]rune(s[:byteIdx]))
}

func allCJK(runes []rune) bool {
	for _, r := range runes {
		if r < 0x4E00 || r > 0x9FFF {
			return false
		}
	}
	return true
}

func isLogographic(targetLang string) bool {
	switch novlate.NormalizeLanguage(targetLang) {
	case "chinese", "taiwanese":
		return true
	}
	return false
}
