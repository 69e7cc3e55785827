// Package glossary maintains the per-series, per-target-language terminology
// dictionary that keeps character names, locations and recurring terms
// consistent across episode translations.
package glossary

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/HanbitLabs/novlate"
)

// Term categories.
const (
	CategoryCharacter    = "character"
	CategoryLocation     = "location"
	CategoryOrganization = "organization"
	CategoryTitle        = "title"
	CategoryItem         = "item"
	CategorySkill        = "skill"
	CategoryTerm         = "term"
)

// Categories lists all valid term categories.
func Categories() []string {
	return []string{
		CategoryCharacter,
		CategoryLocation,
		CategoryOrganization,
		CategoryTitle,
		CategoryItem,
		CategorySkill,
		CategoryTerm,
	}
}

// Translation length ceilings by category. A term translation longer than its
// ceiling means the backend generated prose instead of a term.
const (
	TermLengthLimit         = 50
	LocationTermLengthLimit = 100
)

// TermLengthCeiling returns the maximum accepted translation length for a
// category.
func TermLengthCeiling(category string) int {
	if category == CategoryLocation {
		return LocationTermLengthLimit
	}
	return TermLengthLimit
}

// Term is one glossary entry: a source-language surface form and its single
// canonical translation.
type Term struct {
	Original    string `json:"original"`
	Translation string `json:"translation"`
	Category    string `json:"category"`
	Context     string `json:"context,omitempty"`

	// FirstAppearance is the episode number the term was first seen in.
	FirstAppearance int `json:"first_appearance,omitempty"`

	// KnownWrongVariants lists previously-seen incorrect translations, scanned
	// for during QA.
	KnownWrongVariants []string `json:"known_wrong_variants,omitempty"`
}

// Glossary is the terminology dictionary for one series and target language.
// One original = one canonical translation; duplicates are rejected at insert.
type Glossary struct {
	SeriesName     string    `json:"series_name"`
	SourceLanguage string    `json:"source_language"`
	TargetLanguage string    `json:"target_language"`
	CreatedAt      time.Time `json:"created_date"`
	UpdatedAt      time.Time `json:"last_updated"`
	Terms          []Term    `json:"terms"`

	logger *slog.Logger
	index  map[string]int // original -> position in Terms
}

// New creates an empty glossary for a series and language pair.
func New(seriesName, sourceLang, targetLang string) *Glossary {
	now := time.Now().UTC()
	return &Glossary{
		SeriesName:     seriesName,
		SourceLanguage: sourceLang,
		TargetLanguage: targetLang,
		CreatedAt:      now,
		UpdatedAt:      now,
		Terms:          []Term{},
		index:          map[string]int{},
	}
}

// SetLogger sets the logger used for duplicate-add warnings.
func (g *Glossary) SetLogger(l *slog.Logger) {
	g.logger = l
}

func (g *Glossary) log() *slog.Logger {
	if g.logger != nil {
		return g.logger
	}
	return slog.Default()
}

// rebuildIndex recomputes the original→position index. Called after bulk
// mutations (load, CSV import, enforcement).
func (g *Glossary) rebuildIndex() {
	g.index = make(map[string]int, len(g.Terms))
	for i, t := range g.Terms {
		g.index[t.Original] = i
	}
}

func (g *Glossary) ensureIndex() {
	if g.index == nil || len(g.index) != len(g.Terms) {
		g.rebuildIndex()
	}
}

// Add inserts a term. A duplicate original is logged and ignored, never
// overwritten; use Update for corrections. Returns whether the term was added.
func (g *Glossary) Add(t Term) bool {
	g.ensureIndex()
	if _, exists := g.index[t.Original]; exists {
		g.log().Warn("duplicate glossary term ignored",
			"original", t.Original,
			"series", g.SeriesName)
		return false
	}
	g.index[t.Original] = len(g.Terms)
	g.Terms = append(g.Terms, t)
	g.UpdatedAt = time.Now().UTC()
	return true
}

// Update applies fn to the term with the given original. Returns false if the
// term does not exist.
func (g *Glossary) Update(original string, fn func(*Term)) bool {
	g.ensureIndex()
	i, ok := g.index[original]
	if !ok {
		return false
	}
	fn(&g.Terms[i])
	// fn must not change identity.
	g.Terms[i].Original = original
	g.UpdatedAt = time.Now().UTC()
	return true
}

// Find returns the term with the given original.
func (g *Glossary) Find(original string) (Term, bool) {
	g.ensureIndex()
	i, ok := g.index[original]
	if !ok {
		return Term{}, false
	}
	return g.Terms[i], true
}

// Translation returns the canonical translation for an original, or "".
func (g *Glossary) Translation(original string) string {
	t, ok := g.Find(original)
	if !ok {
		return ""
	}
	return t.Translation
}

// Len returns the number of terms.
func (g *Glossary) Len() int {
	return len(g.Terms)
}

// ByCategory returns all terms in the given category, in insertion order.
func (g *Glossary) ByCategory(category string) []Term {
	var out []Term
	for _, t := range g.Terms {
		if t.Category == category {
			out = append(out, t)
		}
	}
	return out
}

// FilterNew returns the candidates whose original is not yet in the glossary.
func (g *Glossary) FilterNew(candidates []novlate.TermCandidate) []novlate.TermCandidate {
	g.ensureIndex()
	var out []novlate.TermCandidate
	for _, c := range candidates {
		if _, exists := g.index[c.Original]; exists {
			continue
		}
		out = append(out, c)
	}
	return out
}

// ReplaceTerms swaps in a new term list, as produced by a consistency
// enforcement pass.
func (g *Glossary) ReplaceTerms(terms []Term) {
	g.Terms = terms
	g.rebuildIndex()
	g.UpdatedAt = time.Now().UTC()
}

// FormatForPrompt renders the glossary as a category-grouped block for
// inclusion in translation prompts. Empty categories are omitted.
func (g *Glossary) FormatForPrompt() string {
	if len(g.Terms) == 0 {
		return ""
	}

	grouped := make(map[string][]Term)
	for _, t := range g.Terms {
		grouped[t.Category] = append(grouped[t.Category], t)
	}

	var order []string
	for _, c := range Categories() {
		if _, ok := grouped[c]; ok {
			order = append(order, c)
		}
	}
	// Unknown categories go last, sorted for stable output.
	var extra []string
	for c := range grouped {
		if !isKnownCategory(c) {
			extra = append(extra, c)
		}
	}
	sort.Strings(extra)
	order = append(order, extra...)

	var sb strings.Builder
	sb.WriteString("## Glossary (use these translations consistently)\n")
	for _, c := range order {
		fmt.Fprintf(&sb, "\n### %s\n", c)
		for _, t := range grouped[c] {
			fmt.Fprintf(&sb, "- %s → %s", t.Original, t.Translation)
			if t.Context != "" {
				fmt.Fprintf(&sb, " (%s)", t.Context)
			}
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func isKnownCategory(c string) bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}
