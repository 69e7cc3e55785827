package glossary

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/HanbitLabs/novlate"
)

// CSV column layout for human review. Reviewers edit translations in a
// spreadsheet; ReadCSV syncs the edits back.
var csvHeader = []string{"Category", "Original", "Translation", "Context"}

// WriteCSV writes the glossary terms for human review, grouped by category
// with a blank separator row between groups.
func (g *Glossary) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return &novlate.GlossaryError{Message: "writing csv header", Cause: err}
	}

	first := true
	for _, category := range Categories() {
		terms := g.ByCategory(category)
		if len(terms) == 0 {
			continue
		}
		if !first {
			if err := cw.Write([]string{"", "", "", ""}); err != nil {
				return &novlate.GlossaryError{Message: "writing csv separator", Cause: err}
			}
		}
		first = false
		for _, t := range terms {
			if err := cw.Write([]string{t.Category, t.Original, t.Translation, t.Context}); err != nil {
				return &novlate.GlossaryError{Message: "writing csv row", Cause: err}
			}
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return &novlate.GlossaryError{Message: "flushing csv", Cause: err}
	}
	return nil
}

// ReadCSV parses reviewer-edited terms. Rows without an original or a
// translation are skipped, as are the blank category separator rows. A missing
// category defaults to "term". The returned terms replace the glossary's term
// list via ReplaceTerms once the caller accepts them.
func ReadCSV(r io.Reader) ([]Term, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // tolerate short rows from spreadsheet exports

	header, err := cr.Read()
	if err != nil {
		return nil, &novlate.GlossaryError{Message: "reading csv header", Cause: err}
	}
	col := columnIndex(header)

	var terms []Term
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &novlate.GlossaryError{Message: "reading csv row", Cause: err}
		}

		original := field(row, col.original)
		translation := field(row, col.translation)
		if original == "" || translation == "" {
			continue
		}

		category := strings.ToLower(field(row, col.category))
		if category == "" {
			category = CategoryTerm
		}

		terms = append(terms, Term{
			Original:    original,
			Translation: translation,
			Category:    category,
			Context:     field(row, col.context),
		})
	}
	return terms, nil
}

type csvColumns struct {
	category, original, translation, context int
}

// columnIndex resolves header positions case-insensitively, stripping a BOM
// from the first cell. Spreadsheet tools reorder and re-encode freely.
func columnIndex(header []string) csvColumns {
	col := csvColumns{category: -1, original: -1, translation: -1, context: -1}
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "category":
			col.category = i
		case "original":
			col.original = i
		case "translation":
			col.translation = i
		case "context":
			col.context = i
		}
	}
	return col
}

func field(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
