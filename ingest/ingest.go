// Package ingest loads raw manuscripts into plain text. Web-novel sources
// arrive as TXT exports, scraped HTML, or EPUB books; downstream stages only
// ever see normalized plain text.
package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// IngestError indicates a manuscript could not be read or decoded.
type IngestError struct {
	Path    string
	Format  string
	Message string
	Cause   error
}

func (e *IngestError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("ingest error (%s, %s): %s: %v", e.Path, e.Format, e.Message, e.Cause)
	}
	return fmt.Sprintf("ingest error (%s, %s): %s", e.Path, e.Format, e.Message)
}

func (e *IngestError) Unwrap() error {
	return e.Cause
}

// FromFile reads a manuscript file and returns normalized plain text. The
// format is chosen by extension: .txt/.md are read as-is, .html/.htm/.xhtml
// are stripped to text, .epub is unpacked in spine order.
func FromFile(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))

	if ext == ".epub" {
		text, err := ExtractEPUB(path)
		if err != nil {
			return "", err
		}
		return Normalize(text), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", &IngestError{Path: path, Format: ext, Message: "reading manuscript", Cause: err}
	}

	switch ext {
	case ".txt", ".md", "":
		return Normalize(string(data)), nil
	case ".html", ".htm", ".xhtml":
		text, err := ExtractHTML(string(data))
		if err != nil {
			return "", &IngestError{Path: path, Format: ext, Message: "extracting HTML text", Cause: err}
		}
		return Normalize(text), nil
	default:
		return "", &IngestError{Path: path, Format: ext, Message: "unsupported manuscript format"}
	}
}

// Normalize prepares raw manuscript text for splitting: strips a UTF-8 BOM,
// unifies line endings, and NFC-normalizes the content. Korean text saved on
// macOS often arrives NFD-decomposed, which breaks marker and glossary
// matching.
func Normalize(text string) string {
	text = strings.TrimPrefix(text, "\ufeff")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return norm.NFC.String(text)
}
