package ingest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestNormalize_BOMAndLineEndings(t *testing.T) {
	text := Normalize("\ufeff$001\r\n그는 집에 갔다\r마침표")
	if text != "$001\n그는 집에 갔다\n마침표" {
		t.Errorf("Unexpected normalized text: %q", text)
	}
}

func TestNormalize_NFC(t *testing.T) {
	// "한" decomposed into jamo, as macOS filesystems emit it.
	decomposed := "\u1112\u1161\u11ab"

	text := Normalize(decomposed)
	if text != "한" {
		t.Errorf("Expected NFC '한', got %q", text)
	}
}

func TestFromFile_TXT(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manuscript.txt")
	if err := os.WriteFile(path, []byte("\ufeff$001\r\n첫 번째 에피소드"), 0o644); err != nil {
		t.Fatal(err)
	}

	text, err := FromFile(path)
	if err != nil {
		t.Fatalf("FromFile failed: %v", err)
	}
	if text != "$001\n첫 번째 에피소드" {
		t.Errorf("Unexpected text: %q", text)
	}
}

func TestFromFile_HTML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manuscript.html")
	content := `<html><body><p>$001</p><p>첫 번째 에피소드</p></body></html>`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	text, err := FromFile(path)
	if err != nil {
		t.Fatalf("FromFile failed: %v", err)
	}
	if text != "$001\n첫 번째 에피소드" {
		t.Errorf("Unexpected text: %q", text)
	}
}

func TestFromFile_UnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manuscript.pdf")
	if err := os.WriteFile(path, []byte("%PDF"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := FromFile(path)
	var ingestErr *IngestError
	if !errors.As(err, &ingestErr) {
		t.Fatalf("Expected IngestError, got %v", err)
	}
	if ingestErr.Format != ".pdf" {
		t.Errorf("Expected format .pdf, got %q", ingestErr.Format)
	}
}

func TestFromFile_Missing(t *testing.T) {
	_, err := FromFile(filepath.Join(t.TempDir(), "nope.txt"))
	var ingestErr *IngestError
	if !errors.As(err, &ingestErr) {
		t.Fatalf("Expected IngestError, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected wrapped os.ErrNotExist, got %v", err)
	}
}
