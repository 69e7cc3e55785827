package ingest

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeEPUB(t *testing.T, entries map[string]string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "book.epub")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	w := zip.NewWriter(f)
	for name, content := range entries {
		zf, err := w.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := zf.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

const testContainerXML = `<?xml version="1.0"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`

const testOPF = `<?xml version="1.0"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0">
  <manifest>
    <item id="ch2" href="chapter2.xhtml" media-type="application/xhtml+xml"/>
    <item id="ch1" href="chapter1.xhtml" media-type="application/xhtml+xml"/>
    <item id="css" href="style.css" media-type="text/css"/>
  </manifest>
  <spine>
    <itemref idref="ch1"/>
    <itemref idref="ch2"/>
  </spine>
</package>`

func TestExtractEPUB_SpineOrder(t *testing.T) {
	// Spine says ch1 before ch2 even though the manifest lists ch2 first.
	path := writeEPUB(t, map[string]string{
		"META-INF/container.xml": testContainerXML,
		"OEBPS/content.opf":      testOPF,
		"OEBPS/chapter1.xhtml":   `<html><body><p>$001</p><p>첫 번째 에피소드</p></body></html>`,
		"OEBPS/chapter2.xhtml":   `<html><body><p>$002</p><p>두 번째 에피소드</p></body></html>`,
		"OEBPS/style.css":        `p { margin: 0; }`,
	})

	text, err := ExtractEPUB(path)
	if err != nil {
		t.Fatalf("ExtractEPUB failed: %v", err)
	}

	first := strings.Index(text, "$001")
	second := strings.Index(text, "$002")
	if first < 0 || second < 0 {
		t.Fatalf("Expected both episode markers, got %q", text)
	}
	if first > second {
		t.Error("Expected spine order: chapter1 before chapter2")
	}
	if strings.Contains(text, "margin") {
		t.Error("Stylesheet content leaked into manuscript text")
	}
}

func TestExtractEPUB_FallbackWithoutContainer(t *testing.T) {
	path := writeEPUB(t, map[string]string{
		"a_chapter.xhtml": `<html><body><p>첫 장</p></body></html>`,
		"b_chapter.xhtml": `<html><body><p>둘째 장</p></body></html>`,
	})

	text, err := ExtractEPUB(path)
	if err != nil {
		t.Fatalf("ExtractEPUB failed: %v", err)
	}
	if !strings.Contains(text, "첫 장") || !strings.Contains(text, "둘째 장") {
		t.Errorf("Expected both chapters, got %q", text)
	}
	if strings.Index(text, "첫 장") > strings.Index(text, "둘째 장") {
		t.Error("Expected path-order fallback")
	}
}

func TestExtractEPUB_NoChapters(t *testing.T) {
	path := writeEPUB(t, map[string]string{
		"mimetype": "application/epub+zip",
	})

	_, err := ExtractEPUB(path)
	var ingestErr *IngestError
	if !errors.As(err, &ingestErr) {
		t.Fatalf("Expected IngestError, got %v", err)
	}
}

func TestExtractEPUB_NotAZip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.epub")
	if err := os.WriteFile(path, []byte("not a zip"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := ExtractEPUB(path)
	var ingestErr *IngestError
	if !errors.As(err, &ingestErr) {
		t.Fatalf("Expected IngestError, got %v", err)
	}
}

func TestFromFile_EPUB(t *testing.T) {
	path := writeEPUB(t, map[string]string{
		"META-INF/container.xml": testContainerXML,
		"OEBPS/content.opf":      testOPF,
		"OEBPS/chapter1.xhtml":   `<html><body><p>$001</p></body></html>`,
		"OEBPS/chapter2.xhtml":   `<html><body><p>본문</p></body></html>`,
	})

	text, err := FromFile(path)
	if err != nil {
		t.Fatalf("FromFile failed: %v", err)
	}
	if !strings.HasPrefix(text, "$001") {
		t.Errorf("Expected marker first, got %q", text)
	}
}
