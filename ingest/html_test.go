package ingest

import (
	"strings"
	"testing"
)

func TestExtractHTML_BlocksBecomeLines(t *testing.T) {
	content := `<html><body>
		<p>$001</p>
		<p>그는 집에 갔다.</p>
		<p>$002</p>
		<p>다음 날 아침이었다.</p>
	</body></html>`

	text, err := ExtractHTML(content)
	if err != nil {
		t.Fatalf("ExtractHTML failed: %v", err)
	}

	lines := strings.Split(text, "\n")
	want := []string{"$001", "그는 집에 갔다.", "$002", "다음 날 아침이었다."}
	if len(lines) != len(want) {
		t.Fatalf("Expected %d lines, got %d: %q", len(want), len(lines), lines)
	}
	for i, w := range want {
		if lines[i] != w {
			t.Errorf("Line %d: expected %q, got %q", i, w, lines[i])
		}
	}
}

func TestExtractHTML_SkipsScriptAndStyle(t *testing.T) {
	content := `<html><head><title>뷰어</title><style>p{color:red}</style></head>
		<body><script>track();</script><p>본문이다.</p></body></html>`

	text, err := ExtractHTML(content)
	if err != nil {
		t.Fatalf("ExtractHTML failed: %v", err)
	}
	if text != "본문이다." {
		t.Errorf("Expected only body text, got %q", text)
	}
}

func TestExtractHTML_InlineMarkupKeepsSpacing(t *testing.T) {
	content := `<p>그는 <b>서연</b>과 함께 <em>서연</em>을 불렀다.</p>`

	text, err := ExtractHTML(content)
	if err != nil {
		t.Fatalf("ExtractHTML failed: %v", err)
	}
	if text != "그는 서연과 함께 서연을 불렀다." {
		t.Errorf("Inline markup changed spacing: %q", text)
	}
}

func TestExtractHTML_BRSplitsLines(t *testing.T) {
	content := `<p>첫 줄<br>둘째 줄</p>`

	text, err := ExtractHTML(content)
	if err != nil {
		t.Fatalf("ExtractHTML failed: %v", err)
	}
	if text != "첫 줄\n둘째 줄" {
		t.Errorf("Expected br to split lines, got %q", text)
	}
}

func TestExtractHTML_CollapsesWhitespace(t *testing.T) {
	content := "<p>공백이   \n\t 많은    문장</p>"

	text, err := ExtractHTML(content)
	if err != nil {
		t.Fatalf("ExtractHTML failed: %v", err)
	}
	if text != "공백이 많은 문장" {
		t.Errorf("Expected collapsed whitespace, got %q", text)
	}
}
