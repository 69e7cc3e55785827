package ingest

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// skipTags are elements whose content never belongs in a manuscript.
var skipTags = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"head":     true,
	"title":    true,
	"nav":      true,
	"footer":   true,
}

// blockTags delimit lines in the extracted text. Episode markers live in
// their own paragraphs, so each block becomes its own line.
var blockTags = map[string]bool{
	"p":          true,
	"div":        true,
	"h1":         true,
	"h2":         true,
	"h3":         true,
	"h4":         true,
	"h5":         true,
	"h6":         true,
	"li":         true,
	"section":    true,
	"article":    true,
	"blockquote": true,
	"tr":         true,
}

// ExtractHTML strips markup from an HTML manuscript, returning one text line
// per block element.
func ExtractHTML(content string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return "", err
	}

	var lines []string
	var cur strings.Builder
	pendingSpace := false

	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			lines = append(lines, s)
		}
		cur.Reset()
		pendingSpace = false
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			tag := strings.ToLower(n.Data)
			if skipTags[tag] {
				return
			}
			if tag == "br" {
				flush()
				return
			}
			if blockTags[tag] {
				flush()
			}
		}

		if n.Type == html.TextNode {
			raw := n.Data
			text := strings.Join(strings.Fields(raw), " ")
			if text != "" {
				// Inline boundaries keep a space only when the source had one;
				// Korean prose around inline markup must not gain spaces.
				if cur.Len() > 0 && (pendingSpace || raw != strings.TrimLeft(raw, " \t\n\r")) {
					cur.WriteString(" ")
				}
				cur.WriteString(text)
				pendingSpace = raw != strings.TrimRight(raw, " \t\n\r")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}

		if n.Type == html.ElementNode && blockTags[strings.ToLower(n.Data)] {
			flush()
		}
	}

	doc.Find("body").Each(func(i int, s *goquery.Selection) {
		for _, n := range s.Nodes {
			walk(n)
		}
	})
	flush()

	return strings.Join(lines, "\n"), nil
}
