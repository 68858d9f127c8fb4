package plet

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const errorMarker = "Error:"

// isErrorFragment reports whether a 2xx payload is actually the HTML
// error fragment the PLET endpoint returns when a query matches no
// samples: a document whose heading contains "Error:". Tabular bodies
// never start with a tag, so non-HTML payloads bail out cheaply.
func isErrorFragment(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '<' {
		return false
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(trimmed))
	if err != nil {
		// Unparsable HTML-looking payload; fall back to the raw marker.
		return bytes.Contains(trimmed, []byte(errorMarker))
	}
	found := false
	doc.Find("h1,h2,h3").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if strings.Contains(sel.Text(), errorMarker) {
			found = true
			return false
		}
		return true
	})
	return found
}
