// Package detector decides when a plain HTTP search response has to be
// rendered in the headless browser before it can be parsed.
package detector

import (
	"bytes"
	"net/http"

	"github.com/JakeFAU/blog-exposure-checker/internal/fetcher"
	"github.com/JakeFAU/blog-exposure-checker/internal/identity"
)

// DefaultBodyLengthThreshold is the size under which a script-heavy page is
// treated as a client-rendered shell.
const DefaultBodyLengthThreshold = 2048

// Heuristic implements a handful of rule-based promotions.
type Heuristic struct {
	BodyLengthThreshold int
}

// NewHeuristic creates a new detector. A non-positive threshold uses
// DefaultBodyLengthThreshold.
func NewHeuristic(threshold int) *Heuristic {
	if threshold <= 0 {
		threshold = DefaultBodyLengthThreshold
	}
	return &Heuristic{BodyLengthThreshold: threshold}
}

var spaMarkers = [][]byte{
	[]byte("__next"),
	[]byte(`id="root"`),
	[]byte(`id="app"`),
	[]byte("data-reactroot"),
	[]byte("window.__APOLLO_STATE__"),
}

var blogLinkMarker = []byte(identity.BlogHost + "/")

// ShouldPromote reports whether resp needs a headless render. Non-200
// responses and pages that already link blog articles are never promoted.
func (h *Heuristic) ShouldPromote(resp fetcher.Response) bool {
	if resp.StatusCode != http.StatusOK {
		return false
	}
	body := resp.Body
	if len(body) == 0 {
		return true
	}
	if bytes.Contains(body, blogLinkMarker) {
		return false
	}
	if len(body) < h.BodyLengthThreshold && scriptShare(body) >= 25 {
		return true
	}
	for _, marker := range spaMarkers {
		if bytes.Contains(body, marker) {
			return true
		}
	}
	return false
}

// scriptShare returns the percentage of body bytes inside <script> elements.
// An unterminated script runs to the end of the body.
func scriptShare(body []byte) int {
	lower := bytes.ToLower(body)
	total := len(lower)
	covered := 0
	for pos := 0; pos < total; {
		start := bytes.Index(lower[pos:], []byte("<script"))
		if start < 0 {
			break
		}
		start += pos
		end := total
		if rel := bytes.Index(lower[start:], []byte("</script>")); rel >= 0 {
			end = start + rel + len("</script>")
		}
		covered += end - start
		pos = end
	}
	if total == 0 {
		return 0
	}
	return covered * 100 / total
}
