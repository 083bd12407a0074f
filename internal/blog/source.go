package blog

import (
	"context"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Post is one article found in a publisher's recent-post listing.
type Post struct {
	Title  string
	PostID string
	URL    string
}

// Listing is the outcome of asking one source for a publisher's posts.
// Err is set when the source could not be read; Posts may then be empty.
type Listing struct {
	Posts []Post
	Err   error
}

// Source lists a publisher's recent posts.
type Source interface {
	Name() string
	Posts(ctx context.Context, publisherID string) Listing
}

func blogHeaders(userAgent, referer string) http.Header {
	h := http.Header{}
	h.Set("User-Agent", userAgent)
	h.Set("Accept-Language", "ko-KR,ko;q=0.9")
	if referer != "" {
		h.Set("Referer", referer)
	}
	return h
}

// anchorText concatenates the trimmed text nodes under sel.
func anchorText(sel *goquery.Selection) string {
	var parts []string
	var walk func(*goquery.Selection)
	walk = func(s *goquery.Selection) {
		s.Contents().Each(func(_ int, child *goquery.Selection) {
			if goquery.NodeName(child) == "#text" {
				parts = append(parts, strings.TrimSpace(child.Text()))
				return
			}
			walk(child)
		})
	}
	walk(sel)
	return strings.Join(parts, "")
}
