package search

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/blog-exposure-checker/internal/identity"
)

// ParseResults extracts blog article entries from a results page in document
// order. Links without a post identifier are skipped and repeated links
// (after normalization) keep their first position, so ranks are dense.
func ParseResults(body []byte) ([]Entry, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse results page: %w", err)
	}

	var entries []Entry
	seen := make(map[string]struct{})
	doc.Find("a[href]").Each(func(_ int, link *goquery.Selection) {
		href, _ := link.Attr("href")
		if !strings.Contains(href, identity.BlogHost) {
			return
		}
		postID, ok := identity.ExtractPostID(href)
		if !ok {
			return
		}
		normalized := identity.Normalize(href)
		if _, dup := seen[normalized]; dup {
			return
		}
		seen[normalized] = struct{}{}

		rank := len(entries) + 1
		entry := Entry{
			Rank:          rank,
			Title:         strippedText(link),
			URL:           href,
			NormalizedURL: normalized,
			PostID:        postID,
		}
		if entry.Title == "" {
			entry.Title = placeholderTitle(rank)
		}
		if block := link.Closest("div, li, article"); block.Length() > 0 {
			entry.Description = firstText(block, `[class*="dsc"]`, `[class*="desc"]`)
			entry.Date = firstText(block, `[class*="date"]`, `[class*="time"]`)
		}
		entries = append(entries, entry)
	})
	return entries, nil
}

// firstText returns the text of the first element matching any selector,
// trying selectors in order.
func firstText(block *goquery.Selection, selectors ...string) string {
	for _, sel := range selectors {
		if match := block.Find(sel).First(); match.Length() > 0 {
			return strippedText(match)
		}
	}
	return ""
}

// strippedText joins the trimmed text nodes under sel without separators.
func strippedText(sel *goquery.Selection) string {
	var b strings.Builder
	var walk func(*goquery.Selection)
	walk = func(s *goquery.Selection) {
		s.Contents().Each(func(_ int, child *goquery.Selection) {
			if goquery.NodeName(child) == "#text" {
				b.WriteString(strings.TrimSpace(child.Text()))
				return
			}
			walk(child)
		})
	}
	walk(sel)
	return b.String()
}
