package blog

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/JakeFAU/blog-exposure-checker/internal/fetcher"
)

// DefaultFeedURL is the per-publisher RSS endpoint; %s is the publisher id.
const DefaultFeedURL = "https://rss.blog.naver.com/%s.xml"

var (
	queryPattern      = regexp.MustCompile(`\?.*$`)
	trailingPostIDPat = regexp.MustCompile(`/(\d+)$`)
)

// FeedSource reads posts from the publisher's RSS feed.
type FeedSource struct {
	fetcher   fetcher.Fetcher
	urlFormat string
	userAgent string
}

// NewFeedSource builds a FeedSource. An empty urlFormat uses DefaultFeedURL.
func NewFeedSource(f fetcher.Fetcher, urlFormat, userAgent string) *FeedSource {
	if urlFormat == "" {
		urlFormat = DefaultFeedURL
	}
	if userAgent == "" {
		userAgent = fetcher.DefaultUserAgents[0]
	}
	return &FeedSource{fetcher: f, urlFormat: urlFormat, userAgent: userAgent}
}

// Name implements Source.
func (s *FeedSource) Name() string { return "feed" }

// Posts implements Source.
func (s *FeedSource) Posts(ctx context.Context, publisherID string) Listing {
	resp, err := s.fetcher.Fetch(ctx, fetcher.Request{
		URL:     fmt.Sprintf(s.urlFormat, publisherID),
		Headers: blogHeaders(s.userAgent, ""),
	})
	if err != nil {
		return Listing{Err: fmt.Errorf("fetch feed: %w", err)}
	}
	posts, err := ParseFeed(resp.Body)
	if err != nil {
		return Listing{Err: err}
	}
	return Listing{Posts: posts}
}

// ParseFeed extracts posts from RSS XML. Each item's link is preferred over
// its guid; query strings are dropped and items whose link does not end in a
// numeric post id are skipped.
func ParseFeed(body []byte) ([]Post, error) {
	doc, err := xmlquery.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	var posts []Post
	for _, item := range xmlquery.Find(doc, "//item") {
		title := childText(item, "title")
		link := childText(item, "link")
		if link == "" {
			link = childText(item, "guid")
		}
		link = queryPattern.ReplaceAllString(link, "")
		if title == "" || link == "" {
			continue
		}
		m := trailingPostIDPat.FindStringSubmatch(link)
		if m == nil {
			continue
		}
		posts = append(posts, Post{Title: title, PostID: m[1], URL: link})
	}
	return posts, nil
}

func childText(node *xmlquery.Node, name string) string {
	child := node.SelectElement(name)
	if child == nil {
		return ""
	}
	return strings.TrimSpace(child.InnerText())
}
