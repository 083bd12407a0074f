package blog

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"regexp"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/blog-exposure-checker/internal/fetcher"
)

// DefaultListingURL is the publisher's post list page; %s is the publisher id.
const DefaultListingURL = "https://blog.naver.com/PostList.naver?blogId=%s&categoryNo=0&from=postList"

var listingPostID = regexp.MustCompile(`/(\d+)(?:\?|$)`)

// ListingSource scrapes the publisher's post list page.
type ListingSource struct {
	fetcher   fetcher.Fetcher
	urlFormat string
	userAgent string
}

// NewListingSource builds a ListingSource. An empty urlFormat uses
// DefaultListingURL.
func NewListingSource(f fetcher.Fetcher, urlFormat, userAgent string) *ListingSource {
	if urlFormat == "" {
		urlFormat = DefaultListingURL
	}
	if userAgent == "" {
		userAgent = fetcher.DefaultUserAgents[0]
	}
	return &ListingSource{fetcher: f, urlFormat: urlFormat, userAgent: userAgent}
}

// Name implements Source.
func (s *ListingSource) Name() string { return "listing" }

// Posts implements Source.
func (s *ListingSource) Posts(ctx context.Context, publisherID string) Listing {
	resp, err := s.fetcher.Fetch(ctx, fetcher.Request{
		URL:     fmt.Sprintf(s.urlFormat, url.QueryEscape(publisherID)),
		Headers: blogHeaders(s.userAgent, "https://blog.naver.com/"+publisherID),
	})
	if err != nil {
		return Listing{Err: fmt.Errorf("fetch post list: %w", err)}
	}
	posts, err := ParseListing(publisherID, resp.Body)
	if err != nil {
		return Listing{Err: err}
	}
	return Listing{Posts: posts}
}

// ParseListing extracts posts from a post list page. Any anchor with a
// numeric path segment and visible text counts; the permalink is rebuilt in
// canonical form.
func ParseListing(publisherID string, body []byte) ([]Post, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse post list: %w", err)
	}

	var posts []Post
	doc.Find("a[href]").Each(func(_ int, link *goquery.Selection) {
		href, _ := link.Attr("href")
		m := listingPostID.FindStringSubmatch(href)
		if m == nil {
			return
		}
		title := anchorText(link)
		if title == "" {
			return
		}
		posts = append(posts, Post{
			Title:  title,
			PostID: m[1],
			URL:    fmt.Sprintf("https://blog.naver.com/%s/%s", publisherID, m[1]),
		})
	})
	return posts, nil
}
