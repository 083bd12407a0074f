// Package identity canonicalizes blog article URLs so they can be compared,
// and extracts the publisher and post identifiers embedded in them.
package identity

import (
	"regexp"
	"strings"
)

// BlogHost is the canonical host of the blog platform.
const BlogHost = "blog.naver.com"

var (
	schemePattern      = regexp.MustCompile(`^https?://`)
	legacyPattern      = regexp.MustCompile(`^([a-zA-Z0-9_-]+)\.blog\.me/(\d+)`)
	canonicalPostID    = regexp.MustCompile(`blog\.naver\.com/[^/]+/(\d+)`)
	legacyPostID       = regexp.MustCompile(`\.blog\.me/(\d+)`)
	publisherPattern   = regexp.MustCompile(`blog\.naver\.com/([a-zA-Z0-9_-]+)`)
	trailingPostSuffix = regexp.MustCompile(`/\d+(?:\?.*)?$`)
)

// Normalize returns a comparable form of a blog URL. It lower-cases and
// percent-decodes the input, drops the scheme, a leading "www." or "m.", and
// trailing slashes, and rewrites the legacy "{id}.blog.me/{post}" form into
// "blog.naver.com/{id}/{post}". Empty input yields an empty string.
func Normalize(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}
	s = unescape(s)
	s = schemePattern.ReplaceAllString(s, "")
	s = strings.TrimPrefix(s, "www.")
	s = strings.TrimPrefix(s, "m.")
	s = strings.TrimRight(s, "/")

	if m := legacyPattern.FindStringSubmatch(s); m != nil {
		return BlogHost + "/" + m[1] + "/" + m[2]
	}
	return s
}

// unescape decodes every valid %XX escape and keeps malformed ones verbatim.
// Byte runs that do not form valid UTF-8 become U+FFFD.
func unescape(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]) {
			b.WriteByte(unhex(s[i+1])<<4 | unhex(s[i+2]))
			i += 2
			continue
		}
		b.WriteByte(s[i])
	}
	return strings.ToValidUTF8(b.String(), "\uFFFD")
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

func unhex(c byte) byte {
	switch {
	case '0' <= c && c <= '9':
		return c - '0'
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}

// ExtractPostID returns the numeric post identifier of an article URL. The
// canonical "blog.naver.com/{id}/{post}" form is checked before the legacy
// "{id}.blog.me/{post}" form. ok is false when the URL names no article.
func ExtractPostID(raw string) (string, bool) {
	if m := canonicalPostID.FindStringSubmatch(raw); m != nil {
		return m[1], true
	}
	if m := legacyPostID.FindStringSubmatch(raw); m != nil {
		return m[1], true
	}
	return "", false
}

// ExtractPublisherID returns the blog identity segment of a canonical blog URL.
func ExtractPublisherID(raw string) (string, bool) {
	m := publisherPattern.FindStringSubmatch(raw)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// HasPostID reports whether a link already ends in a numeric post segment,
// optionally followed by a query string. Stray trailing quotes left over from
// spreadsheet editing are ignored.
func HasPostID(link string) bool {
	return trailingPostSuffix.MatchString(strings.TrimRight(link, "'"))
}
