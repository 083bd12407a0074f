// Package blog resolves a publisher's article permalink from its title by
// consulting the publisher's feed and, failing that, its post list page.
package blog

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/blog-exposure-checker/internal/logging"
	"github.com/JakeFAU/blog-exposure-checker/internal/metrics"
)

// Resolver walks an ordered chain of sources.
type Resolver struct {
	sources []Source
	logger  *zap.Logger
}

// NewResolver builds a Resolver that consults sources in order.
func NewResolver(logger *zap.Logger, sources ...Source) *Resolver {
	return &Resolver{sources: sources, logger: logging.OrNop(logger)}
}

// ResolvePermalink returns the URL of the publisher's post whose title matches
// title. A source that fails or lists nothing hands over to the next one; the
// first source that lists posts decides the outcome. Source failures are
// logged and never returned.
func (r *Resolver) ResolvePermalink(ctx context.Context, publisherID, title string) (string, bool) {
	if strings.TrimSpace(title) == "" {
		return "", false
	}
	target := TitleKey(title)
	if target == "" {
		return "", false
	}
	logger := r.logger.With(zap.String("blog_id", publisherID))

	for _, src := range r.sources {
		if ctx.Err() != nil {
			return "", false
		}
		listing := src.Posts(ctx, publisherID)
		if listing.Err != nil {
			metrics.ObservePostResolution(src.Name(), "error")
			logger.Warn("post source failed", zap.String("source", src.Name()), zap.Error(listing.Err))
			continue
		}
		if len(listing.Posts) == 0 {
			metrics.ObservePostResolution(src.Name(), "empty")
			continue
		}
		for _, post := range listing.Posts {
			if keysMatch(target, TitleKey(post.Title)) {
				metrics.ObservePostResolution(src.Name(), "matched")
				logger.Debug("permalink resolved", zap.String("source", src.Name()), zap.String("url", post.URL))
				return post.URL, true
			}
		}
		metrics.ObservePostResolution(src.Name(), "unmatched")
		return "", false
	}
	return "", false
}
