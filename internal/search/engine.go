// Package search checks whether a blog article is exposed in the search
// engine's integrated results for a keyword, and at which rank.
package search

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/blog-exposure-checker/internal/clock"
	"github.com/JakeFAU/blog-exposure-checker/internal/fetcher"
	"github.com/JakeFAU/blog-exposure-checker/internal/identity"
	"github.com/JakeFAU/blog-exposure-checker/internal/logging"
	"github.com/JakeFAU/blog-exposure-checker/internal/metrics"
)

const (
	// DefaultBaseURL is the integrated search endpoint.
	DefaultBaseURL = "https://search.naver.com/search.naver"
	// DefaultReferer is sent with every search request.
	DefaultReferer = "https://www.naver.com/"
)

// Config controls the search client.
type Config struct {
	BaseURL    string
	Referer    string
	MinDelay   time.Duration
	MaxDelay   time.Duration
	UserAgents []string
}

// Engine runs exposure checks against the search engine.
type Engine struct {
	fetcher fetcher.Fetcher
	clock   clock.Clock
	agents  *fetcher.UserAgentPool
	cfg     Config
	jitter  func() float64
	logger  *zap.Logger
}

// New constructs an Engine. A zero MinDelay and MaxDelay disables the
// pre-request delay.
func New(f fetcher.Fetcher, clk clock.Clock, cfg Config, logger *zap.Logger) *Engine {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Referer == "" {
		cfg.Referer = DefaultReferer
	}
	if cfg.MaxDelay < cfg.MinDelay {
		cfg.MaxDelay = cfg.MinDelay
	}
	return &Engine{
		fetcher: f,
		clock:   clk,
		agents:  fetcher.NewUserAgentPool(cfg.UserAgents),
		cfg:     cfg,
		jitter:  rand.Float64,
		logger:  logging.OrNop(logger),
	}
}

// CheckExposure searches for keyword and reports whether targetURL is among
// the blog results. Failures are reported in the result, never as an error.
func (e *Engine) CheckExposure(ctx context.Context, keyword, targetURL string) ExposureResult {
	logger := e.logger.With(zap.String("keyword", keyword))

	if err := e.clock.Sleep(ctx, e.delay()); err != nil {
		return e.failed(keyword, fetcher.ClassifyError(err), logger)
	}

	resp, err := e.fetcher.Fetch(ctx, fetcher.Request{
		URL:     e.searchURL(keyword),
		Headers: e.agents.BrowserHeaders(e.cfg.Referer),
	})
	if err != nil {
		return e.failed(keyword, err, logger)
	}

	entries, err := ParseResults(resp.Body)
	if err != nil {
		metrics.ObserveExposureCheck("error", 0)
		logger.Warn("search results unparseable", zap.Error(err))
		return ExposureResult{Keyword: keyword, Results: []Entry{}, Message: failureMessage(err)}
	}

	result := Evaluate(keyword, targetURL, entries)
	if result.IsExposed {
		metrics.ObserveExposureCheck("exposed", *result.ExposedRank)
	} else {
		metrics.ObserveExposureCheck("not_exposed", 0)
	}
	logger.Debug("exposure checked",
		zap.Bool("exposed", result.IsExposed),
		zap.Int("total_results", result.TotalResults),
	)
	return result
}

// Evaluate matches targetURL against parsed entries. When the target carries
// a post identifier only identifier equality counts; otherwise normalized URLs
// match when either contains the other. The first matching entry wins.
func Evaluate(keyword, targetURL string, entries []Entry) ExposureResult {
	if len(entries) == 0 {
		return ExposureResult{
			Success: true,
			Keyword: keyword,
			Results: []Entry{},
			Message: msgNoEntries,
		}
	}

	target := identity.Normalize(targetURL)
	targetID, hasID := identity.ExtractPostID(targetURL)

	result := ExposureResult{
		Success:      true,
		Keyword:      keyword,
		TotalResults: len(entries),
		Results:      entries,
	}
	for i := range entries {
		if !matches(entries[i], target, targetID, hasID) {
			continue
		}
		rank := entries[i].Rank
		exposed := entries[i]
		result.IsExposed = true
		result.ExposedRank = &rank
		result.ExposedEntry = &exposed
		break
	}

	if result.IsExposed {
		result.Message = exposedMessage(*result.ExposedRank)
	} else {
		result.Message = notExposedMessage(result.TotalResults)
	}
	return result
}

func matches(entry Entry, target, targetID string, hasID bool) bool {
	if hasID {
		return entry.PostID == targetID
	}
	if target == "" {
		return false
	}
	return strings.Contains(entry.NormalizedURL, target) || strings.Contains(target, entry.NormalizedURL)
}

func (e *Engine) failed(keyword string, err error, logger *zap.Logger) ExposureResult {
	result := ExposureResult{Keyword: keyword, Results: []Entry{}}
	switch {
	case fetcher.IsTimeout(err):
		metrics.ObserveExposureCheck("timeout", 0)
		result.Message = msgTimeout
	case !errors.Is(err, context.Canceled):
		metrics.ObserveExposureCheck("network_error", 0)
		result.Message = networkMessage(err)
	default:
		metrics.ObserveExposureCheck("canceled", 0)
		result.Message = failureMessage(err)
	}
	logger.Warn("exposure check failed", zap.Error(err))
	return result
}

func (e *Engine) searchURL(keyword string) string {
	return e.cfg.BaseURL + "?query=" + url.QueryEscape(keyword)
}

func (e *Engine) delay() time.Duration {
	span := e.cfg.MaxDelay - e.cfg.MinDelay
	return e.cfg.MinDelay + time.Duration(e.jitter()*float64(span))
}
