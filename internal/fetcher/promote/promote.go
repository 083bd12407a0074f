// Package promote re-runs plain fetches through a rendering fetcher when the
// plain response looks client-rendered.
package promote

import (
	"context"

	"go.uber.org/zap"

	"github.com/JakeFAU/blog-exposure-checker/internal/fetcher"
	"github.com/JakeFAU/blog-exposure-checker/internal/logging"
	"github.com/JakeFAU/blog-exposure-checker/internal/metrics"
)

// Detector decides whether a response must be rendered.
type Detector interface {
	ShouldPromote(resp fetcher.Response) bool
}

// Fetcher tries probe first and falls back to render.
type Fetcher struct {
	probe    fetcher.Fetcher
	render   fetcher.Fetcher
	detector Detector
	logger   *zap.Logger
}

// New builds a promoting Fetcher.
func New(probe, render fetcher.Fetcher, detector Detector, logger *zap.Logger) *Fetcher {
	return &Fetcher{
		probe:    probe,
		render:   render,
		detector: detector,
		logger:   logging.OrNop(logger),
	}
}

// Fetch implements fetcher.Fetcher. Probe errors are returned as-is. When the
// render fails the probe response is returned.
func (f *Fetcher) Fetch(ctx context.Context, request fetcher.Request) (fetcher.Response, error) {
	resp, err := f.probe.Fetch(ctx, request)
	if err != nil || !f.detector.ShouldPromote(resp) {
		return resp, err
	}

	f.logger.Debug("promoting fetch to headless", zap.String("url", request.URL))
	rendered, err := f.render.Fetch(ctx, request)
	if err != nil {
		metrics.ObserveHeadlessPromotion("render_failed")
		f.logger.Warn("headless render failed, using plain response",
			zap.String("url", request.URL), zap.Error(err))
		return resp, nil
	}
	metrics.ObserveHeadlessPromotion("rendered")
	return rendered, nil
}
