// Package headless renders search result pages in headless Chrome for the
// cases where the plain HTTP response does not carry the result markup.
package headless

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/JakeFAU/blog-exposure-checker/internal/fetcher"
	"github.com/JakeFAU/blog-exposure-checker/internal/logging"
	"github.com/JakeFAU/blog-exposure-checker/internal/metrics"
)

const (
	defaultTimeout  = 30 * time.Second
	defaultSettle   = 500 * time.Millisecond
	defaultWaitNode = "body"
)

// Config controls the headless fetcher.
type Config struct {
	// Timeout bounds a single navigation including rendering.
	Timeout time.Duration
	// Settle is how long to wait after WaitSelector is ready.
	Settle time.Duration
	// WaitSelector is the CSS selector that must be present before the DOM
	// is captured.
	WaitSelector string
	Logger       *zap.Logger
}

// Fetcher implements fetcher.Fetcher by navigating a headless browser tab.
// Navigations are serialized; one batch run never issues concurrent searches.
type Fetcher struct {
	cfg         Config
	logger      *zap.Logger
	mu          sync.Mutex
	allocator   context.Context
	allocCancel context.CancelFunc
}

// New starts a browser allocator. Chrome itself is launched lazily on the
// first Fetch.
func New(cfg Config) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Settle <= 0 {
		cfg.Settle = defaultSettle
	}
	if cfg.WaitSelector == "" {
		cfg.WaitSelector = defaultWaitNode
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("enable-automation", false),
		chromedp.Flag("lang", "ko-KR"),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &Fetcher{
		cfg:         cfg,
		logger:      logging.OrNop(cfg.Logger),
		allocator:   allocCtx,
		allocCancel: allocCancel,
	}
}

// Close shuts the browser down.
func (f *Fetcher) Close() {
	f.allocCancel()
}

// Fetch navigates to request.URL and returns the rendered DOM.
func (f *Fetcher) Fetch(ctx context.Context, request fetcher.Request) (fetcher.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	taskCtx, taskCancel := chromedp.NewContext(f.allocator)
	defer taskCancel()
	// Tie the tab to the caller's context as well as the navigation timeout.
	stop := context.AfterFunc(ctx, taskCancel)
	defer stop()

	taskCtx, cancel := context.WithTimeout(taskCtx, f.cfg.Timeout)
	defer cancel()

	doc := &documentResponse{}
	chromedp.ListenTarget(taskCtx, doc.observe)

	start := time.Now()
	html, finalURL, err := f.render(taskCtx, request)
	metrics.ObserveFetch(request.URL, time.Since(start))
	if err != nil {
		if ctx.Err() != nil {
			err = fmt.Errorf("%w: %w", err, ctx.Err())
		}
		f.logger.Debug("headless fetch failed", zap.String("url", request.URL), zap.Error(err))
		return fetcher.Response{}, fetcher.ClassifyError(err)
	}

	status, headers, url := doc.result(request.URL, finalURL)
	if status < 200 || status >= 300 {
		return fetcher.Response{}, &fetcher.StatusError{URL: request.URL, StatusCode: status}
	}
	return fetcher.Response{
		URL:        url,
		StatusCode: status,
		Headers:    headers,
		Body:       []byte(html),
		Duration:   time.Since(start),
	}, nil
}

func (f *Fetcher) render(ctx context.Context, request fetcher.Request) (string, string, error) {
	var html, finalURL string
	err := chromedp.Run(ctx,
		applyHeaders(request.Headers),
		chromedp.Navigate(request.URL),
		chromedp.WaitReady(f.cfg.WaitSelector, chromedp.ByQuery),
		chromedp.Sleep(f.cfg.Settle),
		chromedp.Location(&finalURL),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", "", fmt.Errorf("render %s: %w", request.URL, err)
	}
	return html, finalURL, nil
}

// applyHeaders sends User-Agent through the emulation domain and the rest as
// extra request headers.
func applyHeaders(headers http.Header) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if err := network.Enable().Do(ctx); err != nil {
			return fmt.Errorf("enable network domain: %w", err)
		}
		if ua := headers.Get("User-Agent"); ua != "" {
			override := emulation.SetUserAgentOverride(ua)
			if lang := headers.Get("Accept-Language"); lang != "" {
				override = override.WithAcceptLanguage(lang)
			}
			if err := override.Do(ctx); err != nil {
				return fmt.Errorf("set user agent: %w", err)
			}
		}
		if extra := extraHeaders(headers); len(extra) > 0 {
			if err := network.SetExtraHTTPHeaders(extra).Do(ctx); err != nil {
				return fmt.Errorf("set extra headers: %w", err)
			}
		}
		return nil
	})
}

func extraHeaders(h http.Header) network.Headers {
	out := network.Headers{}
	for key, values := range h {
		if len(values) == 0 || http.CanonicalHeaderKey(key) == "User-Agent" {
			continue
		}
		out[key] = values[0]
	}
	return out
}

// documentResponse records the status and headers of the main document.
type documentResponse struct {
	mu      sync.Mutex
	status  int
	headers http.Header
	url     string
}

func (d *documentResponse) observe(ev any) {
	resp, ok := ev.(*network.EventResponseReceived)
	if !ok || resp.Type != network.ResourceTypeDocument || resp.Response == nil {
		return
	}
	headers := http.Header{}
	for key, value := range resp.Response.Headers {
		headers.Add(key, fmt.Sprint(value))
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	// Keep the first document; iframes arrive later with the same type.
	if d.status != 0 {
		return
	}
	d.status = int(resp.Response.Status)
	d.headers = headers
	d.url = resp.Response.URL
}

func (d *documentResponse) result(requestURL, finalURL string) (int, http.Header, string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	status := d.status
	if status == 0 {
		status = http.StatusOK
	}
	headers := d.headers
	if headers == nil {
		headers = http.Header{}
	}
	url := d.url
	switch {
	case finalURL != "":
		url = finalURL
	case url == "":
		url = requestURL
	}
	return status, headers, url
}
