// Package app builds the service's dependency graph from configuration and
// owns its lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/blog-exposure-checker/internal/api"
	"github.com/JakeFAU/blog-exposure-checker/internal/blog"
	"github.com/JakeFAU/blog-exposure-checker/internal/clock"
	"github.com/JakeFAU/blog-exposure-checker/internal/config"
	"github.com/JakeFAU/blog-exposure-checker/internal/fetcher"
	collyfetcher "github.com/JakeFAU/blog-exposure-checker/internal/fetcher/colly"
	"github.com/JakeFAU/blog-exposure-checker/internal/fetcher/headless"
	"github.com/JakeFAU/blog-exposure-checker/internal/fetcher/promote"
	"github.com/JakeFAU/blog-exposure-checker/internal/headless/detector"
	"github.com/JakeFAU/blog-exposure-checker/internal/id/uuid"
	"github.com/JakeFAU/blog-exposure-checker/internal/job"
	"github.com/JakeFAU/blog-exposure-checker/internal/logging"
	"github.com/JakeFAU/blog-exposure-checker/internal/policy/ratelimit"
	memorypublisher "github.com/JakeFAU/blog-exposure-checker/internal/publisher/memory"
	gcppublisher "github.com/JakeFAU/blog-exposure-checker/internal/publisher/pubsub"
	"github.com/JakeFAU/blog-exposure-checker/internal/search"
	"github.com/JakeFAU/blog-exposure-checker/internal/sheet"
	googlesheet "github.com/JakeFAU/blog-exposure-checker/internal/sheet/google"
	memorysheet "github.com/JakeFAU/blog-exposure-checker/internal/sheet/memory"
)

const shutdownTimeout = 10 * time.Second

// App contains the application's dependencies.
type App struct {
	cfg        config.Config
	logger     *zap.Logger
	engine     *search.Engine
	resolver   *blog.Resolver
	controller *job.Controller
	apiServer  *api.Server
	headless   *headless.Fetcher
	pubsub     *gcppublisher.Publisher
}

// Build creates the application's dependencies. A nil logger is replaced by
// a no-op logger.
func Build(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	logger = logging.OrNop(logger)
	a := &App{cfg: cfg, logger: logger}
	logger.Info("building application dependencies",
		zap.Int("server_port", cfg.Server.Port),
		zap.String("search_fetcher", cfg.Search.Fetcher),
		zap.String("sheet_driver", cfg.Sheet.Driver),
		zap.Bool("notify_enabled", cfg.Notify.Enabled),
	)

	clk := clock.New()
	httpFetcher := collyfetcher.New(collyfetcher.Config{
		Timeout: cfg.RequestTimeout(),
		Limiter: ratelimit.New(ratelimit.Config{
			DefaultRPS:   cfg.HTTP.RateLimitPerHost,
			DefaultBurst: cfg.HTTP.RateLimitBurst,
		}),
		Logger: logger.Named("fetcher"),
	})

	a.engine = search.New(a.searchFetcher(httpFetcher), clk, search.Config{
		BaseURL:    cfg.Search.BaseURL,
		MinDelay:   cfg.Search.MinDelay,
		MaxDelay:   cfg.Search.MaxDelay,
		UserAgents: cfg.Search.UserAgents,
	}, logger.Named("search"))

	a.resolver = blog.NewResolver(logger.Named("resolver"),
		blog.NewFeedSource(httpFetcher, cfg.Blog.FeedURLTemplate, ""),
		blog.NewListingSource(httpFetcher, cfg.Blog.ListingURLTemplate, ""),
	)

	opener, err := setupSheet(cfg, logger)
	if err != nil {
		return nil, err
	}

	notifier, err := a.setupNotifier(ctx)
	if err != nil {
		return nil, err
	}

	runner := job.NewRunner(opener, a.engine, a.resolver, clk, job.RunnerConfig{
		Layout:         cfg.Sheet.Layout,
		RowDelay:       cfg.Job.RowDelay,
		NotFoundMarker: cfg.Job.NotFoundMarker,
	}, logger.Named("runner"))
	a.controller = job.NewController(runner, uuid.New(), clk, notifier, logger.Named("job"))

	a.apiServer = api.NewServer(a.engine, a.controller, cfg.Auth, logger.Named("api"))
	return a, nil
}

func (a *App) searchFetcher(httpFetcher fetcher.Fetcher) fetcher.Fetcher {
	if a.cfg.Search.Fetcher == config.FetcherHTTP {
		a.logger.Info("using colly search fetcher")
		return httpFetcher
	}
	a.headless = headless.New(headless.Config{
		Timeout: time.Duration(a.cfg.Search.HeadlessTimeoutSeconds) * time.Second,
		Logger:  a.logger.Named("headless"),
	})
	if a.cfg.Search.Fetcher == config.FetcherHeadless {
		a.logger.Info("using headless search fetcher",
			zap.Int("timeout_seconds", a.cfg.Search.HeadlessTimeoutSeconds))
		return a.headless
	}
	a.logger.Info("using colly search fetcher with headless promotion",
		zap.Int("promotion_threshold", a.cfg.Search.PromotionThreshold))
	detect := detector.NewHeuristic(a.cfg.Search.PromotionThreshold)
	return promote.New(httpFetcher, a.headless, detect, a.logger.Named("promote"))
}

func setupSheet(cfg config.Config, logger *zap.Logger) (sheet.Opener, error) {
	switch cfg.Sheet.Driver {
	case config.SheetDriverMemory:
		if cfg.Sheet.SeedFile == "" {
			logger.Info("using empty in-memory worksheet")
			return memorysheet.NewStore(nil).Opener(), nil
		}
		store, err := memorysheet.LoadCSV(cfg.Sheet.SeedFile)
		if err != nil {
			return nil, fmt.Errorf("seed in-memory worksheet: %w", err)
		}
		logger.Info("using in-memory worksheet", zap.String("seed_file", cfg.Sheet.SeedFile))
		return store.Opener(), nil
	default:
		logger.Info("using google sheets worksheet",
			zap.String("spreadsheet_id", cfg.Sheet.SpreadsheetID),
			zap.String("worksheet", cfg.Sheet.Worksheet),
		)
		return googlesheet.NewOpener(googlesheet.Config{
			SpreadsheetID:   cfg.Sheet.SpreadsheetID,
			Worksheet:       cfg.Sheet.Worksheet,
			CredentialsFile: cfg.Sheet.CredentialsFile,
			CredentialsJSON: cfg.Sheet.CredentialsJSON,
		}, logger.Named("sheet")), nil
	}
}

func (a *App) setupNotifier(ctx context.Context) (job.Notifier, error) {
	if !a.cfg.Notify.Enabled {
		a.logger.Info("run reports disabled, using in-memory publisher")
		return memorypublisher.New(), nil
	}
	pub, err := gcppublisher.New(ctx, a.cfg.Notify.ProjectID, a.cfg.Notify.Topic)
	if err != nil {
		return nil, fmt.Errorf("pubsub publisher init failed: %w", err)
	}
	a.pubsub = pub
	a.logger.Info("Pub/Sub publisher initialized",
		zap.String("project", a.cfg.Notify.ProjectID),
		zap.String("topic", a.cfg.Notify.Topic),
	)
	return pub, nil
}

// Engine returns the exposure check engine.
func (a *App) Engine() *search.Engine {
	return a.engine
}

// Controller returns the batch job controller.
func (a *App) Controller() *job.Controller {
	return a.controller
}

// Handler returns the HTTP API.
func (a *App) Handler() http.Handler {
	return a.apiServer.Handler()
}

// Logger returns the application logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Serve runs the HTTP server until ctx is canceled, then drains it. The
// caller still owns Close.
func (a *App) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:           a.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server started", zap.Int("port", a.cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown initiated")
	case serveErr = <-errCh:
		a.logger.Error("http server error", zap.Error(serveErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("server shutdown error", zap.Error(err))
	}
	if serveErr != nil {
		return fmt.Errorf("http server: %w", serveErr)
	}
	return nil
}

// Close stops any active run and releases external clients.
func (a *App) Close(ctx context.Context) {
	a.controller.Close(ctx)
	if a.headless != nil {
		a.headless.Close()
	}
	if a.pubsub != nil {
		if err := a.pubsub.Close(); err != nil {
			a.logger.Warn("pubsub client close failed", zap.Error(err))
		}
	}
	a.logger.Info("shutdown complete")
	// Sync fails on non-file sinks like stderr; nothing to recover.
	_ = a.logger.Sync()
}
