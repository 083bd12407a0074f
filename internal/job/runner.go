package job

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/blog-exposure-checker/internal/clock"
	"github.com/JakeFAU/blog-exposure-checker/internal/identity"
	"github.com/JakeFAU/blog-exposure-checker/internal/logging"
	"github.com/JakeFAU/blog-exposure-checker/internal/metrics"
	"github.com/JakeFAU/blog-exposure-checker/internal/search"
	"github.com/JakeFAU/blog-exposure-checker/internal/sheet"
)

const (
	// DefaultRowDelay is the pause after each written row.
	DefaultRowDelay = 500 * time.Millisecond
	// DefaultNotFoundMarker is written when an article is not exposed.
	DefaultNotFoundMarker = "-"

	msgNoCredentials = "인증 정보가 없습니다. (credentials.json 또는 GOOGLE_CREDENTIALS 환경변수)"
)

// ExposureChecker runs one rank check.
type ExposureChecker interface {
	CheckExposure(ctx context.Context, keyword, targetURL string) search.ExposureResult
}

// PermalinkResolver finds a publisher's post by title.
type PermalinkResolver interface {
	ResolvePermalink(ctx context.Context, publisherID, title string) (string, bool)
}

// RunnerConfig controls a batch run.
type RunnerConfig struct {
	Layout         sheet.Layout
	RowDelay       time.Duration
	NotFoundMarker string
}

// Runner executes the two-phase batch pipeline over a worksheet.
type Runner struct {
	opener   sheet.Opener
	checker  ExposureChecker
	resolver PermalinkResolver
	clock    clock.Clock
	cfg      RunnerConfig
	logger   *zap.Logger
}

// NewRunner constructs a Runner. A zero RowDelay means no delay; use
// DefaultRowDelay for the production pacing.
func NewRunner(
	opener sheet.Opener,
	checker ExposureChecker,
	resolver PermalinkResolver,
	clk clock.Clock,
	cfg RunnerConfig,
	logger *zap.Logger,
) *Runner {
	if cfg.NotFoundMarker == "" {
		cfg.NotFoundMarker = DefaultNotFoundMarker
	}
	return &Runner{
		opener:   opener,
		checker:  checker,
		resolver: resolver,
		clock:    clk,
		cfg:      cfg,
		logger:   logging.OrNop(logger),
	}
}

// counters accumulates per-run tallies.
type counters struct {
	linksUpdated  int
	processed     int
	exposed       int
	failed        int
	writeFailures int
}

func (c counters) summary(success bool, message string) Summary {
	return Summary{
		Success:      success,
		Message:      message,
		Processed:    c.processed,
		Exposed:      c.exposed,
		LinksUpdated: c.linksUpdated,
		Failed:       c.failed,
	}
}

// errStopped ends a run early after a stop request.
var errStopped = errors.New("run stopped")

// Run executes one batch over window, reporting progress into state. It
// returns the terminal status and summary; it never panics on store or engine
// failures.
func (r *Runner) Run(ctx context.Context, state *State, window Window) (Status, Summary) {
	logger := r.logger.With(zap.String("run_id", state.Snapshot().RunID))
	var c counters

	store, err := r.opener.Open(ctx)
	if err != nil {
		if errors.Is(err, sheet.ErrNoCredentials) {
			logger.Error("spreadsheet credentials missing", zap.Error(err))
			return StatusCompleted, Summary{Message: msgNoCredentials}
		}
		logger.Error("open spreadsheet failed", zap.Error(err))
		return StatusCompleted, Summary{Message: failureMessage(err)}
	}

	rows, err := r.load(ctx, store)
	if err != nil {
		logger.Error("load rows failed", zap.Error(err))
		return StatusCompleted, c.summary(false, failureMessage(err))
	}

	if err := r.resolveLinks(ctx, state, store, window, rows, &c, logger); err != nil {
		return r.interrupted(err, c, logger)
	}

	if c.linksUpdated > 0 {
		if rows, err = r.load(ctx, store); err != nil {
			logger.Error("reload rows failed", zap.Error(err))
			return StatusCompleted, c.summary(false, failureMessage(err))
		}
	}

	batch := rankBatch(rows, window)
	state.setTotal(len(batch))
	if len(batch) == 0 && c.linksUpdated == 0 {
		if state.stopRequested() {
			return StatusStopped, c.summary(true, stoppedMessage(c))
		}
		return StatusCompleted, c.summary(true, fmt.Sprintf("처리할 데이터가 없습니다. (기간: %s ~ %s)", window.Start, window.End))
	}

	if err := r.checkRanks(ctx, state, store, batch, &c, logger); err != nil {
		return r.interrupted(err, c, logger)
	}

	if c.writeFailures > 0 {
		logger.Warn("some result cells were not written", zap.Int("write_failures", c.writeFailures))
	}
	if state.stopRequested() {
		return StatusStopped, c.summary(true, stoppedMessage(c))
	}
	return StatusCompleted, c.summary(true, completedMessage(c))
}

func (r *Runner) interrupted(err error, c counters, logger *zap.Logger) (Status, Summary) {
	if errors.Is(err, errStopped) {
		logger.Info("run stopped", zap.Int("processed", c.processed))
		return StatusStopped, c.summary(true, stoppedMessage(c))
	}
	logger.Error("run aborted", zap.Error(err))
	return StatusCompleted, c.summary(false, failureMessage(err))
}

func (r *Runner) load(ctx context.Context, store sheet.Store) ([]sheet.Row, error) {
	values, err := store.ReadRows(ctx)
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	return r.cfg.Layout.Rows(values), nil
}

// resolveLinks is phase 1: rows whose link is a blog home page get the
// permalink of the post named in the title column.
func (r *Runner) resolveLinks(
	ctx context.Context,
	state *State,
	store sheet.Store,
	window Window,
	rows []sheet.Row,
	c *counters,
	logger *zap.Logger,
) error {
	for _, row := range rows {
		if !state.checkpoint() {
			return errStopped
		}
		if !linkEligible(row, window) {
			continue
		}
		publisherID, ok := identity.ExtractPublisherID(row.Link)
		if !ok {
			metrics.ObserveSheetRow("resolve", "no_publisher")
			continue
		}
		state.setMessage(fmt.Sprintf("링크 업데이트 중: %d행 %s", row.Number, row.Title))

		permalink, ok := r.resolver.ResolvePermalink(ctx, publisherID, row.Title)
		if !ok {
			metrics.ObserveSheetRow("resolve", "unresolved")
			continue
		}
		if err := store.UpdateCell(ctx, row.Number, r.cfg.Layout.Link, permalink); err != nil {
			c.writeFailures++
			metrics.ObserveSheetRow("resolve", "write_failed")
			logger.Warn("link write failed", zap.Int("row", row.Number), zap.Error(err))
			continue
		}
		c.linksUpdated++
		metrics.ObserveSheetRow("resolve", "updated")
		logger.Debug("link updated", zap.Int("row", row.Number), zap.String("url", permalink))
		if err := r.clock.Sleep(ctx, r.cfg.RowDelay); err != nil {
			return errStopped
		}
	}
	return nil
}

// checkRanks is phase 2: each batch row gets its rank or the not-found marker.
func (r *Runner) checkRanks(
	ctx context.Context,
	state *State,
	store sheet.Store,
	batch []sheet.Row,
	c *counters,
	logger *zap.Logger,
) error {
	total := len(batch)
	for i, row := range batch {
		if !state.checkpoint() {
			return errStopped
		}
		state.setProgress(i, fmt.Sprintf("노출 체크 중: %s (%d/%d)", row.Keyword, i+1, total))

		result := r.checker.CheckExposure(ctx, row.Keyword, row.Link)
		switch {
		case !result.Success:
			c.failed++
			metrics.ObserveSheetRow("rank", "indeterminate")
			logger.Warn("rank check indeterminate",
				zap.Int("row", row.Number),
				zap.String("keyword", row.Keyword),
				zap.String("reason", result.Message),
			)
		default:
			value := r.cfg.NotFoundMarker
			if result.IsExposed {
				value = strconv.Itoa(*result.ExposedRank)
			}
			if err := store.UpdateCell(ctx, row.Number, r.cfg.Layout.Result, value); err != nil {
				c.failed++
				c.writeFailures++
				metrics.ObserveSheetRow("rank", "write_failed")
				logger.Warn("result write failed", zap.Int("row", row.Number), zap.Error(err))
				break
			}
			c.processed++
			if result.IsExposed {
				c.exposed++
				metrics.ObserveSheetRow("rank", "exposed")
			} else {
				metrics.ObserveSheetRow("rank", "not_exposed")
			}
		}

		state.setProgress(i+1, fmt.Sprintf("노출 체크 중: %s (%d/%d)", row.Keyword, i+1, total))
		if err := r.clock.Sleep(ctx, r.cfg.RowDelay); err != nil {
			return errStopped
		}
	}
	return nil
}

// linkEligible selects rows for phase 1.
func linkEligible(row sheet.Row, window Window) bool {
	return row.Eligible &&
		window.Contains(row.Date) &&
		row.Link != "" &&
		!identity.HasPostID(row.Link) &&
		row.Title != ""
}

// rankEligible selects rows for phase 2.
func rankEligible(row sheet.Row, window Window) bool {
	return row.Eligible &&
		window.Contains(row.Date) &&
		row.Result == "" &&
		row.Keyword != "" &&
		row.Link != "" &&
		identity.HasPostID(row.Link)
}

func rankBatch(rows []sheet.Row, window Window) []sheet.Row {
	var batch []sheet.Row
	for _, row := range rows {
		if rankEligible(row, window) {
			batch = append(batch, row)
		}
	}
	return batch
}

func completedMessage(c counters) string {
	msg := fmt.Sprintf("완료! 링크 %d개 업데이트, %d개 노출체크, %d개 노출됨", c.linksUpdated, c.processed, c.exposed)
	if c.failed > 0 {
		msg += fmt.Sprintf(", %d개 실패", c.failed)
	}
	return msg
}

func stoppedMessage(c counters) string {
	return fmt.Sprintf("중단됨! 링크 %d개 업데이트, %d개 노출체크, %d개 노출됨", c.linksUpdated, c.processed, c.exposed)
}

func failureMessage(err error) string {
	return fmt.Sprintf("오류: %v", err)
}
