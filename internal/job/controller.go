// Package job runs the spreadsheet batch: it resolves missing permalinks,
// checks search exposure for each eligible row, writes results back, and
// exposes pause, resume, stop and status to callers.
package job

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/blog-exposure-checker/internal/clock"
	"github.com/JakeFAU/blog-exposure-checker/internal/logging"
	"github.com/JakeFAU/blog-exposure-checker/internal/metrics"
)

// IDGenerator issues run identifiers.
type IDGenerator interface {
	NewID() (string, error)
}

// Report describes a finished run.
type Report struct {
	RunID      string    `json:"run_id"`
	Status     Status    `json:"status"`
	Start      string    `json:"start"`
	End        string    `json:"end"`
	Summary    Summary   `json:"summary"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Notifier receives a report for every finished run.
type Notifier interface {
	Notify(ctx context.Context, report Report) error
}

// Controller is the control surface of the batch job. At most one run is
// active at a time.
type Controller struct {
	state    *State
	runner   *Runner
	ids      IDGenerator
	clock    clock.Clock
	notifier Notifier
	logger   *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewController constructs a Controller. notifier may be nil.
func NewController(
	runner *Runner,
	ids IDGenerator,
	clk clock.Clock,
	notifier Notifier,
	logger *zap.Logger,
) *Controller {
	return &Controller{
		state:    NewState(),
		runner:   runner,
		ids:      ids,
		clock:    clk,
		notifier: notifier,
		logger:   logging.OrNop(logger),
	}
}

// Start launches a run over the inclusive window [start, end]. The run
// continues after ctx is canceled; use Stop or Close to end it.
func (c *Controller) Start(ctx context.Context, start, end string) error {
	window, err := NewWindow(start, end)
	if err != nil {
		return err
	}
	runID, err := c.ids.NewID()
	if err != nil {
		return fmt.Errorf("generate run id: %w", err)
	}
	if err := c.state.begin(runID, c.clock.Now()); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()

	c.logger.Info("run started",
		zap.String("run_id", runID),
		zap.String("start", window.Start),
		zap.String("end", window.End),
	)
	go c.run(runCtx, cancel, window)
	return nil
}

func (c *Controller) run(ctx context.Context, cancel context.CancelFunc, window Window) {
	defer cancel()
	defer c.state.release()

	status, summary := StatusCompleted, Summary{}
	func() {
		defer func() {
			if rec := recover(); rec != nil {
				c.logger.Error("run panicked", zap.Any("panic", rec), zap.Stack("stack"))
				status, summary = StatusCompleted, Summary{Message: fmt.Sprintf("오류: %v", rec)}
			}
		}()
		status, summary = c.runner.Run(ctx, c.state, window)
	}()

	snap := c.state.finish(status, summary, c.clock.Now())
	metrics.ObserveJobRun(string(status))
	c.logger.Info("run finished",
		zap.String("run_id", snap.RunID),
		zap.String("status", string(status)),
		zap.Bool("success", summary.Success),
		zap.String("message", summary.Message),
	)
	c.notify(snap, window)
}

func (c *Controller) notify(snap Snapshot, window Window) {
	if c.notifier == nil {
		return
	}
	report := Report{
		RunID:   snap.RunID,
		Status:  snap.Status,
		Start:   window.Start,
		End:     window.End,
		Summary: *snap.Result,
	}
	if snap.StartedAt != nil {
		report.StartedAt = *snap.StartedAt
	}
	if snap.FinishedAt != nil {
		report.FinishedAt = *snap.FinishedAt
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := c.notifier.Notify(ctx, report); err != nil {
		c.logger.Warn("run report not delivered", zap.String("run_id", snap.RunID), zap.Error(err))
	}
}

// Status returns the current job state.
func (c *Controller) Status() Snapshot {
	return c.state.Snapshot()
}

// TogglePause pauses a running job or resumes a paused one.
func (c *Controller) TogglePause() (Status, error) {
	status, err := c.state.TogglePause()
	if err == nil {
		c.logger.Info("pause toggled", zap.String("status", string(status)))
	}
	return status, err
}

// Stop requests that the active run end at its next row boundary.
func (c *Controller) Stop() error {
	if err := c.state.RequestStop(); err != nil {
		return err
	}
	c.logger.Info("stop requested", zap.String("run_id", c.state.Snapshot().RunID))
	return nil
}

// Wait blocks until the active run finishes or ctx is done.
func (c *Controller) Wait(ctx context.Context) Snapshot {
	return c.state.Wait(ctx)
}

// Close stops any active run, cancels its in-flight requests and waits for
// it to finish or ctx to expire.
func (c *Controller) Close(ctx context.Context) {
	_ = c.state.RequestStop()
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	c.state.Wait(ctx)
}
