package job

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Status is the lifecycle state of the batch job.
type Status string

// Job statuses.
const (
	StatusIdle      Status = "idle"
	StatusRunning   Status = "running"
	StatusPaused    Status = "paused"
	StatusStopped   Status = "stopped"
	StatusCompleted Status = "completed"
)

var (
	// ErrRunActive is returned when a run is started while another is
	// running or paused.
	ErrRunActive = errors.New("a run is already active")
	// ErrNoActiveRun is returned by pause and stop requests when nothing is
	// running or paused.
	ErrNoActiveRun = errors.New("no active run")
)

const msgPaused = "일시정지됨"

// Active reports whether a run is in progress.
func (s Status) Active() bool {
	return s == StatusRunning || s == StatusPaused
}

// Summary is the result payload of the last finished run.
type Summary struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	Processed    int    `json:"processed"`
	Exposed      int    `json:"exposed"`
	LinksUpdated int    `json:"links_updated"`
	Failed       int    `json:"failed"`
}

// Snapshot is a point-in-time copy of the job state.
type Snapshot struct {
	Status     Status     `json:"status"`
	Current    int        `json:"current"`
	Total      int        `json:"total"`
	Message    string     `json:"message"`
	Result     *Summary   `json:"result"`
	RunID      string     `json:"run_id,omitempty"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// State is the job state shared between the run goroutine and the control
// surface. Control requests only change the status; the run goroutine
// observes them at row boundaries through checkpoint.
type State struct {
	mu   sync.Mutex
	cond *sync.Cond
	snap Snapshot
	done chan struct{}
}

// NewState returns an idle State.
func NewState() *State {
	s := &State{snap: Snapshot{Status: StatusIdle}}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Snapshot returns a copy of the current state.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyLocked()
}

func (s *State) copyLocked() Snapshot {
	out := s.snap
	if s.snap.Result != nil {
		result := *s.snap.Result
		out.Result = &result
	}
	return out
}

// begin moves the state into running for a new run. The previous result is
// kept until the new run finishes. A stopped run whose goroutine has not yet
// returned still counts as active.
func (s *State) begin(runID string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap.Status.Active() || s.done != nil {
		return ErrRunActive
	}
	started := now
	s.snap = Snapshot{
		Status:    StatusRunning,
		Message:   "시작 중...",
		Result:    s.snap.Result,
		RunID:     runID,
		StartedAt: &started,
	}
	s.done = make(chan struct{})
	return nil
}

// TogglePause pauses a running job or resumes a paused one and returns the
// new status.
func (s *State) TogglePause() (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.snap.Status {
	case StatusRunning:
		s.snap.Status = StatusPaused
		s.snap.Message = msgPaused
	case StatusPaused:
		s.snap.Status = StatusRunning
		s.cond.Broadcast()
	default:
		return s.snap.Status, ErrNoActiveRun
	}
	return s.snap.Status, nil
}

// RequestStop marks an active run as stopped. The run goroutine notices at
// its next row boundary.
func (s *State) RequestStop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.snap.Status.Active() {
		return ErrNoActiveRun
	}
	s.snap.Status = StatusStopped
	s.cond.Broadcast()
	return nil
}

// checkpoint blocks while the job is paused. It returns false once a stop
// has been requested.
func (s *State) checkpoint() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.snap.Status == StatusPaused {
		s.cond.Wait()
	}
	return s.snap.Status != StatusStopped
}

// stopRequested reports whether a stop was requested for the current run.
func (s *State) stopRequested() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.Status == StatusStopped
}

func (s *State) setMessage(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Message = msg
}

func (s *State) setTotal(total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Current = 0
	s.snap.Total = total
}

func (s *State) setProgress(current int, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Current = current
	s.snap.Message = msg
}

// finish records the terminal status and summary. Waiters are released
// separately by release.
func (s *State) finish(status Status, summary Summary, now time.Time) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	finished := now
	s.snap.Status = status
	s.snap.Message = summary.Message
	s.snap.Result = &summary
	s.snap.FinishedAt = &finished
	s.cond.Broadcast()
	return s.copyLocked()
}

// release marks the run goroutine as gone, allowing a new run and waking
// Wait callers.
func (s *State) release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done != nil {
		close(s.done)
		s.done = nil
	}
}

// Wait blocks until the current run finishes or ctx is done, then returns the
// latest snapshot. It returns immediately when no run is active.
func (s *State) Wait(ctx context.Context) Snapshot {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
		}
	}
	return s.Snapshot()
}
