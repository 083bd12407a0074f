// Package memory keeps run reports in memory for tests and local runs.
package memory

import (
	"context"
	"sync"

	"github.com/JakeFAU/blog-exposure-checker/internal/job"
)

// Publisher records every report it is given.
type Publisher struct {
	mu      sync.RWMutex
	reports []job.Report
}

// New returns an empty Publisher.
func New() *Publisher {
	return &Publisher{}
}

// Notify implements job.Notifier.
func (p *Publisher) Notify(_ context.Context, report job.Report) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reports = append(p.reports, report)
	return nil
}

// Reports returns the recorded reports, oldest first.
func (p *Publisher) Reports() []job.Report {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]job.Report, len(p.reports))
	copy(out, p.reports)
	return out
}

// Last returns the most recent report.
func (p *Publisher) Last() (job.Report, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if len(p.reports) == 0 {
		return job.Report{}, false
	}
	return p.reports[len(p.reports)-1], true
}
