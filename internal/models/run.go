package models

import (
	"bytes"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Run statuses.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// RunSummary is the outcome of one reconciliation run.
type RunSummary struct {
	RunID           string    `json:"run_id" yaml:"run_id"`
	DryRun          bool      `json:"dry_run" yaml:"dry_run"`
	StartedAt       time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt      time.Time `json:"finished_at" yaml:"finished_at"`
	Processed       int       `json:"processed" yaml:"processed"`
	Updated         int       `json:"updated" yaml:"updated"`
	Failed          int       `json:"failed" yaml:"failed"`
	Partial         int       `json:"partial" yaml:"partial"`
	Batches         int       `json:"batches" yaml:"batches"`
	FailedInstances []string  `json:"failed_instances,omitempty" yaml:"failed_instances,omitempty"`
	ProjectsMoved   []string  `json:"projects_moved,omitempty" yaml:"projects_moved,omitempty"`
}

// Run is an async reconciliation run started through the HTTP surface.
type Run struct {
	ID         string      `json:"id"`
	DryRun     bool        `json:"dry_run"`
	Status     string      `json:"status"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt *time.Time  `json:"finished_at,omitempty"`
	Error      string      `json:"error,omitempty"`
	Summary    *RunSummary `json:"summary,omitempty"`
	Output     []string    `json:"output"`
	mu         sync.Mutex
	partial    []byte
	cancel     context.CancelFunc
}

// AppendLog adds a log line to the run output.
func (r *Run) AppendLog(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Output = append(r.Output, line)
}

// Write implements io.Writer so a logger can tee into the run output. Each
// complete line becomes one output entry.
func (r *Run) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.partial = append(r.partial, p...)
	for {
		i := bytes.IndexByte(r.partial, '\n')
		if i < 0 {
			break
		}
		r.Output = append(r.Output, string(r.partial[:i]))
		r.partial = r.partial[i+1:]
	}
	return len(p), nil
}

// LogsSince returns log lines starting from the given index.
func (r *Run) LogsSince(offset int) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if offset >= len(r.Output) {
		return nil
	}
	lines := make([]string, len(r.Output)-offset)
	copy(lines, r.Output[offset:])
	return lines
}

// SetCancel registers the function that stops the run.
func (r *Run) SetCancel(cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancel = cancel
}

// Cancel stops a running run. It reports false when there is nothing to
// cancel.
func (r *Run) Cancel() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Status != RunStatusRunning || r.cancel == nil {
		return false
	}
	r.cancel()
	return true
}

// Done reports whether the run has finished.
func (r *Run) Done() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Status != RunStatusRunning
}

// CurrentStatus returns the run status.
func (r *Run) CurrentStatus() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Status
}

// Complete marks the run as completed with its summary.
func (r *Run) Complete(summary *RunSummary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Status = RunStatusCompleted
	r.Summary = summary
	now := time.Now()
	r.FinishedAt = &now
}

// Fail marks the run as failed. summary may be nil.
func (r *Run) Fail(err string, summary *RunSummary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Status = RunStatusFailed
	r.Error = err
	r.Summary = summary
	now := time.Now()
	r.FinishedAt = &now
}

// Snapshot returns a copy safe to serialise while the run is still going.
func (r *Run) Snapshot() *Run {
	r.mu.Lock()
	defer r.mu.Unlock()
	return &Run{
		ID:         r.ID,
		DryRun:     r.DryRun,
		Status:     r.Status,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Error:      r.Error,
		Summary:    r.Summary,
		Output:     append([]string{}, r.Output...),
	}
}

// RunStore is an in-memory thread-safe store for runs. At most one run is
// active at a time.
type RunStore struct {
	mu     sync.RWMutex
	runs   map[string]*Run
	active *Run
}

// NewRunStore creates an empty run store.
func NewRunStore() *RunStore {
	return &RunStore{runs: make(map[string]*Run)}
}

// Start registers a new running run, or returns nil if one is still active.
func (s *RunStore) Start(dryRun bool) *Run {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != nil && !s.active.Done() {
		return nil
	}
	r := &Run{
		ID:        uuid.New().String(),
		DryRun:    dryRun,
		Status:    RunStatusRunning,
		StartedAt: time.Now(),
		Output:    []string{},
	}
	s.runs[r.ID] = r
	s.active = r
	return r
}

// Get returns a run by ID.
func (s *RunStore) Get(id string) *Run {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.runs[id]
}

// List returns all runs, most recent first.
func (s *RunStore) List() []*Run {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*Run, 0, len(s.runs))
	for _, r := range s.runs {
		result = append(result, r)
	}
	slices.SortFunc(result, func(a, b *Run) int {
		return b.StartedAt.Compare(a.StartedAt)
	})
	return result
}
