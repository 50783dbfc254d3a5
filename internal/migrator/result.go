package migrator

import (
	"time"

	"github.com/eleven-am/docshift/internal/models"
)

// Status is the overall outcome of a run.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusDryRun    Status = "dry-run"
)

// IndexOutcome is what happened to one obsolete index.
type IndexOutcome string

const (
	IndexDropped  IndexOutcome = "dropped"
	IndexNotFound IndexOutcome = "not-found"
	IndexError    IndexOutcome = "error"
	IndexPlanned  IndexOutcome = "planned"
	IndexCreated  IndexOutcome = "created"
)

// IndexResult reports one index touched by the run.
type IndexResult struct {
	Name    string
	Outcome IndexOutcome
	Err     error
}

// Result is the structured report of a migration run.
type Result struct {
	Status Status

	Indexes     []IndexResult
	Replacement *IndexResult

	Matched   int64
	Modified  int64
	Conflicts int64

	// Err is the fatal error, if any.
	Err error
	// Warnings collects non-fatal errors (index cleanup, ledger, disconnect).
	Warnings []error

	StartedAt  time.Time
	FinishedAt time.Time
}

// OK reports whether the rename phase completed.
func (r *Result) OK() bool {
	return r.Status == StatusSucceeded || r.Status == StatusDryRun
}

// Dropped returns the number of indexes removed.
func (r *Result) Dropped() int {
	n := 0
	for _, idx := range r.Indexes {
		if idx.Outcome == IndexDropped {
			n++
		}
	}
	return n
}

// Duration is the wall time of the run.
func (r *Result) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

func (r *Result) warn(err error) {
	r.Warnings = append(r.Warnings, err)
}

// Record converts the result into a ledger entry.
func (r *Result) Record(opts Options) models.MigrationRecord {
	record := models.MigrationRecord{
		Name:       opts.Name,
		Collection: opts.Collection,
		From:       opts.From,
		To:         opts.To,
		Policy:     string(opts.Policy),
		Status:     string(r.Status),
		Matched:    r.Matched,
		Modified:   r.Modified,
		Conflicts:  r.Conflicts,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
	}

	indexes := append([]IndexResult{}, r.Indexes...)
	if r.Replacement != nil {
		indexes = append(indexes, *r.Replacement)
	}
	for _, idx := range indexes {
		outcome := models.IndexOutcome{Name: idx.Name, Outcome: string(idx.Outcome)}
		if idx.Err != nil {
			outcome.Error = idx.Err.Error()
		}
		record.Indexes = append(record.Indexes, outcome)
	}

	if r.Err != nil {
		record.Error = r.Err.Error()
	}

	return record
}
