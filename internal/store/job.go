// Package store persists policy generation jobs in SQLite.
package store

import (
	"errors"
	"time"

	"github.com/dataquard/dataquard/internal/policy"
)

// JobStatus represents the lifecycle state of a generation job.
// Transitions are monotonic: pending -> processing -> completed | failed.
type JobStatus string

const (
	StatusPending    JobStatus = "pending"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// Terminal reports whether no further transition can occur.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// ErrJobNotFound is returned when a job does not exist or is not visible
// to the requesting owner. Ownership mismatches are deliberately not
// distinguished from absence.
var ErrJobNotFound = errors.New("job not found")

// Job is a single policy generation request and its lifecycle state.
type Job struct {
	ID            string
	OwnerID       string
	Domain        string
	Jurisdiction  policy.Jurisdiction
	CorrelationID string
	Status        JobStatus
	BatchID       *string
	Prompt        string
	Content       *string
	InputTokens   *int
	OutputTokens  *int
	CostCents     *int
	ErrorMessage  *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	CompletedAt   *time.Time
}

// CompletionUpdate carries the fields written when a job succeeds.
type CompletionUpdate struct {
	Content      string
	InputTokens  int
	OutputTokens int
	CostCents    int
}
