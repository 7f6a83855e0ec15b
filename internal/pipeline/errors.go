package pipeline

import "errors"

var (
	// ErrValidation marks malformed enqueue input. No state is created.
	ErrValidation = errors.New("validation failed")

	// ErrSubmission marks a failed batch submission. No job state
	// changed; the jobs stay pending and are retried on the next cycle.
	ErrSubmission = errors.New("batch submission failed")

	// ErrTimeout marks a client-side polling loop that exhausted its
	// attempt budget. Purely advisory: the job may still complete later.
	ErrTimeout = errors.New("timed out waiting for job")
)
