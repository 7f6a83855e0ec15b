// Package notify delivers "document ready" notifications.
package notify

import "context"

// Message describes a completed-policy notification.
type Message struct {
	// Contact is the recipient address.
	Contact string
	// Domain is the website the policy was generated for.
	Domain string
	// ContentExcerpt is the first part of the generated document.
	ContentExcerpt string
	// JobID identifies the completed job.
	JobID string
}

// Notifier delivers a notification. Delivery is best-effort: the
// pipeline makes exactly one attempt and a failure never affects the
// committed job state.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}
