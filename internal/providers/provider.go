// Package providers implements clients for external batch inference services.
package providers

import (
	"context"
	"time"
)

// BatchState is the coarse processing state of a submitted batch.
type BatchState string

const (
	// BatchInProgress means results are not yet available.
	BatchInProgress BatchState = "in_progress"
	// BatchEnded means every item has reached a terminal outcome.
	BatchEnded BatchState = "ended"
)

// BatchRequest is one correlation-tagged generation request.
type BatchRequest struct {
	// CustomID correlates the asynchronous result back to a job.
	CustomID string
	// Prompt is the fully rendered user prompt.
	Prompt string
}

// ItemSuccess carries the payload of a succeeded batch item.
type ItemSuccess struct {
	Content      string
	InputTokens  int
	OutputTokens int
}

// ItemResult is the per-item outcome of an ended batch.
// Exactly one of Succeeded or Error is set.
type ItemResult struct {
	CustomID  string
	Succeeded *ItemSuccess
	Error     string
}

// BatchProvider is the interface the pipeline consumes. Implementations
// must apply request-level timeouts; a call here never blocks indefinitely.
type BatchProvider interface {
	// Name returns the provider identifier (e.g. "anthropic").
	Name() string

	// Submit sends one batch of correlation-tagged requests and returns
	// the provider's batch identifier.
	Submit(ctx context.Context, requests []BatchRequest) (string, error)

	// Status reports whether the batch has ended.
	Status(ctx context.Context, batchID string) (BatchState, error)

	// Results streams the per-item outcomes of an ended batch.
	Results(ctx context.Context, batchID string) ([]ItemResult, error)
}

// Config holds the settings shared by batch provider implementations.
type Config struct {
	Type      string        // "anthropic", "openai" or "mock"
	Model     string        // provider model identifier
	APIKey    string        // resolved API key
	MaxTokens int           // per-item output token cap
	System    string        // system prompt sent with every item
	BaseURL   string        // optional override (tests)
	Timeout   time.Duration // request-level HTTP timeout
	Enabled   bool
}
