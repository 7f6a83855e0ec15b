// Package pipeline drives policy generation jobs through the batch
// inference lifecycle: enqueue, batch submission, reconciliation.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/dataquard/dataquard/internal/metrics"
	"github.com/dataquard/dataquard/internal/notify"
	"github.com/dataquard/dataquard/internal/policy"
	"github.com/dataquard/dataquard/internal/providers"
	"github.com/dataquard/dataquard/internal/store"
)

const (
	// DefaultMaxBatchSize bounds one submission, matching the upstream
	// service's per-batch request limit headroom.
	DefaultMaxBatchSize = 100

	// excerptLength is how much generated content a notification carries.
	excerptLength = 200
)

// ContactResolver maps an owner id to a notification address.
// The second return value reports whether a contact is known.
type ContactResolver func(ownerID string) (string, bool)

// Config wires the pipeline's collaborators.
type Config struct {
	Store        *store.Store
	Registry     *providers.Registry
	Notifier     notify.Notifier
	Pricing      metrics.Pricing
	Contacts     ContactResolver
	MaxBatchSize int
	Logger       *slog.Logger
}

// Pipeline coordinates the job store, the batch inference provider and
// the notifier. All collaborators are injected so tests can substitute
// fakes.
type Pipeline struct {
	store        *store.Store
	registry     *providers.Registry
	notifier     notify.Notifier
	pricing      metrics.Pricing
	contacts     ContactResolver
	maxBatchSize int
	logger       *slog.Logger
}

// New creates a pipeline from the given configuration.
func New(cfg Config) *Pipeline {
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = DefaultMaxBatchSize
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Contacts == nil {
		cfg.Contacts = func(string) (string, bool) { return "", false }
	}
	return &Pipeline{
		store:        cfg.Store,
		registry:     cfg.Registry,
		notifier:     cfg.Notifier,
		pricing:      cfg.Pricing,
		contacts:     cfg.Contacts,
		maxBatchSize: cfg.MaxBatchSize,
		logger:       cfg.Logger,
	}
}

// EnqueueResult identifies a newly created job.
type EnqueueResult struct {
	JobID         string `json:"job_id"`
	CorrelationID string `json:"correlation_id"`
}

// Enqueue validates the request, renders the generation prompt and
// persists a new pending job.
func (p *Pipeline) Enqueue(ctx context.Context, ownerID, domain, jurisdiction, companyName string) (*EnqueueResult, error) {
	domain = strings.TrimSpace(domain)
	if domain == "" {
		return nil, fmt.Errorf("%w: domain must not be empty", ErrValidation)
	}

	j, err := policy.ParseJurisdiction(jurisdiction)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	prompt, err := policy.BuildPrompt(j, domain, companyName)
	if err != nil {
		return nil, err
	}

	correlationID := "policy-" + uuid.New().String()

	job, err := p.store.CreateJob(ctx, ownerID, domain, j, correlationID, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to queue job: %w", err)
	}

	p.logger.Info("job enqueued",
		"job_id", job.ID,
		"owner_id", ownerID,
		"domain", domain,
		"jurisdiction", string(j))

	return &EnqueueResult{JobID: job.ID, CorrelationID: job.CorrelationID}, nil
}

// SubmitResult describes one successful batch submission.
type SubmitResult struct {
	BatchID  string `json:"batch_id"`
	JobCount int    `json:"job_count"`
}

// SubmitPendingBatch claims up to the configured maximum of pending
// jobs and submits them as one batch. Jobs are claimed before the
// provider call, so overlapping triggers cannot submit the same job
// twice. Returns (nil, nil) when no jobs are pending. On a submission
// failure the claimed jobs are released back to pending; the next
// cycle retries them.
func (p *Pipeline) SubmitPendingBatch(ctx context.Context) (*SubmitResult, error) {
	jobs, err := p.store.ListPending(ctx, p.maxBatchSize)
	if err != nil {
		return nil, fmt.Errorf("failed to select pending jobs: %w", err)
	}
	if len(jobs) == 0 {
		return nil, nil
	}

	provider, err := p.registry.Active()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSubmission, err)
	}

	ids := make([]string, 0, len(jobs))
	for _, job := range jobs {
		ids = append(ids, job.ID)
	}

	// Claim first: one conditional update moves the selection to
	// processing, so a concurrent trigger finds nothing left to submit.
	// The claim id is swapped for the provider's batch id once the
	// submission succeeds.
	claimID := "claim-" + uuid.New().String()
	claimed, err := p.store.ClaimPending(ctx, ids, claimID)
	if err != nil {
		return nil, fmt.Errorf("failed to claim pending jobs: %w", err)
	}
	if claimed == 0 {
		// A concurrent trigger claimed the whole selection.
		return nil, nil
	}

	claimedJobs, err := p.store.JobsInBatch(ctx, claimID)
	if err != nil {
		p.releaseClaim(ctx, claimID)
		return nil, fmt.Errorf("failed to load claimed jobs: %w", err)
	}

	requests := make([]providers.BatchRequest, 0, len(claimedJobs))
	for _, job := range claimedJobs {
		requests = append(requests, providers.BatchRequest{
			CustomID: job.CorrelationID,
			Prompt:   job.Prompt,
		})
	}

	batchID, err := provider.Submit(ctx, requests)
	if err != nil {
		p.releaseClaim(ctx, claimID)
		return nil, fmt.Errorf("%w: %v", ErrSubmission, err)
	}

	if _, err := p.store.ReassignBatch(ctx, claimID, batchID); err != nil {
		return nil, fmt.Errorf("failed to record batch id %s: %w", batchID, err)
	}

	p.logger.Info("batch submitted",
		"batch_id", batchID,
		"provider", provider.Name(),
		"job_count", len(claimedJobs))

	return &SubmitResult{BatchID: batchID, JobCount: len(claimedJobs)}, nil
}

// releaseClaim returns claimed jobs to pending after a submission that
// never reached the provider.
func (p *Pipeline) releaseClaim(ctx context.Context, claimID string) {
	if _, err := p.store.ReleaseBatch(ctx, claimID); err != nil {
		p.logger.Error("failed to release claimed jobs",
			"claim_id", claimID,
			"error", err)
	}
}

// ReconcileResult aggregates one reconciliation pass over a batch.
type ReconcileResult struct {
	BatchID   string `json:"batch_id"`
	Processed bool   `json:"processed"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
}

// Reconcile polls one batch and, if it has ended, applies the per-item
// outcomes to the job store. Safe to call repeatedly: jobs already in a
// terminal state are skipped via the processing-status match, and a
// batch still in progress causes zero writes.
func (p *Pipeline) Reconcile(ctx context.Context, batchID string) (*ReconcileResult, error) {
	result := &ReconcileResult{BatchID: batchID}

	provider, err := p.registry.Active()
	if err != nil {
		return nil, err
	}

	state, err := provider.Status(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to poll batch %s: %w", batchID, err)
	}
	if state != providers.BatchEnded {
		return result, nil
	}

	items, err := provider.Results(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch results for batch %s: %w", batchID, err)
	}

	result.Processed = true
	for _, item := range items {
		if err := p.applyItem(ctx, batchID, item, result); err != nil {
			// Isolate per-item failures from the rest of the batch.
			p.logger.Error("failed to apply batch item",
				"batch_id", batchID,
				"custom_id", item.CustomID,
				"error", err)
		}
	}

	p.logger.Info("batch reconciled",
		"batch_id", batchID,
		"succeeded", result.Succeeded,
		"failed", result.Failed)

	return result, nil
}

// applyItem matches one result item to its processing job and records
// the outcome.
func (p *Pipeline) applyItem(ctx context.Context, batchID string, item providers.ItemResult, result *ReconcileResult) error {
	job, err := p.store.FindProcessingByCorrelation(ctx, batchID, item.CustomID)
	if errors.Is(err, store.ErrJobNotFound) {
		// Unknown correlation id, or the job already reached a terminal
		// state on a previous pass.
		return nil
	}
	if err != nil {
		return err
	}

	if item.Succeeded == nil {
		detail := item.Error
		if detail == "" {
			detail = "no policy content generated"
		}
		if err := p.store.FailJob(ctx, job.ID, detail); errors.Is(err, store.ErrJobNotFound) {
			return nil
		} else if err != nil {
			return err
		}
		result.Failed++
		return nil
	}

	costCents := p.pricing.CostCents(item.Succeeded.InputTokens, item.Succeeded.OutputTokens)
	err = p.store.CompleteJob(ctx, job.ID, store.CompletionUpdate{
		Content:      item.Succeeded.Content,
		InputTokens:  item.Succeeded.InputTokens,
		OutputTokens: item.Succeeded.OutputTokens,
		CostCents:    costCents,
	})
	if errors.Is(err, store.ErrJobNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	result.Succeeded++

	p.notifyCompleted(ctx, job, item.Succeeded.Content)
	return nil
}

// notifyCompleted makes the single best-effort notification attempt.
// A failure is logged and never rolls back the committed completion.
func (p *Pipeline) notifyCompleted(ctx context.Context, job *store.Job, content string) {
	if p.notifier == nil {
		return
	}

	contact, ok := p.contacts(job.OwnerID)
	if !ok {
		p.logger.Warn("no contact for owner, skipping notification",
			"job_id", job.ID,
			"owner_id", job.OwnerID)
		return
	}

	excerpt := content
	if runes := []rune(excerpt); len(runes) > excerptLength {
		excerpt = string(runes[:excerptLength])
	}

	err := p.notifier.Send(ctx, notify.Message{
		Contact:        contact,
		Domain:         job.Domain,
		ContentExcerpt: excerpt,
		JobID:          job.ID,
	})
	if err != nil {
		p.logger.Error("failed to send notification",
			"job_id", job.ID,
			"error", err)
	}
}

// CycleResult is the outcome of one scheduler-triggered cycle.
type CycleResult struct {
	Submitted  *SubmitResult     `json:"submitted"`
	Reconciled []ReconcileResult `json:"reconciled"`
	Errors     []string          `json:"errors,omitempty"`
}

// RunCycle runs the submission phase and then reconciles every batch
// that still has processing jobs. Failures are collected, not fatal:
// unsubmitted jobs stay pending and unreconciled batches stay
// processing, so the next cycle retries naturally.
func (p *Pipeline) RunCycle(ctx context.Context) *CycleResult {
	result := &CycleResult{}

	submitted, err := p.SubmitPendingBatch(ctx)
	if err != nil {
		p.logger.Error("submission phase failed", "error", err)
		result.Errors = append(result.Errors, err.Error())
	}
	result.Submitted = submitted

	batchIDs, err := p.store.ProcessingBatches(ctx)
	if err != nil {
		p.logger.Error("failed to enumerate processing batches", "error", err)
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	for _, batchID := range batchIDs {
		outcome, err := p.Reconcile(ctx, batchID)
		if err != nil {
			p.logger.Error("reconciliation failed", "batch_id", batchID, "error", err)
			result.Errors = append(result.Errors, err.Error())
			continue
		}
		result.Reconciled = append(result.Reconciled, *outcome)
	}
	return result
}
