package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/dataquard/dataquard/internal/policy"
)

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
    id             TEXT PRIMARY KEY,
    owner_id       TEXT NOT NULL,
    domain         TEXT NOT NULL,
    jurisdiction   TEXT NOT NULL,
    correlation_id TEXT NOT NULL UNIQUE,
    status         TEXT NOT NULL DEFAULT 'pending',
    batch_id       TEXT,
    prompt         TEXT NOT NULL,
    content        TEXT,
    input_tokens   INTEGER,
    output_tokens  INTEGER,
    cost_cents     INTEGER,
    error_message  TEXT,
    created_at     DATETIME NOT NULL,
    updated_at     DATETIME NOT NULL,
    completed_at   DATETIME
);
CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);
CREATE INDEX IF NOT EXISTS idx_jobs_owner ON jobs(owner_id);
CREATE INDEX IF NOT EXISTS idx_jobs_batch ON jobs(batch_id);
`

// Store is a SQLite-backed job store.
type Store struct {
	db *sql.DB
}

// New opens (and if needed initializes) the job database at dbPath.
func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// CreateJob persists a new pending job and returns it.
// The correlation id must be unique across all stored jobs.
func (s *Store) CreateJob(ctx context.Context, ownerID, domain string, jurisdiction policy.Jurisdiction, correlationID, prompt string) (*Job, error) {
	now := time.Now().UTC()
	job := &Job{
		ID:            uuid.New().String(),
		OwnerID:       ownerID,
		Domain:        domain,
		Jurisdiction:  jurisdiction,
		CorrelationID: correlationID,
		Status:        StatusPending,
		Prompt:        prompt,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO jobs (id, owner_id, domain, jurisdiction, correlation_id, status, prompt, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.OwnerID, job.Domain, string(job.Jurisdiction), job.CorrelationID,
		string(job.Status), job.Prompt, job.CreatedAt, job.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert job: %w", err)
	}
	return job, nil
}

const jobColumns = `id, owner_id, domain, jurisdiction, correlation_id, status, batch_id,
	prompt, content, input_tokens, output_tokens, cost_cents, error_message,
	created_at, updated_at, completed_at`

// GetJob retrieves a job by id regardless of owner.
func (s *Store) GetJob(ctx context.Context, id string) (*Job, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	return scanJob(row)
}

// GetJobForOwner retrieves a job by id scoped to its owner.
// A job owned by someone else is reported as not found.
func (s *Store) GetJobForOwner(ctx context.Context, id, ownerID string) (*Job, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE id = ? AND owner_id = ?`, id, ownerID)
	return scanJob(row)
}

// ListJobsForOwner returns the owner's most recent jobs.
func (s *Store) ListJobsForOwner(ctx context.Context, ownerID string, limit int) ([]Job, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE owner_id = ? ORDER BY created_at DESC LIMIT ?`,
		ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()
	return scanJobs(rows)
}

// ListPending returns pending jobs in creation order, up to limit.
func (s *Store) ListPending(ctx context.Context, limit int) ([]Job, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE status = ? ORDER BY created_at ASC LIMIT ?`,
		string(StatusPending), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending jobs: %w", err)
	}
	defer rows.Close()
	return scanJobs(rows)
}

// ClaimPending atomically moves the given jobs from pending to processing
// and stamps them with the batch id. The status guard means a job already
// claimed by a concurrent trigger is left untouched; the number of jobs
// actually claimed is returned.
func (s *Store) ClaimPending(ctx context.Context, ids []string, batchID string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, 0, len(ids)+3)
	args = append(args, string(StatusProcessing), batchID, time.Now().UTC())
	for _, id := range ids {
		args = append(args, id)
	}
	args = append(args, string(StatusPending))

	result, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, batch_id = ?, updated_at = ?
		 WHERE id IN (`+placeholders+`) AND status = ?`, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to claim pending jobs: %w", err)
	}
	return result.RowsAffected()
}

// JobsInBatch returns the processing jobs stamped with the given batch
// id, in creation order.
func (s *Store) JobsInBatch(ctx context.Context, batchID string) ([]Job, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE batch_id = ? AND status = ? ORDER BY created_at ASC`,
		batchID, string(StatusProcessing))
	if err != nil {
		return nil, fmt.Errorf("failed to list batch jobs: %w", err)
	}
	defer rows.Close()
	return scanJobs(rows)
}

// ReassignBatch replaces the batch id on the processing jobs that carry
// it, swapping a local claim id for the provider's batch id.
func (s *Store) ReassignBatch(ctx context.Context, oldBatchID, newBatchID string) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET batch_id = ?, updated_at = ?
		 WHERE batch_id = ? AND status = ?`,
		newBatchID, time.Now().UTC(), oldBatchID, string(StatusProcessing))
	if err != nil {
		return 0, fmt.Errorf("failed to reassign batch: %w", err)
	}
	return result.RowsAffected()
}

// ReleaseBatch moves the processing jobs of a batch back to pending and
// clears their batch id, undoing a claim whose submission failed.
func (s *Store) ReleaseBatch(ctx context.Context, batchID string) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, batch_id = NULL, updated_at = ?
		 WHERE batch_id = ? AND status = ?`,
		string(StatusPending), time.Now().UTC(), batchID, string(StatusProcessing))
	if err != nil {
		return 0, fmt.Errorf("failed to release batch: %w", err)
	}
	return result.RowsAffected()
}

// ProcessingBatches returns the distinct batch ids that still have
// processing jobs attached.
func (s *Store) ProcessingBatches(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT batch_id FROM jobs
		 WHERE status = ? AND batch_id IS NOT NULL ORDER BY batch_id`,
		string(StatusProcessing))
	if err != nil {
		return nil, fmt.Errorf("failed to list processing batches: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// FindProcessingByCorrelation looks up the processing job a batch result
// item belongs to. Jobs already in a terminal state are not returned,
// which is what makes reconciliation idempotent.
func (s *Store) FindProcessingByCorrelation(ctx context.Context, batchID, correlationID string) (*Job, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+jobColumns+` FROM jobs
		 WHERE batch_id = ? AND correlation_id = ? AND status = ?`,
		batchID, correlationID, string(StatusProcessing))
	return scanJob(row)
}

// CompleteJob records a successful result. The processing guard makes the
// write a no-op if the job already reached a terminal state.
func (s *Store) CompleteJob(ctx context.Context, id string, upd CompletionUpdate) error {
	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, content = ?, input_tokens = ?, output_tokens = ?,
		 cost_cents = ?, completed_at = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		string(StatusCompleted), upd.Content, upd.InputTokens, upd.OutputTokens,
		upd.CostCents, now, now, id, string(StatusProcessing))
	if err != nil {
		return fmt.Errorf("failed to complete job: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrJobNotFound
	}
	return nil
}

// FailJob records a failed result, guarded the same way as CompleteJob.
func (s *Store) FailJob(ctx context.Context, id, reason string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, error_message = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		string(StatusFailed), reason, time.Now().UTC(), id, string(StatusProcessing))
	if err != nil {
		return fmt.Errorf("failed to fail job: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrJobNotFound
	}
	return nil
}

// CostSummary aggregates completed-job spend and token usage.
type CostSummary struct {
	TotalCostCents    int64
	TotalInputTokens  int64
	TotalOutputTokens int64
	CountByStatus     map[JobStatus]int64
}

// Summarize returns aggregate cost figures. An empty ownerID aggregates
// across all owners.
func (s *Store) Summarize(ctx context.Context, ownerID string) (*CostSummary, error) {
	where := ""
	var args []any
	if ownerID != "" {
		where = " WHERE owner_id = ?"
		args = append(args, ownerID)
	}

	summary := &CostSummary{CountByStatus: make(map[JobStatus]int64)}

	row := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(cost_cents), 0), COALESCE(SUM(input_tokens), 0), COALESCE(SUM(output_tokens), 0)
		 FROM jobs`+where, args...)
	if err := row.Scan(&summary.TotalCostCents, &summary.TotalInputTokens, &summary.TotalOutputTokens); err != nil {
		return nil, fmt.Errorf("failed to summarize costs: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM jobs`+where+` GROUP BY status`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count jobs: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		summary.CountByStatus[JobStatus(status)] = count
	}
	return summary, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(row scanner) (*Job, error) {
	var job Job
	var status, jurisdiction string
	err := row.Scan(
		&job.ID, &job.OwnerID, &job.Domain, &jurisdiction, &job.CorrelationID,
		&status, &job.BatchID, &job.Prompt, &job.Content,
		&job.InputTokens, &job.OutputTokens, &job.CostCents, &job.ErrorMessage,
		&job.CreatedAt, &job.UpdatedAt, &job.CompletedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan job: %w", err)
	}
	job.Status = JobStatus(status)
	job.Jurisdiction = policy.Jurisdiction(jurisdiction)
	return &job, nil
}

func scanJobs(rows *sql.Rows) ([]Job, error) {
	var jobs []Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}
