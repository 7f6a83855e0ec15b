package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/dataquard/dataquard/internal/policy"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "jobs.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func createJob(t *testing.T, s *Store, ownerID, correlationID string) *Job {
	t.Helper()
	job, err := s.CreateJob(context.Background(), ownerID, "example.ch", policy.JurisdictionNDSG, correlationID, "prompt text")
	if err != nil {
		t.Fatalf("failed to create job: %v", err)
	}
	return job
}

func TestCreateAndGetJob(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	job := createJob(t, s, "owner-1", "policy-abc")

	got, err := s.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if got.Status != StatusPending {
		t.Errorf("new job status = %q, want %q", got.Status, StatusPending)
	}
	if got.OwnerID != "owner-1" {
		t.Errorf("owner = %q, want owner-1", got.OwnerID)
	}
	if got.Domain != "example.ch" {
		t.Errorf("domain = %q, want example.ch", got.Domain)
	}
	if got.Jurisdiction != policy.JurisdictionNDSG {
		t.Errorf("jurisdiction = %q, want nDSG", got.Jurisdiction)
	}
	if got.BatchID != nil {
		t.Error("new job should have no batch id")
	}
	if got.CompletedAt != nil {
		t.Error("new job should have no completion time")
	}
}

func TestGetJobNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetJob(context.Background(), "missing")
	if !errors.Is(err, ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound, got %v", err)
	}
}

func TestDuplicateCorrelationIDRejected(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	createJob(t, s, "owner-1", "policy-dup")
	_, err := s.CreateJob(ctx, "owner-1", "example.ch", policy.JurisdictionGDPR, "policy-dup", "prompt")
	if err == nil {
		t.Fatal("expected unique constraint error for duplicate correlation id")
	}
}

func TestGetJobForOwnerScoping(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	job := createJob(t, s, "owner-1", "policy-scoped")

	if _, err := s.GetJobForOwner(ctx, job.ID, "owner-1"); err != nil {
		t.Fatalf("owner should see own job: %v", err)
	}

	// Another owner's lookup is indistinguishable from a missing job.
	_, err := s.GetJobForOwner(ctx, job.ID, "owner-2")
	if !errors.Is(err, ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound for foreign owner, got %v", err)
	}
}

func TestListJobsForOwner(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	createJob(t, s, "owner-1", "policy-1")
	time.Sleep(5 * time.Millisecond)
	createJob(t, s, "owner-1", "policy-2")
	createJob(t, s, "owner-2", "policy-3")

	jobs, err := s.ListJobsForOwner(ctx, "owner-1", 10)
	if err != nil {
		t.Fatalf("ListJobsForOwner failed: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("got %d jobs, want 2", len(jobs))
	}
	if jobs[0].CorrelationID != "policy-2" {
		t.Errorf("newest job should come first, got %q", jobs[0].CorrelationID)
	}

	jobs, err = s.ListJobsForOwner(ctx, "owner-1", 1)
	if err != nil {
		t.Fatalf("ListJobsForOwner failed: %v", err)
	}
	if len(jobs) != 1 {
		t.Errorf("limit 1 should return 1 job, got %d", len(jobs))
	}
}

func TestListPendingOrderAndLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := createJob(t, s, "owner-1", "policy-first")
	time.Sleep(5 * time.Millisecond)
	createJob(t, s, "owner-1", "policy-second")

	jobs, err := s.ListPending(ctx, 10)
	if err != nil {
		t.Fatalf("ListPending failed: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("got %d pending jobs, want 2", len(jobs))
	}
	if jobs[0].ID != first.ID {
		t.Error("oldest pending job should come first")
	}

	jobs, err = s.ListPending(ctx, 1)
	if err != nil {
		t.Fatalf("ListPending failed: %v", err)
	}
	if len(jobs) != 1 || jobs[0].ID != first.ID {
		t.Error("limit should keep the oldest job")
	}
}

func TestClaimPending(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := createJob(t, s, "owner-1", "policy-a")
	b := createJob(t, s, "owner-1", "policy-b")

	claimed, err := s.ClaimPending(ctx, []string{a.ID, b.ID}, "batch-1")
	if err != nil {
		t.Fatalf("ClaimPending failed: %v", err)
	}
	if claimed != 2 {
		t.Errorf("claimed = %d, want 2", claimed)
	}

	got, err := s.GetJob(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if got.Status != StatusProcessing {
		t.Errorf("status = %q, want processing", got.Status)
	}
	if got.BatchID == nil || *got.BatchID != "batch-1" {
		t.Errorf("batch id not stamped: %v", got.BatchID)
	}

	// A second claim of the same ids is a no-op: nothing is pending.
	claimed, err = s.ClaimPending(ctx, []string{a.ID, b.ID}, "batch-2")
	if err != nil {
		t.Fatalf("ClaimPending failed: %v", err)
	}
	if claimed != 0 {
		t.Errorf("re-claim claimed %d jobs, want 0", claimed)
	}
	got, _ = s.GetJob(ctx, a.ID)
	if *got.BatchID != "batch-1" {
		t.Errorf("batch id overwritten to %q", *got.BatchID)
	}
}

func TestClaimPendingEmpty(t *testing.T) {
	s := newTestStore(t)
	claimed, err := s.ClaimPending(context.Background(), nil, "batch-1")
	if err != nil {
		t.Fatalf("ClaimPending failed: %v", err)
	}
	if claimed != 0 {
		t.Errorf("claimed = %d, want 0", claimed)
	}
}

func TestJobsInBatch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := createJob(t, s, "owner-1", "policy-a")
	b := createJob(t, s, "owner-1", "policy-b")
	other := createJob(t, s, "owner-1", "policy-other")
	if _, err := s.ClaimPending(ctx, []string{a.ID, b.ID}, "batch-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.ClaimPending(ctx, []string{other.ID}, "batch-2"); err != nil {
		t.Fatal(err)
	}

	jobs, err := s.JobsInBatch(ctx, "batch-1")
	if err != nil {
		t.Fatalf("JobsInBatch failed: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("got %d jobs, want 2", len(jobs))
	}
	for _, job := range jobs {
		if job.ID == other.ID {
			t.Error("job from another batch returned")
		}
	}

	// A completed job leaves the batch's processing set.
	if err := s.CompleteJob(ctx, a.ID, CompletionUpdate{Content: "policy"}); err != nil {
		t.Fatal(err)
	}
	jobs, err = s.JobsInBatch(ctx, "batch-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(jobs) != 1 || jobs[0].ID != b.ID {
		t.Errorf("jobs = %v, want only the processing job", jobs)
	}
}

func TestReassignBatch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := createJob(t, s, "owner-1", "policy-a")
	b := createJob(t, s, "owner-1", "policy-b")
	if _, err := s.ClaimPending(ctx, []string{a.ID, b.ID}, "claim-1"); err != nil {
		t.Fatal(err)
	}

	moved, err := s.ReassignBatch(ctx, "claim-1", "batch-real")
	if err != nil {
		t.Fatalf("ReassignBatch failed: %v", err)
	}
	if moved != 2 {
		t.Errorf("moved = %d, want 2", moved)
	}

	for _, id := range []string{a.ID, b.ID} {
		job, err := s.GetJob(ctx, id)
		if err != nil {
			t.Fatal(err)
		}
		if job.BatchID == nil || *job.BatchID != "batch-real" {
			t.Errorf("job %s batch id = %v, want batch-real", id, job.BatchID)
		}
		if job.Status != StatusProcessing {
			t.Errorf("job %s status = %q, want processing", id, job.Status)
		}
	}

	// Reassigning an unknown batch id touches nothing.
	moved, err = s.ReassignBatch(ctx, "claim-unknown", "batch-x")
	if err != nil {
		t.Fatal(err)
	}
	if moved != 0 {
		t.Errorf("moved = %d, want 0 for unknown batch", moved)
	}
}

func TestReleaseBatch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := createJob(t, s, "owner-1", "policy-a")
	b := createJob(t, s, "owner-1", "policy-b")
	if _, err := s.ClaimPending(ctx, []string{a.ID, b.ID}, "claim-1"); err != nil {
		t.Fatal(err)
	}
	// A job that already completed stays completed.
	if err := s.CompleteJob(ctx, b.ID, CompletionUpdate{Content: "policy"}); err != nil {
		t.Fatal(err)
	}

	released, err := s.ReleaseBatch(ctx, "claim-1")
	if err != nil {
		t.Fatalf("ReleaseBatch failed: %v", err)
	}
	if released != 1 {
		t.Errorf("released = %d, want 1", released)
	}

	got, err := s.GetJob(ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != StatusPending {
		t.Errorf("status = %q, want pending after release", got.Status)
	}
	if got.BatchID != nil {
		t.Errorf("batch id = %q, want cleared", *got.BatchID)
	}

	done, err := s.GetJob(ctx, b.ID)
	if err != nil {
		t.Fatal(err)
	}
	if done.Status != StatusCompleted {
		t.Errorf("completed job status = %q, release must not touch it", done.Status)
	}
}

func TestProcessingBatches(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := createJob(t, s, "owner-1", "policy-a")
	b := createJob(t, s, "owner-1", "policy-b")
	if _, err := s.ClaimPending(ctx, []string{a.ID}, "batch-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.ClaimPending(ctx, []string{b.ID}, "batch-2"); err != nil {
		t.Fatal(err)
	}

	batches, err := s.ProcessingBatches(ctx)
	if err != nil {
		t.Fatalf("ProcessingBatches failed: %v", err)
	}
	if len(batches) != 2 {
		t.Fatalf("got %d batches, want 2", len(batches))
	}

	// Completing batch-1's only job removes it from the processing set.
	if err := s.CompleteJob(ctx, a.ID, CompletionUpdate{Content: "policy"}); err != nil {
		t.Fatal(err)
	}
	batches, err = s.ProcessingBatches(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(batches) != 1 || batches[0] != "batch-2" {
		t.Errorf("batches = %v, want [batch-2]", batches)
	}
}

func TestFindProcessingByCorrelation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	job := createJob(t, s, "owner-1", "policy-find")

	// Pending jobs are not part of any batch yet.
	if _, err := s.FindProcessingByCorrelation(ctx, "batch-1", "policy-find"); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound before claim, got %v", err)
	}

	if _, err := s.ClaimPending(ctx, []string{job.ID}, "batch-1"); err != nil {
		t.Fatal(err)
	}

	got, err := s.FindProcessingByCorrelation(ctx, "batch-1", "policy-find")
	if err != nil {
		t.Fatalf("FindProcessingByCorrelation failed: %v", err)
	}
	if got.ID != job.ID {
		t.Errorf("found job %q, want %q", got.ID, job.ID)
	}

	// Terminal jobs are not returned again.
	if err := s.CompleteJob(ctx, job.ID, CompletionUpdate{Content: "policy"}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.FindProcessingByCorrelation(ctx, "batch-1", "policy-find"); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound after completion, got %v", err)
	}
}

func TestCompleteJob(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	job := createJob(t, s, "owner-1", "policy-complete")
	if _, err := s.ClaimPending(ctx, []string{job.ID}, "batch-1"); err != nil {
		t.Fatal(err)
	}

	upd := CompletionUpdate{Content: "full policy text", InputTokens: 500, OutputTokens: 1200, CostCents: 1}
	if err := s.CompleteJob(ctx, job.ID, upd); err != nil {
		t.Fatalf("CompleteJob failed: %v", err)
	}

	got, err := s.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != StatusCompleted {
		t.Errorf("status = %q, want completed", got.Status)
	}
	if got.Content == nil || *got.Content != "full policy text" {
		t.Error("content not recorded")
	}
	if got.InputTokens == nil || *got.InputTokens != 500 {
		t.Error("input tokens not recorded")
	}
	if got.CostCents == nil || *got.CostCents != 1 {
		t.Error("cost not recorded")
	}
	if got.CompletedAt == nil {
		t.Error("completion time not recorded")
	}

	// The processing guard makes a second completion a no-op.
	if err := s.CompleteJob(ctx, job.ID, CompletionUpdate{Content: "other"}); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound on re-completion, got %v", err)
	}
	got, _ = s.GetJob(ctx, job.ID)
	if *got.Content != "full policy text" {
		t.Error("re-completion must not overwrite content")
	}
}

func TestFailJob(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	job := createJob(t, s, "owner-1", "policy-fail")
	if _, err := s.ClaimPending(ctx, []string{job.ID}, "batch-1"); err != nil {
		t.Fatal(err)
	}

	if err := s.FailJob(ctx, job.ID, "rate limited"); err != nil {
		t.Fatalf("FailJob failed: %v", err)
	}

	got, err := s.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != StatusFailed {
		t.Errorf("status = %q, want failed", got.Status)
	}
	if got.ErrorMessage == nil || *got.ErrorMessage != "rate limited" {
		t.Error("error message not recorded")
	}

	// Failed is terminal: neither completion nor another failure applies.
	if err := s.CompleteJob(ctx, job.ID, CompletionUpdate{Content: "late"}); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound completing failed job, got %v", err)
	}
	if err := s.FailJob(ctx, job.ID, "again"); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound re-failing job, got %v", err)
	}
}

func TestFailPendingJobRejected(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	job := createJob(t, s, "owner-1", "policy-pending")

	// Only processing jobs can transition to a terminal state.
	if err := s.FailJob(ctx, job.ID, "nope"); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound failing pending job, got %v", err)
	}
	got, _ := s.GetJob(ctx, job.ID)
	if got.Status != StatusPending {
		t.Errorf("status = %q, want pending", got.Status)
	}
}

func TestSummarize(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := createJob(t, s, "owner-1", "policy-a")
	b := createJob(t, s, "owner-1", "policy-b")
	c := createJob(t, s, "owner-2", "policy-c")
	if _, err := s.ClaimPending(ctx, []string{a.ID, b.ID, c.ID}, "batch-1"); err != nil {
		t.Fatal(err)
	}
	if err := s.CompleteJob(ctx, a.ID, CompletionUpdate{Content: "x", InputTokens: 500, OutputTokens: 1200, CostCents: 1}); err != nil {
		t.Fatal(err)
	}
	if err := s.CompleteJob(ctx, c.ID, CompletionUpdate{Content: "y", InputTokens: 1000, OutputTokens: 2000, CostCents: 2}); err != nil {
		t.Fatal(err)
	}
	if err := s.FailJob(ctx, b.ID, "boom"); err != nil {
		t.Fatal(err)
	}

	summary, err := s.Summarize(ctx, "owner-1")
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if summary.TotalCostCents != 1 {
		t.Errorf("owner-1 cost = %d, want 1", summary.TotalCostCents)
	}
	if summary.TotalInputTokens != 500 || summary.TotalOutputTokens != 1200 {
		t.Errorf("owner-1 tokens = %d/%d, want 500/1200", summary.TotalInputTokens, summary.TotalOutputTokens)
	}
	if summary.CountByStatus[StatusCompleted] != 1 || summary.CountByStatus[StatusFailed] != 1 {
		t.Errorf("owner-1 counts = %v", summary.CountByStatus)
	}

	all, err := s.Summarize(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if all.TotalCostCents != 3 {
		t.Errorf("global cost = %d, want 3", all.TotalCostCents)
	}
	if all.CountByStatus[StatusCompleted] != 2 {
		t.Errorf("global completed = %d, want 2", all.CountByStatus[StatusCompleted])
	}
}
