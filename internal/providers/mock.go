package providers

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

const MockName = "mock"

// MockProvider is a BatchProvider for testing. Submitted batches are held
// in memory; tests control when a batch ends and what each item returns.
type MockProvider struct {
	// Configurable behavior
	SubmitErr  error
	StatusErr  error
	ResultsErr error

	mu      sync.Mutex
	batches map[string]*mockBatch

	submitCount atomic.Int64
}

type mockBatch struct {
	requests []BatchRequest
	state    BatchState
	results  []ItemResult
}

// NewMockProvider creates an empty mock provider.
func NewMockProvider() *MockProvider {
	return &MockProvider{batches: make(map[string]*mockBatch)}
}

// Name returns the provider identifier.
func (m *MockProvider) Name() string {
	return MockName
}

// Submit records the batch and returns a deterministic batch id.
func (m *MockProvider) Submit(ctx context.Context, requests []BatchRequest) (string, error) {
	if m.SubmitErr != nil {
		return "", m.SubmitErr
	}

	id := fmt.Sprintf("mockbatch-%d", m.submitCount.Add(1))
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches[id] = &mockBatch{
		requests: append([]BatchRequest(nil), requests...),
		state:    BatchInProgress,
	}
	return id, nil
}

// Status reports the configured state of the batch.
func (m *MockProvider) Status(ctx context.Context, batchID string) (BatchState, error) {
	if m.StatusErr != nil {
		return "", m.StatusErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	batch, ok := m.batches[batchID]
	if !ok {
		return "", fmt.Errorf("unknown batch: %s", batchID)
	}
	return batch.state, nil
}

// Results returns the results configured via End.
func (m *MockProvider) Results(ctx context.Context, batchID string) ([]ItemResult, error) {
	if m.ResultsErr != nil {
		return nil, m.ResultsErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	batch, ok := m.batches[batchID]
	if !ok {
		return nil, fmt.Errorf("unknown batch: %s", batchID)
	}
	return append([]ItemResult(nil), batch.results...), nil
}

// End marks a batch as ended with the given per-item results.
func (m *MockProvider) End(batchID string, results []ItemResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if batch, ok := m.batches[batchID]; ok {
		batch.state = BatchEnded
		batch.results = append([]ItemResult(nil), results...)
	}
}

// Requests returns the requests submitted with a batch.
func (m *MockProvider) Requests(batchID string) []BatchRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if batch, ok := m.batches[batchID]; ok {
		return append([]BatchRequest(nil), batch.requests...)
	}
	return nil
}

// SubmitCount returns how many batches have been submitted.
func (m *MockProvider) SubmitCount() int64 {
	return m.submitCount.Load()
}
