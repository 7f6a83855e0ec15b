package providers

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	AnthropicName            = "anthropic"
	anthropicDefaultBaseURL  = "https://api.anthropic.com"
	anthropicVersion         = "2023-06-01"
	anthropicDefaultModel    = "claude-sonnet-4-20250514"
	anthropicDefaultMaxToken = 2000

	anthropicMaxRetries = 3
	anthropicRetryDelay = 500 * time.Millisecond
)

// AnthropicClient implements BatchProvider against the Anthropic
// Message Batches API.
type AnthropicClient struct {
	apiKey    string
	model     string
	system    string
	maxTokens int
	baseURL   string
	client    *http.Client
}

// NewAnthropicClient creates a new Message Batches client.
func NewAnthropicClient(cfg Config) *AnthropicClient {
	if cfg.Model == "" {
		cfg.Model = anthropicDefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = anthropicDefaultMaxToken
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = anthropicDefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}

	return &AnthropicClient{
		apiKey:    cfg.APIKey,
		model:     cfg.Model,
		system:    cfg.System,
		maxTokens: cfg.MaxTokens,
		baseURL:   cfg.BaseURL,
		client:    &http.Client{Timeout: cfg.Timeout},
	}
}

// Name returns the provider identifier.
func (c *AnthropicClient) Name() string {
	return AnthropicName
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicParams struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicBatchItem struct {
	CustomID string          `json:"custom_id"`
	Params   anthropicParams `json:"params"`
}

type anthropicBatchRequest struct {
	Requests []anthropicBatchItem `json:"requests"`
}

type anthropicBatch struct {
	ID               string `json:"id"`
	ProcessingStatus string `json:"processing_status"`
}

// Submit creates one message batch from the given requests.
func (c *AnthropicClient) Submit(ctx context.Context, requests []BatchRequest) (string, error) {
	payload := anthropicBatchRequest{Requests: make([]anthropicBatchItem, 0, len(requests))}
	for _, req := range requests {
		payload.Requests = append(payload.Requests, anthropicBatchItem{
			CustomID: req.CustomID,
			Params: anthropicParams{
				Model:     c.model,
				MaxTokens: c.maxTokens,
				System:    c.system,
				Messages:  []anthropicMessage{{Role: "user", Content: req.Prompt}},
			},
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal batch request: %w", err)
	}

	respBody, err := c.doRequest(ctx, http.MethodPost, "/v1/messages/batches", body)
	if err != nil {
		return "", err
	}

	var batch anthropicBatch
	if err := json.Unmarshal(respBody, &batch); err != nil {
		return "", fmt.Errorf("failed to unmarshal batch response: %w", err)
	}
	if batch.ID == "" {
		return "", fmt.Errorf("batch response missing id")
	}
	return batch.ID, nil
}

// Status retrieves the batch processing state.
func (c *AnthropicClient) Status(ctx context.Context, batchID string) (BatchState, error) {
	respBody, err := c.doRequest(ctx, http.MethodGet, "/v1/messages/batches/"+batchID, nil)
	if err != nil {
		return "", err
	}

	var batch anthropicBatch
	if err := json.Unmarshal(respBody, &batch); err != nil {
		return "", fmt.Errorf("failed to unmarshal batch status: %w", err)
	}

	if batch.ProcessingStatus == "ended" {
		return BatchEnded, nil
	}
	return BatchInProgress, nil
}

type anthropicResultLine struct {
	CustomID string `json:"custom_id"`
	Result   struct {
		Type    string `json:"type"` // succeeded, errored, canceled, expired
		Message struct {
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
			Usage struct {
				InputTokens  int `json:"input_tokens"`
				OutputTokens int `json:"output_tokens"`
			} `json:"usage"`
		} `json:"message"`
		Error json.RawMessage `json:"error"`
	} `json:"result"`
}

// Results streams the per-item outcomes of an ended batch. The endpoint
// returns one JSON object per line.
func (c *AnthropicClient) Results(ctx context.Context, batchID string) ([]ItemResult, error) {
	respBody, err := c.doRequest(ctx, http.MethodGet, "/v1/messages/batches/"+batchID+"/results", nil)
	if err != nil {
		return nil, err
	}

	var results []ItemResult
	scanner := bufio.NewScanner(bytes.NewReader(respBody))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var parsed anthropicResultLine
		if err := json.Unmarshal(line, &parsed); err != nil {
			return nil, fmt.Errorf("failed to parse result line: %w", err)
		}

		item := ItemResult{CustomID: parsed.CustomID}
		switch parsed.Result.Type {
		case "succeeded":
			text := ""
			for _, block := range parsed.Result.Message.Content {
				if block.Type == "text" {
					text = block.Text
					break
				}
			}
			if text == "" {
				item.Error = "no text content generated"
			} else {
				item.Succeeded = &ItemSuccess{
					Content:      text,
					InputTokens:  parsed.Result.Message.Usage.InputTokens,
					OutputTokens: parsed.Result.Message.Usage.OutputTokens,
				}
			}
		default:
			item.Error = anthropicErrorDetail(parsed.Result.Type, parsed.Result.Error)
		}
		results = append(results, item)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read results stream: %w", err)
	}
	return results, nil
}

// anthropicErrorDetail extracts a human-readable detail from an errored
// result. The error envelope nests a typed error object.
func anthropicErrorDetail(resultType string, raw json.RawMessage) string {
	if len(raw) == 0 {
		return "batch item " + resultType
	}

	var envelope struct {
		Type  string `json:"type"`
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil {
		if envelope.Error.Message != "" {
			return envelope.Error.Message
		}
		if envelope.Message != "" {
			return envelope.Message
		}
	}
	return "batch item " + resultType
}

// doRequest makes an HTTP request with retries on transient failures.
func (c *AnthropicClient) doRequest(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < anthropicMaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-api-key", c.apiKey)
		req.Header.Set("anthropic-version", anthropicVersion)

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			c.sleep(ctx, attempt)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("failed to read response: %w", err)
			c.sleep(ctx, attempt)
			continue
		}

		if shouldRetryStatus(resp.StatusCode) {
			lastErr = fmt.Errorf("anthropic error (status %d): %s", resp.StatusCode, string(respBody))
			c.sleep(ctx, attempt)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("anthropic error (status %d): %s", resp.StatusCode, string(respBody))
		}

		return respBody, nil
	}
	return nil, fmt.Errorf("max retries (%d) exceeded: %w", anthropicMaxRetries, lastErr)
}

// shouldRetryStatus returns true for status codes worth retrying.
func shouldRetryStatus(statusCode int) bool {
	if statusCode == http.StatusTooManyRequests {
		return true
	}
	return statusCode >= 500
}

// sleep backs off exponentially between attempts, respecting cancellation.
func (c *AnthropicClient) sleep(ctx context.Context, attempt int) {
	delay := anthropicRetryDelay * time.Duration(1<<attempt)
	select {
	case <-ctx.Done():
	case <-time.After(delay):
	}
}
