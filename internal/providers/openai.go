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

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	OpenAIName         = "openai"
	openAIDefaultModel = "gpt-4o"
)

// OpenAIClient implements BatchProvider using the official OpenAI SDK.
// The OpenAI Batch API takes its input as an uploaded JSONL file and
// delivers results the same way, so Submit and Results translate between
// the file format and the provider-neutral types.
type OpenAIClient struct {
	model     string
	system    string
	maxTokens int
	client    openai.Client
}

// NewOpenAIClient creates a new OpenAI batch client.
func NewOpenAIClient(cfg Config) *OpenAIClient {
	if cfg.Model == "" {
		cfg.Model = openAIDefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 2000
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIClient{
		model:     cfg.Model,
		system:    cfg.System,
		maxTokens: cfg.MaxTokens,
		client:    openai.NewClient(opts...),
	}
}

// Name returns the provider identifier.
func (c *OpenAIClient) Name() string {
	return OpenAIName
}

type openAIBatchLine struct {
	CustomID string         `json:"custom_id"`
	Method   string         `json:"method"`
	URL      string         `json:"url"`
	Body     map[string]any `json:"body"`
}

// Submit uploads the requests as a JSONL batch input file and creates
// the batch.
func (c *OpenAIClient) Submit(ctx context.Context, requests []BatchRequest) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, req := range requests {
		messages := []map[string]string{}
		if c.system != "" {
			messages = append(messages, map[string]string{"role": "system", "content": c.system})
		}
		messages = append(messages, map[string]string{"role": "user", "content": req.Prompt})

		line := openAIBatchLine{
			CustomID: req.CustomID,
			Method:   http.MethodPost,
			URL:      "/v1/chat/completions",
			Body: map[string]any{
				"model":      c.model,
				"max_tokens": c.maxTokens,
				"messages":   messages,
			},
		}
		if err := enc.Encode(line); err != nil {
			return "", fmt.Errorf("failed to encode batch line: %w", err)
		}
	}

	file, err := c.client.Files.New(ctx, openai.FileNewParams{
		File:    openai.File(bytes.NewReader(buf.Bytes()), "requests.jsonl", "application/jsonl"),
		Purpose: openai.FilePurposeBatch,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload batch input: %w", err)
	}

	batch, err := c.client.Batches.New(ctx, openai.BatchNewParams{
		InputFileID:      file.ID,
		Endpoint:         openai.BatchNewParamsEndpointV1ChatCompletions,
		CompletionWindow: openai.BatchNewParamsCompletionWindow24h,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create batch: %w", err)
	}
	return batch.ID, nil
}

// Status maps the OpenAI batch status onto the provider-neutral state.
func (c *OpenAIClient) Status(ctx context.Context, batchID string) (BatchState, error) {
	batch, err := c.client.Batches.Get(ctx, batchID)
	if err != nil {
		return "", fmt.Errorf("failed to get batch: %w", err)
	}

	switch batch.Status {
	case openai.BatchStatusCompleted, openai.BatchStatusFailed,
		openai.BatchStatusExpired, openai.BatchStatusCancelled:
		return BatchEnded, nil
	default:
		return BatchInProgress, nil
	}
}

type openAIResultLine struct {
	CustomID string `json:"custom_id"`
	Response struct {
		StatusCode int `json:"status_code"`
		Body       struct {
			Choices []struct {
				Message struct {
					Content string `json:"content"`
				} `json:"message"`
			} `json:"choices"`
			Usage struct {
				PromptTokens     int `json:"prompt_tokens"`
				CompletionTokens int `json:"completion_tokens"`
			} `json:"usage"`
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		} `json:"body"`
	} `json:"response"`
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Results downloads the batch output (and error) files and converts each
// line to a provider-neutral item result.
func (c *OpenAIClient) Results(ctx context.Context, batchID string) ([]ItemResult, error) {
	batch, err := c.client.Batches.Get(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get batch: %w", err)
	}

	var results []ItemResult
	for _, fileID := range []string{batch.OutputFileID, batch.ErrorFileID} {
		if fileID == "" {
			continue
		}
		items, err := c.readResultFile(ctx, fileID)
		if err != nil {
			return nil, err
		}
		results = append(results, items...)
	}
	return results, nil
}

func (c *OpenAIClient) readResultFile(ctx context.Context, fileID string) ([]ItemResult, error) {
	resp, err := c.client.Files.Content(ctx, fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to download result file: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read result file: %w", err)
	}

	var results []ItemResult
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var parsed openAIResultLine
		if err := json.Unmarshal(line, &parsed); err != nil {
			return nil, fmt.Errorf("failed to parse result line: %w", err)
		}
		results = append(results, c.toItemResult(parsed))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan result file: %w", err)
	}
	return results, nil
}

func (c *OpenAIClient) toItemResult(line openAIResultLine) ItemResult {
	item := ItemResult{CustomID: line.CustomID}

	switch {
	case line.Error.Message != "":
		item.Error = line.Error.Message
	case line.Response.StatusCode != http.StatusOK:
		detail := line.Response.Body.Error.Message
		if detail == "" {
			detail = fmt.Sprintf("request failed with status %d", line.Response.StatusCode)
		}
		item.Error = detail
	case len(line.Response.Body.Choices) == 0 || line.Response.Body.Choices[0].Message.Content == "":
		item.Error = "no text content generated"
	default:
		item.Succeeded = &ItemSuccess{
			Content:      line.Response.Body.Choices[0].Message.Content,
			InputTokens:  line.Response.Body.Usage.PromptTokens,
			OutputTokens: line.Response.Body.Usage.CompletionTokens,
		}
	}
	return item
}
