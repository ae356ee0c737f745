// Package gumloop talks to the hosted AI pipeline service that imports,
// searches and suggests recipes and reads grocery receipts.
package gumloop

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pantrypal/backend/internal/domain"
)

const (
	maxAttempts = 3

	runStateDone   = "DONE"
	runStateFailed = "FAILED"
	runStateError  = "ERROR"
)

// Pipeline input and output names
const (
	inputPantry   = "pantry"
	inputQuery    = "query"
	inputURL      = "url"
	inputFileName = "file_name"

	outputRecipes = "recipe_json"
	outputReceipt = "receipt_text"
	// older receipt pipelines publish under a misspelled name
	outputReceiptLegacy = "reciept_text"
)

// Config holds the credentials and pipeline ids of one Gumloop account
type Config struct {
	APIKey            string
	BaseURL           string
	UserID            string
	SuggestPipelineID string
	SearchPipelineID  string
	ImportPipelineID  string
	ReceiptPipelineID string
	PollInterval      time.Duration
	MaxWait           time.Duration
	RequestsPerHour   int
}

// Client implements domain.RecipeProvider and domain.ReceiptScanner
type Client struct {
	httpClient  *http.Client
	config      Config
	rateLimiter *rate.Limiter
	backoff     func(attempt int) time.Duration
	log         *zap.Logger
}

// NewClient creates a new pipeline client
func NewClient(config Config, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	if config.BaseURL == "" {
		config.BaseURL = "https://api.gumloop.com"
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.PollInterval <= 0 {
		config.PollInterval = 2 * time.Second
	}
	if config.MaxWait <= 0 {
		config.MaxWait = 300 * time.Second
	}
	if config.RequestsPerHour <= 0 {
		config.RequestsPerHour = 1000
	}

	// rate.Limit is requests per second
	limiter := rate.NewLimiter(rate.Limit(float64(config.RequestsPerHour)/3600), 10)

	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		config:      config,
		rateLimiter: limiter,
		backoff:     exponentialBackoff,
		log:         log.Named("gumloop"),
	}
}

// exponentialBackoff returns 500ms, 1s, 2s, ... for attempts 1, 2, 3, ...
func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(500*(1<<(attempt-1))) * time.Millisecond
}

type pipelineInput struct {
	InputName string `json:"input_name"`
	Value     string `json:"value"`
}

type startPipelineRequest struct {
	UserID         string          `json:"user_id"`
	SavedItemID    string          `json:"saved_item_id"`
	PipelineInputs []pipelineInput `json:"pipeline_inputs"`
}

type startPipelineResponse struct {
	RunID string `json:"run_id"`
}

type uploadFileRequest struct {
	FileName    string `json:"file_name"`
	FileContent string `json:"file_content"`
	UserID      string `json:"user_id"`
}

type uploadFileResponse struct {
	FileName string `json:"file_name"`
}

type runResponse struct {
	State   string                     `json:"state"`
	Error   string                     `json:"error"`
	Outputs map[string]json.RawMessage `json:"outputs"`
}

// FromURL imports the recipe published at a web page
func (c *Client) FromURL(ctx context.Context, recipeURL string) (*domain.Recipe, error) {
	outputs, err := c.runPipeline(ctx, c.config.ImportPipelineID, pipelineInput{InputName: inputURL, Value: recipeURL})
	if err != nil {
		return nil, err
	}
	recipes, err := DecodeRecipes(outputText(outputs[outputRecipes]))
	if err != nil {
		return nil, err
	}
	if len(recipes) == 0 {
		return nil, fmt.Errorf("%w: no recipe found at %s", domain.ErrUpstreamFailure, recipeURL)
	}
	return &recipes[0], nil
}

// Suggestions asks for recipes that use what the pantry holds
func (c *Client) Suggestions(ctx context.Context, pantryCSV string) ([]domain.Recipe, error) {
	outputs, err := c.runPipeline(ctx, c.config.SuggestPipelineID, pipelineInput{InputName: inputPantry, Value: pantryCSV})
	if err != nil {
		return nil, err
	}
	return DecodeRecipes(outputText(outputs[outputRecipes]))
}

// SearchByName looks recipes up by dish name
func (c *Client) SearchByName(ctx context.Context, query string) ([]domain.Recipe, error) {
	outputs, err := c.runPipeline(ctx, c.config.SearchPipelineID, pipelineInput{InputName: inputQuery, Value: query})
	if err != nil {
		return nil, err
	}
	return DecodeRecipes(outputText(outputs[outputRecipes]))
}

// Extract uploads a receipt image and returns the items the pipeline read from it
func (c *Client) Extract(ctx context.Context, image []byte, filename string) ([]domain.PantryItem, error) {
	uploaded, err := c.uploadFile(ctx, filename, image)
	if err != nil {
		return nil, err
	}
	outputs, err := c.runPipeline(ctx, c.config.ReceiptPipelineID, pipelineInput{InputName: inputFileName, Value: uploaded})
	if err != nil {
		return nil, err
	}
	raw, ok := outputs[outputReceipt]
	if !ok {
		raw = outputs[outputReceiptLegacy]
	}
	return DecodeReceipt(outputText(raw))
}

func (c *Client) uploadFile(ctx context.Context, filename string, content []byte) (string, error) {
	req := uploadFileRequest{
		FileName:    filename,
		FileContent: base64.StdEncoding.EncodeToString(content),
		UserID:      c.config.UserID,
	}
	var resp uploadFileResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/upload_file", nil, req, &resp); err != nil {
		return "", err
	}
	if resp.FileName == "" {
		return "", fmt.Errorf("%w: no file_name in upload response", domain.ErrUpstreamFailure)
	}
	c.log.Debug("receipt uploaded", zap.String("file", resp.FileName), zap.Int("bytes", len(content)))
	return resp.FileName, nil
}

// runPipeline starts a saved pipeline and polls until it finishes or MaxWait elapses
func (c *Client) runPipeline(ctx context.Context, pipelineID string, inputs ...pipelineInput) (map[string]json.RawMessage, error) {
	if pipelineID == "" {
		return nil, fmt.Errorf("%w: pipeline is not configured", domain.ErrUpstreamFailure)
	}

	req := startPipelineRequest{
		UserID:         c.config.UserID,
		SavedItemID:    pipelineID,
		PipelineInputs: inputs,
	}
	var started startPipelineResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/start_pipeline", nil, req, &started); err != nil {
		return nil, err
	}
	if started.RunID == "" {
		return nil, fmt.Errorf("%w: no run_id in pipeline response", domain.ErrUpstreamFailure)
	}
	c.log.Info("pipeline started", zap.String("pipeline", pipelineID), zap.String("run", started.RunID))

	return c.waitForRun(ctx, started.RunID)
}

func (c *Client) waitForRun(ctx context.Context, runID string) (map[string]json.RawMessage, error) {
	deadline := time.Now().Add(c.config.MaxWait)
	params := url.Values{}
	params.Add("run_id", runID)
	params.Add("user_id", c.config.UserID)

	for {
		if time.Now().After(deadline) {
			c.log.Warn("pipeline run timed out", zap.String("run", runID), zap.Duration("max_wait", c.config.MaxWait))
			return nil, fmt.Errorf("%w: run %s after %s", domain.ErrPipelineTimeout, runID, c.config.MaxWait)
		}

		var run runResponse
		if err := c.doJSON(ctx, http.MethodGet, "/api/v1/get_pl_run", params, nil, &run); err != nil {
			return nil, err
		}

		switch run.State {
		case runStateDone:
			c.log.Info("pipeline finished", zap.String("run", runID))
			return run.Outputs, nil
		case runStateFailed, runStateError:
			msg := run.Error
			if msg == "" {
				msg = "unknown error"
			}
			return nil, fmt.Errorf("%w: run %s %s: %s", domain.ErrUpstreamFailure, runID, run.State, msg)
		}

		if err := sleep(ctx, c.config.PollInterval); err != nil {
			return nil, err
		}
	}
}

// doJSON sends one request, retrying transport errors, 429 and 5xx responses
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	reqURL := c.config.BaseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			if err := sleep(ctx, c.backoff(attempt-1)); err != nil {
				return err
			}
		}

		// Wait for rate limiter
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrRateLimited, err)
		}

		respBody, status, err := c.doRequest(ctx, method, reqURL, payload)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.log.Warn("request error", zap.String("path", path), zap.Int("attempt", attempt), zap.Error(err))
			lastErr = err
			continue
		}

		if status == http.StatusTooManyRequests || status >= http.StatusInternalServerError {
			c.log.Warn("retryable status",
				zap.String("path", path),
				zap.Int("attempt", attempt),
				zap.Int("status", status),
				zap.ByteString("body", truncate(respBody, 512)))
			lastErr = fmt.Errorf("%w: status %d", domain.ErrUpstreamFailure, status)
			continue
		}
		if status != http.StatusOK {
			return fmt.Errorf("%w: status %d, body: %s", domain.ErrUpstreamFailure, status, truncate(respBody, 512))
		}

		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("%w: failed to decode response: %v", domain.ErrUpstreamFailure, err)
		}
		return nil
	}

	c.log.Error("all retries failed", zap.String("path", path), zap.Error(lastErr))
	return lastErr
}

// doRequest executes an HTTP request with proper headers
func (c *Client) doRequest(ctx context.Context, method, reqURL string, payload []byte) ([]byte, int, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	req.Header.Set("User-Agent", "PantryPal/1.0")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", domain.ErrUpstreamFailure, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: read body: %v", domain.ErrUpstreamFailure, err)
	}
	return body, resp.StatusCode, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: %v", domain.ErrPipelineTimeout, ctx.Err())
		}
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}
