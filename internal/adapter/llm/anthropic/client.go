package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	llmhttp "github.com/bkyoung/pr-reviewer/internal/adapter/llm/http"
)

const (
	defaultBaseURL          = "https://api.anthropic.com"
	defaultAnthropicVersion = "2023-06-01"
	providerName            = "anthropic"

	// CallTimeout is the hard wall-clock deadline for a single inference
	// attempt. Retries run against the same deadline; a dependency slow
	// enough to blow it once will usually blow it again, which is an
	// accepted cost tradeoff.
	CallTimeout = 120 * time.Second
)

// HTTPClient is an HTTP client for the Anthropic Messages API.
type HTTPClient struct {
	apiKey    string
	model     string
	baseURL   string
	timeout   time.Duration
	client    *http.Client
	retryConf llmhttp.RetryConfig
	logger    llmhttp.Logger
	metrics   llmhttp.Metrics
}

// NewHTTPClient creates a new Anthropic HTTP client. The per-attempt
// deadline defaults to CallTimeout and the retry budget to the reduced
// inference schedule (3 retries, 2s doubling).
func NewHTTPClient(apiKey, model string) *HTTPClient {
	retryConf := llmhttp.InferenceRetryConfig()
	retryConf.Name = "anthropic inference call"
	return &HTTPClient{
		apiKey:    apiKey,
		model:     model,
		baseURL:   defaultBaseURL,
		timeout:   CallTimeout,
		client:    &http.Client{},
		retryConf: retryConf,
	}
}

// SetBaseURL sets a custom base URL (for testing).
func (c *HTTPClient) SetBaseURL(url string) {
	c.baseURL = url
}

// SetTimeout sets the per-attempt deadline.
func (c *HTTPClient) SetTimeout(timeout time.Duration) {
	c.timeout = timeout
}

// SetRetryConfig overrides the retry budget.
func (c *HTTPClient) SetRetryConfig(conf llmhttp.RetryConfig) {
	conf.Name = c.retryConf.Name
	conf.Logger = c.retryConf.Logger
	c.retryConf = conf
}

// SetLogger wires structured logging for requests, responses, and retries.
func (c *HTTPClient) SetLogger(logger llmhttp.Logger) {
	c.logger = logger
	c.retryConf.Logger = logger
}

// SetMetrics wires call metrics tracking.
func (c *HTTPClient) SetMetrics(metrics llmhttp.Metrics) {
	c.metrics = metrics
}

// CallOptions contains options for the API call.
type CallOptions struct {
	Temperature float64
	MaxTokens   int
}

// APIResponse represents the parsed response from the API.
type APIResponse struct {
	Text       string
	TokensIn   int
	TokensOut  int
	Model      string
	StopReason string
}

// Call makes a request to the Anthropic Messages API. Each attempt runs
// under its own CallTimeout deadline; the timer is released on every
// completion path. Failed attempts are retried per the inference budget,
// except for fatal statuses (400/401/403) and malformed success bodies.
func (c *HTTPClient) Call(ctx context.Context, prompt string, options CallOptions) (*APIResponse, error) {
	reqBody := MessagesRequest{
		Model: c.model,
		Messages: []Message{
			{
				Role:    "user",
				Content: prompt,
			},
		},
		MaxTokens:   options.MaxTokens,
		Temperature: options.Temperature,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.baseURL + "/v1/messages"

	if c.logger != nil {
		c.logger.LogRequest(ctx, llmhttp.RequestLog{
			Provider:    providerName,
			Model:       c.model,
			Timestamp:   time.Now(),
			PromptChars: len(prompt),
			APIKey:      c.apiKey,
		})
	}
	if c.metrics != nil {
		c.metrics.RecordRequest(providerName, c.model)
	}

	start := time.Now()
	var bodyBytes []byte
	var statusCode int

	err = llmhttp.RetryWithBackoff(ctx, func(ctx context.Context) error {
		attemptBody, attemptStatus, attemptErr := c.attempt(ctx, url, jsonData)
		if attemptErr != nil {
			return attemptErr
		}
		bodyBytes = attemptBody
		statusCode = attemptStatus
		return nil
	}, c.retryConf)

	duration := time.Since(start)
	if c.metrics != nil {
		c.metrics.RecordDuration(providerName, c.model, duration)
	}

	if err != nil {
		c.logCallError(ctx, err, duration)
		return nil, err
	}

	var messagesResp MessagesResponse
	if err := json.Unmarshal(bodyBytes, &messagesResp); err != nil {
		parseErr := llmhttp.NewParseError(providerName, fmt.Sprintf("failed to parse response: %v", err))
		c.logCallError(ctx, parseErr, duration)
		return nil, parseErr
	}

	// Required structural path: content[0].text. A 2xx body without it is
	// fatal rather than retried.
	if len(messagesResp.Content) == 0 || messagesResp.Content[0].Type != "text" {
		parseErr := llmhttp.NewParseError(providerName, "response has no text content block")
		c.logCallError(ctx, parseErr, duration)
		return nil, parseErr
	}

	if c.logger != nil {
		c.logger.LogResponse(ctx, llmhttp.ResponseLog{
			Provider:   providerName,
			Model:      c.model,
			Timestamp:  time.Now(),
			Duration:   duration,
			StatusCode: statusCode,
			Bytes:      len(bodyBytes),
		})
	}

	return &APIResponse{
		Text:       messagesResp.Content[0].Text,
		TokensIn:   messagesResp.Usage.InputTokens,
		TokensOut:  messagesResp.Usage.OutputTokens,
		Model:      messagesResp.Model,
		StopReason: messagesResp.StopReason,
	}, nil
}

func (c *HTTPClient) logCallError(ctx context.Context, err error, duration time.Duration) {
	var httpErr *llmhttp.Error
	if !errors.As(err, &httpErr) {
		httpErr = &llmhttp.Error{Type: llmhttp.ErrTypeUnknown, Message: err.Error(), Provider: providerName}
	}
	if c.metrics != nil {
		c.metrics.RecordError(providerName, c.model, httpErr.Type)
	}
	if c.logger != nil {
		c.logger.LogError(ctx, llmhttp.ErrorLog{
			Provider:   providerName,
			Model:      c.model,
			Timestamp:  time.Now(),
			Duration:   duration,
			Error:      err,
			ErrorType:  httpErr.Type,
			StatusCode: httpErr.StatusCode,
			Retryable:  httpErr.Retryable,
		})
	}
}

// attempt performs one request under its own deadline.
func (c *HTTPClient) attempt(ctx context.Context, url string, jsonData []byte) ([]byte, int, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, "POST", url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, 0, &llmhttp.Error{
			Type:      llmhttp.ErrTypeUnknown,
			Message:   err.Error(),
			Retryable: false,
			Provider:  providerName,
		}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", defaultAnthropicVersion)

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || attemptCtx.Err() == context.DeadlineExceeded {
			return nil, 0, llmhttp.NewTimeoutError(providerName,
				fmt.Sprintf("request exceeded %.0fs deadline", c.timeout.Seconds()))
		}
		// Network-level failure with no HTTP status: retryable.
		return nil, 0, &llmhttp.Error{
			Type:      llmhttp.ErrTypeServiceUnavailable,
			Message:   err.Error(),
			Retryable: true,
			Provider:  providerName,
		}
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return nil, 0, &llmhttp.Error{
			Type:      llmhttp.ErrTypeServiceUnavailable,
			Message:   fmt.Sprintf("failed to read response body: %v", readErr),
			Retryable: true,
			Provider:  providerName,
		}
	}

	if resp.StatusCode >= 400 {
		return nil, 0, c.handleErrorResponse(resp.StatusCode, resp.Header, body)
	}

	return body, resp.StatusCode, nil
}

// handleErrorResponse maps HTTP status codes to typed errors. 400, 401 and
// 403 are fatal; everything else is retryable. 429 carries the retry-after
// header value as the next backoff wait when present and parseable.
func (c *HTTPClient) handleErrorResponse(statusCode int, header http.Header, body []byte) error {
	var errResp ErrorResponse
	message := fmt.Sprintf("HTTP %d", statusCode)
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		message = errResp.Error.Message
	}

	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		e := llmhttp.NewAuthenticationError(providerName, message)
		e.StatusCode = statusCode
		return e
	case http.StatusBadRequest:
		return llmhttp.NewInvalidRequestError(providerName, message)
	case http.StatusTooManyRequests:
		return llmhttp.NewRateLimitError(providerName, message, parseRetryAfter(header))
	default:
		return &llmhttp.Error{
			Type:       llmhttp.ErrTypeServiceUnavailable,
			Message:    message,
			StatusCode: statusCode,
			Retryable:  true,
			Provider:   providerName,
		}
	}
}

// parseRetryAfter reads the retry-after header as integer seconds.
// Returns zero when absent or unparseable, which falls back to the
// exponential schedule.
func parseRetryAfter(header http.Header) time.Duration {
	raw := strings.TrimSpace(header.Get("Retry-After"))
	if raw == "" {
		return 0
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
