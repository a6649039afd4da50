package anthropic_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bkyoung/pr-reviewer/internal/adapter/llm/anthropic"
	llmhttp "github.com/bkyoung/pr-reviewer/internal/adapter/llm/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fastRetryConfig keeps retry tests quick.
func fastRetryConfig(maxRetries int) llmhttp.RetryConfig {
	return llmhttp.RetryConfig{
		MaxRetries:     maxRetries,
		InitialBackoff: 5 * time.Millisecond,
		MaxBackoff:     50 * time.Millisecond,
		Multiplier:     2.0,
	}
}

func successResponse() anthropic.MessagesResponse {
	return anthropic.MessagesResponse{
		ID:   "msg_123",
		Type: "message",
		Role: "assistant",
		Content: []anthropic.ContentBlock{
			{Type: "text", Text: "test response"},
		},
		Model:      "claude-3-5-sonnet-20241022",
		StopReason: "end_turn",
		Usage: anthropic.Usage{
			InputTokens:  10,
			OutputTokens: 20,
		},
	}
}

func TestNewHTTPClient(t *testing.T) {
	client := anthropic.NewHTTPClient("test-api-key", "claude-3-5-sonnet-20241022")

	assert.NotNil(t, client)
}

func TestHTTPClient_Call_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-api-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))

		var req anthropic.MessagesRequest
		err := json.NewDecoder(r.Body).Decode(&req)
		require.NoError(t, err)

		assert.Equal(t, "claude-3-5-sonnet-20241022", req.Model)
		assert.Equal(t, 4096, req.MaxTokens)
		assert.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(successResponse())
	}))
	defer server.Close()

	client := anthropic.NewHTTPClient("test-api-key", "claude-3-5-sonnet-20241022")
	client.SetBaseURL(server.URL)

	resp, err := client.Call(context.Background(), "test prompt", anthropic.CallOptions{
		MaxTokens: 4096,
	})

	require.NoError(t, err)
	assert.Equal(t, "test response", resp.Text)
	assert.Equal(t, 10, resp.TokensIn)
	assert.Equal(t, 20, resp.TokensOut)
	assert.Equal(t, "claude-3-5-sonnet-20241022", resp.Model)
	assert.Equal(t, "end_turn", resp.StopReason)
}

func TestHTTPClient_Call_AuthenticationErrorSingleAttempt(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(anthropic.ErrorResponse{
			Type: "error",
			Error: anthropic.ErrorDetail{
				Type:    "authentication_error",
				Message: "invalid x-api-key",
			},
		})
	}))
	defer server.Close()

	client := anthropic.NewHTTPClient("bad-key", "claude-3-5-sonnet-20241022")
	client.SetBaseURL(server.URL)
	client.SetRetryConfig(fastRetryConfig(3))

	_, err := client.Call(context.Background(), "test prompt", anthropic.CallOptions{MaxTokens: 100})

	require.Error(t, err)
	var httpErr *llmhttp.Error
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, llmhttp.ErrTypeAuthentication, httpErr.Type)
	assert.Equal(t, 401, httpErr.StatusCode)
	assert.Contains(t, httpErr.Message, "invalid x-api-key")
	assert.Equal(t, int32(1), attempts.Load(), "fatal status must not be retried")
}

func TestHTTPClient_Call_InvalidRequestSingleAttempt(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(anthropic.ErrorResponse{
			Type:  "error",
			Error: anthropic.ErrorDetail{Type: "invalid_request_error", Message: "max_tokens required"},
		})
	}))
	defer server.Close()

	client := anthropic.NewHTTPClient("test-api-key", "claude-3-5-sonnet-20241022")
	client.SetBaseURL(server.URL)
	client.SetRetryConfig(fastRetryConfig(3))

	_, err := client.Call(context.Background(), "test prompt", anthropic.CallOptions{})

	require.Error(t, err)
	var httpErr *llmhttp.Error
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, llmhttp.ErrTypeInvalidRequest, httpErr.Type)
	assert.Equal(t, int32(1), attempts.Load())
}

func TestHTTPClient_Call_RateLimitCarriesRetryAfter(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(anthropic.ErrorResponse{
				Type:  "error",
				Error: anthropic.ErrorDetail{Type: "rate_limit_error", Message: "rate limited"},
			})
			return
		}
		json.NewEncoder(w).Encode(successResponse())
	}))
	defer server.Close()

	client := anthropic.NewHTTPClient("test-api-key", "claude-3-5-sonnet-20241022")
	client.SetBaseURL(server.URL)
	client.SetRetryConfig(fastRetryConfig(3))

	resp, err := client.Call(context.Background(), "test prompt", anthropic.CallOptions{MaxTokens: 100})

	require.NoError(t, err)
	assert.Equal(t, "test response", resp.Text)
	assert.Equal(t, int32(2), attempts.Load(), "rate limit should be retried")
}

func TestHTTPClient_Call_ServerErrorRetriedThenSucceeds(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(successResponse())
	}))
	defer server.Close()

	client := anthropic.NewHTTPClient("test-api-key", "claude-3-5-sonnet-20241022")
	client.SetBaseURL(server.URL)
	client.SetRetryConfig(fastRetryConfig(3))

	resp, err := client.Call(context.Background(), "test prompt", anthropic.CallOptions{MaxTokens: 100})

	require.NoError(t, err)
	assert.Equal(t, "test response", resp.Text)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestHTTPClient_Call_ExhaustedRetriesReturnsLastError(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := anthropic.NewHTTPClient("test-api-key", "claude-3-5-sonnet-20241022")
	client.SetBaseURL(server.URL)
	client.SetRetryConfig(fastRetryConfig(2))

	_, err := client.Call(context.Background(), "test prompt", anthropic.CallOptions{MaxTokens: 100})

	require.Error(t, err)
	var httpErr *llmhttp.Error
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, llmhttp.ErrTypeServiceUnavailable, httpErr.Type)
	assert.Equal(t, int32(3), attempts.Load(), "one attempt plus two retries")
}

func TestHTTPClient_Call_AttemptDeadline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		json.NewEncoder(w).Encode(successResponse())
	}))
	defer server.Close()

	client := anthropic.NewHTTPClient("test-api-key", "claude-3-5-sonnet-20241022")
	client.SetBaseURL(server.URL)
	client.SetTimeout(20 * time.Millisecond)
	client.SetRetryConfig(fastRetryConfig(1))

	_, err := client.Call(context.Background(), "test prompt", anthropic.CallOptions{MaxTokens: 100})

	require.Error(t, err)
	var httpErr *llmhttp.Error
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, llmhttp.ErrTypeTimeout, httpErr.Type)
	assert.Contains(t, httpErr.Message, "deadline")
}

func TestHTTPClient_Call_MalformedSuccessBodyIsFatal(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"msg_123","type":"message","content":[]}`))
	}))
	defer server.Close()

	client := anthropic.NewHTTPClient("test-api-key", "claude-3-5-sonnet-20241022")
	client.SetBaseURL(server.URL)
	client.SetRetryConfig(fastRetryConfig(3))

	_, err := client.Call(context.Background(), "test prompt", anthropic.CallOptions{MaxTokens: 100})

	require.Error(t, err)
	var httpErr *llmhttp.Error
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, llmhttp.ErrTypeParse, httpErr.Type)
	assert.False(t, httpErr.Retryable)
	assert.Equal(t, int32(1), attempts.Load(), "malformed 200 must not be retried")
}

func TestHTTPClient_Call_InvalidJSONBodyIsFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := anthropic.NewHTTPClient("test-api-key", "claude-3-5-sonnet-20241022")
	client.SetBaseURL(server.URL)
	client.SetRetryConfig(fastRetryConfig(3))

	_, err := client.Call(context.Background(), "test prompt", anthropic.CallOptions{MaxTokens: 100})

	require.Error(t, err)
	var httpErr *llmhttp.Error
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, llmhttp.ErrTypeParse, httpErr.Type)
}

func TestHTTPClient_Call_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		json.NewEncoder(w).Encode(successResponse())
	}))
	defer server.Close()

	client := anthropic.NewHTTPClient("test-api-key", "claude-3-5-sonnet-20241022")
	client.SetBaseURL(server.URL)
	client.SetRetryConfig(fastRetryConfig(1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Call(ctx, "test prompt", anthropic.CallOptions{MaxTokens: 100})
	require.Error(t, err)
}
