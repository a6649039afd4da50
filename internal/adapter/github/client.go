package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	llmhttp "github.com/bkyoung/pr-reviewer/internal/adapter/llm/http"
	"github.com/bkyoung/pr-reviewer/internal/domain"
)

const (
	defaultBaseURL = "https://api.github.com"
	defaultTimeout = 30 * time.Second
)

// Client is an HTTP client for the subset of the GitHub REST API the
// pipeline needs: fetching a pull request and posting an issue comment.
type Client struct {
	token      string
	owner      string
	repo       string
	baseURL    string
	httpClient *http.Client
	retryConf  llmhttp.RetryConfig
}

// NewClient creates a GitHub API client for the given repository. The token
// should be a personal access token or GITHUB_TOKEN from Actions.
func NewClient(token, owner, repo string) *Client {
	retryConf := llmhttp.DefaultRetryConfig()
	retryConf.Name = "github api call"
	return &Client{
		token:      token,
		owner:      owner,
		repo:       repo,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		retryConf:  retryConf,
	}
}

// SetBaseURL sets a custom base URL (for testing).
func (c *Client) SetBaseURL(url string) {
	c.baseURL = url
}

// SetRetryConfig overrides the retry budget.
func (c *Client) SetRetryConfig(conf llmhttp.RetryConfig) {
	conf.Name = c.retryConf.Name
	conf.Logger = c.retryConf.Logger
	c.retryConf = conf
}

// SetLogger wires retry progress logging.
func (c *Client) SetLogger(logger llmhttp.Logger) {
	c.retryConf.Logger = logger
}

// GetPullRequest fetches base/head revisions and state for the PR number.
func (c *Client) GetPullRequest(ctx context.Context, number int) (domain.PullRequest, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/pulls/%d", c.baseURL, c.owner, c.repo, number)

	body, err := c.do(ctx, "GET", url, nil)
	if err != nil {
		return domain.PullRequest{}, err
	}

	var pr pullRequestResponse
	if err := json.Unmarshal(body, &pr); err != nil {
		return domain.PullRequest{}, fmt.Errorf("failed to parse pull request response: %w", err)
	}

	return domain.PullRequest{
		Number:  pr.Number,
		Title:   pr.Title,
		State:   pr.State,
		BaseSHA: pr.Base.SHA,
		BaseRef: pr.Base.Ref,
		HeadSHA: pr.Head.SHA,
		HeadRef: pr.Head.Ref,
	}, nil
}

// CreateComment posts a comment to the PR's conversation stream. The
// underlying POST runs under the generic retry policy; if the server
// applies the write but the response is lost, a retry can double-post.
// Accepted: a duplicate comment is harmless and visible.
func (c *Client) CreateComment(ctx context.Context, number int, commentBody string) (*CommentResponse, error) {
	jsonData, err := json.Marshal(createCommentRequest{Body: commentBody})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/repos/%s/%s/issues/%d/comments", c.baseURL, c.owner, c.repo, number)

	body, err := c.do(ctx, "POST", url, jsonData)
	if err != nil {
		return nil, err
	}

	var comment CommentResponse
	if err := json.Unmarshal(body, &comment); err != nil {
		return nil, fmt.Errorf("failed to parse comment response: %w", err)
	}

	return &comment, nil
}

// do executes one request with retry and returns the response body.
func (c *Client) do(ctx context.Context, method, url string, jsonData []byte) ([]byte, error) {
	var body []byte

	err := llmhttp.RetryWithBackoff(ctx, func(ctx context.Context) error {
		var reader io.Reader
		if jsonData != nil {
			reader = bytes.NewReader(jsonData)
		}
		req, reqErr := http.NewRequestWithContext(ctx, method, url, reader)
		if reqErr != nil {
			return &llmhttp.Error{
				Type:      llmhttp.ErrTypeUnknown,
				Message:   reqErr.Error(),
				Retryable: false,
				Provider:  providerName,
			}
		}

		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Accept", "application/vnd.github+json")
		req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
		if jsonData != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, callErr := c.httpClient.Do(req)
		if callErr != nil {
			// Could be timeout or network error
			return &llmhttp.Error{
				Type:      llmhttp.ErrTypeTimeout,
				Message:   callErr.Error(),
				Retryable: true,
				Provider:  providerName,
			}
		}
		defer resp.Body.Close()

		respBody, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return &llmhttp.Error{
				Type:       llmhttp.ErrTypeUnknown,
				Message:    fmt.Sprintf("HTTP %d (failed to read response: %v)", resp.StatusCode, readErr),
				StatusCode: resp.StatusCode,
				Retryable:  resp.StatusCode >= 500,
				Provider:   providerName,
			}
		}

		if resp.StatusCode >= 400 {
			return MapHTTPError(resp.StatusCode, respBody)
		}

		body = respBody
		return nil
	}, c.retryConf)

	if err != nil {
		return nil, err
	}
	return body, nil
}
