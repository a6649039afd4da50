package anthropic

import (
	"context"
	"fmt"
	"strings"

	"github.com/bkyoung/pr-reviewer/internal/diff"
	"github.com/bkyoung/pr-reviewer/internal/domain"
)

const (
	// defaultMaxTokens caps the review response length.
	defaultMaxTokens = 4096

	// defaultTemperature is fixed for review generation.
	defaultTemperature = 0.7
)

const promptTemplate = `You are an expert software engineer performing a code review.
Review the following pull request diff and provide constructive feedback.
Focus on bugs, security issues, performance problems, and maintainability.
Be concise and actionable.

` + "```diff\n%s\n```"

// Client abstracts the Anthropic HTTP client behaviour we need.
type Client interface {
	Call(ctx context.Context, prompt string, options CallOptions) (*APIResponse, error)
}

// Provider turns a bounded diff payload into a review. It implements the
// usecase Reviewer port.
type Provider struct {
	client Client
}

// NewProvider constructs a Provider backed by the supplied client.
func NewProvider(client Client) *Provider {
	return &Provider{client: client}
}

// Review sends the diff to the model and returns the review text. A nil
// review (with nil error) means there was nothing to review: an empty or
// whitespace-only payload short-circuits before any network call.
func (p *Provider) Review(ctx context.Context, payload diff.Payload) (*domain.Review, error) {
	if payload.IsEmpty() || strings.TrimSpace(payload.Text) == "" {
		return nil, nil
	}

	if p.client == nil {
		return nil, fmt.Errorf("anthropic client missing")
	}

	prompt := fmt.Sprintf(promptTemplate, payload.Text)

	resp, err := p.client.Call(ctx, prompt, CallOptions{
		MaxTokens:   defaultMaxTokens,
		Temperature: defaultTemperature,
	})
	if err != nil {
		return nil, err
	}

	return &domain.Review{
		Text: resp.Text,
		Size: len(resp.Text),
	}, nil
}
