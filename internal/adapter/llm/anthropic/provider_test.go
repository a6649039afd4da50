package anthropic_test

import (
	"context"
	"testing"

	"github.com/bkyoung/pr-reviewer/internal/adapter/llm/anthropic"
	llmhttp "github.com/bkyoung/pr-reviewer/internal/adapter/llm/http"
	"github.com/bkyoung/pr-reviewer/internal/diff"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	calls      int
	lastPrompt string
	response   *anthropic.APIResponse
	err        error
}

func (f *fakeClient) Call(ctx context.Context, prompt string, options anthropic.CallOptions) (*anthropic.APIResponse, error) {
	f.calls++
	f.lastPrompt = prompt
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

func TestProviderReviewEmptyPayloadSkipsCall(t *testing.T) {
	client := &fakeClient{response: &anthropic.APIResponse{Text: "should not be used"}}
	provider := anthropic.NewProvider(client)

	review, err := provider.Review(context.Background(), diff.Payload{})

	require.NoError(t, err)
	assert.Nil(t, review)
	assert.Equal(t, 0, client.calls, "empty payload must not reach the network")
}

func TestProviderReviewWhitespacePayloadSkipsCall(t *testing.T) {
	client := &fakeClient{response: &anthropic.APIResponse{Text: "should not be used"}}
	provider := anthropic.NewProvider(client)

	payload := diff.Bound("   \n\t\n  ", diff.MaxBytes)
	review, err := provider.Review(context.Background(), payload)

	require.NoError(t, err)
	assert.Nil(t, review)
	assert.Equal(t, 0, client.calls)
}

func TestProviderReviewBuildsPromptAroundDiff(t *testing.T) {
	client := &fakeClient{response: &anthropic.APIResponse{Text: "looks good"}}
	provider := anthropic.NewProvider(client)

	diffText := "diff --git a/main.go b/main.go\n+added line\n"
	payload := diff.Bound(diffText, diff.MaxBytes)

	review, err := provider.Review(context.Background(), payload)

	require.NoError(t, err)
	require.NotNil(t, review)
	assert.Equal(t, "looks good", review.Text)
	assert.Equal(t, len("looks good"), review.Size)

	assert.Equal(t, 1, client.calls)
	assert.Contains(t, client.lastPrompt, "```diff")
	assert.Contains(t, client.lastPrompt, diffText)
	assert.Contains(t, client.lastPrompt, "code review")
}

func TestProviderReviewPropagatesClientError(t *testing.T) {
	client := &fakeClient{err: llmhttp.NewServiceUnavailableError("anthropic", "overloaded")}
	provider := anthropic.NewProvider(client)

	payload := diff.Bound("+change\n", diff.MaxBytes)
	review, err := provider.Review(context.Background(), payload)

	require.Error(t, err)
	assert.Nil(t, review)
	assert.ErrorIs(t, err, &llmhttp.Error{Type: llmhttp.ErrTypeServiceUnavailable})
}

func TestProviderReviewMissingClient(t *testing.T) {
	provider := anthropic.NewProvider(nil)

	payload := diff.Bound("+change\n", diff.MaxBytes)
	_, err := provider.Review(context.Background(), payload)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "client missing")
}
