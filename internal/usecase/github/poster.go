// Package github provides use cases for interacting with GitHub.
package github

import (
	"context"

	"github.com/bkyoung/pr-reviewer/internal/adapter/github"
	"github.com/bkyoung/pr-reviewer/internal/domain"
)

// CommentClient defines the interface for posting PR comments.
// This interface allows for mocking in tests.
type CommentClient interface {
	CreateComment(ctx context.Context, number int, body string) (*github.CommentResponse, error)
}

// ReviewPoster publishes review comments to a pull request. It renders the
// comment body (fixed heading plus review text) and delegates the API call
// to the CommentClient. Exactly one comment is posted per run.
type ReviewPoster struct {
	client CommentClient
}

// NewReviewPoster creates a new ReviewPoster with the given client.
func NewReviewPoster(client CommentClient) *ReviewPoster {
	return &ReviewPoster{client: client}
}

// PostComment publishes the review to the PR's conversation stream.
func (p *ReviewPoster) PostComment(ctx context.Context, pr domain.PullRequest, review domain.Review) error {
	body := github.BuildReviewComment(pr, review)
	_, err := p.client.CreateComment(ctx, pr.Number, body)
	return err
}
