package github_test

import (
	"strings"
	"testing"

	"github.com/bkyoung/pr-reviewer/internal/adapter/github"
	"github.com/bkyoung/pr-reviewer/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestBuildReviewComment(t *testing.T) {
	pr := domain.PullRequest{
		Number:  42,
		Title:   "Add rate limiting",
		State:   domain.PullRequestOpen,
		BaseRef: "main",
		HeadRef: "feature/limits",
	}
	review := domain.Review{Text: "Consider bounding the queue.", Size: 28}

	body := github.BuildReviewComment(pr, review)

	assert.True(t, strings.HasPrefix(body, github.CommentHeading))
	assert.Contains(t, body, "Consider bounding the queue.")
	assert.Contains(t, body, "`main` → `feature/limits`")
	assert.Contains(t, body, "Open pull request #42")
}

func TestBuildReviewCommentClosedState(t *testing.T) {
	pr := domain.PullRequest{
		Number:  7,
		State:   domain.PullRequestClosed,
		BaseRef: "main",
		HeadRef: "fix/typo",
	}
	review := domain.Review{Text: "LGTM"}

	body := github.BuildReviewComment(pr, review)

	assert.Contains(t, body, "Closed pull request #7")
}

func TestBuildReviewCommentPreservesMarkdown(t *testing.T) {
	pr := domain.PullRequest{Number: 1, State: domain.PullRequestOpen}
	review := domain.Review{Text: "```go\nfunc main() {}\n```"}

	body := github.BuildReviewComment(pr, review)

	assert.Contains(t, body, "```go\nfunc main() {}\n```")
}
