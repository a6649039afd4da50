package github

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/bkyoung/pr-reviewer/internal/domain"
)

// CommentHeading prefixes every published review comment.
const CommentHeading = "## AI Code Review"

// BuildReviewComment renders the comment body posted to the PR: the fixed
// heading, the review text, and a short metadata footer.
func BuildReviewComment(pr domain.PullRequest, review domain.Review) string {
	caser := cases.Title(language.English)

	var builder strings.Builder
	builder.WriteString(CommentHeading)
	builder.WriteString("\n\n")
	builder.WriteString(review.Text)
	builder.WriteString("\n\n---\n")
	builder.WriteString(fmt.Sprintf("*Reviewed `%s` → `%s` (%s pull request #%d)*\n",
		pr.BaseRef, pr.HeadRef, caser.String(pr.State), pr.Number))
	return builder.String()
}
