// Package domain contains the core types shared across adapters and use cases.
package domain

// Pull request states as reported by the hosting platform.
const (
	PullRequestOpen   = "open"
	PullRequestClosed = "closed"
)

// PullRequest describes the metadata needed to review a pull request.
type PullRequest struct {
	Number  int
	Title   string
	State   string
	BaseSHA string
	BaseRef string
	HeadSHA string
	HeadRef string
}

// IsClosed reports whether the pull request is no longer open. Reviews of
// closed pull requests are a supported use case, not an error.
func (pr PullRequest) IsClosed() bool {
	return pr.State == PullRequestClosed
}

// Review is the model's review text plus its raw byte length.
type Review struct {
	Text string
	Size int
}
