package github

// pullRequestResponse mirrors the subset of the GitHub pull request
// resource that the pipeline needs.
type pullRequestResponse struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	State  string `json:"state"` // "open" or "closed"
	Base   refInfo `json:"base"`
	Head   refInfo `json:"head"`
}

type refInfo struct {
	Ref string `json:"ref"`
	SHA string `json:"sha"`
}

// createCommentRequest is the payload for posting an issue comment.
type createCommentRequest struct {
	Body string `json:"body"`
}

// CommentResponse describes the created comment.
type CommentResponse struct {
	ID      int64  `json:"id"`
	HTMLURL string `json:"html_url"`
}

// GitHubErrorResponse represents GitHub's error response format.
type GitHubErrorResponse struct {
	Message string        `json:"message"`
	Errors  []GitHubError `json:"errors,omitempty"`
}

// GitHubError represents a detailed validation error.
type GitHubError struct {
	Resource string `json:"resource,omitempty"`
	Field    string `json:"field,omitempty"`
	Code     string `json:"code,omitempty"`
	Message  string `json:"message,omitempty"`
}
