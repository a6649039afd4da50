package actions

import (
	"encoding/json"
	"fmt"
	"os"
)

type eventPayload struct {
	PullRequest struct {
		Number int `json:"number"`
	} `json:"pull_request"`
}

// PullRequestNumberFromEvent reads the PR number from the triggering event
// payload (GITHUB_EVENT_PATH). Used as the default when no PR number input
// was supplied and the run was triggered by a pull_request event.
// Returns 0 when the payload is absent or carries no pull request.
func PullRequestNumberFromEvent() (int, error) {
	path := os.Getenv("GITHUB_EVENT_PATH")
	if path == "" {
		return 0, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read event payload: %w", err)
	}

	var payload eventPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return 0, fmt.Errorf("parse event payload: %w", err)
	}

	return payload.PullRequest.Number, nil
}
