// Package review sequences the pull request review pipeline: fetch PR
// metadata, produce and bound the diff, obtain the model review, publish
// it, and report step outputs.
package review

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bkyoung/pr-reviewer/internal/diff"
	"github.com/bkyoung/pr-reviewer/internal/domain"
)

// NoChangesMessage is the review output when the diff is empty.
const NoChangesMessage = "No changes to review"

// Output keys reported to the caller.
const (
	OutputDiffSize = "diff_size"
	OutputReview   = "review"
)

// PullRequestFetcher retrieves PR metadata from the hosting platform.
type PullRequestFetcher interface {
	GetPullRequest(ctx context.Context, number int) (domain.PullRequest, error)
}

// DiffEngine produces a unified diff between two revisions.
type DiffEngine interface {
	Diff(ctx context.Context, baseRev, headRev string) (string, error)
}

// Reviewer obtains a model review for a bounded diff payload. A nil review
// with nil error means there was nothing to review.
type Reviewer interface {
	Review(ctx context.Context, payload diff.Payload) (*domain.Review, error)
}

// CommentPoster publishes the review comment to the PR.
type CommentPoster interface {
	PostComment(ctx context.Context, pr domain.PullRequest, review domain.Review) error
}

// OutputWriter reports a step output to the caller.
type OutputWriter interface {
	Write(key, value string) error
}

// Logger provides structured logging for pipeline progress.
type Logger interface {
	LogInfo(ctx context.Context, message string, fields map[string]interface{})
	LogWarning(ctx context.Context, message string, fields map[string]interface{})
}

// Deps captures the collaborators for the orchestrator.
type Deps struct {
	PullRequests PullRequestFetcher
	DiffEngine   DiffEngine
	Reviewer     Reviewer
	Poster       CommentPoster
	Outputs      OutputWriter // Optional: step outputs are skipped when nil
	Logger       Logger       // Optional
	MaxDiffBytes int          // Zero uses diff.MaxBytes
}

// Request is the inbound run request.
type Request struct {
	PRNumber int
}

// Outcome is the terminal record of a run. Exactly one of three shapes
// holds: a review was produced, the diff was empty (ReviewText is the
// no-changes message), or Run returned an error.
type Outcome struct {
	DiffSizeBytes int
	ReviewText    string
	Published     bool
	Duration      time.Duration
}

// Orchestrator implements the review pipeline.
type Orchestrator struct {
	deps Deps
}

// NewOrchestrator wires the orchestrator dependencies.
func NewOrchestrator(deps Deps) *Orchestrator {
	if deps.MaxDiffBytes == 0 {
		deps.MaxDiffBytes = diff.MaxBytes
	}
	return &Orchestrator{deps: deps}
}

// Run executes the pipeline for one pull request. Failures carry the name
// of the stage that produced them; the original error is preserved via
// wrapping.
func (o *Orchestrator) Run(ctx context.Context, req Request) (Outcome, error) {
	start := time.Now()

	outcome, err := o.run(ctx, req)
	outcome.Duration = time.Since(start)
	return outcome, err
}

func (o *Orchestrator) run(ctx context.Context, req Request) (Outcome, error) {
	// Inputs validated: fails before any network or process call.
	if req.PRNumber <= 0 {
		return Outcome{}, fmt.Errorf("validate inputs: pull request number must be a positive integer, got %d", req.PRNumber)
	}

	pr, err := o.deps.PullRequests.GetPullRequest(ctx, req.PRNumber)
	if err != nil {
		return Outcome{}, fmt.Errorf("fetch pull request: %w", err)
	}
	o.logInfo(ctx, "fetched pull request", map[string]interface{}{
		"number": pr.Number,
		"base":   pr.BaseSHA,
		"head":   pr.HeadSHA,
		"state":  pr.State,
	})

	// Reviews of closed PRs are supported; note it and keep going.
	if pr.IsClosed() {
		o.logWarning(ctx, "pull request is not open, reviewing anyway", map[string]interface{}{
			"number": pr.Number,
			"state":  pr.State,
		})
	}

	rawDiff, err := o.deps.DiffEngine.Diff(ctx, pr.BaseSHA, pr.HeadSHA)
	if err != nil {
		return Outcome{}, fmt.Errorf("compute diff: %w", err)
	}

	if strings.TrimSpace(rawDiff) == "" {
		o.logInfo(ctx, "diff is empty, nothing to review", map[string]interface{}{
			"number": pr.Number,
		})
		outcome := Outcome{DiffSizeBytes: 0, ReviewText: NoChangesMessage}
		if err := o.writeOutputs(outcome); err != nil {
			return outcome, err
		}
		return outcome, nil
	}

	payload := diff.Bound(rawDiff, o.deps.MaxDiffBytes)
	if payload.Truncated {
		o.logWarning(ctx, "diff truncated to size budget", map[string]interface{}{
			"original_bytes":  payload.OriginalSize,
			"effective_bytes": payload.EffectiveSize,
		})
	}

	result, err := o.deps.Reviewer.Review(ctx, payload)
	if err != nil {
		return Outcome{DiffSizeBytes: payload.EffectiveSize}, fmt.Errorf("obtain review: %w", err)
	}

	// A nil review means nothing to review at the client level: report
	// empty review output and never post an empty comment.
	if result == nil {
		outcome := Outcome{DiffSizeBytes: payload.EffectiveSize}
		if err := o.writeOutputs(outcome); err != nil {
			return outcome, err
		}
		return outcome, nil
	}

	// A computed-but-unposted review defeats the purpose, so publish
	// failures are fatal to the run.
	if err := o.deps.Poster.PostComment(ctx, pr, *result); err != nil {
		return Outcome{DiffSizeBytes: payload.EffectiveSize, ReviewText: result.Text},
			fmt.Errorf("publish review: %w", err)
	}
	o.logInfo(ctx, "review published", map[string]interface{}{
		"number":       pr.Number,
		"review_bytes": result.Size,
	})

	outcome := Outcome{
		DiffSizeBytes: payload.EffectiveSize,
		ReviewText:    result.Text,
		Published:     true,
	}
	if err := o.writeOutputs(outcome); err != nil {
		return outcome, err
	}
	return outcome, nil
}

func (o *Orchestrator) writeOutputs(outcome Outcome) error {
	if o.deps.Outputs == nil {
		return nil
	}
	if err := o.deps.Outputs.Write(OutputDiffSize, strconv.Itoa(outcome.DiffSizeBytes)); err != nil {
		return fmt.Errorf("report outputs: %w", err)
	}
	if err := o.deps.Outputs.Write(OutputReview, outcome.ReviewText); err != nil {
		return fmt.Errorf("report outputs: %w", err)
	}
	return nil
}

func (o *Orchestrator) logInfo(ctx context.Context, message string, fields map[string]interface{}) {
	if o.deps.Logger != nil {
		o.deps.Logger.LogInfo(ctx, message, fields)
	}
}

func (o *Orchestrator) logWarning(ctx context.Context, message string, fields map[string]interface{}) {
	if o.deps.Logger != nil {
		o.deps.Logger.LogWarning(ctx, message, fields)
	}
}
