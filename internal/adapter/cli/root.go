package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/bkyoung/pr-reviewer/internal/usecase/review"
)

// ErrVersionRequested indicates the user requested the CLI version and no further work should be done.
var ErrVersionRequested = errors.New("version requested")

// Runner defines the dependency required to execute a review run.
type Runner interface {
	Run(ctx context.Context, req review.Request) (review.Outcome, error)
}

// Arguments encapsulates IO writers injected from the host process.
type Arguments struct {
	OutWriter io.Writer
	ErrWriter io.Writer
}

// Dependencies captures the collaborators for the CLI.
type Dependencies struct {
	Runner          Runner
	Args            Arguments
	DefaultPRNumber int // Usually derived from the triggering event payload
	Version         string
}

// NewRootCommand constructs the root Cobra command. The root command runs
// the review directly: this binary is the whole action.
func NewRootCommand(deps Dependencies) *cobra.Command {
	versionString := deps.Version
	if versionString == "" {
		versionString = "v0.0.0"
	}

	var prNumber int
	var showVersion bool

	root := &cobra.Command{
		Use:   "reviewer",
		Short: "AI review of a pull request, published as a PR comment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), versionString)
				return ErrVersionRequested
			}

			resolved := prNumber
			if !cmd.Flags().Changed("pr-number") && deps.DefaultPRNumber > 0 {
				resolved = deps.DefaultPRNumber
			}
			if resolved <= 0 {
				return fmt.Errorf("pull request number not specified; pass --pr-number or run from a pull_request event")
			}

			outcome, err := deps.Runner.Run(cmd.Context(), review.Request{PRNumber: resolved})
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "review run finished in %.1fs (diff=%d bytes, published=%t)\n",
				outcome.Duration.Seconds(), outcome.DiffSizeBytes, outcome.Published)
			return nil
		},
	}
	root.SilenceUsage = true
	root.SilenceErrors = true

	outWriter := deps.Args.OutWriter
	if outWriter == nil {
		outWriter = os.Stdout
	}
	errWriter := deps.Args.ErrWriter
	if errWriter == nil {
		errWriter = os.Stderr
	}
	root.SetOut(outWriter)
	root.SetErr(errWriter)

	root.Flags().IntVar(&prNumber, "pr-number", 0, "Pull request number to review (defaults from the triggering event)")
	root.Flags().BoolVarP(&showVersion, "version", "v", false, "Show version and exit")

	return root
}
