package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/bkyoung/pr-reviewer/internal/adapter/actions"
	"github.com/bkyoung/pr-reviewer/internal/adapter/cli"
	"github.com/bkyoung/pr-reviewer/internal/adapter/git"
	githubadapter "github.com/bkyoung/pr-reviewer/internal/adapter/github"
	"github.com/bkyoung/pr-reviewer/internal/adapter/llm/anthropic"
	llmhttp "github.com/bkyoung/pr-reviewer/internal/adapter/llm/http"
	"github.com/bkyoung/pr-reviewer/internal/adapter/observability"
	"github.com/bkyoung/pr-reviewer/internal/config"
	usecasegithub "github.com/bkyoung/pr-reviewer/internal/usecase/github"
	"github.com/bkyoung/pr-reviewer/internal/usecase/review"
	"github.com/bkyoung/pr-reviewer/internal/version"
)

func main() {
	// Single top-level failure boundary: every otherwise-unhandled error
	// funnels into a non-zero exit with secrets redacted from the message.
	if err := run(); err != nil {
		log.Println(llmhttp.RedactURLSecrets(err.Error()))
		os.Exit(1)
	}
}

func run() error {
	// Create cancellable context with signal handling for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(config.LoaderOptions{
		ConfigPaths: defaultConfigPaths(),
		FileName:    "reviewer",
		EnvPrefix:   "REVIEWER",
	})
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	// Pre-flight input checks, before any network or process call.
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validate inputs: %w", err)
	}
	if warning := cfg.KeyFormatWarning(); warning != "" {
		log.Printf("warning: %s", warning)
	}

	logger := buildLogger(cfg.Observability.Logging)
	metrics := llmhttp.NewDefaultMetrics()

	repoDir := cfg.Git.RepositoryDir
	if repoDir == "" {
		repoDir = "."
	}
	gitEngine := git.NewEngine(repoDir)

	githubClient := githubadapter.NewClient(cfg.GitHub.Token, cfg.GitHub.Owner(), cfg.GitHub.Repo())
	if cfg.GitHub.BaseURL != "" {
		githubClient.SetBaseURL(cfg.GitHub.BaseURL)
	}
	githubClient.SetRetryConfig(llmhttp.BuildRetryConfig(cfg.HTTP))
	if logger != nil {
		githubClient.SetLogger(logger)
	}

	anthropicClient := anthropic.NewHTTPClient(cfg.Anthropic.APIKey, cfg.Anthropic.Model)
	if cfg.Anthropic.BaseURL != "" {
		anthropicClient.SetBaseURL(cfg.Anthropic.BaseURL)
	}
	anthropicClient.SetTimeout(llmhttp.ParseTimeout(cfg.HTTP.Timeout, anthropic.CallTimeout))
	anthropicClient.SetRetryConfig(llmhttp.BuildInferenceRetryConfig(cfg.HTTP))
	if logger != nil {
		anthropicClient.SetLogger(logger)
	}
	anthropicClient.SetMetrics(metrics)

	// Step outputs are only available under the Actions runner; local runs
	// proceed without them.
	var outputs review.OutputWriter
	if writer, err := actions.NewOutputWriter(); err == nil {
		outputs = writer
	} else {
		log.Printf("warning: step outputs disabled: %v", err)
	}

	var reviewLogger review.Logger
	if logger != nil {
		reviewLogger = observability.NewReviewLogger(logger)
	}

	orchestrator := review.NewOrchestrator(review.Deps{
		PullRequests: githubClient,
		DiffEngine:   gitEngine,
		Reviewer:     anthropic.NewProvider(anthropicClient),
		Poster:       usecasegithub.NewReviewPoster(githubClient),
		Outputs:      outputs,
		Logger:       reviewLogger,
		MaxDiffBytes: cfg.Review.MaxDiffBytes,
	})

	defaultPRNumber, err := actions.PullRequestNumberFromEvent()
	if err != nil {
		log.Printf("warning: could not read event payload: %v", err)
	}

	root := cli.NewRootCommand(cli.Dependencies{
		Runner:          orchestrator,
		DefaultPRNumber: defaultPRNumber,
		Version:         version.Value(),
	})

	start := time.Now()
	if err := root.ExecuteContext(ctx); err != nil {
		if errors.Is(err, cli.ErrVersionRequested) {
			return nil
		}
		return fmt.Errorf("review run failed after %.1fs: %w", time.Since(start).Seconds(), err)
	}
	return nil
}

func buildLogger(cfg config.LoggingConfig) llmhttp.Logger {
	if !cfg.Enabled {
		return nil
	}

	logLevel := llmhttp.LogLevelInfo
	switch cfg.Level {
	case "debug":
		logLevel = llmhttp.LogLevelDebug
	case "error":
		logLevel = llmhttp.LogLevelError
	}

	// Human-readable logs on a terminal, JSON under CI.
	logFormat := llmhttp.LogFormatJSON
	if cfg.Format == "human" || (cfg.Format == "" && observability.IsOutputTerminal()) {
		logFormat = llmhttp.LogFormatHuman
	}

	return llmhttp.NewDefaultLogger(logLevel, logFormat, cfg.RedactAPIKeys)
}

func defaultConfigPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "reviewer"))
	}
	return paths
}

// Compile-time interface compliance checks
var _ review.PullRequestFetcher = (*githubadapter.Client)(nil)
var _ review.DiffEngine = (*git.Engine)(nil)
var _ review.Reviewer = (*anthropic.Provider)(nil)
var _ review.CommentPoster = (*usecasegithub.ReviewPoster)(nil)
var _ review.OutputWriter = (*actions.OutputWriter)(nil)
