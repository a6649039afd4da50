// Package git produces diffs between two revisions of a local repository.
package git

import (
	"context"
	"fmt"

	goGit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Engine implements the DiffEngine port backed by go-git.
type Engine struct {
	repoDir string
}

// NewEngine constructs a Git engine for the provided repository directory.
func NewEngine(repoDir string) *Engine {
	return &Engine{repoDir: repoDir}
}

// Diff returns the unified diff between the base and head revisions.
// Revisions may be SHAs, branch names, or remote refs. An empty string
// means the revisions are identical.
func (e *Engine) Diff(ctx context.Context, baseRev, headRev string) (string, error) {
	repo, err := goGit.PlainOpenWithOptions(e.repoDir, &goGit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", fmt.Errorf("open repo: %w", err)
	}

	baseCommit, err := resolveCommit(repo, baseRev)
	if err != nil {
		return "", fmt.Errorf("resolve base revision: %w", err)
	}

	headCommit, err := resolveCommit(repo, headRev)
	if err != nil {
		return "", fmt.Errorf("resolve head revision: %w", err)
	}

	patch, err := baseCommit.PatchContext(ctx, headCommit)
	if err != nil {
		return "", fmt.Errorf("compute patch: %w", err)
	}

	return patch.String(), nil
}

func resolveCommit(repo *goGit.Repository, rev string) (*object.Commit, error) {
	candidates := []string{
		rev,
		fmt.Sprintf("refs/heads/%s", rev),
		fmt.Sprintf("refs/remotes/origin/%s", rev),
	}

	var lastErr error
	for _, candidate := range candidates {
		name := plumbing.Revision(candidate)
		hash, err := repo.ResolveRevision(name)
		if err != nil {
			lastErr = err
			continue
		}
		return repo.CommitObject(*hash)
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, fmt.Errorf("unable to resolve revision %s", rev)
}
