// Package gitsource fetches remote source repositories into the build
// workspace so their modules can join the scan search path.
package gitsource

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/docsmith/internal/config"
	"git.home.luguber.info/inful/docsmith/internal/logfields"
	"git.home.luguber.info/inful/docsmith/internal/retry"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Client handles Git operations against the workspace.
type Client struct {
	workspaceDir string
	policy       retry.Policy
}

// NewClient creates a Git client rooted at the given workspace directory.
func NewClient(workspaceDir string, policy retry.Policy) *Client {
	return &Client{
		workspaceDir: workspaceDir,
		policy:       policy,
	}
}

// FetchFailure records a repository that could not be fetched. Fetch failures
// do not abort the build; the modules resolved from other sources still get
// documented.
type FetchFailure struct {
	Repo string
	Err  error
}

func (f FetchFailure) Error() string {
	return fmt.Sprintf("fetch %s: %v", f.Repo, f.Err)
}

func (f FetchFailure) Unwrap() error { return f.Err }

// FetchAll clones or updates every configured repository and returns the
// local source paths they contribute, in configuration order. Failures are
// collected rather than aborting the remaining fetches.
func (c *Client) FetchAll(ctx context.Context, repos []config.Repository) ([]string, []FetchFailure) {
	var paths []string
	var failures []FetchFailure

	for _, repo := range repos {
		checkout, err := c.CloneOrUpdate(ctx, repo)
		if err != nil {
			slog.Warn("Failed to fetch repository",
				logfields.Name(repo.Name),
				logfields.URL(repo.URL),
				logfields.Error(err))
			failures = append(failures, FetchFailure{Repo: repo.Name, Err: err})
			continue
		}
		if repo.Path != "" {
			checkout = filepath.Join(checkout, filepath.FromSlash(repo.Path))
		}
		paths = append(paths, checkout)
	}

	return paths, failures
}

// CloneOrUpdate updates an existing checkout or clones the repository when no
// checkout exists yet.
func (c *Client) CloneOrUpdate(ctx context.Context, repo config.Repository) (string, error) {
	repoPath := filepath.Join(c.workspaceDir, repo.Name)

	if _, err := os.Stat(filepath.Join(repoPath, ".git")); err == nil {
		slog.Debug("Updating existing repository", logfields.Name(repo.Name), logfields.Path(repoPath))
		return c.withRetry(ctx, "pull", repo.Name, func() (string, error) {
			return c.updateExisting(ctx, repoPath, repo)
		})
	}

	slog.Debug("Repository not present, cloning", logfields.Name(repo.Name))
	return c.withRetry(ctx, "clone", repo.Name, func() (string, error) {
		return c.clone(ctx, repoPath, repo)
	})
}

func (c *Client) clone(ctx context.Context, repoPath string, repo config.Repository) (string, error) {
	// A half-finished previous attempt would confuse PlainClone.
	if err := os.RemoveAll(repoPath); err != nil {
		return "", fmt.Errorf("failed to remove existing directory: %w", err)
	}

	cloneOptions := &git.CloneOptions{
		URL: repo.URL,
	}
	if repo.Branch != "" {
		cloneOptions.ReferenceName = plumbing.ReferenceName("refs/heads/" + repo.Branch)
		cloneOptions.SingleBranch = true
	}

	if repo.Auth != nil {
		auth, err := authMethod(repo.Auth)
		if err != nil {
			return "", fmt.Errorf("failed to setup authentication: %w", err)
		}
		cloneOptions.Auth = auth
	}

	repository, err := git.PlainCloneContext(ctx, repoPath, false, cloneOptions)
	if err != nil {
		return "", fmt.Errorf("failed to clone repository %s: %w", repo.URL, err)
	}

	if ref, err := repository.Head(); err == nil {
		slog.Info("Repository cloned",
			logfields.Name(repo.Name),
			logfields.URL(repo.URL),
			slog.String("commit", shortHash(ref.Hash().String())),
			logfields.Path(repoPath))
	} else {
		slog.Info("Repository cloned",
			logfields.Name(repo.Name),
			logfields.URL(repo.URL),
			logfields.Path(repoPath))
	}

	return repoPath, nil
}

func (c *Client) updateExisting(ctx context.Context, repoPath string, repo config.Repository) (string, error) {
	repository, err := git.PlainOpen(repoPath)
	if err != nil {
		return "", fmt.Errorf("failed to open repository: %w", err)
	}

	worktree, err := repository.Worktree()
	if err != nil {
		return "", fmt.Errorf("failed to get worktree: %w", err)
	}

	pullOptions := &git.PullOptions{
		RemoteName: "origin",
	}
	if repo.Branch != "" {
		pullOptions.ReferenceName = plumbing.ReferenceName("refs/heads/" + repo.Branch)
	}

	if repo.Auth != nil {
		auth, err := authMethod(repo.Auth)
		if err != nil {
			return "", fmt.Errorf("failed to setup authentication: %w", err)
		}
		pullOptions.Auth = auth
	}

	err = worktree.PullContext(ctx, pullOptions)
	if err != nil && err != git.NoErrAlreadyUpToDate {
		return "", fmt.Errorf("failed to pull repository %s: %w", repo.URL, err)
	}

	if err == git.NoErrAlreadyUpToDate {
		slog.Info("Repository already up to date", logfields.Name(repo.Name))
	} else if ref, herr := repository.Head(); herr == nil {
		slog.Info("Repository updated",
			logfields.Name(repo.Name),
			slog.String("commit", shortHash(ref.Hash().String())))
	}

	return repoPath, nil
}

// EnsureWorkspace creates the workspace directory if it doesn't exist.
func (c *Client) EnsureWorkspace() error {
	if err := os.MkdirAll(c.workspaceDir, 0o750); err != nil {
		return fmt.Errorf("failed to create workspace directory: %w", err)
	}
	return nil
}

func shortHash(h string) string {
	if len(h) > 8 {
		return h[:8]
	}
	return h
}
