// Package source fetches the application checkout that a run deploys.
package source

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"

	"skiff/internal/deploy"
)

// FetchOptions describes where the application source lives.
type FetchOptions struct {
	RepoURL string
	Branch  string // empty means the remote default branch
	Token   string // empty means anonymous access
	DestDir string
}

// Fetch makes DestDir an up-to-date checkout of the repository: a fresh
// destination is cloned, an existing clone is pulled. It returns the
// checkout directory.
func Fetch(ctx context.Context, opts FetchOptions) (string, error) {
	if strings.TrimSpace(opts.RepoURL) == "" {
		return "", errors.New("repository URL is required")
	}

	if _, err := os.Stat(filepath.Join(opts.DestDir, git.GitDirName)); err == nil {
		if err := pull(ctx, opts); err != nil {
			return "", err
		}
		return opts.DestDir, nil
	}

	cloneOpts := &git.CloneOptions{
		URL:   opts.RepoURL,
		Depth: 1,
		Auth:  auth(opts.Token),
	}
	if strings.TrimSpace(opts.Branch) != "" {
		cloneOpts.ReferenceName = plumbing.NewBranchReferenceName(opts.Branch)
		cloneOpts.SingleBranch = true
	}

	if _, err := git.PlainCloneContext(ctx, opts.DestDir, false, cloneOpts); err != nil {
		return "", fmt.Errorf("clone %s: %w", opts.RepoURL, err)
	}
	return opts.DestDir, nil
}

func pull(ctx context.Context, opts FetchOptions) error {
	repo, err := git.PlainOpen(opts.DestDir)
	if err != nil {
		return fmt.Errorf("open checkout %s: %w", opts.DestDir, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("open worktree %s: %w", opts.DestDir, err)
	}

	pullOpts := &git.PullOptions{
		RemoteName: git.DefaultRemoteName,
		Auth:       auth(opts.Token),
	}
	if strings.TrimSpace(opts.Branch) != "" {
		pullOpts.ReferenceName = plumbing.NewBranchReferenceName(opts.Branch)
		pullOpts.SingleBranch = true
	}

	if err := wt.PullContext(ctx, pullOpts); err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("pull %s: %w", opts.RepoURL, err)
	}
	return nil
}

func auth(token string) transport.AuthMethod {
	if strings.TrimSpace(token) == "" {
		return nil
	}
	// Forge HTTPS token auth: the token goes in the password slot and the
	// username only has to be non-empty.
	return &http.BasicAuth{Username: "token", Password: token}
}

// HasBuildDescriptor reports whether the checkout carries the build file
// the engine needs.
func HasBuildDescriptor(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, deploy.BuildDescriptor))
	return err == nil && info.Mode().IsRegular()
}
