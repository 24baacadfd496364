package vcs

import (
	"context"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"
)

// Clone clones the repository at url into a new "repo" directory under a
// temporary parent and returns the checkout path. The caller owns the
// returned directory and should remove it when done.
func Clone(ctx context.Context, url string) (string, error) {
	tempDir, err := os.MkdirTemp("", "almanack-clone-")
	if err != nil {
		return "", err
	}

	repoPath := filepath.Join(tempDir, "repo")
	if _, err := git.PlainCloneContext(ctx, repoPath, false, &git.CloneOptions{
		URL: url,
	}); err != nil {
		os.RemoveAll(tempDir)
		return "", err
	}
	return repoPath, nil
}

// CloneInto clones the repository at url into dir.
func CloneInto(ctx context.Context, url, dir string) (string, error) {
	if _, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL: url,
	}); err != nil {
		return "", err
	}
	return dir, nil
}
