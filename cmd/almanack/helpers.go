package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/software-gardening/almanack/internal/output"
	"github.com/software-gardening/almanack/internal/vcs"
)

// getRepoPath returns the repository path from the first positional
// argument, defaulting to the current directory.
func getRepoPath(c *cli.Context) (string, error) {
	path := "."
	if c.Args().Len() > 0 {
		path = c.Args().First()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("invalid path %s: %w", path, err)
	}
	return abs, nil
}

// newFormatter builds a formatter from the global flags.
func newFormatter(c *cli.Context) (*output.Formatter, error) {
	return output.NewFormatter(output.ParseFormat(c.String("format")), c.String("output"), true)
}

// resolveRefs fills in defaults for a commit range: target defaults to
// HEAD and source to the repository's first commit, covering the whole
// history.
func resolveRefs(ctx context.Context, repoPath, source, target string) (string, string, error) {
	if target == "" {
		target = "HEAD"
	}
	if source != "" {
		return source, target, nil
	}

	first, err := firstCommitHash(ctx, repoPath)
	if err != nil {
		return "", "", err
	}
	return first, target, nil
}

// firstCommitHash walks from HEAD and returns the oldest commit hash.
func firstCommitHash(ctx context.Context, repoPath string) (string, error) {
	repo, err := vcs.DefaultOpener().PlainOpen(repoPath)
	if err != nil {
		return "", err
	}

	head, err := repo.Head()
	if err != nil {
		return "", err
	}

	iter, err := repo.Log(&vcs.LogOptions{From: head.Hash()})
	if err != nil {
		return "", err
	}
	defer iter.Close()

	var last vcs.Commit
	err = iter.ForEach(func(c vcs.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		last = c
		return nil
	})
	if err != nil {
		return "", err
	}
	if last == nil {
		return "", fmt.Errorf("repository %s has no commits", repoPath)
	}
	return last.Hash().String(), nil
}
