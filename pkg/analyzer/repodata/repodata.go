// Package repodata computes the one-shot repository metrics table: commit
// range, community-health checks and change entropy between the first and
// most recent commits.
package repodata

import (
	"context"
	"path/filepath"
	"sort"
	"time"

	"github.com/software-gardening/almanack/internal/vcs"
	"github.com/software-gardening/almanack/pkg/analyzer/entropy"
	"github.com/software-gardening/almanack/pkg/analyzer/health"
)

// Analyzer combines the entropy engine and health checks into a repository
// summary.
type Analyzer struct {
	opener  vcs.Opener
	entropy *entropy.Analyzer
	health  *health.Analyzer
}

// Option is a functional option for configuring Analyzer.
type Option func(*Analyzer)

// WithOpener sets the VCS opener (useful for testing).
func WithOpener(opener vcs.Opener) Option {
	return func(a *Analyzer) {
		a.opener = opener
		a.entropy = entropy.New(entropy.WithOpener(opener))
		a.health = health.New(health.WithOpener(opener))
	}
}

// New creates a new repodata analyzer.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		opener:  vcs.DefaultOpener(),
		entropy: entropy.New(),
		health:  health.New(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze computes the full metrics table for the repository at repoPath.
// The entropy range runs from the first commit to the most recent commit
// reachable from HEAD.
func (a *Analyzer) Analyze(ctx context.Context, repoPath string) (*Analysis, error) {
	absPath, err := filepath.Abs(repoPath)
	if err != nil {
		absPath = repoPath
	}

	repo, err := a.opener.PlainOpen(repoPath)
	if err != nil {
		return nil, err
	}

	first, recent, count, err := commitRange(ctx, repo)
	if err != nil {
		return nil, err
	}

	firstHash := first.Hash().String()
	recentHash := recent.Hash().String()

	fileNames, err := a.entropy.EditedFiles(ctx, repoPath, firstHash, recentHash)
	if err != nil {
		return nil, err
	}

	aggregate, err := a.entropy.AggregateEntropy(ctx, repoPath, firstHash, recentHash, fileNames)
	if err != nil {
		return nil, err
	}
	perFile, err := a.entropy.NormalizedEntropy(ctx, repoPath, firstHash, recentHash, fileNames)
	if err != nil {
		return nil, err
	}

	healthAnalysis, err := a.health.Analyze(ctx, repoPath)
	if err != nil {
		return nil, err
	}

	files := make([]FileEntropy, 0, len(perFile))
	for path, e := range perFile {
		files = append(files, FileEntropy{Path: path, Entropy: e})
	}
	sort.Slice(files, func(i, j int) bool {
		if files[i].Entropy != files[j].Entropy {
			return files[i].Entropy > files[j].Entropy
		}
		return files[i].Path < files[j].Path
	})

	return &Analysis{
		GeneratedAt:      time.Now().UTC(),
		RepositoryRoot:   absPath,
		CommitCount:      count,
		FileCount:        len(fileNames),
		FirstCommitDate:  commitDate(first),
		RecentCommitDate: commitDate(recent),
		Health:           *healthAnalysis,
		AggregateEntropy: aggregate,
		Files:            files,
		Summary:          buildSummary(files),
	}, nil
}

// Close releases any resources held by the analyzer.
func (a *Analyzer) Close() {
	a.entropy.Close()
	a.health.Close()
}

// commitRange walks the full history from HEAD and returns the first
// (oldest) commit, the most recent commit, and the total commit count.
func commitRange(ctx context.Context, repo vcs.Repository) (first, recent vcs.Commit, count int, err error) {
	head, err := repo.Head()
	if err != nil {
		return nil, nil, 0, err
	}

	iter, err := repo.Log(&vcs.LogOptions{From: head.Hash()})
	if err != nil {
		return nil, nil, 0, err
	}
	defer iter.Close()

	err = iter.ForEach(func(c vcs.Commit) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if recent == nil {
			recent = c
		}
		first = c
		count++
		return nil
	})
	if err != nil {
		return nil, nil, 0, err
	}
	return first, recent, count, nil
}

// commitDate formats a commit's authored time as a UTC date string.
func commitDate(c vcs.Commit) string {
	return c.Author().When.UTC().Format("2006-01-02")
}
