// Package entropy measures the information entropy of a repository's change
// history: how concentrated or dispersed line-level edits are across files,
// following the change-complexity approach of Hassan (2009).
package entropy

import (
	"context"
	"math"

	"github.com/software-gardening/almanack/internal/vcs"
)

// Analyzer computes change entropy and history complexity for a repository.
type Analyzer struct {
	opener vcs.Opener
}

// Option is a functional option for configuring Analyzer.
type Option func(*Analyzer)

// WithOpener sets the VCS opener (useful for testing).
func WithOpener(opener vcs.Opener) Option {
	return func(a *Analyzer) {
		a.opener = opener
	}
}

// New creates a new entropy analyzer.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		opener: vcs.DefaultOpener(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// NormalizedEntropy calculates per-file Shannon entropy of line changes
// between two commits, normalized by the total changed lines across the
// requested files. Only files that appear in the diff (and in fileNames)
// appear in the result. A file carrying all the changes scores 0: its share
// is certain, so it contributes no uncertainty.
func (a *Analyzer) NormalizedEntropy(ctx context.Context, repoPath, source, target string, fileNames []string) (map[string]float64, error) {
	_, sourceCommit, targetCommit, err := a.resolveRange(repoPath, source, target)
	if err != nil {
		return nil, err
	}

	locChanges, err := diffBetween(sourceCommit, targetCommit, newFileSet(fileNames))
	if err != nil {
		return nil, err
	}
	return normalizedEntropy(locChanges), nil
}

// AggregateEntropy computes the aggregate normalized entropy between two
// commits: the sum of per-file entropies divided by the number of requested
// file names. Files that were requested but never changed still count in
// the divisor, pulling the aggregate down. An empty fileNames yields 0.
func (a *Analyzer) AggregateEntropy(ctx context.Context, repoPath, source, target string, fileNames []string) (float64, error) {
	perFile, err := a.NormalizedEntropy(ctx, repoPath, source, target, fileNames)
	if err != nil {
		return 0, err
	}
	if len(fileNames) == 0 {
		return 0, nil
	}
	var total float64
	for _, e := range perFile {
		total += e
	}
	return total / float64(len(fileNames)), nil
}

// HistoryComplexityWithDecay computes the decayed history complexity metric
// (HCM) per file over the commits reachable from target down to, but not
// including, source. Commit events are grouped into burst periods by the
// quiet window; each period's Shannon entropy is credited in full to every
// file that changed in it, weighted by exp(-age_hours/decay_factor) relative
// to the most recent period. The result contains an entry for every
// requested file name, 0 when the file never changed in any period.
func (a *Analyzer) HistoryComplexityWithDecay(ctx context.Context, repoPath, source, target string, fileNames []string, cfg Config) (map[string]float64, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	repo, sourceCommit, targetCommit, err := a.resolveRange(repoPath, source, target)
	if err != nil {
		return nil, err
	}

	events, err := collectCommitEvents(ctx, repo, sourceCommit, targetCommit, newFileSet(fileNames))
	if err != nil {
		return nil, err
	}

	result := make(map[string]float64, len(fileNames))
	for _, name := range fileNames {
		result[name] = 0.0
	}

	periods := periodize(events, cfg.QuietTime)
	if len(periods) == 0 {
		return result, nil
	}

	currentTime := periods[0].End
	for _, p := range periods {
		if p.End > currentTime {
			currentTime = p.End
		}
	}

	const secondsPerHour = 3600.0
	for _, p := range periods {
		total := p.TotalChanges()
		if total <= 0 {
			continue
		}

		var periodEntropy float64
		for _, changed := range p.Changes {
			if changed > 0 {
				prob := float64(changed) / float64(total)
				periodEntropy -= prob * math.Log2(prob)
			}
		}

		ageInHours := float64(currentTime-p.End) / secondsPerHour
		decayWeight := math.Exp(-(ageInHours / cfg.DecayFactor))

		for name, changed := range p.Changes {
			if _, ok := result[name]; ok && changed > 0 {
				result[name] += decayWeight * periodEntropy
			}
		}
	}

	return result, nil
}

// AggregateHistoryComplexityWithDecay returns the mean per-file history
// complexity over the requested file names, or 0 for an empty list.
func (a *Analyzer) AggregateHistoryComplexityWithDecay(ctx context.Context, repoPath, source, target string, fileNames []string, cfg Config) (float64, error) {
	perFile, err := a.HistoryComplexityWithDecay(ctx, repoPath, source, target, fileNames, cfg)
	if err != nil {
		return 0, err
	}
	if len(fileNames) == 0 {
		return 0, nil
	}
	var total float64
	for _, score := range perFile {
		total += score
	}
	return total / float64(len(fileNames)), nil
}

// EditedFiles returns the union of old-side and new-side paths in the diff
// between two commits.
func (a *Analyzer) EditedFiles(ctx context.Context, repoPath, source, target string) ([]string, error) {
	_, sourceCommit, targetCommit, err := a.resolveRange(repoPath, source, target)
	if err != nil {
		return nil, err
	}
	return editedFiles(sourceCommit, targetCommit)
}

// Close releases any resources held by the analyzer.
func (a *Analyzer) Close() {
}

// resolveRange opens the repository and resolves both endpoint revisions.
func (a *Analyzer) resolveRange(repoPath, source, target string) (vcs.Repository, vcs.Commit, vcs.Commit, error) {
	repo, err := a.opener.PlainOpen(repoPath)
	if err != nil {
		return nil, nil, nil, err
	}

	sourceCommit, err := repo.ResolveRevision(source)
	if err != nil {
		return nil, nil, nil, err
	}
	targetCommit, err := repo.ResolveRevision(target)
	if err != nil {
		return nil, nil, nil, err
	}
	return repo, sourceCommit, targetCommit, nil
}

// normalizedEntropy computes -p*log2(p) per file over a change distribution.
// Zero counts and zero totals score 0 rather than erroring.
func normalizedEntropy(locChanges map[string]int) map[string]float64 {
	var total int
	for _, changed := range locChanges {
		total += changed
	}

	result := make(map[string]float64, len(locChanges))
	for name, changed := range locChanges {
		if changed == 0 || total == 0 {
			result[name] = 0.0
			continue
		}
		prob := float64(changed) / float64(total)
		result[name] = -(prob * math.Log2(prob))
	}
	return result
}

// newFileSet builds a membership set from a list of repository-relative paths.
func newFileSet(fileNames []string) map[string]struct{} {
	set := make(map[string]struct{}, len(fileNames))
	for _, name := range fileNames {
		set[name] = struct{}{}
	}
	return set
}
