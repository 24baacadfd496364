package entropy

import (
	"context"
	"errors"

	"github.com/software-gardening/almanack/internal/vcs"
)

// errStopWalk terminates a commit walk early without reporting an error.
var errStopWalk = errors.New("stop walk")

// collectCommitEvents walks commits newest-first from target down to, but
// not including, source, and collects a CommitEvent for every commit that
// touched at least one tracked file. Source is an exclusive lower bound:
// its ancestors are never visited.
func collectCommitEvents(ctx context.Context, repo vcs.Repository, source, target vcs.Commit, tracked map[string]struct{}) ([]CommitEvent, error) {
	iter, err := repo.Log(&vcs.LogOptions{
		From:  target.Hash(),
		Order: vcs.OrderCommitterTime,
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var events []CommitEvent
	err = iter.ForEach(func(commit vcs.Commit) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if commit.Hash() == source.Hash() {
			return errStopWalk
		}

		changes, err := diffAgainstParent(commit, tracked)
		if err != nil {
			return err
		}
		if len(changes) == 0 {
			return nil
		}

		events = append(events, CommitEvent{
			Timestamp: commit.Author().When.Unix(),
			Changes:   changes,
		})
		return nil
	})
	if err != nil && !errors.Is(err, errStopWalk) {
		return nil, err
	}
	return events, nil
}
