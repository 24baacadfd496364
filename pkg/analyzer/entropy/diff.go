package entropy

import (
	"strings"

	"github.com/software-gardening/almanack/internal/vcs"
)

// diffBetween computes added+deleted line counts per tracked file across the
// full diff between two arbitrary commits. Renames are tracked by their
// new-side path; deletions fall back to the old-side path.
func diffBetween(source, target vcs.Commit, tracked map[string]struct{}) (map[string]int, error) {
	sourceTree, err := source.Tree()
	if err != nil {
		return nil, err
	}
	targetTree, err := target.Tree()
	if err != nil {
		return nil, err
	}

	changes, err := sourceTree.Diff(targetTree)
	if err != nil {
		return nil, err
	}
	return countTrackedChanges(changes, tracked), nil
}

// diffAgainstParent computes added+deleted line counts per tracked file for
// a single commit relative to its first parent. Root commits have nothing
// to diff against and yield an empty map.
func diffAgainstParent(commit vcs.Commit, tracked map[string]struct{}) (map[string]int, error) {
	if commit.NumParents() == 0 {
		return map[string]int{}, nil
	}

	parent, err := commit.Parent(0)
	if err != nil {
		return nil, err
	}
	parentTree, err := parent.Tree()
	if err != nil {
		return nil, err
	}
	commitTree, err := commit.Tree()
	if err != nil {
		return nil, err
	}

	changes, err := parentTree.Diff(commitTree)
	if err != nil {
		return nil, err
	}
	return countTrackedChanges(changes, tracked), nil
}

// countTrackedChanges folds a set of tree changes into per-file changed-line
// counts, restricted to tracked paths.
func countTrackedChanges(changes vcs.Changes, tracked map[string]struct{}) map[string]int {
	changedLines := make(map[string]int)
	for _, change := range changes {
		path := change.ToName()
		if path == "" {
			path = change.FromName() // deleted file
		}
		if _, ok := tracked[path]; !ok {
			continue
		}

		patch, err := change.Patch()
		if err != nil {
			continue // binary or unreadable patch contributes nothing
		}
		n := countPatchLines(patch)
		if n > 0 {
			changedLines[path] += n
		}
	}
	return changedLines
}

// countPatchLines counts added plus deleted lines across all file patches.
// Binary file patches contribute 0.
func countPatchLines(patch vcs.Patch) int {
	var total int
	for _, fp := range patch.FilePatches() {
		if fp.IsBinary() {
			continue
		}
		for _, chunk := range fp.Chunks() {
			switch chunk.Type() {
			case vcs.ChunkAdd, vcs.ChunkDelete:
				total += countLines(chunk.Content())
			}
		}
	}
	return total
}

// countLines counts the lines in a chunk's content. A trailing fragment
// without a newline still counts as a line.
func countLines(content string) int {
	if content == "" {
		return 0
	}
	n := strings.Count(content, "\n")
	if !strings.HasSuffix(content, "\n") {
		n++
	}
	return n
}

// editedFiles returns the union of old-side and new-side paths present in
// the diff between two commits.
func editedFiles(source, target vcs.Commit) ([]string, error) {
	sourceTree, err := source.Tree()
	if err != nil {
		return nil, err
	}
	targetTree, err := target.Tree()
	if err != nil {
		return nil, err
	}

	changes, err := sourceTree.Diff(targetTree)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var names []string
	for _, change := range changes {
		for _, path := range []string{change.FromName(), change.ToName()} {
			if path == "" {
				continue
			}
			if _, ok := seen[path]; !ok {
				seen[path] = struct{}{}
				names = append(names, path)
			}
		}
	}
	return names, nil
}
