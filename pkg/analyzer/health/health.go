// Package health checks a repository for community-health files: README,
// contributing guidelines, licensing, citation metadata and documentation.
// All checks read the HEAD tree only; nothing touches the working copy or
// the network.
package health

import (
	"context"
	"strings"

	"github.com/software-gardening/almanack/internal/vcs"
)

// Analyzer inspects the HEAD tree of a repository for community-health files.
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

// New creates a new health analyzer.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		opener: vcs.DefaultOpener(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analysis holds the outcome of all health checks.
type Analysis struct {
	IncludesReadme         bool `json:"includes_readme"`
	IncludesContributing   bool `json:"includes_contributing"`
	IncludesCodeOfConduct  bool `json:"includes_code_of_conduct"`
	IncludesLicense        bool `json:"includes_license"`
	IncludesCommonDocs     bool `json:"includes_common_docs"`
	IsCitable              bool `json:"is_citable"`
	DefaultBranchNotMaster bool `json:"default_branch_not_master"`
}

// Analyze runs all health checks against the repository at repoPath.
func (a *Analyzer) Analyze(ctx context.Context, repoPath string) (*Analysis, error) {
	repo, err := a.opener.PlainOpen(repoPath)
	if err != nil {
		return nil, err
	}

	head, err := repo.Head()
	if err != nil {
		return nil, err
	}
	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return nil, err
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, err
	}
	entries, err := tree.Entries()
	if err != nil {
		return nil, err
	}

	return &Analysis{
		IncludesReadme:         fileExists(entries, "readme", nil),
		IncludesContributing:   fileExists(entries, "contributing", nil),
		IncludesCodeOfConduct:  fileExists(entries, "code_of_conduct", nil),
		IncludesLicense:        fileExists(entries, "license", nil),
		IncludesCommonDocs:     includesCommonDocs(entries),
		IsCitable:              isCitable(entries, tree),
		DefaultBranchNotMaster: defaultBranchIsNotMaster(repo),
	}, nil
}

// Close releases any resources held by the analyzer.
func (a *Analyzer) Close() {
}

// fileExists checks whether a root-level file with the given lowercase base
// name exists in the tree, case-insensitively. With a nil extensions list
// any extension matches; otherwise the entry must carry one of the given
// extensions exactly.
func fileExists(entries []vcs.TreeEntry, baseName string, extensions []string) bool {
	for _, entry := range entries {
		if strings.Contains(entry.Path, "/") {
			continue // root level only
		}
		name := strings.ToLower(entry.Path)

		if extensions == nil {
			if base, _, _ := strings.Cut(name, "."); base == baseName {
				return true
			}
			continue
		}
		for _, ext := range extensions {
			if name == baseName+strings.ToLower(ext) {
				return true
			}
		}
	}
	return false
}

// citationMarkers are README fragments that indicate a citation section or
// a DOI shield.
var citationMarkers = []string{
	// markdown sub-headers
	"## Citation",
	"## Citing",
	"## Cite",
	"## How to cite",
	// RST sub-headers
	"Citation\n--------",
	"Citing\n------",
	"Cite\n----",
	"How to cite\n-----------",
	// DOI shield
	"[![DOI](https://img.shields.io/badge/DOI",
}

// isCitable reports whether the repository carries a CITATION.cff or
// CITATION.bib file, or a README with a citation section.
func isCitable(entries []vcs.TreeEntry, tree vcs.Tree) bool {
	if fileExists(entries, "citation", []string{".cff", ".bib"}) {
		return true
	}

	content, ok := readFileInsensitive(entries, tree, "readme.md")
	if !ok {
		return false
	}
	for _, marker := range citationMarkers {
		if strings.Contains(content, marker) {
			return true
		}
	}
	return false
}

// readFileInsensitive reads a root-level file by case-insensitive name.
func readFileInsensitive(entries []vcs.TreeEntry, tree vcs.Tree, name string) (string, bool) {
	for _, entry := range entries {
		if strings.Contains(entry.Path, "/") {
			continue
		}
		if strings.EqualFold(entry.Path, name) {
			data, err := tree.File(entry.Path)
			if err != nil {
				return "", false
			}
			return string(data), true
		}
	}
	return "", false
}

// commonDocsPaths are documentation entry points associated with docsite
// generators.
var commonDocsPaths = []string{
	"docs/mkdocs.yml",
	"docs/conf.py",
	"docs/index.md",
	"docs/index.rst",
	"docs/index.html",
	"docs/readme.md",
	"docs/source/readme.md",
	"docs/source/index.rst",
	"docs/source/index.md",
	"docs/src/readme.md",
	"docs/src/index.rst",
	"docs/src/index.md",
}

// includesCommonDocs reports whether the tree contains any common docsite file.
func includesCommonDocs(entries []vcs.TreeEntry) bool {
	for _, entry := range entries {
		path := strings.ToLower(entry.Path)
		for _, docPath := range commonDocsPaths {
			if path == docPath {
				return true
			}
		}
	}
	return false
}

// defaultBranchIsNotMaster reports whether the repository's default branch
// is named something other than "master". When the remote HEAD is known it
// is compared against the remote master branch; otherwise the local HEAD
// name decides.
func defaultBranchIsNotMaster(repo vcs.Repository) bool {
	remoteHead, headErr := repo.Reference("refs/remotes/origin/HEAD")
	remoteMaster, masterErr := repo.Reference("refs/remotes/origin/master")
	if headErr == nil && masterErr == nil {
		return remoteHead.Hash() != remoteMaster.Hash()
	}

	head, err := repo.Head()
	if err != nil {
		return false
	}
	return !strings.HasSuffix(head.Name(), "/master") && head.Name() != "master"
}
