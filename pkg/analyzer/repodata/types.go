package repodata

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/software-gardening/almanack/pkg/analyzer/health"
)

// FileEntropy is the normalized entropy of one file's changes across the
// analyzed commit range.
type FileEntropy struct {
	Path    string  `json:"path"`
	Entropy float64 `json:"entropy"`
}

// Summary aggregates the per-file entropy distribution.
type Summary struct {
	MeanEntropy   float64 `json:"mean_entropy"`
	StdDevEntropy float64 `json:"stddev_entropy"`
	MaxEntropy    float64 `json:"max_entropy"`
	P95Entropy    float64 `json:"p95_entropy"`
}

// Analysis is the full repository metrics table: commit-range facts,
// community-health checks and change-entropy metrics.
type Analysis struct {
	GeneratedAt      time.Time       `json:"generated_at"`
	RepositoryRoot   string          `json:"repository_root"`
	CommitCount      int             `json:"commit_count"`
	FileCount        int             `json:"file_count"`
	FirstCommitDate  string          `json:"first_commit_date"`
	RecentCommitDate string          `json:"most_recent_commit_date"`
	Health           health.Analysis `json:"health"`
	AggregateEntropy float64         `json:"aggregate_entropy"`
	Files            []FileEntropy   `json:"file_entropy"`
	Summary          Summary         `json:"summary"`
}

// TopFiles returns the n highest-entropy files. Files are already sorted
// by entropy descending.
func (a *Analysis) TopFiles(n int) []FileEntropy {
	if n < 0 {
		n = 0
	}
	if n > len(a.Files) {
		n = len(a.Files)
	}
	return a.Files[:n]
}

// buildSummary computes distribution statistics over per-file entropies.
func buildSummary(files []FileEntropy) Summary {
	if len(files) == 0 {
		return Summary{}
	}

	values := make([]float64, len(files))
	for i, f := range files {
		values[i] = f.Entropy
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	s := Summary{
		MeanEntropy: stat.Mean(values, nil),
		MaxEntropy:  sorted[len(sorted)-1],
		P95Entropy:  stat.Quantile(0.95, stat.Empirical, sorted, nil),
	}
	if len(values) > 1 {
		s.StdDevEntropy = stat.StdDev(values, nil)
	}
	return s
}
