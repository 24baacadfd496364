package main

import (
	"encoding/json"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/software-gardening/almanack/internal/cache"
	"github.com/software-gardening/almanack/internal/output"
	"github.com/software-gardening/almanack/internal/progress"
	"github.com/software-gardening/almanack/internal/vcs"
	"github.com/software-gardening/almanack/pkg/analyzer/repodata"
	"github.com/software-gardening/almanack/pkg/config"
)

func tableCmd() *cli.Command {
	return &cli.Command{
		Name:      "table",
		Aliases:   []string{"t"},
		Usage:     "Produce the full repository metrics table",
		ArgsUsage: "[path]",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "top",
				Value: 10,
				Usage: "Show top N files by entropy",
			},
		},
		Action: runTableCmd,
	}
}

func runTableCmd(c *cli.Context) error {
	repoPath, err := getRepoPath(c)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	analysis, err := analyzeWithCache(c, cfg, repoPath)
	if err != nil {
		return fmt.Errorf("repository analysis failed (is this a git repository?): %w", err)
	}

	formatter, err := newFormatter(c)
	if err != nil {
		return err
	}
	defer formatter.Close()

	summaryRows := [][]string{
		{"Repository", analysis.RepositoryRoot},
		{"Commits", fmt.Sprintf("%d", analysis.CommitCount)},
		{"Edited files", fmt.Sprintf("%d", analysis.FileCount)},
		{"First commit", analysis.FirstCommitDate},
		{"Most recent commit", analysis.RecentCommitDate},
		{"Aggregate entropy", fmt.Sprintf("%.4f", analysis.AggregateEntropy)},
		{"Mean entropy", fmt.Sprintf("%.4f", analysis.Summary.MeanEntropy)},
		{"Std dev entropy", fmt.Sprintf("%.4f", analysis.Summary.StdDevEntropy)},
		{"Max entropy", fmt.Sprintf("%.4f", analysis.Summary.MaxEntropy)},
		{"P95 entropy", fmt.Sprintf("%.4f", analysis.Summary.P95Entropy)},
	}

	var fileRows [][]string
	for _, fe := range analysis.TopFiles(c.Int("top")) {
		value := fmt.Sprintf("%.4f", fe.Entropy)
		if formatter.Colored() {
			value = output.EntropyColor(fe.Entropy, value)
		}
		fileRows = append(fileRows, []string{fe.Path, value})
	}

	report := &output.Report{
		Title: "Repository Almanack",
		Sections: []output.Renderable{
			output.NewTable("Summary", []string{"Metric", "Value"}, summaryRows, nil, nil),
			output.NewTable("Top Files by Entropy", []string{"File", "Entropy"}, fileRows, nil, nil),
			healthSection(analysis),
		},
		Data: analysis,
	}

	return formatter.Output(report)
}

func healthSection(analysis *repodata.Analysis) *output.Section {
	mark := func(ok bool) string {
		if ok {
			return "yes"
		}
		return "no"
	}
	h := analysis.Health
	return &output.Section{
		Title: "Health",
		Content: fmt.Sprintf(
			"README: %s  CONTRIBUTING: %s  Code of conduct: %s  LICENSE: %s\nCommon docs: %s  Citable: %s  Default branch not master: %s",
			mark(h.IncludesReadme), mark(h.IncludesContributing),
			mark(h.IncludesCodeOfConduct), mark(h.IncludesLicense),
			mark(h.IncludesCommonDocs), mark(h.IsCitable),
			mark(h.DefaultBranchNotMaster),
		),
	}
}

// analyzeWithCache serves the analysis from the cache when the
// repository HEAD has not moved since the cached run.
func analyzeWithCache(c *cli.Context, cfg *config.Config, repoPath string) (*repodata.Analysis, error) {
	head, headErr := headHash(repoPath)

	store, err := cache.New(cfg.Cache.Dir, cfg.Cache.TTL, cfg.Cache.Enabled && !c.Bool("no-cache") && headErr == nil)
	if err != nil {
		return nil, err
	}

	if data, ok := store.Get(repoPath, head); ok {
		var analysis repodata.Analysis
		if err := json.Unmarshal(data, &analysis); err == nil {
			return &analysis, nil
		}
		store.Invalidate(repoPath)
	}

	spinner := progress.NewSpinner("Analyzing repository...")
	a := repodata.New()
	defer a.Close()

	analysis, err := a.Analyze(c.Context, repoPath)
	if err != nil {
		spinner.FinishError(err)
		return nil, err
	}
	spinner.FinishSuccess()

	if data, err := json.Marshal(analysis); err == nil {
		store.Set(repoPath, head, data)
	}
	return analysis, nil
}

func headHash(repoPath string) (string, error) {
	repo, err := vcs.DefaultOpener().PlainOpen(repoPath)
	if err != nil {
		return "", err
	}
	head, err := repo.Head()
	if err != nil {
		return "", err
	}
	return head.Hash().String(), nil
}
