package main

import (
	"fmt"
	"sort"

	"github.com/urfave/cli/v2"

	"github.com/software-gardening/almanack/internal/output"
	"github.com/software-gardening/almanack/internal/progress"
	"github.com/software-gardening/almanack/pkg/analyzer/entropy"
)

func entropyCmd() *cli.Command {
	return &cli.Command{
		Name:      "entropy",
		Aliases:   []string{"en"},
		Usage:     "Compute normalized entropy of line changes between two commits",
		ArgsUsage: "[path]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "source",
				Usage: "Source revision (defaults to the first commit)",
			},
			&cli.StringFlag{
				Name:  "target",
				Value: "HEAD",
				Usage: "Target revision",
			},
			&cli.StringSliceFlag{
				Name:  "file",
				Usage: "Restrict to specific files (defaults to all edited files)",
			},
			&cli.IntFlag{
				Name:  "top",
				Value: 20,
				Usage: "Show top N files by entropy",
			},
		},
		Action: runEntropyCmd,
	}
}

func runEntropyCmd(c *cli.Context) error {
	repoPath, err := getRepoPath(c)
	if err != nil {
		return err
	}

	source, target, err := resolveRefs(c.Context, repoPath, c.String("source"), c.String("target"))
	if err != nil {
		return fmt.Errorf("resolving revision range: %w", err)
	}

	a := entropy.New()
	defer a.Close()

	files := c.StringSlice("file")
	if len(files) == 0 {
		files, err = a.EditedFiles(c.Context, repoPath, source, target)
		if err != nil {
			return fmt.Errorf("listing edited files: %w", err)
		}
	}

	spinner := progress.NewSpinner("Computing entropy...")
	perFile, err := a.NormalizedEntropy(c.Context, repoPath, source, target, files)
	if err != nil {
		spinner.FinishError(err)
		return fmt.Errorf("entropy analysis failed (is this a git repository?): %w", err)
	}
	aggregate, err := a.AggregateEntropy(c.Context, repoPath, source, target, files)
	spinner.FinishSuccess()
	if err != nil {
		return fmt.Errorf("aggregate entropy failed: %w", err)
	}

	formatter, err := newFormatter(c)
	if err != nil {
		return err
	}
	defer formatter.Close()

	rows := entropyRows(perFile, c.Int("top"), formatter.Colored())

	table := output.NewTable(
		fmt.Sprintf("Change Entropy (%s..%s)", shortRef(source), shortRef(target)),
		[]string{"File", "Entropy"},
		rows,
		[]string{"Aggregate", fmt.Sprintf("%.4f", aggregate)},
		map[string]any{
			"source":    source,
			"target":    target,
			"aggregate": aggregate,
			"files":     perFile,
		},
	)

	return formatter.Output(table)
}

// entropyRows sorts entries by entropy descending, path ascending, and
// keeps the top N.
func entropyRows(perFile map[string]float64, top int, colored bool) [][]string {
	type entry struct {
		path  string
		value float64
	}
	entries := make([]entry, 0, len(perFile))
	for path, value := range perFile {
		entries = append(entries, entry{path, value})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].value != entries[j].value {
			return entries[i].value > entries[j].value
		}
		return entries[i].path < entries[j].path
	})

	if top > 0 && len(entries) > top {
		entries = entries[:top]
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		value := fmt.Sprintf("%.4f", e.value)
		if colored {
			value = output.EntropyColor(e.value, value)
		}
		rows = append(rows, []string{e.path, value})
	}
	return rows
}

// shortRef abbreviates full hashes for display.
func shortRef(ref string) string {
	if len(ref) == 40 {
		return ref[:8]
	}
	return ref
}
