package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/software-gardening/almanack/internal/output"
	"github.com/software-gardening/almanack/internal/progress"
	"github.com/software-gardening/almanack/pkg/analyzer/entropy"
)

func hcmCmd() *cli.Command {
	return &cli.Command{
		Name:      "hcm",
		Usage:     "Compute decay-weighted history complexity over commit bursts",
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
			&cli.Float64Flag{
				Name:  "decay-factor",
				Usage: "Exponential decay scale in hours (overrides config)",
			},
			&cli.Int64Flag{
				Name:  "quiet-time",
				Usage: "Burst boundary gap in seconds (overrides config)",
			},
			&cli.IntFlag{
				Name:  "top",
				Value: 20,
				Usage: "Show top N files by complexity",
			},
		},
		Action: runHCMCmd,
	}
}

func runHCMCmd(c *cli.Context) error {
	repoPath, err := getRepoPath(c)
	if err != nil {
		return err
	}

	appCfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	cfg := entropy.Config{
		DecayFactor: appCfg.Entropy.DecayFactor,
		QuietTime:   appCfg.Entropy.QuietTimeSeconds,
	}
	if c.IsSet("decay-factor") {
		cfg.DecayFactor = c.Float64("decay-factor")
	}
	if c.IsSet("quiet-time") {
		cfg.QuietTime = c.Int64("quiet-time")
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

	spinner := progress.NewSpinner("Computing history complexity...")
	perFile, err := a.HistoryComplexityWithDecay(c.Context, repoPath, source, target, files, cfg)
	if err != nil {
		spinner.FinishError(err)
		return fmt.Errorf("history complexity failed (is this a git repository?): %w", err)
	}
	aggregate, err := a.AggregateHistoryComplexityWithDecay(c.Context, repoPath, source, target, files, cfg)
	spinner.FinishSuccess()
	if err != nil {
		return fmt.Errorf("aggregate history complexity failed: %w", err)
	}

	formatter, err := newFormatter(c)
	if err != nil {
		return err
	}
	defer formatter.Close()

	rows := entropyRows(perFile, c.Int("top"), formatter.Colored())

	table := output.NewTable(
		fmt.Sprintf("History Complexity (%s..%s)", shortRef(source), shortRef(target)),
		[]string{"File", "Complexity"},
		rows,
		[]string{
			"Aggregate", fmt.Sprintf("%.4f", aggregate),
		},
		map[string]any{
			"source":       source,
			"target":       target,
			"decay_factor": cfg.DecayFactor,
			"quiet_time":   cfg.QuietTime,
			"aggregate":    aggregate,
			"files":        perFile,
		},
	)

	return formatter.Output(table)
}
