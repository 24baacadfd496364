package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/software-gardening/almanack/internal/batch"
	"github.com/software-gardening/almanack/internal/progress"
)

func batchCmd() *cli.Command {
	return &cli.Command{
		Name:      "batch",
		Usage:     "Analyze many repositories and emit one JSON record per line",
		ArgsUsage: "[path-or-url...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "input",
				Aliases: []string{"i"},
				Usage:   "File listing one repository path or URL per line",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Number of concurrent workers (overrides config)",
			},
			&cli.BoolFlag{
				Name:  "keep-clones",
				Usage: "Keep cloned repositories on disk after the run",
			},
		},
		Action: runBatchCmd,
	}
}

func runBatchCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	sources := c.Args().Slice()
	if input := c.String("input"); input != "" {
		fromFile, err := readSourceList(input)
		if err != nil {
			return err
		}
		sources = append(sources, fromFile...)
	}
	if len(sources) == 0 {
		return fmt.Errorf("no repositories given: pass paths or URLs, or --input")
	}

	workers := cfg.Batch.Workers
	if c.IsSet("workers") {
		workers = c.Int("workers")
	}
	keepClones := cfg.Batch.KeepClones || c.Bool("keep-clones")

	out := os.Stdout
	if path := c.String("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	tracker := progress.NewTracker("Analyzing repositories...", len(sources))

	p := batch.New(
		batch.WithWorkers(workers),
		batch.WithKeepClones(keepClones),
		batch.WithTracker(tracker),
	)
	defer p.Close()

	err = p.Run(c.Context, sources, batch.NewJSONLSink(out))
	if err != nil {
		tracker.FinishError(err)
		return fmt.Errorf("batch run failed: %w", err)
	}
	tracker.FinishSuccess()
	return nil
}

// readSourceList reads repository sources one per line, skipping blanks
// and # comments.
func readSourceList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading source list: %w", err)
	}
	defer f.Close()

	var sources []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		sources = append(sources, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading source list: %w", err)
	}
	return sources, nil
}
