package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/software-gardening/almanack/internal/output"
	"github.com/software-gardening/almanack/pkg/analyzer/health"
)

func checkCmd() *cli.Command {
	return &cli.Command{
		Name:      "check",
		Usage:     "Check repository health conventions (README, LICENSE, citation, docs)",
		ArgsUsage: "[path]",
		Action:    runCheckCmd,
	}
}

func runCheckCmd(c *cli.Context) error {
	repoPath, err := getRepoPath(c)
	if err != nil {
		return err
	}

	a := health.New()
	defer a.Close()

	analysis, err := a.Analyze(c.Context, repoPath)
	if err != nil {
		return fmt.Errorf("health check failed (is this a git repository?): %w", err)
	}

	formatter, err := newFormatter(c)
	if err != nil {
		return err
	}
	defer formatter.Close()

	checks := []struct {
		name string
		ok   bool
	}{
		{"README", analysis.IncludesReadme},
		{"CONTRIBUTING", analysis.IncludesContributing},
		{"Code of conduct", analysis.IncludesCodeOfConduct},
		{"LICENSE", analysis.IncludesLicense},
		{"Common docs", analysis.IncludesCommonDocs},
		{"Citable", analysis.IsCitable},
		{"Default branch is not master", analysis.DefaultBranchNotMaster},
	}

	rows := make([][]string, 0, len(checks))
	passed := 0
	for _, check := range checks {
		status := "missing"
		if check.ok {
			status = "ok"
			passed++
		}
		if formatter.Colored() {
			if check.ok {
				status = color.GreenString(status)
			} else {
				status = color.YellowString(status)
			}
		}
		rows = append(rows, []string{check.name, status})
	}

	table := output.NewTable(
		"Repository Health",
		[]string{"Check", "Status"},
		rows,
		[]string{"Passed", fmt.Sprintf("%d/%d", passed, len(checks))},
		analysis,
	)

	return formatter.Output(table)
}
