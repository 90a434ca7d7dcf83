package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gmelchiori/frontier"
	"github.com/google/subcommands"
)

type loadCmd struct {
	study string
}

func (*loadCmd) Name() string     { return "load" }
func (*loadCmd) Synopsis() string { return "print the report of a saved study" }
func (*loadCmd) Usage() string {
	return `pfs load [-study <name>]

  Prints the report of a saved study. The study is a directory name from
  'pfs list-studies' or a path; without one the most recent study is
  loaded.
`
}

func (c *loadCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.study, "study", "", "Study name or directory, empty picks the latest")
}

func (c *loadCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ref := c.study
	if ref == "" && f.NArg() > 0 {
		ref = f.Arg(0)
	}
	dir, err := frontier.FindStudy(*baseDir, ref)
	if err != nil {
		return fail(err)
	}

	report, err := os.ReadFile(filepath.Join(dir, "report.md"))
	if err == nil {
		printMarkdown(string(report))
		return subcommands.ExitSuccess
	}

	// Old studies may predate the report file; fall back to the summary.
	study, err := frontier.LoadStudy(dir)
	if err != nil {
		return fail(err)
	}
	fmt.Printf("Study %s (%s): tickers %v, %d observations, max sharpe %.3f\n",
		filepath.Base(dir), study.CreatedAt.Format("2006-01-02 15:04:05"),
		study.Tickers, study.Observations, study.MaxSharpe.Performance.Sharpe)
	return subcommands.ExitSuccess
}
