package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gmelchiori/frontier"
	"github.com/gmelchiori/frontier/agent"
	"github.com/google/subcommands"
	"google.golang.org/genai"
)

// insightsCmd asks the AI analyst to comment on a saved study.
type insightsCmd struct {
	study string
}

func (*insightsCmd) Name() string     { return "insights" }
func (*insightsCmd) Synopsis() string { return "AI commentary on a saved study" }
func (*insightsCmd) Usage() string {
	return `pfs insights [-study <name>]

  Sends the report of a saved study to the Gemini analyst and prints its
  commentary. Without a study the most recent one is used. Requires Gemini
  credentials in the environment.
`
}

func (c *insightsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.study, "study", "", "Study name or directory, empty picks the latest")
}

func (c *insightsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ref := c.study
	if ref == "" && f.NArg() > 0 {
		ref = f.Arg(0)
	}
	dir, err := frontier.FindStudy(*baseDir, ref)
	if err != nil {
		return fail(err)
	}
	report, err := os.ReadFile(filepath.Join(dir, "report.md"))
	if err != nil {
		return fail(fmt.Errorf("no report in %s: %w", dir, err))
	}

	client, err := genai.NewClient(ctx, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error initializing Gemini's client:", err)
		return subcommands.ExitFailure
	}
	analyst, err := agent.NewAnalyst(ctx, client)
	if err != nil {
		return fail(err)
	}
	commentary, err := analyst.Comment(ctx, string(report))
	if err != nil {
		return fail(err)
	}
	printMarkdown(commentary)
	return subcommands.ExitSuccess
}
