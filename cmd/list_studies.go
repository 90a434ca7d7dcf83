package cmd

import (
	"context"
	"flag"

	"github.com/gmelchiori/frontier"
	"github.com/gmelchiori/frontier/renderer"
	"github.com/google/subcommands"
)

type listStudiesCmd struct{}

func (*listStudiesCmd) Name() string     { return "list-studies" }
func (*listStudiesCmd) Synopsis() string { return "list saved studies, newest first" }
func (*listStudiesCmd) Usage() string {
	return `pfs list-studies

  Lists the studies saved under the studies/ folder, newest first.
`
}

func (*listStudiesCmd) SetFlags(f *flag.FlagSet) {}

func (c *listStudiesCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	entries, err := frontier.ListStudies(*baseDir)
	if err != nil {
		return fail(err)
	}
	printMarkdown(renderer.StudiesMarkdown(entries))
	return subcommands.ExitSuccess
}
