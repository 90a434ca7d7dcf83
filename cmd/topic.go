package cmd

import (
	"context"
	"flag"

	"github.com/gmelchiori/frontier/docs"
	"github.com/google/subcommands"
)

type topicCmd struct{}

func (*topicCmd) Name() string     { return "topic" }
func (*topicCmd) Synopsis() string { return "show documentation" }
func (*topicCmd) Usage() string {
	return `pfs topic [<topic>]

  Shows documentation for a given topic, the topic index by default, or
  everything with "*".
`
}

func (*topicCmd) SetFlags(f *flag.FlagSet) {}

func (c *topicCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var content string
	var err error
	if f.NArg() == 0 {
		content, err = docs.Index()
	} else {
		content, err = docs.Get(f.Arg(0))
	}
	if err != nil {
		return fail(err)
	}
	printMarkdown(content)
	return subcommands.ExitSuccess
}
