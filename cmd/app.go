// Package cmd implements the CLI application to run portfolio studies.
package cmd

import (
	"flag"
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/gmelchiori/frontier/yahoo"
	"github.com/google/subcommands"
)

// Register the subcommands.
// A main package calls Register() and then Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&runCmd{}, "studies")
	c.Register(&listStudiesCmd{}, "studies")
	c.Register(&loadCmd{}, "studies")
	c.Register(&insightsCmd{}, "studies")

	c.Register(&resolveCmd{}, "market data")

	c.Register(&topicCmd{}, "documentation")
}

// as a CLI application it has a very short lived lifecycle, so it is ok to use global variables.

var baseDir = flag.String("base-dir", ".", "Directory holding the studies/ folder and the symbol cache")

// newSource returns the market data client used by all commands.
func newSource() *yahoo.Client { return yahoo.NewClient() }

// printMarkdown renders markdown to the terminal, falling back to the raw
// text when rendering fails.
func printMarkdown(md string) {
	out, err := glamour.Render(md, "auto")
	if err != nil {
		fmt.Println(md)
		return
	}
	fmt.Print(out)
}

// fail prints an error and returns the failure status, to keep Execute
// bodies short.
func fail(err error) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return subcommands.ExitFailure
}
