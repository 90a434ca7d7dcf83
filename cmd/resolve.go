package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/gmelchiori/frontier"
	"github.com/gmelchiori/frontier/renderer"
	"github.com/google/subcommands"
)

// resolveCmd maps user tickers to provider symbols without running a study.
type resolveCmd struct {
	tickers  string
	currency string
}

func (*resolveCmd) Name() string     { return "resolve" }
func (*resolveCmd) Synopsis() string { return "resolve tickers to provider symbols" }
func (*resolveCmd) Usage() string {
	return `pfs resolve -tickers <list> [-currency <code>]

  Shows how each ticker resolves to a provider symbol, using the same
  cache, search and suffix fallbacks as 'pfs run'.
`
}

func (c *resolveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.tickers, "tickers", "", "Comma separated tickers to resolve")
	f.StringVar(&c.currency, "currency", "", "Preferred listing currency")
}

func (c *resolveCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	tickers := frontier.NormalizeTickers(c.tickers)
	if len(tickers) == 0 {
		fmt.Fprintln(os.Stderr, "Error: no tickers given")
		return subcommands.ExitUsageError
	}
	var assets []frontier.Asset
	for _, t := range tickers {
		assets = append(assets, frontier.Asset{Symbol: t})
	}

	resolved, err := frontier.ResolveAssets(ctx, newSource(), assets, *baseDir, c.currency)
	if err != nil {
		return fail(err)
	}
	printMarkdown(renderer.ResolutionsMarkdown(resolved))
	return subcommands.ExitSuccess
}
