package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/gmelchiori/frontier/cmd"
	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// completion describes the command tree for shell completion. It exits the
// process when invoked by the shell.
func completion() {
	studyFlags := map[string]complete.Predictor{
		"tickers":        predict.Something,
		"config":         predict.Files("*.yaml"),
		"period":         predict.Set{"1mo", "3mo", "6mo", "1y", "2y", "5y", "10y", "ytd", "max"},
		"log-returns":    predict.Nothing,
		"risk-free":      predict.Something,
		"shrinkage":      predict.Something,
		"short":          predict.Nothing,
		"bounds":         predict.Nothing,
		"min-weight":     predict.Something,
		"max-weight":     predict.Something,
		"simulations":    predict.Something,
		"seed":           predict.Something,
		"drawdown-limit": predict.Something,
		"benchmark":      predict.Something,
		"currency":       predict.Something,
		"no-resolve":     predict.Nothing,
	}
	pfs := &complete.Command{
		Flags: map[string]complete.Predictor{"base-dir": predict.Dirs("*")},
		Sub: map[string]*complete.Command{
			"run":          {Flags: studyFlags},
			"list-studies": {},
			"load":         {Flags: map[string]complete.Predictor{"study": predict.Dirs("studies/*")}},
			"insights":     {Flags: map[string]complete.Predictor{"study": predict.Dirs("studies/*")}},
			"resolve": {Flags: map[string]complete.Predictor{
				"tickers":  predict.Something,
				"currency": predict.Something,
			}},
			"topic": {Args: predict.Set{"study", "resolution", "constraints", "montecarlo", "benchmark", "config", "*"}},
		},
	}
	pfs.Complete("pfs")
}

func main() {
	completion()

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "documentation")
	commander.Register(commander.FlagsCommand(), "documentation")
	cmd.Register(commander)

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
