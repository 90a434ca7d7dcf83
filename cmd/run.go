package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/gmelchiori/frontier"
	"github.com/gmelchiori/frontier/date"
	"github.com/gmelchiori/frontier/renderer"
	"github.com/google/subcommands"
)

// runCmd holds the flags for the 'run' subcommand.
type runCmd struct {
	tickers    string
	configFile string

	period      string
	logReturns  bool
	riskFree    float64
	shrinkage   float64
	short       bool
	bounds      bool
	minWeight   float64
	maxWeight   float64
	simulations int
	seed        uint64
	drawdown    float64
	benchmark   string
	currency    string
	noResolve   bool
}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "run a portfolio study and save it" }
func (*runCmd) Usage() string {
	return `pfs run -tickers <list> [-config <file>] [flags]

  Downloads the price history of the given tickers, computes optimized
  allocations, an efficient frontier, Monte Carlo samples and a benchmark
  comparison, then saves everything under studies/ and prints the report.

Usage Examples:
# Study three ETFs over five years.
$ pfs run -tickers VWCE.DE,AGGH.MI,SGLD.MI -period 5y

# Same study, with weight bounds from a config file.
$ pfs run -config pfs.yaml
`
}

func (c *runCmd) SetFlags(f *flag.FlagSet) {
	defaults := frontier.DefaultConfig()
	f.StringVar(&c.tickers, "tickers", "", "Comma separated tickers to study")
	f.StringVar(&c.configFile, "config", "", "YAML configuration file")
	f.StringVar(&c.period, "period", defaults.Lookback.String(), "History window (1mo, 6mo, 1y, 5y, ytd, max)")
	f.BoolVar(&c.logReturns, "log-returns", false, "Use logarithmic returns")
	f.Float64Var(&c.riskFree, "risk-free", defaults.RiskFree, "Annual risk-free rate")
	f.Float64Var(&c.shrinkage, "shrinkage", defaults.Shrinkage, "Covariance shrinkage intensity in [0,1]")
	f.BoolVar(&c.short, "short", false, "Allow short positions")
	f.BoolVar(&c.bounds, "bounds", false, "Box each weight into [min-weight, max-weight]")
	f.Float64Var(&c.minWeight, "min-weight", defaults.MinWeight, "Lower weight bound (with -bounds)")
	f.Float64Var(&c.maxWeight, "max-weight", defaults.MaxWeight, "Upper weight bound (with -bounds)")
	f.IntVar(&c.simulations, "simulations", defaults.Simulations, "Monte Carlo sample count, 0 disables")
	f.Uint64Var(&c.seed, "seed", 0, "Monte Carlo seed, 0 picks a fresh one")
	f.Float64Var(&c.drawdown, "drawdown-limit", 0, "Worst acceptable drawdown as a negative fraction, 0 disables")
	f.StringVar(&c.benchmark, "benchmark", defaults.Benchmark, "Benchmark symbol, empty disables")
	f.StringVar(&c.currency, "currency", "", "Preferred listing currency for symbol resolution")
	f.BoolVar(&c.noResolve, "no-resolve", false, "Use tickers as provider symbols without resolution")
}

func (c *runCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := c.config(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	study, err := frontier.RunStudy(ctx, newSource(), cfg, *baseDir)
	if err != nil {
		return fail(err)
	}

	dir, err := frontier.SaveStudy(*baseDir, study)
	if err != nil {
		return fail(err)
	}
	report := renderer.StudyMarkdown(study)
	if err := frontier.SaveReport(dir, report); err != nil {
		return fail(err)
	}

	printMarkdown(report)
	fmt.Printf("Study saved to %s\n", dir)
	return subcommands.ExitSuccess
}

// config merges the defaults, the config file and the flags the user set,
// in that order.
func (c *runCmd) config(f *flag.FlagSet) (frontier.Config, error) {
	cfg := frontier.DefaultConfig()
	if c.configFile != "" {
		var err error
		cfg, err = frontier.LoadConfig(c.configFile)
		if err != nil {
			return cfg, err
		}
	}

	var flagErr error
	f.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "period":
			lb, err := date.ParseLookback(c.period)
			if err != nil {
				flagErr = err
				return
			}
			cfg.Lookback = lb
		case "log-returns":
			cfg.LogReturns = c.logReturns
		case "risk-free":
			cfg.RiskFree = c.riskFree
		case "shrinkage":
			cfg.Shrinkage = c.shrinkage
		case "short":
			cfg.AllowShort = c.short
		case "bounds":
			cfg.Bounds = c.bounds
		case "min-weight":
			cfg.MinWeight = c.minWeight
		case "max-weight":
			cfg.MaxWeight = c.maxWeight
		case "simulations":
			cfg.Simulations = c.simulations
		case "seed":
			cfg.Seed = c.seed
		case "drawdown-limit":
			cfg.DrawdownLimit = c.drawdown
		case "benchmark":
			cfg.Benchmark = c.benchmark
		case "currency":
			cfg.Currency = c.currency
		case "no-resolve":
			cfg.Resolve = !c.noResolve
		}
	})
	if flagErr != nil {
		return cfg, flagErr
	}

	for _, t := range frontier.NormalizeTickers(c.tickers) {
		cfg.Assets = append(cfg.Assets, frontier.Asset{Symbol: t})
	}
	if len(cfg.Assets) < 2 {
		return cfg, fmt.Errorf("need at least 2 tickers, got %d (use -tickers or a config file)", len(cfg.Assets))
	}
	return cfg, cfg.Check()
}
