package renderer

import (
	"bytes"
	"fmt"
	"math"

	"github.com/gmelchiori/frontier"
	md "github.com/nao1215/markdown"
)

// StudyMarkdown renders a full study report to a markdown string.
func StudyMarkdown(s *frontier.Study) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Portfolio Study")

	doc.Table(md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight},
		Header:    []string{"Parameter", "Value"},
		Rows: [][]string{
			{"Period", fmt.Sprintf("%s to %s", s.From, s.To)},
			{"Observations", fmt.Sprintf("%d", s.Observations)},
			{"Lookback", s.Config.Lookback.String()},
			{"Risk-free rate", pct(s.Config.RiskFree)},
			{"Shrinkage", fmt.Sprintf("%.2f", s.Config.Shrinkage)},
			{"Created", s.CreatedAt.Format("2006-01-02 15:04:05")},
		},
	})

	doc.H2("Assets")
	assets := md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignLeft, md.AlignRight, md.AlignRight, md.AlignRight},
		Header:    []string{"Ticker", "Source", "Latest", "Ann. Return", "Ann. Volatility"},
	}
	source := make(map[string]string)
	for _, a := range s.Assets {
		source[a.Symbol] = a.Source
	}
	for j, ticker := range s.Tickers {
		latest := ""
		if j < len(s.Latest) && !s.Latest[j].Price().IsZero() {
			latest = s.Latest[j].Price().String()
		}
		assets.Rows = append(assets.Rows, []string{
			ticker,
			source[ticker],
			latest,
			pct(s.Mean[j]),
			pct(math.Sqrt(s.Cov.At(j, j))),
		})
	}
	doc.Table(assets)

	if len(s.Skipped) > 0 {
		doc.H2("Skipped")
		var items []string
		for _, sk := range s.Skipped {
			items = append(items, fmt.Sprintf("%s: %s", sk.Ticker, sk.Reason))
		}
		doc.BulletList(items...)
	}

	doc.H2("Optimized Portfolios")
	doc.Table(performanceTable(
		row("Min Variance", s.MinVariance.Performance),
		row("Max Sharpe", s.MaxSharpe.Performance),
	))
	doc.Table(weightsTable(s.Tickers, map[string][]float64{
		"Min Variance": s.MinVariance.Weights,
		"Max Sharpe":   s.MaxSharpe.Weights,
	}, []string{"Min Variance", "Max Sharpe"}))

	doc.H2("Risk")
	doc.Table(md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight, md.AlignRight, md.AlignRight},
		Header:    []string{"Portfolio", "Max Drawdown", "Daily VaR 95%", "Daily CVaR 95%"},
		Rows: [][]string{
			{"Min Variance", pct(s.MinVarianceRisk.MaxDrawdown), pct(s.MinVarianceRisk.VaR95), pct(s.MinVarianceRisk.CVaR95)},
			{"Max Sharpe", pct(s.Risk.MaxDrawdown), pct(s.Risk.VaR95), pct(s.Risk.CVaR95)},
		},
	})

	if len(s.Frontier) > 0 {
		doc.H2("Efficient Frontier")
		first, last := s.Frontier[0], s.Frontier[len(s.Frontier)-1]
		doc.PlainTextf("%d portfolios from %s return at %s volatility to %s return at %s volatility; weights in frontier_weights.csv.",
			len(s.Frontier), pct(first.TargetReturn), pct(first.Volatility), pct(last.TargetReturn), pct(last.Volatility))
	}

	if s.BestSampled != nil {
		doc.H2("Monte Carlo")
		doc.Table(performanceTable(row("Best Sampled", s.BestSampled.Performance)))
		doc.Table(weightsTable(s.Tickers, map[string][]float64{
			"Best Sampled": s.BestSampled.Weights,
		}, []string{"Best Sampled"}))
		if s.FilteredOut > 0 {
			doc.PlainTextf("%d sampled portfolios exceeded the drawdown limit %s and were excluded.",
				s.FilteredOut, pct(s.Config.DrawdownLimit))
		}
	}

	if s.Benchmark != nil {
		doc.H2("Benchmark")
		if s.Benchmark.Status != "" {
			doc.PlainTextf("%s: %s", s.Benchmark.Symbol, s.Benchmark.Status)
		} else {
			doc.Table(performanceTable(row(s.Benchmark.Symbol, s.Benchmark.Performance)))
			doc.PlainTextf("Compared over %.1f years of overlapping history.", s.Benchmark.Years)
			doc.PlainTextf("Power (excess Sharpe over %s): %s", s.Benchmark.Symbol, signedPct(s.Benchmark.Power))
		}
	}

	return doc.String()
}

// StudiesMarkdown renders the list of persisted studies, newest first.
func StudiesMarkdown(entries []frontier.StudyEntry) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1("Studies")
	if len(entries) == 0 {
		doc.PlainText("No studies found.")
		return doc.String()
	}
	table := md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight},
		Header:    []string{"Study", "Created"},
	}
	for _, e := range entries {
		table.Rows = append(table.Rows, []string{e.Name, e.CreatedAt.Format("2006-01-02 15:04:05")})
	}
	doc.Table(table)
	return doc.String()
}

// ResolutionsMarkdown renders the result of symbol resolution.
func ResolutionsMarkdown(resolved []frontier.ResolvedAsset) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1("Symbol Resolution")
	table := md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignLeft, md.AlignLeft, md.AlignLeft, md.AlignLeft},
		Header:    []string{"Input", "Symbol", "Source", "Exchange", "Currency"},
	}
	for _, r := range resolved {
		table.Rows = append(table.Rows, []string{r.UserSymbol, r.Symbol, r.Source, r.Exchange, r.Currency})
	}
	doc.Table(table)
	return doc.String()
}

func row(name string, p frontier.Performance) []string {
	return []string{name, pct(p.Return), pct(p.Volatility), fmt.Sprintf("%.3f", p.Sharpe)}
}

func performanceTable(rows ...[]string) md.TableSet {
	return md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight, md.AlignRight, md.AlignRight},
		Header:    []string{"Portfolio", "Return", "Volatility", "Sharpe"},
		Rows:      rows,
	}
}

// weightsTable lays portfolios out as columns and tickers as rows.
func weightsTable(tickers []string, weights map[string][]float64, order []string) md.TableSet {
	table := md.TableSet{
		Alignment: make([]md.TableAlignment, 0, len(order)+1),
		Header:    append([]string{"Ticker"}, order...),
	}
	table.Alignment = append(table.Alignment, md.AlignLeft)
	for range order {
		table.Alignment = append(table.Alignment, md.AlignRight)
	}
	for j, ticker := range tickers {
		rec := []string{ticker}
		for _, name := range order {
			rec = append(rec, pct(weights[name][j]))
		}
		table.Rows = append(table.Rows, rec)
	}
	return table
}

func pct(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", v*100)
}

func signedPct(v float64) string {
	if v > 0 {
		return "+" + pct(v)
	}
	return pct(v)
}
