package renderer

import (
	"strings"
	"testing"
	"time"

	"github.com/gmelchiori/frontier"
	"github.com/gmelchiori/frontier/date"
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/mat"
)

func sampleStudy() *frontier.Study {
	cfg := frontier.DefaultConfig()
	cfg.RiskFree = 0.02
	return &frontier.Study{
		CreatedAt:    time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC),
		Config:       cfg,
		Tickers:      []string{"VWCE.DE", "AGGH.MI"},
		From:         date.New(2019, time.March, 15),
		To:           date.New(2024, time.March, 14),
		Observations: 1258,
		Assets: []frontier.ResolvedAsset{
			{UserSymbol: "VWCE", Symbol: "VWCE.DE", Source: "ISIN", Currency: "EUR"},
			{UserSymbol: "AGGH", Symbol: "AGGH.MI", Source: "DIRECT", Currency: "EUR"},
		},
		Latest: []frontier.LatestQuote{
			{Ticker: "VWCE.DE", Date: date.New(2024, time.March, 14), Close: decimal.NewFromFloat(112.34), Currency: "EUR"},
			{Ticker: "AGGH.MI", Date: date.New(2024, time.March, 14), Close: decimal.NewFromFloat(4.87), Currency: "EUR"},
		},
		Mean: []float64{0.085, 0.021},
		Cov: mat.NewSymDense(2, []float64{
			0.0225, 0.0015,
			0.0015, 0.0016,
		}),
		MinVariance: frontier.Result{
			Weights:     []float64{0.08, 0.92},
			Performance: frontier.Performance{Return: 0.026, Volatility: 0.039, Sharpe: 0.15},
		},
		MaxSharpe: frontier.Result{
			Weights:     []float64{0.55, 0.45},
			Performance: frontier.Performance{Return: 0.056, Volatility: 0.085, Sharpe: 0.42},
		},
		MinVarianceRisk: frontier.RiskMetrics{MaxDrawdown: -0.09, VaR95: -0.005, CVaR95: -0.008},
		Risk:            frontier.RiskMetrics{MaxDrawdown: -0.18, VaR95: -0.011, CVaR95: -0.017},
		Frontier: []frontier.FrontierPoint{
			{TargetReturn: 0.021, Volatility: 0.040, Weights: []float64{0.0, 1.0}},
			{TargetReturn: 0.085, Volatility: 0.150, Weights: []float64{1.0, 0.0}},
		},
		BestSampled: &frontier.SampledPortfolio{
			Performance: frontier.Performance{Return: 0.055, Volatility: 0.086, Sharpe: 0.41},
			Weights:     []float64{0.53, 0.47},
		},
		Benchmark: &frontier.Benchmark{
			Symbol:      "VWCE.DE",
			Performance: frontier.Performance{Return: 0.081, Volatility: 0.148, Sharpe: 0.41},
			Years:       5.0,
			Power:       0.024,
		},
	}
}

func TestStudyMarkdown(t *testing.T) {
	md := StudyMarkdown(sampleStudy())

	for _, want := range []string{
		"# Portfolio Study",
		"## Assets",
		"VWCE.DE",
		"AGGH.MI",
		"€112.34",
		"## Optimized Portfolios",
		"Min Variance",
		"Max Sharpe",
		"## Risk",
		"Max Drawdown",
		"-9.00%",
		"-18.00%",
		"## Efficient Frontier",
		"## Monte Carlo",
		"## Benchmark",
		"5.0 years",
		"+2.40%",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("report does not contain %q:\n%s", want, md)
		}
	}
}

func TestStudyMarkdownSkipped(t *testing.T) {
	s := sampleStudy()
	s.Skipped = []frontier.Skipped{{Ticker: "GONE", Reason: "download failed"}}
	md := StudyMarkdown(s)
	if !strings.Contains(md, "## Skipped") || !strings.Contains(md, "GONE") {
		t.Errorf("report does not list the skipped ticker:\n%s", md)
	}
}

func TestStudyMarkdownBenchmarkFailure(t *testing.T) {
	s := sampleStudy()
	s.Benchmark = &frontier.Benchmark{Symbol: "VWCE.DE", Status: "download failed: boom"}
	md := StudyMarkdown(s)
	if !strings.Contains(md, "download failed: boom") {
		t.Errorf("report does not carry the benchmark status:\n%s", md)
	}
}

func TestStudiesMarkdown(t *testing.T) {
	md := StudiesMarkdown(nil)
	if !strings.Contains(md, "No studies found.") {
		t.Errorf("empty listing = %q", md)
	}

	md = StudiesMarkdown([]frontier.StudyEntry{
		{Name: "VWCE-DE_AGGH-MI_20240315_093045", CreatedAt: time.Date(2024, 3, 15, 9, 30, 45, 0, time.UTC)},
	})
	if !strings.Contains(md, "VWCE-DE_AGGH-MI_20240315_093045") || !strings.Contains(md, "2024-03-15 09:30:45") {
		t.Errorf("listing = %q", md)
	}
}

func TestResolutionsMarkdown(t *testing.T) {
	md := ResolutionsMarkdown([]frontier.ResolvedAsset{
		{UserSymbol: "VWCE", Symbol: "VWCE.DE", Source: "ISIN", Exchange: "GER", Currency: "EUR"},
	})
	for _, want := range []string{"VWCE", "VWCE.DE", "ISIN", "GER", "EUR"} {
		if !strings.Contains(md, want) {
			t.Errorf("resolution table does not contain %q:\n%s", want, md)
		}
	}
}
