package frontier

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/gmelchiori/frontier/date"
	"github.com/gmelchiori/frontier/yahoo"
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/mat"
)

// marketStub serves canned price histories.
type marketStub struct {
	histories map[string]*yahoo.Series
}

func (m *marketStub) History(_ context.Context, ticker string, _ date.Lookback) (*yahoo.Series, error) {
	s, ok := m.histories[ticker]
	if !ok {
		return nil, fmt.Errorf("unknown symbol %s", ticker)
	}
	return s, nil
}

func (m *marketStub) Search(_ context.Context, _ string, _ int) ([]yahoo.Candidate, error) {
	return nil, nil
}

func (m *marketStub) Valid(_ context.Context, symbol string) bool {
	_, ok := m.histories[symbol]
	return ok
}

// trending builds a daily series drifting at rate, with a deterministic
// alternating wiggle so returns have a nonzero variance. Different periods
// decorrelate the test assets.
func trending(ticker string, start, rate float64, days, period int) *yahoo.Series {
	s := &yahoo.Series{Ticker: ticker, Currency: "EUR"}
	day := date.New(2024, time.March, 1)
	price := start
	for i := 0; i < days; i++ {
		s.Quotes = append(s.Quotes, yahoo.Quote{Date: day.Add(i), Close: decimal.NewFromFloat(price)})
		wiggle := 0.02
		if (i/period)%2 == 1 {
			wiggle = -wiggle
		}
		price *= 1 + rate + wiggle
	}
	return s
}

func testStudyConfig() Config {
	cfg := DefaultConfig()
	cfg.Assets = []Asset{{Symbol: "AAA"}, {Symbol: "BBB"}, {Symbol: "CCC"}}
	cfg.Resolve = false
	cfg.RiskFree = 0
	cfg.Simulations = 200
	cfg.Seed = 7
	cfg.Benchmark = "BENCH"
	return cfg
}

func testMarket() *marketStub {
	return &marketStub{histories: map[string]*yahoo.Series{
		"AAA":   trending("AAA", 100, 0.010, 20, 1),
		"BBB":   trending("BBB", 50, 0.004, 20, 2),
		"CCC":   trending("CCC", 20, 0.007, 20, 3),
		"BENCH": trending("BENCH", 200, 0.005, 20, 2),
	}}
}

func TestRunStudy(t *testing.T) {
	study, err := RunStudy(context.Background(), testMarket(), testStudyConfig(), t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if len(study.Tickers) != 3 {
		t.Fatalf("tickers = %v, want 3", study.Tickers)
	}
	if study.Observations != 20 {
		t.Errorf("observations = %d, want 20", study.Observations)
	}
	if len(study.Skipped) != 0 {
		t.Errorf("skipped = %v, want none", study.Skipped)
	}

	checkFullyInvested(t, study.MinVariance.Weights)
	checkFullyInvested(t, study.MaxSharpe.Weights)
	if study.MaxSharpe.Performance.Sharpe < study.MinVariance.Performance.Sharpe-1e-6 {
		t.Errorf("max sharpe %v below min variance sharpe %v",
			study.MaxSharpe.Performance.Sharpe, study.MinVariance.Performance.Sharpe)
	}

	if len(study.Frontier) == 0 {
		t.Error("empty frontier")
	}
	if len(study.Sampled) != 200 {
		t.Errorf("sampled = %d, want 200", len(study.Sampled))
	}
	if study.BestSampled == nil {
		t.Error("no best sampled portfolio")
	}

	if len(study.Latest) != 3 {
		t.Fatalf("latest = %v, want 3 quotes", study.Latest)
	}
	if study.Latest[0].Currency != "EUR" || study.Latest[0].Close.IsZero() {
		t.Errorf("latest[0] = %+v, want a EUR price", study.Latest[0])
	}

	if study.Benchmark == nil {
		t.Fatal("no benchmark result")
	}
	if study.Benchmark.Status != "" {
		t.Fatalf("benchmark status %q, want success", study.Benchmark.Status)
	}
	if study.Benchmark.Performance.Sharpe <= 0 {
		t.Errorf("benchmark sharpe = %v, want positive for a rising series", study.Benchmark.Performance.Sharpe)
	}
	if math.IsNaN(study.Benchmark.Power) {
		t.Error("benchmark power is NaN")
	}
	if study.Benchmark.Years <= 0 {
		t.Errorf("benchmark years = %v, want a positive span", study.Benchmark.Years)
	}

	if study.MinVarianceRisk.MaxDrawdown > 0 || study.Risk.MaxDrawdown > 0 {
		t.Errorf("drawdowns = %v and %v, want non-positive",
			study.MinVarianceRisk.MaxDrawdown, study.Risk.MaxDrawdown)
	}
}

func TestRunStudySkipsFailedDownloads(t *testing.T) {
	cfg := testStudyConfig()
	cfg.Assets = append(cfg.Assets, Asset{Symbol: "GONE"})

	study, err := RunStudy(context.Background(), testMarket(), cfg, t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if len(study.Tickers) != 3 {
		t.Fatalf("tickers = %v, want the 3 working ones", study.Tickers)
	}
	found := false
	for _, sk := range study.Skipped {
		if sk.Ticker == "GONE" && sk.Reason == "download failed" {
			found = true
		}
	}
	if !found {
		t.Errorf("skipped = %v, want GONE with a download failure", study.Skipped)
	}
}

func TestRunStudyFailsBelowTwoAssets(t *testing.T) {
	cfg := testStudyConfig()
	cfg.Assets = cfg.Assets[:1]
	if _, err := RunStudy(context.Background(), testMarket(), cfg, t.TempDir()); err == nil {
		t.Fatal("expected an error with a single asset")
	}
}

func TestRunStudyBenchmarkFailureDegrades(t *testing.T) {
	cfg := testStudyConfig()
	cfg.Benchmark = "MISSING"

	study, err := RunStudy(context.Background(), testMarket(), cfg, t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if study.Benchmark == nil || study.Benchmark.Status == "" {
		t.Fatalf("benchmark = %+v, want a status explaining the failure", study.Benchmark)
	}
}

func TestRunStudyIgnoresMismatchedPrevWeights(t *testing.T) {
	cfg := testStudyConfig()
	cfg.TurnoverLambda = 0.5
	cfg.PrevWeights = []float64{0.5, 0.5} // three tickers survive

	study, err := RunStudy(context.Background(), testMarket(), cfg, t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	checkFullyInvested(t, study.MaxSharpe.Weights)
}

func TestBestSampledDrawdownFilter(t *testing.T) {
	// Asset 1 dips 2% once, asset 2 crashes 60% once.
	returns := mat.NewDense(3, 2, []float64{
		0.01, 0.02,
		-0.02, -0.60,
		0.01, 0.03,
	})
	sampled := []SampledPortfolio{
		{Performance: Performance{Sharpe: 1.0}, Weights: []float64{1, 0}},
		{Performance: Performance{Sharpe: 2.0}, Weights: []float64{0, 1}},
	}

	best, filtered := bestSampled(sampled, returns, 0, false)
	if filtered != 0 || best.Sharpe != 2.0 {
		t.Errorf("unfiltered best sharpe = %v (%d filtered), want 2.0", best.Sharpe, filtered)
	}

	best, filtered = bestSampled(sampled, returns, -0.30, false)
	if filtered != 1 || best.Sharpe != 1.0 {
		t.Errorf("filtered best sharpe = %v (%d filtered), want 1.0 with 1 excluded", best.Sharpe, filtered)
	}

	// Nothing passes: fall back to the overall best.
	best, _ = bestSampled(sampled, returns, -0.001, false)
	if best == nil || best.Sharpe != 2.0 {
		t.Errorf("fallback best = %+v, want the overall best", best)
	}
}

func TestPortfolioDailyReturnsLog(t *testing.T) {
	// One asset halves in a day: the log return is ln(0.5) but the loss of
	// wealth, and so the drawdown, is 50%.
	returns := mat.NewDense(1, 1, []float64{math.Log(0.5)})

	daily := portfolioDailyReturns(returns, []float64{1}, true)
	almost(t, daily[0], -0.5, 1e-12, "converted daily return")
	almost(t, MaxDrawdown(daily), -0.5, 1e-12, "drawdown after a 50% crash")

	raw := portfolioDailyReturns(returns, []float64{1}, false)
	almost(t, raw[0], math.Log(0.5), 1e-12, "raw return without conversion")
}
