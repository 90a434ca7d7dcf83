package frontier

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gmelchiori/frontier/date"
	"github.com/gmelchiori/frontier/yahoo"
	"github.com/shopspring/decimal"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// LatestQuote is the most recent close of a study ticker, kept for reports.
type LatestQuote struct {
	Ticker   string          `json:"ticker"`
	Date     date.Date       `json:"date"`
	Close    decimal.Decimal `json:"close"`
	Currency string          `json:"currency"`
}

// Study is the complete result of one portfolio study.
type Study struct {
	CreatedAt time.Time       `json:"created_at"`
	Config    Config          `json:"config"`
	Assets    []ResolvedAsset `json:"assets"`
	Skipped   []Skipped       `json:"skipped,omitempty"`

	Tickers      []string      `json:"tickers"`
	From, To     date.Date     `json:"-"`
	Observations int           `json:"observations"`
	Latest       []LatestQuote `json:"latest"`

	Mean []float64 `json:"mean"`

	// Matrices are persisted as CSV files, not JSON.
	Prices  *mat.Dense    `json:"-"`
	Dates   []date.Date   `json:"-"`
	Returns *mat.Dense    `json:"-"`
	Cov     *mat.SymDense `json:"-"`
	Corr    *mat.SymDense `json:"-"`

	MinVariance     Result          `json:"min_variance"`
	MinVarianceRisk RiskMetrics     `json:"min_variance_risk"`
	MaxSharpe       Result          `json:"max_sharpe"`
	Risk            RiskMetrics     `json:"risk"`
	Frontier        []FrontierPoint `json:"-"`

	Sampled     []SampledPortfolio `json:"-"`
	BestSampled *SampledPortfolio  `json:"best_sampled,omitempty"`
	FilteredOut int                `json:"filtered_out,omitempty"`

	Benchmark *Benchmark `json:"benchmark,omitempty"`
}

// RunStudy resolves the configured assets, downloads their histories and runs
// the full analysis: returns, annualized statistics, optimized portfolios,
// efficient frontier, Monte Carlo sampling, risk metrics and the benchmark
// comparison. baseDir hosts the symbol resolution cache.
func RunStudy(ctx context.Context, src Source, cfg Config, baseDir string) (*Study, error) {
	if err := cfg.Check(); err != nil {
		return nil, err
	}
	if len(cfg.Assets) < 2 {
		return nil, fmt.Errorf("need at least 2 assets, got %d", len(cfg.Assets))
	}

	study := &Study{CreatedAt: time.Now(), Config: cfg}

	if cfg.Resolve {
		resolved, err := ResolveAssets(ctx, src, cfg.Assets, baseDir, cfg.Currency)
		if err != nil {
			return nil, err
		}
		study.Assets = resolved
	} else {
		for _, a := range cfg.Assets {
			study.Assets = append(study.Assets, ResolvedAsset{
				UserSymbol: a.Symbol, Symbol: a.Symbol, Source: "DIRECT",
				Name: a.Name, ISIN: a.ISIN,
			})
		}
	}
	if len(study.Assets) < 2 {
		return nil, fmt.Errorf("only %d assets resolved, need at least 2", len(study.Assets))
	}

	var series []*yahoo.Series
	currencies := make(map[string]string)
	for _, asset := range study.Assets {
		s, err := src.History(ctx, asset.Symbol, cfg.Lookback)
		if err != nil {
			log.Printf("download failed for %s: %v", asset.Symbol, err)
			study.Skipped = append(study.Skipped, Skipped{Ticker: asset.Symbol, Reason: "download failed"})
			continue
		}
		currencies[s.Ticker] = s.Currency
		series = append(series, s)
	}

	table, skipped, err := NewTable(series)
	study.Skipped = append(study.Skipped, skipped...)
	if err != nil {
		return nil, err
	}
	study.Tickers = table.Tickers
	study.Dates = table.Dates
	study.Prices = table.Prices
	study.From = table.Dates[0]
	study.To = table.Dates[len(table.Dates)-1]
	study.Observations = len(table.Dates)

	last := len(table.Dates) - 1
	for j, ticker := range table.Tickers {
		study.Latest = append(study.Latest, LatestQuote{
			Ticker:   ticker,
			Date:     table.Dates[last],
			Close:    decimal.NewFromFloat(table.Prices.At(last, j)),
			Currency: currencies[ticker],
		})
	}

	study.Returns = Returns(table.Prices, cfg.LogReturns)
	study.Mean = AnnualizedMean(study.Returns)
	study.Cov = ShrinkCovariance(AnnualizedCov(study.Returns), cfg.Shrinkage)
	study.Corr = Correlation(study.Cov)

	n := len(table.Tickers)
	cons := cfg.Constraints()
	if len(cons.Prev) > 0 && len(cons.Prev) != n {
		log.Printf("previous weights have %d entries for %d tickers, ignoring", len(cons.Prev), n)
		cons.Prev = nil
		cons.TurnoverLambda = 0
	}
	if err := cons.Validate(n); err != nil {
		return nil, err
	}

	minVar, err := MinVariance(study.Mean, study.Cov, cons)
	if err != nil {
		return nil, fmt.Errorf("minimum variance optimization: %w", err)
	}
	minVar.Performance = PortfolioPerformance(minVar.Weights, study.Mean, study.Cov, cfg.RiskFree)
	study.MinVariance = *minVar
	study.MinVarianceRisk = VarCVar(portfolioDailyReturns(study.Returns, minVar.Weights, cfg.LogReturns), 0.95)

	maxSharpe, err := MaxSharpe(study.Mean, study.Cov, cfg.RiskFree, cons)
	if err != nil {
		return nil, fmt.Errorf("maximum sharpe optimization: %w", err)
	}
	study.MaxSharpe = *maxSharpe
	study.Risk = VarCVar(portfolioDailyReturns(study.Returns, maxSharpe.Weights, cfg.LogReturns), 0.95)

	frontier, err := EfficientFrontier(study.Mean, study.Cov, cons)
	if err != nil {
		log.Printf("efficient frontier skipped: %v", err)
	}
	study.Frontier = frontier

	if cfg.Simulations > 0 {
		seed := cfg.Seed
		if seed == 0 {
			seed = uint64(time.Now().UnixNano())
		}
		sampled, err := MonteCarlo(study.Mean, study.Cov, cfg.RiskFree, cfg.Simulations, cons, rand.NewSource(seed))
		if err != nil {
			log.Printf("monte carlo skipped: %v", err)
		}
		study.Sampled = sampled
		study.BestSampled, study.FilteredOut = bestSampled(sampled, study.Returns, cfg.DrawdownLimit, cfg.LogReturns)
	}

	if cfg.Benchmark != "" {
		study.Benchmark = CompareBenchmark(ctx, src, cfg.Benchmark, cfg.Lookback,
			table.Dates, study.MaxSharpe.Performance.Sharpe, cfg.RiskFree, cfg.LogReturns)
		if study.Benchmark.Status != "" {
			log.Printf("benchmark %s: %s", cfg.Benchmark, study.Benchmark.Status)
		}
	}

	return study, nil
}

// bestSampled picks the highest-Sharpe sampled portfolio. With a negative
// drawdown limit, portfolios whose historical drawdown is worse than the
// limit are excluded first; when every portfolio fails the filter the best
// unfiltered one is returned.
func bestSampled(sampled []SampledPortfolio, returns *mat.Dense, drawdownLimit float64, useLog bool) (*SampledPortfolio, int) {
	if len(sampled) == 0 {
		return nil, 0
	}
	best := -1
	bestAll := 0
	filtered := 0
	for i := range sampled {
		if sampled[i].Sharpe > sampled[bestAll].Sharpe {
			bestAll = i
		}
		if drawdownLimit < 0 {
			dd := MaxDrawdown(portfolioDailyReturns(returns, sampled[i].Weights, useLog))
			if dd < drawdownLimit {
				filtered++
				continue
			}
		}
		if best < 0 || sampled[i].Sharpe > sampled[best].Sharpe {
			best = i
		}
	}
	if best < 0 {
		log.Printf("all %d sampled portfolios exceed the drawdown limit %.2f", len(sampled), drawdownLimit)
		best = bestAll
	}
	pick := sampled[best]
	return &pick, filtered
}

// portfolioDailyReturns collapses the per-asset return matrix into the daily
// return series of a fixed-weight portfolio. Log returns are converted back
// to simple returns, the form the drawdown and tail metrics expect.
func portfolioDailyReturns(returns *mat.Dense, weights []float64, useLog bool) []float64 {
	rows, cols := returns.Dims()
	daily := make([]float64, rows)
	for i := 0; i < rows; i++ {
		var r float64
		for j := 0; j < cols; j++ {
			r += returns.At(i, j) * weights[j]
		}
		daily[i] = r
	}
	if useLog {
		return SimpleFromLog(daily)
	}
	return daily
}
