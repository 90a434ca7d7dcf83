package frontier

import (
	"context"
	"fmt"
	"math"

	"github.com/gmelchiori/frontier/date"
	"gonum.org/v1/gonum/stat"
)

// Benchmark compares the best study portfolio against a reference symbol.
// A failed comparison does not fail the study: Status carries the reason and
// the numeric fields stay zero.
type Benchmark struct {
	Symbol      string      `json:"symbol"`
	Performance Performance `json:"performance"`
	Risk        RiskMetrics `json:"risk"`

	// Years is the span of overlapping history the comparison is based on.
	Years float64 `json:"years"`

	// Power is the excess Sharpe of the study's best portfolio over the
	// benchmark, as a fraction: sharpe/benchmark_sharpe - 1.
	Power float64 `json:"power"`

	Status string `json:"status,omitempty"`
}

// minBenchmarkOverlap is the smallest number of study dates the benchmark
// must be quoted on for the comparison to be meaningful.
const minBenchmarkOverlap = 5

// CompareBenchmark downloads the benchmark history and measures it on the
// study's own dates.
func CompareBenchmark(ctx context.Context, src Source, symbol string, lookback date.Lookback, dates []date.Date, studySharpe, riskFree float64, useLog bool) *Benchmark {
	b := &Benchmark{Symbol: symbol}

	series, err := src.History(ctx, symbol, lookback)
	if err != nil {
		b.Status = fmt.Sprintf("download failed: %v", err)
		return b
	}

	if len(dates) == 0 {
		b.Status = "study has no dates to compare on"
		return b
	}
	window := date.Range{From: dates[0], To: dates[len(dates)-1]}
	var history date.History[float64]
	for _, q := range series.Quotes {
		if window.Contains(q.Date) {
			history.Append(q.Date, q.Close.InexactFloat64())
		}
	}
	var closes []float64
	for _, on := range dates {
		if c, ok := history.Get(on); ok {
			closes = append(closes, c)
		}
	}
	if len(closes) < minBenchmarkOverlap {
		b.Status = fmt.Sprintf("only %d overlapping quotes, need %d", len(closes), minBenchmarkOverlap)
		return b
	}
	b.Years = window.Years()

	returns := make([]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if useLog {
			returns[i-1] = math.Log(closes[i] / closes[i-1])
		} else {
			returns[i-1] = closes[i]/closes[i-1] - 1
		}
	}

	ret := stat.Mean(returns, nil) * TradingDays
	variance := stat.Variance(returns, nil) * TradingDays
	vol := math.Sqrt(variance)
	sharpe := math.NaN()
	if vol > 0 {
		sharpe = (ret - riskFree) / vol
	}
	b.Performance = Performance{Return: ret, Volatility: vol, Variance: variance, Sharpe: sharpe}
	risk := returns
	if useLog {
		risk = SimpleFromLog(returns)
	}
	b.Risk = VarCVar(risk, 0.95)

	if math.IsNaN(sharpe) || sharpe <= 0 {
		b.Status = "benchmark sharpe is not positive, power not comparable"
		return b
	}
	b.Power = studySharpe/sharpe - 1
	return b
}
