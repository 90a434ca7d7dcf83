package frontier

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// TradingDays is the number of trading days used to annualize daily statistics.
const TradingDays = 252

// Performance summarizes a portfolio as annualized figures.
type Performance struct {
	Return     float64 `json:"return"`
	Volatility float64 `json:"volatility"`
	Variance   float64 `json:"variance"`
	Sharpe     float64 `json:"sharpe"`
}

// RiskMetrics summarizes the downside behavior of a daily return series.
type RiskMetrics struct {
	MaxDrawdown float64 `json:"max_drawdown"`
	VaR95       float64 `json:"var_95"`
	CVaR95      float64 `json:"cvar_95"`
}

// Returns computes per-day returns from an aligned price matrix (rows are
// days, columns are assets). The result has one row less than prices.
func Returns(prices *mat.Dense, useLog bool) *mat.Dense {
	rows, cols := prices.Dims()
	returns := mat.NewDense(rows-1, cols, nil)
	for i := 1; i < rows; i++ {
		for j := 0; j < cols; j++ {
			prev, cur := prices.At(i-1, j), prices.At(i, j)
			if useLog {
				returns.Set(i-1, j, math.Log(cur/prev))
			} else {
				returns.Set(i-1, j, cur/prev-1)
			}
		}
	}
	return returns
}

// AnnualizedMean returns the annualized mean return of each column.
func AnnualizedMean(returns *mat.Dense) []float64 {
	rows, cols := returns.Dims()
	mean := make([]float64, cols)
	for j := 0; j < cols; j++ {
		var sum float64
		for i := 0; i < rows; i++ {
			sum += returns.At(i, j)
		}
		mean[j] = sum / float64(rows) * TradingDays
	}
	return mean
}

// AnnualizedCov returns the annualized sample covariance of the columns.
func AnnualizedCov(returns *mat.Dense) *mat.SymDense {
	_, cols := returns.Dims()
	cov := mat.NewSymDense(cols, nil)
	stat.CovarianceMatrix(cov, returns, nil)
	for i := 0; i < cols; i++ {
		for j := i; j < cols; j++ {
			cov.SetSym(i, j, cov.At(i, j)*TradingDays)
		}
	}
	return cov
}

// ShrinkCovariance blends the covariance toward its diagonal. The intensity is
// clamped to [0,1]; zero or negative intensity returns cov untouched.
func ShrinkCovariance(cov *mat.SymDense, intensity float64) *mat.SymDense {
	if intensity <= 0 {
		return cov
	}
	k := math.Min(intensity, 1)
	n := cov.SymmetricDim()
	out := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		out.SetSym(i, i, cov.At(i, i))
		for j := i + 1; j < n; j++ {
			out.SetSym(i, j, (1-k)*cov.At(i, j))
		}
	}
	return out
}

// Correlation returns the correlation matrix implied by a covariance matrix.
func Correlation(cov *mat.SymDense) *mat.SymDense {
	n := cov.SymmetricDim()
	corr := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			d := math.Sqrt(cov.At(i, i) * cov.At(j, j))
			if d == 0 {
				corr.SetSym(i, j, 0)
				continue
			}
			corr.SetSym(i, j, cov.At(i, j)/d)
		}
	}
	return corr
}

// PortfolioPerformance computes the annualized performance of a weight vector
// against the given mean vector and covariance matrix. Sharpe is NaN when the
// volatility is zero.
func PortfolioPerformance(weights, mean []float64, cov *mat.SymDense, riskFree float64) Performance {
	n := len(weights)
	var ret, variance float64
	for i := 0; i < n; i++ {
		ret += weights[i] * mean[i]
		for j := 0; j < n; j++ {
			variance += weights[i] * cov.At(i, j) * weights[j]
		}
	}
	vol := math.Sqrt(variance)
	sharpe := math.NaN()
	if vol > 0 {
		sharpe = (ret - riskFree) / vol
	}
	return Performance{Return: ret, Volatility: vol, Variance: variance, Sharpe: sharpe}
}

// SimpleFromLog converts a log return series back to simple returns, the form
// MaxDrawdown and VarCVar expect.
func SimpleFromLog(returns []float64) []float64 {
	out := make([]float64, len(returns))
	for i, r := range returns {
		out[i] = math.Expm1(r)
	}
	return out
}

// MaxDrawdown returns the worst peak-to-trough loss of a daily return series,
// as a non-positive fraction of the peak.
func MaxDrawdown(returns []float64) float64 {
	cumulative, peak, worst := 1.0, 1.0, 0.0
	for _, r := range returns {
		cumulative *= 1 + r
		if cumulative > peak {
			peak = cumulative
		}
		if dd := (cumulative - peak) / peak; dd < worst {
			worst = dd
		}
	}
	return worst
}

// VarCVar computes max drawdown, value-at-risk and conditional value-at-risk
// of a daily return series at the given confidence level (e.g. 0.95). An
// empty series yields zeroed metrics.
func VarCVar(returns []float64, alpha float64) RiskMetrics {
	if len(returns) == 0 {
		return RiskMetrics{}
	}
	sorted := make([]float64, len(returns))
	copy(sorted, returns)
	sort.Float64s(sorted)

	varLevel := stat.Quantile(1-alpha, stat.LinInterp, sorted, nil)

	var tailSum float64
	var tailN int
	for _, r := range sorted {
		if r > varLevel {
			break
		}
		tailSum += r
		tailN++
	}
	cvar := varLevel
	if tailN > 0 {
		cvar = tailSum / float64(tailN)
	}
	return RiskMetrics{MaxDrawdown: MaxDrawdown(returns), VaR95: varLevel, CVaR95: cvar}
}
