package frontier

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func almost(t *testing.T, got, want, tol float64, what string) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s = %v, want %v", what, got, want)
	}
}

func TestReturns(t *testing.T) {
	prices := mat.NewDense(3, 2, []float64{
		100, 50,
		110, 45,
		99, 54,
	})

	r := Returns(prices, false)
	rows, cols := r.Dims()
	if rows != 2 || cols != 2 {
		t.Fatalf("got %dx%d returns, want 2x2", rows, cols)
	}
	almost(t, r.At(0, 0), 0.10, 1e-12, "pct return day 1 asset 1")
	almost(t, r.At(0, 1), -0.10, 1e-12, "pct return day 1 asset 2")
	almost(t, r.At(1, 0), -0.10, 1e-12, "pct return day 2 asset 1")
	almost(t, r.At(1, 1), 0.20, 1e-12, "pct return day 2 asset 2")

	lr := Returns(prices, true)
	almost(t, lr.At(0, 0), math.Log(1.10), 1e-12, "log return day 1 asset 1")
}

func TestAnnualizedMean(t *testing.T) {
	returns := mat.NewDense(3, 1, []float64{0.01, 0.02, 0.03})
	mean := AnnualizedMean(returns)
	almost(t, mean[0], 0.02*TradingDays, 1e-12, "annualized mean")
}

func TestShrinkCovariance(t *testing.T) {
	cov := mat.NewSymDense(2, []float64{
		0.04, 0.02,
		0.02, 0.09,
	})

	shrunk := ShrinkCovariance(cov, 0.5)
	almost(t, shrunk.At(0, 0), 0.04, 1e-12, "diagonal untouched")
	almost(t, shrunk.At(1, 1), 0.09, 1e-12, "diagonal untouched")
	almost(t, shrunk.At(0, 1), 0.01, 1e-12, "off-diagonal halved")

	if got := ShrinkCovariance(cov, 0); got != cov {
		t.Error("zero intensity should return the input untouched")
	}

	full := ShrinkCovariance(cov, 2) // clamped to 1
	almost(t, full.At(0, 1), 0, 1e-12, "full shrinkage kills correlations")
}

func TestCorrelation(t *testing.T) {
	cov := mat.NewSymDense(2, []float64{
		0.04, 0.03,
		0.03, 0.09,
	})
	corr := Correlation(cov)
	almost(t, corr.At(0, 0), 1, 1e-12, "self correlation")
	almost(t, corr.At(1, 1), 1, 1e-12, "self correlation")
	almost(t, corr.At(0, 1), 0.03/(0.2*0.3), 1e-12, "cross correlation")
}

func TestPortfolioPerformance(t *testing.T) {
	mean := []float64{0.10, 0.20}
	cov := mat.NewSymDense(2, []float64{
		0.04, 0,
		0, 0.09,
	})
	p := PortfolioPerformance([]float64{0.5, 0.5}, mean, cov, 0.02)

	almost(t, p.Return, 0.15, 1e-12, "return")
	almost(t, p.Variance, 0.0325, 1e-12, "variance")
	almost(t, p.Volatility, math.Sqrt(0.0325), 1e-12, "volatility")
	almost(t, p.Sharpe, (0.15-0.02)/math.Sqrt(0.0325), 1e-12, "sharpe")
}

func TestPortfolioPerformanceZeroVolatility(t *testing.T) {
	cov := mat.NewSymDense(1, []float64{0})
	p := PortfolioPerformance([]float64{1}, []float64{0.05}, cov, 0.02)
	if !math.IsNaN(p.Sharpe) {
		t.Errorf("sharpe = %v, want NaN at zero volatility", p.Sharpe)
	}
}

func TestSimpleFromLog(t *testing.T) {
	simple := SimpleFromLog([]float64{math.Log(0.5), math.Log(1.1), 0})
	almost(t, simple[0], -0.5, 1e-12, "halving")
	almost(t, simple[1], 0.1, 1e-12, "10% gain")
	almost(t, simple[2], 0, 1e-12, "flat day")
}

func TestMaxDrawdown(t *testing.T) {
	// Up 10%, crash 50%, partial recovery: trough is 0.55 against a 1.10 peak.
	dd := MaxDrawdown([]float64{0.10, -0.50, 0.10})
	almost(t, dd, -0.5, 1e-12, "max drawdown")

	if got := MaxDrawdown([]float64{0.01, 0.02}); got != 0 {
		t.Errorf("drawdown of a rising series = %v, want 0", got)
	}
}

func TestVarCVar(t *testing.T) {
	returns := []float64{-0.05, -0.02, 0.01, 0.02, 0.03, -0.01, 0.00, 0.02, -0.03, 0.01}
	m := VarCVar(returns, 0.95)

	if m.VaR95 > -0.02 {
		t.Errorf("VaR95 = %v, want at most -0.02", m.VaR95)
	}
	if m.CVaR95 > m.VaR95 {
		t.Errorf("CVaR95 = %v must not exceed VaR95 = %v", m.CVaR95, m.VaR95)
	}
	if m.MaxDrawdown >= 0 {
		t.Errorf("MaxDrawdown = %v, want negative", m.MaxDrawdown)
	}
}

func TestVarCVarEmpty(t *testing.T) {
	if m := VarCVar(nil, 0.95); m != (RiskMetrics{}) {
		t.Errorf("empty series metrics = %+v, want zeros", m)
	}
}
