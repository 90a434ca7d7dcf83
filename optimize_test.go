package frontier

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func checkFullyInvested(t *testing.T, w []float64) {
	t.Helper()
	var sum float64
	for _, v := range w {
		sum += v
	}
	if math.Abs(sum-1) > 1e-8 {
		t.Errorf("weights %v sum to %v, want 1", w, sum)
	}
}

func TestMinVarianceTwoAssets(t *testing.T) {
	// Uncorrelated assets: minimum variance weights are inverse variances,
	// normalized: (1/0.05, 1/0.20) -> (0.8, 0.2).
	mean := []float64{0.08, 0.12}
	cov := mat.NewSymDense(2, []float64{
		0.05, 0,
		0, 0.20,
	})

	r, err := MinVariance(mean, cov, Constraints{})
	if err != nil {
		t.Fatal(err)
	}
	checkFullyInvested(t, r.Weights)
	almost(t, r.Weights[0], 0.8, 1e-6, "w[0]")
	almost(t, r.Weights[1], 0.2, 1e-6, "w[1]")
}

func TestMinVarianceLongOnly(t *testing.T) {
	// Unconstrained the high correlation calls for shorting the riskier
	// asset; long-only it is clamped to zero.
	mean := []float64{0.08, 0.12}
	cov := mat.NewSymDense(2, []float64{
		0.04, 0.05,
		0.05, 0.09,
	})

	r, err := MinVariance(mean, cov, Constraints{})
	if err != nil {
		t.Fatal(err)
	}
	checkFullyInvested(t, r.Weights)
	for i, w := range r.Weights {
		if w < -1e-9 {
			t.Errorf("w[%d] = %v is negative", i, w)
		}
	}
	almost(t, r.Weights[0], 1, 1e-6, "w[0]")
	almost(t, r.Weights[1], 0, 1e-6, "w[1]")
}

func TestMinVarianceShortAllowed(t *testing.T) {
	mean := []float64{0.08, 0.12}
	cov := mat.NewSymDense(2, []float64{
		0.04, 0.05,
		0.05, 0.09,
	})

	r, err := MinVariance(mean, cov, Constraints{AllowShort: true})
	if err != nil {
		t.Fatal(err)
	}
	checkFullyInvested(t, r.Weights)
	// Analytic: w1 = (s2-s12)/(s1+s2-2*s12) = 0.04/0.03.
	almost(t, r.Weights[0], 4.0/3.0, 1e-6, "w[0]")
	almost(t, r.Weights[1], -1.0/3.0, 1e-6, "w[1]")
}

func TestMinVarianceBoundsRespected(t *testing.T) {
	mean := []float64{0.05, 0.08, 0.11, 0.14}
	cov := mat.NewSymDense(4, []float64{
		0.02, 0, 0, 0,
		0, 0.04, 0, 0,
		0, 0, 0.09, 0,
		0, 0, 0, 0.16,
	})
	cons := Constraints{Bounds: true, MinWeight: 0.05, MaxWeight: 0.50}

	r, err := MinVariance(mean, cov, cons)
	if err != nil {
		t.Fatal(err)
	}
	checkFullyInvested(t, r.Weights)
	for i, w := range r.Weights {
		if w < cons.MinWeight-1e-8 || w > cons.MaxWeight+1e-8 {
			t.Errorf("w[%d] = %v outside [%v, %v]", i, w, cons.MinWeight, cons.MaxWeight)
		}
	}
}

func TestInfeasibleBounds(t *testing.T) {
	mean := []float64{0.08, 0.12}
	cov := mat.NewSymDense(2, []float64{
		0.05, 0,
		0, 0.20,
	})
	// Two assets cannot reach a full budget with a 0.25 cap each.
	cons := Constraints{Bounds: true, MinWeight: 0.03, MaxWeight: 0.25}

	if _, err := MinVariance(mean, cov, cons); err == nil {
		t.Fatal("expected an infeasibility error")
	}
	if _, err := MaxSharpe(mean, cov, 0.02, cons); err == nil {
		t.Fatal("expected an infeasibility error")
	}
	if _, err := EfficientFrontier(mean, cov, cons); err == nil {
		t.Fatal("expected an infeasibility error")
	}
}

func TestMaxSharpeTangency(t *testing.T) {
	// Shorting allowed and no turnover penalty hits the closed form:
	// w proportional to inv(Cov) * (mean - rf).
	mean := []float64{0.10, 0.15}
	cov := mat.NewSymDense(2, []float64{
		0.04, 0,
		0, 0.09,
	})
	riskFree := 0.02

	r, err := MaxSharpe(mean, cov, riskFree, Constraints{AllowShort: true})
	if err != nil {
		t.Fatal(err)
	}
	checkFullyInvested(t, r.Weights)
	// inv(Cov)*(mean-rf) = (2, 1.4444...), normalized.
	almost(t, r.Weights[0], 2/(2+0.13/0.09), 1e-9, "w[0]")
	almost(t, r.Weights[1], (0.13/0.09)/(2+0.13/0.09), 1e-9, "w[1]")
}

func TestMaxSharpeLongOnly(t *testing.T) {
	// The tangency portfolio is interior here, so the boxed search must
	// land on (nearly) the same Sharpe.
	mean := []float64{0.10, 0.15}
	cov := mat.NewSymDense(2, []float64{
		0.04, 0,
		0, 0.09,
	})
	riskFree := 0.02

	want, err := MaxSharpe(mean, cov, riskFree, Constraints{AllowShort: true})
	if err != nil {
		t.Fatal(err)
	}
	got, err := MaxSharpe(mean, cov, riskFree, Constraints{})
	if err != nil {
		t.Fatal(err)
	}
	checkFullyInvested(t, got.Weights)
	for i, w := range got.Weights {
		if w < -1e-9 {
			t.Errorf("w[%d] = %v is negative", i, w)
		}
	}
	almost(t, got.Performance.Sharpe, want.Performance.Sharpe, 1e-6, "sharpe")
}

func TestEfficientFrontier(t *testing.T) {
	mean := []float64{0.06, 0.10, 0.14}
	cov := mat.NewSymDense(3, []float64{
		0.03, 0.01, 0.00,
		0.01, 0.06, 0.02,
		0.00, 0.02, 0.10,
	})

	frontier, err := EfficientFrontier(mean, cov, Constraints{})
	if err != nil {
		t.Fatal(err)
	}
	if len(frontier) == 0 {
		t.Fatal("empty frontier")
	}
	if len(frontier) > frontierPoints {
		t.Fatalf("%d frontier points, want at most %d", len(frontier), frontierPoints)
	}
	for _, p := range frontier {
		checkFullyInvested(t, p.Weights)
		if p.Volatility <= 0 {
			t.Errorf("target %v: volatility %v", p.TargetReturn, p.Volatility)
		}
	}
	// Targets cover the asset mean span.
	almost(t, frontier[0].TargetReturn, 0.06, 1e-9, "lowest target")
	almost(t, frontier[len(frontier)-1].TargetReturn, 0.14, 1e-9, "highest target")
}

func TestTurnoverPenaltyKeepsPreviousWeights(t *testing.T) {
	// With identical assets the unpenalized optimum is 50/50, but a strong
	// penalty makes staying at the previous allocation cheaper than moving.
	mean := []float64{0.08, 0.08}
	cov := mat.NewSymDense(2, []float64{
		0.04, 0,
		0, 0.04,
	})
	prev := []float64{0.8, 0.2}

	r, err := MinVariance(mean, cov, Constraints{TurnoverLambda: 1.0, Prev: prev})
	if err != nil {
		t.Fatal(err)
	}
	checkFullyInvested(t, r.Weights)
	almost(t, r.Weights[0], 0.8, 0.02, "w[0] stays near previous")

	free, err := MinVariance(mean, cov, Constraints{})
	if err != nil {
		t.Fatal(err)
	}
	almost(t, free.Weights[0], 0.5, 1e-6, "unpenalized w[0]")
}

func TestValidateConstraints(t *testing.T) {
	tests := []struct {
		name    string
		cons    Constraints
		n       int
		wantErr bool
	}{
		{"no bounds", Constraints{}, 2, false},
		{"feasible", Constraints{Bounds: true, MinWeight: 0.1, MaxWeight: 0.6}, 3, false},
		{"min above max", Constraints{Bounds: true, MinWeight: 0.6, MaxWeight: 0.1}, 3, true},
		{"floor too high", Constraints{Bounds: true, MinWeight: 0.4, MaxWeight: 0.6}, 3, true},
		{"cap too low", Constraints{Bounds: true, MinWeight: 0.0, MaxWeight: 0.2}, 4, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cons.Validate(tc.n)
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate(%d) error = %v, wantErr %v", tc.n, err, tc.wantErr)
			}
		})
	}
}
