package frontier

import (
	"errors"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
	"gonum.org/v1/gonum/stat/distuv"
)

// SampledPortfolio is one random portfolio from a Monte Carlo run.
type SampledPortfolio struct {
	Performance
	Weights []float64 `json:"weights"`
}

// MonteCarlo draws sims random fully invested portfolios consistent with the
// constraints and evaluates each one. Long-only portfolios are Dirichlet
// distributed; with shorts allowed, Gaussian draws are normalized to sum to
// one; with weight bounds, weights start at the lower bound and the budget is
// spread in random capped increments. Bounds combined with shorts are not
// supported.
func MonteCarlo(mean []float64, cov *mat.SymDense, riskFree float64, sims int, cons Constraints, src rand.Source) ([]SampledPortfolio, error) {
	n := len(mean)
	if cons.Bounds {
		if cons.AllowShort {
			return nil, errors.New("weight bounds with shorting are not supported in Monte Carlo")
		}
		if err := cons.Validate(n); err != nil {
			return nil, err
		}
	}

	rng := rand.New(src)
	draw := sampler(n, cons, rng)

	portfolios := make([]SampledPortfolio, 0, sims)
	for i := 0; i < sims; i++ {
		w := draw()
		portfolios = append(portfolios, SampledPortfolio{
			Performance: PortfolioPerformance(w, mean, cov, riskFree),
			Weights:     w,
		})
	}
	return portfolios, nil
}

// sampler returns a draw function for the constraint set.
func sampler(n int, cons Constraints, rng *rand.Rand) func() []float64 {
	switch {
	case cons.Bounds:
		return func() []float64 { return boundedDraw(n, cons.MinWeight, cons.MaxWeight, rng) }
	case cons.AllowShort:
		normal := distuv.Normal{Mu: 0, Sigma: 1, Src: rng}
		return func() []float64 {
			w := make([]float64, n)
			var sum float64
			for i := range w {
				w[i] = normal.Rand()
				sum += w[i]
			}
			if sum == 0 {
				sum = 1
			}
			for i := range w {
				w[i] /= sum
			}
			return w
		}
	default:
		alpha := make([]float64, n)
		for i := range alpha {
			alpha[i] = 1
		}
		dirichlet := distmv.NewDirichlet(alpha, rng)
		return func() []float64 {
			return dirichlet.Rand(make([]float64, n))
		}
	}
}

// boundedDraw samples a weight vector in [min,max]ⁿ summing to one: every
// weight starts at min, then the remaining budget is handed out in random
// increments capped by the remaining headroom, in random asset order, and any
// leftover is spread pro rata over the remaining headroom.
func boundedDraw(n int, min, max float64, rng *rand.Rand) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = min
	}
	remaining := 1 - min*float64(n)
	headroom := max - min
	for _, i := range rng.Perm(n) {
		if remaining <= 0 {
			break
		}
		add := rng.Float64() * math.Min(headroom, remaining)
		w[i] += add
		remaining -= add
	}
	if remaining > 0 {
		var room float64
		for i := range w {
			room += max - w[i]
		}
		if room > 0 {
			for i := range w {
				w[i] += (max - w[i]) * remaining / room
			}
		}
	}
	return w
}
