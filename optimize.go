package frontier

import (
	"errors"
	"fmt"
	"log"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Constraints describes the feasible set of a weight vector. The default
// (zero value) is long-only: every weight in [0,1]. AllowShort removes the
// box entirely; Bounds replaces it with a per-asset [MinWeight, MaxWeight]
// box and takes precedence over AllowShort.
type Constraints struct {
	AllowShort bool    `json:"allow_short"`
	Bounds     bool    `json:"weight_bounds_enabled"`
	MinWeight  float64 `json:"min_weight"`
	MaxWeight  float64 `json:"max_weight"`

	// TurnoverLambda penalizes L1 distance from Prev when positive.
	TurnoverLambda float64   `json:"turnover_lambda,omitempty"`
	Prev           []float64 `json:"-"`
}

// Validate reports whether the constraints admit any fully invested portfolio
// of n assets.
func (c Constraints) Validate(n int) error {
	if !c.Bounds {
		return nil
	}
	if c.MinWeight > c.MaxWeight {
		return fmt.Errorf("min weight %.4f is greater than max weight %.4f", c.MinWeight, c.MaxWeight)
	}
	if c.MinWeight*float64(n) > 1 || c.MaxWeight*float64(n) < 1 {
		return fmt.Errorf("weight bounds [%.4f, %.4f] are infeasible for %d assets", c.MinWeight, c.MaxWeight, n)
	}
	return nil
}

// box returns the per-asset bounds, or boxed=false when weights are free.
func (c Constraints) box(n int) (lo, hi []float64, boxed bool) {
	switch {
	case c.Bounds:
		lo, hi = make([]float64, n), make([]float64, n)
		for i := range lo {
			lo[i], hi[i] = c.MinWeight, c.MaxWeight
		}
		return lo, hi, true
	case c.AllowShort:
		return nil, nil, false
	default:
		lo, hi = make([]float64, n), make([]float64, n)
		for i := range hi {
			hi[i] = 1
		}
		return lo, hi, true
	}
}

// Result is an optimized portfolio.
type Result struct {
	Weights     []float64   `json:"weights"`
	Performance Performance `json:"performance"`
}

// FrontierPoint is one portfolio on the efficient frontier.
type FrontierPoint struct {
	TargetReturn float64   `json:"target_return"`
	Volatility   float64   `json:"volatility"`
	Weights      []float64 `json:"weights"`
}

// frontierPoints is the number of target returns sampled along the frontier.
const frontierPoints = 50

// MinVariance finds the fully invested portfolio with the least variance.
func MinVariance(mean []float64, cov *mat.SymDense, cons Constraints) (*Result, error) {
	n := len(mean)
	if err := cons.Validate(n); err != nil {
		return nil, err
	}
	w, err := solveQP(cov, equalities(nil, 1, nil), cons)
	if err != nil {
		return nil, fmt.Errorf("min variance optimization failed: %w", err)
	}
	return &Result{Weights: w, Performance: PortfolioPerformance(w, mean, cov, 0)}, nil
}

// EfficientFrontier computes minimum-variance portfolios for evenly spaced
// target returns between the lowest and highest asset mean. Infeasible
// targets are logged and skipped.
func EfficientFrontier(mean []float64, cov *mat.SymDense, cons Constraints) ([]FrontierPoint, error) {
	n := len(mean)
	if err := cons.Validate(n); err != nil {
		return nil, err
	}
	lowest, highest := minMax(mean)

	var frontier []FrontierPoint
	for i := 0; i < frontierPoints; i++ {
		target := lowest + (highest-lowest)*float64(i)/float64(frontierPoints-1)
		w, err := solveQP(cov, equalities(mean, 1, &target), cons)
		if err != nil {
			log.Printf("frontier target %.4f infeasible: %v", target, err)
			continue
		}
		perf := PortfolioPerformance(w, mean, cov, 0)
		frontier = append(frontier, FrontierPoint{TargetReturn: target, Volatility: perf.Volatility, Weights: w})
	}
	return frontier, nil
}

// MaxSharpe finds the fully invested portfolio with the highest Sharpe ratio.
//
// Without a box the tangency portfolio has a closed form. With one, the
// Sharpe ratio is unimodal along the efficient frontier, so a coarse scan
// followed by a golden-section refinement finds it.
func MaxSharpe(mean []float64, cov *mat.SymDense, riskFree float64, cons Constraints) (*Result, error) {
	n := len(mean)
	if err := cons.Validate(n); err != nil {
		return nil, err
	}

	if _, _, boxed := cons.box(n); !boxed && cons.TurnoverLambda <= 0 {
		return tangency(mean, cov, riskFree)
	}

	eval := func(target float64) (w []float64, sharpe float64, err error) {
		w, err = solveQP(cov, equalities(mean, 1, &target), cons)
		if err != nil {
			return nil, math.Inf(-1), err
		}
		return w, PortfolioPerformance(w, mean, cov, riskFree).Sharpe, nil
	}

	lowest, highest := minMax(mean)
	bestAt, best := math.NaN(), math.Inf(-1)
	for i := 0; i < frontierPoints; i++ {
		target := lowest + (highest-lowest)*float64(i)/float64(frontierPoints-1)
		if _, sharpe, err := eval(target); err == nil && sharpe > best {
			bestAt, best = target, sharpe
		}
	}
	if math.IsNaN(bestAt) {
		return nil, errors.New("max Sharpe optimization failed: no feasible frontier portfolio")
	}

	// Refine around the best coarse sample.
	step := (highest - lowest) / float64(frontierPoints-1)
	a, b := math.Max(lowest, bestAt-step), math.Min(highest, bestAt+step)
	const invphi = 0.6180339887498949
	x1, x2 := b-invphi*(b-a), a+invphi*(b-a)
	_, f1, _ := eval(x1)
	_, f2, _ := eval(x2)
	for i := 0; i < 40; i++ {
		if f1 > f2 {
			b, x2, f2 = x2, x1, f1
			x1 = b - invphi*(b-a)
			_, f1, _ = eval(x1)
		} else {
			a, x1, f1 = x1, x2, f2
			x2 = a + invphi*(b-a)
			_, f2, _ = eval(x2)
		}
	}

	target := (a + b) / 2
	w, sharpe, err := eval(target)
	if err != nil || sharpe < best {
		// Refinement drifted into an infeasible or worse spot, keep the scan result.
		if w, _, err = eval(bestAt); err != nil {
			return nil, fmt.Errorf("max Sharpe optimization failed: %w", err)
		}
	}
	return &Result{Weights: w, Performance: PortfolioPerformance(w, mean, cov, riskFree)}, nil
}

// tangency solves the unconstrained maximum-Sharpe portfolio Σ⁻¹(μ-rf·1),
// normalized to full investment.
func tangency(mean []float64, cov *mat.SymDense, riskFree float64) (*Result, error) {
	n := len(mean)
	excess := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		excess.SetVec(i, mean[i]-riskFree)
	}
	var x mat.VecDense
	if err := x.SolveVec(cov, excess); err != nil {
		return nil, fmt.Errorf("max Sharpe optimization failed: %w", err)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += x.AtVec(i)
	}
	if math.Abs(sum) < 1e-12 {
		return nil, errors.New("max Sharpe optimization failed: degenerate tangency portfolio")
	}
	w := make([]float64, n)
	for i := 0; i < n; i++ {
		w[i] = x.AtVec(i) / sum
	}
	return &Result{Weights: w, Performance: PortfolioPerformance(w, mean, cov, riskFree)}, nil
}

// equality is a linear constraint a·w = b.
type equality struct {
	a []float64 // nil means all ones
	b float64
}

// equalities builds the constraint set: full investment, plus an optional
// target return row when target is non-nil.
func equalities(mean []float64, invested float64, target *float64) []equality {
	eqs := []equality{{a: nil, b: invested}}
	if target != nil {
		eqs = append(eqs, equality{a: mean, b: *target})
	}
	return eqs
}

const (
	qpTol          = 1e-9
	activeSetLimit = 200
	irlsIterations = 20
	irlsEpsilon    = 1e-6
)

// solveQP minimizes w'Σw + λ·Σ|wᵢ-prevᵢ| subject to the equality constraints
// and the box implied by cons. The quadratic part is solved exactly through
// its KKT system; the box is handled with an active-set loop that clamps
// violated bounds and releases them when their multiplier changes sign; the
// non-smooth turnover term is handled by iteratively reweighting it into a
// quadratic.
func solveQP(cov *mat.SymDense, eqs []equality, cons Constraints) ([]float64, error) {
	n := cov.SymmetricDim()
	lo, hi, boxed := cons.box(n)

	lambda := cons.TurnoverLambda
	prev := cons.Prev
	if lambda <= 0 || len(prev) != n {
		lambda = 0
	}

	// Initial iterate for the turnover reweighting.
	w := make([]float64, n)
	for i := range w {
		w[i] = 1 / float64(n)
	}

	outer := 1
	if lambda > 0 {
		outer = irlsIterations
	}
	var err error
	for k := 0; k < outer; k++ {
		// Quadratic model of the objective at the current iterate:
		// Q = Σ + diag(λ/2rᵢ), c = λ·prevᵢ/rᵢ with rᵢ = max(|wᵢ-prevᵢ|, ε).
		q := mat.NewSymDense(n, nil)
		q.CopySym(cov)
		c := make([]float64, n)
		if lambda > 0 {
			for i := 0; i < n; i++ {
				r := math.Max(math.Abs(w[i]-prev[i]), irlsEpsilon)
				q.SetSym(i, i, q.At(i, i)+lambda/(2*r))
				c[i] = lambda * prev[i] / r
			}
		}

		if boxed {
			w, err = activeSet(q, c, eqs, lo, hi)
		} else {
			all := make([]int, n)
			for i := range all {
				all[i] = i
			}
			w, _, err = kktSolveFree(q, c, eqs, all, make([]float64, n))
		}
		if err != nil {
			return nil, err
		}
	}
	return w, nil
}

// activeSet solves min w'Qw - c·w s.t. equalities and lo ≤ w ≤ hi by fixing
// bound-violating weights at their bound and re-solving on the free set.
func activeSet(q *mat.SymDense, c []float64, eqs []equality, lo, hi []float64) ([]float64, error) {
	n := q.SymmetricDim()
	const (
		atLower = -1
		free    = 0
		atUpper = 1
	)
	state := make([]int, n)

	for iter := 0; iter < activeSetLimit; iter++ {
		fixed := make([]float64, n)
		var freeIdx []int
		for i, s := range state {
			switch s {
			case atLower:
				fixed[i] = lo[i]
			case atUpper:
				fixed[i] = hi[i]
			default:
				freeIdx = append(freeIdx, i)
			}
		}
		if len(freeIdx) == 0 {
			return nil, errors.New("all weights pinned at bounds, constraints infeasible")
		}

		w, nu, err := kktSolveFree(q, c, eqs, freeIdx, fixed)
		if err != nil {
			return nil, err
		}

		// Clamp the worst bound violation, if any.
		worst, worstAt, worstTo := 0.0, -1, free
		for _, i := range freeIdx {
			if d := lo[i] - w[i]; d > qpTol && d > worst {
				worst, worstAt, worstTo = d, i, atLower
			}
			if d := w[i] - hi[i]; d > qpTol && d > worst {
				worst, worstAt, worstTo = d, i, atUpper
			}
		}
		if worstAt >= 0 {
			state[worstAt] = worstTo
			continue
		}

		// Feasible: release the most negative bound multiplier, if any.
		// The gradient of the Lagrangian at a fixed weight is the multiplier
		// of its bound constraint.
		release := -1
		releaseGain := qpTol
		for i, s := range state {
			if s == free {
				continue
			}
			g := gradient(q, c, eqs, w, nu, i)
			if s == atLower && -g > releaseGain {
				releaseGain, release = -g, i
			}
			if s == atUpper && g > releaseGain {
				releaseGain, release = g, i
			}
		}
		if release < 0 {
			return w, nil
		}
		state[release] = free
	}
	return nil, errors.New("active-set iteration limit exceeded")
}

// gradient computes ∂L/∂wᵢ = 2(Qw)ᵢ - cᵢ - Σₖ νₖ·aₖᵢ.
func gradient(q *mat.SymDense, c []float64, eqs []equality, w, nu []float64, i int) float64 {
	n := q.SymmetricDim()
	var g float64
	for j := 0; j < n; j++ {
		g += 2 * q.At(i, j) * w[j]
	}
	g -= c[i]
	for k, eq := range eqs {
		g -= nu[k] * eqAt(eq, i)
	}
	return g
}

func eqAt(eq equality, i int) float64 {
	if eq.a == nil {
		return 1
	}
	return eq.a[i]
}

// kktSolveFree solves the stationarity system of min w'Qw - c·w subject to
// the equalities, with the non-free weights held at their fixed values. It
// returns the full weight vector and the equality multipliers.
func kktSolveFree(q *mat.SymDense, c []float64, eqs []equality, freeIdx []int, fixed []float64) (w, nu []float64, err error) {
	n := q.SymmetricDim()
	nf, m := len(freeIdx), len(eqs)
	if nf < m {
		return nil, nil, errors.New("fewer free weights than equality constraints")
	}

	isFree := make([]bool, n)
	for _, i := range freeIdx {
		isFree[i] = true
	}

	size := nf + m
	kkt := mat.NewDense(size, size, nil)
	rhs := mat.NewVecDense(size, nil)

	for a, i := range freeIdx {
		// Stationarity row: 2Q_ff w_f - A_f'ν = c_f - 2Q_fx w_x.
		for b, j := range freeIdx {
			kkt.Set(a, b, 2*q.At(i, j))
		}
		for k, eq := range eqs {
			kkt.Set(a, nf+k, -eqAt(eq, i))
		}
		r := c[i]
		for j := 0; j < n; j++ {
			if !isFree[j] {
				r -= 2 * q.At(i, j) * fixed[j]
			}
		}
		rhs.SetVec(a, r)
	}
	for k, eq := range eqs {
		// Feasibility row: A_f w_f = b - A_x w_x.
		for a, i := range freeIdx {
			kkt.Set(nf+k, a, eqAt(eq, i))
		}
		r := eq.b
		for j := 0; j < n; j++ {
			if !isFree[j] {
				r -= eqAt(eq, j) * fixed[j]
			}
		}
		rhs.SetVec(nf+k, r)
	}

	var sol mat.VecDense
	if err := sol.SolveVec(kkt, rhs); err != nil {
		return nil, nil, fmt.Errorf("singular KKT system: %w", err)
	}

	w = make([]float64, n)
	copy(w, fixed)
	for a, i := range freeIdx {
		w[i] = sol.AtVec(a)
	}
	nu = make([]float64, m)
	for k := 0; k < m; k++ {
		nu[k] = sol.AtVec(nf + k)
	}
	return w, nu, nil
}

func minMax(v []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, x := range v {
		lo, hi = math.Min(lo, x), math.Max(hi, x)
	}
	return lo, hi
}
