// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: linest, a linear estimation engine (OLS, FGLS, IV, GMM)
// Class: 02-613 at Caregie Mellon University

package linest

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// WLSEstimator implements weighted least squares with Data.Weights.
type WLSEstimator struct {
	Options
}

// Estimate transforms y and X by sqrt(w) and runs least squares on the
// result. Zero-weight observations are dropped; negative or non-finite
// weights are rejected. Residuals and fitted values are on the original
// scale.
func (e *WLSEstimator) Estimate(d *Data) (*Result, error) {
	if _, _, err := d.validate(false); err != nil {
		return nil, fmt.Errorf("wls: %w", err)
	}
	if d.Weights == nil {
		return nil, fmt.Errorf("wls: weights are required: %w", ErrInvalidInput)
	}
	level, err := checkLevel(e.Level)
	if err != nil {
		return nil, fmt.Errorf("wls: %w", err)
	}
	logger := e.logger()

	var rows []int
	for i, w := range d.Weights {
		if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
			return nil, fmt.Errorf("wls: weight %d is %v: %w", i, w, ErrInvalidInput)
		}
		if w > 0 {
			rows = append(rows, i)
		}
	}
	if len(rows) < len(d.Weights) {
		logger.Debug("dropped zero-weight observations", "count", len(d.Weights)-len(rows))
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("wls: every weight is zero: %w", ErrInsufficientObservations)
	}
	sub := d.resample(rows)
	n := len(rows)

	names := d.names()
	rank, xk, err := preprocess(sub.X, names, 1, e.RankTol, logger, "X")
	if err != nil {
		return nil, fmt.Errorf("wls: %w", err)
	}
	if n <= rank.Rank() {
		return nil, fmt.Errorf("wls: n = %d, k' = %d: %w", n, rank.Rank(), ErrInsufficientObservations)
	}

	sqw := make([]float64, n)
	yw := make([]float64, n)
	for i, w := range sub.Weights {
		sqw[i] = math.Sqrt(w)
		yw[i] = sqw[i] * sub.Y[i]
	}
	xw := rowScaled(xk, sqw)

	fit, err := leastSquares(xw, mat.NewVecDense(n, yw))
	if err != nil {
		return nil, fmt.Errorf("wls: %w", err)
	}

	cov, err := e.Covariance.estimate(covInput{x: xw, bread: fit.bread, resid: rawVec(fit.resid), clusters: sub.Clusters})
	if err != nil {
		return nil, fmt.Errorf("wls: %w", err)
	}

	// Back to the original scale
	fitted := mat.NewVecDense(n, nil)
	fitted.MulVec(xk, fit.beta)
	resid := make([]float64, n)
	for i := range resid {
		resid[i] = sub.Y[i] - fitted.AtVec(i)
	}

	stats := goodnessOfFit(sub.Y, resid, sub.Weights, d.Intercept, rank.Rank())
	for _, w := range sub.Weights {
		stats.logLik += 0.5 * math.Log(w)
	}
	logger.Debug("wls fit", "n", n, "rank", rank.Rank(), "r2", stats.r2)

	return newResult(resultParts{
		method:    MethodWLS,
		names:     names,
		intercept: d.Intercept,
		rank:      rank,
		kept:      xk,
		beta:      rawVec(fit.beta),
		cov:       cov,
		covType:   e.Covariance,
		nobs:      n,
		fit:       stats,
		fitted:    rawVec(fitted),
		resid:     resid,
		dist:      StudentT,
		level:     level,
	}), nil
}

// Defaults for CochraneOrcuttEstimator
const (
	DefaultCochraneOrcuttTol     = 1e-8
	DefaultCochraneOrcuttMaxIter = 100
)

// CochraneOrcuttEstimator implements iterated Cochrane-Orcutt FGLS for
// AR(1) errors. The first observation is dropped by the quasi-difference,
// so the fit uses n - 1 observations and n - 1 - k' residual degrees of
// freedom.
type CochraneOrcuttEstimator struct {
	Options
	// Stop once rho changes by less than Tol
	Tol float64
	// Fail with ErrConvergenceFailure after MaxIter refits
	MaxIter int
}

// Estimate iterates rho and the coefficients until rho settles.
// Residuals and fitted values are those of the quasi-differenced regression.
func (e *CochraneOrcuttEstimator) Estimate(d *Data) (*Result, error) {
	n, _, err := d.validate(false)
	if err != nil {
		return nil, fmt.Errorf("cochrane-orcutt: %w", err)
	}
	level, err := checkLevel(e.Level)
	if err != nil {
		return nil, fmt.Errorf("cochrane-orcutt: %w", err)
	}
	tol := e.Tol
	if tol <= 0 {
		tol = DefaultCochraneOrcuttTol
	}
	maxIter := e.MaxIter
	if maxIter <= 0 {
		maxIter = DefaultCochraneOrcuttMaxIter
	}
	logger := e.logger()
	names := d.names()

	rank, xk, err := preprocess(d.X, names, 1, e.RankTol, logger, "X")
	if err != nil {
		return nil, fmt.Errorf("cochrane-orcutt: %w", err)
	}
	if n-1 <= rank.Rank() {
		return nil, fmt.Errorf("cochrane-orcutt: n - 1 = %d, k' = %d: %w", n-1, rank.Rank(), ErrInsufficientObservations)
	}

	fit0, err := leastSquares(xk, vec(d.Y))
	if err != nil {
		return nil, fmt.Errorf("cochrane-orcutt: %w", err)
	}
	rho := ar1Coefficient(rawVec(fit0.resid))

	var (
		fit       *lsqFit
		ys        *mat.VecDense
		xs        *mat.Dense
		converged bool
		iter      int
		change    float64
	)
	for iter = 1; iter <= maxIter; iter++ {
		ys, xs = quasiDifference(d.Y, xk, rho)
		fit, err = leastSquares(xs, ys)
		if err != nil {
			return nil, fmt.Errorf("cochrane-orcutt: iteration %d: %w", iter, err)
		}

		// rho is re-estimated from the residuals of the untransformed equation
		var full mat.VecDense
		full.MulVec(xk, fit.beta)
		u := make([]float64, n)
		for t := range u {
			u[t] = d.Y[t] - full.AtVec(t)
		}
		next := ar1Coefficient(u)
		change = math.Abs(next - rho)
		logger.Debug("cochrane-orcutt iteration", "iter", iter, "rho", rho, "next", next)
		if change < tol {
			converged = true
			break
		}
		rho = next
	}
	if !converged {
		return nil, fmt.Errorf("cochrane-orcutt: rho still moving by %.3g after %d iterations: %w",
			change, maxIter, ErrConvergenceFailure)
	}

	var clusters []int
	if d.Clusters != nil {
		clusters = d.Clusters[1:]
	}
	resid := rawVec(fit.resid)
	cov, err := e.Covariance.estimate(covInput{x: xs, bread: fit.bread, resid: resid, clusters: clusters})
	if err != nil {
		return nil, fmt.Errorf("cochrane-orcutt: %w", err)
	}

	yq := rawVec(ys)
	stats := goodnessOfFit(yq, resid, nil, d.Intercept, rank.Rank())

	res := newResult(resultParts{
		method:    MethodCochraneOrcutt,
		names:     names,
		intercept: d.Intercept,
		rank:      rank,
		kept:      xk,
		beta:      rawVec(fit.beta),
		cov:       cov,
		covType:   e.Covariance,
		nobs:      n - 1,
		fit:       stats,
		fitted:    rawVec(fit.fitted),
		resid:     resid,
		dist:      StudentT,
		level:     level,
	})
	res.rho = rho
	res.iterations = iter
	return res, nil
}

// ar1Coefficient regresses e_t on e_{t-1} without an intercept.
func ar1Coefficient(e []float64) float64 {
	var num, den float64
	for t := 1; t < len(e); t++ {
		num += e[t] * e[t-1]
		den += e[t-1] * e[t-1]
	}
	if den == 0 {
		return 0
	}
	return num / den
}

// quasiDifference returns y_t - rho y_{t-1} and x_t - rho x_{t-1} for t >= 1.
func quasiDifference(y []float64, x *mat.Dense, rho float64) (*mat.VecDense, *mat.Dense) {
	n, k := x.Dims()
	ys := mat.NewVecDense(n-1, nil)
	xs := mat.NewDense(n-1, k, nil)
	for t := 1; t < n; t++ {
		ys.SetVec(t-1, y[t]-rho*y[t-1])
		cur, prev := x.RawRowView(t), x.RawRowView(t-1)
		dst := xs.RawRowView(t - 1)
		for j := 0; j < k; j++ {
			dst[j] = cur[j] - rho*prev[j]
		}
	}
	return ys, xs
}
