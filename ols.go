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

// OLSEstimator implements ordinary least squares.
type OLSEstimator struct {
	Options
}

// Estimate computes OLS coefficients on the collinearity-reduced design.
// d: observation set (Y, X, Names, Intercept, optional Clusters)
// Returns: Result with StudentT inference
func (e *OLSEstimator) Estimate(d *Data) (*Result, error) {
	n, _, err := d.validate(false)
	if err != nil {
		return nil, fmt.Errorf("ols: %w", err)
	}
	level, err := checkLevel(e.Level)
	if err != nil {
		return nil, fmt.Errorf("ols: %w", err)
	}
	logger := e.logger()
	names := d.names()

	rank, xk, err := preprocess(d.X, names, 1, e.RankTol, logger, "X")
	if err != nil {
		return nil, fmt.Errorf("ols: %w", err)
	}
	if n <= rank.Rank() {
		return nil, fmt.Errorf("ols: n = %d, k' = %d: %w", n, rank.Rank(), ErrInsufficientObservations)
	}

	fit, err := leastSquares(xk, vec(d.Y))
	if err != nil {
		return nil, fmt.Errorf("ols: %w", err)
	}
	resid := rawVec(fit.resid)

	cov, err := e.Covariance.estimate(covInput{x: xk, bread: fit.bread, resid: resid, clusters: d.Clusters})
	if err != nil {
		return nil, fmt.Errorf("ols: %w", err)
	}

	stats := goodnessOfFit(d.Y, resid, nil, d.Intercept, rank.Rank())
	logger.Debug("ols fit", "n", n, "k", rank.K, "rank", rank.Rank(), "r2", stats.r2, "covariance", e.Covariance.String())

	return newResult(resultParts{
		method:    MethodOLS,
		names:     names,
		intercept: d.Intercept,
		rank:      rank,
		kept:      xk,
		beta:      rawVec(fit.beta),
		cov:       cov,
		covType:   e.Covariance,
		nobs:      n,
		fit:       stats,
		fitted:    rawVec(fit.fitted),
		resid:     resid,
		dist:      StudentT,
		level:     level,
	}), nil
}

// gaussianLogLik is the concentrated normal log-likelihood.
func gaussianLogLik(n int, rss float64) float64 {
	nf := float64(n)
	return -nf / 2 * (math.Log(2*math.Pi) + math.Log(rss/nf) + 1)
}

// rowScaled returns diag(s) * x without touching x.
func rowScaled(x *mat.Dense, s []float64) *mat.Dense {
	n, k := x.Dims()
	out := mat.NewDense(n, k, nil)
	for i := 0; i < n; i++ {
		src := x.RawRowView(i)
		dst := out.RawRowView(i)
		for j := 0; j < k; j++ {
			dst[j] = s[i] * src[j]
		}
	}
	return out
}
