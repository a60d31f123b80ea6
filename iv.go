// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: linest, a linear estimation engine (OLS, FGLS, IV, GMM)
// Class: 02-613 at Caregie Mellon University

package linest

import (
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/mat"
)

// IVEstimator implements two-stage least squares with instruments Data.Z.
type IVEstimator struct {
	Options
}

// Estimate runs 2SLS. The first stage projects every kept column of X on
// Z; the second stage regresses y on the projections. Residuals, and every
// covariance built from them, use the original X at the second-stage
// coefficients.
func (e *IVEstimator) Estimate(d *Data) (*Result, error) {
	n, _, err := d.validate(true)
	if err != nil {
		return nil, fmt.Errorf("iv: %w", err)
	}
	level, err := checkLevel(e.Level)
	if err != nil {
		return nil, fmt.Errorf("iv: %w", err)
	}
	logger := e.logger()

	in, err := prepareInstrumented(d, n, e.RankTol, logger)
	if err != nil {
		return nil, fmt.Errorf("iv: %w", err)
	}

	xhat, err := firstStage(in.z, in.x)
	if err != nil {
		return nil, fmt.Errorf("iv: first stage: %w", err)
	}
	fit, err := leastSquares(xhat, vec(d.Y))
	if err != nil {
		return nil, fmt.Errorf("iv: second stage: %w", err)
	}

	fitted, resid := structuralResiduals(d.Y, in.x, fit.beta)

	cov, err := e.Covariance.estimate(covInput{x: xhat, bread: fit.bread, resid: resid, clusters: d.Clusters})
	if err != nil {
		return nil, fmt.Errorf("iv: %w", err)
	}

	stats := goodnessOfFit(d.Y, resid, nil, d.Intercept, in.rank.Rank())
	logger.Debug("iv fit", "n", n, "rank", in.rank.Rank(), "instruments", in.zrank.Rank(), "r2", stats.r2)

	return newResult(resultParts{
		method:          MethodIV,
		names:           in.names,
		intercept:       d.Intercept,
		rank:            in.rank,
		kept:            in.x,
		instrumentNames: in.znames,
		instrumentRank:  in.zrank,
		beta:            rawVec(fit.beta),
		cov:             cov,
		covType:         e.Covariance,
		nobs:            n,
		fit:             stats,
		fitted:          fitted,
		resid:           resid,
		dist:            StudentT,
		level:           level,
	}), nil
}

// instrumented is a design and instrument matrix after collinearity removal.
type instrumented struct {
	names, znames []string
	rank, zrank   RankReport
	x, z          *mat.Dense
}

// prepareInstrumented reduces X and Z and checks the order condition.
func prepareInstrumented(d *Data, n int, tol float64, logger *slog.Logger) (*instrumented, error) {
	in := &instrumented{names: d.names(), znames: d.instrumentNames()}

	var err error
	in.rank, in.x, err = preprocess(d.X, in.names, 1, tol, logger, "X")
	if err != nil {
		return nil, err
	}
	in.zrank, in.z, err = preprocess(d.Z, in.znames, 1, tol, logger, "Z")
	if err != nil {
		return nil, err
	}

	k, l := in.rank.Rank(), in.zrank.Rank()
	if l < k {
		return nil, fmt.Errorf("%d instruments for %d regressors: %w", l, k, ErrOrderConditionViolated)
	}
	if n <= l {
		return nil, fmt.Errorf("n = %d, %d instruments: %w", n, l, ErrInsufficientObservations)
	}
	return in, nil
}

// firstStage returns the projection of x on the column space of z.
func firstStage(z, x *mat.Dense) (*mat.Dense, error) {
	var qr mat.QR
	qr.Factorize(z)

	var b mat.Dense
	if err := qr.SolveTo(&b, false, x); err != nil {
		return nil, singular("projecting on instruments", err)
	}
	var xhat mat.Dense
	xhat.Mul(z, &b)
	return &xhat, nil
}

// structuralResiduals evaluates y - X beta on the original regressors.
func structuralResiduals(y []float64, x *mat.Dense, beta *mat.VecDense) ([]float64, []float64) {
	n, _ := x.Dims()
	var f mat.VecDense
	f.MulVec(x, beta)
	fitted := rawVec(&f)
	resid := make([]float64, n)
	for i := range resid {
		resid[i] = y[i] - fitted[i]
	}
	return fitted, resid
}
