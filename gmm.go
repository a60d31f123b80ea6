// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: linest, a linear estimation engine (OLS, FGLS, IV, GMM)
// Class: 02-613 at Caregie Mellon University

package linest

import (
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// How the covariance of the moment contributions z_i e_i is estimated
type MomentWeighting int

// Moment weightings
const (
	// Heteroskedasticity-robust, sum of e_i^2 z_i z_i'
	WeightRobust MomentWeighting = iota
	// Homoskedastic, sigma^2 Z'Z; J becomes Sargan's statistic
	WeightUnadjusted
	// Bartlett-kernel HAC with GMMEstimator.Lags
	WeightHAC
	// Moments summed within Data.Clusters
	WeightCluster
)

func (w MomentWeighting) String() string {
	switch w {
	case WeightRobust:
		return "robust"
	case WeightUnadjusted:
		return "unadjusted"
	case WeightHAC:
		return "hac"
	case WeightCluster:
		return "cluster"
	}
	return fmt.Sprintf("MomentWeighting(%d)", int(w))
}

// covariance is the coefficient covariance kind a weighting corresponds to.
func (w MomentWeighting) covariance(lags int) Covariance {
	switch w {
	case WeightUnadjusted:
		return Covariance{Kind: NonRobust}
	case WeightHAC:
		return Covariance{Kind: NeweyWest, Lags: lags}
	case WeightCluster:
		return Covariance{Kind: Clustered}
	}
	return Covariance{Kind: HC0}
}

// GMMEstimator implements linear GMM with instruments Data.Z.
// The zero value is two-step efficient GMM with robust weighting.
type GMMEstimator struct {
	// Moment covariance used for the weighting matrix and the coefficient covariance
	Weighting MomentWeighting
	// Bartlett lag for WeightHAC
	Lags int
	// 1 for one-step (2SLS weighting), 2 (default) for two-step efficient
	Steps int
	// Confidence level for intervals, in (0, 1)
	Level float64
	// Relative tolerance for collinearity detection
	RankTol float64
	// Debug logging
	Logger *slog.Logger
}

// Estimate fits beta by minimizing (Z'e)' W (Z'e). Step one uses
// W = (Z'Z)^-1, which is 2SLS; step two uses the inverse of the moment
// covariance evaluated at the step-one residuals. Inference defaults to the
// standard normal.
func (e *GMMEstimator) Estimate(d *Data) (*Result, error) {
	n, _, err := d.validate(true)
	if err != nil {
		return nil, fmt.Errorf("gmm: %w", err)
	}
	level, err := checkLevel(e.Level)
	if err != nil {
		return nil, fmt.Errorf("gmm: %w", err)
	}
	steps := e.Steps
	if steps == 0 {
		steps = 2
	}
	if steps != 1 && steps != 2 {
		return nil, fmt.Errorf("gmm: steps must be 1 or 2, got %d: %w", e.Steps, ErrInvalidInput)
	}
	if e.Weighting == WeightHAC && e.Lags < 0 {
		return nil, fmt.Errorf("gmm: hac lag %d must be >= 0: %w", e.Lags, ErrInvalidInput)
	}
	logger := Options{Logger: e.Logger}.logger()

	in, err := prepareInstrumented(d, n, e.RankTol, logger)
	if err != nil {
		return nil, fmt.Errorf("gmm: %w", err)
	}
	k, l := in.rank.Rank(), in.zrank.Rank()

	var a mat.Dense
	a.Mul(in.z.T(), in.x) // Z'X, l x k
	var zy mat.VecDense
	zy.MulVec(in.z.T(), mat.NewVecDense(n, d.Y)) // Z'y

	// Step one: 2SLS weighting
	var ztz mat.SymDense
	ztz.SymOuterK(1, in.z.T())
	w1, err := invertSPD(&ztz, "inverting Z'Z")
	if err != nil {
		return nil, fmt.Errorf("gmm: %w", err)
	}
	beta1, bread1, err := weightedNormalEquations(&a, w1, &zy)
	if err != nil {
		return nil, fmt.Errorf("gmm: step 1: %w", err)
	}
	_, resid1 := structuralResiduals(d.Y, in.x, beta1)

	s, err := e.momentCovariance(in.z, resid1, d.Clusters)
	if err != nil {
		return nil, fmt.Errorf("gmm: %w", err)
	}
	// S^-1 weights step two and the J statistic; one-step exactly
	// identified fits only need S for the sandwich
	var sInv *mat.SymDense
	if steps == 2 || l > k {
		if sInv, err = invertSPD(s, "inverting moment covariance"); err != nil {
			return nil, fmt.Errorf("gmm: %w", err)
		}
	}
	logger.Debug("gmm step 1", "n", n, "rank", k, "instruments", l)

	var (
		beta *mat.VecDense
		cov  *mat.SymDense
	)
	if steps == 1 {
		beta = beta1
		cov = gmmSandwich(&a, w1, bread1, s)
	} else {
		beta, cov, err = weightedNormalEquations(&a, sInv, &zy)
		if err != nil {
			return nil, fmt.Errorf("gmm: step 2: %w", err)
		}
		logger.Debug("gmm step 2", "beta", rawVec(beta))
	}

	fitted, resid := structuralResiduals(d.Y, in.x, beta)
	stats := goodnessOfFit(d.Y, resid, nil, d.Intercept, k)

	res := newResult(resultParts{
		method:          MethodGMM,
		names:           in.names,
		intercept:       d.Intercept,
		rank:            in.rank,
		kept:            in.x,
		instrumentNames: in.znames,
		instrumentRank:  in.zrank,
		beta:            rawVec(beta),
		cov:             cov,
		covType:         e.Weighting.covariance(e.Lags),
		nobs:            n,
		fit:             stats,
		fitted:          fitted,
		resid:           resid,
		dist:            Normal,
		level:           level,
	})

	res.jDF = l - k
	if res.jDF == 0 {
		// Exactly identified: no over-identifying restriction to test
		res.jStat, res.jPValue = 0, 1
		return res, nil
	}
	var g mat.VecDense
	g.MulVec(in.z.T(), mat.NewVecDense(n, resid))
	res.jStat = mat.Inner(&g, sInv, &g)
	if res.jStat < 0 {
		res.jStat = 0
	}
	res.jPValue = 1 - distuv.ChiSquared{K: float64(res.jDF)}.CDF(res.jStat)
	return res, nil
}

// momentCovariance returns the sum-scaled covariance of z_i e_i.
func (e *GMMEstimator) momentCovariance(z *mat.Dense, resid []float64, clusters []int) (*mat.SymDense, error) {
	n, l := z.Dims()
	switch e.Weighting {
	case WeightRobust:
		return hcMeat(z, squares(resid)), nil
	case WeightUnadjusted:
		s2 := floats.Dot(resid, resid) / float64(n)
		s := mat.NewSymDense(l, nil)
		s.SymOuterK(s2, z.T())
		return s, nil
	case WeightHAC:
		return neweyWestMeat(z, resid, e.Lags), nil
	case WeightCluster:
		if len(clusters) != n {
			return nil, fmt.Errorf("cluster weighting needs %d cluster ids, got %d: %w", n, len(clusters), ErrDimensionMismatch)
		}
		s, groups := clusterMeat(z, resid, clusters)
		if groups < 2 {
			return nil, fmt.Errorf("cluster weighting needs at least 2 clusters, got %d: %w", groups, ErrInsufficientObservations)
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown moment weighting %v: %w", e.Weighting, ErrInvalidInput)
}

// weightedNormalEquations solves (A'WA) beta = A'W b by Cholesky and also
// returns (A'WA)^-1.
func weightedNormalEquations(a *mat.Dense, w mat.Symmetric, b *mat.VecDense) (*mat.VecDense, *mat.SymDense, error) {
	var wa mat.Dense
	wa.Mul(w, a)
	var awa mat.Dense
	awa.Mul(a.T(), &wa)

	var chol mat.Cholesky
	if ok := chol.Factorize(symmetrize(&awa)); !ok {
		return nil, nil, singular("A'WA", nil)
	}

	var rhs mat.VecDense
	rhs.MulVec(wa.T(), b)
	var beta mat.VecDense
	if err := chol.SolveVecTo(&beta, &rhs); err != nil {
		return nil, nil, singular("solving A'WA", err)
	}
	var inv mat.SymDense
	if err := chol.InverseTo(&inv); err != nil {
		return nil, nil, singular("inverting A'WA", err)
	}
	return &beta, &inv, nil
}

// gmmSandwich is (A'WA)^-1 A'W S W A (A'WA)^-1 for a non-efficient W.
func gmmSandwich(a *mat.Dense, w, awaInv, s mat.Symmetric) *mat.SymDense {
	var wa mat.Dense
	wa.Mul(w, a)
	var meat, tmp mat.Dense
	tmp.Mul(s, &wa)
	meat.Mul(wa.T(), &tmp)
	return sandwich(awaInv, symmetrize(&meat))
}
