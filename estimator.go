// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: linest, a linear estimation engine (OLS, FGLS, IV, GMM)
// Class: 02-613 at Caregie Mellon University

package linest

import (
	"log/slog"

	"gonum.org/v1/gonum/mat"
)

// Estimator is the interface every estimation paradigm implements.
type Estimator interface {
	// Turns one observation set into an immutable Result
	Estimate(d *Data) (*Result, error)
}

// Options are shared by the least-squares estimators. The zero value is
// usable: non-robust covariance, 95% intervals, DefaultRankTolerance and
// no logging.
type Options struct {
	// Error-structure assumption for the coefficient covariance
	Covariance Covariance
	// Confidence level for intervals, in (0, 1)
	Level float64
	// Relative tolerance for collinearity detection
	RankTol float64
	// Debug logging of dropped columns and iterations
	Logger *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return o.Logger
}

// FitOLS is OLSEstimator{Options{Covariance: cov}}.Estimate(d).
func FitOLS(d *Data, cov Covariance) (*Result, error) {
	return (&OLSEstimator{Options: Options{Covariance: cov}}).Estimate(d)
}

// FitWLS runs weighted least squares with d.Weights.
func FitWLS(d *Data, cov Covariance) (*Result, error) {
	return (&WLSEstimator{Options: Options{Covariance: cov}}).Estimate(d)
}

// FitCochraneOrcutt runs iterated Cochrane-Orcutt with default tolerances.
func FitCochraneOrcutt(d *Data) (*Result, error) {
	return (&CochraneOrcuttEstimator{}).Estimate(d)
}

// FitIV runs two-stage least squares with instruments d.Z.
func FitIV(d *Data, cov Covariance) (*Result, error) {
	return (&IVEstimator{Options: Options{Covariance: cov}}).Estimate(d)
}

// FitGMM runs two-step efficient GMM with heteroskedasticity-robust weighting.
func FitGMM(d *Data) (*Result, error) {
	return (&GMMEstimator{}).Estimate(d)
}

func vec(v []float64) *mat.VecDense {
	out := make([]float64, len(v))
	copy(out, v)
	return mat.NewVecDense(len(out), out)
}

func rawVec(v *mat.VecDense) []float64 {
	return mat.Col(nil, 0, v)
}
