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

// Which estimator produced a result
type Method int

// Estimation methods
const (
	MethodOLS Method = iota
	MethodWLS
	MethodCochraneOrcutt
	MethodIV
	MethodGMM
)

func (m Method) String() string {
	switch m {
	case MethodOLS:
		return "OLS"
	case MethodWLS:
		return "WLS"
	case MethodCochraneOrcutt:
		return "Cochrane-Orcutt"
	case MethodIV:
		return "IV-2SLS"
	case MethodGMM:
		return "GMM"
	}
	return fmt.Sprintf("Method(%d)", int(m))
}

// Result is the immutable outcome of one fit. Coefficient-shaped slices are
// length k in original column order with NaN in omitted slots. Accessors hand
// out copies, so a Result can be shared freely.
type Result struct {
	method    Method
	names     []string
	intercept bool
	rank      RankReport
	// Original index of the constant column, -1 when there is none
	constCol int

	instrumentNames []string
	instrumentRank  RankReport

	// Shared, never written after construction
	coef    []float64
	cov     *mat.SymDense
	covType Covariance
	se      []float64
	stat    []float64

	nobs    int
	dfResid int
	fit     fitStats
	fitted  []float64
	resid   []float64

	jStat   float64
	jDF     int
	jPValue float64

	rho        float64
	iterations int

	inference
}

// resultParts is what an estimator hands over to build a Result.
type resultParts struct {
	method          Method
	names           []string
	intercept       bool
	rank            RankReport
	kept            *mat.Dense // n x k' design the coefficients belong to
	instrumentNames []string
	instrumentRank  RankReport
	beta            []float64 // k'
	cov             *mat.SymDense
	covType         Covariance
	nobs            int
	fit             fitStats
	fitted          []float64
	resid           []float64
	dist            Distribution
	level           float64
}

func newResult(p resultParts) *Result {
	coef := p.rank.Scatter(p.beta)
	se := standardErrors(p.rank, p.cov)
	stat := statistics(coef, se)
	df := p.nobs - p.rank.Rank()

	constCol := -1
	if p.intercept && p.kept != nil {
		if pos := constantColumn(p.kept); pos >= 0 {
			constCol = p.rank.Kept[pos]
		}
	}

	return &Result{
		method:          p.method,
		names:           p.names,
		intercept:       p.intercept,
		rank:            p.rank,
		constCol:        constCol,
		instrumentNames: p.instrumentNames,
		instrumentRank:  p.instrumentRank,
		coef:            coef,
		cov:             p.cov,
		covType:         p.covType,
		se:              se,
		stat:            stat,
		nobs:            p.nobs,
		dfResid:         df,
		fit:             p.fit,
		fitted:          p.fitted,
		resid:           p.resid,
		jStat:           math.NaN(),
		jPValue:         math.NaN(),
		rho:             math.NaN(),
		inference:       infer(coef, se, stat, p.dist, df, p.level),
	}
}

// WithInference returns a new Result under another reference distribution.
// Coefficients, covariance, standard errors and statistics are shared with r;
// only p-values, the critical value and interval bounds are recomputed.
func (r *Result) WithInference(dist Distribution) *Result {
	out := *r
	out.inference = infer(r.coef, r.se, r.stat, dist, r.dfResid, r.level)
	return &out
}

// WithConfidenceLevel returns a new Result with intervals at another level.
func (r *Result) WithConfidenceLevel(level float64) (*Result, error) {
	level, err := checkLevel(level)
	if err != nil {
		return nil, err
	}
	out := *r
	out.inference = infer(r.coef, r.se, r.stat, r.dist, r.dfResid, level)
	return &out, nil
}

func clone(v []float64) []float64 {
	if v == nil {
		return nil
	}
	out := make([]float64, len(v))
	copy(out, v)
	return out
}

// Method returns the estimator that produced r.
func (r *Result) Method() Method { return r.method }

// Names returns all k column names in original order.
func (r *Result) Names() []string { return append([]string(nil), r.names...) }

// HasIntercept reports the intercept flag the fit was run with.
func (r *Result) HasIntercept() bool { return r.intercept }

// Rank returns the collinearity report for the design matrix.
func (r *Result) Rank() RankReport { return r.rank }

// OmittedNames lists the regressors dropped as collinear.
func (r *Result) OmittedNames() []string { return r.rank.OmittedNames(r.names) }

// OmittedInstruments lists instruments dropped as collinear (IV and GMM).
func (r *Result) OmittedInstruments() []string {
	if r.instrumentNames == nil {
		return nil
	}
	return r.instrumentRank.OmittedNames(r.instrumentNames)
}

// Coefficients returns the length-k coefficient vector, NaN where omitted.
func (r *Result) Coefficients() []float64 { return clone(r.coef) }

// Coefficient looks one coefficient up by name.
func (r *Result) Coefficient(name string) (float64, bool) {
	for j, n := range r.names {
		if n == name {
			return r.coef[j], true
		}
	}
	return math.NaN(), false
}

// StdErrors returns sqrt(diag(V)), NaN where omitted.
func (r *Result) StdErrors() []float64 { return clone(r.se) }

// Statistics returns t or z statistics, NaN where omitted.
func (r *Result) Statistics() []float64 { return clone(r.stat) }

// PValues returns two-sided p-values under the current distribution.
func (r *Result) PValues() []float64 { return clone(r.pvalues) }

// ConfInt returns the lower and upper interval bounds.
func (r *Result) ConfInt() (lower, upper []float64) { return clone(r.lower), clone(r.upper) }

// CriticalValue is the quantile used for the intervals.
func (r *Result) CriticalValue() float64 { return r.critical }

// Covariance returns a copy of the k' x k' covariance of kept coefficients.
func (r *Result) Covariance() *mat.SymDense {
	c := mat.NewSymDense(r.cov.SymmetricDim(), nil)
	c.CopySym(r.cov)
	return c
}

// CovarianceType returns the covariance assumption the fit used.
func (r *Result) CovarianceType() Covariance { return r.covType }

// Distribution returns the current reference distribution.
func (r *Result) Distribution() Distribution { return r.dist }

// Level returns the confidence level of the intervals.
func (r *Result) Level() float64 { return r.level }

// NObs is the number of observations used in the fit.
func (r *Result) NObs() int { return r.nobs }

// DFResid is n - k'.
func (r *Result) DFResid() int { return r.dfResid }

// RSquared returns R^2, centered when the fit has an intercept.
func (r *Result) RSquared() float64 { return r.fit.r2 }

// AdjRSquared returns the degrees-of-freedom adjusted R^2.
func (r *Result) AdjRSquared() float64 { return r.fit.adjR2 }

// RSS returns the residual sum of squares (weighted for WLS).
func (r *Result) RSS() float64 { return r.fit.rss }

// TSS returns the total sum of squares.
func (r *Result) TSS() float64 { return r.fit.tss }

// LogLikelihood is the Gaussian log-likelihood at the estimates.
func (r *Result) LogLikelihood() float64 { return r.fit.logLik }

// Fitted returns the fitted values of the estimated equation.
func (r *Result) Fitted() []float64 { return clone(r.fitted) }

// Residuals returns the residuals of the estimated equation.
func (r *Result) Residuals() []float64 { return clone(r.resid) }

// JStatistic returns Hansen's J (GMM only, NaN otherwise).
func (r *Result) JStatistic() float64 { return r.jStat }

// JPValue returns the chi-squared p-value of J (GMM only, NaN otherwise).
func (r *Result) JPValue() float64 { return r.jPValue }

// JDF returns the over-identification degrees of freedom l - k'.
func (r *Result) JDF() int { return r.jDF }

// Rho returns the final AR(1) coefficient (Cochrane-Orcutt only, NaN otherwise).
func (r *Result) Rho() float64 { return r.rho }

// Iterations returns how many refits an iterative estimator ran.
func (r *Result) Iterations() int { return r.iterations }

// constantColumn returns the first column of x whose entries are all equal
// and non-zero, or -1.
func constantColumn(x *mat.Dense) int {
	n, k := x.Dims()
	for j := 0; j < k; j++ {
		c := x.At(0, j)
		if c == 0 {
			continue
		}
		same := true
		for i := 1; i < n && same; i++ {
			same = x.At(i, j) == c
		}
		if same {
			return j
		}
	}
	return -1
}

// Predict returns x * beta for a new n x k design in original column order.
// Omitted columns do not contribute.
func (r *Result) Predict(x mat.Matrix) ([]float64, error) {
	n, k := x.Dims()
	if k != r.rank.K {
		return nil, fmt.Errorf("predict: %d columns, model has %d: %w", k, r.rank.K, ErrDimensionMismatch)
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		for _, j := range r.rank.Kept {
			out[i] += x.At(i, j) * r.coef[j]
		}
	}
	return out, nil
}
