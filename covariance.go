// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: linest, a linear estimation engine (OLS, FGLS, IV, GMM)
// Class: 02-613 at Caregie Mellon University

package linest

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// What kind of coefficient covariance to compute
type CovarianceKind int

// Covariance kinds
const (
	NonRobust CovarianceKind = iota
	HC0
	HC1
	HC2
	HC3
	NeweyWest
	Clustered
)

var covarianceKindNames = [...]string{"NonRobust", "HC0", "HC1", "HC2", "HC3", "NeweyWest", "Clustered"}

func (k CovarianceKind) String() string {
	if k < 0 || int(k) >= len(covarianceKindNames) {
		return fmt.Sprintf("CovarianceKind(%d)", int(k))
	}
	return covarianceKindNames[k]
}

// ParseCovarianceKind accepts the lower-case names used on command lines
// and in config files.
func ParseCovarianceKind(s string) (CovarianceKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "nonrobust", "ols", "classical":
		return NonRobust, nil
	case "hc0", "robust":
		return HC0, nil
	case "hc1":
		return HC1, nil
	case "hc2":
		return HC2, nil
	case "hc3":
		return HC3, nil
	case "hac", "neweywest", "newey-west", "nw":
		return NeweyWest, nil
	case "cluster", "clustered":
		return Clustered, nil
	}
	return 0, fmt.Errorf("unknown covariance type %q: %w", s, ErrInvalidInput)
}

// Covariance selects the error-structure assumption behind the coefficient
// covariance matrix. The zero value is NonRobust.
type Covariance struct {
	Kind CovarianceKind
	// Bartlett truncation lag, NeweyWest only
	Lags int
}

func (c Covariance) String() string {
	if c.Kind == NeweyWest {
		return fmt.Sprintf("NeweyWest(%d)", c.Lags)
	}
	return c.Kind.String()
}

// covInput is everything a covariance estimator may look at.
type covInput struct {
	// Score regressors, n x k' (X, sqrt(w)X, quasi-differenced X or X-hat)
	x *mat.Dense
	// (x'x)^-1
	bread *mat.SymDense
	// Residuals, length n
	resid []float64
	// Cluster ids, length n, Clustered only
	clusters []int
}

// estimate is the single dispatch point over every covariance kind.
func (c Covariance) estimate(in covInput) (*mat.SymDense, error) {
	n, k := in.x.Dims()
	df := float64(n - k)

	switch c.Kind {
	case NonRobust:
		s2 := floats.Dot(in.resid, in.resid) / df
		v := mat.NewSymDense(k, nil)
		v.ScaleSym(s2, in.bread)
		return v, nil

	case HC0:
		return sandwich(in.bread, hcMeat(in.x, squares(in.resid))), nil

	case HC1:
		v := sandwich(in.bread, hcMeat(in.x, squares(in.resid)))
		v.ScaleSym(float64(n)/df, v)
		return v, nil

	case HC2, HC3:
		h := leverage(in.x, in.bread)
		w := squares(in.resid)
		for i := range w {
			d := 1 - h[i]
			if d <= 1e-12 {
				return nil, fmt.Errorf("%v: observation %d has leverage one: %w", c.Kind, i, ErrSingularMatrix)
			}
			if c.Kind == HC2 {
				w[i] /= d
			} else {
				w[i] /= d * d
			}
		}
		return sandwich(in.bread, hcMeat(in.x, w)), nil

	case NeweyWest:
		if c.Lags < 0 {
			return nil, fmt.Errorf("newey-west lag %d must be >= 0: %w", c.Lags, ErrInvalidInput)
		}
		return sandwich(in.bread, neweyWestMeat(in.x, in.resid, c.Lags)), nil

	case Clustered:
		if len(in.clusters) != n {
			return nil, fmt.Errorf("clustered covariance needs %d cluster ids, got %d: %w",
				n, len(in.clusters), ErrDimensionMismatch)
		}
		meat, groups := clusterMeat(in.x, in.resid, in.clusters)
		if groups < 2 {
			return nil, fmt.Errorf("clustered covariance needs at least 2 clusters, got %d: %w",
				groups, ErrInsufficientObservations)
		}
		g := float64(groups)
		v := sandwich(in.bread, meat)
		v.ScaleSym(g/(g-1)*float64(n-1)/df, v)
		return v, nil
	}

	return nil, fmt.Errorf("unknown covariance kind %v: %w", c.Kind, ErrInvalidInput)
}

func squares(e []float64) []float64 {
	out := make([]float64, len(e))
	for i, v := range e {
		out[i] = v * v
	}
	return out
}

// hcMeat returns sum_i w_i x_i x_i'.
func hcMeat(x *mat.Dense, w []float64) *mat.SymDense {
	n, k := x.Dims()
	meat := mat.NewSymDense(k, nil)
	for i := 0; i < n; i++ {
		meat.SymRankOne(meat, w[i], mat.NewVecDense(k, x.RawRowView(i)))
	}
	return meat
}

// neweyWestMeat adds Bartlett-weighted score autocovariances to the HC0 meat.
// With lag 0 it is the HC0 meat, computed the same way.
func neweyWestMeat(x *mat.Dense, e []float64, lags int) *mat.SymDense {
	meat := hcMeat(x, squares(e))
	n, k := x.Dims()
	if lags == 0 || n < 2 {
		return meat
	}

	scores := scoreMatrix(x, e)
	acc := mat.NewDense(k, k, nil)
	for j := 1; j <= lags && j < n; j++ {
		wj := 1 - float64(j)/float64(lags+1)

		gamma := mat.NewDense(k, k, nil)
		for t := j; t < n; t++ {
			gamma.RankOne(gamma, 1, scores.RowView(t), scores.RowView(t-j))
		}

		var both mat.Dense
		both.Add(gamma, gamma.T())
		both.Scale(wj, &both)
		acc.Add(acc, &both)
	}

	var total mat.Dense
	total.Add(meat, acc)
	return symmetrize(&total)
}

// clusterMeat sums scores within each cluster before taking outer products.
// Clusters are visited in order of first appearance.
func clusterMeat(x *mat.Dense, e []float64, clusters []int) (*mat.SymDense, int) {
	n, k := x.Dims()
	pos := make(map[int]int)
	var sums [][]float64
	for i := 0; i < n; i++ {
		g, ok := pos[clusters[i]]
		if !ok {
			g = len(sums)
			pos[clusters[i]] = g
			sums = append(sums, make([]float64, k))
		}
		floats.AddScaled(sums[g], e[i], x.RawRowView(i))
	}

	meat := mat.NewSymDense(k, nil)
	for _, s := range sums {
		meat.SymRankOne(meat, 1, mat.NewVecDense(k, s))
	}
	return meat, len(sums)
}

// scoreMatrix returns the n x k matrix with rows x_i * e_i.
func scoreMatrix(x *mat.Dense, e []float64) *mat.Dense {
	n, k := x.Dims()
	s := mat.NewDense(n, k, nil)
	for i := 0; i < n; i++ {
		row := s.RawRowView(i)
		copy(row, x.RawRowView(i))
		floats.Scale(e[i], row)
	}
	return s
}
