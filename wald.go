// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: linest, a linear estimation engine (OLS, FGLS, IV, GMM)
// Class: 02-613 at Caregie Mellon University

package linest

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// WaldResult is a joint test that a set of coefficients are all zero.
type WaldResult struct {
	Names []string
	// F = W/q when F is true, otherwise the chi-squared statistic W
	Statistic float64
	// Number of restrictions q
	DF1 int
	// Denominator degrees of freedom, F only
	DF2 int
	// F(q, DF2) or chi-squared(q) reference
	F           bool
	PValue      float64
	Significant bool
}

// WaldTest tests H0: every named coefficient is zero, using the fit's
// covariance matrix. Under StudentT inference the statistic is reported as
// F(q, n - k'); under Normal inference as chi-squared(q).
func (r *Result) WaldTest(names ...string) (*WaldResult, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("wald: no coefficients named: %w", ErrInvalidInput)
	}

	// Position of each original column within the kept coefficients
	pos := make(map[int]int, len(r.rank.Kept))
	for p, j := range r.rank.Kept {
		pos[j] = p
	}

	idx := make([]int, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if seen[name] {
			return nil, fmt.Errorf("wald: %q named twice: %w", name, ErrInvalidInput)
		}
		seen[name] = true

		j := indexOf(r.names, name)
		if j < 0 {
			return nil, fmt.Errorf("wald: unknown coefficient %q: %w", name, ErrInvalidInput)
		}
		p, ok := pos[j]
		if !ok {
			return nil, fmt.Errorf("wald: coefficient %q was omitted as collinear: %w", name, ErrInvalidInput)
		}
		idx = append(idx, p)
	}

	q := len(idx)
	b := mat.NewVecDense(q, nil)
	v := mat.NewSymDense(q, nil)
	for a, pa := range idx {
		b.SetVec(a, r.coef[r.rank.Kept[pa]])
		for c := a; c < q; c++ {
			v.SetSym(a, c, r.cov.At(pa, idx[c]))
		}
	}
	vInv, err := invertSPD(v, "inverting restricted covariance")
	if err != nil {
		return nil, fmt.Errorf("wald: %w", err)
	}
	w := mat.Inner(b, vInv, b)
	if w < 0 || math.IsNaN(w) {
		w = 0
	}

	res := &WaldResult{Names: append([]string(nil), names...), DF1: q}
	if r.dist == StudentT {
		res.F = true
		res.DF2 = r.dfResid
		res.Statistic = w / float64(q)
		res.PValue = 1 - distuv.F{D1: float64(q), D2: float64(r.dfResid)}.CDF(res.Statistic)
	} else {
		res.Statistic = w
		res.PValue = 1 - distuv.ChiSquared{K: float64(q)}.CDF(w)
	}
	if res.Statistic == 0 {
		res.PValue = 1
	}
	res.PValue = math.Min(math.Max(res.PValue, 0), 1)
	res.Significant = res.PValue < 1-DefaultLevel
	return res, nil
}

// ModelTest jointly tests every kept coefficient except the intercept.
func (r *Result) ModelTest() (*WaldResult, error) {
	var names []string
	for _, j := range r.rank.Kept {
		if j == r.constCol {
			continue
		}
		names = append(names, r.names[j])
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("wald: model has only an intercept: %w", ErrInvalidInput)
	}
	return r.WaldTest(names...)
}

func indexOf(names []string, name string) int {
	for j, n := range names {
		if n == name {
			return j
		}
	}
	return -1
}
