// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: linest, a linear estimation engine (OLS, FGLS, IV, GMM)
// Class: 02-613 at Caregie Mellon University

package linest

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Reference distribution for test statistics
type Distribution int

// Reference distributions
const (
	// Student-t with n - k' degrees of freedom
	StudentT Distribution = iota
	// Standard normal
	Normal
)

func (d Distribution) String() string {
	switch d {
	case StudentT:
		return "StudentT"
	case Normal:
		return "Normal"
	}
	return fmt.Sprintf("Distribution(%d)", int(d))
}

// ParseDistribution accepts "t", "student", "studentt", "z", "normal".
func ParseDistribution(s string) (Distribution, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "t", "student", "studentt", "student-t":
		return StudentT, nil
	case "z", "normal", "gaussian":
		return Normal, nil
	}
	return 0, fmt.Errorf("unknown distribution %q: %w", s, ErrInvalidInput)
}

// DefaultLevel is the confidence level used when none is given.
const DefaultLevel = 0.95

type univariate interface {
	Quantile(p float64) float64
	Survival(x float64) float64
}

func (d Distribution) univariate(df int) univariate {
	if d == Normal {
		return distuv.UnitNormal
	}
	return distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(df)}
}

func checkLevel(level float64) (float64, error) {
	if level == 0 {
		return DefaultLevel, nil
	}
	if !(level > 0 && level < 1) {
		return 0, fmt.Errorf("confidence level %v must be in (0, 1): %w", level, ErrInvalidInput)
	}
	return level, nil
}

// standardErrors returns sqrt(diag(V)) scattered to original column order.
func standardErrors(rank RankReport, cov mat.Symmetric) []float64 {
	se := make([]float64, rank.Rank())
	for p := range se {
		se[p] = math.Sqrt(cov.At(p, p))
	}
	return rank.Scatter(se)
}

// statistics returns coef / se; omitted slots stay NaN.
func statistics(coef, se []float64) []float64 {
	out := make([]float64, len(coef))
	for j := range coef {
		out[j] = coef[j] / se[j]
	}
	return out
}

// inference holds every field that depends on the reference distribution
// or the confidence level.
type inference struct {
	dist     Distribution
	level    float64
	critical float64
	pvalues  []float64
	lower    []float64
	upper    []float64
}

// infer derives p-values and intervals. It never touches its inputs.
func infer(coef, se, stat []float64, dist Distribution, df int, level float64) inference {
	u := dist.univariate(df)
	crit := u.Quantile(1 - (1-level)/2)

	k := len(coef)
	inf := inference{
		dist:     dist,
		level:    level,
		critical: crit,
		pvalues:  make([]float64, k),
		lower:    make([]float64, k),
		upper:    make([]float64, k),
	}
	for j := 0; j < k; j++ {
		if math.IsNaN(coef[j]) {
			inf.pvalues[j], inf.lower[j], inf.upper[j] = math.NaN(), math.NaN(), math.NaN()
			continue
		}
		inf.pvalues[j] = twoSided(u, stat[j])
		inf.lower[j] = coef[j] - crit*se[j]
		inf.upper[j] = coef[j] + crit*se[j]
	}
	return inf
}

func twoSided(u univariate, stat float64) float64 {
	if math.IsNaN(stat) {
		return math.NaN()
	}
	p := 2 * u.Survival(math.Abs(stat))
	if p > 1 {
		p = 1
	}
	return p
}
