// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: linest, a linear estimation engine (OLS, FGLS, IV, GMM)
// Class: 02-613 at Caregie Mellon University

package linest

import (
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// DefaultRankTolerance is the relative residual norm below which a column
// counts as a linear combination of the columns before it.
const DefaultRankTolerance = 1e-9

const machEps = 2.220446049250313e-16

// Omission records one dropped column.
type Omission struct {
	// Original column index
	Index int
	// Earliest retained column the dropped one is a combination of,
	// or -1 when the column is identically zero
	DependsOn int
}

// RankReport partitions the k original columns into kept and omitted.
// Kept is ascending, so an earlier column always wins over a later one.
type RankReport struct {
	K       int
	Kept    []int
	Omitted []Omission
}

// Rank is the number of kept columns, k'.
func (r RankReport) Rank() int { return len(r.Kept) }

// IsKept reports whether original column j survived.
func (r RankReport) IsKept(j int) bool {
	for _, idx := range r.Kept {
		if idx == j {
			return true
		}
	}
	return false
}

// Compact returns the n x k' matrix of kept columns. x is not modified.
func (r RankReport) Compact(x mat.Matrix) *mat.Dense {
	n, _ := x.Dims()
	out := mat.NewDense(n, len(r.Kept), nil)
	col := make([]float64, n)
	for p, j := range r.Kept {
		mat.Col(col, j, x)
		out.SetCol(p, col)
	}
	return out
}

// Scatter maps a vector over kept columns back to original order,
// filling omitted slots with NaN.
func (r RankReport) Scatter(v []float64) []float64 {
	out := make([]float64, r.K)
	for j := range out {
		out[j] = math.NaN()
	}
	for p, j := range r.Kept {
		out[j] = v[p]
	}
	return out
}

// OmittedNames returns the names of the dropped columns in original order.
func (r RankReport) OmittedNames(names []string) []string {
	out := make([]string, 0, len(r.Omitted))
	for _, o := range r.Omitted {
		out = append(out, names[o.Index])
	}
	return out
}

// DetectCollinearity scans the columns of x left to right with two-pass
// modified Gram-Schmidt. A column is redundant when what is left of it after
// removing its projection on the retained columns has norm <= tol times its
// own norm. tol outside (0, 1) selects DefaultRankTolerance; tol is never allowed below
// n times machine epsilon.
func DetectCollinearity(x mat.Matrix, tol float64) RankReport {
	n, k := x.Dims()
	if tol <= 0 || tol >= 1 {
		tol = DefaultRankTolerance
	}
	if floor := float64(n) * machEps; tol < floor {
		tol = floor
	}

	report := RankReport{K: k}

	// q holds the orthonormal basis of retained columns; rcols[p] is column p
	// of the triangular factor R, so that x[:, Kept[p]] = sum_i q[i] * rcols[p][i].
	var (
		q     [][]float64
		rcols [][]float64
	)

	for j := 0; j < k; j++ {
		v := mat.Col(nil, j, x)
		norm0 := floats.Norm(v, 2)
		if norm0 == 0 {
			report.Omitted = append(report.Omitted, Omission{Index: j, DependsOn: -1})
			continue
		}

		proj := make([]float64, len(q))
		for pass := 0; pass < 2; pass++ {
			for p, qp := range q {
				c := floats.Dot(qp, v)
				proj[p] += c
				floats.AddScaled(v, -c, qp)
			}
		}

		resid := floats.Norm(v, 2)
		if resid <= tol*norm0 {
			dep := earliestDependency(rcols, proj, norm0)
			report.Omitted = append(report.Omitted, Omission{Index: j, DependsOn: report.Kept[dep]})
			continue
		}

		floats.Scale(1/resid, v)
		q = append(q, v)
		rcols = append(rcols, append(proj, resid))
		report.Kept = append(report.Kept, j)
	}

	return report
}

// earliestDependency solves R c = proj for the combination coefficients of a
// redundant column and returns the first retained position whose contribution
// is not negligible.
func earliestDependency(rcols [][]float64, proj []float64, norm0 float64) int {
	m := len(proj)
	c := make([]float64, m)
	for i := m - 1; i >= 0; i-- {
		s := proj[i]
		for p := i + 1; p < m; p++ {
			s -= rcols[p][i] * c[p]
		}
		c[i] = s / rcols[i][i]
	}

	best, bestContrib := 0, -1.0
	for i := 0; i < m; i++ {
		contrib := math.Abs(c[i]) * floats.Norm(rcols[i], 2)
		if contrib > math.Sqrt(machEps)*norm0 {
			return i
		}
		if contrib > bestContrib {
			best, bestContrib = i, contrib
		}
	}
	return best
}

// preprocess drops redundant columns and fails only when fewer than minCols
// columns survive.
func preprocess(x *mat.Dense, names []string, minCols int, tol float64, logger *slog.Logger, what string) (RankReport, *mat.Dense, error) {
	report := DetectCollinearity(x, tol)
	for _, o := range report.Omitted {
		if o.DependsOn < 0 {
			logger.Debug("omitted zero column", "matrix", what, "column", names[o.Index])
			continue
		}
		logger.Debug("omitted collinear column", "matrix", what,
			"column", names[o.Index], "depends_on", names[o.DependsOn])
	}
	if report.Rank() < minCols {
		return report, nil, fmt.Errorf("%s keeps %d of %d columns, need %d: %w",
			what, report.Rank(), report.K, minCols, ErrRankDeficiencyUnrecoverable)
	}
	return report, report.Compact(x), nil
}
