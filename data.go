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

// Data is one observation set handed to an estimator.
// The estimators only read from it; nothing here is ever modified.
type Data struct {
	// Response, length n
	Y []float64
	// Design matrix, n x k, may be rank deficient
	X *mat.Dense
	// Column names parallel to X; defaults to x0, x1, ...
	Names []string
	// Whether one column of X is a constant term. Drives centered R^2
	// and which coefficient the overall model test leaves out.
	Intercept bool

	// Instruments for IV and GMM, n x l. Exogenous regressors must be
	// included here as well.
	Z *mat.Dense
	// Instrument names parallel to Z; defaults to z0, z1, ...
	InstrumentNames []string

	// Observation weights for WLS, length n
	Weights []float64
	// Cluster ids for clustered covariance, length n
	Clusters []int
}

// validate checks shapes and finiteness and returns n and k.
func (d *Data) validate(needInstruments bool) (int, int, error) {
	if d == nil || d.X == nil || d.Y == nil {
		return 0, 0, fmt.Errorf("data must have a response and a design matrix: %w", ErrInvalidInput)
	}
	n, k := d.X.Dims()
	if n == 0 || k == 0 {
		return 0, 0, fmt.Errorf("design matrix is %dx%d: %w", n, k, ErrInsufficientObservations)
	}
	if len(d.Y) != n {
		return 0, 0, fmt.Errorf("y has %d rows, X has %d: %w", len(d.Y), n, ErrDimensionMismatch)
	}
	if d.Names != nil && len(d.Names) != k {
		return 0, 0, fmt.Errorf("%d names for %d columns: %w", len(d.Names), k, ErrDimensionMismatch)
	}
	if err := checkFinite("y", mat.NewVecDense(n, d.Y)); err != nil {
		return 0, 0, err
	}
	if err := checkFinite("X", d.X); err != nil {
		return 0, 0, err
	}

	if needInstruments && d.Z == nil {
		return 0, 0, fmt.Errorf("instrument matrix is required: %w", ErrInvalidInput)
	}
	if d.Z != nil {
		zr, zc := d.Z.Dims()
		if zr != n {
			return 0, 0, fmt.Errorf("Z has %d rows, X has %d: %w", zr, n, ErrDimensionMismatch)
		}
		if d.InstrumentNames != nil && len(d.InstrumentNames) != zc {
			return 0, 0, fmt.Errorf("%d instrument names for %d columns: %w", len(d.InstrumentNames), zc, ErrDimensionMismatch)
		}
		if err := checkFinite("Z", d.Z); err != nil {
			return 0, 0, err
		}
	}

	if d.Weights != nil && len(d.Weights) != n {
		return 0, 0, fmt.Errorf("%d weights for %d rows: %w", len(d.Weights), n, ErrDimensionMismatch)
	}
	if d.Clusters != nil && len(d.Clusters) != n {
		return 0, 0, fmt.Errorf("%d cluster ids for %d rows: %w", len(d.Clusters), n, ErrDimensionMismatch)
	}
	return n, k, nil
}

func (d *Data) names() []string {
	_, k := d.X.Dims()
	return namesOrDefault(d.Names, k, "x")
}

func (d *Data) instrumentNames() []string {
	_, l := d.Z.Dims()
	return namesOrDefault(d.InstrumentNames, l, "z")
}

func namesOrDefault(names []string, k int, prefix string) []string {
	out := make([]string, k)
	if names != nil {
		copy(out, names)
		return out
	}
	for j := range out {
		out[j] = fmt.Sprintf("%s%d", prefix, j)
	}
	return out
}

// resample builds a new Data from the given row indices (with repeats).
// Every observation-aligned field travels with its row.
func (d *Data) resample(rows []int) *Data {
	_, k := d.X.Dims()
	m := len(rows)

	out := &Data{
		Y:               make([]float64, m),
		X:               mat.NewDense(m, k, nil),
		Names:           d.Names,
		Intercept:       d.Intercept,
		InstrumentNames: d.InstrumentNames,
	}
	if d.Z != nil {
		_, l := d.Z.Dims()
		out.Z = mat.NewDense(m, l, nil)
	}
	if d.Weights != nil {
		out.Weights = make([]float64, m)
	}
	if d.Clusters != nil {
		out.Clusters = make([]int, m)
	}

	for i, src := range rows {
		out.Y[i] = d.Y[src]
		out.X.SetRow(i, d.X.RawRowView(src))
		if d.Z != nil {
			out.Z.SetRow(i, d.Z.RawRowView(src))
		}
		if d.Weights != nil {
			out.Weights[i] = d.Weights[src]
		}
		if d.Clusters != nil {
			out.Clusters[i] = d.Clusters[src]
		}
	}
	return out
}

func checkFinite(what string, m mat.Matrix) error {
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := m.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%s has non-finite value at (%d, %d): %w", what, i, j, ErrInvalidInput)
			}
		}
	}
	return nil
}
