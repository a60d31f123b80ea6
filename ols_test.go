// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: linest, a linear estimation engine (OLS, FGLS, IV, GMM)
// Class: 02-613 at Caregie Mellon University

package linest

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

func TestOLSRecoversCoefficients(t *testing.T) {
	d := simulate(400, 1, []float64{1, 2, -3}, 0.1)
	res, err := (&OLSEstimator{Options: Options{Logger: newTestLogger(t)}}).Estimate(d)
	require.NoError(t, err)

	coef := res.Coefficients()
	for j, want := range []float64{1, 2, -3} {
		assert.InDelta(t, want, coef[j], 0.05, "coefficient %d", j)
	}
	assert.Equal(t, MethodOLS, res.Method())
	assert.Equal(t, 400, res.NObs())
	assert.Equal(t, 397, res.DFResid())
	assert.Equal(t, StudentT, res.Distribution())
	assert.Equal(t, DefaultLevel, res.Level())
	assert.Equal(t, []string{"x0", "x1", "x2"}, res.Names())
}

func TestOLSResidualsOrthogonal(t *testing.T) {
	d := simulate(200, 2, []float64{0.5, 1, 1, -1}, 1)
	res, err := FitOLS(d, Covariance{})
	require.NoError(t, err)

	e := res.Residuals()
	_, k := d.X.Dims()
	for j := 0; j < k; j++ {
		dot := floats.Dot(mat.Col(nil, j, d.X), e)
		assert.InDelta(t, 0, dot, 1e-9, "X'e column %d", j)
	}

	fitted := res.Fitted()
	for i := range d.Y {
		assert.InDelta(t, d.Y[i], fitted[i]+e[i], 1e-12)
	}
	assert.GreaterOrEqual(t, res.RSquared(), 0.0)
	assert.LessOrEqual(t, res.RSquared(), 1.0)
	assert.InDelta(t, res.RSS(), floats.Dot(e, e), 1e-9)
	assert.InDelta(t, 1-res.RSS()/res.TSS(), res.RSquared(), 1e-12)
}

func TestOLSPerfectLine(t *testing.T) {
	d := &Data{
		Y:         []float64{1, 2, 3, 4, 5},
		X:         mat.NewDense(5, 2, []float64{1, 1, 1, 2, 1, 3, 1, 4, 1, 5}),
		Names:     []string{"const", "x"},
		Intercept: true,
	}
	res, err := FitOLS(d, Covariance{})
	require.NoError(t, err)

	coef := res.Coefficients()
	assert.InDelta(t, 0, coef[0], 1e-10)
	assert.InDelta(t, 1, coef[1], 1e-10)
	assert.InDelta(t, 1, res.RSquared(), 1e-10)
	for _, e := range res.Residuals() {
		assert.InDelta(t, 0, e, 1e-10)
	}
}

func TestOLSConstantResponse(t *testing.T) {
	d := &Data{
		Y:         []float64{3, 3, 3, 3, 3},
		X:         mat.NewDense(5, 2, []float64{1, 1, 1, 2, 1, 3, 1, 4, 1, 5}),
		Names:     []string{"const", "x"},
		Intercept: true,
	}
	res, err := FitOLS(d, Covariance{})
	require.NoError(t, err)

	assert.Equal(t, 0.0, res.TSS())
	assert.Equal(t, 0.0, res.RSquared())
	assert.Equal(t, 0.0, res.AdjRSquared())
	coef := res.Coefficients()
	assert.InDelta(t, 3, coef[0], 1e-10)
	assert.InDelta(t, 0, coef[1], 1e-10)
}

func TestOLSDropsDependentColumn(t *testing.T) {
	full := simulate(50, 3, []float64{1, 2, 3}, 0.5)
	n, _ := full.X.Dims()

	// Third column is the sum of the first two
	x := mat.NewDense(n, 3, nil)
	for i := 0; i < n; i++ {
		x.Set(i, 0, full.X.At(i, 1))
		x.Set(i, 1, full.X.At(i, 2))
		x.Set(i, 2, full.X.At(i, 1)+full.X.At(i, 2))
	}
	d := &Data{Y: full.Y, X: x, Names: []string{"a", "b", "a_plus_b"}}

	res, err := FitOLS(d, Covariance{Kind: HC1})
	require.NoError(t, err)
	assert.Equal(t, []string{"a_plus_b"}, res.OmittedNames())
	assert.Equal(t, 2, res.Rank().Rank())
	assert.Equal(t, n-2, res.DFResid())

	reduced, err := FitOLS(&Data{Y: full.Y, X: x.Slice(0, n, 0, 2).(*mat.Dense)}, Covariance{Kind: HC1})
	require.NoError(t, err)

	coef, want := res.Coefficients(), reduced.Coefficients()
	assert.InDelta(t, want[0], coef[0], 1e-12)
	assert.InDelta(t, want[1], coef[1], 1e-12)
	assert.True(t, math.IsNaN(coef[2]))

	se := res.StdErrors()
	assert.True(t, math.IsNaN(se[2]))
	lo, hi := res.ConfInt()
	assert.True(t, math.IsNaN(lo[2]) && math.IsNaN(hi[2]))
	assert.True(t, math.IsNaN(res.PValues()[2]))

	r, c := res.Covariance().Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 2, c)
	symEqual(t, 2, reduced.Covariance(), res.Covariance(), 1e-12)
}

func TestOLSErrors(t *testing.T) {
	x := mat.NewDense(3, 2, []float64{1, 1, 1, 2, 1, 3})

	_, err := FitOLS(&Data{Y: []float64{1, 2}, X: x}, Covariance{})
	assert.True(t, errors.Is(err, ErrDimensionMismatch), "short y: %v", err)

	_, err = FitOLS(&Data{Y: []float64{1, 2, 3}, X: x, Names: []string{"a"}}, Covariance{})
	assert.True(t, errors.Is(err, ErrDimensionMismatch), "short names: %v", err)

	_, err = FitOLS(&Data{Y: []float64{1, 2, 3}, X: mat.NewDense(3, 3, []float64{1, 1, 0, 1, 2, 1, 1, 3, 7})}, Covariance{})
	assert.True(t, errors.Is(err, ErrInsufficientObservations), "n == k: %v", err)

	_, err = FitOLS(&Data{Y: []float64{1, math.NaN(), 3}, X: x}, Covariance{})
	assert.True(t, errors.Is(err, ErrInvalidInput), "NaN in y: %v", err)

	_, err = FitOLS(&Data{Y: []float64{1, 2, 3}, X: mat.NewDense(3, 1, nil)}, Covariance{})
	assert.True(t, errors.Is(err, ErrRankDeficiencyUnrecoverable), "zero X: %v", err)

	_, err = FitOLS(nil, Covariance{})
	assert.True(t, errors.Is(err, ErrInvalidInput))

	_, err = (&OLSEstimator{Options: Options{Level: 1.5}}).Estimate(&Data{Y: []float64{1, 2, 4}, X: x})
	assert.True(t, errors.Is(err, ErrInvalidInput), "level: %v", err)
}

func TestOLSNoInterceptUncentered(t *testing.T) {
	d := simulate(60, 4, []float64{3, 1}, 1)
	d.Intercept = false
	res, err := FitOLS(d, Covariance{})
	require.NoError(t, err)
	assert.InDelta(t, floats.Dot(d.Y, d.Y), res.TSS(), 1e-9)
}

func TestPredict(t *testing.T) {
	d := simulate(40, 5, []float64{1, -1}, 0.2)
	res, err := FitOLS(d, Covariance{})
	require.NoError(t, err)

	got, err := res.Predict(d.X)
	require.NoError(t, err)
	fitted := res.Fitted()
	for i := range got {
		assert.InDelta(t, fitted[i], got[i], 1e-12)
	}

	_, err = res.Predict(mat.NewDense(2, 3, nil))
	assert.True(t, errors.Is(err, ErrDimensionMismatch))
}
