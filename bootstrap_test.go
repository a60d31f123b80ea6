// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: linest, a linear estimation engine (OLS, FGLS, IV, GMM)
// Class: 02-613 at Caregie Mellon University

package linest

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercentile(t *testing.T) {
	cases := loadFixtures(t, "Percentile")
	require.NotEmpty(t, cases)
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			q, draws := c.input[0], append([]float64(nil), c.input[1:]...)
			sort.Float64s(draws)
			assert.InDelta(t, c.output[0], percentile(draws, q), 1e-12, "q = %v, draws %v", q, draws)
		})
	}
	assert.True(t, math.IsNaN(percentile(nil, 0.5)))
}

// ============================================================================
// PAIRS BOOTSTRAP TESTS
// ============================================================================

func TestBootstrapReproducibleAcrossWorkers(t *testing.T) {
	d := heteroskedastic(80, 51, []float64{1, 2})
	est := &OLSEstimator{Options: Options{Covariance: Covariance{Kind: HC1}}}

	one, err := Bootstrap(context.Background(), est, d, BootstrapOptions{NReplications: 60, Seed: 7, Workers: 1})
	require.NoError(t, err)
	many, err := Bootstrap(context.Background(), est, d, BootstrapOptions{NReplications: 60, Seed: 7, Workers: 8})
	require.NoError(t, err)

	assert.Equal(t, one.Draws, many.Draws)
	assert.Equal(t, one.StdErrors, many.StdErrors)
	assert.Equal(t, one.Lower, many.Lower)

	other, err := Bootstrap(context.Background(), est, d, BootstrapOptions{NReplications: 60, Seed: 8, Workers: 8})
	require.NoError(t, err)
	assert.NotEqual(t, one.Draws, other.Draws)
}

func TestBootstrapMatchesRobustStandardErrors(t *testing.T) {
	d := heteroskedastic(300, 52, []float64{1, 2})
	est := &OLSEstimator{Options: Options{Covariance: Covariance{Kind: HC1}}}
	res, err := est.Estimate(d)
	require.NoError(t, err)

	boot, err := Bootstrap(context.Background(), est, d, BootstrapOptions{NReplications: 400, Seed: 3})
	require.NoError(t, err)

	se := res.StdErrors()
	for j := range se {
		ratio := boot.StdErrors[j] / se[j]
		assert.Greater(t, ratio, 0.7, "coefficient %d", j)
		assert.Less(t, ratio, 1.3, "coefficient %d", j)
		assert.Less(t, boot.Lower[j], boot.Point[j])
		assert.Greater(t, boot.Upper[j], boot.Point[j])
		assert.Equal(t, 0, boot.Missing[j])
	}
	assert.Equal(t, DefaultBootstrapAlpha, boot.Alpha)
	assert.Len(t, boot.Draws, 400)
}

func TestBootstrapCarriesInstruments(t *testing.T) {
	d := endogenous(200, 53, 2)
	boot, err := Bootstrap(context.Background(), &IVEstimator{}, d, BootstrapOptions{NReplications: 50, Seed: 1, Workers: 2})
	require.NoError(t, err)
	assert.InDelta(t, 2, boot.Point[1], 0.2)
	assert.Equal(t, []string{"const", "x1"}, boot.Names)
}

type flakyEstimator struct {
	calls atomic.Int32
	inner Estimator
}

func (f *flakyEstimator) Estimate(d *Data) (*Result, error) {
	if f.calls.Add(1) > 3 {
		return nil, ErrSingularMatrix
	}
	return f.inner.Estimate(d)
}

func TestBootstrapErrors(t *testing.T) {
	d := simulate(40, 54, []float64{1, 1}, 1)

	_, err := Bootstrap(context.Background(), &flakyEstimator{inner: &OLSEstimator{}}, d,
		BootstrapOptions{NReplications: 10, Seed: 1, Workers: 1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSingularMatrix))
	assert.Contains(t, err.Error(), "replication")

	_, err = Bootstrap(context.Background(), &CochraneOrcuttEstimator{}, d, BootstrapOptions{NReplications: 5})
	assert.True(t, errors.Is(err, ErrInvalidInput))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Bootstrap(ctx, &OLSEstimator{}, d, BootstrapOptions{NReplications: 5})
	assert.True(t, errors.Is(err, context.Canceled), "%v", err)
}
