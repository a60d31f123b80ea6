// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: linest, a linear estimation engine (OLS, FGLS, IV, GMM)
// Class: 02-613 at Caregie Mellon University

package linest

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

// Defaults for BootstrapOptions
const (
	DefaultBootstrapReplications = 500
	DefaultBootstrapAlpha        = 0.05
)

// BootstrapOptions configure Bootstrap.
type BootstrapOptions struct {
	// Number of resamples (default 500)
	NReplications int
	// Two-sided interval level, lower/upper at Alpha/2 and 1 - Alpha/2 (default 0.05)
	Alpha float64
	// Master seed; the same seed gives the same draws for any worker count
	Seed int64
	// Concurrent replications (default runtime.NumCPU())
	Workers int
}

// BootstrapResult holds the pairs-bootstrap distribution of every coefficient.
type BootstrapResult struct {
	Names []string
	// Estimate on the full sample
	Point []float64
	// Standard deviation of the finite draws per coefficient
	StdErrors []float64
	// Percentile interval bounds
	Lower, Upper []float64
	Alpha        float64
	// Draws[b][j] is coefficient j in replication b, NaN when omitted
	Draws [][]float64
	// Non-finite draws per coefficient
	Missing []int
}

// Bootstrap re-estimates est on NReplications row resamples of d drawn with
// replacement. Cluster ids, weights and instruments travel with their rows.
// Coefficients that turn out collinear in a resample are skipped for that
// replication.
func Bootstrap(ctx context.Context, est Estimator, d *Data, opts BootstrapOptions) (*BootstrapResult, error) {
	if opts.NReplications <= 0 {
		opts.NReplications = DefaultBootstrapReplications
	}
	if opts.Alpha <= 0 || opts.Alpha >= 1 {
		opts.Alpha = DefaultBootstrapAlpha
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > opts.NReplications {
		workers = opts.NReplications
	}

	if _, ok := est.(*CochraneOrcuttEstimator); ok {
		// Row resampling would destroy the serial structure
		return nil, fmt.Errorf("bootstrap: pairs resampling does not apply to %v: %w", MethodCochraneOrcutt, ErrInvalidInput)
	}
	base, err := est.Estimate(d)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: full sample: %w", err)
	}
	n, _ := d.X.Dims()

	// One seed per replication, drawn up front
	master := rand.New(rand.NewSource(opts.Seed))
	seeds := make([]int64, opts.NReplications)
	for b := range seeds {
		seeds[b] = master.Int63()
	}

	draws := make([][]float64, opts.NReplications)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for b := 0; b < opts.NReplications; b++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewSource(seeds[b]))
			rows := make([]int, n)
			for i := range rows {
				rows[i] = rng.Intn(n)
			}
			res, err := est.Estimate(d.resample(rows))
			if err != nil {
				return fmt.Errorf("bootstrap: replication %d: %w", b, err)
			}
			draws[b] = res.Coefficients()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	k := len(base.coef)
	out := &BootstrapResult{
		Names:     base.Names(),
		Point:     base.Coefficients(),
		StdErrors: make([]float64, k),
		Lower:     make([]float64, k),
		Upper:     make([]float64, k),
		Alpha:     opts.Alpha,
		Draws:     draws,
		Missing:   make([]int, k),
	}

	samples := make([]float64, 0, opts.NReplications)
	for j := 0; j < k; j++ {
		samples = samples[:0]
		for _, row := range draws {
			v := row[j]
			if math.IsNaN(v) || math.IsInf(v, 0) {
				out.Missing[j]++
				continue
			}
			samples = append(samples, v)
		}
		if len(samples) < 2 {
			out.StdErrors[j], out.Lower[j], out.Upper[j] = math.NaN(), math.NaN(), math.NaN()
			continue
		}
		out.StdErrors[j] = stat.StdDev(samples, nil)
		sort.Float64s(samples)
		out.Lower[j] = percentile(samples, opts.Alpha/2)
		out.Upper[j] = percentile(samples, 1-opts.Alpha/2)
	}
	return out, nil
}

// percentile returns the q-quantile of ascending sorted, interpolating
// linearly between neighbouring order statistics. NaN when sorted is empty.
func percentile(sorted []float64, q float64) float64 {
	n := len(sorted)
	switch {
	case n == 0:
		return math.NaN()
	case q <= 0:
		return sorted[0]
	case q >= 1:
		return sorted[n-1]
	}
	whole, frac := math.Modf(q * float64(n-1))
	lo := int(whole)
	if frac == 0 {
		return sorted[lo]
	}
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}
