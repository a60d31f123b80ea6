// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: linest, a linear estimation engine (OLS, FGLS, IV, GMM)
// Class: 02-613 at Caregie Mellon University

package linest

import (
	"bufio"
	"log/slog"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"gonum.org/v1/gonum/mat"
)

// fixtureCase is one input/output pair under testdata/<Name>/.
type fixtureCase struct {
	name   string
	input  []float64
	output []float64
}

// loadFixtures pairs testdata/<name>/input/* with output/* by sorted file
// name. Each file is a list of numbers, one per line; blank lines and lines
// starting with # are ignored.
func loadFixtures(t *testing.T, name string) []fixtureCase {
	t.Helper()
	dir := filepath.Join("testdata", name)
	inputs, err := os.ReadDir(filepath.Join(dir, "input"))
	if err != nil {
		t.Fatalf("fixtures %s: %v", name, err)
	}
	outputs, err := os.ReadDir(filepath.Join(dir, "output"))
	if err != nil {
		t.Fatalf("fixtures %s: %v", name, err)
	}
	if len(inputs) != len(outputs) {
		t.Fatalf("fixtures %s: %d inputs, %d outputs", name, len(inputs), len(outputs))
	}

	cases := make([]fixtureCase, len(inputs))
	for i := range inputs {
		cases[i] = fixtureCase{
			name:   strings.TrimSuffix(inputs[i].Name(), filepath.Ext(inputs[i].Name())),
			input:  readNumbers(t, filepath.Join(dir, "input", inputs[i].Name())),
			output: readNumbers(t, filepath.Join(dir, "output", outputs[i].Name())),
		}
	}
	return cases
}

func readNumbers(t *testing.T, path string) []float64 {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open fixture: %v", err)
	}
	defer f.Close()

	var out []float64
	scanner := bufio.NewScanner(f)
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			t.Fatalf("%s:%d: %v", path, line, err)
		}
		out = append(out, v)
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return out
}

// newTestLogger returns a logger that writes to t.Log.
func newTestLogger(t testing.TB) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(testWriter{t}, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

type testWriter struct {
	t testing.TB
}

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

// simulate draws y = X beta + noise*eps with a constant first column and
// standard normal regressors.
func simulate(n int, seed int64, beta []float64, noise float64) *Data {
	rng := rand.New(rand.NewSource(seed))
	k := len(beta)
	x := mat.NewDense(n, k, nil)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x.Set(i, 0, 1)
		for j := 1; j < k; j++ {
			x.Set(i, j, rng.NormFloat64())
		}
		for j := 0; j < k; j++ {
			y[i] += x.At(i, j) * beta[j]
		}
		y[i] += noise * rng.NormFloat64()
	}
	return &Data{Y: y, X: x, Intercept: true}
}

// heteroskedastic is simulate with noise scaled by 1 + |x1|.
func heteroskedastic(n int, seed int64, beta []float64) *Data {
	rng := rand.New(rand.NewSource(seed))
	d := simulate(n, seed+1, beta, 0)
	for i := range d.Y {
		d.Y[i] += (1 + math.Abs(d.X.At(i, 1))) * rng.NormFloat64()
	}
	return d
}

// endogenous draws a just- or over-identified IV design: x1 depends on the
// error through u, z1..zm are valid instruments. Z is [1, z1..zm].
func endogenous(n int, seed int64, m int) *Data {
	rng := rand.New(rand.NewSource(seed))
	x := mat.NewDense(n, 2, nil)
	z := mat.NewDense(n, m+1, nil)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		u := rng.NormFloat64()
		x1 := 0.5 * u
		z.Set(i, 0, 1)
		for j := 1; j <= m; j++ {
			zj := rng.NormFloat64()
			z.Set(i, j, zj)
			x1 += zj
		}
		x1 += 0.5 * rng.NormFloat64()
		x.Set(i, 0, 1)
		x.Set(i, 1, x1)
		y[i] = 1 + 2*x1 + u + 0.3*rng.NormFloat64()
	}
	return &Data{Y: y, X: x, Names: []string{"const", "x1"}, Intercept: true, Z: z}
}

func maxAbsDiff(a, b []float64) float64 {
	var m float64
	for i := range a {
		if d := math.Abs(a[i] - b[i]); d > m {
			m = d
		}
	}
	return m
}

// symEqual checks that both matrices are k x k and agree entrywise.
func symEqual(t *testing.T, k int, want, got mat.Symmetric, tol float64) {
	t.Helper()
	if want.SymmetricDim() != k || got.SymmetricDim() != k {
		t.Fatalf("dimensions %d and %d, want %d", want.SymmetricDim(), got.SymmetricDim(), k)
	}
	for i := 0; i < k; i++ {
		for j := 0; j < k; j++ {
			if math.Abs(want.At(i, j)-got.At(i, j)) > tol {
				t.Errorf("(%d, %d) = %v, want %v", i, j, got.At(i, j), want.At(i, j))
			}
		}
	}
}
