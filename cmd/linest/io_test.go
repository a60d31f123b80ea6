// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: linest, a linear estimation engine (OLS, FGLS, IV, GMM)
// Class: 02-613 at Caregie Mellon University

package main

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `y, a, b, g, w
1.5, 1, 0.5, 1, 1
2.0, 2, -1, 1, 2

3.1, 3, 0.25, 2, 1
4.2, 4, 2, 2, 0.5
`

func TestReadCSV(t *testing.T) {
	tbl, err := ReadCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	assert.Equal(t, []string{"y", "a", "b", "g", "w"}, tbl.Header)
	rows, cols := tbl.Data.Dims()
	assert.Equal(t, 4, rows)
	assert.Equal(t, 5, cols)

	b, err := tbl.Column("b")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, -1, 0.25, 2}, b)

	_, err = tbl.Column("c")
	assert.ErrorContains(t, err, `no column "c"`)
}

func TestReadCSVErrors(t *testing.T) {
	tests := map[string]string{
		"empty":       "",
		"header only": "y,x\n",
		"bad float":   "y,x\n1,2\n3,abc\n",
		"ragged":      "y,x\n1,2\n3\n",
	}
	for name, in := range tests {
		_, err := ReadCSV(strings.NewReader(in))
		assert.Error(t, err, name)
	}

	_, err := ReadCSV(strings.NewReader("y,x\n1,2\n3,abc\n"))
	assert.ErrorContains(t, err, "row 3")
}

func TestLoadCSV(t *testing.T) {
	path := writeFile(t, "obs.csv", sampleCSV)
	tbl, err := LoadCSV(path)
	require.NoError(t, err)
	rows, _ := tbl.Data.Dims()
	assert.Equal(t, 4, rows)

	_, err = LoadCSV(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestBuildData(t *testing.T) {
	tbl, err := ReadCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	cfg := &Config{Y: "y", X: "a", Z: "b", Weights: "w", Cluster: "g"}
	d, err := BuildData(tbl, cfg)
	require.NoError(t, err)

	assert.Equal(t, []float64{1.5, 2.0, 3.1, 4.2}, d.Y)
	assert.Equal(t, []string{InterceptName, "a"}, d.Names)
	assert.True(t, d.Intercept)
	assert.Equal(t, 1.0, d.X.At(2, 0))
	assert.Equal(t, 3.0, d.X.At(2, 1))

	assert.Equal(t, []string{InterceptName, "b"}, d.InstrumentNames)
	assert.Equal(t, 1.0, d.Z.At(1, 0))
	assert.Equal(t, -1.0, d.Z.At(1, 1))

	assert.Equal(t, []float64{1, 2, 1, 0.5}, d.Weights)
	assert.Equal(t, []int{1, 1, 2, 2}, d.Clusters)
}

func TestBuildDataNoIntercept(t *testing.T) {
	tbl, err := ReadCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	d, err := BuildData(tbl, &Config{Y: "y", X: "a,b", NoIntercept: true})
	require.NoError(t, err)
	assert.False(t, d.Intercept)
	assert.Equal(t, []string{"a", "b"}, d.Names)
	assert.Nil(t, d.Z)
	assert.Nil(t, d.Clusters)
}

func TestBuildDataErrors(t *testing.T) {
	tbl, err := ReadCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	for _, cfg := range []*Config{
		{Y: "missing", X: "a"},
		{Y: "y", X: "a,missing"},
		{Y: "y", X: "a", Z: "missing"},
		{Y: "y", X: "a", Weights: "missing"},
		{Y: "y", X: "a", Cluster: "w"}, // 0.5 is not an id
	} {
		_, err := BuildData(tbl, cfg)
		assert.Error(t, err, "%+v", *cfg)
	}
}
