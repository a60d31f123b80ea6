// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: linest, a linear estimation engine (OLS, FGLS, IV, GMM)
// Class: 02-613 at Caregie Mellon University

package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/dsetiawan/linest"
	"gonum.org/v1/gonum/mat"
)

// InterceptName is the name given to the constant column the CLI adds.
const InterceptName = "const"

// Table is a numeric CSV file: one named column per header field.
type Table struct {
	Header []string
	Data   *mat.Dense
}

// LoadCSV reads a CSV file with a header row and numeric cells.
func LoadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	t, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// ReadCSV parses CSV from r. Blank lines are skipped.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) == 0 {
		return nil, fmt.Errorf("empty header")
	}
	for j := range header {
		header[j] = strings.TrimSpace(header[j])
	}
	k := len(header)

	var (
		data []float64
		row  int
	)
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", row+2, err) // +2 for header and 1-based rows
		}
		if len(record) == 1 && record[0] == "" {
			continue
		}
		if len(record) != k {
			return nil, fmt.Errorf("row %d: expected %d columns, got %d", row+2, k, len(record))
		}

		for j, s := range record {
			v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return nil, fmt.Errorf("parse float at row %d col %d (%q): %w", row+2, j+1, s, err)
			}
			data = append(data, v)
		}
		row++
	}
	if row == 0 {
		return nil, fmt.Errorf("no data rows")
	}

	return &Table{Header: header, Data: mat.NewDense(row, k, data)}, nil
}

// Column returns a copy of the named column.
func (t *Table) Column(name string) ([]float64, error) {
	for j, h := range t.Header {
		if h == name {
			return mat.Col(nil, j, t.Data), nil
		}
	}
	return nil, fmt.Errorf("no column %q (have %s)", name, strings.Join(t.Header, ", "))
}

// columns stacks the named columns, optionally after a constant column.
func (t *Table) columns(names []string, constant bool) (*mat.Dense, []string, error) {
	n, _ := t.Data.Dims()
	var out []string
	if constant {
		out = append(out, InterceptName)
	}
	out = append(out, names...)

	m := mat.NewDense(n, len(out), nil)
	j := 0
	if constant {
		for i := 0; i < n; i++ {
			m.Set(i, 0, 1)
		}
		j = 1
	}
	for _, name := range names {
		col, err := t.Column(name)
		if err != nil {
			return nil, nil, err
		}
		m.SetCol(j, col)
		j++
	}
	return m, out, nil
}

// BuildData turns the configured columns of t into an observation set.
// Instruments get the same constant column as the regressors.
func BuildData(t *Table, cfg *Config) (*linest.Data, error) {
	y, err := t.Column(cfg.Y)
	if err != nil {
		return nil, err
	}
	intercept := !cfg.NoIntercept

	x, names, err := t.columns(cfg.XColumns(), intercept)
	if err != nil {
		return nil, err
	}
	d := &linest.Data{Y: y, X: x, Names: names, Intercept: intercept}

	if zcols := cfg.ZColumns(); len(zcols) > 0 {
		d.Z, d.InstrumentNames, err = t.columns(zcols, intercept)
		if err != nil {
			return nil, err
		}
	}
	if cfg.Weights != "" {
		if d.Weights, err = t.Column(cfg.Weights); err != nil {
			return nil, err
		}
	}
	if cfg.Cluster != "" {
		ids, err := t.Column(cfg.Cluster)
		if err != nil {
			return nil, err
		}
		d.Clusters = make([]int, len(ids))
		for i, v := range ids {
			if v != math.Trunc(v) {
				return nil, fmt.Errorf("cluster column %q: row %d has non-integer id %v", cfg.Cluster, i+2, v)
			}
			d.Clusters[i] = int(v)
		}
	}
	return d, nil
}
