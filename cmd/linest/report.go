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
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Summary prints the fit header, the coefficient table and the model tests.
// boot may be nil.
func Summary(w io.Writer, res *linest.Result, boot *linest.BootstrapResult) {
	fmt.Fprintf(w, "%s estimation, covariance %s, %s inference\n", res.Method(), res.CovarianceType(), res.Distribution())
	fmt.Fprintf(w, "Observations: %d   Residual df: %d   Rank: %d of %d\n",
		res.NObs(), res.DFResid(), res.Rank().Rank(), res.Rank().K)
	fmt.Fprintf(w, "R-squared: %.4f   Adj. R-squared: %.4f   Log-likelihood: %.4f\n",
		res.RSquared(), res.AdjRSquared(), res.LogLikelihood())
	if res.Method() == linest.MethodCochraneOrcutt {
		fmt.Fprintf(w, "rho: %.6f after %d iterations\n", res.Rho(), res.Iterations())
	}
	if res.Method() == linest.MethodGMM {
		fmt.Fprintf(w, "Hansen J: %.4f   df: %d   p-value: %.4f\n", res.JStatistic(), res.JDF(), res.JPValue())
	}
	if omitted := res.OmittedNames(); len(omitted) > 0 {
		fmt.Fprintf(w, "Omitted as collinear: %s\n", strings.Join(omitted, ", "))
	}
	if omitted := res.OmittedInstruments(); len(omitted) > 0 {
		fmt.Fprintf(w, "Instruments omitted as collinear: %s\n", strings.Join(omitted, ", "))
	}

	renderCoefficients(w, res, boot)

	if mt, err := res.ModelTest(); err == nil {
		if mt.F {
			fmt.Fprintf(w, "F(%d, %d) = %.4f   p-value: %.4g\n", mt.DF1, mt.DF2, mt.Statistic, mt.PValue)
		} else {
			fmt.Fprintf(w, "Wald chi2(%d) = %.4f   p-value: %.4g\n", mt.DF1, mt.Statistic, mt.PValue)
		}
	}
}

func renderCoefficients(w io.Writer, res *linest.Result, boot *linest.BootstrapResult) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.Style().Format.Header = text.FormatDefault

	stat := "t"
	if res.Distribution() == linest.Normal {
		stat = "z"
	}
	ci := fmt.Sprintf("%g%% CI", 100*res.Level())
	header := table.Row{"Variable", "Coef", "Std. Err.", stat, "P>|" + stat + "|", ci, ""}
	if boot != nil {
		header = append(header, "Boot SE", fmt.Sprintf("Boot %g%% CI", 100*(1-boot.Alpha)), "")
	}
	t.AppendHeader(header)

	names := res.Names()
	coef, se, st, p := res.Coefficients(), res.StdErrors(), res.Statistics(), res.PValues()
	lo, hi := res.ConfInt()
	for j, name := range names {
		row := table.Row{name, num(coef[j]), num(se[j]), num(st[j]), pval(p[j]), num(lo[j]), num(hi[j])}
		if math.IsNaN(coef[j]) {
			row = table.Row{name, "(omitted)", "", "", "", "", ""}
		}
		if boot != nil {
			row = append(row, num(boot.StdErrors[j]), num(boot.Lower[j]), num(boot.Upper[j]))
		}
		t.AppendRow(row)
	}

	cols := []table.ColumnConfig{}
	for c := 2; c <= len(header); c++ {
		cols = append(cols, table.ColumnConfig{Number: c, Align: text.AlignRight})
	}
	t.SetColumnConfigs(cols)
	t.Render()
}

func num(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func pval(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	if v < 1e-4 {
		return "<0.0001"
	}
	return strconv.FormatFloat(v, 'f', 4, 64)
}

// WriteCoefficientsCSV writes one row per coefficient.
// Columns: Variable, Coef, StdErr, Stat, PValue, Lower, Upper, Omitted
func WriteCoefficientsCSV(path string, res *linest.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := writeCoefficients(file, res); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return file.Close()
}

func writeCoefficients(w io.Writer, res *linest.Result) error {
	writer := csv.NewWriter(w)

	header := []string{"Variable", "Coef", "StdErr", "Stat", "PValue", "Lower", "Upper", "Omitted"}
	if err := writer.Write(header); err != nil {
		return err
	}

	coef, se, st, p := res.Coefficients(), res.StdErrors(), res.Statistics(), res.PValues()
	lo, hi := res.ConfInt()
	for j, name := range res.Names() {
		rec := []string{
			name,
			fmt.Sprintf("%f", coef[j]),
			fmt.Sprintf("%f", se[j]),
			fmt.Sprintf("%f", st[j]),
			fmt.Sprintf("%f", p[j]),
			fmt.Sprintf("%f", lo[j]),
			fmt.Sprintf("%f", hi[j]),
			fmt.Sprintf("%t", math.IsNaN(coef[j])),
		}
		if err := writer.Write(rec); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
