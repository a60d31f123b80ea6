// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: linest, a linear estimation engine (OLS, FGLS, IV, GMM)
// Class: 02-613 at Caregie Mellon University

package linest

import (
	"gonum.org/v1/gonum/mat"
)

// lsqFit is the QR least-squares solution of min ||y - X b||.
type lsqFit struct {
	beta   *mat.VecDense // k'
	fitted *mat.VecDense // X b
	resid  *mat.VecDense // y - X b
	bread  *mat.SymDense // (X'X)^-1
}

// leastSquares solves y ~ X through the QR decomposition of X.
// X must have full column rank and more rows than columns.
func leastSquares(x *mat.Dense, y *mat.VecDense) (*lsqFit, error) {
	n, k := x.Dims()

	var qr mat.QR
	qr.Factorize(x)

	beta := mat.NewVecDense(k, nil)
	if err := qr.SolveVecTo(beta, false, y); err != nil {
		return nil, singular("least squares", err)
	}

	bread, err := qrBread(&qr, k)
	if err != nil {
		return nil, err
	}

	fitted := mat.NewVecDense(n, nil)
	fitted.MulVec(x, beta)
	resid := mat.NewVecDense(n, nil)
	resid.SubVec(y, fitted)

	return &lsqFit{beta: beta, fitted: fitted, resid: resid, bread: bread}, nil
}

// qrBread returns (X'X)^-1 = R^-1 R^-T from the triangular factor, so the
// cross-product matrix is never formed or inverted directly.
func qrBread(qr *mat.QR, k int) (*mat.SymDense, error) {
	var r mat.Dense
	qr.RTo(&r)

	tri := mat.NewTriDense(k, mat.Upper, nil)
	for i := 0; i < k; i++ {
		for j := i; j < k; j++ {
			tri.SetTri(i, j, r.At(i, j))
		}
	}

	var rinv mat.TriDense
	if err := rinv.InverseTri(tri); err != nil {
		return nil, singular("inverting R", err)
	}

	bread := mat.NewSymDense(k, nil)
	bread.SymOuterK(1, &rinv)
	return bread, nil
}

// leverage returns the hat-matrix diagonal h_i = x_i' (X'X)^-1 x_i.
func leverage(x *mat.Dense, bread mat.Symmetric) []float64 {
	n, k := x.Dims()
	h := make([]float64, n)
	for i := 0; i < n; i++ {
		row := mat.NewVecDense(k, x.RawRowView(i))
		h[i] = mat.Inner(row, bread, row)
	}
	return h
}

// symmetrize averages m with its transpose.
func symmetrize(m mat.Matrix) *mat.SymDense {
	k, _ := m.Dims()
	s := mat.NewSymDense(k, nil)
	for i := 0; i < k; i++ {
		for j := i; j < k; j++ {
			s.SetSym(i, j, 0.5*(m.At(i, j)+m.At(j, i)))
		}
	}
	return s
}

// sandwich returns bread * meat * bread.
func sandwich(bread, meat mat.Symmetric) *mat.SymDense {
	var tmp, v mat.Dense
	tmp.Mul(bread, meat)
	v.Mul(&tmp, bread)
	return symmetrize(&v)
}

// invertSPD inverts a symmetric positive definite matrix by Cholesky.
func invertSPD(a mat.Symmetric, what string) (*mat.SymDense, error) {
	var chol mat.Cholesky
	if ok := chol.Factorize(a); !ok {
		return nil, singular(what, nil)
	}
	var inv mat.SymDense
	if err := chol.InverseTo(&inv); err != nil {
		return nil, singular(what, err)
	}
	return &inv, nil
}

// fitStats holds the goodness-of-fit numbers shared by every estimator.
type fitStats struct {
	rss, tss, r2, adjR2, logLik float64
}

// goodnessOfFit computes RSS, TSS and R^2 from residuals. With weights the
// sums and the mean of y are weighted. When intercept is false TSS is
// uncentered.
func goodnessOfFit(y, resid, w []float64, intercept bool, kept int) fitStats {
	n := len(y)
	weight := func(i int) float64 {
		if w == nil {
			return 1
		}
		return w[i]
	}

	var rss, sw, swy float64
	for i := 0; i < n; i++ {
		rss += weight(i) * resid[i] * resid[i]
		sw += weight(i)
		swy += weight(i) * y[i]
	}

	center := 0.0
	if intercept {
		center = swy / sw
	}
	var tss float64
	for i := 0; i < n; i++ {
		d := y[i] - center
		tss += weight(i) * d * d
	}

	st := fitStats{rss: rss, tss: tss}
	// Constant response: nothing to explain, R^2 stays at zero
	if tss > 0 {
		c := 0.0
		if intercept {
			c = 1
		}
		st.r2 = 1 - rss/tss
		st.adjR2 = 1 - (1-st.r2)*(float64(n)-c)/float64(n-kept)
	}
	st.logLik = gaussianLogLik(n, rss)
	return st
}
