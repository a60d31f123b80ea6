// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: linest, a linear estimation engine (OLS, FGLS, IV, GMM)
// Class: 02-613 at Caregie Mellon University

package linest

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Every estimator returns one of these sentinels, wrapped with context.
// Callers match them with errors.Is. Ordinary collinearity is not an error:
// redundant columns are dropped and listed in the RankReport.
var (
	// ErrDimensionMismatch means row counts of y, X, Z, weights or cluster ids disagree.
	ErrDimensionMismatch = errors.New("linest: dimension mismatch")

	// ErrRankDeficiencyUnrecoverable means too few independent columns survive collinearity removal.
	ErrRankDeficiencyUnrecoverable = errors.New("linest: rank deficiency unrecoverable")

	// ErrOrderConditionViolated means there are fewer instruments than regressors.
	ErrOrderConditionViolated = errors.New("linest: order condition violated")

	// ErrInsufficientObservations means n <= k' (or too few clusters).
	ErrInsufficientObservations = errors.New("linest: insufficient observations")

	// ErrSingularMatrix means an inversion failed after the rank checks passed.
	ErrSingularMatrix = errors.New("linest: singular matrix")

	// ErrConvergenceFailure means an iterative procedure hit its step cap.
	ErrConvergenceFailure = errors.New("linest: convergence failure")

	// ErrInvalidInput covers non-finite data, bad weights and bad options.
	ErrInvalidInput = errors.New("linest: invalid input")
)

// singular turns a gonum factorization failure into ErrSingularMatrix,
// keeping the gonum error (usually a mat.Condition) in the message.
func singular(what string, err error) error {
	var cond mat.Condition
	if errors.As(err, &cond) {
		return fmt.Errorf("%s: condition number %.3g: %w", what, float64(cond), ErrSingularMatrix)
	}
	if err != nil {
		return fmt.Errorf("%s: %v: %w", what, err, ErrSingularMatrix)
	}
	return fmt.Errorf("%s: %w", what, ErrSingularMatrix)
}
