// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: linest, a linear estimation engine (OLS, FGLS, IV, GMM)
// Class: 02-613 at Caregie Mellon University

// Command linest fits linear models to a CSV file:
//
//	linest fit --data f.csv --y y --x a,b --method ols --cov hc1
//
// Settings come from flags, LINEST_ environment variables and an optional
// linest.yaml, in that order of precedence.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/dsetiawan/linest"
	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "linest",
		Short:         "Linear estimation: OLS, FGLS, IV and GMM with robust covariance",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("config", "", "config file (default: ./linest.yaml)")
	root.PersistentFlags().BoolP("verbose", "v", false, "debug logging on stderr")

	root.AddCommand(newFitCmd())
	return root
}

func newFitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fit",
		Short: "Fit a linear model and print the coefficient table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfgFile, _ := cmd.Flags().GetString("config")
			cfg, used, err := LoadConfig(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			logger := newLogger(cmd, cfg.Verbose)
			if used != "" {
				logger.Debug("using config file", "path", used)
			}
			return runFit(cmd, cfg, logger)
		},
	}

	f := cmd.Flags()
	f.String("data", "", "CSV file with a header row")
	f.String("y", "", "response column")
	f.String("x", "", "comma-separated regressor columns")
	f.String("z", "", "comma-separated excluded and exogenous instrument columns (iv, gmm)")
	f.String("method", DefaultMethod, "ols|wls|co|iv|gmm")
	f.String("cov", DefaultCov, "nonrobust|hc0|hc1|hc2|hc3|hac|cluster")
	f.Int("lags", 0, "Newey-West lag (cov hac, gmm weighting hac)")
	f.String("cluster", "", "cluster id column (cov cluster, gmm weighting cluster)")
	f.String("weights", "", "weight column (wls)")
	f.String("dist", "", "t|normal (default: t, normal for gmm)")
	f.Float64("level", DefaultLevel, "confidence level")
	f.Bool("no-intercept", false, "do not add a constant column")
	f.String("weighting", "", "gmm moment weighting: robust|unadjusted|hac|cluster")
	f.Int("steps", 2, "gmm steps: 1 or 2")
	f.Int("bootstrap", 0, "pairs bootstrap replications (0 disables)")
	f.Int64("seed", 1, "bootstrap seed")
	f.Int("workers", 0, "bootstrap workers (default: number of CPUs)")
	f.String("out", "", "write coefficients to this CSV file")

	_ = cmd.RegisterFlagCompletionFunc("method", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"ols", "wls", "co", "iv", "gmm"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("cov", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"nonrobust", "hc0", "hc1", "hc2", "hc3", "hac", "cluster"}, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

func newLogger(cmd *cobra.Command, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

func runFit(cmd *cobra.Command, cfg *Config, logger *slog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	tbl, err := LoadCSV(cfg.Data)
	if err != nil {
		return err
	}
	rows, cols := tbl.Data.Dims()
	logger.Debug("loaded data", "path", cfg.Data, "rows", rows, "columns", cols)

	d, err := BuildData(tbl, cfg)
	if err != nil {
		return err
	}
	est, err := NewEstimator(cfg, logger)
	if err != nil {
		return err
	}

	res, err := est.Estimate(d)
	if err != nil {
		return err
	}
	if strings.TrimSpace(cfg.Dist) != "" {
		dist, err := linest.ParseDistribution(cfg.Dist)
		if err != nil {
			return err
		}
		res = res.WithInference(dist)
	}

	var boot *linest.BootstrapResult
	if cfg.Bootstrap > 0 {
		boot, err = linest.Bootstrap(cmd.Context(), est, d, linest.BootstrapOptions{
			NReplications: cfg.Bootstrap,
			Alpha:         1 - res.Level(),
			Seed:          cfg.Seed,
			Workers:       cfg.Workers,
		})
		if err != nil {
			return err
		}
	}

	Summary(cmd.OutOrStdout(), res, boot)

	if cfg.Out != "" {
		if err := WriteCoefficientsCSV(cfg.Out, res); err != nil {
			return err
		}
		logger.Debug("wrote coefficients", "path", cfg.Out)
	}
	return nil
}

// NewEstimator maps the method name and covariance settings to an estimator.
func NewEstimator(cfg *Config, logger *slog.Logger) (linest.Estimator, error) {
	kind, err := linest.ParseCovarianceKind(cfg.Cov)
	if err != nil {
		return nil, err
	}
	opts := linest.Options{
		Covariance: linest.Covariance{Kind: kind, Lags: cfg.Lags},
		Level:      cfg.Level,
		Logger:     logger,
	}

	switch strings.ToLower(cfg.Method) {
	case "ols":
		return &linest.OLSEstimator{Options: opts}, nil
	case "wls":
		return &linest.WLSEstimator{Options: opts}, nil
	case "co", "cochrane-orcutt":
		return &linest.CochraneOrcuttEstimator{Options: opts}, nil
	case "iv", "2sls":
		return &linest.IVEstimator{Options: opts}, nil
	case "gmm":
		w, err := ParseWeighting(cfg.Weighting, kind)
		if err != nil {
			return nil, err
		}
		if used := weightingKind(w); kind != linest.NonRobust && kind != used {
			logger.Debug("gmm covariance follows the moment weighting",
				"requested", kind.String(), "used", used.String(), "weighting", w.String())
		}
		return &linest.GMMEstimator{Weighting: w, Lags: cfg.Lags, Steps: cfg.Steps, Level: cfg.Level, Logger: logger}, nil
	}
	return nil, fmt.Errorf("unknown method %q", cfg.Method)
}

// weightingKind is the covariance a gmm fit reports for weighting w.
func weightingKind(w linest.MomentWeighting) linest.CovarianceKind {
	switch w {
	case linest.WeightUnadjusted:
		return linest.NonRobust
	case linest.WeightHAC:
		return linest.NeweyWest
	case linest.WeightCluster:
		return linest.Clustered
	}
	return linest.HC0
}

// ParseWeighting reads the gmm weighting name. When it is empty the
// covariance kind picks the closest weighting.
func ParseWeighting(s string, kind linest.CovarianceKind) (linest.MomentWeighting, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		switch kind {
		case linest.NeweyWest:
			return linest.WeightHAC, nil
		case linest.Clustered:
			return linest.WeightCluster, nil
		}
		return linest.WeightRobust, nil
	case "robust", "hc0":
		return linest.WeightRobust, nil
	case "unadjusted", "nonrobust", "homoskedastic":
		return linest.WeightUnadjusted, nil
	case "hac", "neweywest":
		return linest.WeightHAC, nil
	case "cluster", "clustered":
		return linest.WeightCluster, nil
	}
	return 0, fmt.Errorf("unknown gmm weighting %q (robust|unadjusted|hac|cluster)", s)
}
