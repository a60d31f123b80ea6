// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: linest, a linear estimation engine (OLS, FGLS, IV, GMM)
// Class: 02-613 at Caregie Mellon University

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Defaults for the fit command
const (
	DefaultConfigFile = "linest.yaml"
	DefaultMethod     = "ols"
	DefaultCov        = "nonrobust"
	DefaultLevel      = 0.95
	envPrefix         = "LINEST_"
)

// Config is everything the fit command needs. Column lists are
// comma-separated so they read the same from flags, env and YAML.
type Config struct {
	Data        string  `koanf:"data"`
	Y           string  `koanf:"y"`
	X           string  `koanf:"x"`
	Z           string  `koanf:"z"`
	Method      string  `koanf:"method"`
	Cov         string  `koanf:"cov"`
	Lags        int     `koanf:"lags"`
	Cluster     string  `koanf:"cluster"`
	Weights     string  `koanf:"weights"`
	Dist        string  `koanf:"dist"`
	Level       float64 `koanf:"level"`
	NoIntercept bool    `koanf:"no_intercept"`
	Weighting   string  `koanf:"weighting"`
	Steps       int     `koanf:"steps"`
	Bootstrap   int     `koanf:"bootstrap"`
	Seed        int64   `koanf:"seed"`
	Workers     int     `koanf:"workers"`
	Out         string  `koanf:"out"`
	Verbose     bool    `koanf:"verbose"`
}

// XColumns splits the regressor list.
func (c *Config) XColumns() []string { return splitList(c.X) }

// ZColumns splits the instrument list.
func (c *Config) ZColumns() []string { return splitList(c.Z) }

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// findConfigFile returns the explicit path, or ./linest.yaml when it exists.
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if _, err := os.Stat(DefaultConfigFile); err == nil {
		return DefaultConfigFile
	}
	return ""
}

// LoadConfig layers defaults, the YAML file, LINEST_ environment variables
// and explicitly set flags, later layers winning. It also returns the config
// file that was read, if any.
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, string, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"method":  DefaultMethod,
		"cov":     DefaultCov,
		"level":   DefaultLevel,
		"steps":   2,
		"seed":    1,
		"verbose": false,
	}, "."), nil); err != nil {
		return nil, "", fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	used := findConfigFile(cfgFile)
	if used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, "", fmt.Errorf("error reading config file %s: %w", used, err)
		}
	}

	// 3. Environment: LINEST_NO_INTERCEPT -> no_intercept
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return nil, "", fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags that were set on the command line
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed || f.Name == "config" {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, "", fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, "", fmt.Errorf("unable to decode config: %w", err)
	}
	return &cfg, used, nil
}

// Validate checks the settings that do not depend on the data.
func (c *Config) Validate() error {
	if c.Data == "" {
		return fmt.Errorf("no data file given (--data)")
	}
	if c.Y == "" {
		return fmt.Errorf("no response column given (--y)")
	}
	if len(c.XColumns()) == 0 && c.NoIntercept {
		return fmt.Errorf("no regressors: give --x or drop --no-intercept")
	}
	switch strings.ToLower(c.Method) {
	case "ols", "wls", "co", "cochrane-orcutt":
	case "iv", "2sls", "gmm":
		if len(c.ZColumns()) == 0 {
			return fmt.Errorf("method %s needs instruments (--z)", c.Method)
		}
	default:
		return fmt.Errorf("unknown method %q (ols|wls|co|iv|gmm)", c.Method)
	}
	if strings.EqualFold(c.Method, "wls") && c.Weights == "" {
		return fmt.Errorf("method wls needs a weight column (--weights)")
	}
	if c.Bootstrap < 0 {
		return fmt.Errorf("bootstrap replications must be >= 0, got %d", c.Bootstrap)
	}
	return nil
}
