package config

import (
	"errors"
	"fmt"

	"github.com/contactkeval/oi-clusters/internal/chart"
	"github.com/contactkeval/oi-clusters/internal/filter"
)

// Provider names accepted in provider.name.
const (
	ProviderMassive   = "massive"
	ProviderSynthetic = "synthetic"
	ProviderLocal     = "local"
)

// Validate checks that all values are usable.
func (c *Config) Validate() error {
	switch c.Provider.Name {
	case "", ProviderSynthetic, ProviderLocal:
	case ProviderMassive:
		if c.Provider.APIKey == "" {
			return errors.New("provider.api_key is required for the massive provider (or set POLYGON_API_KEY)")
		}
	default:
		return fmt.Errorf("provider.name must be massive, synthetic or local, got %q", c.Provider.Name)
	}
	if c.Provider.Timeout < 0 {
		return errors.New("provider.timeout must be >= 0")
	}

	if c.Analysis.Clusters < 1 {
		return fmt.Errorf("analysis.clusters must be >= 1, got %d", c.Analysis.Clusters)
	}
	if c.Analysis.Runs < 1 {
		return errors.New("analysis.runs must be >= 1")
	}
	if c.Analysis.PriceLookback < 0 {
		return errors.New("analysis.price_lookback must be >= 0")
	}
	if _, err := filter.Compile(c.Analysis.StrikeFilter); err != nil {
		return fmt.Errorf("analysis.strike_filter: %w", err)
	}

	if c.Chart.Width < 100 || c.Chart.Height < 100 {
		return fmt.Errorf("chart size must be at least 100x100, got %dx%d", c.Chart.Width, c.Chart.Height)
	}
	if _, err := chart.ParseFormat(c.Chart.Format); err != nil {
		return fmt.Errorf("chart.format: %w", err)
	}

	if c.Server.MaxResults < 1 {
		return errors.New("server.max_results must be >= 1")
	}

	switch c.Log.Verbosity {
	case "error", "info", "debug", "trace":
	default:
		return fmt.Errorf("log.verbosity must be error, info, debug or trace, got %q", c.Log.Verbosity)
	}
	return nil
}
