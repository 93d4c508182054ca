package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultProviderTimeout = 30 * time.Second
	DefaultDataDir         = "data"
	DefaultClusters        = 3
	DefaultSeed            = 42
	DefaultRuns            = 10
	DefaultPriceLookback   = 96 * time.Hour
	DefaultExportDir       = "."
	DefaultChartWidth      = 1000
	DefaultChartHeight     = 600
	DefaultChartFormat     = "png"
	DefaultServerAddr      = ":8080"
	DefaultMaxResults      = 32
	DefaultLogVerbosity    = "info"
)

// Default returns a config with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	// Provider defaults; Name stays empty so the key decides.
	if c.Provider.Timeout == 0 {
		c.Provider.Timeout = DefaultProviderTimeout
	}
	if c.Provider.DataDir == "" {
		c.Provider.DataDir = DefaultDataDir
	}

	// Analysis defaults
	if c.Analysis.Clusters == 0 {
		c.Analysis.Clusters = DefaultClusters
	}
	if c.Analysis.Seed == 0 {
		c.Analysis.Seed = DefaultSeed
	}
	if c.Analysis.Runs == 0 {
		c.Analysis.Runs = DefaultRuns
	}
	if c.Analysis.PriceLookback == 0 {
		c.Analysis.PriceLookback = DefaultPriceLookback
	}

	if c.Export.Dir == "" {
		c.Export.Dir = DefaultExportDir
	}

	// Chart defaults
	if c.Chart.Width == 0 {
		c.Chart.Width = DefaultChartWidth
	}
	if c.Chart.Height == 0 {
		c.Chart.Height = DefaultChartHeight
	}
	if c.Chart.Format == "" {
		c.Chart.Format = DefaultChartFormat
	}

	// Server defaults
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultServerAddr
	}
	if c.Server.MaxResults == 0 {
		c.Server.MaxResults = DefaultMaxResults
	}

	if c.Log.Verbosity == "" {
		c.Log.Verbosity = DefaultLogVerbosity
	}
}
