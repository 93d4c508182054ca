package config

import "time"

// Config is the root configuration shared by the CLI and the web server.
type Config struct {
	Provider ProviderConfig `yaml:"provider"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Export   ExportConfig   `yaml:"export"`
	Chart    ChartConfig    `yaml:"chart"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
}

// ProviderConfig selects and configures the market data source.
type ProviderConfig struct {
	Name    string        `yaml:"name"` // massive, synthetic or local; empty picks massive when a key is set
	APIKey  string        `yaml:"api_key"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
	DataDir string        `yaml:"data_dir"` // root of the local CSV source
}

// AnalysisConfig holds clustering and filtering settings.
type AnalysisConfig struct {
	Clusters      int           `yaml:"clusters"`
	Seed          int64         `yaml:"seed"`
	Runs          int           `yaml:"runs"`
	StrikeFilter  string        `yaml:"strike_filter"`
	PriceLookback time.Duration `yaml:"price_lookback"`
}

// ExportConfig controls where the CLI writes export and chart files.
type ExportConfig struct {
	Dir string `yaml:"dir"`
}

// ChartConfig holds chart size and output format.
type ChartConfig struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Format string `yaml:"format"`
}

// ServerConfig holds web adapter settings.
type ServerConfig struct {
	Addr       string `yaml:"addr"`
	MaxResults int    `yaml:"max_results"`
}

// LogConfig holds the log level name: error, info, debug or trace.
type LogConfig struct {
	Verbosity string `yaml:"verbosity"`
}
