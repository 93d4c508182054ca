package main

import (
	"fmt"
	"net/http"

	"github.com/contactkeval/oi-clusters/internal/chart"
	"github.com/contactkeval/oi-clusters/internal/cluster"
	"github.com/contactkeval/oi-clusters/internal/config"
	"github.com/contactkeval/oi-clusters/internal/data"
	"github.com/contactkeval/oi-clusters/internal/filter"
	"github.com/contactkeval/oi-clusters/internal/logger"
	"github.com/contactkeval/oi-clusters/internal/pipeline"
)

// newSource picks the market data source. Without an explicit name the
// Massive API is used when a key is configured and synthetic data otherwise.
func newSource(cfg *config.Config) data.Source {
	switch cfg.Provider.Name {
	case config.ProviderMassive:
		logger.Infof("massive provider enabled")
		return newMassive(cfg)
	case config.ProviderSynthetic:
		logger.Infof("synthetic provider enabled")
		return data.NewSyntheticProvider()
	case config.ProviderLocal:
		var secondary data.Source
		if cfg.Provider.APIKey != "" {
			secondary = newMassive(cfg)
		}
		logger.Infof("local provider enabled (dir=%s, massive fallback=%t)", cfg.Provider.DataDir, secondary != nil)
		return data.NewLocalFileDataProvider(cfg.Provider.DataDir, secondary)
	}

	if cfg.Provider.APIKey != "" {
		logger.Infof("massive provider enabled")
		return newMassive(cfg)
	}
	logger.Infof("synthetic provider enabled (set POLYGON_API_KEY for live data)")
	return data.NewSyntheticProvider()
}

func newMassive(cfg *config.Config) data.Source {
	opts := []data.MassiveOption{
		data.WithHTTPClient(&http.Client{Timeout: cfg.Provider.Timeout}),
		data.WithPriceLookback(cfg.Analysis.PriceLookback),
	}
	if cfg.Provider.BaseURL != "" {
		opts = append(opts, data.WithBaseURL(cfg.Provider.BaseURL))
	}
	return data.NewMassiveDataProvider(cfg.Provider.APIKey, opts...)
}

// analysisSettings are the per-run knobs a command may override.
type analysisSettings struct {
	clusters int
	format   string
	filter   string
}

func settingsFromConfig(cfg *config.Config) analysisSettings {
	return analysisSettings{
		clusters: cfg.Analysis.Clusters,
		format:   cfg.Chart.Format,
		filter:   cfg.Analysis.StrikeFilter,
	}
}

func newPipeline(cfg *config.Config, src data.Source, s analysisSettings) (*pipeline.Pipeline, error) {
	format, err := chart.ParseFormat(s.format)
	if err != nil {
		return nil, err
	}
	f, err := filter.Compile(s.filter)
	if err != nil {
		return nil, fmt.Errorf("strike filter: %w", err)
	}
	if s.clusters < 1 {
		return nil, fmt.Errorf("clusters must be >= 1, got %d", s.clusters)
	}

	return pipeline.New(src,
		pipeline.WithClusters(s.clusters),
		pipeline.WithClusterer(cluster.KMeans{Seed: cfg.Analysis.Seed, Runs: cfg.Analysis.Runs}),
		pipeline.WithRenderer(chart.Renderer{Width: cfg.Chart.Width, Height: cfg.Chart.Height, Format: format}),
		pipeline.WithFilter(f),
	), nil
}
