package analyzer

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/viant/extgraph/inspector/graph"
)

// Config represents indexing configuration
type Config struct {
	Toolkit        string   `mapstructure:"toolkit" yaml:"toolkit"`
	Packages       []string `mapstructure:"packages" yaml:"packages"`
	Namespace      string   `mapstructure:"namespace" yaml:"namespace"`
	MergeOverrides bool     `mapstructure:"merge-overrides" yaml:"merge-overrides"`
	DeferOverrides bool     `mapstructure:"defer-overrides" yaml:"defer-overrides"`
	CacheSize      int      `mapstructure:"cache-size" yaml:"cache-size"`
}

// DefaultConfig returns config with the classic toolkit and no cache
func DefaultConfig() *Config {
	return &Config{
		Toolkit: "classic",
	}
}

// Options returns construction options for the package directory
func (c *Config) Options(path string) Options {
	return Options{
		Path:      path,
		Toolkit:   c.Toolkit,
		Packages:  c.Packages,
		Namespace: c.Namespace,
	}
}

// WalkerOptions returns walker options derived from config
func (c *Config) WalkerOptions() []Option {
	return []Option{
		WithMergeOverrides(c.MergeOverrides),
		WithDeferredOverrides(c.DeferOverrides),
		WithCacheSize(c.CacheSize),
	}
}

// Analyze walks the package at path and returns the populated index, opts take precedence over config
func Analyze(ctx context.Context, path string, config *Config, logger *log.Logger, opts ...Option) (*graph.Index, error) {
	if config == nil {
		config = DefaultConfig()
	}
	options := config.WalkerOptions()
	if logger != nil {
		options = append(options, WithLogger(logger))
	}
	options = append(options, opts...)
	walker, err := New(ctx, config.Options(path), options...)
	if err != nil {
		return nil, err
	}
	if err = walker.Run(ctx); err != nil {
		return nil, err
	}
	return walker.Index(), nil
}
