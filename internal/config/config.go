// Package config loads and validates the generator's YAML configuration.
package config

import (
	"time"

	"github.com/Defantinis/n8n-ultimate-sub007/internal/generator"
	"github.com/Defantinis/n8n-ultimate-sub007/internal/llm"
)

// Config is the root configuration for the workflow generator.
type Config struct {
	LLM       LLMConfig       `mapstructure:"llm" yaml:"llm"`
	Cache     CacheConfig     `mapstructure:"cache" yaml:"cache"`
	Generator GeneratorConfig `mapstructure:"generator" yaml:"generator"`
	Catalog   CatalogConfig   `mapstructure:"catalog" yaml:"catalog,omitempty"`
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
}

// LLMConfig configures the generation client.
type LLMConfig struct {
	BaseURL           string        `mapstructure:"base_url" yaml:"base_url"`
	Model             string        `mapstructure:"model" yaml:"model"`
	MaxInFlight       int           `mapstructure:"max_in_flight" yaml:"max_in_flight" validate:"min=0,max=64"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" yaml:"requests_per_second" validate:"min=0"`
	Timeout           time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// CacheConfig configures the prompt/response cache.
type CacheConfig struct {
	Enabled  bool          `mapstructure:"enabled" yaml:"enabled"`
	Capacity int           `mapstructure:"capacity" yaml:"capacity" validate:"min=0,max=65536"`
	TTL      time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

// GeneratorConfig configures the pipeline bounds.
type GeneratorConfig struct {
	ComplexityThreshold   int      `mapstructure:"complexity_threshold" yaml:"complexity_threshold" validate:"min=0,max=10"`
	MaxOptimizationPasses int      `mapstructure:"max_optimization_passes" yaml:"max_optimization_passes" validate:"min=0,max=5"`
	DefaultTags           []string `mapstructure:"default_tags" yaml:"default_tags,omitempty"`
}

// CatalogConfig points at an optional node-template overlay file.
type CatalogConfig struct {
	OverlayPath string `mapstructure:"overlay_path" yaml:"overlay_path,omitempty"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `mapstructure:"format" yaml:"format" validate:"omitempty,oneof=text json"`
}

// DefaultConfig returns a ready-to-run configuration for a local generation
// service.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			BaseURL:     llm.DefaultBaseURL,
			Model:       llm.DefaultModel,
			MaxInFlight: llm.DefaultMaxInFlight,
			Timeout:     llm.DefaultTimeout,
		},
		Cache: CacheConfig{
			Enabled:  true,
			Capacity: llm.DefaultCacheCapacity,
			TTL:      llm.DefaultCacheTTL,
		},
		Generator: GeneratorConfig{
			ComplexityThreshold:   generator.DefaultConfig().ComplexityThreshold,
			MaxOptimizationPasses: generator.DefaultConfig().MaxOptimizationPasses,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// ClientConfig converts the LLM section into the client's config type.
func (c *Config) ClientConfig() llm.Config {
	return llm.Config{
		BaseURL:           c.LLM.BaseURL,
		Model:             c.LLM.Model,
		MaxInFlight:       c.LLM.MaxInFlight,
		RequestsPerSecond: c.LLM.RequestsPerSecond,
		Timeout:           c.LLM.Timeout,
	}
}

// PipelineConfig converts the generator section into the pipeline's config
// type.
func (c *Config) PipelineConfig() generator.Config {
	return generator.Config{
		ComplexityThreshold:   c.Generator.ComplexityThreshold,
		MaxOptimizationPasses: c.Generator.MaxOptimizationPasses,
		DefaultTags:           c.Generator.DefaultTags,
	}
}
