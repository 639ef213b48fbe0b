package model

import (
	"fmt"
	"time"
)

// Config is the complete runtime configuration
type Config struct {
	Upstream     UpstreamConfig     `yaml:"upstream" mapstructure:"upstream"`
	Analysis     AnalysisConfig     `yaml:"analysis" mapstructure:"analysis"`
	Timeouts     TimeoutConfig      `yaml:"timeouts" mapstructure:"timeouts"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	Store        StoreConfig        `yaml:"store" mapstructure:"store"`
	Log          LogConfig          `yaml:"log" mapstructure:"log"`
	Output       OutputConfig       `yaml:"output" mapstructure:"output"`
	LLM          LLMConfig          `yaml:"llm" mapstructure:"llm"`
}

// UpstreamConfig locates the analytics/prediction service
type UpstreamConfig struct {
	BaseURL                  string `yaml:"base_url" mapstructure:"base_url"`
	UserAgent                string `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes             int64  `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	MaxVideos                int    `yaml:"max_videos" mapstructure:"max_videos"` // comment refresh breadth
	RefreshComments          bool   `yaml:"refresh_comments" mapstructure:"refresh_comments"`
	UseDashboardDistribution bool   `yaml:"use_dashboard_distribution" mapstructure:"use_dashboard_distribution"`
	AllowPartial             bool   `yaml:"allow_partial" mapstructure:"allow_partial"` // surface PartialDataError
}

// AnalysisConfig scopes the upstream queries
type AnalysisConfig struct {
	Platform  string `yaml:"platform" mapstructure:"platform"`
	StartDate string `yaml:"start_date" mapstructure:"start_date"`
	EndDate   string `yaml:"end_date" mapstructure:"end_date"`
}

// TimeoutConfig bounds each orchestrator step independently
type TimeoutConfig struct {
	Refresh    time.Duration `yaml:"refresh" mapstructure:"refresh"`
	Sentiment  time.Duration `yaml:"sentiment" mapstructure:"sentiment"`
	Prediction time.Duration `yaml:"prediction" mapstructure:"prediction"`
	Dashboard  time.Duration `yaml:"dashboard" mapstructure:"dashboard"`
}

// RateLimitingConfig bounds calls per upstream endpoint
type RateLimitingConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// ConcurrencyConfig controls batch parallelism
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// StoreConfig selects the key-value backend for product/brand persistence
type StoreConfig struct {
	Backend   string        `yaml:"backend" mapstructure:"backend"` // memory, disk, layered, redis
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	TTL       time.Duration `yaml:"ttl" mapstructure:"ttl"` // 0 keeps entries forever
	RedisAddr string        `yaml:"redis_addr" mapstructure:"redis_addr"`
	RedisDB   int           `yaml:"redis_db" mapstructure:"redis_db"`
}

// LogConfig controls logrus output
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // text, json
	File   string `yaml:"file" mapstructure:"file"`
}

// OutputConfig controls report rendering
type OutputConfig struct {
	Verbose       bool `yaml:"verbose" mapstructure:"verbose"`
	IncludeFooter bool `yaml:"include_footer" mapstructure:"include_footer"`
}

// LLMConfig enables the optional narrative summary
type LLMConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"` // "", openai, ollama
	Model     string `yaml:"model" mapstructure:"model"`
	APIKey    string `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL   string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout   int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`

	// StrictFigures rejects narratives quoting percentages absent from the report
	StrictFigures bool `yaml:"strict_figures" mapstructure:"strict_figures"`
}

// DefaultConfig returns the reference configuration
func DefaultConfig() *Config {
	return &Config{
		Upstream: UpstreamConfig{
			BaseURL:                  "http://localhost:8000",
			UserAgent:                "Foresight/0.1 (+https://github.com/ppiankov/foresight)",
			MaxBodyBytes:             1 << 20,
			MaxVideos:                20,
			RefreshComments:          true,
			UseDashboardDistribution: true,
		},
		Analysis: AnalysisConfig{
			Platform:  "YouTube",
			StartDate: "2024-01-01",
			EndDate:   "2024-12-31",
		},
		Timeouts: TimeoutConfig{
			Refresh:    60 * time.Second,
			Sentiment:  60 * time.Second,
			Prediction: 30 * time.Second,
			Dashboard:  15 * time.Second,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 2,
			BurstSize:         2,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 2,
		},
		Store: StoreConfig{
			Backend:   "disk",
			Dir:       ".foresight/store",
			RedisAddr: "localhost:6379",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Output: OutputConfig{
			IncludeFooter: true,
		},
		LLM: LLMConfig{
			Timeout:       30,
			MaxTokens:     600,
			StrictFigures: true,
		},
	}
}

// Validate checks the configuration for values the pipeline cannot run with
func (c *Config) Validate() error {
	if c.Upstream.BaseURL == "" {
		return &ValidationError{Field: "upstream.base_url", Reason: "must not be empty"}
	}
	for name, d := range map[string]time.Duration{
		"timeouts.refresh":    c.Timeouts.Refresh,
		"timeouts.sentiment":  c.Timeouts.Sentiment,
		"timeouts.prediction": c.Timeouts.Prediction,
		"timeouts.dashboard":  c.Timeouts.Dashboard,
	} {
		if d <= 0 {
			return &ValidationError{Field: name, Reason: fmt.Sprintf("must be positive, got %s", d)}
		}
	}
	if _, err := c.Analysis.DateRange(); err != nil {
		return err
	}
	switch c.Store.Backend {
	case "memory", "disk", "layered", "redis":
	default:
		return &ValidationError{Field: "store.backend", Reason: fmt.Sprintf("unknown backend %q", c.Store.Backend)}
	}
	return nil
}

// DateRange parses the configured analysis window
func (a AnalysisConfig) DateRange() (DateRange, error) {
	return NewDateRange(a.StartDate, a.EndDate)
}
