package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ppiankov/foresight/internal/llm"
	"github.com/ppiankov/foresight/internal/logging"
	"github.com/ppiankov/foresight/internal/model"
	"github.com/ppiankov/foresight/internal/pipeline"
	"github.com/ppiankov/foresight/internal/store"
	"github.com/ppiankov/foresight/internal/upstream"
	"github.com/ppiankov/foresight/internal/worker"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// app holds the wired components shared by the report commands
type app struct {
	cfg       *model.Config
	log       *logrus.Logger
	assembler *pipeline.Assembler
	store     store.Store
	renderer  *pipeline.Renderer
}

// loadConfig merges defaults, config file, env and flags into a validated Config
func loadConfig(v *viper.Viper) (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := registerDefaults(v, cfg); err != nil {
		return nil, err
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	// Provider-native env vars fill gaps left by FORESIGHT_LLM_*
	switch strings.ToLower(cfg.LLM.Provider) {
	case "openai":
		if cfg.LLM.APIKey == "" {
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	case "ollama":
		if cfg.LLM.BaseURL == "" {
			cfg.LLM.BaseURL = os.Getenv("OLLAMA_BASE_URL")
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// registerDefaults makes every config key known to viper so that
// AutomaticEnv can override keys absent from the config file
func registerDefaults(v *viper.Viper, cfg *model.Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal defaults: %w", err)
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return fmt.Errorf("unmarshal defaults: %w", err)
	}
	setDefaults(v, "", tree)
	// omitempty keys are absent from the marshaled tree
	v.SetDefault("llm.api_key", cfg.LLM.APIKey)
	v.SetDefault("llm.base_url", cfg.LLM.BaseURL)
	return nil
}

func setDefaults(v *viper.Viper, prefix string, tree map[string]any) {
	for k, val := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := val.(map[string]any); ok {
			setDefaults(v, key, sub)
			continue
		}
		v.SetDefault(key, val)
	}
}

// newApp wires logging, rate limiting, the upstream client, the
// orchestrator, the optional summarizer and the selection store
func newApp(cfg *model.Config) (*app, error) {
	log, err := logging.New(cfg.Log.Level, cfg.Log.Format, cfg.Log.File)
	if err != nil {
		return nil, err
	}
	if cfg.Output.Verbose && log.GetLevel() < logrus.DebugLevel {
		log.SetLevel(logrus.DebugLevel)
	}

	limiter := worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)
	client := upstream.NewClient(cfg.Upstream, limiter)
	orchestrator := pipeline.NewOrchestrator(client, cfg, log)

	summarizer, err := llm.NewSummarizer(llm.ConfigFromModel(cfg.LLM))
	if err != nil {
		log.WithError(err).Warn("LLM narrative disabled")
		summarizer = nil
	}

	st, err := store.New(cfg.Store)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:       cfg,
		log:       log,
		assembler: pipeline.NewAssembler(orchestrator, cfg, summarizer, log),
		store:     st,
		renderer:  pipeline.NewRenderer(cfg.Output.IncludeFooter),
	}, nil
}

// Close releases the store's connections, if it holds any
func (a *app) Close() {
	if c, ok := a.store.(io.Closer); ok {
		if err := c.Close(); err != nil {
			a.log.WithError(err).Warn("close store")
		}
	}
}
