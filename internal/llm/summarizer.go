package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/foresight/internal/model"
)

// Summarizer attaches an optional narrative to assembled reports
type Summarizer struct {
	provider Provider
	config   Config
}

// NewSummarizer creates a summarizer; a disabled config yields a no-op one
func NewSummarizer(config Config) (*Summarizer, error) {
	provider, err := NewProvider(config)
	if err != nil {
		return nil, err
	}
	return &Summarizer{provider: provider, config: config}, nil
}

// IsEnabled reports whether a provider is configured
func (s *Summarizer) IsEnabled() bool {
	return s != nil && s.provider != nil
}

// ProviderName returns the configured provider or ""
func (s *Summarizer) ProviderName() string {
	if !s.IsEnabled() {
		return ""
	}
	return s.provider.Name()
}

// GenerateSummary narrates report. Provider problems are reported as
// warnings on the returned narrative, never as errors, and the report itself
// is not modified. Returns nil when disabled.
func (s *Summarizer) GenerateSummary(ctx context.Context, report model.ReportViewModel) (*model.Narrative, error) {
	if !s.IsEnabled() {
		return nil, nil
	}

	narrative := &model.Narrative{
		Provider: s.provider.Name(),
		Model:    s.config.Model,
	}

	if !s.provider.IsAvailable(ctx) {
		narrative.Warnings = append(narrative.Warnings,
			fmt.Sprintf("LLM provider %q is not available", s.provider.Name()))
		return narrative, nil
	}
	narrative.Enabled = true

	resp, err := s.provider.Summarize(ctx, SummarizeRequest{
		Report:         report,
		AllowedFigures: AllowedFigures(report),
		Model:          s.config.Model,
		MaxTokens:      s.config.MaxTokens,
	})
	if err != nil {
		narrative.Warnings = append(narrative.Warnings, fmt.Sprintf("narrative generation failed: %v", err))
		return narrative, nil
	}

	narrative.Text = resp.Summary
	if resp.Model != "" {
		narrative.Model = resp.Model
	}
	narrative.Warnings = append(narrative.Warnings, fmt.Sprintf("Tokens used: %d", resp.TokensUsed))
	if s.config.StrictFigures && len(resp.CitedFigures) > 0 {
		narrative.Warnings = append(narrative.Warnings,
			fmt.Sprintf("Verified %d quoted figures against the report", len(resp.CitedFigures)))
	}

	return narrative, nil
}

// RenderMarkdown renders a narrative as a standalone markdown section.
// Returns "" for nil or disabled narratives.
func RenderMarkdown(n *model.Narrative) string {
	if n == nil || !n.Enabled {
		return ""
	}

	var b strings.Builder
	b.WriteString("## Narrative\n\n")
	b.WriteString("> GENERATED CONTENT: written by a language model from the figures above. ")
	b.WriteString("All numbers in this report were determined independently.\n\n")
	fmt.Fprintf(&b, "- **Provider**: %s\n", n.Provider)
	if n.Model != "" {
		fmt.Fprintf(&b, "- **Model**: %s\n", n.Model)
	}
	b.WriteString("\n")

	if n.Text == "" {
		b.WriteString("_No narrative generated._\n")
	} else {
		b.WriteString(n.Text)
		b.WriteString("\n")
	}

	if len(n.Warnings) > 0 {
		b.WriteString("\n### Notes\n\n")
		for _, w := range n.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}

	return b.String()
}
