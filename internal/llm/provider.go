package llm

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/ppiankov/foresight/internal/model"
)

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Summarize writes a narrative for an assembled report
	Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// SummarizeRequest contains the input for LLM summarization
type SummarizeRequest struct {
	// Report is the assembled view-model to narrate
	Report model.ReportViewModel

	// AllowedFigures are the percentages the narrative may quote.
	// In strict mode a response quoting anything else is rejected.
	AllowedFigures []float64

	// Prompt is an optional custom prompt (if empty, use default)
	Prompt string

	// Model is the specific model to use (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// SummarizeResponse contains the LLM's summary output
type SummarizeResponse struct {
	Summary string

	// CitedFigures are the percentages found in Summary
	CitedFigures []float64

	Model      string
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "ollama", ""
	Provider string

	Model   string
	APIKey  string
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// StrictFigures rejects responses quoting figures outside AllowedFigures
	StrictFigures bool

	MaxTokens int
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:      "", // Disabled by default
		Timeout:       30,
		StrictFigures: true,
		MaxTokens:     600,
	}
}

const systemPrompt = "You are an analyst who explains consumer sentiment and sales risk reports using only the figures provided."

// BuildPrompt constructs the default narrative prompt
func BuildPrompt(report model.ReportViewModel) string {
	var b strings.Builder

	fmt.Fprintf(&b, `You are writing a short narrative for a sales-risk report about %s.

RULES:
1. Quote ONLY the figures listed below. Do not compute new percentages.
2. The risk level is assigned upstream. Do not reassess it.
3. If comment volume is low, say the signal is weak.

Report:
- Product: %s
- Brand: %s
- Platform: %s
- Average sentiment: %.2f
- Negative comment share: %.1f%%
- Total posts: %d
- Predicted sales drop: %.1f%%
- Loss probability: %.1f%%
- Risk level: %s
- Confidence score: %d%%
- Distribution (%s): %.1f%% negative, %.1f%% neutral, %.1f%% positive

Recovery plan:
`, subject(report), report.Product, orDash(report.Brand), report.Platform,
		report.Sentiment.AverageSentiment,
		report.Sentiment.NegativePercentage,
		report.Sentiment.TotalPosts,
		report.Prediction.PredictedDropPercentage,
		report.Prediction.LossProbability*100,
		report.Prediction.RiskLevel,
		report.Scores.ConfidenceScore,
		report.Distribution.Source,
		report.Distribution.Negative, report.Distribution.Neutral, report.Distribution.Positive,
	)

	for _, phase := range report.Recovery {
		fmt.Fprintf(&b, "- %s (%s): %d%% of the drop recovered\n", phase.Title, phase.Label, phase.DisplayPercentage)
	}

	if report.Prediction.Explanation != "" {
		fmt.Fprintf(&b, "\nUpstream explanation: %s\n", report.Prediction.Explanation)
	}

	b.WriteString("\nWrite 3-4 sentences for a product manager: the main risk and the first action to take.")

	return b.String()
}

// AllowedFigures lists every percentage the report displays
func AllowedFigures(report model.ReportViewModel) []float64 {
	figures := []float64{
		report.Sentiment.NegativePercentage,
		report.Prediction.PredictedDropPercentage,
		report.Prediction.LossProbability * 100,
		report.Prediction.Confidence * 100,
		float64(report.Scores.ConfidenceScore),
		report.Scores.Health,
		report.Scores.SentimentHealth,
		report.Distribution.Negative,
		report.Distribution.Neutral,
		report.Distribution.Positive,
		report.TargetRecovery,
	}
	for _, phase := range report.Recovery {
		figures = append(figures, phase.CumulativeRecoveryPercentage)
	}
	for _, point := range report.Impact {
		figures = append(figures, point.Projected)
	}
	sort.Float64s(figures)
	return figures
}

var percentPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s?%`)

// extractFigures returns the distinct percentages quoted in text
func extractFigures(text string) []float64 {
	var figures []float64
	seen := make(map[string]bool)
	for _, m := range percentPattern.FindAllStringSubmatch(text, -1) {
		if seen[m[1]] {
			continue
		}
		seen[m[1]] = true
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		figures = append(figures, v)
	}
	return figures
}

// figureAllowed matches whole numbers against rounded values and decimals
// within one displayed decimal place
func figureAllowed(cited float64, allowed []float64) bool {
	whole := cited == math.Trunc(cited)
	for _, a := range allowed {
		if whole && math.Round(a) == cited {
			return true
		}
		if math.Abs(a-cited) <= 0.05 {
			return true
		}
	}
	return false
}

// checkFigures returns an error naming the first quoted figure not allowed
func checkFigures(cited, allowed []float64) error {
	for _, c := range cited {
		if !figureAllowed(c, allowed) {
			return fmt.Errorf("FIGURE LEAK: narrative quoted %s%% which is not in the report", strconv.FormatFloat(c, 'f', -1, 64))
		}
	}
	return nil
}

func subject(r model.ReportViewModel) string {
	if r.Brand == "" {
		return r.Product
	}
	return r.Brand + " " + r.Product
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
