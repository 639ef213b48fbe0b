package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/foresight/internal/llm"
	"github.com/ppiankov/foresight/internal/model"
)

// Renderer writes reports as JSON, Markdown, or a terminal summary
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a renderer
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// JSON returns the indented JSON encoding of report
func (r *Renderer) JSON(report *model.ReportViewModel) ([]byte, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	return append(data, '\n'), nil
}

// RenderJSON writes the JSON report to path
func (r *Renderer) RenderJSON(report *model.ReportViewModel, path string) error {
	data, err := r.JSON(report)
	if err != nil {
		return err
	}
	return writeFile(path, data)
}

// RenderMarkdown writes the Markdown report to path
func (r *Renderer) RenderMarkdown(report *model.ReportViewModel, path string) error {
	return writeFile(path, []byte(r.Markdown(report)))
}

// Markdown renders the full report
func (r *Renderer) Markdown(report *model.ReportViewModel) string {
	var b strings.Builder
	s, p := report.Sentiment, report.Prediction

	fmt.Fprintf(&b, "# Sales Risk Report: %s\n\n", title(report))
	fmt.Fprintf(&b, "- **Platform**: %s\n", report.Platform)
	fmt.Fprintf(&b, "- **Window**: %s\n", s.DateRange)
	fmt.Fprintf(&b, "- **Generated**: %s\n", report.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "- **Report ID**: %s\n\n", report.ID)

	fmt.Fprintf(&b, "> **%s** (%s risk). %s\n\n", report.Advice.Headline, p.RiskLevel, report.Advice.Recommendation)

	b.WriteString("## Key Metrics\n\n")
	b.WriteString("| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Predicted sales drop | %.1f%% (%s) |\n", p.PredictedDropPercentage, report.Scores.DropSeverity)
	fmt.Fprintf(&b, "| Loss probability | %.1f%% |\n", p.LossProbability*100)
	fmt.Fprintf(&b, "| Model confidence | %.1f%% |\n", p.Confidence*100)
	fmt.Fprintf(&b, "| Risk level | %s |\n", p.RiskLevel)
	fmt.Fprintf(&b, "| Average sentiment | %.2f |\n", s.AverageSentiment)
	fmt.Fprintf(&b, "| Negative comments | %.1f%% |\n", s.NegativePercentage)
	fmt.Fprintf(&b, "| Total posts | %d |\n\n", s.TotalPosts)

	d := report.Distribution
	fmt.Fprintf(&b, "## Sentiment Distribution (%s)\n\n", d.Source)
	if c := report.Counts; c != nil {
		b.WriteString("| Sentiment | Share | Est. posts |\n|---|---|---|\n")
		fmt.Fprintf(&b, "| Positive | %.1f%% | %d |\n", d.Positive, c.Positive)
		fmt.Fprintf(&b, "| Neutral | %.1f%% | %d |\n", d.Neutral, c.Neutral)
		fmt.Fprintf(&b, "| Negative | %.1f%% | %d |\n\n", d.Negative, c.Negative)
	} else {
		b.WriteString("| Sentiment | Share |\n|---|---|\n")
		fmt.Fprintf(&b, "| Positive | %.1f%% |\n", d.Positive)
		fmt.Fprintf(&b, "| Neutral | %.1f%% |\n", d.Neutral)
		fmt.Fprintf(&b, "| Negative | %.1f%% |\n\n", d.Negative)
	}
	switch d.Source {
	case model.SourceEstimated:
		b.WriteString("_Estimated from the negative share; no measured breakdown was available._\n\n")
	case model.SourceUpstream:
		b.WriteString("_Measured by the dashboard over its own window; post counts are not derived from it._\n\n")
	}

	sc := report.Scores
	b.WriteString("## Scores\n\n")
	fmt.Fprintf(&b, "- **Health**: %.0f/100\n", sc.Health)
	fmt.Fprintf(&b, "- **Sentiment health**: %.0f/100\n", sc.SentimentHealth)
	fmt.Fprintf(&b, "- **Confidence**: %d%%\n", sc.ConfidenceScore)
	fmt.Fprintf(&b, "- **Engagement**: %s\n\n", sc.EngagementTier)

	b.WriteString("## Recovery Plan\n\n")
	fmt.Fprintf(&b, "Target: recover %.1f%% of the predicted %.1f%% drop.\n\n", report.TargetRecovery, p.PredictedDropPercentage)
	b.WriteString("| # | Window | Phase | Recovered |\n|---|---|---|---|\n")
	for _, ph := range report.Recovery {
		fmt.Fprintf(&b, "| %d | %s | %s | %d%% |\n", ph.Order, ph.Label, ph.Title, ph.DisplayPercentage)
	}
	b.WriteString("\n")
	for _, ph := range report.Recovery {
		fmt.Fprintf(&b, "### %d. %s (%s)\n\n%s\n\n", ph.Order, ph.Title, ph.Label, ph.Description)
		for _, a := range ph.Actions {
			fmt.Fprintf(&b, "- %s\n", a)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Revenue Impact Projection\n\n")
	b.WriteString("| Period | Baseline | Projected |\n|---|---|---|\n")
	for _, pt := range report.Impact {
		fmt.Fprintf(&b, "| %s | %.0f | %.1f |\n", pt.Period, pt.Baseline, pt.Projected)
	}
	b.WriteString("\n")

	b.WriteString("## Health Checklist\n\n")
	for _, item := range report.Checklist {
		mark := " "
		if item.Passed {
			mark = "x"
		}
		fmt.Fprintf(&b, "- [%s] %s\n", mark, item.Label)
	}
	b.WriteString("\n")

	b.WriteString("## Insights\n\n")
	for _, h := range report.Highlights {
		fmt.Fprintf(&b, "- %s\n", h)
	}
	if p.Explanation != "" {
		fmt.Fprintf(&b, "- Model explanation: %s\n", p.Explanation)
	}
	b.WriteString("\n")

	if md := llm.RenderMarkdown(report.Narrative); md != "" {
		b.WriteString(md)
		b.WriteString("\n")
	}

	if r.includeFooter {
		b.WriteString("---\n\n")
		b.WriteString("_Generated by Foresight. Risk level and predicted drop are assigned by the upstream model; ")
		b.WriteString("recovery percentages are planning heuristics, not forecasts._\n")
	}

	return b.String()
}

// RenderSummary prints a short terminal summary
func (r *Renderer) RenderSummary(w io.Writer, report *model.ReportViewModel) {
	p := report.Prediction
	fmt.Fprintf(w, "\n%s\n", title(report))
	fmt.Fprintf(w, "  Risk:        %s (%s)\n", p.RiskLevel, report.Advice.Headline)
	fmt.Fprintf(w, "  Drop:        %.1f%% (%s)\n", p.PredictedDropPercentage, report.Scores.DropSeverity)
	fmt.Fprintf(w, "  Health:      %.0f/100\n", report.Scores.Health)
	fmt.Fprintf(w, "  Confidence:  %d%%\n", report.Scores.ConfidenceScore)
	fmt.Fprintf(w, "  Sentiment:   %.1f%% negative / %.1f%% neutral / %.1f%% positive (%s)\n",
		report.Distribution.Negative, report.Distribution.Neutral, report.Distribution.Positive, report.Distribution.Source)
	for _, h := range report.Highlights {
		fmt.Fprintf(w, "  - %s\n", h)
	}
	if n := report.Narrative; n != nil && n.Enabled && n.Text != "" {
		fmt.Fprintf(w, "\n  %s\n", n.Text)
	}
	fmt.Fprintln(w)
}

func title(r *model.ReportViewModel) string {
	if r.Brand == "" {
		return r.Product
	}
	return r.Product + " (" + r.Brand + ")"
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
