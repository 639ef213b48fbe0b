package pipeline

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ppiankov/foresight/internal/derive"
	"github.com/ppiankov/foresight/internal/llm"
	"github.com/ppiankov/foresight/internal/model"
)

// Analyzer produces the raw signals for a pair
type Analyzer interface {
	Run(ctx context.Context, product, brand string) (*Analysis, error)
}

// Assembler builds report view-models from orchestrator output
type Assembler struct {
	analyzer   Analyzer
	summarizer *llm.Summarizer // nil when narratives are disabled
	platform   string
	log        logrus.FieldLogger

	now   func() time.Time
	newID func() string
}

// NewAssembler creates an assembler. summarizer may be nil.
func NewAssembler(analyzer Analyzer, cfg *model.Config, summarizer *llm.Summarizer, log logrus.FieldLogger) *Assembler {
	return &Assembler{
		analyzer:   analyzer,
		summarizer: summarizer,
		platform:   cfg.Analysis.Platform,
		log:        log,
		now:        func() time.Time { return time.Now().UTC() },
		newID:      uuid.NewString,
	}
}

// GenerateReport runs the orchestrator and derives a complete view-model.
// Orchestrator errors are returned unchanged; no view-model is built from
// partial data.
func (a *Assembler) GenerateReport(ctx context.Context, product, brand string) (*model.ReportViewModel, error) {
	product = strings.TrimSpace(product)
	brand = strings.TrimSpace(brand)

	analysis, err := a.analyzer.Run(ctx, product, brand)
	if err != nil {
		return nil, err
	}

	report, err := a.Assemble(product, brand, analysis)
	if err != nil {
		a.log.WithError(err).WithField("product", product).Error("upstream data failed validation")
		return nil, err
	}

	// Narrative runs after assembly and never touches the numbers
	if a.summarizer.IsEnabled() {
		narrative, err := a.summarizer.GenerateSummary(ctx, *report)
		if err != nil {
			a.log.WithError(err).Warn("narrative generation failed")
		} else if narrative != nil {
			report.Narrative = narrative
		}
	}

	return report, nil
}

// Assemble derives the view-model from validated raw signals
func (a *Assembler) Assemble(product, brand string, analysis *Analysis) (*model.ReportViewModel, error) {
	if analysis == nil {
		return nil, &model.ValidationError{Reason: "no analysis"}
	}
	checked := *analysis
	checked.Prediction.PredictedDropPercentage = a.clampDrop(product, analysis.Prediction.PredictedDropPercentage)
	if err := validateAnalysis(&checked); err != nil {
		return nil, err
	}

	s, p := checked.Sentiment, checked.Prediction

	var dist model.SentimentDistribution
	if checked.Distribution != nil {
		dist = *checked.Distribution
	} else {
		var err error
		if dist, err = derive.EstimateDistribution(s.NegativePercentage); err != nil {
			return nil, err
		}
	}

	drop := p.PredictedDropPercentage
	return &model.ReportViewModel{
		ID:          a.newID(),
		Product:     product,
		Brand:       brand,
		Platform:    a.platform,
		GeneratedAt: a.now(),

		Sentiment:    s,
		Prediction:   p,
		Distribution: dist,
		Counts:       counts(dist, s.TotalPosts),

		Scores:         derive.Project(s, p),
		Advice:         derive.Advice(p.RiskLevel),
		Recovery:       derive.GenerateTimeline(drop, p.RiskLevel),
		TargetRecovery: derive.TargetRecovery(drop),
		Impact:         derive.ProjectImpact(drop),
		Checklist:      derive.Checklist(s),
		Highlights:     derive.Highlights(s, p),
	}, nil
}

// clampDrop bounds a finite drop to [0, 100]. The regressor can exceed 100
// when predicted revenue goes negative.
func (a *Assembler) clampDrop(product string, drop float64) float64 {
	if math.IsNaN(drop) || math.IsInf(drop, 0) || (drop >= 0 && drop <= 100) {
		return drop
	}
	clamped := math.Max(0, math.Min(100, drop))
	a.log.WithFields(logrus.Fields{
		"product": product,
		"drop":    drop,
		"clamped": clamped,
	}).Warn("predicted drop outside [0, 100], clamping")
	return clamped
}

// counts estimates per-category posts. A dashboard distribution covers a
// different window than total_posts, so no counts are derived from it.
func counts(dist model.SentimentDistribution, totalPosts int) *model.EstimatedCounts {
	if dist.Source == model.SourceUpstream {
		return nil
	}
	c := derive.EstimateCounts(dist, totalPosts)
	return &c
}

// validateAnalysis rejects non-finite or out-of-range required numbers
func validateAnalysis(a *Analysis) error {
	checks := []struct {
		field  string
		value  float64
		lo, hi float64
	}{
		{"average_sentiment", a.Sentiment.AverageSentiment, -1, 1},
		{"negative_percentage", a.Sentiment.NegativePercentage, 0, 100},
		{"predicted_drop_percentage", a.Prediction.PredictedDropPercentage, 0, 100},
		{"loss_probability", a.Prediction.LossProbability, 0, 1},
		{"confidence", a.Prediction.Confidence, 0, 1},
	}
	for _, c := range checks {
		if math.IsNaN(c.value) || math.IsInf(c.value, 0) {
			return &model.ValidationError{Field: c.field, Reason: "not a finite number"}
		}
		if c.value < c.lo || c.value > c.hi {
			return &model.ValidationError{Field: c.field, Reason: fmt.Sprintf("%g outside [%g, %g]", c.value, c.lo, c.hi)}
		}
	}
	if a.Sentiment.TotalPosts < 0 {
		return &model.ValidationError{Field: "total_posts", Reason: "must not be negative"}
	}
	if !a.Prediction.RiskLevel.Valid() {
		return &model.ValidationError{Field: "risk_level", Reason: fmt.Sprintf("unknown risk level %q", a.Prediction.RiskLevel)}
	}
	if d := a.Distribution; d != nil {
		for _, v := range []float64{d.Negative, d.Neutral, d.Positive} {
			if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 || v > 100 {
				return &model.ValidationError{Field: "sentiment_distribution", Reason: "component outside [0, 100]"}
			}
		}
	}
	return nil
}
